package results

import (
	"context"
	"slices"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/cinx/internal/models"
)

// Source is a change-observable collection of stored movies.
type Source interface {
	Fetch(ctx context.Context, category models.Category) ([]models.StoredMovie, error)
	Observe(fn func()) (cancel func())
}

// Controller keeps a [Delegate] in step with the movies of a [Source] that match a [Predicate].
//
// With the [Inline] scheduler, delegate callbacks run while the controller is
// refreshing and must not write to the source.
type Controller struct {
	source    Source
	scheduler Scheduler
	delegate  Delegate
	logger    *log.Logger

	// OnError receives refetch failures from change notifications.
	OnError func(error)

	mu       sync.Mutex // serialises fetch + diff + schedule
	snapshot []models.StoredMovie
	cancel   func()

	viewMu    sync.RWMutex
	predicate Predicate
	shown     []models.StoredMovie
}

// NewController creates a Controller. Nothing is fetched until [Controller.Start].
func NewController(source Source, scheduler Scheduler, delegate Delegate, logger *log.Logger) *Controller {
	return &Controller{source: source, scheduler: scheduler, delegate: delegate, logger: logger}
}

// Start performs the initial fetch for p, schedules done once the rows are available
// and begins observing the source.
func (c *Controller) Start(ctx context.Context, p Predicate, done func()) error {
	if err := c.Refetch(ctx, p, done); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cancel == nil {
		c.cancel = c.source.Observe(c.changed)
	}
	return nil
}

// Refetch replaces the predicate and the snapshot without computing changes.
//
// done runs on the scheduler once [Controller.Objects] reflects the new rows; the
// display should reload in full.
func (c *Controller) Refetch(ctx context.Context, p Predicate, done func()) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	movies, err := c.fetch(ctx, p)
	if err != nil {
		return err
	}

	c.viewMu.Lock()
	c.predicate = p
	c.viewMu.Unlock()
	c.snapshot = movies

	c.scheduler.Schedule(func() {
		c.show(movies)
		if done != nil {
			done()
		}
	})
	return nil
}

// Refresh refetches with the current predicate and replays the differences on the delegate.
//
// Every call produces exactly one BeginUpdate/EndUpdate pair, even when nothing changed.
func (c *Controller) Refresh(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	p := c.Predicate()
	movies, err := c.fetch(ctx, p)
	if err != nil {
		return err
	}

	changes := Diff(c.snapshot, movies)
	c.snapshot = movies

	if c.logger != nil {
		c.logger.Debug("results changed", "predicate", p.String(), "changes", len(changes), "rows", len(movies))
	}

	c.scheduler.Schedule(func() {
		c.show(movies)
		if c.delegate != nil {
			Replay(c.delegate, changes)
		}
	})
	return nil
}

// Objects returns the rows the delegate has been told about.
//
// Called from the scheduler, it reflects every batch replayed so far.
func (c *Controller) Objects() []models.StoredMovie {
	c.viewMu.RLock()
	defer c.viewMu.RUnlock()
	return slices.Clone(c.shown)
}

// Predicate returns the current predicate.
func (c *Controller) Predicate() Predicate {
	c.viewMu.RLock()
	defer c.viewMu.RUnlock()
	return c.predicate
}

// Close stops observing the source.
func (c *Controller) Close() {
	c.mu.Lock()
	cancel := c.cancel
	c.cancel = nil
	c.mu.Unlock()

	if cancel != nil {
		cancel()
	}
}

func (c *Controller) changed() {
	if err := c.Refresh(context.Background()); err != nil {
		if c.logger != nil {
			c.logger.Error("failed to refetch results", "error", err)
		}
		if c.OnError != nil {
			c.OnError(err)
		}
	}
}

func (c *Controller) fetch(ctx context.Context, p Predicate) ([]models.StoredMovie, error) {
	movies, err := c.source.Fetch(ctx, p.Category)
	if err != nil {
		return nil, err
	}
	return p.Filter(movies), nil
}

func (c *Controller) show(movies []models.StoredMovie) {
	c.viewMu.Lock()
	defer c.viewMu.Unlock()
	c.shown = movies
}
