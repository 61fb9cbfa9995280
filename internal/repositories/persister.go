package repositories

import (
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/cinx/internal/shared"
	"github.com/desertthunder/cinx/internal/store"
)

var _ store.Committer = (*Persister)(nil)

// Persister is a [store.Committer] that writes every dispatched action through to a [MovieRepository]
// before the store shows it.
//
// Failed writes abandon the action. They are logged, wrapped in [shared.ErrPersistence]
// and handed to OnError; they are not retried.
type Persister struct {
	movies  *MovieRepository
	logger  *log.Logger
	OnError func(action store.Action, err error)
}

// NewPersister creates a Persister writing to movies
func NewPersister(movies *MovieRepository, logger *log.Logger) *Persister {
	return &Persister{movies: movies, logger: logger}
}

// Commit implements [store.Committer]
func (p *Persister) Commit(action store.Action, prev, next store.State) error {
	err := p.apply(action, prev, next)
	if err == nil {
		return nil
	}

	err = fmt.Errorf("%w: %s: %w", shared.ErrPersistence, store.Name(action), err)
	if p.logger != nil {
		p.logger.Error("failed to persist action", "action", store.Name(action), "error", err)
	}
	if p.OnError != nil {
		p.OnError(action, err)
	}
	return err
}

// Reload replaces the movies held by d with the stored rows, picking up writes made outside d.
func (p *Persister) Reload(d store.Dispatcher) error {
	movies, err := p.movies.All()
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrPersistence, err)
	}
	d.Dispatch(store.ReplaceMovies{Movies: movies})
	if p.logger != nil {
		p.logger.Debug("reloaded movies from storage", "movies", len(movies))
	}
	return nil
}

func (p *Persister) apply(action store.Action, prev, next store.State) error {
	switch a := action.(type) {
	case store.ImportMovie:
		return p.upsert(next, a.Movie.ID)
	case store.SaveMovie:
		return p.upsert(next, a.Movie.ID)
	case store.MarkWatched:
		m, ok := next.Movie(a.ID)
		if !ok {
			return nil
		}
		at := time.Now()
		if m.WatchedAt != nil {
			at = *m.WatchedAt
		}
		return p.movies.SetWatched(a.ID, m.Watched, at)
	case store.SetPoster:
		if _, ok := next.Movie(a.ID); !ok {
			return nil
		}
		return p.movies.UpdatePoster(a.ID, a.Poster)
	case store.DeleteMovie:
		if _, ok := prev.Movie(a.ID); !ok {
			return nil
		}
		return p.movies.Delete(a.ID)
	default:
		return nil
	}
}

func (p *Persister) upsert(state store.State, id int64) error {
	m, ok := state.Movie(id)
	if !ok {
		return nil
	}
	return p.movies.Upsert(&m)
}
