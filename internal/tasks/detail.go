package tasks

import (
	"context"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/cinx/internal/models"
	"github.com/desertthunder/cinx/internal/results"
	"github.com/desertthunder/cinx/internal/services"
	"github.com/desertthunder/cinx/internal/store"
)

// DetailLoader shows a movie immediately and upgrades it to the catalog's full representation in the background.
type DetailLoader struct {
	catalog    services.Catalog
	dispatcher store.Dispatcher
	scheduler  results.Scheduler
	logger     *log.Logger
}

// NewDetailLoader creates a DetailLoader. show callbacks run on scheduler.
func NewDetailLoader(catalog services.Catalog, dispatcher store.Dispatcher, scheduler results.Scheduler, logger *log.Logger) *DetailLoader {
	return &DetailLoader{catalog: catalog, dispatcher: dispatcher, scheduler: scheduler, logger: logger}
}

// Load schedules show(movie), then fetches the movie's details on a new goroutine.
//
// On success the details are merged into movie (an already loaded poster is kept when
// the details have none), the merged movie is selected in the store and show runs
// again with it. A failed fetch is logged at debug level and leaves the movie as shown.
// There is no retry.
//
// The returned channel is closed once the fetch has finished and any follow-up show has been scheduled.
func (l *DetailLoader) Load(ctx context.Context, movie models.Movie, show func(models.Movie)) <-chan struct{} {
	done := make(chan struct{})

	l.scheduler.Schedule(func() { show(movie) })

	go func() {
		defer close(done)

		detail, err := l.catalog.Movie(ctx, movie.ID)
		if err != nil {
			if l.logger != nil {
				l.logger.Debug("failed to load movie details", "id", movie.ID, "error", err)
			}
			return
		}

		merged := movie.WithDetail(*detail)
		l.dispatcher.Dispatch(store.SelectMovie{Movie: merged})
		l.scheduler.Schedule(func() { show(merged) })
	}()

	return done
}
