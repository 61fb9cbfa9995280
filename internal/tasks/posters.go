package tasks

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/time/rate"

	"github.com/desertthunder/cinx/internal/models"
	"github.com/desertthunder/cinx/internal/shared"
	"github.com/desertthunder/cinx/internal/store"
)

// PosterSyncOpts contains configuration for poster syncs.
type PosterSyncOpts struct {
	NumWorkers int     // Concurrent workers (default: 4)
	RateLimit  float64 // Requests per second (default: 4)
	Force      bool    // Refetch posters that are already stored
}

// PosterResult is the outcome of fetching a single poster.
type PosterResult struct {
	MovieID int64
	Title   string
	Bytes   int
	Error   error
}

// PosterSyncResult summarises a poster sync.
type PosterSyncResult struct {
	Total   int
	Synced  int
	Failed  int
	Skipped int
	Results []PosterResult
}

type posterJob struct {
	movie models.StoredMovie
}

type fetchedPoster struct {
	res    PosterResult
	poster []byte
}

// SyncPosters downloads the posters of movies that have a poster path but no stored poster,
// and dispatches a [store.SetPoster] for each one fetched.
//
// Posters are fetched by a worker pool sharing one rate limiter. Fetch and save failures
// are reported per movie and do not stop the sync.
func (e *Engine) SyncPosters(ctx context.Context, progress chan<- ProgressUpdate, movies []models.StoredMovie, opts PosterSyncOpts) (*PosterSyncResult, error) {
	if e.catalog == nil {
		return nil, fmt.Errorf("%w: catalog not initialized", shared.ErrServiceUnavailable)
	}

	if opts.NumWorkers <= 0 {
		opts.NumWorkers = 4
	}
	if opts.NumWorkers > 10 {
		opts.NumWorkers = 10
	}
	if opts.RateLimit <= 0 {
		opts.RateLimit = 4.0
	}

	var pending []models.StoredMovie
	for _, m := range movies {
		if m.PosterPath == "" || (len(m.Poster) > 0 && !opts.Force) {
			continue
		}
		pending = append(pending, m)
	}

	result := &PosterSyncResult{
		Total:   len(pending),
		Skipped: len(movies) - len(pending),
		Results: make([]PosterResult, 0, len(pending)),
	}
	if len(pending) == 0 {
		return result, nil
	}

	limiter := rate.NewLimiter(rate.Limit(opts.RateLimit), 1)

	jobs := make(chan posterJob, len(pending))
	fetched := make(chan fetchedPoster, len(pending))

	var wg sync.WaitGroup
	for range opts.NumWorkers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for job := range jobs {
				res, poster := e.fetchPoster(ctx, limiter, job)
				fetched <- fetchedPoster{res: res, poster: poster}
			}
		}()
	}

	e.sendProgress(progress, postersQueuedUpdate(len(pending)))
	for _, m := range pending {
		jobs <- posterJob{movie: m}
	}
	close(jobs)

	go func() {
		wg.Wait()
		close(fetched)
	}()

	completed := 0
	for f := range fetched {
		res := f.res
		completed++

		if res.Error == nil {
			if err := e.apply(store.SetPoster{ID: res.MovieID, Poster: f.poster}); err != nil {
				res.Error = fmt.Errorf("failed to save poster: %w", err)
			}
		}
		result.Results = append(result.Results, res)

		if res.Error != nil {
			result.Failed++
			e.sendProgress(progress, posterFailedUpdate(completed, len(pending), res))
			continue
		}

		result.Synced++
		e.sendProgress(progress, posterFetchedUpdate(completed, len(pending), res))
	}

	if err := ctx.Err(); err != nil {
		return result, err
	}
	return result, nil
}

func (e *Engine) fetchPoster(ctx context.Context, limiter *rate.Limiter, job posterJob) (PosterResult, []byte) {
	res := PosterResult{MovieID: job.movie.ID, Title: job.movie.Title}

	if err := limiter.Wait(ctx); err != nil {
		res.Error = err
		return res, nil
	}

	poster, err := e.catalog.Poster(ctx, job.movie.PosterPath)
	if err != nil {
		res.Error = fmt.Errorf("failed to fetch poster: %w", err)
		return res, nil
	}

	res.Bytes = len(poster)
	return res, poster
}
