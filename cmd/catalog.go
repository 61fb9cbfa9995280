package main

import (
	"context"
	"fmt"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/cinx/internal/models"
	"github.com/desertthunder/cinx/internal/shared"
	"github.com/desertthunder/cinx/internal/tasks"
)

// Search searches the catalog by title.
func (r *Runner) Search(ctx context.Context, cmd *cli.Command) error {
	query := cmd.StringArg("query")
	if query == "" {
		return fmt.Errorf("%w: search query is required (use 'cinx upcoming' to browse)", shared.ErrMissingArgument)
	}
	return r.searchCatalog(ctx, cmd, query)
}

// Upcoming lists upcoming releases.
func (r *Runner) Upcoming(ctx context.Context, cmd *cli.Command) error {
	return r.searchCatalog(ctx, cmd, "")
}

func (r *Runner) searchCatalog(ctx context.Context, cmd *cli.Command, query string) error {
	if err := r.requireCatalog(); err != nil {
		return err
	}
	if err := r.open(); err != nil {
		return err
	}

	page, err := r.engine.Search(ctx, query, int(cmd.Int("page")), nil)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(page, cmd.Bool("pretty"))
	}

	title := fmt.Sprintf("Upcoming releases (page %d of %d)", page.Page, page.TotalPages)
	if query != "" {
		title = fmt.Sprintf("Results for %q (page %d of %d, %s)", query, page.Page, page.TotalPages, shared.FormatMovieCount(page.TotalResults))
	}
	r.writePlainHeader(title)

	state := r.store.State()
	now := time.Now()
	for _, m := range page.Results {
		mark := " "
		if stored, ok := state.Movie(m.ID); ok {
			mark = "+"
			if stored.Watched {
				mark = "✓"
			}
		}
		r.writePlain("%s %8d  %s\n", mark, m.ID, resultLine(m, now))
	}
	return nil
}

// PostersSync downloads missing posters for every stored movie.
func (r *Runner) PostersSync(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireCatalog(); err != nil {
		return err
	}
	if err := r.open(); err != nil {
		return err
	}

	opts := tasks.PosterSyncOpts{
		NumWorkers: int(cmd.Int("workers")),
		RateLimit:  cmd.Float("rate"),
		Force:      cmd.Bool("force"),
	}

	progressCh := make(chan tasks.ProgressUpdate, 50)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for update := range progressCh {
			if update.Step == 0 {
				r.writePlain("🖼  %s\n", update.Message)
			} else {
				r.writePlain("   [%d/%d] %s\n", update.Step, update.Total, update.Message)
			}
		}
	}()

	r.takePersistErrors()
	result, err := r.engine.SyncPosters(ctx, progressCh, r.store.State().Movies, opts)
	close(progressCh)
	<-done

	if err != nil {
		return err
	}

	r.writePlain("\n")
	r.writePlainHeader("Poster sync complete")
	r.writePlain("Synced: %d/%d\n", result.Synced, result.Total)
	r.writePlain("Skipped: %d\n", result.Skipped)
	if result.Failed > 0 {
		r.writePlain("\nFailed to fetch %d posters:\n", result.Failed)
		for _, res := range result.Results {
			if res.Error != nil {
				r.writePlain("  - %s: %v\n", res.Title, res.Error)
			}
		}
	}

	return r.takePersistErrors()
}

// APIGet makes a direct authenticated GET request to the catalog API
func (r *Runner) APIGet(ctx context.Context, cmd *cli.Command) error {
	path := cmd.StringArg("path")
	if path == "" {
		return fmt.Errorf("%w: path is required (e.g. /configuration)", shared.ErrMissingArgument)
	}
	if r.tmdb == nil {
		return fmt.Errorf("%w: set [catalog] access_token or %s", shared.ErrMissingCredentials, shared.EnvCatalogToken)
	}

	r.logger.Info("GET request", "path", path)

	resp, err := r.tmdb.Raw(ctx, path)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: status %d, body: %s", shared.ErrAPIRequest, resp.StatusCode, string(resp.Body))
	}

	if resp.IsJSON {
		return r.writeJSON(resp.JSONData, cmd.Bool("pretty") && !cmd.Bool("json"))
	}

	r.output.Write(resp.Body)
	r.output.Write([]byte("\n"))
	return nil
}

func resultLine(m models.Movie, now time.Time) string {
	return fmt.Sprintf("%s (%s)  ★ %s", m.Title, shared.FormatRelativeRelease(m.ReleaseDate, now), shared.FormatVote(m.VoteAverage))
}
