package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/cinx/internal/formatter"
	"github.com/desertthunder/cinx/internal/models"
	"github.com/desertthunder/cinx/internal/results"
	"github.com/desertthunder/cinx/internal/services"
	"github.com/desertthunder/cinx/internal/shared"
	"github.com/desertthunder/cinx/internal/store"
	"github.com/desertthunder/cinx/internal/tasks"
)

// Import imports a watchlist document and records the run in the import history.
func (r *Runner) Import(ctx context.Context, cmd *cli.Command) error {
	path := cmd.StringArg("file")
	if path == "" {
		return fmt.Errorf("%w: file to import is required", shared.ErrMissingArgument)
	}

	if err := r.open(); err != nil {
		return err
	}

	progressCh := make(chan tasks.ProgressUpdate, 10)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for update := range progressCh {
			r.writePlain("📥 %s\n", update.Message)
		}
	}()

	r.takePersistErrors()
	job, err := r.engine.ImportFile(ctx, path, progressCh)
	close(progressCh)
	<-done

	r.takePersistErrors()
	if err != nil {
		return err
	}

	return r.writePlain("✓ Imported %s from %s (run %s)\n", shared.FormatMovieCount(job.MoviesTotal), path, job.ID)
}

// Export writes stored movies in the requested format.
func (r *Runner) Export(ctx context.Context, cmd *cli.Command) error {
	format, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}

	category, err := parseCategory(cmd.String("category"))
	if err != nil {
		return err
	}

	if err := r.open(); err != nil {
		return err
	}

	movies, err := r.movies.Fetch(ctx, category)
	if err != nil {
		return err
	}

	output := cmd.String("output")
	r.logger.Info("exporting movies", "format", format, "category", category, "count", len(movies))

	switch {
	case output == "-":
		return formatter.Write(r.output, format, movies)
	case format == formatter.Markdown:
		result, err := formatter.WriteMarkdownExport(movies, output)
		if err != nil {
			return err
		}
		return r.writePlain("✓ Exported %s to %s (%d posters)\n", shared.FormatMovieCount(len(movies)), result.Directory, result.Posters)
	default:
		path, err := formatter.WriteFile(output, format, movies)
		if err != nil {
			return err
		}
		return r.writePlain("✓ Exported %s to %s\n", shared.FormatMovieCount(len(movies)), path)
	}
}

// MoviesList lists stored movies in a category, optionally narrowed by a fuzzy title filter.
func (r *Runner) MoviesList(ctx context.Context, cmd *cli.Command) error {
	category, err := parseCategory(cmd.String("category"))
	if err != nil {
		return err
	}

	if err := r.open(); err != nil {
		return err
	}

	movies, err := r.movies.Fetch(ctx, category)
	if err != nil {
		return err
	}

	p := results.Predicate{Category: category, Query: cmd.String("filter")}
	movies = p.Filter(movies)

	if cmd.Bool("json") {
		if movies == nil {
			movies = []models.StoredMovie{}
		}
		return r.writeJSON(movies, cmd.Bool("pretty"))
	}

	title := fmt.Sprintf("%s (%s)", category.Title(), shared.FormatMovieCount(len(movies)))
	if p.Query != "" {
		title = fmt.Sprintf("%s matching %q", title, p.Query)
	}
	r.writePlainHeader(title)

	now := time.Now()
	for _, m := range movies {
		r.writePlain("%8d  %s\n", m.ID, movieLine(m, now))
	}
	return nil
}

// MoviesShow prints a stored movie, upgraded with catalog details when a catalog is configured.
func (r *Runner) MoviesShow(ctx context.Context, cmd *cli.Command) error {
	id, err := parseMovieID(cmd.StringArg("id"))
	if err != nil {
		return err
	}

	if err := r.open(); err != nil {
		return err
	}

	stored, ok := r.store.State().Movie(id)
	if !ok {
		return fmt.Errorf("%w: %d", shared.ErrMovieNotFound, id)
	}

	movie := stored.Movie
	if r.catalog != nil {
		loader := tasks.NewDetailLoader(r.catalog, r.store, results.Inline{}, r.logger)
		<-loader.Load(ctx, stored.Movie, func(m models.Movie) { movie = m })
	}

	if cmd.Bool("json") {
		stored.Movie = movie
		return r.writeJSON(stored, cmd.Bool("pretty"))
	}

	r.writePlainHeader(movie.Title)
	r.writePlain("Release:  %s\n", shared.FormatRelativeRelease(movie.ReleaseDate, time.Now()))
	r.writePlain("Runtime:  %s\n", shared.FormatRuntime(movie.Runtime))
	r.writePlain("Rating:   %s (%d votes)\n", shared.FormatVote(movie.VoteAverage), movie.VoteCount)
	switch {
	case stored.WatchedAt != nil:
		r.writePlain("Seen:     %s\n", shared.FormatReleaseDate(*stored.WatchedAt))
	case stored.Watched:
		r.writePlain("Seen:     yes\n")
	default:
		r.writePlain("Seen:     not yet\n")
	}
	if movie.Overview != "" {
		r.writePlainln("%s", movie.Overview)
	}
	return nil
}

// MoviesSave loads a movie from the catalog and adds it to the collection.
func (r *Runner) MoviesSave(ctx context.Context, cmd *cli.Command) error {
	id, err := parseMovieID(cmd.StringArg("id"))
	if err != nil {
		return err
	}
	if err := r.requireCatalog(); err != nil {
		return err
	}
	if err := r.open(); err != nil {
		return err
	}

	movie, err := r.catalog.Movie(ctx, id)
	if err != nil {
		return err
	}

	watched := cmd.Bool("watched")
	if err := r.dispatch(store.SaveMovie{Movie: *movie, Watched: watched}); err != nil {
		return err
	}

	where := "your watchlist"
	if watched {
		where = "seen movies"
	}
	return r.writePlain("✓ Saved %s to %s\n", movie.Title, where)
}

// MoviesWatch marks a stored movie as seen, or back on the watchlist with --unwatch.
func (r *Runner) MoviesWatch(ctx context.Context, cmd *cli.Command) error {
	stored, err := r.lookup(cmd)
	if err != nil {
		return err
	}

	watched := !cmd.Bool("unwatch")
	if err := r.dispatch(store.MarkWatched{ID: stored.ID, Watched: watched}); err != nil {
		return err
	}

	if watched {
		return r.writePlain("✓ Marked %s as seen\n", stored.Title)
	}
	return r.writePlain("✓ Moved %s back to your watchlist\n", stored.Title)
}

// MoviesDelete removes a stored movie.
func (r *Runner) MoviesDelete(ctx context.Context, cmd *cli.Command) error {
	stored, err := r.lookup(cmd)
	if err != nil {
		return err
	}

	if err := r.dispatch(store.DeleteMovie{ID: stored.ID}); err != nil {
		return err
	}
	return r.writePlain("✓ Removed %s\n", stored.Title)
}

// MoviesOpen opens the catalog page of a movie.
func (r *Runner) MoviesOpen(ctx context.Context, cmd *cli.Command) error {
	id, err := parseMovieID(cmd.StringArg("id"))
	if err != nil {
		return err
	}

	url := services.MovieURL(id)
	r.logger.Info("opening browser", "url", url)
	if err := shared.OpenBrowser(url); err != nil {
		r.writePlain("Open this page in your browser:\n%s\n", url)
		return err
	}
	return nil
}

// ImportsHistory lists recent import runs.
func (r *Runner) ImportsHistory(ctx context.Context, cmd *cli.Command) error {
	if err := r.open(); err != nil {
		return err
	}

	jobs, err := r.imports.List(map[string]any{
		"limit":  int(cmd.Int("limit")),
		"status": cmd.String("status"),
	})
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		if jobs == nil {
			jobs = []*models.ImportJob{}
		}
		return r.writeJSON(jobs, cmd.Bool("pretty"))
	}

	r.writePlainHeader(fmt.Sprintf("Imports (%d)", len(jobs)))
	for _, job := range jobs {
		line := fmt.Sprintf("%s  %-9s  %s  %s", job.StartedAt.Format("2006-01-02 15:04"), job.Status, shared.FormatMovieCount(job.MoviesTotal), job.Source)
		if job.ErrorMessage != "" {
			line += "\n    " + job.ErrorMessage
		}
		r.writePlain("%s\n", line)
	}
	return nil
}

func (r *Runner) lookup(cmd *cli.Command) (models.StoredMovie, error) {
	id, err := parseMovieID(cmd.StringArg("id"))
	if err != nil {
		return models.StoredMovie{}, err
	}
	if err := r.open(); err != nil {
		return models.StoredMovie{}, err
	}

	stored, ok := r.store.State().Movie(id)
	if !ok {
		return models.StoredMovie{}, fmt.Errorf("%w: %d", shared.ErrMovieNotFound, id)
	}
	return stored, nil
}

func parseMovieID(raw string) (int64, error) {
	if raw == "" {
		return 0, fmt.Errorf("%w: movie id is required", shared.ErrMissingArgument)
	}
	id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: invalid movie id %q", shared.ErrInvalidArgument, raw)
	}
	return id, nil
}

func parseCategory(raw string) (models.Category, error) {
	category, err := models.ParseCategory(raw)
	if err != nil {
		return category, fmt.Errorf("%w: %v", shared.ErrInvalidFlag, err)
	}
	return category, nil
}

func movieLine(m models.StoredMovie, now time.Time) string {
	parts := []string{m.Title}
	if !m.ReleaseDate.IsZero() {
		parts[0] = fmt.Sprintf("%s (%s)", m.Title, shared.FormatRelativeRelease(m.ReleaseDate, now))
	}
	parts = append(parts, shared.FormatRuntime(m.Runtime), "★ "+shared.FormatVote(m.VoteAverage))
	if m.WatchedAt != nil {
		parts = append(parts, "seen "+shared.FormatReleaseDate(*m.WatchedAt))
	}
	return strings.Join(parts, "  ")
}
