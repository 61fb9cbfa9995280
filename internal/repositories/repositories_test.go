package repositories

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/desertthunder/cinx/internal/models"
	"github.com/desertthunder/cinx/internal/shared"
	"github.com/desertthunder/cinx/internal/store"
)

// setupTestDB creates an in-memory SQLite database with migrations applied
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := shared.NewDatabase(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	shared.ConfigureDatabase(db, 1, 1)

	if err := shared.RunMigrations(db); err != nil {
		db.Close()
		t.Fatalf("failed to run migrations: %v", err)
	}

	t.Cleanup(func() { db.Close() })
	return db
}

func newMovie(id int64, title string, watched bool) *models.StoredMovie {
	m := models.StoredMovie{
		Movie: models.Movie{
			ID:          id,
			Title:       title,
			Overview:    title + " overview",
			ReleaseDate: time.Date(1995, 12, 15, 0, 0, 0, 0, time.UTC),
			Runtime:     120,
			VoteAverage: 7.5,
			PosterPath:  "/" + title + ".jpg",
		},
	}
	m.SetWatched(watched, time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC))
	return &m
}

func TestMovieRepository(t *testing.T) {
	t.Run("Create", func(t *testing.T) {
		repo := NewMovieRepository(setupTestDB(t))
		movie := newMovie(949, "Heat", false)

		if err := repo.Create(movie); err != nil {
			t.Fatalf("failed to create movie: %v", err)
		}
		if movie.Sequence != 1 {
			t.Errorf("expected sequence 1, got %d", movie.Sequence)
		}
	})

	t.Run("Get", func(t *testing.T) {
		repo := NewMovieRepository(setupTestDB(t))
		movie := newMovie(949, "Heat", true)
		movie.Poster = []byte{0xff, 0xd8}

		if err := repo.Create(movie); err != nil {
			t.Fatalf("failed to create movie: %v", err)
		}

		got, err := repo.Get(949)
		if err != nil {
			t.Fatalf("failed to get movie: %v", err)
		}
		if !got.SameContent(*movie) {
			t.Errorf("expected %+v, got %+v", movie, got)
		}
		if got.WatchedAt == nil || !got.WatchedAt.Equal(*movie.WatchedAt) {
			t.Errorf("expected watched at %v, got %v", movie.WatchedAt, got.WatchedAt)
		}
	})

	t.Run("Get missing movie", func(t *testing.T) {
		repo := NewMovieRepository(setupTestDB(t))
		if _, err := repo.Get(1); !errors.Is(err, shared.ErrMovieNotFound) {
			t.Errorf("expected ErrMovieNotFound, got %v", err)
		}
	})

	t.Run("Create rejects invalid movie", func(t *testing.T) {
		repo := NewMovieRepository(setupTestDB(t))
		if err := repo.Create(newMovie(0, "Heat", false)); err == nil {
			t.Error("expected validation error for zero id")
		}
	})

	t.Run("Create rejects duplicate id", func(t *testing.T) {
		repo := NewMovieRepository(setupTestDB(t))
		if err := repo.Create(newMovie(1, "Heat", false)); err != nil {
			t.Fatalf("failed to create movie: %v", err)
		}
		if err := repo.Create(newMovie(1, "Heat", false)); !errors.Is(err, shared.ErrPersistence) {
			t.Errorf("expected ErrPersistence, got %v", err)
		}
	})

	t.Run("Update keeps poster when none given", func(t *testing.T) {
		repo := NewMovieRepository(setupTestDB(t))
		movie := newMovie(1, "Heat", false)
		movie.Poster = []byte{1, 2, 3}
		if err := repo.Create(movie); err != nil {
			t.Fatalf("failed to create movie: %v", err)
		}

		updated := newMovie(1, "Heat (1995)", false)
		if err := repo.Update(updated); err != nil {
			t.Fatalf("failed to update movie: %v", err)
		}

		got, _ := repo.Get(1)
		if got.Title != "Heat (1995)" {
			t.Errorf("expected updated title, got %s", got.Title)
		}
		if len(got.Poster) != 3 {
			t.Errorf("expected stored poster to be kept, got %v", got.Poster)
		}
	})

	t.Run("Update missing movie", func(t *testing.T) {
		repo := NewMovieRepository(setupTestDB(t))
		if err := repo.Update(newMovie(1, "Heat", false)); !errors.Is(err, shared.ErrMovieNotFound) {
			t.Errorf("expected ErrMovieNotFound, got %v", err)
		}
	})

	t.Run("Upsert", func(t *testing.T) {
		repo := NewMovieRepository(setupTestDB(t))
		if err := repo.Upsert(newMovie(1, "Heat", false)); err != nil {
			t.Fatalf("failed to insert movie: %v", err)
		}
		if err := repo.Upsert(newMovie(1, "Heat", true)); err != nil {
			t.Fatalf("failed to update movie: %v", err)
		}

		movies, err := repo.All()
		if err != nil {
			t.Fatalf("failed to list movies: %v", err)
		}
		if len(movies) != 1 || !movies[0].Watched {
			t.Errorf("expected one watched movie, got %+v", movies)
		}
	})

	t.Run("SetWatched", func(t *testing.T) {
		repo := NewMovieRepository(setupTestDB(t))
		if err := repo.Create(newMovie(1, "Heat", false)); err != nil {
			t.Fatalf("failed to create movie: %v", err)
		}

		at := time.Date(2024, 5, 1, 21, 0, 0, 0, time.UTC)
		if err := repo.SetWatched(1, true, at); err != nil {
			t.Fatalf("failed to mark watched: %v", err)
		}
		got, _ := repo.Get(1)
		if !got.Watched || got.WatchedAt == nil || !got.WatchedAt.Equal(at) {
			t.Errorf("expected watched at %v, got %+v", at, got)
		}

		if err := repo.SetWatched(1, false, at); err != nil {
			t.Fatalf("failed to unmark watched: %v", err)
		}
		got, _ = repo.Get(1)
		if got.Watched || got.WatchedAt != nil {
			t.Errorf("expected unwatched movie without date, got %+v", got)
		}

		if err := repo.SetWatched(2, true, at); !errors.Is(err, shared.ErrMovieNotFound) {
			t.Errorf("expected ErrMovieNotFound, got %v", err)
		}
	})

	t.Run("UpdatePoster", func(t *testing.T) {
		repo := NewMovieRepository(setupTestDB(t))
		if err := repo.Create(newMovie(1, "Heat", false)); err != nil {
			t.Fatalf("failed to create movie: %v", err)
		}

		missing, err := repo.List(map[string]any{"missing_poster": true})
		if err != nil || len(missing) != 1 {
			t.Fatalf("expected 1 movie missing a poster, got %d (%v)", len(missing), err)
		}

		if err := repo.UpdatePoster(1, []byte{9, 9}); err != nil {
			t.Fatalf("failed to update poster: %v", err)
		}

		missing, _ = repo.List(map[string]any{"missing_poster": true})
		if len(missing) != 0 {
			t.Errorf("expected no movie missing a poster, got %d", len(missing))
		}
	})

	t.Run("Delete", func(t *testing.T) {
		repo := NewMovieRepository(setupTestDB(t))
		if err := repo.Create(newMovie(1, "Heat", false)); err != nil {
			t.Fatalf("failed to create movie: %v", err)
		}

		if err := repo.Delete(1); err != nil {
			t.Fatalf("failed to delete movie: %v", err)
		}
		if _, err := repo.Get(1); !errors.Is(err, shared.ErrMovieNotFound) {
			t.Errorf("expected deleted movie to be gone, got %v", err)
		}
		if err := repo.Delete(1); !errors.Is(err, shared.ErrMovieNotFound) {
			t.Errorf("expected ErrMovieNotFound on second delete, got %v", err)
		}
	})

	t.Run("Fetch by category", func(t *testing.T) {
		repo := NewMovieRepository(setupTestDB(t))
		fixtures := []*models.StoredMovie{
			newMovie(1, "ronin", false),
			newMovie(2, "Heat", false),
			newMovie(3, "Alien", true),
			newMovie(4, "Aliens", true),
		}
		later := time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC)
		fixtures[2].WatchedAt = &later
		for _, m := range fixtures {
			if err := repo.Create(m); err != nil {
				t.Fatalf("failed to create movie: %v", err)
			}
		}

		tests := []struct {
			category models.Category
			expected []int64
		}{
			{models.WantToSee, []int64{2, 1}},
			{models.Seen, []int64{3, 4}},
			{models.All, []int64{3, 4, 2, 1}},
		}

		for _, tt := range tests {
			t.Run(tt.category.String(), func(t *testing.T) {
				movies, err := repo.Fetch(context.Background(), tt.category)
				if err != nil {
					t.Fatalf("fetch failed: %v", err)
				}
				if len(movies) != len(tt.expected) {
					t.Fatalf("expected %d movies, got %d", len(tt.expected), len(movies))
				}
				for i, id := range tt.expected {
					if movies[i].ID != id {
						t.Errorf("position %d: expected %d, got %d", i, id, movies[i].ID)
					}
				}
			})
		}
	})

	t.Run("Fetch honours cancelled context", func(t *testing.T) {
		repo := NewMovieRepository(setupTestDB(t))
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		if _, err := repo.Fetch(ctx, models.All); !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	})

	t.Run("List by title", func(t *testing.T) {
		repo := NewMovieRepository(setupTestDB(t))
		for _, m := range []*models.StoredMovie{newMovie(1, "Alien", false), newMovie(2, "Heat", false)} {
			if err := repo.Create(m); err != nil {
				t.Fatalf("failed to create movie: %v", err)
			}
		}

		movies, err := repo.List(map[string]any{"title": "ali"})
		if err != nil {
			t.Fatalf("list failed: %v", err)
		}
		if len(movies) != 1 || movies[0].ID != 1 {
			t.Errorf("expected only Alien, got %+v", movies)
		}
	})

	t.Run("Counts", func(t *testing.T) {
		repo := NewMovieRepository(setupTestDB(t))
		for _, m := range []*models.StoredMovie{newMovie(1, "A", false), newMovie(2, "B", true), newMovie(3, "C", false)} {
			if err := repo.Create(m); err != nil {
				t.Fatalf("failed to create movie: %v", err)
			}
		}

		watchlist, seen, err := repo.Counts()
		if err != nil {
			t.Fatalf("count failed: %v", err)
		}
		if watchlist != 2 || seen != 1 {
			t.Errorf("expected 2/1, got %d/%d", watchlist, seen)
		}
	})

	t.Run("Observe", func(t *testing.T) {
		repo := NewMovieRepository(setupTestDB(t))
		calls := 0
		cancel := repo.Observe(func() { calls++ })

		if err := repo.Create(newMovie(1, "Heat", false)); err != nil {
			t.Fatalf("failed to create movie: %v", err)
		}
		if err := repo.SetWatched(1, true, time.Now()); err != nil {
			t.Fatalf("failed to mark watched: %v", err)
		}
		_ = repo.Delete(99)

		if calls != 2 {
			t.Errorf("expected 2 notifications for 2 successful writes, got %d", calls)
		}

		cancel()
		_ = repo.Delete(1)
		if calls != 2 {
			t.Errorf("expected no notification after cancel, got %d", calls)
		}
	})

	t.Run("Observe notifies in registration order", func(t *testing.T) {
		repo := NewMovieRepository(setupTestDB(t))
		var order []int
		cancels := make([]func(), 0, 8)
		for i := range 8 {
			cancels = append(cancels, repo.Observe(func() { order = append(order, i) }))
		}
		cancels[3]()

		if err := repo.Create(newMovie(1, "Heat", false)); err != nil {
			t.Fatalf("failed to create movie: %v", err)
		}

		want := []int{0, 1, 2, 4, 5, 6, 7}
		if len(order) != len(want) {
			t.Fatalf("expected %v, got %v", want, order)
		}
		for i := range want {
			if order[i] != want[i] {
				t.Fatalf("expected %v, got %v", want, order)
			}
		}
	})
}

func TestImportRepository(t *testing.T) {
	t.Run("Create and Get", func(t *testing.T) {
		repo := NewImportRepository(setupTestDB(t))
		job := models.NewImportJob("Import.json")

		if err := repo.Create(job); err != nil {
			t.Fatalf("failed to create import: %v", err)
		}
		if job.ID == "" || job.Sequence != 1 {
			t.Errorf("expected generated id and sequence 1, got %q/%d", job.ID, job.Sequence)
		}

		got, err := repo.Get(job.ID)
		if err != nil {
			t.Fatalf("failed to get import: %v", err)
		}
		if got.Source != "Import.json" || got.Status != models.ImportRunning {
			t.Errorf("unexpected import %+v", got)
		}
		if got.CompletedAt != nil {
			t.Error("expected running import to have no completion time")
		}
	})

	t.Run("Update records outcome", func(t *testing.T) {
		repo := NewImportRepository(setupTestDB(t))
		job := models.NewImportJob("Import.json")
		if err := repo.Create(job); err != nil {
			t.Fatalf("failed to create import: %v", err)
		}

		job.Fail(errors.New("record 1: missing title"))
		if err := repo.Update(job); err != nil {
			t.Fatalf("failed to update import: %v", err)
		}

		got, _ := repo.Get(job.ID)
		if got.Status != models.ImportFailed || got.ErrorMessage != "record 1: missing title" {
			t.Errorf("unexpected import %+v", got)
		}
		if got.CompletedAt == nil {
			t.Error("expected completion time")
		}
	})

	t.Run("List newest first with filters", func(t *testing.T) {
		repo := NewImportRepository(setupTestDB(t))
		for _, source := range []string{"a.json", "b.json", "c.json"} {
			job := models.NewImportJob(source)
			if source == "b.json" {
				job.Complete(3)
			}
			if err := repo.Create(job); err != nil {
				t.Fatalf("failed to create import: %v", err)
			}
		}

		jobs, err := repo.List(nil)
		if err != nil {
			t.Fatalf("list failed: %v", err)
		}
		if len(jobs) != 3 || jobs[0].Source != "c.json" {
			t.Errorf("expected newest first, got %+v", jobs)
		}

		completed, _ := repo.List(map[string]any{"status": string(models.ImportCompleted)})
		if len(completed) != 1 || completed[0].MoviesTotal != 3 {
			t.Errorf("expected one completed import with 3 movies, got %+v", completed)
		}

		limited, _ := repo.List(map[string]any{"limit": 2})
		if len(limited) != 2 {
			t.Errorf("expected 2 imports, got %d", len(limited))
		}
	})

	t.Run("Errors", func(t *testing.T) {
		repo := NewImportRepository(setupTestDB(t))
		if err := repo.Create(&models.ImportJob{Status: models.ImportRunning}); err == nil {
			t.Error("expected validation error for missing source")
		}
		if _, err := repo.Get("missing"); err == nil {
			t.Error("expected error for missing import")
		}
		if err := repo.Delete("missing"); err == nil {
			t.Error("expected error deleting missing import")
		}
		job := models.NewImportJob("x.json")
		job.ID = "missing"
		if err := repo.Update(job); err == nil {
			t.Error("expected error updating missing import")
		}
	})
}

func TestPersister(t *testing.T) {
	setup := func(t *testing.T) (*store.Store, *MovieRepository, *[]error) {
		t.Helper()
		repo := NewMovieRepository(setupTestDB(t))
		p := NewPersister(repo, nil)
		var errs []error
		p.OnError = func(_ store.Action, err error) { errs = append(errs, err) }

		s := store.New(store.State{}, nil)
		s.SetCommitter(p)
		return s, repo, &errs
	}

	t.Run("writes actions through", func(t *testing.T) {
		s, repo, errs := setup(t)

		s.Dispatch(store.ImportMovie{Movie: *newMovie(1, "Heat", false)})
		s.Dispatch(store.SaveMovie{Movie: newMovie(2, "Ronin", false).Movie, Watched: true})
		s.Dispatch(store.MarkWatched{ID: 1, Watched: true})
		s.Dispatch(store.SetPoster{ID: 2, Poster: []byte{7}})
		s.Dispatch(store.SelectMovie{Movie: models.Movie{ID: 2}})

		if len(*errs) != 0 {
			t.Fatalf("unexpected persistence errors: %v", *errs)
		}

		seen, err := repo.Fetch(context.Background(), models.Seen)
		if err != nil {
			t.Fatalf("fetch failed: %v", err)
		}
		if len(seen) != 2 {
			t.Fatalf("expected 2 seen movies, got %d", len(seen))
		}

		ronin, _ := repo.Get(2)
		if len(ronin.Poster) != 1 {
			t.Errorf("expected poster to be stored, got %v", ronin.Poster)
		}

		s.Dispatch(store.DeleteMovie{ID: 1})
		if _, err := repo.Get(1); !errors.Is(err, shared.ErrMovieNotFound) {
			t.Errorf("expected movie 1 to be deleted, got %v", err)
		}
	})

	t.Run("re-import keeps one row", func(t *testing.T) {
		s, repo, _ := setup(t)
		for range 2 {
			s.Dispatch(store.ImportMovie{Movie: *newMovie(1, "Heat", false)})
		}

		movies, _ := repo.All()
		if len(movies) != 1 {
			t.Errorf("expected 1 stored movie, got %d", len(movies))
		}
	})

	t.Run("actions on unknown movies are ignored", func(t *testing.T) {
		s, _, errs := setup(t)
		s.Dispatch(store.MarkWatched{ID: 42, Watched: true})
		s.Dispatch(store.SetPoster{ID: 42, Poster: []byte{1}})
		s.Dispatch(store.DeleteMovie{ID: 42})

		if len(*errs) != 0 {
			t.Errorf("expected no errors, got %v", *errs)
		}
	})

	t.Run("reports write failures and abandons the action", func(t *testing.T) {
		repo := NewMovieRepository(setupTestDB(t))
		p := NewPersister(repo, shared.NewLogger(io.Discard))
		var failed []string
		p.OnError = func(a store.Action, err error) { failed = append(failed, store.Name(a)) }

		// Movie 5 only exists in memory, so marking it watched misses the table.
		s := store.New(store.State{Movies: []models.StoredMovie{*newMovie(5, "Heat", false)}}, nil)
		s.SetCommitter(p)
		err := s.Apply(store.MarkWatched{ID: 5, Watched: true})

		if !errors.Is(err, shared.ErrPersistence) {
			t.Errorf("expected ErrPersistence, got %v", err)
		}
		if len(failed) != 1 || failed[0] != "mark_watched" {
			t.Errorf("expected one mark_watched failure, got %v", failed)
		}
		if m, _ := s.State().Movie(5); m.Watched {
			t.Error("expected the failed change to stay out of the store")
		}
	})

	t.Run("failed delete keeps store and database in step", func(t *testing.T) {
		db := setupTestDB(t)
		repo := NewMovieRepository(db)
		p := NewPersister(repo, shared.NewLogger(io.Discard))
		s := store.New(store.State{}, nil)
		s.SetCommitter(p)

		if err := s.Apply(store.ImportMovie{Movie: *newMovie(1, "Heat", false)}); err != nil {
			t.Fatalf("import failed: %v", err)
		}
		if _, err := db.Exec(`CREATE TRIGGER keep_movies BEFORE DELETE ON movies BEGIN SELECT RAISE(ABORT, 'locked'); END`); err != nil {
			t.Fatalf("failed to create trigger: %v", err)
		}

		if err := s.Apply(store.DeleteMovie{ID: 1}); !errors.Is(err, shared.ErrPersistence) {
			t.Fatalf("expected ErrPersistence, got %v", err)
		}
		if _, ok := s.State().Movie(1); !ok {
			t.Error("expected movie 1 to stay in the store")
		}
		if _, err := repo.Get(1); err != nil {
			t.Errorf("expected movie 1 to stay in the database, got %v", err)
		}

		if err := s.Apply(store.MarkWatched{ID: 1, Watched: true}); err != nil {
			t.Fatalf("expected mark watched to succeed, got %v", err)
		}
		stored, _ := repo.Get(1)
		inStore, _ := s.State().Movie(1)
		if !stored.Watched || !inStore.Watched {
			t.Errorf("expected store and database to agree, db=%v store=%v", stored.Watched, inStore.Watched)
		}
	})

	t.Run("reload picks up rows written by another process", func(t *testing.T) {
		s, repo, errs := setup(t)
		p := NewPersister(repo, nil)

		if err := repo.Create(newMovie(9, "Alien", false)); err != nil {
			t.Fatalf("create failed: %v", err)
		}
		if err := s.Apply(store.MarkWatched{ID: 9, Watched: true}); !errors.Is(err, shared.ErrMovieNotFound) {
			t.Fatalf("expected ErrMovieNotFound before reload, got %v", err)
		}

		if err := p.Reload(s); err != nil {
			t.Fatalf("reload failed: %v", err)
		}
		if err := s.Apply(store.MarkWatched{ID: 9, Watched: true}); err != nil {
			t.Fatalf("mark watched failed: %v", err)
		}
		if m, _ := repo.Get(9); !m.Watched {
			t.Error("expected movie 9 to be watched in the database")
		}

		if err := s.Apply(store.DeleteMovie{ID: 9}); err != nil {
			t.Fatalf("delete failed: %v", err)
		}
		if _, err := repo.Get(9); !errors.Is(err, shared.ErrMovieNotFound) {
			t.Errorf("expected movie 9 to be deleted, got %v", err)
		}
		if len(*errs) != 0 {
			t.Errorf("unexpected persistence errors: %v", *errs)
		}
	})
}
