package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/desertthunder/cinx/internal/models"
	"github.com/desertthunder/cinx/internal/shared"
)

const movieColumns = `
	id, sequence, title, overview, release_date, runtime, vote_average,
	vote_count, poster_path, poster, watched, watched_at, created_at, updated_at
`

// scanner is satisfied by [sql.Row] and [sql.Rows]
type scanner interface {
	Scan(dest ...any) error
}

// MovieRepository implements models.Repository[*models.StoredMovie, int64] for the watchlist.
//
// Every successful write notifies the observers registered with [MovieRepository.Observe].
type MovieRepository struct {
	db *sql.DB

	mu        sync.Mutex
	observers []observer
	nextID    int
}

type observer struct {
	id int
	fn func()
}

// NewMovieRepository creates a new MovieRepository with the given database connection
func NewMovieRepository(db *sql.DB) *MovieRepository {
	return &MovieRepository{db: db}
}

// Observe registers fn to run after every write and returns a function that removes it.
//
// Observers run in registration order.
func (r *MovieRepository) Observe(fn func()) (cancel func()) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.nextID++
	id := r.nextID
	r.observers = append(r.observers, observer{id: id, fn: fn})

	return func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		for i, o := range r.observers {
			if o.id == id {
				r.observers = append(r.observers[:i:i], r.observers[i+1:]...)
				return
			}
		}
	}
}

func (r *MovieRepository) notify() {
	r.mu.Lock()
	observers := make([]observer, len(r.observers))
	copy(observers, r.observers)
	r.mu.Unlock()

	for _, o := range observers {
		o.fn()
	}
}

// Create inserts a new stored movie with a generated sequence
func (r *MovieRepository) Create(movie *models.StoredMovie) error {
	if err := movie.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	sequence, err := NextSequence(r.db, "movies")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}

	now := time.Now()
	movie.Sequence = sequence
	if movie.CreatedAt.IsZero() {
		movie.CreatedAt = now
	}
	movie.UpdatedAt = now

	query := `INSERT INTO movies (` + movieColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err = r.db.Exec(query,
		movie.ID,
		movie.Sequence,
		movie.Title,
		movie.Overview,
		nullTime(movie.ReleaseDate),
		movie.Runtime,
		movie.VoteAverage,
		movie.VoteCount,
		movie.PosterPath,
		nullBlob(movie.Poster),
		movie.Watched,
		movie.WatchedAt,
		movie.CreatedAt,
		movie.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("%w: failed to insert movie %d: %v", shared.ErrPersistence, movie.ID, err)
	}

	r.notify()
	return nil
}

// Get retrieves a stored movie by catalog id
func (r *MovieRepository) Get(id int64) (*models.StoredMovie, error) {
	query := `SELECT ` + movieColumns + ` FROM movies WHERE id = ?`
	movie, err := scanMovie(r.db.QueryRow(query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %d", shared.ErrMovieNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan movie: %w", err)
	}
	return movie, nil
}

// Update replaces the catalog attributes and watched state of a stored movie.
//
// An empty poster keeps the stored poster blob.
func (r *MovieRepository) Update(movie *models.StoredMovie) error {
	if err := movie.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	now := time.Now()
	movie.UpdatedAt = now

	query := `
		UPDATE movies
		SET title = ?, overview = ?, release_date = ?, runtime = ?, vote_average = ?,
			vote_count = ?, poster_path = ?, poster = COALESCE(?, poster),
			watched = ?, watched_at = ?, updated_at = ?
		WHERE id = ?
	`
	result, err := r.db.Exec(query,
		movie.Title,
		movie.Overview,
		nullTime(movie.ReleaseDate),
		movie.Runtime,
		movie.VoteAverage,
		movie.VoteCount,
		movie.PosterPath,
		nullBlob(movie.Poster),
		movie.Watched,
		movie.WatchedAt,
		now,
		movie.ID,
	)
	if err != nil {
		return fmt.Errorf("%w: failed to update movie %d: %v", shared.ErrPersistence, movie.ID, err)
	}

	if err := expectRow(result, movie.ID); err != nil {
		return err
	}

	r.notify()
	return nil
}

// Upsert creates movie, or updates the stored movie with the same id.
func (r *MovieRepository) Upsert(movie *models.StoredMovie) error {
	var exists bool
	if err := r.db.QueryRow("SELECT EXISTS(SELECT 1 FROM movies WHERE id = ?)", movie.ID).Scan(&exists); err != nil {
		return fmt.Errorf("%w: failed to check movie %d: %v", shared.ErrPersistence, movie.ID, err)
	}
	if exists {
		return r.Update(movie)
	}
	return r.Create(movie)
}

// SetWatched toggles the watched flag of a stored movie, stamping watched_at with at when watched.
func (r *MovieRepository) SetWatched(id int64, watched bool, at time.Time) error {
	var watchedAt any
	if watched {
		watchedAt = at
	}

	result, err := r.db.Exec(
		"UPDATE movies SET watched = ?, watched_at = ?, updated_at = ? WHERE id = ?",
		watched, watchedAt, time.Now(), id,
	)
	if err != nil {
		return fmt.Errorf("%w: failed to mark movie %d: %v", shared.ErrPersistence, id, err)
	}
	if err := expectRow(result, id); err != nil {
		return err
	}

	r.notify()
	return nil
}

// UpdatePoster stores the poster blob of a movie
func (r *MovieRepository) UpdatePoster(id int64, poster []byte) error {
	result, err := r.db.Exec(
		"UPDATE movies SET poster = ?, updated_at = ? WHERE id = ?",
		nullBlob(poster), time.Now(), id,
	)
	if err != nil {
		return fmt.Errorf("%w: failed to store poster for movie %d: %v", shared.ErrPersistence, id, err)
	}
	if err := expectRow(result, id); err != nil {
		return err
	}

	r.notify()
	return nil
}

// Delete removes a stored movie by catalog id
func (r *MovieRepository) Delete(id int64) error {
	result, err := r.db.Exec("DELETE FROM movies WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("%w: failed to delete movie %d: %v", shared.ErrPersistence, id, err)
	}
	if err := expectRow(result, id); err != nil {
		return err
	}

	r.notify()
	return nil
}

// List retrieves stored movies matching criteria.
//
// Supported criteria: "watched" (bool), "title" (substring, case-insensitive), "missing_poster" (bool)
// and "order" ("title" or "watched_at").
func (r *MovieRepository) List(criteria map[string]any) ([]*models.StoredMovie, error) {
	query := `SELECT ` + movieColumns + ` FROM movies WHERE 1 = 1`
	args := []any{}

	if watched, ok := criteria["watched"].(bool); ok {
		query += " AND watched = ?"
		args = append(args, watched)
	}

	if title, ok := criteria["title"].(string); ok && title != "" {
		query += " AND title LIKE ?"
		args = append(args, "%"+title+"%")
	}

	if missing, ok := criteria["missing_poster"].(bool); ok && missing {
		query += " AND poster IS NULL AND poster_path != ''"
	}

	switch criteria["order"] {
	case "watched_at":
		query += " ORDER BY watched_at DESC, title COLLATE NOCASE ASC"
	default:
		query += " ORDER BY title COLLATE NOCASE ASC, id ASC"
	}

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query movies: %w", err)
	}
	defer rows.Close()

	var movies []*models.StoredMovie
	for rows.Next() {
		movie, err := scanMovie(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan movie: %w", err)
		}
		movies = append(movies, movie)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating movies: %w", err)
	}

	return movies, nil
}

// All returns every stored movie ordered by title
func (r *MovieRepository) All() ([]models.StoredMovie, error) {
	return r.Fetch(context.Background(), models.All)
}

// Fetch returns the stored movies of category: the watchlist by title, seen movies by most recently watched.
func (r *MovieRepository) Fetch(ctx context.Context, category models.Category) ([]models.StoredMovie, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	criteria := map[string]any{}
	if watched := category.Watched(); watched != nil {
		criteria["watched"] = *watched
	}
	if category == models.Seen {
		criteria["order"] = "watched_at"
	}

	movies, err := r.List(criteria)
	if err != nil {
		return nil, err
	}

	out := make([]models.StoredMovie, len(movies))
	for i, m := range movies {
		out[i] = *m
	}
	return out, nil
}

// Counts returns the number of stored movies per watched state
func (r *MovieRepository) Counts() (watchlist, seen int, err error) {
	rows, err := r.db.Query("SELECT watched, COUNT(*) FROM movies GROUP BY watched")
	if err != nil {
		return 0, 0, fmt.Errorf("failed to count movies: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var watched bool
		var n int
		if err := rows.Scan(&watched, &n); err != nil {
			return 0, 0, fmt.Errorf("failed to scan count: %w", err)
		}
		if watched {
			seen = n
		} else {
			watchlist = n
		}
	}
	return watchlist, seen, rows.Err()
}

func scanMovie(row scanner) (*models.StoredMovie, error) {
	var (
		movie       models.StoredMovie
		releaseDate sql.NullTime
		poster      []byte
		watchedAt   sql.NullTime
		title       string
		overview    string
		posterPath  string
	)

	err := row.Scan(
		&movie.ID, &movie.Sequence, &title, &overview, &releaseDate, &movie.Runtime,
		&movie.VoteAverage, &movie.VoteCount, &posterPath, &poster, &movie.Watched,
		&watchedAt, &movie.CreatedAt, &movie.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	movie.Title = title
	movie.Overview = overview
	movie.PosterPath = posterPath
	if len(poster) > 0 {
		movie.Poster = poster
	}
	if releaseDate.Valid {
		movie.ReleaseDate = releaseDate.Time
	}
	if watchedAt.Valid {
		at := watchedAt.Time
		movie.WatchedAt = &at
	}

	return &movie, nil
}

func expectRow(result sql.Result, id int64) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: %d", shared.ErrMovieNotFound, id)
	}
	return nil
}

func nullTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t
}

func nullBlob(b []byte) any {
	if len(b) == 0 {
		return nil
	}
	return b
}
