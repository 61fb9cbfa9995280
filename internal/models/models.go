// package models defines the data model for the movie watchlist
package models

import (
	"bytes"
	"fmt"
	"strings"
	"time"
)

// Validator is implemented by entities that check their own invariants before persistence.
type Validator interface {
	Validate() error
}

// Repository defines the interface for data access operations.
// Implementations handle database interactions for specific model types keyed by K.
type Repository[T any, K comparable] interface {
	Create(model T) error                      // Create inserts a new model into the database
	Get(id K) (T, error)                       // Get retrieves a model by its ID
	Update(model T) error                      // Update modifies an existing model in the database
	Delete(id K) error                         // Delete removes a model from the database by its ID
	List(criteria map[string]any) ([]T, error) // List retrieves all models matching the given criteria
}

// Movie is the catalog representation of a film.
//
// Poster holds an already-loaded poster image and is never part of catalog payloads.
type Movie struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	Overview    string    `json:"overview"`
	ReleaseDate time.Time `json:"releaseDate"`
	Runtime     int       `json:"runtime"`
	VoteAverage float64   `json:"voteAverage"`
	VoteCount   int       `json:"voteCount"`
	PosterPath  string    `json:"posterPath,omitempty"`
	Poster      []byte    `json:"-"`
}

// WithDetail returns detail as the new representation of m, keeping m's loaded poster when detail has none.
func (m Movie) WithDetail(detail Movie) Movie {
	if len(detail.Poster) == 0 {
		detail.Poster = m.Poster
	}
	if detail.PosterPath == "" {
		detail.PosterPath = m.PosterPath
	}
	return detail
}

// Validate checks the fields every movie needs.
func (m Movie) Validate() error {
	if m.ID <= 0 {
		return fmt.Errorf("movie id must be positive, got %d", m.ID)
	}
	if strings.TrimSpace(m.Title) == "" {
		return fmt.Errorf("movie %d has no title", m.ID)
	}
	return nil
}

// Page is a single page of catalog results.
type Page struct {
	Page         int     `json:"page"`
	TotalPages   int     `json:"totalPages"`
	TotalResults int     `json:"totalResults"`
	Results      []Movie `json:"results"`
}

// StoredMovie is a movie tracked on the device. Its catalog id never changes after creation.
type StoredMovie struct {
	Movie
	Watched   bool       `json:"watched"`
	WatchedAt *time.Time `json:"watchedDate,omitempty"`
	Sequence  int        `json:"-"`
	CreatedAt time.Time  `json:"-"`
	UpdatedAt time.Time  `json:"-"`
}

// NewStoredMovie creates a [StoredMovie] for m with the given watched state.
func NewStoredMovie(m Movie, watched bool) StoredMovie {
	now := time.Now()
	s := StoredMovie{Movie: m, CreatedAt: now, UpdatedAt: now}
	s.SetWatched(watched, now)
	return s
}

// SetWatched toggles the watched flag, stamping the watched date when it becomes true.
func (s *StoredMovie) SetWatched(watched bool, at time.Time) {
	if s.Watched == watched && (!watched || s.WatchedAt != nil) {
		return
	}
	s.Watched = watched
	if watched {
		s.WatchedAt = &at
	} else {
		s.WatchedAt = nil
	}
}

// SameContent reports whether s and o would render identically.
func (s StoredMovie) SameContent(o StoredMovie) bool {
	return s.ID == o.ID &&
		s.Title == o.Title &&
		s.Overview == o.Overview &&
		s.ReleaseDate.Equal(o.ReleaseDate) &&
		s.Runtime == o.Runtime &&
		s.VoteAverage == o.VoteAverage &&
		s.VoteCount == o.VoteCount &&
		s.PosterPath == o.PosterPath &&
		bytes.Equal(s.Poster, o.Poster) &&
		s.Watched == o.Watched
}

// Category selects a slice of the stored collection.
type Category int

const (
	WantToSee Category = iota
	Seen
	All
)

func (c Category) String() string {
	switch c {
	case WantToSee:
		return "watchlist"
	case Seen:
		return "seen"
	case All:
		return "all"
	default:
		return ""
	}
}

// Title is the heading shown above the category's list.
func (c Category) Title() string {
	switch c {
	case WantToSee:
		return "Watchlist"
	case Seen:
		return "Seen"
	default:
		return "All Movies"
	}
}

// Watched returns the watched flag the category filters on, or nil for [All].
func (c Category) Watched() *bool {
	switch c {
	case WantToSee:
		v := false
		return &v
	case Seen:
		v := true
		return &v
	default:
		return nil
	}
}

// Next cycles watchlist → seen → all.
func (c Category) Next() Category {
	return (c + 1) % 3
}

// ParseCategory parses a category name; "", "watchlist" and "want" map to [WantToSee].
func ParseCategory(s string) (Category, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "watchlist", "want", "wanttosee", "want-to-see":
		return WantToSee, nil
	case "seen", "watched":
		return Seen, nil
	case "all":
		return All, nil
	default:
		return WantToSee, fmt.Errorf("unknown category %q", s)
	}
}

// ImportStatus is the lifecycle state of an [ImportJob].
type ImportStatus string

const (
	ImportRunning   ImportStatus = "running"
	ImportCompleted ImportStatus = "completed"
	ImportFailed    ImportStatus = "failed"
)

// ImportJob records a single import run.
type ImportJob struct {
	ID           string       `json:"id"`
	Sequence     int          `json:"-"`
	Source       string       `json:"source"`
	Status       ImportStatus `json:"status"`
	MoviesTotal  int          `json:"moviesTotal"`
	ErrorMessage string       `json:"error,omitempty"`
	StartedAt    time.Time    `json:"startedAt"`
	CompletedAt  *time.Time   `json:"completedAt,omitempty"`
	CreatedAt    time.Time    `json:"-"`
	UpdatedAt    time.Time    `json:"-"`
}

// NewImportJob creates a running job for source.
func NewImportJob(source string) *ImportJob {
	now := time.Now()
	return &ImportJob{
		Source:    source,
		Status:    ImportRunning,
		StartedAt: now,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Complete marks the job completed with n movies.
func (j *ImportJob) Complete(n int) {
	now := time.Now()
	j.Status = ImportCompleted
	j.MoviesTotal = n
	j.CompletedAt = &now
}

// Fail marks the job failed with err.
func (j *ImportJob) Fail(err error) {
	now := time.Now()
	j.Status = ImportFailed
	j.ErrorMessage = err.Error()
	j.CompletedAt = &now
}

// Validate checks the job has a source and a known status.
func (j *ImportJob) Validate() error {
	if j.Source == "" {
		return fmt.Errorf("import job has no source")
	}
	switch j.Status {
	case ImportRunning, ImportCompleted, ImportFailed:
		return nil
	default:
		return fmt.Errorf("invalid import status %q", j.Status)
	}
}
