package store

import "github.com/desertthunder/cinx/internal/models"

// Action is a requested state mutation.
type Action interface {
	actionName() string
}

// ImportMovie adds a movie from an import document, or updates the stored movie with the same id.
type ImportMovie struct {
	Movie models.StoredMovie
}

// SaveMovie tracks a catalog movie with the given watched state.
type SaveMovie struct {
	Movie   models.Movie
	Watched bool
}

// SelectMovie makes Movie the currently selected movie.
type SelectMovie struct {
	Movie models.Movie
}

// MarkWatched sets the watched flag of the stored movie with ID.
type MarkWatched struct {
	ID      int64
	Watched bool
}

// SetPoster replaces the poster blob of the stored movie with ID.
type SetPoster struct {
	ID     int64
	Poster []byte
}

// DeleteMovie removes the stored movie with ID.
type DeleteMovie struct {
	ID int64
}

// ReplaceMovies swaps the stored movies for Movies, as read back from storage.
type ReplaceMovies struct {
	Movies []models.StoredMovie
}

func (ImportMovie) actionName() string   { return "import_movie" }
func (SaveMovie) actionName() string     { return "save_movie" }
func (SelectMovie) actionName() string   { return "select_movie" }
func (MarkWatched) actionName() string   { return "mark_watched" }
func (SetPoster) actionName() string     { return "set_poster" }
func (DeleteMovie) actionName() string   { return "delete_movie" }
func (ReplaceMovies) actionName() string { return "replace_movies" }

// target returns the id of the stored movie a must find, if any.
func target(a Action) (int64, bool) {
	switch a := a.(type) {
	case MarkWatched:
		return a.ID, true
	case SetPoster:
		return a.ID, true
	case DeleteMovie:
		return a.ID, true
	default:
		return 0, false
	}
}

// Name returns a stable identifier for a, suitable for logging.
func Name(a Action) string {
	if a == nil {
		return "nil"
	}
	return a.actionName()
}
