package store

import (
	"slices"
	"time"

	"github.com/desertthunder/cinx/internal/models"
)

// State is the canonical watchlist state.
type State struct {
	Movies   []models.StoredMovie
	Selected *models.Movie
}

// Index returns the position of the movie with id, or -1.
func (s State) Index(id int64) int {
	return slices.IndexFunc(s.Movies, func(m models.StoredMovie) bool { return m.ID == id })
}

// Movie returns the stored movie with id.
func (s State) Movie(id int64) (models.StoredMovie, bool) {
	if i := s.Index(id); i >= 0 {
		return s.Movies[i], true
	}
	return models.StoredMovie{}, false
}

// now is replaced in tests.
var now = time.Now

// Reduce applies action to state and returns the new state. state is never modified.
//
// Unknown actions and actions targeting a movie that is not stored return state unchanged.
func Reduce(state State, action Action) State {
	switch a := action.(type) {
	case ImportMovie:
		return upsert(state, a.Movie)
	case SaveMovie:
		stored := models.StoredMovie{Movie: a.Movie}
		stored.SetWatched(a.Watched, now())
		return upsert(state, stored)
	case SelectMovie:
		selected := a.Movie
		next := state
		next.Selected = &selected
		return next
	case MarkWatched:
		return update(state, a.ID, func(m *models.StoredMovie) {
			m.SetWatched(a.Watched, now())
			m.UpdatedAt = now()
		})
	case SetPoster:
		return update(state, a.ID, func(m *models.StoredMovie) {
			m.Poster = slices.Clone(a.Poster)
			m.UpdatedAt = now()
		})
	case DeleteMovie:
		i := state.Index(a.ID)
		if i < 0 {
			return state
		}
		next := state
		next.Movies = slices.Delete(slices.Clone(state.Movies), i, i+1)
		return next
	case ReplaceMovies:
		next := state
		next.Movies = slices.Clone(a.Movies)
		return next
	default:
		return state
	}
}

// upsert appends m, or replaces the stored movie with the same id in place.
// The stored poster blob and creation time survive a replacement that carries no poster.
func upsert(state State, m models.StoredMovie) State {
	next := state
	next.Movies = slices.Clone(state.Movies)

	i := state.Index(m.ID)
	if i < 0 {
		if m.CreatedAt.IsZero() {
			m.CreatedAt = now()
		}
		m.UpdatedAt = m.CreatedAt
		next.Movies = append(next.Movies, m)
		return next
	}

	existing := state.Movies[i]
	if len(m.Poster) == 0 {
		m.Poster = existing.Poster
	}
	m.Sequence = existing.Sequence
	m.CreatedAt = existing.CreatedAt
	m.UpdatedAt = now()
	next.Movies[i] = m
	return next
}

func update(state State, id int64, fn func(*models.StoredMovie)) State {
	i := state.Index(id)
	if i < 0 {
		return state
	}
	next := state
	next.Movies = slices.Clone(state.Movies)
	fn(&next.Movies[i])
	return next
}
