package results

import (
	"slices"
	"strings"

	"github.com/sahilm/fuzzy"

	"github.com/desertthunder/cinx/internal/models"
)

// Predicate selects the movies a [Controller] shows.
type Predicate struct {
	Category models.Category
	// Query fuzzy-matches titles; empty matches everything.
	Query string
}

// Filter returns the movies whose title fuzzy-matches p.Query, keeping their order.
func (p Predicate) Filter(movies []models.StoredMovie) []models.StoredMovie {
	query := strings.ToLower(strings.TrimSpace(p.Query))
	if query == "" {
		return movies
	}

	titles := make([]string, len(movies))
	for i, m := range movies {
		titles[i] = strings.ToLower(m.Title)
	}

	matches := fuzzy.Find(query, titles)
	idx := make([]int, len(matches))
	for i, match := range matches {
		idx[i] = match.Index
	}
	slices.Sort(idx)

	out := make([]models.StoredMovie, len(idx))
	for i, j := range idx {
		out[i] = movies[j]
	}
	return out
}

func (p Predicate) String() string {
	if p.Query == "" {
		return p.Category.String()
	}
	return p.Category.String() + " ~ " + p.Query
}
