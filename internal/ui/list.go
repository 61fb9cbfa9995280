package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/list"

	"github.com/desertthunder/cinx/internal/models"
	"github.com/desertthunder/cinx/internal/shared"
)

var (
	_ list.Item = movieItem{}
	_ list.Item = resultItem{}
)

// movieItem wraps [models.StoredMovie] to implement [list.Item].
type movieItem struct {
	movie models.StoredMovie
}

func (i movieItem) FilterValue() string { return i.movie.Title }
func (i movieItem) Title() string {
	if i.movie.Watched {
		return "✓ " + i.movie.Title
	}
	return i.movie.Title
}
func (i movieItem) Description() string {
	desc := summary(i.movie.Movie)
	if i.movie.WatchedAt != nil {
		desc = fmt.Sprintf("%s • watched %s", desc, shared.FormatReleaseDate(*i.movie.WatchedAt))
	}
	return desc
}

// resultItem wraps a catalog [models.Movie] to implement [list.Item].
type resultItem struct {
	movie models.Movie
}

func (i resultItem) FilterValue() string { return i.movie.Title }
func (i resultItem) Title() string       { return i.movie.Title }
func (i resultItem) Description() string { return summary(i.movie) }

func summary(m models.Movie) string {
	parts := []string{shared.FormatRelativeRelease(m.ReleaseDate, time.Now())}
	if m.Runtime > 0 {
		parts = append(parts, shared.FormatRuntime(m.Runtime))
	}
	parts = append(parts, "★ "+shared.FormatVote(m.VoteAverage))
	return strings.Join(parts, " • ")
}
