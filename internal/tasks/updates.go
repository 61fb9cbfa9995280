package tasks

import (
	"fmt"

	"github.com/desertthunder/cinx/internal/models"
)

// ProgressUpdate represents a progress event during a long-running operation.
//
// Used to send real-time updates to the CLI or UI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data for advanced UIs
}

// Operation phase enumeration
type Phase int

const (
	ImportMovies Phase = iota
	SearchCatalog
	FetchPosters
)

func (p Phase) String() string {
	switch p {
	case ImportMovies:
		return "import_movies"
	case SearchCatalog:
		return "search_catalog"
	case FetchPosters:
		return "fetch_posters"
	default:
		return ""
	}
}

func importStartedUpdate(source string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ImportMovies,
		Step:    0,
		Total:   1,
		Message: fmt.Sprintf("Importing movies from %s...", source),
	}
}

func importFinishedUpdate(job *models.ImportJob) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ImportMovies,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Imported %d movies", job.MoviesTotal),
		Data:    job,
	}
}

func searchUpdate(query string, page int) ProgressUpdate {
	if query == "" {
		return ProgressUpdate{
			Phase:   SearchCatalog,
			Step:    page,
			Message: "Fetching upcoming movies...",
		}
	}
	return ProgressUpdate{
		Phase:   SearchCatalog,
		Step:    page,
		Message: fmt.Sprintf("Searching for %q...", query),
	}
}

func postersQueuedUpdate(total int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchPosters,
		Step:    0,
		Total:   total,
		Message: fmt.Sprintf("Fetching %d posters...", total),
	}
}

func posterFetchedUpdate(step, total int, res PosterResult) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchPosters,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✓ %s (%d bytes)", step, total, res.Title, res.Bytes),
		Data:    res,
	}
}

func posterFailedUpdate(step, total int, res PosterResult) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchPosters,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✗ %s: %v", step, total, res.Title, res.Error),
		Data:    res,
	}
}
