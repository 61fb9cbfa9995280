package importer

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/desertthunder/cinx/internal/models"
	"github.com/desertthunder/cinx/internal/shared"
	"github.com/desertthunder/cinx/internal/store"
)

// Accepted release and watched date layouts, tried in order.
var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	time.RFC3339Nano,
	"Jan 2, 2006 15:04:05",
	"Jan 2, 2006 3:04:05 PM",
	"Jan 2, 2006",
}

// record is a single movie as it appears in an import document.
//
// Required fields are pointers so that a missing key can be told apart from a zero value.
type record struct {
	ID          *int64   `json:"id"`
	Title       *string  `json:"title"`
	Overview    *string  `json:"overview"`
	Runtime     *float64 `json:"runtime"`
	VoteAverage *float64 `json:"voteAverage"`
	VoteCount   float64  `json:"voteCount"`
	ReleaseDate string   `json:"releaseDate"`
	PosterPath  string   `json:"posterPath"`
	Watched     bool     `json:"watched"`
	WatchedDate string   `json:"watchedDate"`
}

type envelope struct {
	Movies []json.RawMessage `json:"movies"`
}

type exportEnvelope struct {
	Movies []models.StoredMovie `json:"movies"`
}

// Import decodes a whole document from r and dispatches one [store.ImportMovie] per record, in document order.
//
// Nothing is dispatched when the document cannot be read, is not valid JSON, or has a record missing a required field.
func Import(r io.Reader, d store.Dispatcher) (int, error) {
	movies, err := Decode(r)
	if err != nil {
		return 0, err
	}

	for _, m := range movies {
		d.Dispatch(store.ImportMovie{Movie: m})
	}
	return len(movies), nil
}

// ImportFile opens path and imports it with [Import].
func ImportFile(path string, d store.Dispatcher) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", shared.ErrImportRead, err)
	}
	defer f.Close()

	return Import(f, d)
}

// Decode parses every record of the document in r.
func Decode(r io.Reader) ([]models.StoredMovie, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrImportRead, err)
	}

	raw, err := records(data)
	if err != nil {
		return nil, err
	}

	movies := make([]models.StoredMovie, 0, len(raw))
	for i, msg := range raw {
		var rec record
		if err := json.Unmarshal(msg, &rec); err != nil {
			return nil, fmt.Errorf("%w: record %d: %v", shared.ErrImportParse, i, err)
		}

		m, err := rec.toStoredMovie()
		if err != nil {
			return nil, fmt.Errorf("%w: record %d: %v", shared.ErrImportInvalid, i, err)
		}
		movies = append(movies, m)
	}
	return movies, nil
}

// records splits a document into its raw movie records.
func records(data []byte) ([]json.RawMessage, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("%w: empty document", shared.ErrImportParse)
	}

	switch trimmed[0] {
	case '[':
		var raw []json.RawMessage
		if err := json.Unmarshal(trimmed, &raw); err != nil {
			return nil, fmt.Errorf("%w: %v", shared.ErrImportParse, err)
		}
		return raw, nil
	case '{':
		var env envelope
		if err := json.Unmarshal(trimmed, &env); err != nil {
			return nil, fmt.Errorf("%w: %v", shared.ErrImportParse, err)
		}
		if env.Movies == nil {
			return nil, fmt.Errorf("%w: document has no movies list", shared.ErrImportInvalid)
		}
		return env.Movies, nil
	default:
		return nil, fmt.Errorf("%w: document must be a list of movies", shared.ErrImportParse)
	}
}

func (r record) toStoredMovie() (models.StoredMovie, error) {
	var missing []string
	if r.ID == nil {
		missing = append(missing, "id")
	}
	if r.Title == nil {
		missing = append(missing, "title")
	}
	if r.Overview == nil {
		missing = append(missing, "overview")
	}
	if r.Runtime == nil {
		missing = append(missing, "runtime")
	}
	if r.VoteAverage == nil {
		missing = append(missing, "voteAverage")
	}
	if len(missing) > 0 {
		return models.StoredMovie{}, fmt.Errorf("missing %s", strings.Join(missing, ", "))
	}

	release, err := parseDate(r.ReleaseDate)
	if err != nil {
		return models.StoredMovie{}, fmt.Errorf("releaseDate: %w", err)
	}

	m := models.StoredMovie{
		Movie: models.Movie{
			ID:          *r.ID,
			Title:       *r.Title,
			Overview:    *r.Overview,
			ReleaseDate: release,
			Runtime:     int(*r.Runtime),
			VoteAverage: *r.VoteAverage,
			VoteCount:   int(r.VoteCount),
			PosterPath:  r.PosterPath,
		},
		Watched: r.Watched,
	}
	if err := m.Validate(); err != nil {
		return models.StoredMovie{}, err
	}

	if r.Watched {
		watchedAt, err := parseDate(r.WatchedDate)
		if err != nil {
			return models.StoredMovie{}, fmt.Errorf("watchedDate: %w", err)
		}
		if !watchedAt.IsZero() {
			m.WatchedAt = &watchedAt
		}
	}
	return m, nil
}

// parseDate returns the zero time for an empty value.
func parseDate(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised date %q", value)
}

// Export writes movies as an importable document.
func Export(w io.Writer, movies []models.StoredMovie) error {
	if movies == nil {
		movies = []models.StoredMovie{}
	}

	data, err := shared.MarshalJSON(exportEnvelope{Movies: movies}, true)
	if err != nil {
		return fmt.Errorf("failed to encode movies: %w", err)
	}

	if _, err := w.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("failed to write export: %w", err)
	}
	return nil
}
