// package formatter provides functions to export stored movies to various formats (JSON, CSV, Markdown, plain text)
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/desertthunder/cinx/internal/importer"
	"github.com/desertthunder/cinx/internal/models"
	"github.com/desertthunder/cinx/internal/shared"
)

// Format is an export format.
type Format string

const (
	JSON     Format = "json"
	CSV      Format = "csv"
	Markdown Format = "markdown"
	Text     Format = "txt"
)

// ParseFormat parses a format name; "" is [JSON].
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "json":
		return JSON, nil
	case "csv":
		return CSV, nil
	case "markdown", "md":
		return Markdown, nil
	case "txt", "text":
		return Text, nil
	default:
		return "", fmt.Errorf("%w: unknown format %q (json, csv, markdown, txt)", shared.ErrInvalidFlag, s)
	}
}

// Extension returns the file extension for f, without the dot.
func (f Format) Extension() string {
	switch f {
	case Markdown:
		return "md"
	case CSV, Text:
		return string(f)
	default:
		return "json"
	}
}

// ExportToCSV converts movies to CSV format with columns: ID, Title, Release Date, Runtime, Vote Average, Watched, Watched Date
func ExportToCSV(movies []models.StoredMovie) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"ID", "Title", "Release Date", "Runtime", "Vote Average", "Watched", "Watched Date"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, m := range movies {
		release := ""
		if !m.ReleaseDate.IsZero() {
			release = m.ReleaseDate.Format("2006-01-02")
		}
		watchedAt := ""
		if m.WatchedAt != nil {
			watchedAt = m.WatchedAt.Format(time.RFC3339)
		}

		record := []string{
			strconv.FormatInt(m.ID, 10),
			m.Title,
			release,
			strconv.Itoa(m.Runtime),
			strconv.FormatFloat(m.VoteAverage, 'f', 1, 64),
			strconv.FormatBool(m.Watched),
			watchedAt,
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// ExportToMarkdown converts movies to Markdown grouped into watchlist and seen sections.
//
// posters maps movie ids to poster file names relative to the document; missing entries are rendered without an image.
func ExportToMarkdown(title string, movies []models.StoredMovie, posters map[int64]string) ([]byte, error) {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "# %s\n\n", title)
	fmt.Fprintf(&buf, "**Movies**: %s\n\n", shared.FormatMovieCount(len(movies)))

	sections := []models.Category{models.WantToSee, models.Seen}
	for _, category := range sections {
		group := filterCategory(movies, category)
		if len(group) == 0 {
			continue
		}

		fmt.Fprintf(&buf, "## %s\n\n", category.Title())
		for i, m := range group {
			fmt.Fprintf(&buf, "%d. **%s**", i+1, m.Title)
			if year := shared.FormatRelativeRelease(m.ReleaseDate, time.Now()); year != "Unknown" {
				fmt.Fprintf(&buf, " (%s)", year)
			}
			fmt.Fprintf(&buf, " [%s, ★ %s]\n", shared.FormatRuntime(m.Runtime), shared.FormatVote(m.VoteAverage))
			if poster, ok := posters[m.ID]; ok {
				fmt.Fprintf(&buf, "   ![%s](%s)\n", m.Title, poster)
			}
		}
		buf.WriteString("\n")
	}

	return buf.Bytes(), nil
}

// ExportToText converts movies to plain text format
func ExportToText(movies []models.StoredMovie) ([]byte, error) {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "Movies: %d\n\n", len(movies))

	for i, m := range movies {
		mark := " "
		if m.Watched {
			mark = "x"
		}
		fmt.Fprintf(&buf, "%d. [%s] %s", i+1, mark, m.Title)
		if !m.ReleaseDate.IsZero() {
			fmt.Fprintf(&buf, " (%d)", m.ReleaseDate.Year())
		}
		buf.WriteString("\n")
	}

	return buf.Bytes(), nil
}

// Write writes movies to w in format. JSON output can be imported again.
func Write(w io.Writer, format Format, movies []models.StoredMovie) error {
	var (
		data []byte
		err  error
	)

	switch format {
	case CSV:
		data, err = ExportToCSV(movies)
	case Markdown:
		data, err = ExportToMarkdown("Watchlist", movies, nil)
	case Text:
		data, err = ExportToText(movies)
	default:
		return importer.Export(w, movies)
	}
	if err != nil {
		return err
	}

	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("failed to write export: %w", err)
	}
	return nil
}

// WriteFile exports movies to path in format.
//
// Defaults to cinx_export_{epoch}.{ext} as the filename.
func WriteFile(path string, format Format, movies []models.StoredMovie) (string, error) {
	if path == "" {
		path = fmt.Sprintf("cinx_export_%d.%s", time.Now().Unix(), format.Extension())
	}

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create export file: %w", err)
	}
	defer f.Close()

	if err := Write(f, format, movies); err != nil {
		return "", err
	}
	return path, nil
}

// MarkdownExportResult contains information about files created by WriteMarkdownExport
type MarkdownExportResult struct {
	Directory string
	Files     []string
	Posters   int
}

// WriteMarkdownExport exports movies to Markdown format in a dedicated directory.
//
// Creates a directory structure: {dir}/README.md plus {dir}/posters/{id}.jpg for every movie with a stored poster.
func WriteMarkdownExport(movies []models.StoredMovie, outputDir string) (*MarkdownExportResult, error) {
	if outputDir == "" {
		outputDir = fmt.Sprintf("cinx_export_%d", time.Now().Unix())
	}

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	result := &MarkdownExportResult{
		Directory: outputDir,
		Files:     []string{},
	}

	posters := make(map[int64]string)
	for _, m := range movies {
		if len(m.Poster) == 0 {
			continue
		}
		if result.Posters == 0 {
			if err := os.MkdirAll(filepath.Join(outputDir, "posters"), 0755); err != nil {
				return nil, fmt.Errorf("failed to create poster directory: %w", err)
			}
		}

		name := fmt.Sprintf("posters/%d.jpg", m.ID)
		path := filepath.Join(outputDir, name)
		if err := os.WriteFile(path, m.Poster, 0644); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to save poster for %s: %v\n", m.Title, err)
			continue
		}
		posters[m.ID] = name
		result.Posters++
		result.Files = append(result.Files, path)
	}

	mdData, err := ExportToMarkdown("Watchlist", movies, posters)
	if err != nil {
		return nil, fmt.Errorf("failed to generate Markdown: %w", err)
	}

	mdFile := filepath.Join(outputDir, "README.md")
	if err := os.WriteFile(mdFile, mdData, 0644); err != nil {
		return nil, fmt.Errorf("failed to write Markdown file: %w", err)
	}

	result.Files = append(result.Files, mdFile)

	return result, nil
}

func filterCategory(movies []models.StoredMovie, category models.Category) []models.StoredMovie {
	watched := category.Watched()
	var out []models.StoredMovie
	for _, m := range movies {
		if watched == nil || m.Watched == *watched {
			out = append(out, m)
		}
	}
	return out
}
