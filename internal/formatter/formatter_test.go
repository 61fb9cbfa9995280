package formatter

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/desertthunder/cinx/internal/importer"
	"github.com/desertthunder/cinx/internal/models"
	"github.com/desertthunder/cinx/internal/shared"
	tu "github.com/desertthunder/cinx/internal/testing"
)

func fixtures() []models.StoredMovie {
	watchedAt := time.Date(2019, 1, 2, 20, 0, 0, 0, time.UTC)
	return []models.StoredMovie{
		{
			Movie: models.Movie{
				ID: 949, Title: "Heat", Runtime: 170, VoteAverage: 7.9, Overview: "Thief.",
				ReleaseDate: time.Date(1995, 12, 15, 0, 0, 0, 0, time.UTC), Poster: []byte{0xff, 0xd8},
			},
			Watched:   true,
			WatchedAt: &watchedAt,
		},
		{Movie: models.Movie{ID: 8195, Title: "Ronin, The Movie", Runtime: 122, VoteAverage: 6.9, Overview: "Briefcase."}},
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		input    string
		expected Format
		ext      string
	}{
		{"", JSON, "json"},
		{"JSON", JSON, "json"},
		{"csv", CSV, "csv"},
		{"md", Markdown, "md"},
		{"markdown", Markdown, "md"},
		{"text", Text, "txt"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseFormat(tt.input)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.expected || got.Extension() != tt.ext {
				t.Errorf("expected %s/%s, got %s/%s", tt.expected, tt.ext, got, got.Extension())
			}
		})
	}

	if _, err := ParseFormat("xml"); !errors.Is(err, shared.ErrInvalidFlag) {
		t.Errorf("expected ErrInvalidFlag, got %v", err)
	}
}

func TestExporters(t *testing.T) {
	t.Run("ExportToCSV", func(t *testing.T) {
		data, err := ExportToCSV(fixtures())
		if err != nil {
			t.Fatalf("ExportToCSV failed: %v", err)
		}

		output := string(data)
		if !strings.Contains(output, "ID,Title,Release Date,Runtime,Vote Average,Watched,Watched Date") {
			t.Errorf("CSV missing headers, got: %s", output)
		}
		if !strings.Contains(output, "949,Heat,1995-12-15,170,7.9,true,2019-01-02T20:00:00Z") {
			t.Errorf("CSV missing Heat row, got: %s", output)
		}
		if !strings.Contains(output, `8195,"Ronin, The Movie",,122,6.9,false,`) {
			t.Errorf("CSV should quote titles with commas, got: %s", output)
		}
	})

	t.Run("ExportToMarkdown", func(t *testing.T) {
		data, err := ExportToMarkdown("Watchlist", fixtures(), map[int64]string{949: "posters/949.jpg"})
		if err != nil {
			t.Fatalf("ExportToMarkdown failed: %v", err)
		}

		output := string(data)
		for _, want := range []string{
			"# Watchlist",
			"**Movies**: 2 movies",
			"## Watchlist",
			"## Seen",
			"1. **Heat** (1995) [170 min, ★ 7.9]",
			"![Heat](posters/949.jpg)",
			"1. **Ronin, The Movie** [122 min, ★ 6.9]",
		} {
			if !strings.Contains(output, want) {
				t.Errorf("Markdown missing %q, got:\n%s", want, output)
			}
		}
		if strings.Index(output, "## Watchlist") > strings.Index(output, "## Seen") {
			t.Error("expected watchlist before seen")
		}
	})

	t.Run("ExportToMarkdown Empty", func(t *testing.T) {
		data, _ := ExportToMarkdown("Watchlist", nil, nil)
		if strings.Contains(string(data), "##") {
			t.Errorf("expected no sections, got %s", data)
		}
	})

	t.Run("ExportToText", func(t *testing.T) {
		data, err := ExportToText(fixtures())
		if err != nil {
			t.Fatalf("ExportToText failed: %v", err)
		}

		output := string(data)
		if !strings.Contains(output, "Movies: 2") {
			t.Errorf("text missing count, got: %s", output)
		}
		if !strings.Contains(output, "1. [x] Heat (1995)") || !strings.Contains(output, "2. [ ] Ronin, The Movie\n") {
			t.Errorf("text missing movies, got: %s", output)
		}
	})
}

func TestWrite(t *testing.T) {
	t.Run("JSON Re-imports", func(t *testing.T) {
		var buf bytes.Buffer
		if err := Write(&buf, JSON, fixtures()); err != nil {
			t.Fatalf("Write failed: %v", err)
		}

		movies, err := importer.Decode(&buf)
		if err != nil {
			t.Fatalf("exported JSON did not decode: %v", err)
		}
		if len(movies) != 2 || movies[0].ID != 949 {
			t.Errorf("unexpected movies %+v", movies)
		}
	})

	t.Run("Write Failure", func(t *testing.T) {
		for _, format := range []Format{JSON, CSV, Markdown, Text} {
			if err := Write(&tu.FWriter{}, format, fixtures()); err == nil {
				t.Errorf("%s: expected write error", format)
			}
		}
	})

	t.Run("WriteFile", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "movies.csv")
		got, err := WriteFile(path, CSV, fixtures())
		if err != nil {
			t.Fatalf("WriteFile failed: %v", err)
		}
		if got != path {
			t.Errorf("expected %s, got %s", path, got)
		}
		if !strings.HasPrefix(tu.MustReadFile(t, path), "ID,Title") {
			t.Error("expected CSV content")
		}
	})

	t.Run("WriteFile Default Name", func(t *testing.T) {
		wd, _ := os.Getwd()
		dir := t.TempDir()
		if err := os.Chdir(dir); err != nil {
			t.Fatalf("chdir failed: %v", err)
		}
		defer os.Chdir(wd)

		got, err := WriteFile("", Text, fixtures())
		if err != nil {
			t.Fatalf("WriteFile failed: %v", err)
		}
		if !strings.HasPrefix(got, "cinx_export_") || !strings.HasSuffix(got, ".txt") {
			t.Errorf("unexpected default name %s", got)
		}
		tu.AssertFileExists(t, filepath.Join(dir, got))
	})

	t.Run("WriteFile Bad Path", func(t *testing.T) {
		if _, err := WriteFile(filepath.Join(t.TempDir(), "missing", "x.json"), JSON, nil); err == nil {
			t.Error("expected error for missing directory")
		}
	})
}

func TestWriteMarkdownExport(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "export")

	result, err := WriteMarkdownExport(fixtures(), dir)
	if err != nil {
		t.Fatalf("WriteMarkdownExport failed: %v", err)
	}

	if result.Posters != 1 || len(result.Files) != 2 {
		t.Errorf("expected 1 poster and 2 files, got %+v", result)
	}
	tu.AssertFileExists(t, filepath.Join(dir, "README.md"))
	tu.AssertFileExists(t, filepath.Join(dir, "posters", "949.jpg"))

	readme := tu.MustReadFile(t, filepath.Join(dir, "README.md"))
	if !strings.Contains(readme, "![Heat](posters/949.jpg)") {
		t.Errorf("README missing poster link:\n%s", readme)
	}
}
