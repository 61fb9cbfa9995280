package shared

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"
)

func TestFormatting(t *testing.T) {
	t.Run("FormatRuntime", func(t *testing.T) {
		tc := []struct {
			minutes int
			want    string
		}{
			{118, "118 min"},
			{1, "1 min"},
			{0, "-"},
			{-5, "-"},
		}
		for _, tt := range tc {
			if got := FormatRuntime(tt.minutes); got != tt.want {
				t.Errorf("FormatRuntime(%d) = %q, want %q", tt.minutes, got, tt.want)
			}
		}
	})

	t.Run("FormatVote", func(t *testing.T) {
		tc := []struct {
			avg  float64
			want string
		}{
			{7.44, "7.4"},
			{10, "10.0"},
			{0, "-"},
		}
		for _, tt := range tc {
			if got := FormatVote(tt.avg); got != tt.want {
				t.Errorf("FormatVote(%v) = %q, want %q", tt.avg, got, tt.want)
			}
		}
	})

	t.Run("FormatRelativeRelease", func(t *testing.T) {
		now := time.Date(2026, 10, 17, 12, 0, 0, 0, time.UTC)
		tc := []struct {
			name    string
			release time.Time
			want    string
		}{
			{"released", time.Date(2019, 5, 1, 0, 0, 0, 0, time.UTC), "2019"},
			{"upcoming", time.Date(2027, 3, 4, 0, 0, 0, 0, time.UTC), "Coming Mar 4, 2027"},
			{"unknown", time.Time{}, "Unknown"},
		}
		for _, tt := range tc {
			t.Run(tt.name, func(t *testing.T) {
				if got := FormatRelativeRelease(tt.release, now); got != tt.want {
					t.Errorf("FormatRelativeRelease() = %q, want %q", got, tt.want)
				}
			})
		}
	})

	t.Run("FormatMovieCount", func(t *testing.T) {
		if got := FormatMovieCount(1); got != "1 movie" {
			t.Errorf("expected '1 movie', got %q", got)
		}
		if got := FormatMovieCount(3); got != "3 movies" {
			t.Errorf("expected '3 movies', got %q", got)
		}
		if got := FormatMovieCount(0); got != "0 movies" {
			t.Errorf("expected '0 movies', got %q", got)
		}
	})

	t.Run("NormalizeTitle", func(t *testing.T) {
		if got := NormalizeTitle("  The   Matrix  "); got != "the matrix" {
			t.Errorf("NormalizeTitle() = %q", got)
		}
	})
}

func TestLogging(t *testing.T) {
	t.Run("ParseLogLevel", func(t *testing.T) {
		tc := map[string]log.Level{
			"debug":   log.DebugLevel,
			"DEBUG":   log.DebugLevel,
			"warn":    log.WarnLevel,
			"warning": log.WarnLevel,
			"error":   log.ErrorLevel,
			"info":    log.InfoLevel,
			"":        log.InfoLevel,
			"bogus":   log.InfoLevel,
		}
		for in, want := range tc {
			if got := ParseLogLevel(in); got != want {
				t.Errorf("ParseLogLevel(%q) = %v, want %v", in, got, want)
			}
		}
	})

	t.Run("NewLogger writes to the given writer", func(t *testing.T) {
		var buf bytes.Buffer
		logger := NewLogger(&buf)
		logger.Info("imported", "count", 2)

		if !strings.Contains(buf.String(), "imported") || !strings.Contains(buf.String(), "count=2") {
			t.Errorf("unexpected log output: %q", buf.String())
		}
	})

	t.Run("NewFileLogger creates parent directories", func(t *testing.T) {
		path := t.TempDir() + "/nested/dir/cinx.log"
		logger, err := NewFileLogger(path)
		if err != nil {
			t.Fatalf("NewFileLogger() error = %v", err)
		}
		logger.Info("hello")
	})
}

func TestGenerateID(t *testing.T) {
	a, b := GenerateID(), GenerateID()
	if a == b {
		t.Error("expected distinct ids")
	}
	if len(a) != 36 {
		t.Errorf("expected uuid string of length 36, got %d", len(a))
	}
}

func TestBrowserCommand(t *testing.T) {
	original := getRuntime
	defer func() { getRuntime = original }()

	for rt, bin := range map[string]string{"darwin": "open", "linux": "xdg-open", "windows": "cmd"} {
		getRuntime = func() string { return rt }
		cmd, err := browserCommand("https://example.com")
		if err != nil {
			t.Fatalf("browserCommand() on %s error = %v", rt, err)
		}
		if !strings.HasSuffix(cmd.Path, bin) && cmd.Args[0] != bin {
			t.Errorf("expected %s command on %s, got %v", bin, rt, cmd.Args)
		}
	}

	getRuntime = func() string { return "plan9" }
	if _, err := browserCommand("https://example.com"); err == nil {
		t.Error("expected error for unsupported platform")
	}
}
