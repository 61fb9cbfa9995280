package shared

import (
	"fmt"
	"strings"
	"time"
)

// ReleaseDateLayout is the layout used when displaying release dates.
const ReleaseDateLayout = "Jan 2, 2006"

// FormatRuntime renders a runtime in minutes, or "-" when unknown.
func FormatRuntime(minutes int) string {
	if minutes <= 0 {
		return "-"
	}
	return fmt.Sprintf("%d min", minutes)
}

// FormatVote renders a vote average with one decimal, or "-" when unrated.
func FormatVote(avg float64) string {
	if avg <= 0 {
		return "-"
	}
	return fmt.Sprintf("%.1f", avg)
}

// FormatReleaseDate renders a release date, or "" for the zero time.
func FormatReleaseDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(ReleaseDateLayout)
}

// FormatRelativeRelease renders the release relative to now: the year once released, "Coming <date>" before.
func FormatRelativeRelease(release, now time.Time) string {
	if release.IsZero() {
		return "Unknown"
	}
	if release.After(now) {
		return "Coming " + release.Format(ReleaseDateLayout)
	}
	return release.Format("2006")
}

// FormatMovieCount renders "1 movie" / "N movies".
func FormatMovieCount(n int) string {
	if n == 1 {
		return "1 movie"
	}
	return fmt.Sprintf("%d movies", n)
}

// NormalizeTitle lowercases and collapses whitespace for title comparison.
func NormalizeTitle(title string) string {
	return strings.Join(strings.Fields(strings.ToLower(title)), " ")
}
