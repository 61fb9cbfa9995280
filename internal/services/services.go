// package services defines interface Catalog for remote movie catalogs
//
// TMDB
package services

import (
	"context"
	"fmt"

	"github.com/desertthunder/cinx/internal/models"
)

// Catalog is a remote movie catalog that can search movies, list upcoming releases, load movie details and download posters.
type Catalog interface {
	// Search returns one page of movies whose title matches query. Pages start at 1.
	Search(ctx context.Context, query string, page int) (*models.Page, error)

	// Upcoming returns one page of movies about to be released.
	Upcoming(ctx context.Context, page int) (*models.Page, error)

	// Movie loads the full representation of a single movie.
	// Returns an error wrapping [shared.ErrMovieNotFound] for unknown ids.
	Movie(ctx context.Context, id int64) (*models.Movie, error)

	// Poster downloads the poster image at path (as found in [models.Movie.PosterPath]).
	Poster(ctx context.Context, path string) ([]byte, error)

	// Name returns the name of the catalog (e.g., "TMDB")
	Name() string
}

// MovieURL returns the public catalog page of the movie with id.
func MovieURL(id int64) string {
	return fmt.Sprintf("https://www.themoviedb.org/movie/%d", id)
}
