// Package services defines the [Catalog] interface for remote movie catalogs and implements it for TMDB.
//
// # TMDB Implementation
//
// [TMDBService] talks to the TMDB v3 API. A v4 read access token is sent as a
// bearer token by an [oauth2] client; without one, the v3 api key is added as the
// api_key query parameter. Every request waits on a shared [rate.Limiter] built
// from catalog.rate_limit.
//
// # Error Handling
//
// Error statuses map to shared errors:
//   - [shared.ErrMissingCredentials] : 401, bad or missing credentials
//   - [shared.ErrMovieNotFound] : 404
//   - [shared.ErrRateLimited] : 429
//   - [shared.ErrServiceUnavailable] : 5xx
//   - [shared.ErrAPIRequest] : transport failures and any other status
//
// # API Mappings
//
// [TMDBMovie] converts to [models.Movie]; release dates use the YYYY-MM-DD layout
// and a null poster_path becomes an empty PosterPath.
package services
