// Package server provides HTTP routing, middleware, and the JSON API served by `cinx serve`.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support.
//
// [Middleware] wraps handlers in reverse order (last added executes first), following the standard Go pattern.
//
// The [BasicRouter] implementation uses [http.ServeMux] method patterns internally.
//
// # Watchlist API
//
// [MovieHandler] exposes the same store the CLI and TUI use:
//
//	GET    /health                  → status and stored movie count
//	GET    /api/movies?category=&q= → movies in a category, optionally fuzzy filtered
//	POST   /api/movies              → save a catalog movie by id ({"id": 949, "watched": false})
//	GET    /api/movies/{id}         → a stored movie
//	DELETE /api/movies/{id}         → remove a movie
//	POST   /api/movies/{id}/watch   → set the watched flag ({"watched": false} to unwatch)
//	GET    /api/search?q=&page=     → catalog search, upcoming releases for an empty query
//	GET    /api/imports?limit=      → import history, newest first
//
// Changes go through store actions, so the store's persistence subscriber writes them and any
// running TUI sees them through its results controller.
//
// # Handler Interface
//
// Custom handlers implement the [Handler] interface, which wraps the stdlib handler interface and adds routes,
// allowing handlers to register multiple routes to encapsulate route definitions within the implementation.
package server
