// Package models defines domain entities and persistence interfaces for the cinx movie watchlist.
//
// The package contains two categories of types:
//
// 1. Transient catalog data:
//   - [Movie] : catalog representation of a film, identified by its catalog id
//   - [Page] : one page of catalog search results
//
// 2. Persistent entities:
//   - [StoredMovie] : a tracked movie with its watched state and poster blob
//   - [ImportJob] : history of import runs
//
// [Category] selects the want-to-see or seen slice of the stored collection.
// The [Repository] interface defines standard CRUD operations for database access.
package models
