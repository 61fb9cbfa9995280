// package importer reads and writes watchlist documents.
//
// An import document is decoded and validated in full before any action
// reaches the store: a document is either imported completely or not at all.
// Two shapes are accepted:
//
//	[ {"id": 1, "title": "...", ...}, ... ]
//	{ "movies": [ {"id": 1, "title": "...", ...}, ... ] }
//
// The second is what [Export] writes, so exported files re-import unchanged.
package importer
