// package tasks implements the long-running watchlist operations shared by the CLI, TUI and server.
//
// [DetailLoader] shows a movie at once and replaces it with the catalog's full
// representation when that arrives. [Engine] runs imports with history tracking,
// catalog searches and the concurrent poster sync.
//
// Operations emit progress updates via channels for non-blocking status reporting to CLI/UI layers.
package tasks
