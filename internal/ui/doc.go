// Package ui implements an interactive terminal interface using bubbletea's Elm architecture.
//
// The TUI is the display side of the results bridge:
//  1. [ListView] : Browse stored movies by category (watchlist, seen, all)
//  2. [FilterView] : Narrow the list with a fuzzy title filter
//  3. [DetailView] : Show a movie, upgraded in place once catalog details arrive
//  4. [ConfirmView] : Confirm removing a movie
//  5. [SearchView] : Search the catalog and save results to the watchlist
//
// The (view) [Model] implements bubbletea/Elm's standard Init/Update/View pattern, receiving messages via the Msg union type.
// The movie list is driven by a [results.Controller]: row changes are queued on a [ProgramScheduler] and replayed
// inside Update, so every display mutation happens on the event loop.
//
// Keyboard navigation uses vim-style bindings (j/k, enter, esc, y/n, q) with contextual help displayed via charmbracelet/bubbles/help.
package ui
