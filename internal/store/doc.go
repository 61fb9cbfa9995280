// Package store holds the canonical in-memory watchlist state.
//
// State changes only through [Action] values applied by [Reduce], a pure function.
// A [Store] is an explicitly constructed container that serialises [Store.Dispatch] calls and notifies [Subscriber]s after every action, in the order actions were dispatched.
//
// Collaborators that only need to emit actions depend on the [Dispatcher] interface,
// which lets tests record actions instead of applying them.
package store
