// package results keeps a displayed list of stored movies in step with the database.
//
// A [Controller] fetches the movies matching a [Predicate] from a [Source], then on
// every change notification refetches, computes a [ChangeSet] against the previous
// snapshot with [Diff] and replays it on a [Delegate] through a [Scheduler]:
//
//	BeginUpdate
//	Delete(i)...   old indexes
//	Insert(i)...   new indexes
//	Move(from, to)...
//	Update(i)...   old indexes
//	EndUpdate
//
// Delegate calls only ever run on the scheduler, so a display that is not safe for
// concurrent use can implement [Delegate] directly.
package results
