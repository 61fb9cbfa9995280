package results

import (
	"fmt"

	"github.com/desertthunder/cinx/internal/models"
)

// ChangeKind is the kind of a single row change.
type ChangeKind int

const (
	Insert ChangeKind = iota
	Delete
	Update
	Move
)

func (k ChangeKind) String() string {
	switch k {
	case Insert:
		return "insert"
	case Delete:
		return "delete"
	case Update:
		return "update"
	case Move:
		return "move"
	default:
		return fmt.Sprintf("ChangeKind(%d)", int(k))
	}
}

// Change is a single row change. From is the index before the change and To the
// index after it; the one that does not apply to Kind is -1.
type Change struct {
	Kind  ChangeKind
	From  int
	To    int
	Movie models.StoredMovie
}

func (c Change) String() string {
	switch c.Kind {
	case Insert:
		return fmt.Sprintf("insert(%d)", c.To)
	case Delete, Update:
		return fmt.Sprintf("%s(%d)", c.Kind, c.From)
	default:
		return fmt.Sprintf("move(%d,%d)", c.From, c.To)
	}
}

// ChangeSet is an ordered batch of changes turning one snapshot into the next.
type ChangeSet []Change

// Diff computes the changes that turn old into next, matching rows by movie id.
//
// Deletes come first in ascending old index, then inserts in ascending new index,
// then moves, then updates at their old index. Rows that keep their relative order
// are never reported as moved; a moved row carries its new content and is not also
// reported as updated.
func Diff(old, next []models.StoredMovie) ChangeSet {
	oldIndex := make(map[int64]int, len(old))
	for i, m := range old {
		oldIndex[m.ID] = i
	}
	newIndex := make(map[int64]int, len(next))
	for i, m := range next {
		newIndex[m.ID] = i
	}

	var changes ChangeSet

	for i, m := range old {
		if _, ok := newIndex[m.ID]; !ok {
			changes = append(changes, Change{Kind: Delete, From: i, To: -1, Movie: m})
		}
	}

	// survivors holds the old index of every surviving row, in new order.
	var survivors, survivorsAt []int
	for i, m := range next {
		j, ok := oldIndex[m.ID]
		if !ok {
			changes = append(changes, Change{Kind: Insert, From: -1, To: i, Movie: m})
			continue
		}
		survivors = append(survivors, j)
		survivorsAt = append(survivorsAt, i)
	}

	stable := longestIncreasing(survivors)

	var updates ChangeSet
	for k, from := range survivors {
		to := survivorsAt[k]
		if !stable[k] {
			changes = append(changes, Change{Kind: Move, From: from, To: to, Movie: next[to]})
			continue
		}
		if !old[from].SameContent(next[to]) {
			updates = append(updates, Change{Kind: Update, From: from, To: to, Movie: next[to]})
		}
	}

	return append(changes, updates...)
}

// longestIncreasing marks the positions of seq that form one longest strictly
// increasing subsequence.
func longestIncreasing(seq []int) []bool {
	marked := make([]bool, len(seq))
	if len(seq) == 0 {
		return marked
	}

	// tails[l] is the index in seq of the smallest tail of an increasing run of length l+1.
	tails := make([]int, 0, len(seq))
	prev := make([]int, len(seq))

	for i, v := range seq {
		lo, hi := 0, len(tails)
		for lo < hi {
			mid := (lo + hi) / 2
			if seq[tails[mid]] < v {
				lo = mid + 1
			} else {
				hi = mid
			}
		}

		if lo > 0 {
			prev[i] = tails[lo-1]
		} else {
			prev[i] = -1
		}

		if lo == len(tails) {
			tails = append(tails, i)
		} else {
			tails[lo] = i
		}
	}

	for i := tails[len(tails)-1]; i >= 0; i = prev[i] {
		marked[i] = true
	}
	return marked
}
