// Package reorder computes new orderings for columns and rows from drag
// intents.
//
// Two insertion semantics exist:
//
//   - [Move] places the source at the target's former index ("drop onto"),
//     which is how columns are reordered.
//   - [MoveRelative] places the source immediately above or below the target,
//     which is how rows are reordered. Dropping on the lower half of the last
//     row is the only way to move a row to the very end.
//
// Every function is pure and index-stable: moving A past B never changes
// the relative order of any other item.
package reorder

import "slices"

// Position selects where a row lands relative to its drop target.
type Position int

const (
	// Above inserts the source immediately before the target.
	Above Position = iota
	// Below inserts the source immediately after the target.
	Below
)

// String returns "above" or "below".
func (p Position) String() string {
	if p == Below {
		return "below"
	}
	return "above"
}

// ParsePosition converts "above"/"below" to a Position. Unknown values
// yield Above.
func ParsePosition(s string) Position {
	if s == "below" {
		return Below
	}
	return Above
}

// PositionAt classifies a pointer Y coordinate against a target element's
// bounding box: the upper half means Above, the lower half Below.
func PositionAt(pointerY, top, height float64) Position {
	if pointerY >= top+height/2 {
		return Below
	}
	return Above
}

// Splice returns a copy of items with the element at from moved to index
// to. Out-of-range indices return an unchanged copy.
func Splice[T any](items []T, from, to int) []T {
	out := slices.Clone(items)
	if from < 0 || from >= len(out) || to < 0 || to >= len(out) || from == to {
		return out
	}
	item := out[from]
	out = slices.Delete(out, from, from+1)
	return slices.Insert(out, to, item)
}

// Insertion computes the final index of an element currently at from when
// it is dropped above or below the element currently at target. The
// second result is false when the move would not change the order.
func Insertion(from, target int, pos Position) (int, bool) {
	at := target
	if pos == Below {
		at++
	}
	if from < at {
		at-- // account for the removal shift
	}
	if at == from {
		return from, false
	}
	return at, true
}

// Move returns ids with source moved to target's former position. The
// result is a copy; it equals ids when source == target or either is
// absent.
func Move(ids []string, source, target string) []string {
	from, to := slices.Index(ids, source), slices.Index(ids, target)
	if from < 0 || to < 0 {
		return slices.Clone(ids)
	}
	return Splice(ids, from, to)
}

// MoveRelative returns ids with source placed above or below target, and
// whether the order changed.
func MoveRelative(ids []string, source, target string, pos Position) ([]string, bool) {
	from, to := slices.Index(ids, source), slices.Index(ids, target)
	if from < 0 || to < 0 || from == to {
		return slices.Clone(ids), false
	}
	at, ok := Insertion(from, to, pos)
	if !ok {
		return slices.Clone(ids), false
	}
	return Splice(ids, from, at), true
}
