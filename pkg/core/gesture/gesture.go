// Package gesture tracks the interaction mode of an editing session.
//
// Exactly one mode is active at a time:
//
//	Idle ──press header──▶ Sweeping(kind, touched) ──release──▶ Idle
//	Idle ──drag start────▶ Dragging(kind, source)  ──drop/end──▶ Idle
//	Idle ──begin rename──▶ Renaming(kind, id, buf) ──commit/cancel──▶ Idle
//
// The [Tracker] only decides; it never mutates dataset state. Callers apply
// the toggles, reorders and renames it reports. Gesture end is explicit: the
// host calls [Tracker.Release] when the primary button goes up anywhere.
package gesture

import "sort"

// Kind distinguishes row headers from column headers. A single gesture
// never mixes kinds.
type Kind uint8

const (
	Row Kind = iota
	Column
)

func (k Kind) String() string {
	if k == Column {
		return "column"
	}
	return "row"
}

// ParseKind converts "row"/"column" to a Kind.
func ParseKind(s string) (Kind, bool) {
	switch s {
	case "row":
		return Row, true
	case "column", "col":
		return Column, true
	}
	return Row, false
}

// Part identifies which element of a header received a press.
type Part uint8

const (
	// Header is the header body; the only part that starts a sweep.
	Header Part = iota
	RenameControl
	VisibilityButton
	DragHandle
)

// Mode is the current interaction mode.
type Mode uint8

const (
	Idle Mode = iota
	Sweeping
	Dragging
	Renaming
)

func (m Mode) String() string {
	switch m {
	case Sweeping:
		return "sweeping"
	case Dragging:
		return "dragging"
	case Renaming:
		return "renaming"
	default:
		return "idle"
	}
}

// Target addresses one header: a row key or a column id.
type Target struct {
	Kind Kind   `json:"kind"`
	ID   string `json:"id"`
}

// Tracker is the explicit interaction-mode state of one session.
// The zero value is Idle and ready to use.
type Tracker struct {
	mode    Mode
	kind    Kind
	touched map[string]bool

	source string

	renaming string
	buffer   string
}

// Mode returns the current mode.
func (t *Tracker) Mode() Mode { return t.mode }

// Kind returns the header kind of the active gesture. It is meaningless
// while Idle.
func (t *Tracker) Kind() Kind { return t.kind }

// Press handles a primary-button press on part of header tgt. It reports
// whether tgt should be toggled, which happens exactly when a sweep starts.
func (t *Tracker) Press(tgt Target, part Part) bool {
	if t.mode != Idle || part != Header {
		return false
	}
	t.mode = Sweeping
	t.kind = tgt.Kind
	t.touched = map[string]bool{tgt.ID: true}
	return true
}

// Enter handles the pointer entering header tgt. It reports whether tgt
// should be toggled: only during a sweep, only for headers of the sweep's
// kind, and only the first time each header is entered.
func (t *Tracker) Enter(tgt Target) bool {
	if t.mode != Sweeping || tgt.Kind != t.kind || t.touched[tgt.ID] {
		return false
	}
	t.touched[tgt.ID] = true
	return true
}

// Touched returns the ids toggled by the current sweep, sorted.
func (t *Tracker) Touched() []string {
	ids := make([]string, 0, len(t.touched))
	for id := range t.touched {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Release ends a sweep or abandons a drag. Rename mode is unaffected: a
// rename outlives the click that started it.
func (t *Tracker) Release() {
	switch t.mode {
	case Sweeping, Dragging:
		t.reset()
	}
}

// StartDrag begins dragging header tgt. It fails unless the tracker is
// Idle, so a header that is mid-rename cannot be dragged.
func (t *Tracker) StartDrag(tgt Target) bool {
	if t.mode != Idle {
		return false
	}
	t.mode = Dragging
	t.kind = tgt.Kind
	t.source = tgt.ID
	return true
}

// DragSource returns the header being dragged.
func (t *Tracker) DragSource() (Target, bool) {
	if t.mode != Dragging {
		return Target{}, false
	}
	return Target{Kind: t.kind, ID: t.source}, true
}

// Drop ends a drag over tgt and returns the dragged header. ok is false
// when no drag is active or tgt is of the other kind; in that case the
// drag is abandoned and nothing should change.
func (t *Tracker) Drop(tgt Target) (source Target, ok bool) {
	source, ok = t.DragSource()
	t.Release()
	if !ok || tgt.Kind != source.Kind {
		return Target{}, false
	}
	return source, true
}

// CancelDrag abandons an active drag.
func (t *Tracker) CancelDrag() bool {
	if t.mode != Dragging {
		return false
	}
	t.reset()
	return true
}

// BeginRename enters rename mode for tgt with initial as the edit buffer.
// It fails unless the tracker is Idle, so renames cannot start mid-drag.
func (t *Tracker) BeginRename(tgt Target, initial string) bool {
	if t.mode != Idle {
		return false
	}
	t.mode = Renaming
	t.kind = tgt.Kind
	t.renaming = tgt.ID
	t.buffer = initial
	return true
}

// RenameTarget returns the header being renamed.
func (t *Tracker) RenameTarget() (Target, bool) {
	if t.mode != Renaming {
		return Target{}, false
	}
	return Target{Kind: t.kind, ID: t.renaming}, true
}

// IsRenaming reports whether tgt is the header being renamed.
func (t *Tracker) IsRenaming(tgt Target) bool {
	cur, ok := t.RenameTarget()
	return ok && cur == tgt
}

// Buffer returns the in-progress rename text.
func (t *Tracker) Buffer() string { return t.buffer }

// Edit replaces the rename buffer.
func (t *Tracker) Edit(text string) bool {
	if t.mode != Renaming {
		return false
	}
	t.buffer = text
	return true
}

// Commit leaves rename mode and returns the target and final buffer for
// the caller to validate and apply.
func (t *Tracker) Commit() (Target, string, bool) {
	tgt, ok := t.RenameTarget()
	if !ok {
		return Target{}, "", false
	}
	text := t.buffer
	t.reset()
	return tgt, text, true
}

// CancelRename leaves rename mode, discarding the buffer.
func (t *Tracker) CancelRename() bool {
	if t.mode != Renaming {
		return false
	}
	t.reset()
	return true
}

func (t *Tracker) reset() {
	*t = Tracker{}
}
