package session

import (
	"github.com/matzehuels/chartpad/pkg/core/gesture"
	"github.com/matzehuels/chartpad/pkg/core/reorder"
	"github.com/matzehuels/chartpad/pkg/observability"
)

// =============================================================================
// Gesture entry points
// =============================================================================
//
// Hosts translate raw input into these calls. Mode changes that do not
// touch the dataset are reported to hooks but skip reconciliation.

func (s *Session) track(op OpType, ok bool) bool {
	observability.Session().OnOperation(s.id, string(op), ok)
	return ok
}

func (s *Session) exists(tgt gesture.Target) bool {
	if tgt.Kind == gesture.Column {
		return s.ds.Columns.Has(tgt.ID)
	}
	_, ok := s.ds.Rows.Row(tgt.ID)
	return ok
}

func (s *Session) toggle(tgt gesture.Target) bool {
	if tgt.Kind == gesture.Column {
		return s.ds.Columns.Toggle(tgt.ID)
	}
	return s.ds.Rows.ToggleHidden(tgt.ID)
}

// PointerDown handles a primary-button press on part of a header. A press
// on the header body starts a sweep and toggles that header. A pending
// rename of another header is committed first, as if its input lost
// focus; a press on the header being renamed does nothing.
func (s *Session) PointerDown(tgt gesture.Target, part gesture.Part) bool {
	if s.gesture.IsRenaming(tgt) {
		return s.done(OpPointerDown, false, "target", tgt.ID, "mode", s.gesture.Mode())
	}
	if s.gesture.Mode() == gesture.Renaming {
		s.CommitRename()
	}
	if !s.exists(tgt) || !s.gesture.Press(tgt, part) {
		return s.done(OpPointerDown, false, "target", tgt.ID, "mode", s.gesture.Mode())
	}
	return s.done(OpPointerDown, s.toggle(tgt), "target", tgt.ID)
}

// PointerEnter handles the pointer entering a header. During a sweep each
// header of the sweep's kind is toggled the first time it is entered.
func (s *Session) PointerEnter(tgt gesture.Target) bool {
	if !s.exists(tgt) || !s.gesture.Enter(tgt) {
		return s.track(OpPointerEnter, false)
	}
	return s.done(OpPointerEnter, s.toggle(tgt), "target", tgt.ID)
}

// PointerUp ends a sweep, or abandons a drag that was not dropped.
func (s *Session) PointerUp() {
	mode := s.gesture.Mode()
	s.gesture.Release()
	s.track(OpPointerUp, mode == gesture.Sweeping || mode == gesture.Dragging)
}

// DragStart begins dragging a header by its handle. It fails while a
// rename or sweep is in progress.
func (s *Session) DragStart(tgt gesture.Target) bool {
	return s.track(OpDragStart, s.exists(tgt) && s.gesture.StartDrag(tgt))
}

// Drop ends a drag over tgt. Columns take the target's registry position;
// rows land above or below the target according to pos. A drop on a
// header of the other kind, or on the source itself, changes nothing.
func (s *Session) Drop(tgt gesture.Target, pos reorder.Position) bool {
	src, ok := s.gesture.Drop(tgt)
	if !ok || src.ID == tgt.ID {
		return s.done(OpDrop, false, "target", tgt.ID)
	}
	if src.Kind == gesture.Column {
		return s.MoveColumn(src.ID, tgt.ID)
	}
	return s.MoveRow(src.ID, tgt.ID, pos)
}

// DragCancel abandons a drag without reordering.
func (s *Session) DragCancel() bool {
	return s.track(OpDragCancel, s.gesture.CancelDrag())
}

// BeginRename opens the rename editor of a header, seeded with its current
// label. It fails mid-drag or mid-sweep.
func (s *Session) BeginRename(tgt gesture.Target) bool {
	var initial string
	switch tgt.Kind {
	case gesture.Column:
		c, ok := s.ds.Columns.Column(tgt.ID)
		if !ok {
			return s.track(OpBeginRename, false)
		}
		initial = c.DisplayLabel()
	default:
		label, ok := s.RowLabel(tgt.ID)
		if !ok {
			return s.track(OpBeginRename, false)
		}
		initial = label
	}
	return s.track(OpBeginRename, s.gesture.BeginRename(tgt, initial))
}

// EditRename replaces the rename buffer.
func (s *Session) EditRename(text string) bool {
	return s.track(OpEditRename, s.gesture.Edit(text))
}

// CommitRename applies the rename buffer. Invalid text is discarded and
// the committed label stays as it was; either way rename mode ends.
func (s *Session) CommitRename() bool {
	tgt, text, ok := s.gesture.Commit()
	if !ok {
		return s.track(OpCommitRename, false)
	}
	if tgt.Kind == gesture.Column {
		return s.RenameColumn(tgt.ID, text)
	}
	return s.RenameRow(tgt.ID, text)
}

// CancelRename leaves rename mode and discards the buffer.
func (s *Session) CancelRename() bool {
	return s.track(OpCancelRename, s.gesture.CancelRename())
}
