package session

import (
	"encoding/json"
	"io"

	"github.com/matzehuels/chartpad/pkg/core/gesture"
	"github.com/matzehuels/chartpad/pkg/core/mapping"
	"github.com/matzehuels/chartpad/pkg/core/reorder"
	"github.com/matzehuels/chartpad/pkg/errors"
)

// OpType names a session operation.
type OpType string

const (
	OpSetChartType     OpType = "setChartType"
	OpSetSlot          OpType = "setSlot"
	OpToggleSeries     OpType = "toggleSeries"
	OpSetBins          OpType = "setBins"
	OpRenameColumn     OpType = "renameColumn"
	OpToggleColumn     OpType = "toggleColumn"
	OpSetColumnVisible OpType = "setColumnVisible"
	OpShowAllColumns   OpType = "showAllColumns"
	OpMoveColumn       OpType = "moveColumn"
	OpRenameRow        OpType = "renameRow"
	OpToggleRow        OpType = "toggleRow"
	OpSetRowHidden     OpType = "setRowHidden"
	OpShowAllRows      OpType = "showAllRows"
	OpMoveRow          OpType = "moveRow"
	OpEditCell         OpType = "editCell"

	OpPointerDown  OpType = "pointerDown"
	OpPointerEnter OpType = "pointerEnter"
	OpPointerUp    OpType = "pointerUp"
	OpDragStart    OpType = "dragStart"
	OpDrop         OpType = "drop"
	OpDragCancel   OpType = "dragCancel"
	OpBeginRename  OpType = "beginRename"
	OpEditRename   OpType = "editRename"
	OpCommitRename OpType = "commitRename"
	OpCancelRename OpType = "cancelRename"
)

// Op is one operation encoded as data, as sent by the HTTP API and read by
// `chartpad apply`. Only the fields relevant to Type are consulted.
//
//	{"op": "toggleColumn", "id": "cogs"}
//	{"op": "moveRow", "id": "2021", "target": "2019", "position": "above"}
//	{"op": "pointerDown", "kind": "column", "id": "cogs", "part": "header"}
type Op struct {
	Type      OpType `json:"op"`
	Kind      string `json:"kind,omitempty"`
	ID        string `json:"id,omitempty"`
	Target    string `json:"target,omitempty"`
	Position  string `json:"position,omitempty"`
	Part      string `json:"part,omitempty"`
	Column    string `json:"column,omitempty"`
	Slot      string `json:"slot,omitempty"`
	Text      string `json:"text,omitempty"`
	Visible   *bool  `json:"visible,omitempty"`
	Hidden    *bool  `json:"hidden,omitempty"`
	Bins      int    `json:"bins,omitempty"`
	ChartType string `json:"chartType,omitempty"`
}

// parts maps Op.Part names to header parts.
var parts = map[string]gesture.Part{
	"":           gesture.Header,
	"header":     gesture.Header,
	"rename":     gesture.RenameControl,
	"visibility": gesture.VisibilityButton,
	"handle":     gesture.DragHandle,
}

func invalid(op Op, format string, args ...any) error {
	e := errors.New(errors.ErrCodeInvalidOp, format, args...)
	e.Message = string(op.Type) + ": " + e.Message
	return e
}

// Validate checks that op is well formed: a known type with the fields it
// needs. A valid op may still be rejected by the session at apply time.
func (op Op) Validate() error {
	needID := func() error {
		if op.ID == "" {
			return invalid(op, "id is required")
		}
		return nil
	}
	needTarget := func() error {
		if _, ok := gesture.ParseKind(op.Kind); !ok {
			return invalid(op, "kind must be row or column, got %q", op.Kind)
		}
		return needID()
	}

	switch op.Type {
	case OpSetChartType:
		if _, ok := mapping.ParseChartType(op.ChartType); !ok {
			return errors.New(errors.ErrCodeInvalidChartType, "unknown chart type %q", op.ChartType)
		}
	case OpSetSlot:
		if _, ok := mapping.ParseSlot(op.Slot); !ok {
			return invalid(op, "unknown slot %q", op.Slot)
		}
	case OpSetBins:
		if op.Bins == 0 {
			return invalid(op, "bins is required")
		}
	case OpToggleSeries, OpToggleColumn, OpToggleRow:
		return needID()
	case OpRenameColumn, OpRenameRow:
		return needID()
	case OpSetColumnVisible:
		if op.Visible == nil {
			return invalid(op, "visible is required")
		}
		return needID()
	case OpSetRowHidden:
		if op.Hidden == nil {
			return invalid(op, "hidden is required")
		}
		return needID()
	case OpMoveColumn, OpMoveRow:
		if op.Target == "" {
			return invalid(op, "target is required")
		}
		return needID()
	case OpEditCell:
		if op.Column == "" {
			return invalid(op, "column is required")
		}
		return needID()
	case OpPointerDown:
		if _, ok := parts[op.Part]; !ok {
			return invalid(op, "unknown part %q", op.Part)
		}
		return needTarget()
	case OpPointerEnter, OpDragStart, OpDrop, OpBeginRename:
		return needTarget()
	case OpShowAllColumns, OpShowAllRows, OpPointerUp, OpDragCancel,
		OpEditRename, OpCommitRename, OpCancelRename:
	default:
		return invalid(op, "unknown operation")
	}
	return nil
}

func (op Op) target() gesture.Target {
	kind, _ := gesture.ParseKind(op.Kind)
	return gesture.Target{Kind: kind, ID: op.ID}
}

// Apply performs op and reports whether it changed the session. Malformed
// ops are rejected like any other invalid operation; call Validate first to
// tell the two apart.
func (s *Session) Apply(op Op) bool {
	if err := op.Validate(); err != nil {
		return s.done(op.Type, false, "err", err)
	}
	switch op.Type {
	case OpSetChartType:
		return s.SetChartType(mapping.ChartType(op.ChartType))
	case OpSetSlot:
		slot, _ := mapping.ParseSlot(op.Slot)
		return s.SetSlot(slot, op.Column)
	case OpToggleSeries:
		return s.ToggleSeries(op.ID)
	case OpSetBins:
		return s.SetBins(op.Bins)
	case OpRenameColumn:
		return s.RenameColumn(op.ID, op.Text)
	case OpToggleColumn:
		return s.ToggleColumn(op.ID)
	case OpSetColumnVisible:
		return s.SetColumnVisible(op.ID, *op.Visible)
	case OpShowAllColumns:
		return s.ShowAllColumns()
	case OpMoveColumn:
		return s.MoveColumn(op.ID, op.Target)
	case OpRenameRow:
		return s.RenameRow(op.ID, op.Text)
	case OpToggleRow:
		return s.ToggleRow(op.ID)
	case OpSetRowHidden:
		return s.SetRowHidden(op.ID, *op.Hidden)
	case OpShowAllRows:
		return s.ShowAllRows()
	case OpMoveRow:
		return s.MoveRow(op.ID, op.Target, reorder.ParsePosition(op.Position))
	case OpEditCell:
		return s.EditCell(op.ID, op.Column, op.Text)
	case OpPointerDown:
		return s.PointerDown(op.target(), parts[op.Part])
	case OpPointerEnter:
		return s.PointerEnter(op.target())
	case OpPointerUp:
		mode := s.Mode()
		s.PointerUp()
		return mode == gesture.Sweeping || mode == gesture.Dragging
	case OpDragStart:
		return s.DragStart(op.target())
	case OpDrop:
		return s.Drop(op.target(), reorder.ParsePosition(op.Position))
	case OpDragCancel:
		return s.DragCancel()
	case OpBeginRename:
		return s.BeginRename(op.target())
	case OpEditRename:
		return s.EditRename(op.Text)
	case OpCommitRename:
		return s.CommitRename()
	case OpCancelRename:
		return s.CancelRename()
	}
	return false
}

// ApplyAll applies ops in order and returns how many were applied.
func (s *Session) ApplyAll(ops []Op) int {
	n := 0
	for _, op := range ops {
		if s.Apply(op) {
			n++
		}
	}
	return n
}

// ReadOps decodes either a single op object or an array of ops.
func ReadOps(r io.Reader) ([]Op, error) {
	var raw json.RawMessage
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidOp, err, "decode operations")
	}
	var ops []Op
	if len(raw) > 0 && raw[0] == '[' {
		if err := json.Unmarshal(raw, &ops); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidOp, err, "decode operations")
		}
	} else {
		var op Op
		if err := json.Unmarshal(raw, &op); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidOp, err, "decode operation")
		}
		ops = []Op{op}
	}
	for i, op := range ops {
		if err := op.Validate(); err != nil {
			return nil, errors.Wrap(errors.GetCode(err), err, "operation %d", i+1)
		}
	}
	return ops, nil
}
