package dataset

import (
	"strings"
	"unicode"

	"github.com/matzehuels/chartpad/pkg/core/reorder"
)

// Column describes one data column. ID is the immutable join key used by
// row fields and mapping slots; Label is display-only.
type Column struct {
	ID      string `json:"id"`
	Label   string `json:"label"`
	Color   string `json:"color,omitempty"`
	Visible bool   `json:"visible"`
}

// DisplayLabel returns the label if set, otherwise the ID.
func (c Column) DisplayLabel() string {
	if c.Label != "" {
		return c.Label
	}
	return c.ID
}

// Registry is the ordered set of columns of a dataset.
//
// Columns are never removed; they are only hidden. All mutating methods
// report whether state changed and silently reject invalid input.
// A Registry is not safe for concurrent use.
type Registry struct {
	cols     []Column
	reserved string
}

// NewRegistry creates a registry holding cols in order. Duplicate or empty
// ids are dropped (first occurrence wins) so the id invariant holds from
// the start.
func NewRegistry(cols []Column) *Registry {
	r := &Registry{cols: make([]Column, 0, len(cols))}
	seen := make(map[string]bool, len(cols))
	for _, c := range cols {
		if c.ID == "" || seen[c.ID] {
			continue
		}
		seen[c.ID] = true
		r.cols = append(r.cols, c)
	}
	return r
}

// Len returns the number of columns.
func (r *Registry) Len() int { return len(r.cols) }

// Columns returns a copy of all columns in registry order.
func (r *Registry) Columns() []Column {
	out := make([]Column, len(r.cols))
	copy(out, r.cols)
	return out
}

// IDs returns all column ids in registry order.
func (r *Registry) IDs() []string {
	ids := make([]string, len(r.cols))
	for i, c := range r.cols {
		ids[i] = c.ID
	}
	return ids
}

// Visible returns the visible columns in registry order.
func (r *Registry) Visible() []Column {
	var out []Column
	for _, c := range r.cols {
		if c.Visible {
			out = append(out, c)
		}
	}
	return out
}

// VisibleIDs returns the ids of visible columns in registry order.
func (r *Registry) VisibleIDs() []string {
	var ids []string
	for _, c := range r.cols {
		if c.Visible {
			ids = append(ids, c.ID)
		}
	}
	return ids
}

// Index returns the position of id, or -1.
func (r *Registry) Index(id string) int {
	for i, c := range r.cols {
		if c.ID == id {
			return i
		}
	}
	return -1
}

// Has reports whether id names a column.
func (r *Registry) Has(id string) bool { return r.Index(id) >= 0 }

// Column returns the column with the given id.
func (r *Registry) Column(id string) (Column, bool) {
	if i := r.Index(id); i >= 0 {
		return r.cols[i], true
	}
	return Column{}, false
}

// IsVisible reports whether id names a visible column.
func (r *Registry) IsVisible(id string) bool {
	c, ok := r.Column(id)
	return ok && c.Visible
}

// FoldLabel returns the case-folded form under which labels are compared:
// every rune is replaced by the smallest rune of its Unicode simple-fold
// orbit, so FoldLabel(a) == FoldLabel(b) exactly when strings.EqualFold(a, b).
func FoldLabel(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		low := r
		for f := unicode.SimpleFold(r); f != r; f = unicode.SimpleFold(f) {
			low = min(low, f)
		}
		b.WriteRune(low)
	}
	return b.String()
}

// Reserve makes label unavailable to every column. A dataset reserves its
// key column's label.
func (r *Registry) Reserve(label string) {
	r.reserved = FoldLabel(label)
}

// LabelTaken reports whether label collides case-insensitively with the
// reserved label or the label of any column other than except.
func (r *Registry) LabelTaken(label, except string) bool {
	folded := FoldLabel(label)
	if r.reserved != "" && folded == r.reserved {
		return true
	}
	for _, c := range r.cols {
		if c.ID != except && FoldLabel(c.DisplayLabel()) == folded {
			return true
		}
	}
	return false
}

// Rename sets the label of id to the trimmed newLabel. Empty labels and
// case-insensitive collisions with another column are rejected.
func (r *Registry) Rename(id, newLabel string) bool {
	i := r.Index(id)
	label := strings.TrimSpace(newLabel)
	if i < 0 || label == "" || r.LabelTaken(label, id) {
		return false
	}
	if r.cols[i].Label == label {
		return false
	}
	r.cols[i].Label = label
	return true
}

// SetVisible sets the visibility flag of id. It reports false when id is
// unknown or the flag already had that value.
func (r *Registry) SetVisible(id string, visible bool) bool {
	i := r.Index(id)
	if i < 0 || r.cols[i].Visible == visible {
		return false
	}
	r.cols[i].Visible = visible
	return true
}

// Toggle flips the visibility flag of id.
func (r *Registry) Toggle(id string) bool {
	i := r.Index(id)
	if i < 0 {
		return false
	}
	r.cols[i].Visible = !r.cols[i].Visible
	return true
}

// Reorder moves sourceID to targetID's former position.
func (r *Registry) Reorder(sourceID, targetID string) bool {
	from, to := r.Index(sourceID), r.Index(targetID)
	if from < 0 || to < 0 || from == to {
		return false
	}
	r.cols = reorder.Splice(r.cols, from, to)
	return true
}

// ShowAll makes every column visible.
func (r *Registry) ShowAll() bool {
	changed := false
	for i := range r.cols {
		if !r.cols[i].Visible {
			r.cols[i].Visible = true
			changed = true
		}
	}
	return changed
}
