package dataset

import (
	"maps"
	"strings"

	"github.com/matzehuels/chartpad/pkg/core/reorder"
)

// Row is one record of the dataset. Key is unique within a Store by its
// string rendering; Fields maps column ids to cell values.
type Row struct {
	Key    Value            `json:"key"`
	Fields map[string]Value `json:"fields"`
	Hidden bool             `json:"hidden,omitempty"`
}

// Get returns the value of column id, or the empty text if unset.
func (r *Row) Get(id string) Value {
	return r.Fields[id]
}

// clone returns a shallow copy of r with its own Fields map.
func (r *Row) clone() *Row {
	c := *r
	c.Fields = maps.Clone(r.Fields)
	if c.Fields == nil {
		c.Fields = make(map[string]Value)
	}
	return &c
}

// Store is the ordered sequence of rows of a dataset.
//
// Rows are replaced copy-on-write: a mutation swaps in a new *Row for the
// affected record only, so pointers obtained earlier keep their old
// contents and unrelated rows keep their identity. A Store is not safe for
// concurrent use.
type Store struct {
	keyColumn string
	rows      []*Row
}

// NewStore creates a store holding rows in order. keyColumn is the id
// under which row keys are addressed by mapping slots. Rows whose key
// duplicates an earlier row are dropped.
func NewStore(keyColumn string, rows []Row) *Store {
	s := &Store{keyColumn: keyColumn, rows: make([]*Row, 0, len(rows))}
	seen := make(map[string]bool, len(rows))
	for i := range rows {
		k := rows[i].Key.String()
		if seen[k] {
			continue
		}
		seen[k] = true
		s.rows = append(s.rows, rows[i].clone())
	}
	return s
}

// KeyColumn returns the id that addresses row keys.
func (s *Store) KeyColumn() string { return s.keyColumn }

// Len returns the number of rows, hidden ones included.
func (s *Store) Len() int { return len(s.rows) }

// Rows returns the rows in order. The returned pointers must be treated
// as read-only.
func (s *Store) Rows() []*Row {
	out := make([]*Row, len(s.rows))
	copy(out, s.rows)
	return out
}

// VisibleRows returns the rows that are not hidden, in order.
func (s *Store) VisibleRows() []*Row {
	var out []*Row
	for _, r := range s.rows {
		if !r.Hidden {
			out = append(out, r)
		}
	}
	return out
}

// Keys returns the string-rendered keys in order.
func (s *Store) Keys() []string {
	keys := make([]string, len(s.rows))
	for i, r := range s.rows {
		keys[i] = r.Key.String()
	}
	return keys
}

// Index returns the position of the row whose rendered key is key, or -1.
func (s *Store) Index(key string) int {
	for i, r := range s.rows {
		if r.Key.String() == key {
			return i
		}
	}
	return -1
}

// Row returns the row with the given rendered key.
func (s *Store) Row(key string) (*Row, bool) {
	if i := s.Index(key); i >= 0 {
		return s.rows[i], true
	}
	return nil, false
}

// At returns the row at index i.
func (s *Store) At(i int) (*Row, bool) {
	if i < 0 || i >= len(s.rows) {
		return nil, false
	}
	return s.rows[i], true
}

// Label returns the display label of r for the given label column: the
// key itself when labelColumn is the key column or empty, otherwise the
// field value.
func (s *Store) Label(r *Row, labelColumn string) Value {
	if labelColumn == "" || labelColumn == s.keyColumn {
		return r.Key
	}
	return r.Get(labelColumn)
}

// EditCell stores raw into the given cell, coerced with ParseCell. Row
// keys are not cells; they change through RenameKey only.
func (s *Store) EditCell(key, columnID, raw string) bool {
	i := s.Index(key)
	if i < 0 || columnID == "" || columnID == s.keyColumn {
		return false
	}
	v := ParseCell(raw)
	if old, ok := s.rows[i].Fields[columnID]; ok && old.Equal(v) {
		return false
	}
	r := s.rows[i].clone()
	r.Fields[columnID] = v
	s.rows[i] = r
	return true
}

// SetHidden sets the hidden flag of a row.
func (s *Store) SetHidden(key string, hidden bool) bool {
	i := s.Index(key)
	if i < 0 || s.rows[i].Hidden == hidden {
		return false
	}
	r := s.rows[i].clone()
	r.Hidden = hidden
	s.rows[i] = r
	return true
}

// ToggleHidden flips the hidden flag of a row.
func (s *Store) ToggleHidden(key string) bool {
	r, ok := s.Row(key)
	if !ok {
		return false
	}
	return s.SetHidden(key, !r.Hidden)
}

// RenameKey commits a new label for the row at index. When labelColumn is
// the key column the row key itself is rewritten and duplicates of another
// row's rendered key are rejected; otherwise the labelColumn field is
// written and duplicates are tolerated. Empty text is always rejected.
func (s *Store) RenameKey(index int, text, labelColumn string) bool {
	if index < 0 || index >= len(s.rows) {
		return false
	}
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return false
	}
	v := ParseLabel(trimmed)
	r := s.rows[index].clone()

	if labelColumn == "" || labelColumn == s.keyColumn {
		if r.Key.Equal(v) {
			return false
		}
		for i, other := range s.rows {
			if i != index && other.Key.String() == v.String() {
				return false
			}
		}
		r.Key = v
	} else {
		if old, ok := r.Fields[labelColumn]; ok && old.Equal(v) {
			return false
		}
		r.Fields[labelColumn] = v
	}
	s.rows[index] = r
	return true
}

// Reorder moves the row sourceKey immediately above or below targetKey.
func (s *Store) Reorder(sourceKey, targetKey string, pos reorder.Position) bool {
	from, to := s.Index(sourceKey), s.Index(targetKey)
	if from < 0 || to < 0 || from == to {
		return false
	}
	at, ok := reorder.Insertion(from, to, pos)
	if !ok {
		return false
	}
	s.rows = reorder.Splice(s.rows, from, at)
	return true
}

// ShowAll clears every hidden flag.
func (s *Store) ShowAll() bool {
	changed := false
	for i, r := range s.rows {
		if r.Hidden {
			c := r.clone()
			c.Hidden = false
			s.rows[i] = c
			changed = true
		}
	}
	return changed
}
