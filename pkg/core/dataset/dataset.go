// Package dataset holds the tabular state edited by chartpad: the ordered
// Column Registry and the ordered Row Store.
//
// # Model
//
// A dataset has one key column (the row keys, e.g. years) plus any number
// of data columns. Data columns live in a [Registry]; rows live in a
// [Store] and map data column ids to [Value]s. The key column is not a
// registry column: it cannot be hidden, renamed through the registry or
// reordered, but mapping slots may reference its id.
//
// # Invariants
//
//   - Column ids are immutable and unique; labels are unique
//     case-insensitively.
//   - Row keys are unique by their string rendering.
//   - Nothing is ever deleted; columns and rows are hidden instead.
//
// Every mutating method returns whether state changed. Invalid input is
// rejected silently and leaves the previous state in place.
package dataset

import "slices"

// KeyColumn names the row-key column of a dataset.
type KeyColumn struct {
	ID    string `json:"id"`
	Label string `json:"label,omitempty"`
}

// DisplayLabel returns the label if set, otherwise the ID.
func (k KeyColumn) DisplayLabel() string {
	if k.Label != "" {
		return k.Label
	}
	return k.ID
}

// DefaultKeyColumn is used when a dataset does not name its key column.
var DefaultKeyColumn = KeyColumn{ID: "key", Label: "Key"}

// Data is the serialized form of a dataset, used for file import/export,
// session snapshots and API payloads.
type Data struct {
	Key     KeyColumn `json:"key"`
	Columns []Column  `json:"columns"`
	Rows    []Row     `json:"rows"`
}

// Clone returns a deep copy of d.
func (d Data) Clone() Data {
	out := Data{
		Key:     d.Key,
		Columns: slices.Clone(d.Columns),
		Rows:    make([]Row, len(d.Rows)),
	}
	for i := range d.Rows {
		out.Rows[i] = *d.Rows[i].clone()
	}
	return out
}

// Dataset couples a key column with its Registry and Store.
type Dataset struct {
	Key     KeyColumn
	Columns *Registry
	Rows    *Store
}

// New builds a Dataset from its serialized form. Missing key column
// information falls back to DefaultKeyColumn; columns without a color get
// one from palette by position.
func New(d Data, palette []string) *Dataset {
	key := d.Key
	if key.ID == "" {
		key = DefaultKeyColumn
	}
	cols := make([]Column, 0, len(d.Columns))
	for i, c := range d.Columns {
		if c.ID == key.ID {
			continue
		}
		if c.Label == "" {
			c.Label = c.ID
		}
		if c.Color == "" && len(palette) > 0 {
			c.Color = palette[i%len(palette)]
		}
		cols = append(cols, c)
	}
	reg := NewRegistry(cols)
	reg.Reserve(key.DisplayLabel())
	return &Dataset{
		Key:     key,
		Columns: reg,
		Rows:    NewStore(key.ID, d.Rows),
	}
}

// Data returns the serialized form of ds.
func (ds *Dataset) Data() Data {
	rows := ds.Rows.Rows()
	out := Data{
		Key:     ds.Key,
		Columns: ds.Columns.Columns(),
		Rows:    make([]Row, len(rows)),
	}
	for i, r := range rows {
		out.Rows[i] = *r.clone()
	}
	return out
}

// NumericValues returns the numeric values of column id across the
// visible rows, in row order. Text cells are skipped. The key column is
// accepted as id.
func (ds *Dataset) NumericValues(id string) []float64 {
	var out []float64
	for _, r := range ds.Rows.VisibleRows() {
		if f, ok := ds.Rows.Label(r, id).Float(); ok {
			out = append(out, f)
		}
	}
	return out
}

// HasColumn reports whether id names the key column or a registry column.
func (ds *Dataset) HasColumn(id string) bool {
	return id == ds.Key.ID || ds.Columns.Has(id)
}

// ColumnLabel returns the display label of id, which may be the key column.
func (ds *Dataset) ColumnLabel(id string) string {
	if id == ds.Key.ID {
		return ds.Key.DisplayLabel()
	}
	if c, ok := ds.Columns.Column(id); ok {
		return c.DisplayLabel()
	}
	return id
}
