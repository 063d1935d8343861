package io

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/matzehuels/chartpad/pkg/core/dataset"
	"github.com/matzehuels/chartpad/pkg/errors"
)

// TableOptions control how a header+records grid becomes a dataset.
type TableOptions struct {
	// KeyColumn overrides the id of the key column. By default it is
	// derived from the first header cell.
	KeyColumn string
	// Palette assigns colors to data columns by position.
	Palette []string
}

// FromTable converts a grid whose first record is the header into a
// dataset. Blank records are skipped; short records are padded with empty
// cells. Keys are parsed with dataset.ParseLabel, cells with
// dataset.ParseCell, both after trimming.
func FromTable(records [][]string, opts TableOptions) (dataset.Data, error) {
	if len(records) == 0 || len(records[0]) == 0 {
		return dataset.Data{}, errors.New(errors.ErrCodeInvalidDataset, "table has no header row")
	}
	var rows [][]dataset.Value
	for _, rec := range records[1:] {
		if blank(rec) {
			continue
		}
		vals := make([]dataset.Value, len(rec))
		for i, cell := range rec {
			cell = strings.TrimSpace(cell)
			if i == 0 {
				vals[i] = dataset.ParseLabel(cell)
			} else {
				vals[i] = dataset.ParseCell(cell)
			}
		}
		rows = append(rows, vals)
	}
	return FromRecords(records[0], rows, opts)
}

// FromRecords builds a dataset from a header and typed records. The first
// header cell names the key column and the first value of each record is
// its key; missing trailing values become empty text.
func FromRecords(header []string, records [][]dataset.Value, opts TableOptions) (dataset.Data, error) {
	if len(header) == 0 {
		return dataset.Data{}, errors.New(errors.ErrCodeInvalidDataset, "table has no header row")
	}
	ids := newIDSet()
	keyLabel := strings.TrimSpace(header[0])
	keyID := opts.KeyColumn
	if keyID == "" {
		keyID = ids.derive(keyLabel, 0)
	} else {
		ids.claim(keyID)
	}
	d := dataset.Data{Key: dataset.KeyColumn{ID: keyID, Label: keyLabel}}

	for i, h := range header[1:] {
		label := strings.TrimSpace(h)
		id := ids.derive(label, i+1)
		if label == "" {
			label = id
		}
		c := dataset.Column{ID: id, Label: label, Visible: true}
		if len(opts.Palette) > 0 {
			c.Color = opts.Palette[i%len(opts.Palette)]
		}
		d.Columns = append(d.Columns, c)
	}

	for n, rec := range records {
		var key dataset.Value
		if len(rec) > 0 {
			key = rec[0]
		}
		if strings.TrimSpace(key.String()) == "" {
			return d, errors.New(errors.ErrCodeInvalidDataset, "record %d: empty row key", n+1)
		}
		row := dataset.Row{Key: key, Fields: make(map[string]dataset.Value, len(d.Columns))}
		for i, c := range d.Columns {
			var v dataset.Value
			if i+1 < len(rec) {
				v = rec[i+1]
			}
			row.Fields[c.ID] = v
		}
		d.Rows = append(d.Rows, row)
	}
	return d, Validate(d)
}

// ToTable renders d as a header+records grid: key column first, then
// every column in registry order. Hidden state is not representable and
// is dropped.
func ToTable(d dataset.Data) [][]string {
	header := []string{d.Key.DisplayLabel()}
	for _, c := range d.Columns {
		header = append(header, c.DisplayLabel())
	}
	out := [][]string{header}
	for _, r := range d.Rows {
		rec := []string{r.Key.String()}
		for _, c := range d.Columns {
			rec = append(rec, r.Fields[c.ID].String())
		}
		out = append(out, rec)
	}
	return out
}

func blank(rec []string) bool {
	for _, s := range rec {
		if strings.TrimSpace(s) != "" {
			return false
		}
	}
	return true
}

// idSet derives unique column ids from header labels.
type idSet map[string]bool

func newIDSet() idSet { return idSet{} }

func (s idSet) claim(id string) { s[id] = true }

// derive slugs label to [a-z0-9_], falling back to col_<pos>, and appends
// _2, _3... until the id is unused.
func (s idSet) derive(label string, pos int) string {
	var b strings.Builder
	underscore := false
	for _, r := range strings.ToLower(label) {
		switch {
		case r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)):
			b.WriteRune(r)
			underscore = false
		case b.Len() > 0 && !underscore:
			b.WriteByte('_')
			underscore = true
		}
	}
	base := strings.TrimSuffix(b.String(), "_")
	if base == "" {
		base = fmt.Sprintf("col_%d", pos)
	}
	if len(base) > 48 {
		base = base[:48]
	}
	id := base
	for n := 2; s[id]; n++ {
		id = fmt.Sprintf("%s_%d", base, n)
	}
	s[id] = true
	return id
}
