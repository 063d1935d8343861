// Package chart turns a dataset and a mapping into the validated input of a
// chart renderer.
//
// The renderer receives a [Spec]: visible rows projected onto visible
// columns in display order, a mapping whose slots name only visible
// columns, and precomputed histogram bins and color scale. It performs no
// validation of its own.
//
// Degraded mappings are reported as [Warning]s so a UI can tell a slot that
// points at a hidden column apart from one that was never set.
package chart

import (
	"github.com/matzehuels/chartpad/pkg/core/dataset"
	"github.com/matzehuels/chartpad/pkg/core/mapping"
)

// Reason explains why a slot was dropped by Resolve.
type Reason string

const (
	// ReasonHidden means the column exists but is not visible.
	ReasonHidden Reason = "hidden"
	// ReasonMissing means no column with that id exists.
	ReasonMissing Reason = "missing"
)

// Warning flags a slot relevant to the chart type that named an
// unavailable column.
type Warning struct {
	Slot   mapping.Slot `json:"slot"`
	Column string       `json:"column"`
	Reason Reason       `json:"reason"`
}

// Record is one visible row projected onto the visible columns.
type Record struct {
	Key    dataset.Value            `json:"key"`
	Label  dataset.Value            `json:"label"`
	Fields map[string]dataset.Value `json:"fields"`
}

// Spec is the complete renderer input.
type Spec struct {
	ChartType mapping.ChartType `json:"chartType"`
	Key       dataset.KeyColumn `json:"key"`
	Columns   []dataset.Column  `json:"columns"`
	Rows      []Record          `json:"rows"`
	Mapping   mapping.Mapping   `json:"mapping"`
	Bins      int               `json:"bins,omitempty"`
	Histogram []Bin             `json:"histogram,omitempty"`
	Colors    []ColorEntry      `json:"colors,omitempty"`
	NoData    bool              `json:"noData,omitempty"`
	Warnings  []Warning         `json:"warnings,omitempty"`
}

// Option is one entry of a column picker. The None option has an empty ID.
type Option struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

// NoneLabel is the display label of the None option.
const NoneLabel = "None"

// Options lists the choices for slot: None first when the slot is
// optional, the key column for the label and X slots, then every visible
// column in registry order.
func Options(ds *dataset.Dataset, slot mapping.Slot) []Option {
	var out []Option
	if slot.Optional() {
		out = append(out, Option{ID: mapping.None, Label: NoneLabel})
	}
	if slot == mapping.SlotLabel || slot == mapping.SlotX {
		out = append(out, Option{ID: ds.Key.ID, Label: ds.Key.DisplayLabel()})
	}
	for _, c := range ds.Columns.Visible() {
		out = append(out, Option{ID: c.ID, Label: c.DisplayLabel()})
	}
	return out
}

// View returns the reconciler's view of ds.
func View(ds *dataset.Dataset) mapping.View {
	return mapping.View{Key: ds.Key.ID, Visible: ds.Columns.VisibleIDs()}
}

// Resolve returns m with every slot that does not name a visible column
// cleared, plus a warning for each cleared slot the chart type uses.
// Series are returned in registry order.
func Resolve(ds *dataset.Dataset, ct mapping.ChartType, m mapping.Mapping) (mapping.Mapping, []Warning) {
	v := View(ds)
	out := m.Clone()
	var warns []Warning

	check := func(slot mapping.Slot, id string) bool {
		if id == mapping.None || v.IsVisible(id) {
			return true
		}
		if ct.Uses(slot) {
			reason := ReasonMissing
			if ds.Columns.Has(id) {
				reason = ReasonHidden
			}
			warns = append(warns, Warning{Slot: slot, Column: id, Reason: reason})
		}
		return false
	}

	for _, slot := range []mapping.Slot{
		mapping.SlotValue, mapping.SlotHistogram, mapping.SlotY, mapping.SlotLabel,
		mapping.SlotX, mapping.SlotSize, mapping.SlotColor,
	} {
		if !check(slot, out.Get(slot)) {
			out = out.With(slot, mapping.None)
		}
	}

	var series []string
	for _, id := range m.Series {
		if id == ds.Key.ID {
			continue
		}
		check(mapping.SlotSeries, id)
	}
	for _, id := range v.Visible {
		if m.HasSeries(id) {
			series = append(series, id)
		}
	}
	out.Series = series
	if out.Label == mapping.None {
		out.Label = ds.Key.ID
	}
	if out.Bins == 0 {
		out.Bins = mapping.DefaultBins
	}
	out.Bins = mapping.ClampBins(out.Bins)
	return out, warns
}

// Build assembles the renderer input for chart type ct. palette colors
// categorical values of the color slot; nil uses DefaultPalette.
func Build(ds *dataset.Dataset, ct mapping.ChartType, m mapping.Mapping, palette []string) Spec {
	resolved, warns := Resolve(ds, ct, m)
	spec := Spec{
		ChartType: ct,
		Key:       ds.Key,
		Columns:   ds.Columns.Visible(),
		Mapping:   resolved,
		Warnings:  warns,
	}

	visible := ds.Columns.VisibleIDs()
	for _, r := range ds.Rows.VisibleRows() {
		rec := Record{
			Key:    r.Key,
			Label:  ds.Rows.Label(r, resolved.Label),
			Fields: make(map[string]dataset.Value, len(visible)),
		}
		for _, id := range visible {
			if v, ok := r.Fields[id]; ok {
				rec.Fields[id] = v
			}
		}
		spec.Rows = append(spec.Rows, rec)
	}

	switch ct {
	case mapping.Histogram:
		spec.Bins = resolved.Bins
		if resolved.Histogram != mapping.None {
			spec.Histogram = Bins(ds.NumericValues(resolved.Histogram), resolved.Bins)
		}
		spec.NoData = len(spec.Histogram) == 0
	case mapping.Scatter:
		spec.NoData = resolved.X == mapping.None || resolved.Y == mapping.None ||
			len(ds.NumericValues(resolved.X)) == 0 || len(ds.NumericValues(resolved.Y)) == 0
	}
	if ct.Uses(mapping.SlotColor) && resolved.Color != mapping.None {
		vals := make([]dataset.Value, 0, len(spec.Rows))
		for _, r := range ds.Rows.VisibleRows() {
			vals = append(vals, ds.Rows.Label(r, resolved.Color))
		}
		spec.Colors = ColorScale(vals, palette)
	}
	return spec
}
