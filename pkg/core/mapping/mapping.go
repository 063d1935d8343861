// Package mapping holds per-chart-type field bindings and the reconciler
// that keeps them pointing at visible columns.
//
// A [Mapping] is a plain value. Every mutation of a dataset is followed by
// a call to [Reconcile] for each chart type's mapping; the repaired mapping
// is returned together with a [Report] of what was reset.
package mapping

import (
	"slices"
)

// None is the empty slot sentinel.
const None = ""

// Bin count bounds for histograms.
const (
	MinBins     = 1
	MaxBins     = 50
	DefaultBins = 10
)

// MaxDefaultSeries is the number of columns used to refill an empty
// series selection.
const MaxDefaultSeries = 3

// =============================================================================
// Chart types
// =============================================================================

// ChartType names a chart kind.
type ChartType string

const (
	Line       ChartType = "line"
	Bar        ChartType = "bar"
	StackedBar ChartType = "stackedBar"
	Area       ChartType = "area"
	Radar      ChartType = "radar"
	Pie        ChartType = "pie"
	Donut      ChartType = "donut"
	Histogram  ChartType = "histogram"
	Scatter    ChartType = "scatter"
)

// ChartTypes lists every chart type in menu order.
var ChartTypes = []ChartType{Line, Bar, StackedBar, Area, Radar, Pie, Donut, Histogram, Scatter}

// ParseChartType returns the chart type named s.
func ParseChartType(s string) (ChartType, bool) {
	for _, c := range ChartTypes {
		if string(c) == s {
			return c, true
		}
	}
	return "", false
}

// Next returns the chart type after c in menu order, wrapping around.
func (c ChartType) Next() ChartType {
	i := slices.Index(ChartTypes, c)
	return ChartTypes[(i+1)%len(ChartTypes)]
}

// Slot names one binding of a Mapping.
type Slot string

const (
	SlotLabel     Slot = "label"
	SlotX         Slot = "x"
	SlotY         Slot = "y"
	SlotSize      Slot = "size"
	SlotColor     Slot = "color"
	SlotValue     Slot = "value"
	SlotHistogram Slot = "histogram"
	SlotSeries    Slot = "series"
)

// ParseSlot returns the slot named s.
func ParseSlot(s string) (Slot, bool) {
	switch sl := Slot(s); sl {
	case SlotLabel, SlotX, SlotY, SlotSize, SlotColor, SlotValue, SlotHistogram, SlotSeries:
		return sl, true
	}
	return "", false
}

// Optional reports whether the slot may be left as None by the user and
// therefore offers a None option in pickers.
func (s Slot) Optional() bool {
	return s == SlotSize || s == SlotColor
}

// Slots returns the slots relevant to c. Other slots are ignored by the
// renderer but keep their values.
func (c ChartType) Slots() []Slot {
	switch c {
	case Line, StackedBar, Area, Radar:
		return []Slot{SlotLabel, SlotSeries}
	case Bar:
		return []Slot{SlotLabel, SlotSeries, SlotColor}
	case Pie, Donut:
		return []Slot{SlotLabel, SlotValue}
	case Histogram:
		return []Slot{SlotHistogram}
	case Scatter:
		return []Slot{SlotX, SlotY, SlotSize, SlotColor, SlotLabel}
	}
	return nil
}

// Uses reports whether slot s is relevant to c.
func (c ChartType) Uses(s Slot) bool {
	return slices.Contains(c.Slots(), s)
}

// =============================================================================
// Mapping
// =============================================================================

// Mapping is the set of field bindings of one chart type. Every string
// slot holds a column id or None.
type Mapping struct {
	Label     string   `json:"label"`
	X         string   `json:"x"`
	Y         string   `json:"y"`
	Size      string   `json:"size"`
	Color     string   `json:"color"`
	Value     string   `json:"value"`
	Histogram string   `json:"histogram"`
	Series    []string `json:"series"`
	Bins      int      `json:"bins"`
}

// View is what the reconciler needs to know about a dataset: the key
// column id and the visible column ids in registry order. The key column
// is always considered visible.
type View struct {
	Key     string
	Visible []string
}

// IsVisible reports whether id is the key column or a visible column.
func (v View) IsVisible(id string) bool {
	return id != None && (id == v.Key || slices.Contains(v.Visible, id))
}

// First returns the first visible column id, or None.
func (v View) First() string {
	if len(v.Visible) == 0 {
		return None
	}
	return v.Visible[0]
}

// DefaultSeries returns up to MaxDefaultSeries visible ids in registry order.
func (v View) DefaultSeries() []string {
	n := min(len(v.Visible), MaxDefaultSeries)
	return slices.Clone(v.Visible[:n])
}

// Default returns the initial mapping for a freshly loaded dataset.
func Default(v View) Mapping {
	first := v.First()
	return Mapping{
		Label:     v.Key,
		X:         v.Key,
		Y:         first,
		Value:     first,
		Histogram: first,
		Series:    v.DefaultSeries(),
		Bins:      DefaultBins,
	}
}

// Get returns the column id bound to slot. Series is not a single-valued
// slot and yields None.
func (m Mapping) Get(s Slot) string {
	switch s {
	case SlotLabel:
		return m.Label
	case SlotX:
		return m.X
	case SlotY:
		return m.Y
	case SlotSize:
		return m.Size
	case SlotColor:
		return m.Color
	case SlotValue:
		return m.Value
	case SlotHistogram:
		return m.Histogram
	}
	return None
}

// With returns a copy of m with slot bound to id. Series is replaced by
// the single id.
func (m Mapping) With(s Slot, id string) Mapping {
	m.Series = slices.Clone(m.Series)
	switch s {
	case SlotLabel:
		m.Label = id
	case SlotX:
		m.X = id
	case SlotY:
		m.Y = id
	case SlotSize:
		m.Size = id
	case SlotColor:
		m.Color = id
	case SlotValue:
		m.Value = id
	case SlotHistogram:
		m.Histogram = id
	case SlotSeries:
		m.Series = nil
		if id != None {
			m.Series = []string{id}
		}
	}
	return m
}

// HasSeries reports whether id is selected as a series.
func (m Mapping) HasSeries(id string) bool {
	return slices.Contains(m.Series, id)
}

// ToggleSeries returns a copy of m with id added to or removed from the
// series selection.
func (m Mapping) ToggleSeries(id string) Mapping {
	if i := slices.Index(m.Series, id); i >= 0 {
		m.Series = slices.Delete(slices.Clone(m.Series), i, i+1)
		return m
	}
	m.Series = append(slices.Clone(m.Series), id)
	return m
}

// Clone returns a deep copy of m.
func (m Mapping) Clone() Mapping {
	m.Series = slices.Clone(m.Series)
	return m
}

// Equal reports whether m and o bind the same columns.
func (m Mapping) Equal(o Mapping) bool {
	return m.Label == o.Label && m.X == o.X && m.Y == o.Y &&
		m.Size == o.Size && m.Color == o.Color && m.Value == o.Value &&
		m.Histogram == o.Histogram && m.Bins == o.Bins &&
		slices.Equal(m.Series, o.Series)
}

// ClampBins bounds n to [MinBins, MaxBins].
func ClampBins(n int) int {
	return max(MinBins, min(MaxBins, n))
}
