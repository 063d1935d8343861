package chart

import (
	"math"
	"slices"
	"strconv"

	"github.com/matzehuels/chartpad/pkg/core/dataset"
	"github.com/matzehuels/chartpad/pkg/core/mapping"
)

// Bin is one histogram bucket covering [Start, End).
// The last bin also holds the maximum value.
type Bin struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Label string  `json:"label"`
	Count int     `json:"count"`
}

// Bins partitions values into binCount equal-width buckets spanning
// [min(values), max(values)]. binCount is clamped to the mapping bounds.
// The bin width falls back to 1 when the range is empty, so a single
// distinct value lands in the first bin. Empty input yields nil; callers
// signal NoData instead of rendering.
func Bins(values []float64, binCount int) []Bin {
	if len(values) == 0 {
		return nil
	}
	n := mapping.ClampBins(binCount)
	lo, hi := slices.Min(values), slices.Max(values)
	size := (hi - lo) / float64(n)
	if size == 0 || math.IsNaN(size) || math.IsInf(size, 0) {
		size = 1
	}

	bins := make([]Bin, n)
	for i := range bins {
		start := lo + float64(i)*size
		end := start + size
		bins[i] = Bin{
			Start: round2(start),
			End:   round2(end),
			Label: formatBound(start) + "–" + formatBound(end),
		}
	}
	for _, v := range values {
		i := int(math.Floor((v - lo) / size))
		bins[max(0, min(i, n-1))].Count++
	}
	return bins
}

func round2(f float64) float64 {
	return math.Round(f*100) / 100
}

func formatBound(f float64) string {
	return strconv.FormatFloat(round2(f), 'f', -1, 64)
}

// =============================================================================
// Color scale
// =============================================================================

// DefaultPalette is used when no palette is configured.
var DefaultPalette = []string{
	"#4e79a7", "#f28e2b", "#e15759", "#76b7b2", "#59a14f",
	"#edc948", "#b07aa1", "#ff9da7", "#9c755f", "#bab0ac",
}

// ColorEntry maps one categorical value to its color.
type ColorEntry struct {
	Value string `json:"value"`
	Color string `json:"color"`
}

// ColorScale assigns palette colors to the distinct values in first-seen
// order: the Nth distinct value gets palette[N mod len(palette)]. Values
// are compared by their string rendering. An empty palette falls back to
// DefaultPalette.
func ColorScale(values []dataset.Value, palette []string) []ColorEntry {
	if len(palette) == 0 {
		palette = DefaultPalette
	}
	var out []ColorEntry
	seen := make(map[string]bool)
	for _, v := range values {
		s := v.String()
		if seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, ColorEntry{Value: s, Color: palette[len(out)%len(palette)]})
	}
	return out
}
