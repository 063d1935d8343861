package mapping

import "slices"

// Repair records one slot reset by Reconcile. For SlotSeries, From is a
// dropped id or To an id added by the refill.
type Repair struct {
	Slot Slot   `json:"slot"`
	From string `json:"from"`
	To   string `json:"to"`
}

// Report lists the repairs made by one Reconcile pass, in check order.
type Report struct {
	Repairs []Repair `json:"repairs,omitempty"`
}

// Changed reports whether any slot was repaired.
func (r Report) Changed() bool { return len(r.Repairs) > 0 }

// Repaired reports whether slot s was repaired.
func (r Report) Repaired(s Slot) bool {
	return slices.ContainsFunc(r.Repairs, func(p Repair) bool { return p.Slot == s })
}

// Reconcile returns m with every slot that names a column not visible in v
// reset to a default, and a report of the repairs.
//
// Slots are checked in the order Value, Histogram, Y, Label, X, Size,
// Color, Series. Value, Histogram and Y fall back to the first visible
// column or None. Label and X fall back to the key column. Size and Color
// fall back to None. The series selection keeps its visible entries; if
// none remain it is refilled with up to MaxDefaultSeries visible columns
// in registry order. Bins is clamped, with zero meaning DefaultBins.
//
// Reconcile is pure: m is not modified.
func Reconcile(m Mapping, v View) (Mapping, Report) {
	out := m.Clone()
	var rep Report

	fix := func(slot Slot, cur *string, fallback string) {
		if *cur == None || v.IsVisible(*cur) {
			return
		}
		rep.Repairs = append(rep.Repairs, Repair{Slot: slot, From: *cur, To: fallback})
		*cur = fallback
	}

	first := v.First()
	fix(SlotValue, &out.Value, first)
	fix(SlotHistogram, &out.Histogram, first)
	fix(SlotY, &out.Y, first)
	fix(SlotLabel, &out.Label, v.Key)
	fix(SlotX, &out.X, v.Key)
	fix(SlotSize, &out.Size, None)
	fix(SlotColor, &out.Color, None)

	kept := make([]string, 0, len(out.Series))
	for _, id := range out.Series {
		switch {
		case !v.IsVisible(id) || id == v.Key:
			rep.Repairs = append(rep.Repairs, Repair{Slot: SlotSeries, From: id})
		case !slices.Contains(kept, id):
			kept = append(kept, id)
		}
	}
	if len(kept) == 0 {
		kept = v.DefaultSeries()
		for _, id := range kept {
			rep.Repairs = append(rep.Repairs, Repair{Slot: SlotSeries, To: id})
		}
	}
	out.Series = kept

	if out.Bins == 0 {
		out.Bins = DefaultBins
	} else {
		out.Bins = ClampBins(out.Bins)
	}
	return out, rep
}

// ReconcileAll reconciles every mapping in ms against v, in place, and
// returns the reports of the mappings that changed.
func ReconcileAll(ms map[ChartType]Mapping, v View) map[ChartType]Report {
	reports := make(map[ChartType]Report)
	for ct, m := range ms {
		fixed, rep := Reconcile(m, v)
		ms[ct] = fixed
		if rep.Changed() {
			reports[ct] = rep
		}
	}
	return reports
}
