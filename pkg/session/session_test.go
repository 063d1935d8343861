package session

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/chartpad/pkg/core/dataset"
	"github.com/matzehuels/chartpad/pkg/core/gesture"
	"github.com/matzehuels/chartpad/pkg/core/mapping"
	"github.com/matzehuels/chartpad/pkg/core/reorder"
	"github.com/matzehuels/chartpad/pkg/errors"
	"github.com/matzehuels/chartpad/pkg/observability"
)

func pnl() dataset.Data {
	row := func(year, rev, cogs, rnd float64) dataset.Row {
		return dataset.Row{Key: dataset.Number(year), Fields: map[string]dataset.Value{
			"revenue": dataset.Number(rev), "cogs": dataset.Number(cogs), "rnd": dataset.Number(rnd),
		}}
	}
	return dataset.Data{
		Key: dataset.KeyColumn{ID: "year", Label: "Year"},
		Columns: []dataset.Column{
			{ID: "revenue", Label: "Revenue", Visible: true},
			{ID: "cogs", Label: "COGS", Visible: true},
			{ID: "rnd", Label: "R&D", Visible: true},
		},
		Rows: []dataset.Row{row(2019, 100, 40, 10), row(2020, 120, 50, 12), row(2021, 150, 55, 20)},
	}
}

func newSession(t *testing.T, ct mapping.ChartType) *Session {
	t.Helper()
	s, err := New(pnl(), Options{ChartType: ct})
	require.NoError(t, err)
	return s
}

func col(id string) gesture.Target { return gesture.Target{Kind: gesture.Column, ID: id} }
func row(key string) gesture.Target { return gesture.Target{Kind: gesture.Row, ID: key} }

func TestNew(t *testing.T) {
	s := newSession(t, "")
	assert.Equal(t, mapping.Line, s.ChartType())
	assert.Len(t, s.ID(), 36)
	assert.NoError(t, errors.ValidateSessionID(s.ID()))
	for _, ct := range mapping.ChartTypes {
		m := s.MappingFor(ct)
		assert.Equal(t, []string{"revenue", "cogs", "rnd"}, m.Series, ct)
		assert.Equal(t, "year", m.Label, ct)
		assert.Equal(t, mapping.DefaultBins, m.Bins, ct)
	}
	assert.NotEmpty(t, s.Dataset().Columns.Columns()[0].Color)

	_, err := New(pnl(), Options{ChartType: "gantt"})
	assert.True(t, errors.Is(err, errors.ErrCodeInvalidChartType))

	bad := pnl()
	bad.Rows[1].Key = dataset.Number(2019)
	_, err = New(bad, Options{})
	assert.True(t, errors.Is(err, errors.ErrCodeInvalidDataset))
}

// Hiding COGS while scatter Y is mapped to it moves Y to Revenue.
func TestHidingMappedColumnRepairsMapping(t *testing.T) {
	s := newSession(t, mapping.Scatter)
	require.True(t, s.SetSlot(mapping.SlotY, "cogs"))
	require.True(t, s.ToggleColumn("cogs"))

	assert.Equal(t, "revenue", s.Mapping().Y)
	assert.Equal(t, []string{"revenue", "rnd"}, s.MappingFor(mapping.Line).Series)

	spec := s.Spec()
	assert.Empty(t, spec.Warnings)
	assert.Equal(t, "revenue", spec.Mapping.Y)
	for _, c := range spec.Columns {
		assert.NotEqual(t, "cogs", c.ID)
	}
}

func TestSeriesNeverEmpty(t *testing.T) {
	s := newSession(t, mapping.Bar)
	require.True(t, s.ToggleSeries("cogs"))
	require.True(t, s.ToggleSeries("rnd"))
	assert.False(t, s.ToggleSeries("revenue"), "last series removed")

	require.True(t, s.ToggleColumn("revenue"))
	assert.Equal(t, []string{"cogs", "rnd"}, s.Mapping().Series)

	assert.False(t, s.ToggleSeries("revenue"), "hidden column selected")
	assert.False(t, s.ToggleSeries("year"), "key column selected")
}

func TestSetSlot(t *testing.T) {
	s := newSession(t, mapping.Scatter)
	s.ToggleColumn("rnd")

	assert.False(t, s.SetSlot(mapping.SlotY, "rnd"), "hidden column")
	assert.False(t, s.SetSlot(mapping.SlotY, "year"), "key is not a Y option")
	assert.False(t, s.SetSlot(mapping.SlotY, mapping.None), "Y is not optional")
	assert.False(t, s.SetSlot(mapping.SlotSeries, "cogs"))
	assert.True(t, s.SetSlot(mapping.SlotX, "cogs"))
	assert.True(t, s.SetSlot(mapping.SlotColor, "cogs"))
	assert.True(t, s.SetSlot(mapping.SlotColor, mapping.None))
	assert.False(t, s.SetSlot(mapping.SlotColor, mapping.None), "unchanged")

	assert.True(t, s.SetLabelColumn("revenue"))
	assert.Equal(t, "revenue", s.LabelColumn())
	label, ok := s.RowLabel("2020")
	assert.True(t, ok)
	assert.Equal(t, "120", label)
}

func TestSetBinsAndChartType(t *testing.T) {
	s := newSession(t, mapping.Histogram)
	assert.True(t, s.SetBins(500))
	assert.Equal(t, mapping.MaxBins, s.Mapping().Bins)
	assert.False(t, s.SetBins(80), "clamps to the same value")
	assert.Equal(t, mapping.DefaultBins, s.MappingFor(mapping.Line).Bins, "bins are per chart type")

	assert.False(t, s.SetChartType(mapping.Histogram))
	assert.False(t, s.SetChartType("gantt"))
	assert.True(t, s.SetChartType(mapping.Pie))
	assert.Equal(t, mapping.Pie, s.Spec().ChartType)
}

func TestRenameRowRejectsDuplicateKey(t *testing.T) {
	s := newSession(t, mapping.Line)
	assert.False(t, s.RenameRow("2020", "2019"))
	assert.Equal(t, []string{"2019", "2020", "2021"}, s.Dataset().Rows.Keys())

	assert.True(t, s.RenameRow("2020", " FY20 "))
	assert.Equal(t, []string{"2019", "FY20", "2021"}, s.Dataset().Rows.Keys())

	// Under a non-key label column duplicates are fine and keys stay put.
	require.True(t, s.SetLabelColumn("cogs"))
	assert.True(t, s.RenameRow("2021", "40"))
	label, _ := s.RowLabel("2021")
	assert.Equal(t, "40", label)
	assert.Equal(t, []string{"2019", "FY20", "2021"}, s.Dataset().Rows.Keys())
}

func TestSweep(t *testing.T) {
	s := newSession(t, mapping.Line)

	assert.True(t, s.PointerDown(col("revenue"), gesture.Header))
	assert.Equal(t, gesture.Sweeping, s.Mode())
	assert.True(t, s.PointerEnter(col("cogs")))
	assert.False(t, s.PointerEnter(col("revenue")), "re-entering toggled back")
	assert.False(t, s.PointerEnter(row("2019")), "sweep crossed kinds")
	s.PointerUp()
	assert.False(t, s.PointerEnter(col("rnd")), "toggled after release")

	assert.Equal(t, []string{"rnd"}, s.Dataset().Columns.VisibleIDs())
	assert.Equal(t, []string{"rnd"}, s.Mapping().Series)

	assert.False(t, s.PointerDown(col("rnd"), gesture.DragHandle))
	assert.False(t, s.PointerDown(col("nope"), gesture.Header))
	assert.Equal(t, gesture.Idle, s.Mode())

	assert.True(t, s.PointerDown(row("2020"), gesture.Header))
	s.PointerUp()
	assert.Len(t, s.Spec().Rows, 2)
}

func TestDragReordersColumns(t *testing.T) {
	s := newSession(t, mapping.Line)
	require.True(t, s.DragStart(col("cogs")))
	assert.True(t, s.Drop(col("revenue"), reorder.Above))
	assert.Equal(t, []string{"cogs", "revenue", "rnd"}, s.Dataset().Columns.IDs())
	assert.Equal(t, gesture.Idle, s.Mode())
}

func TestDragReordersRows(t *testing.T) {
	s := newSession(t, mapping.Line)
	require.True(t, s.DragStart(row("2021")))
	assert.True(t, s.Drop(row("2019"), reorder.Above))
	assert.Equal(t, []string{"2021", "2019", "2020"}, s.Dataset().Rows.Keys())
}

func TestDragWithoutDropChangesNothing(t *testing.T) {
	s := newSession(t, mapping.Line)
	before := s.Snapshot()

	require.True(t, s.DragStart(col("cogs")))
	s.PointerUp()
	assert.Equal(t, gesture.Idle, s.Mode())

	require.True(t, s.DragStart(col("cogs")))
	assert.False(t, s.Drop(row("2019"), reorder.Above), "dropped on the other kind")

	require.True(t, s.DragStart(col("cogs")))
	assert.True(t, s.DragCancel())

	after := s.Snapshot()
	assert.Equal(t, before.Data, after.Data)
	assert.Equal(t, before.Mappings, after.Mappings)
}

func TestRenameAndDragAreExclusive(t *testing.T) {
	s := newSession(t, mapping.Line)

	require.True(t, s.BeginRename(col("cogs")))
	_, buf, _ := s.RenameBuffer()
	assert.Equal(t, "COGS", buf)
	assert.False(t, s.DragStart(col("cogs")), "drag started mid-rename")
	assert.False(t, s.PointerDown(col("cogs"), gesture.Header), "sweep started on renaming header")
	require.True(t, s.CancelRename())

	require.True(t, s.DragStart(col("revenue")))
	assert.False(t, s.BeginRename(col("cogs")), "rename started mid-drag")
	s.PointerUp()
}

func TestCommitRename(t *testing.T) {
	s := newSession(t, mapping.Line)

	require.True(t, s.BeginRename(col("cogs")))
	require.True(t, s.EditRename("revenue"))
	assert.False(t, s.CommitRename(), "case-insensitive duplicate accepted")
	assert.Equal(t, gesture.Idle, s.Mode())
	assert.Equal(t, "COGS", s.Dataset().ColumnLabel("cogs"))

	require.True(t, s.BeginRename(col("cogs")))
	require.True(t, s.EditRename("  Cost of Sales "))
	assert.True(t, s.CommitRename())
	assert.Equal(t, "Cost of Sales", s.Dataset().ColumnLabel("cogs"))

	require.True(t, s.BeginRename(row("2020")))
	require.True(t, s.EditRename("   "))
	assert.False(t, s.CommitRename(), "empty key accepted")
	assert.Equal(t, []string{"2019", "2020", "2021"}, s.Dataset().Rows.Keys())
}

func TestPointerDownCommitsPendingRename(t *testing.T) {
	s := newSession(t, mapping.Line)
	require.True(t, s.BeginRename(col("cogs")))
	require.True(t, s.EditRename("Costs"))

	assert.True(t, s.PointerDown(col("revenue"), gesture.Header))
	assert.Equal(t, "Costs", s.Dataset().ColumnLabel("cogs"))
	assert.Equal(t, gesture.Sweeping, s.Mode())
	assert.False(t, s.Dataset().Columns.IsVisible("revenue"))
	s.PointerUp()
}

func TestShowAll(t *testing.T) {
	s := newSession(t, mapping.Line)
	s.ToggleColumn("cogs")
	s.ToggleRow("2019")
	assert.True(t, s.ShowAllColumns())
	assert.True(t, s.ShowAllRows())
	assert.False(t, s.ShowAllRows())
	assert.Len(t, s.Spec().Rows, 3)
	assert.Len(t, s.Spec().Columns, 3)
}

func TestEditCell(t *testing.T) {
	s := newSession(t, mapping.Histogram)
	assert.True(t, s.EditCell("2019", "revenue", "n/a"))
	assert.False(t, s.EditCell("2019", "year", "1"), "key edited as a cell")
	assert.False(t, s.EditCell("1999", "revenue", "1"))
	assert.Equal(t, []float64{120, 150}, s.Dataset().NumericValues("revenue"))
}

func TestEditCellUnknownColumn(t *testing.T) {
	s := newSession(t, mapping.Bar)
	before := s.Snapshot().Data

	assert.False(t, s.EditCell("2019", "typo", "5"))
	assert.False(t, s.Apply(Op{Type: OpEditCell, ID: "2019", Column: "typo", Text: "5"}))

	r, ok := s.Dataset().Rows.Row("2019")
	require.True(t, ok)
	_, orphan := r.Fields["typo"]
	assert.False(t, orphan)
	assert.Equal(t, before, s.Snapshot().Data)
}

type recordingHooks struct {
	observability.NoopSessionHooks
	ops       []string
	reconcile map[string]int
}

func (r *recordingHooks) OnOperation(_ string, op string, applied bool) {
	if applied {
		op = "+" + op
	}
	r.ops = append(r.ops, op)
}

func (r *recordingHooks) OnReconcile(_ string, chartType string, repaired int) {
	r.reconcile[chartType] += repaired
}

func TestHooks(t *testing.T) {
	rec := &recordingHooks{reconcile: map[string]int{}}
	observability.SetSessionHooks(rec)
	t.Cleanup(observability.Reset)

	s := newSession(t, mapping.Scatter)
	s.SetSlot(mapping.SlotColor, "cogs")
	s.RenameColumn("cogs", "")
	s.ToggleColumn("cogs")

	assert.Equal(t, "+setSlot renameColumn +toggleColumn", strings.Join(rec.ops, " "))
	// Every chart type drops cogs from its series; scatter also loses Color.
	assert.Len(t, rec.reconcile, len(mapping.ChartTypes))
	assert.Equal(t, 2, rec.reconcile["scatter"])
	assert.Equal(t, 1, rec.reconcile["line"])
}
