// Package session owns the complete editing state of one chart.
//
// A [Session] holds the dataset (column registry and row store), the active
// chart type, one [mapping.Mapping] per chart type and the gesture tracker.
// Every operation is synchronous and reports whether it changed anything;
// rejected operations are silent no-ops. After every applied mutation the
// session reconciles all mappings against the new column visibility, so a
// mapping never names a hidden column once an operation returns.
//
// # Usage
//
//	sess, err := session.New(data, session.Options{ChartType: mapping.Bar})
//	if err != nil {
//	    return err
//	}
//	sess.ToggleColumn("cogs")
//	spec := sess.Spec()
//
// Sessions are persisted as [Snapshot] values through a [Store]:
//   - [MemoryStore]: in-process map, for tests and the HTTP server
//   - [FileStore]: JSON files, for the CLI
//   - [RedisStore]: shared store for multi-instance servers
//   - [MongoStore]: document store with a TTL index
//
// A Session is not safe for concurrent use; hosts serialize access.
package session

import (
	"io"
	"maps"
	"slices"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/matzehuels/chartpad/pkg/core/chart"
	"github.com/matzehuels/chartpad/pkg/core/dataset"
	"github.com/matzehuels/chartpad/pkg/core/gesture"
	"github.com/matzehuels/chartpad/pkg/core/mapping"
	"github.com/matzehuels/chartpad/pkg/core/reorder"
	"github.com/matzehuels/chartpad/pkg/errors"
	pio "github.com/matzehuels/chartpad/pkg/io"
	"github.com/matzehuels/chartpad/pkg/observability"
)

// DefaultTTL is how long stores keep an untouched session.
const DefaultTTL = 7 * 24 * time.Hour

// Options configures a new session.
type Options struct {
	// ChartType is the initial chart type (default line).
	ChartType mapping.ChartType
	// Bins is the initial histogram bin count (default 10).
	Bins int
	// Palette colors columns without a color and the scatter color scale.
	Palette []string
	// Logger receives rejected operations at debug level and mapping
	// repairs at info level. Nil discards.
	Logger *log.Logger
}

func (o *Options) setDefaults() error {
	if o.ChartType == "" {
		o.ChartType = mapping.Line
	}
	if _, ok := mapping.ParseChartType(string(o.ChartType)); !ok {
		return errors.New(errors.ErrCodeInvalidChartType, "unknown chart type %q", o.ChartType)
	}
	if o.Bins == 0 {
		o.Bins = mapping.DefaultBins
	}
	o.Bins = mapping.ClampBins(o.Bins)
	if len(o.Palette) == 0 {
		o.Palette = chart.DefaultPalette
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	return nil
}

// Session is the editing state of one chart.
type Session struct {
	id        string
	createdAt time.Time
	updatedAt time.Time

	ds        *dataset.Dataset
	chartType mapping.ChartType
	mappings  map[mapping.ChartType]mapping.Mapping
	palette   []string

	gesture gesture.Tracker
	logger  *log.Logger
}

// New validates data and creates a session with default mappings for
// every chart type.
func New(data dataset.Data, opts Options) (*Session, error) {
	if err := opts.setDefaults(); err != nil {
		return nil, err
	}
	if err := pio.Validate(data); err != nil {
		return nil, err
	}
	now := time.Now()
	s := &Session{
		id:        uuid.NewString(),
		createdAt: now,
		updatedAt: now,
		ds:        dataset.New(data, opts.Palette),
		chartType: opts.ChartType,
		mappings:  make(map[mapping.ChartType]mapping.Mapping, len(mapping.ChartTypes)),
		palette:   opts.Palette,
		logger:    opts.Logger,
	}
	v := chart.View(s.ds)
	for _, ct := range mapping.ChartTypes {
		m := mapping.Default(v)
		m.Bins = opts.Bins
		s.mappings[ct] = m
	}
	return s, nil
}

// =============================================================================
// Accessors
// =============================================================================

func (s *Session) ID() string { return s.id }
func (s *Session) CreatedAt() time.Time { return s.createdAt }
func (s *Session) UpdatedAt() time.Time { return s.updatedAt }
func (s *Session) ChartType() mapping.ChartType { return s.chartType }

// Dataset exposes the dataset for reading. Mutating it directly bypasses
// reconciliation.
func (s *Session) Dataset() *dataset.Dataset { return s.ds }

// Mapping returns a copy of the active chart type's mapping.
func (s *Session) Mapping() mapping.Mapping { return s.mappings[s.chartType].Clone() }

// MappingFor returns a copy of the mapping of chart type ct.
func (s *Session) MappingFor(ct mapping.ChartType) mapping.Mapping { return s.mappings[ct].Clone() }

// Mode returns the current interaction mode.
func (s *Session) Mode() gesture.Mode { return s.gesture.Mode() }

// RenameBuffer returns the in-progress rename text and its target.
func (s *Session) RenameBuffer() (gesture.Target, string, bool) {
	tgt, ok := s.gesture.RenameTarget()
	return tgt, s.gesture.Buffer(), ok
}

// DragSource returns the header being dragged, if any.
func (s *Session) DragSource() (gesture.Target, bool) { return s.gesture.DragSource() }

// LabelColumn returns the column that labels rows in the active chart.
func (s *Session) LabelColumn() string {
	if l := s.mappings[s.chartType].Label; l != mapping.None {
		return l
	}
	return s.ds.Key.ID
}

// RowLabel returns the display label of the row with the given key.
func (s *Session) RowLabel(key string) (string, bool) {
	r, ok := s.ds.Rows.Row(key)
	if !ok {
		return "", false
	}
	return s.ds.Rows.Label(r, s.LabelColumn()).String(), true
}

// Options lists the picker choices of slot for the current dataset.
func (s *Session) Options(slot mapping.Slot) []chart.Option {
	return chart.Options(s.ds, slot)
}

// Spec returns the renderer input for the active chart type.
func (s *Session) Spec() chart.Spec {
	return chart.Build(s.ds, s.chartType, s.mappings[s.chartType], s.palette)
}

// =============================================================================
// Bookkeeping
// =============================================================================

// done records the outcome of op. Applied mutations are followed by a
// reconcile pass over every chart type's mapping.
func (s *Session) done(op OpType, applied bool, kv ...any) bool {
	observability.Session().OnOperation(s.id, string(op), applied)
	if !applied {
		s.logger.Debug("operation rejected", append([]any{"op", op}, kv...)...)
		return false
	}
	s.updatedAt = time.Now()
	s.reconcile()
	return true
}

func (s *Session) reconcile() {
	reports := mapping.ReconcileAll(s.mappings, chart.View(s.ds))
	for _, ct := range slices.Sorted(maps.Keys(reports)) {
		rep := reports[ct]
		observability.Session().OnReconcile(s.id, string(ct), len(rep.Repairs))
		for _, r := range rep.Repairs {
			s.logger.Info("mapping repaired", "chart", ct, "slot", r.Slot, "from", r.From, "to", r.To)
		}
	}
}

// =============================================================================
// Chart and mapping operations
// =============================================================================

// SetChartType switches the active chart type. Each chart type keeps its
// own mapping.
func (s *Session) SetChartType(ct mapping.ChartType) bool {
	_, ok := mapping.ParseChartType(string(ct))
	applied := ok && ct != s.chartType
	if applied {
		s.chartType = ct
	}
	return s.done(OpSetChartType, applied, "chart", ct)
}

// SetSlot binds slot of the active mapping to id. id must be one of the
// slot's picker options. Series changes go through ToggleSeries.
func (s *Session) SetSlot(slot mapping.Slot, id string) bool {
	m := s.mappings[s.chartType]
	applied := slot != mapping.SlotSeries && m.Get(slot) != id && s.isOption(slot, id)
	if applied {
		s.mappings[s.chartType] = m.With(slot, id)
	}
	return s.done(OpSetSlot, applied, "slot", slot, "column", id)
}

func (s *Session) isOption(slot mapping.Slot, id string) bool {
	for _, o := range chart.Options(s.ds, slot) {
		if o.ID == id {
			return true
		}
	}
	return false
}

// SetLabelColumn designates the column that labels rows.
func (s *Session) SetLabelColumn(id string) bool {
	return s.SetSlot(mapping.SlotLabel, id)
}

// ToggleSeries adds or removes a visible column from the series selection.
// Removing the last selected series is rejected.
func (s *Session) ToggleSeries(id string) bool {
	m := s.mappings[s.chartType]
	applied := s.ds.Columns.IsVisible(id) && !(len(m.Series) == 1 && m.HasSeries(id))
	if applied {
		s.mappings[s.chartType] = m.ToggleSeries(id)
	}
	return s.done(OpToggleSeries, applied, "column", id)
}

// SetBins sets the histogram bin count of the active mapping, clamped to
// [mapping.MinBins, mapping.MaxBins].
func (s *Session) SetBins(n int) bool {
	m := s.mappings[s.chartType]
	n = mapping.ClampBins(n)
	applied := m.Bins != n
	if applied {
		m.Bins = n
		s.mappings[s.chartType] = m
	}
	return s.done(OpSetBins, applied, "bins", n)
}

// =============================================================================
// Column operations
// =============================================================================

// RenameColumn sets a column label. Empty and case-insensitively duplicate
// labels are rejected.
func (s *Session) RenameColumn(id, label string) bool {
	return s.done(OpRenameColumn, s.ds.Columns.Rename(id, label), "column", id, "label", label)
}

// ToggleColumn flips a column's visibility.
func (s *Session) ToggleColumn(id string) bool {
	return s.done(OpToggleColumn, s.ds.Columns.Toggle(id), "column", id)
}

// SetColumnVisible shows or hides a column.
func (s *Session) SetColumnVisible(id string, visible bool) bool {
	return s.done(OpSetColumnVisible, s.ds.Columns.SetVisible(id, visible), "column", id)
}

// ShowAllColumns makes every column visible.
func (s *Session) ShowAllColumns() bool {
	return s.done(OpShowAllColumns, s.ds.Columns.ShowAll())
}

// MoveColumn moves column src to the registry position of dst.
func (s *Session) MoveColumn(src, dst string) bool {
	return s.done(OpMoveColumn, s.ds.Columns.Reorder(src, dst), "column", src, "target", dst)
}

// =============================================================================
// Row operations
// =============================================================================

// RenameRow commits text as the label of row key under the current label
// column. When rows are labelled by their key, duplicate keys are rejected.
func (s *Session) RenameRow(key, text string) bool {
	i := s.ds.Rows.Index(key)
	return s.done(OpRenameRow, i >= 0 && s.ds.Rows.RenameKey(i, text, s.LabelColumn()), "row", key, "text", text)
}

// ToggleRow flips a row's hidden flag.
func (s *Session) ToggleRow(key string) bool {
	return s.done(OpToggleRow, s.ds.Rows.ToggleHidden(key), "row", key)
}

// SetRowHidden hides or shows a row.
func (s *Session) SetRowHidden(key string, hidden bool) bool {
	return s.done(OpSetRowHidden, s.ds.Rows.SetHidden(key, hidden), "row", key)
}

// ShowAllRows unhides every row.
func (s *Session) ShowAllRows() bool {
	return s.done(OpShowAllRows, s.ds.Rows.ShowAll())
}

// MoveRow moves row src immediately above or below row dst.
func (s *Session) MoveRow(src, dst string, pos reorder.Position) bool {
	return s.done(OpMoveRow, s.ds.Rows.Reorder(src, dst, pos), "row", src, "target", dst, "position", pos)
}

// EditCell stores raw into a data cell, coerced to a number when it parses
// as one. The column must exist in the registry.
func (s *Session) EditCell(key, columnID, raw string) bool {
	ok := s.ds.Columns.Has(columnID) && s.ds.Rows.EditCell(key, columnID, raw)
	return s.done(OpEditCell, ok, "row", key, "column", columnID)
}
