package session

import (
	"time"

	"github.com/matzehuels/chartpad/pkg/core/chart"
	"github.com/matzehuels/chartpad/pkg/core/dataset"
	"github.com/matzehuels/chartpad/pkg/core/mapping"
	"github.com/matzehuels/chartpad/pkg/errors"
	pio "github.com/matzehuels/chartpad/pkg/io"
)

// Snapshot is the persisted form of a session. The gesture state is not
// part of it: a restored session starts Idle.
type Snapshot struct {
	ID        string                                `json:"id"`
	CreatedAt time.Time                             `json:"created_at"`
	UpdatedAt time.Time                             `json:"updated_at"`
	ExpiresAt time.Time                             `json:"expires_at,omitzero"`
	Data      dataset.Data                          `json:"data"`
	ChartType mapping.ChartType                     `json:"chart_type"`
	Mappings  map[mapping.ChartType]mapping.Mapping `json:"mappings"`
	Palette   []string                              `json:"palette,omitempty"`
}

// IsExpired reports whether the snapshot has passed its expiry time.
func (s *Snapshot) IsExpired() bool {
	return !s.ExpiresAt.IsZero() && time.Now().After(s.ExpiresAt)
}

// Summary is the listing form of a snapshot.
type Summary struct {
	ID        string            `json:"id"`
	ChartType mapping.ChartType `json:"chart_type"`
	Columns   int               `json:"columns"`
	Rows      int               `json:"rows"`
	UpdatedAt time.Time         `json:"updated_at"`
	ExpiresAt time.Time         `json:"expires_at,omitzero"`
}

// Summary returns the listing form of s.
func (s *Snapshot) Summary() Summary {
	return Summary{
		ID:        s.ID,
		ChartType: s.ChartType,
		Columns:   len(s.Data.Columns),
		Rows:      len(s.Data.Rows),
		UpdatedAt: s.UpdatedAt,
		ExpiresAt: s.ExpiresAt,
	}
}

// Snapshot captures the persistent state of s.
func (s *Session) Snapshot() *Snapshot {
	ms := make(map[mapping.ChartType]mapping.Mapping, len(s.mappings))
	for ct, m := range s.mappings {
		ms[ct] = m.Clone()
	}
	return &Snapshot{
		ID:        s.id,
		CreatedAt: s.createdAt,
		UpdatedAt: s.updatedAt,
		Data:      s.ds.Data(),
		ChartType: s.chartType,
		Mappings:  ms,
		Palette:   s.palette,
	}
}

// Restore rebuilds a session from snap. Chart types missing from the
// snapshot get default mappings, and every mapping is reconciled against
// the restored dataset. opts supplies the logger and fills gaps; the
// snapshot's own chart type and palette take precedence.
func Restore(snap *Snapshot, opts Options) (*Session, error) {
	if snap == nil {
		return nil, errors.New(errors.ErrCodeInvalidInput, "nil snapshot")
	}
	if err := errors.ValidateSessionID(snap.ID); err != nil {
		return nil, err
	}
	if snap.ChartType != "" {
		opts.ChartType = snap.ChartType
	}
	if len(snap.Palette) > 0 {
		opts.Palette = snap.Palette
	}
	if err := opts.setDefaults(); err != nil {
		return nil, err
	}
	if err := pio.Validate(snap.Data); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidDataset, err, "session %s", snap.ID)
	}

	s := &Session{
		id:        snap.ID,
		createdAt: snap.CreatedAt,
		updatedAt: snap.UpdatedAt,
		ds:        dataset.New(snap.Data, opts.Palette),
		chartType: opts.ChartType,
		mappings:  make(map[mapping.ChartType]mapping.Mapping, len(mapping.ChartTypes)),
		palette:   opts.Palette,
		logger:    opts.Logger,
	}
	v := chart.View(s.ds)
	for _, ct := range mapping.ChartTypes {
		m, ok := snap.Mappings[ct]
		if !ok {
			m = mapping.Default(v)
			m.Bins = opts.Bins
		}
		s.mappings[ct] = m.Clone()
	}
	s.reconcile()
	return s, nil
}
