// Package pipeline provides the load → session → spec pipeline for chartpad.
//
// This package implements the path from a dataset source to a chart spec
// that the CLI and the HTTP server share. By centralizing it, every entry
// point gets the same caching, retries and defaults.
//
// # Architecture
//
// The pipeline consists of three stages:
//
//  1. Load: read a dataset from a [source.Source], through the cache
//  2. Open: build a [session.Session] with the configured defaults
//  3. Spec: apply operations and produce the [chart.Spec]
//
// Concurrent loads of the same cache key are collapsed into one call to
// the source. Transient source failures are retried with backoff.
//
// # Usage
//
//	runner := pipeline.NewRunner(cache, nil, logger)
//	src, _ := source.NewFile("pnl.csv")
//	spec, err := runner.Spec(ctx, src, pipeline.Options{ChartType: mapping.Bar})
package pipeline

import (
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/chartpad/pkg/core/chart"
	"github.com/matzehuels/chartpad/pkg/core/mapping"
	"github.com/matzehuels/chartpad/pkg/errors"
	"github.com/matzehuels/chartpad/pkg/session"
)

// =============================================================================
// Default Values
// =============================================================================

const (
	// DefaultCacheTTL is how long loaded datasets stay cached.
	DefaultCacheTTL = 24 * time.Hour

	// DefaultChartType is the chart type of new sessions.
	DefaultChartType = mapping.Line
)

// =============================================================================
// Options
// =============================================================================

// Options configures one pipeline run.
type Options struct {
	// Load options
	Refresh bool `json:"refresh,omitempty"`

	// Session options
	ChartType mapping.ChartType `json:"chart_type,omitempty"`
	Bins      int               `json:"bins,omitempty"`
	Palette   []string          `json:"palette,omitempty"`

	// Ops are applied to the session before the spec is built.
	Ops []session.Op `json:"ops,omitempty"`

	// Runtime options (not serialized)
	Logger *log.Logger `json:"-"`
}

// ValidateAndSetDefaults checks the options and fills in defaults.
func (o *Options) ValidateAndSetDefaults() error {
	if o.ChartType == "" {
		o.ChartType = DefaultChartType
	}
	if _, ok := mapping.ParseChartType(string(o.ChartType)); !ok {
		return errors.New(errors.ErrCodeInvalidChartType, "unknown chart type %q", o.ChartType)
	}
	if o.Bins < 0 {
		return errors.New(errors.ErrCodeInvalidInput, "bins must be positive, got %d", o.Bins)
	}
	if len(o.Palette) == 0 {
		o.Palette = chart.DefaultPalette
	}
	for i, op := range o.Ops {
		if err := op.Validate(); err != nil {
			return errors.Wrap(errors.GetCode(err), err, "operation %d", i+1)
		}
	}
	return nil
}

// SessionOptions returns the session options derived from o.
func (o *Options) SessionOptions() session.Options {
	return session.Options{
		ChartType: o.ChartType,
		Bins:      o.Bins,
		Palette:   o.Palette,
		Logger:    o.Logger,
	}
}

// =============================================================================
// Results
// =============================================================================

// Result contains the outputs of a pipeline run.
type Result struct {
	Session *session.Session
	Spec    chart.Spec

	// Applied counts the ops that changed the session.
	Applied int

	Stats     Stats
	CacheInfo CacheInfo
}

// Stats contains timing and size information.
type Stats struct {
	Rows     int
	Columns  int
	LoadTime time.Duration
}

// CacheInfo tracks cache hits.
type CacheInfo struct {
	Key     string
	LoadHit bool
}
