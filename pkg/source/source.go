// Package source defines where datasets come from.
//
// A [Source] knows how to load a dataset and how to key it in a cache.
// Implementations:
//   - [File]: JSON, CSV or XLSX on disk
//   - postgres.Query: the result set of a SQL query
//
// Sources are consumed by the pipeline, which adds caching, duplicate-load
// suppression and retries.
package source

import (
	"context"

	"github.com/matzehuels/chartpad/pkg/cache"
	"github.com/matzehuels/chartpad/pkg/core/dataset"
)

// Source loads a dataset.
type Source interface {
	// Name identifies the source in logs and hooks.
	Name() string

	// Key returns the cache key of the dataset the source would load now.
	// It must change whenever the loaded data would change.
	Key(ctx context.Context, k cache.Keyer) (string, error)

	// Load reads and validates the dataset. Transient failures are
	// wrapped with cache.Retryable.
	Load(ctx context.Context) (dataset.Data, error)
}
