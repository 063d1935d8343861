// Package cache provides byte caches for loaded datasets.
//
// Loading a dataset can be slow (large spreadsheets, remote databases), and
// the editor, the API and `chartpad spec` often load the same source
// repeatedly. The pipeline stores the normalized dataset JSON under a key
// derived from the source content and reader options.
//
// Implementations:
//   - [FileCache]: JSON entries under a directory, for the CLI
//   - [RedisCache]: shared cache for server deployments
//   - [NullCache]: disables caching
package cache

import (
	"context"
	"time"
)

// Cache is a byte store with per-entry TTL. A miss is reported with
// ok == false and a nil error.
type Cache interface {
	Get(ctx context.Context, key string) (data []byte, ok bool, err error)
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// Clearer is implemented by caches that can drop every entry at once.
type Clearer interface {
	Clear(ctx context.Context) error
}

// Key type names reported to cache hooks.
const (
	KeyTypeDataset = "dataset"
	KeyTypeQuery   = "query"
)

// =============================================================================
// Keys
// =============================================================================

// Keyer derives cache keys.
type Keyer interface {
	// DatasetKey keys a dataset decoded from file content with the given
	// content hash.
	DatasetKey(contentHash string, opts DatasetKeyOpts) string

	// QueryKey keys a dataset produced by a database query.
	QueryKey(dsn, query string, opts DatasetKeyOpts) string
}

// DatasetKeyOpts are the reader options that change the decoded dataset.
type DatasetKeyOpts struct {
	Format    string `json:"format,omitempty"`
	Sheet     string `json:"sheet,omitempty"`
	KeyColumn string `json:"key_column,omitempty"`
}

// DefaultKeyer produces "<type>:<sha256>" keys.
type DefaultKeyer struct{}

// NewDefaultKeyer returns the default keyer.
func NewDefaultKeyer() Keyer { return DefaultKeyer{} }

func (DefaultKeyer) DatasetKey(contentHash string, opts DatasetKeyOpts) string {
	return hashKey(KeyTypeDataset, contentHash, opts)
}

func (DefaultKeyer) QueryKey(dsn, query string, opts DatasetKeyOpts) string {
	// The DSN may carry credentials; only its hash ends up in the key.
	return hashKey(KeyTypeQuery, Hash([]byte(dsn)), query, opts)
}

var _ Keyer = DefaultKeyer{}
