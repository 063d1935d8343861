package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/singleflight"

	"github.com/matzehuels/chartpad/pkg/cache"
	"github.com/matzehuels/chartpad/pkg/core/chart"
	"github.com/matzehuels/chartpad/pkg/core/dataset"
	"github.com/matzehuels/chartpad/pkg/errors"
	pio "github.com/matzehuels/chartpad/pkg/io"
	"github.com/matzehuels/chartpad/pkg/observability"
	"github.com/matzehuels/chartpad/pkg/session"
	"github.com/matzehuels/chartpad/pkg/source"
)

// Runner encapsulates pipeline execution with caching.
// Both CLI and API use it to avoid duplicating caching logic.
//
// The Runner stores no pipeline results; multiple goroutines can safely
// use the same Runner with different options.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger
	TTL    time.Duration

	group singleflight.Group
}

// NewRunner creates a runner with the given cache and keyer.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:  c,
		Keyer:  keyer,
		Logger: logger,
		TTL:    DefaultCacheTTL,
	}
}

// keyType classifies a source for cache hooks.
func keyType(src source.Source) string {
	if _, ok := src.(*source.File); ok {
		return cache.KeyTypeDataset
	}
	return cache.KeyTypeQuery
}

// LoadWithCacheInfo loads the dataset of src, preferring the cache unless
// refresh is set, and reports the cache key and whether it hit.
func (r *Runner) LoadWithCacheInfo(ctx context.Context, src source.Source, refresh bool) (dataset.Data, CacheInfo, error) {
	key, err := src.Key(ctx, r.Keyer)
	if err != nil {
		return dataset.Data{}, CacheInfo{}, err
	}
	info := CacheInfo{Key: key}
	kt := keyType(src)

	// Try cache first (unless refresh requested)
	if !refresh {
		if data, hit, err := r.Cache.Get(ctx, key); err == nil && hit {
			d, err := pio.ReadJSON(bytes.NewReader(data))
			if err == nil {
				observability.Cache().OnCacheHit(ctx, kt)
				info.LoadHit = true
				return d, info, nil
			}
			r.Logger.Warn("discarding unreadable cache entry", "key", key, "err", err)
		} else if err != nil {
			r.Logger.Warn("cache read failed", "key", key, "err", err)
		}
		observability.Cache().OnCacheMiss(ctx, kt)
	}

	// Collapse concurrent loads of the same key into one source call.
	v, err, shared := r.group.Do(key, func() (any, error) {
		d, err := r.load(ctx, src)
		if err != nil {
			return nil, err
		}
		if data, err := json.Marshal(d); err == nil {
			if err := r.Cache.Set(ctx, key, data, r.TTL); err != nil {
				r.Logger.Warn("cache write failed", "key", key, "err", err)
			} else {
				observability.Cache().OnCacheSet(ctx, kt, len(data))
			}
		}
		return d, nil
	})
	if err != nil {
		return dataset.Data{}, info, err
	}
	d := v.(dataset.Data)
	if shared {
		d = d.Clone()
	}
	return d, info, nil
}

// load reads src with retries and reports to load hooks.
func (r *Runner) load(ctx context.Context, src source.Source) (dataset.Data, error) {
	name := src.Name()
	observability.Load().OnLoadStart(ctx, name)
	start := time.Now()

	var d dataset.Data
	err := cache.RetryWithBackoff(ctx, func() error {
		var err error
		d, err = src.Load(ctx)
		if err != nil && cache.IsRetryable(err) {
			r.Logger.Warn("load failed, retrying", "source", name, "err", err)
		}
		return err
	})
	dur := time.Since(start)
	observability.Load().OnLoadComplete(ctx, name, len(d.Rows), dur, err)
	if err != nil {
		return dataset.Data{}, err
	}
	r.Logger.Debug("loaded dataset", "source", name, "rows", len(d.Rows), "columns", len(d.Columns), "duration", dur)
	return d, nil
}

// Load is a convenience wrapper that calls LoadWithCacheInfo and discards
// the cache info.
func (r *Runner) Load(ctx context.Context, src source.Source) (dataset.Data, error) {
	d, _, err := r.LoadWithCacheInfo(ctx, src, false)
	return d, err
}

// Open loads src and starts a session on it.
func (r *Runner) Open(ctx context.Context, src source.Source, opts Options) (*session.Session, error) {
	res, err := r.Execute(ctx, src, opts)
	if err != nil {
		return nil, err
	}
	return res.Session, nil
}

// Spec loads src, applies opts.Ops and returns the chart spec.
func (r *Runner) Spec(ctx context.Context, src source.Source, opts Options) (chart.Spec, error) {
	res, err := r.Execute(ctx, src, opts)
	if err != nil {
		return chart.Spec{}, err
	}
	return res.Spec, nil
}

// Execute runs the complete load → open → spec pipeline.
func (r *Runner) Execute(ctx context.Context, src source.Source, opts Options) (*Result, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}

	start := time.Now()
	d, info, err := r.LoadWithCacheInfo(ctx, src, opts.Refresh)
	if err != nil {
		code := errors.GetCode(err)
		if code == "" {
			code = errors.ErrCodeSource
		}
		return nil, errors.Wrap(code, err, "load %s", src.Name())
	}
	res := &Result{
		CacheInfo: info,
		Stats:     Stats{Rows: len(d.Rows), Columns: len(d.Columns), LoadTime: time.Since(start)},
	}
	r.Logger.Info("loaded dataset",
		"source", src.Name(),
		"rows", res.Stats.Rows,
		"columns", res.Stats.Columns,
		"cached", info.LoadHit,
		"duration", res.Stats.LoadTime)

	sess, err := session.New(d, opts.SessionOptions())
	if err != nil {
		return nil, err
	}
	res.Session = sess
	res.Applied = sess.ApplyAll(opts.Ops)
	if n := len(opts.Ops); n > 0 {
		r.Logger.Info("applied operations", "applied", res.Applied, "rejected", n-res.Applied)
	}
	res.Spec = sess.Spec()
	return res, nil
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}
