package cache

// ScopedKeyer wraps a Keyer with a prefix so several deployments can share
// one Redis without colliding.
//
//	keyer := NewScopedKeyer(NewDefaultKeyer(), "chartpad:staging:")
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer creates a keyer with a prefix. A nil inner keyer means
// the DefaultKeyer.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{inner: inner, prefix: prefix}
}

func (k *ScopedKeyer) DatasetKey(contentHash string, opts DatasetKeyOpts) string {
	return k.prefix + k.inner.DatasetKey(contentHash, opts)
}

func (k *ScopedKeyer) QueryKey(dsn, query string, opts DatasetKeyOpts) string {
	return k.prefix + k.inner.QueryKey(dsn, query, opts)
}
