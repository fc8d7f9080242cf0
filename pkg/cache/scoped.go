package cache

// ScopedKeyer wraps a Keyer with a prefix so that several environments can
// share one backend without colliding.
//
//	keyer := cache.NewScopedKeyer(cache.NewDefaultKeyer(), "staging:")
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer creates a keyer with a prefix.
// The prefix is prepended to all generated keys.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{
		inner:  inner,
		prefix: prefix,
	}
}

// DiagramKey generates a prefixed diagram key.
func (k *ScopedKeyer) DiagramKey(rowsHash string, opts DiagramKeyOpts) string {
	return k.prefix + k.inner.DiagramKey(rowsHash, opts)
}

// PreviewKey generates a prefixed preview key.
func (k *ScopedKeyer) PreviewKey(docHash string, opts PreviewKeyOpts) string {
	return k.prefix + k.inner.PreviewKey(docHash, opts)
}
