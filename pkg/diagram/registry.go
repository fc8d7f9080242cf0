package diagram

// Registry records the element ids emitted during one build.
type Registry struct {
	ids map[string]struct{}
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{ids: make(map[string]struct{})}
}

// Claim registers id and reports whether it was free.
func (r *Registry) Claim(id string) bool {
	if _, taken := r.ids[id]; taken {
		return false
	}
	r.ids[id] = struct{}{}
	return true
}

// Has reports whether id has been claimed.
func (r *Registry) Has(id string) bool {
	_, ok := r.ids[id]
	return ok
}

// Len returns the number of claimed ids.
func (r *Registry) Len() int { return len(r.ids) }
