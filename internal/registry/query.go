package registry

import (
	"modelhub/internal/backend"
)

// Query filters the catalog by capability. Zero-valued fields do not filter.
type Query struct {
	Language    string
	MinContext  int
	SupportsGPU *bool
	MaxMemoryGB float64
}

// Matches reports whether caps satisfies q.
func (q Query) Matches(caps backend.Capabilities) bool {
	if q.Language != "" && !caps.SupportsLanguage(q.Language) {
		return false
	}
	if q.MinContext > 0 && caps.MaxContextLength < q.MinContext {
		return false
	}
	if q.SupportsGPU != nil && caps.SupportsGPU != *q.SupportsGPU {
		return false
	}
	if q.MaxMemoryGB > 0 && caps.MinMemoryGB > q.MaxMemoryGB {
		return false
	}
	return true
}

// FindByCapability returns the sorted canonical names whose capabilities
// match q. Candidates whose capabilities cannot be read are logged and skipped.
func (r *Registry) FindByCapability(q Query) []string {
	var out []string
	for _, name := range r.ListNames() {
		p, err := r.Resolve(name)
		if err != nil {
			continue // unregistered concurrently
		}
		d, err := describe(p)
		if err != nil {
			r.mu.RLock()
			log := r.log
			r.mu.RUnlock()
			log.Warn().Str("model", name).Err(err).Msg("registry event=capability_query_failed")
			continue
		}
		if q.Matches(d.Capabilities) {
			out = append(out, name)
		}
	}
	return out
}

// Descriptors returns the descriptor of every readable plugin keyed by
// canonical name.
func (r *Registry) Descriptors() map[string]backend.Descriptor {
	out := make(map[string]backend.Descriptor)
	for _, name := range r.ListNames() {
		if d, err := r.Describe(name); err == nil {
			out[name] = d
		}
	}
	return out
}
