package manager

import (
	"context"
	"sort"

	"modelhub/internal/backend"
	"modelhub/pkg/types"
)

// GetModelHealth runs a one-token generation against the cached instance for
// nameOrAlias. It does not touch LastUsed or UsageCount.
func (m *Manager) GetModelHealth(ctx context.Context, nameOrAlias string) types.ModelHealth {
	name := m.reg.Canonical(nameOrAlias)
	m.mu.RLock()
	inst, ok := m.instances[name]
	var b backend.Backend
	if ok {
		b = inst.backend
	}
	m.mu.RUnlock()
	if !ok {
		return types.ModelHealth{Name: name, Status: string(NotLoaded)}
	}
	if _, err := b.Generate(ctx, "ping", backend.GenerateParams{MaxTokens: 1}); err != nil {
		m.log.Warn().Err(err).Str("model", name).Msg("manager event=health_unhealthy")
		return types.ModelHealth{Name: name, Status: string(Unhealthy), Error: err.Error()}
	}
	return types.ModelHealth{Name: name, Status: string(Healthy)}
}

// CheckAllHealth probes every cached instance, sorted by name.
func (m *Manager) CheckAllHealth(ctx context.Context) []types.ModelHealth {
	m.mu.RLock()
	names := make([]string, 0, len(m.instances))
	for name := range m.instances {
		names = append(names, name)
	}
	m.mu.RUnlock()
	sort.Strings(names)
	out := make([]types.ModelHealth, 0, len(names))
	for _, name := range names {
		out = append(out, m.GetModelHealth(ctx, name))
	}
	return out
}
