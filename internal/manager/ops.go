package manager

import (
	"sort"

	"modelhub/internal/backend"
	"modelhub/internal/common/fsutil"
	"modelhub/internal/registry"
	"modelhub/pkg/types"
)

// SwitchDefault changes the model used when callers pass no name. It fails
// with a not-found error when name is not registered.
func (m *Manager) SwitchDefault(name string) error {
	if !m.reg.Has(name) {
		return &registry.NotFoundError{Name: name}
	}
	canonical := m.reg.Canonical(name)
	m.mu.Lock()
	prev := m.defaultModel
	m.defaultModel = canonical
	m.mu.Unlock()
	m.log.Info().Str("model", canonical).Str("previous", prev).Msg("manager event=default_switched")
	m.publisher.Publish(Event{Name: EventDefaultSwitched, Model: canonical, Fields: map[string]any{"previous": prev}})
	return nil
}

// ListLoaded returns the cached instances sorted by name.
func (m *Manager) ListLoaded() []types.LoadedModel {
	m.mu.RLock()
	out := make([]types.LoadedModel, 0, len(m.instances))
	for _, inst := range m.instances {
		out = append(out, types.LoadedModel{
			Name:       inst.Name,
			Path:       inst.Path,
			LoadedAt:   inst.LoadedAt.Unix(),
			LastUsed:   inst.LastUsed.Unix(),
			UsageCount: inst.UsageCount,
		})
	}
	m.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Instances returns copies of the cached entries, sorted by name.
func (m *Manager) Instances() []Instance {
	m.mu.RLock()
	out := make([]Instance, 0, len(m.instances))
	for _, inst := range m.instances {
		cp := *inst
		cp.backend = nil
		out = append(out, cp)
	}
	m.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// ListModels returns the registry catalog annotated with load and download
// state. Entries whose descriptor cannot be read are skipped.
func (m *Manager) ListModels() []types.Model {
	names := m.reg.ListNames()
	out := make([]types.Model, 0, len(names))
	for _, name := range names {
		desc, err := m.reg.Describe(name)
		if err != nil {
			m.log.Warn().Err(err).Str("model", name).Msg("manager event=describe_failed")
			continue
		}
		out = append(out, m.modelView(name, desc))
	}
	return out
}

// FindModels returns catalog views of the models matching q.
func (m *Manager) FindModels(q registry.Query) []types.Model {
	names := m.reg.FindByCapability(q)
	out := make([]types.Model, 0, len(names))
	for _, name := range names {
		if desc, err := m.reg.Describe(name); err == nil {
			out = append(out, m.modelView(name, desc))
		}
	}
	return out
}

func (m *Manager) modelView(name string, desc backend.Descriptor) types.Model {
	md, caps := desc.Metadata, desc.Capabilities
	downloaded := false
	if p, err := m.resolveWeightPath(name, name, "", desc); err == nil && p != "" {
		downloaded = fsutil.IsRegularFile(p)
	}
	return types.Model{
		Name:        name,
		DisplayName: md.DisplayName,
		Description: md.Description,
		Version:     md.Version,
		Aliases:     m.reg.AliasesOf(name),
		Tags:        md.Tags,
		Format:      string(md.Format),
		DownloadURL: md.DownloadURL,
		Downloaded:  downloaded,
		Loaded:      m.IsLoaded(name),
		Capabilities: types.Capabilities{
			Languages:        caps.SupportedLanguages,
			MaxContextLength: caps.MaxContextLength,
			MinMemoryGB:      caps.MinMemoryGB,
			RecommendedMemGB: caps.RecommendedMemGB,
			SupportsGPU:      caps.SupportsGPU,
			RequiresGPU:      caps.RequiresGPU,
			ModelSizeGB:      caps.ModelSizeGB,
			QuantizationBits: caps.QuantizationBits,
		},
	}
}
