package manager

import (
	"modelhub/internal/backend"
	"modelhub/internal/common/fsutil"
	"modelhub/internal/registry"
)

// resolveWeightPath picks, in order: the explicit override, a configured
// per-model path (by canonical name, then by the requested alias), and a scan
// of modelDir for the descriptor's filename pattern. An empty result means
// nothing was found.
func (m *Manager) resolveWeightPath(requested, name, override string, desc backend.Descriptor) (string, error) {
	if override != "" {
		return fsutil.ExpandHome(override)
	}
	for _, key := range []string{name, requested} {
		if p, ok := m.modelPaths[key]; ok && p != "" {
			return fsutil.ExpandHome(p)
		}
	}
	if m.modelDir == "" {
		return "", nil
	}
	return registry.FindWeightFile(m.modelDir, name, desc.Metadata.FilenamePattern)
}

// modelConfig returns per-model constructor overrides, canonical name first.
func (m *Manager) modelConfig(requested, name string) backend.Config {
	if cfg, ok := m.modelConfigs[name]; ok {
		return cfg
	}
	if cfg, ok := m.modelConfigs[requested]; ok {
		return cfg
	}
	return backend.Config{}
}
