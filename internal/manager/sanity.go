package manager

import (
	"os"
	"path/filepath"

	"modelhub/internal/backend/llamacpp"
	"modelhub/internal/common/fsutil"
)

// SanityReport describes runtime checks for the host and build.
type SanityReport struct {
	LlamaBuilt        bool    `json:"llama_built"`
	ModelDir          string  `json:"model_dir"`
	ModelDirWritable  bool    `json:"model_dir_writable"`
	MemoryProbeOK     bool    `json:"memory_probe_ok"`
	AvailableMemoryGB float64 `json:"available_memory_gb,omitempty"`
	HasGPU            bool    `json:"has_gpu"`
	RegisteredModels  int     `json:"registered_models"`
	Error             string  `json:"error,omitempty"`
}

// SanityCheck validates the model directory and host probes.
// It does not mutate state and is safe to call at any time.
func (m *Manager) SanityCheck() SanityReport {
	r := SanityReport{
		LlamaBuilt:       llamacpp.Built(),
		ModelDir:         m.modelDir,
		HasGPU:           m.probe.HasGPU(),
		RegisteredModels: len(m.reg.ListNames()),
	}
	if gb, err := m.probe.AvailableGB(); err == nil {
		r.MemoryProbeOK = true
		r.AvailableMemoryGB = gb
	} else {
		r.Error = err.Error()
	}
	dir, err := fsutil.ExpandHome(m.modelDir)
	if err != nil || dir == "" {
		if r.Error == "" {
			r.Error = "model directory not configured"
		}
		return r
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		r.Error = err.Error()
		return r
	}
	probe := filepath.Join(dir, ".write-test"+fsutil.TempSuffix)
	if err := os.WriteFile(probe, nil, 0o644); err != nil {
		r.Error = err.Error()
		return r
	}
	_ = os.Remove(probe)
	r.ModelDirWritable = true
	return r
}
