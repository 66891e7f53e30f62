package manager

import (
	"modelhub/internal/backend"
)

// admit checks the GPU requirement and declared memory minimum against the
// host. A probe failure is logged and the load proceeds.
func (m *Manager) admit(name string, caps backend.Capabilities) error {
	if caps.RequiresGPU && !m.probe.HasGPU() {
		return gpuRequiredError{name: name}
	}
	avail, err := m.probe.AvailableGB()
	if err != nil {
		m.log.Warn().Err(err).Str("model", name).Msg("manager event=memory_probe_failed")
		return nil
	}
	effective := avail - m.reserveGB
	if effective < caps.MinMemoryGB {
		return insufficientMemoryError{name: name, requiredGB: caps.MinMemoryGB, availableGB: effective}
	}
	if caps.RecommendedMemGB > 0 && effective < caps.RecommendedMemGB {
		m.log.Warn().
			Str("model", name).
			Float64("available_gb", effective).
			Float64("recommended_gb", caps.RecommendedMemGB).
			Msg("manager event=below_recommended_memory")
	}
	return nil
}
