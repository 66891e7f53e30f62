package manager

import (
	"modelhub/pkg/types"
)

// Status builds a detailed status response for /status.
func (m *Manager) Status() types.StatusResponse {
	avail := -1.0
	if gb, err := m.probe.AvailableGB(); err == nil {
		avail = gb
	}
	now := m.now()
	resp := types.StatusResponse{
		Loaded:               m.ListLoaded(),
		MaxLoadedModels:      m.maxLoaded,
		AvailableMemoryGB:    avail,
		MinAvailableMemoryGB: m.reserveGB,
		HasGPU:               m.probe.HasGPU(),
		AutoDownload:         m.autoDownload,
		ModelTTLMinutes:      int(m.ttl.Minutes()),
		LoadsTotal:           m.loads.Load(),
		EvictionsTotal:       m.evictions.Load(),
		UptimeSeconds:        int64(now.Sub(m.startTime).Seconds()),
		ServerTimeUnix:       now.Unix(),
	}
	m.mu.RLock()
	resp.DefaultModel = m.defaultModel
	resp.LastError = m.lastErr
	m.mu.RUnlock()
	return resp
}
