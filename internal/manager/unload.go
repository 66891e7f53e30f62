package manager

import (
	"context"
	"time"
)

// UnloadModel shuts down and removes the cached instance for nameOrAlias.
// Shutdown failures are logged, never returned. Absent names are a no-op and
// the result reports whether anything was removed.
func (m *Manager) UnloadModel(nameOrAlias string) bool {
	m.loadMu.Lock()
	defer m.loadMu.Unlock()
	return m.unloadLocked(m.reg.Canonical(nameOrAlias), EventUnload, "explicit")
}

// unloadLocked removes the entry before shutting its backend down so no new
// caller can obtain it mid-shutdown. Caller holds m.loadMu.
func (m *Manager) unloadLocked(name, event, reason string) bool {
	m.mu.Lock()
	inst, ok := m.instances[name]
	if ok {
		delete(m.instances, name)
	}
	n := len(m.instances)
	m.mu.Unlock()
	if !ok {
		return false
	}
	loadedModels.Set(float64(n))
	evictionsTotal.WithLabelValues(reason).Inc()
	if err := inst.backend.Shutdown(); err != nil {
		m.log.Warn().Err(err).Str("model", name).Msg("manager event=shutdown_error")
	}
	m.log.Info().Str("model", name).Str("reason", reason).Uint64("usage_count", inst.UsageCount).Msg("manager event=unload")
	m.publisher.Publish(Event{Name: event, Model: name, Fields: map[string]any{"reason": reason}})
	return true
}

// CleanupIdle unloads every entry whose LastUsed is strictly older than
// now-ttl and returns how many were removed. ttl <= 0 is a no-op.
func (m *Manager) CleanupIdle(ttl time.Duration) int {
	if ttl <= 0 {
		return 0
	}
	m.loadMu.Lock()
	defer m.loadMu.Unlock()

	cutoff := m.now().Add(-ttl)
	m.mu.RLock()
	var idle []string
	for name, inst := range m.instances {
		if inst.LastUsed.Before(cutoff) {
			idle = append(idle, name)
		}
	}
	m.mu.RUnlock()

	n := 0
	for _, name := range idle {
		if m.unloadLocked(name, EventIdleUnload, "idle") {
			n++
		}
	}
	if n > 0 {
		m.log.Info().Int("unloaded", n).Dur("ttl", ttl).Msg("manager event=cleanup_idle")
	}
	return n
}

// RunJanitor calls CleanupIdle with the configured TTL every interval until
// ctx is done. It returns immediately when the TTL or interval is disabled.
func (m *Manager) RunJanitor(ctx context.Context, interval time.Duration) {
	if m.ttl <= 0 || interval <= 0 {
		return
	}
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			m.CleanupIdle(m.ttl)
		}
	}
}

// Shutdown unloads every cached entry and refuses further loads.
func (m *Manager) Shutdown() {
	m.loadMu.Lock()
	defer m.loadMu.Unlock()
	m.mu.Lock()
	m.closed = true
	names := make([]string, 0, len(m.instances))
	for name := range m.instances {
		names = append(names, name)
	}
	m.mu.Unlock()
	for _, name := range names {
		m.unloadLocked(name, EventUnload, "shutdown")
	}
	m.log.Info().Int("unloaded", len(names)).Msg("manager event=shutdown")
}
