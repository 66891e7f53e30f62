package manager

// lruLocked returns the cached entry with the oldest LastUsed, or nil when the
// cache is empty. Ties resolve to whichever entry map iteration yields first.
// Caller holds m.mu.
func (m *Manager) lruLocked() *Instance {
	var lru *Instance
	for _, inst := range m.instances {
		if lru == nil || inst.LastUsed.Before(lru.LastUsed) {
			lru = inst
		}
	}
	return lru
}

// evictIfFull unloads the least recently used entry when the cache is at
// capacity. It never fails. Caller holds m.loadMu.
func (m *Manager) evictIfFull() {
	m.mu.RLock()
	full := len(m.instances) >= m.maxLoaded
	var victim string
	if full {
		if lru := m.lruLocked(); lru != nil {
			victim = lru.Name
		}
	}
	m.mu.RUnlock()
	if victim == "" {
		return
	}
	m.evictions.Add(1)
	m.log.Info().Str("model", victim).Int("capacity", m.maxLoaded).Msg("manager event=evict")
	m.unloadLocked(victim, EventEvict, "evict")
}
