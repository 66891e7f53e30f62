package manager

import (
	"time"

	"modelhub/internal/backend"
)

// Instance is a ready cache entry. Slots are only inserted once loading has
// finished under loadMu, so a cached instance is never half-loaded. Only the
// manager mutates it.
type Instance struct {
	Name       string
	Path       string
	LoadedAt   time.Time
	LastUsed   time.Time
	UsageCount uint64
	backend    backend.Backend
}

// HealthStatus is the outcome of a health probe.
type HealthStatus string

const (
	Healthy   HealthStatus = "healthy"
	Unhealthy HealthStatus = "unhealthy"
	NotLoaded HealthStatus = "not_loaded"
)
