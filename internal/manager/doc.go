// Package manager owns every live model instance in the process. It resolves
// names through the registry, admits loads against available memory, caches
// ready instances with LRU eviction, and unloads idle ones.
//
// The package is structured into small files by concern:
//
//   - manager.go: core Manager type, constructor, simple getters.
//   - config.go: Config and package defaults.
//   - types.go: cache entry and health types.
//   - errors.go: error types and predicates (IsNotLoaded, IsInsufficientMemory, ...).
//   - helpers.go: weight file resolution.
//   - admission.go: memory and GPU admission checks.
//   - ensure.go: GetModel/LoadModel and the serialized load sequence.
//   - evict.go: LRU victim selection.
//   - unload.go: UnloadModel, CleanupIdle, RunJanitor, Shutdown.
//   - health.go: one-token health probes.
//   - infer.go: Generate/Translate convenience entry points.
//   - ops.go: SwitchDefault and catalog listing.
//   - status_report.go: Status for /status.
//   - events.go, eventpub_memory.go: lifecycle event publishing.
//   - metrics.go: Prometheus collectors.
//
// Locking: loadMu serializes every cache mutation (load, unload, eviction,
// idle cleanup) for its full duration, including downloads and backend
// initialization. mu guards the instances map and is held only briefly, so a
// GetModel hit never waits behind a slow load.
package manager
