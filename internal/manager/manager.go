package manager

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"modelhub/internal/backend"
	"modelhub/internal/download"
	"modelhub/internal/registry"
	"modelhub/internal/sysmem"
)

// Manager is the only holder of live model instances. Construct one per
// process and pass it to consumers; tests build independent ones.
type Manager struct {
	mu     sync.RWMutex
	loadMu sync.Mutex // serializes every cache mutation

	instances    map[string]*Instance // keyed by canonical name
	defaultModel string
	closed       bool
	lastErr      string

	reg        *registry.Registry
	downloader Downloader
	probe      MemoryProbe
	publisher  EventPublisher
	log        zerolog.Logger
	now        func() time.Time

	modelDir     string
	autoDownload bool
	maxLoaded    int
	ttl          time.Duration
	reserveGB    float64
	modelPaths   map[string]string
	modelConfigs map[string]backend.Config
	warmup       bool

	loads     atomic.Uint64
	evictions atomic.Uint64
	startTime time.Time
}

// New constructs a Manager from cfg, filling defaults for unset collaborators.
func New(cfg Config) *Manager {
	m := &Manager{
		instances:    make(map[string]*Instance),
		defaultModel: cfg.DefaultModel,
		reg:          cfg.Registry,
		downloader:   cfg.Downloader,
		probe:        cfg.Probe,
		publisher:    cfg.Publisher,
		log:          cfg.Logger,
		now:          cfg.Now,
		modelDir:     cfg.ModelDir,
		autoDownload: cfg.AutoDownload,
		maxLoaded:    cfg.MaxLoadedModels,
		ttl:          cfg.ModelTTL,
		reserveGB:    cfg.MinAvailableMemoryGB,
		modelPaths:   cfg.ModelPaths,
		modelConfigs: cfg.ModelConfigs,
		warmup:       cfg.WarmupOnLoad,
	}
	if m.reg == nil {
		m.reg = registry.Default()
	}
	if m.probe == nil {
		m.probe = sysmem.Probe{}
	}
	if m.publisher == nil {
		m.publisher = noopPublisher{}
	}
	if m.now == nil {
		m.now = time.Now
	}
	if m.maxLoaded <= 0 {
		m.maxLoaded = defaultMaxLoadedModels
	}
	if m.downloader == nil {
		m.downloader = download.New(download.Config{Dir: m.modelDir, Logger: m.log})
	}
	m.startTime = m.now()
	return m
}

// Ready reports whether the manager accepts loads.
func (m *Manager) Ready() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return !m.closed
}

// DefaultModel returns the name used when callers pass none.
func (m *Manager) DefaultModel() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.defaultModel
}

// Registry returns the catalog this manager resolves names against.
func (m *Manager) Registry() *registry.Registry { return m.reg }

// ModelDir returns the base directory for weight files.
func (m *Manager) ModelDir() string { return m.modelDir }

// CleanupTempFiles removes orphaned download temp files under the model
// directory. It holds loadMu, so it never runs while a load is fetching.
func (m *Manager) CleanupTempFiles() (int, error) {
	m.loadMu.Lock()
	defer m.loadMu.Unlock()
	n, err := download.CleanupTempFiles(m.modelDir)
	if err != nil {
		return n, err
	}
	if n > 0 {
		m.log.Info().Int("removed", n).Msg("manager event=temp_cleanup")
	}
	return n, nil
}

// TTL returns the configured idle-unload threshold.
func (m *Manager) TTL() time.Duration { return m.ttl }

// IsLoaded reports whether nameOrAlias has a ready cache entry.
func (m *Manager) IsLoaded(nameOrAlias string) bool {
	name := m.reg.Canonical(nameOrAlias)
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.instances[name]
	return ok
}
