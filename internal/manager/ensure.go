package manager

import (
	"context"
	"fmt"
	"time"

	"modelhub/internal/backend"
	"modelhub/internal/common/fsutil"
	"modelhub/internal/download"
)

// GetModel returns a ready backend for name, or the default model when name is
// empty. A cache hit bumps LastUsed and UsageCount and never loads, downloads
// or evicts. On a miss it fails with a not-loaded error unless autoLoad is set,
// in which case it runs the full load sequence.
//
// Callers must not call Shutdown on the returned backend; only the manager
// moves an entry out of the ready state.
func (m *Manager) GetModel(ctx context.Context, name string, autoLoad bool) (backend.Backend, error) {
	requested, err := m.requestedName(name)
	if err != nil {
		return nil, err
	}
	canonical := m.reg.Canonical(requested)
	if b, ok := m.touch(canonical); ok {
		return b, nil
	}
	if !autoLoad {
		return nil, notLoadedError{name: requested}
	}
	return m.LoadModel(ctx, requested, "")
}

// LoadModel loads name with an optional explicit weight path. It works
// regardless of auto-load settings. An already cached name is returned as-is
// (path is ignored) with its usage bumped.
func (m *Manager) LoadModel(ctx context.Context, name, path string) (backend.Backend, error) {
	requested, err := m.requestedName(name)
	if err != nil {
		return nil, err
	}
	m.loadMu.Lock()
	defer m.loadMu.Unlock()

	canonical := m.reg.Canonical(requested)
	// Another caller may have loaded it while we waited.
	if b, ok := m.touch(canonical); ok {
		return b, nil
	}
	if err := m.load(ctx, requested, path); err != nil {
		m.mu.Lock()
		m.lastErr = err.Error()
		m.mu.Unlock()
		return nil, err
	}
	b, _ := m.touch(canonical)
	return b, nil
}

func (m *Manager) requestedName(name string) (string, error) {
	if name != "" {
		return name, nil
	}
	if d := m.DefaultModel(); d != "" {
		return d, nil
	}
	return "", configError{msg: "no model name given and no default model configured"}
}

// touch bumps LastUsed and UsageCount on a cache hit.
func (m *Manager) touch(name string) (backend.Backend, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	inst, ok := m.instances[name]
	if !ok {
		return nil, false
	}
	if now := m.now(); now.After(inst.LastUsed) {
		inst.LastUsed = now
	}
	inst.UsageCount++
	return inst.backend, true
}

// load runs the load sequence for requested. Caller holds m.loadMu.
func (m *Manager) load(ctx context.Context, requested, override string) (err error) {
	m.mu.RLock()
	closed := m.closed
	m.mu.RUnlock()
	if closed {
		return ErrClosed
	}

	start := time.Now()
	plugin, err := m.reg.Resolve(requested)
	if err != nil {
		m.log.Info().Str("model", requested).Msg("manager event=load_model_not_found")
		return err
	}
	name := m.reg.Canonical(requested)
	log := m.log.With().Str("model", name).Logger()
	log.Info().Msg("manager event=load_start")
	m.publisher.Publish(Event{Name: EventLoadStart, Model: name, Fields: map[string]any{}})
	defer func() {
		if err != nil {
			loadsTotal.WithLabelValues(name, "error").Inc()
			log.Error().Err(err).Msg("manager event=load_failed")
			m.publisher.Publish(Event{Name: EventLoadFailed, Model: name, Fields: map[string]any{"error": err.Error()}})
		}
	}()

	desc, err := m.reg.Describe(name)
	if err != nil {
		return loadError{name: name, err: err}
	}
	if err := m.admit(name, desc.Capabilities); err != nil {
		return err
	}

	m.evictIfFull()

	b, err := plugin.New(m.modelConfig(requested, name))
	if err != nil {
		return loadError{name: name, err: fmt.Errorf("construct: %w", err)}
	}
	// Release the constructed backend on any later failure.
	defer func() {
		if err != nil {
			_ = b.Shutdown()
		}
	}()

	weights, err := m.ensureWeights(ctx, requested, name, override, desc)
	if err != nil {
		return err
	}

	if err := b.Initialize(ctx, weights, backend.Options(m.modelConfig(requested, name))); err != nil {
		return loadError{name: name, err: err}
	}

	if m.warmup {
		if werr := b.Warmup(ctx); werr != nil {
			log.Warn().Err(werr).Msg("manager event=warmup_failed")
		}
	}

	now := m.now()
	m.mu.Lock()
	m.instances[name] = &Instance{
		Name:     name,
		Path:     weights,
		LoadedAt: now,
		LastUsed: now,
		backend:  b,
	}
	n := len(m.instances)
	m.mu.Unlock()
	loadedModels.Set(float64(n))
	m.loads.Add(1)
	loadsTotal.WithLabelValues(name, "ok").Inc()
	loadDuration.WithLabelValues(name).Observe(time.Since(start).Seconds())
	log.Info().Str("path", weights).Dur("dur", time.Since(start)).Msg("manager event=load_ready")
	m.publisher.Publish(Event{Name: EventLoadReady, Model: name, Fields: map[string]any{"path": weights}})
	return nil
}

// ensureWeights resolves the weight file and downloads it when missing and
// auto-download is enabled.
func (m *Manager) ensureWeights(ctx context.Context, requested, name, override string, desc backend.Descriptor) (string, error) {
	path, err := m.resolveWeightPath(requested, name, override, desc)
	if err != nil {
		return "", loadError{name: name, err: err}
	}
	if path != "" && fsutil.IsRegularFile(path) {
		return path, nil
	}
	if !m.autoDownload {
		return "", loadError{name: name, err: fmt.Errorf("%w (download disabled): %s", backend.ErrWeightFileNotFound, describePath(path))}
	}
	if desc.Metadata.DownloadURL == "" {
		return "", loadError{name: name, err: fmt.Errorf("%w (no download url): %s", backend.ErrWeightFileNotFound, describePath(path))}
	}
	m.log.Info().Str("model", name).Str("url", desc.Metadata.DownloadURL).Msg("manager event=download_start")
	res, err := m.downloader.Download(ctx, download.Request{
		URL:       desc.Metadata.DownloadURL,
		ModelName: name,
		Checksum:  desc.Metadata.SHA256,
	})
	if err != nil {
		return "", fmt.Errorf("download weights for %s: %w", name, err)
	}
	return res.Path, nil
}

func describePath(p string) string {
	if p == "" {
		return "no file matched"
	}
	return p
}
