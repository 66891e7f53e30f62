package manager

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"modelhub/internal/backend"
	"modelhub/internal/download"
)

func backendParams() backend.GenerateParams { return backend.DefaultGenerateParams() }

func TestLoadInsertsWithUsageOne(t *testing.T) {
	h := newHarness(t, Config{})
	h.add(t, "a", stubSpec{}, false)
	if _, err := h.m.LoadModel(context.Background(), "a", ""); err != nil {
		t.Fatalf("load: %v", err)
	}
	inst := h.instance(t, "a")
	if inst.UsageCount != 1 {
		t.Fatalf("usage = %d, want 1", inst.UsageCount)
	}
	if inst.Path != filepath.Join(h.dir, "a", "a.gguf") {
		t.Fatalf("path = %q", inst.Path)
	}
	if !inst.LoadedAt.Equal(h.clock.Now()) || !inst.LastUsed.Equal(h.clock.Now()) {
		t.Fatalf("timestamps not fresh: %+v", inst)
	}
}

func TestCacheHitDoesNotReload(t *testing.T) {
	h := newHarness(t, Config{AutoDownload: true})
	c := h.add(t, "a", stubSpec{}, false, "alpha")
	ctx := context.Background()
	if _, err := h.m.GetModel(ctx, "a", true); err != nil {
		t.Fatalf("first get: %v", err)
	}
	before := h.instance(t, "a")
	h.clock.Advance(time.Minute)

	if _, err := h.m.GetModel(ctx, "alpha", false); err != nil {
		t.Fatalf("hit via alias: %v", err)
	}
	after := h.instance(t, "a")
	if after.UsageCount != before.UsageCount+1 {
		t.Fatalf("usage %d -> %d, want +1", before.UsageCount, after.UsageCount)
	}
	if !after.LastUsed.After(before.LastUsed) {
		t.Fatalf("last_used not advanced")
	}
	if c.created.Load() != 1 || c.inits.Load() != 1 || h.dl.calls.Load() != 0 {
		t.Fatalf("hit triggered work: created=%d inits=%d downloads=%d", c.created.Load(), c.inits.Load(), h.dl.calls.Load())
	}
	if h.m.evictions.Load() != 0 || count(h.pub.Names(), EventLoadStart) != 1 {
		t.Fatalf("hit triggered eviction or load: %v", h.pub.Names())
	}
}

func TestLoadModelOnCachedNameBumpsUsage(t *testing.T) {
	h := newHarness(t, Config{})
	c := h.add(t, "a", stubSpec{}, false)
	ctx := context.Background()
	for i := 0; i < 2; i++ {
		if _, err := h.m.LoadModel(ctx, "a", ""); err != nil {
			t.Fatalf("load %d: %v", i, err)
		}
	}
	if got := h.instance(t, "a").UsageCount; got != 2 || c.created.Load() != 1 {
		t.Fatalf("usage=%d created=%d", got, c.created.Load())
	}
}

func TestLRUEvictsOldest(t *testing.T) {
	h := newHarness(t, Config{MaxLoadedModels: 2})
	ca := h.add(t, "a", stubSpec{}, false)
	cb := h.add(t, "b", stubSpec{}, false)
	h.add(t, "c", stubSpec{}, false)
	ctx := context.Background()

	for _, n := range []string{"a", "b"} {
		if _, err := h.m.GetModel(ctx, n, true); err != nil {
			t.Fatalf("load %s: %v", n, err)
		}
		h.clock.Advance(time.Second)
	}
	// a becomes the most recently used; b is now the LRU.
	if _, err := h.m.GetModel(ctx, "a", false); err != nil {
		t.Fatalf("touch a: %v", err)
	}
	h.clock.Advance(time.Second)
	if _, err := h.m.GetModel(ctx, "c", true); err != nil {
		t.Fatalf("load c: %v", err)
	}

	if h.m.IsLoaded("b") || !h.m.IsLoaded("a") || !h.m.IsLoaded("c") {
		t.Fatalf("wrong entry evicted: %+v", h.m.ListLoaded())
	}
	if h.m.evictions.Load() != 1 || count(h.pub.Names(), EventEvict) != 1 {
		t.Fatalf("expected exactly one eviction, events=%v", h.pub.Names())
	}
	if cb.shutdowns.Load() != 1 || ca.shutdowns.Load() != 0 {
		t.Fatalf("shutdowns a=%d b=%d", ca.shutdowns.Load(), cb.shutdowns.Load())
	}
}

func TestEvictionSurvivesShutdownError(t *testing.T) {
	h := newHarness(t, Config{MaxLoadedModels: 1})
	h.add(t, "a", stubSpec{shutdownErr: errBoom}, false)
	h.add(t, "b", stubSpec{}, false)
	ctx := context.Background()
	if _, err := h.m.GetModel(ctx, "a", true); err != nil {
		t.Fatalf("load a: %v", err)
	}
	h.clock.Advance(time.Second)
	if _, err := h.m.GetModel(ctx, "b", true); err != nil {
		t.Fatalf("load b despite shutdown error: %v", err)
	}
	if h.m.IsLoaded("a") {
		t.Fatalf("a still cached")
	}
}

func TestInsufficientMemoryLeavesCacheUnchanged(t *testing.T) {
	h := newHarness(t, Config{Probe: fakeProbe{gb: 2}})
	c := h.add(t, "big", stubSpec{minGB: 4}, false)
	_, err := h.m.LoadModel(context.Background(), "big", "")
	if !IsInsufficientMemory(err) {
		t.Fatalf("expected insufficient memory, got %v", err)
	}
	if len(h.m.ListLoaded()) != 0 || c.created.Load() != 0 {
		t.Fatalf("partial entry or construction: loaded=%v created=%d", h.m.ListLoaded(), c.created.Load())
	}
	if h.m.Status().LastError == "" {
		t.Fatalf("last error not recorded")
	}
}

func TestMemoryReserveIsSubtracted(t *testing.T) {
	h := newHarness(t, Config{Probe: fakeProbe{gb: 4}, MinAvailableMemoryGB: 1})
	h.add(t, "m", stubSpec{minGB: 3.5}, false)
	if _, err := h.m.LoadModel(context.Background(), "m", ""); !IsInsufficientMemory(err) {
		t.Fatalf("expected reserve to block load, got %v", err)
	}
}

func TestMemoryProbeFailureProceeds(t *testing.T) {
	h := newHarness(t, Config{Probe: fakeProbe{err: errors.New("no probe")}})
	h.add(t, "m", stubSpec{minGB: 100}, false)
	if _, err := h.m.LoadModel(context.Background(), "m", ""); err != nil {
		t.Fatalf("probe failure should not block load: %v", err)
	}
}

func TestGPURequired(t *testing.T) {
	h := newHarness(t, Config{Probe: fakeProbe{gb: 64, gpu: false}})
	h.add(t, "g", stubSpec{requiresGPU: true}, false)
	if _, err := h.m.LoadModel(context.Background(), "g", ""); !IsGPURequired(err) {
		t.Fatalf("expected gpu required, got %v", err)
	}
}

func TestAutoDownloadFetchesMissingWeights(t *testing.T) {
	h := newHarness(t, Config{AutoDownload: true})
	c := h.add(t, "d", stubSpec{url: "https://example.invalid/d.gguf", sha: "00"}, true)
	ctx := context.Background()
	if _, err := h.m.GetModel(ctx, "d", true); err != nil {
		t.Fatalf("load: %v", err)
	}
	if h.dl.calls.Load() != 1 {
		t.Fatalf("downloads = %d", h.dl.calls.Load())
	}
	if p, _ := c.lastPath.Load().(string); p != filepath.Join(h.dir, "d", "d.gguf") {
		t.Fatalf("initialized with %q", p)
	}
	if _, err := h.m.GetModel(ctx, "d", true); err != nil || h.dl.calls.Load() != 1 {
		t.Fatalf("cache hit downloaded again: %v", err)
	}
}

func TestDownloadDisabledFailsFast(t *testing.T) {
	h := newHarness(t, Config{AutoDownload: false})
	c := h.add(t, "d", stubSpec{url: "https://example.invalid/d.gguf"}, true)
	_, err := h.m.LoadModel(context.Background(), "d", "")
	if !IsLoadError(err) || !IsWeightFileMissing(err) {
		t.Fatalf("expected weight-missing load error, got %v", err)
	}
	if h.dl.calls.Load() != 0 {
		t.Fatalf("downloader called with auto-download off")
	}
	if c.created.Load() != 1 || c.shutdowns.Load() != 1 {
		t.Fatalf("constructed backend not released: created=%d shutdowns=%d", c.created.Load(), c.shutdowns.Load())
	}
}

func TestDownloadFailurePropagates(t *testing.T) {
	h := newHarness(t, Config{AutoDownload: true})
	h.dl.err = &download.Error{URL: "u", Attempts: 3, Err: errBoom}
	h.add(t, "d", stubSpec{url: "https://example.invalid/d.gguf", sha: "00"}, true)
	_, err := h.m.LoadModel(context.Background(), "d", "")
	if !IsDownloadFailed(err) || !errors.Is(err, errBoom) {
		t.Fatalf("expected wrapped download error, got %v", err)
	}
	if len(h.m.ListLoaded()) != 0 {
		t.Fatalf("failed load cached")
	}
}

func TestInitializeFailureIsLoadError(t *testing.T) {
	h := newHarness(t, Config{})
	c := h.add(t, "bad", stubSpec{initErr: errBoom}, false)
	_, err := h.m.LoadModel(context.Background(), "bad", "")
	if !IsLoadError(err) || !errors.Is(err, errBoom) || !backend.IsLoadFailed(err) {
		t.Fatalf("expected load error wrapping cause, got %v", err)
	}
	if c.shutdowns.Load() != 1 || len(h.m.ListLoaded()) != 0 {
		t.Fatalf("failed instance leaked")
	}
	if count(h.pub.Names(), EventLoadFailed) != 1 {
		t.Fatalf("missing load_failed event: %v", h.pub.Names())
	}
}

func TestWarmupFailureIsSwallowed(t *testing.T) {
	h := newHarness(t, Config{WarmupOnLoad: true})
	c := h.add(t, "w", stubSpec{warmErr: errBoom}, false)
	if _, err := h.m.LoadModel(context.Background(), "w", ""); err != nil {
		t.Fatalf("warmup failure leaked: %v", err)
	}
	if c.warmups.Load() != 1 {
		t.Fatalf("warmup not called")
	}
}

func TestWeightPathResolutionOrder(t *testing.T) {
	h := newHarness(t, Config{})
	configured := filepath.Join(h.dir, "elsewhere", "configured.gguf")
	explicit := filepath.Join(h.dir, "elsewhere", "explicit.gguf")
	writeWeights(t, configured)
	writeWeights(t, explicit)
	h.m.modelPaths = map[string]string{"p": configured}
	c := h.add(t, "p", stubSpec{}, false)
	ctx := context.Background()

	if _, err := h.m.LoadModel(ctx, "p", explicit); err != nil {
		t.Fatalf("explicit: %v", err)
	}
	if got, _ := c.lastPath.Load().(string); got != explicit {
		t.Fatalf("explicit override ignored: %q", got)
	}
	h.m.UnloadModel("p")
	if _, err := h.m.LoadModel(ctx, "p", ""); err != nil {
		t.Fatalf("configured: %v", err)
	}
	if got, _ := c.lastPath.Load().(string); got != configured {
		t.Fatalf("configured path ignored: %q", got)
	}
}

func TestConcurrentGetModelLoadsOnce(t *testing.T) {
	h := newHarness(t, Config{})
	c := h.add(t, "a", stubSpec{}, false)
	var wg sync.WaitGroup
	errs := make(chan error, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := h.m.GetModel(context.Background(), "a", true)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Fatalf("get: %v", err)
		}
	}
	if c.created.Load() != 1 {
		t.Fatalf("created %d instances, want 1", c.created.Load())
	}
	if got := h.instance(t, "a").UsageCount; got != 8 {
		t.Fatalf("usage = %d, want 8", got)
	}
}

func TestGenerateAndTranslate(t *testing.T) {
	h := newHarness(t, Config{DefaultModel: "a"})
	h.add(t, "a", stubSpec{}, false)
	ctx := context.Background()
	name, out, err := h.m.Generate(ctx, "", "hello", backendParams())
	if err != nil || name != "a" || out != "hello" {
		t.Fatalf("generate = %q %q %v", name, out, err)
	}
	// The stub echoes the prompt, so the translation contains the instruction.
	_, code, err := h.m.Translate(ctx, "a", "sum a list", "")
	if err != nil || code == "" {
		t.Fatalf("translate = %q %v", code, err)
	}
}

func TestTempCleanupWaitsForRunningLoad(t *testing.T) {
	h := newHarness(t, Config{AutoDownload: true})
	h.dl.started = make(chan struct{})
	h.dl.release = make(chan struct{})
	h.add(t, "d", stubSpec{url: "https://example.invalid/d.gguf", sha: "00"}, true)
	writeWeights(t, filepath.Join(h.dir, "old", "old.gguf.tmp"))

	loadErr := make(chan error, 1)
	go func() {
		_, err := h.m.LoadModel(context.Background(), "d", "")
		loadErr <- err
	}()
	select {
	case <-h.dl.started:
	case <-time.After(5 * time.Second):
		t.Fatalf("download never started")
	}

	type result struct {
		n   int
		err error
	}
	cleaned := make(chan result, 1)
	go func() {
		n, err := h.m.CleanupTempFiles()
		cleaned <- result{n, err}
	}()
	select {
	case r := <-cleaned:
		close(h.dl.release)
		t.Fatalf("cleanup ran during a load: %+v", r)
	case <-time.After(50 * time.Millisecond):
	}
	if _, err := os.Stat(filepath.Join(h.dir, "d", "d.gguf.tmp")); err != nil {
		close(h.dl.release)
		t.Fatalf("live temp file touched: %v", err)
	}
	close(h.dl.release)

	if err := <-loadErr; err != nil {
		t.Fatalf("load: %v", err)
	}
	select {
	case r := <-cleaned:
		if r.err != nil || r.n != 1 {
			t.Fatalf("cleanup removed=%d err=%v, want only the orphan", r.n, r.err)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("cleanup never ran")
	}
}
