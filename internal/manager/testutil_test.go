package manager

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"modelhub/internal/backend"
	"modelhub/internal/download"
	"modelhub/internal/registry"
)

// manualClock only moves when told to.
type manualClock struct {
	mu sync.Mutex
	t  time.Time
}

func newClock() *manualClock {
	return &manualClock{t: time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *manualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *manualClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

type fakeProbe struct {
	gb  float64
	err error
	gpu bool
}

func (p fakeProbe) AvailableGB() (float64, error) { return p.gb, p.err }
func (p fakeProbe) HasGPU() bool                  { return p.gpu }

// fakeDownloader writes a small file where the real downloader would.
type fakeDownloader struct {
	dir   string
	calls atomic.Int32
	err   error
	// When release is set, the download leaves a temp file, closes started
	// and waits on release before finishing.
	started chan struct{}
	release chan struct{}
}

func (d *fakeDownloader) Download(ctx context.Context, req download.Request) (download.Result, error) {
	d.calls.Add(1)
	if d.err != nil {
		return download.Result{}, d.err
	}
	p := filepath.Join(d.dir, req.ModelName, req.ModelName+".gguf")
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return download.Result{}, err
	}
	if d.release != nil {
		if err := os.WriteFile(p+".tmp", []byte("wei"), 0o644); err != nil {
			return download.Result{}, err
		}
		close(d.started)
		<-d.release
		if err := os.Remove(p + ".tmp"); err != nil {
			return download.Result{}, err
		}
	}
	if err := os.WriteFile(p, []byte("weights"), 0o644); err != nil {
		return download.Result{}, err
	}
	return download.Result{Path: p, Outcome: download.Downloaded, Bytes: 7}, nil
}

type stubSpec struct {
	minGB       float64
	requiresGPU bool
	url, sha    string
	initErr     error
	genErr      error
	warmErr     error
	shutdownErr error
}

type stubCounters struct {
	created   atomic.Int32
	shutdowns atomic.Int32
	warmups   atomic.Int32
	inits     atomic.Int32
	lastPath  atomic.Value
}

type stubBackend struct {
	name string
	spec stubSpec
	c    *stubCounters

	mu    sync.Mutex
	ready bool
}

func (s *stubBackend) Metadata() backend.Metadata         { return stubDescriptor(s.name, s.spec).Metadata }
func (s *stubBackend) Capabilities() backend.Capabilities { return stubDescriptor(s.name, s.spec).Capabilities }

func (s *stubBackend) Initialize(ctx context.Context, path string, opts backend.Options) error {
	s.c.inits.Add(1)
	s.c.lastPath.Store(path)
	if err := backend.CheckWeightFile(path); err != nil {
		return err
	}
	if s.spec.initErr != nil {
		return &backend.LoadFailedError{Path: path, Err: s.spec.initErr}
	}
	s.mu.Lock()
	s.ready = true
	s.mu.Unlock()
	return nil
}

func (s *stubBackend) Generate(ctx context.Context, prompt string, p backend.GenerateParams) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.ready {
		return "", backend.ErrNotInitialized
	}
	if s.spec.genErr != nil {
		return "", s.spec.genErr
	}
	return prompt, nil
}

func (s *stubBackend) TranslateInstruction(ctx context.Context, instruction, codeContext string) (string, error) {
	return backend.Translate(ctx, s, instruction, codeContext)
}

func (s *stubBackend) Warmup(ctx context.Context) error {
	s.c.warmups.Add(1)
	return s.spec.warmErr
}

func (s *stubBackend) Shutdown() error {
	s.c.shutdowns.Add(1)
	s.mu.Lock()
	s.ready = false
	s.mu.Unlock()
	return s.spec.shutdownErr
}

func stubDescriptor(name string, spec stubSpec) backend.Descriptor {
	return backend.Descriptor{
		Metadata: backend.Metadata{
			Name:            name,
			Format:          backend.FormatGGUF,
			FilenamePattern: name + "*.gguf",
			DownloadURL:     spec.url,
			SHA256:          spec.sha,
		},
		Capabilities: backend.Capabilities{
			SupportedLanguages: []string{"python"},
			MinMemoryGB:        spec.minGB,
			RequiresGPU:        spec.requiresGPU,
		},
	}
}

type harness struct {
	m     *Manager
	reg   *registry.Registry
	dir   string
	clock *manualClock
	pub   *MemoryPublisher
	dl    *fakeDownloader
}

func newHarness(t *testing.T, cfg Config) *harness {
	t.Helper()
	h := &harness{
		reg:   registry.New(zerolog.Nop()),
		dir:   t.TempDir(),
		clock: newClock(),
		pub:   NewMemoryPublisher(),
	}
	h.dl = &fakeDownloader{dir: h.dir}
	cfg.Registry = h.reg
	cfg.ModelDir = h.dir
	cfg.Publisher = h.pub
	cfg.Now = h.clock.Now
	cfg.Logger = zerolog.Nop()
	if cfg.Probe == nil {
		cfg.Probe = fakeProbe{gb: 64}
	}
	if cfg.Downloader == nil {
		cfg.Downloader = h.dl
	}
	h.m = New(cfg)
	t.Cleanup(h.m.Shutdown)
	return h
}

// add registers a stub model and, unless withoutWeights, creates its weight file.
func (h *harness) add(t *testing.T, name string, spec stubSpec, withoutWeights bool, aliases ...string) *stubCounters {
	t.Helper()
	c := &stubCounters{}
	p := registry.Plugin{
		Descriptor: stubDescriptor(name, spec),
		New: func(cfg backend.Config) (backend.Backend, error) {
			c.created.Add(1)
			return &stubBackend{name: name, spec: spec, c: c}, nil
		},
	}
	if err := h.reg.Register(p, name, aliases...); err != nil {
		t.Fatalf("register %s: %v", name, err)
	}
	if !withoutWeights {
		writeWeights(t, filepath.Join(h.dir, name, name+".gguf"))
	}
	return c
}

func writeWeights(t *testing.T, p string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(p, []byte("weights"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
}

func (h *harness) instance(t *testing.T, name string) Instance {
	t.Helper()
	for _, inst := range h.m.Instances() {
		if inst.Name == name {
			return inst
		}
	}
	t.Fatalf("instance %q not cached", name)
	return Instance{}
}

func count(names []string, want string) int {
	n := 0
	for _, s := range names {
		if s == want {
			n++
		}
	}
	return n
}

var errBoom = errors.New("boom")
