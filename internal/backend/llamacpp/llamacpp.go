// Package llamacpp runs GGUF models in-process through go-llama.cpp.
//
// Build tags:
//
//   - `-tags=llama`: real adapter (llama_cgo.go, CGO required).
//   - default: a stub whose Initialize fails with a load error, keeping
//     default builds and CI CGO-free.
//
// Sampling: Temperature, TopP and TopK values <= 0 fall back to the
// go-llama.cpp defaults; larger values are passed through unclamped.
package llamacpp

import (
	"context"
	"fmt"
	"strconv"
	"sync"

	"modelhub/internal/backend"
)

const (
	defaultContextSize = 4096
	defaultThreads     = 4
)

// Backend is a go-llama.cpp backed model bound to one catalog descriptor.
type Backend struct {
	desc      backend.Descriptor
	ctxSize   int
	threads   int
	gpuLayers int

	// run is held across a prediction and by Shutdown: one prediction per
	// model at a time, and no Free while one is running.
	run   sync.Mutex
	mu    sync.Mutex
	state *session // nil until Initialize succeeds
}

// Factory returns a backend.Factory producing backends described by desc.
// Recognized config keys: context_size, threads, gpu_layers.
func Factory(desc backend.Descriptor) backend.Factory {
	return func(cfg backend.Config) (backend.Backend, error) {
		b := &Backend{desc: desc, ctxSize: defaultContextSize, threads: defaultThreads}
		var err error
		if b.ctxSize, err = intOpt(cfg, "context_size", b.ctxSize); err != nil {
			return nil, err
		}
		if b.threads, err = intOpt(cfg, "threads", b.threads); err != nil {
			return nil, err
		}
		if b.gpuLayers, err = intOpt(cfg, "gpu_layers", 0); err != nil {
			return nil, err
		}
		if limit := desc.Capabilities.MaxContextLength; limit > 0 && b.ctxSize > limit {
			b.ctxSize = limit
		}
		return b, nil
	}
}

func (b *Backend) Metadata() backend.Metadata         { return b.desc.Metadata }
func (b *Backend) Capabilities() backend.Capabilities { return b.desc.Capabilities }

func (b *Backend) Initialize(ctx context.Context, path string, opts backend.Options) error {
	if err := backend.CheckWeightFile(path); err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.state != nil {
		return backend.ErrAlreadyInitialized
	}
	s, err := openSession(path, b.ctxSize, b.threads, b.gpuLayers)
	if err != nil {
		return &backend.LoadFailedError{Path: path, Err: err}
	}
	b.state = s
	return nil
}

func (b *Backend) Generate(ctx context.Context, prompt string, params backend.GenerateParams) (string, error) {
	b.run.Lock()
	defer b.run.Unlock()
	if err := ctx.Err(); err != nil {
		return "", err
	}
	b.mu.Lock()
	s := b.state
	b.mu.Unlock()
	if s == nil {
		return "", backend.ErrNotInitialized
	}
	return s.predict(ctx, prompt, params, b.threads)
}

func (b *Backend) TranslateInstruction(ctx context.Context, instruction, codeContext string) (string, error) {
	return backend.Translate(ctx, b, instruction, codeContext)
}

func (b *Backend) Warmup(ctx context.Context) error {
	_, err := b.Generate(ctx, "Hello", backend.GenerateParams{MaxTokens: 1})
	return err
}

// Shutdown waits for an in-flight Generate before freeing the model.
func (b *Backend) Shutdown() error {
	b.run.Lock()
	defer b.run.Unlock()
	b.mu.Lock()
	s := b.state
	b.state = nil
	b.mu.Unlock()
	if s != nil {
		s.close()
	}
	return nil
}

func intOpt(cfg backend.Config, key string, def int) (int, error) {
	v, ok := cfg[key]
	if !ok || v == nil {
		return def, nil
	}
	switch n := v.(type) {
	case int:
		return n, nil
	case int64:
		return int(n), nil
	case float64:
		return int(n), nil
	case string:
		i, err := strconv.Atoi(n)
		if err != nil {
			return 0, fmt.Errorf("config %s: %w", key, err)
		}
		return i, nil
	default:
		return 0, fmt.Errorf("config %s: unsupported type %T", key, v)
	}
}

// Built reports whether this binary carries the real go-llama.cpp adapter.
func Built() bool { return llamaBuilt }
