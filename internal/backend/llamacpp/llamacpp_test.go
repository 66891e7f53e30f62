//go:build !llama

package llamacpp

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"modelhub/internal/backend"
)

var testDesc = backend.Descriptor{
	Metadata:     backend.Metadata{Name: "tiny", Format: backend.FormatGGUF, FilenamePattern: "*.gguf"},
	Capabilities: backend.Capabilities{MaxContextLength: 2048, MinMemoryGB: 1},
}

func TestFactoryParsesConfig(t *testing.T) {
	b, err := Factory(testDesc)(backend.Config{"context_size": 8192, "threads": "8", "gpu_layers": float64(12)})
	if err != nil {
		t.Fatalf("factory: %v", err)
	}
	lb := b.(*Backend)
	if lb.ctxSize != 2048 {
		t.Fatalf("context size should be capped at descriptor max, got %d", lb.ctxSize)
	}
	if lb.threads != 8 || lb.gpuLayers != 12 {
		t.Fatalf("unexpected threads=%d gpu_layers=%d", lb.threads, lb.gpuLayers)
	}
	if b.Metadata().Name != "tiny" {
		t.Fatalf("metadata not bound to descriptor: %+v", b.Metadata())
	}
}

func TestFactoryRejectsBadConfig(t *testing.T) {
	if _, err := Factory(testDesc)(backend.Config{"threads": "many"}); err == nil {
		t.Fatalf("expected error for non-numeric threads")
	}
	if _, err := Factory(testDesc)(backend.Config{"threads": []int{1}}); err == nil {
		t.Fatalf("expected error for unsupported type")
	}
}

func TestStubInitializeFailsAsLoadError(t *testing.T) {
	if Built() {
		t.Skip("real llama build")
	}
	b, _ := Factory(testDesc)(nil)
	ctx := context.Background()
	if err := b.Initialize(ctx, filepath.Join(t.TempDir(), "missing.gguf"), nil); !errors.Is(err, backend.ErrWeightFileNotFound) {
		t.Fatalf("expected weight file not found, got %v", err)
	}
	p := filepath.Join(t.TempDir(), "model.gguf")
	if err := os.WriteFile(p, []byte("gguf"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	err := b.Initialize(ctx, p, nil)
	if !backend.IsLoadFailed(err) {
		t.Fatalf("expected load failure from stub, got %v", err)
	}
	if _, err := b.Generate(ctx, "x", backend.GenerateParams{}); !errors.Is(err, backend.ErrNotInitialized) {
		t.Fatalf("expected not initialized, got %v", err)
	}
	if err := b.Shutdown(); err != nil {
		t.Fatalf("shutdown: %v", err)
	}
}

func TestShutdownWaitsForInFlightGenerate(t *testing.T) {
	b, _ := Factory(testDesc)(nil)
	lb := b.(*Backend)
	// Hold the prediction lock the way a running Generate does.
	lb.run.Lock()

	done := make(chan struct{})
	go func() {
		_ = lb.Shutdown()
		close(done)
	}()
	select {
	case <-done:
		t.Fatalf("shutdown returned while a generation was in flight")
	case <-time.After(50 * time.Millisecond):
	}
	lb.run.Unlock()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("shutdown did not finish after the generation ended")
	}
}

func TestGenerateSerializesOnOneModel(t *testing.T) {
	b, _ := Factory(testDesc)(nil)
	lb := b.(*Backend)
	lb.run.Lock()

	done := make(chan error, 1)
	go func() {
		_, err := lb.Generate(context.Background(), "x", backend.GenerateParams{})
		done <- err
	}()
	select {
	case <-done:
		t.Fatalf("generate ran concurrently with another generation")
	case <-time.After(50 * time.Millisecond):
	}
	lb.run.Unlock()
	select {
	case err := <-done:
		if !errors.Is(err, backend.ErrNotInitialized) {
			t.Fatalf("expected not initialized, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("generate did not proceed after the lock was released")
	}
}
