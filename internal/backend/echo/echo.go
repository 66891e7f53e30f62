// Package echo is a weightless reference backend whose Generate returns the
// prompt unchanged. It is useful for smoke tests of the manager and HTTP API.
package echo

import (
	"context"
	"sync"

	"modelhub/internal/backend"
)

// Name is the canonical registry name of the echo backend.
const Name = "echo"

// Descriptor is the static description registered alongside New.
var Descriptor = backend.Descriptor{
	Metadata: backend.Metadata{
		Name:            Name,
		DisplayName:     "Echo",
		Description:     "Returns the prompt unchanged; for testing the model lifecycle.",
		Version:         "1.0.0",
		Author:          "modelhub",
		License:         "MIT",
		Tags:            []string{"test", "builtin"},
		Format:          backend.FormatGGUF,
		FilenamePattern: "echo*.gguf",
	},
	Capabilities: backend.Capabilities{
		SupportedLanguages: []string{"python", "go", "javascript", "rust"},
		MaxContextLength:   1 << 20,
		MinMemoryGB:        0.1,
		RecommendedMemGB:   0.1,
	},
}

// Backend implements backend.Backend. Temperature, TopP and TopK are ignored.
type Backend struct {
	mu     sync.Mutex
	cfg    backend.Config
	path   string
	loaded bool
}

// New is the echo factory.
func New(cfg backend.Config) (backend.Backend, error) {
	return &Backend{cfg: cfg}, nil
}

func (b *Backend) Metadata() backend.Metadata         { return Descriptor.Metadata }
func (b *Backend) Capabilities() backend.Capabilities { return Descriptor.Capabilities }

func (b *Backend) Initialize(ctx context.Context, path string, opts backend.Options) error {
	if err := backend.CheckWeightFile(path); err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.loaded {
		return backend.ErrAlreadyInitialized
	}
	b.path = path
	b.loaded = true
	return nil
}

func (b *Backend) Generate(ctx context.Context, prompt string, params backend.GenerateParams) (string, error) {
	b.mu.Lock()
	loaded := b.loaded
	b.mu.Unlock()
	if !loaded {
		return "", backend.ErrNotInitialized
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return prompt, nil
}

// TranslateInstruction echoes the instruction itself rather than the full prompt.
func (b *Backend) TranslateInstruction(ctx context.Context, instruction, codeContext string) (string, error) {
	return b.Generate(ctx, instruction, backend.DefaultGenerateParams())
}

func (b *Backend) Warmup(ctx context.Context) error {
	_, err := b.Generate(ctx, "warmup", backend.GenerateParams{MaxTokens: 1})
	return err
}

func (b *Backend) Shutdown() error {
	b.mu.Lock()
	b.loaded = false
	b.mu.Unlock()
	return nil
}
