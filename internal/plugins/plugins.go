// Package plugins registers the built-in backends. Call RegisterBuiltins once
// during startup; nothing registers itself at import time.
package plugins

import (
	"fmt"
	"strings"

	"modelhub/internal/backend/echo"
	"modelhub/internal/backend/llamacpp"
	"modelhub/internal/registry"
)

// Options adjusts built-in descriptors.
type Options struct {
	// Checksums maps a model name (or alias) to its expected SHA-256.
	Checksums map[string]string
}

// RegisterBuiltins adds the echo backend and the GGUF coder catalog to reg.
func RegisterBuiltins(reg *registry.Registry, opts Options) error {
	if err := reg.Register(registry.Plugin{Descriptor: echo.Descriptor, New: echo.New}, echo.Name); err != nil {
		return fmt.Errorf("register %s: %w", echo.Name, err)
	}
	for _, g := range ggufCatalog {
		desc := g.descriptor(checksumFor(opts.Checksums, g))
		p := registry.Plugin{Descriptor: desc, New: llamacpp.Factory(desc)}
		if err := reg.Register(p, g.name, g.aliases...); err != nil {
			return fmt.Errorf("register %s: %w", g.name, err)
		}
	}
	return nil
}

func checksumFor(sums map[string]string, g ggufModel) string {
	if s := sums[g.name]; s != "" {
		return strings.ToLower(s)
	}
	for _, a := range g.aliases {
		if s := sums[a]; s != "" {
			return strings.ToLower(s)
		}
	}
	return ""
}
