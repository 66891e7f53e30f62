//go:build !llama

package llamacpp

import (
	"context"
	"errors"

	"modelhub/internal/backend"
)

// llamaBuilt indicates this binary was compiled with real llama support.
const llamaBuilt = false

var errNotBuilt = errors.New("llama support not built (missing 'llama' build tag)")

// session is never constructed in the stub build.
type session struct{}

func openSession(path string, ctxSize, threads, gpuLayers int) (*session, error) {
	return nil, errNotBuilt
}

func (s *session) predict(ctx context.Context, prompt string, params backend.GenerateParams, threads int) (string, error) {
	return "", errNotBuilt
}

func (s *session) close() {}
