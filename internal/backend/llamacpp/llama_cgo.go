//go:build llama

package llamacpp

import (
	"context"
	"errors"

	llama "github.com/go-skynet/go-llama.cpp"

	"modelhub/internal/backend"
)

// llamaBuilt indicates this binary was compiled with real llama support.
const llamaBuilt = true

// session owns the loaded model.
type session struct {
	model *llama.LLama
}

func openSession(path string, ctxSize, threads, gpuLayers int) (*session, error) {
	mo := []llama.ModelOption{
		llama.SetContext(ctxSize),
	}
	if gpuLayers > 0 {
		mo = append(mo, llama.SetGPULayers(gpuLayers))
	}
	m, err := llama.New(path, mo...)
	if err != nil {
		return nil, err
	}
	return &session{model: m}, nil
}

func (s *session) predict(ctx context.Context, prompt string, params backend.GenerateParams, threads int) (string, error) {
	if s.model == nil {
		return "", errors.New("llama model not initialized")
	}
	// Stop generation when the caller goes away.
	s.model.SetTokenCallback(func(string) bool {
		return ctx.Err() == nil
	})
	text, err := s.model.Predict(prompt, predictOptions(params, threads)...)
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", err
	}
	return text, nil
}

func (s *session) close() {
	if s.model != nil {
		s.model.Free()
		s.model = nil
	}
}

func zn(v, def int) int {
	if v > 0 {
		return v
	}
	return def
}

func zf(v float64, def float32) float32 {
	if v > 0 {
		return float32(v)
	}
	return def
}

// predictOptions converts sampling params into go-llama.cpp options.
func predictOptions(params backend.GenerateParams, threads int) []llama.PredictOption {
	po := []llama.PredictOption{
		llama.SetTokens(max(1, params.MaxTokens)),
		llama.SetThreads(max(1, threads)),
		llama.SetTopP(zf(params.TopP, llama.DefaultOptions.TopP)),
		llama.SetTopK(zn(params.TopK, llama.DefaultOptions.TopK)),
		llama.SetTemperature(zf(params.Temperature, llama.DefaultOptions.Temperature)),
	}
	if len(params.Stop) > 0 {
		po = append(po, llama.SetStopWords(params.Stop...))
	}
	return po
}
