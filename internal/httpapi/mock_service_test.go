package httpapi

import (
	"context"
	"time"

	"modelhub/internal/backend"
	"modelhub/internal/download"
	"modelhub/internal/manager"
	"modelhub/internal/registry"
	"modelhub/pkg/types"
)

// mockService is a scripted Service for handler tests.
type mockService struct {
	models     []types.Model
	lastQuery  *registry.Query
	loaded     []types.LoadedModel
	loadErr    error
	loadPath   string
	unloadOK   bool
	defaultErr error
	def        string
	genErr     error
	genBlock   bool
	genParams  backend.GenerateParams
	ttl        time.Duration
	cleanedTTL time.Duration
	modelDir   string
	sanity     manager.SanityReport
	ready      bool
}

func (m *mockService) ListModels() []types.Model { return m.models }

func (m *mockService) FindModels(q registry.Query) []types.Model {
	m.lastQuery = &q
	return nil
}

func (m *mockService) ListLoaded() []types.LoadedModel { return m.loaded }

func (m *mockService) LoadModel(ctx context.Context, name, path string) (backend.Backend, error) {
	m.loadPath = path
	if m.loadErr != nil {
		return nil, m.loadErr
	}
	m.loaded = append(m.loaded, types.LoadedModel{Name: name, Path: path})
	return nil, nil
}

func (m *mockService) UnloadModel(name string) bool { return m.unloadOK }

func (m *mockService) GetModelHealth(ctx context.Context, name string) types.ModelHealth {
	return types.ModelHealth{Name: name, Status: "not_loaded"}
}

func (m *mockService) CheckAllHealth(ctx context.Context) []types.ModelHealth {
	return []types.ModelHealth{}
}

func (m *mockService) SwitchDefault(name string) error {
	if m.defaultErr != nil {
		return m.defaultErr
	}
	m.def = name
	return nil
}

func (m *mockService) DefaultModel() string { return m.def }

func (m *mockService) Generate(ctx context.Context, name, prompt string, params backend.GenerateParams) (string, string, error) {
	m.genParams = params
	if m.genBlock {
		<-ctx.Done()
		return "", "", ctx.Err()
	}
	if m.genErr != nil {
		return "", "", m.genErr
	}
	return "mock", prompt, nil
}

func (m *mockService) Translate(ctx context.Context, name, instruction, codeContext string) (string, string, error) {
	if m.genErr != nil {
		return "", "", m.genErr
	}
	return "mock", "// " + instruction, nil
}

func (m *mockService) CleanupIdle(ttl time.Duration) int {
	m.cleanedTTL = ttl
	return 1
}

func (m *mockService) TTL() time.Duration                { return m.ttl }
func (m *mockService) SanityCheck() manager.SanityReport { return m.sanity }
func (m *mockService) Ready() bool                       { return m.ready }

func (m *mockService) CleanupTempFiles() (int, error) {
	return download.CleanupTempFiles(m.modelDir)
}

func (m *mockService) Status() types.StatusResponse {
	return types.StatusResponse{DefaultModel: m.def, MaxLoadedModels: 2}
}
