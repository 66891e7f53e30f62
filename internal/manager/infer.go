package manager

import (
	"context"

	"modelhub/internal/backend"
)

// Generate obtains (auto-loading) a model and runs one generation on it.
// It returns the canonical model name alongside the text.
func (m *Manager) Generate(ctx context.Context, name, prompt string, params backend.GenerateParams) (string, string, error) {
	b, err := m.GetModel(ctx, name, true)
	if err != nil {
		generateTotal.WithLabelValues("generate", "unavailable").Inc()
		return "", "", err
	}
	out, err := b.Generate(ctx, prompt, params)
	if err != nil {
		generateTotal.WithLabelValues("generate", "error").Inc()
		return "", "", err
	}
	generateTotal.WithLabelValues("generate", "ok").Inc()
	return b.Metadata().Name, out, nil
}

// Translate obtains (auto-loading) a model and turns an instruction into code.
func (m *Manager) Translate(ctx context.Context, name, instruction, codeContext string) (string, string, error) {
	b, err := m.GetModel(ctx, name, true)
	if err != nil {
		generateTotal.WithLabelValues("translate", "unavailable").Inc()
		return "", "", err
	}
	out, err := b.TranslateInstruction(ctx, instruction, codeContext)
	if err != nil {
		generateTotal.WithLabelValues("translate", "error").Inc()
		return "", "", err
	}
	generateTotal.WithLabelValues("translate", "ok").Inc()
	return b.Metadata().Name, out, nil
}
