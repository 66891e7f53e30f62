// Package backend defines the contract every pluggable model backend satisfies
// so the manager can admit, load, drive and release them uniformly.
//
// A backend is constructed by a Factory (no I/O), loaded by Initialize, used
// through Generate/TranslateInstruction and released by Shutdown. Metadata and
// Capabilities are static and callable before Initialize.
package backend

import (
	"context"
	"strings"
)

// Format is the on-disk format of a weight file.
type Format string

const (
	FormatGGUF        Format = "gguf"
	FormatGGML        Format = "ggml"
	FormatSafetensors Format = "safetensors"
	FormatPyTorch     Format = "pytorch"
	FormatONNX        Format = "onnx"
)

// Valid reports whether f is one of the known formats.
func (f Format) Valid() bool {
	switch f {
	case FormatGGUF, FormatGGML, FormatSafetensors, FormatPyTorch, FormatONNX:
		return true
	}
	return false
}

// Capabilities declares what a backend needs and what it can do.
type Capabilities struct {
	SupportedLanguages []string `json:"supported_languages" yaml:"supported_languages"`
	MaxContextLength   int      `json:"max_context_length" yaml:"max_context_length"`
	MinMemoryGB        float64  `json:"min_memory_gb" yaml:"min_memory_gb"`
	RecommendedMemGB   float64  `json:"recommended_memory_gb" yaml:"recommended_memory_gb"`
	SupportsGPU        bool     `json:"supports_gpu" yaml:"supports_gpu"`
	RequiresGPU        bool     `json:"requires_gpu" yaml:"requires_gpu"`
	ModelSizeGB        float64  `json:"model_size_gb" yaml:"model_size_gb"`
	// Optional fields; nil means unknown.
	QuantizationBits *int     `json:"quantization_bits,omitempty" yaml:"quantization_bits,omitempty"`
	TokensPerSecCPU  *float64 `json:"tokens_per_second_cpu,omitempty" yaml:"tokens_per_second_cpu,omitempty"`
	TokensPerSecGPU  *float64 `json:"tokens_per_second_gpu,omitempty" yaml:"tokens_per_second_gpu,omitempty"`
}

// SupportsLanguage reports whether lang is listed, ignoring case.
func (c Capabilities) SupportsLanguage(lang string) bool {
	for _, l := range c.SupportedLanguages {
		if strings.EqualFold(l, lang) {
			return true
		}
	}
	return false
}

// Metadata describes a backend for humans and for the downloader.
type Metadata struct {
	Name            string   `json:"name" yaml:"name"`
	DisplayName     string   `json:"display_name" yaml:"display_name"`
	Description     string   `json:"description" yaml:"description"`
	Version         string   `json:"version" yaml:"version"`
	Author          string   `json:"author" yaml:"author"`
	License         string   `json:"license" yaml:"license"`
	Homepage        string   `json:"homepage,omitempty" yaml:"homepage,omitempty"`
	DownloadURL     string   `json:"download_url,omitempty" yaml:"download_url,omitempty"`
	SHA256          string   `json:"sha256,omitempty" yaml:"sha256,omitempty"`
	Tags            []string `json:"tags" yaml:"tags"`
	Format          Format   `json:"format" yaml:"format"`
	FilenamePattern string   `json:"filename_pattern" yaml:"filename_pattern"`
}

// Descriptor bundles the static facts about a backend so callers can inspect
// it without constructing an instance.
type Descriptor struct {
	Metadata     Metadata     `json:"metadata"`
	Capabilities Capabilities `json:"capabilities"`
}

// IsZero reports whether no descriptor was supplied.
func (d Descriptor) IsZero() bool {
	return d.Metadata.Name == "" && d.Metadata.FilenamePattern == "" &&
		len(d.Capabilities.SupportedLanguages) == 0 && d.Capabilities.MaxContextLength == 0 &&
		d.Capabilities.MinMemoryGB == 0
}

// Config is the per-model configuration handed to a Factory.
type Config map[string]any

// Options are backend-specific knobs passed to Initialize and Generate.
type Options map[string]any

// GenerateParams are sampling parameters for Generate. The contract does not
// clamp Temperature or TopP; each backend documents how it treats values
// outside its native range.
type GenerateParams struct {
	MaxTokens   int
	Temperature float64
	TopP        float64
	TopK        int
	Stop        []string
	Options     Options
}

// DefaultGenerateParams mirrors the defaults most local backends ship with.
func DefaultGenerateParams() GenerateParams {
	return GenerateParams{MaxTokens: 512, Temperature: 0.7, TopP: 0.9, TopK: 40}
}

// Backend is implemented by every model plugin.
//
// Callers obtained through the manager must never call Shutdown themselves;
// only the manager transitions an instance out of the ready state.
type Backend interface {
	Metadata() Metadata
	Capabilities() Capabilities

	// Initialize loads weights from path. It fails with ErrWeightFileNotFound
	// when path does not exist and with a *LoadFailedError for backend failures.
	Initialize(ctx context.Context, path string, opts Options) error
	// Generate fails with ErrNotInitialized before Initialize succeeds or after Shutdown.
	Generate(ctx context.Context, prompt string, params GenerateParams) (string, error)
	TranslateInstruction(ctx context.Context, instruction, codeContext string) (string, error)
	// Warmup is best effort; callers swallow its error.
	Warmup(ctx context.Context) error
	// Shutdown releases resources and is safe to call more than once.
	Shutdown() error
}

// Factory builds an uninitialized backend from per-model configuration.
type Factory func(cfg Config) (Backend, error)
