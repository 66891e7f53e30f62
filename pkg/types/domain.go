package types

// Model describes a registered model in the catalog.
type Model struct {
	// Canonical registry name.
	// example: qwen2.5-coder-1.5b
	Name string `json:"name"`
	// Human-friendly name.
	// example: Qwen2.5 Coder 1.5B Instruct (Q4_K_M)
	DisplayName string   `json:"display_name,omitempty"`
	Description string   `json:"description,omitempty"`
	Version     string   `json:"version,omitempty"`
	Aliases     []string `json:"aliases,omitempty"`
	Tags        []string `json:"tags,omitempty"`
	// On-disk weight format.
	// example: gguf
	Format string `json:"format,omitempty"`
	// Download source, when the model can be fetched on demand.
	DownloadURL string `json:"download_url,omitempty"`
	// True when a weight file for this model is already on disk.
	Downloaded bool `json:"downloaded"`
	// True when an instance is cached and ready.
	Loaded       bool         `json:"loaded"`
	Capabilities Capabilities `json:"capabilities"`
}

// Capabilities mirrors a backend's static hardware and language declaration.
type Capabilities struct {
	Languages        []string `json:"languages"`
	MaxContextLength int      `json:"max_context_length"`
	MinMemoryGB      float64  `json:"min_memory_gb"`
	RecommendedMemGB float64  `json:"recommended_memory_gb"`
	SupportsGPU      bool     `json:"supports_gpu"`
	RequiresGPU      bool     `json:"requires_gpu"`
	ModelSizeGB      float64  `json:"model_size_gb"`
	QuantizationBits *int     `json:"quantization_bits,omitempty"`
}

// LoadedModel is one cached, ready instance.
type LoadedModel struct {
	Name string `json:"name"`
	// example: /home/user/.modelhub/models/qwen2.5-coder-1.5b/qwen2.5-coder-1.5b-instruct-q4_k_m.gguf
	Path string `json:"path"`
	// Unix seconds.
	LoadedAt   int64  `json:"loaded_at"`
	LastUsed   int64  `json:"last_used"`
	UsageCount uint64 `json:"usage_count"`
}

// ModelHealth is the result of a one-token probe against a cached instance.
type ModelHealth struct {
	Name string `json:"name"`
	// One of healthy, unhealthy, not_loaded.
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}
