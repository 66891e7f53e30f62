package types

// GenerateRequest is the body of POST /generate.
type GenerateRequest struct {
	// Optional model name or alias. If empty, the server default is used.
	// example: qwen-coder
	Model string `json:"model,omitempty"`
	// Required prompt text.
	Prompt string `json:"prompt"`
	// Maximum number of new tokens to generate.
	// example: 128
	MaxTokens int `json:"max_tokens,omitempty"`
	// Sampling temperature. Passed to the backend unclamped.
	// example: 0.7
	Temperature float64 `json:"temperature,omitempty"`
	// Nucleus sampling probability.
	// example: 0.9
	TopP float64 `json:"top_p,omitempty"`
	// Top-K sampling.
	// example: 40
	TopK int `json:"top_k,omitempty"`
	// Optional stop sequences.
	Stop []string `json:"stop,omitempty"`
}

// GenerateResponse is returned by POST /generate.
type GenerateResponse struct {
	Model string `json:"model"`
	Text  string `json:"text"`
}

// TranslateRequest is the body of POST /translate.
type TranslateRequest struct {
	Model string `json:"model,omitempty"`
	// Natural-language or pseudocode instruction.
	// example: reverse the list and print each element
	Instruction string `json:"instruction"`
	// Optional surrounding code.
	Context string `json:"context,omitempty"`
}

// TranslateResponse is returned by POST /translate.
type TranslateResponse struct {
	Model string `json:"model"`
	Code  string `json:"code"`
}

// LoadRequest is the optional body of POST /models/{name}/load.
type LoadRequest struct {
	// Explicit weight file path; overrides configured paths and directory scans.
	Path string `json:"path,omitempty"`
}

// DefaultRequest is the body of POST /default.
type DefaultRequest struct {
	Model string `json:"model"`
}

// ModelsResponse wraps the catalog returned by GET /models.
type ModelsResponse struct {
	Models       []Model `json:"models"`
	DefaultModel string  `json:"default_model,omitempty"`
}

// LoadedResponse wraps GET /models/loaded.
type LoadedResponse struct {
	Models []LoadedModel `json:"models"`
}

// HealthResponse wraps GET /health/models.
type HealthResponse struct {
	Models []ModelHealth `json:"models"`
}

// CleanupResponse is returned by POST /cleanup.
type CleanupResponse struct {
	// Number of idle instances unloaded.
	Unloaded int `json:"unloaded"`
	// Number of orphaned temporary download files removed.
	TempFilesRemoved int `json:"temp_files_removed"`
}

// ErrorResponse is a consistent JSON error payload.
type ErrorResponse struct {
	// example: model not found: foo
	Error string `json:"error"`
	// example: 404
	Code int `json:"code"`
}

// StatusResponse is returned by GET /status.
type StatusResponse struct {
	Loaded []LoadedModel `json:"loaded"`
	// Cache capacity.
	// example: 2
	MaxLoadedModels int    `json:"max_loaded_models"`
	DefaultModel    string `json:"default_model,omitempty"`
	// Available system memory in GB, or -1 when it cannot be probed.
	AvailableMemoryGB float64 `json:"available_memory_gb"`
	// Floor reserved for the rest of the process.
	MinAvailableMemoryGB float64 `json:"min_available_memory_gb"`
	HasGPU               bool    `json:"has_gpu"`
	AutoDownload         bool    `json:"auto_download"`
	// Idle unload threshold in minutes; 0 disables it.
	ModelTTLMinutes int    `json:"model_ttl_minutes"`
	LoadsTotal      uint64 `json:"loads_total"`
	EvictionsTotal  uint64 `json:"evictions_total"`
	// Last load error observed by the manager, if any.
	LastError      string `json:"last_error,omitempty"`
	UptimeSeconds  int64  `json:"uptime_seconds"`
	ServerTimeUnix int64  `json:"server_time_unix"`
}

// CleanupRequest is the optional body of POST /cleanup.
type CleanupRequest struct {
	// Idle threshold in minutes. Defaults to the configured TTL when omitted.
	// example: 30
	TTLMinutes *int `json:"ttl_minutes,omitempty"`
}
