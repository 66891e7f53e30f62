package manager

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"modelhub/internal/backend"
	"modelhub/internal/download"
	"modelhub/internal/registry"
)

// Defaults applied when corresponding Config fields are unset.
const (
	defaultMaxLoadedModels = 2
)

// MemoryProbe reports host resources consulted before each load.
type MemoryProbe interface {
	AvailableGB() (float64, error)
	HasGPU() bool
}

// Downloader fetches a missing weight file.
type Downloader interface {
	Download(ctx context.Context, req download.Request) (download.Result, error)
}

// Config encapsulates all tunables for Manager construction.
type Config struct {
	Registry   *registry.Registry
	Downloader Downloader
	Probe      MemoryProbe
	Publisher  EventPublisher
	Logger     zerolog.Logger

	ModelDir        string
	DefaultModel    string
	AutoDownload    bool
	MaxLoadedModels int
	// ModelTTL is the idle-unload threshold used by RunJanitor; <= 0 disables it.
	ModelTTL time.Duration
	// MinAvailableMemoryGB is reserved for the rest of the process and
	// subtracted from available memory before admission.
	MinAvailableMemoryGB float64
	ModelPaths           map[string]string
	ModelConfigs         map[string]backend.Config
	WarmupOnLoad         bool

	// Now overrides the clock; tests use it to control last_used ordering.
	Now func() time.Time
}
