package manager

import (
	"errors"
	"fmt"

	"modelhub/internal/backend"
	"modelhub/internal/download"
	"modelhub/internal/registry"
)

// notLoadedError is returned by GetModel with autoLoad=false on a cache miss.
type notLoadedError struct{ name string }

func (e notLoadedError) Error() string { return "model not loaded: " + e.name }

// IsNotLoaded reports whether err indicates a cache miss without auto-load.
func IsNotLoaded(err error) bool {
	var e notLoadedError
	return errors.As(err, &e)
}

// insufficientMemoryError rejects a load whose declared minimum exceeds the
// memory available after the configured reserve.
type insufficientMemoryError struct {
	name        string
	requiredGB  float64
	availableGB float64
}

func (e insufficientMemoryError) Error() string {
	return fmt.Sprintf("insufficient memory for %s: requires %.2f GB, %.2f GB available", e.name, e.requiredGB, e.availableGB)
}

// IsInsufficientMemory reports whether err is a memory admission rejection.
func IsInsufficientMemory(err error) bool {
	var e insufficientMemoryError
	return errors.As(err, &e)
}

// gpuRequiredError rejects a GPU-only model on a host without a GPU.
type gpuRequiredError struct{ name string }

func (e gpuRequiredError) Error() string { return "model requires a GPU and none is available: " + e.name }

// IsGPURequired reports whether err is a GPU admission rejection.
func IsGPURequired(err error) bool {
	var e gpuRequiredError
	return errors.As(err, &e)
}

// loadError wraps a failure to obtain or initialize a model's weights.
type loadError struct {
	name string
	err  error
}

func (e loadError) Error() string { return fmt.Sprintf("load %s: %v", e.name, e.err) }
func (e loadError) Unwrap() error { return e.err }

// IsLoadError reports whether err is a load failure. The backend cause stays
// reachable through errors.Is/As.
func IsLoadError(err error) bool {
	var e loadError
	return errors.As(err, &e)
}

// configError is a caller or configuration input error.
type configError struct{ msg string }

func (e configError) Error() string { return "configuration error: " + e.msg }

// IsConfigError reports whether err is a configuration error, including the
// downloader's refusal to fetch without a checksum.
func IsConfigError(err error) bool {
	var e configError
	return errors.As(err, &e) || download.IsConfigError(err)
}

// IsModelNotFound reports whether err indicates a name absent from the registry.
func IsModelNotFound(err error) bool { return registry.IsNotFound(err) }

// IsDownloadFailed reports whether err carries a downloader failure.
func IsDownloadFailed(err error) bool { return download.IsDownloadError(err) }

// IsWeightFileMissing reports whether a load failed because no weight file
// could be found or fetched.
func IsWeightFileMissing(err error) bool { return errors.Is(err, backend.ErrWeightFileNotFound) }

// ErrClosed is returned by loads attempted after Shutdown.
var ErrClosed = errors.New("manager is shut down")
