package backend

import (
	"errors"
	"fmt"
)

// ErrNotInitialized is returned by Generate before Initialize or after Shutdown.
var ErrNotInitialized = errors.New("backend not initialized")

// ErrWeightFileNotFound is returned by Initialize when the weight path is missing.
var ErrWeightFileNotFound = errors.New("weight file not found")

// ErrAlreadyInitialized may be returned by backends that reject a second Initialize.
var ErrAlreadyInitialized = errors.New("backend already initialized")

// LoadFailedError wraps a backend-specific failure raised while loading weights.
type LoadFailedError struct {
	Path string
	Err  error
}

func (e *LoadFailedError) Error() string {
	return fmt.Sprintf("load %s: %v", e.Path, e.Err)
}

func (e *LoadFailedError) Unwrap() error { return e.Err }

// IsLoadFailed reports whether err wraps a *LoadFailedError.
func IsLoadFailed(err error) bool {
	var lf *LoadFailedError
	return errors.As(err, &lf)
}
