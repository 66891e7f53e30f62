package download

import (
	"errors"
	"fmt"
)

// ErrChecksumMismatch is wrapped by *Error when the digest of a completed
// transfer differs from the expected one.
var ErrChecksumMismatch = errors.New("checksum mismatch")

// Error reports a failed download: transport failure after the last retry, or
// a checksum mismatch (Expected/Actual set).
type Error struct {
	URL      string
	Attempts int
	Expected string
	Actual   string
	Err      error
}

func (e *Error) Error() string {
	if errors.Is(e.Err, ErrChecksumMismatch) {
		return fmt.Sprintf("download %s: checksum mismatch: expected %s, got %s", e.URL, e.Expected, e.Actual)
	}
	if e.Attempts > 0 {
		return fmt.Sprintf("download %s failed after %d attempt(s): %v", e.URL, e.Attempts, e.Err)
	}
	return fmt.Sprintf("download %s: %v", e.URL, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// IsDownloadError reports whether err wraps a *Error.
func IsDownloadError(err error) bool {
	var de *Error
	return errors.As(err, &de)
}

// IsChecksumMismatch reports whether err is a checksum mismatch.
func IsChecksumMismatch(err error) bool {
	return errors.Is(err, ErrChecksumMismatch)
}

// ConfigError is a caller input error; it is never retried.
type ConfigError struct{ Msg string }

func (e *ConfigError) Error() string { return "download config: " + e.Msg }

// IsConfigError reports whether err wraps a *ConfigError.
func IsConfigError(err error) bool {
	var ce *ConfigError
	return errors.As(err, &ce)
}

// statusError is an unexpected HTTP status from the remote source.
type statusError struct{ code int }

func (e statusError) Error() string { return fmt.Sprintf("unexpected status %d", e.code) }

// retryable reports whether a request with this status is worth repeating.
func (e statusError) retryable() bool {
	return e.code >= 500 || e.code == 408 || e.code == 429
}
