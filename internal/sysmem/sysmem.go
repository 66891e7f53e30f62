// Package sysmem reports host memory and GPU presence for load admission.
package sysmem

import (
	"os"
	"strings"
)

const bytesPerGB = 1 << 30

// Info is a point-in-time memory snapshot.
type Info struct {
	TotalBytes     int64
	AvailableBytes int64
}

// AvailableGB returns available memory in gigabytes.
func (i Info) AvailableGB() float64 { return float64(i.AvailableBytes) / bytesPerGB }

// TotalGB returns installed memory in gigabytes.
func (i Info) TotalGB() float64 { return float64(i.TotalBytes) / bytesPerGB }

// Read returns the current memory snapshot for this host.
func Read() (Info, error) { return readInfo() }

// Probe is the host-backed memory and GPU source used by the manager.
type Probe struct{}

// AvailableGB returns currently available memory in gigabytes.
func (Probe) AvailableGB() (float64, error) {
	info, err := readInfo()
	if err != nil {
		return 0, err
	}
	return info.AvailableGB(), nil
}

// HasGPU reports whether a usable GPU is present.
func (Probe) HasGPU() bool { return HasGPU() }

// GPUEnv forces GPU detection on ("1", "true") or off ("0", "false").
const GPUEnv = "MODELHUB_GPU"

// HasGPU reports GPU presence, honoring GPUEnv before probing the host.
func HasGPU() bool {
	switch strings.ToLower(strings.TrimSpace(os.Getenv(GPUEnv))) {
	case "1", "true", "yes":
		return true
	case "0", "false", "no":
		return false
	}
	return detectGPU()
}
