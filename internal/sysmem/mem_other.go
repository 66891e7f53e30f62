//go:build !linux && !darwin

package sysmem

import (
	"errors"
	"os/exec"
	"runtime"
)

func readInfo() (Info, error) {
	return Info{}, errors.New("memory probe not supported on " + runtime.GOOS)
}

func detectGPU() bool {
	_, err := exec.LookPath("nvidia-smi")
	return err == nil
}
