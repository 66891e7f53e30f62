//go:build darwin

package sysmem

import (
	"fmt"
	"os/exec"
	"runtime"
	"strconv"
	"strings"
)

func readInfo() (Info, error) {
	out, err := exec.Command("sysctl", "-n", "hw.memsize").Output()
	if err != nil {
		return Info{}, fmt.Errorf("sysctl hw.memsize: %w", err)
	}
	total, err := strconv.ParseInt(strings.TrimSpace(string(out)), 10, 64)
	if err != nil {
		return Info{}, fmt.Errorf("parse hw.memsize: %w", err)
	}
	vm, err := exec.Command("vm_stat").Output()
	if err != nil {
		return Info{}, fmt.Errorf("vm_stat: %w", err)
	}
	return Info{TotalBytes: total, AvailableBytes: parseVMStat(string(vm))}, nil
}

// Apple silicon always exposes a Metal GPU.
func detectGPU() bool { return runtime.GOARCH == "arm64" }
