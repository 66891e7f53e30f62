//go:build linux

package sysmem

import (
	"fmt"
	"os"
)

func readInfo() (Info, error) {
	f, err := os.Open("/proc/meminfo")
	if err != nil {
		return Info{}, fmt.Errorf("open /proc/meminfo: %w", err)
	}
	defer f.Close()
	return parseMeminfo(f)
}

func detectGPU() bool {
	for _, p := range []string{"/dev/nvidia0", "/dev/nvidiactl", "/dev/kfd"} {
		if _, err := os.Stat(p); err == nil {
			return true
		}
	}
	return false
}
