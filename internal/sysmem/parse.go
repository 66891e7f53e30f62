package sysmem

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// parseMeminfo reads /proc/meminfo formatted input. MemAvailable is preferred;
// older kernels without it fall back to MemFree+Buffers+Cached.
func parseMeminfo(r io.Reader) (Info, error) {
	var totalKB, availKB, freeKB, buffersKB, cachedKB int64
	haveAvail := false
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		fields := strings.Fields(sc.Text())
		if len(fields) < 2 {
			continue
		}
		v, err := strconv.ParseInt(fields[1], 10, 64)
		if err != nil {
			continue
		}
		switch strings.TrimSuffix(fields[0], ":") {
		case "MemTotal":
			totalKB = v
		case "MemAvailable":
			availKB = v
			haveAvail = true
		case "MemFree":
			freeKB = v
		case "Buffers":
			buffersKB = v
		case "Cached":
			cachedKB = v
		}
	}
	if err := sc.Err(); err != nil {
		return Info{}, fmt.Errorf("read meminfo: %w", err)
	}
	if totalKB == 0 {
		return Info{}, fmt.Errorf("meminfo: MemTotal missing")
	}
	if !haveAvail {
		availKB = freeKB + buffersKB + cachedKB
	}
	return Info{TotalBytes: totalKB * 1024, AvailableBytes: availKB * 1024}, nil
}

// parseVMStat sums free and inactive pages from vm_stat output.
func parseVMStat(out string) int64 {
	var free, inactive int64
	pageSize := int64(4096)
	for _, line := range strings.Split(out, "\n") {
		fields := strings.Fields(line)
		switch {
		case strings.HasPrefix(line, "Pages free:") && len(fields) >= 3:
			free, _ = strconv.ParseInt(strings.TrimSuffix(fields[2], "."), 10, 64)
		case strings.HasPrefix(line, "Pages inactive:") && len(fields) >= 3:
			inactive, _ = strconv.ParseInt(strings.TrimSuffix(fields[2], "."), 10, 64)
		case strings.Contains(line, "page size of") && len(fields) >= 8:
			if n, err := strconv.ParseInt(fields[7], 10, 64); err == nil {
				pageSize = n
			}
		}
	}
	return (free + inactive) * pageSize
}
