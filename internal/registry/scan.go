package registry

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"modelhub/internal/common/fsutil"
)

// FindWeightFile looks for a file matching the glob pattern, first in
// <modelDir>/<name>/ and then directly in <modelDir>. Matching is
// case-insensitive. It returns "" with a nil error when nothing matches.
func FindWeightFile(modelDir, name, pattern string) (string, error) {
	if pattern == "" {
		return "", nil
	}
	base, err := fsutil.ExpandHome(modelDir)
	if err != nil {
		return "", err
	}
	abs, err := filepath.Abs(base)
	if err != nil {
		return "", fmt.Errorf("abs path: %w", err)
	}
	for _, dir := range []string{filepath.Join(abs, name), abs} {
		p, err := scanDir(dir, pattern)
		if err != nil {
			return "", err
		}
		if p != "" {
			return p, nil
		}
	}
	return "", nil
}

// scanDir returns the lexically first regular file in dir whose name matches
// pattern. A missing directory is not an error.
func scanDir(dir, pattern string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", fmt.Errorf("read dir: %w", err)
	}
	pat := strings.ToLower(pattern)
	var hits []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		n := e.Name()
		if fsutil.IsTempFile(n) {
			continue
		}
		ok, err := filepath.Match(pat, strings.ToLower(n))
		if err != nil {
			return "", fmt.Errorf("bad filename pattern %q: %w", pattern, err)
		}
		if ok {
			hits = append(hits, filepath.Join(dir, n))
		}
	}
	if len(hits) == 0 {
		return "", nil
	}
	sort.Strings(hits)
	return hits[0], nil
}
