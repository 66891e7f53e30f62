package download

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"modelhub/internal/common/fsutil"
)

// ModelFiles summarizes the finished files under one model directory.
type ModelFiles struct {
	Files     []string `json:"files"`
	TotalSize int64    `json:"total_size"`
}

// ListDownloaded scans dir for <model>/<file> entries, skipping in-progress
// ".tmp" files. A missing dir yields an empty map.
func ListDownloaded(dir string) (map[string]ModelFiles, error) {
	dir, err := fsutil.ExpandHome(dir)
	if err != nil {
		return nil, err
	}
	out := map[string]ModelFiles{}
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return out, nil
		}
		return nil, err
	}
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		files, err := os.ReadDir(filepath.Join(dir, e.Name()))
		if err != nil {
			return nil, err
		}
		var mf ModelFiles
		for _, f := range files {
			if !f.Type().IsRegular() || fsutil.IsTempFile(f.Name()) {
				continue
			}
			info, err := f.Info()
			if err != nil {
				continue
			}
			mf.Files = append(mf.Files, f.Name())
			mf.TotalSize += info.Size()
		}
		if len(mf.Files) == 0 {
			continue
		}
		sort.Strings(mf.Files)
		out[e.Name()] = mf
	}
	return out, nil
}

// inFlight counts, per absolute temp path, the Downloads in this process that
// are writing it.
var inFlight = struct {
	sync.Mutex
	paths map[string]int
}{paths: map[string]int{}}

// claimTemp marks p as owned by a running transfer until the returned func
// is called.
func claimTemp(p string) func() {
	key := absPath(p)
	inFlight.Lock()
	inFlight.paths[key]++
	inFlight.Unlock()
	return func() {
		inFlight.Lock()
		if inFlight.paths[key]--; inFlight.paths[key] <= 0 {
			delete(inFlight.paths, key)
		}
		inFlight.Unlock()
	}
}

func tempInUse(p string) bool {
	inFlight.Lock()
	defer inFlight.Unlock()
	return inFlight.paths[absPath(p)] > 0
}

func absPath(p string) string {
	if a, err := filepath.Abs(p); err == nil {
		return a
	}
	return filepath.Clean(p)
}

// CleanupTempFiles removes orphaned ".tmp" files anywhere under dir and
// returns how many were removed. Temp files a Download in this process is
// still writing are left alone.
func CleanupTempFiles(dir string) (int, error) {
	dir, err := fsutil.ExpandHome(dir)
	if err != nil {
		return 0, err
	}
	removed := 0
	err = filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, os.ErrNotExist) && p == dir {
				return filepath.SkipDir
			}
			return err
		}
		if d.IsDir() || !fsutil.IsTempFile(d.Name()) || tempInUse(p) {
			return nil
		}
		if err := os.Remove(p); err != nil {
			return err
		}
		removed++
		return nil
	})
	return removed, err
}
