// Package scanner enumerates candidate media files for a run.
//
// The scan produces a deterministic, lexicographically ordered list of
// regular files. Determinism matters: group ordering and keeper selection
// downstream are defined in terms of scan order, so repeated runs over an
// unchanged tree must yield identical results.
package scanner

import (
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
)

// FileRecord describes one candidate file found during a scan.
type FileRecord struct {
	Path       string    `json:"path"`
	Size       int64     `json:"size_bytes"`
	ModifiedAt time.Time `json:"mod_time"`
}

// Options control which files a scan considers.
type Options struct {
	// Recursive descends into subdirectories. When false, only direct
	// children of the root are considered.
	Recursive bool

	// Extensions is a lowercase, dot-less allowlist (e.g. "mp3", "mkv").
	// A nil or empty set matches every file.
	Extensions map[string]struct{}

	// MinSize excludes files smaller than this many bytes.
	MinSize int64
}

// Scan walks root and returns the matching files sorted by path.
// Symbolic links are skipped so the same underlying content is never
// visited twice under two names. Per-entry errors (permissions, races
// with concurrent deletion) are logged and skipped; only an unreadable
// root is fatal.
func Scan(root string, opts Options) ([]FileRecord, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, &fs.PathError{Op: "scan", Path: root, Err: os.ErrInvalid}
	}

	var records []FileRecord

	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			log.WithError(err).WithField("path", path).Debug("skipping unreadable entry")
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if d.IsDir() {
			if !opts.Recursive && path != root {
				return filepath.SkipDir
			}
			return nil
		}

		// Regular files only; symlinks in particular are excluded.
		if !d.Type().IsRegular() {
			log.WithField("path", path).Debug("skipping non-regular file")
			return nil
		}

		if !matchExtension(path, opts.Extensions) {
			log.WithField("path", path).Debug("skipping unmatched extension")
			return nil
		}

		fi, err := d.Info()
		if err != nil {
			log.WithError(err).WithField("path", path).Debug("skipping unstattable file")
			return nil
		}

		if fi.Size() < opts.MinSize {
			return nil
		}

		records = append(records, FileRecord{
			Path:       path,
			Size:       fi.Size(),
			ModifiedAt: fi.ModTime(),
		})

		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(records, func(i, j int) bool {
		return records[i].Path < records[j].Path
	})

	return records, nil
}

// matchExtension matches the file suffix case-insensitively against the
// allowlist. An empty allowlist matches everything.
func matchExtension(path string, extensions map[string]struct{}) bool {
	if len(extensions) == 0 {
		return true
	}

	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
	if ext == "" {
		return false
	}

	_, ok := extensions[ext]
	return ok
}
