// Package executor applies a resolution to the filesystem.
package executor

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"syscall"

	log "github.com/sirupsen/logrus"

	"github.com/elgorro/DeleteDuplicatedMediaFiles/internal/dedup"
)

// Mode selects what happens to the non-keeper members of a group.
type Mode int

const (
	// ModeDryRun records intended actions only; the filesystem is
	// untouched.
	ModeDryRun Mode = iota
	// ModeDelete removes duplicates permanently.
	ModeDelete
	// ModeTrash relocates duplicates into a trash directory.
	ModeTrash
)

func (m Mode) String() string {
	switch m {
	case ModeDelete:
		return "delete"
	case ModeTrash:
		return "trash"
	default:
		return "dry-run"
	}
}

// Result counts the outcome of applying one resolution.
type Result struct {
	Removed    int
	BytesFreed int64
	Errors     int
}

// Executor applies resolutions in a fixed mode.
type Executor struct {
	mode     Mode
	trashDir string
}

// New creates an Executor. For ModeTrash the trash directory is created
// up front so the first removal cannot fail on a missing destination.
func New(mode Mode, trashDir string) (*Executor, error) {
	if mode == ModeTrash {
		if trashDir == "" {
			return nil, errors.New("trash mode requires a trash directory")
		}

		if err := os.MkdirAll(trashDir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create trash directory: %w", err)
		}
	}

	return &Executor{mode: mode, trashDir: trashDir}, nil
}

// Apply processes every removal of the resolution. The keeper is never
// touched. A file that already vanished counts as removed (the desired
// state holds); permission and I/O failures are logged and counted but
// never abort the remaining work.
func (e *Executor) Apply(res dedup.Resolution) Result {
	var out Result

	for _, victim := range res.Removals {
		fields := log.Fields{"path": victim.Path, "keeper": res.Keeper.Path}

		switch e.mode {
		case ModeDryRun:
			log.WithFields(fields).Info("would remove duplicate")

		case ModeDelete:
			if err := os.Remove(victim.Path); err != nil && !os.IsNotExist(err) {
				log.WithError(err).WithFields(fields).Error("failed to remove duplicate")
				out.Errors++
				continue
			}
			log.WithFields(fields).Info("removed duplicate")

		case ModeTrash:
			if err := e.moveToTrash(victim.Path); err != nil {
				log.WithError(err).WithFields(fields).Error("failed to move duplicate to trash")
				out.Errors++
				continue
			}
			log.WithFields(fields).Info("moved duplicate to trash")
		}

		out.Removed++
		out.BytesFreed += victim.Size
	}

	return out
}

// moveToTrash relocates path into the trash directory, appending a
// numeric suffix on name collision so no trash entry is overwritten.
// A source that already vanished is a no-op.
func (e *Executor) moveToTrash(path string) error {
	if _, err := os.Lstat(path); os.IsNotExist(err) {
		return nil
	}

	dest, err := e.trashName(filepath.Base(path))
	if err != nil {
		return err
	}

	if err := os.Rename(path, dest); err != nil {
		// Rename fails across filesystems; fall back to copy and remove.
		if errors.Is(err, syscall.EXDEV) {
			return moveCrossDevice(path, dest)
		}
		return err
	}

	return nil
}

// trashName picks a destination file name that does not collide with an
// existing trash entry.
func (e *Executor) trashName(base string) (string, error) {
	ext := filepath.Ext(base)
	stem := strings.TrimSuffix(base, ext)

	candidate := filepath.Join(e.trashDir, base)
	for n := 1; ; n++ {
		if _, err := os.Lstat(candidate); os.IsNotExist(err) {
			return candidate, nil
		} else if err != nil {
			return "", err
		}

		candidate = filepath.Join(e.trashDir, fmt.Sprintf("%s_%d%s", stem, n, ext))
	}
}

func moveCrossDevice(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}

	if err := out.Close(); err != nil {
		return err
	}

	return os.Remove(src)
}
