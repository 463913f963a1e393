// Package fsutil provides the directory handling shared by the persistent
// index backends: population checks and atomic directory publication and replacement.
package fsutil

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/custodia-labs/manualqa/internal/core/domain"
	"github.com/custodia-labs/manualqa/internal/logger"
)

// IsPopulated reports whether dir exists and contains at least one entry.
// A missing directory is not an error.
func IsPopulated(dir string) (bool, error) {
	entries, err := os.ReadDir(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("reading %s: %w", dir, err)
	}
	return len(entries) > 0, nil
}

// WriteDir builds dir by calling write on a sibling temporary directory and
// renaming it into place. If dir is already populated, before or after the
// write, the temporary directory is discarded and domain.ErrIndexExists is
// returned; an existing empty dir is replaced.
func WriteDir(dir string, write func(tmp string) error) error {
	parent := filepath.Dir(dir)
	if err := os.MkdirAll(parent, 0o700); err != nil {
		return fmt.Errorf("creating %s: %w", parent, err)
	}

	if populated, err := IsPopulated(dir); err != nil {
		return err
	} else if populated {
		return domain.ErrIndexExists
	}

	tmp, err := os.MkdirTemp(parent, "."+filepath.Base(dir)+".tmp-*")
	if err != nil {
		return fmt.Errorf("creating temp dir: %w", err)
	}
	if err := write(tmp); err != nil {
		os.RemoveAll(tmp)
		return err
	}

	// Another process may have published while we were writing.
	if populated, err := IsPopulated(dir); err != nil || populated {
		os.RemoveAll(tmp)
		if err != nil {
			return err
		}
		return domain.ErrIndexExists
	}
	// Rename cannot replace a directory on every platform.
	if err := os.Remove(dir); err != nil && !errors.Is(err, fs.ErrNotExist) {
		os.RemoveAll(tmp)
		if populated, _ := IsPopulated(dir); populated {
			return domain.ErrIndexExists
		}
		return fmt.Errorf("removing empty %s: %w", dir, err)
	}
	if err := os.Rename(tmp, dir); err != nil {
		os.RemoveAll(tmp)
		if populated, _ := IsPopulated(dir); populated {
			return domain.ErrIndexExists
		}
		return fmt.Errorf("publishing %s: %w", dir, err)
	}
	return nil
}

// ReplaceDir publishes a new version of dir. write fills an empty staging
// directory next to dir; only once it succeeds is the current dir moved aside
// and the staged one renamed into place. A failed write leaves dir untouched.
func ReplaceDir(dir string, write func(staged string) error) error {
	parent := filepath.Dir(dir)
	if err := os.MkdirAll(parent, 0o700); err != nil {
		return fmt.Errorf("creating %s: %w", parent, err)
	}

	staged, err := os.MkdirTemp(parent, "."+filepath.Base(dir)+".next-*")
	if err != nil {
		return fmt.Errorf("creating staging dir: %w", err)
	}
	if err := write(staged); err != nil {
		os.RemoveAll(staged)
		return err
	}

	old := fmt.Sprintf("%s.old-%d", dir, time.Now().UnixNano())
	hadOld := true
	if err := os.Rename(dir, old); err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			os.RemoveAll(staged)
			return fmt.Errorf("retiring %s: %w", dir, err)
		}
		hadOld = false
	}
	if err := os.Rename(staged, dir); err != nil {
		if hadOld {
			if restoreErr := os.Rename(old, dir); restoreErr != nil {
				logger.Error("Restoring %s from %s failed: %v", dir, old, restoreErr)
			}
		}
		os.RemoveAll(staged)
		return fmt.Errorf("publishing %s: %w", dir, err)
	}
	if hadOld {
		if err := os.RemoveAll(old); err != nil {
			logger.Warn("Removing retired index %s: %v", old, err)
		}
	}
	return nil
}
