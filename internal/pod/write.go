package pod

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// CanOverwrite reports whether path may be replaced: it either does not
// exist or begins with the generated-file marker. Hand-written files are
// never clobbered.
func CanOverwrite(path string) (bool, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return true, nil
		}
		return false, err
	}
	return IsGenerated(content), nil
}

// WriteFile writes data to path atomically: the content lands in a
// temporary file in the same directory and is renamed into place, so a
// failed write never leaves a partial file. A permission failure is
// recovered once by making the containing directory writable for the
// duration of the write, then restoring its mode.
func WriteFile(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", dir, err)
	}

	err := writeAtomic(dir, path, data)
	if err == nil || !errors.Is(err, os.ErrPermission) {
		return err
	}

	// Retry exactly once with the directory temporarily writable.
	info, statErr := os.Stat(dir)
	if statErr != nil {
		return err
	}
	orig := info.Mode().Perm()
	if chErr := os.Chmod(dir, orig|0o700); chErr != nil {
		return err
	}
	defer func() { _ = os.Chmod(dir, orig) }()
	return writeAtomic(dir, path, data)
}

func writeAtomic(dir, path string, data []byte) error {
	tmp, err := os.CreateTemp(dir, ".podherit-*")
	if err != nil {
		return fmt.Errorf("creating temp file in %s: %w", dir, err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("writing %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("writing %s: %w", path, err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("writing %s: %w", path, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("replacing %s: %w", path, err)
	}
	return nil
}
