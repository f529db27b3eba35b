package encode

import (
	"fmt"
	"os"
	"path/filepath"
)

// WriteFile stores data at path atomically: it writes a temporary file in
// the destination directory and renames it into place only after a
// successful sync, so readers never observe a partial file.
func WriteFile(path string, data []byte) (err error) {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("%w: create temp file in %s: %w", ErrEncoding, dir, err)
	}
	name := tmp.Name()
	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = os.Remove(name)
		}
	}()

	if _, err = tmp.Write(data); err != nil {
		return fmt.Errorf("%w: write %s: %w", ErrEncoding, name, err)
	}
	if err = tmp.Sync(); err != nil {
		return fmt.Errorf("%w: sync %s: %w", ErrEncoding, name, err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("%w: close %s: %w", ErrEncoding, name, err)
	}
	if err = os.Chmod(name, 0o644); err != nil {
		return fmt.Errorf("%w: chmod %s: %w", ErrEncoding, name, err)
	}
	if err = os.Rename(name, path); err != nil {
		return fmt.Errorf("%w: rename into %s: %w", ErrEncoding, path, err)
	}

	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("%w: file not created: %w", ErrEncoding, err)
	}
	if info.Size() != int64(len(data)) {
		return fmt.Errorf("%w: %s has %d bytes, want %d", ErrEncoding, path, info.Size(), len(data))
	}
	return nil
}
