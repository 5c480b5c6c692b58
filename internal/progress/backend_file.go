package progress

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// FileBackend stores the slot as a single JSON file. Writes go through a
// temporary file and a rename so readers never observe a partial record.
type FileBackend struct {
	path string
}

// NewFileBackend creates a file slot at path. The parent directory is
// created on first write.
func NewFileBackend(path string) *FileBackend {
	return &FileBackend{path: path}
}

func (b *FileBackend) Read(_ context.Context) ([]byte, error) {
	data, err := os.ReadFile(b.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNoRecord
	}
	if err != nil {
		return nil, fmt.Errorf("read progress file: %w", err)
	}
	return data, nil
}

func (b *FileBackend) Write(_ context.Context, data []byte) error {
	dir := filepath.Dir(b.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create progress dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".progress-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp progress file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) // no-op after a successful rename

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp progress file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync temp progress file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp progress file: %w", err)
	}
	if err := os.Rename(tmpName, b.path); err != nil {
		return fmt.Errorf("replace progress file: %w", err)
	}
	return nil
}

func (b *FileBackend) Delete(_ context.Context) error {
	if err := os.Remove(b.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove progress file: %w", err)
	}
	return nil
}
