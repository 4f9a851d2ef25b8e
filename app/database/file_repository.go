package database

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

var _ SeenRepository = (*FileRepository)(nil)

// FileRepository keeps one newline-delimited hash file per key inside dir.
type FileRepository struct {
	dir string
}

// NewFileRepository creates dir if needed and checks that it is writable.
func NewFileRepository(dir string) (*FileRepository, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	check, err := os.CreateTemp(dir, ".write-check-*")
	if err != nil {
		return nil, fmt.Errorf("data directory %s is not writable: %w", dir, err)
	}
	check.Close()
	os.Remove(check.Name())

	return &FileRepository{dir: dir}, nil
}

func (r *FileRepository) Load(ctx context.Context, key string) (SeenSet, error) {
	path, err := r.path(key)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return NewSeenSet(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open seen file: %w", err)
	}
	defer f.Close()

	seen := NewSeenSet()
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		if hash := strings.TrimSpace(scanner.Text()); hash != "" {
			seen.Add(hash)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read seen file: %w", err)
	}

	return seen, nil
}

func (r *FileRepository) Append(ctx context.Context, key string, hashes []string) error {
	if len(hashes) == 0 {
		return nil
	}

	path, err := r.path(key)
	if err != nil {
		return err
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("failed to open seen file: %w", err)
	}

	w := bufio.NewWriter(f)
	for _, hash := range hashes {
		w.WriteString(hash)
		w.WriteByte('\n')
	}

	if err := w.Flush(); err != nil {
		f.Close()
		return fmt.Errorf("failed to append to seen file: %w", err)
	}

	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close seen file: %w", err)
	}

	return nil
}

func (r *FileRepository) Close() error {
	return nil
}

func (r *FileRepository) path(key string) (string, error) {
	if key == "" || key == "." || key == ".." || strings.ContainsAny(key, `/\`) {
		return "", fmt.Errorf("invalid seen file key: %q", key)
	}
	return filepath.Join(r.dir, key), nil
}
