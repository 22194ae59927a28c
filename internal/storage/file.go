package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/Iron-Ham/watchdesk/internal/errors"
)

// FileStore keeps one file per key inside a single directory.
// It is safe for concurrent use within a process; writes are atomic so a
// concurrent reader in another process never observes a partial value.
type FileStore struct {
	baseDir string
	name    string
	mu      sync.RWMutex
}

// NewFileStore creates a FileStore rooted at baseDir, creating it if needed.
func NewFileStore(baseDir string) (*FileStore, error) {
	return newFileStore(baseDir, "file")
}

func newFileStore(baseDir, name string) (*FileStore, error) {
	if err := os.MkdirAll(baseDir, 0o700); err != nil {
		return nil, errors.NewStorageError("failed to create store directory", err).WithBackend(name)
	}
	return &FileStore{baseDir: baseDir, name: name}, nil
}

// Dir returns the directory holding the store's files.
func (fs *FileStore) Dir() string {
	return fs.baseDir
}

// Name implements Store.
func (fs *FileStore) Name() string {
	return fs.name
}

// Get implements Store.
func (fs *FileStore) Get(_ context.Context, key string) (string, error) {
	path, err := fs.keyToPath(key)
	if err != nil {
		return "", err
	}

	fs.mu.RLock()
	defer fs.mu.RUnlock()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", ErrNotFound
		}
		return "", errors.NewStorageError("failed to read value", err).WithKey(key).WithBackend(fs.name)
	}
	return string(data), nil
}

// Set implements Store.
func (fs *FileStore) Set(_ context.Context, key, value string) error {
	path, err := fs.keyToPath(key)
	if err != nil {
		return err
	}

	fs.mu.Lock()
	defer fs.mu.Unlock()

	if err := atomicWriteFile(path, []byte(value), 0o600); err != nil {
		return errors.NewStorageError("failed to write value", err).WithKey(key).WithBackend(fs.name)
	}
	return nil
}

// Remove implements Store.
func (fs *FileStore) Remove(_ context.Context, key string) error {
	path, err := fs.keyToPath(key)
	if err != nil {
		return err
	}

	fs.mu.Lock()
	defer fs.mu.Unlock()

	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return errors.NewStorageError("failed to remove value", err).WithKey(key).WithBackend(fs.name)
	}
	return nil
}

// Keys implements Store.
func (fs *FileStore) Keys(_ context.Context) ([]string, error) {
	fs.mu.RLock()
	defer fs.mu.RUnlock()

	entries, err := os.ReadDir(fs.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errors.NewStorageError("failed to list keys", err).WithBackend(fs.name)
	}

	keys := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || isTempName(e.Name()) {
			continue
		}
		keys = append(keys, e.Name())
	}
	sort.Strings(keys)
	return keys, nil
}

// Clear implements Store.
func (fs *FileStore) Clear(ctx context.Context) error {
	keys, err := fs.Keys(ctx)
	if err != nil {
		return err
	}
	for _, k := range keys {
		if err := fs.Remove(ctx, k); err != nil {
			return err
		}
	}
	return nil
}

func (fs *FileStore) keyToPath(key string) (string, error) {
	if err := ValidateKey(key); err != nil {
		return "", err
	}
	return filepath.Join(fs.baseDir, key), nil
}

// ValidateKey rejects keys that would escape a flat namespace.
func ValidateKey(key string) error {
	if key == "" || key == "." || key == ".." ||
		strings.ContainsAny(key, `/\`) || isTempName(key) {
		return fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	return nil
}

func isTempName(name string) bool {
	return strings.HasPrefix(name, ".tmp-")
}

// atomicWriteFile writes data to a temporary file in the target directory,
// syncs it, then renames it over path.
func atomicWriteFile(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)

	tmpFile, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	success := false
	defer func() {
		if !success {
			os.Remove(tmpPath)
		}
	}()

	if _, err := tmpFile.Write(data); err != nil {
		tmpFile.Close()
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmpFile.Sync(); err != nil {
		tmpFile.Close()
		return fmt.Errorf("failed to sync temp file: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Chmod(tmpPath, perm); err != nil {
		return fmt.Errorf("failed to set permissions: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("failed to rename temp file: %w", err)
	}

	success = true
	return nil
}

// WriteFileAtomic exposes the temp-file-and-rename write for callers that
// produce files outside a Store, such as downloaded archives.
func WriteFileAtomic(path string, data []byte, perm os.FileMode) error {
	return atomicWriteFile(path, data, perm)
}
