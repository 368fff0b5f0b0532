package file

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/aretw0/shellbridge/pkg/domain"
)

// Registry implements ports.Registry using the local filesystem.
// Each key is a file inside BasePath; the native peer can read the port with a plain file read.
type Registry struct {
	BasePath string
}

// New creates a new Registry with the given base path.
// If basePath is empty, it defaults to "<user config dir>/shellbridge".
func New(basePath string) *Registry {
	if basePath == "" {
		basePath = DefaultPath()
	}
	return &Registry{BasePath: basePath}
}

// DefaultPath returns the per-user directory used when no path is configured.
func DefaultPath() string {
	return DefaultPathFor(domain.RegistryNamespace)
}

// DefaultPathFor returns "<user config dir>/<namespace>", or "./.<namespace>" when the
// platform has no config directory.
func DefaultPathFor(namespace string) string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "." + namespace
	}
	return filepath.Join(dir, namespace)
}

func (r *Registry) path(key string) (string, error) {
	if key == "" {
		return "", fmt.Errorf("key cannot be empty")
	}
	if strings.ContainsAny(key, `/\`) || key == "." || key == ".." {
		return "", fmt.Errorf("invalid key %q", key)
	}
	return filepath.Join(r.BasePath, key), nil
}

// Write persists the value atomically.
// It writes to a temporary file first, syncs via fsync, and then renames it to the destination.
func (r *Registry) Write(ctx context.Context, key string, value []byte) error {
	destPath, err := r.path(key)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(r.BasePath, 0755); err != nil {
		return fmt.Errorf("failed to ensure registry directory: %w", err)
	}

	// Same directory as the destination so the rename stays on one filesystem.
	tmpFile, err := os.CreateTemp(r.BasePath, ".tmp-"+key+"-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	defer func() {
		_ = tmpFile.Close()
		_ = os.Remove(tmpPath) // no-op once renamed
	}()

	if _, err := tmpFile.Write(value); err != nil {
		return fmt.Errorf("failed to write to temp file: %w", err)
	}

	if err := tmpFile.Sync(); err != nil {
		return fmt.Errorf("failed to fsync temp file: %w", err)
	}

	// Windows cannot rename an open file.
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	// Rename replaces destPath in one step, so readers see either the old or the new value.
	if err := os.Rename(tmpPath, destPath); err != nil {
		return fmt.Errorf("failed to rename temp file into place: %w", err)
	}

	return nil
}

// Read returns the content of the key's file.
func (r *Registry) Read(ctx context.Context, key string) ([]byte, error) {
	filePath, err := r.path(key)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, domain.ErrKeyNotFound
		}
		return nil, fmt.Errorf("failed to read registry file: %w", err)
	}

	return data, nil
}

// Delete removes the key's file.
func (r *Registry) Delete(ctx context.Context, key string) error {
	filePath, err := r.path(key)
	if err != nil {
		return err
	}

	err = os.Remove(filePath)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete registry file: %w", err)
	}

	return nil
}

// List returns every key, skipping in-flight temp files.
func (r *Registry) List(ctx context.Context) ([]string, error) {
	entries, err := os.ReadDir(r.BasePath)
	if err != nil {
		if os.IsNotExist(err) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("failed to list registry: %w", err)
	}

	var keys []string
	for _, entry := range entries {
		if entry.IsDir() || strings.HasPrefix(entry.Name(), ".tmp-") {
			continue
		}
		keys = append(keys, entry.Name())
	}

	return keys, nil
}
