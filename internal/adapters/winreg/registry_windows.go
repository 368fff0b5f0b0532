//go:build windows

package winreg

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/aretw0/shellbridge/pkg/domain"
	"golang.org/x/sys/windows/registry"
)

// Registry implements ports.Registry on top of HKEY_CURRENT_USER\Software\<namespace>.
// This is where the shell extension DLL looks for the port.
type Registry struct {
	root registry.Key
	path string
}

// New creates a registry rooted at HKCU\Software\<namespace>.
func New(namespace string) (*Registry, error) {
	if namespace == "" {
		namespace = domain.RegistryNamespace
	}
	return &Registry{root: registry.CURRENT_USER, path: `Software\` + namespace}, nil
}

// Write stores value as a REG_SZ value named key.
func (r *Registry) Write(ctx context.Context, key string, value []byte) error {
	k, _, err := registry.CreateKey(r.root, r.path, registry.SET_VALUE)
	if err != nil {
		return fmt.Errorf("failed to open registry key %s: %w", r.path, err)
	}
	defer k.Close()

	if err := k.SetStringValue(key, string(value)); err != nil {
		return fmt.Errorf("failed to set registry value %s: %w", key, err)
	}
	return nil
}

// Read returns the value named key. DWORD values written by older installers are rendered
// in decimal.
func (r *Registry) Read(ctx context.Context, key string) ([]byte, error) {
	k, err := registry.OpenKey(r.root, r.path, registry.QUERY_VALUE)
	if err != nil {
		if errors.Is(err, registry.ErrNotExist) {
			return nil, domain.ErrKeyNotFound
		}
		return nil, fmt.Errorf("failed to open registry key %s: %w", r.path, err)
	}
	defer k.Close()

	s, _, err := k.GetStringValue(key)
	if err == nil {
		return []byte(s), nil
	}
	if errors.Is(err, registry.ErrUnexpectedType) {
		n, _, intErr := k.GetIntegerValue(key)
		if intErr != nil {
			return nil, fmt.Errorf("failed to read registry value %s: %w", key, intErr)
		}
		return []byte(strconv.FormatUint(n, 10)), nil
	}
	if errors.Is(err, registry.ErrNotExist) {
		return nil, domain.ErrKeyNotFound
	}
	return nil, fmt.Errorf("failed to read registry value %s: %w", key, err)
}

// Delete removes the value named key.
func (r *Registry) Delete(ctx context.Context, key string) error {
	k, err := registry.OpenKey(r.root, r.path, registry.SET_VALUE)
	if err != nil {
		if errors.Is(err, registry.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to open registry key %s: %w", r.path, err)
	}
	defer k.Close()

	if err := k.DeleteValue(key); err != nil && !errors.Is(err, registry.ErrNotExist) {
		return fmt.Errorf("failed to delete registry value %s: %w", key, err)
	}
	return nil
}

// List returns the value names under the key.
func (r *Registry) List(ctx context.Context) ([]string, error) {
	k, err := registry.OpenKey(r.root, r.path, registry.QUERY_VALUE)
	if err != nil {
		if errors.Is(err, registry.ErrNotExist) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("failed to open registry key %s: %w", r.path, err)
	}
	defer k.Close()

	names, err := k.ReadValueNames(-1)
	if err != nil {
		return nil, fmt.Errorf("failed to list registry values: %w", err)
	}
	return names, nil
}
