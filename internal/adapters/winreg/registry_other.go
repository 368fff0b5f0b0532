//go:build !windows

package winreg

import (
	"context"
	"errors"
)

// ErrUnsupported is returned on platforms without a Windows registry.
var ErrUnsupported = errors.New("windows registry is only available on windows")

// Registry is unavailable outside Windows.
type Registry struct{}

// New always fails outside Windows.
func New(namespace string) (*Registry, error) {
	return nil, ErrUnsupported
}

func (r *Registry) Write(ctx context.Context, key string, value []byte) error { return ErrUnsupported }

func (r *Registry) Read(ctx context.Context, key string) ([]byte, error) { return nil, ErrUnsupported }

func (r *Registry) Delete(ctx context.Context, key string) error { return ErrUnsupported }

func (r *Registry) List(ctx context.Context) ([]string, error) { return nil, ErrUnsupported }
