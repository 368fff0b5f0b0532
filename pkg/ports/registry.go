package ports

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/aretw0/shellbridge/pkg/domain"
)

// Registry is the durable key-value store shared with the native shell extension.
// Keys live inside an adapter-specific namespace (key prefix, directory, registry path).
type Registry interface {
	// Write stores value under key, replacing any previous value.
	Write(ctx context.Context, key string, value []byte) error

	// Read returns the value stored under key.
	// Returns domain.ErrKeyNotFound if the key does not exist.
	Read(ctx context.Context, key string) ([]byte, error)

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// List returns every key in the namespace.
	List(ctx context.Context) ([]string, error)
}

// PublishPort writes the bound port under domain.KeyPort so the native peer can find it.
func PublishPort(ctx context.Context, r Registry, port int) error {
	if err := r.Write(ctx, domain.KeyPort, []byte(strconv.Itoa(port))); err != nil {
		return fmt.Errorf("%w %d: %w", domain.ErrPublishFailed, port, err)
	}
	return nil
}

// LookupPort reads the port published by PublishPort.
func LookupPort(ctx context.Context, r Registry) (int, error) {
	raw, err := r.Read(ctx, domain.KeyPort)
	if err != nil {
		return 0, err
	}
	port, err := strconv.Atoi(strings.TrimSpace(string(raw)))
	if err != nil {
		return 0, fmt.Errorf("invalid port in registry: %w", err)
	}
	if port <= 0 || port > 65535 {
		return 0, fmt.Errorf("invalid port in registry: %d", port)
	}
	return port, nil
}

// IsNotFound reports whether err means the key is missing.
func IsNotFound(err error) bool {
	return errors.Is(err, domain.ErrKeyNotFound)
}
