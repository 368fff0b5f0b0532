package config

import (
	"errors"
	"fmt"

	"github.com/aretw0/shellbridge/pkg/domain"
)

// Validate checks that values are usable.
func (c *Config) Validate() error {
	switch c.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("log.format must be text or json, got %q", c.Log.Format)
	}

	if c.Listener.MaxBindAttempts < 1 {
		return errors.New("listener.max_bind_attempts must be >= 1")
	}
	if c.Listener.Backlog < 1 {
		return errors.New("listener.backlog must be >= 1")
	}

	if c.Pool.MaxWorkers < domain.MinWorkers {
		return fmt.Errorf("pool.max_workers must be >= %d, got %d", domain.MinWorkers, c.Pool.MaxWorkers)
	}
	if c.Pool.QueueSize < 0 {
		return errors.New("pool.queue_size must be >= 0")
	}
	if c.Pool.DrainTimeout <= 0 {
		return errors.New("pool.drain_timeout must be positive")
	}

	if c.Handler.ReadTimeout < 0 {
		return errors.New("handler.read_timeout must be >= 0")
	}
	if c.Handler.MaxMessageBytes < 1 {
		return errors.New("handler.max_message_bytes must be >= 1")
	}

	switch c.Registry.Backend {
	case BackendMemory, BackendFile, BackendWindows:
	case BackendRedis:
		if c.Registry.Redis.Addr == "" {
			return errors.New("registry.redis.addr is required for the redis backend")
		}
	default:
		return fmt.Errorf("registry.backend must be one of memory, file, redis, windows, got %q", c.Registry.Backend)
	}
	if c.Registry.Namespace == "" {
		return errors.New("registry.namespace is required")
	}

	return nil
}
