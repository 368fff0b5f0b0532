package main

import (
	"fmt"

	"github.com/aretw0/shellbridge/internal/adapters/file"
	"github.com/aretw0/shellbridge/internal/adapters/winreg"
	"github.com/aretw0/shellbridge/internal/config"
	"github.com/aretw0/shellbridge/pkg/adapters/memory"
	"github.com/aretw0/shellbridge/pkg/adapters/redis"
	"github.com/aretw0/shellbridge/pkg/ports"
)

// openRegistry builds the registry selected by cfg. The returned close func is never nil.
func openRegistry(cfg config.RegistryConfig) (ports.Registry, func() error, error) {
	noop := func() error { return nil }

	switch cfg.Backend {
	case config.BackendMemory:
		return memory.NewRegistry(), noop, nil

	case config.BackendFile:
		path := cfg.Path
		if path == "" {
			path = file.DefaultPathFor(cfg.Namespace)
		}
		return file.New(path), noop, nil

	case config.BackendRedis:
		r := redis.New(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB,
			redis.WithPrefix(cfg.Namespace+":"),
			redis.WithTTL(cfg.Redis.TTL),
		)
		return r, r.Close, nil

	case config.BackendWindows:
		r, err := winreg.New(cfg.Namespace)
		if err != nil {
			return nil, noop, err
		}
		return r, noop, nil

	default:
		return nil, noop, fmt.Errorf("unknown registry backend %q", cfg.Backend)
	}
}
