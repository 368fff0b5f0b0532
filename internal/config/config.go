// Package config loads the bridge configuration from YAML and SHELLBRIDGE_* environment
// variables.
package config

import (
	"time"

	"github.com/aretw0/shellbridge/pkg/domain"
)

// EnvPrefix prefixes every environment override, e.g. SHELLBRIDGE_POOL_MAX_WORKERS.
const EnvPrefix = "SHELLBRIDGE"

// Registry backends.
const (
	BackendMemory  = "memory"
	BackendFile    = "file"
	BackendRedis   = "redis"
	BackendWindows = "windows"
)

// Config is the full bridge configuration.
type Config struct {
	Log      LogConfig      `mapstructure:"log" yaml:"log"`
	Listener ListenerConfig `mapstructure:"listener" yaml:"listener"`
	Pool     PoolConfig     `mapstructure:"pool" yaml:"pool"`
	Handler  HandlerConfig  `mapstructure:"handler" yaml:"handler"`
	Registry RegistryConfig `mapstructure:"registry" yaml:"registry"`
	Admin    AdminConfig    `mapstructure:"admin" yaml:"admin"`
}

// LogConfig selects the log level and format (text or json).
type LogConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
}

// ListenerConfig tunes the loopback listener.
type ListenerConfig struct {
	MaxBindAttempts int           `mapstructure:"max_bind_attempts" yaml:"max_bind_attempts"`
	Backlog         int           `mapstructure:"backlog" yaml:"backlog"`
	BindTimeout     time.Duration `mapstructure:"bind_timeout" yaml:"bind_timeout"`
}

// PoolConfig sizes the worker pool.
type PoolConfig struct {
	MaxWorkers   int           `mapstructure:"max_workers" yaml:"max_workers"`
	QueueSize    int           `mapstructure:"queue_size" yaml:"queue_size"`
	DrainTimeout time.Duration `mapstructure:"drain_timeout" yaml:"drain_timeout"`
}

// HandlerConfig bounds a single connection.
type HandlerConfig struct {
	ReadTimeout     time.Duration `mapstructure:"read_timeout" yaml:"read_timeout"`
	MaxMessageBytes int           `mapstructure:"max_message_bytes" yaml:"max_message_bytes"`
}

// RegistryConfig selects where the port is published.
type RegistryConfig struct {
	Backend   string      `mapstructure:"backend" yaml:"backend"`
	Path      string      `mapstructure:"path" yaml:"path"`
	Namespace string      `mapstructure:"namespace" yaml:"namespace"`
	Redis     RedisConfig `mapstructure:"redis" yaml:"redis"`
}

// RedisConfig configures the Redis backend.
type RedisConfig struct {
	Addr     string        `mapstructure:"addr" yaml:"addr"`
	Password string        `mapstructure:"password" yaml:"password"`
	DB       int           `mapstructure:"db" yaml:"db"`
	TTL      time.Duration `mapstructure:"ttl" yaml:"ttl"`
}

// AdminConfig configures the HTTP admin server. An empty Addr disables it.
type AdminConfig struct {
	Addr string `mapstructure:"addr" yaml:"addr"`
}

// Default returns the configuration used when nothing is set.
func Default() Config {
	return Config{
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Listener: ListenerConfig{
			MaxBindAttempts: domain.DefaultMaxBindAttempts,
			Backlog:         domain.DefaultBacklog,
			BindTimeout:     domain.DefaultBindTimeout,
		},
		Pool: PoolConfig{
			MaxWorkers:   domain.DefaultMaxWorkers,
			QueueSize:    domain.DefaultQueueSize,
			DrainTimeout: domain.DefaultDrainTimeout,
		},
		Handler: HandlerConfig{
			ReadTimeout:     domain.DefaultReadTimeout,
			MaxMessageBytes: domain.DefaultMaxMessageBytes,
		},
		Registry: RegistryConfig{
			Backend:   BackendFile,
			Namespace: domain.RegistryNamespace,
		},
	}
}
