package shellbridge

import (
	"log/slog"
	"time"

	"github.com/aretw0/shellbridge/internal/listener"
	"github.com/aretw0/shellbridge/pkg/domain"
	"github.com/aretw0/shellbridge/pkg/observability"
	"github.com/aretw0/shellbridge/pkg/ports"
)

// Option defines a functional option for configuring the Controller.
type Option func(*Controller)

// WithLogger sets a custom structured logger for the controller and its components.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Controller) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithRegistry sets where the bound port and filter folders are published.
// Defaults to an in-memory registry.
func WithRegistry(registry ports.Registry) Option {
	return func(c *Controller) {
		if registry != nil {
			c.registry = registry
		}
	}
}

// WithPreloader sets the native dependency check run at the start of Connect.
func WithPreloader(preloader ports.Preloader) Option {
	return func(c *Controller) {
		if preloader != nil {
			c.preloader = preloader
		}
	}
}

// WithHandler sets the host callback invoked once per accepted connection.
func WithHandler(handler ports.MessageHandler) Option {
	return func(c *Controller) {
		c.callback = handler
	}
}

// WithCodec replaces the default newline-delimited JSON codec.
func WithCodec(codec ports.Codec) Option {
	return func(c *Controller) {
		c.codec = codec
	}
}

// WithFolderRefresher sets the collaborator asked to redraw folders after SetFilterFolders.
func WithFolderRefresher(refresher ports.FolderRefresher) Option {
	return func(c *Controller) {
		c.refresher = refresher
	}
}

// WithPoolSize caps the number of concurrently running tasks (accept loop included).
// Values below domain.MinWorkers are raised to it.
func WithPoolSize(n int) Option {
	return func(c *Controller) {
		if n > 0 {
			c.maxWorkers = max(n, domain.MinWorkers)
		}
	}
}

// WithQueueSize bounds the number of accepted connections waiting for a worker.
func WithQueueSize(n int) Option {
	return func(c *Controller) {
		if n >= 0 {
			c.queueSize = n
		}
	}
}

// WithDrainTimeout bounds how long Disconnect waits for in-flight handlers.
func WithDrainTimeout(d time.Duration) Option {
	return func(c *Controller) {
		if d > 0 {
			c.drainTimeout = d
		}
	}
}

// WithReadTimeout sets the per-connection I/O deadline. Zero disables it.
func WithReadTimeout(d time.Duration) Option {
	return func(c *Controller) {
		if d >= 0 {
			c.readTimeout = d
		}
	}
}

// WithMaxMessageBytes bounds the size of a request frame.
func WithMaxMessageBytes(n int) Option {
	return func(c *Controller) {
		if n > 0 {
			c.maxMessageBytes = n
		}
	}
}

// WithMaxBindAttempts sets how many random ports Connect tries.
func WithMaxBindAttempts(n int) Option {
	return func(c *Controller) {
		if n > 0 {
			c.maxBindAttempts = n
		}
	}
}

// WithBindTimeout bounds the bind and publish phase of Connect.
func WithBindTimeout(d time.Duration) Option {
	return func(c *Controller) {
		if d > 0 {
			c.bindTimeout = d
		}
	}
}

// WithMetrics records lifecycle and traffic metrics.
func WithMetrics(metrics *observability.Metrics) Option {
	return func(c *Controller) {
		c.metrics = metrics
	}
}

// WithTracer wraps each served connection in a span.
func WithTracer(tracer *observability.Tracer) Option {
	return func(c *Controller) {
		c.tracer = tracer
	}
}

// WithListenerOptions passes low-level options to the listener manager
// (backlog, port picker, socket factory).
func WithListenerOptions(opts ...listener.Option) Option {
	return func(c *Controller) {
		c.listenerOpts = append(c.listenerOpts, opts...)
	}
}
