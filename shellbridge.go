package shellbridge

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"time"

	"github.com/aretw0/shellbridge/internal/dispatch"
	"github.com/aretw0/shellbridge/internal/events"
	"github.com/aretw0/shellbridge/internal/listener"
	"github.com/aretw0/shellbridge/internal/logging"
	"github.com/aretw0/shellbridge/internal/pool"
	"github.com/aretw0/shellbridge/pkg/adapters/memory"
	"github.com/aretw0/shellbridge/pkg/domain"
	"github.com/aretw0/shellbridge/pkg/observability"
	"github.com/aretw0/shellbridge/pkg/ports"
)

// Controller owns the lifecycle of the bridge: listener, accept loop, worker pool and
// lifecycle notifications.
type Controller struct {
	// lifecycle serializes Connect and Disconnect. mu guards the fields below and is never
	// held across preload, bind or drain.
	lifecycle  sync.Mutex
	mu         sync.Mutex
	state      domain.ConnectionState
	generation uint64
	pool       *pool.Pool
	lastErr    error

	listener *listener.Manager
	bus      *events.Bus
	handler  *dispatch.Handler

	registry  ports.Registry
	preloader ports.Preloader
	callback  ports.MessageHandler
	codec     ports.Codec
	refresher ports.FolderRefresher

	maxWorkers      int
	queueSize       int
	drainTimeout    time.Duration
	readTimeout     time.Duration
	maxMessageBytes int
	maxBindAttempts int
	bindTimeout     time.Duration
	listenerOpts    []listener.Option

	logger  *slog.Logger
	metrics *observability.Metrics
	tracer  *observability.Tracer
}

// New creates a disconnected Controller.
func New(opts ...Option) *Controller {
	c := &Controller{
		state:           domain.StateDisconnected,
		registry:        memory.NewRegistry(),
		preloader:       ports.NopPreloader{},
		maxWorkers:      domain.DefaultMaxWorkers,
		queueSize:       domain.DefaultQueueSize,
		drainTimeout:    domain.DefaultDrainTimeout,
		readTimeout:     domain.DefaultReadTimeout,
		maxMessageBytes: domain.DefaultMaxMessageBytes,
		maxBindAttempts: domain.DefaultMaxBindAttempts,
		bindTimeout:     domain.DefaultBindTimeout,
		logger:          logging.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}

	c.listener = listener.New(append([]listener.Option{
		listener.WithLogger(c.logger),
		listener.WithRegistry(c.registry),
		listener.WithMetrics(c.metrics),
	}, c.listenerOpts...)...)

	c.bus = events.NewBus(
		events.WithLogger(c.logger),
		events.WithMetrics(c.metrics),
	)

	c.handler = dispatch.New(c.callback,
		dispatch.WithCodec(c.codec),
		dispatch.WithReadTimeout(c.readTimeout),
		dispatch.WithMaxMessageBytes(c.maxMessageBytes),
		dispatch.WithLogger(c.logger),
		dispatch.WithMetrics(c.metrics),
		dispatch.WithTracer(c.tracer),
	)

	return c
}

// Connect binds the listener and schedules the accept loop.
// It returns true if the controller is connected when it returns.
// State reports StateConnecting while the preload and bind run.
func (c *Controller) Connect() bool {
	c.lifecycle.Lock()

	if c.State() == domain.StateConnected {
		c.lifecycle.Unlock()
		return true
	}

	c.mu.Lock()
	c.state = domain.StateConnecting
	c.mu.Unlock()

	if err := c.preloader.Load(); err != nil {
		c.mu.Lock()
		c.state = domain.StateDisconnected
		c.lastErr = fmt.Errorf("%w: %w", domain.ErrPreloadFailed, err)
		c.mu.Unlock()
		c.lifecycle.Unlock()
		c.logger.Error("native preload failed", "err", err)
		return false
	}

	ctx, cancel := context.WithTimeout(context.Background(), c.bindTimeout)
	port, err := c.listener.BindWithRetry(ctx, c.maxBindAttempts)
	cancel()

	c.mu.Lock()
	switch {
	case errors.Is(err, domain.ErrPublishFailed):
		// The server works; only discovery by the peer is broken.
		c.lastErr = err
		c.logger.Error("failed to publish port", "port", port, "err", err)
	case err != nil:
		c.state = domain.StateDisconnected
		c.lastErr = err
		c.mu.Unlock()
		c.lifecycle.Unlock()
		c.logger.Error("failed to bind listener", "attempts", c.maxBindAttempts, "err", err)
		return false
	default:
		c.lastErr = nil
	}

	if c.pool == nil || c.pool.Closed() {
		c.pool = pool.New(
			pool.WithMaxWorkers(c.maxWorkers),
			pool.WithQueueSize(c.queueSize),
			pool.WithLogger(c.logger),
			pool.WithMetrics(c.metrics),
		)
	}

	c.generation++
	gen := c.generation
	ln := c.listener.Listener()
	workers := c.pool

	opened := make(chan struct{})
	err = workers.Submit(func(ctx context.Context) {
		select {
		case <-opened:
		case <-ctx.Done():
		}
		c.acceptLoop(gen, ln, port, workers)
	})
	if err != nil {
		c.lastErr = fmt.Errorf("schedule accept loop: %w", err)
		if cerr := c.listener.Close(); cerr != nil {
			c.logger.Error("failed to close listener", "port", port, "err", cerr)
		}
		c.state = domain.StateDisconnected
		c.mu.Unlock()
		c.lifecycle.Unlock()
		c.logger.Error("failed to schedule accept loop", "err", err)
		return false
	}

	c.state = domain.StateConnected
	c.mu.Unlock()
	c.lifecycle.Unlock()

	c.metrics.ListenerState(true, gen)
	c.logger.Info("bridge connected", "port", port, "generation", gen)
	c.bus.Fire(domain.SocketEvent{
		Timestamp:  time.Now(),
		Type:       domain.EventSocketOpen,
		Port:       port,
		Generation: gen,
	})
	close(opened)

	return true
}

// Disconnect closes the listener and shuts down the worker pool, waiting at most the drain
// timeout for in-flight handlers. It always returns true.
func (c *Controller) Disconnect() bool {
	c.lifecycle.Lock()
	c.mu.Lock()

	if c.state != domain.StateConnected {
		c.mu.Unlock()
		c.lifecycle.Unlock()
		return true
	}

	port := c.listener.Port()
	if err := c.listener.Close(); err != nil {
		c.logger.Error("failed to close listener", "port", port, "err", err)
	}
	c.state = domain.StateDisconnected
	gen := c.generation
	workers := c.pool
	c.pool = nil
	c.mu.Unlock()
	c.lifecycle.Unlock()

	c.metrics.ListenerState(false, gen)

	ctx, cancel := context.WithTimeout(context.Background(), c.drainTimeout)
	defer cancel()
	if err := workers.Shutdown(ctx); err != nil {
		c.logger.Warn("handlers abandoned at drain timeout", "timeout", c.drainTimeout, "err", err)
	}

	c.logger.Info("bridge disconnected", "port", port, "generation", gen)
	return true
}

func (c *Controller) acceptLoop(gen uint64, ln net.Listener, port int, workers *pool.Pool) {
	var loopErr error
	defer func() {
		c.loopExited(gen, port, loopErr)
	}()

	for c.isCurrent(gen) {
		conn, err := ln.Accept()
		if err != nil {
			if !errors.Is(err, net.ErrClosed) {
				loopErr = err
				c.logger.Error("accept failed, stopping accept loop", "port", port, "generation", gen, "err", err)
			}
			return
		}

		if err := workers.Submit(func(ctx context.Context) {
			_ = c.handler.Serve(ctx, conn)
		}); err != nil {
			c.logger.Warn("dropping connection", "remote", conn.RemoteAddr().String(), "err", err)
			conn.Close()
		}
	}
}

// loopExited releases a generation whose accept loop died on its own and fires socket-close.
func (c *Controller) loopExited(gen uint64, port int, loopErr error) {
	if loopErr != nil {
		c.mu.Lock()
		if c.generation == gen && c.state == domain.StateConnected {
			if err := c.listener.Close(); err != nil {
				c.logger.Error("failed to close listener", "port", port, "err", err)
			}
			c.state = domain.StateDisconnected
			c.lastErr = fmt.Errorf("accept loop: %w", loopErr)
			c.metrics.ListenerState(false, gen)
		}
		c.mu.Unlock()
	}

	c.bus.Fire(domain.SocketEvent{
		Timestamp:  time.Now(),
		Type:       domain.EventSocketClose,
		Port:       port,
		Generation: gen,
		Err:        loopErr,
	})
}

func (c *Controller) isCurrent(gen uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.generation == gen && c.state == domain.StateConnected
}

// OnSocketOpen registers fn to run after each successful Connect.
func (c *Controller) OnSocketOpen(fn domain.SocketListener) {
	c.bus.Subscribe(domain.EventSocketOpen, fn)
}

// OnSocketClose registers fn to run after each accept loop terminates.
func (c *Controller) OnSocketClose(fn domain.SocketListener) {
	c.bus.Subscribe(domain.EventSocketClose, fn)
}

// State returns the current lifecycle state.
func (c *Controller) State() domain.ConnectionState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Connected reports whether the accept loop is running.
func (c *Controller) Connected() bool {
	return c.State() == domain.StateConnected
}

// Port returns the bound port, or 0 when disconnected.
func (c *Controller) Port() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != domain.StateConnected {
		return 0
	}
	return c.listener.Port()
}

// LastError returns the most recent lifecycle failure, or nil after a clean Connect.
func (c *Controller) LastError() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastErr
}

// Registry returns the registry the controller publishes to.
func (c *Controller) Registry() ports.Registry {
	return c.registry
}

// Status returns a point-in-time snapshot.
func (c *Controller) Status() domain.Status {
	c.mu.Lock()
	defer c.mu.Unlock()

	st := domain.Status{
		State:      c.state,
		Generation: c.generation,
	}
	if c.state == domain.StateConnected {
		st.Port = c.listener.Port()
	}
	if c.pool != nil {
		st.ActiveWorkers, st.QueuedTasks = c.pool.Stats()
	}
	if c.lastErr != nil {
		st.LastError = c.lastErr.Error()
	}
	return st
}
