package listener

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"net"
	"sync"

	"github.com/aretw0/shellbridge/internal/logging"
	"github.com/aretw0/shellbridge/pkg/domain"
	"github.com/aretw0/shellbridge/pkg/observability"
	"github.com/aretw0/shellbridge/pkg/ports"
)

// ListenFunc opens a listening TCP socket on host:port with the given backlog.
type ListenFunc func(ctx context.Context, host string, port, backlog int) (net.Listener, error)

// Manager owns the server socket of the bridge: creation, bind-with-retry, accept and close.
// Safe for concurrent use.
type Manager struct {
	mu     sync.Mutex
	ln     net.Listener
	port   int
	closed bool

	host     string
	backlog  int
	registry ports.Registry
	logger   *slog.Logger
	metrics  *observability.Metrics
	pickPort func() int
	listen   ListenFunc
}

// Option configures the Manager.
type Option func(*Manager)

// WithLogger configures a logger for the Manager.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

// WithRegistry sets where the bound port is published.
func WithRegistry(registry ports.Registry) Option {
	return func(m *Manager) {
		m.registry = registry
	}
}

// WithBacklog overrides the pending connection queue length (default 50).
func WithBacklog(backlog int) Option {
	return func(m *Manager) {
		m.backlog = backlog
	}
}

// WithHost overrides the loopback address. Only meant for tests.
func WithHost(host string) Option {
	return func(m *Manager) {
		m.host = host
	}
}

// WithPortPicker replaces the random port draw.
func WithPortPicker(pick func() int) Option {
	return func(m *Manager) {
		m.pickPort = pick
	}
}

// WithListenFunc replaces the socket factory.
func WithListenFunc(listen ListenFunc) Option {
	return func(m *Manager) {
		m.listen = listen
	}
}

// WithMetrics records bind attempts and publish failures.
func WithMetrics(metrics *observability.Metrics) Option {
	return func(m *Manager) {
		m.metrics = metrics
	}
}

// New creates an unbound Manager.
func New(opts ...Option) *Manager {
	m := &Manager{
		host:     domain.LoopbackHost,
		backlog:  domain.DefaultBacklog,
		logger:   logging.NewNop(),
		pickPort: RandomPort,
		listen:   ListenTCP,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// RandomPort draws a port uniformly from the ephemeral range.
func RandomPort() int {
	return domain.PortRangeMin + rand.Intn(domain.PortRangeMax-domain.PortRangeMin+1)
}

// BindWithRetry binds a random ephemeral port, trying at most maxAttempts ports.
//
// If a socket is already bound it returns its port without rebinding. On success the port
// is published to the registry. A publish failure does not undo the bind: the port is
// returned together with an error wrapping domain.ErrPublishFailed. When every attempt fails
// the error wraps domain.ErrBindExhausted and joins the per-attempt causes.
func (m *Manager) BindWithRetry(ctx context.Context, maxAttempts int) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.ln != nil && !m.closed {
		return m.port, nil
	}
	if maxAttempts <= 0 {
		maxAttempts = domain.DefaultMaxBindAttempts
	}

	var causes []error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			causes = append(causes, err)
			break
		}

		port := m.pickPort()
		ln, err := m.listen(ctx, m.host, port, m.backlog)
		m.metrics.BindAttempt(err == nil)
		if err != nil {
			m.logger.Debug("bind attempt failed", "attempt", attempt, "port", port, "err", err)
			causes = append(causes, fmt.Errorf("attempt %d on port %d: %w", attempt, port, err))
			continue
		}

		m.ln = ln
		m.port = port
		m.closed = false
		m.logger.Info("listener bound", "addr", ln.Addr().String(), "attempt", attempt)

		if m.registry != nil {
			if err := ports.PublishPort(ctx, m.registry, port); err != nil {
				m.metrics.PublishFailed()
				return port, err
			}
		}
		return port, nil
	}

	return 0, fmt.Errorf("%w (%d attempts): %w", domain.ErrBindExhausted, len(causes), errors.Join(causes...))
}

// Listener returns the current listener, or nil when unbound.
func (m *Manager) Listener() net.Listener {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil
	}
	return m.ln
}

// Accept waits for the next connection on the current listener.
// It returns net.ErrClosed when the manager is unbound.
func (m *Manager) Accept() (net.Conn, error) {
	ln := m.Listener()
	if ln == nil {
		return nil, net.ErrClosed
	}
	return ln.Accept()
}

// Port returns the bound port, or 0 when unbound.
func (m *Manager) Port() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.ln == nil || m.closed {
		return 0
	}
	return m.port
}

// Bound reports whether a socket is open.
func (m *Manager) Bound() bool {
	return m.Port() != 0
}

// Close closes the socket. Closing an unbound or already closed manager is a no-op.
// A goroutine blocked in Accept returns an error matching net.ErrClosed.
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.ln == nil || m.closed {
		return nil
	}

	m.closed = true
	ln := m.ln
	m.ln = nil
	m.port = 0

	if err := ln.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
		return fmt.Errorf("failed to close listener: %w", err)
	}
	return nil
}
