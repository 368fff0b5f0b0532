// Package pool implements the bounded worker pool that runs the accept loop and the
// per-connection handlers.
package pool

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/sync/semaphore"

	"github.com/aretw0/shellbridge/internal/logging"
	"github.com/aretw0/shellbridge/pkg/domain"
	"github.com/aretw0/shellbridge/pkg/observability"
)

// Task is a unit of work. ctx is canceled when the pool abandons in-flight work.
type Task func(ctx context.Context)

// Pool runs tasks on at most MaxWorkers goroutines and queues up to QueueSize more.
// Submissions beyond that are refused with domain.ErrPoolSaturated.
//
// A Pool cannot be restarted after Shutdown; create a new one.
type Pool struct {
	maxWorkers int
	queueSize  int
	sem        *semaphore.Weighted

	mu     sync.Mutex
	queue  []Task
	active int
	closed bool

	wg     sync.WaitGroup
	ctx    context.Context
	cancel context.CancelFunc

	logger  *slog.Logger
	metrics *observability.Metrics
}

// Option configures the Pool.
type Option func(*Pool)

// WithMaxWorkers caps concurrently running tasks.
func WithMaxWorkers(n int) Option {
	return func(p *Pool) {
		if n > 0 {
			p.maxWorkers = n
		}
	}
}

// WithQueueSize bounds the backlog of tasks waiting for a worker. Zero disables queueing.
func WithQueueSize(n int) Option {
	return func(p *Pool) {
		if n >= 0 {
			p.queueSize = n
		}
	}
}

// WithLogger configures a logger for the Pool.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pool) {
		p.logger = logger
	}
}

// WithMetrics records rejected submissions.
func WithMetrics(metrics *observability.Metrics) Option {
	return func(p *Pool) {
		p.metrics = metrics
	}
}

// New creates a running pool.
func New(opts ...Option) *Pool {
	p := &Pool{
		maxWorkers: domain.DefaultMaxWorkers,
		queueSize:  domain.DefaultQueueSize,
		logger:     logging.NewNop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.sem = semaphore.NewWeighted(int64(p.maxWorkers))
	p.ctx, p.cancel = context.WithCancel(context.Background())
	return p
}

// Submit schedules task. It never blocks.
func (p *Pool) Submit(task Task) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		p.metrics.PoolRejected("closed")
		return domain.ErrPoolClosed
	}

	if p.sem.TryAcquire(1) {
		p.active++
		p.wg.Add(1)
		go p.work(task)
		return nil
	}

	if len(p.queue) < p.queueSize {
		p.queue = append(p.queue, task)
		return nil
	}

	p.metrics.PoolRejected("saturated")
	return fmt.Errorf("%w: %d workers busy, %d queued", domain.ErrPoolSaturated, p.active, len(p.queue))
}

// work runs task, then keeps pulling from the queue until it is empty.
// The slot is released under the same lock Submit takes, so a queued task is never stranded.
func (p *Pool) work(task Task) {
	defer p.wg.Done()

	for {
		p.run(task)

		p.mu.Lock()
		if len(p.queue) == 0 {
			p.active--
			p.sem.Release(1)
			p.mu.Unlock()
			return
		}
		task = p.queue[0]
		p.queue[0] = nil
		p.queue = p.queue[1:]
		p.mu.Unlock()
	}
}

func (p *Pool) run(task Task) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("task panicked", "panic", r)
		}
	}()
	task(p.ctx)
}

// Shutdown stops accepting tasks and waits for running and queued ones to finish.
// If ctx expires first, the context handed to tasks is canceled and ctx.Err() is returned;
// the abandoned tasks are expected to release their resources on cancellation.
func (p *Pool) Shutdown(ctx context.Context) error {
	p.mu.Lock()
	p.closed = true
	p.mu.Unlock()

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		p.cancel()
		p.logger.Debug("worker pool drained")
		return nil
	case <-ctx.Done():
		p.cancel()
		active, queued := p.Stats()
		p.logger.Warn("worker pool drain timed out, abandoning tasks", "active", active, "queued", queued)
		return ctx.Err()
	}
}

// Stats returns the number of running and queued tasks.
func (p *Pool) Stats() (active, queued int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.active, len(p.queue)
}

// Closed reports whether Shutdown has been called.
func (p *Pool) Closed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closed
}
