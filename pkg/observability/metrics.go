package observability

import (
	"errors"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "shellbridge"

// Outcome labels for served connections.
const (
	OutcomeOK           = "ok"
	OutcomeReadError    = "read_error"
	OutcomeDecodeError  = "decode_error"
	OutcomeHandlerError = "handler_error"
	OutcomeWriteError   = "write_error"
)

// Metrics holds the collectors of a bridge instance.
type Metrics struct {
	mu         sync.Mutex
	registerer prometheus.Registerer
	registered bool

	bindAttempts     *prometheus.CounterVec
	publishFailures  prometheus.Counter
	connections      *prometheus.CounterVec
	connDuration     prometheus.Histogram
	activeConns      prometheus.Gauge
	poolRejections   *prometheus.CounterVec
	socketEvents     *prometheus.CounterVec
	listenerUp       prometheus.Gauge
	listenerGenerate prometheus.Gauge
}

// NewMetrics creates the collectors. A nil registerer falls back to prometheus.DefaultRegisterer.
func NewMetrics(registerer prometheus.Registerer) *Metrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	return &Metrics{
		registerer: registerer,
		bindAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "listener",
			Name:      "bind_attempts_total",
			Help:      "Bind attempts on the loopback listener, by result.",
		}, []string{"result"}),
		publishFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "listener",
			Name:      "port_publish_failures_total",
			Help:      "Failed writes of the bound port to the registry.",
		}),
		connections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "dispatch",
			Name:      "connections_total",
			Help:      "Served connections, by outcome.",
		}, []string{"outcome"}),
		connDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "dispatch",
			Name:      "connection_duration_seconds",
			Help:      "Time from accept to reply for served connections.",
			Buckets:   []float64{.0005, .001, .005, .01, .05, .1, .5, 1, 5, 30},
		}),
		activeConns: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "dispatch",
			Name:      "active_connections",
			Help:      "Connections currently being served.",
		}),
		poolRejections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pool",
			Name:      "rejected_total",
			Help:      "Tasks refused by the worker pool, by reason.",
		}, []string{"reason"}),
		socketEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "events",
			Name:      "socket_events_total",
			Help:      "Socket lifecycle notifications fired, by type.",
		}, []string{"type"}),
		listenerUp: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "listener",
			Name:      "up",
			Help:      "1 while the listener accepts connections.",
		}),
		listenerGenerate: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "listener",
			Name:      "generation",
			Help:      "Number of successful connects since start.",
		}),
	}
}

// Register registers the collectors. Safe to call multiple times.
func (m *Metrics) Register() error {
	if m == nil {
		return nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.registered {
		return nil
	}

	collectors := []prometheus.Collector{
		m.bindAttempts,
		m.publishFailures,
		m.connections,
		m.connDuration,
		m.activeConns,
		m.poolRejections,
		m.socketEvents,
		m.listenerUp,
		m.listenerGenerate,
	}
	for _, c := range collectors {
		if err := m.registerer.Register(c); err != nil {
			var already prometheus.AlreadyRegisteredError
			if !errors.As(err, &already) {
				return err
			}
		}
	}

	m.registered = true
	return nil
}

// BindAttempt counts one bind attempt.
func (m *Metrics) BindAttempt(ok bool) {
	if m == nil {
		return
	}
	result := "failure"
	if ok {
		result = "success"
	}
	m.bindAttempts.WithLabelValues(result).Inc()
}

// PublishFailed counts a failed port publication.
func (m *Metrics) PublishFailed() {
	if m == nil {
		return
	}
	m.publishFailures.Inc()
}

// ConnectionStarted marks a connection as in flight.
func (m *Metrics) ConnectionStarted() {
	if m == nil {
		return
	}
	m.activeConns.Inc()
}

// ConnectionFinished records the outcome and duration of a served connection.
func (m *Metrics) ConnectionFinished(outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.activeConns.Dec()
	m.connections.WithLabelValues(outcome).Inc()
	m.connDuration.Observe(elapsed.Seconds())
}

// PoolRejected counts a task refused by the pool.
func (m *Metrics) PoolRejected(reason string) {
	if m == nil {
		return
	}
	m.poolRejections.WithLabelValues(reason).Inc()
}

// SocketEvent counts a fired lifecycle notification.
func (m *Metrics) SocketEvent(eventType string) {
	if m == nil {
		return
	}
	m.socketEvents.WithLabelValues(eventType).Inc()
}

// ListenerState records whether the listener is up and its generation.
func (m *Metrics) ListenerState(up bool, generation uint64) {
	if m == nil {
		return
	}
	if up {
		m.listenerUp.Set(1)
	} else {
		m.listenerUp.Set(0)
	}
	m.listenerGenerate.Set(float64(generation))
}
