// Package dispatch serves a single accepted connection: one framed request in, one optional
// reply out.
package dispatch

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"time"

	"github.com/aretw0/shellbridge/internal/ids"
	"github.com/aretw0/shellbridge/internal/logging"
	"github.com/aretw0/shellbridge/pkg/domain"
	"github.com/aretw0/shellbridge/pkg/observability"
	"github.com/aretw0/shellbridge/pkg/ports"
)

// Handler decodes a request, invokes the host callback and writes the reply.
type Handler struct {
	callback    ports.MessageHandler
	codec       ports.Codec
	readTimeout time.Duration
	maxBytes    int

	logger  *slog.Logger
	metrics *observability.Metrics
	tracer  *observability.Tracer
}

// Option configures the Handler.
type Option func(*Handler)

// WithCodec replaces the default JSON codec.
func WithCodec(codec ports.Codec) Option {
	return func(h *Handler) {
		if codec != nil {
			h.codec = codec
		}
	}
}

// WithReadTimeout sets the deadline for reading the request and writing the reply.
// Zero disables deadlines.
func WithReadTimeout(d time.Duration) Option {
	return func(h *Handler) {
		h.readTimeout = d
	}
}

// WithMaxMessageBytes bounds the request frame.
func WithMaxMessageBytes(n int) Option {
	return func(h *Handler) {
		if n > 0 {
			h.maxBytes = n
		}
	}
}

// WithLogger configures a logger for the Handler.
func WithLogger(logger *slog.Logger) Option {
	return func(h *Handler) {
		h.logger = logger
	}
}

// WithMetrics records connection outcomes.
func WithMetrics(metrics *observability.Metrics) Option {
	return func(h *Handler) {
		h.metrics = metrics
	}
}

// WithTracer wraps each connection in a span.
func WithTracer(tracer *observability.Tracer) Option {
	return func(h *Handler) {
		h.tracer = tracer
	}
}

// New creates a Handler that forwards decoded messages to callback.
func New(callback ports.MessageHandler, opts ...Option) *Handler {
	h := &Handler{
		callback:    callback,
		codec:       JSONCodec{},
		readTimeout: domain.DefaultReadTimeout,
		maxBytes:    domain.DefaultMaxMessageBytes,
		logger:      logging.NewNop(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Serve handles conn and always closes it before returning.
// When ctx is canceled the connection is closed, which unblocks any pending read or write.
func (h *Handler) Serve(ctx context.Context, conn net.Conn) error {
	connID := ids.NewConnID()
	remote := conn.RemoteAddr().String()
	logger := h.logger.With("conn_id", connID, "remote", remote)

	defer conn.Close()
	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()

	start := time.Now()
	h.metrics.ConnectionStarted()
	ctx, span := h.tracer.StartConnection(ctx, connID, remote)

	command, outcome, err := h.serve(ctx, conn)

	h.metrics.ConnectionFinished(outcome, time.Since(start))
	observability.EndSpan(span, command, err)

	if err != nil {
		logger.Warn("connection closed without reply", "cmd", command, "outcome", outcome, "err", err)
		return err
	}
	logger.Debug("connection served", "cmd", command, "elapsed", time.Since(start))
	return nil
}

func (h *Handler) serve(ctx context.Context, conn net.Conn) (string, string, error) {
	if h.callback == nil {
		return "", observability.OutcomeHandlerError, fmt.Errorf("no message handler configured")
	}

	if h.readTimeout > 0 {
		if err := conn.SetDeadline(time.Now().Add(h.readTimeout)); err != nil {
			return "", observability.OutcomeReadError, fmt.Errorf("set deadline: %w", err)
		}
	}

	frame, err := readFrame(conn, h.maxBytes)
	if err != nil {
		return "", observability.OutcomeReadError, fmt.Errorf("read frame: %w", err)
	}

	msg, err := h.codec.Decode(frame)
	if err != nil {
		return "", observability.OutcomeDecodeError, err
	}

	reply, err := h.callback.HandleMessage(ctx, msg)
	if err != nil {
		return msg.Command, observability.OutcomeHandlerError, fmt.Errorf("handle %q: %w", msg.Command, err)
	}
	if reply == nil {
		return msg.Command, observability.OutcomeOK, nil
	}

	data, err := h.codec.Encode(reply)
	if err != nil {
		return msg.Command, observability.OutcomeWriteError, err
	}
	if _, err := conn.Write(append(data, '\n')); err != nil {
		return msg.Command, observability.OutcomeWriteError, fmt.Errorf("write reply: %w", err)
	}
	return msg.Command, observability.OutcomeOK, nil
}
