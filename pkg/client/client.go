// Package client is the peer side of the bridge: it discovers the published port and sends
// one message per connection, the way the native shell extension does.
package client

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"strconv"
	"time"

	"github.com/aretw0/shellbridge/internal/dispatch"
	"github.com/aretw0/shellbridge/pkg/domain"
	"github.com/aretw0/shellbridge/pkg/ports"
)

// Client sends messages to a running bridge.
type Client struct {
	registry ports.Registry
	codec    ports.Codec
	host     string
	timeout  time.Duration
	maxBytes int
}

// Option configures the Client.
type Option func(*Client)

// WithCodec replaces the default JSON codec. It must match the bridge's codec.
func WithCodec(codec ports.Codec) Option {
	return func(c *Client) {
		if codec != nil {
			c.codec = codec
		}
	}
}

// WithTimeout bounds a whole Send when ctx carries no deadline.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.timeout = d
	}
}

// WithHost overrides the loopback address.
func WithHost(host string) Option {
	return func(c *Client) {
		if host != "" {
			c.host = host
		}
	}
}

// New creates a client that looks the port up in registry.
func New(registry ports.Registry, opts ...Option) *Client {
	c := &Client{
		registry: registry,
		codec:    dispatch.JSONCodec{},
		host:     domain.LoopbackHost,
		timeout:  10 * time.Second,
		maxBytes: domain.DefaultMaxMessageBytes,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Port returns the port currently published by the bridge.
func (c *Client) Port(ctx context.Context) (int, error) {
	return ports.LookupPort(ctx, c.registry)
}

// Send discovers the bridge port and exchanges msg for the reply.
// A nil reply with a nil error means the bridge closed the connection without answering.
func (c *Client) Send(ctx context.Context, msg *domain.Message) (*domain.Message, error) {
	port, err := c.Port(ctx)
	if err != nil {
		return nil, fmt.Errorf("discover bridge port: %w", err)
	}
	return c.SendTo(ctx, port, msg)
}

// SendTo exchanges msg with the bridge listening on port.
func (c *Client) SendTo(ctx context.Context, port int, msg *domain.Message) (*domain.Message, error) {
	if _, ok := ctx.Deadline(); !ok && c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	frame, err := c.codec.Encode(msg)
	if err != nil {
		return nil, err
	}

	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp4", net.JoinHostPort(c.host, strconv.Itoa(port)))
	if err != nil {
		return nil, fmt.Errorf("dial bridge: %w", err)
	}
	defer conn.Close()

	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}
	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()

	if _, err := conn.Write(append(frame, '\n')); err != nil {
		return nil, fmt.Errorf("write request: %w", err)
	}

	line, err := bufio.NewReader(io.LimitReader(conn, int64(c.maxBytes)+1)).ReadBytes('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("read reply: %w", err)
	}
	line = bytes.TrimSpace(line)
	if len(line) == 0 {
		return nil, nil
	}

	reply, err := c.codec.Decode(line)
	if err != nil {
		return nil, err
	}
	return &reply, nil
}
