//go:build !unix

package listener

import (
	"context"
	"net"
	"strconv"
)

// ListenTCP binds host:port through the runtime's listener; the backlog is left to the OS
// (SOMAXCONN on Windows).
func ListenTCP(ctx context.Context, host string, port, _ int) (net.Listener, error) {
	var lc net.ListenConfig
	return lc.Listen(ctx, "tcp4", net.JoinHostPort(host, strconv.Itoa(port)))
}
