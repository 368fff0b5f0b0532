//go:build unix

package listener

import (
	"context"
	"fmt"
	"net"
	"os"

	"golang.org/x/sys/unix"
)

// ListenTCP binds host:port with an explicit backlog. The socket is built by hand because
// net.Listen always uses the kernel's somaxconn as backlog.
func ListenTCP(_ context.Context, host string, port, backlog int) (net.Listener, error) {
	ip := net.ParseIP(host).To4()
	if ip == nil {
		return nil, fmt.Errorf("listener: %q is not an IPv4 address", host)
	}
	addr := &net.TCPAddr{IP: ip, Port: port}

	fd, err := unix.Socket(unix.AF_INET, unix.SOCK_STREAM, unix.IPPROTO_TCP)
	if err != nil {
		return nil, opError(addr, os.NewSyscallError("socket", err))
	}
	unix.CloseOnExec(fd)

	// Lets us rebind a port whose previous owner crashed and left it in TIME_WAIT.
	if err := unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_REUSEADDR, 1); err != nil {
		_ = unix.Close(fd)
		return nil, opError(addr, os.NewSyscallError("setsockopt", err))
	}

	sa := &unix.SockaddrInet4{Port: port}
	copy(sa.Addr[:], ip)
	if err := unix.Bind(fd, sa); err != nil {
		_ = unix.Close(fd)
		return nil, opError(addr, os.NewSyscallError("bind", err))
	}

	if err := unix.Listen(fd, backlog); err != nil {
		_ = unix.Close(fd)
		return nil, opError(addr, os.NewSyscallError("listen", err))
	}

	// FileListener dups the descriptor, so the *os.File is closed either way.
	f := os.NewFile(uintptr(fd), fmt.Sprintf("tcp4:%s", addr))
	defer f.Close()

	ln, err := net.FileListener(f)
	if err != nil {
		return nil, opError(addr, err)
	}
	return ln, nil
}

func opError(addr net.Addr, err error) error {
	return &net.OpError{Op: "listen", Net: "tcp4", Addr: addr, Err: err}
}
