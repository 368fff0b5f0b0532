/*
Package shellbridge is the loopback TCP bridge between a desktop application and its native
shell extension.

The host application owns a Controller. Connect binds 127.0.0.1 on a random port from the
ephemeral range, publishes the port to a registry the shell extension reads, and starts an
accept loop on a bounded worker pool. Every accepted connection carries one request, which is
decoded and handed to the host's message handler; the handler's reply, if any, is written
back on the same connection. Disconnect closes the listener and drains the pool.

# Usage

	r := router.New()
	r.Handle("ping", router.Pong)

	ctrl := shellbridge.New(
		shellbridge.WithHandler(r),
		shellbridge.WithRegistry(file.New("")),
		shellbridge.WithLogger(logging.New(slog.LevelInfo)),
	)
	ctrl.OnSocketClose(func(ev domain.SocketEvent) {
		log.Printf("bridge on port %d closed", ev.Port)
	})

	if !ctrl.Connect() {
		log.Fatal(ctrl.LastError())
	}
	defer ctrl.Disconnect()

# Lifecycle

Connect and Disconnect are idempotent and safe from any goroutine. Neither returns an error:
failures are reported through the boolean result, the logger and LastError. A failed Connect
leaves the controller disconnected and can be retried.

Socket-open listeners run after the port is bound and published. Socket-close listeners run
once per accept loop, after it stops for any reason. Listeners run synchronously in
registration order, and a panicking listener does not prevent the others from running.
*/
package shellbridge
