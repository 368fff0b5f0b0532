package shellbridge_test

import (
	"bufio"
	"context"
	"errors"
	"io"
	"net"
	"strconv"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/shellbridge"
	"github.com/aretw0/shellbridge/internal/listener"
	"github.com/aretw0/shellbridge/pkg/adapters/memory"
	"github.com/aretw0/shellbridge/pkg/domain"
	"github.com/aretw0/shellbridge/pkg/ports"
	"github.com/aretw0/shellbridge/pkg/router"
)

// countingListen wraps the real socket factory and counts binds.
func countingListen(calls *atomic.Int32) listener.ListenFunc {
	return func(ctx context.Context, host string, port, backlog int) (net.Listener, error) {
		calls.Add(1)
		return listener.ListenTCP(ctx, host, port, backlog)
	}
}

func pingRouter(calls *atomic.Int32) *router.Router {
	r := router.New()
	r.Handle("ping", func(ctx context.Context, msg domain.Message) (*domain.Message, error) {
		calls.Add(1)
		return domain.NewMessage("pong", nil), nil
	})
	return r
}

func dial(t *testing.T, port int) net.Conn {
	t.Helper()
	conn, err := net.DialTimeout("tcp4", net.JoinHostPort(domain.LoopbackHost, strconv.Itoa(port)), time.Second)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	require.NoError(t, conn.SetDeadline(time.Now().Add(5*time.Second)))
	return conn
}

func roundTrip(t *testing.T, conn net.Conn, request string) string {
	t.Helper()
	_, err := io.WriteString(conn, request)
	require.NoError(t, err)
	reply, err := bufio.NewReader(conn).ReadString('\n')
	require.NoError(t, err)
	return reply
}

func TestController_PingPongScenario(t *testing.T) {
	portCheck, err := net.Listen("tcp4", "127.0.0.1:51000")
	if err != nil {
		t.Skipf("port 51000 unavailable: %v", err)
	}
	require.NoError(t, portCheck.Close())

	var calls atomic.Int32
	reg := memory.NewRegistry()
	ctrl := shellbridge.New(
		shellbridge.WithRegistry(reg),
		shellbridge.WithHandler(pingRouter(&calls)),
		shellbridge.WithListenerOptions(listener.WithPortPicker(func() int { return 51000 })),
	)
	require.True(t, ctrl.Connect())
	defer ctrl.Disconnect()

	published, err := ports.LookupPort(context.Background(), reg)
	require.NoError(t, err)
	assert.Equal(t, 51000, published)

	first := dial(t, published)
	assert.Equal(t, "{\"cmd\":\"pong\"}\n", roundTrip(t, first, "{\"cmd\":\"ping\"}\n"))
	require.NoError(t, first.Close())

	second := dial(t, published)
	assert.Equal(t, "{\"cmd\":\"pong\"}\n", roundTrip(t, second, "{\"cmd\":\"ping\"}\n"))

	assert.Equal(t, int32(2), calls.Load())
	assert.True(t, ctrl.Connected())
}

func TestController_ConnectIdempotent(t *testing.T) {
	var binds atomic.Int32
	reg := memory.NewRegistry()
	ctrl := shellbridge.New(
		shellbridge.WithRegistry(reg),
		shellbridge.WithListenerOptions(listener.WithListenFunc(countingListen(&binds))),
	)
	defer ctrl.Disconnect()

	var opens atomic.Int32
	ctrl.OnSocketOpen(func(domain.SocketEvent) { opens.Add(1) })

	require.True(t, ctrl.Connect())
	first, err := ports.LookupPort(context.Background(), reg)
	require.NoError(t, err)

	require.True(t, ctrl.Connect())
	second, err := ports.LookupPort(context.Background(), reg)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, first, ctrl.Port())
	assert.Equal(t, int32(1), binds.Load())
	assert.Equal(t, int32(1), opens.Load())
}

func TestController_DisconnectWhenDisconnected(t *testing.T) {
	var binds atomic.Int32
	ctrl := shellbridge.New(shellbridge.WithListenerOptions(listener.WithListenFunc(countingListen(&binds))))

	var closes atomic.Int32
	ctrl.OnSocketClose(func(domain.SocketEvent) { closes.Add(1) })

	assert.True(t, ctrl.Disconnect())
	assert.True(t, ctrl.Disconnect())
	assert.Zero(t, binds.Load())
	assert.Zero(t, closes.Load())
	assert.Equal(t, domain.StateDisconnected, ctrl.State())
}

func TestController_DisconnectFiresOneClose(t *testing.T) {
	ctrl := shellbridge.New()

	var closes atomic.Int32
	var closeEvent domain.SocketEvent
	ctrl.OnSocketClose(func(ev domain.SocketEvent) {
		closeEvent = ev
		closes.Add(1)
	})

	require.True(t, ctrl.Connect())
	port := ctrl.Port()

	// Let the accept loop block in Accept.
	time.Sleep(20 * time.Millisecond)

	start := time.Now()
	require.True(t, ctrl.Disconnect())
	assert.Less(t, time.Since(start), 2*time.Second)

	assert.Equal(t, int32(1), closes.Load())
	assert.Equal(t, port, closeEvent.Port)
	assert.NoError(t, closeEvent.Err)

	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, int32(1), closes.Load())
	assert.Zero(t, ctrl.Port())

	_, err := net.DialTimeout("tcp4", net.JoinHostPort(domain.LoopbackHost, strconv.Itoa(port)), 200*time.Millisecond)
	assert.Error(t, err, "listener must be closed after Disconnect")
}

func TestController_ReconnectCycles(t *testing.T) {
	var calls atomic.Int32
	reg := memory.NewRegistry()
	ctrl := shellbridge.New(
		shellbridge.WithRegistry(reg),
		shellbridge.WithHandler(pingRouter(&calls)),
	)

	var opens, closes atomic.Int32
	ctrl.OnSocketOpen(func(domain.SocketEvent) { opens.Add(1) })
	ctrl.OnSocketClose(func(domain.SocketEvent) { closes.Add(1) })

	var previous int
	for cycle := 1; cycle <= 3; cycle++ {
		require.True(t, ctrl.Connect(), "cycle %d", cycle)

		status := ctrl.Status()
		assert.Equal(t, domain.StateConnected, status.State)
		assert.Equal(t, uint64(cycle), status.Generation)

		port, err := ports.LookupPort(context.Background(), reg)
		require.NoError(t, err)
		assert.Equal(t, ctrl.Port(), port)

		conn := dial(t, port)
		assert.Equal(t, "{\"cmd\":\"pong\"}\n", roundTrip(t, conn, "{\"cmd\":\"ping\"}\n"))

		if previous != 0 && previous != port {
			_, err := net.DialTimeout("tcp4", net.JoinHostPort(domain.LoopbackHost, strconv.Itoa(previous)), 200*time.Millisecond)
			assert.Error(t, err, "previous listener still open")
		}
		previous = port

		require.True(t, ctrl.Disconnect())
		assert.Equal(t, domain.StateDisconnected, ctrl.State())
	}

	assert.Equal(t, int32(3), opens.Load())
	assert.Equal(t, int32(3), closes.Load())
	assert.Equal(t, int32(3), calls.Load())
}

func TestController_PreloadFailure(t *testing.T) {
	var (
		binds      atomic.Int32
		ctrl       *shellbridge.Controller
		duringLoad domain.ConnectionState
	)
	ctrl = shellbridge.New(
		shellbridge.WithPreloader(ports.PreloaderFunc(func() error {
			duringLoad = ctrl.State()
			return errors.New("native library missing")
		})),
		shellbridge.WithListenerOptions(listener.WithListenFunc(countingListen(&binds))),
	)

	assert.False(t, ctrl.Connect())
	assert.Equal(t, domain.StateConnecting, duringLoad)
	assert.Equal(t, domain.StateDisconnected, ctrl.State())
	assert.ErrorIs(t, ctrl.LastError(), domain.ErrPreloadFailed)
	assert.Zero(t, binds.Load())
}

func TestController_ConnectingVisibleDuringBind(t *testing.T) {
	binding := make(chan struct{})
	release := make(chan struct{})
	var once sync.Once
	ctrl := shellbridge.New(shellbridge.WithListenerOptions(
		listener.WithListenFunc(func(ctx context.Context, host string, port, backlog int) (net.Listener, error) {
			once.Do(func() { close(binding) })
			<-release
			return listener.ListenTCP(ctx, host, port, backlog)
		}),
	))

	connected := make(chan bool, 1)
	go func() { connected <- ctrl.Connect() }()

	<-binding
	assert.Equal(t, domain.StateConnecting, ctrl.State())
	status := ctrl.Status()
	assert.Equal(t, domain.StateConnecting, status.State)
	assert.Zero(t, status.Port)
	assert.Zero(t, ctrl.Port())
	assert.False(t, ctrl.Connected())

	close(release)
	require.True(t, <-connected)
	assert.Equal(t, domain.StateConnected, ctrl.State())
	assert.NotZero(t, ctrl.Port())
	assert.True(t, ctrl.Disconnect())
}

func TestController_ConcurrentConnectBindsOnce(t *testing.T) {
	var binds atomic.Int32
	ctrl := shellbridge.New(shellbridge.WithListenerOptions(listener.WithListenFunc(countingListen(&binds))))
	defer ctrl.Disconnect()

	var wg sync.WaitGroup
	results := make([]bool, 4)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = ctrl.Connect()
		}(i)
	}
	wg.Wait()

	for _, ok := range results {
		assert.True(t, ok)
	}
	assert.Equal(t, int32(1), binds.Load())
	assert.Equal(t, uint64(1), ctrl.Status().Generation)
}

func TestController_BindExhaustion(t *testing.T) {
	var attempts atomic.Int32
	ctrl := shellbridge.New(shellbridge.WithListenerOptions(
		listener.WithListenFunc(func(context.Context, string, int, int) (net.Listener, error) {
			attempts.Add(1)
			return nil, errors.New("address already in use")
		}),
	))

	var opens atomic.Int32
	ctrl.OnSocketOpen(func(domain.SocketEvent) { opens.Add(1) })

	assert.False(t, ctrl.Connect())
	assert.Equal(t, int32(5), attempts.Load())
	assert.Equal(t, domain.StateDisconnected, ctrl.State())
	assert.ErrorIs(t, ctrl.LastError(), domain.ErrBindExhausted)
	assert.Zero(t, opens.Load())
	assert.True(t, ctrl.Disconnect())
}

type failingRegistry struct {
	*memory.Registry
}

func (failingRegistry) Write(context.Context, string, []byte) error {
	return errors.New("access denied")
}

func TestController_PublishFailureIsNotFatal(t *testing.T) {
	var calls atomic.Int32
	ctrl := shellbridge.New(
		shellbridge.WithRegistry(failingRegistry{memory.NewRegistry()}),
		shellbridge.WithHandler(pingRouter(&calls)),
	)
	defer ctrl.Disconnect()

	require.True(t, ctrl.Connect())
	assert.ErrorIs(t, ctrl.LastError(), domain.ErrPublishFailed)

	conn := dial(t, ctrl.Port())
	assert.Equal(t, "{\"cmd\":\"pong\"}\n", roundTrip(t, conn, "{\"cmd\":\"ping\"}\n"))
}

func TestController_IllFormedDoesNotAffectOtherClients(t *testing.T) {
	var calls atomic.Int32
	ctrl := shellbridge.New(shellbridge.WithHandler(pingRouter(&calls)))
	require.True(t, ctrl.Connect())
	defer ctrl.Disconnect()

	good := dial(t, ctrl.Port())
	bad := dial(t, ctrl.Port())

	_, err := io.WriteString(bad, "{\"cmd\": oops\n")
	require.NoError(t, err)
	_, err = bad.Read(make([]byte, 1))
	assert.ErrorIs(t, err, io.EOF)
	assert.Zero(t, calls.Load())

	assert.Equal(t, "{\"cmd\":\"pong\"}\n", roundTrip(t, good, "{\"cmd\":\"ping\"}\n"))
	assert.Equal(t, int32(1), calls.Load())
	assert.True(t, ctrl.Connected())
}

func TestController_ListenerPanicIsolated(t *testing.T) {
	ctrl := shellbridge.New()
	defer ctrl.Disconnect()

	var reached atomic.Bool
	ctrl.OnSocketOpen(func(domain.SocketEvent) { panic("host bug") })
	ctrl.OnSocketOpen(func(domain.SocketEvent) { reached.Store(true) })

	require.True(t, ctrl.Connect())
	assert.True(t, reached.Load())
	assert.True(t, ctrl.Connected())
}

// brokenListener fails every Accept with an error other than net.ErrClosed.
type brokenListener struct {
	addr net.Addr
}

func (l brokenListener) Accept() (net.Conn, error) { return nil, errors.New("too many open files") }
func (l brokenListener) Close() error              { return nil }
func (l brokenListener) Addr() net.Addr            { return l.addr }

func TestController_UnexpectedAcceptError(t *testing.T) {
	var broken atomic.Bool
	broken.Store(true)

	ctrl := shellbridge.New(shellbridge.WithListenerOptions(
		listener.WithListenFunc(func(ctx context.Context, host string, port, backlog int) (net.Listener, error) {
			if broken.Load() {
				return brokenListener{addr: &net.TCPAddr{IP: net.IPv4(127, 0, 0, 1), Port: port}}, nil
			}
			return listener.ListenTCP(ctx, host, port, backlog)
		}),
	))
	defer ctrl.Disconnect()

	closed := make(chan domain.SocketEvent, 2)
	ctrl.OnSocketClose(func(ev domain.SocketEvent) { closed <- ev })

	require.True(t, ctrl.Connect())

	select {
	case ev := <-closed:
		assert.ErrorContains(t, ev.Err, "too many open files")
		assert.Equal(t, uint64(1), ev.Generation)
	case <-time.After(2 * time.Second):
		t.Fatal("socket-close not fired")
	}

	assert.Eventually(t, func() bool {
		return ctrl.State() == domain.StateDisconnected
	}, 2*time.Second, 5*time.Millisecond)
	assert.ErrorContains(t, ctrl.LastError(), "accept loop")

	broken.Store(false)
	require.True(t, ctrl.Connect())
	assert.Equal(t, uint64(2), ctrl.Status().Generation)
	assert.Len(t, closed, 0)
}

func TestController_DrainTimeoutForceCloses(t *testing.T) {
	entered := make(chan struct{})
	var once sync.Once
	handler := ports.MessageHandlerFunc(func(ctx context.Context, msg domain.Message) (*domain.Message, error) {
		once.Do(func() { close(entered) })
		<-ctx.Done()
		return nil, ctx.Err()
	})

	ctrl := shellbridge.New(
		shellbridge.WithHandler(handler),
		shellbridge.WithDrainTimeout(50*time.Millisecond),
	)
	require.True(t, ctrl.Connect())

	conn := dial(t, ctrl.Port())
	_, err := io.WriteString(conn, "{\"cmd\":\"slow\"}\n")
	require.NoError(t, err)
	<-entered

	start := time.Now()
	require.True(t, ctrl.Disconnect())
	assert.Less(t, time.Since(start), 2*time.Second)

	_, err = conn.Read(make([]byte, 1))
	assert.Error(t, err)
}

func TestController_Backpressure(t *testing.T) {
	release := make(chan struct{})
	entered := make(chan struct{}, 1)
	handler := ports.MessageHandlerFunc(func(ctx context.Context, msg domain.Message) (*domain.Message, error) {
		entered <- struct{}{}
		<-release
		return domain.NewMessage("done", nil), nil
	})

	// One worker for the accept loop, one for a handler, nothing queued.
	ctrl := shellbridge.New(
		shellbridge.WithHandler(handler),
		shellbridge.WithPoolSize(2),
		shellbridge.WithQueueSize(0),
	)
	require.True(t, ctrl.Connect())
	defer ctrl.Disconnect()

	busy := dial(t, ctrl.Port())
	_, err := io.WriteString(busy, "{\"cmd\":\"work\"}\n")
	require.NoError(t, err)
	<-entered

	status := ctrl.Status()
	assert.Equal(t, 2, status.ActiveWorkers)
	assert.Zero(t, status.QueuedTasks)

	rejected := dial(t, ctrl.Port())
	_, err = rejected.Read(make([]byte, 1))
	assert.ErrorIs(t, err, io.EOF)

	close(release)
	reply, err := bufio.NewReader(busy).ReadString('\n')
	require.NoError(t, err)
	assert.Equal(t, "{\"cmd\":\"done\"}\n", reply)
}

func TestController_PoolSizeOneStillServes(t *testing.T) {
	var calls atomic.Int32
	ctrl := shellbridge.New(
		shellbridge.WithHandler(pingRouter(&calls)),
		shellbridge.WithPoolSize(1),
	)
	require.True(t, ctrl.Connect())
	defer ctrl.Disconnect()

	conn := dial(t, ctrl.Port())
	assert.Equal(t, "{\"cmd\":\"pong\"}\n", roundTrip(t, conn, "{\"cmd\":\"ping\"}\n"))
	assert.Equal(t, int32(1), calls.Load())
}

type recordingRefresher struct {
	mu      sync.Mutex
	folders []string
}

func (r *recordingRefresher) RefreshFolder(path string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.folders = append(r.folders, path)
	if path == "" {
		return errors.New("empty path")
	}
	return nil
}

func TestController_FilterFolders(t *testing.T) {
	ctx := context.Background()
	reg := memory.NewRegistry()
	refresher := &recordingRefresher{}
	ctrl := shellbridge.New(shellbridge.WithRegistry(reg), shellbridge.WithFolderRefresher(refresher))

	folders, err := ctrl.FilterFolders(ctx)
	require.NoError(t, err)
	assert.Empty(t, folders)

	require.NoError(t, ctrl.SetFilterFolders(ctx, `C:\Users\me\Sync`, `D:\Shared`))

	raw, err := reg.Read(ctx, domain.KeyFilterFolders)
	require.NoError(t, err)
	assert.JSONEq(t, `["C:\\Users\\me\\Sync","D:\\Shared"]`, string(raw))
	assert.Equal(t, []string{`C:\Users\me\Sync`, `D:\Shared`}, refresher.folders)

	folders, err = ctrl.FilterFolders(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{`C:\Users\me\Sync`, `D:\Shared`}, folders)

	require.NoError(t, ctrl.SetFilterFolder(ctx, ""))
	folders, err = ctrl.FilterFolders(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{""}, folders)

	require.NoError(t, ctrl.SetFilterFolders(ctx))
	raw, err = reg.Read(ctx, domain.KeyFilterFolders)
	require.NoError(t, err)
	assert.Equal(t, "[]", string(raw))
}

func TestController_SetFilterFoldersWriteFailure(t *testing.T) {
	ctrl := shellbridge.New(shellbridge.WithRegistry(failingRegistry{memory.NewRegistry()}))
	assert.ErrorContains(t, ctrl.SetFilterFolders(context.Background(), "/srv"), "access denied")
}
