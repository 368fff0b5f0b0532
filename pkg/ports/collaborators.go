package ports

import (
	"context"

	"github.com/aretw0/shellbridge/pkg/domain"
)

// Preloader prepares native dependencies before the bridge binds a socket.
// Connect does nothing when Load fails.
type Preloader interface {
	Load() error
}

// PreloaderFunc adapts a function to Preloader.
type PreloaderFunc func() error

// Load calls f.
func (f PreloaderFunc) Load() error { return f() }

// NopPreloader always succeeds.
type NopPreloader struct{}

// Load implements Preloader.
func (NopPreloader) Load() error { return nil }

// MessageHandler is the host callback invoked once per accepted connection.
// A nil reply means nothing is written back to the peer.
type MessageHandler interface {
	HandleMessage(ctx context.Context, msg domain.Message) (*domain.Message, error)
}

// MessageHandlerFunc adapts a function to MessageHandler.
type MessageHandlerFunc func(ctx context.Context, msg domain.Message) (*domain.Message, error)

// HandleMessage calls f.
func (f MessageHandlerFunc) HandleMessage(ctx context.Context, msg domain.Message) (*domain.Message, error) {
	return f(ctx, msg)
}

// Codec turns raw frame bytes into messages and back.
type Codec interface {
	Decode(data []byte) (domain.Message, error)
	Encode(msg *domain.Message) ([]byte, error)
}

// FolderRefresher asks the shell to redraw a folder after its decoration changed.
type FolderRefresher interface {
	RefreshFolder(path string) error
}
