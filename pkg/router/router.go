// Package router dispatches decoded messages to per-command handlers.
package router

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/aretw0/shellbridge/pkg/domain"
)

// CommandFunc handles one command. A nil reply means nothing is written back.
type CommandFunc func(ctx context.Context, msg domain.Message) (*domain.Message, error)

// Router maps command names to handlers. It implements ports.MessageHandler.
type Router struct {
	mu       sync.RWMutex
	commands map[string]CommandFunc
	fallback CommandFunc
}

// New creates an empty router.
func New() *Router {
	return &Router{
		commands: make(map[string]CommandFunc),
	}
}

// Handle registers fn for cmd, replacing any previous handler.
func (r *Router) Handle(cmd string, fn CommandFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.commands[cmd] = fn
}

// Fallback sets the handler used for unregistered commands.
func (r *Router) Fallback(fn CommandFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fallback = fn
}

// Commands lists the registered command names in sorted order.
func (r *Router) Commands() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.commands))
	for name := range r.commands {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// HandleMessage looks up the handler for msg.Command and runs it.
// Unknown commands return domain.ErrUnknownCommand unless a fallback is set.
func (r *Router) HandleMessage(ctx context.Context, msg domain.Message) (*domain.Message, error) {
	r.mu.RLock()
	fn, ok := r.commands[msg.Command]
	fallback := r.fallback
	r.mu.RUnlock()

	if !ok {
		if fallback == nil {
			return nil, fmt.Errorf("%w: %s", domain.ErrUnknownCommand, msg.Command)
		}
		fn = fallback
	}
	return fn(ctx, msg)
}

// Pong answers every message with {"cmd":"pong"}.
func Pong(context.Context, domain.Message) (*domain.Message, error) {
	return domain.NewMessage("pong", nil), nil
}

// Echo replies with the received message unchanged.
func Echo(_ context.Context, msg domain.Message) (*domain.Message, error) {
	return &msg, nil
}
