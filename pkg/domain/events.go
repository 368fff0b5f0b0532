package domain

import "time"

// EventType defines the category of a socket event.
type EventType string

const (
	EventSocketOpen  EventType = "socket_open"
	EventSocketClose EventType = "socket_close"
)

// SocketEvent is delivered to socket-open and socket-close listeners.
type SocketEvent struct {
	Timestamp  time.Time `json:"timestamp"`
	Type       EventType `json:"type"`
	Port       int       `json:"port"`
	Generation uint64    `json:"generation"`
	// Err is set on socket-close when the accept loop stopped on an unexpected error.
	Err error `json:"-"`
}

// SocketListener receives socket events. Listeners run synchronously on the firing goroutine.
type SocketListener func(SocketEvent)
