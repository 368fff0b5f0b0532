package domain

// ConnectionState is the lifecycle state of the controller.
type ConnectionState int32

const (
	StateDisconnected ConnectionState = iota // No listener, no accept loop
	StateConnecting                          // Bind in progress inside Connect
	StateConnected                           // Listener bound and accept loop scheduled
)

// String returns the lowercase name of the state.
func (s ConnectionState) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	default:
		return "unknown"
	}
}

// MarshalText lets the state render as its name in JSON and logs.
func (s ConnectionState) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Status is a point-in-time view of a controller.
type Status struct {
	State         ConnectionState `json:"state"`
	Port          int             `json:"port"`
	Generation    uint64          `json:"generation"`
	ActiveWorkers int             `json:"active_workers"`
	QueuedTasks   int             `json:"queued_tasks"`
	LastError     string          `json:"last_error,omitempty"`
}
