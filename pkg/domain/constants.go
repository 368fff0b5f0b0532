package domain

import "time"

// Listener constants.
const (
	// DefaultPort is the port value before any bind happened. It is never guaranteed to be
	// the bound port.
	DefaultPort = 33001

	// PortRangeMin and PortRangeMax bound the ephemeral range candidate ports are drawn from.
	PortRangeMin = 49152
	PortRangeMax = 65535

	// DefaultBacklog is the number of pending connections the kernel queues for us.
	DefaultBacklog = 50

	// DefaultMaxBindAttempts is how many random ports are tried before giving up.
	DefaultMaxBindAttempts = 5

	// LoopbackHost is the only interface the bridge listens on.
	LoopbackHost = "127.0.0.1"
)

// Registry keys.
const (
	// RegistryNamespace is the default namespace (key prefix, directory, registry path).
	RegistryNamespace = "shellbridge"

	// KeyPort holds the decimal port number the native extension dials.
	KeyPort = "port"

	// KeyFilterFolders holds the JSON array of folders the extension decorates.
	KeyFilterFolders = "filterFolders"
)

// Pool and handler defaults.
const (
	DefaultMaxWorkers      = 32
	DefaultQueueSize       = 64
	DefaultDrainTimeout    = 5 * time.Second
	DefaultReadTimeout     = 30 * time.Second
	DefaultMaxMessageBytes = 1 << 20

	// MinWorkers is the smallest usable pool: the accept loop holds one worker for its
	// whole life, so at least one more is needed to serve a connection.
	MinWorkers = 2
)

// DefaultBindTimeout bounds a whole Connect bind phase, registry publish included.
const DefaultBindTimeout = 10 * time.Second
