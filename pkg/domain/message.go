package domain

// Message is the envelope exchanged with the native shell extension.
// The same shape is used for requests and replies.
type Message struct {
	Command string `json:"cmd"`
	Value   any    `json:"value,omitempty"`
}

// NewMessage builds a message for the given command.
func NewMessage(cmd string, value any) *Message {
	return &Message{Command: cmd, Value: value}
}
