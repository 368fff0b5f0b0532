package dispatch

import (
	"fmt"

	"github.com/aretw0/shellbridge/internal/jsoncodec"
	"github.com/aretw0/shellbridge/pkg/domain"
)

// JSONCodec reads and writes {"cmd": ..., "value": ...} envelopes.
type JSONCodec struct{}

// Decode implements ports.Codec.
func (JSONCodec) Decode(data []byte) (domain.Message, error) {
	var msg domain.Message
	if err := jsoncodec.Unmarshal(data, &msg); err != nil {
		return domain.Message{}, fmt.Errorf("decode message: %w", err)
	}
	if msg.Command == "" {
		return domain.Message{}, domain.ErrMissingCommand
	}
	return msg, nil
}

// Encode implements ports.Codec. The result carries no trailing newline.
func (JSONCodec) Encode(msg *domain.Message) ([]byte, error) {
	data, err := jsoncodec.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("encode message: %w", err)
	}
	return data, nil
}
