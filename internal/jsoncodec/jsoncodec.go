// Package jsoncodec is the single JSON entry point of the bridge. Wire messages, registry
// values and admin responses all go through the same sonic configuration, so the native
// peer sees identical encodings whichever component produced them.
package jsoncodec

import (
	"io"

	"github.com/bytedance/sonic"
)

// api matches encoding/json output byte for byte (sorted map keys, HTML escaping).
var api = sonic.ConfigStd

// Marshal encodes v without a trailing newline.
func Marshal(v any) ([]byte, error) {
	return api.Marshal(v)
}

// Unmarshal decodes data into v.
func Unmarshal(data []byte, v any) error {
	return api.Unmarshal(data, v)
}

// Encode writes v to w followed by a newline.
func Encode(w io.Writer, v any) error {
	return api.NewEncoder(w).Encode(v)
}

// Decode reads one JSON value from r into v.
func Decode(r io.Reader, v any) error {
	return api.NewDecoder(r).Decode(v)
}
