// Package ids generates identifiers for accepted connections.
package ids

import "github.com/oklog/ulid/v2"

// NewConnID returns a ULID string for a freshly accepted connection. IDs sort by accept
// time, and IDs minted within the same millisecond still increase. Safe for concurrent use.
func NewConnID() string {
	return ulid.Make().String()
}
