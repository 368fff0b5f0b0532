package dispatch

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/aretw0/shellbridge/pkg/domain"
)

// readFrame reads one request: everything up to the first newline, or up to EOF when the
// peer half-closes without one. Frames longer than max bytes are rejected.
func readFrame(r io.Reader, max int) ([]byte, error) {
	br := bufio.NewReader(io.LimitReader(r, int64(max)+1))

	line, err := br.ReadBytes('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}

	frame := bytes.TrimRight(line, "\r\n")
	if len(frame) > max {
		return nil, fmt.Errorf("%w: more than %d bytes", domain.ErrFrameTooLarge, max)
	}
	if len(bytes.TrimSpace(frame)) == 0 {
		return nil, domain.ErrEmptyFrame
	}
	return frame, nil
}
