package jsoncodec

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeAppendsNewline(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, map[string]string{"cmd": "pong"}))
	assert.Equal(t, "{\"cmd\":\"pong\"}\n", buf.String())
}

func TestDecodeRejectsGarbage(t *testing.T) {
	var v map[string]any
	assert.Error(t, Unmarshal([]byte("{not json"), &v))
}

func TestMarshalMatchesEncodeWithoutNewline(t *testing.T) {
	v := map[string]any{"value": []string{`C:\Sync`}, "cmd": "filterFolders"}

	data, err := Marshal(v)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, v))
	assert.Equal(t, string(data)+"\n", buf.String())
	assert.Equal(t, `{"cmd":"filterFolders","value":["C:\\Sync"]}`, string(data))
}

func TestDecodeReadsOneValue(t *testing.T) {
	var folders []string
	require.NoError(t, Decode(strings.NewReader(`["/a","/b"]`), &folders))
	assert.Equal(t, []string{"/a", "/b"}, folders)
}
