package file_test

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/aretw0/shellbridge/internal/adapters/file"
	"github.com/aretw0/shellbridge/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileRegistry_Contract(t *testing.T) {
	registry := file.New(t.TempDir())
	ports.RunRegistryContract(t, registry)
}

func TestFileRegistry_PortIsPlainFile(t *testing.T) {
	dir := t.TempDir()
	registry := file.New(dir)

	require.NoError(t, ports.PublishPort(context.Background(), registry, 52001))

	// The native peer reads this file directly.
	data, err := os.ReadFile(filepath.Join(dir, "port"))
	require.NoError(t, err)
	assert.Equal(t, "52001", string(data))
}

func TestFileRegistry_OverwriteNeverHidesKey(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("windows refuses to replace a file another handle has open")
	}

	registry := file.New(t.TempDir())
	ctx := context.Background()
	require.NoError(t, ports.PublishPort(ctx, registry, 50000))

	var (
		missing atomic.Int64
		wg      sync.WaitGroup
		done    = make(chan struct{})
	)
	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-done:
				return
			default:
			}
			if _, err := ports.LookupPort(ctx, registry); err != nil {
				missing.Add(1)
			}
		}
	}()

	for i := 0; i < 500; i++ {
		require.NoError(t, ports.PublishPort(ctx, registry, 50000+i))
	}
	close(done)
	wg.Wait()

	assert.Zero(t, missing.Load(), "reader saw the key missing during overwrites")

	port, err := ports.LookupPort(ctx, registry)
	require.NoError(t, err)
	assert.Equal(t, 50499, port)
}

func TestFileRegistry_NoTempLeftovers(t *testing.T) {
	dir := t.TempDir()
	registry := file.New(dir)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		require.NoError(t, registry.Write(ctx, "port", []byte("50000")))
	}

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestFileRegistry_RejectsTraversal(t *testing.T) {
	registry := file.New(t.TempDir())
	ctx := context.Background()

	assert.Error(t, registry.Write(ctx, "../escape", []byte("x")))
	assert.Error(t, registry.Write(ctx, "", []byte("x")))
	_, err := registry.Read(ctx, "a/b")
	assert.Error(t, err)
}

func TestFileRegistry_ListMissingDir(t *testing.T) {
	registry := file.New(filepath.Join(t.TempDir(), "never-created"))

	keys, err := registry.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, keys)
}
