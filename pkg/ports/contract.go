package ports

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/shellbridge/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunRegistryContract runs a suite of tests to verify that a Registry implementation
// adheres to the defined interface contract.
func RunRegistryContract(t *testing.T, registry Registry) {
	ctx := context.Background()
	key := "contract-" + time.Now().Format("20060102150405")

	t.Run("Write and Read", func(t *testing.T) {
		err := registry.Write(ctx, key, []byte("hello"))
		require.NoError(t, err, "Write should not return error")

		value, err := registry.Read(ctx, key)
		require.NoError(t, err, "Read should not return error")
		assert.Equal(t, "hello", string(value))
	})

	t.Run("Overwrite", func(t *testing.T) {
		require.NoError(t, registry.Write(ctx, key, []byte("first")))
		require.NoError(t, registry.Write(ctx, key, []byte("second")))

		value, err := registry.Read(ctx, key)
		require.NoError(t, err)
		assert.Equal(t, "second", string(value))
	})

	t.Run("Read Non-Existent", func(t *testing.T) {
		_, err := registry.Read(ctx, "missing-"+key)
		assert.ErrorIs(t, err, domain.ErrKeyNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, registry.Write(ctx, key, []byte("doomed")))

		err := registry.Delete(ctx, key)
		require.NoError(t, err, "Delete should not return error")

		_, err = registry.Read(ctx, key)
		assert.ErrorIs(t, err, domain.ErrKeyNotFound, "Read after Delete should return ErrKeyNotFound")

		assert.NoError(t, registry.Delete(ctx, key), "Deleting a missing key is not an error")
	})

	t.Run("List", func(t *testing.T) {
		k1 := key + "-1"
		k2 := key + "-2"
		_ = registry.Write(ctx, k1, []byte("a"))
		_ = registry.Write(ctx, k2, []byte("b"))

		defer func() {
			_ = registry.Delete(ctx, k1)
			_ = registry.Delete(ctx, k2)
		}()

		keys, err := registry.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, keys, k1)
		assert.Contains(t, keys, k2)
	})

	t.Run("Publish and Lookup Port", func(t *testing.T) {
		require.NoError(t, PublishPort(ctx, registry, 51000))

		port, err := LookupPort(ctx, registry)
		require.NoError(t, err)
		assert.Equal(t, 51000, port)
	})
}
