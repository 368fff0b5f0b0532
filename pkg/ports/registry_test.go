package ports_test

import (
	"context"
	"errors"
	"testing"

	"github.com/aretw0/shellbridge/pkg/domain"
	"github.com/aretw0/shellbridge/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// MockRegistry is a map-backed Registry used to exercise the port helpers.
type MockRegistry struct {
	data     map[string][]byte
	writeErr error
}

func NewMockRegistry() *MockRegistry {
	return &MockRegistry{data: make(map[string][]byte)}
}

func (m *MockRegistry) Write(ctx context.Context, key string, value []byte) error {
	if m.writeErr != nil {
		return m.writeErr
	}
	m.data[key] = append([]byte(nil), value...)
	return nil
}

func (m *MockRegistry) Read(ctx context.Context, key string) ([]byte, error) {
	v, ok := m.data[key]
	if !ok {
		return nil, domain.ErrKeyNotFound
	}
	return v, nil
}

func (m *MockRegistry) Delete(ctx context.Context, key string) error {
	delete(m.data, key)
	return nil
}

func (m *MockRegistry) List(ctx context.Context) ([]string, error) {
	keys := make([]string, 0, len(m.data))
	for k := range m.data {
		keys = append(keys, k)
	}
	return keys, nil
}

func TestMockRegistry_Contract(t *testing.T) {
	ports.RunRegistryContract(t, NewMockRegistry())
}

func TestPublishPort_WritesDecimal(t *testing.T) {
	reg := NewMockRegistry()

	require.NoError(t, ports.PublishPort(context.Background(), reg, 51000))
	assert.Equal(t, "51000", string(reg.data[domain.KeyPort]))
}

func TestPublishPort_WrapsFailure(t *testing.T) {
	reg := NewMockRegistry()
	reg.writeErr = errors.New("access denied")

	err := ports.PublishPort(context.Background(), reg, 51000)
	assert.ErrorIs(t, err, domain.ErrPublishFailed)
	assert.ErrorIs(t, err, reg.writeErr)
}

func TestLookupPort(t *testing.T) {
	ctx := context.Background()

	t.Run("Missing", func(t *testing.T) {
		_, err := ports.LookupPort(ctx, NewMockRegistry())
		assert.True(t, ports.IsNotFound(err))
	})

	t.Run("Garbage", func(t *testing.T) {
		reg := NewMockRegistry()
		reg.data[domain.KeyPort] = []byte("not-a-port")
		_, err := ports.LookupPort(ctx, reg)
		assert.Error(t, err)
	})

	t.Run("Out of range", func(t *testing.T) {
		reg := NewMockRegistry()
		reg.data[domain.KeyPort] = []byte("70000")
		_, err := ports.LookupPort(ctx, reg)
		assert.Error(t, err)
	})

	t.Run("Trailing newline", func(t *testing.T) {
		reg := NewMockRegistry()
		reg.data[domain.KeyPort] = []byte("49152\n")
		port, err := ports.LookupPort(ctx, reg)
		require.NoError(t, err)
		assert.Equal(t, 49152, port)
	})
}
