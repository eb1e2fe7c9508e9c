package secrets

import (
	"bytes"
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rendis/composiotools/pkg/schema"
)

// memStore is an in-memory SecretStore.
type memStore struct {
	mu   sync.Mutex
	data map[string][]byte
}

func newMemStore() *memStore {
	return &memStore{data: make(map[string][]byte)}
}

func (m *memStore) StoreSecret(_ context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = append([]byte(nil), value...)
	return nil
}

func (m *memStore) GetSecret(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	if !ok {
		return nil, schema.NewErrorf(schema.ErrCodeNotFound, "secret %q not found", key)
	}
	return v, nil
}

func (m *memStore) DeleteSecret(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.data[key]; !ok {
		return schema.NewErrorf(schema.ErrCodeNotFound, "secret %q not found", key)
	}
	delete(m.data, key)
	return nil
}

func (m *memStore) ListSecrets(_ context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	keys := make([]string, 0, len(m.data))
	for k := range m.data {
		keys = append(keys, k)
	}
	return keys, nil
}

func masterKey(seed byte) []byte {
	key := make([]byte, keySize)
	for i := range key {
		key[i] = seed + byte(i)
	}
	return key
}

func testVault(t *testing.T) (*AESVault, *memStore) {
	t.Helper()
	s := newMemStore()
	v, err := NewAESVault(s, VaultConfig{MasterKey: masterKey(0)})
	require.NoError(t, err)
	return v, s
}

func TestAESVault_StoreAndResolve(t *testing.T) {
	v, s := testVault(t)
	ctx := context.Background()

	require.NoError(t, v.Store(ctx, "node/n1/api_key", []byte("ck_live_123")))

	got, err := v.Resolve(ctx, "node/n1/api_key")
	require.NoError(t, err)
	assert.Equal(t, []byte("ck_live_123"), got)

	raw := s.data["node/n1/api_key"]
	assert.False(t, bytes.Contains(raw, []byte("ck_live_123")), "plaintext must not be stored")
}

func TestAESVault_CiphertextBoundToKey(t *testing.T) {
	v, s := testVault(t)
	ctx := context.Background()

	require.NoError(t, v.Store(ctx, "node/a/api_key", []byte("key-a")))
	s.data["node/b/api_key"] = s.data["node/a/api_key"]

	_, err := v.Resolve(ctx, "node/b/api_key")
	require.Error(t, err)
	assert.Equal(t, schema.ErrCodeVault, schema.CodeOf(err))
}

func TestAESVault_PassphraseDerivation(t *testing.T) {
	s := newMemStore()
	ctx := context.Background()
	cfg := VaultConfig{Passphrase: "correct horse", Salt: []byte("salt-1234"), Iterations: 1000}

	v1, err := NewAESVault(s, cfg)
	require.NoError(t, err)
	require.NoError(t, v1.Store(ctx, "k", []byte("value")))

	v2, err := NewAESVault(s, cfg)
	require.NoError(t, err)
	got, err := v2.Resolve(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("value"), got)
}

func TestAESVault_WrongKeyCannotDecrypt(t *testing.T) {
	v, s := testVault(t)
	ctx := context.Background()
	require.NoError(t, v.Store(ctx, "k", []byte("value")))

	other, err := NewAESVault(s, VaultConfig{MasterKey: masterKey(7)})
	require.NoError(t, err)
	_, err = other.Resolve(ctx, "k")
	assert.Equal(t, schema.ErrCodeVault, schema.CodeOf(err))
}

func TestAESVault_TruncatedCiphertext(t *testing.T) {
	v, s := testVault(t)
	s.data["k"] = []byte{1, 2, 3}

	_, err := v.Resolve(context.Background(), "k")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "too short")
}

func TestAESVault_UniqueNonces(t *testing.T) {
	v, s := testVault(t)
	ctx := context.Background()

	require.NoError(t, v.Store(ctx, "a", []byte("same")))
	require.NoError(t, v.Store(ctx, "b", []byte("same")))
	assert.NotEqual(t, s.data["a"], s.data["b"])
}

func TestAESVault_ResolveNotFound(t *testing.T) {
	v, _ := testVault(t)
	_, err := v.Resolve(context.Background(), "missing")
	assert.True(t, schema.IsNotFound(err))
}

func TestNewAESVault_ConfigErrors(t *testing.T) {
	tests := []struct {
		name string
		cfg  VaultConfig
		msg  string
	}{
		{"short master key", VaultConfig{MasterKey: []byte("short")}, "must be 32 bytes"},
		{"nothing", VaultConfig{}, "master key or passphrase"},
		{"no salt", VaultConfig{Passphrase: "p"}, "salt is required"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewAESVault(newMemStore(), tc.cfg)
			require.Error(t, err)
			assert.Equal(t, schema.ErrCodeVault, schema.CodeOf(err))
			assert.Contains(t, err.Error(), tc.msg)
		})
	}
}
