package credential

import (
	"errors"
	"testing"

	"github.com/99designs/keyring"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func useRing(t *testing.T, ring keyring.Keyring) {
	t.Helper()
	prev := Opener
	Opener = func() (keyring.Keyring, error) { return ring, nil }
	t.Cleanup(func() { Opener = prev })
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, name := range apiKeyEnv {
		t.Setenv(name, "")
	}
}

func TestSetGetDelete(t *testing.T) {
	useRing(t, keyring.NewArrayKeyring(nil))

	require.NoError(t, Set(GeminiKey, "secret"))
	got, err := Get(GeminiKey)
	require.NoError(t, err)
	assert.Equal(t, "secret", got)

	require.NoError(t, Delete(GeminiKey))
	_, err = Get(GeminiKey)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestAPIKeyPrefersEnvironment(t *testing.T) {
	clearEnv(t)
	useRing(t, keyring.NewArrayKeyring([]keyring.Item{{Key: GeminiKey, Data: []byte("from-ring")}}))

	t.Setenv("API_KEY", "from-api-key")
	key, err := APIKey()
	require.NoError(t, err)
	assert.Equal(t, "from-api-key", key)

	t.Setenv("GEMINI_API_KEY", "from-gemini")
	key, err = APIKey()
	require.NoError(t, err)
	assert.Equal(t, "from-gemini", key)
}

func TestAPIKeyFallsBackToKeyring(t *testing.T) {
	clearEnv(t)
	useRing(t, keyring.NewArrayKeyring([]keyring.Item{{Key: GeminiKey, Data: []byte(" from-ring\n")}}))

	key, err := APIKey()
	require.NoError(t, err)
	assert.Equal(t, "from-ring", key)
}

func TestAPIKeyMissing(t *testing.T) {
	clearEnv(t)
	useRing(t, keyring.NewArrayKeyring([]keyring.Item{{Key: GeminiKey, Data: []byte("  ")}}))

	_, err := APIKey()
	assert.ErrorIs(t, err, ErrNotFound)

	useRing(t, keyring.NewArrayKeyring(nil))
	_, err = APIKey()
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestOpenFailure(t *testing.T) {
	boom := errors.New("no backend")
	prev := Opener
	Opener = func() (keyring.Keyring, error) { return nil, boom }
	t.Cleanup(func() { Opener = prev })

	_, err := Get(GeminiKey)
	assert.ErrorIs(t, err, boom)
	assert.ErrorIs(t, Set(GeminiKey, "x"), boom)
	assert.ErrorIs(t, Delete(GeminiKey), boom)
}
