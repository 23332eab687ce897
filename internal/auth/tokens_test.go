package auth

import (
	"encoding/hex"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testTokenService(t *testing.T, accessDuration time.Duration) *TokenService {
	t.Helper()
	key := make([]byte, 32)
	for i := range key {
		key[i] = byte(i)
	}
	ts, err := NewTokenService(hex.EncodeToString(key), accessDuration, 30*24*time.Hour)
	require.NoError(t, err)
	return ts
}

func TestNewTokenService_RejectsBadKeys(t *testing.T) {
	_, err := NewTokenService("short", time.Minute, time.Hour)
	assert.Error(t, err)

	_, err = NewTokenService(string(make([]byte, 64)), time.Minute, time.Hour)
	assert.Error(t, err, "64 non-hex bytes must be rejected")
}

func TestAccessToken_RoundTrip(t *testing.T) {
	ts := testTokenService(t, 15*time.Minute)

	token, err := ts.GenerateAccessToken("sess-abc123")
	require.NoError(t, err)

	claims, err := ts.VerifyAccessToken(token)
	require.NoError(t, err)
	assert.Equal(t, "sess-abc123", claims.SessionID)
	assert.NotEmpty(t, claims.Jti)
}

func TestAccessToken_Expired(t *testing.T) {
	ts := testTokenService(t, -time.Minute)

	token, err := ts.GenerateAccessToken("sess-abc123")
	require.NoError(t, err)

	_, err = ts.VerifyAccessToken(token)
	assert.Error(t, err)
}

func TestAccessToken_WrongKey(t *testing.T) {
	ts := testTokenService(t, 15*time.Minute)
	token, err := ts.GenerateAccessToken("sess-abc123")
	require.NoError(t, err)

	other := make([]byte, 32)
	for i := range other {
		other[i] = byte(255 - i)
	}
	ts2, err := NewTokenService(hex.EncodeToString(other), 15*time.Minute, time.Hour)
	require.NoError(t, err)

	_, err = ts2.VerifyAccessToken(token)
	assert.Error(t, err)
}

func TestRefreshToken_HashIsStableAndOpaque(t *testing.T) {
	ts := testTokenService(t, 15*time.Minute)

	token, err := ts.GenerateRefreshToken()
	require.NoError(t, err)
	assert.NotEmpty(t, token)

	h1 := HashRefreshToken(token)
	h2 := HashRefreshToken(token)
	assert.Equal(t, h1, h2)
	assert.NotEqual(t, token, h1)
	assert.Len(t, h1, 64) // sha256 hex
}

func TestLoadOrGenerateKey(t *testing.T) {
	dir := t.TempDir()

	key1, err := LoadOrGenerateKey(dir)
	require.NoError(t, err)
	assert.Len(t, key1, 32)

	// Second call loads the same key.
	key2, err := LoadOrGenerateKey(dir)
	require.NoError(t, err)
	assert.Equal(t, key1, key2)
}
