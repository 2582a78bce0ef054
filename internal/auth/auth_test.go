package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenRoundTrip(t *testing.T) {
	m := NewManager("test-secret", time.Hour)

	tok, err := m.GenerateToken("user-1", "customer")
	require.NoError(t, err)

	sub, err := m.ValidateToken(tok)
	require.NoError(t, err)
	assert.Equal(t, "user-1", sub)
}

func TestTokenWrongSecret(t *testing.T) {
	m := NewManager("test-secret", time.Hour)
	tok, err := m.GenerateToken("user-1", "customer")
	require.NoError(t, err)

	other := NewManager("different-secret", time.Hour)
	_, err = other.ValidateToken(tok)
	assert.Error(t, err)
}

func TestTokenExpired(t *testing.T) {
	m := NewManager("test-secret", -time.Minute)
	tok, err := m.GenerateToken("user-1", "customer")
	require.NoError(t, err)

	_, err = m.ValidateToken(tok)
	assert.Error(t, err)
}

func TestTokenGarbage(t *testing.T) {
	m := NewManager("test-secret", time.Hour)
	_, err := m.ValidateToken("not.a.token")
	assert.Error(t, err)
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("hunter2hunter2")
	require.NoError(t, err)
	assert.NotEqual(t, "hunter2hunter2", hash)

	assert.True(t, CheckPassword(hash, "hunter2hunter2"))
	assert.False(t, CheckPassword(hash, "wrong-password"))
}
