package auth

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenRoundTrip(t *testing.T) {
	a := New("test-secret", time.Hour)

	token, err := a.GenerateToken(7, "frieren")
	require.NoError(t, err)

	claims, err := a.VerifyToken(token)
	require.NoError(t, err)
	assert.Equal(t, int64(7), claims.UserID)
	assert.Equal(t, "frieren", claims.Username)
}

func TestVerifyRejectsWrongSecret(t *testing.T) {
	token, err := New("secret-a", time.Hour).GenerateToken(1, "frieren")
	require.NoError(t, err)

	_, err = New("secret-b", time.Hour).VerifyToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyRejectsExpired(t *testing.T) {
	a := New("test-secret", -time.Hour)
	// New clamps non-positive TTLs, so build the expired authenticator
	// directly.
	a.ttl = -time.Hour

	token, err := a.GenerateToken(1, "frieren")
	require.NoError(t, err)

	_, err = a.VerifyToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyRejectsGarbage(t *testing.T) {
	a := New("test-secret", time.Hour)
	_, err := a.VerifyToken("not.a.token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestFromRequest(t *testing.T) {
	a := New("test-secret", time.Hour)
	token, err := a.GenerateToken(3, "frieren")
	require.NoError(t, err)

	r := httptest.NewRequest("GET", "/api/notes", nil)
	r.Header.Set("Authorization", "Bearer "+token)
	claims, err := a.FromRequest(r)
	require.NoError(t, err)
	assert.Equal(t, int64(3), claims.UserID)

	r = httptest.NewRequest("GET", "/api/notes", nil)
	_, err = a.FromRequest(r)
	assert.ErrorIs(t, err, ErrInvalidToken)

	r.Header.Set("Authorization", token)
	_, err = a.FromRequest(r)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("MeldaErkan!5352")
	require.NoError(t, err)
	assert.NotEqual(t, "MeldaErkan!5352", hash)

	assert.True(t, ComparePassword("MeldaErkan!5352", hash))
	assert.False(t, ComparePassword("wrong", hash))
}
