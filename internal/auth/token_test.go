package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInspect(t *testing.T) {
	exp := time.Date(2030, 1, 2, 3, 4, 5, 0, time.UTC)
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":        "7",
		"user_id":    7,
		"token_type": "access",
		"exp":        exp.Unix(),
	}).SignedString([]byte("not-the-server-key"))
	require.NoError(t, err)

	info, err := Inspect(tok)

	require.NoError(t, err)
	assert.Equal(t, "7", info.Subject)
	assert.Equal(t, "7", info.UserID)
	assert.Equal(t, "access", info.TokenType)
	assert.True(t, info.ExpiresAt.Equal(exp))
	assert.False(t, info.Expired(exp.Add(-time.Minute)))
	assert.True(t, info.Expired(exp.Add(time.Minute)))
}

func TestInspect_Garbage(t *testing.T) {
	_, err := Inspect("not-a-jwt")
	assert.Error(t, err)
}
