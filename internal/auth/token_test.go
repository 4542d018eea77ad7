package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "0123456789abcdef0123"

func TestNewTokenService_RejectsShortSecret(t *testing.T) {
	_, err := NewTokenService("short")
	assert.Error(t, err)
}

func TestGenerateValidate_RoundTrip(t *testing.T) {
	svc, err := NewTokenService(testSecret)
	require.NoError(t, err)

	token, expiresAt, err := svc.Generate("user-123", "admin")
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(SessionTTL), expiresAt, 5*time.Second)

	claims, err := svc.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, "user-123", claims.Subject)
	assert.Equal(t, "admin", claims.Role)
}

func TestValidate_Expired(t *testing.T) {
	svc, _ := NewTokenService(testSecret)

	token, _, err := svc.GenerateWithDuration("user-123", "user", -time.Minute)
	require.NoError(t, err)

	_, err = svc.Validate(token)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestValidate_WrongSecret(t *testing.T) {
	a, _ := NewTokenService(testSecret)
	b, _ := NewTokenService("another-secret-entirely")

	token, _, err := a.Generate("user-123", "user")
	require.NoError(t, err)

	_, err = b.Validate(token)
	assert.Error(t, err)
}

func TestValidate_Garbage(t *testing.T) {
	svc, _ := NewTokenService(testSecret)
	_, err := svc.Validate("not.a.jwt")
	assert.Error(t, err)
}
