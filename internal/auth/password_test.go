package auth

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newTestPasswordService() *PasswordService {
	return NewPasswordServiceWithCost(bcrypt.MinCost)
}

func TestHash_LooksBcrypt(t *testing.T) {
	hash, err := newTestPasswordService().Hash("password123")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(hash, "$2"))
}

func TestHash_Salted(t *testing.T) {
	ps := newTestPasswordService()
	h1, _ := ps.Hash("same-password")
	h2, _ := ps.Hash("same-password")
	assert.NotEqual(t, h1, h2)
}

func TestHash_RejectsOver72Bytes(t *testing.T) {
	_, err := newTestPasswordService().Hash(strings.Repeat("a", 73))
	assert.Error(t, err)
}

func TestVerify(t *testing.T) {
	ps := newTestPasswordService()
	hash, err := ps.Hash("correct-horse-battery-staple")
	require.NoError(t, err)

	assert.NoError(t, ps.Verify(hash, "correct-horse-battery-staple"))
	assert.ErrorIs(t, ps.Verify(hash, "wrong"), ErrInvalidPassword)
	assert.Error(t, ps.Verify("not-a-bcrypt-hash", "password"))
}
