package jwt

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndValidate(t *testing.T) {
	m := NewManager(TokenConfig{Secret: []byte("secret")})

	token, err := m.Generate("tom", "owner")
	require.NoError(t, err)

	claims, err := m.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, "tom", claims.Username)
	assert.Equal(t, "owner", claims.Role)
	assert.Equal(t, "question-bank", claims.Issuer)
}

func TestValidateRejectsOtherSecret(t *testing.T) {
	token, err := NewManager(TokenConfig{Secret: []byte("one")}).Generate("tom", "")
	require.NoError(t, err)

	_, err = NewManager(TokenConfig{Secret: []byte("two")}).Validate(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateRejectsOtherIssuer(t *testing.T) {
	token, err := NewManager(TokenConfig{Secret: []byte("s"), Issuer: "elsewhere"}).Generate("tom", "")
	require.NoError(t, err)

	_, err = NewManager(TokenConfig{Secret: []byte("s")}).Validate(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateExpired(t *testing.T) {
	m := NewManager(TokenConfig{Secret: []byte("secret"), TTL: time.Minute})
	m.now = func() time.Time { return time.Now().Add(-time.Hour) }

	token, err := m.Generate("tom", "")
	require.NoError(t, err)

	_, err = m.Validate(token)
	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestGenerateRequiresUsername(t *testing.T) {
	_, err := NewManager(TokenConfig{Secret: []byte("secret")}).Generate("", "owner")
	assert.ErrorIs(t, err, ErrInvalidToken)
}
