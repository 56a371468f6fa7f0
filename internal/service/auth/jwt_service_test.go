package auth

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func TestGenerateAndValidateToken(t *testing.T) {
	t.Parallel()

	svc, err := NewJWTService(testSecret, time.Hour)
	require.NoError(t, err)

	userID := uuid.New()
	token, err := svc.GenerateToken(userID)
	require.NoError(t, err)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, userID, claims.UserID)
	assert.Equal(t, userID.String(), claims.Subject)
}

func TestValidateTokenRejectsWrongSecret(t *testing.T) {
	t.Parallel()

	svc, err := NewJWTService(testSecret, time.Hour)
	require.NoError(t, err)
	other, err := NewJWTService("ffffffffffffffffffffffffffffffff", time.Hour)
	require.NoError(t, err)

	token, err := svc.GenerateToken(uuid.New())
	require.NoError(t, err)

	_, err = other.ValidateToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateTokenRejectsExpired(t *testing.T) {
	t.Parallel()

	svc, err := NewJWTService(testSecret, time.Millisecond)
	require.NoError(t, err)

	token, err := svc.GenerateToken(uuid.New())
	require.NoError(t, err)

	time.Sleep(10 * time.Millisecond)
	_, err = svc.ValidateToken(token)
	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestValidateTokenRejectsGarbage(t *testing.T) {
	t.Parallel()

	svc, err := NewJWTService(testSecret, time.Hour)
	require.NoError(t, err)

	_, err = svc.ValidateToken("not.a.jwt")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestNewJWTServiceValidation(t *testing.T) {
	t.Parallel()

	_, err := NewJWTService("short", time.Hour)
	assert.Error(t, err)

	_, err = NewJWTService(testSecret, 0)
	assert.Error(t, err)
}
