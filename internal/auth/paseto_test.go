package auth

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testKey = []byte("0123456789abcdef0123456789abcdef")

func TestNewPasetoServiceRejectsBadKeyLength(t *testing.T) {
	_, err := NewPasetoService([]byte("too short"))
	assert.Error(t, err)
}

func TestCreateAndVerifyToken(t *testing.T) {
	svc, err := NewPasetoService(testKey)
	require.NoError(t, err)

	userID := uuid.New()
	token, err := svc.CreateToken(userID, "alice", time.Minute)
	require.NoError(t, err)

	claims, err := svc.VerifyToken(token)
	require.NoError(t, err)
	assert.Equal(t, userID.String(), claims.UserID)
	assert.Equal(t, "alice", claims.Username)
	assert.WithinDuration(t, time.Now().Add(time.Minute), claims.ExpiresAt, 5*time.Second)
}

func TestVerifyExpiredToken(t *testing.T) {
	svc, err := NewPasetoService(testKey)
	require.NoError(t, err)

	token, err := svc.CreateToken(uuid.New(), "alice", -time.Minute)
	require.NoError(t, err)

	_, err = svc.VerifyToken(token)
	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestVerifyTamperedToken(t *testing.T) {
	svc, err := NewPasetoService(testKey)
	require.NoError(t, err)

	token, err := svc.CreateToken(uuid.New(), "alice", time.Minute)
	require.NoError(t, err)

	tampered := token[:len(token)-4] + "AAAA"
	_, err = svc.VerifyToken(tampered)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyTokenFromDifferentKey(t *testing.T) {
	svc1, err := NewPasetoService(testKey)
	require.NoError(t, err)
	svc2, err := NewPasetoService([]byte("ffffffffffffffffffffffffffffffff"))
	require.NoError(t, err)

	token, err := svc1.CreateToken(uuid.New(), "alice", time.Minute)
	require.NoError(t, err)

	_, err = svc2.VerifyToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}
