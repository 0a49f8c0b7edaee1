package auth

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPasswordHashRoundTrip(t *testing.T) {
	svc := &Service{}

	hash, err := svc.hashPassword("correct horse battery staple")
	require.NoError(t, err)
	assert.Contains(t, hash, "$argon2id$")

	assert.True(t, svc.verifyPassword(hash, "correct horse battery staple"))
	assert.False(t, svc.verifyPassword(hash, "wrong password"))
}

func TestHashPasswordSaltsDiffer(t *testing.T) {
	svc := &Service{}

	h1, err := svc.hashPassword("password123")
	require.NoError(t, err)
	h2, err := svc.hashPassword("password123")
	require.NoError(t, err)

	assert.NotEqual(t, h1, h2)
}

func TestVerifyPasswordMalformedHash(t *testing.T) {
	svc := &Service{}

	assert.False(t, svc.verifyPassword("", "password"))
	assert.False(t, svc.verifyPassword("not-a-hash", "password"))
	assert.False(t, svc.verifyPassword("$argon2id$v=19$garbage", "password"))
}

func TestGenerateResetCodeFormat(t *testing.T) {
	pattern := regexp.MustCompile(`^\d{6}$`)
	for i := 0; i < 50; i++ {
		code, err := generateResetCode()
		require.NoError(t, err)
		assert.Regexp(t, pattern, code)
	}
}

func TestGenerateRandomTokenUnique(t *testing.T) {
	t1, err := generateRandomToken()
	require.NoError(t, err)
	t2, err := generateRandomToken()
	require.NoError(t, err)

	assert.NotEqual(t, t1, t2)
	assert.NotEmpty(t, t1)
}

func TestHashTokenStable(t *testing.T) {
	assert.Equal(t, hashToken("abc"), hashToken("abc"))
	assert.NotEqual(t, hashToken("abc"), hashToken("abd"))
	assert.Len(t, hashToken("abc"), 64)
}
