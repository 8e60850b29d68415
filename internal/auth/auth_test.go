package auth

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-key-32-bytes-long!!!"

func TestTokenService_IssueAndVerify(t *testing.T) {
	clock := clockwork.NewFakeClock()
	svc := NewTokenService(testSecret, 24*time.Hour, clock)
	userID := uuid.New()

	token, err := svc.Issue(userID)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	verified, err := svc.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, userID, verified)
}

func TestTokenService_VerifyExpiredToken(t *testing.T) {
	clock := clockwork.NewFakeClock()
	svc := NewTokenService(testSecret, time.Hour, clock)

	token, err := svc.Issue(uuid.New())
	require.NoError(t, err)

	clock.Advance(2 * time.Hour)

	_, err = svc.Verify(token)
	assert.Error(t, err)
}

func TestTokenService_VerifyWrongSecret(t *testing.T) {
	clock := clockwork.NewFakeClock()
	svc := NewTokenService(testSecret, time.Hour, clock)
	other := NewTokenService("another-secret-key-32-bytes-long", time.Hour, clock)

	token, err := other.Issue(uuid.New())
	require.NoError(t, err)

	_, err = svc.Verify(token)
	assert.Error(t, err)
}

func TestTokenService_VerifyGarbage(t *testing.T) {
	svc := NewTokenService(testSecret, time.Hour, clockwork.NewFakeClock())

	_, err := svc.Verify("not-a-token")
	assert.Error(t, err)

	_, err = svc.Verify("")
	assert.Error(t, err)
}

func TestTokenService_VerifyRejectsUnsignedToken(t *testing.T) {
	svc := NewTokenService(testSecret, time.Hour, clockwork.NewFakeClock())

	// alg=none token with a valid-looking payload.
	unsigned := "eyJhbGciOiJub25lIiwidHlwIjoiSldUIn0." +
		"eyJzdWIiOiIxMjM0NTY3ODkwIn0."
	_, err := svc.Verify(unsigned)
	assert.Error(t, err)
}

func TestHashAndCheckPassword(t *testing.T) {
	hash, err := HashPassword("password123")
	require.NoError(t, err)
	assert.NotEqual(t, "password123", hash)

	assert.True(t, CheckPassword("password123", hash))
	assert.False(t, CheckPassword("wrong-password", hash))
	assert.False(t, CheckPassword("password123", "not-a-hash"))
}

func TestHashPassword_UniqueSalts(t *testing.T) {
	first, err := HashPassword("password123")
	require.NoError(t, err)
	second, err := HashPassword("password123")
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
}
