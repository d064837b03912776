package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

func TestUserTokenRoundTrip(t *testing.T) {
	issuer := NewTokenIssuer("test-secret")

	token, err := issuer.IssueUserToken("user-123")
	require.NoError(t, err)

	principal, err := issuer.Verify(token)
	require.NoError(t, err)
	require.Equal(t, "user-123", principal.UserID)
	require.False(t, principal.IsGuest)
}

func TestGuestTokenRoundTrip(t *testing.T) {
	issuer := NewTokenIssuer("test-secret")

	token, err := issuer.IssueGuestToken()
	require.NoError(t, err)

	principal, err := issuer.Verify(token)
	require.NoError(t, err)
	require.True(t, principal.IsGuest)
	require.Empty(t, principal.UserID)
}

func TestVerify_WrongSecret(t *testing.T) {
	token, err := NewTokenIssuer("secret-a").IssueUserToken("user-123")
	require.NoError(t, err)

	_, err = NewTokenIssuer("secret-b").Verify(token)
	require.ErrorIs(t, err, ErrTokenInvalid)
}

func TestVerify_Garbage(t *testing.T) {
	issuer := NewTokenIssuer("test-secret")

	_, err := issuer.Verify("not.a.token")
	require.ErrorIs(t, err, ErrTokenInvalid)
}

func TestVerify_Expired(t *testing.T) {
	secret := []byte("test-secret")
	claims := jwt.MapClaims{
		"sub": "user-123",
		"iat": time.Now().Add(-2 * time.Hour).Unix(),
		"exp": time.Now().Add(-1 * time.Hour).Unix(),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	require.NoError(t, err)

	_, err = NewTokenIssuer("test-secret").Verify(token)
	require.ErrorIs(t, err, ErrTokenInvalid)
}

func TestVerify_MissingIdentityClaim(t *testing.T) {
	// A validly signed token with neither a subject nor the guest flag.
	secret := []byte("test-secret")
	claims := jwt.MapClaims{
		"iat": time.Now().Unix(),
		"exp": time.Now().Add(time.Hour).Unix(),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	require.NoError(t, err)

	_, err = NewTokenIssuer("test-secret").Verify(token)
	require.ErrorIs(t, err, ErrTokenMalformed)
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("hunter2")
	require.NoError(t, err)
	require.NotEqual(t, "hunter2", hash)

	require.True(t, CheckPasswordHash("hunter2", hash))
	require.False(t, CheckPasswordHash("hunter3", hash))
}
