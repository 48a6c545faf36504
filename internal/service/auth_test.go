package service

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssueAndParseToken(t *testing.T) {
	auth := NewAuthService(&mockLogger{}, "secret")

	token, err := auth.IssueToken("1234", []string{"admin"}, time.Hour)
	require.NoError(t, err)

	claims, err := auth.ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, "1234", claims.UserID)
	assert.Equal(t, []string{"admin"}, claims.Roles)
	require.NotNil(t, claims.ExpiresAt)
}

func TestIssueToken_EmptySecret(t *testing.T) {
	auth := NewAuthService(&mockLogger{}, "")
	_, err := auth.IssueToken("1234", nil, time.Hour)
	assert.Error(t, err)
}

func TestIssueToken_EmptyUser(t *testing.T) {
	auth := NewAuthService(&mockLogger{}, "secret")
	_, err := auth.IssueToken("", nil, time.Hour)
	assert.Error(t, err)
}

func TestParseToken_WrongSecret(t *testing.T) {
	token, err := NewAuthService(&mockLogger{}, "other").IssueToken("1234", nil, 0)
	require.NoError(t, err)

	_, err = NewAuthService(&mockLogger{}, "secret").ParseToken(token)
	assert.Error(t, err)
}

func TestParseToken_Expired(t *testing.T) {
	auth := NewAuthService(&mockLogger{}, "secret").(*authService)
	auth.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	token, err := auth.IssueToken("1234", nil, time.Hour)
	require.NoError(t, err)

	_, err = auth.ParseToken(token)
	assert.Error(t, err)
}

func TestParseToken_RejectsNoneAlgorithm(t *testing.T) {
	token := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{UserID: "1234"})
	s, err := token.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = NewAuthService(&mockLogger{}, "secret").ParseToken(s)
	assert.Error(t, err)
}

func TestHasRole(t *testing.T) {
	assert.True(t, HasRole([]string{"member", "admin"}, []string{"admin"}))
	assert.False(t, HasRole([]string{"member"}, []string{"admin"}))
	assert.False(t, HasRole(nil, []string{"admin"}))
}
