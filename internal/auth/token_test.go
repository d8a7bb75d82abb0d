package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTokenIssuer(t *testing.T) {
	ti, err := NewTokenIssuer("", time.Hour)
	require.Error(t, err)
	require.Nil(t, ti)

	ti, err = NewTokenIssuer("test-secret", 0)
	require.NoError(t, err)
	require.NotNil(t, ti)
	assert.Equal(t, DefaultTTL, ti.TTL())
}

func TestTokenIssuer_IssueAndVerify(t *testing.T) {
	ti, err := NewTokenIssuer("test-secret", time.Hour)
	require.NoError(t, err)

	now := time.Now()
	token, err := ti.Issue(now)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := ti.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, AdminRole, claims.Role)

	require.NotNil(t, claims.IssuedAt)
	require.NotNil(t, claims.ExpiresAt)
	assert.Equal(
		t,
		time.Hour,
		claims.ExpiresAt.Time.Sub(claims.IssuedAt.Time),
	)
}

func TestTokenIssuer_Verify_Missing(t *testing.T) {
	ti, err := NewTokenIssuer("test-secret", time.Hour)
	require.NoError(t, err)

	claims, err := ti.Verify("")
	assert.Nil(t, claims)
	assert.True(t, errors.Is(err, ErrTokenMissing))
}

func TestTokenIssuer_Verify_Garbage(t *testing.T) {
	ti, err := NewTokenIssuer("test-secret", time.Hour)
	require.NoError(t, err)

	claims, err := ti.Verify("not.a.token")
	assert.Nil(t, claims)
	assert.True(t, errors.Is(err, ErrTokenInvalid))
}

func TestTokenIssuer_Verify_Expired(t *testing.T) {
	ti, err := NewTokenIssuer("test-secret", time.Hour)
	require.NoError(t, err)

	token, err := ti.Issue(time.Now().Add(-2 * time.Hour))
	require.NoError(t, err)

	claims, err := ti.Verify(token)
	assert.Nil(t, claims)
	assert.True(t, errors.Is(err, ErrTokenExpired))
}

func TestTokenIssuer_Verify_WrongKey(t *testing.T) {
	issuer, err := NewTokenIssuer("test-secret", time.Hour)
	require.NoError(t, err)
	other, err := NewTokenIssuer("other-secret", time.Hour)
	require.NoError(t, err)

	token, err := issuer.Issue(time.Now())
	require.NoError(t, err)

	claims, err := other.Verify(token)
	assert.Nil(t, claims)
	assert.True(t, errors.Is(err, ErrTokenInvalid))
}

func TestClaimsContext(t *testing.T) {
	ti, err := NewTokenIssuer("test-secret", time.Hour)
	require.NoError(t, err)

	token, err := ti.Issue(time.Now())
	require.NoError(t, err)
	claims, err := ti.Verify(token)
	require.NoError(t, err)

	ctx := ContextWithClaims(context.Background(), claims)
	got, ok := ClaimsFromContext(ctx)
	require.True(t, ok)
	assert.Equal(t, AdminRole, got.Role)

	_, ok = ClaimsFromContext(context.Background())
	assert.False(t, ok)
}
