package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenManager_RoundTrip(t *testing.T) {
	m := NewTokenManager("secret", 72*time.Hour)

	tok, err := m.Issue(Identity{UserID: "u1", Role: RoleAdmin})
	require.NoError(t, err)

	id, err := m.Verify(tok)
	require.NoError(t, err)
	assert.Equal(t, "u1", id.UserID)
	assert.True(t, id.IsAdmin())
}

func TestTokenManager_Expired(t *testing.T) {
	issuedAt := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	m := NewTokenManager("secret", 72*time.Hour)
	m.now = func() time.Time { return issuedAt }

	tok, err := m.Issue(Identity{UserID: "u1", Role: RoleUser})
	require.NoError(t, err)

	m.now = func() time.Time { return issuedAt.Add(71 * time.Hour) }
	_, err = m.Verify(tok)
	require.NoError(t, err)

	m.now = func() time.Time { return issuedAt.Add(73 * time.Hour) }
	_, err = m.Verify(tok)
	require.ErrorIs(t, err, ErrTokenExpired)
}

func TestTokenManager_Invalid(t *testing.T) {
	m := NewTokenManager("secret", time.Hour)
	other := NewTokenManager("other-secret", time.Hour)

	foreign, err := other.Issue(Identity{UserID: "u1", Role: RoleUser})
	require.NoError(t, err)

	for _, tok := range []string{"", "garbage", foreign} {
		_, err := m.Verify(tok)
		require.ErrorIs(t, err, ErrTokenInvalid, "token %q", tok)
	}
}

func TestTokenManager_RejectsUnknownRole(t *testing.T) {
	m := NewTokenManager("secret", time.Hour)

	tok, err := m.Issue(Identity{UserID: "u1", Role: Role("root")})
	require.NoError(t, err)

	_, err = m.Verify(tok)
	require.ErrorIs(t, err, ErrTokenInvalid)
}

func TestIdentity_CanAccess(t *testing.T) {
	user := Identity{UserID: "u1", Role: RoleUser}
	admin := Identity{UserID: "a1", Role: RoleAdmin}

	assert.True(t, user.CanAccess("u1"))
	assert.False(t, user.CanAccess("u2"))
	assert.True(t, admin.CanAccess("u2"))
}
