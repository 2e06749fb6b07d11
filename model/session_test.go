package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRole(t *testing.T) {
	cases := map[string]Role{
		"admin":     RoleAdmin,
		"ADMIN":     RoleAdmin,
		" Host ":    RoleHost,
		"user":      RoleUser,
		"guest":     RoleGuest,
		"anonymous": RoleGuest,
		"":          RoleGuest,
	}
	for in, want := range cases {
		got, err := ParseRole(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseRole("superuser")
	assert.ErrorIs(t, err, ErrUnknownRole)
}

func TestRoleAtLeast(t *testing.T) {
	assert.True(t, RoleAdmin.AtLeast(RoleHost))
	assert.True(t, RoleHost.AtLeast(RoleUser))
	assert.True(t, RoleUser.AtLeast(RoleUser))
	assert.False(t, RoleUser.AtLeast(RoleHost))
	assert.False(t, RoleGuest.AtLeast(RoleUser))
}

func TestSessionExpiry(t *testing.T) {
	now := time.Now()
	s := Session{Token: "t", Expiry: now.Add(5 * time.Hour)}

	assert.False(t, s.Expired(now))
	assert.True(t, s.Expired(now.Add(6*time.Hour)))
	assert.Equal(t, 5*time.Hour, s.TimeToExpiry(now))
	assert.Less(t, s.TimeToExpiry(now.Add(6*time.Hour)), time.Duration(0))
}
