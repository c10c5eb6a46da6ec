// Package storagetest runs the behaviour shared by every storage.Store
// against a concrete backend.
package storagetest

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/epiclo/go-session-middleware/core"
	"github.com/epiclo/go-session-middleware/grant"
	"github.com/epiclo/go-session-middleware/storage"
)

// Run exercises users and grants on stores returned by newStore. Each
// subtest gets a fresh store.
func Run(t *testing.T, newStore func(t *testing.T) storage.Store) {
	t.Helper()
	ctx := context.Background()
	created := time.Now().Truncate(time.Second).UTC()

	t.Run("users", func(t *testing.T) {
		s := newStore(t)

		user := &core.User{ID: "u1", Username: "alice", CreatedAt: created}
		require.NoError(t, s.CreateUser(ctx, user))

		byID, err := s.FindUserByID(ctx, "u1")
		require.NoError(t, err)
		assert.Equal(t, "alice", byID.Username)
		assert.True(t, created.Equal(byID.CreatedAt))

		byName, err := s.FindUserByUsername(ctx, "alice")
		require.NoError(t, err)
		assert.Equal(t, "u1", byName.ID)

		err = s.CreateUser(ctx, &core.User{ID: "u2", Username: "alice", CreatedAt: created})
		assert.ErrorIs(t, err, storage.ErrUserExists)

		_, err = s.FindUserByID(ctx, "ghost")
		assert.ErrorIs(t, err, core.ErrUserNotFound)

		_, err = s.FindUserByUsername(ctx, "ghost")
		assert.ErrorIs(t, err, core.ErrUserNotFound)
	})

	t.Run("grants", func(t *testing.T) {
		s := newStore(t)

		g := &grant.Grant{
			ID:        "grant-1",
			UserID:    "u1",
			CreatedAt: created,
			ExpiresAt: created.Add(30 * 24 * time.Hour),
		}
		require.NoError(t, s.CreateGrant(ctx, g))

		got, err := s.GetGrant(ctx, "grant-1")
		require.NoError(t, err)
		assert.Equal(t, "u1", got.UserID)
		assert.False(t, got.Disabled)
		assert.True(t, g.ExpiresAt.Equal(got.ExpiresAt))

		extended := created.Add(45 * 24 * time.Hour)
		require.NoError(t, s.ExtendGrant(ctx, "grant-1", extended))
		got, err = s.GetGrant(ctx, "grant-1")
		require.NoError(t, err)
		assert.True(t, extended.Equal(got.ExpiresAt))

		require.NoError(t, s.DisableGrant(ctx, "grant-1"))
		got, err = s.GetGrant(ctx, "grant-1")
		require.NoError(t, err)
		assert.True(t, got.Disabled)

		_, err = s.GetGrant(ctx, "missing")
		assert.ErrorIs(t, err, grant.ErrGrantNotFound)
		assert.ErrorIs(t, s.ExtendGrant(ctx, "missing", extended), grant.ErrGrantNotFound)
		assert.ErrorIs(t, s.DisableGrant(ctx, "missing"), grant.ErrGrantNotFound)
	})
}
