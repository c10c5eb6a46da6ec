package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/epiclo/go-session-middleware/grant"
	"github.com/epiclo/go-session-middleware/storage"
	"github.com/epiclo/go-session-middleware/storage/storagetest"
)

func newTestStore(t *testing.T) (*Store, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return New(client, "test"), mr
}

func TestStore(t *testing.T) {
	storagetest.Run(t, func(t *testing.T) storage.Store {
		s, _ := newTestStore(t)
		return s
	})
}

func TestStore_GrantLayout(t *testing.T) {
	ctx := context.Background()
	s, mr := newTestStore(t)

	expiresAt := time.Now().Add(time.Hour)
	require.NoError(t, s.CreateGrant(ctx, &grant.Grant{
		ID:        "g1",
		UserID:    "u1",
		CreatedAt: time.Now(),
		ExpiresAt: expiresAt,
	}))

	require.True(t, mr.Exists("test:grant:g1"))
	assert.Equal(t, "u1", mr.HGet("test:grant:g1", "user_id"))
	assert.Equal(t, "0", mr.HGet("test:grant:g1", "disabled"))
	assert.Greater(t, mr.TTL("test:grant:g1"), time.Duration(0))

	require.NoError(t, s.DisableGrant(ctx, "g1"))
	assert.Equal(t, "1", mr.HGet("test:grant:g1", "disabled"))
}

func TestStore_GrantExpires(t *testing.T) {
	ctx := context.Background()
	s, mr := newTestStore(t)

	require.NoError(t, s.CreateGrant(ctx, &grant.Grant{
		ID:        "g1",
		UserID:    "u1",
		CreatedAt: time.Now(),
		ExpiresAt: time.Now().Add(time.Minute),
	}))

	mr.FastForward(2 * time.Minute)

	_, err := s.GetGrant(ctx, "g1")
	assert.ErrorIs(t, err, grant.ErrGrantNotFound)
}

func TestStore_ExtendGrantMovesTTL(t *testing.T) {
	ctx := context.Background()
	s, mr := newTestStore(t)

	require.NoError(t, s.CreateGrant(ctx, &grant.Grant{
		ID:        "g1",
		UserID:    "u1",
		CreatedAt: time.Now(),
		ExpiresAt: time.Now().Add(time.Minute),
	}))
	require.NoError(t, s.ExtendGrant(ctx, "g1", time.Now().Add(time.Hour)))

	mr.FastForward(2 * time.Minute)

	got, err := s.GetGrant(ctx, "g1")
	require.NoError(t, err)
	assert.Equal(t, "u1", got.UserID)
}

func TestOpen(t *testing.T) {
	ctx := context.Background()

	t.Run("it connects and pings", func(t *testing.T) {
		mr := miniredis.RunT(t)

		s, err := Open(ctx, "redis://"+mr.Addr()+"/0", "")
		require.NoError(t, err)
		t.Cleanup(func() { _ = s.Close() })

		assert.Equal(t, DefaultPrefix, s.prefix)
	})

	t.Run("it rejects a bad url", func(t *testing.T) {
		_, err := Open(ctx, "not a url", "")
		assert.ErrorContains(t, err, "storage.redis.Open")
	})
}
