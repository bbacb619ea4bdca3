package auth

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/ecosopis/storefront/internal/domain"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestRedis(t *testing.T) (*RedisSessionStore, *miniredis.Miniredis, func()) {
	mr := miniredis.RunT(t)

	client := redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})

	store := NewRedisSessionStore(client, 7*24*time.Hour)

	cleanup := func() {
		client.Close()
		mr.Close()
	}

	return store, mr, cleanup
}

func TestSession_CreateAndGet(t *testing.T) {
	store, mr, cleanup := setupTestRedis(t)
	defer cleanup()
	ctx := context.Background()

	token, err := store.Create(ctx, Caller{UserID: 42, Role: domain.RoleAdmin})
	require.NoError(t, err)
	assert.Len(t, token, 36)

	assert.True(t, mr.Exists(sessionKey(token)))
	assert.Equal(t, 7*24*time.Hour, mr.TTL(sessionKey(token)))

	c, err := store.Get(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, int64(42), c.UserID)
	assert.Equal(t, domain.RoleAdmin, c.Role)
}

func TestSession_Expired(t *testing.T) {
	store, mr, cleanup := setupTestRedis(t)
	defer cleanup()
	ctx := context.Background()

	token, err := store.Create(ctx, Caller{UserID: 1, Role: domain.RoleCustomer})
	require.NoError(t, err)

	mr.FastForward(8 * 24 * time.Hour)

	_, err = store.Get(ctx, token)
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestSession_MalformedToken(t *testing.T) {
	store, _, cleanup := setupTestRedis(t)
	defer cleanup()

	_, err := store.Get(context.Background(), "not-a-uuid")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestSession_Delete(t *testing.T) {
	store, mr, cleanup := setupTestRedis(t)
	defer cleanup()
	ctx := context.Background()

	token, err := store.Create(ctx, Caller{UserID: 1, Role: domain.RoleCustomer})
	require.NoError(t, err)

	require.NoError(t, store.Delete(ctx, token))
	assert.False(t, mr.Exists(sessionKey(token)))

	_, err = store.Get(ctx, token)
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestSession_RedisDown(t *testing.T) {
	store, mr, cleanup := setupTestRedis(t)
	defer cleanup()

	mr.Close()

	_, err := store.Create(context.Background(), Caller{UserID: 1})
	assert.Error(t, err)
}
