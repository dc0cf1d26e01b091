package lock

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	redis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLocker(t *testing.T) (*Locker, *miniredis.Miniredis) {
	t.Helper()
	srv := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewLocker(client), srv
}

func TestTryLockIsExclusive(t *testing.T) {
	locker, srv := newTestLocker(t)
	ctx := context.Background()

	token, ok, err := locker.TryLock(ctx, "scheduler:lock:test", time.Minute)
	require.NoError(t, err)
	require.True(t, ok)
	require.NotEmpty(t, token)

	_, ok, err = locker.TryLock(ctx, "scheduler:lock:test", time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)

	srv.FastForward(2 * time.Minute)
	_, ok, err = locker.TryLock(ctx, "scheduler:lock:test", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestReleaseRequiresOwnerToken(t *testing.T) {
	locker, srv := newTestLocker(t)
	ctx := context.Background()

	token, ok, err := locker.TryLock(ctx, "k", time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	require.NoError(t, locker.Release(ctx, "k", "someone-else"))
	assert.True(t, srv.Exists("k"))

	require.NoError(t, locker.Release(ctx, "k", token))
	assert.False(t, srv.Exists("k"))
}

func TestNilLocker(t *testing.T) {
	var locker *Locker
	assert.Nil(t, NewLocker(nil))
	assert.False(t, locker.Enabled())

	_, _, err := locker.TryLock(context.Background(), "k", time.Minute)
	assert.ErrorIs(t, err, ErrNotConfigured)
	assert.NoError(t, locker.Release(context.Background(), "k", "t"))
}

func TestTryLockValidation(t *testing.T) {
	locker, _ := newTestLocker(t)

	_, _, err := locker.TryLock(context.Background(), "", time.Minute)
	assert.ErrorIs(t, err, ErrEmptyKey)

	_, _, err = locker.TryLock(context.Background(), "k", 0)
	assert.ErrorIs(t, err, ErrInvalidTTL)
}
