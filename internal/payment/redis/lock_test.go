package redis

import (
	"context"
	"testing"
	"time"

	"ms-booking/internal/logger"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupLock(t *testing.T, ttl time.Duration) (*PaymentLock, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewPaymentLock(client, ttl, logger.NewNopLogger()), mr
}

func TestLock_SecondCallerIsRejected(t *testing.T) {
	lock, mr := setupLock(t, time.Minute)
	ctx := context.Background()

	release, err := lock.Lock(ctx, "ticket-1")
	require.NoError(t, err)
	assert.True(t, mr.Exists("payment_lock:ticket-1"))

	_, err = lock.Lock(ctx, "ticket-1")
	assert.ErrorIs(t, err, ErrLockHeld)

	// other tickets are independent
	releaseOther, err := lock.Lock(ctx, "ticket-2")
	require.NoError(t, err)
	releaseOther()

	release()
	assert.False(t, mr.Exists("payment_lock:ticket-1"))

	release, err = lock.Lock(ctx, "ticket-1")
	require.NoError(t, err)
	release()
}

func TestLock_ExpiresAfterTTL(t *testing.T) {
	lock, mr := setupLock(t, 10*time.Second)
	ctx := context.Background()

	_, err := lock.Lock(ctx, "ticket-1")
	require.NoError(t, err)
	assert.Equal(t, 10*time.Second, mr.TTL("payment_lock:ticket-1"))

	mr.FastForward(11 * time.Second)

	locked, err := lock.IsLocked(ctx, "ticket-1")
	require.NoError(t, err)
	assert.False(t, locked)
}

func TestUnlock_LeavesForeignLockAlone(t *testing.T) {
	lock, mr := setupLock(t, 10*time.Second)
	ctx := context.Background()

	staleRelease, err := lock.Lock(ctx, "ticket-1")
	require.NoError(t, err)
	mr.FastForward(11 * time.Second)

	release, err := lock.Lock(ctx, "ticket-1")
	require.NoError(t, err)

	staleRelease()
	locked, err := lock.IsLocked(ctx, "ticket-1")
	require.NoError(t, err)
	assert.True(t, locked)

	release()
	locked, err = lock.IsLocked(ctx, "ticket-1")
	require.NoError(t, err)
	assert.False(t, locked)
}

func TestNewPaymentLock_DefaultTTL(t *testing.T) {
	lock := NewPaymentLock(nil, 0, nil)
	assert.Equal(t, 30*time.Second, lock.TTL)
}
