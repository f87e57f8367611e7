package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"ms-booking/internal/logger"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
)

const (
	lockPrefix     = "payment_lock:"
	defaultLockTTL = 30 * time.Second
)

var ErrLockHeld = errors.New("payment already in progress for this ticket")

// Deletes the key only if it still holds our token, so an expired lock taken
// over by another request is left alone.
var unlockScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

type PaymentLock struct {
	Client *redis.Client
	TTL    time.Duration
	Logger *logger.Logger
}

func NewPaymentLock(client *redis.Client, ttl time.Duration, log *logger.Logger) *PaymentLock {
	if ttl <= 0 {
		ttl = defaultLockTTL
	}
	return &PaymentLock{Client: client, TTL: ttl, Logger: log}
}

func lockKey(ticketID string) string {
	return lockPrefix + ticketID
}

// Lock takes the payment lock for a ticket and returns the release func.
// ErrLockHeld means another payment for the same ticket holds it.
func (l *PaymentLock) Lock(ctx context.Context, ticketID string) (func(), error) {
	token := uuid.NewString()
	ok, err := l.Client.SetNX(ctx, lockKey(ticketID), token, l.TTL).Result()
	if err != nil {
		return nil, fmt.Errorf("acquire payment lock: %w", err)
	}
	if !ok {
		return nil, ErrLockHeld
	}
	l.Logger.Debug("REDIS", fmt.Sprintf("Payment lock acquired for ticket %s", ticketID))

	return func() {
		// The request context may already be done by the time we release.
		if err := l.Unlock(context.Background(), ticketID, token); err != nil {
			l.Logger.Warn("REDIS", fmt.Sprintf("Failed to release payment lock for ticket %s: %v", ticketID, err))
		}
	}, nil
}

// Unlock releases the lock if token still owns it.
func (l *PaymentLock) Unlock(ctx context.Context, ticketID, token string) error {
	err := unlockScript.Run(ctx, l.Client, []string{lockKey(ticketID)}, token).Err()
	if err == redis.Nil {
		return nil
	}
	return err
}

// IsLocked reports whether a payment for the ticket is in flight.
func (l *PaymentLock) IsLocked(ctx context.Context, ticketID string) (bool, error) {
	n, err := l.Client.Exists(ctx, lockKey(ticketID)).Result()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}
