package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/ecofinds/marketplace/internal/core/domain"
)

const defaultLockTTL = 30 * time.Second

// releaseScript deletes the lock only while it still holds our token, so an
// expired lock taken over by another checkout is left alone.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// CheckoutLock serialises checkouts per user across API instances.
// Key format: checkout:<user_id>
type CheckoutLock struct {
	client *redis.Client
	ttl    time.Duration
	log    zerolog.Logger
}

// NewCheckoutLock creates a CheckoutLock. A non-positive ttl uses defaultLockTTL.
func NewCheckoutLock(client *redis.Client, ttl time.Duration, log zerolog.Logger) *CheckoutLock {
	if ttl <= 0 {
		ttl = defaultLockTTL
	}
	return &CheckoutLock{client: client, ttl: ttl, log: log}
}

func (l *CheckoutLock) Acquire(ctx context.Context, userID string) (func(), error) {
	token := uuid.NewString()
	ok, err := l.client.SetNX(ctx, lockKey(userID), token, l.ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("checkout lock: %w", err)
	}
	if !ok {
		return nil, domain.ErrCheckoutInProgress
	}

	return func() {
		// Detached so a cancelled request still frees the lock.
		relCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), defaultTimeout)
		defer cancel()
		if err := releaseScript.Run(relCtx, l.client, []string{lockKey(userID)}, token).Err(); err != nil {
			l.log.Warn().Err(err).Str("user_id", userID).Msg("failed to release checkout lock")
		}
	}, nil
}

func lockKey(userID string) string {
	return "checkout:" + userID
}
