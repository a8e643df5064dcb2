package redis

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ecofinds/marketplace/internal/core/domain"
)

// These tests talk to a real server and run only when REDIS_TEST_ADDR is set,
// e.g. REDIS_TEST_ADDR=localhost:6379 go test ./internal/infrastructure/db/redis/...
func testClientConfig(t *testing.T) Config {
	t.Helper()
	addr := os.Getenv("REDIS_TEST_ADDR")
	if addr == "" {
		t.Skip("REDIS_TEST_ADDR not set")
	}
	return Config{Addr: addr, DB: 15}
}

func TestKeys(t *testing.T) {
	assert.Equal(t, "cart:u-1", cartKey("u-1"))
	assert.Equal(t, "checkout:u-1", lockKey("u-1"))
}

func TestCartRepository_RoundTrip(t *testing.T) {
	ctx := context.Background()
	client, err := Connect(ctx, testClientConfig(t))
	require.NoError(t, err)
	defer client.Close()

	repo := NewCartRepository(client, time.Minute)
	userID := "test-" + uuid.NewString()
	defer func() { _ = repo.Delete(ctx, userID) }()

	empty, err := repo.Load(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, 0, empty.Len())

	cart := domain.NewCart(userID)
	cart.Add("a", time.Now().UTC())
	cart.Add("b", time.Now().UTC())
	require.NoError(t, repo.Save(ctx, cart))

	loaded, err := repo.Load(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, loaded.ListingIDs())

	ttl, err := client.TTL(ctx, cartKey(userID)).Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, time.Duration(0))

	require.NoError(t, repo.Delete(ctx, userID))
	loaded, err = repo.Load(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, 0, loaded.Len())
}

func TestCheckoutLock_Exclusive(t *testing.T) {
	ctx := context.Background()
	client, err := Connect(ctx, testClientConfig(t))
	require.NoError(t, err)
	defer client.Close()

	lock := NewCheckoutLock(client, time.Minute, zerolog.Nop())
	userID := "test-" + uuid.NewString()

	release, err := lock.Acquire(ctx, userID)
	require.NoError(t, err)

	_, err = lock.Acquire(ctx, userID)
	assert.ErrorIs(t, err, domain.ErrCheckoutInProgress)

	release()
	again, err := lock.Acquire(ctx, userID)
	require.NoError(t, err)
	again()
}
