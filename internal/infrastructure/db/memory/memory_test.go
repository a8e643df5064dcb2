package memory

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ecofinds/marketplace/internal/core/domain"
)

func listing(id string, version int64) *domain.Listing {
	return &domain.Listing{
		ID:       id,
		Title:    id,
		Price:    decimal.NewFromInt(1),
		Category: domain.CategoryOther,
		Seller:   domain.Seller{ID: "s1"},
		Version:  version,
	}
}

func TestListingRepository_OrderSurvivesDeletes(t *testing.T) {
	ctx := context.Background()
	repo := NewListingRepository()
	for _, id := range []string{"a", "b", "c"} {
		require.NoError(t, repo.Create(ctx, listing(id, 1)))
	}

	removed, err := repo.Delete(ctx, "b")
	require.NoError(t, err)
	assert.True(t, removed)
	removed, err = repo.Delete(ctx, "b")
	require.NoError(t, err)
	assert.False(t, removed)

	require.NoError(t, repo.Create(ctx, listing("d", 1)))
	all, err := repo.List(ctx)
	require.NoError(t, err)
	ids := make([]string, len(all))
	for i, l := range all {
		ids[i] = l.ID
	}
	assert.Equal(t, []string{"a", "c", "d"}, ids)
}

func TestListingRepository_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	repo := NewListingRepository()
	require.NoError(t, repo.Create(ctx, listing("a", 1)))

	got, err := repo.FindByID(ctx, "a")
	require.NoError(t, err)
	got.Title = "mutated"

	again, err := repo.FindByID(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "a", again.Title)
}

func TestListingRepository_ConcurrentReplaceOneWinner(t *testing.T) {
	ctx := context.Background()
	repo := NewListingRepository()
	require.NoError(t, repo.Create(ctx, listing("a", 1)))

	const writers = 16
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		wins int
	)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			next := listing("a", 2)
			next.Title = fmt.Sprintf("writer-%d", i)
			if repo.Replace(ctx, next, 1) == nil {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}(i)
	}
	wg.Wait()
	assert.Equal(t, 1, wins)
}

func TestListingRepository_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	repo := NewListingRepository()

	assert.ErrorIs(t, repo.Create(ctx, listing("a", 1)), context.Canceled)
	all, err := repo.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestCartRepository_IsolatesCallers(t *testing.T) {
	ctx := context.Background()
	repo := NewCartRepository()
	now := time.Now()

	cart := domain.NewCart("u1")
	cart.Add("a", now)
	require.NoError(t, repo.Save(ctx, cart))
	cart.Add("b", now)

	loaded, err := repo.Load(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, loaded.ListingIDs())

	require.NoError(t, repo.Delete(ctx, "u1"))
	loaded, err = repo.Load(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 0, loaded.Len())
}

func TestCheckoutLock(t *testing.T) {
	ctx := context.Background()
	lock := NewCheckoutLock()

	release, err := lock.Acquire(ctx, "u1")
	require.NoError(t, err)

	_, err = lock.Acquire(ctx, "u1")
	assert.ErrorIs(t, err, domain.ErrCheckoutInProgress)

	other, err := lock.Acquire(ctx, "u2")
	require.NoError(t, err)
	other()

	release()
	release()
	again, err := lock.Acquire(ctx, "u1")
	require.NoError(t, err)
	again()
}

func TestOrderRepository_NewestFirst(t *testing.T) {
	ctx := context.Background()
	repo := NewOrderRepository()
	l := *listing("a", 1)
	for _, id := range []string{"o1", "o2", "o3"} {
		o, err := domain.NewOrder(id, "buyer", []domain.Listing{l}, "k-"+id, time.Now())
		require.NoError(t, err)
		require.NoError(t, repo.Create(ctx, o))
	}

	history, err := repo.ListByBuyer(ctx, "buyer")
	require.NoError(t, err)
	require.Len(t, history, 3)
	assert.Equal(t, "o3", history[0].ID)

	byKey, err := repo.FindByIdempotencyKey(ctx, "buyer", "k-o2")
	require.NoError(t, err)
	assert.Equal(t, "o2", byKey.ID)

	_, err = repo.FindByID(ctx, "nope")
	assert.ErrorIs(t, err, domain.ErrOrderNotFound)
}

func TestUserRepository_UniqueEmail(t *testing.T) {
	ctx := context.Background()
	repo := NewUserRepository()

	_, err := repo.Create(ctx, &domain.User{ID: "u1", Email: "a@example.com"})
	require.NoError(t, err)
	_, err = repo.Create(ctx, &domain.User{ID: "u2", Email: "a@example.com"})
	assert.ErrorIs(t, err, domain.ErrUserExists)

	u, err := repo.FindByID(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "a@example.com", u.Email)
}

func TestUserRepository_Update(t *testing.T) {
	ctx := context.Background()
	repo := NewUserRepository()

	_, err := repo.Create(ctx, &domain.User{ID: "u1", Username: "old", Email: "a@example.com"})
	require.NoError(t, err)

	require.NoError(t, repo.Update(ctx, &domain.User{ID: "u1", Username: "new", Email: "a@example.com"}))
	u, err := repo.FindByEmail(ctx, "a@example.com")
	require.NoError(t, err)
	assert.Equal(t, "new", u.Username)

	err = repo.Update(ctx, &domain.User{ID: "u2", Username: "x", Email: "a@example.com"})
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
}
