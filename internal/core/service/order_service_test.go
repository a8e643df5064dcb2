package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/ecofinds/marketplace/internal/core/domain"
)

type orderFixture struct {
	*cartFixture
	orders *stubOrderRepo
	lock   *stubLock
	pub    *stubPublisher
	svc    *orderService
}

func newOrderFixture() *orderFixture {
	cf := newCartFixture()
	f := &orderFixture{
		cartFixture: cf,
		orders:      &stubOrderRepo{},
		lock:        newStubLock(),
		pub:         &stubPublisher{},
	}
	f.svc = NewOrderService(f.orders, cf.svc, f.lock, f.pub, zerolog.Nop()).(*orderService)
	return f
}

func (f *orderFixture) fillCart(t *testing.T, buyer string) []*domain.Listing {
	t.Helper()
	a := mustCreate(t, f.store, alice, draft("Summer dress", "Floral cotton dress", "35.99", domain.CategoryClothing))
	b := mustCreate(t, f.store, alice, draft("Refurbished iPhone 11", "Unlocked", "350", domain.CategoryElectronics))
	for _, l := range []*domain.Listing{a, b} {
		if _, err := f.cartFixture.svc.Add(context.Background(), buyer, l.ID); err != nil {
			t.Fatalf("Add returned error: %v", err)
		}
	}
	return []*domain.Listing{a, b}
}

func TestOrderService_Checkout(t *testing.T) {
	f := newOrderFixture()
	listings := f.fillCart(t, bob.ID)

	res, err := f.svc.Checkout(context.Background(), bob.ID, "")
	if err != nil {
		t.Fatalf("Checkout returned error: %v", err)
	}
	if res.AlreadyExisted {
		t.Fatalf("fresh checkout reported as replay")
	}
	o := res.Order
	if o.BuyerID != bob.ID || o.Status != domain.StatusPlaced || o.Total.StringFixed(2) != "385.99" {
		t.Fatalf("unexpected order: %+v", o)
	}
	if len(o.Items) != 2 || o.Items[0].ListingID != listings[0].ID || o.Items[1].SellerID != alice.ID {
		t.Fatalf("unexpected items: %+v", o.Items)
	}

	snap, _ := f.cartFixture.svc.Get(context.Background(), bob.ID)
	if len(snap.Items) != 0 {
		t.Fatalf("cart must be cleared after checkout")
	}
	if f.lock.released != 1 || len(f.lock.held) != 0 {
		t.Fatalf("lock not released")
	}
	if len(f.pub.events) != 1 || f.pub.events[0].Subject != domain.SubjectOrderPlaced {
		t.Fatalf("unexpected events: %v", f.pub.subjects())
	}
}

func TestOrderService_Checkout_EmptyCart(t *testing.T) {
	f := newOrderFixture()
	_, err := f.svc.Checkout(context.Background(), bob.ID, "")
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
	if len(f.orders.orders) != 0 {
		t.Fatalf("no order expected")
	}
}

func TestOrderService_Checkout_PersistFailureKeepsCart(t *testing.T) {
	f := newOrderFixture()
	f.fillCart(t, bob.ID)
	f.orders.createErr = errors.New("mongo down")

	if _, err := f.svc.Checkout(context.Background(), bob.ID, ""); !errors.Is(err, f.orders.createErr) {
		t.Fatalf("expected wrapped create error, got %v", err)
	}
	snap, _ := f.cartFixture.svc.Get(context.Background(), bob.ID)
	if len(snap.Items) != 2 {
		t.Fatalf("cart must be untouched, got %d items", len(snap.Items))
	}
	if len(f.pub.events) != 0 {
		t.Fatalf("no event expected on failure")
	}
}

func TestOrderService_Checkout_ClearFailureStillAcknowledges(t *testing.T) {
	f := newOrderFixture()
	f.fillCart(t, bob.ID)
	f.carts.deleteErr = errors.New("redis down")

	res, err := f.svc.Checkout(context.Background(), bob.ID, "")
	if err != nil {
		t.Fatalf("acknowledged checkout must succeed, got %v", err)
	}
	if len(f.orders.orders) != 1 || f.orders.orders[0].ID != res.Order.ID {
		t.Fatalf("order not persisted")
	}
}

func TestOrderService_Checkout_IdempotentReplay(t *testing.T) {
	f := newOrderFixture()
	f.fillCart(t, bob.ID)

	first, err := f.svc.Checkout(context.Background(), bob.ID, "key-1")
	if err != nil {
		t.Fatalf("first checkout failed: %v", err)
	}
	second, err := f.svc.Checkout(context.Background(), bob.ID, "key-1")
	if err != nil {
		t.Fatalf("replay failed: %v", err)
	}
	if !second.AlreadyExisted || second.Order.ID != first.Order.ID {
		t.Fatalf("expected replay of %s, got %+v", first.Order.ID, second)
	}
	if len(f.orders.orders) != 1 {
		t.Fatalf("replay must not create a second order")
	}
}

func TestOrderService_Checkout_InProgress(t *testing.T) {
	f := newOrderFixture()
	f.fillCart(t, bob.ID)
	f.lock.held[bob.ID] = true

	if _, err := f.svc.Checkout(context.Background(), bob.ID, ""); err != domain.ErrCheckoutInProgress {
		t.Fatalf("expected ErrCheckoutInProgress, got %v", err)
	}
	if len(f.orders.orders) != 0 {
		t.Fatalf("no order expected while locked")
	}
}

func TestOrderService_Checkout_Anonymous(t *testing.T) {
	f := newOrderFixture()
	if _, err := f.svc.Checkout(context.Background(), "", ""); err != domain.ErrUnauthenticated {
		t.Fatalf("expected ErrUnauthenticated, got %v", err)
	}
}

func TestOrderService_PurchasesNewestFirst(t *testing.T) {
	f := newOrderFixture()
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	tick := 0
	f.svc.now = func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Minute)
	}

	var placed []string
	for i := 0; i < 2; i++ {
		f.fillCart(t, bob.ID)
		res, err := f.svc.Checkout(context.Background(), bob.ID, "")
		if err != nil {
			t.Fatalf("checkout %d failed: %v", i, err)
		}
		placed = append(placed, res.Order.ID)
	}

	history, err := f.svc.Purchases(context.Background(), bob.ID)
	if err != nil {
		t.Fatalf("Purchases returned error: %v", err)
	}
	if len(history) != 2 || history[0].ID != placed[1] || history[1].ID != placed[0] {
		t.Fatalf("expected newest first, got %+v", history)
	}
	if other, _ := f.svc.Purchases(context.Background(), alice.ID); len(other) != 0 {
		t.Fatalf("history leaked across buyers")
	}
}

func TestOrderService_GetOrder_OtherBuyer(t *testing.T) {
	f := newOrderFixture()
	f.fillCart(t, bob.ID)
	res, _ := f.svc.Checkout(context.Background(), bob.ID, "")

	if _, err := f.svc.GetOrder(context.Background(), bob.ID, res.Order.ID); err != nil {
		t.Fatalf("owner lookup failed: %v", err)
	}
	if _, err := f.svc.GetOrder(context.Background(), alice.ID, res.Order.ID); err != domain.ErrOrderNotFound {
		t.Fatalf("expected ErrOrderNotFound, got %v", err)
	}
}
