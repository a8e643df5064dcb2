package handler

import (
	"context"
	"io"
	"net/http/httptest"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"github.com/ecofinds/marketplace/internal/core/catalog"
	"github.com/ecofinds/marketplace/internal/core/domain"
	"github.com/ecofinds/marketplace/internal/core/identity"
	"github.com/ecofinds/marketplace/internal/core/ports"
)

var (
	alice = &domain.User{ID: "u-alice", Username: "alice", Email: "alice@example.com"}
	bob   = &domain.User{ID: "u-bob", Username: "bob", Email: "bob@example.com"}
	idp   = identity.ContextProvider{}
)

// newContext builds an echo context with the handler validator registered.
// A non-nil user is attached to the request context as Authenticate would.
func newContext(method, target string, body io.Reader, user *domain.User) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	e.Validator = NewValidator()
	req := httptest.NewRequest(method, target, body)
	if body != nil {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if user != nil {
		req = req.WithContext(identity.WithUser(req.Context(), user))
	}
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func listing(id, title string, price string, seller *domain.User) domain.Listing {
	return domain.Listing{
		ID:          id,
		Title:       title,
		Description: title + " description",
		Price:       decimal.RequireFromString(price),
		Category:    domain.CategoryBooks,
		Seller:      seller.AsSeller(),
		Version:     1,
	}
}

// ---------------------------------------------------------------------------
// Service stubs
// ---------------------------------------------------------------------------

type stubListingService struct {
	createFn      func(ctx context.Context, actor *domain.User, draft domain.ListingDraft) (*domain.Listing, error)
	getFn         func(ctx context.Context, id string) (*domain.Listing, error)
	listByOwnerFn func(ctx context.Context, ownerID string) ([]domain.Listing, error)
	browseFn      func(ctx context.Context, q catalog.Query) ([]domain.Listing, error)
	updateFn      func(ctx context.Context, id string, actor *domain.User, patch domain.ListingPatch) (*domain.Listing, error)
	deleteFn      func(ctx context.Context, id string, actor *domain.User) (bool, error)
	renameFn      func(ctx context.Context, seller domain.Seller) (int, error)
}

var _ ports.ListingService = (*stubListingService)(nil)

func (s *stubListingService) Create(ctx context.Context, actor *domain.User, draft domain.ListingDraft) (*domain.Listing, error) {
	return s.createFn(ctx, actor, draft)
}

func (s *stubListingService) Get(ctx context.Context, id string) (*domain.Listing, error) {
	return s.getFn(ctx, id)
}

func (s *stubListingService) ListAll(ctx context.Context) ([]domain.Listing, error) {
	return s.browseFn(ctx, catalog.Query{})
}

func (s *stubListingService) ListByOwner(ctx context.Context, ownerID string) ([]domain.Listing, error) {
	return s.listByOwnerFn(ctx, ownerID)
}

func (s *stubListingService) Browse(ctx context.Context, q catalog.Query) ([]domain.Listing, error) {
	return s.browseFn(ctx, q)
}

func (s *stubListingService) Update(ctx context.Context, id string, actor *domain.User, patch domain.ListingPatch) (*domain.Listing, error) {
	return s.updateFn(ctx, id, actor, patch)
}

func (s *stubListingService) Delete(ctx context.Context, id string, actor *domain.User) (bool, error) {
	return s.deleteFn(ctx, id, actor)
}

func (s *stubListingService) RenameSeller(ctx context.Context, seller domain.Seller) (int, error) {
	return s.renameFn(ctx, seller)
}

type stubCartService struct {
	snapshot   *ports.CartSnapshot
	err        error
	lastUser   string
	lastItem   string
	cleared    bool
	containsFn func(userID, listingID string) bool
}

var _ ports.CartService = (*stubCartService)(nil)

func (s *stubCartService) Get(_ context.Context, userID string) (*ports.CartSnapshot, error) {
	s.lastUser = userID
	return s.snapshot, s.err
}

func (s *stubCartService) Add(_ context.Context, userID, listingID string) (*ports.CartSnapshot, error) {
	s.lastUser, s.lastItem = userID, listingID
	return s.snapshot, s.err
}

func (s *stubCartService) Remove(_ context.Context, userID, listingID string) (*ports.CartSnapshot, error) {
	s.lastUser, s.lastItem = userID, listingID
	return s.snapshot, s.err
}

func (s *stubCartService) Clear(_ context.Context, userID string) error {
	s.lastUser = userID
	s.cleared = s.err == nil
	return s.err
}

func (s *stubCartService) Contains(_ context.Context, userID, listingID string) (bool, error) {
	return s.containsFn(userID, listingID), s.err
}

func (s *stubCartService) Total(_ context.Context, _ string) (decimal.Decimal, error) {
	if s.snapshot == nil {
		return decimal.Zero, s.err
	}
	return s.snapshot.Total, s.err
}

type stubOrderService struct {
	checkoutFn  func(ctx context.Context, buyerID, key string) (*ports.CheckoutResult, error)
	purchasesFn func(ctx context.Context, buyerID string) ([]domain.Order, error)
	getFn       func(ctx context.Context, buyerID, orderID string) (*domain.Order, error)
}

var _ ports.OrderService = (*stubOrderService)(nil)

func (s *stubOrderService) Checkout(ctx context.Context, buyerID, key string) (*ports.CheckoutResult, error) {
	return s.checkoutFn(ctx, buyerID, key)
}

func (s *stubOrderService) Purchases(ctx context.Context, buyerID string) ([]domain.Order, error) {
	return s.purchasesFn(ctx, buyerID)
}

func (s *stubOrderService) GetOrder(ctx context.Context, buyerID, orderID string) (*domain.Order, error) {
	return s.getFn(ctx, buyerID, orderID)
}

type stubImageStore struct {
	uploaded map[string][]byte
	err      error
}

var _ ports.ImageStore = (*stubImageStore)(nil)

func (s *stubImageStore) Upload(_ context.Context, filename string, data []byte) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	if s.uploaded == nil {
		s.uploaded = make(map[string][]byte)
	}
	ref := "img-" + filename
	s.uploaded[ref] = data
	return ref, nil
}

func (s *stubImageStore) Resolve(ref string) string {
	return "/uploads/" + ref
}
