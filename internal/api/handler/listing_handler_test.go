package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/ecofinds/marketplace/internal/core/catalog"
	"github.com/ecofinds/marketplace/internal/core/domain"
)

func newListingHandler(svc *stubListingService) *ListingHandler {
	return NewListingHandler(svc, &stubImageStore{}, idp, zerolog.Nop())
}

func decodeListing(t *testing.T, body []byte) listingResponse {
	t.Helper()
	var resp listingResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	return resp
}

// ---------------------------------------------------------------------------
// Reads
// ---------------------------------------------------------------------------

func TestListingHandler_List_PassesQueryAndFlagsOwnListings(t *testing.T) {
	svc := &stubListingService{
		browseFn: func(ctx context.Context, q catalog.Query) ([]domain.Listing, error) {
			if q.Category != domain.CategoryBooks || q.Search != "chair" {
				t.Fatalf("unexpected query %+v", q)
			}
			return []domain.Listing{
				listing("l-1", "Old chair", "10", alice),
				listing("l-2", "Chair cover", "5.5", bob),
			}, nil
		},
	}
	c, rec := newContext(http.MethodGet, "/listings?category=books&search=chair", nil, alice)

	if err := newListingHandler(svc).List(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}

	var resp listingsResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if resp.Count != 2 {
		t.Fatalf("expected 2 items, got %d", resp.Count)
	}
	if !resp.Items[0].CanEdit || resp.Items[1].CanEdit {
		t.Fatalf("can_edit must follow ownership: %+v", resp.Items)
	}
	if resp.Items[1].Price != "5.50" {
		t.Fatalf("expected price 5.50, got %s", resp.Items[1].Price)
	}
}

func TestListingHandler_List_AnonymousCannotEdit(t *testing.T) {
	svc := &stubListingService{
		browseFn: func(ctx context.Context, q catalog.Query) ([]domain.Listing, error) {
			if !q.IsZero() {
				t.Fatalf("expected empty query, got %+v", q)
			}
			return []domain.Listing{listing("l-1", "Lamp", "12", alice)}, nil
		},
	}
	c, rec := newContext(http.MethodGet, "/listings", nil, nil)

	if err := newListingHandler(svc).List(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if strings.Contains(rec.Body.String(), `"can_edit":true`) {
		t.Fatalf("anonymous caller must not be able to edit")
	}
}

func TestListingHandler_List_UnknownCategory(t *testing.T) {
	svc := &stubListingService{
		browseFn: func(ctx context.Context, q catalog.Query) ([]domain.Listing, error) {
			t.Fatalf("should not be called")
			return nil, nil
		},
	}
	c, _ := newContext(http.MethodGet, "/listings?category=cars", nil, nil)

	err := newListingHandler(svc).List(c)
	var ve *domain.ValidationError
	if !errors.As(err, &ve) || ve.Field != "category" {
		t.Fatalf("expected category validation error, got %v", err)
	}
}

func TestListingHandler_Get(t *testing.T) {
	l := listing("l-1", "Lamp", "12", alice)
	l.ImageRef = "lamp.jpg"
	l.Version = 3
	svc := &stubListingService{
		getFn: func(ctx context.Context, id string) (*domain.Listing, error) {
			if id != "l-1" {
				return nil, domain.ErrListingNotFound
			}
			return &l, nil
		},
	}
	h := newListingHandler(svc)

	c, rec := newContext(http.MethodGet, "/listings/l-1", nil, nil)
	c.SetParamNames("id")
	c.SetParamValues("l-1")
	if err := h.Get(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	resp := decodeListing(t, rec.Body.Bytes())
	if resp.ImageURL != "/uploads/lamp.jpg" || resp.Seller.Username != "alice" {
		t.Fatalf("unexpected response %+v", resp)
	}
	if got := rec.Header().Get("ETag"); got != `"3"` {
		t.Fatalf("expected ETag \"3\", got %s", got)
	}

	c, _ = newContext(http.MethodGet, "/listings/nope", nil, nil)
	c.SetParamNames("id")
	c.SetParamValues("nope")
	if err := h.Get(c); !errors.Is(err, domain.ErrListingNotFound) {
		t.Fatalf("expected ErrListingNotFound, got %v", err)
	}
}

func TestListingHandler_Mine(t *testing.T) {
	svc := &stubListingService{
		listByOwnerFn: func(ctx context.Context, ownerID string) ([]domain.Listing, error) {
			if ownerID != alice.ID {
				t.Fatalf("unexpected owner %s", ownerID)
			}
			return []domain.Listing{listing("l-1", "Lamp", "12", alice)}, nil
		},
	}
	c, rec := newContext(http.MethodGet, "/me/listings", nil, alice)

	if err := newListingHandler(svc).Mine(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if !strings.Contains(rec.Body.String(), `"count":1`) {
		t.Fatalf("unexpected body %s", rec.Body.String())
	}
}

func TestListingHandler_Categories(t *testing.T) {
	c, rec := newContext(http.MethodGet, "/categories", nil, nil)

	if err := newListingHandler(&stubListingService{}).Categories(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if !strings.Contains(rec.Body.String(), `"label":"Sports & Outdoors"`) {
		t.Fatalf("missing label in %s", rec.Body.String())
	}
}

// ---------------------------------------------------------------------------
// Mutations
// ---------------------------------------------------------------------------

func TestListingHandler_Create_Success(t *testing.T) {
	svc := &stubListingService{
		createFn: func(ctx context.Context, actor *domain.User, draft domain.ListingDraft) (*domain.Listing, error) {
			if actor.ID != alice.ID {
				t.Fatalf("unexpected actor %+v", actor)
			}
			if !draft.Price.Equal(decimal.RequireFromString("35.99")) || draft.Category != domain.CategoryBooks {
				t.Fatalf("unexpected draft %+v", draft)
			}
			l := listing("l-new", draft.Title, draft.Price.String(), actor)
			return &l, nil
		},
	}
	body := strings.NewReader(`{"title":"Dune","description":"Paperback","price":"35.99","category":"books"}`)
	c, rec := newContext(http.MethodPost, "/listings", body, alice)

	if err := newListingHandler(svc).Create(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}
	if rec.Header().Get(echo.HeaderLocation) != "/listings/l-new" {
		t.Fatalf("unexpected Location %q", rec.Header().Get(echo.HeaderLocation))
	}
	if resp := decodeListing(t, rec.Body.Bytes()); !resp.CanEdit || resp.Price != "35.99" {
		t.Fatalf("unexpected response %+v", resp)
	}
}

func TestListingHandler_Create_AcceptsNumericPrice(t *testing.T) {
	svc := &stubListingService{
		createFn: func(ctx context.Context, actor *domain.User, draft domain.ListingDraft) (*domain.Listing, error) {
			if !draft.Price.Equal(decimal.RequireFromString("350")) {
				t.Fatalf("unexpected price %s", draft.Price)
			}
			l := listing("l-new", draft.Title, "350", actor)
			return &l, nil
		},
	}
	body := strings.NewReader(`{"title":"Desk","description":"Oak","price":350,"category":"books"}`)
	c, _ := newContext(http.MethodPost, "/listings", body, alice)

	if err := newListingHandler(svc).Create(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
}

func TestListingHandler_Create_MissingTitle(t *testing.T) {
	svc := &stubListingService{
		createFn: func(ctx context.Context, actor *domain.User, draft domain.ListingDraft) (*domain.Listing, error) {
			t.Fatalf("should not be called")
			return nil, nil
		},
	}
	body := strings.NewReader(`{"description":"Oak","price":"10","category":"furniture"}`)
	c, _ := newContext(http.MethodPost, "/listings", body, alice)

	err := newListingHandler(svc).Create(c)
	var ve *domain.ValidationError
	if !errors.As(err, &ve) || ve.Field != "title" {
		t.Fatalf("expected title validation error, got %v", err)
	}
}

func TestListingHandler_Create_RequiresIdentity(t *testing.T) {
	body := strings.NewReader(`{"title":"Desk","description":"Oak","price":"10","category":"furniture"}`)
	c, _ := newContext(http.MethodPost, "/listings", body, nil)

	if err := newListingHandler(&stubListingService{}).Create(c); !errors.Is(err, domain.ErrUnauthenticated) {
		t.Fatalf("expected ErrUnauthenticated, got %v", err)
	}
}

func TestListingHandler_Update_IfMatchWinsOverBody(t *testing.T) {
	svc := &stubListingService{
		updateFn: func(ctx context.Context, id string, actor *domain.User, patch domain.ListingPatch) (*domain.Listing, error) {
			if patch.ExpectedVersion != 4 {
				t.Fatalf("expected version 4, got %d", patch.ExpectedVersion)
			}
			if patch.Price == nil || patch.Title != nil {
				t.Fatalf("only price must be patched: %+v", patch)
			}
			l := listing(id, "Lamp", patch.Price.String(), actor)
			l.Version = 5
			return &l, nil
		},
	}
	body := strings.NewReader(`{"price":"9.5","version":2}`)
	c, rec := newContext(http.MethodPatch, "/listings/l-1", body, alice)
	c.Request().Header.Set("If-Match", `W/"4"`)
	c.SetParamNames("id")
	c.SetParamValues("l-1")

	if err := newListingHandler(svc).Update(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Header().Get("ETag") != `"5"` {
		t.Fatalf("unexpected ETag %q", rec.Header().Get("ETag"))
	}
}

func TestListingHandler_Update_PropagatesGuardErrors(t *testing.T) {
	for _, want := range []error{domain.ErrForbidden, domain.ErrVersionConflict, domain.ErrListingNotFound} {
		svc := &stubListingService{
			updateFn: func(ctx context.Context, id string, actor *domain.User, patch domain.ListingPatch) (*domain.Listing, error) {
				return nil, want
			},
		}
		c, _ := newContext(http.MethodPatch, "/listings/l-1", strings.NewReader(`{"title":"x"}`), bob)
		c.SetParamNames("id")
		c.SetParamValues("l-1")

		if err := newListingHandler(svc).Update(c); !errors.Is(err, want) {
			t.Fatalf("expected %v, got %v", want, err)
		}
	}
}

func TestListingHandler_Update_BadIfMatch(t *testing.T) {
	c, _ := newContext(http.MethodPatch, "/listings/l-1", strings.NewReader(`{}`), alice)
	c.Request().Header.Set("If-Match", "yesterday")

	err := newListingHandler(&stubListingService{}).Update(c)
	var he *echo.HTTPError
	if !errors.As(err, &he) || he.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %v", err)
	}
}

func TestListingHandler_Delete(t *testing.T) {
	deleted := true
	svc := &stubListingService{
		deleteFn: func(ctx context.Context, id string, actor *domain.User) (bool, error) {
			was := deleted
			deleted = false
			return was, nil
		},
	}
	h := newListingHandler(svc)

	for _, want := range []bool{true, false} {
		c, rec := newContext(http.MethodDelete, "/listings/l-1", nil, alice)
		c.SetParamNames("id")
		c.SetParamValues("l-1")
		if err := h.Delete(c); err != nil {
			t.Fatalf("handler error: %v", err)
		}
		var resp deleteListingResponse
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatalf("invalid json: %v", err)
		}
		if resp.Deleted != want {
			t.Fatalf("expected deleted=%v, got %v", want, resp.Deleted)
		}
	}
}

func TestParseIfMatch(t *testing.T) {
	cases := map[string]int64{"": 0, "*": 0, "7": 7, `"7"`: 7, `W/"7"`: 7}
	for in, want := range cases {
		got, err := parseIfMatch(in)
		if err != nil || got != want {
			t.Fatalf("parseIfMatch(%q) = %d, %v; want %d", in, got, err, want)
		}
	}
	if _, err := parseIfMatch(`"0"`); err == nil {
		t.Fatalf("version 0 must be rejected")
	}
}
