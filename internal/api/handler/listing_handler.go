package handler

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/ecofinds/marketplace/internal/api/metrics"
	"github.com/ecofinds/marketplace/internal/core/catalog"
	"github.com/ecofinds/marketplace/internal/core/domain"
	"github.com/ecofinds/marketplace/internal/core/ports"
)

// ListingHandler handles HTTP requests for the product store and catalog.
type ListingHandler struct {
	listings ports.ListingService
	images   ports.ImageStore
	idp      ports.IdentityProvider
	log      zerolog.Logger
}

func NewListingHandler(listings ports.ListingService, images ports.ImageStore, idp ports.IdentityProvider, log zerolog.Logger) *ListingHandler {
	return &ListingHandler{listings: listings, images: images, idp: idp, log: log}
}

// Categories handles GET /categories.
//
// @Summary      List listing categories
// @Tags         catalog
// @Produce      json
// @Success      200  {object}  categoriesResponse
// @Router       /categories [get]
func (h *ListingHandler) Categories(c echo.Context) error {
	return c.JSON(http.StatusOK, categoriesResponse{Items: catalog.Categories()})
}

// List handles GET /listings.
//
// @Summary      Browse listings
// @Description  Category must match exactly; search is a case-insensitive substring of title or description.
// @Tags         catalog
// @Produce      json
// @Param        category  query     string  false  "Category value"
// @Param        search    query     string  false  "Free-text search"
// @Success      200       {object}  listingsResponse
// @Failure      422       {object}  errorResponse
// @Router       /listings [get]
func (h *ListingHandler) List(c echo.Context) error {
	q := catalog.Query{
		Category: domain.Category(strings.TrimSpace(c.QueryParam("category"))),
		Search:   strings.TrimSpace(c.QueryParam("search")),
	}
	if q.Category != "" && !q.Category.Valid() {
		return &domain.ValidationError{Field: "category", Reason: "unknown category " + string(q.Category)}
	}

	listings, err := h.listings.Browse(c.Request().Context(), q)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toListingsResponse(listings, h.images, optionalUser(c, h.idp)))
}

// Get handles GET /listings/:id.
//
// @Summary      Get a listing
// @Tags         catalog
// @Produce      json
// @Param        id   path      string  true  "Listing ID"
// @Success      200  {object}  listingResponse
// @Failure      404  {object}  errorResponse
// @Router       /listings/{id} [get]
func (h *ListingHandler) Get(c echo.Context) error {
	l, err := h.listings.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	c.Response().Header().Set("ETag", etag(l.Version))
	return c.JSON(http.StatusOK, toListingResponse(*l, h.images, optionalUser(c, h.idp)))
}

// Mine handles GET /me/listings.
//
// @Summary      List the caller's listings
// @Tags         listings
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  listingsResponse
// @Failure      401  {object}  errorResponse
// @Router       /me/listings [get]
func (h *ListingHandler) Mine(c echo.Context) error {
	actor, err := currentUser(c, h.idp)
	if err != nil {
		return err
	}
	listings, err := h.listings.ListByOwner(c.Request().Context(), actor.ID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toListingsResponse(listings, h.images, actor))
}

// Create handles POST /listings.
//
// @Summary      Create a listing
// @Tags         listings
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      createListingRequest  true  "Listing details"
// @Success      201   {object}  listingResponse
// @Failure      400   {object}  errorResponse
// @Failure      401   {object}  errorResponse
// @Failure      422   {object}  errorResponse
// @Router       /listings [post]
func (h *ListingHandler) Create(c echo.Context) error {
	actor, err := currentUser(c, h.idp)
	if err != nil {
		return err
	}
	var req createListingRequest
	if err := bindAndValidate(c, &req); err != nil {
		return h.rejected(err)
	}

	l, err := h.listings.Create(c.Request().Context(), actor, toListingDraft(req))
	if err != nil {
		return h.rejected(err)
	}
	metrics.ListingMutationsTotal.WithLabelValues("create").Inc()

	c.Response().Header().Set(echo.HeaderLocation, "/listings/"+l.ID)
	c.Response().Header().Set("ETag", etag(l.Version))
	return c.JSON(http.StatusCreated, toListingResponse(*l, h.images, actor))
}

// Update handles PATCH /listings/:id.
//
// @Summary      Update a listing
// @Description  Only the seller may update. Send If-Match (or "version") to fail with 409 on a stale copy.
// @Tags         listings
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id        path      string                true   "Listing ID"
// @Param        If-Match  header    string                false  "Expected listing version"
// @Param        body      body      updateListingRequest  true   "Fields to change"
// @Success      200       {object}  listingResponse
// @Failure      400       {object}  errorResponse
// @Failure      403       {object}  errorResponse
// @Failure      404       {object}  errorResponse
// @Failure      409       {object}  errorResponse
// @Failure      422       {object}  errorResponse
// @Router       /listings/{id} [patch]
func (h *ListingHandler) Update(c echo.Context) error {
	actor, err := currentUser(c, h.idp)
	if err != nil {
		return err
	}
	ifMatch, err := parseIfMatch(c.Request().Header.Get("If-Match"))
	if err != nil {
		return err
	}
	var req updateListingRequest
	if err := bindAndValidate(c, &req); err != nil {
		return h.rejected(err)
	}

	l, err := h.listings.Update(c.Request().Context(), c.Param("id"), actor, toListingPatch(req, ifMatch))
	if err != nil {
		return h.rejected(err)
	}
	metrics.ListingMutationsTotal.WithLabelValues("update").Inc()

	c.Response().Header().Set("ETag", etag(l.Version))
	return c.JSON(http.StatusOK, toListingResponse(*l, h.images, actor))
}

// Delete handles DELETE /listings/:id. Deleting an absent listing is not an
// error; the response reports deleted=false.
//
// @Summary      Delete a listing
// @Tags         listings
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Listing ID"
// @Success      200  {object}  deleteListingResponse
// @Failure      401  {object}  errorResponse
// @Failure      403  {object}  errorResponse
// @Router       /listings/{id} [delete]
func (h *ListingHandler) Delete(c echo.Context) error {
	actor, err := currentUser(c, h.idp)
	if err != nil {
		return err
	}
	id := c.Param("id")
	deleted, err := h.listings.Delete(c.Request().Context(), id, actor)
	if err != nil {
		return h.rejected(err)
	}
	if deleted {
		metrics.ListingMutationsTotal.WithLabelValues("delete").Inc()
	}
	return c.JSON(http.StatusOK, deleteListingResponse{ID: id, Deleted: deleted})
}

// rejected counts refused mutations by reason and passes err through.
func (h *ListingHandler) rejected(err error) error {
	switch {
	case errors.Is(err, domain.ErrValidation):
		metrics.ListingRejectionsTotal.WithLabelValues("validation").Inc()
	case errors.Is(err, domain.ErrForbidden):
		metrics.ListingRejectionsTotal.WithLabelValues("forbidden").Inc()
		h.log.Warn().Err(err).Msg("listing mutation refused")
	case errors.Is(err, domain.ErrVersionConflict):
		metrics.ListingRejectionsTotal.WithLabelValues("version_conflict").Inc()
	case errors.Is(err, domain.ErrListingNotFound):
		metrics.ListingRejectionsTotal.WithLabelValues("not_found").Inc()
	}
	return err
}

func etag(version int64) string {
	return strconv.Quote(strconv.FormatInt(version, 10))
}

// parseIfMatch accepts 3, "3" and W/"3". An empty header means unconditional.
func parseIfMatch(v string) (int64, error) {
	v = strings.TrimSpace(v)
	if v == "" || v == "*" {
		return 0, nil
	}
	v = strings.TrimPrefix(v, "W/")
	v = strings.Trim(v, `"`)
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil || n <= 0 {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "If-Match must be a listing version")
	}
	return n, nil
}
