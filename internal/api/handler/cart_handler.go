package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/ecofinds/marketplace/internal/api/metrics"
	"github.com/ecofinds/marketplace/internal/core/ports"
)

// CartHandler exposes the caller's cart. Every route requires identity.
type CartHandler struct {
	carts  ports.CartService
	images ports.ImageStore
	idp    ports.IdentityProvider
}

func NewCartHandler(carts ports.CartService, images ports.ImageStore, idp ports.IdentityProvider) *CartHandler {
	return &CartHandler{carts: carts, images: images, idp: idp}
}

// Get handles GET /cart.
//
// @Summary      Get the cart with live prices
// @Tags         cart
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  cartResponse
// @Failure      401  {object}  errorResponse
// @Router       /cart [get]
func (h *CartHandler) Get(c echo.Context) error {
	actor, err := currentUser(c, h.idp)
	if err != nil {
		return err
	}
	snap, err := h.carts.Get(c.Request().Context(), actor.ID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toCartResponse(snap, h.images, actor))
}

// AddItem handles POST /cart/items. Adding a listing twice is a no-op.
//
// @Summary      Add a listing to the cart
// @Tags         cart
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      addCartItemRequest  true  "Listing to add"
// @Success      200   {object}  cartResponse
// @Failure      404   {object}  errorResponse
// @Failure      422   {object}  errorResponse
// @Router       /cart/items [post]
func (h *CartHandler) AddItem(c echo.Context) error {
	actor, err := currentUser(c, h.idp)
	if err != nil {
		return err
	}
	var req addCartItemRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	snap, err := h.carts.Add(c.Request().Context(), actor.ID, req.ListingID)
	if err != nil {
		return err
	}
	metrics.CartOperationsTotal.WithLabelValues("add").Inc()
	return c.JSON(http.StatusOK, toCartResponse(snap, h.images, actor))
}

// Contains handles GET /cart/items/:id.
//
// @Summary      Check whether a listing is in the cart
// @Tags         cart
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Listing ID"
// @Success      200  {object}  cartContainsResponse
// @Router       /cart/items/{id} [get]
func (h *CartHandler) Contains(c echo.Context) error {
	actor, err := currentUser(c, h.idp)
	if err != nil {
		return err
	}
	id := c.Param("id")
	ok, err := h.carts.Contains(c.Request().Context(), actor.ID, id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, cartContainsResponse{ListingID: id, InCart: ok})
}

// RemoveItem handles DELETE /cart/items/:id. Removing an absent listing is a no-op.
//
// @Summary      Remove a listing from the cart
// @Tags         cart
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Listing ID"
// @Success      200  {object}  cartResponse
// @Router       /cart/items/{id} [delete]
func (h *CartHandler) RemoveItem(c echo.Context) error {
	actor, err := currentUser(c, h.idp)
	if err != nil {
		return err
	}
	snap, err := h.carts.Remove(c.Request().Context(), actor.ID, c.Param("id"))
	if err != nil {
		return err
	}
	metrics.CartOperationsTotal.WithLabelValues("remove").Inc()
	return c.JSON(http.StatusOK, toCartResponse(snap, h.images, actor))
}

// Clear handles DELETE /cart.
//
// @Summary      Empty the cart
// @Tags         cart
// @Security     BearerAuth
// @Success      204
// @Router       /cart [delete]
func (h *CartHandler) Clear(c echo.Context) error {
	actor, err := currentUser(c, h.idp)
	if err != nil {
		return err
	}
	if err := h.carts.Clear(c.Request().Context(), actor.ID); err != nil {
		return err
	}
	metrics.CartOperationsTotal.WithLabelValues("clear").Inc()
	return c.NoContent(http.StatusNoContent)
}
