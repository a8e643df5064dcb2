package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/ecofinds/marketplace/internal/api/metrics"
	"github.com/ecofinds/marketplace/internal/core/domain"
	"github.com/ecofinds/marketplace/internal/core/ports"
)

const maxIdempotencyKeyLen = 128

// OrderHandler handles checkout and purchase history.
type OrderHandler struct {
	orders ports.OrderService
	idp    ports.IdentityProvider
}

func NewOrderHandler(orders ports.OrderService, idp ports.IdentityProvider) *OrderHandler {
	return &OrderHandler{orders: orders, idp: idp}
}

// Checkout handles POST /checkout.
//
// @Summary      Place an order for the cart contents
// @Description  Replaying the same Idempotency-Key returns the original order with 200.
// @Tags         orders
// @Produce      json
// @Security     BearerAuth
// @Param        Idempotency-Key  header    string  false  "Idempotency key to prevent duplicate orders"
// @Success      201              {object}  orderResponse
// @Success      200              {object}  orderResponse
// @Failure      401              {object}  errorResponse
// @Failure      409              {object}  errorResponse
// @Failure      422              {object}  errorResponse
// @Router       /checkout [post]
func (h *OrderHandler) Checkout(c echo.Context) error {
	actor, err := currentUser(c, h.idp)
	if err != nil {
		return err
	}
	key := strings.TrimSpace(c.Request().Header.Get("Idempotency-Key"))
	if len(key) > maxIdempotencyKeyLen {
		return &domain.ValidationError{Field: "Idempotency-Key", Reason: "must be at most 128 characters"}
	}

	result, err := h.orders.Checkout(c.Request().Context(), actor.ID, key)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrCheckoutInProgress):
			metrics.CheckoutsTotal.WithLabelValues("locked").Inc()
		case errors.Is(err, domain.ErrValidation):
			metrics.CheckoutsTotal.WithLabelValues("empty").Inc()
		default:
			metrics.CheckoutsTotal.WithLabelValues("failed").Inc()
		}
		return err
	}

	if result.AlreadyExisted {
		metrics.CheckoutsTotal.WithLabelValues("replayed").Inc()
		return c.JSON(http.StatusOK, toOrderResponse(result.Order))
	}
	metrics.CheckoutsTotal.WithLabelValues("placed").Inc()

	c.Response().Header().Set(echo.HeaderLocation, "/orders/"+result.Order.ID)
	return c.JSON(http.StatusCreated, toOrderResponse(result.Order))
}

// List handles GET /orders.
//
// @Summary      Purchase history, newest first
// @Tags         orders
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  ordersResponse
// @Router       /orders [get]
func (h *OrderHandler) List(c echo.Context) error {
	actor, err := currentUser(c, h.idp)
	if err != nil {
		return err
	}
	orders, err := h.orders.Purchases(c.Request().Context(), actor.ID)
	if err != nil {
		return err
	}
	items := make([]orderResponse, len(orders))
	for i := range orders {
		items[i] = toOrderResponse(&orders[i])
	}
	return c.JSON(http.StatusOK, ordersResponse{Items: items, Count: len(items)})
}

// Get handles GET /orders/:id.
//
// @Summary      Get one of the caller's orders
// @Tags         orders
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Order ID"
// @Success      200  {object}  orderResponse
// @Failure      404  {object}  errorResponse
// @Router       /orders/{id} [get]
func (h *OrderHandler) Get(c echo.Context) error {
	actor, err := currentUser(c, h.idp)
	if err != nil {
		return err
	}
	o, err := h.orders.GetOrder(c.Request().Context(), actor.ID, c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toOrderResponse(o))
}
