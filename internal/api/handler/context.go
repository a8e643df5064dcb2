package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/ecofinds/marketplace/internal/core/domain"
	"github.com/ecofinds/marketplace/internal/core/ports"
)

// currentUser returns the authenticated actor or domain.ErrUnauthenticated.
// Routes that need it are also behind middleware.RequireIdentity; the check
// here keeps handlers safe when mounted without it.
func currentUser(c echo.Context, idp ports.IdentityProvider) (*domain.User, error) {
	u, ok := idp.CurrentUser(c.Request().Context())
	if !ok {
		return nil, domain.ErrUnauthenticated
	}
	return u, nil
}

// optionalUser returns the actor for read endpoints that also serve anonymous callers.
func optionalUser(c echo.Context, idp ports.IdentityProvider) *domain.User {
	u, _ := idp.CurrentUser(c.Request().Context())
	return u
}

// bindAndValidate decodes the body into req and runs the registered validator.
func bindAndValidate(c echo.Context, req any) error {
	if err := c.Bind(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if c.Echo().Validator == nil {
		return nil
	}
	return c.Validate(req)
}
