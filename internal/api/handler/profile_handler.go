package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/ecofinds/marketplace/internal/core/ports"
)

// ProfileHandler edits the caller's own account.
type ProfileHandler struct {
	authService ports.AuthService
	listings    ports.ListingService
	idp         ports.IdentityProvider
}

func NewProfileHandler(authService ports.AuthService, listings ports.ListingService, idp ports.IdentityProvider) *ProfileHandler {
	return &ProfileHandler{authService: authService, listings: listings, idp: idp}
}

type updateProfileRequest struct {
	Username string `json:"username" validate:"required,max=40"`
}

// UpdateMe changes the caller's username and rewrites the seller name on
// their listings.
//
// @Summary      Update current user
// @Tags         auth
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      updateProfileRequest  true  "New profile values"
// @Success      200   {object}  authResponse
// @Failure      400   {object}  errorResponse
// @Failure      401   {object}  errorResponse
// @Failure      422   {object}  errorResponse
// @Router       /me [patch]
func (h *ProfileHandler) UpdateMe(c echo.Context) error {
	actor, err := currentUser(c, h.idp)
	if err != nil {
		return err
	}
	var req updateProfileRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	ctx := c.Request().Context()
	token, user, err := h.authService.UpdateProfile(ctx, actor.ID, req.Username)
	if err != nil {
		return err
	}
	if _, err := h.listings.RenameSeller(ctx, user.AsSeller()); err != nil {
		return err
	}

	return c.JSON(http.StatusOK, authResponse{Token: token, User: user})
}
