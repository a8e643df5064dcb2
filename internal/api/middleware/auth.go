package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/ecofinds/marketplace/internal/core/domain"
	"github.com/ecofinds/marketplace/internal/core/identity"
)

// UserKey is the echo.Context key holding the authenticated *domain.User.
const UserKey = "user"

// TokenVerifier turns a bearer token into the user it was issued for.
type TokenVerifier interface {
	Verify(token string) (*domain.User, error)
}

// Authenticate resolves an optional bearer token. Requests without an
// Authorization header pass through anonymously; a malformed header or an
// invalid token is rejected with 401.
func Authenticate(verifier TokenVerifier) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get(echo.HeaderAuthorization)
			if authHeader == "" {
				return next(c)
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") || strings.TrimSpace(parts[1]) == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid authorization header")
			}

			user, err := verifier.Verify(strings.TrimSpace(parts[1]))
			if err != nil || user == nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
			}

			c.Set(UserKey, user)
			req := c.Request()
			c.SetRequest(req.WithContext(identity.WithUser(req.Context(), user)))

			return next(c)
		}
	}
}
