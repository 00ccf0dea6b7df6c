package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/parceltrack/delivery-platform/internal/core/domain"
)

// ctxClaims extracts the auth claims injected by the Auth middleware and
// performs a fast-fail check before any service call:
//   - role must be non-empty (presence proves the middleware ran).
//   - customer role requires a non-empty email; emails double as
//     shipment ownership identity, so a customer token without one is
//     structurally valid but operationally unusable — reject with 401.
func ctxClaims(c echo.Context) (role, email string, err error) {
	role, _ = c.Get("role").(string)
	if role == "" {
		return "", "", echo.NewHTTPError(http.StatusUnauthorized, "missing authentication claims")
	}

	email, _ = c.Get("email").(string)
	if role == domain.RoleCustomer && email == "" {
		return "", "", echo.NewHTTPError(http.StatusUnauthorized, "token missing customer identity")
	}

	return role, email, nil
}

// ctxActor returns a human-readable actor identity for audit trails:
// the email when present, otherwise the username.
func ctxActor(c echo.Context) string {
	if email, _ := c.Get("email").(string); email != "" {
		return email
	}
	username, _ := c.Get("username").(string)
	return username
}

// ctxPartnerID returns the partner reference carried by partner tokens.
func ctxPartnerID(c echo.Context) string {
	id, _ := c.Get("partner_id").(string)
	return id
}
