package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/parceltrack/delivery-platform/internal/core/domain"
)

// errorResponse is the canonical error envelope for all API errors. Code
// is a stable machine-readable identifier clients can branch on; the
// message is for humans and may change.
type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// NewHTTPErrorHandler returns an echo.HTTPErrorHandler that:
//   - Maps known domain errors to their appropriate HTTP status codes.
//   - Logs unexpected errors internally without leaking details to the client.
//   - Renders a consistent JSON envelope: {"error": "...", "code": "..."}.
func NewHTTPErrorHandler(log zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		status, code, msg := resolveError(err, log, c)
		_ = c.JSON(status, errorResponse{Error: msg, Code: code})
	}
}

func resolveError(err error, log zerolog.Logger, c echo.Context) (int, string, string) {
	// Echo's own errors (bind failures, 404 from router, etc.)
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he.Code, "", fmt.Sprintf("%v", he.Message)
	}

	// Known domain errors → deterministic HTTP codes.
	switch {
	case errors.Is(err, domain.ErrShipmentNotFound):
		return http.StatusNotFound, "SHIPMENT_NOT_FOUND", "shipment not found"
	case errors.Is(err, domain.ErrPartnerNotFound):
		return http.StatusNotFound, "PARTNER_NOT_FOUND", "partner not found"
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden, "FORBIDDEN", "access forbidden"
	case errors.Is(err, domain.ErrInvalidStatus):
		return http.StatusBadRequest, "UNKNOWN_STATUS", err.Error()
	case errors.Is(err, domain.ErrInvalidTransition):
		return http.StatusUnprocessableEntity, "INVALID_STATUS_TRANSITION", err.Error()
	case errors.Is(err, domain.ErrAlreadyDelivered):
		return http.StatusConflict, "DELIVERED_ORDER_CANNOT_BE_CANCELLED", err.Error()
	case errors.Is(err, domain.ErrAlreadyCancelled):
		return http.StatusConflict, "ALREADY_CANCELLED", err.Error()
	case errors.Is(err, domain.ErrRefundNotEligible):
		return http.StatusUnprocessableEntity, "REFUND_NOT_ELIGIBLE", err.Error()
	case errors.Is(err, domain.ErrDuplicateRefund):
		return http.StatusConflict, "DUPLICATE_REFUND_REQUEST", err.Error()
	case errors.Is(err, domain.ErrRefundNotPending):
		return http.StatusConflict, "REFUND_NOT_PENDING", err.Error()
	case errors.Is(err, domain.ErrConflict):
		return http.StatusConflict, "CONCURRENT_MODIFICATION", err.Error()
	case errors.Is(err, domain.ErrSessionNotFound):
		return http.StatusNotFound, "PAYMENT_SESSION_NOT_FOUND", err.Error()
	case errors.Is(err, domain.ErrInvalidCredentials):
		return http.StatusUnauthorized, "INVALID_CREDENTIALS", "invalid credentials"
	case errors.Is(err, domain.ErrUserNotFound):
		return http.StatusNotFound, "USER_NOT_FOUND", "user not found"
	case errors.Is(err, domain.ErrUserExists):
		return http.StatusConflict, "USER_EXISTS", "user already exists"
	}

	// Unexpected error: log the real cause, return a generic message.
	log.Error().
		Err(err).
		Str("method", c.Request().Method).
		Str("path", c.Path()).
		Msg("unhandled error")

	return http.StatusInternalServerError, "INTERNAL", "internal server error"
}
