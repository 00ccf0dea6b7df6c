package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/parceltrack/delivery-platform/internal/core/service"
)

// PaymentHandler handles the online-payment session flow: a session
// parks the priced order, verification consumes it and creates the
// shipment with payment already completed.
type PaymentHandler struct {
	sessions *service.PaymentSessionService
}

func NewPaymentHandler(sessions *service.PaymentSessionService) *PaymentHandler {
	return &PaymentHandler{sessions: sessions}
}

// CreateSession handles POST /tracking/payment/session.
func (h *PaymentHandler) CreateSession(c echo.Context) error {
	var req createShipmentRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid payload"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
	}

	_, email, err := ctxClaims(c)
	if err != nil {
		return err
	}

	sessionID, amount, err := h.sessions.CreateSession(c.Request().Context(), toCreateInput(req, email))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, paymentSessionResponse{
		SessionID: sessionID,
		Amount:    amount,
	})
}

// VerifySession handles POST /tracking/payment/verify.
func (h *PaymentHandler) VerifySession(c echo.Context) error {
	var req paymentVerifyRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid payload"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
	}

	_, email, err := ctxClaims(c)
	if err != nil {
		return err
	}

	shipment, err := h.sessions.VerifyAndCreate(c.Request().Context(), req.SessionID, email)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, toShipmentResponse(shipment))
}
