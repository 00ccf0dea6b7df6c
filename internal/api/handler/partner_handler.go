package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/parceltrack/delivery-platform/internal/core/domain"
	"github.com/parceltrack/delivery-platform/internal/core/ports"
)

// PartnerHandler handles delivery-partner management.
type PartnerHandler struct {
	partners ports.PartnerService
}

func NewPartnerHandler(partners ports.PartnerService) *PartnerHandler {
	return &PartnerHandler{partners: partners}
}

type registerPartnerRequest struct {
	Name        string `json:"name"         validate:"required"`
	Email       string `json:"email"        validate:"required,email"`
	Phone       string `json:"phone"        validate:"required"`
	VehicleType string `json:"vehicle_type" validate:"required"`
}

type partnerStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=pending approved rejected suspended"`
}

type availabilityRequest struct {
	Online bool `json:"online"`
}

// Register handles POST /partners/register. New partners start pending
// and cannot receive assignments until an admin approves them.
func (h *PartnerHandler) Register(c echo.Context) error {
	var req registerPartnerRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid payload"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
	}

	partner, err := h.partners.Register(c.Request().Context(), ports.RegisterPartnerInput{
		Name:        req.Name,
		Email:       req.Email,
		Phone:       req.Phone,
		VehicleType: req.VehicleType,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, partner)
}

// SetStatus handles PUT /partners/:id/status — admin approval flow.
func (h *PartnerHandler) SetStatus(c echo.Context) error {
	var req partnerStatusRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid payload"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
	}

	partner, err := h.partners.SetStatus(c.Request().Context(), c.Param("id"), req.Status)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, partner)
}

// SetAvailability handles PUT /partners/availability — a partner token
// toggling its own online flag.
func (h *PartnerHandler) SetAvailability(c echo.Context) error {
	var req availabilityRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid payload"})
	}

	partnerID := ctxPartnerID(c)
	if partnerID == "" {
		return c.JSON(http.StatusUnauthorized, errorResponse{Error: "token missing partner identity"})
	}

	partner, err := h.partners.SetAvailability(c.Request().Context(), partnerID, req.Online)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, partner)
}

// List handles GET /partners — admin listing, optionally by status.
func (h *PartnerHandler) List(c echo.Context) error {
	status := c.QueryParam("status")
	if status != "" {
		if _, err := parsePartnerStatus(status); err != nil {
			return c.JSON(http.StatusBadRequest, errorResponse{Error: "unknown partner status"})
		}
	}

	partners, err := h.partners.List(c.Request().Context(), status)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, partners)
}

func parsePartnerStatus(raw string) (domain.PartnerStatus, error) {
	switch s := domain.PartnerStatus(raw); s {
	case domain.PartnerPending, domain.PartnerApproved, domain.PartnerRejected, domain.PartnerSuspended:
		return s, nil
	}
	return "", domain.ErrInvalidStatus
}
