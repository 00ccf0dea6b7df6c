package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/parceltrack/delivery-platform/internal/core/domain"
	"github.com/parceltrack/delivery-platform/internal/core/ports"
)

// TrackingHandler handles HTTP requests for the shipment lifecycle:
// creation, lookup, status updates, cancellation, refunds, complaints.
type TrackingHandler struct {
	shipments   ports.ShipmentService
	transitions ports.TransitionEngine
	canceller   ports.CancellationEngine
	refunds     ports.RefundWorkflow
	complaints  ports.ComplaintWorkflow
}

func NewTrackingHandler(
	shipments ports.ShipmentService,
	transitions ports.TransitionEngine,
	canceller ports.CancellationEngine,
	refunds ports.RefundWorkflow,
	complaints ports.ComplaintWorkflow,
) *TrackingHandler {
	return &TrackingHandler{
		shipments:   shipments,
		transitions: transitions,
		canceller:   canceller,
		refunds:     refunds,
		complaints:  complaints,
	}
}

// Verify handles POST /tracking/verify — the public tracking lookup.
func (h *TrackingHandler) Verify(c echo.Context) error {
	var req verifyTrackingRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid payload"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
	}

	shipment, err := h.shipments.Verify(c.Request().Context(), req.TrackingID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toShipmentResponse(shipment))
}

// Create handles POST /tracking/add.
func (h *TrackingHandler) Create(c echo.Context) error {
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

	shipment, err := h.shipments.Create(c.Request().Context(), toCreateInput(req, email))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, toShipmentResponse(shipment))
}

// Update handles PUT /tracking/:trackingId — courier/admin status updates.
func (h *TrackingHandler) Update(c echo.Context) error {
	var req statusUpdateRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid payload"})
	}
	if req.Status == "" && req.Location == "" {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "status or location is required"})
	}

	shipment, err := h.transitions.ApplyStatusUpdate(c.Request().Context(), ports.StatusUpdateInput{
		TrackingID:  c.Param("trackingId"),
		Status:      req.Status,
		Location:    req.Location,
		Description: req.Description,
		UpdatedBy:   ctxActor(c),
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toShipmentResponse(shipment))
}

// Cancel handles PUT /tracking/cancel/:trackingId — sender-only.
func (h *TrackingHandler) Cancel(c echo.Context) error {
	var req cancelRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid payload"})
	}

	_, email, err := ctxClaims(c)
	if err != nil {
		return err
	}

	shipment, err := h.canceller.Cancel(c.Request().Context(), ports.CancelInput{
		TrackingID: c.Param("trackingId"),
		Actor:      email,
		Reason:     req.Reason,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toShipmentResponse(shipment))
}

// RequestRefund handles PUT /tracking/refund/:trackingId.
func (h *TrackingHandler) RequestRefund(c echo.Context) error {
	var req refundRequest
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

	shipment, err := h.refunds.Request(c.Request().Context(), ports.RefundRequestInput{
		TrackingID:     c.Param("trackingId"),
		Actor:          email,
		Reason:         req.Reason,
		Category:       req.Category,
		Description:    req.Description,
		RefundMethod:   req.RefundMethod,
		Urgency:        req.Urgency,
		ExpectedAmount: req.ExpectedAmount,
		EvidenceImages: req.EvidenceImages,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toShipmentResponse(shipment))
}

// WithdrawRefund handles PUT /tracking/refund/cancel/:trackingId.
func (h *TrackingHandler) WithdrawRefund(c echo.Context) error {
	_, email, err := ctxClaims(c)
	if err != nil {
		return err
	}

	shipment, err := h.refunds.Withdraw(c.Request().Context(), c.Param("trackingId"), email)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toShipmentResponse(shipment))
}

// ResolveRefund handles PUT /tracking/refund/resolve/:trackingId — admin only.
func (h *TrackingHandler) ResolveRefund(c echo.Context) error {
	var req refundDecisionRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid payload"})
	}

	shipment, err := h.refunds.Resolve(c.Request().Context(), ports.RefundDecisionInput{
		TrackingID: c.Param("trackingId"),
		Actor:      ctxActor(c),
		Approve:    req.Approve,
		Note:       req.Note,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toShipmentResponse(shipment))
}

// Complaint handles POST /tracking/complaint/:trackingId.
func (h *TrackingHandler) Complaint(c echo.Context) error {
	var req complaintRequest
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

	complaintID, err := h.complaints.Submit(c.Request().Context(), ports.ComplaintInput{
		TrackingID:  c.Param("trackingId"),
		Actor:       email,
		Category:    req.Category,
		Severity:    req.Severity,
		Rating:      req.Rating,
		Description: req.Description,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, complaintResponse{
		ComplaintID: complaintID,
		Status:      string(domain.ComplaintOpen),
	})
}

// Delete handles DELETE /tracking/delete/:trackingId — admin only.
func (h *TrackingHandler) Delete(c echo.Context) error {
	if err := h.shipments.Delete(c.Request().Context(), c.Param("trackingId")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// List handles GET /tracking. Customers see their own shipments, partner
// tokens see their assignments, admins see everything.
func (h *TrackingHandler) List(c echo.Context) error {
	role, email, err := ctxClaims(c)
	if err != nil {
		return err
	}

	input := ports.ListShipmentsInput{
		Role:   role,
		Status: c.QueryParam("status"),
		Search: c.QueryParam("search"),
		Page:   queryInt(c, "page", 1),
		Limit:  queryInt(c, "limit", 0),
	}
	switch role {
	case domain.RoleCustomer:
		input.SenderEmail = email
	case domain.RolePartner:
		input.PartnerID = ctxPartnerID(c)
	}
	if from, ok := queryTime(c, "date_from"); ok {
		input.DateFrom = from
	}
	if to, ok := queryTime(c, "date_to"); ok {
		input.DateTo = to
	}

	result, err := h.shipments.List(c.Request().Context(), input)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toListResponse(result))
}

func queryInt(c echo.Context, name string, fallback int) int {
	raw := c.QueryParam(name)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return fallback
	}
	return n
}

func queryTime(c echo.Context, name string) (time.Time, bool) {
	raw := c.QueryParam(name)
	if raw == "" {
		return time.Time{}, false
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
