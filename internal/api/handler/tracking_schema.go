package handler

import "time"

// errorResponse is the standard error envelope returned on all 4xx/5xx responses.
type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// --- Request types ---

type partyRequest struct {
	Name    string `json:"name"    validate:"required"`
	Email   string `json:"email"   validate:"required,email"`
	Phone   string `json:"phone"   validate:"required"`
	Address string `json:"address" validate:"required"`
}

type dimensionsRequest struct {
	LengthCm float64 `json:"length_cm" validate:"required,gt=0"`
	WidthCm  float64 `json:"width_cm"  validate:"required,gt=0"`
	HeightCm float64 `json:"height_cm" validate:"required,gt=0"`
}

type packageRequest struct {
	Type          string            `json:"type"           validate:"required,oneof=standard express fragile oversized"`
	WeightKg      float64           `json:"weight_kg"      validate:"required,gt=0"`
	Dimensions    dimensionsRequest `json:"dimensions"     validate:"required"`
	DeclaredValue float64           `json:"declared_value" validate:"gte=0"`
}

type createShipmentRequest struct {
	Sender        partyRequest   `json:"sender"         validate:"required"`
	Receiver      partyRequest   `json:"receiver"       validate:"required"`
	Origin        string         `json:"origin"         validate:"required"`
	Destination   string         `json:"destination"    validate:"required"`
	Package       packageRequest `json:"package"        validate:"required"`
	PaymentMethod string         `json:"payment_method" validate:"required,oneof=upi cod card online"`
}

type verifyTrackingRequest struct {
	TrackingID string `json:"tracking_id" validate:"required"`
}

type statusUpdateRequest struct {
	Status      string `json:"status"`
	Location    string `json:"location"`
	Description string `json:"description"`
}

type cancelRequest struct {
	Reason string `json:"reason"`
}

type refundRequest struct {
	Reason         string   `json:"reason"          validate:"required"`
	Category       string   `json:"category"`
	Description    string   `json:"description"`
	RefundMethod   string   `json:"refund_method"`
	Urgency        string   `json:"urgency"`
	ExpectedAmount float64  `json:"expected_amount" validate:"gte=0"`
	EvidenceImages []string `json:"evidence_images"`
}

type refundDecisionRequest struct {
	Approve bool   `json:"approve"`
	Note    string `json:"note"`
}

type complaintRequest struct {
	Category    string `json:"category"    validate:"required"`
	Severity    string `json:"severity"    validate:"omitempty,oneof=low medium high"`
	Rating      int    `json:"rating"      validate:"omitempty,min=1,max=5"`
	Description string `json:"description" validate:"required"`
}

type paymentVerifyRequest struct {
	SessionID string `json:"session_id" validate:"required"`
}

// --- Response types ---
// Owned by the transport layer so the JSON contract is not coupled to
// internal service changes.

type partyResponse struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
}

type dimensionsResponse struct {
	LengthCm float64 `json:"length_cm"`
	WidthCm  float64 `json:"width_cm"`
	HeightCm float64 `json:"height_cm"`
}

type packageResponse struct {
	Type          string             `json:"type"`
	WeightKg      float64            `json:"weight_kg"`
	Dimensions    dimensionsResponse `json:"dimensions"`
	DeclaredValue float64            `json:"declared_value"`
}

type paymentResponse struct {
	Method          string     `json:"method"`
	Status          string     `json:"status"`
	Amount          float64    `json:"amount"`
	PaidAt          *time.Time `json:"paid_at,omitempty"`
	RefundRequestID string     `json:"refund_request_id,omitempty"`
	RefundReason    string     `json:"refund_reason,omitempty"`
	RefundedAt      *time.Time `json:"refunded_at,omitempty"`
}

type historyItemResponse struct {
	Status      string    `json:"status"`
	Location    string    `json:"location,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
	Description string    `json:"description,omitempty"`
	UpdatedBy   string    `json:"updated_by,omitempty"`
}

type shipmentResponse struct {
	TrackingID      string                `json:"tracking_id"`
	Status          string                `json:"status"`
	CurrentLocation string                `json:"current_location"`
	Sender          partyResponse         `json:"sender"`
	Receiver        partyResponse         `json:"receiver"`
	Origin          string                `json:"origin"`
	Destination     string                `json:"destination"`
	Package         packageResponse       `json:"package"`
	AssignedPartner string                `json:"assigned_partner,omitempty"`
	Revenue         float64               `json:"cost"`
	Payment         paymentResponse       `json:"payment"`
	PickedUpAt      *time.Time            `json:"picked_up_at,omitempty"`
	DeliveredAt     *time.Time            `json:"delivered_at,omitempty"`
	History         []historyItemResponse `json:"history"`
	CreatedAt       time.Time             `json:"created_at"`
	UpdatedAt       time.Time             `json:"updated_at"`
}

// shipmentSummaryResponse is the lightweight item used in list
// responses; it omits the audit trails to keep payloads small.
type shipmentSummaryResponse struct {
	TrackingID      string        `json:"tracking_id"`
	Status          string        `json:"status"`
	CurrentLocation string        `json:"current_location"`
	Sender          partyResponse `json:"sender"`
	Receiver        partyResponse `json:"receiver"`
	Origin          string        `json:"origin"`
	Destination     string        `json:"destination"`
	Revenue         float64       `json:"cost"`
	PaymentStatus   string        `json:"payment_status"`
	AssignedPartner string        `json:"assigned_partner,omitempty"`
	CreatedAt       time.Time     `json:"created_at"`
}

type paginationResponse struct {
	Total      int64 `json:"total"`
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	TotalPages int   `json:"total_pages"`
}

type listShipmentsResponse struct {
	Data       []shipmentSummaryResponse `json:"data"`
	Pagination paginationResponse        `json:"pagination"`
}

type paymentSessionResponse struct {
	SessionID string  `json:"session_id"`
	Amount    float64 `json:"amount"`
}

type complaintResponse struct {
	ComplaintID string `json:"complaint_id"`
	Status      string `json:"status"`
}
