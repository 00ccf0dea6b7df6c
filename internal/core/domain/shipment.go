package domain

import (
	"errors"
	"time"
)

// ShipmentStatus represents the lifecycle state of a shipment.
type ShipmentStatus string

const (
	StatusPending        ShipmentStatus = "pending"
	StatusAssigned       ShipmentStatus = "assigned"
	StatusPickedUp       ShipmentStatus = "picked_up"
	StatusInTransit      ShipmentStatus = "in_transit"
	StatusOutForDelivery ShipmentStatus = "out_for_delivery"
	StatusDelivered      ShipmentStatus = "delivered"
	StatusCancelled      ShipmentStatus = "cancelled"
)

// statusRank orders the forward progression of the state machine.
// Cancellation sits outside the ranking: it is reachable from any
// non-terminal state, but only through the cancellation flow.
var statusRank = map[ShipmentStatus]int{
	StatusPending:        0,
	StatusAssigned:       1,
	StatusPickedUp:       2,
	StatusInTransit:      3,
	StatusOutForDelivery: 4,
	StatusDelivered:      5,
}

var (
	ErrShipmentNotFound  = errors.New("shipment not found")
	ErrPartnerNotFound   = errors.New("partner not found")
	ErrNoPartnerEligible = errors.New("no eligible partner available")
	ErrForbidden         = errors.New("access forbidden")
	ErrInvalidStatus     = errors.New("unknown shipment status")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrAlreadyDelivered  = errors.New("delivered order cannot be cancelled")
	ErrAlreadyCancelled  = errors.New("shipment already cancelled")
	ErrRefundNotEligible = errors.New("refund allowed only for delivered shipments")
	ErrDuplicateRefund   = errors.New("refund already requested or issued")
	ErrRefundNotPending  = errors.New("no pending refund request to act on")
	ErrConflict          = errors.New("concurrent modification detected")
	ErrSessionNotFound   = errors.New("payment session not found or expired")
)

// ParseStatus validates a raw status string against the canonical set.
// The platform stores lowercase snake_case statuses only; arbitrary
// strings are rejected rather than persisted.
func ParseStatus(raw string) (ShipmentStatus, error) {
	s := ShipmentStatus(raw)
	if _, ok := statusRank[s]; ok {
		return s, nil
	}
	if s == StatusCancelled {
		return s, nil
	}
	return "", ErrInvalidStatus
}

// Terminal reports whether no further status transition is accepted.
// Payment sub-state may still evolve after delivery.
func (s ShipmentStatus) Terminal() bool {
	return s == StatusDelivered || s == StatusCancelled
}

// CanAdvanceTo reports whether the forward transition from s to next is
// allowed. Equal rank is permitted so couriers can post location-only
// updates; regression is not. Cancellation never goes through here.
func (s ShipmentStatus) CanAdvanceTo(next ShipmentStatus) bool {
	if s.Terminal() {
		return false
	}
	cur, ok := statusRank[s]
	if !ok {
		return false
	}
	nxt, ok := statusRank[next]
	if !ok {
		return false
	}
	return nxt >= cur
}

// PaymentMethod is how the customer pays for a shipment.
type PaymentMethod string

const (
	PaymentUPI    PaymentMethod = "upi"
	PaymentCOD    PaymentMethod = "cod"
	PaymentCard   PaymentMethod = "card"
	PaymentOnline PaymentMethod = "online"
)

// PaymentStatus is the payment sub-state, independent of shipment status.
type PaymentStatus string

const (
	PaymentPending         PaymentStatus = "pending"
	PaymentCompleted       PaymentStatus = "completed"
	PaymentRefundRequested PaymentStatus = "refund_requested"
	PaymentRefunded        PaymentStatus = "refunded"
	PaymentCancelled       PaymentStatus = "cancelled"
)

// Party represents a sender or receiver.
type Party struct {
	Name    string `json:"name" bson:"name"`
	Email   string `json:"email" bson:"email"`
	Phone   string `json:"phone" bson:"phone"`
	Address string `json:"address" bson:"address"`
}

// PackageType classifies the parcel for pricing.
type PackageType string

const (
	PackageStandard  PackageType = "standard"
	PackageExpress   PackageType = "express"
	PackageFragile   PackageType = "fragile"
	PackageOversized PackageType = "oversized"
)

// Dimensions represents the physical size of a package in centimetres.
type Dimensions struct {
	LengthCm float64 `json:"length_cm" bson:"length_cm"`
	WidthCm  float64 `json:"width_cm" bson:"width_cm"`
	HeightCm float64 `json:"height_cm" bson:"height_cm"`
}

// PackageDetails contains the details of what is being shipped.
type PackageDetails struct {
	Type          PackageType `json:"type" bson:"type"`
	WeightKg      float64     `json:"weight_kg" bson:"weight_kg"`
	Dimensions    Dimensions  `json:"dimensions" bson:"dimensions"`
	DeclaredValue float64     `json:"declared_value" bson:"declared_value"`
}

// HistoryEntry is the original audit-trail record appended on every
// status change. Kept alongside StatusAudit for compatibility with
// records written before actor identity was tracked.
type HistoryEntry struct {
	Status      ShipmentStatus `json:"status" bson:"status"`
	Location    string         `json:"location" bson:"location"`
	Timestamp   time.Time      `json:"timestamp" bson:"timestamp"`
	Description string         `json:"description,omitempty" bson:"description,omitempty"`
}

// StatusAudit is the richer audit record carrying actor identity, used
// for cancellation and refund provenance.
type StatusAudit struct {
	Status    ShipmentStatus `json:"status" bson:"status"`
	Location  string         `json:"location,omitempty" bson:"location,omitempty"`
	Timestamp time.Time      `json:"timestamp" bson:"timestamp"`
	Note      string         `json:"note,omitempty" bson:"note,omitempty"`
	UpdatedBy string         `json:"updated_by" bson:"updated_by"`
}

// Payment is the payment sub-aggregate of a shipment.
type Payment struct {
	Method               PaymentMethod `json:"method" bson:"method"`
	Status               PaymentStatus `json:"status" bson:"status"`
	Amount               float64       `json:"amount" bson:"amount"`
	PaidAt               *time.Time    `json:"paid_at,omitempty" bson:"paid_at,omitempty"`
	RefundRequestID      string        `json:"refund_request_id,omitempty" bson:"refund_request_id,omitempty"`
	RefundReason         string        `json:"refund_reason,omitempty" bson:"refund_reason,omitempty"`
	RefundCategory       string        `json:"refund_category,omitempty" bson:"refund_category,omitempty"`
	RefundMethod         string        `json:"refund_method,omitempty" bson:"refund_method,omitempty"`
	RefundDescription    string        `json:"refund_description,omitempty" bson:"refund_description,omitempty"`
	RefundUrgency        string        `json:"refund_urgency,omitempty" bson:"refund_urgency,omitempty"`
	ExpectedRefundAmount float64       `json:"expected_refund_amount,omitempty" bson:"expected_refund_amount,omitempty"`
	RefundRequestedAt    *time.Time    `json:"refund_requested_at,omitempty" bson:"refund_requested_at,omitempty"`
	RefundedAt           *time.Time    `json:"refunded_at,omitempty" bson:"refunded_at,omitempty"`
	EvidenceImages       []string      `json:"evidence_images,omitempty" bson:"evidence_images,omitempty"`
}

// ComplaintStatus tracks a complaint independently of shipment status.
type ComplaintStatus string

const (
	ComplaintOpen      ComplaintStatus = "open"
	ComplaintResolved  ComplaintStatus = "resolved"
	ComplaintEscalated ComplaintStatus = "escalated"
)

// Complaint is a service complaint attached to a shipment.
type Complaint struct {
	ID          string          `json:"id" bson:"id"`
	Category    string          `json:"category" bson:"category"`
	Severity    string          `json:"severity" bson:"severity"`
	Rating      int             `json:"rating" bson:"rating"`
	Description string          `json:"description" bson:"description"`
	Status      ComplaintStatus `json:"status" bson:"status"`
	CreatedBy   string          `json:"created_by" bson:"created_by"`
	CreatedAt   time.Time       `json:"created_at" bson:"created_at"`
}

// Shipment is the core aggregate root, keyed by tracking id.
type Shipment struct {
	ID              string         `json:"id" bson:"_id,omitempty"`
	TrackingID      string         `json:"tracking_id" bson:"tracking_id"`
	Sender          Party          `json:"sender" bson:"sender"`
	Receiver        Party          `json:"receiver" bson:"receiver"`
	Origin          string         `json:"origin" bson:"origin"`
	Destination     string         `json:"destination" bson:"destination"`
	Package         PackageDetails `json:"package" bson:"package"`
	Status          ShipmentStatus `json:"status" bson:"status"`
	CurrentLocation string         `json:"current_location" bson:"current_location"`
	History         []HistoryEntry `json:"history" bson:"history"`
	StatusHistory   []StatusAudit  `json:"status_history" bson:"status_history"`
	AssignedPartner string         `json:"assigned_partner,omitempty" bson:"assigned_partner,omitempty"`
	PickedUpAt      *time.Time     `json:"picked_up_at,omitempty" bson:"picked_up_at,omitempty"`
	DeliveredAt     *time.Time     `json:"delivered_at,omitempty" bson:"delivered_at,omitempty"`
	Revenue         float64        `json:"revenue" bson:"revenue"`
	PartnerEarnings float64        `json:"partner_earnings" bson:"partner_earnings"`
	Payment         Payment        `json:"payment" bson:"payment"`
	Complaints      []Complaint    `json:"complaints,omitempty" bson:"complaints,omitempty"`
	Version         int64          `json:"-" bson:"version"`
	CreatedAt       time.Time      `json:"created_at" bson:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at" bson:"updated_at"`
}

// OwnedBy reports whether the given identity is the shipment's sender.
// Sender email is forced to the creator's identity at creation time, so
// an email match is an ownership match.
func (s *Shipment) OwnedBy(email string) bool {
	return email != "" && s.Sender.Email == email
}

// InvolvedParty reports whether the identity matches sender or receiver.
func (s *Shipment) InvolvedParty(email string) bool {
	return s.OwnedBy(email) || (email != "" && s.Receiver.Email == email)
}
