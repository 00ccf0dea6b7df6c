package domain

import "time"

// PartnerStatus gates a partner's eligibility for assignment.
type PartnerStatus string

const (
	PartnerPending   PartnerStatus = "pending"
	PartnerApproved  PartnerStatus = "approved"
	PartnerRejected  PartnerStatus = "rejected"
	PartnerSuspended PartnerStatus = "suspended"
)

// Partner is a delivery partner aggregate.
type Partner struct {
	ID                  string        `json:"id" bson:"_id,omitempty"`
	Name                string        `json:"name" bson:"name"`
	Email               string        `json:"email" bson:"email"`
	Phone               string        `json:"phone" bson:"phone"`
	VehicleType         string        `json:"vehicle_type" bson:"vehicle_type"`
	Status              PartnerStatus `json:"status" bson:"status"`
	IsOnline            bool          `json:"is_online" bson:"is_online"`
	IsActive            bool          `json:"is_active" bson:"is_active"`
	ActiveDeliveries    int           `json:"active_deliveries" bson:"active_deliveries"`
	TotalDeliveries     int           `json:"total_deliveries" bson:"total_deliveries"`
	CompletedDeliveries int           `json:"completed_deliveries" bson:"completed_deliveries"`
	CancelledDeliveries int           `json:"cancelled_deliveries" bson:"cancelled_deliveries"`
	TotalEarnings       float64       `json:"total_earnings" bson:"total_earnings"`
	CreatedAt           time.Time     `json:"created_at" bson:"created_at"`
	UpdatedAt           time.Time     `json:"updated_at" bson:"updated_at"`
}

// Eligible reports whether the partner can receive new assignments.
func (p *Partner) Eligible() bool {
	return p.Status == PartnerApproved && p.IsActive && p.IsOnline
}
