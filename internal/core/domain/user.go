package domain

import (
	"errors"
	"time"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserNotFound       = errors.New("user not found")
	ErrUserExists         = errors.New("user already exists")
)

const (
	RoleAdmin    = "admin"
	RoleCustomer = "customer"
	RolePartner  = "partner"
)

// User models an authenticated actor in the system. Customer emails
// double as shipment ownership identity; partner users reference a
// Partner aggregate through PartnerID.
type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email,omitempty"`
	PasswordHash string    `json:"-"`
	Role         string    `json:"role"`
	PartnerID    string    `json:"partner_id,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
