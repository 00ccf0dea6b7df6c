package ports

import (
	"context"

	"github.com/parceltrack/delivery-platform/internal/core/domain"
)

// Notifier performs the actual email/SMS I/O. Implementations are
// external collaborators; errors are logged by the dispatcher and never
// reach the core.
type Notifier interface {
	SendEmail(ctx context.Context, to, subject, body string) error
	SendSMS(ctx context.Context, phone, trackingID string, status domain.ShipmentStatus) error
}

// NotificationQueue is the outbox the core enqueues into after a state
// change commits. Enqueue must not block the caller.
type NotificationQueue interface {
	Enqueue(n domain.Notification)
}

// Publisher pushes best-effort events to the admin real-time channel.
type Publisher interface {
	Publish(ctx context.Context, topic string, payload any) error
}

// PendingOrderStore bridges payment-session creation and verification
// with a short-TTL persisted record, replacing any in-process cache so
// multiple instances can serve the verify call.
type PendingOrderStore interface {
	Put(ctx context.Context, sessionID string, order CreateShipmentInput) error
	// Take retrieves and deletes the record in one step; a second call
	// with the same id returns domain.ErrSessionNotFound.
	Take(ctx context.Context, sessionID string) (*CreateShipmentInput, error)
}
