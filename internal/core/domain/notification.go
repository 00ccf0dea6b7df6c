package domain

// NotificationKind selects the delivery channel for an outbox entry.
type NotificationKind string

const (
	NotifyEmail NotificationKind = "email"
	NotifySMS   NotificationKind = "sms"
)

// Notification is an outbox entry emitted by the core after a state
// change commits. A separate dispatcher performs the actual I/O, so a
// failing email or SMS can never roll back the state change.
type Notification struct {
	Kind       NotificationKind
	TrackingID string
	To         string // email address or phone number, depending on Kind
	Subject    string
	Body       string
	Status     ShipmentStatus // SMS payloads carry the status instead of a body
}
