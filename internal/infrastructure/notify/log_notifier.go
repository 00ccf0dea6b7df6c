package notify

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/parceltrack/delivery-platform/internal/core/domain"
)

// LogNotifier writes notifications to the structured log instead of an
// external provider. It stands in wherever no email/SMS gateway is
// configured, which keeps local and test environments free of outbound
// traffic.
type LogNotifier struct {
	log zerolog.Logger
}

func NewLogNotifier(log zerolog.Logger) *LogNotifier {
	return &LogNotifier{log: log}
}

func (n *LogNotifier) SendEmail(ctx context.Context, to, subject, body string) error {
	n.log.Info().
		Str("channel", "email").
		Str("to", to).
		Str("subject", subject).
		Str("body", body).
		Msg("notification")
	return nil
}

func (n *LogNotifier) SendSMS(ctx context.Context, phone, trackingID string, status domain.ShipmentStatus) error {
	n.log.Info().
		Str("channel", "sms").
		Str("to", phone).
		Str("tracking_id", trackingID).
		Str("status", string(status)).
		Msg("notification")
	return nil
}
