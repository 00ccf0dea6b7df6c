package service

import (
	"context"
	"fmt"
	"time"

	"github.com/parceltrack/delivery-platform/internal/core/domain"
	"github.com/parceltrack/delivery-platform/internal/core/ports"
)

// stubShipmentRepo is an in-memory ShipmentRepository that mirrors the
// real store's guard semantics so concurrency-sensitive paths can be
// exercised without a database.
type stubShipmentRepo struct {
	shipments map[string]*domain.Shipment

	createErr       error
	createConflicts int // simulated tracking-id collisions before Create succeeds
	cancelErr       error
}

func newStubShipmentRepo(shipments ...*domain.Shipment) *stubShipmentRepo {
	r := &stubShipmentRepo{shipments: make(map[string]*domain.Shipment)}
	for _, s := range shipments {
		r.shipments[s.TrackingID] = s
	}
	return r
}

func (r *stubShipmentRepo) Create(ctx context.Context, s *domain.Shipment) error {
	if r.createErr != nil {
		return r.createErr
	}
	if r.createConflicts > 0 {
		r.createConflicts--
		return domain.ErrConflict
	}
	cp := *s
	r.shipments[s.TrackingID] = &cp
	return nil
}

func (r *stubShipmentRepo) FindByTrackingID(ctx context.Context, trackingID, senderEmail string) (*domain.Shipment, error) {
	s, ok := r.shipments[trackingID]
	if !ok {
		return nil, domain.ErrShipmentNotFound
	}
	if senderEmail != "" && s.Sender.Email != senderEmail {
		return nil, domain.ErrShipmentNotFound
	}
	cp := *s
	return &cp, nil
}

func (r *stubShipmentRepo) List(ctx context.Context, filter ports.ListShipmentsFilter) ([]*domain.Shipment, int64, error) {
	var out []*domain.Shipment
	for _, s := range r.shipments {
		if filter.SenderEmail != "" && s.Sender.Email != filter.SenderEmail {
			continue
		}
		if filter.PartnerID != "" && s.AssignedPartner != filter.PartnerID {
			continue
		}
		if filter.Status != "" && string(s.Status) != filter.Status {
			continue
		}
		cp := *s
		out = append(out, &cp)
	}
	return out, int64(len(out)), nil
}

func (r *stubShipmentRepo) Delete(ctx context.Context, trackingID string) error {
	if _, ok := r.shipments[trackingID]; !ok {
		return domain.ErrShipmentNotFound
	}
	delete(r.shipments, trackingID)
	return nil
}

func (r *stubShipmentRepo) AssignPartner(ctx context.Context, trackingID, partnerID string, change ports.StatusChange) error {
	s, ok := r.shipments[trackingID]
	if !ok {
		return domain.ErrConflict
	}
	if s.Status != domain.StatusPending || s.AssignedPartner != "" {
		return domain.ErrConflict
	}
	s.AssignedPartner = partnerID
	s.Status = change.Status
	s.CurrentLocation = change.Location
	s.UpdatedAt = change.At
	s.Version++
	return nil
}

func (r *stubShipmentRepo) ApplyStatusChange(ctx context.Context, trackingID string, change ports.StatusChange) error {
	s, ok := r.shipments[trackingID]
	if !ok {
		return domain.ErrConflict
	}
	if change.StampPickedUp {
		if s.PickedUpAt != nil {
			return domain.ErrConflict
		}
		at := change.At
		s.PickedUpAt = &at
		s.PartnerEarnings = change.PartnerEarnings
	}
	s.Status = change.Status
	s.CurrentLocation = change.Location
	s.UpdatedAt = change.At
	s.History = append(s.History, domain.HistoryEntry{
		Status: change.Status, Location: change.Location, Timestamp: change.At, Description: change.Description,
	})
	s.StatusHistory = append(s.StatusHistory, domain.StatusAudit{
		Status: change.Status, Location: change.Location, Timestamp: change.At, Note: change.Description, UpdatedBy: change.UpdatedBy,
	})
	s.Version++
	return nil
}

func (r *stubShipmentRepo) SettleDelivery(ctx context.Context, trackingID string, settlement ports.DeliverySettlement) error {
	s, ok := r.shipments[trackingID]
	if !ok {
		return domain.ErrConflict
	}
	if s.DeliveredAt != nil || s.Status == domain.StatusCancelled {
		return domain.ErrConflict
	}
	at := settlement.At
	s.Status = domain.StatusDelivered
	s.CurrentLocation = settlement.Location
	s.DeliveredAt = &at
	s.PartnerEarnings = settlement.PartnerEarnings
	s.UpdatedAt = at
	if settlement.CompletePayment {
		s.Payment.Status = domain.PaymentCompleted
		s.Payment.PaidAt = &at
	}
	s.Version++
	return nil
}

func (r *stubShipmentRepo) Cancel(ctx context.Context, trackingID string, change ports.CancellationChange) error {
	if r.cancelErr != nil {
		return r.cancelErr
	}
	s, ok := r.shipments[trackingID]
	if !ok {
		return domain.ErrConflict
	}
	if s.Status.Terminal() {
		return domain.ErrConflict
	}
	s.Status = domain.StatusCancelled
	s.CurrentLocation = "cancelled"
	s.PartnerEarnings = change.PartnerEarnings
	s.UpdatedAt = change.At
	if change.PaymentStatus != "" {
		s.Payment.Status = change.PaymentStatus
		if change.PaymentStatus == domain.PaymentRefunded {
			at := change.At
			s.Payment.RefundedAt = &at
		}
	}
	s.Version++
	return nil
}

func (r *stubShipmentRepo) UpdatePayment(ctx context.Context, trackingID string, update ports.PaymentUpdate) error {
	s, ok := r.shipments[trackingID]
	if !ok {
		return domain.ErrConflict
	}
	if s.Payment.Status != update.ExpectStatus {
		return domain.ErrConflict
	}
	s.Payment = update.Payment
	s.StatusHistory = append(s.StatusHistory, update.Audit)
	s.UpdatedAt = update.Audit.Timestamp
	s.Version++
	return nil
}

func (r *stubShipmentRepo) AddComplaint(ctx context.Context, trackingID string, complaint domain.Complaint, audit domain.StatusAudit) error {
	s, ok := r.shipments[trackingID]
	if !ok {
		return domain.ErrShipmentNotFound
	}
	s.Complaints = append(s.Complaints, complaint)
	s.StatusHistory = append(s.StatusHistory, audit)
	return nil
}

// stubPartnerRepo is an in-memory PartnerRepository recording credits.
type stubPartnerRepo struct {
	partners map[string]*domain.Partner
	eligible []*domain.Partner
	credits  []recordedCredit

	creditErr  error
	reserveErr error
}

type recordedCredit struct {
	partnerID string
	credit    ports.EarningsCredit
}

func newStubPartnerRepo(partners ...*domain.Partner) *stubPartnerRepo {
	r := &stubPartnerRepo{partners: make(map[string]*domain.Partner)}
	for _, p := range partners {
		r.partners[p.ID] = p
		if p.Eligible() {
			r.eligible = append(r.eligible, p)
		}
	}
	return r
}

func (r *stubPartnerRepo) Create(ctx context.Context, p *domain.Partner) error {
	if _, ok := r.partners[p.ID]; ok {
		return domain.ErrUserExists
	}
	r.partners[p.ID] = p
	return nil
}

func (r *stubPartnerRepo) FindByID(ctx context.Context, id string) (*domain.Partner, error) {
	p, ok := r.partners[id]
	if !ok {
		return nil, domain.ErrPartnerNotFound
	}
	return p, nil
}

func (r *stubPartnerRepo) FindByEmail(ctx context.Context, email string) (*domain.Partner, error) {
	for _, p := range r.partners {
		if p.Email == email {
			return p, nil
		}
	}
	return nil, domain.ErrPartnerNotFound
}

func (r *stubPartnerRepo) List(ctx context.Context, status domain.PartnerStatus) ([]*domain.Partner, error) {
	var out []*domain.Partner
	for _, p := range r.partners {
		if status != "" && p.Status != status {
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

func (r *stubPartnerRepo) ListEligible(ctx context.Context) ([]*domain.Partner, error) {
	return r.eligible, nil
}

func (r *stubPartnerRepo) CreditEarnings(ctx context.Context, partnerID string, credit ports.EarningsCredit) error {
	if r.creditErr != nil {
		return r.creditErr
	}
	p, ok := r.partners[partnerID]
	if !ok {
		return domain.ErrPartnerNotFound
	}
	p.TotalEarnings += credit.Amount
	p.CompletedDeliveries += credit.Completed
	p.CancelledDeliveries += credit.Cancelled
	p.TotalDeliveries += credit.TotalDelta
	p.ActiveDeliveries += credit.ActiveDelta
	r.credits = append(r.credits, recordedCredit{partnerID: partnerID, credit: credit})
	return nil
}

func (r *stubPartnerRepo) ReserveSlot(ctx context.Context, partnerID string) error {
	if r.reserveErr != nil {
		return r.reserveErr
	}
	p, ok := r.partners[partnerID]
	if !ok {
		return domain.ErrPartnerNotFound
	}
	p.ActiveDeliveries++
	return nil
}

func (r *stubPartnerRepo) SetStatus(ctx context.Context, partnerID string, status domain.PartnerStatus) error {
	p, ok := r.partners[partnerID]
	if !ok {
		return domain.ErrPartnerNotFound
	}
	p.Status = status
	return nil
}

func (r *stubPartnerRepo) SetAvailability(ctx context.Context, partnerID string, online bool) error {
	p, ok := r.partners[partnerID]
	if !ok {
		return domain.ErrPartnerNotFound
	}
	p.IsOnline = online
	return nil
}

// stubDedup marks processed updates in memory. The key derivation
// mirrors the Redis adapter exactly, minute bucket included, so these
// tests exercise the same idempotency window production sees.
type stubDedup struct {
	seen map[string]bool
}

func newStubDedup() *stubDedup {
	return &stubDedup{seen: make(map[string]bool)}
}

func (d *stubDedup) key(trackingID, status string, ts time.Time) string {
	return fmt.Sprintf("dedup:%s:%s:%d", trackingID, status, ts.Truncate(time.Minute).Unix())
}

func (d *stubDedup) IsDuplicate(ctx context.Context, trackingID, status string, ts time.Time) (bool, error) {
	return d.seen[d.key(trackingID, status, ts)], nil
}

func (d *stubDedup) Mark(ctx context.Context, trackingID, status string, ts time.Time) error {
	d.seen[d.key(trackingID, status, ts)] = true
	return nil
}

// stubOutbox collects enqueued notifications.
type stubOutbox struct {
	sent []domain.Notification
}

func (o *stubOutbox) Enqueue(n domain.Notification) {
	o.sent = append(o.sent, n)
}

// stubPublisher records published events.
type stubPublisher struct {
	topics   []string
	payloads []any
	err      error
}

func (p *stubPublisher) Publish(ctx context.Context, topic string, payload any) error {
	if p.err != nil {
		return p.err
	}
	p.topics = append(p.topics, topic)
	p.payloads = append(p.payloads, payload)
	return nil
}

// stubPendingStore is a single-use in-memory PendingOrderStore.
type stubPendingStore struct {
	orders map[string]ports.CreateShipmentInput
}

func newStubPendingStore() *stubPendingStore {
	return &stubPendingStore{orders: make(map[string]ports.CreateShipmentInput)}
}

func (s *stubPendingStore) Put(ctx context.Context, sessionID string, order ports.CreateShipmentInput) error {
	s.orders[sessionID] = order
	return nil
}

func (s *stubPendingStore) Take(ctx context.Context, sessionID string) (*ports.CreateShipmentInput, error) {
	order, ok := s.orders[sessionID]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	delete(s.orders, sessionID)
	return &order, nil
}

// stubAssigner returns a fixed partner or error.
type stubAssigner struct {
	partner *domain.Partner
	err     error
	calls   int
}

func (a *stubAssigner) AutoAssign(ctx context.Context, shipment *domain.Shipment) (*domain.Partner, error) {
	a.calls++
	if a.err != nil {
		return nil, a.err
	}
	return a.partner, nil
}
