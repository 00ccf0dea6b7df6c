package mongo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/parceltrack/delivery-platform/internal/core/domain"
	"github.com/parceltrack/delivery-platform/internal/core/ports"
)

const collectionShipments = "shipments"

type ShipmentRepository struct {
	col *mongo.Collection
}

func NewShipmentRepository(db *mongo.Database) *ShipmentRepository {
	return &ShipmentRepository{col: db.Collection(collectionShipments)}
}

// Create inserts a new shipment document. A collision on the unique
// tracking_id index maps to domain.ErrConflict so the caller can retry
// with a fresh id.
func (r *ShipmentRepository) Create(ctx context.Context, s *domain.Shipment) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if s.ID == "" {
		s.ID = primitive.NewObjectID().Hex()
	}
	_, err := r.col.InsertOne(ctx, s)
	if mongo.IsDuplicateKeyError(err) {
		return domain.ErrConflict
	}
	return err
}

// FindByTrackingID retrieves a shipment by tracking id. When senderEmail
// is non-empty, an additional owner filter is applied so a customer can
// never read someone else's shipment.
func (r *ShipmentRepository) FindByTrackingID(ctx context.Context, trackingID, senderEmail string) (*domain.Shipment, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	filter := bson.M{"tracking_id": trackingID}
	if senderEmail != "" {
		filter["sender.email"] = senderEmail
	}

	var s domain.Shipment
	err := r.col.FindOne(ctx, filter).Decode(&s)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrShipmentNotFound
		}
		return nil, err
	}
	return &s, nil
}

// List returns a page of shipments matching filter plus the total count.
func (r *ShipmentRepository) List(ctx context.Context, filter ports.ListShipmentsFilter) ([]*domain.Shipment, int64, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	query := bson.M{}
	if filter.SenderEmail != "" {
		query["sender.email"] = filter.SenderEmail
	}
	if filter.PartnerID != "" {
		query["assigned_partner"] = filter.PartnerID
	}
	if filter.Status != "" {
		query["status"] = filter.Status
	}
	if filter.Search != "" {
		re := primitive.Regex{Pattern: filter.Search, Options: "i"}
		query["$or"] = bson.A{
			bson.M{"tracking_id": re},
			bson.M{"receiver.name": re},
		}
	}
	created := bson.M{}
	if !filter.DateFrom.IsZero() {
		created["$gte"] = filter.DateFrom
	}
	if !filter.DateTo.IsZero() {
		created["$lte"] = filter.DateTo
	}
	if len(created) > 0 {
		query["created_at"] = created
	}

	total, err := r.col.CountDocuments(ctx, query)
	if err != nil {
		return nil, 0, err
	}

	skip := int64((filter.Page - 1) * filter.Limit)
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetSkip(skip).
		SetLimit(int64(filter.Limit))

	cur, err := r.col.Find(ctx, query, opts)
	if err != nil {
		return nil, 0, err
	}
	defer cur.Close(ctx)

	var items []*domain.Shipment
	if err := cur.All(ctx, &items); err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// Delete hard-deletes a shipment document.
func (r *ShipmentRepository) Delete(ctx context.Context, trackingID string) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.DeleteOne(ctx, bson.M{"tracking_id": trackingID})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return domain.ErrShipmentNotFound
	}
	return nil
}

// AssignPartner sets the partner reference, guarded on the shipment
// still being unassigned and pending.
func (r *ShipmentRepository) AssignPartner(ctx context.Context, trackingID, partnerID string, change ports.StatusChange) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	filter := bson.M{
		"tracking_id": trackingID,
		"status":      domain.StatusPending,
		"assigned_partner": bson.M{
			"$in": bson.A{nil, ""},
		},
	}
	update := bson.M{
		"$set": bson.M{
			"assigned_partner": partnerID,
			"status":           change.Status,
			"current_location": change.Location,
			"updated_at":       change.At,
		},
		"$push": historyPush(change),
		"$inc":  bson.M{"version": 1},
	}

	res, err := r.col.UpdateOne(ctx, filter, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return domain.ErrConflict
	}
	return nil
}

// ApplyStatusChange updates status and location and appends one entry to
// each audit trail in a single write. The pickup stamp is guarded so
// picked_up_at is set at most once.
func (r *ShipmentRepository) ApplyStatusChange(ctx context.Context, trackingID string, change ports.StatusChange) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	filter := bson.M{"tracking_id": trackingID}
	set := bson.M{
		"status":           change.Status,
		"current_location": change.Location,
		"updated_at":       change.At,
	}
	if change.StampPickedUp {
		filter["picked_up_at"] = nil
		set["picked_up_at"] = change.At
		set["partner_earnings"] = change.PartnerEarnings
	}
	update := bson.M{
		"$set":  set,
		"$push": historyPush(change),
		"$inc":  bson.M{"version": 1},
	}

	res, err := r.col.UpdateOne(ctx, filter, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return domain.ErrConflict
	}
	return nil
}

// SettleDelivery performs the exactly-once delivered transition. The
// delivered_at-is-unset guard is part of the filter, so a concurrent
// retry matches nothing instead of crediting twice.
func (r *ShipmentRepository) SettleDelivery(ctx context.Context, trackingID string, s ports.DeliverySettlement) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	filter := bson.M{
		"tracking_id":  trackingID,
		"delivered_at": nil,
		"status":       bson.M{"$ne": domain.StatusCancelled},
	}
	set := bson.M{
		"status":           domain.StatusDelivered,
		"current_location": s.Location,
		"delivered_at":     s.At,
		"partner_earnings": s.PartnerEarnings,
		"updated_at":       s.At,
	}
	if s.CompletePayment {
		set["payment.status"] = domain.PaymentCompleted
		set["payment.paid_at"] = s.At
	}
	update := bson.M{
		"$set": set,
		"$push": bson.M{
			"history": domain.HistoryEntry{
				Status: domain.StatusDelivered, Location: s.Location, Timestamp: s.At, Description: "delivered",
			},
			"status_history": domain.StatusAudit{
				Status: domain.StatusDelivered, Location: s.Location, Timestamp: s.At, UpdatedBy: s.UpdatedBy,
			},
		},
		"$inc": bson.M{"version": 1},
	}

	res, err := r.col.UpdateOne(ctx, filter, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		// Already settled or cancelled by a concurrent writer.
		return domain.ErrConflict
	}
	return nil
}

// Cancel performs the guarded cancelled transition.
func (r *ShipmentRepository) Cancel(ctx context.Context, trackingID string, c ports.CancellationChange) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	filter := bson.M{
		"tracking_id": trackingID,
		"status": bson.M{
			"$nin": bson.A{domain.StatusDelivered, domain.StatusCancelled},
		},
	}
	set := bson.M{
		"status":           domain.StatusCancelled,
		"current_location": "cancelled",
		"partner_earnings": c.PartnerEarnings,
		"updated_at":       c.At,
	}
	if c.PaymentStatus != "" {
		set["payment.status"] = c.PaymentStatus
		if c.PaymentStatus == domain.PaymentRefunded {
			set["payment.refunded_at"] = c.At
		}
	}
	update := bson.M{
		"$set": set,
		"$push": bson.M{
			"history": domain.HistoryEntry{
				Status: domain.StatusCancelled, Location: "cancelled", Timestamp: c.At, Description: c.Reason,
			},
			"status_history": domain.StatusAudit{
				Status: domain.StatusCancelled, Location: "cancelled", Timestamp: c.At, Note: c.Reason, UpdatedBy: c.UpdatedBy,
			},
		},
		"$inc": bson.M{"version": 1},
	}

	res, err := r.col.UpdateOne(ctx, filter, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return domain.ErrConflict
	}
	return nil
}

// UpdatePayment swaps the payment sub-document iff its status still
// matches the expectation; this is the refund workflow's idempotency
// guard at the storage level.
func (r *ShipmentRepository) UpdatePayment(ctx context.Context, trackingID string, u ports.PaymentUpdate) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	filter := bson.M{
		"tracking_id":    trackingID,
		"payment.status": u.ExpectStatus,
	}
	update := bson.M{
		"$set": bson.M{
			"payment":    u.Payment,
			"updated_at": u.Audit.Timestamp,
		},
		"$push": bson.M{"status_history": u.Audit},
		"$inc":  bson.M{"version": 1},
	}

	res, err := r.col.UpdateOne(ctx, filter, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return domain.ErrConflict
	}
	return nil
}

// AddComplaint appends a complaint and its audit entry.
func (r *ShipmentRepository) AddComplaint(ctx context.Context, trackingID string, complaint domain.Complaint, audit domain.StatusAudit) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	update := bson.M{
		"$push": bson.M{
			"complaints":     complaint,
			"status_history": audit,
		},
		"$set": bson.M{"updated_at": audit.Timestamp},
	}

	res, err := r.col.UpdateOne(ctx, bson.M{"tracking_id": trackingID}, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return domain.ErrShipmentNotFound
	}
	return nil
}

// historyPush builds the dual audit-trail append for a status change.
func historyPush(change ports.StatusChange) bson.M {
	return bson.M{
		"history": domain.HistoryEntry{
			Status:      change.Status,
			Location:    change.Location,
			Timestamp:   change.At,
			Description: change.Description,
		},
		"status_history": domain.StatusAudit{
			Status:    change.Status,
			Location:  change.Location,
			Timestamp: change.At,
			Note:      change.Description,
			UpdatedBy: change.UpdatedBy,
		},
	}
}

// EnsureIndexes creates necessary indexes on the shipments collection.
func (r *ShipmentRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "tracking_id", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "sender.email", Value: 1}}},
		{Keys: bson.D{{Key: "assigned_partner", Value: 1}}},
		{Keys: bson.D{{Key: "status", Value: 1}, {Key: "created_at", Value: -1}}},
	}

	_, err := r.col.Indexes().CreateMany(ctx, indexes)
	return err
}
