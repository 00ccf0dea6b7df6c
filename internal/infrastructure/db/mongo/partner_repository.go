package mongo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/parceltrack/delivery-platform/internal/core/domain"
	"github.com/parceltrack/delivery-platform/internal/core/ports"
)

const collectionPartners = "partners"

type PartnerRepository struct {
	col *mongo.Collection
}

func NewPartnerRepository(db *mongo.Database) *PartnerRepository {
	return &PartnerRepository{col: db.Collection(collectionPartners)}
}

func (r *PartnerRepository) Create(ctx context.Context, p *domain.Partner) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	_, err := r.col.InsertOne(ctx, p)
	if mongo.IsDuplicateKeyError(err) {
		return domain.ErrUserExists
	}
	return err
}

func (r *PartnerRepository) FindByID(ctx context.Context, id string) (*domain.Partner, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var p domain.Partner
	err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&p)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrPartnerNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (r *PartnerRepository) FindByEmail(ctx context.Context, email string) (*domain.Partner, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var p domain.Partner
	err := r.col.FindOne(ctx, bson.M{"email": email}).Decode(&p)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrPartnerNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (r *PartnerRepository) List(ctx context.Context, status domain.PartnerStatus) ([]*domain.Partner, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	filter := bson.M{}
	if status != "" {
		filter["status"] = status
	}

	cur, err := r.col.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var partners []*domain.Partner
	if err := cur.All(ctx, &partners); err != nil {
		return nil, err
	}
	return partners, nil
}

// ListEligible returns approved, active, online partners ordered by
// current load ascending with id as a deterministic tie-break.
func (r *PartnerRepository) ListEligible(ctx context.Context) ([]*domain.Partner, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	filter := bson.M{
		"status":    domain.PartnerApproved,
		"is_active": true,
		"is_online": true,
	}
	opts := options.Find().SetSort(bson.D{
		{Key: "active_deliveries", Value: 1},
		{Key: "_id", Value: 1},
	})

	cur, err := r.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var partners []*domain.Partner
	if err := cur.All(ctx, &partners); err != nil {
		return nil, err
	}
	return partners, nil
}

// CreditEarnings applies earnings and counter deltas as a single $inc so
// concurrent settlements never lose an update.
func (r *PartnerRepository) CreditEarnings(ctx context.Context, partnerID string, credit ports.EarningsCredit) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	update := bson.M{
		"$inc": bson.M{
			"total_earnings":       credit.Amount,
			"completed_deliveries": credit.Completed,
			"cancelled_deliveries": credit.Cancelled,
			"total_deliveries":     credit.TotalDelta,
			"active_deliveries":    credit.ActiveDelta,
		},
		"$set": bson.M{"updated_at": time.Now().UTC()},
	}

	res, err := r.col.UpdateOne(ctx, bson.M{"_id": partnerID}, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return domain.ErrPartnerNotFound
	}
	return nil
}

func (r *PartnerRepository) ReserveSlot(ctx context.Context, partnerID string) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	update := bson.M{
		"$inc": bson.M{"active_deliveries": 1},
		"$set": bson.M{"updated_at": time.Now().UTC()},
	}

	res, err := r.col.UpdateOne(ctx, bson.M{"_id": partnerID}, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return domain.ErrPartnerNotFound
	}
	return nil
}

func (r *PartnerRepository) SetStatus(ctx context.Context, partnerID string, status domain.PartnerStatus) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	update := bson.M{"$set": bson.M{
		"status":     status,
		"updated_at": time.Now().UTC(),
	}}

	res, err := r.col.UpdateOne(ctx, bson.M{"_id": partnerID}, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return domain.ErrPartnerNotFound
	}
	return nil
}

func (r *PartnerRepository) SetAvailability(ctx context.Context, partnerID string, online bool) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	update := bson.M{"$set": bson.M{
		"is_online":  online,
		"updated_at": time.Now().UTC(),
	}}

	res, err := r.col.UpdateOne(ctx, bson.M{"_id": partnerID}, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return domain.ErrPartnerNotFound
	}
	return nil
}

// EnsureIndexes creates necessary indexes on the partners collection.
func (r *PartnerRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{
			{Key: "status", Value: 1},
			{Key: "is_active", Value: 1},
			{Key: "is_online", Value: 1},
			{Key: "active_deliveries", Value: 1},
		}},
	}

	_, err := r.col.Indexes().CreateMany(ctx, indexes)
	return err
}
