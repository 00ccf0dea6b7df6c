package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/parceltrack/delivery-platform/internal/core/domain"
	"github.com/parceltrack/delivery-platform/internal/core/ports"
)

// PendingOrderStore keeps payment-session order payloads in Redis with a
// short TTL, so the verify call can land on any instance. Take uses
// GETDEL, which gives the single-use guarantee without a transaction.
type PendingOrderStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewPendingOrderStore(client *redis.Client, ttl time.Duration) *PendingOrderStore {
	return &PendingOrderStore{client: client, ttl: ttl}
}

func (s *PendingOrderStore) Put(ctx context.Context, sessionID string, order ports.CreateShipmentInput) error {
	raw, err := json.Marshal(order)
	if err != nil {
		return fmt.Errorf("pending order encode: %w", err)
	}
	return s.client.Set(ctx, s.key(sessionID), raw, s.ttl).Err()
}

func (s *PendingOrderStore) Take(ctx context.Context, sessionID string) (*ports.CreateShipmentInput, error) {
	raw, err := s.client.GetDel(ctx, s.key(sessionID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, domain.ErrSessionNotFound
		}
		return nil, fmt.Errorf("pending order fetch: %w", err)
	}

	var order ports.CreateShipmentInput
	if err := json.Unmarshal([]byte(raw), &order); err != nil {
		return nil, fmt.Errorf("pending order decode: %w", err)
	}
	return &order, nil
}

func (s *PendingOrderStore) key(sessionID string) string {
	return "pending_order:" + sessionID
}
