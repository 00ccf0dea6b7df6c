package service

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"

	"github.com/parceltrack/delivery-platform/internal/core/domain"
)

func newPaymentService(store *stubPendingStore) (*PaymentSessionService, *stubShipmentRepo) {
	repo := newStubShipmentRepo()
	shipments := NewShipmentService(repo, &stubAssigner{err: domain.ErrNoPartnerEligible}, &stubOutbox{}, zerolog.Nop())
	return NewPaymentSessionService(store, shipments, zerolog.Nop()), repo
}

func TestPaymentSession_CreateAndVerify(t *testing.T) {
	store := newStubPendingStore()
	svc, repo := newPaymentService(store)

	sessionID, amount, err := svc.CreateSession(context.Background(), createInput())
	if err != nil {
		t.Fatalf("CreateSession: %v", err)
	}
	if sessionID == "" {
		t.Fatal("empty session id")
	}
	if amount != 95 {
		t.Errorf("amount = %v, want 95", amount)
	}
	if len(repo.shipments) != 0 {
		t.Error("shipment created before verification")
	}

	shipment, err := svc.VerifyAndCreate(context.Background(), sessionID, "alice@example.com")
	if err != nil {
		t.Fatalf("VerifyAndCreate: %v", err)
	}
	if shipment.Payment.Status != domain.PaymentCompleted {
		t.Errorf("payment status = %s, want completed", shipment.Payment.Status)
	}
	if shipment.Payment.PaidAt == nil {
		t.Error("PaidAt not set")
	}
	if _, ok := repo.shipments[shipment.TrackingID]; !ok {
		t.Error("shipment not persisted on verify")
	}
}

func TestPaymentSession_SingleUse(t *testing.T) {
	store := newStubPendingStore()
	svc, _ := newPaymentService(store)

	sessionID, _, err := svc.CreateSession(context.Background(), createInput())
	if err != nil {
		t.Fatalf("CreateSession: %v", err)
	}
	if _, err := svc.VerifyAndCreate(context.Background(), sessionID, "alice@example.com"); err != nil {
		t.Fatalf("first verify: %v", err)
	}

	_, err = svc.VerifyAndCreate(context.Background(), sessionID, "alice@example.com")
	if !errors.Is(err, domain.ErrSessionNotFound) {
		t.Errorf("second verify err = %v, want ErrSessionNotFound", err)
	}
}

func TestPaymentSession_ActorMismatch(t *testing.T) {
	store := newStubPendingStore()
	svc, repo := newPaymentService(store)

	sessionID, _, err := svc.CreateSession(context.Background(), createInput())
	if err != nil {
		t.Fatalf("CreateSession: %v", err)
	}

	_, err = svc.VerifyAndCreate(context.Background(), sessionID, "mallory@example.com")
	if !errors.Is(err, domain.ErrForbidden) {
		t.Errorf("err = %v, want ErrForbidden", err)
	}
	if len(repo.shipments) != 0 {
		t.Error("shipment created for mismatched actor")
	}
}

func TestPaymentSession_UnknownSession(t *testing.T) {
	svc, _ := newPaymentService(newStubPendingStore())

	_, err := svc.VerifyAndCreate(context.Background(), "no-such-session", "alice@example.com")
	if !errors.Is(err, domain.ErrSessionNotFound) {
		t.Errorf("err = %v, want ErrSessionNotFound", err)
	}
}
