package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/parceltrack/delivery-platform/internal/core/domain"
	"github.com/parceltrack/delivery-platform/internal/core/ports"
)

func testShipment(status domain.ShipmentStatus) *domain.Shipment {
	now := time.Now().UTC().Add(-time.Hour)
	return &domain.Shipment{
		TrackingID:      "PT-00000001",
		Sender:          domain.Party{Name: "Alice", Email: "alice@example.com", Phone: "+4400001"},
		Receiver:        domain.Party{Name: "Bob", Email: "bob@example.com", Phone: "+4400002"},
		Origin:          "London",
		Destination:     "Leeds",
		Package:         domain.PackageDetails{Type: domain.PackageStandard, WeightKg: 2, Dimensions: domain.Dimensions{LengthCm: 10, WidthCm: 10, HeightCm: 10}},
		Status:          status,
		CurrentLocation: "London",
		Revenue:         95,
		Payment:         domain.Payment{Method: domain.PaymentUPI, Status: domain.PaymentCompleted},
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

func testPartner(id string) *domain.Partner {
	return &domain.Partner{
		ID:               id,
		Name:             "Rider One",
		Email:            "rider@example.com",
		Status:           domain.PartnerApproved,
		IsActive:         true,
		IsOnline:         true,
		ActiveDeliveries: 1,
	}
}

func newTransitionService(repo *stubShipmentRepo, partners *stubPartnerRepo, outbox *stubOutbox) *TransitionService {
	return NewTransitionService(repo, partners, newStubDedup(), outbox, zerolog.Nop())
}

func TestApplyStatusUpdate_Advance(t *testing.T) {
	shipment := testShipment(domain.StatusAssigned)
	shipment.AssignedPartner = "partner_1"
	repo := newStubShipmentRepo(shipment)
	outbox := &stubOutbox{}
	svc := newTransitionService(repo, newStubPartnerRepo(testPartner("partner_1")), outbox)

	got, err := svc.ApplyStatusUpdate(context.Background(), ports.StatusUpdateInput{
		TrackingID: shipment.TrackingID,
		Status:     "in_transit",
		Location:   "Birmingham",
		UpdatedBy:  "rider@example.com",
	})
	if err != nil {
		t.Fatalf("ApplyStatusUpdate: %v", err)
	}
	if got.Status != domain.StatusInTransit {
		t.Errorf("status = %s, want in_transit", got.Status)
	}
	if got.CurrentLocation != "Birmingham" {
		t.Errorf("location = %s, want Birmingham", got.CurrentLocation)
	}
	if len(got.History) != 1 || len(got.StatusHistory) != 1 {
		t.Errorf("history lengths = %d/%d, want 1/1", len(got.History), len(got.StatusHistory))
	}
	if len(outbox.sent) != 2 {
		t.Errorf("notifications = %d, want 2 emails", len(outbox.sent))
	}
}

func TestApplyStatusUpdate_PickupStampsEarnings(t *testing.T) {
	shipment := testShipment(domain.StatusAssigned)
	shipment.AssignedPartner = "partner_1"
	repo := newStubShipmentRepo(shipment)
	svc := newTransitionService(repo, newStubPartnerRepo(testPartner("partner_1")), &stubOutbox{})

	got, err := svc.ApplyStatusUpdate(context.Background(), ports.StatusUpdateInput{
		TrackingID: shipment.TrackingID,
		Status:     "picked_up",
		UpdatedBy:  "rider@example.com",
	})
	if err != nil {
		t.Fatalf("ApplyStatusUpdate: %v", err)
	}
	if got.PickedUpAt == nil {
		t.Fatal("PickedUpAt not stamped")
	}
	if got.PartnerEarnings != 67 {
		t.Errorf("PartnerEarnings = %v, want 67", got.PartnerEarnings)
	}

	stored := repo.shipments[shipment.TrackingID]
	if stored.PickedUpAt == nil || stored.PartnerEarnings != 67 {
		t.Errorf("stored pickup stamp missing: at=%v earnings=%v", stored.PickedUpAt, stored.PartnerEarnings)
	}
}

func TestApplyStatusUpdate_LocationOnly(t *testing.T) {
	shipment := testShipment(domain.StatusInTransit)
	repo := newStubShipmentRepo(shipment)
	outbox := &stubOutbox{}
	svc := newTransitionService(repo, newStubPartnerRepo(), outbox)

	got, err := svc.ApplyStatusUpdate(context.Background(), ports.StatusUpdateInput{
		TrackingID: shipment.TrackingID,
		Location:   "Sheffield",
		UpdatedBy:  "rider@example.com",
	})
	if err != nil {
		t.Fatalf("ApplyStatusUpdate: %v", err)
	}
	if got.Status != domain.StatusInTransit {
		t.Errorf("status changed on location-only update: %s", got.Status)
	}
	if got.CurrentLocation != "Sheffield" {
		t.Errorf("location = %s, want Sheffield", got.CurrentLocation)
	}
	if len(outbox.sent) != 2 {
		t.Errorf("notifications = %d, want 2", len(outbox.sent))
	}
}

func TestApplyStatusUpdate_RejectsRegression(t *testing.T) {
	shipment := testShipment(domain.StatusInTransit)
	svc := newTransitionService(newStubShipmentRepo(shipment), newStubPartnerRepo(), &stubOutbox{})

	_, err := svc.ApplyStatusUpdate(context.Background(), ports.StatusUpdateInput{
		TrackingID: shipment.TrackingID,
		Status:     "picked_up",
	})
	if !errors.Is(err, domain.ErrInvalidTransition) {
		t.Errorf("err = %v, want ErrInvalidTransition", err)
	}
}

func TestApplyStatusUpdate_RejectsUnknownStatus(t *testing.T) {
	shipment := testShipment(domain.StatusPending)
	svc := newTransitionService(newStubShipmentRepo(shipment), newStubPartnerRepo(), &stubOutbox{})

	_, err := svc.ApplyStatusUpdate(context.Background(), ports.StatusUpdateInput{
		TrackingID: shipment.TrackingID,
		Status:     "teleported",
	})
	if !errors.Is(err, domain.ErrInvalidStatus) {
		t.Errorf("err = %v, want ErrInvalidStatus", err)
	}
}

func TestApplyStatusUpdate_RejectsCancelViaUpdate(t *testing.T) {
	shipment := testShipment(domain.StatusPending)
	svc := newTransitionService(newStubShipmentRepo(shipment), newStubPartnerRepo(), &stubOutbox{})

	_, err := svc.ApplyStatusUpdate(context.Background(), ports.StatusUpdateInput{
		TrackingID: shipment.TrackingID,
		Status:     "cancelled",
	})
	if !errors.Is(err, domain.ErrInvalidTransition) {
		t.Errorf("err = %v, want ErrInvalidTransition", err)
	}
}

func TestApplyStatusUpdate_RejectsAfterTerminal(t *testing.T) {
	shipment := testShipment(domain.StatusDelivered)
	svc := newTransitionService(newStubShipmentRepo(shipment), newStubPartnerRepo(), &stubOutbox{})

	_, err := svc.ApplyStatusUpdate(context.Background(), ports.StatusUpdateInput{
		TrackingID: shipment.TrackingID,
		Status:     "in_transit",
	})
	if !errors.Is(err, domain.ErrInvalidTransition) {
		t.Errorf("err = %v, want ErrInvalidTransition", err)
	}
}

func TestApplyStatusUpdate_NotFound(t *testing.T) {
	svc := newTransitionService(newStubShipmentRepo(), newStubPartnerRepo(), &stubOutbox{})

	_, err := svc.ApplyStatusUpdate(context.Background(), ports.StatusUpdateInput{
		TrackingID: "PT-MISSING",
		Status:     "in_transit",
	})
	if !errors.Is(err, domain.ErrShipmentNotFound) {
		t.Errorf("err = %v, want ErrShipmentNotFound", err)
	}
}

func TestApplyStatusUpdate_RetryAbsorbed(t *testing.T) {
	shipment := testShipment(domain.StatusAssigned)
	repo := newStubShipmentRepo(shipment)
	outbox := &stubOutbox{}
	svc := newTransitionService(repo, newStubPartnerRepo(), outbox)

	update := ports.StatusUpdateInput{
		TrackingID: shipment.TrackingID,
		Status:     "in_transit",
		Location:   "Birmingham",
		UpdatedBy:  "rider@example.com",
	}
	if _, err := svc.ApplyStatusUpdate(context.Background(), update); err != nil {
		t.Fatalf("first ApplyStatusUpdate: %v", err)
	}
	if _, err := svc.ApplyStatusUpdate(context.Background(), update); err != nil {
		t.Fatalf("retried ApplyStatusUpdate: %v", err)
	}

	stored := repo.shipments[shipment.TrackingID]
	if len(stored.History) != 1 || len(stored.StatusHistory) != 1 {
		t.Errorf("history entries after retry = %d/%d, want 1/1", len(stored.History), len(stored.StatusHistory))
	}
	if stored.Version != 1 {
		t.Errorf("version = %d, want 1 write", stored.Version)
	}
	if len(outbox.sent) != 2 {
		t.Errorf("notifications after retry = %d, want the first update's 2 emails", len(outbox.sent))
	}
}

func TestSettleDelivery_CreditsPartnerOnce(t *testing.T) {
	shipment := testShipment(domain.StatusOutForDelivery)
	shipment.AssignedPartner = "partner_1"
	pickedUp := time.Now().UTC().Add(-30 * time.Minute)
	shipment.PickedUpAt = &pickedUp
	shipment.PartnerEarnings = 67
	repo := newStubShipmentRepo(shipment)
	partners := newStubPartnerRepo(testPartner("partner_1"))
	outbox := &stubOutbox{}
	svc := newTransitionService(repo, partners, outbox)

	got, err := svc.ApplyStatusUpdate(context.Background(), ports.StatusUpdateInput{
		TrackingID: shipment.TrackingID,
		Status:     "delivered",
		Location:   "Leeds",
		UpdatedBy:  "rider@example.com",
	})
	if err != nil {
		t.Fatalf("ApplyStatusUpdate: %v", err)
	}
	if got.DeliveredAt == nil {
		t.Fatal("DeliveredAt not set")
	}
	if got.PartnerEarnings != 67 {
		t.Errorf("PartnerEarnings = %v, want 67", got.PartnerEarnings)
	}

	if len(partners.credits) != 1 {
		t.Fatalf("credits = %d, want exactly 1", len(partners.credits))
	}
	credit := partners.credits[0]
	if credit.partnerID != "partner_1" {
		t.Errorf("credited partner = %s", credit.partnerID)
	}
	want := ports.EarningsCredit{Amount: 67, Completed: 1, TotalDelta: 1, ActiveDelta: -1}
	if credit.credit != want {
		t.Errorf("credit = %+v, want %+v", credit.credit, want)
	}
	if partners.partners["partner_1"].ActiveDeliveries != 0 {
		t.Errorf("active deliveries = %d, want 0", partners.partners["partner_1"].ActiveDeliveries)
	}

	// receiver gets an SMS on delivery
	sms := 0
	for _, n := range outbox.sent {
		if n.Kind == domain.NotifySMS {
			sms++
		}
	}
	if sms != 1 {
		t.Errorf("sms notifications = %d, want 1", sms)
	}
}

func TestSettleDelivery_ConcurrentRetryConflicts(t *testing.T) {
	shipment := testShipment(domain.StatusOutForDelivery)
	shipment.AssignedPartner = "partner_1"
	delivered := time.Now().UTC()
	shipment.DeliveredAt = &delivered // settled by a concurrent request
	repo := newStubShipmentRepo(shipment)
	partners := newStubPartnerRepo(testPartner("partner_1"))
	svc := newTransitionService(repo, partners, &stubOutbox{})

	_, err := svc.ApplyStatusUpdate(context.Background(), ports.StatusUpdateInput{
		TrackingID: shipment.TrackingID,
		Status:     "delivered",
	})
	if !errors.Is(err, domain.ErrConflict) {
		t.Errorf("err = %v, want ErrConflict", err)
	}
	if len(partners.credits) != 0 {
		t.Errorf("partner credited %d times on conflicting settlement", len(partners.credits))
	}
}

func TestSettleDelivery_CODCompletesPayment(t *testing.T) {
	shipment := testShipment(domain.StatusOutForDelivery)
	shipment.Payment = domain.Payment{Method: domain.PaymentCOD, Status: domain.PaymentPending, Amount: 95}
	repo := newStubShipmentRepo(shipment)
	svc := newTransitionService(repo, newStubPartnerRepo(), &stubOutbox{})

	got, err := svc.ApplyStatusUpdate(context.Background(), ports.StatusUpdateInput{
		TrackingID: shipment.TrackingID,
		Status:     "delivered",
	})
	if err != nil {
		t.Fatalf("ApplyStatusUpdate: %v", err)
	}
	if got.Payment.Status != domain.PaymentCompleted {
		t.Errorf("payment status = %s, want completed", got.Payment.Status)
	}
	if got.Payment.PaidAt == nil {
		t.Error("PaidAt not set on COD settlement")
	}
	// unassigned shipment settles with zero earnings
	if got.PartnerEarnings != 0 {
		t.Errorf("PartnerEarnings = %v, want 0", got.PartnerEarnings)
	}
}

func TestSettleDelivery_CreditFailureSurfaces(t *testing.T) {
	shipment := testShipment(domain.StatusOutForDelivery)
	shipment.AssignedPartner = "partner_1"
	partners := newStubPartnerRepo(testPartner("partner_1"))
	partners.creditErr = errors.New("partners collection unavailable")
	svc := newTransitionService(newStubShipmentRepo(shipment), partners, &stubOutbox{})

	_, err := svc.ApplyStatusUpdate(context.Background(), ports.StatusUpdateInput{
		TrackingID: shipment.TrackingID,
		Status:     "delivered",
	})
	if err == nil {
		t.Fatal("expected error when partner credit fails")
	}
}
