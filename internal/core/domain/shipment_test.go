package domain

import "testing"

func TestParseStatus(t *testing.T) {
	valid := []string{"pending", "assigned", "picked_up", "in_transit", "out_for_delivery", "delivered", "cancelled"}
	for _, raw := range valid {
		if _, err := ParseStatus(raw); err != nil {
			t.Fatalf("ParseStatus(%q) unexpected error: %v", raw, err)
		}
	}

	invalid := []string{"", "Pending", "IN_TRANSIT", "shipped", "out for delivery"}
	for _, raw := range invalid {
		if _, err := ParseStatus(raw); err == nil {
			t.Fatalf("ParseStatus(%q) expected error", raw)
		}
	}
}

func TestCanAdvanceTo(t *testing.T) {
	tests := []struct {
		from, to ShipmentStatus
		want     bool
	}{
		{StatusPending, StatusAssigned, true},
		{StatusAssigned, StatusPickedUp, true},
		{StatusPickedUp, StatusOutForDelivery, true}, // skipping a stage forward is fine
		{StatusInTransit, StatusInTransit, true},     // equal rank: location-only update
		{StatusOutForDelivery, StatusDelivered, true},
		{StatusInTransit, StatusPickedUp, false}, // regression
		{StatusDelivered, StatusDelivered, false},
		{StatusDelivered, StatusPending, false},
		{StatusCancelled, StatusPending, false},
		{StatusPending, StatusCancelled, false}, // cancellation never goes through the update path
	}

	for _, tt := range tests {
		if got := tt.from.CanAdvanceTo(tt.to); got != tt.want {
			t.Fatalf("CanAdvanceTo(%s -> %s) = %v, want %v", tt.from, tt.to, got, tt.want)
		}
	}
}

func TestTerminal(t *testing.T) {
	if !StatusDelivered.Terminal() || !StatusCancelled.Terminal() {
		t.Fatalf("delivered and cancelled must be terminal")
	}
	for _, s := range []ShipmentStatus{StatusPending, StatusAssigned, StatusPickedUp, StatusInTransit, StatusOutForDelivery} {
		if s.Terminal() {
			t.Fatalf("%s must not be terminal", s)
		}
	}
}

func TestOwnership(t *testing.T) {
	s := &Shipment{
		Sender:   Party{Email: "sender@example.com"},
		Receiver: Party{Email: "receiver@example.com"},
	}

	if !s.OwnedBy("sender@example.com") {
		t.Fatalf("sender must own the shipment")
	}
	if s.OwnedBy("receiver@example.com") || s.OwnedBy("") {
		t.Fatalf("only the sender owns the shipment")
	}
	if !s.InvolvedParty("receiver@example.com") || !s.InvolvedParty("sender@example.com") {
		t.Fatalf("sender and receiver are both involved parties")
	}
	if s.InvolvedParty("stranger@example.com") {
		t.Fatalf("stranger must not be an involved party")
	}
}
