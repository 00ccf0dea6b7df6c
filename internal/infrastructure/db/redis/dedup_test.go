package redis

import (
	"testing"
	"time"
)

func TestDedupKey_RetryLandsOnSameKey(t *testing.T) {
	d := &DedupChecker{}
	first := time.Date(2026, 3, 14, 9, 26, 5, 0, time.UTC)
	retry := first.Add(1100 * time.Millisecond)

	k1 := d.key("PT-00000001", "in_transit", first)
	k2 := d.key("PT-00000001", "in_transit", retry)
	if k1 != k2 {
		t.Errorf("retry within the window got a fresh key: %s vs %s", k1, k2)
	}
}

func TestDedupKey_DistinctPerUpdate(t *testing.T) {
	d := &DedupChecker{}
	ts := time.Date(2026, 3, 14, 9, 26, 5, 0, time.UTC)

	base := d.key("PT-00000001", "in_transit", ts)
	if got := d.key("PT-00000002", "in_transit", ts); got == base {
		t.Errorf("different shipments share key %s", got)
	}
	if got := d.key("PT-00000001", "out_for_delivery", ts); got == base {
		t.Errorf("different statuses share key %s", got)
	}
	if got := d.key("PT-00000001", "in_transit", ts.Add(time.Minute)); got == base {
		t.Errorf("later window shares key %s", got)
	}
}
