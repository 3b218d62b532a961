package carousel_test

import (
	"errors"
	"testing"

	"wrapped/internal/carousel"
)

func newController(t *testing.T, count int) *carousel.Controller {
	t.Helper()
	c, err := carousel.New(count)
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	return c
}

func TestNewRejectsEmpty(t *testing.T) {
	if _, err := carousel.New(0); err == nil {
		t.Fatal("expected error for zero panels")
	}
}

func TestNextAtLastIsIdempotent(t *testing.T) {
	c := newController(t, 3)
	for i := 0; i < 10; i++ {
		c.Next()
	}
	if c.Index() != 2 {
		t.Fatalf("expected index 2, got %d", c.Index())
	}
}

func TestPreviousAtFirstIsIdempotent(t *testing.T) {
	c := newController(t, 3)
	for i := 0; i < 10; i++ {
		c.Previous()
	}
	if c.Index() != 0 {
		t.Fatalf("expected index 0, got %d", c.Index())
	}
}

func TestGoToClamps(t *testing.T) {
	tests := []struct {
		target int
		want   int
	}{
		{-5, 0},
		{0, 0},
		{2, 2},
		{4, 4},
		{99, 4},
	}
	for _, tt := range tests {
		c := newController(t, 5)
		c.GoTo(tt.target)
		if c.Index() != tt.want {
			t.Fatalf("GoTo(%d) -> %d, want %d", tt.target, c.Index(), tt.want)
		}
	}
}

func TestSubscribeNotifiesOnlyOnChange(t *testing.T) {
	c := newController(t, 2)
	var seen []int
	cancel := c.Subscribe(func(s carousel.State) { seen = append(seen, s.Index) })

	c.Previous() // no-op at 0
	c.Next()
	c.Next() // no-op at last
	c.GoTo(0)
	cancel()
	c.Next()

	if len(seen) != 2 || seen[0] != 1 || seen[1] != 0 {
		t.Fatalf("unexpected notifications %v", seen)
	}
}

func TestLeaseBlocksUserNavigationAndRestoresIndex(t *testing.T) {
	c := newController(t, 5)
	c.GoTo(3)

	var locked []bool
	c.Subscribe(func(s carousel.State) { locked = append(locked, s.Locked) })

	lease, err := c.AcquireLease()
	if err != nil {
		t.Fatalf("AcquireLease returned error: %v", err)
	}
	if !c.Locked() {
		t.Fatal("expected carousel locked while leased")
	}
	if _, err := c.AcquireLease(); !errors.Is(err, carousel.ErrLeaseHeld) {
		t.Fatalf("expected ErrLeaseHeld, got %v", err)
	}

	c.Next()
	c.GoTo(0)
	if c.Index() != 3 {
		t.Fatalf("expected user navigation ignored, index %d", c.Index())
	}

	for i := 0; i < 5; i++ {
		lease.GoTo(i)
		if c.Index() != i {
			t.Fatalf("lease GoTo(%d) -> %d", i, c.Index())
		}
	}

	lease.Release()
	lease.Release()
	if c.Index() != 3 || c.Locked() {
		t.Fatalf("expected index restored to 3 and unlocked, got %+v", c.State())
	}
	if len(locked) == 0 || !locked[0] || locked[len(locked)-1] {
		t.Fatalf("expected lock then unlock notifications, got %v", locked)
	}

	lease.GoTo(1)
	if c.Index() != 3 {
		t.Fatal("expected released lease to be inert")
	}
	c.Next()
	if c.Index() != 4 {
		t.Fatalf("expected user navigation after release, got %d", c.Index())
	}
}

func TestLeaseRestoreKeepsCarouselLocked(t *testing.T) {
	c := newController(t, 4)
	c.GoTo(1)
	lease, err := c.AcquireLease()
	if err != nil {
		t.Fatalf("AcquireLease: %v", err)
	}
	lease.GoTo(3)
	lease.Restore()
	if c.Index() != 1 || !c.Locked() {
		t.Fatalf("expected index 1 and locked after restore, got %+v", c.State())
	}
	c.Next()
	if c.Index() != 1 {
		t.Fatalf("user navigation should stay ignored, got %d", c.Index())
	}
	lease.Release()
	if c.Locked() {
		t.Fatal("expected unlocked after release")
	}
}
