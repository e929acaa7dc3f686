package waitlist

import (
	"fmt"
	"testing"

	"avivia/models"
	"avivia/slots"
)

const (
	testDate   = "2025-10-06"
	testPeriod = "12:00-14:00"
)

func entry(n int) models.WaitlistEntry {
	return models.WaitlistEntry{
		Date:       testDate,
		Period:     testPeriod,
		HolderName: fmt.Sprintf("Resident %d", n),
		Household:  fmt.Sprintf("Apt %d", n),
		Phone:      "+54 11 5555-0000",
		PartySize:  2,
	}
}

func TestAddReturnsPosition(t *testing.T) {
	wl := New(nil)

	pos, err := wl.Add(entry(1))
	if err != nil {
		t.Fatalf("add failed: %v", err)
	}
	if pos != 1 {
		t.Fatalf("expected position 1, got %d", pos)
	}

	pos, err = wl.Add(entry(2))
	if err != nil {
		t.Fatalf("add failed: %v", err)
	}
	if pos != 2 {
		t.Fatalf("expected position 2, got %d", pos)
	}
}

func TestAddRejectsDuplicateHousehold(t *testing.T) {
	wl := New(nil)

	if _, err := wl.Add(entry(1)); err != nil {
		t.Fatalf("add failed: %v", err)
	}

	dup := entry(1)
	dup.Household = "APT 1"
	if _, err := wl.Add(dup); err != ErrAlreadyWaitlisted {
		t.Fatalf("expected ErrAlreadyWaitlisted, got %v", err)
	}

	key, _ := slots.Key(testDate, testPeriod)
	if got := len(wl.ListFor(key)); got != 1 {
		t.Fatalf("expected 1 entry, got %d", got)
	}

	// Same household on a different slot's waitlist is fine.
	other := entry(1)
	other.Period = "19:30-21:30"
	if _, err := wl.Add(other); err != nil {
		t.Fatalf("other slot add failed: %v", err)
	}
}

func TestAddValidates(t *testing.T) {
	wl := New(nil)

	e := entry(1)
	e.Phone = ""
	if _, err := wl.Add(e); err != ErrMissingField {
		t.Fatalf("expected ErrMissingField, got %v", err)
	}

	e = entry(1)
	e.Period = "03:00-04:00"
	if _, err := wl.Add(e); err != ErrBadSlot {
		t.Fatalf("expected ErrBadSlot, got %v", err)
	}
}

func TestReplaceAndListFor(t *testing.T) {
	wl := New(nil)
	key, _ := slots.Key(testDate, testPeriod)

	wl.Replace(map[string][]models.WaitlistEntry{
		key: {entry(1), entry(2)},
	})

	got := wl.ListFor(key)
	if len(got) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(got))
	}
	if got[0].Household != "Apt 1" || got[1].Household != "Apt 2" {
		t.Fatalf("registration order lost: %+v", got)
	}

	// next signup queues behind the replaced entries
	pos, err := wl.Add(entry(3))
	if err != nil {
		t.Fatalf("add failed: %v", err)
	}
	if pos != 3 {
		t.Fatalf("expected position 3, got %d", pos)
	}
}
