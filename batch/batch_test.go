package batch

import (
	"fmt"
	"testing"
	"time"

	"avivia/ledger"
	"avivia/models"
	"avivia/slots"
)

const (
	testDate   = "2025-10-06"
	testPeriod = "12:00-14:00"
)

func item(date, period string, n int) models.SelectionItem {
	return models.SelectionItem{
		Date:       date,
		Period:     period,
		HolderName: fmt.Sprintf("Resident %d", n),
		Household:  fmt.Sprintf("Apt %d", n),
		Phone:      "+54 11 5555-0000",
		PartySize:  2,
	}
}

func fillSlot(t *testing.T, l *ledger.Ledger, date, period string, count int) {
	t.Helper()
	for i := 0; i < count; i++ {
		_, err := l.TryBook(date, period, ledger.Candidate{
			HolderName: fmt.Sprintf("Filler %d", i),
			Household:  fmt.Sprintf("Filler Apt %d", i),
			Phone:      "+54 11 5555-0000",
			PartySize:  1,
		})
		if err != nil {
			t.Fatalf("filler booking %d failed: %v", i, err)
		}
	}
}

func newBatch() (*ledger.Ledger, *Batch) {
	l := ledger.New(nil)
	return l, &Batch{ledger: l}
}

func TestAddValidatesFields(t *testing.T) {
	_, b := newBatch()

	it := item(testDate, testPeriod, 1)
	it.Household = ""
	if err := b.Add(it); err != ErrMissingField {
		t.Fatalf("expected ErrMissingField, got %v", err)
	}
	if len(b.Items()) != 0 {
		t.Fatal("invalid item was staged")
	}
}

func TestAddRejectsDuplicateSlot(t *testing.T) {
	_, b := newBatch()

	if err := b.Add(item(testDate, testPeriod, 1)); err != nil {
		t.Fatalf("first add failed: %v", err)
	}
	if err := b.Add(item(testDate, testPeriod, 2)); err != ErrAlreadySelected {
		t.Fatalf("expected ErrAlreadySelected, got %v", err)
	}
	// same household, different slot is allowed
	if err := b.Add(item(testDate, "19:30-21:30", 1)); err != nil {
		t.Fatalf("second slot add failed: %v", err)
	}

	// same household re-staging its own slot hits the slot check first
	if err := b.Add(item(testDate, testPeriod, 1)); err != ErrAlreadySelected {
		t.Fatalf("expected ErrAlreadySelected, got %v", err)
	}
}

func TestAddRejectsFullSlot(t *testing.T) {
	l, b := newBatch()
	fillSlot(t, l, testDate, testPeriod, slots.MaxTablesPerSlot)

	if err := b.Add(item(testDate, testPeriod, 1)); err != ledger.ErrSlotFull {
		t.Fatalf("expected ErrSlotFull, got %v", err)
	}
}

func TestAddRejectsHouseholdAlreadyInLedger(t *testing.T) {
	l, b := newBatch()

	_, err := l.TryBook(testDate, testPeriod, ledger.Candidate{
		HolderName: "Resident 1",
		Household:  "APT 1",
		Phone:      "+54 11 5555-0000",
		PartySize:  2,
	})
	if err != nil {
		t.Fatalf("seed booking failed: %v", err)
	}

	// case-insensitive match against the ledger
	if err := b.Add(item(testDate, testPeriod, 1)); err != ledger.ErrDuplicateHousehold {
		t.Fatalf("expected ErrDuplicateHousehold, got %v", err)
	}
}

func TestRemoveAndClear(t *testing.T) {
	_, b := newBatch()

	b.Add(item(testDate, testPeriod, 1))
	b.Add(item(testDate, "14:00-16:00", 2))

	if err := b.Remove(5); err != ErrBadIndex {
		t.Fatalf("expected ErrBadIndex, got %v", err)
	}
	if err := b.Remove(0); err != nil {
		t.Fatalf("remove failed: %v", err)
	}
	items := b.Items()
	if len(items) != 1 || items[0].Period != "14:00-16:00" {
		t.Fatalf("unexpected items after remove: %+v", items)
	}

	b.Clear()
	if len(b.Items()) != 0 {
		t.Fatal("clear left items behind")
	}
}

func TestTotals(t *testing.T) {
	_, b := newBatch()

	first := item(testDate, testPeriod, 1)
	first.PartySize = 4
	second := item(testDate, "14:00-16:00", 2)
	second.PartySize = 3
	b.Add(first)
	b.Add(second)

	count, people := b.Totals()
	if count != 2 || people != 7 {
		t.Fatalf("unexpected totals: %d items, %d people", count, people)
	}
}

func TestCommitPartialFailure(t *testing.T) {
	l, b := newBatch()

	if err := b.Add(item(testDate, "12:00-14:00", 1)); err != nil {
		t.Fatalf("stage 1 failed: %v", err)
	}
	if err := b.Add(item(testDate, "14:00-16:00", 2)); err != nil {
		t.Fatalf("stage 2 failed: %v", err)
	}
	if err := b.Add(item(testDate, "19:30-21:30", 3)); err != nil {
		t.Fatalf("stage 3 failed: %v", err)
	}

	// Another session fills item 2's slot between staging and commit.
	fillSlot(t, l, testDate, "14:00-16:00", slots.MaxTablesPerSlot)

	committed, rejected := b.Commit()
	if len(committed) != 2 {
		t.Fatalf("expected 2 committed, got %d", len(committed))
	}
	if len(rejected) != 1 {
		t.Fatalf("expected 1 rejected, got %d", len(rejected))
	}
	if rejected[0].Reason != ReasonSlotFull {
		t.Fatalf("expected %s, got %s", ReasonSlotFull, rejected[0].Reason)
	}
	if rejected[0].Item.Period != "14:00-16:00" {
		t.Fatalf("wrong item rejected: %+v", rejected[0].Item)
	}

	// Ledger holds exactly the two successes (plus the fillers in their slot).
	key1, _ := slots.Key(testDate, "12:00-14:00")
	key3, _ := slots.Key(testDate, "19:30-21:30")
	if l.Occupancy(key1) != 1 || l.Occupancy(key3) != 1 {
		t.Fatal("committed bookings missing from ledger")
	}

	if len(b.Items()) != 0 {
		t.Fatal("batch not cleared after commit")
	}
}

func TestCommitRejectsConcurrentHousehold(t *testing.T) {
	l, b := newBatch()

	if err := b.Add(item(testDate, testPeriod, 1)); err != nil {
		t.Fatalf("stage failed: %v", err)
	}

	// The household books the same slot from another session before commit.
	_, err := l.TryBook(testDate, testPeriod, ledger.Candidate{
		HolderName: "Resident 1",
		Household:  "apt 1",
		Phone:      "+54 11 5555-0000",
		PartySize:  2,
	})
	if err != nil {
		t.Fatalf("external booking failed: %v", err)
	}

	committed, rejected := b.Commit()
	if len(committed) != 0 || len(rejected) != 1 {
		t.Fatalf("expected 0 committed / 1 rejected, got %d / %d", len(committed), len(rejected))
	}
	if rejected[0].Reason != ReasonHouseholdDuplicate {
		t.Fatalf("expected %s, got %s", ReasonHouseholdDuplicate, rejected[0].Reason)
	}

	key, _ := slots.Key(testDate, testPeriod)
	if l.Occupancy(key) != 1 {
		t.Fatal("rejected commit mutated the ledger")
	}
}

func TestManagerSessionsAndSweep(t *testing.T) {
	l := ledger.New(nil)
	m := NewManager(l)

	a := m.Get("session-a")
	if m.Get("session-a") != a {
		t.Fatal("expected the same batch for a session")
	}
	if m.Get("session-b") == a {
		t.Fatal("expected distinct batches per session")
	}

	a.Add(item(testDate, testPeriod, 1))
	a.mu.Lock()
	a.lastUsed = time.Now().Add(-2 * time.Hour)
	a.mu.Unlock()

	m.Sweep(time.Hour)
	if m.Get("session-a") == a {
		t.Fatal("stale session should have been swept")
	}
}
