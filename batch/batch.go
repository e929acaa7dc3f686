package batch

import (
	"errors"
	"sync"
	"time"

	"avivia/ledger"
	"avivia/metrics"
	"avivia/models"
	"avivia/slots"
)

var (
	ErrMissingField    = errors.New("all fields are required")
	ErrAlreadySelected = errors.New("this slot is already in the selection")
	ErrBadIndex        = errors.New("no such selection item")
)

// Rejection reasons reported by Commit.
const (
	ReasonSlotFull           = "slot-full"
	ReasonHouseholdDuplicate = "household-duplicate"
	ReasonInvalid            = "invalid"
)

// RejectedItem pairs a staged item with why its commit failed.
type RejectedItem struct {
	Item   models.SelectionItem `json:"item"`
	Reason string               `json:"reason"`
}

// Batch is one session's staging area for candidate bookings. Items are
// never written to the ledger until Commit.
type Batch struct {
	mu       sync.Mutex
	items    []models.SelectionItem
	ledger   *ledger.Ledger
	lastUsed time.Time
}

// Add stages a candidate after checking it against both the live ledger and
// the items already staged.
func (b *Batch) Add(item models.SelectionItem) error {
	if item.Date == "" || item.Period == "" || item.HolderName == "" ||
		item.Household == "" || item.Phone == "" || item.PartySize < 1 {
		return ErrMissingField
	}
	if !slots.ValidPeriod(item.Period) {
		return ledger.ErrBadSlot
	}
	key, err := slots.Key(item.Date, item.Period)
	if err != nil {
		return ledger.ErrBadSlot
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.lastUsed = time.Now()

	// One item per slot, so this also covers a staged household duplicate.
	for _, staged := range b.items {
		if staged.Date == item.Date && staged.Period == item.Period {
			return ErrAlreadySelected
		}
	}
	if b.ledger.Availability(key) <= 0 {
		return ledger.ErrSlotFull
	}
	if b.ledger.HasHousehold(key, item.Household) {
		return ledger.ErrDuplicateHousehold
	}

	b.items = append(b.items, item)
	return nil
}

func (b *Batch) Remove(index int) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.lastUsed = time.Now()
	if index < 0 || index >= len(b.items) {
		return ErrBadIndex
	}
	b.items = append(b.items[:index], b.items[index+1:]...)
	return nil
}

func (b *Batch) Clear() {
	b.mu.Lock()
	b.items = nil
	b.lastUsed = time.Now()
	b.mu.Unlock()
}

func (b *Batch) Items() []models.SelectionItem {
	b.mu.Lock()
	defer b.mu.Unlock()
	cp := make([]models.SelectionItem, len(b.items))
	copy(cp, b.items)
	return cp
}

// Totals sums the selection for the summary panel.
func (b *Batch) Totals() (count, people int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, item := range b.items {
		people += item.PartySize
	}
	return len(b.items), people
}

// Commit books every staged item in staging order, re-validating against the
// current ledger rather than the state seen at staging time. A rejection does
// not abort the rest of the batch; the batch is cleared either way.
func (b *Batch) Commit() (committed []models.Booking, rejected []RejectedItem) {
	b.mu.Lock()
	items := b.items
	b.items = nil
	b.lastUsed = time.Now()
	b.mu.Unlock()

	for _, item := range items {
		booking, err := b.ledger.TryBook(item.Date, item.Period, ledger.Candidate{
			HolderName: item.HolderName,
			Household:  item.Household,
			Phone:      item.Phone,
			PartySize:  item.PartySize,
		})
		if err != nil {
			rejected = append(rejected, RejectedItem{Item: item, Reason: reasonOf(err)})
			continue
		}
		committed = append(committed, booking)
	}
	metrics.BatchCommits.Inc()
	return committed, rejected
}

func reasonOf(err error) string {
	switch {
	case errors.Is(err, ledger.ErrSlotFull):
		return ReasonSlotFull
	case errors.Is(err, ledger.ErrDuplicateHousehold):
		return ReasonHouseholdDuplicate
	default:
		return ReasonInvalid
	}
}

// Manager hands out per-session batches and sweeps abandoned ones.
type Manager struct {
	mu       sync.Mutex
	sessions map[string]*Batch
	ledger   *ledger.Ledger
}

func NewManager(l *ledger.Ledger) *Manager {
	return &Manager{
		sessions: make(map[string]*Batch),
		ledger:   l,
	}
}

// Get returns the batch for a session, creating it on first use.
func (m *Manager) Get(sessionID string) *Batch {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.sessions[sessionID]
	if !ok {
		b = &Batch{ledger: m.ledger, lastUsed: time.Now()}
		m.sessions[sessionID] = b
	}
	return b
}

// Sweep drops sessions idle longer than maxIdle. Run it on a ticker.
func (m *Manager) Sweep(maxIdle time.Duration) {
	cutoff := time.Now().Add(-maxIdle)
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, b := range m.sessions {
		b.mu.Lock()
		stale := b.lastUsed.Before(cutoff)
		b.mu.Unlock()
		if stale {
			delete(m.sessions, id)
		}
	}
}
