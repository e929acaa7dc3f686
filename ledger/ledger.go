package ledger

import (
	"context"
	"errors"
	"log"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"avivia/metrics"
	"avivia/models"
	"avivia/slots"
)

// Validation failures. Recovered locally, never persisted.
var (
	ErrNameTooShort = errors.New("holder name must be at least 3 characters")
	ErrBadPhone     = errors.New("phone number is invalid")
	ErrPartySize    = errors.New("party size out of range")
	ErrBadSlot      = errors.New("invalid date or period")
)

// Business-rule rejections.
var (
	ErrSlotFull           = errors.New("no tables left for this slot")
	ErrDuplicateHousehold = errors.New("household already booked this slot")
	ErrNotFound           = errors.New("booking not found")
)

var phonePattern = regexp.MustCompile(`^[0-9+()\-\s]{7,20}$`)

// Candidate is the input to TryBook; everything except the minted fields.
type Candidate struct {
	HolderName string `json:"holderName"`
	Household  string `json:"household"`
	Phone      string `json:"phone"`
	PartySize  int    `json:"partySize"`
}

// Persister pushes full snapshots to the shared remote store. The local
// ledger stays authoritative between successful pushes; errors are logged,
// never surfaced as booking failures.
type Persister interface {
	SaveLedger(ctx context.Context, snapshot map[string][]models.Booking) error
}

// Ledger owns the slot -> bookings mapping. All reads and writes go through
// its API; nothing else holds a reference to the map.
type Ledger struct {
	mu      sync.RWMutex
	slots   map[string][]models.Booking
	lastID  int64
	persist Persister

	subMu sync.Mutex
	subs  []func()

	pendMu  sync.Mutex
	pending map[string][]models.Booking
	kick    chan struct{}

	now func() time.Time
}

func New(p Persister) *Ledger {
	l := &Ledger{
		slots:   make(map[string][]models.Booking),
		persist: p,
		now:     time.Now,
	}
	if p != nil {
		l.kick = make(chan struct{}, 1)
		go l.persistLoop()
	}
	return l
}

// ValidateCandidate applies input-shape rules shared by booking and staging.
func ValidateCandidate(c Candidate) error {
	if len(strings.TrimSpace(c.HolderName)) < 3 {
		return ErrNameTooShort
	}
	if !phonePattern.MatchString(strings.TrimSpace(c.Phone)) {
		return ErrBadPhone
	}
	if c.PartySize < 1 || c.PartySize > slots.MaxPartySize {
		return ErrPartySize
	}
	return nil
}

// TryBook validates the candidate, enforces capacity and per-household
// uniqueness for the slot, and on success appends a freshly minted booking
// and pushes the new snapshot to the remote store.
func (l *Ledger) TryBook(date, period string, c Candidate) (models.Booking, error) {
	if !slots.ValidPeriod(period) {
		return models.Booking{}, ErrBadSlot
	}
	key, err := slots.Key(date, period)
	if err != nil {
		return models.Booking{}, ErrBadSlot
	}
	if err := ValidateCandidate(c); err != nil {
		return models.Booking{}, err
	}

	l.mu.Lock()
	existing := l.slots[key]
	if len(existing) >= slots.MaxTablesPerSlot {
		l.mu.Unlock()
		return models.Booking{}, ErrSlotFull
	}
	for _, b := range existing {
		if strings.EqualFold(b.Household, c.Household) {
			l.mu.Unlock()
			return models.Booking{}, ErrDuplicateHousehold
		}
	}

	id := l.mintID()
	booking := models.Booking{
		ID:         id,
		Date:       date,
		Period:     period,
		HolderName: strings.TrimSpace(c.HolderName),
		Household:  strings.TrimSpace(c.Household),
		Phone:      strings.TrimSpace(c.Phone),
		PartySize:  c.PartySize,
		Code:       ConfirmationCode(id),
		CreatedAt:  l.now().Unix(),
	}
	l.slots[key] = append(existing, booking)
	snap := l.snapshotLocked()
	l.mu.Unlock()

	l.persistAsync(snap)
	l.notify()
	return booking, nil
}

// Cancel removes a booking. An emptied slot key is dropped so the ledger
// stays sparse.
func (l *Ledger) Cancel(id int64, key string) error {
	l.mu.Lock()
	bookings, ok := l.slots[key]
	if !ok {
		l.mu.Unlock()
		return ErrNotFound
	}
	idx := -1
	for i, b := range bookings {
		if b.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		l.mu.Unlock()
		return ErrNotFound
	}
	bookings = append(bookings[:idx], bookings[idx+1:]...)
	if len(bookings) == 0 {
		delete(l.slots, key)
	} else {
		l.slots[key] = bookings
	}
	snap := l.snapshotLocked()
	l.mu.Unlock()

	l.persistAsync(snap)
	l.notify()
	return nil
}

// Get returns a single booking by slot key and id.
func (l *Ledger) Get(key string, id int64) (models.Booking, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	for _, b := range l.slots[key] {
		if b.ID == id {
			return b, nil
		}
	}
	return models.Booking{}, ErrNotFound
}

// ListAll flattens the ledger, sorted by date then period start time.
func (l *Ledger) ListAll() []models.Booking {
	l.mu.RLock()
	out := make([]models.Booking, 0, 16)
	for _, bookings := range l.slots {
		out = append(out, bookings...)
	}
	l.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[i].Date < out[j].Date
		}
		return out[i].Period < out[j].Period
	})
	return out
}

// Find matches bookings by phone, confirmation code, or holder name.
func (l *Ledger) Find(query string) []models.Booking {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return nil
	}
	var out []models.Booking
	for _, b := range l.ListAll() {
		if strings.Contains(b.Phone, q) ||
			strings.Contains(strings.ToLower(b.Code), q) ||
			strings.Contains(strings.ToLower(b.HolderName), q) {
			out = append(out, b)
		}
	}
	return out
}

// Filter narrows the flattened listing for the admin view. Empty arguments
// match everything.
func (l *Ledger) Filter(date, period, search string) []models.Booking {
	q := strings.ToLower(strings.TrimSpace(search))
	var out []models.Booking
	for _, b := range l.ListAll() {
		if date != "" && b.Date != date {
			continue
		}
		if period != "" && b.Period != period {
			continue
		}
		if q != "" &&
			!strings.Contains(strings.ToLower(b.HolderName), q) &&
			!strings.Contains(strings.ToLower(b.Household), q) &&
			!strings.Contains(b.Phone, q) {
			continue
		}
		out = append(out, b)
	}
	return out
}

// Stats scans every slot and aggregates totals per serving group.
func (l *Ledger) Stats() models.Stats {
	l.mu.RLock()
	defer l.mu.RUnlock()

	var s models.Stats
	for key, bookings := range l.slots {
		s.TotalBookings += len(bookings)
		_, period, err := slots.ParseKey(key)
		for _, b := range bookings {
			s.TotalPeople += b.PartySize
			if err != nil {
				continue
			}
			switch slots.GroupOf(period) {
			case slots.GroupMidday:
				s.Midday++
			case slots.GroupEvening:
				s.Evening++
			}
		}
	}
	return s
}

// Occupancy is the live booking count for a slot key.
func (l *Ledger) Occupancy(key string) int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.slots[key])
}

func (l *Ledger) Availability(key string) int {
	return slots.Availability(l.Occupancy(key))
}

func (l *Ledger) OccupancyPercent(key string) float64 {
	return slots.OccupancyPercent(l.Occupancy(key))
}

// HasHousehold reports whether the household already holds a booking for the
// slot. Case-insensitive, matching the booking rule.
func (l *Ledger) HasHousehold(key, household string) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	for _, b := range l.slots[key] {
		if strings.EqualFold(b.Household, household) {
			return true
		}
	}
	return false
}

// SlotInfos builds the availability grid over every known slot key.
func (l *Ledger) SlotInfos() []models.SlotInfo {
	l.mu.RLock()
	out := make([]models.SlotInfo, 0, len(l.slots))
	for key, bookings := range l.slots {
		date, period, err := slots.ParseKey(key)
		if err != nil {
			continue
		}
		avail := slots.Availability(len(bookings))
		out = append(out, models.SlotInfo{
			Date:      date,
			Period:    period,
			Occupied:  len(bookings),
			Available: avail,
			Percent:   slots.OccupancyPercent(len(bookings)),
			Status:    slots.Status(avail),
		})
	}
	l.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[i].Date < out[j].Date
		}
		return out[i].Period < out[j].Period
	})
	return out
}

// Snapshot deep-copies the slot map for persistence or inspection.
func (l *Ledger) Snapshot() map[string][]models.Booking {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.snapshotLocked()
}

func (l *Ledger) snapshotLocked() map[string][]models.Booking {
	snap := make(map[string][]models.Booking, len(l.slots))
	for key, bookings := range l.slots {
		cp := make([]models.Booking, len(bookings))
		copy(cp, bookings)
		snap[key] = cp
	}
	return snap
}

// Replace installs a remote snapshot, typically on a push notification from
// the shared store. It never persists back (that would echo the pull), but it
// does advance the id floor so future ids stay unique across sessions.
func (l *Ledger) Replace(snapshot map[string][]models.Booking) {
	l.mu.Lock()
	l.slots = make(map[string][]models.Booking, len(snapshot))
	for key, bookings := range snapshot {
		cp := make([]models.Booking, len(bookings))
		copy(cp, bookings)
		l.slots[key] = cp
		for _, b := range cp {
			if b.ID > l.lastID {
				l.lastID = b.ID
			}
		}
	}
	l.mu.Unlock()
	l.notify()
}

// Subscribe registers a callback fired after every ledger change. The core
// stays rendering-agnostic; the websocket layer is the usual subscriber.
func (l *Ledger) Subscribe(fn func()) {
	l.subMu.Lock()
	l.subs = append(l.subs, fn)
	l.subMu.Unlock()
}

func (l *Ledger) notify() {
	l.subMu.Lock()
	subs := make([]func(), len(l.subs))
	copy(subs, l.subs)
	l.subMu.Unlock()
	for _, fn := range subs {
		fn()
	}
}

// persistAsync hands the snapshot to the persist worker. A newer snapshot
// replaces a still-pending one, so saves reach the store in order and never
// resurrect stale state.
func (l *Ledger) persistAsync(snap map[string][]models.Booking) {
	if l.persist == nil {
		return
	}
	l.pendMu.Lock()
	l.pending = snap
	l.pendMu.Unlock()
	select {
	case l.kick <- struct{}{}:
	default:
	}
}

func (l *Ledger) persistLoop() {
	for range l.kick {
		l.pendMu.Lock()
		snap := l.pending
		l.pending = nil
		l.pendMu.Unlock()
		if snap == nil {
			continue
		}
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		err := l.persist.SaveLedger(ctx, snap)
		cancel()
		if err != nil {
			metrics.SyncErrors.Inc()
			log.Println("ledger persist error:", err)
		}
	}
}

// mintID returns a millisecond timestamp bumped past the last minted id, so
// two bookings in the same millisecond still get distinct ids. Caller holds
// the write lock.
func (l *Ledger) mintID() int64 {
	id := l.now().UnixMilli()
	if id <= l.lastID {
		id = l.lastID + 1
	}
	l.lastID = id
	return id
}

// ConfirmationCode derives the short shareable code from a booking id.
func ConfirmationCode(id int64) string {
	s := strconv.FormatInt(id, 10)
	if len(s) > 6 {
		s = s[len(s)-6:]
	}
	return "AV" + s
}
