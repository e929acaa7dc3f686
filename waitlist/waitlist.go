package waitlist

import (
	"context"
	"errors"
	"log"
	"strings"
	"sync"
	"time"

	"avivia/metrics"
	"avivia/models"
	"avivia/slots"
)

var (
	ErrAlreadyWaitlisted = errors.New("household already on the waitlist for this slot")
	ErrMissingField      = errors.New("missing required field")
	ErrBadSlot           = errors.New("invalid date or period")
)

// Persister pushes waitlist snapshots to the shared remote store.
type Persister interface {
	SaveWaitlist(ctx context.Context, snapshot map[string][]models.WaitlistEntry) error
}

// Waitlist queues households for slots that were full at signup time.
// Entries are never promoted automatically when a table frees up; an admin
// calls the household instead.
type Waitlist struct {
	mu      sync.RWMutex
	entries map[string][]models.WaitlistEntry
	persist Persister

	pendMu  sync.Mutex
	pending map[string][]models.WaitlistEntry
	kick    chan struct{}

	now func() time.Time
}

func New(p Persister) *Waitlist {
	wl := &Waitlist{
		entries: make(map[string][]models.WaitlistEntry),
		persist: p,
		now:     time.Now,
	}
	if p != nil {
		wl.kick = make(chan struct{}, 1)
		go wl.persistLoop()
	}
	return wl
}

// Add queues an entry and returns its 1-based position. One entry per
// household per slot, case-insensitive.
func (wl *Waitlist) Add(entry models.WaitlistEntry) (int, error) {
	if entry.HolderName == "" || entry.Household == "" || entry.Phone == "" || entry.PartySize < 1 {
		return 0, ErrMissingField
	}
	if !slots.ValidPeriod(entry.Period) {
		return 0, ErrBadSlot
	}
	key, err := slots.Key(entry.Date, entry.Period)
	if err != nil {
		return 0, ErrBadSlot
	}

	wl.mu.Lock()
	for _, e := range wl.entries[key] {
		if strings.EqualFold(e.Household, entry.Household) {
			wl.mu.Unlock()
			return 0, ErrAlreadyWaitlisted
		}
	}
	entry.RegisteredAt = wl.now().Unix()
	wl.entries[key] = append(wl.entries[key], entry)
	position := len(wl.entries[key])
	snap := wl.snapshotLocked()
	wl.mu.Unlock()

	metrics.WaitlistAdds.Inc()
	wl.persistAsync(snap)
	return position, nil
}

// ListFor returns the queue for one slot key, in registration order.
func (wl *Waitlist) ListFor(key string) []models.WaitlistEntry {
	wl.mu.RLock()
	defer wl.mu.RUnlock()
	entries := wl.entries[key]
	cp := make([]models.WaitlistEntry, len(entries))
	copy(cp, entries)
	return cp
}

// Snapshot deep-copies the whole waitlist.
func (wl *Waitlist) Snapshot() map[string][]models.WaitlistEntry {
	wl.mu.RLock()
	defer wl.mu.RUnlock()
	return wl.snapshotLocked()
}

func (wl *Waitlist) snapshotLocked() map[string][]models.WaitlistEntry {
	snap := make(map[string][]models.WaitlistEntry, len(wl.entries))
	for key, entries := range wl.entries {
		cp := make([]models.WaitlistEntry, len(entries))
		copy(cp, entries)
		snap[key] = cp
	}
	return snap
}

// Replace installs a remote snapshot on a push notification.
func (wl *Waitlist) Replace(snapshot map[string][]models.WaitlistEntry) {
	wl.mu.Lock()
	wl.entries = make(map[string][]models.WaitlistEntry, len(snapshot))
	for key, entries := range snapshot {
		cp := make([]models.WaitlistEntry, len(entries))
		copy(cp, entries)
		wl.entries[key] = cp
	}
	wl.mu.Unlock()
}

// persistAsync hands the snapshot to the persist worker; a newer snapshot
// replaces a still-pending one so saves stay in order.
func (wl *Waitlist) persistAsync(snap map[string][]models.WaitlistEntry) {
	if wl.persist == nil {
		return
	}
	wl.pendMu.Lock()
	wl.pending = snap
	wl.pendMu.Unlock()
	select {
	case wl.kick <- struct{}{}:
	default:
	}
}

func (wl *Waitlist) persistLoop() {
	for range wl.kick {
		wl.pendMu.Lock()
		snap := wl.pending
		wl.pending = nil
		wl.pendMu.Unlock()
		if snap == nil {
			continue
		}
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		err := wl.persist.SaveWaitlist(ctx, snap)
		cancel()
		if err != nil {
			metrics.SyncErrors.Inc()
			log.Println("waitlist persist error:", err)
		}
	}
}
