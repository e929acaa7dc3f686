package slots

import (
	"fmt"
	"strings"
)

// Capacity rules for the community dinners. One "table" is one booking;
// capacity is the same for every slot.
const (
	MaxTablesPerSlot    = 10
	MaxPartySize        = 8
	AlmostFullThreshold = 3
)

// KeySep joins date and period into a slot key. Neither component may
// contain it; ISO dates use "-" so a dash separator would collide.
const KeySep = "|"

// Period groups and their serving windows.
const (
	GroupMidday  = "midday"
	GroupEvening = "evening"
)

var periodGroups = map[string]string{
	"12:00-14:00": GroupMidday,
	"14:00-16:00": GroupMidday,
	"19:30-21:30": GroupEvening,
	"21:30-00:00": GroupEvening,
}

// Periods returns the serving windows in display order.
func Periods() []string {
	return []string{"12:00-14:00", "14:00-16:00", "19:30-21:30", "21:30-00:00"}
}

func ValidPeriod(period string) bool {
	_, ok := periodGroups[period]
	return ok
}

// GroupOf maps a period to its serving group. Unknown periods fall back to
// lexicographic start-time grouping so listings still sort sensibly.
func GroupOf(period string) string {
	if g, ok := periodGroups[period]; ok {
		return g
	}
	if period < "17:00" {
		return GroupMidday
	}
	return GroupEvening
}

// Key builds the canonical slot key for a (date, period) pair.
func Key(date, period string) (string, error) {
	if date == "" || period == "" {
		return "", fmt.Errorf("slot key needs date and period")
	}
	if strings.Contains(date, KeySep) || strings.Contains(period, KeySep) {
		return "", fmt.Errorf("slot key components must not contain %q", KeySep)
	}
	return date + KeySep + period, nil
}

// ParseKey is the inverse of Key.
func ParseKey(key string) (date, period string, err error) {
	date, period, ok := strings.Cut(key, KeySep)
	if !ok || date == "" || period == "" {
		return "", "", fmt.Errorf("malformed slot key %q", key)
	}
	return date, period, nil
}

// Availability returns remaining tables, clamped at zero.
func Availability(occupied int) int {
	if occupied >= MaxTablesPerSlot {
		return 0
	}
	return MaxTablesPerSlot - occupied
}

// OccupancyPercent returns fill level in [0,100] for progress indicators.
func OccupancyPercent(occupied int) float64 {
	if occupied <= 0 {
		return 0
	}
	if occupied >= MaxTablesPerSlot {
		return 100
	}
	return float64(occupied) / float64(MaxTablesPerSlot) * 100
}

// Display thresholds for the availability calendar.
const (
	StatusFull       = "full"
	StatusAlmostFull = "almost-full"
	StatusAvailable  = "available"
)

func Status(available int) string {
	switch {
	case available <= 0:
		return StatusFull
	case available <= AlmostFullThreshold:
		return StatusAlmostFull
	default:
		return StatusAvailable
	}
}
