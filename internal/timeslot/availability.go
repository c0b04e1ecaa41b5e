package timeslot

import (
	"errors"
	"fmt"
	"strings"
)

// FreeSlot is an unbooked window within business hours.
type FreeSlot struct {
	Start           string `json:"start"`
	End             string `json:"end"`
	DurationMinutes int    `json:"duration_minutes"`
	Duration        string `json:"duration"`
}

func newFreeSlot(start, end string) FreeSlot {
	minutes := DurationMinutes(start, end)
	return FreeSlot{Start: start, End: end, DurationMinutes: minutes, Duration: FormatDuration(minutes)}
}

// FreeSlots returns the gaps in [businessStart, businessEnd] not covered by
// occupied. Occupied intervals are merged and clipped to the window first.
func FreeSlots(occupied []Interval, businessStart, businessEnd string) []FreeSlot {
	slots := make([]FreeSlot, 0)
	if !Before(businessStart, businessEnd) {
		return slots
	}

	clipped := make([]Interval, 0, len(occupied))
	for _, iv := range occupied {
		if !Validate(iv.Start) || !Validate(iv.End) || !Before(iv.Start, iv.End) {
			continue
		}
		if !Before(iv.Start, businessEnd) || !After(iv.End, businessStart) {
			continue
		}
		clipped = append(clipped, Interval{
			Start: Later(iv.Start, businessStart),
			End:   Earlier(iv.End, businessEnd),
		})
	}

	if len(clipped) == 0 {
		return append(slots, newFreeSlot(businessStart, businessEnd))
	}

	cursor := businessStart
	for _, iv := range Merge(clipped) {
		if Before(cursor, iv.Start) {
			slots = append(slots, newFreeSlot(cursor, iv.Start))
		}
		cursor = Later(cursor, iv.End)
	}
	if Before(cursor, businessEnd) {
		slots = append(slots, newFreeSlot(cursor, businessEnd))
	}
	return slots
}

// TotalFreeMinutes sums the durations of slots.
func TotalFreeMinutes(slots []FreeSlot) int {
	total := 0
	for _, slot := range slots {
		total += slot.DurationMinutes
	}
	return total
}

// WeekendPolicy decides how days without business hours are treated.
type WeekendPolicy string

const (
	// WeekendReject refuses availability queries for weekend days.
	WeekendReject WeekendPolicy = "reject"
	// WeekendOpen treats the whole weekend day as free.
	WeekendOpen WeekendPolicy = "open"
	// WeekendWeekday applies the weekday window to weekends.
	WeekendWeekday WeekendPolicy = "weekday"
)

// ErrNoBusinessHours is returned for weekend days under WeekendReject.
var ErrNoBusinessHours = errors.New("no business hours defined for day")

// BusinessHours is the per-weekday opening table.
type BusinessHours struct {
	hours  map[string]Interval
	policy WeekendPolicy
}

// NewBusinessHours opens Monday to Friday from start to end.
func NewBusinessHours(start, end string, policy WeekendPolicy) (*BusinessHours, error) {
	s, ok := Normalize(start)
	if !ok {
		return nil, fmt.Errorf("invalid business hours start %q", start)
	}
	e, ok := Normalize(end)
	if !ok {
		return nil, fmt.Errorf("invalid business hours end %q", end)
	}
	if !Before(s, e) {
		return nil, fmt.Errorf("business hours end %s must be after start %s", e, s)
	}
	switch policy {
	case WeekendReject, WeekendOpen, WeekendWeekday:
	case "":
		policy = WeekendReject
	default:
		return nil, fmt.Errorf("unknown weekend policy %q", policy)
	}

	hours := make(map[string]Interval, 5)
	for _, day := range weekdays[:5] {
		hours[day] = Interval{Start: s, End: e}
	}
	return &BusinessHours{hours: hours, policy: policy}, nil
}

// DefaultBusinessHours is Monday to Friday, 08:00-20:00, rejecting weekends.
func DefaultBusinessHours() *BusinessHours {
	bh, _ := NewBusinessHours("08:00", "20:00", WeekendReject)
	return bh
}

// Policy returns the configured weekend policy.
func (b *BusinessHours) Policy() WeekendPolicy {
	return b.policy
}

// For returns the opening window of day.
func (b *BusinessHours) For(day string) (string, string, error) {
	normalized, ok := NormalizeDay(day)
	if !ok {
		return "", "", fmt.Errorf("invalid day %q", day)
	}
	if iv, ok := b.hours[normalized]; ok {
		return iv.Start, iv.End, nil
	}
	switch b.policy {
	case WeekendOpen:
		return "00:00", "23:59", nil
	case WeekendWeekday:
		iv := b.hours[weekdays[0]]
		return iv.Start, iv.End, nil
	default:
		return "", "", fmt.Errorf("%w: %s", ErrNoBusinessHours, strings.ToLower(normalized))
	}
}
