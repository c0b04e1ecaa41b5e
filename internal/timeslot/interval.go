package timeslot

import (
	"fmt"
	"sort"
)

// Interval is a canonical [Start, End] pair within one day.
type Interval struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// Minutes returns the interval duration.
func (i Interval) Minutes() int {
	return DurationMinutes(i.Start, i.End)
}

// Overlaps reports whether [s1,e1] and [s2,e2] overlap. Touching intervals do
// not overlap, identical ones always do, zero-length ones never do. Any
// invalid time yields true so bad data can never approve a double booking.
func Overlaps(s1, e1, s2, e2 string) bool {
	a1, ok1 := parse(s1)
	b1, ok2 := parse(e1)
	a2, ok3 := parse(s2)
	b2, ok4 := parse(e2)
	if !ok1 || !ok2 || !ok3 || !ok4 {
		return true
	}
	if a1 == b1 || a2 == b2 {
		return false
	}
	if a1 == a2 && b1 == b2 {
		return true
	}
	return a1 < b2 && b1 > a2
}

// DurationMinutes returns the minutes from start to end, wrapping past
// midnight when end precedes start. Invalid input yields 0.
func DurationMinutes(start, end string) int {
	s, ok := parse(start)
	if !ok {
		return 0
	}
	e, ok := parse(end)
	if !ok {
		return 0
	}
	diff := e - s
	if diff < 0 {
		diff += minutesPerDay
	}
	return diff
}

// FormatDuration renders minutes as "1h 30m", "2h", "45m" or "0m".
func FormatDuration(minutes int) string {
	if minutes <= 0 {
		return "0m"
	}
	hours, mins := minutes/60, minutes%60
	switch {
	case hours > 0 && mins > 0:
		return fmt.Sprintf("%dh %dm", hours, mins)
	case hours > 0:
		return fmt.Sprintf("%dh", hours)
	default:
		return fmt.Sprintf("%dm", mins)
	}
}

// Compare returns -1, 0 or 1. Invalid input compares equal.
func Compare(t1, t2 string) int {
	a, ok := parse(t1)
	if !ok {
		return 0
	}
	b, ok := parse(t2)
	if !ok {
		return 0
	}
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// Before reports whether t1 is strictly earlier than t2.
func Before(t1, t2 string) bool { return Compare(t1, t2) == -1 }

// After reports whether t1 is strictly later than t2.
func After(t1, t2 string) bool { return Compare(t1, t2) == 1 }

// Later returns the later of two times.
func Later(t1, t2 string) string {
	if After(t2, t1) {
		return t2
	}
	return t1
}

// Earlier returns the earlier of two times.
func Earlier(t1, t2 string) string {
	if Before(t2, t1) {
		return t2
	}
	return t1
}

// Merge folds touching or overlapping intervals together, sorted by start.
func Merge(intervals []Interval) []Interval {
	if len(intervals) == 0 {
		return nil
	}
	sorted := make([]Interval, len(intervals))
	copy(sorted, intervals)
	sort.SliceStable(sorted, func(i, j int) bool {
		return Before(sorted[i].Start, sorted[j].Start)
	})

	merged := []Interval{sorted[0]}
	for _, next := range sorted[1:] {
		cur := &merged[len(merged)-1]
		if Compare(next.Start, cur.End) <= 0 {
			cur.End = Later(cur.End, next.End)
			continue
		}
		merged = append(merged, next)
	}
	return merged
}
