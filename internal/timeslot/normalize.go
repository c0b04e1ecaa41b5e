// Package timeslot holds the pure time arithmetic behind room scheduling:
// canonical HH:MM parsing, interval comparison and free-slot computation.
package timeslot

import (
	"fmt"
	"strconv"
	"strings"
)

const (
	enDash = "–"
	emDash = "—"

	minutesPerDay = 24 * 60
)

var weekdays = []string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday"}

// Validate reports whether s is exactly H:MM or HH:MM within 00:00-23:59.
func Validate(s string) bool {
	_, ok := parse(s)
	return ok
}

// Normalize converts loosely formatted times ("8", "830", "8.30", "8 30",
// "14h", "08:00–10:00") into canonical HH:MM. It returns false when no valid
// time can be produced.
func Normalize(raw string) (string, bool) {
	s := strings.TrimSpace(raw)
	switch strings.ToLower(s) {
	case "", "none", "null", "nan":
		return "", false
	}

	if isCombinedRange(s) {
		s = strings.TrimSpace(splitOnDash(s)[0])
	}

	for _, suffix := range []string{"hrs", "hr", "h"} {
		s = strings.ReplaceAll(s, suffix, "")
	}
	s = strings.TrimSpace(s)

	if !strings.Contains(s, ":") && isDigits(s) {
		switch len(s) {
		case 1:
			s = "0" + s + ":00"
		case 2:
			s = s + ":00"
		case 3:
			s = "0" + s[:1] + ":" + s[1:]
		case 4:
			s = s[:2] + ":" + s[2:]
		}
	}

	s = strings.ReplaceAll(s, ".", ":")

	if fields := strings.Fields(s); len(fields) == 2 && isDigits(fields[0]) && isDigits(fields[1]) {
		s = fields[0] + ":" + fields[1]
	}

	parts := strings.Split(s, ":")
	if len(parts) != 2 || !isDigits(parts[0]) || !isDigits(parts[1]) {
		return "", false
	}
	hour, _ := strconv.Atoi(parts[0])
	minute, _ := strconv.Atoi(parts[1])
	if hour > 23 || minute > 59 {
		return "", false
	}
	return format(hour*60 + minute), true
}

// SplitRange splits a combined "start–end" string into its two halves.
func SplitRange(raw string) (string, string, bool) {
	s := strings.TrimSpace(raw)
	if !isCombinedRange(s) {
		return "", "", false
	}
	parts := splitOnDash(s)
	if len(parts) != 2 {
		return "", "", false
	}
	return strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1]), true
}

// NormalizeRange normalizes a stored start/end pair. A combined range stored
// in start fills in a missing end.
func NormalizeRange(start, end string) (string, string, bool) {
	if first, second, ok := SplitRange(start); ok {
		start = first
		if strings.TrimSpace(end) == "" {
			end = second
		}
	}
	s, ok := Normalize(start)
	if !ok {
		return "", "", false
	}
	e, ok := Normalize(end)
	if !ok {
		return "", "", false
	}
	return s, e, true
}

// Spellings lists the forms a time may be stored under in legacy data:
// the value itself, canonical HH:MM, the unpadded hour and dotted variants.
func Spellings(t string) []string {
	raw := strings.TrimSpace(t)
	minutes, ok := parse(strings.ReplaceAll(raw, ".", ":"))
	if !ok {
		return []string{raw}
	}
	h, m := minutes/60, minutes%60
	return uniqueStrings(
		raw,
		format(minutes),
		fmt.Sprintf("%d:%02d", h, m),
		fmt.Sprintf("%02d.%02d", h, m),
		fmt.Sprintf("%d.%02d", h, m),
	)
}

// RangeSpellings lists combined "start-end" values that legacy rows keep in
// their start column, across padding and dash styles.
func RangeSpellings(start, end string) []string {
	s, ok1 := Normalize(start)
	e, ok2 := Normalize(end)
	if !ok1 || !ok2 {
		return nil
	}
	sm, _ := parse(s)
	em, _ := parse(e)
	pairs := [][2]string{
		{s, e},
		{fmt.Sprintf("%d:%02d", sm/60, sm%60), fmt.Sprintf("%d:%02d", em/60, em%60)},
	}
	var forms []string
	for _, pair := range pairs {
		for _, sep := range []string{"-", enDash, " - ", " " + enDash + " "} {
			forms = append(forms, pair[0]+sep+pair[1])
		}
	}
	return uniqueStrings(forms...)
}

func uniqueStrings(values ...string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

// NormalizeDay maps any casing of a weekday name to its title-cased form.
func NormalizeDay(raw string) (string, bool) {
	trimmed := strings.TrimSpace(raw)
	for _, day := range weekdays {
		if strings.EqualFold(trimmed, day) {
			return day, true
		}
	}
	return "", false
}

// Weekdays returns the seven accepted day names, Monday first.
func Weekdays() []string {
	out := make([]string, len(weekdays))
	copy(out, weekdays)
	return out
}

// IsWeekend reports whether day is Saturday or Sunday.
func IsWeekend(day string) bool {
	d, _ := NormalizeDay(day)
	return d == "Saturday" || d == "Sunday"
}

func isCombinedRange(s string) bool {
	if strings.Contains(s, enDash) || strings.Contains(s, emDash) {
		return true
	}
	return strings.Contains(s, "-") && strings.Contains(s, ":")
}

func splitOnDash(s string) []string {
	s = strings.NewReplacer(enDash, "-", emDash, "-").Replace(s)
	return strings.Split(s, "-")
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// parse converts a strict H:MM/HH:MM string to minutes since midnight.
func parse(s string) (int, bool) {
	parts := strings.Split(s, ":")
	if len(parts) != 2 {
		return 0, false
	}
	h, m := parts[0], parts[1]
	if len(h) < 1 || len(h) > 2 || len(m) != 2 || !isDigits(h) || !isDigits(m) {
		return 0, false
	}
	hour, _ := strconv.Atoi(h)
	minute, _ := strconv.Atoi(m)
	if hour > 23 || minute > 59 {
		return 0, false
	}
	return hour*60 + minute, true
}

func format(minutes int) string {
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}
