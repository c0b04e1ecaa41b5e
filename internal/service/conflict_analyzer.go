package service

import (
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/noah-isme/sma-room-scheduler/internal/models"
	"github.com/noah-isme/sma-room-scheduler/internal/timeslot"
)

// Issues reported for records that cannot take part in conflict analysis.
const (
	IssueInvalidTimeFormat = "invalid time format"
	IssueInvalidDuration   = "invalid duration"
)

// Severity thresholds in overlap minutes.
const (
	highOverlapMinutes   = 60
	mediumOverlapMinutes = 30
)

// ConflictAnalyzer detects overlapping bookings within a room and day.
type ConflictAnalyzer struct {
	logger *zap.Logger
}

// NewConflictAnalyzer builds an analyzer. A nil logger discards warnings.
func NewConflictAnalyzer(logger *zap.Logger) *ConflictAnalyzer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ConflictAnalyzer{logger: logger}
}

// NormalizeRecords canonicalizes times and days. Records whose times cannot be
// parsed, or whose end is not after their start, are reported separately.
func (a *ConflictAnalyzer) NormalizeRecords(records []models.ScheduleRecord) ([]models.ScheduleRecord, []models.InvalidSchedule) {
	valid := make([]models.ScheduleRecord, 0, len(records))
	var invalid []models.InvalidSchedule
	for i, record := range records {
		normalized, issue := normalizeRecord(record)
		if issue != "" {
			invalid = append(invalid, models.InvalidSchedule{
				Index:  i,
				ID:     record.ID,
				Issue:  issue,
				Start:  record.Start,
				End:    record.End,
				Course: record.Course,
			})
			continue
		}
		valid = append(valid, normalized)
	}
	return valid, invalid
}

func normalizeRecord(record models.ScheduleRecord) (models.ScheduleRecord, string) {
	start, end, ok := timeslot.NormalizeRange(record.Start, record.End)
	if !ok {
		return record, IssueInvalidTimeFormat
	}
	if !timeslot.Before(start, end) {
		return record, IssueInvalidDuration
	}
	record.Start, record.End = start, end
	if day, ok := timeslot.NormalizeDay(record.Day); ok {
		record.Day = day
	}
	return record, ""
}

// Check compares a requested booking against the existing records of its room
// and day. Malformed existing records are skipped.
func (a *ConflictAnalyzer) Check(candidate models.ScheduleRecord, existing []models.ScheduleRecord) []models.ScheduleConflict {
	valid, invalid := a.NormalizeRecords(existing)
	for _, bad := range invalid {
		a.logger.Sugar().Warnw("skipping malformed schedule", "schedule_id", bad.ID, "course", bad.Course, "start", bad.Start, "end", bad.End, "issue", bad.Issue)
	}

	conflicts := make([]models.ScheduleConflict, 0)
	for _, record := range valid {
		if !timeslot.Overlaps(candidate.Start, candidate.End, record.Start, record.End) {
			continue
		}
		conflict := a.buildConflict(candidate.RoomID, candidate.Day, candidate, record)
		conflict.Description = fmt.Sprintf("%s (%s) overlaps requested %s", record.Course, record.TimeRange(), candidate.TimeRange())
		conflicts = append(conflicts, conflict)
	}
	return conflicts
}

// AnalyzeAll returns every overlapping pair among records sharing room and
// day. Pairs are emitted in input order.
func (a *ConflictAnalyzer) AnalyzeAll(records []models.ScheduleRecord) []models.ScheduleConflict {
	valid, invalid := a.NormalizeRecords(records)
	for _, bad := range invalid {
		a.logger.Sugar().Warnw("skipping malformed schedule", "schedule_id", bad.ID, "course", bad.Course, "start", bad.Start, "end", bad.End, "issue", bad.Issue)
	}

	conflicts := make([]models.ScheduleConflict, 0)
	for i := 0; i < len(valid); i++ {
		for j := i + 1; j < len(valid); j++ {
			first, second := valid[i], valid[j]
			if first.RoomID != second.RoomID || first.Day != second.Day {
				continue
			}
			if !timeslot.Overlaps(first.Start, first.End, second.Start, second.End) {
				continue
			}
			conflict := a.buildConflict(first.RoomID, first.Day, first, second)
			conflict.Description = fmt.Sprintf("%s (%s) overlaps %s (%s) in room %s on %s",
				first.Course, first.TimeRange(), second.Course, second.TimeRange(), first.RoomID, first.Day)
			conflicts = append(conflicts, conflict)
		}
	}
	return conflicts
}

func (a *ConflictAnalyzer) buildConflict(roomID, day string, first, second models.ScheduleRecord) models.ScheduleConflict {
	conflictType := models.ConflictPartialOverlap
	if first.Start == second.Start && first.End == second.End {
		conflictType = models.ConflictExactDuplicate
	}
	overlapStart := timeslot.Later(first.Start, second.Start)
	overlapEnd := timeslot.Earlier(first.End, second.End)
	minutes := 0
	if timeslot.Before(overlapStart, overlapEnd) {
		minutes = timeslot.DurationMinutes(overlapStart, overlapEnd)
	} else {
		a.logger.Sugar().Warnw("overlap window cannot be measured",
			"room_id", roomID, "day", day, "overlap_start", overlapStart, "overlap_end", overlapEnd,
			"schedule1", first.TimeRange(), "schedule2", second.TimeRange())
	}

	return models.ScheduleConflict{
		ConflictHash:           ConflictHash(roomID, day, first, second),
		RoomID:                 roomID,
		Day:                    day,
		Severity:               ClassifySeverity(conflictType, minutes),
		ConflictType:           conflictType,
		OverlapStart:           overlapStart,
		OverlapEnd:             overlapEnd,
		OverlapDurationMinutes: minutes,
		OverlapDuration:        timeslot.FormatDuration(minutes),
		Schedule1:              first.Summary(),
		Schedule2:              second.Summary(),
	}
}

// ClassifySeverity ranks a conflict by type and overlap length.
func ClassifySeverity(conflictType models.ConflictType, overlapMinutes int) models.ConflictSeverity {
	switch {
	case conflictType == models.ConflictExactDuplicate:
		return models.SeverityCritical
	case overlapMinutes >= highOverlapMinutes:
		return models.SeverityHigh
	case overlapMinutes >= mediumOverlapMinutes:
		return models.SeverityMedium
	default:
		return models.SeverityLow
	}
}

// ConflictHash is the order-independent signature of a conflicting pair:
// {room}_{day}_{course0}_{course1}_{time0}_{time1} with courses and time
// ranges each sorted.
func ConflictHash(roomID, day string, a, b models.ScheduleRecord) string {
	courses := []string{a.Course, b.Course}
	times := []string{a.TimeRange(), b.TimeRange()}
	sort.Strings(courses)
	sort.Strings(times)

	raw := strings.Join([]string{roomID, day, courses[0], courses[1], times[0], times[1]}, "_")
	return strings.NewReplacer(" ", "_", ":", "").Replace(raw)
}
