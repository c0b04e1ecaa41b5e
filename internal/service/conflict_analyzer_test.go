package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/noah-isme/sma-room-scheduler/internal/models"
)

func record(id, room, day, start, end, course string) models.ScheduleRecord {
	return models.ScheduleRecord{ID: id, RoomID: room, Day: day, Start: start, End: end, Course: course, Department: "Science", Lecturer: "Dr. " + course}
}

func TestAnalyzeAllChainedOverlaps(t *testing.T) {
	analyzer := NewConflictAnalyzer(nil)

	conflicts := analyzer.AnalyzeAll([]models.ScheduleRecord{
		record("1", "R101", "Monday", "09:00", "10:00", "Math"),
		record("2", "R101", "Monday", "10:00", "11:00", "Physics"),
		record("3", "R101", "Monday", "09:30", "10:30", "Biology"),
	})

	require.Len(t, conflicts, 2)
	assert.Equal(t, "1", conflicts[0].Schedule1.ScheduleID)
	assert.Equal(t, "3", conflicts[0].Schedule2.ScheduleID)
	assert.Equal(t, "2", conflicts[1].Schedule1.ScheduleID)
	assert.Equal(t, "3", conflicts[1].Schedule2.ScheduleID)
	for _, c := range conflicts {
		assert.Equal(t, models.SeverityMedium, c.Severity)
		assert.Equal(t, models.ConflictPartialOverlap, c.ConflictType)
		assert.Equal(t, 30, c.OverlapDurationMinutes)
		assert.Equal(t, "30m", c.OverlapDuration)
	}
	assert.Equal(t, "09:30", conflicts[0].OverlapStart)
	assert.Equal(t, "10:00", conflicts[0].OverlapEnd)
	assert.Equal(t, "10:00-10:30", conflicts[1].OverlapPeriod())
}

func TestAnalyzeAllExactDuplicate(t *testing.T) {
	analyzer := NewConflictAnalyzer(nil)

	conflicts := analyzer.AnalyzeAll([]models.ScheduleRecord{
		record("a", "R1", "Tuesday", "08:00", "09:55", "Chemistry"),
		record("b", "R1", "Tuesday", "08:00", "09:55", "Chemistry"),
	})

	require.Len(t, conflicts, 1)
	assert.Equal(t, models.ConflictExactDuplicate, conflicts[0].ConflictType)
	assert.Equal(t, models.SeverityCritical, conflicts[0].Severity)
	assert.Equal(t, 115, conflicts[0].OverlapDurationMinutes)
	assert.Equal(t, "1h 55m", conflicts[0].OverlapDuration)
}

func TestAnalyzeAllSeparatesRoomsAndDays(t *testing.T) {
	analyzer := NewConflictAnalyzer(nil)

	conflicts := analyzer.AnalyzeAll([]models.ScheduleRecord{
		record("1", "R1", "Monday", "08:00", "10:00", "Math"),
		record("2", "R2", "Monday", "08:00", "10:00", "Math"),
		record("3", "R1", "tuesday", "08:00", "10:00", "Math"),
		record("4", "R1", "Monday", "10:00", "12:00", "Art"),
	})

	assert.Empty(t, conflicts)
}

func TestAnalyzeAllSkipsMalformedRecords(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	analyzer := NewConflictAnalyzer(zap.New(core))

	conflicts := analyzer.AnalyzeAll([]models.ScheduleRecord{
		record("1", "R1", "Monday", "8", "1000", "Math"),
		record("2", "R1", "Monday", "nan", "10:00", "Ghost"),
		record("3", "R1", "Monday", "09:00", "11:00", "History"),
	})

	require.Len(t, conflicts, 1)
	assert.Equal(t, models.SeverityHigh, conflicts[0].Severity)
	assert.Equal(t, "08:00", conflicts[0].Schedule1.Start)
	assert.Equal(t, 1, logs.FilterMessage("skipping malformed schedule").Len())
}

func TestCheckTargeted(t *testing.T) {
	analyzer := NewConflictAnalyzer(nil)
	candidate := record("", "R1", "Monday", "09:00", "10:00", "Requested")

	conflicts := analyzer.Check(candidate, []models.ScheduleRecord{
		record("1", "R1", "Monday", "08:00", "09:00", "Before"),
		record("2", "R1", "Monday", "09:45", "11:00", "Late"),
		record("3", "R1", "Monday", "08:00–09:30", "", "Combined"),
		record("4", "R1", "Monday", "10:00", "09:00", "Backwards"),
	})

	require.Len(t, conflicts, 2)
	assert.Equal(t, "Late (09:45-11:00) overlaps requested 09:00-10:00", conflicts[0].Description)
	assert.Equal(t, models.SeverityLow, conflicts[0].Severity)
	assert.Equal(t, "Requested", conflicts[0].Schedule1.Course)
	assert.Equal(t, "Combined", conflicts[1].Schedule2.Course)
	assert.Equal(t, "09:00", conflicts[1].OverlapStart)
	assert.Equal(t, "09:30", conflicts[1].OverlapEnd)
}

func TestCheckLogsUnmeasurableOverlap(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	analyzer := NewConflictAnalyzer(zap.New(core))
	candidate := record("", "R1", "Monday", "noon", "late", "Requested")

	conflicts := analyzer.Check(candidate, []models.ScheduleRecord{
		record("1", "R1", "Monday", "09:00", "10:00", "Math"),
	})

	require.Len(t, conflicts, 1)
	assert.Zero(t, conflicts[0].OverlapDurationMinutes)
	assert.Equal(t, "0m", conflicts[0].OverlapDuration)
	entries := logs.FilterMessage("overlap window cannot be measured").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "R1", entries[0].ContextMap()["room_id"])
}

func TestNormalizeRecordsReportsIssues(t *testing.T) {
	analyzer := NewConflictAnalyzer(nil)

	valid, invalid := analyzer.NormalizeRecords([]models.ScheduleRecord{
		record("ok", "R1", "monday", "8.30", "10", "Math"),
		record("bad", "R1", "Monday", "soon", "10:00", "Art"),
		record("zero", "R1", "Monday", "10:00", "10:00", "Music"),
	})

	require.Len(t, valid, 1)
	assert.Equal(t, "08:30", valid[0].Start)
	assert.Equal(t, "10:00", valid[0].End)
	assert.Equal(t, "Monday", valid[0].Day)
	require.Len(t, invalid, 2)
	assert.Equal(t, models.InvalidSchedule{Index: 1, ID: "bad", Issue: IssueInvalidTimeFormat, Start: "soon", End: "10:00", Course: "Art"}, invalid[0])
	assert.Equal(t, IssueInvalidDuration, invalid[1].Issue)
}

func TestConflictHashIsOrderIndependent(t *testing.T) {
	a := record("1", "Lab 2", "Friday", "08:00", "09:00", "Data Structures")
	b := record("2", "Lab 2", "Friday", "08:30", "10:00", "Algorithms")

	hash := ConflictHash("Lab 2", "Friday", a, b)

	assert.Equal(t, hash, ConflictHash("Lab 2", "Friday", b, a))
	assert.Equal(t, "Lab_2_Friday_Algorithms_Data_Structures_0800-0900_0830-1000", hash)
}

func TestClassifySeverity(t *testing.T) {
	assert.Equal(t, models.SeverityCritical, ClassifySeverity(models.ConflictExactDuplicate, 5))
	assert.Equal(t, models.SeverityHigh, ClassifySeverity(models.ConflictPartialOverlap, 60))
	assert.Equal(t, models.SeverityMedium, ClassifySeverity(models.ConflictPartialOverlap, 59))
	assert.Equal(t, models.SeverityMedium, ClassifySeverity(models.ConflictPartialOverlap, 30))
	assert.Equal(t, models.SeverityLow, ClassifySeverity(models.ConflictPartialOverlap, 29))
}
