package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-room-scheduler/internal/models"
)

type recordingSink struct {
	mu            sync.Mutex
	notifications []models.Notification
	failSeverity  models.ConflictSeverity
}

func (s *recordingSink) CreateNotification(ctx context.Context, n models.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failSeverity != "" && n.Data.Severity == s.failSeverity {
		return errors.New("sink offline")
	}
	s.notifications = append(s.notifications, n)
	return nil
}

func (s *recordingSink) sent() []models.Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.Notification(nil), s.notifications...)
}

func conflictFixture(n int, severity models.ConflictSeverity, minutes int) []models.ScheduleConflict {
	out := make([]models.ScheduleConflict, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, models.ScheduleConflict{
			ConflictHash:           fmt.Sprintf("%s-%d", severity, i),
			RoomID:                 fmt.Sprintf("R%d", i%2),
			Day:                    "Monday",
			Severity:               severity,
			ConflictType:           models.ConflictPartialOverlap,
			OverlapStart:           "09:00",
			OverlapEnd:             "10:00",
			OverlapDurationMinutes: minutes,
			OverlapDuration:        "1h",
			Schedule1:              models.ScheduleSummary{Course: "Math", Department: "Science", Lecturer: "Ada", Time: "09:00-10:00"},
			Schedule2:              models.ScheduleSummary{Course: "Art", Department: "Humanities", Lecturer: "Bo", Time: "09:00-11:00"},
		})
	}
	return out
}

func newTestNotifier(sink NotificationSink) *ConflictNotifier {
	n := NewConflictNotifier(sink, nil, nil)
	n.now = func() time.Time { return time.Date(2024, 3, 4, 10, 0, 0, 0, time.UTC) }
	return n
}

func TestNotifyGroupsBySeverity(t *testing.T) {
	sink := &recordingSink{}
	notifier := newTestNotifier(sink)
	conflicts := append(conflictFixture(2, models.SeverityLow, 10), conflictFixture(1, models.SeverityCritical, 60)...)

	hashes, err := notifier.Notify(context.Background(), "admin-1", conflicts)

	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"Low-0", "Low-1", "Critical-0"}, hashes)
	sent := sink.sent()
	require.Len(t, sent, 2)
	assert.Equal(t, "CRITICAL: 1 Duplicate Schedule Detected", sent[0].Title)
	assert.Equal(t, "Low Priority: 2 Schedule Conflicts", sent[1].Title)
	assert.Equal(t, "admin-1", sent[0].AdminID)
	assert.Equal(t, models.NotificationTypeScheduleConflict, sent[0].Type)
	assert.Equal(t, "critical_conflicts", sent[0].Data.NotificationType)
	assert.True(t, sent[0].Data.ActionRequired)
	assert.Equal(t, "low_priority_conflicts", sent[1].Data.NotificationType)
	assert.False(t, sent[1].Data.ActionRequired)
}

func TestNotifyCriticalPreviewCap(t *testing.T) {
	sink := &recordingSink{}
	notifier := newTestNotifier(sink)

	_, err := notifier.Notify(context.Background(), "admin", conflictFixture(7, models.SeverityCritical, 60))

	require.NoError(t, err)
	message := sink.sent()[0].Message
	assert.Equal(t, 5, strings.Count(message, "CONFLICT #"))
	assert.Contains(t, message, "... and 2 more critical conflicts detected.")
	assert.Contains(t, message, "Reschedule one of the conflicting courses")
	assert.Contains(t, message, "Detected at: 2024-03-04 10:00:00")
}

func TestNotifyOtherSeverityPreviewCap(t *testing.T) {
	sink := &recordingSink{}
	notifier := newTestNotifier(sink)

	_, err := notifier.Notify(context.Background(), "admin", conflictFixture(5, models.SeverityHigh, 75))

	require.NoError(t, err)
	n := sink.sent()[0]
	assert.Equal(t, "High Priority: 5 Schedule Conflicts", n.Title)
	assert.Equal(t, 3, strings.Count(n.Message, "CONFLICT #"))
	assert.Contains(t, n.Message, "... and 2 more high priority conflicts detected.")
	assert.Contains(t, n.Message, "Action Required: Yes")
	assert.Contains(t, n.Message, "Review and resolve conflicts within 24 hours")

	data := n.Data
	assert.Equal(t, 5, data.ConflictCount)
	assert.Equal(t, []string{"R0", "R1"}, data.Summary.RoomsAffected)
	assert.Equal(t, []string{"Humanities", "Science"}, data.Summary.DepartmentsAffected)
	assert.Equal(t, 5, data.Summary.SeverityBreakdown.High)
	assert.Len(t, data.DisplayData.CourseNames, 5)
	assert.Equal(t, "Math vs Art", data.DisplayData.CourseNames[0])
	assert.Equal(t, "HIGH", data.Conflicts[0].ActionableData.ResolutionPriority)
	assert.Equal(t, "MEDIUM - Moderate disruption, affects full class periods", data.Conflicts[0].Impact)
}

func TestNotifyPartialFailure(t *testing.T) {
	sink := &recordingSink{failSeverity: models.SeverityMedium}
	notifier := newTestNotifier(sink)
	conflicts := append(conflictFixture(1, models.SeverityMedium, 30), conflictFixture(1, models.SeverityHigh, 60)...)

	hashes, err := notifier.Notify(context.Background(), "admin", conflicts)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "notify medium conflicts")
	assert.Equal(t, []string{"High-0"}, hashes)
}

func TestAssessImpactAndPriority(t *testing.T) {
	assert.True(t, strings.HasPrefix(AssessImpact(90), "HIGH"))
	assert.True(t, strings.HasPrefix(AssessImpact(60), "MEDIUM"))
	assert.True(t, strings.HasPrefix(AssessImpact(30), "LOW-MEDIUM"))
	assert.True(t, strings.HasPrefix(AssessImpact(29), "LOW -"))
	assert.Equal(t, "IMMEDIATE", ResolutionPriority(models.SeverityCritical))
	assert.Equal(t, "LOW", ResolutionPriority(models.SeverityLow))
}
