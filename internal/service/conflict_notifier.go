package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/sma-room-scheduler/internal/models"
)

// Preview caps for notification messages.
const (
	criticalPreviewLimit = 5
	defaultPreviewLimit  = 3
)

// NotificationSink delivers a notification to an administrator.
type NotificationSink interface {
	CreateNotification(ctx context.Context, notification models.Notification) error
}

var (
	criticalActions = []string{
		"Review conflicting schedules immediately",
		"Contact department coordinators",
		"Reschedule one of the conflicting courses",
		"Verify room assignments are correct",
	}
	severityActions = map[models.ConflictSeverity][]string{
		models.SeverityHigh: {
			"Review and resolve conflicts within 24 hours",
			"Contact affected departments",
			"Consider room reassignment or time adjustment",
			"Update schedules to prevent future conflicts",
		},
		models.SeverityMedium: {
			"Review conflicts within 48 hours",
			"Assess impact on students and faculty",
			"Plan resolution during next scheduling cycle",
			"Monitor for escalation",
		},
		models.SeverityLow: {
			"Monitor conflicts for patterns",
			"Consider minor schedule adjustments",
			"Review during regular maintenance",
			"Document for future planning",
		},
	}
)

// ConflictNotifier turns detected conflicts into one notification per severity.
type ConflictNotifier struct {
	sink    NotificationSink
	metrics *MetricsService
	logger  *zap.Logger
	now     func() time.Time
}

// NewConflictNotifier creates a notifier dispatching to sink.
func NewConflictNotifier(sink NotificationSink, metrics *MetricsService, logger *zap.Logger) *ConflictNotifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ConflictNotifier{sink: sink, metrics: metrics, logger: logger, now: time.Now}
}

// Notify dispatches the conflicts grouped by severity, most urgent first. It
// returns the hashes of conflicts whose notification was delivered; failed
// groups are logged and joined into the returned error.
func (n *ConflictNotifier) Notify(ctx context.Context, adminID string, conflicts []models.ScheduleConflict) ([]string, error) {
	if len(conflicts) == 0 || n.sink == nil {
		return nil, nil
	}

	groups := make(map[models.ConflictSeverity][]models.ScheduleConflict)
	for _, conflict := range conflicts {
		groups[conflict.Severity] = append(groups[conflict.Severity], conflict)
	}

	var (
		delivered []string
		errs      []error
	)
	for _, severity := range models.Severities {
		group := groups[severity]
		if len(group) == 0 {
			continue
		}
		notification := n.Build(adminID, severity, group)
		if err := n.sink.CreateNotification(ctx, notification); err != nil {
			n.metrics.RecordNotification(false)
			n.logger.Sugar().Errorw("conflict notification failed", "admin_id", adminID, "severity", severity, "conflicts", len(group), "error", err)
			errs = append(errs, fmt.Errorf("notify %s conflicts: %w", strings.ToLower(string(severity)), err))
			continue
		}
		n.metrics.RecordNotification(true)
		n.logger.Sugar().Infow("conflict notification sent", "admin_id", adminID, "severity", severity, "conflicts", len(group))
		for _, conflict := range group {
			delivered = append(delivered, conflict.ConflictHash)
		}
	}
	return delivered, errors.Join(errs...)
}

// Build formats the notification for one severity group.
func (n *ConflictNotifier) Build(adminID string, severity models.ConflictSeverity, conflicts []models.ScheduleConflict) models.Notification {
	now := n.now()
	return models.Notification{
		AdminID: adminID,
		Type:    models.NotificationTypeScheduleConflict,
		Title:   notificationTitle(severity, len(conflicts)),
		Message: notificationMessage(severity, conflicts, now),
		Data:    notificationData(severity, conflicts, now),
	}
}

func plural(count int, word string) string {
	if count == 1 {
		return word
	}
	return word + "s"
}

func notificationTitle(severity models.ConflictSeverity, count int) string {
	if severity == models.SeverityCritical {
		return fmt.Sprintf("CRITICAL: %d Duplicate %s Detected", count, plural(count, "Schedule"))
	}
	return fmt.Sprintf("%s Priority: %d Schedule %s", severity, count, plural(count, "Conflict"))
}

func notificationMessage(severity models.ConflictSeverity, conflicts []models.ScheduleConflict, now time.Time) string {
	count := len(conflicts)
	critical := severity == models.SeverityCritical
	limit := defaultPreviewLimit
	if critical {
		limit = criticalPreviewLimit
	}

	var b strings.Builder
	b.WriteString("AUTOMATED SCAN RESULTS:\n")
	if critical {
		fmt.Fprintf(&b, "Found %d critical schedule %s requiring immediate attention.\n", count, plural(count, "conflict"))
	} else {
		fmt.Fprintf(&b, "Detected %d %s priority schedule %s.\n", count, strings.ToLower(string(severity)), plural(count, "conflict"))
	}
	b.WriteString("\nCONFLICT DETAILS:\n")

	for i, c := range conflicts {
		if i == limit {
			break
		}
		fmt.Fprintf(&b, "\nCONFLICT #%d:\n", i+1)
		fmt.Fprintf(&b, "   Room ID: %s\n", c.RoomID)
		fmt.Fprintf(&b, "   Day: %s\n", c.Day)
		fmt.Fprintf(&b, "   Conflicting Time: %s\n", c.OverlapPeriod())
		fmt.Fprintf(&b, "   Severity: %s (%s)\n", c.Severity, c.ConflictType)
		fmt.Fprintf(&b, "   Course 1: %s (%s), %s, %s\n", c.Schedule1.Course, c.Schedule1.Department, c.Schedule1.Lecturer, c.Schedule1.Time)
		fmt.Fprintf(&b, "   Course 2: %s (%s), %s, %s\n", c.Schedule2.Course, c.Schedule2.Department, c.Schedule2.Lecturer, c.Schedule2.Time)
		fmt.Fprintf(&b, "   Overlap Duration: %s\n", c.OverlapDuration)
		fmt.Fprintf(&b, "   Action Required: %s\n", actionRequiredLabel(severity))
	}

	if count > limit {
		if critical {
			fmt.Fprintf(&b, "\n... and %d more critical conflicts detected.\n", count-limit)
		} else {
			fmt.Fprintf(&b, "\n... and %d more %s priority conflicts detected.\n", count-limit, strings.ToLower(string(severity)))
		}
		fmt.Fprintf(&b, "Total conflicts requiring attention: %d\n", count)
	}

	actions := criticalActions
	if !critical {
		actions = severityActions[severity]
	}
	b.WriteString("\nRECOMMENDED ACTIONS:\n")
	for i, action := range actions {
		fmt.Fprintf(&b, "%d. %s\n", i+1, action)
	}
	fmt.Fprintf(&b, "\nDetected at: %s", now.Format("2006-01-02 15:04:05"))
	return b.String()
}

func actionRequiredLabel(severity models.ConflictSeverity) string {
	switch severity {
	case models.SeverityCritical:
		return "Immediate resolution needed"
	case models.SeverityHigh:
		return "Yes"
	default:
		return "Monitor"
	}
}

// ResolutionPriority maps a severity to its resolution urgency.
func ResolutionPriority(severity models.ConflictSeverity) string {
	if severity == models.SeverityCritical {
		return "IMMEDIATE"
	}
	return strings.ToUpper(string(severity))
}

// AssessImpact rates the disruption of an overlap by its length.
func AssessImpact(overlapMinutes int) string {
	switch {
	case overlapMinutes >= 90:
		return "HIGH - Significant disruption to both courses"
	case overlapMinutes >= 60:
		return "MEDIUM - Moderate disruption, affects full class periods"
	case overlapMinutes >= 30:
		return "LOW-MEDIUM - Partial class disruption"
	default:
		return "LOW - Minor scheduling inconvenience"
	}
}

func notificationData(severity models.ConflictSeverity, conflicts []models.ScheduleConflict, now time.Time) models.ConflictNotificationData {
	notificationType := strings.ToLower(string(severity)) + "_priority_conflicts"
	if severity == models.SeverityCritical {
		notificationType = "critical_conflicts"
	}

	rooms := newStringSet()
	days := newStringSet()
	departments := newStringSet()
	detailed := make([]models.NotifiedConflict, 0, len(conflicts))
	display := models.NotificationDisplayData{}

	for _, c := range conflicts {
		rooms.add(c.RoomID)
		days.add(c.Day)
		departments.add(c.Schedule1.Department, c.Schedule2.Department)

		detailed = append(detailed, models.NotifiedConflict{
			ConflictHash:           c.ConflictHash,
			RoomID:                 c.RoomID,
			Day:                    c.Day,
			Severity:               c.Severity,
			ConflictType:           c.ConflictType,
			OverlapPeriod:          c.OverlapPeriod(),
			OverlapDurationMinutes: c.OverlapDurationMinutes,
			OverlapDuration:        c.OverlapDuration,
			Impact:                 AssessImpact(c.OverlapDurationMinutes),
			Schedule1:              c.Schedule1,
			Schedule2:              c.Schedule2,
			ActionableData: models.ActionableData{
				DepartmentsAffected: []string{c.Schedule1.Department, c.Schedule2.Department},
				LecturersAffected:   []string{c.Schedule1.Lecturer, c.Schedule2.Lecturer},
				CoursesAffected:     []string{c.Schedule1.Course, c.Schedule2.Course},
				ResolutionPriority:  ResolutionPriority(c.Severity),
			},
		})

		display.RoomIDs = append(display.RoomIDs, c.RoomID)
		display.DaysOfWeek = append(display.DaysOfWeek, c.Day)
		display.ConflictingTimeSlots = append(display.ConflictingTimeSlots, c.OverlapPeriod())
		display.CourseNames = append(display.CourseNames, c.Schedule1.Course+" vs "+c.Schedule2.Course)
		display.LecturerInfo = append(display.LecturerInfo, c.Schedule1.Lecturer+" / "+c.Schedule2.Lecturer)
		display.DepartmentInfo = append(display.DepartmentInfo, c.Schedule1.Department+" / "+c.Schedule2.Department)
		display.SeverityLevels = append(display.SeverityLevels, c.Severity)
		display.OverlapDurations = append(display.OverlapDurations, c.OverlapDuration)
		display.OverlapMinutes = append(display.OverlapMinutes, c.OverlapDurationMinutes)
	}

	return models.ConflictNotificationData{
		NotificationType: notificationType,
		Severity:         severity,
		ConflictCount:    len(conflicts),
		ActionRequired:   severity == models.SeverityCritical || severity == models.SeverityHigh,
		ScanTimestamp:    now.UTC().Format(time.RFC3339),
		Conflicts:        detailed,
		Summary: models.NotificationSummary{
			TotalConflicts:      len(conflicts),
			RoomsAffected:       rooms.sorted(),
			DaysAffected:        days.sorted(),
			DepartmentsAffected: departments.sorted(),
			SeverityBreakdown:   models.BreakdownOf(conflicts),
		},
		DisplayData: display,
	}
}

type stringSet map[string]struct{}

func newStringSet() stringSet { return make(stringSet) }

func (s stringSet) add(values ...string) {
	for _, v := range values {
		if v != "" {
			s[v] = struct{}{}
		}
	}
}

func (s stringSet) sorted() []string {
	out := make([]string, 0, len(s))
	for v := range s {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}
