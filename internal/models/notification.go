package models

// NotificationTypeScheduleConflict tags every conflict notification.
const NotificationTypeScheduleConflict = "schedule_conflict"

// Notification is a message handed to the notification sinks.
type Notification struct {
	AdminID string                   `json:"admin_id"`
	Type    string                   `json:"type"`
	Title   string                   `json:"title"`
	Message string                   `json:"message"`
	Data    ConflictNotificationData `json:"data"`
}

// ConflictNotificationData is the structured payload for UI rendering.
type ConflictNotificationData struct {
	NotificationType string                  `json:"notification_type"`
	Severity         ConflictSeverity        `json:"severity"`
	ConflictCount    int                     `json:"conflict_count"`
	ActionRequired   bool                    `json:"action_required"`
	ScanTimestamp    string                  `json:"scan_timestamp"`
	Conflicts        []NotifiedConflict      `json:"conflicts"`
	Summary          NotificationSummary     `json:"summary"`
	DisplayData      NotificationDisplayData `json:"display_data"`
}

// NotifiedConflict is one conflict entry within a notification payload.
type NotifiedConflict struct {
	ConflictHash           string           `json:"conflict_hash"`
	RoomID                 string           `json:"room_id"`
	Day                    string           `json:"day"`
	Severity               ConflictSeverity `json:"severity"`
	ConflictType           ConflictType     `json:"conflict_type"`
	OverlapPeriod          string           `json:"overlap_period"`
	OverlapDurationMinutes int              `json:"overlap_duration_minutes"`
	OverlapDuration        string           `json:"overlap_duration_formatted"`
	Impact                 string           `json:"impact"`
	Schedule1              ScheduleSummary  `json:"schedule1"`
	Schedule2              ScheduleSummary  `json:"schedule2"`
	ActionableData         ActionableData   `json:"actionable_data"`
}

// ActionableData lists who is affected and how urgently.
type ActionableData struct {
	DepartmentsAffected []string `json:"departments_affected"`
	LecturersAffected   []string `json:"lecturers_affected"`
	CoursesAffected     []string `json:"courses_affected"`
	ResolutionPriority  string   `json:"resolution_priority"`
}

// NotificationSummary aggregates a notification's conflicts.
type NotificationSummary struct {
	TotalConflicts      int               `json:"total_conflicts"`
	RoomsAffected       []string          `json:"rooms_affected"`
	DaysAffected        []string          `json:"days_affected"`
	DepartmentsAffected []string          `json:"departments_affected"`
	SeverityBreakdown   SeverityBreakdown `json:"severity_breakdown"`
}

// NotificationDisplayData holds parallel arrays for tabular display.
type NotificationDisplayData struct {
	RoomIDs              []string           `json:"room_ids"`
	DaysOfWeek           []string           `json:"days_of_week"`
	ConflictingTimeSlots []string           `json:"conflicting_time_slots"`
	CourseNames          []string           `json:"course_names"`
	LecturerInfo         []string           `json:"lecturer_info"`
	DepartmentInfo       []string           `json:"department_info"`
	SeverityLevels       []ConflictSeverity `json:"severity_levels"`
	OverlapDurations     []string           `json:"overlap_durations"`
	OverlapMinutes       []int              `json:"overlap_minutes"`
}
