package models

import "time"

// ConflictSeverity ranks a conflict, Critical being the most urgent.
type ConflictSeverity string

const (
	SeverityCritical ConflictSeverity = "Critical"
	SeverityHigh     ConflictSeverity = "High"
	SeverityMedium   ConflictSeverity = "Medium"
	SeverityLow      ConflictSeverity = "Low"
)

// Severities lists every level from most to least urgent.
var Severities = []ConflictSeverity{SeverityCritical, SeverityHigh, SeverityMedium, SeverityLow}

// ConflictType distinguishes identical bookings from partial overlaps.
type ConflictType string

const (
	ConflictExactDuplicate ConflictType = "exact_duplicate"
	ConflictPartialOverlap ConflictType = "partial_overlap"
)

// ScheduleSummary is the slice of a ScheduleRecord stored with a conflict.
type ScheduleSummary struct {
	ScheduleID string `json:"schedule_id,omitempty" bson:"schedule_id,omitempty"`
	Course     string `json:"course" bson:"course"`
	Department string `json:"department" bson:"department"`
	Lecturer   string `json:"lecturer" bson:"lecturer"`
	Start      string `json:"start" bson:"start"`
	End        string `json:"end" bson:"end"`
	Time       string `json:"time" bson:"time"`
}

// ScheduleConflict describes one overlapping pair in a room on a day.
type ScheduleConflict struct {
	ConflictHash           string           `json:"conflict_hash" bson:"conflict_hash"`
	RoomID                 string           `json:"room_id" bson:"room_id"`
	Day                    string           `json:"day" bson:"day"`
	Severity               ConflictSeverity `json:"severity" bson:"severity"`
	ConflictType           ConflictType     `json:"conflict_type" bson:"conflict_type"`
	OverlapStart           string           `json:"overlap_start" bson:"overlap_start"`
	OverlapEnd             string           `json:"overlap_end" bson:"overlap_end"`
	OverlapDurationMinutes int              `json:"overlap_duration_minutes" bson:"overlap_duration_minutes"`
	OverlapDuration        string           `json:"overlap_duration" bson:"overlap_duration"`
	Schedule1              ScheduleSummary  `json:"schedule1" bson:"schedule1"`
	Schedule2              ScheduleSummary  `json:"schedule2" bson:"schedule2"`
	Description            string           `json:"description,omitempty" bson:"description,omitempty"`
}

// OverlapPeriod renders the overlap window as "start-end".
func (c ScheduleConflict) OverlapPeriod() string {
	return c.OverlapStart + "-" + c.OverlapEnd
}

// ConflictRecord is a persisted, deduplicated conflict.
type ConflictRecord struct {
	ID               string `json:"id" bson:"-"`
	ScheduleConflict `bson:",inline"`
	DetectedAt       time.Time `json:"detected_at" bson:"detected_at"`
	LastDetectedAt   time.Time `json:"last_detected_at" bson:"last_detected_at"`
	Notified         bool      `json:"notified" bson:"notified"`
}

// ConflictFilter narrows stored conflict queries.
type ConflictFilter struct {
	RoomID   string
	Day      string
	Severity ConflictSeverity
	Notified *bool
	Page     int
	PageSize int
}

// SeverityBreakdown counts conflicts per severity.
type SeverityBreakdown struct {
	Critical int `json:"critical"`
	High     int `json:"high"`
	Medium   int `json:"medium"`
	Low      int `json:"low"`
}

// Add increments the counter matching severity.
func (b *SeverityBreakdown) Add(severity ConflictSeverity) {
	switch severity {
	case SeverityCritical:
		b.Critical++
	case SeverityHigh:
		b.High++
	case SeverityMedium:
		b.Medium++
	case SeverityLow:
		b.Low++
	}
}

// BreakdownOf tallies the severities of conflicts.
func BreakdownOf(conflicts []ScheduleConflict) SeverityBreakdown {
	var b SeverityBreakdown
	for _, c := range conflicts {
		b.Add(c.Severity)
	}
	return b
}

// MonitorState is the phase of the conflict monitor.
type MonitorState string

const (
	MonitorIdle        MonitorState = "idle"
	MonitorScanning    MonitorState = "scanning"
	MonitorReconciling MonitorState = "reconciling"
	MonitorNotifying   MonitorState = "notifying"
)

// ScanReport summarises one monitor tick.
type ScanReport struct {
	StartedAt         time.Time          `json:"started_at"`
	FinishedAt        time.Time          `json:"finished_at"`
	Manual            bool               `json:"manual"`
	Skipped           bool               `json:"skipped"`
	BucketsScanned    int                `json:"buckets_scanned"`
	ConflictsDetected int                `json:"conflicts_detected"`
	NewConflicts      int                `json:"new_conflicts"`
	Notified          int                `json:"notified"`
	SeverityBreakdown SeverityBreakdown  `json:"severity_breakdown"`
	Conflicts         []ScheduleConflict `json:"conflicts,omitempty"`
	Error             string             `json:"error,omitempty"`
}

// MonitorStatus is the public view of the monitor.
type MonitorStatus struct {
	State        MonitorState `json:"state"`
	Running      bool         `json:"running"`
	ScanInterval string       `json:"scan_interval"`
	AdminID      string       `json:"admin_id"`
	LastReport   *ScanReport  `json:"last_report,omitempty"`
}
