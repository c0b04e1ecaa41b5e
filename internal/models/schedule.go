package models

import (
	"fmt"
	"time"
)

// Weekday names accepted for ScheduleRecord.Day.
const (
	Monday    = "Monday"
	Tuesday   = "Tuesday"
	Wednesday = "Wednesday"
	Thursday  = "Thursday"
	Friday    = "Friday"
	Saturday  = "Saturday"
	Sunday    = "Sunday"
)

// ScheduleRecord is a single room booking. Mongo documents keep the legacy
// timetable field names.
type ScheduleRecord struct {
	ID         string    `db:"id" json:"id" bson:"-"`
	RoomID     string    `db:"room_id" json:"room_id" bson:"Room ID"`
	Day        string    `db:"day" json:"day" bson:"Day"`
	Date       *string   `db:"date" json:"date,omitempty" bson:"Date,omitempty"`
	Start      string    `db:"start_time" json:"start" bson:"Start"`
	End        string    `db:"end_time" json:"end" bson:"End"`
	Course     string    `db:"course" json:"course" bson:"Course"`
	Department string    `db:"department" json:"department" bson:"Department"`
	Lecturer   string    `db:"lecturer" json:"lecturer" bson:"Lecturer"`
	Year       string    `db:"year" json:"year" bson:"Year"`
	Status     string    `db:"status" json:"status" bson:"Status"`
	CreatedAt  time.Time `db:"created_at" json:"created_at" bson:"created_at"`
	UpdatedAt  time.Time `db:"updated_at" json:"updated_at" bson:"updated_at"`
}

// TimeRange renders the record as "start-end".
func (r ScheduleRecord) TimeRange() string {
	return fmt.Sprintf("%s-%s", r.Start, r.End)
}

// SameIdentity compares the matching tuple (room, day, start, end, course).
func (r ScheduleRecord) SameIdentity(other ScheduleRecord) bool {
	return r.RoomID == other.RoomID &&
		r.Day == other.Day &&
		r.Start == other.Start &&
		r.End == other.End &&
		r.Course == other.Course
}

// Summary projects the record into the shape embedded in conflicts.
func (r ScheduleRecord) Summary() ScheduleSummary {
	return ScheduleSummary{
		ScheduleID: r.ID,
		Course:     r.Course,
		Department: r.Department,
		Lecturer:   r.Lecturer,
		Start:      r.Start,
		End:        r.End,
		Time:       r.TimeRange(),
	}
}

// ScheduleFilter describes query params for listing schedules.
type ScheduleFilter struct {
	RoomID   string
	Day      string
	Page     int
	PageSize int
}

// ScheduleSelector locates the source record of a reallocation.
type ScheduleSelector struct {
	RoomID string `json:"room_id" validate:"required"`
	Day    string `json:"day,omitempty"`
	Start  string `json:"start,omitempty"`
	End    string `json:"end,omitempty"`
	Course string `json:"course,omitempty"`
}

// RoomDayBucket is one room+day combination with its schedule count.
type RoomDayBucket struct {
	RoomID string `db:"room_id" json:"room_id" bson:"room_id"`
	Day    string `db:"day" json:"day" bson:"day"`
	Count  int    `db:"schedule_count" json:"count" bson:"count"`
}

// InvalidSchedule reports a record that could not be normalized.
type InvalidSchedule struct {
	Index  int    `json:"index"`
	ID     string `json:"id,omitempty"`
	Issue  string `json:"issue"`
	Start  string `json:"start"`
	End    string `json:"end"`
	Course string `json:"course"`
}
