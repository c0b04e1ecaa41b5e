package dto

import "github.com/noah-isme/sma-room-scheduler/internal/models"

// InjectScheduleRequest books a new class into a room.
type InjectScheduleRequest struct {
	RoomID     string  `json:"room_id" validate:"required"`
	Day        string  `json:"day" validate:"required"`
	Date       *string `json:"date,omitempty" validate:"omitempty,datetime=2006-01-02"`
	Start      string  `json:"start_time" validate:"required"`
	End        string  `json:"end_time" validate:"required"`
	Course     string  `json:"course" validate:"required"`
	Department string  `json:"department"`
	Lecturer   string  `json:"lecturer"`
	Year       string  `json:"year"`
	Status     string  `json:"status"`
}

// ScheduleChanges lists the destination fields of a reallocation. Empty
// fields keep the source record's value.
type ScheduleChanges struct {
	RoomID     string  `json:"room_id,omitempty"`
	Day        string  `json:"day,omitempty"`
	Date       *string `json:"date,omitempty" validate:"omitempty,datetime=2006-01-02"`
	Start      string  `json:"start_time,omitempty"`
	End        string  `json:"end_time,omitempty"`
	Course     string  `json:"course,omitempty"`
	Department string  `json:"department,omitempty"`
	Lecturer   string  `json:"lecturer,omitempty"`
	Year       string  `json:"year,omitempty"`
	Status     string  `json:"status,omitempty"`
}

// ReallocateRequest moves one booking, located by room plus the optional
// original day, times and course.
type ReallocateRequest struct {
	RoomID         string          `json:"room_id" validate:"required"`
	OriginalDay    string          `json:"original_day,omitempty"`
	OriginalStart  string          `json:"original_start_time,omitempty"`
	OriginalEnd    string          `json:"original_end_time,omitempty"`
	OriginalCourse string          `json:"original_course,omitempty"`
	NewSchedule    ScheduleChanges `json:"new_schedule"`
	Page           int             `json:"page,omitempty" validate:"omitempty,min=1"`
	PerPage        int             `json:"per_page,omitempty" validate:"omitempty,min=1"`
}

// Selector returns the source-record selector of the request.
func (r ReallocateRequest) Selector() models.ScheduleSelector {
	return models.ScheduleSelector{
		RoomID: r.RoomID,
		Day:    r.OriginalDay,
		Start:  r.OriginalStart,
		End:    r.OriginalEnd,
		Course: r.OriginalCourse,
	}
}

// ReallocationCheck is the dry-run answer for a move.
type ReallocationCheck struct {
	Valid      bool                      `json:"valid"`
	Original   models.ScheduleRecord     `json:"original_schedule"`
	Proposed   models.ScheduleRecord     `json:"new_schedule"`
	Conflicts  []models.ScheduleConflict `json:"conflicts"`
	Pagination models.PageInfo           `json:"pagination"`
}

// ReallocationResult reports a committed move.
type ReallocationResult struct {
	Message  string                `json:"message"`
	Original models.ScheduleRecord `json:"original_schedule"`
	Updated  models.ScheduleRecord `json:"new_schedule"`
}

// ConflictDetails is the error payload of a rejected booking.
type ConflictDetails struct {
	Conflicts  []models.ScheduleConflict `json:"conflicts"`
	Pagination models.PageInfo           `json:"pagination"`
}

// AmbiguousScheduleDetails lists the records matching an under-specified selector.
type AmbiguousScheduleDetails struct {
	MatchingSchedules []models.ScheduleSummary `json:"matching_schedules"`
}
