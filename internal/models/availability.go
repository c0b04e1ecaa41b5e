package models

import "github.com/noah-isme/sma-room-scheduler/internal/timeslot"

// Analysis types reported by the overlap check.
const (
	AnalysisTargeted = "targeted"
	AnalysisAllPairs = "all_pairs"
)

// BusinessWindow is the opening window used for a day.
type BusinessWindow struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// UtilizationAnalysis describes how much of the business window is booked.
type UtilizationAnalysis struct {
	ScheduledMinutes int     `json:"scheduled_minutes"`
	ScheduledTime    string  `json:"total_scheduled_time"`
	BusinessMinutes  int     `json:"business_minutes"`
	BusinessTime     string  `json:"total_business_time"`
	Percentage       float64 `json:"utilization_percentage"`
	Status           string  `json:"utilization_status"`
}

// FreeTimeAnalysis lists the remaining free slots.
type FreeTimeAnalysis struct {
	TotalFreeSlots    int                 `json:"total_free_slots"`
	FreeSlots         []timeslot.FreeSlot `json:"free_slots"`
	LongestFreePeriod string              `json:"longest_free_period"`
}

// DataQualityReport lists records skipped for bad data.
type DataQualityReport struct {
	InvalidSchedules []InvalidSchedule `json:"invalid_schedules"`
	TotalInvalid     int               `json:"total_invalid"`
}

// SpecificTimeCheck answers whether a requested window is free.
type SpecificTimeCheck struct {
	RequestedTime  string             `json:"requested_time"`
	IsAvailable    bool               `json:"is_available"`
	Conflicts      []ScheduleConflict `json:"conflicts"`
	Recommendation string             `json:"recommendation"`
}

// OverlapReport is the result of an overlap check for a room and day.
type OverlapReport struct {
	AnalysisType    string              `json:"analysis_type"`
	RoomID          string              `json:"room_id"`
	Day             string              `json:"day"`
	TotalSchedules  int                 `json:"total_schedules"`
	Conflicts       []ScheduleConflict  `json:"conflicts"`
	Pagination      PageInfo            `json:"pagination"`
	BusinessHours   BusinessWindow      `json:"business_hours"`
	Utilization     UtilizationAnalysis `json:"utilization"`
	FreeTime        FreeTimeAnalysis    `json:"free_time"`
	DataQuality     DataQualityReport   `json:"data_quality"`
	SpecificTime    *SpecificTimeCheck  `json:"specific_time_check,omitempty"`
	Recommendations []string            `json:"recommendations"`
}

// RoomAvailability describes one room for a requested slot.
type RoomAvailability struct {
	RoomID           string              `json:"room_id"`
	Status           string              `json:"status"`
	FreeSlots        []timeslot.FreeSlot `json:"free_slots"`
	TotalFreeMinutes int                 `json:"total_free_minutes"`
	RequestedSlot    RequestedSlot       `json:"requested_slot"`
	TotalSchedules   int                 `json:"total_schedules"`
	BusinessHours    BusinessWindow      `json:"business_hours"`
	Conflict         *ScheduleSummary    `json:"conflict,omitempty"`
}

// RequestedSlot echoes the requested booking window.
type RequestedSlot struct {
	Start    string `json:"start"`
	End      string `json:"end"`
	Duration string `json:"duration"`
}

// Room statuses for suggestions.
const (
	RoomAvailable  = "Available"
	RoomConflicted = "Conflicted"
)

// RoomSuggestions is the result of a room suggestion request.
type RoomSuggestions struct {
	Status          string             `json:"status"`
	Message         string             `json:"message"`
	Day             string             `json:"day"`
	Date            *string            `json:"date,omitempty"`
	Time            string             `json:"time"`
	BusinessHours   BusinessWindow     `json:"business_hours"`
	SuggestedRooms  []RoomAvailability `json:"suggested_rooms"`
	ConflictedRooms []RoomAvailability `json:"conflicted_rooms"`
	TotalAvailable  int                `json:"total_available"`
	TotalConflicted int                `json:"total_conflicted"`
	Analysis        *SuggestionStats   `json:"analysis,omitempty"`
}

// SuggestionStats carries counts about a suggestion run.
type SuggestionStats struct {
	RequestedDuration  string `json:"requested_duration"`
	TotalRoomsAnalyzed int    `json:"total_rooms_analyzed"`
	RoomsWithSchedules int    `json:"rooms_with_schedules"`
}

// FreeSlotReport lists free slots for a room and day.
type FreeSlotReport struct {
	RoomID        string              `json:"room_id"`
	Day           string              `json:"day"`
	BusinessHours BusinessWindow      `json:"business_hours"`
	Occupied      []timeslot.Interval `json:"occupied"`
	FreeSlots     []timeslot.FreeSlot `json:"free_slots"`
}
