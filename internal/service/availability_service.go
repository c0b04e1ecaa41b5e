package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-room-scheduler/internal/dto"
	"github.com/noah-isme/sma-room-scheduler/internal/models"
	"github.com/noah-isme/sma-room-scheduler/internal/timeslot"
)

// Utilization thresholds in percent of the business window.
const (
	utilizationHigh      = 75.0
	utilizationMedium    = 40.0
	overUtilizedPercent  = 85.0
	underUtilizedPercent = 40.0
	fragmentedSlotCount  = 3
)

const (
	suggestionStatusOK    = "success"
	suggestionStatusWarn  = "warning"
	noFreePeriodAvailable = "None"
)

type availabilityStore interface {
	FindByRoomDay(ctx context.Context, roomID, day string) ([]models.ScheduleRecord, error)
	FindByDay(ctx context.Context, day string) ([]models.ScheduleRecord, error)
	DistinctRooms(ctx context.Context) ([]string, error)
}

// AvailabilityService answers overlap, free-slot and room suggestion queries.
type AvailabilityService struct {
	store     availabilityStore
	analyzer  *ConflictAnalyzer
	hours     *timeslot.BusinessHours
	cache     *CacheService
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewAvailabilityService wires the availability queries.
func NewAvailabilityService(store availabilityStore, analyzer *ConflictAnalyzer, hours *timeslot.BusinessHours, cache *CacheService, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger) *AvailabilityService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if analyzer == nil {
		analyzer = NewConflictAnalyzer(logger)
	}
	if hours == nil {
		hours = timeslot.DefaultBusinessHours()
	}
	return &AvailabilityService{
		store:     store,
		analyzer:  analyzer,
		hours:     hours,
		cache:     cache,
		metrics:   metrics,
		validator: validate,
		logger:    logger,
	}
}

// CheckOverlap analyses a room's day. With a requested window it runs the
// targeted check, otherwise it reports every overlapping pair.
func (s *AvailabilityService) CheckOverlap(ctx context.Context, req dto.OverlapCheckRequest) (*models.OverlapReport, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid overlap check payload")
	}

	roomID := strings.TrimSpace(req.RoomID)
	day, ok := timeslot.NormalizeDay(req.Day)
	if !ok {
		return nil, validationError(nil, fmt.Sprintf("invalid day %q, expected Monday to Sunday", req.Day))
	}

	targeted := req.Start != "" || req.End != ""
	var start, end string
	if targeted {
		if req.Start == "" || req.End == "" {
			return nil, validationError(nil, "start_time and end_time must be provided together")
		}
		var err error
		if day, start, end, err = normalizeSlot(day, req.Start, req.End); err != nil {
			return nil, err
		}
	}

	// Overlaps are still analysed on days without business hours; only
	// utilization and free time depend on the window.
	openAt, closeAt, err := s.hours.For(day)
	if err != nil && !errors.Is(err, timeslot.ErrNoBusinessHours) {
		return nil, validationError(err, err.Error())
	}

	key := AvailabilityKey(day, roomID, start, end)
	var report models.OverlapReport
	if !s.cache.Get(ctx, key, &report) {
		records, err := s.findRoomDay(ctx, roomID, day)
		if err != nil {
			return nil, err
		}
		report = s.analyzeRoomDay(roomID, day, records, openAt, closeAt, start, end)
		s.cache.Set(ctx, key, report, 0)
	}

	report.Conflicts, report.Pagination = models.Paginate(report.Conflicts, req.Page, req.PerPage, defaultConflictsPerPage, maxConflictsPerPage)
	return &report, nil
}

func (s *AvailabilityService) analyzeRoomDay(roomID, day string, records []models.ScheduleRecord, openAt, closeAt, start, end string) models.OverlapReport {
	valid, invalid := s.analyzer.NormalizeRecords(records)
	if invalid == nil {
		invalid = []models.InvalidSchedule{}
	}

	report := models.OverlapReport{
		AnalysisType:   models.AnalysisAllPairs,
		RoomID:         roomID,
		Day:            day,
		TotalSchedules: len(records),
		BusinessHours:  models.BusinessWindow{Start: openAt, End: closeAt},
		DataQuality:    models.DataQualityReport{InvalidSchedules: invalid, TotalInvalid: len(invalid)},
	}

	if start != "" {
		candidate := models.ScheduleRecord{RoomID: roomID, Day: day, Start: start, End: end, Course: "Requested slot"}
		report.AnalysisType = models.AnalysisTargeted
		report.Conflicts = s.analyzer.Check(candidate, valid)
		report.SpecificTime = specificTimeCheck(candidate, report.Conflicts)
	} else {
		report.Conflicts = s.analyzer.AnalyzeAll(valid)
	}

	if openAt == "" {
		report.FreeTime = freeTime([]timeslot.FreeSlot{})
		report.Recommendations = recommendations(report)
		report.Recommendations = append(report.Recommendations, fmt.Sprintf("%s has no business hours; utilization and free time are not analysed", day))
		return report
	}

	occupied := occupiedIntervals(valid)
	slots := timeslot.FreeSlots(occupied, openAt, closeAt)
	report.Utilization = utilization(occupied, openAt, closeAt)
	report.FreeTime = freeTime(slots)
	report.Recommendations = recommendations(report)
	return report
}

func specificTimeCheck(candidate models.ScheduleRecord, conflicts []models.ScheduleConflict) *models.SpecificTimeCheck {
	check := &models.SpecificTimeCheck{
		RequestedTime: candidate.TimeRange(),
		IsAvailable:   len(conflicts) == 0,
		Conflicts:     conflicts,
	}
	if check.IsAvailable {
		check.Recommendation = fmt.Sprintf("Time slot %s is available for booking", check.RequestedTime)
	} else {
		check.Recommendation = fmt.Sprintf("Time slot %s conflicts with %d existing schedule(s); pick one of the free slots instead", check.RequestedTime, len(conflicts))
	}
	return check
}

func occupiedIntervals(records []models.ScheduleRecord) []timeslot.Interval {
	intervals := make([]timeslot.Interval, 0, len(records))
	for _, record := range records {
		intervals = append(intervals, timeslot.Interval{Start: record.Start, End: record.End})
	}
	return timeslot.Merge(intervals)
}

// utilization measures the merged booked time falling inside the window.
func utilization(occupied []timeslot.Interval, openAt, closeAt string) models.UtilizationAnalysis {
	businessMinutes := timeslot.DurationMinutes(openAt, closeAt)
	scheduled := 0
	for _, iv := range occupied {
		if !timeslot.Before(iv.Start, closeAt) || !timeslot.After(iv.End, openAt) {
			continue
		}
		scheduled += timeslot.DurationMinutes(timeslot.Later(iv.Start, openAt), timeslot.Earlier(iv.End, closeAt))
	}

	percentage := 0.0
	if businessMinutes > 0 {
		percentage = math.Round(float64(scheduled)/float64(businessMinutes)*1000) / 10
	}
	status := "Low"
	switch {
	case percentage > utilizationHigh:
		status = "High"
	case percentage > utilizationMedium:
		status = "Medium"
	}

	return models.UtilizationAnalysis{
		ScheduledMinutes: scheduled,
		ScheduledTime:    timeslot.FormatDuration(scheduled),
		BusinessMinutes:  businessMinutes,
		BusinessTime:     timeslot.FormatDuration(businessMinutes),
		Percentage:       percentage,
		Status:           status,
	}
}

func freeTime(slots []timeslot.FreeSlot) models.FreeTimeAnalysis {
	longest := 0
	for _, slot := range slots {
		if slot.DurationMinutes > longest {
			longest = slot.DurationMinutes
		}
	}
	analysis := models.FreeTimeAnalysis{TotalFreeSlots: len(slots), FreeSlots: slots, LongestFreePeriod: noFreePeriodAvailable}
	if longest > 0 {
		analysis.LongestFreePeriod = timeslot.FormatDuration(longest)
	}
	return analysis
}

func recommendations(report models.OverlapReport) []string {
	recs := make([]string, 0)
	if n := len(report.Conflicts); n > 0 {
		recs = append(recs, fmt.Sprintf("Resolve %d scheduling conflict(s) in room %s on %s", n, report.RoomID, report.Day))
	}
	if report.BusinessHours.Start != "" {
		pct := report.Utilization.Percentage
		switch {
		case pct > overUtilizedPercent:
			recs = append(recs, fmt.Sprintf("Room is over-utilized (%.1f%%); consider moving classes to other rooms", pct))
		case pct < underUtilizedPercent:
			recs = append(recs, fmt.Sprintf("Room is under-utilized (%.1f%%); it can host additional classes", pct))
		}
	}
	if report.FreeTime.TotalFreeSlots > fragmentedSlotCount {
		recs = append(recs, fmt.Sprintf("Schedule is fragmented into %d free slots; consider consolidating classes", report.FreeTime.TotalFreeSlots))
	}
	if report.DataQuality.TotalInvalid > 0 {
		recs = append(recs, fmt.Sprintf("Fix %d schedule(s) with invalid time data", report.DataQuality.TotalInvalid))
	}
	return recs
}

// FreeSlots lists the unbooked windows of a room on a day.
func (s *AvailabilityService) FreeSlots(ctx context.Context, query dto.FreeSlotsQuery) (*models.FreeSlotReport, error) {
	if err := s.validator.Struct(query); err != nil {
		return nil, validationError(err, "room_id and day are required")
	}
	day, ok := timeslot.NormalizeDay(query.Day)
	if !ok {
		return nil, validationError(nil, fmt.Sprintf("invalid day %q, expected Monday to Sunday", query.Day))
	}
	openAt, closeAt, err := s.businessWindow(day)
	if err != nil {
		return nil, err
	}

	roomID := strings.TrimSpace(query.RoomID)
	records, err := s.findRoomDay(ctx, roomID, day)
	if err != nil {
		return nil, err
	}
	valid, _ := s.analyzer.NormalizeRecords(records)
	occupied := occupiedIntervals(valid)
	if occupied == nil {
		occupied = []timeslot.Interval{}
	}

	return &models.FreeSlotReport{
		RoomID:        roomID,
		Day:           day,
		BusinessHours: models.BusinessWindow{Start: openAt, End: closeAt},
		Occupied:      occupied,
		FreeSlots:     timeslot.FreeSlots(occupied, openAt, closeAt),
	}, nil
}

// SuggestRooms ranks rooms for a requested window, free rooms first and then
// by remaining free time.
func (s *AvailabilityService) SuggestRooms(ctx context.Context, req dto.SuggestRoomsRequest) (*models.RoomSuggestions, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid room suggestion payload")
	}
	day, start, end, err := normalizeSlot(req.Day, req.Start, req.End)
	if err != nil {
		return nil, err
	}
	openAt, closeAt, err := s.businessWindow(day)
	if err != nil {
		return nil, err
	}

	result := &models.RoomSuggestions{
		Status:          suggestionStatusOK,
		Day:             day,
		Date:            req.Date,
		Time:            start + "-" + end,
		BusinessHours:   models.BusinessWindow{Start: openAt, End: closeAt},
		SuggestedRooms:  []models.RoomAvailability{},
		ConflictedRooms: []models.RoomAvailability{},
	}
	if timeslot.Before(start, openAt) || timeslot.After(end, closeAt) {
		result.Status = suggestionStatusWarn
		result.Message = fmt.Sprintf("Requested time %s is outside business hours (%s-%s)", result.Time, openAt, closeAt)
		return result, nil
	}

	rooms, byRoom, err := s.loadDay(ctx, day, strings.TrimSpace(req.RoomID))
	if err != nil {
		return nil, err
	}

	minutes := timeslot.DurationMinutes(start, end)
	requested := models.RequestedSlot{Start: start, End: end, Duration: timeslot.FormatDuration(minutes)}
	analysed := make([]models.RoomAvailability, 0, len(rooms))
	withSchedules := 0
	for _, roomID := range rooms {
		records := byRoom[roomID]
		if len(records) > 0 {
			withSchedules++
		}
		valid, _ := s.analyzer.NormalizeRecords(records)
		candidate := models.ScheduleRecord{RoomID: roomID, Day: day, Start: start, End: end}
		slots := timeslot.FreeSlots(occupiedIntervals(valid), openAt, closeAt)

		room := models.RoomAvailability{
			RoomID:           roomID,
			Status:           models.RoomAvailable,
			FreeSlots:        slots,
			TotalFreeMinutes: timeslot.TotalFreeMinutes(slots),
			RequestedSlot:    requested,
			TotalSchedules:   len(records),
			BusinessHours:    result.BusinessHours,
		}
		if conflicts := s.analyzer.Check(candidate, valid); len(conflicts) > 0 {
			first := conflicts[0].Schedule2
			room.Status = models.RoomConflicted
			room.Conflict = &first
		}
		analysed = append(analysed, room)
	}

	sort.SliceStable(analysed, func(i, j int) bool {
		a, b := analysed[i], analysed[j]
		if (a.Status == models.RoomAvailable) != (b.Status == models.RoomAvailable) {
			return a.Status == models.RoomAvailable
		}
		if a.TotalFreeMinutes != b.TotalFreeMinutes {
			return a.TotalFreeMinutes > b.TotalFreeMinutes
		}
		return a.RoomID < b.RoomID
	})
	for _, room := range analysed {
		if room.Status == models.RoomAvailable {
			result.SuggestedRooms = append(result.SuggestedRooms, room)
		} else {
			result.ConflictedRooms = append(result.ConflictedRooms, room)
		}
	}

	result.TotalAvailable = len(result.SuggestedRooms)
	result.TotalConflicted = len(result.ConflictedRooms)
	result.Message = fmt.Sprintf("Found %d available room(s) for %s %s", result.TotalAvailable, day, result.Time)
	result.Analysis = &models.SuggestionStats{
		RequestedDuration:  requested.Duration,
		TotalRoomsAnalyzed: len(analysed),
		RoomsWithSchedules: withSchedules,
	}
	return result, nil
}

// loadDay returns the rooms to analyse and the day's bookings grouped by room.
func (s *AvailabilityService) loadDay(ctx context.Context, day, onlyRoom string) ([]string, map[string][]models.ScheduleRecord, error) {
	byRoom := make(map[string][]models.ScheduleRecord)
	if onlyRoom != "" {
		records, err := s.findRoomDay(ctx, onlyRoom, day)
		if err != nil {
			return nil, nil, err
		}
		byRoom[onlyRoom] = records
		return []string{onlyRoom}, byRoom, nil
	}

	started := time.Now()
	rooms, err := s.store.DistinctRooms(ctx)
	s.metrics.ObserveStoreQuery("distinct_rooms", time.Since(started))
	if err != nil {
		return nil, nil, storeError(err, "", "failed to list rooms")
	}

	started = time.Now()
	records, err := s.store.FindByDay(ctx, day)
	s.metrics.ObserveStoreQuery("find_by_day", time.Since(started))
	if err != nil {
		return nil, nil, storeError(err, "", "failed to load schedules")
	}
	for _, record := range records {
		byRoom[record.RoomID] = append(byRoom[record.RoomID], record)
	}
	return rooms, byRoom, nil
}

func (s *AvailabilityService) findRoomDay(ctx context.Context, roomID, day string) ([]models.ScheduleRecord, error) {
	started := time.Now()
	records, err := s.store.FindByRoomDay(ctx, roomID, day)
	s.metrics.ObserveStoreQuery("find_by_room_day", time.Since(started))
	if err != nil {
		return nil, storeError(err, "", "failed to load room schedules")
	}
	return records, nil
}

func (s *AvailabilityService) businessWindow(day string) (string, string, error) {
	openAt, closeAt, err := s.hours.For(day)
	if err != nil {
		if errors.Is(err, timeslot.ErrNoBusinessHours) {
			return "", "", validationError(err, fmt.Sprintf("%s has no business hours", day))
		}
		return "", "", validationError(err, err.Error())
	}
	return openAt, closeAt, nil
}
