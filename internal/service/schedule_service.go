package service

import (
	"context"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-room-scheduler/internal/dto"
	"github.com/noah-isme/sma-room-scheduler/internal/models"
	"github.com/noah-isme/sma-room-scheduler/internal/timeslot"
)

const defaultSchedulesPerPage = 20

type scheduleBookingStore interface {
	List(ctx context.Context, filter models.ScheduleFilter) ([]models.ScheduleRecord, int, error)
	FindByRoomDay(ctx context.Context, roomID, day string) ([]models.ScheduleRecord, error)
	Create(ctx context.Context, record *models.ScheduleRecord) error
}

// ScheduleService lists bookings and injects new ones after a conflict check.
type ScheduleService struct {
	store     scheduleBookingStore
	analyzer  *ConflictAnalyzer
	cache     *CacheService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewScheduleService instantiates ScheduleService.
func NewScheduleService(store scheduleBookingStore, analyzer *ConflictAnalyzer, cache *CacheService, validate *validator.Validate, logger *zap.Logger) *ScheduleService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if analyzer == nil {
		analyzer = NewConflictAnalyzer(logger)
	}
	return &ScheduleService{store: store, analyzer: analyzer, cache: cache, validator: validate, logger: logger}
}

// List returns schedules with pagination metadata.
func (s *ScheduleService) List(ctx context.Context, filter models.ScheduleFilter) ([]models.ScheduleRecord, *models.PageInfo, error) {
	if filter.Day != "" {
		day, ok := timeslot.NormalizeDay(filter.Day)
		if !ok {
			return nil, nil, validationError(nil, "invalid day filter")
		}
		filter.Day = day
	}
	if filter.PageSize <= 0 || filter.PageSize > 100 {
		filter.PageSize = defaultSchedulesPerPage
	}
	if filter.Page < 1 {
		filter.Page = 1
	}

	records, total, err := s.store.List(ctx, filter)
	if err != nil {
		return nil, nil, storeError(err, "", "failed to list schedules")
	}
	if records == nil {
		records = []models.ScheduleRecord{}
	}
	info := models.NewPageInfo(filter.Page, filter.PageSize, total, defaultSchedulesPerPage, 100)
	return records, &info, nil
}

// ListByRoom returns a room's schedules, optionally restricted to one day.
func (s *ScheduleService) ListByRoom(ctx context.Context, roomID string, filter models.ScheduleFilter) ([]models.ScheduleRecord, *models.PageInfo, error) {
	roomID = strings.TrimSpace(roomID)
	if roomID == "" {
		return nil, nil, validationError(nil, "room id is required")
	}
	filter.RoomID = roomID
	return s.List(ctx, filter)
}

// Inject books a new class after checking the room and day for overlaps.
func (s *ScheduleService) Inject(ctx context.Context, req dto.InjectScheduleRequest) (*models.ScheduleRecord, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid schedule payload")
	}

	day, start, end, err := normalizeSlot(req.Day, req.Start, req.End)
	if err != nil {
		return nil, err
	}

	status := req.Status
	if status == "" {
		status = "Booked"
	}
	record := models.ScheduleRecord{
		RoomID:     strings.TrimSpace(req.RoomID),
		Day:        day,
		Date:       req.Date,
		Start:      start,
		End:        end,
		Course:     strings.TrimSpace(req.Course),
		Department: req.Department,
		Lecturer:   req.Lecturer,
		Year:       req.Year,
		Status:     status,
	}

	existing, err := s.store.FindByRoomDay(ctx, record.RoomID, record.Day)
	if err != nil {
		return nil, storeError(err, "", "failed to load room schedules")
	}
	if conflicts := s.analyzer.Check(record, existing); len(conflicts) > 0 {
		s.logger.Sugar().Infow("schedule injection rejected", "room_id", record.RoomID, "day", record.Day, "time", record.TimeRange(), "conflicts", len(conflicts))
		return nil, scheduleConflictError("", conflicts, 1, defaultConflictsPerPage)
	}

	if err := s.store.Create(ctx, &record); err != nil {
		return nil, storeError(err, "", "failed to create schedule")
	}
	s.cache.InvalidateDays(ctx, record.Day)
	s.logger.Sugar().Infow("schedule injected", "schedule_id", record.ID, "room_id", record.RoomID, "day", record.Day, "time", record.TimeRange())
	return &record, nil
}
