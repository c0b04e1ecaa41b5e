package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-room-scheduler/internal/dto"
	"github.com/noah-isme/sma-room-scheduler/internal/models"
	"github.com/noah-isme/sma-room-scheduler/internal/timeslot"
	appErrors "github.com/noah-isme/sma-room-scheduler/pkg/errors"
)

const reallocatedMessage = "Schedule reallocated successfully"

type reallocationStore interface {
	FindMatching(ctx context.Context, selector models.ScheduleSelector) ([]models.ScheduleRecord, error)
	FindByRoomDay(ctx context.Context, roomID, day string) ([]models.ScheduleRecord, error)
	Replace(ctx context.Context, record *models.ScheduleRecord) error
}

// ReallocationService moves an existing booking to a new room or time.
type ReallocationService struct {
	store     reallocationStore
	analyzer  *ConflictAnalyzer
	cache     *CacheService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewReallocationService constructs the reallocation workflow.
func NewReallocationService(store reallocationStore, analyzer *ConflictAnalyzer, cache *CacheService, validate *validator.Validate, logger *zap.Logger) *ReallocationService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if analyzer == nil {
		analyzer = NewConflictAnalyzer(logger)
	}
	return &ReallocationService{store: store, analyzer: analyzer, cache: cache, validator: validate, logger: logger}
}

type plannedMove struct {
	source    models.ScheduleRecord
	proposed  models.ScheduleRecord
	conflicts []models.ScheduleConflict
}

// ValidateMove resolves the source booking, builds the destination and
// returns the conflicts the destination would cause.
func (s *ReallocationService) ValidateMove(ctx context.Context, req dto.ReallocateRequest) ([]models.ScheduleConflict, *models.ScheduleRecord, error) {
	move, err := s.plan(ctx, req)
	if err != nil {
		return nil, nil, err
	}
	return move.conflicts, &move.proposed, nil
}

// Check is the dry-run form of Reallocate.
func (s *ReallocationService) Check(ctx context.Context, req dto.ReallocateRequest) (*dto.ReallocationCheck, error) {
	move, err := s.plan(ctx, req)
	if err != nil {
		return nil, err
	}
	items, info := models.Paginate(move.conflicts, req.Page, req.PerPage, defaultConflictsPerPage, maxConflictsPerPage)
	return &dto.ReallocationCheck{
		Valid:      len(move.conflicts) == 0,
		Original:   move.source,
		Proposed:   move.proposed,
		Conflicts:  items,
		Pagination: info,
	}, nil
}

// Reallocate replaces the source booking with the destination when no
// conflict is found.
func (s *ReallocationService) Reallocate(ctx context.Context, req dto.ReallocateRequest) (*dto.ReallocationResult, error) {
	move, err := s.plan(ctx, req)
	if err != nil {
		return nil, err
	}
	if len(move.conflicts) > 0 {
		s.logger.Sugar().Infow("reallocation rejected", "room_id", move.proposed.RoomID, "day", move.proposed.Day, "time", move.proposed.TimeRange(), "conflicts", len(move.conflicts))
		message := fmt.Sprintf("cannot move %s to %s on %s %s: %d conflict(s)", move.source.Course, move.proposed.RoomID, move.proposed.Day, move.proposed.TimeRange(), len(move.conflicts))
		return nil, scheduleConflictError(message, move.conflicts, req.Page, req.PerPage)
	}

	updated := move.proposed
	if err := s.store.Replace(ctx, &updated); err != nil {
		return nil, storeError(err, "schedule no longer exists", "failed to update schedule")
	}
	s.cache.InvalidateDays(ctx, move.source.Day, updated.Day)
	s.logger.Sugar().Infow("schedule reallocated",
		"schedule_id", updated.ID,
		"from", fmt.Sprintf("%s %s %s", move.source.RoomID, move.source.Day, move.source.TimeRange()),
		"to", fmt.Sprintf("%s %s %s", updated.RoomID, updated.Day, updated.TimeRange()),
	)
	return &dto.ReallocationResult{Message: reallocatedMessage, Original: move.source, Updated: updated}, nil
}

func (s *ReallocationService) plan(ctx context.Context, req dto.ReallocateRequest) (*plannedMove, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid reallocation payload")
	}
	selector, err := normalizeSelector(req.Selector())
	if err != nil {
		return nil, err
	}

	source, err := s.resolveSource(ctx, selector)
	if err != nil {
		return nil, err
	}
	proposed, err := buildDestination(source, req.NewSchedule)
	if err != nil {
		return nil, err
	}

	move := &plannedMove{source: source, proposed: proposed, conflicts: []models.ScheduleConflict{}}
	if !movesSlot(source, proposed) {
		return move, nil
	}

	existing, err := s.store.FindByRoomDay(ctx, proposed.RoomID, proposed.Day)
	if err != nil {
		return nil, storeError(err, "", "failed to load destination schedules")
	}
	others := make([]models.ScheduleRecord, 0, len(existing))
	for _, record := range existing {
		if isSameBooking(record, source) {
			continue
		}
		others = append(others, record)
	}
	move.conflicts = s.analyzer.Check(proposed, others)
	return move, nil
}

func normalizeSelector(selector models.ScheduleSelector) (models.ScheduleSelector, error) {
	selector.RoomID = strings.TrimSpace(selector.RoomID)
	if selector.Day != "" {
		day, ok := timeslot.NormalizeDay(selector.Day)
		if !ok {
			return selector, validationError(nil, fmt.Sprintf("invalid original_day %q", selector.Day))
		}
		selector.Day = day
	}
	for _, field := range []*string{&selector.Start, &selector.End} {
		if *field == "" {
			continue
		}
		normalized, ok := timeslot.Normalize(*field)
		if !ok {
			return selector, validationError(nil, fmt.Sprintf("invalid original time %q, use HH:MM", *field))
		}
		*field = normalized
	}
	selector.Course = strings.TrimSpace(selector.Course)
	return selector, nil
}

func (s *ReallocationService) resolveSource(ctx context.Context, selector models.ScheduleSelector) (models.ScheduleRecord, error) {
	matches, err := s.store.FindMatching(ctx, selector)
	if err != nil {
		return models.ScheduleRecord{}, storeError(err, "original schedule not found", "failed to look up schedule")
	}
	switch len(matches) {
	case 0:
		return models.ScheduleRecord{}, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("no schedule found in room %s matching the original details", selector.RoomID))
	case 1:
		return matches[0], nil
	default:
		summaries := make([]models.ScheduleSummary, 0, len(matches))
		for _, match := range matches {
			summary := match.Summary()
			summaries = append(summaries, summary)
		}
		message := fmt.Sprintf("%d schedules match in room %s; add original_day, original_start_time, original_end_time or original_course", len(matches), selector.RoomID)
		return models.ScheduleRecord{}, appErrors.WithDetails(appErrors.ErrAmbiguousSchedule, message, dto.AmbiguousScheduleDetails{MatchingSchedules: summaries})
	}
}

// buildDestination applies the changes over the source and validates the
// resulting slot.
func buildDestination(source models.ScheduleRecord, changes dto.ScheduleChanges) (models.ScheduleRecord, error) {
	dest := source
	pick := func(value, fallback string) string {
		if v := strings.TrimSpace(value); v != "" {
			return v
		}
		return fallback
	}
	dest.RoomID = pick(changes.RoomID, source.RoomID)
	dest.Course = pick(changes.Course, source.Course)
	dest.Department = pick(changes.Department, source.Department)
	dest.Lecturer = pick(changes.Lecturer, source.Lecturer)
	dest.Year = pick(changes.Year, source.Year)
	dest.Status = pick(changes.Status, source.Status)
	if changes.Date != nil {
		dest.Date = changes.Date
	}

	day, start, end, err := normalizeSlot(
		pick(changes.Day, source.Day),
		pick(changes.Start, source.Start),
		pick(changes.End, source.End),
	)
	if err != nil {
		return dest, err
	}
	dest.Day, dest.Start, dest.End = day, start, end
	return dest, nil
}

// movesSlot reports whether the destination occupies a different room or time.
func movesSlot(source, dest models.ScheduleRecord) bool {
	sourceStart, sourceEnd, ok := timeslot.NormalizeRange(source.Start, source.End)
	if !ok {
		return true
	}
	sourceDay, _ := timeslot.NormalizeDay(source.Day)
	return source.RoomID != dest.RoomID ||
		sourceDay != dest.Day ||
		sourceStart != dest.Start ||
		sourceEnd != dest.End
}

func isSameBooking(record, source models.ScheduleRecord) bool {
	if record.ID != "" && source.ID != "" {
		return record.ID == source.ID
	}
	return record.SameIdentity(source)
}
