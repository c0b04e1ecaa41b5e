package service

import (
	"database/sql"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/mongo"

	"github.com/noah-isme/sma-room-scheduler/internal/dto"
	"github.com/noah-isme/sma-room-scheduler/internal/models"
	"github.com/noah-isme/sma-room-scheduler/internal/timeslot"
	appErrors "github.com/noah-isme/sma-room-scheduler/pkg/errors"
)

// Conflict pagination bounds used in SCHEDULE_CONFLICT details.
const (
	defaultConflictsPerPage = 10
	maxConflictsPerPage     = 50
)

func isNotFound(err error) bool {
	return errors.Is(err, sql.ErrNoRows) || errors.Is(err, mongo.ErrNoDocuments)
}

// storeError maps a store failure to NOT_FOUND or SERVICE_UNAVAILABLE.
func storeError(err error, notFoundMsg, unavailableMsg string) error {
	if isNotFound(err) && notFoundMsg != "" {
		return appErrors.Clone(appErrors.ErrNotFound, notFoundMsg)
	}
	return appErrors.Unavailable(err, unavailableMsg)
}

func validationError(err error, message string) error {
	if err == nil {
		return appErrors.Clone(appErrors.ErrValidation, message)
	}
	return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, message)
}

// scheduleConflictError wraps the conflicts, paginated, in a SCHEDULE_CONFLICT error.
func scheduleConflictError(message string, conflicts []models.ScheduleConflict, page, perPage int) error {
	items, info := models.Paginate(conflicts, page, perPage, defaultConflictsPerPage, maxConflictsPerPage)
	if message == "" {
		message = fmt.Sprintf("%d schedule conflict(s) detected", len(conflicts))
	}
	return appErrors.WithDetails(appErrors.ErrScheduleConflict, message, dto.ConflictDetails{Conflicts: items, Pagination: info})
}

// normalizeSlot canonicalizes a requested day and time window.
func normalizeSlot(day, start, end string) (string, string, string, error) {
	normalizedDay, ok := timeslot.NormalizeDay(day)
	if !ok {
		return "", "", "", validationError(nil, fmt.Sprintf("invalid day %q, expected Monday to Sunday", day))
	}
	s, ok := timeslot.Normalize(start)
	if !ok {
		return "", "", "", validationError(nil, fmt.Sprintf("invalid start time %q, use HH:MM", start))
	}
	e, ok := timeslot.Normalize(end)
	if !ok {
		return "", "", "", validationError(nil, fmt.Sprintf("invalid end time %q, use HH:MM", end))
	}
	if !timeslot.Before(s, e) {
		return "", "", "", validationError(nil, "end time must be after start time")
	}
	return normalizedDay, s, e, nil
}
