package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sma-room-scheduler/internal/models"
)

const scheduleColumns = "id, room_id, day, date, start_time, end_time, course, department, lecturer, year, status, created_at, updated_at"

// ScheduleRepository provides persistence for room bookings.
type ScheduleRepository struct {
	db *sqlx.DB
}

// NewScheduleRepository creates a new schedule repository.
func NewScheduleRepository(db *sqlx.DB) *ScheduleRepository {
	return &ScheduleRepository{db: db}
}

// List returns schedules filtered by room and day, ordered by day and start.
func (r *ScheduleRepository) List(ctx context.Context, filter models.ScheduleFilter) ([]models.ScheduleRecord, int, error) {
	base := "FROM schedules WHERE 1=1"
	var args []interface{}

	if filter.RoomID != "" {
		args = append(args, filter.RoomID)
		base += fmt.Sprintf(" AND room_id = $%d", len(args))
	}
	if filter.Day != "" {
		args = append(args, filter.Day)
		base += fmt.Sprintf(" AND day = $%d", len(args))
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf("SELECT %s %s ORDER BY room_id ASC, day ASC, start_time ASC LIMIT %d OFFSET %d", scheduleColumns, base, size, offset)
	var schedules []models.ScheduleRecord
	if err := r.db.SelectContext(ctx, &schedules, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list schedules: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) "+base, args...); err != nil {
		return nil, 0, fmt.Errorf("count schedules: %w", err)
	}

	return schedules, total, nil
}

// FindByID loads a schedule by id.
func (r *ScheduleRepository) FindByID(ctx context.Context, id string) (*models.ScheduleRecord, error) {
	query := fmt.Sprintf("SELECT %s FROM schedules WHERE id = $1", scheduleColumns)
	var record models.ScheduleRecord
	if err := r.db.GetContext(ctx, &record, query, id); err != nil {
		return nil, err
	}
	return &record, nil
}

// FindByRoomDay returns every booking of a room on a day in start order.
func (r *ScheduleRepository) FindByRoomDay(ctx context.Context, roomID, day string) ([]models.ScheduleRecord, error) {
	query := fmt.Sprintf("SELECT %s FROM schedules WHERE room_id = $1 AND day = $2 ORDER BY start_time ASC, id ASC", scheduleColumns)
	var schedules []models.ScheduleRecord
	if err := r.db.SelectContext(ctx, &schedules, query, roomID, day); err != nil {
		return nil, fmt.Errorf("find schedules for %s/%s: %w", roomID, day, err)
	}
	return schedules, nil
}

// FindByDay returns every booking on a day across rooms.
func (r *ScheduleRepository) FindByDay(ctx context.Context, day string) ([]models.ScheduleRecord, error) {
	query := fmt.Sprintf("SELECT %s FROM schedules WHERE day = $1 ORDER BY room_id ASC, start_time ASC", scheduleColumns)
	var schedules []models.ScheduleRecord
	if err := r.db.SelectContext(ctx, &schedules, query, day); err != nil {
		return nil, fmt.Errorf("find schedules for %s: %w", day, err)
	}
	return schedules, nil
}

// DistinctRooms lists every room that has at least one booking.
func (r *ScheduleRepository) DistinctRooms(ctx context.Context) ([]string, error) {
	var rooms []string
	if err := r.db.SelectContext(ctx, &rooms, `SELECT DISTINCT room_id FROM schedules ORDER BY room_id ASC`); err != nil {
		return nil, fmt.Errorf("list rooms: %w", err)
	}
	return rooms, nil
}

// ListConflictBuckets returns the room+day combinations holding two or more
// bookings, the only places a conflict can exist.
func (r *ScheduleRepository) ListConflictBuckets(ctx context.Context) ([]models.RoomDayBucket, error) {
	const query = `SELECT room_id, day, COUNT(*) AS schedule_count FROM schedules GROUP BY room_id, day HAVING COUNT(*) > 1 ORDER BY room_id ASC, day ASC`
	var buckets []models.RoomDayBucket
	if err := r.db.SelectContext(ctx, &buckets, query); err != nil {
		return nil, fmt.Errorf("list conflict buckets: %w", err)
	}
	return buckets, nil
}

// FindMatching returns schedules matching every non-empty selector field.
func (r *ScheduleRepository) FindMatching(ctx context.Context, selector models.ScheduleSelector) ([]models.ScheduleRecord, error) {
	conditions := []string{"room_id = $1"}
	args := []interface{}{selector.RoomID}
	for _, field := range []struct {
		column string
		value  string
	}{
		{"day", selector.Day},
		{"start_time", selector.Start},
		{"end_time", selector.End},
		{"course", selector.Course},
	} {
		if field.value == "" {
			continue
		}
		args = append(args, field.value)
		conditions = append(conditions, fmt.Sprintf("%s = $%d", field.column, len(args)))
	}

	query := fmt.Sprintf("SELECT %s FROM schedules WHERE %s ORDER BY day ASC, start_time ASC", scheduleColumns, strings.Join(conditions, " AND "))
	var schedules []models.ScheduleRecord
	if err := r.db.SelectContext(ctx, &schedules, query, args...); err != nil {
		return nil, fmt.Errorf("find matching schedules: %w", err)
	}
	return schedules, nil
}

// Create stores a new schedule record.
func (r *ScheduleRepository) Create(ctx context.Context, record *models.ScheduleRecord) error {
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if record.CreatedAt.IsZero() {
		record.CreatedAt = now
	}
	record.UpdatedAt = now

	const query = `INSERT INTO schedules (id, room_id, day, date, start_time, end_time, course, department, lecturer, year, status, created_at, updated_at) VALUES (:id, :room_id, :day, :date, :start_time, :end_time, :course, :department, :lecturer, :year, :status, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, record); err != nil {
		return fmt.Errorf("create schedule: %w", err)
	}
	return nil
}

// Replace overwrites every mutable field of the record with the given id.
// It returns sql.ErrNoRows when the record no longer exists.
func (r *ScheduleRepository) Replace(ctx context.Context, record *models.ScheduleRecord) error {
	record.UpdatedAt = time.Now().UTC()
	const query = `UPDATE schedules SET room_id = :room_id, day = :day, date = :date, start_time = :start_time, end_time = :end_time, course = :course, department = :department, lecturer = :lecturer, year = :year, status = :status, updated_at = :updated_at WHERE id = :id`
	res, err := r.db.NamedExecContext(ctx, query, record)
	if err != nil {
		return fmt.Errorf("replace schedule: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("replace schedule rows: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
