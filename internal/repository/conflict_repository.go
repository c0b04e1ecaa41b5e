package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/jmoiron/sqlx/types"
	"github.com/lib/pq"

	"github.com/noah-isme/sma-room-scheduler/internal/models"
)

const conflictColumns = "id, conflict_hash, room_id, day, severity, conflict_type, overlap_start, overlap_end, overlap_duration_minutes, overlap_duration, schedule1, schedule2, description, detected_at, last_detected_at, notified"

// conflictRow mirrors detected_conflicts; the schedule summaries live in JSONB.
type conflictRow struct {
	ID                     string         `db:"id"`
	ConflictHash           string         `db:"conflict_hash"`
	RoomID                 string         `db:"room_id"`
	Day                    string         `db:"day"`
	Severity               string         `db:"severity"`
	ConflictType           string         `db:"conflict_type"`
	OverlapStart           string         `db:"overlap_start"`
	OverlapEnd             string         `db:"overlap_end"`
	OverlapDurationMinutes int            `db:"overlap_duration_minutes"`
	OverlapDuration        string         `db:"overlap_duration"`
	Schedule1              types.JSONText `db:"schedule1"`
	Schedule2              types.JSONText `db:"schedule2"`
	Description            string         `db:"description"`
	DetectedAt             time.Time      `db:"detected_at"`
	LastDetectedAt         time.Time      `db:"last_detected_at"`
	Notified               bool           `db:"notified"`
}

func toConflictRow(record *models.ConflictRecord) (conflictRow, error) {
	s1, err := json.Marshal(record.Schedule1)
	if err != nil {
		return conflictRow{}, fmt.Errorf("marshal schedule1: %w", err)
	}
	s2, err := json.Marshal(record.Schedule2)
	if err != nil {
		return conflictRow{}, fmt.Errorf("marshal schedule2: %w", err)
	}
	return conflictRow{
		ID:                     record.ID,
		ConflictHash:           record.ConflictHash,
		RoomID:                 record.RoomID,
		Day:                    record.Day,
		Severity:               string(record.Severity),
		ConflictType:           string(record.ConflictType),
		OverlapStart:           record.OverlapStart,
		OverlapEnd:             record.OverlapEnd,
		OverlapDurationMinutes: record.OverlapDurationMinutes,
		OverlapDuration:        record.OverlapDuration,
		Schedule1:              types.JSONText(s1),
		Schedule2:              types.JSONText(s2),
		Description:            record.Description,
		DetectedAt:             record.DetectedAt,
		LastDetectedAt:         record.LastDetectedAt,
		Notified:               record.Notified,
	}, nil
}

func (row conflictRow) toModel() (models.ConflictRecord, error) {
	record := models.ConflictRecord{
		ID: row.ID,
		ScheduleConflict: models.ScheduleConflict{
			ConflictHash:           row.ConflictHash,
			RoomID:                 row.RoomID,
			Day:                    row.Day,
			Severity:               models.ConflictSeverity(row.Severity),
			ConflictType:           models.ConflictType(row.ConflictType),
			OverlapStart:           row.OverlapStart,
			OverlapEnd:             row.OverlapEnd,
			OverlapDurationMinutes: row.OverlapDurationMinutes,
			OverlapDuration:        row.OverlapDuration,
			Description:            row.Description,
		},
		DetectedAt:     row.DetectedAt,
		LastDetectedAt: row.LastDetectedAt,
		Notified:       row.Notified,
	}
	if err := row.Schedule1.Unmarshal(&record.Schedule1); err != nil {
		return record, fmt.Errorf("decode schedule1 of %s: %w", row.ConflictHash, err)
	}
	if err := row.Schedule2.Unmarshal(&record.Schedule2); err != nil {
		return record, fmt.Errorf("decode schedule2 of %s: %w", row.ConflictHash, err)
	}
	return record, nil
}

// ConflictRepository persists detected conflicts keyed by conflict hash.
type ConflictRepository struct {
	db *sqlx.DB
}

// NewConflictRepository creates a conflict repository.
func NewConflictRepository(db *sqlx.DB) *ConflictRepository {
	return &ConflictRepository{db: db}
}

// UpsertByHash inserts the conflict or, if the hash is already stored, only
// refreshes last_detected_at. created reports whether a new row was written.
func (r *ConflictRepository) UpsertByHash(ctx context.Context, record *models.ConflictRecord) (bool, error) {
	now := time.Now().UTC()
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	if record.DetectedAt.IsZero() {
		record.DetectedAt = now
	}
	if record.LastDetectedAt.IsZero() {
		record.LastDetectedAt = record.DetectedAt
	}

	row, err := toConflictRow(record)
	if err != nil {
		return false, err
	}

	const query = `INSERT INTO detected_conflicts (` + conflictColumns + `) VALUES (:id, :conflict_hash, :room_id, :day, :severity, :conflict_type, :overlap_start, :overlap_end, :overlap_duration_minutes, :overlap_duration, :schedule1, :schedule2, :description, :detected_at, :last_detected_at, :notified) ON CONFLICT (conflict_hash) DO UPDATE SET last_detected_at = EXCLUDED.last_detected_at RETURNING id, (xmax = 0) AS created`

	rows, err := r.db.NamedQueryContext(ctx, query, row)
	if err != nil {
		return false, fmt.Errorf("upsert conflict %s: %w", record.ConflictHash, err)
	}
	defer rows.Close()

	var result struct {
		ID      string `db:"id"`
		Created bool   `db:"created"`
	}
	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return false, fmt.Errorf("upsert conflict %s: %w", record.ConflictHash, err)
		}
		return false, fmt.Errorf("upsert conflict %s: no row returned", record.ConflictHash)
	}
	if err := rows.StructScan(&result); err != nil {
		return false, fmt.Errorf("scan upserted conflict %s: %w", record.ConflictHash, err)
	}
	record.ID = result.ID
	return result.Created, nil
}

// List returns stored conflicts, newest detection first.
func (r *ConflictRepository) List(ctx context.Context, filter models.ConflictFilter) ([]models.ConflictRecord, int, error) {
	base := "FROM detected_conflicts WHERE 1=1"
	var args []interface{}

	if filter.RoomID != "" {
		args = append(args, filter.RoomID)
		base += fmt.Sprintf(" AND room_id = $%d", len(args))
	}
	if filter.Day != "" {
		args = append(args, filter.Day)
		base += fmt.Sprintf(" AND day = $%d", len(args))
	}
	if filter.Severity != "" {
		args = append(args, string(filter.Severity))
		base += fmt.Sprintf(" AND severity = $%d", len(args))
	}
	if filter.Notified != nil {
		args = append(args, *filter.Notified)
		base += fmt.Sprintf(" AND notified = $%d", len(args))
	}

	limit := ""
	if filter.PageSize > 0 {
		page := filter.Page
		if page < 1 {
			page = 1
		}
		limit = fmt.Sprintf(" LIMIT %d OFFSET %d", filter.PageSize, (page-1)*filter.PageSize)
	}

	query := fmt.Sprintf("SELECT %s %s ORDER BY detected_at DESC, conflict_hash ASC%s", conflictColumns, base, limit)
	var rows []conflictRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list conflicts: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) "+base, args...); err != nil {
		return nil, 0, fmt.Errorf("count conflicts: %w", err)
	}

	records := make([]models.ConflictRecord, 0, len(rows))
	for _, row := range rows {
		record, err := row.toModel()
		if err != nil {
			return nil, 0, err
		}
		records = append(records, record)
	}
	return records, total, nil
}

// MarkNotified flags the conflicts with the given hashes as notified.
func (r *ConflictRepository) MarkNotified(ctx context.Context, hashes []string) error {
	if len(hashes) == 0 {
		return nil
	}
	const query = `UPDATE detected_conflicts SET notified = TRUE WHERE conflict_hash = ANY($1)`
	if _, err := r.db.ExecContext(ctx, query, pq.Array(hashes)); err != nil {
		return fmt.Errorf("mark conflicts notified: %w", err)
	}
	return nil
}
