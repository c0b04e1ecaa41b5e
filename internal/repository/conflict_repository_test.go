package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-room-scheduler/internal/models"
)

func sampleConflictRecord() *models.ConflictRecord {
	return &models.ConflictRecord{
		ScheduleConflict: models.ScheduleConflict{
			ConflictHash:           "R101_Monday_Math_Physics_0800-0900_0830-0930",
			RoomID:                 "R101",
			Day:                    "Monday",
			Severity:               models.SeverityMedium,
			ConflictType:           models.ConflictPartialOverlap,
			OverlapStart:           "08:30",
			OverlapEnd:             "09:00",
			OverlapDurationMinutes: 30,
			OverlapDuration:        "30m",
			Schedule1:              models.ScheduleSummary{ScheduleID: "s1", Course: "Math", Start: "08:00", End: "09:00", Time: "08:00-09:00"},
			Schedule2:              models.ScheduleSummary{ScheduleID: "s2", Course: "Physics", Start: "08:30", End: "09:30", Time: "08:30-09:30"},
		},
	}
}

func TestConflictRepositoryUpsertCreates(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewConflictRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("ON CONFLICT (conflict_hash) DO UPDATE SET last_detected_at = EXCLUDED.last_detected_at RETURNING id, (xmax = 0) AS created")).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created"}).AddRow("c-1", true))

	record := sampleConflictRecord()
	created, err := repo.UpsertByHash(context.Background(), record)
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, "c-1", record.ID)
	assert.Equal(t, record.DetectedAt, record.LastDetectedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestConflictRepositoryUpsertExisting(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewConflictRepository(db)

	mock.ExpectQuery("INSERT INTO detected_conflicts").
		WillReturnRows(sqlmock.NewRows([]string{"id", "created"}).AddRow("existing-id", false))

	record := sampleConflictRecord()
	created, err := repo.UpsertByHash(context.Background(), record)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, "existing-id", record.ID)
}

func TestConflictRepositoryUpsertError(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewConflictRepository(db)

	mock.ExpectQuery("INSERT INTO detected_conflicts").WillReturnError(errors.New("connection reset"))

	_, err := repo.UpsertByHash(context.Background(), sampleConflictRecord())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection reset")
}

func TestConflictRepositoryList(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewConflictRepository(db)

	now := time.Now().UTC()
	rows := sqlmock.NewRows([]string{"id", "conflict_hash", "room_id", "day", "severity", "conflict_type", "overlap_start", "overlap_end", "overlap_duration_minutes", "overlap_duration", "schedule1", "schedule2", "description", "detected_at", "last_detected_at", "notified"}).
		AddRow("c-1", "hash-1", "R101", "Monday", "High", "partial_overlap", "08:00", "09:00", 60, "1h",
			[]byte(`{"schedule_id":"s1","course":"Math","department":"","lecturer":"","start":"08:00","end":"09:00","time":"08:00-09:00"}`),
			[]byte(`{"schedule_id":"s2","course":"Physics","department":"","lecturer":"","start":"07:30","end":"09:30","time":"07:30-09:30"}`),
			"", now, now, false)

	notified := false
	mock.ExpectQuery(regexp.QuoteMeta("FROM detected_conflicts WHERE 1=1 AND severity = $1 AND notified = $2 ORDER BY detected_at DESC, conflict_hash ASC LIMIT 5 OFFSET 5")).
		WithArgs("High", false).
		WillReturnRows(rows)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM detected_conflicts WHERE 1=1 AND severity = $1 AND notified = $2")).
		WithArgs("High", false).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(6))

	list, total, err := repo.List(context.Background(), models.ConflictFilter{Severity: models.SeverityHigh, Notified: &notified, Page: 2, PageSize: 5})
	require.NoError(t, err)
	assert.Equal(t, 6, total)
	require.Len(t, list, 1)
	assert.Equal(t, models.SeverityHigh, list[0].Severity)
	assert.Equal(t, "Physics", list[0].Schedule2.Course)
	assert.Equal(t, "07:30-09:30", list[0].Schedule2.Time)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestConflictRepositoryMarkNotified(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewConflictRepository(db)

	require.NoError(t, repo.MarkNotified(context.Background(), nil))

	mock.ExpectExec(regexp.QuoteMeta("UPDATE detected_conflicts SET notified = TRUE WHERE conflict_hash = ANY($1)")).
		WithArgs(sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 2))

	require.NoError(t, repo.MarkNotified(context.Background(), []string{"a", "b"}))
	assert.NoError(t, mock.ExpectationsWereMet())
}
