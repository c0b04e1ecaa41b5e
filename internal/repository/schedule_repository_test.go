package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-room-scheduler/internal/models"
)

var scheduleRowColumns = []string{"id", "room_id", "day", "date", "start_time", "end_time", "course", "department", "lecturer", "year", "status", "created_at", "updated_at"}

func newRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func scheduleRows() *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows(scheduleRowColumns).
		AddRow("s1", "R101", "Monday", nil, "08:00", "09:00", "Math", "Science", "Dr. A", "1", "active", now, now).
		AddRow("s2", "R101", "Monday", "2026-03-02", "09:00", "10:30", "Physics", "Science", "Dr. B", "2", "active", now, now)
}

func TestScheduleRepositoryList(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewScheduleRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT "+scheduleColumns+" FROM schedules WHERE 1=1 AND room_id = $1 AND day = $2 ORDER BY room_id ASC, day ASC, start_time ASC LIMIT 10 OFFSET 10")).
		WithArgs("R101", "Monday").
		WillReturnRows(scheduleRows())
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM schedules WHERE 1=1 AND room_id = $1 AND day = $2")).
		WithArgs("R101", "Monday").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(12))

	list, total, err := repo.List(context.Background(), models.ScheduleFilter{RoomID: "R101", Day: "Monday", Page: 2, PageSize: 10})
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, 12, total)
	assert.Nil(t, list[0].Date)
	require.NotNil(t, list[1].Date)
	assert.Equal(t, "2026-03-02", *list[1].Date)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestScheduleRepositoryFindByRoomDay(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewScheduleRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM schedules WHERE room_id = $1 AND day = $2 ORDER BY start_time ASC")).
		WithArgs("R101", "Monday").
		WillReturnRows(scheduleRows())

	list, err := repo.FindByRoomDay(context.Background(), "R101", "Monday")
	require.NoError(t, err)
	assert.Equal(t, "Physics", list[1].Course)
	assert.Equal(t, "10:30", list[1].End)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestScheduleRepositoryListConflictBuckets(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewScheduleRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("GROUP BY room_id, day HAVING COUNT(*) > 1")).
		WillReturnRows(sqlmock.NewRows([]string{"room_id", "day", "schedule_count"}).
			AddRow("R101", "Monday", 3).
			AddRow("R202", "Friday", 2))

	buckets, err := repo.ListConflictBuckets(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []models.RoomDayBucket{{RoomID: "R101", Day: "Monday", Count: 3}, {RoomID: "R202", Day: "Friday", Count: 2}}, buckets)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestScheduleRepositoryFindMatching(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewScheduleRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("WHERE room_id = $1 AND start_time = $2 AND course = $3 ORDER BY")).
		WithArgs("R101", "08:00", "Math").
		WillReturnRows(sqlmock.NewRows(scheduleRowColumns))

	list, err := repo.FindMatching(context.Background(), models.ScheduleSelector{RoomID: "R101", Start: "08:00", Course: "Math"})
	require.NoError(t, err)
	assert.Empty(t, list)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestScheduleRepositoryDistinctRooms(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewScheduleRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT DISTINCT room_id FROM schedules")).
		WillReturnRows(sqlmock.NewRows([]string{"room_id"}).AddRow("R101").AddRow("R202"))

	rooms, err := repo.DistinctRooms(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"R101", "R202"}, rooms)
}

func TestScheduleRepositoryCreateAndReplace(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewScheduleRepository(db)

	mock.ExpectExec("INSERT INTO schedules").
		WithArgs(sqlmock.AnyArg(), "R101", "Monday", sqlmock.AnyArg(), "08:00", "09:00", "Math", "Science", "Dr. A", "1", "active", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	record := &models.ScheduleRecord{RoomID: "R101", Day: "Monday", Start: "08:00", End: "09:00", Course: "Math", Department: "Science", Lecturer: "Dr. A", Year: "1", Status: "active"}
	require.NoError(t, repo.Create(context.Background(), record))
	assert.NotEmpty(t, record.ID)
	assert.False(t, record.CreatedAt.IsZero())

	mock.ExpectExec("UPDATE schedules SET room_id").
		WillReturnResult(sqlmock.NewResult(0, 1))
	record.RoomID = "R202"
	require.NoError(t, repo.Replace(context.Background(), record))

	mock.ExpectExec("UPDATE schedules SET room_id").
		WillReturnResult(sqlmock.NewResult(0, 0))
	assert.ErrorIs(t, repo.Replace(context.Background(), record), sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestScheduleRepositoryFindByID(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewScheduleRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM schedules WHERE id = $1")).
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.FindByID(context.Background(), "missing")
	assert.ErrorIs(t, err, sql.ErrNoRows)
}
