package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-room-scheduler/internal/dto"
	"github.com/noah-isme/sma-room-scheduler/internal/models"
	appErrors "github.com/noah-isme/sma-room-scheduler/pkg/errors"
)

// mockScheduleStore keeps schedules in memory and satisfies every schedule
// store interface used by the services.
type mockScheduleStore struct {
	mu      sync.Mutex
	records []models.ScheduleRecord
	nextID  int
	err     error
	roomErr map[string]error
}

func newMockScheduleStore(records ...models.ScheduleRecord) *mockScheduleStore {
	return &mockScheduleStore{records: records, roomErr: map[string]error{}}
}

func (m *mockScheduleStore) List(ctx context.Context, filter models.ScheduleFilter) ([]models.ScheduleRecord, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, 0, m.err
	}
	var out []models.ScheduleRecord
	for _, r := range m.records {
		if (filter.RoomID == "" || r.RoomID == filter.RoomID) && (filter.Day == "" || r.Day == filter.Day) {
			out = append(out, r)
		}
	}
	total := len(out)
	start := (filter.Page - 1) * filter.PageSize
	if start > total {
		start = total
	}
	end := start + filter.PageSize
	if end > total {
		end = total
	}
	return out[start:end], total, nil
}

func (m *mockScheduleStore) FindByRoomDay(ctx context.Context, roomID, day string) ([]models.ScheduleRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.roomErr[roomID+"/"+day]; err != nil {
		return nil, err
	}
	if m.err != nil {
		return nil, m.err
	}
	var out []models.ScheduleRecord
	for _, r := range m.records {
		if r.RoomID == roomID && r.Day == day {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *mockScheduleStore) FindByDay(ctx context.Context, day string) ([]models.ScheduleRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	var out []models.ScheduleRecord
	for _, r := range m.records {
		if r.Day == day {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *mockScheduleStore) DistinctRooms(ctx context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	seen := map[string]struct{}{}
	var rooms []string
	for _, r := range m.records {
		if _, ok := seen[r.RoomID]; !ok {
			seen[r.RoomID] = struct{}{}
			rooms = append(rooms, r.RoomID)
		}
	}
	sort.Strings(rooms)
	return rooms, nil
}

func (m *mockScheduleStore) ListConflictBuckets(ctx context.Context) ([]models.RoomDayBucket, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	counts := map[[2]string]int{}
	for _, r := range m.records {
		counts[[2]string{r.RoomID, r.Day}]++
	}
	var buckets []models.RoomDayBucket
	for key, count := range counts {
		if count > 1 {
			buckets = append(buckets, models.RoomDayBucket{RoomID: key[0], Day: key[1], Count: count})
		}
	}
	sort.Slice(buckets, func(i, j int) bool {
		if buckets[i].RoomID != buckets[j].RoomID {
			return buckets[i].RoomID < buckets[j].RoomID
		}
		return buckets[i].Day < buckets[j].Day
	})
	return buckets, nil
}

func (m *mockScheduleStore) FindMatching(ctx context.Context, sel models.ScheduleSelector) ([]models.ScheduleRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	var out []models.ScheduleRecord
	for _, r := range m.records {
		if r.RoomID != sel.RoomID ||
			(sel.Day != "" && r.Day != sel.Day) ||
			(sel.Start != "" && r.Start != sel.Start) ||
			(sel.End != "" && r.End != sel.End) ||
			(sel.Course != "" && r.Course != sel.Course) {
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

func (m *mockScheduleStore) Create(ctx context.Context, record *models.ScheduleRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.nextID++
	record.ID = fmt.Sprintf("new-%d", m.nextID)
	m.records = append(m.records, *record)
	return nil
}

func (m *mockScheduleStore) Replace(ctx context.Context, record *models.ScheduleRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	for i := range m.records {
		if m.records[i].ID == record.ID {
			m.records[i] = *record
			return nil
		}
	}
	return sql.ErrNoRows
}

func TestScheduleServiceInjectCreatesRecord(t *testing.T) {
	store := newMockScheduleStore(record("1", "R101", "Monday", "08:00", "09:00", "Math"))
	svc := NewScheduleService(store, nil, nil, nil, nil)

	created, err := svc.Inject(context.Background(), dto.InjectScheduleRequest{
		RoomID: "R101",
		Day:    "monday",
		Start:  "9",
		End:    "10.30",
		Course: "Physics",
	})

	require.NoError(t, err)
	assert.Equal(t, "new-1", created.ID)
	assert.Equal(t, "Monday", created.Day)
	assert.Equal(t, "09:00", created.Start)
	assert.Equal(t, "10:30", created.End)
	assert.Equal(t, "Booked", created.Status)
	assert.Len(t, store.records, 2)
}

func TestScheduleServiceInjectRejectsConflict(t *testing.T) {
	store := newMockScheduleStore(record("1", "R101", "Monday", "08:00", "10:00", "Math"))
	svc := NewScheduleService(store, nil, nil, nil, nil)

	_, err := svc.Inject(context.Background(), dto.InjectScheduleRequest{
		RoomID: "R101", Day: "Monday", Start: "09:00", End: "11:00", Course: "Physics",
	})

	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrScheduleConflict))
	appErr := appErrors.FromError(err)
	assert.Equal(t, http.StatusBadRequest, appErr.Status)
	details, ok := appErr.Details.(dto.ConflictDetails)
	require.True(t, ok)
	require.Len(t, details.Conflicts, 1)
	assert.Equal(t, "Math", details.Conflicts[0].Schedule2.Course)
	assert.Equal(t, 1, details.Pagination.TotalItems)
	assert.Len(t, store.records, 1)
}

func TestScheduleServiceInjectValidation(t *testing.T) {
	svc := NewScheduleService(newMockScheduleStore(), nil, nil, nil, nil)
	ctx := context.Background()

	cases := []dto.InjectScheduleRequest{
		{RoomID: "R1", Day: "Monday", Start: "09:00", End: "10:00"},
		{RoomID: "R1", Day: "Someday", Start: "09:00", End: "10:00", Course: "Art"},
		{RoomID: "R1", Day: "Monday", Start: "25:00", End: "10:00", Course: "Art"},
		{RoomID: "R1", Day: "Monday", Start: "10:00", End: "10:00", Course: "Art"},
		{RoomID: "R1", Day: "Monday", Start: "09:00", End: "10:00", Course: "Art", Date: strPtr("2024-13-40")},
	}
	for _, req := range cases {
		_, err := svc.Inject(ctx, req)
		require.Error(t, err)
		assert.True(t, errors.Is(err, appErrors.ErrValidation), "request %+v", req)
	}
}

func TestScheduleServiceInjectStoreUnavailable(t *testing.T) {
	store := newMockScheduleStore()
	store.err = errors.New("connection refused")
	svc := NewScheduleService(store, nil, nil, nil, nil)

	_, err := svc.Inject(context.Background(), dto.InjectScheduleRequest{
		RoomID: "R1", Day: "Monday", Start: "09:00", End: "10:00", Course: "Art",
	})

	require.Error(t, err)
	assert.Equal(t, http.StatusServiceUnavailable, appErrors.FromError(err).Status)
}

func TestScheduleServiceListByRoom(t *testing.T) {
	store := newMockScheduleStore(
		record("1", "R1", "Monday", "08:00", "09:00", "Math"),
		record("2", "R1", "Tuesday", "08:00", "09:00", "Art"),
		record("3", "R2", "Monday", "08:00", "09:00", "Music"),
	)
	svc := NewScheduleService(store, nil, nil, nil, nil)

	items, page, err := svc.ListByRoom(context.Background(), "R1", models.ScheduleFilter{Day: "monday"})

	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "1", items[0].ID)
	assert.Equal(t, 1, page.TotalItems)
	assert.Equal(t, defaultSchedulesPerPage, page.PerPage)

	_, _, err = svc.ListByRoom(context.Background(), " ", models.ScheduleFilter{})
	assert.True(t, errors.Is(err, appErrors.ErrValidation))
}

func strPtr(s string) *string { return &s }
