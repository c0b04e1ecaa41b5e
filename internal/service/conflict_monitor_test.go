package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/noah-isme/sma-room-scheduler/internal/models"
)

type mockConflictStore struct {
	mu        sync.Mutex
	records   map[string]models.ConflictRecord
	notified  []string
	upsertErr error
	listErr   error
}

func newMockConflictStore() *mockConflictStore {
	return &mockConflictStore{records: map[string]models.ConflictRecord{}}
}

func (m *mockConflictStore) UpsertByHash(ctx context.Context, record *models.ConflictRecord) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.upsertErr != nil {
		return false, m.upsertErr
	}
	if existing, ok := m.records[record.ConflictHash]; ok {
		existing.LastDetectedAt = record.LastDetectedAt
		m.records[record.ConflictHash] = existing
		record.ID = existing.ID
		return false, nil
	}
	record.ID = "c-" + record.ConflictHash
	m.records[record.ConflictHash] = *record
	return true, nil
}

func (m *mockConflictStore) List(ctx context.Context, filter models.ConflictFilter) ([]models.ConflictRecord, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.listErr != nil {
		return nil, 0, m.listErr
	}
	var out []models.ConflictRecord
	for _, r := range m.records {
		if filter.Severity != "" && r.Severity != filter.Severity {
			continue
		}
		out = append(out, r)
	}
	return out, len(out), nil
}

func (m *mockConflictStore) MarkNotified(ctx context.Context, hashes []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.notified = append(m.notified, hashes...)
	for _, h := range hashes {
		if r, ok := m.records[h]; ok {
			r.Notified = true
			m.records[h] = r
		}
	}
	return nil
}

type stubLock struct {
	acquired bool
	released int
}

func (l *stubLock) Acquire(ctx context.Context) (bool, func(context.Context) error, error) {
	if !l.acquired {
		return false, nil, nil
	}
	return true, func(context.Context) error { l.released++; return nil }, nil
}

func conflictingSchedules() *mockScheduleStore {
	return newMockScheduleStore(
		record("1", "R1", "Monday", "08:00", "09:55", "Chem"),
		record("2", "R1", "Monday", "08:00", "09:55", "Chem"),
		record("3", "R2", "Tuesday", "09:00", "10:00", "Math"),
		record("4", "R2", "Tuesday", "09:30", "10:30", "Art"),
		record("5", "R3", "Tuesday", "09:00", "10:00", "Solo"),
	)
}

func newTestMonitor(schedules *mockScheduleStore, conflicts *mockConflictStore, sink NotificationSink, lock scanLocker, cfg MonitorConfig) *ConflictMonitor {
	var notifier conflictDispatcher
	if sink != nil {
		notifier = NewConflictNotifier(sink, nil, nil)
	}
	return NewConflictMonitor(schedules, conflicts, lock, notifier, nil, NewMetricsService(), cfg, nil)
}

func TestScanReconcilesAndNotifiesOnlyNewConflicts(t *testing.T) {
	conflicts := newMockConflictStore()
	sink := &recordingSink{}
	monitor := newTestMonitor(conflictingSchedules(), conflicts, sink, nil, MonitorConfig{Concurrency: 2})

	report, err := monitor.Scan(context.Background(), ScanOptions{})
	require.NoError(t, err)
	assert.Equal(t, 2, report.BucketsScanned)
	assert.Equal(t, 2, report.ConflictsDetected)
	assert.Equal(t, 2, report.NewConflicts)
	assert.Equal(t, 2, report.Notified)
	assert.Equal(t, 1, report.SeverityBreakdown.Critical)
	assert.Equal(t, 1, report.SeverityBreakdown.Medium)
	assert.Equal(t, "R1", report.Conflicts[0].RoomID)
	assert.Len(t, sink.sent(), 2)
	assert.Len(t, conflicts.notified, 2)

	report, err = monitor.Scan(context.Background(), ScanOptions{})
	require.NoError(t, err)
	assert.Equal(t, 2, report.ConflictsDetected)
	assert.Zero(t, report.NewConflicts)
	assert.Zero(t, report.Notified)
	assert.Len(t, sink.sent(), 2)

	report, err = monitor.Scan(context.Background(), ScanOptions{NotifyAll: true, Manual: true, AdminID: "ops"})
	require.NoError(t, err)
	assert.True(t, report.Manual)
	assert.Equal(t, 2, report.Notified)
	sent := sink.sent()
	require.Len(t, sent, 4)
	assert.Equal(t, "ops", sent[3].AdminID)
	assert.Equal(t, models.MonitorIdle, monitor.State())
}

func TestScanSkipsWhenLockHeld(t *testing.T) {
	monitor := newTestMonitor(conflictingSchedules(), newMockConflictStore(), nil, &stubLock{acquired: false}, MonitorConfig{})

	report, err := monitor.Scan(context.Background(), ScanOptions{})

	require.NoError(t, err)
	assert.True(t, report.Skipped)
	assert.Zero(t, report.BucketsScanned)
	assert.True(t, monitor.LastReport().Skipped)
}

func TestScanReleasesLock(t *testing.T) {
	lock := &stubLock{acquired: true}
	monitor := newTestMonitor(conflictingSchedules(), newMockConflictStore(), nil, lock, MonitorConfig{})

	_, err := monitor.Scan(context.Background(), ScanOptions{})

	require.NoError(t, err)
	assert.Equal(t, 1, lock.released)
}

func TestScanFailureIsReported(t *testing.T) {
	schedules := conflictingSchedules()
	schedules.roomErr["R2/Tuesday"] = errors.New("timeout")
	monitor := newTestMonitor(schedules, newMockConflictStore(), nil, nil, MonitorConfig{})

	report, err := monitor.Scan(context.Background(), ScanOptions{})

	require.Error(t, err)
	assert.Contains(t, report.Error, "load R2/Tuesday")
	assert.Equal(t, models.MonitorIdle, monitor.State())
	require.NotNil(t, monitor.LastReport())
	assert.NotEmpty(t, monitor.LastReport().Error)
}

func TestMonitorSurvivesFailedTick(t *testing.T) {
	defer goleak.VerifyNone(t)

	schedules := conflictingSchedules()
	schedules.err = errors.New("database down")
	sink := &recordingSink{}
	monitor := newTestMonitor(schedules, newMockConflictStore(), sink, nil, MonitorConfig{Interval: 10 * time.Millisecond, StopTimeout: time.Second})

	monitor.Start(context.Background())
	require.Eventually(t, func() bool {
		last := monitor.LastReport()
		return last != nil && last.Error != ""
	}, time.Second, 5*time.Millisecond)

	schedules.mu.Lock()
	schedules.err = nil
	schedules.mu.Unlock()

	require.Eventually(t, func() bool {
		last := monitor.LastReport()
		return last != nil && last.Error == "" && last.ConflictsDetected == 2
	}, time.Second, 5*time.Millisecond)
	require.NoError(t, monitor.Stop())
	assert.False(t, monitor.Status().Running)
}

func TestMonitorStartTwiceAndStopIdempotent(t *testing.T) {
	defer goleak.VerifyNone(t)

	monitor := newTestMonitor(newMockScheduleStore(), newMockConflictStore(), nil, nil, MonitorConfig{Interval: time.Hour, ScanOnStart: true})

	monitor.Start(context.Background())
	monitor.Start(context.Background())
	assert.True(t, monitor.Status().Running)
	require.Eventually(t, func() bool { return monitor.LastReport() != nil }, time.Second, 5*time.Millisecond)

	require.NoError(t, monitor.Stop())
	require.NoError(t, monitor.Stop())
	status := monitor.Status()
	assert.Equal(t, "1h0m0s", status.ScanInterval)
	assert.Equal(t, "system_admin", status.AdminID)
}

type blockingScheduleStore struct {
	*mockScheduleStore
	entered chan struct{}
}

func (b *blockingScheduleStore) ListConflictBuckets(ctx context.Context) ([]models.RoomDayBucket, error) {
	close(b.entered)
	<-ctx.Done()
	return nil, ctx.Err()
}

func TestMonitorStopTimeoutCancelsScan(t *testing.T) {
	defer goleak.VerifyNone(t)

	store := &blockingScheduleStore{mockScheduleStore: newMockScheduleStore(), entered: make(chan struct{})}
	monitor := NewConflictMonitor(store, newMockConflictStore(), nil, nil, nil, nil, MonitorConfig{
		Interval:    time.Hour,
		ScanOnStart: true,
		StopTimeout: 100 * time.Millisecond,
	}, nil)

	monitor.Start(context.Background())
	<-store.entered

	started := time.Now()
	err := monitor.Stop()
	elapsed := time.Since(started)

	assert.ErrorIs(t, err, ErrMonitorStopTimeout)
	assert.GreaterOrEqual(t, elapsed, 80*time.Millisecond)
	assert.Less(t, elapsed, 150*time.Millisecond)
	require.Eventually(t, func() bool {
		last := monitor.LastReport()
		return last != nil && last.Error != ""
	}, time.Second, 5*time.Millisecond)
}

// stuckScheduleStore keeps listing buckets after cancellation until released.
type stuckScheduleStore struct {
	*mockScheduleStore
	entered chan struct{}
	release chan struct{}
}

func (s *stuckScheduleStore) ListConflictBuckets(ctx context.Context) ([]models.RoomDayBucket, error) {
	close(s.entered)
	<-s.release
	return nil, ctx.Err()
}

func TestMonitorStopReturnsWithinTimeoutWhenScanIgnoresCancel(t *testing.T) {
	defer goleak.VerifyNone(t)

	store := &stuckScheduleStore{
		mockScheduleStore: newMockScheduleStore(),
		entered:           make(chan struct{}),
		release:           make(chan struct{}),
	}
	monitor := NewConflictMonitor(store, newMockConflictStore(), nil, nil, nil, nil, MonitorConfig{
		Interval:    time.Hour,
		ScanOnStart: true,
		StopTimeout: 100 * time.Millisecond,
	}, nil)

	monitor.Start(context.Background())
	<-store.entered

	started := time.Now()
	err := monitor.Stop()
	elapsed := time.Since(started)
	close(store.release)

	assert.ErrorIs(t, err, ErrMonitorStopTimeout)
	assert.Less(t, elapsed, 150*time.Millisecond)
	require.Eventually(t, func() bool {
		last := monitor.LastReport()
		return last != nil && last.Error != ""
	}, time.Second, 5*time.Millisecond)
}
