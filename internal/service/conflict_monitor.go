package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/noah-isme/sma-room-scheduler/internal/models"
)

const stopGraceDivisor = 5

// ErrMonitorStopTimeout is returned by Stop when the loop outlives the stop timeout.
var ErrMonitorStopTimeout = errors.New("conflict monitor did not stop in time")

type monitorScheduleStore interface {
	ListConflictBuckets(ctx context.Context) ([]models.RoomDayBucket, error)
	FindByRoomDay(ctx context.Context, roomID, day string) ([]models.ScheduleRecord, error)
}

// ConflictStore persists detected conflicts deduplicated by hash.
type ConflictStore interface {
	UpsertByHash(ctx context.Context, record *models.ConflictRecord) (bool, error)
	List(ctx context.Context, filter models.ConflictFilter) ([]models.ConflictRecord, int, error)
	MarkNotified(ctx context.Context, hashes []string) error
}

type scanLocker interface {
	Acquire(ctx context.Context) (bool, func(context.Context) error, error)
}

type conflictDispatcher interface {
	Notify(ctx context.Context, adminID string, conflicts []models.ScheduleConflict) ([]string, error)
}

// MonitorConfig tunes the background scan loop.
type MonitorConfig struct {
	Interval    time.Duration
	AdminID     string
	Concurrency int
	StopTimeout time.Duration
	ScanOnStart bool
}

// ScanOptions alter a single scan.
type ScanOptions struct {
	AdminID   string
	NotifyAll bool
	Manual    bool
}

// ConflictMonitor periodically scans every room+day bucket, records new
// conflicts and notifies administrators about them.
type ConflictMonitor struct {
	schedules monitorScheduleStore
	conflicts ConflictStore
	lock      scanLocker
	notifier  conflictDispatcher
	analyzer  *ConflictAnalyzer
	metrics   *MetricsService
	logger    *zap.Logger
	cfg       MonitorConfig
	now       func() time.Time

	scanMu sync.Mutex

	mu      sync.Mutex
	state   models.MonitorState
	running bool
	stop    chan struct{}
	done    chan struct{}
	cancel  context.CancelFunc
	last    *models.ScanReport
}

// NewConflictMonitor builds an idle monitor. lock may be nil.
func NewConflictMonitor(schedules monitorScheduleStore, conflicts ConflictStore, lock scanLocker, notifier conflictDispatcher, analyzer *ConflictAnalyzer, metrics *MetricsService, cfg MonitorConfig, logger *zap.Logger) *ConflictMonitor {
	if logger == nil {
		logger = zap.NewNop()
	}
	if analyzer == nil {
		analyzer = NewConflictAnalyzer(logger)
	}
	if cfg.Interval <= 0 {
		cfg.Interval = time.Hour
	}
	if cfg.AdminID == "" {
		cfg.AdminID = "system_admin"
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 4
	}
	if cfg.StopTimeout <= 0 {
		cfg.StopTimeout = 5 * time.Second
	}
	return &ConflictMonitor{
		schedules: schedules,
		conflicts: conflicts,
		lock:      lock,
		notifier:  notifier,
		analyzer:  analyzer,
		metrics:   metrics,
		logger:    logger,
		cfg:       cfg,
		now:       time.Now,
		state:     models.MonitorIdle,
	}
}

// Start launches the scan loop. Calling it on a running monitor is a no-op.
func (m *ConflictMonitor) Start(ctx context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.running {
		m.logger.Sugar().Warnw("conflict monitor already running")
		return
	}

	loopCtx, cancel := context.WithCancel(ctx)
	m.stop = make(chan struct{})
	m.done = make(chan struct{})
	m.cancel = cancel
	m.running = true

	go m.loop(loopCtx, m.stop, m.done)
	m.logger.Sugar().Infow("conflict monitor started", "interval", m.cfg.Interval.String(), "admin_id", m.cfg.AdminID)
}

// Stop signals the loop and waits up to the stop timeout for it to exit.
// The last fifth of the budget is a grace period: the in-flight scan is
// cancelled when it starts and ErrMonitorStopTimeout is returned.
func (m *ConflictMonitor) Stop() error {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return nil
	}
	m.running = false
	close(m.stop)
	done, cancel := m.done, m.cancel
	m.mu.Unlock()

	grace := m.cfg.StopTimeout / stopGraceDivisor
	timer := time.NewTimer(m.cfg.StopTimeout - grace)
	defer timer.Stop()
	select {
	case <-done:
		cancel()
		m.logger.Sugar().Infow("conflict monitor stopped")
		return nil
	case <-timer.C:
	}

	cancel()
	timer.Reset(grace)
	exited := true
	select {
	case <-done:
	case <-timer.C:
		exited = false
	}
	m.logger.Sugar().Warnw("conflict monitor stop timed out", "timeout", m.cfg.StopTimeout.String(), "loop_exited", exited)
	return ErrMonitorStopTimeout
}

func (m *ConflictMonitor) loop(ctx context.Context, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	ticker := time.NewTicker(m.cfg.Interval)
	defer ticker.Stop()

	if m.cfg.ScanOnStart {
		m.tick(ctx)
	}
	for {
		select {
		case <-stop:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			select {
			case <-stop:
				return
			default:
			}
			m.tick(ctx)
		}
	}
}

func (m *ConflictMonitor) tick(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			m.setState(models.MonitorIdle)
			m.logger.Sugar().Errorw("conflict scan panicked", "panic", r)
		}
	}()
	if _, err := m.Scan(ctx, ScanOptions{AdminID: m.cfg.AdminID}); err != nil {
		m.logger.Sugar().Errorw("conflict scan failed", "error", err)
	}
}

// Scan runs one detection, reconciliation and notification pass.
func (m *ConflictMonitor) Scan(ctx context.Context, opts ScanOptions) (*models.ScanReport, error) {
	m.scanMu.Lock()
	defer m.scanMu.Unlock()

	adminID := opts.AdminID
	if adminID == "" {
		adminID = m.cfg.AdminID
	}
	report := &models.ScanReport{StartedAt: m.now().UTC(), Manual: opts.Manual, Conflicts: []models.ScheduleConflict{}}

	if m.lock != nil {
		acquired, release, err := m.lock.Acquire(ctx)
		switch {
		case err != nil:
			m.logger.Sugar().Warnw("scan lock unavailable, scanning without it", "error", err)
		case !acquired:
			report.Skipped = true
			m.finish(report, ScanResultSkipped)
			m.logger.Sugar().Infow("conflict scan skipped, another instance holds the lock")
			return report, nil
		default:
			defer func() {
				if err := release(context.Background()); err != nil {
					m.logger.Sugar().Warnw("failed to release scan lock", "error", err)
				}
			}()
		}
	}
	defer m.setState(models.MonitorIdle)

	m.setState(models.MonitorScanning)
	conflicts, buckets, err := m.detect(ctx)
	if err != nil {
		return m.fail(report, err)
	}
	report.BucketsScanned = buckets
	report.ConflictsDetected = len(conflicts)
	report.SeverityBreakdown = models.BreakdownOf(conflicts)
	report.Conflicts = conflicts

	m.setState(models.MonitorReconciling)
	pending := make([]models.ScheduleConflict, 0, len(conflicts))
	for _, conflict := range conflicts {
		record := &models.ConflictRecord{
			ScheduleConflict: conflict,
			DetectedAt:       report.StartedAt,
			LastDetectedAt:   report.StartedAt,
		}
		created, err := m.conflicts.UpsertByHash(ctx, record)
		if err != nil {
			return m.fail(report, fmt.Errorf("reconcile %s: %w", conflict.ConflictHash, err))
		}
		if created {
			report.NewConflicts++
		}
		if created || opts.NotifyAll {
			pending = append(pending, conflict)
		}
	}

	if len(pending) > 0 && m.notifier != nil {
		m.setState(models.MonitorNotifying)
		hashes, err := m.notifier.Notify(ctx, adminID, pending)
		if err != nil {
			m.logger.Sugar().Warnw("some conflict notifications failed", "error", err)
		}
		if len(hashes) > 0 {
			if err := m.conflicts.MarkNotified(ctx, hashes); err != nil {
				m.logger.Sugar().Errorw("failed to mark conflicts notified", "count", len(hashes), "error", err)
			}
		}
		report.Notified = len(hashes)
	}

	m.finish(report, ScanResultSuccess)
	m.logger.Sugar().Infow("conflict scan completed",
		"buckets", report.BucketsScanned,
		"conflicts", report.ConflictsDetected,
		"new", report.NewConflicts,
		"notified", report.Notified,
		"manual", report.Manual,
	)
	return report, nil
}

// detect analyses every bucket concurrently, keeping results in bucket order.
func (m *ConflictMonitor) detect(ctx context.Context) ([]models.ScheduleConflict, int, error) {
	started := time.Now()
	buckets, err := m.schedules.ListConflictBuckets(ctx)
	m.metrics.ObserveStoreQuery("list_conflict_buckets", time.Since(started))
	if err != nil {
		return nil, 0, fmt.Errorf("list buckets: %w", err)
	}

	results := make([][]models.ScheduleConflict, len(buckets))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(m.cfg.Concurrency)
	for i, bucket := range buckets {
		g.Go(func() error {
			records, err := m.schedules.FindByRoomDay(gctx, bucket.RoomID, bucket.Day)
			if err != nil {
				return fmt.Errorf("load %s/%s: %w", bucket.RoomID, bucket.Day, err)
			}
			results[i] = m.analyzer.AnalyzeAll(records)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, 0, err
	}

	conflicts := make([]models.ScheduleConflict, 0)
	for _, bucketConflicts := range results {
		conflicts = append(conflicts, bucketConflicts...)
	}
	return conflicts, len(buckets), nil
}

func (m *ConflictMonitor) fail(report *models.ScanReport, err error) (*models.ScanReport, error) {
	report.Error = err.Error()
	m.finish(report, ScanResultFailure)
	return report, err
}

func (m *ConflictMonitor) finish(report *models.ScanReport, result string) {
	report.FinishedAt = m.now().UTC()
	m.metrics.RecordScan(result, report.FinishedAt.Sub(report.StartedAt), report)

	snapshot := *report
	m.mu.Lock()
	m.last = &snapshot
	m.mu.Unlock()
}

func (m *ConflictMonitor) setState(state models.MonitorState) {
	m.mu.Lock()
	m.state = state
	m.mu.Unlock()
}

// State returns the current phase.
func (m *ConflictMonitor) State() models.MonitorState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// LastReport returns a copy of the most recent scan report, if any.
func (m *ConflictMonitor) LastReport() *models.ScanReport {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.last == nil {
		return nil
	}
	report := *m.last
	return &report
}

// Status summarises the monitor for the status endpoint.
func (m *ConflictMonitor) Status() models.MonitorStatus {
	last := m.LastReport()
	m.mu.Lock()
	defer m.mu.Unlock()
	return models.MonitorStatus{
		State:        m.state,
		Running:      m.running,
		ScanInterval: m.cfg.Interval.String(),
		AdminID:      m.cfg.AdminID,
		LastReport:   last,
	}
}
