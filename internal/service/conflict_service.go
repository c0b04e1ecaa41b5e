package service

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-room-scheduler/internal/dto"
	"github.com/noah-isme/sma-room-scheduler/internal/models"
	"github.com/noah-isme/sma-room-scheduler/internal/timeslot"
	appErrors "github.com/noah-isme/sma-room-scheduler/pkg/errors"
	"github.com/noah-isme/sma-room-scheduler/pkg/export"
)

const defaultConflictListSize = 20

var conflictExportHeaders = []string{
	"Room", "Day", "Severity", "Type", "Overlap", "Duration",
	"Course 1", "Time 1", "Course 2", "Time 2", "Detected At", "Notified",
}

type conflictScanner interface {
	Scan(ctx context.Context, opts ScanOptions) (*models.ScanReport, error)
	Status() models.MonitorStatus
}

// ConflictExport is a rendered export ready to stream.
type ConflictExport struct {
	Filename    string
	ContentType string
	Body        []byte
}

// ConflictService exposes stored conflicts and the monitor.
type ConflictService struct {
	store     ConflictStore
	monitor   conflictScanner
	renderers map[string]export.Renderer
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

// NewConflictService wires conflict queries, exports and manual scans.
func NewConflictService(store ConflictStore, monitor conflictScanner, validate *validator.Validate, logger *zap.Logger) *ConflictService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ConflictService{
		store:   store,
		monitor: monitor,
		renderers: map[string]export.Renderer{
			"csv": export.NewCSVExporter(),
			"pdf": export.NewPDFExporter(),
		},
		validator: validate,
		logger:    logger,
		now:       time.Now,
	}
}

// List returns stored conflicts, newest first.
func (s *ConflictService) List(ctx context.Context, query dto.ConflictQuery) ([]models.ConflictRecord, *models.PageInfo, error) {
	filter, err := s.filterFrom(query)
	if err != nil {
		return nil, nil, err
	}
	if filter.PageSize <= 0 {
		filter.PageSize = defaultConflictListSize
	}
	if filter.Page < 1 {
		filter.Page = 1
	}

	records, total, err := s.store.List(ctx, filter)
	if err != nil {
		return nil, nil, storeError(err, "", "failed to list conflicts")
	}
	if records == nil {
		records = []models.ConflictRecord{}
	}
	info := models.NewPageInfo(filter.Page, filter.PageSize, total, defaultConflictListSize, 100)
	return records, &info, nil
}

// Export renders every matching stored conflict as CSV or PDF.
func (s *ConflictService) Export(ctx context.Context, query dto.ConflictExportQuery) (*ConflictExport, error) {
	if err := s.validator.Struct(query); err != nil {
		return nil, validationError(err, "invalid export parameters")
	}
	format := query.Format
	if format == "" {
		format = "csv"
	}
	renderer, ok := s.renderers[format]
	if !ok {
		return nil, validationError(nil, fmt.Sprintf("unsupported export format %q", format))
	}

	filter, err := s.filterFrom(query.ConflictQuery)
	if err != nil {
		return nil, err
	}
	filter.Page, filter.PageSize = 0, 0

	records, _, err := s.store.List(ctx, filter)
	if err != nil {
		return nil, storeError(err, "", "failed to load conflicts for export")
	}

	rows := make([]map[string]string, 0, len(records))
	for _, record := range records {
		rows = append(rows, map[string]string{
			"Room":        record.RoomID,
			"Day":         record.Day,
			"Severity":    string(record.Severity),
			"Type":        string(record.ConflictType),
			"Overlap":     record.OverlapPeriod(),
			"Duration":    record.OverlapDuration,
			"Course 1":    record.Schedule1.Course,
			"Time 1":      record.Schedule1.Time,
			"Course 2":    record.Schedule2.Course,
			"Time 2":      record.Schedule2.Time,
			"Detected At": record.DetectedAt.UTC().Format(time.RFC3339),
			"Notified":    strconv.FormatBool(record.Notified),
		})
	}

	body, err := renderer.Render(export.Dataset{Title: "Schedule Conflicts", Headers: conflictExportHeaders, Rows: rows})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render export")
	}
	return &ConflictExport{
		Filename:    fmt.Sprintf("conflicts-%s.%s", s.now().UTC().Format("20060102-150405"), renderer.Extension()),
		ContentType: renderer.ContentType(),
		Body:        body,
	}, nil
}

// Scan runs a manual monitor tick. Unless disabled, every detected conflict
// is notified, not only new ones.
func (s *ConflictService) Scan(ctx context.Context, req dto.ScanRequest) (*models.ScanReport, error) {
	if s.monitor == nil {
		return nil, appErrors.Clone(appErrors.ErrServiceUnavailable, "conflict monitor is not configured")
	}
	notifyAll := true
	if req.NotifyAll != nil {
		notifyAll = *req.NotifyAll
	}
	report, err := s.monitor.Scan(ctx, ScanOptions{AdminID: req.AdminID, NotifyAll: notifyAll, Manual: true})
	if err != nil {
		return nil, appErrors.Unavailable(err, "conflict scan failed")
	}
	return report, nil
}

// Status reports the monitor state.
func (s *ConflictService) Status() models.MonitorStatus {
	if s.monitor == nil {
		return models.MonitorStatus{State: models.MonitorIdle}
	}
	return s.monitor.Status()
}

func (s *ConflictService) filterFrom(query dto.ConflictQuery) (models.ConflictFilter, error) {
	if err := s.validator.Struct(query); err != nil {
		return models.ConflictFilter{}, validationError(err, "invalid conflict filter")
	}
	filter := models.ConflictFilter{
		RoomID:   query.RoomID,
		Severity: models.ConflictSeverity(query.Severity),
		Notified: query.Notified,
		Page:     query.Page,
		PageSize: query.PerPage,
	}
	if query.Day != "" {
		day, ok := timeslot.NormalizeDay(query.Day)
		if !ok {
			return filter, validationError(nil, fmt.Sprintf("invalid day %q", query.Day))
		}
		filter.Day = day
	}
	return filter, nil
}
