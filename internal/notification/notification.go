// Package notification delivers conflict notifications to administrators.
package notification

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/noah-isme/sma-room-scheduler/internal/models"
)

// Sink accepts a notification for delivery.
type Sink interface {
	CreateNotification(ctx context.Context, notification models.Notification) error
}

// LogNotifier writes notifications to the structured log.
type LogNotifier struct {
	logger *zap.Logger
}

// NewLogNotifier builds a log sink.
func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogNotifier{logger: logger}
}

// CreateNotification logs the notification summary.
func (n *LogNotifier) CreateNotification(ctx context.Context, notification models.Notification) error {
	hashes := make([]string, 0, len(notification.Data.Conflicts))
	for _, c := range notification.Data.Conflicts {
		hashes = append(hashes, c.ConflictHash)
	}
	n.logger.Info("conflict notification",
		zap.String("admin_id", notification.AdminID),
		zap.String("type", notification.Type),
		zap.String("title", notification.Title),
		zap.String("severity", string(notification.Data.Severity)),
		zap.Int("conflict_count", notification.Data.ConflictCount),
		zap.Strings("rooms", notification.Data.Summary.RoomsAffected),
		zap.Strings("conflict_hashes", hashes),
	)
	return nil
}

// Fanout delivers every notification to all of its sinks.
type Fanout struct {
	sinks []Sink
}

// NewFanout skips nil sinks.
func NewFanout(sinks ...Sink) *Fanout {
	f := &Fanout{}
	for _, s := range sinks {
		if s != nil {
			f.sinks = append(f.sinks, s)
		}
	}
	return f
}

// Len returns the number of attached sinks.
func (f *Fanout) Len() int { return len(f.sinks) }

// CreateNotification sends to each sink and joins their errors.
func (f *Fanout) CreateNotification(ctx context.Context, notification models.Notification) error {
	var errs []error
	for i, sink := range f.sinks {
		if err := sink.CreateNotification(ctx, notification); err != nil {
			errs = append(errs, fmt.Errorf("sink %d: %w", i, err))
		}
	}
	return errors.Join(errs...)
}
