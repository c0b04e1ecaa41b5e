package notification

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-room-scheduler/internal/models"
	"github.com/noah-isme/sma-room-scheduler/pkg/jobs"
)

// AsyncConfig sizes the background delivery queue.
type AsyncConfig struct {
	Workers    int
	MaxRetries int
	RetryDelay time.Duration
	Timeout    time.Duration
}

// AsyncNotifier hands notifications to a worker queue that retries the
// wrapped sink. CreateNotification succeeds once the notification is queued.
type AsyncNotifier struct {
	queue *jobs.Queue[models.Notification]
}

// NewAsyncNotifier wraps sink. Call Start before use and Stop on shutdown.
func NewAsyncNotifier(sink Sink, cfg AsyncConfig, logger *zap.Logger) *AsyncNotifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	handler := func(ctx context.Context, job jobs.Job[models.Notification]) error {
		if cfg.Timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, cfg.Timeout)
			defer cancel()
		}
		return sink.CreateNotification(ctx, job.Payload)
	}
	queue := jobs.NewQueue("notifications", handler, jobs.QueueConfig{
		Workers:    cfg.Workers,
		MaxRetries: cfg.MaxRetries,
		RetryDelay: cfg.RetryDelay,
		Logger:     logger,
	})
	return &AsyncNotifier{queue: queue}
}

// Start launches the delivery workers.
func (n *AsyncNotifier) Start(ctx context.Context) { n.queue.Start(ctx) }

// Stop drains the workers.
func (n *AsyncNotifier) Stop() { n.queue.Stop() }

// CreateNotification queues the notification.
func (n *AsyncNotifier) CreateNotification(ctx context.Context, notification models.Notification) error {
	return n.queue.Enqueue(jobs.Job[models.Notification]{
		ID:       uuid.NewString(),
		Payload:  notification,
		Enqueued: time.Now(),
	})
}
