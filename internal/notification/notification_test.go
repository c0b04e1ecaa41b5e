package notification

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	stypes "github.com/nicholas-fedor/shoutrrr/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/noah-isme/sma-room-scheduler/internal/models"
)

type countingSink struct {
	mu       sync.Mutex
	failures int
	calls    int
	received []models.Notification
}

func (s *countingSink) CreateNotification(ctx context.Context, n models.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.failures > 0 {
		s.failures--
		return errors.New("temporarily unavailable")
	}
	s.received = append(s.received, n)
	return nil
}

func (s *countingSink) delivered() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.received)
}

func sampleNotification() models.Notification {
	return models.Notification{
		AdminID: "system_admin",
		Type:    models.NotificationTypeScheduleConflict,
		Title:   "CRITICAL: 1 Duplicate Schedule Detected",
		Message: "details",
		Data: models.ConflictNotificationData{
			Severity:      models.SeverityCritical,
			ConflictCount: 1,
			Conflicts:     []models.NotifiedConflict{{ConflictHash: "R1_Monday_a_b"}},
			Summary:       models.NotificationSummary{RoomsAffected: []string{"R1"}},
		},
	}
}

func TestLogNotifier(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	sink := NewLogNotifier(zap.New(core))

	require.NoError(t, sink.CreateNotification(context.Background(), sampleNotification()))

	entries := logs.FilterMessage("conflict notification").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "system_admin", fields["admin_id"])
	assert.Equal(t, "Critical", fields["severity"])
	assert.Equal(t, int64(1), fields["conflict_count"])
}

func TestFanoutJoinsErrors(t *testing.T) {
	ok := &countingSink{}
	failing := &countingSink{failures: 1}
	fanout := NewFanout(ok, nil, failing)

	err := fanout.CreateNotification(context.Background(), sampleNotification())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "sink 1")
	assert.Equal(t, 2, fanout.Len())
	assert.Equal(t, 1, ok.delivered())
	assert.Equal(t, 1, failing.calls)
}

type fakeSender struct {
	message string
	params  stypes.Params
	errs    []error
}

func (f *fakeSender) Send(message string, params *stypes.Params) []error {
	f.message = message
	f.params = *params
	return f.errs
}

func TestShoutrrrNotifierSends(t *testing.T) {
	sender := &fakeSender{errs: []error{nil}}
	n := &ShoutrrrNotifier{sender: sender}

	require.NoError(t, n.CreateNotification(context.Background(), sampleNotification()))

	assert.Equal(t, "details", sender.message)
	title, ok := sender.params.Title()
	require.True(t, ok)
	assert.Equal(t, "CRITICAL: 1 Duplicate Schedule Detected", title)
}

func TestShoutrrrNotifierRedactsURLs(t *testing.T) {
	url := "telegram://secret-token@telegram?chats=1"
	sender := &fakeSender{errs: []error{nil, errors.New("post " + url + ": 401")}}
	n := &ShoutrrrNotifier{sender: sender, urls: []string{url}}

	err := n.CreateNotification(context.Background(), sampleNotification())

	require.Error(t, err)
	assert.NotContains(t, err.Error(), "secret-token")
	assert.Contains(t, err.Error(), "[redacted]")
}

func TestShoutrrrNotifierHonoursContext(t *testing.T) {
	sender := &fakeSender{}
	n := &ShoutrrrNotifier{sender: sender}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, n.CreateNotification(ctx, sampleNotification()), context.Canceled)
	assert.Empty(t, sender.message)
}

func TestNewShoutrrrNotifierRequiresURLs(t *testing.T) {
	_, err := NewShoutrrrNotifier(nil, time.Second)
	assert.Error(t, err)
}

func TestAsyncNotifierRetries(t *testing.T) {
	defer goleak.VerifyNone(t)

	sink := &countingSink{failures: 2}
	async := NewAsyncNotifier(sink, AsyncConfig{Workers: 1, MaxRetries: 3, RetryDelay: 5 * time.Millisecond}, nil)
	async.Start(context.Background())
	defer async.Stop()

	require.NoError(t, async.CreateNotification(context.Background(), sampleNotification()))
	require.Eventually(t, func() bool { return sink.delivered() == 1 }, time.Second, 5*time.Millisecond)
}

func TestAsyncNotifierRejectsAfterStop(t *testing.T) {
	defer goleak.VerifyNone(t)

	async := NewAsyncNotifier(&countingSink{}, AsyncConfig{}, nil)
	async.Start(context.Background())
	async.Stop()

	assert.Error(t, async.CreateNotification(context.Background(), sampleNotification()))
}
