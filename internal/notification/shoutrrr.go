package notification

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"
	"time"

	shoutrrr "github.com/nicholas-fedor/shoutrrr"
	stypes "github.com/nicholas-fedor/shoutrrr/pkg/types"

	"github.com/noah-isme/sma-room-scheduler/internal/models"
)

type pushSender interface {
	Send(message string, params *stypes.Params) []error
}

// ShoutrrrNotifier pushes the title and message to every configured service URL.
type ShoutrrrNotifier struct {
	sender pushSender
	urls   []string
}

// NewShoutrrrNotifier validates the service URLs and builds the router.
func NewShoutrrrNotifier(urls []string, timeout time.Duration) (*ShoutrrrNotifier, error) {
	if len(urls) == 0 {
		return nil, errors.New("at least one shoutrrr url is required")
	}
	router, err := shoutrrr.CreateSender(urls...)
	if err != nil {
		return nil, redact(fmt.Errorf("create shoutrrr sender: %w", err), urls)
	}
	if timeout > 0 {
		router.Timeout = timeout
	}
	router.SetLogger(log.New(io.Discard, "", 0))
	return &ShoutrrrNotifier{sender: router, urls: urls}, nil
}

// CreateNotification sends the notification, reporting the first failure.
func (n *ShoutrrrNotifier) CreateNotification(ctx context.Context, notification models.Notification) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	params := stypes.Params{}
	if notification.Title != "" {
		params.SetTitle(notification.Title)
	}
	for _, err := range n.sender.Send(notification.Message, &params) {
		if err != nil {
			return redact(fmt.Errorf("shoutrrr send: %w", err), n.urls)
		}
	}
	return nil
}

// redact strips service URLs, which carry tokens, from error text.
func redact(err error, urls []string) error {
	msg := err.Error()
	for _, u := range urls {
		if u != "" {
			msg = strings.ReplaceAll(msg, u, "[redacted]")
		}
	}
	return errors.New(msg)
}
