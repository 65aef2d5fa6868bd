package relay

import (
	"context"
	"errors"
	"fmt"

	"github.com/golden-vcr/chatrelay/internal/chat"
)

// ErrNoSender is returned when a message is addressed to a platform for which no
// Sender has been configured
var ErrNoSender = errors.New("no sender configured for platform")

// Sender posts a message to a single platform's chat
type Sender interface {
	Send(ctx context.Context, text string) error
}

// VideoTarget is implemented by senders that need to know which YouTube video's chat
// to post to; the hub passes along the video ID announced by the scraper
type VideoTarget interface {
	SetVideoID(videoID string)
}

// SendError records a failure to deliver a message to a specific platform
type SendError struct {
	Platform chat.Platform
	Err      error
}

func (e *SendError) Error() string {
	return fmt.Sprintf("failed to send message to %s: %v", e.Platform, e.Err)
}

func (e *SendError) Unwrap() error {
	return e.Err
}
