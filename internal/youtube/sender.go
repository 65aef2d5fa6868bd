// Package youtube posts replies to the live chat of the YouTube stream being relayed.
//
// Reading YouTube chat is handled by the scraper instead, since the Data API's chat
// polling quota is far too small to follow an active stream.
package youtube

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/oauth2"
	"google.golang.org/api/option"
	yt "google.golang.org/api/youtube/v3"
)

// ErrNotConfigured is returned when attempting to send without OAuth credentials
var ErrNotConfigured = errors.New("YouTube sender is not configured")

// ErrNoVideo is returned when attempting to send before the scraper has reported
// which video it's watching
var ErrNoVideo = errors.New("no YouTube video is being relayed")

// ErrNoLiveChat is returned when the video being relayed has no active live chat,
// e.g. because the stream has ended
var ErrNoLiveChat = errors.New("video has no active live chat")

// LiveChatApi is the subset of the YouTube Data API that the sender requires
type LiveChatApi interface {
	GetActiveLiveChatId(ctx context.Context, videoId string) (string, error)
	InsertMessage(ctx context.Context, liveChatId string, text string) error
}

// Sender posts messages to the live chat of the current video. The live chat ID is
// looked up on first use and cached until the video changes or a send fails.
type Sender struct {
	logger *slog.Logger
	api    LiveChatApi

	mu         sync.Mutex
	videoId    string
	liveChatId string
}

// NewSender initializes a sender that authenticates with the given credentials. If
// they're incomplete, the resulting sender fails every send with ErrNotConfigured.
func NewSender(ctx context.Context, logger *slog.Logger, config *Config, videoId string) (*Sender, error) {
	if !config.IsConfigured() {
		logger.Warn("YouTube credentials not configured; replies to YouTube are disabled")
		return &Sender{logger: logger, videoId: videoId}, nil
	}

	tokenSource := config.OAuthConfig("").TokenSource(ctx, &oauth2.Token{RefreshToken: config.RefreshToken})
	svc, err := yt.NewService(ctx, option.WithTokenSource(tokenSource))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize YouTube API client: %w", err)
	}
	return newSender(logger, NewServiceApi(svc), videoId), nil
}

func newSender(logger *slog.Logger, api LiveChatApi, videoId string) *Sender {
	return &Sender{
		logger:  logger,
		api:     api,
		videoId: videoId,
	}
}

// SetVideoID changes the video whose live chat we'll post to
func (s *Sender) SetVideoID(videoId string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if videoId != s.videoId {
		s.logger.Info("YouTube sender now targeting video", "videoId", videoId)
		s.videoId = videoId
		s.liveChatId = ""
	}
}

// GetStatus returns nil if the sender is able to attempt sending messages
func (s *Sender) GetStatus() error {
	if s.api == nil {
		return ErrNotConfigured
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.videoId == "" {
		return ErrNoVideo
	}
	return nil
}

// Send posts a message to the current video's live chat
func (s *Sender) Send(ctx context.Context, text string) error {
	if s.api == nil {
		return ErrNotConfigured
	}

	liveChatId, err := s.resolveLiveChatId(ctx)
	if err != nil {
		return err
	}
	if err := s.api.InsertMessage(ctx, liveChatId, text); err != nil {
		// The chat may have ended or been replaced; look it up again next time
		s.forgetLiveChatId(liveChatId)
		return fmt.Errorf("failed to insert live chat message: %w", err)
	}
	return nil
}

func (s *Sender) resolveLiveChatId(ctx context.Context) (string, error) {
	s.mu.Lock()
	videoId, liveChatId := s.videoId, s.liveChatId
	s.mu.Unlock()

	if liveChatId != "" {
		return liveChatId, nil
	}
	if videoId == "" {
		return "", ErrNoVideo
	}

	liveChatId, err := s.api.GetActiveLiveChatId(ctx, videoId)
	if err != nil {
		return "", err
	}

	s.mu.Lock()
	if s.videoId == videoId {
		s.liveChatId = liveChatId
	}
	s.mu.Unlock()
	return liveChatId, nil
}

func (s *Sender) forgetLiveChatId(liveChatId string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.liveChatId == liveChatId {
		s.liveChatId = ""
	}
}
