// Package relay implements the hub that merges chat from every platform into a
// single stream for connected viewers, and routes their replies back out.
//
// Delivery is best-effort: viewers only receive events broadcast while they're
// connected, and a viewer that can't keep up is disconnected rather than allowed to
// slow down everyone else.
package relay

import (
	"context"
	"log/slog"
	"net/url"
	"time"

	"github.com/golden-vcr/chatrelay/internal/chat"
	"github.com/golden-vcr/chatrelay/internal/telemetry"
)

// SendTimeout bounds each individual attempt to post a message to a platform
const SendTimeout = 10 * time.Second

type Hub struct {
	logger      *slog.Logger
	subscribers *registry
	senders     map[chat.Platform]Sender
}

func NewHub(logger *slog.Logger, senders map[chat.Platform]Sender) *Hub {
	telemetry.Init()
	if senders == nil {
		senders = make(map[chat.Platform]Sender)
	}
	return &Hub{
		logger:      logger,
		subscribers: newRegistry(),
		senders:     senders,
	}
}

// Register adds a subscriber. It will receive only events broadcast from now on.
func (h *Hub) Register(s Subscriber) {
	h.subscribers.register(s)
	telemetry.Subscribers.Set(float64(h.subscribers.len()))
	h.logger.Info("[HUB] subscriber registered", "subscribers", h.subscribers.len())
}

// Unregister removes a subscriber and closes it. It's a no-op if the subscriber is
// not registered.
func (h *Hub) Unregister(s Subscriber) {
	if h.subscribers.unregister(s) {
		s.Close()
		telemetry.Subscribers.Set(float64(h.subscribers.len()))
		h.logger.Info("[HUB] subscriber unregistered", "subscribers", h.subscribers.len())
	}
}

// NumSubscribers returns the number of currently-registered subscribers
func (h *Hub) NumSubscribers() int {
	return h.subscribers.len()
}

// Broadcast delivers an event to every registered subscriber, dropping any that
// can't accept it
func (h *Hub) Broadcast(event *chat.Event) {
	out, err := NewOutbound(event)
	if err != nil {
		h.logger.Error("[HUB] failed to encode chat event", "error", err)
		return
	}
	failed := h.subscribers.publish(out)
	telemetry.EventsBroadcast.WithLabelValues(string(event.Platform)).Inc()
	for _, s := range failed {
		if h.subscribers.unregister(s) {
			s.Close()
			telemetry.SubscribersDropped.Inc()
			h.logger.Warn("[HUB] subscriber buffer full; disconnecting")
		}
	}
	if len(failed) > 0 {
		telemetry.Subscribers.Set(float64(h.subscribers.len()))
	}
}

// Run broadcasts every event received from the given channel until ctx is done, at
// which point all subscribers are closed
func (h *Hub) Run(ctx context.Context, events <-chan *chat.Event) error {
	h.logger.Info("[HUB] starting hub event loop")
	for {
		select {
		case <-ctx.Done():
			for _, s := range h.subscribers.clear() {
				s.Close()
			}
			telemetry.Subscribers.Set(0)
			return nil
		case event := <-events:
			h.Broadcast(event)
		}
	}
}

// HandleScrapeMessage converts a message scraped from YouTube chat into a chat event
// and broadcasts it
func (h *Hub) HandleScrapeMessage(msg *ScrapedMessage) {
	h.Broadcast(&chat.Event{
		Platform: chat.PlatformYouTube,
		User:     msg.Author,
		Text:     chat.Render(msg.Text, nil),
		Avatar:   sanitizeAvatarUrl(msg.Avatar),
	})
}

// HandleScrapeSession tells any senders that need it which YouTube video the scraper
// is watching
func (h *Hub) HandleScrapeSession(session *ScrapeSession) {
	h.logger.Info("[HUB] scraper session started", "videoId", session.VideoID)
	for _, sender := range h.senders {
		if target, ok := sender.(VideoTarget); ok {
			target.SetVideoID(session.VideoID)
		}
	}
}

// Send posts a message to every platform addressed by the request. Each platform is
// attempted regardless of whether the others succeed. Failures are logged and
// returned for inspection, but are never reported back to the viewer that asked.
func (h *Hub) Send(ctx context.Context, req *SendRequest) []*SendError {
	var errs []*SendError
	for _, platform := range req.Target.Platforms() {
		err := h.sendTo(ctx, platform, req.Text)
		telemetry.RecordSend(string(platform), err)
		if err != nil {
			sendErr := &SendError{Platform: platform, Err: err}
			h.logger.Error("[HUB] send failed", "platform", platform, "error", err)
			errs = append(errs, sendErr)
		}
	}
	return errs
}

func (h *Hub) sendTo(ctx context.Context, platform chat.Platform, text string) error {
	sender, ok := h.senders[platform]
	if !ok {
		return ErrNoSender
	}
	ctx, cancel := context.WithTimeout(ctx, SendTimeout)
	defer cancel()
	return sender.Send(ctx, text)
}

// sanitizeAvatarUrl discards anything that isn't an absolute http(s) URL
func sanitizeAvatarUrl(s string) string {
	if s == "" {
		return ""
	}
	u, err := url.Parse(s)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return ""
	}
	return u.String()
}
