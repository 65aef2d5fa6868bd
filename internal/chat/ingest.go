package chat

import (
	"context"
	"log/slog"

	irc "github.com/gempir/go-twitch-irc/v4"
)

// AvatarResolver resolves a Twitch login to the URL of that user's profile image
type AvatarResolver interface {
	Resolve(ctx context.Context, login string) (string, error)
}

// Ingester converts Twitch IRC messages into chat events. Each message's avatar is
// resolved in its own goroutine, so a slow lookup never holds up other messages; as a
// consequence, events may be emitted in a different order than they were received
// when lookup latencies differ.
type Ingester struct {
	ctx      context.Context
	logger   *slog.Logger
	resolver AvatarResolver
	events   chan<- *Event
}

func NewIngester(ctx context.Context, logger *slog.Logger, resolver AvatarResolver, events chan<- *Event) *Ingester {
	return &Ingester{
		ctx:      ctx,
		logger:   logger,
		resolver: resolver,
		events:   events,
	}
}

// handleMessage is called in response to an IRC PRIVMSG
func (i *Ingester) handleMessage(m irc.PrivateMessage) {
	i.logger.Debug("CHAT", "messageId", m.ID, "userId", m.User.ID, "login", m.User.Name, "text", m.Message)
	ranges := FlattenEmotes(ParseEmotesTag(m.Tags["emotes"]))
	text := Render(m.Message, ranges)
	go i.emit(m.User.Name, m.User.DisplayName, text)
}

// emit resolves the user's avatar, then sends the finished event along. A failed
// lookup leaves the avatar empty rather than dropping the message.
func (i *Ingester) emit(login string, displayName string, text string) {
	avatar, err := i.resolver.Resolve(i.ctx, login)
	if err != nil {
		i.logger.Debug("no avatar resolved", "login", login, "error", err)
		avatar = ""
	}
	if displayName == "" {
		displayName = login
	}
	event := &Event{
		Platform: PlatformTwitch,
		User:     displayName,
		Text:     text,
		Avatar:   avatar,
	}
	select {
	case i.events <- event:
	case <-i.ctx.Done():
	}
}
