package chat

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	irc "github.com/gempir/go-twitch-irc/v4"
)

// ErrReadOnly is returned when attempting to send a message through an Agent that
// connected anonymously, i.e. without a bot username and OAuth token
var ErrReadOnly = errors.New("chat agent is connected anonymously and cannot send messages")

// Agent owns the IRC connection to a single Twitch channel: incoming messages are
// passed to an Ingester, and outgoing messages are sent as the configured bot user
type Agent struct {
	logger      *slog.Logger
	client      *irc.Client
	connection  *Connection
	channelName string
	readOnly    bool
}

// NewAgent joins the given channel and blocks until connected. If username or
// oauthToken is empty, the agent connects anonymously and can only read chat.
func NewAgent(ctx context.Context, logger *slog.Logger, ingester *Ingester, channelName string, username string, oauthToken string, connectTimeout time.Duration) (*Agent, error) {
	readOnly := username == "" || oauthToken == ""
	var client *irc.Client
	if readOnly {
		client = irc.NewAnonymousClient()
	} else {
		client = irc.NewClient(username, oauthToken)
	}
	client.OnPrivateMessage(ingester.handleMessage)
	client.Join(channelName)

	connection := NewConnection(client)
	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()
	if err := connection.Open(ctx); err != nil {
		return nil, fmt.Errorf("failed to connect to Twitch chat for channel '%s': %w", channelName, err)
	}
	logger.Info("connected to Twitch chat", "channel", channelName, "readOnly", readOnly)

	return &Agent{
		logger:      logger,
		client:      client,
		connection:  connection,
		channelName: channelName,
		readOnly:    readOnly,
	}, nil
}

// GetStatus returns nil if we're connected to Twitch chat
func (a *Agent) GetStatus() error {
	return a.connection.GetStatus()
}

// Send posts a message to the channel's chat as the bot user. IRC offers no
// acknowledgement, so a nil result only means the message was handed to the
// connection.
func (a *Agent) Send(ctx context.Context, text string) error {
	if a.readOnly {
		return ErrReadOnly
	}
	if err := a.connection.GetStatus(); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	a.client.Say(a.channelName, text)
	return nil
}

func (a *Agent) Disconnect() error {
	return a.connection.Close()
}
