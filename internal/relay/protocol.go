package relay

import (
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"

	"github.com/golden-vcr/chatrelay/internal/chat"
)

// MessageType identifies the payload carried in an Envelope
type MessageType string

const (
	// MessageTypeChat is sent to viewers: data is a chat.Event
	MessageTypeChat MessageType = "chat"
	// MessageTypeSend is sent by viewers to post a reply: data is a SendRequest
	MessageTypeSend MessageType = "send"
	// MessageTypeScrapeMessage is sent by the scraper for each new YouTube chat
	// message: data is a ScrapedMessage
	MessageTypeScrapeMessage MessageType = "scrape-message"
	// MessageTypeScrapeSession is sent by the scraper once connected, identifying the
	// stream it's watching: data is a ScrapeSession
	MessageTypeScrapeSession MessageType = "scrape-session"
)

// Envelope is the JSON structure of every websocket message exchanged with the hub
type Envelope struct {
	Type MessageType     `json:"type"`
	Data json.RawMessage `json:"data"`
}

// SendTarget identifies which platform(s) a reply should be posted to
type SendTarget string

const (
	SendTargetTwitch  SendTarget = SendTarget(chat.PlatformTwitch)
	SendTargetYouTube SendTarget = SendTarget(chat.PlatformYouTube)
	SendTargetBoth    SendTarget = "Both"
)

// Platforms returns the platforms addressed by the target, in the order they should
// be attempted
func (t SendTarget) Platforms() []chat.Platform {
	switch t {
	case SendTargetTwitch:
		return []chat.Platform{chat.PlatformTwitch}
	case SendTargetYouTube:
		return []chat.Platform{chat.PlatformYouTube}
	case SendTargetBoth:
		return []chat.Platform{chat.PlatformTwitch, chat.PlatformYouTube}
	}
	return nil
}

// SendRequest asks the hub to post a message to one or both platforms
type SendRequest struct {
	Target SendTarget `json:"target" validate:"required,oneof=Twitch YouTube Both"`
	Text   string     `json:"text" validate:"required"`
}

// ScrapedMessage is a single chat message extracted from the YouTube chat page. Text
// is plain text as displayed on the page, and has not been escaped.
type ScrapedMessage struct {
	ID     string `json:"id" validate:"required"`
	Author string `json:"author" validate:"required"`
	Text   string `json:"text" validate:"required"`
	Avatar string `json:"avatar,omitempty"`
}

// ScrapeSession identifies the YouTube video whose chat the scraper is watching
type ScrapeSession struct {
	VideoID string `json:"videoId" validate:"required,len=11"`
}

var validate = validator.New()

// Encode wraps the given value in an Envelope of the given type and serializes it
func Encode(messageType MessageType, data any) ([]byte, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("failed to encode '%s' data: %w", messageType, err)
	}
	return json.Marshal(&Envelope{Type: messageType, Data: raw})
}

// Outbound is a chat event ready to be written to subscribers, serialized once so
// that every subscriber shares the same bytes
type Outbound struct {
	Event *chat.Event
	// JSON is the event on its own, as written to SSE streams
	JSON []byte
	// Envelope is the event wrapped in a 'chat' envelope, as written to websockets
	Envelope []byte
}

// NewOutbound serializes a chat event for delivery
func NewOutbound(event *chat.Event) (*Outbound, error) {
	raw, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("failed to encode chat event: %w", err)
	}
	envelope, err := json.Marshal(&Envelope{Type: MessageTypeChat, Data: raw})
	if err != nil {
		return nil, fmt.Errorf("failed to encode chat envelope: %w", err)
	}
	return &Outbound{Event: event, JSON: raw, Envelope: envelope}, nil
}

// Decode parses an Envelope, leaving its data to be decoded once the type is known
func Decode(payload []byte) (*Envelope, error) {
	var envelope Envelope
	if err := json.Unmarshal(payload, &envelope); err != nil {
		return nil, fmt.Errorf("failed to decode message: %w", err)
	}
	if envelope.Type == "" {
		return nil, fmt.Errorf("message has no 'type'")
	}
	return &envelope, nil
}

// DecodeData parses and validates the data carried in an Envelope
func DecodeData[T any](envelope *Envelope) (*T, error) {
	var data T
	if err := json.Unmarshal(envelope.Data, &data); err != nil {
		return nil, fmt.Errorf("failed to decode '%s' data: %w", envelope.Type, err)
	}
	if err := validate.Struct(&data); err != nil {
		return nil, fmt.Errorf("invalid '%s' data: %w", envelope.Type, err)
	}
	return &data, nil
}
