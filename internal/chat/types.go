package chat

// Platform identifies the chat service that a message originated from, or the
// service(s) to which an outgoing message should be delivered
type Platform string

const (
	// PlatformTwitch is the IRC-based chat service
	PlatformTwitch Platform = "Twitch"
	// PlatformYouTube is the page-rendered live chat, ingested by scraping the DOM
	PlatformYouTube Platform = "YouTube"
)

// Event is a single chat line, normalized from whichever platform it originated on
// so that every viewer can render it the same way. Text is always safe-to-render
// markup: literal text has been escaped, and emotes have been replaced with inline
// image tags.
type Event struct {
	Platform Platform `json:"platform"`
	User     string   `json:"user"`
	Text     string   `json:"text"`
	Avatar   string   `json:"avatar,omitempty"`
}

// EmoteRange records that the characters from Start to End (inclusive, counted in
// runes) in a raw chat message should be replaced with the emote identified by
// EmoteID
type EmoteRange struct {
	Start   int
	End     int
	EmoteID string
}
