package twitch

// Config describes how we connect to Twitch: chat is read from ChannelName, and sent
// as BotUsername if an OAuth token is supplied. ClientId and ClientSecret are only
// needed for API calls such as avatar lookups.
type Config struct {
	ChannelName  string `env:"TWITCH_CHANNEL_NAME" required:"true"`
	BotUsername  string `env:"TWITCH_BOT_USERNAME"`
	OAuthToken   string `env:"TWITCH_OAUTH_TOKEN"`
	ClientId     string `env:"TWITCH_CLIENT_ID"`
	ClientSecret string `env:"TWITCH_CLIENT_SECRET"`
}

// HasApiCredentials returns true if we can obtain an app access token for the Twitch
// API
func (c *Config) HasApiCredentials() bool {
	return c.ClientId != "" && c.ClientSecret != ""
}
