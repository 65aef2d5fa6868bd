package youtube

import (
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	yt "google.golang.org/api/youtube/v3"
)

// Scopes are the OAuth scopes required to post messages to a live chat
var Scopes = []string{yt.YoutubeForceSslScope}

// Config carries the OAuth client credentials used to post to YouTube live chat as
// the channel owner. RefreshToken is obtained once by running cmd/auth.
type Config struct {
	ClientId     string `env:"YOUTUBE_CLIENT_ID"`
	ClientSecret string `env:"YOUTUBE_CLIENT_SECRET"`
	RefreshToken string `env:"YOUTUBE_REFRESH_TOKEN"`
}

// IsConfigured returns true if all credentials needed to send messages are present
func (c *Config) IsConfigured() bool {
	return c.ClientId != "" && c.ClientSecret != "" && c.RefreshToken != ""
}

// OAuthConfig returns the oauth2 configuration for our Google Cloud app, redirecting
// to the given URL after the user grants access
func (c *Config) OAuthConfig(redirectUrl string) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     c.ClientId,
		ClientSecret: c.ClientSecret,
		Endpoint:     google.Endpoint,
		RedirectURL:  redirectUrl,
		Scopes:       Scopes,
	}
}
