package twitch

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/nicklaw5/helix/v2"
)

// ErrNoApiCredentials is returned if a Twitch API client is requested without a client
// ID and secret having been configured
var ErrNoApiCredentials = errors.New("TWITCH_CLIENT_ID and TWITCH_CLIENT_SECRET are required for Twitch API access")

// NewAppClient initializes a Twitch API client, authenticated with an app access token
// obtained using the configured client credentials
func NewAppClient(config *Config) (*helix.Client, error) {
	if !config.HasApiCredentials() {
		return nil, ErrNoApiCredentials
	}
	c, err := helix.NewClient(&helix.Options{
		ClientID:     config.ClientId,
		ClientSecret: config.ClientSecret,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Twitch API client: %w", err)
	}

	res, err := c.RequestAppAccessToken(nil)
	if err == nil && res.StatusCode != http.StatusOK {
		err = fmt.Errorf("got status %d: %s", res.StatusCode, res.ErrorMessage)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get app access token from Twitch API: %w", err)
	}

	c.SetAppAccessToken(res.Data.AccessToken)
	return c, nil
}
