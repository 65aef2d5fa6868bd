package avatar

import (
	"context"
	"fmt"
	"net/http"

	"github.com/nicklaw5/helix/v2"

	"github.com/golden-vcr/chatrelay/internal/twitch"
)

// helixLookup resolves avatars using the Twitch API's Get Users endpoint
type helixLookup struct {
	users twitch.UsersGetter
}

// NewHelixLookup returns a Lookup backed by the given Twitch API client, which must
// already have an app access token
func NewHelixLookup(users twitch.UsersGetter) Lookup {
	return &helixLookup{users: users}
}

// LookupAvatar returns the profile image URL for the given login. The helix client
// doesn't accept a context, so ctx is only checked before issuing the request.
func (l *helixLookup) LookupAvatar(ctx context.Context, login string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	r, err := l.users.GetUsers(&helix.UsersParams{
		Logins: []string{login},
	})
	if err != nil {
		return "", fmt.Errorf("failed to get user: %w", err)
	}
	if r.StatusCode != http.StatusOK {
		return "", fmt.Errorf("got response %d from get users request: %s", r.StatusCode, r.ErrorMessage)
	}
	if len(r.Data.Users) == 0 {
		return "", nil
	}
	return r.Data.Users[0].ProfileImageURL, nil
}

var _ Lookup = (*helixLookup)(nil)
