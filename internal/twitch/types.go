package twitch

import "github.com/nicklaw5/helix/v2"

// UsersGetter represents the subset of Twitch Helix API operations required to look
// up user details by login
type UsersGetter interface {
	GetUsers(params *helix.UsersParams) (*helix.UsersResponse, error)
}

var _ UsersGetter = (*helix.Client)(nil)
