package avatar

import "context"

type noopLookup struct{}

// NewNoopLookup returns a Lookup that never finds an avatar, for use when no Twitch
// API credentials are configured
func NewNoopLookup() Lookup {
	return noopLookup{}
}

func (noopLookup) LookupAvatar(ctx context.Context, login string) (string, error) {
	return "", nil
}
