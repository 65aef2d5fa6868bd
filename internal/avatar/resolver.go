// Package avatar resolves Twitch logins to profile image URLs, remembering every
// successful result for the lifetime of the process so that each login is looked up
// at most once
package avatar

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// ErrNoAvatar is returned when a lookup succeeds but yields no usable image URL
var ErrNoAvatar = errors.New("no avatar found")

// LookupError unwraps to the underlying failure from the external lookup, and
// records which login we were trying to resolve
type LookupError struct {
	Login string
	Err   error
}

func (e *LookupError) Error() string {
	return fmt.Sprintf("avatar lookup for '%s' failed: %v", e.Login, e.Err)
}

func (e *LookupError) Unwrap() error {
	return e.Err
}

// Lookup is an external source of avatar URLs, e.g. the Twitch API
type Lookup interface {
	LookupAvatar(ctx context.Context, login string) (string, error)
}

// Resolver is a memoizing wrapper around a Lookup. Only successful results are
// cached: failures are returned to the caller and the login will be looked up again
// the next time it's requested.
type Resolver struct {
	lookup Lookup

	mu    sync.RWMutex
	cache map[string]string

	onLookup func(result string)
}

func NewResolver(lookup Lookup) *Resolver {
	return &Resolver{
		lookup: lookup,
		cache:  make(map[string]string),
	}
}

// OnLookup registers a callback invoked after every external lookup with one of
// "ok", "empty" or "error"
func (r *Resolver) OnLookup(f func(result string)) {
	r.onLookup = f
}

// Resolve returns the avatar URL for the given login. No lock is held while the
// external lookup is in flight, so concurrent calls for the same uncached login may
// each issue their own lookup.
func (r *Resolver) Resolve(ctx context.Context, login string) (string, error) {
	if url, ok := r.cached(login); ok {
		return url, nil
	}

	url, err := r.lookup.LookupAvatar(ctx, login)
	if err != nil {
		r.recordLookup("error")
		return "", &LookupError{Login: login, Err: err}
	}
	if url == "" {
		r.recordLookup("empty")
		return "", ErrNoAvatar
	}
	r.recordLookup("ok")

	r.mu.Lock()
	defer r.mu.Unlock()
	r.cache[login] = url
	return url, nil
}

func (r *Resolver) cached(login string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	url, ok := r.cache[login]
	return url, ok
}

func (r *Resolver) recordLookup(result string) {
	if r.onLookup != nil {
		r.onLookup(result)
	}
}
