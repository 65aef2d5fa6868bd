package relay

import (
	"sync"

	"github.com/samber/lo"
)

// Subscriber is a connected viewer. Deliver must not block: it returns false if the
// event could not be queued, in which case the hub drops the subscriber. Close is
// called once the hub has forgotten the subscriber.
type Subscriber interface {
	Deliver(out *Outbound) bool
	Close()
}

// registry keeps track of every subscriber that needs to be notified when a chat
// event is broadcast
type registry struct {
	subs map[Subscriber]struct{}
	mu   sync.RWMutex
}

func newRegistry() *registry {
	return &registry{
		subs: make(map[Subscriber]struct{}),
	}
}

// register adds a subscriber that will receive all subsequently-published events
func (r *registry) register(s Subscriber) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.subs[s] = struct{}{}
}

// unregister removes a subscriber, returning false if it wasn't registered
func (r *registry) unregister(s Subscriber) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.subs[s]; !ok {
		return false
	}
	delete(r.subs, s)
	return true
}

// clear removes and returns all subscribers
func (r *registry) clear() []Subscriber {
	r.mu.Lock()
	defer r.mu.Unlock()

	removed := lo.Keys(r.subs)
	r.subs = make(map[Subscriber]struct{})
	return removed
}

// publish delivers an event to all currently-registered subscribers, returning any
// that could not accept it
func (r *registry) publish(out *Outbound) []Subscriber {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var failed []Subscriber
	for s := range r.subs {
		if !s.Deliver(out) {
			failed = append(failed, s)
		}
	}
	return failed
}

func (r *registry) len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.subs)
}
