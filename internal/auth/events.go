package auth

import "sync"

// Event is an authentication lifecycle notification broadcast to the rest of
// the application (primarily the navigation layer, which redirects to the
// login boundary on logout or session expiry).
type Event string

const (
	EventLogin           Event = "login"
	EventLogout          Event = "logout"
	EventUnauthenticated Event = "unauthenticated"
)

// Bus is a minimal in-process publish/subscribe channel for auth events.  It
// is injected into the transport client rather than being a package-level
// global, so tests and alternative shells can observe events in isolation.
type Bus struct {
	mu   sync.Mutex
	subs []func(Event)
}

// NewBus returns an empty Bus.
func NewBus() *Bus { return &Bus{} }

// Subscribe registers fn to receive every subsequently published event.
// There is no unsubscribe: subscribers live as long as the session.
func (b *Bus) Subscribe(fn func(Event)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subs = append(b.subs, fn)
}

// Publish delivers ev to all subscribers synchronously, in registration
// order.  Delivery happens on the caller's goroutine; subscribers are
// expected to be cheap (set a flag, print a notice).
func (b *Bus) Publish(ev Event) {
	b.mu.Lock()
	subs := make([]func(Event), len(b.subs))
	copy(subs, b.subs)
	b.mu.Unlock()
	for _, fn := range subs {
		fn(ev)
	}
}
