package cache

import "sync"

// EventKind describes a change to the store.
type EventKind string

const (
	EventUpdated     EventKind = "updated"
	EventInvalidated EventKind = "invalidated"
	EventEvicted     EventKind = "evicted"
	EventCleared     EventKind = "cleared"
)

// Event is delivered to subscribers after the store lock is released.
// A Clear event carries the zero Key.
type Event struct {
	Kind EventKind
	Key  Key
}

type subscription struct {
	resource string
	fn       func(Event)
}

// Subscribe registers fn for events on resource ("" for all resources) and returns a
// function that removes the subscription. fn runs on the goroutine that changed the store.
func (s *Store) Subscribe(resource string, fn func(Event)) func() {
	s.subMu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = subscription{resource: resource, fn: fn}
	s.subMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.subMu.Lock()
			delete(s.subs, id)
			s.subMu.Unlock()
		})
	}
}

func (s *Store) publish(ev Event) {
	s.subMu.RLock()
	targets := make([]func(Event), 0, len(s.subs))
	for _, sub := range s.subs {
		if sub.resource == "" || ev.Key.Resource == "" || sub.resource == ev.Key.Resource {
			targets = append(targets, sub.fn)
		}
	}
	s.subMu.RUnlock()

	for _, fn := range targets {
		fn(ev)
	}
}

// Guard drops deliveries to a view that has gone away. A view creates a Guard when it
// starts observing and closes it when it stops; work delivered through Do after Close
// is discarded.
type Guard struct {
	mu     sync.Mutex
	closed bool
}

// NewGuard returns an open guard.
func NewGuard() *Guard {
	return &Guard{}
}

// Do runs fn unless the guard is closed and reports whether it ran.
// Close waits for a running fn to return.
func (g *Guard) Do(fn func()) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.closed {
		return false
	}
	fn()
	return true
}

// Close stops further deliveries. It is idempotent.
func (g *Guard) Close() {
	g.mu.Lock()
	g.closed = true
	g.mu.Unlock()
}

// Closed reports whether Close was called.
func (g *Guard) Closed() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.closed
}

// Watch subscribes fn to resource events through g. Closing g silences fn; the returned
// function also unsubscribes.
func (s *Store) Watch(resource string, g *Guard, fn func(Event)) func() {
	unsubscribe := s.Subscribe(resource, func(ev Event) {
		g.Do(func() { fn(ev) })
	})
	return func() {
		g.Close()
		unsubscribe()
	}
}
