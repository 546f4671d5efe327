// Package cache is the marketplace query cache: an injectable store of read results keyed
// by resource and parameters, with single-flight fetching, staleness windows, explicit
// invalidation and change notifications.
package cache

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/janisto/campus-market/internal/market/marketerr"
	applog "github.com/janisto/campus-market/internal/platform/logging"
)

// Default freshness windows.
const (
	DefaultStaleAfter  = 5 * time.Minute
	DefaultExpireAfter = 10 * time.Minute
)

type entry struct {
	key       Key
	value     any
	hasValue  bool
	err       error
	inflight  int
	stale     bool
	// gen is the invalidation epoch of the entry; valueGen is the epoch the stored value
	// was fetched in.
	gen       uint64
	valueGen  uint64
	fetchedAt time.Time
	staleAt   time.Time
	expireAt  time.Time
}

func (e *entry) live(now time.Time) bool {
	return e.hasValue && !e.stale && now.Before(e.staleAt)
}

// Store holds cache entries. The zero value is not usable; call New.
// All methods are safe for concurrent use.
type Store struct {
	mu      sync.Mutex
	entries map[string]*entry
	group   singleflight.Group
	gen     uint64

	staleAfter  time.Duration
	expireAfter time.Duration
	now         func() time.Time

	subMu   sync.RWMutex
	subs    map[int]subscription
	nextSub int
}

// Option configures a Store.
type Option func(*Store)

// WithStaleAfter sets how long a fetched result is served without refetching.
func WithStaleAfter(d time.Duration) Option {
	return func(s *Store) {
		if d > 0 {
			s.staleAfter = d
		}
	}
}

// WithExpireAfter sets how long a result is kept before Sweep evicts it.
func WithExpireAfter(d time.Duration) Option {
	return func(s *Store) {
		if d > 0 {
			s.expireAfter = d
		}
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// New creates an empty store.
func New(opts ...Option) *Store {
	s := &Store{
		entries:     make(map[string]*entry),
		staleAfter:  DefaultStaleAfter,
		expireAfter: DefaultExpireAfter,
		now:         time.Now,
		subs:        make(map[int]subscription),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.expireAfter < s.staleAfter {
		s.expireAfter = s.staleAfter
	}
	return s
}

// Result is a value returned by Read.
type Result[T any] struct {
	Value T
	// Hit is true when the value was served from a live entry without a remote call.
	Hit bool
	// Stale is true when the key was invalidated while this value was being fetched.
	Stale     bool
	FetchedAt time.Time
}

type flight struct {
	value     any
	stale     bool
	hit       bool
	fetchedAt time.Time
}

// Read returns the live entry for key or fetches it. Concurrent reads of the same key
// share one fetch, unless the key was invalidated after that fetch started: such reads
// start a new one. A failed fetch is attached to the key and returned; the cache never
// retries it on its own.
//
// The fetch runs detached from ctx cancellation so one caller giving up does not fail the
// callers sharing the flight; the backend clients apply their own timeouts.
func Read[T any](ctx context.Context, s *Store, key Key, fetch func(context.Context) (T, error)) (Result[T], error) {
	id := key.id()

	s.mu.Lock()
	gen := s.gen
	if e, ok := s.entries[id]; ok {
		if e.live(s.now()) {
			if v, ok := e.value.(T); ok {
				s.mu.Unlock()
				return Result[T]{Value: v, Hit: true, FetchedAt: e.fetchedAt}, nil
			}
		}
		gen = e.gen
	}
	s.mu.Unlock()

	out, err, _ := s.group.Do(id+"#"+strconv.FormatUint(gen, 10), func() (any, error) {
		return s.fetch(context.WithoutCancel(ctx), key, func(ctx context.Context) (any, error) {
			return fetch(ctx)
		})
	})
	if err != nil {
		var zero T
		return Result[T]{Value: zero}, err
	}
	f := out.(flight)
	v, ok := f.value.(T)
	if !ok {
		var zero T
		return Result[T]{Value: zero}, marketerr.Fetch(key.Resource, fmt.Errorf("cached %T for %s", f.value, key))
	}
	return Result[T]{Value: v, Hit: f.hit, Stale: f.stale, FetchedAt: f.fetchedAt}, nil
}

func (s *Store) fetch(ctx context.Context, key Key, fetch func(context.Context) (any, error)) (flight, error) {
	id := key.id()

	s.mu.Lock()
	e, ok := s.entries[id]
	if ok && e.live(s.now()) {
		// A flight for this key finished between the caller's check and this one.
		f := flight{value: e.value, hit: true, fetchedAt: e.fetchedAt}
		s.mu.Unlock()
		return f, nil
	}
	if !ok {
		e = &entry{key: key, gen: s.gen}
		s.entries[id] = e
	}
	e.inflight++
	startGen := e.gen
	s.mu.Unlock()

	value, err := fetch(ctx)

	s.mu.Lock()
	now := s.now()
	current, tracked := s.entries[id]
	if !tracked || current != e {
		// Cleared while in flight: hand the result to the callers but do not store it.
		s.mu.Unlock()
		if err != nil {
			return flight{}, marketerr.As(err, func(err error) *marketerr.Error { return marketerr.Fetch(key.Resource, err) })
		}
		return flight{value: value, stale: true, fetchedAt: now}, nil
	}
	e.inflight--
	if e.hasValue && startGen < e.valueGen {
		// A fetch started after a later invalidation already stored its result.
		s.mu.Unlock()
		if err != nil {
			return flight{}, marketerr.As(err, func(err error) *marketerr.Error { return marketerr.Fetch(key.Resource, err) })
		}
		return flight{value: value, stale: true, fetchedAt: now}, nil
	}
	if err != nil {
		e.err = marketerr.As(err, func(err error) *marketerr.Error { return marketerr.Fetch(key.Resource, err) })
		e.stale = true
		fetchErr := e.err
		s.mu.Unlock()
		applog.LogWarn(ctx, "cache fetch failed", zap.String("key", key.String()), zap.Error(err))
		return flight{}, fetchErr
	}
	e.value = value
	e.hasValue = true
	e.valueGen = startGen
	e.err = nil
	e.fetchedAt = now
	e.staleAt = now.Add(s.staleAfter)
	e.expireAt = now.Add(s.expireAfter)
	e.stale = e.gen != startGen
	f := flight{value: value, stale: e.stale, fetchedAt: now}
	s.mu.Unlock()

	s.publish(Event{Kind: EventUpdated, Key: key})
	return f, nil
}

// Status is a snapshot of one entry.
type Status struct {
	Loading   bool
	HasValue  bool
	Stale     bool
	Err       error
	Value     any
	FetchedAt time.Time
}

// Peek returns the entry state for key without fetching.
func (s *Store) Peek(key Key) (Status, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[key.id()]
	if !ok {
		return Status{}, false
	}
	return Status{
		Loading:   e.inflight > 0,
		HasValue:  e.hasValue,
		Stale:     !e.live(s.now()),
		Err:       e.err,
		Value:     e.value,
		FetchedAt: e.fetchedAt,
	}, true
}

// Invalidate marks every entry of resource whose params start with prefix as stale and
// returns how many were marked. In-flight fetches are not interrupted; their results are
// stored stale.
func (s *Store) Invalidate(resource string, prefix ...string) int {
	var keys []Key
	s.mu.Lock()
	s.gen++
	for _, e := range s.entries {
		if e.key.Matches(resource, prefix...) {
			e.stale = true
			e.gen = s.gen
			keys = append(keys, e.key)
		}
	}
	s.mu.Unlock()

	for _, k := range keys {
		s.publish(Event{Kind: EventInvalidated, Key: k})
	}
	return len(keys)
}

// InvalidateKeys invalidates each key as a prefix.
func (s *Store) InvalidateKeys(keys ...Key) int {
	n := 0
	for _, k := range keys {
		n += s.Invalidate(k.Resource, k.Params...)
	}
	return n
}

// Sweep evicts entries past their hard expiry and returns the count.
func (s *Store) Sweep() int {
	now := s.now()
	var keys []Key
	s.mu.Lock()
	for id, e := range s.entries {
		if e.inflight > 0 || e.expireAt.IsZero() && e.hasValue {
			continue
		}
		if !now.Before(e.expireAt) {
			delete(s.entries, id)
			keys = append(keys, e.key)
		}
	}
	s.mu.Unlock()

	for _, k := range keys {
		s.publish(Event{Kind: EventEvicted, Key: k})
	}
	return len(keys)
}

// ClearScope drops every entry whose first parameter is scope, as on sign-out.
func (s *Store) ClearScope(scope string) int {
	var keys []Key
	s.mu.Lock()
	s.gen++
	for id, e := range s.entries {
		if e.key.Scope() == scope {
			delete(s.entries, id)
			keys = append(keys, e.key)
		}
	}
	s.mu.Unlock()

	for _, k := range keys {
		s.publish(Event{Kind: EventCleared, Key: k})
	}
	return len(keys)
}

// Clear drops every entry.
func (s *Store) Clear() {
	s.mu.Lock()
	s.gen++
	s.entries = make(map[string]*entry)
	s.mu.Unlock()
	s.publish(Event{Kind: EventCleared})
}

// Len returns the number of entries.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}
