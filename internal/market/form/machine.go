// Package form holds draft state for the listing and profile forms and gates submission
// on local validation.
package form

import (
	"context"
	"errors"
	"maps"
	"sync"

	"go.uber.org/zap"

	"github.com/janisto/campus-market/internal/market/marketerr"
)

// State is a form machine state.
type State int

const (
	Editing State = iota
	Validating
	Submitting
	Succeeded
	Failed
	// Closed is terminal: the form was cancelled or closed after a successful submit.
	Closed
)

func (s State) String() string {
	switch s {
	case Editing:
		return "editing"
	case Validating:
		return "validating"
	case Submitting:
		return "submitting"
	case Succeeded:
		return "succeeded"
	case Failed:
		return "failed"
	case Closed:
		return "closed"
	}
	return "unknown"
}

var (
	// ErrLocked is returned by edits and submits while a submission is in flight.
	ErrLocked = errors.New("form is submitting")
	// ErrClosed is returned after the form closed.
	ErrClosed = errors.New("form is closed")
)

// Rules validates a draft and returns per-field messages. An empty result means valid.
type Rules[D any] func(D) map[string]string

type options struct {
	resetOnSuccess bool
	closeOnSuccess bool
	observe        func(from, to State)
	logger         *zap.Logger
}

// Option configures a Machine.
type Option func(*options)

// ResetOnSuccess returns the draft to its initial value after a successful submit.
func ResetOnSuccess() Option {
	return func(o *options) { o.resetOnSuccess = true }
}

// CloseOnSuccess moves the machine to Closed after a successful submit.
func CloseOnSuccess() Option {
	return func(o *options) { o.closeOnSuccess = true }
}

// WithObserver calls fn on every state transition, under the machine lock.
func WithObserver(fn func(from, to State)) Option {
	return func(o *options) { o.observe = fn }
}

// WithLogger logs every state transition at debug level.
func WithLogger(logger *zap.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// Machine is the draft state of one form.
//
// Drafts that hold slices should implement Clone() D so the initial value and submitted
// snapshots are not shared with later edits. Drafts that own staged attachments implement
// Release(); it runs whenever the draft is discarded: on reset, cancel and success.
type Machine[D any] struct {
	mu      sync.Mutex
	name    string
	initial D
	draft   D
	state   State
	errs    map[string]string
	lastErr error
	rules   Rules[D]
	opts    options
}

// NewMachine starts in Editing with initial as the draft.
func NewMachine[D any](name string, initial D, rules Rules[D], opts ...Option) *Machine[D] {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	return &Machine[D]{
		name:    name,
		initial: clone(initial),
		draft:   clone(initial),
		errs:    make(map[string]string),
		rules:   rules,
		opts:    o,
	}
}

func clone[D any](d D) D {
	if c, ok := any(d).(interface{ Clone() D }); ok {
		return c.Clone()
	}
	return d
}

func release[D any](d D) {
	if r, ok := any(d).(interface{ Release() }); ok {
		r.Release()
	}
}

func (m *Machine[D]) transition(to State) {
	from := m.state
	m.state = to
	if m.opts.logger != nil {
		m.opts.logger.Debug("form transition",
			zap.String("form", m.name), zap.Stringer("from", from), zap.Stringer("to", to))
	}
	if m.opts.observe != nil {
		m.opts.observe(from, to)
	}
}

// State returns the current state.
func (m *Machine[D]) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Draft returns a copy of the draft.
func (m *Machine[D]) Draft() D {
	m.mu.Lock()
	defer m.mu.Unlock()
	return clone(m.draft)
}

// Errors returns the per-field messages of the last validation.
func (m *Machine[D]) Errors() map[string]string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return maps.Clone(m.errs)
}

// Err returns the error of the last failed submission, or nil.
func (m *Machine[D]) Err() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastErr
}

// Edit applies fn to the draft and clears field's error.
func (m *Machine[D]) Edit(field string, fn func(*D)) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	switch m.state {
	case Validating, Submitting:
		return ErrLocked
	case Closed:
		return ErrClosed
	}
	fn(&m.draft)
	delete(m.errs, field)
	return nil
}

// Reject records msg as field's error without touching the draft.
func (m *Machine[D]) Reject(field, msg string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errs[field] = msg
}

// Reset restores the initial draft and clears all errors.
func (m *Machine[D]) Reset() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	switch m.state {
	case Validating, Submitting:
		return ErrLocked
	case Closed:
		return ErrClosed
	}
	release(m.draft)
	m.draft = clone(m.initial)
	m.errs = make(map[string]string)
	m.lastErr = nil
	return nil
}

// Cancel discards the draft and closes the form.
func (m *Machine[D]) Cancel() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	switch m.state {
	case Validating, Submitting:
		return ErrLocked
	case Closed:
		return nil
	}
	release(m.draft)
	m.draft = clone(m.initial)
	m.errs = make(map[string]string)
	m.transition(Closed)
	return nil
}

// Submit validates the draft and, when valid, calls fn with a snapshot of it.
//
// Invalid drafts return a validation error carrying the field messages and fn is not
// called. When fn fails the draft is kept for retry. Either way the machine returns to
// Editing, or to Closed after success with CloseOnSuccess.
func (m *Machine[D]) Submit(ctx context.Context, fn func(ctx context.Context, draft D) error) error {
	m.mu.Lock()
	switch m.state {
	case Validating, Submitting:
		m.mu.Unlock()
		return ErrLocked
	case Closed:
		m.mu.Unlock()
		return ErrClosed
	}

	m.transition(Validating)
	errs := m.rules(m.draft)
	if len(errs) > 0 {
		m.errs = maps.Clone(errs)
		m.transition(Editing)
		m.mu.Unlock()
		return marketerr.Validation(m.name, errs)
	}
	m.errs = make(map[string]string)
	m.transition(Submitting)
	snapshot := clone(m.draft)
	m.mu.Unlock()

	err := fn(ctx, snapshot)

	m.mu.Lock()
	defer m.mu.Unlock()
	if err != nil {
		m.lastErr = err
		if fields := marketerr.FieldsOf(err); len(fields) > 0 {
			m.errs = maps.Clone(fields)
		}
		m.transition(Failed)
		m.transition(Editing)
		return err
	}
	m.lastErr = nil
	m.transition(Succeeded)
	if m.opts.resetOnSuccess || m.opts.closeOnSuccess {
		release(m.draft)
		m.draft = clone(m.initial)
	}
	if m.opts.closeOnSuccess {
		m.transition(Closed)
		return nil
	}
	m.transition(Editing)
	return nil
}
