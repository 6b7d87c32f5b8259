package multicast

import (
	"cmp"
	"fmt"
	"log/slog"
	"runtime/debug"
	"slices"
	"sync"
)

// Multicaster broadcasts events to the registered listeners that are interested in them.
// Delivery is synchronous, in the caller's goroutine, and ordered by [Listener.Order] with ties kept in registration order.
//
// Registration and dispatch are safe to use concurrently, but a dispatch only sees the listeners registered before it started.
type Multicaster struct {
	logger *slog.Logger

	mux        sync.RWMutex
	listeners  []Listener
	errHandler ErrorHandler
}

// Option configures a [Multicaster].
type Option func(m *Multicaster)

// WithLogger sets the logger used by the [Multicaster] and its default [ErrorHandler].
func WithLogger(logger *slog.Logger) Option {
	return func(m *Multicaster) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// WithErrorHandler overrides the default [LoggingErrorHandler].
func WithErrorHandler(handler ErrorHandler) Option {
	return func(m *Multicaster) {
		if handler != nil {
			m.errHandler = handler
		}
	}
}

// WithListeners registers the given listeners in order.
func WithListeners(listeners ...Listener) Option {
	return func(m *Multicaster) {
		m.addListeners(listeners)
	}
}

// New creates a [Multicaster] with no listeners.
// Failures are logged and ignored unless a different [ErrorHandler] is given.
func New(opts ...Option) *Multicaster {
	m := &Multicaster{
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.errHandler == nil {
		m.errHandler = LoggingErrorHandler(m.logger)
	}
	return m
}

// AddListener registers a listener.
// Listeners are not deduplicated, so registering the same listener twice means it's called twice.
// Nil listeners are ignored.
func (m *Multicaster) AddListener(listener Listener) {
	m.AddListeners(listener)
}

func (m *Multicaster) AddListeners(listeners ...Listener) {
	m.mux.Lock()
	defer m.mux.Unlock()
	m.addListeners(listeners)
}

func (m *Multicaster) addListeners(listeners []Listener) {
	for _, l := range listeners {
		if l == nil {
			continue
		}
		m.listeners = append(m.listeners, l)
	}
}

// Merge registers each listener that isn't already registered, compared by identity.
// It returns the number of listeners that were added.
func (m *Multicaster) Merge(listeners ...Listener) int {
	m.mux.Lock()
	defer m.mux.Unlock()
	added := 0
	for _, l := range listeners {
		if l == nil || slices.ContainsFunc(m.listeners, func(existing Listener) bool {
			return sameListener(existing, l)
		}) {
			continue
		}
		m.listeners = append(m.listeners, l)
		added++
	}
	return added
}

// Listeners returns a copy of the registered listeners in registration order.
func (m *Multicaster) Listeners() []Listener {
	m.mux.RLock()
	defer m.mux.RUnlock()
	return slices.Clone(m.listeners)
}

// Len returns the number of registered listeners.
func (m *Multicaster) Len() int {
	m.mux.RLock()
	defer m.mux.RUnlock()
	return len(m.listeners)
}

// SetErrorHandler replaces the [ErrorHandler] for later dispatches.
// A nil handler restores the default [LoggingErrorHandler].
func (m *Multicaster) SetErrorHandler(handler ErrorHandler) {
	if handler == nil {
		handler = LoggingErrorHandler(m.logger)
	}
	m.mux.Lock()
	defer m.mux.Unlock()
	m.errHandler = handler
}

// Clone creates an independent [Multicaster] with the same listener references, logger, and [ErrorHandler].
// Changes to either one don't affect the other.
func (m *Multicaster) Clone() *Multicaster {
	m.mux.RLock()
	defer m.mux.RUnlock()
	return &Multicaster{
		logger:     m.logger,
		listeners:  slices.Clone(m.listeners),
		errHandler: m.errHandler,
	}
}

// Interested returns the listeners that would receive the event, in delivery order.
func (m *Multicaster) Interested(evt Event) []Listener {
	listeners, _ := m.snapshot()
	return interested(listeners, evt)
}

func (m *Multicaster) snapshot() ([]Listener, ErrorHandler) {
	m.mux.RLock()
	defer m.mux.RUnlock()
	return slices.Clone(m.listeners), m.errHandler
}

type ordered struct {
	listener Listener
	order    int
}

func interested(listeners []Listener, evt Event) []Listener {
	var matched []ordered
	for _, l := range listeners {
		if ShouldDeliver(l, evt) {
			matched = append(matched, ordered{listener: l, order: orderOf(l)})
		}
	}
	if len(matched) == 0 {
		return nil
	}
	slices.SortStableFunc(matched, func(a, b ordered) int {
		return cmp.Compare(a.order, b.order)
	})
	result := make([]Listener, len(matched))
	for i, o := range matched {
		result[i] = o.listener
	}
	return result
}

// orderOf treats a panicking Order as the default order of 0.
func orderOf(l Listener) (order int) {
	defer func() {
		if r := recover(); r != nil {
			order = 0
		}
	}()
	return l.Order()
}

// Dispatch delivers the event to every interested listener in order.
// Listener failures, including panics, are passed to the [ErrorHandler] and delivery continues with the next listener.
// Dispatch returns the number of listeners that were called.
func (m *Multicaster) Dispatch(evt Event) int {
	if evt == nil {
		m.logger.Debug("Ignoring dispatch of nil event")
		return 0
	}
	listeners, errHandler := m.snapshot()
	targets := interested(listeners, evt)
	for _, l := range targets {
		if err := invoke(l, evt); err != nil {
			m.handleError(errHandler, &ListenerError{Listener: l, Event: evt, Err: err})
		}
	}
	return len(targets)
}

func invoke(l Listener, evt Event) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &PanicError{Value: r, Stack: string(debug.Stack())}
		}
	}()
	return l.HandleEvent(evt)
}

func (m *Multicaster) handleError(handler ErrorHandler, err error) {
	defer func() {
		if r := recover(); r != nil {
			m.logger.Error("Error handler panicked", "panic", fmt.Sprint(r), "error", err)
		}
	}()
	handler.HandleError(err)
}
