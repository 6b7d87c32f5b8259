package multicast

import (
	"errors"
	"fmt"
	"go.uber.org/multierr"
	"log/slog"
	"sync"
)

var (
	ErrListenerFailed = errors.New("lifecycle listener failed")
	ErrListenerPanic  = errors.New("lifecycle listener panicked")
)

// ListenerError is passed to an [ErrorHandler] when a [Listener] fails to handle an [Event].
type ListenerError struct {
	Listener Listener
	Event    Event
	Err      error
}

func (e *ListenerError) Error() string {
	return fmt.Sprintf("%s: listener %T handling %T (kind %d): %v", ErrListenerFailed, e.Listener, e.Event, e.Event.Kind(), e.Err)
}

func (e *ListenerError) Unwrap() []error {
	return []error{ErrListenerFailed, e.Err}
}

// PanicError captures a value recovered from a panicking [Listener].
type PanicError struct {
	Value any
	Stack string
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("%s: %v", ErrListenerPanic, e.Value)
}

func (e *PanicError) Is(target error) bool {
	return target == ErrListenerPanic
}

// ErrorHandler receives failures that occur while listeners handle events.
type ErrorHandler interface {
	HandleError(err error)
}

// ErrorHandlerFunc is a function that implements [ErrorHandler].
type ErrorHandlerFunc func(err error)

func (f ErrorHandlerFunc) HandleError(err error) {
	f(err)
}

// LoggingErrorHandler logs each failure at warning level and lets dispatch continue.
// A nil logger uses [slog.Default].
func LoggingErrorHandler(logger *slog.Logger) ErrorHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return ErrorHandlerFunc(func(err error) {
		var lerr *ListenerError
		if errors.As(err, &lerr) && lerr.Event != nil {
			logger.Warn("error calling lifecycle listener", "error", err, "kind", int(lerr.Event.Kind()), "event_id", EventID(lerr.Event))
			return
		}
		logger.Warn("error calling lifecycle listener", "error", err)
	})
}

// ChainErrorHandlers calls each handler in order with every failure. Nil handlers are skipped.
func ChainErrorHandlers(handlers ...ErrorHandler) ErrorHandler {
	return ErrorHandlerFunc(func(err error) {
		for _, h := range handlers {
			if h != nil {
				h.HandleError(err)
			}
		}
	})
}

var _ ErrorHandler = (*CollectingErrorHandler)(nil)

// CollectingErrorHandler keeps every failure so they may be inspected after dispatch.
// It's safe for concurrent use.
type CollectingErrorHandler struct {
	mux sync.Mutex
	err error
}

func (c *CollectingErrorHandler) HandleError(err error) {
	c.mux.Lock()
	defer c.mux.Unlock()
	c.err = multierr.Append(c.err, err)
}

// Err returns all collected failures combined, or nil if there were none.
func (c *CollectingErrorHandler) Err() error {
	c.mux.Lock()
	defer c.mux.Unlock()
	return c.err
}

// Errors returns the collected failures individually.
func (c *CollectingErrorHandler) Errors() []error {
	c.mux.Lock()
	defer c.mux.Unlock()
	return multierr.Errors(c.err)
}
