package multicast

import (
	"github.com/google/uuid"
	"math"
	"reflect"
)

const (
	HighestPrecedence = math.MinInt // HighestPrecedence is the lowest possible order, so the listener is called first.
	LowestPrecedence  = math.MaxInt // LowestPrecedence is the highest possible order, so the listener is called last.
)

// Event is something that happened, to be broadcast to interested listeners.
// Events should be treated as immutable once they're dispatched.
type Event interface {
	// Kind is the event's category tag.
	Kind() Kind
	// Source is the object that raised the event. It may be nil.
	Source() any
}

// Identified is implemented by events that carry a unique ID.
type Identified interface {
	ID() uuid.UUID
}

// EventID returns the ID of an [Identified] event for logging, or an empty string.
func EventID(evt Event) string {
	if id, ok := evt.(Identified); ok {
		return id.ID().String()
	}
	return ""
}

// Listener describes a component that wants to be notified of events.
// A listener is only called when both SupportsKind and SupportsSourceType return true for an event.
type Listener interface {
	// SupportsKind reports whether the listener is interested in events of this kind.
	SupportsKind(kind Kind) bool
	// SupportsSourceType reports whether the listener is interested in events raised by this type of source.
	// The sourceType is nil when an event has no source.
	// Listeners without an opinion should return true.
	SupportsSourceType(sourceType reflect.Type) bool
	// HandleEvent processes the event.
	// Returned errors are passed to the [ErrorHandler] of the dispatching [Multicaster], and never stop delivery to other listeners.
	HandleEvent(evt Event) error
	// Order determines the dispatch position relative to other listeners. Lower values are called first.
	Order() int
}

// HandlerFunc is the processing function of a [FuncListener].
type HandlerFunc func(evt Event) error

// FuncListener adapts a [HandlerFunc] into a [Listener].
// Use [On] to create one.
type FuncListener struct {
	kinds      KindSet
	sourceType reflect.Type
	order      int
	fn         HandlerFunc
}

// ListenerOption configures a [FuncListener].
type ListenerOption func(l *FuncListener)

// WithOrder sets the dispatch order of the listener. The default is 0.
func WithOrder(order int) ListenerOption {
	return func(l *FuncListener) {
		l.order = order
	}
}

// WithSourceType restricts the listener to events raised by sources assignable to sourceType.
// If sourceType is an interface type, then any source implementing it matches.
func WithSourceType(sourceType reflect.Type) ListenerOption {
	return func(l *FuncListener) {
		l.sourceType = sourceType
	}
}

// SourceOf is a type-safe variant of [WithSourceType].
func SourceOf[T any]() ListenerOption {
	return WithSourceType(reflect.TypeFor[T]())
}

// On creates a [Listener] that calls fn for events with any of the given kinds.
// A nil fn will panic, since that can only be a programming error.
func On(kinds KindSet, fn HandlerFunc, opts ...ListenerOption) *FuncListener {
	if fn == nil {
		panic("nil listener function")
	}
	l := &FuncListener{
		kinds: kinds,
		fn:    fn,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func (l *FuncListener) SupportsKind(kind Kind) bool {
	return l.kinds.Has(kind)
}

func (l *FuncListener) SupportsSourceType(sourceType reflect.Type) bool {
	if l.sourceType == nil {
		return true
	}
	if sourceType == nil {
		return false
	}
	return sourceType.AssignableTo(l.sourceType)
}

func (l *FuncListener) HandleEvent(evt Event) error {
	return l.fn(evt)
}

func (l *FuncListener) Order() int {
	return l.order
}
