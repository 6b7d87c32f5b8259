package multicast

import (
	"reflect"
)

// ShouldDeliver determines whether the listener wants the event.
// Both the listener's kind and source type predicates must hold.
//
// Missing or malformed information means the listener is not interested.
// This covers a nil listener or event, an invalid [Kind], and a predicate that panics.
// Filtering can't fail the publishing code.
func ShouldDeliver(listener Listener, evt Event) (deliver bool) {
	if listener == nil || evt == nil {
		return false
	}
	defer func() {
		if r := recover(); r != nil {
			deliver = false
		}
	}()
	kind := evt.Kind()
	if !kind.Valid() {
		return false
	}
	if !listener.SupportsKind(kind) {
		return false
	}
	return listener.SupportsSourceType(SourceType(evt))
}

// SourceType returns the dynamic type of the event's source, or nil if there is no source.
func SourceType(evt Event) reflect.Type {
	if evt == nil {
		return nil
	}
	return reflect.TypeOf(evt.Source())
}

// sameListener compares listeners by identity without panicking on uncomparable dynamic types.
func sameListener(a, b Listener) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	ta, tb := reflect.TypeOf(a), reflect.TypeOf(b)
	if ta != tb || !ta.Comparable() {
		return false
	}
	return a == b
}
