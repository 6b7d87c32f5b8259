package lifecycle

import (
	"github.com/saylorsolutions/bootx/patterns/multicast"
)

// ApplicationContext is the container that an application is loaded into.
// Once listeners have been forwarded to it, later lifecycle events are published through it.
type ApplicationContext interface {
	// IsActive reports whether the context has been refreshed and not yet closed.
	IsActive() bool
	// Publish delivers an event to the context's listeners.
	Publish(evt multicast.Event)
	// AddListener registers a listener with the context.
	AddListener(listener multicast.Listener)
	// Listeners returns the listeners currently registered with the context.
	Listeners() []multicast.Listener
}

// ContextAware may be implemented by a [multicast.Listener] that wants a reference to the [ApplicationContext] when it's forwarded to one.
type ContextAware interface {
	SetApplicationContext(ctx ApplicationContext)
}

// Environment is a read-only view of the configuration properties available to an application.
type Environment interface {
	Lookup(key string) (string, bool)
	Keys() []string
}
