package lifecycle

import (
	"github.com/saylorsolutions/bootx/patterns/multicast"
	"slices"
	"sync"
)

// Application identifies a bootstrap run, and holds the listeners that should be notified of its lifecycle.
// It's the source of every application event.
type Application struct {
	name string

	mux       sync.RWMutex
	listeners []multicast.Listener
}

// NewApplication creates an [Application] with an initial set of listeners.
func NewApplication(name string, listeners ...multicast.Listener) *Application {
	app := &Application{name: name}
	app.AddListeners(listeners...)
	return app
}

func (a *Application) Name() string {
	return a.name
}

// AddListeners registers more listeners.
// Only listeners added before a [Sequencer] is created for the Application are used by it.
func (a *Application) AddListeners(listeners ...multicast.Listener) {
	a.mux.Lock()
	defer a.mux.Unlock()
	for _, l := range listeners {
		if l != nil {
			a.listeners = append(a.listeners, l)
		}
	}
}

// Listeners returns a copy of the registered listeners, in registration order.
func (a *Application) Listeners() []multicast.Listener {
	a.mux.RLock()
	defer a.mux.RUnlock()
	return slices.Clone(a.listeners)
}

func (a *Application) String() string {
	return "application '" + a.name + "'"
}
