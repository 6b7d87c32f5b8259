// Package lifecycle sequences the events of an application run, from starting up to either running or failing.
//
// An [Application] holds the listeners interested in a run.
// A [Sequencer] is created for each run, and its phase methods are called in order as the run progresses.
//
//	Starting -> EnvironmentPrepared -> ContextInitialized -> ContextLoaded -> Started -> Running
//
// Any phase may be skipped, but phases never move backward.
// Failed may be called at any point, and ends the run.
//
// Until the [ApplicationContext] is loaded, events are dispatched directly to the application's listeners.
// Loading the context forwards those listeners to it, and from then on events are published through the context.
package lifecycle
