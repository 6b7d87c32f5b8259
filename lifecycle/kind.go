package lifecycle

import (
	"fmt"
	"github.com/saylorsolutions/bootx/patterns/multicast"
)

// Lifecycle event kinds.
// These are the only kinds published by this package, so a listener's interest can be expressed as a [multicast.KindSet] of them.
const (
	KindStarting            multicast.Kind = iota + 1 // KindStarting is published as soon as a run begins.
	KindEnvironmentPrepared                           // KindEnvironmentPrepared is published when the Environment is available, before a context exists.
	KindContextInitialized                            // KindContextInitialized is published when a context has been created, but not loaded.
	KindPrepared                                      // KindPrepared is published when the context is loaded, but not refreshed.
	KindStarted                                       // KindStarted is published when the context has been refreshed.
	KindReady                                         // KindReady is published when the application is running.
	KindFailed                                        // KindFailed is published when the run fails at any point.
	KindContextRefreshed                              // KindContextRefreshed is published by a context when it becomes active.
	KindContextClosed                                 // KindContextClosed is published by a context when it's closed.
)

var (
	// ApplicationKinds are the kinds of events raised by an Application during a run.
	ApplicationKinds = multicast.KindsOf(KindStarting, KindEnvironmentPrepared, KindContextInitialized, KindPrepared, KindStarted, KindReady, KindFailed)
	// ContextKinds are the kinds of events raised by an application context.
	ContextKinds = multicast.KindsOf(KindContextRefreshed, KindContextClosed)
)

var kindNames = map[multicast.Kind]string{
	KindStarting:            "starting",
	KindEnvironmentPrepared: "environment_prepared",
	KindContextInitialized:  "context_initialized",
	KindPrepared:            "prepared",
	KindStarted:             "started",
	KindReady:               "ready",
	KindFailed:              "failed",
	KindContextRefreshed:    "context_refreshed",
	KindContextClosed:       "context_closed",
}

// KindName returns a stable name for a lifecycle kind, suitable for logs and metric labels.
func KindName(kind multicast.Kind) string {
	if name, ok := kindNames[kind]; ok {
		return name
	}
	return fmt.Sprintf("unknown(%d)", kind)
}
