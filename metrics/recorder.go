// Package metrics counts lifecycle events and listener failures with Prometheus.
package metrics

import (
	"errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/saylorsolutions/bootx/lifecycle"
	"github.com/saylorsolutions/bootx/patterns/multicast"
	"strconv"
)

// Recorder holds the lifecycle counters for one registry.
type Recorder struct {
	events   *prometheus.CounterVec
	failures *prometheus.CounterVec
}

// NewRecorder creates and registers the lifecycle counters with reg, using [prometheus.DefaultRegisterer] if it's nil.
func NewRecorder(reg prometheus.Registerer, namespace string) (*Recorder, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	r := &Recorder{
		events: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "lifecycle",
				Name:      "events_total",
				Help:      "Total lifecycle events received, by kind",
			},
			[]string{"kind"},
		),
		failures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "lifecycle",
				Name:      "listener_failures_total",
				Help:      "Total lifecycle listener failures, by event kind and whether the listener panicked",
			},
			[]string{"kind", "panic"},
		),
	}
	if err := reg.Register(r.events); err != nil {
		return nil, err
	}
	if err := reg.Register(r.failures); err != nil {
		reg.Unregister(r.events)
		return nil, err
	}
	return r, nil
}

// Listener counts every event it receives. It's ordered last, so it sees events after all other listeners.
func (r *Recorder) Listener() multicast.Listener {
	return multicast.On(multicast.AllKinds, func(evt multicast.Event) error {
		r.events.WithLabelValues(lifecycle.KindName(evt.Kind())).Inc()
		return nil
	}, multicast.WithOrder(multicast.LowestPrecedence))
}

// ErrorHandler counts each failure. Use [multicast.ChainErrorHandlers] to also log or collect them.
func (r *Recorder) ErrorHandler() multicast.ErrorHandler {
	return multicast.ErrorHandlerFunc(func(err error) {
		kind := "unknown"
		var lerr *multicast.ListenerError
		if errors.As(err, &lerr) && lerr.Event != nil {
			kind = lifecycle.KindName(lerr.Event.Kind())
		}
		panicked := errors.Is(err, multicast.ErrListenerPanic)
		r.failures.WithLabelValues(kind, strconv.FormatBool(panicked)).Inc()
	})
}
