package metrics

import (
	"errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/saylorsolutions/bootx/lifecycle"
	"github.com/saylorsolutions/bootx/patterns/multicast"
	"github.com/saylorsolutions/bootx/slogx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"testing"
)

func TestRecorder_Listener(t *testing.T) {
	reg := prometheus.NewRegistry()
	rec, err := NewRecorder(reg, "test")
	require.NoError(t, err)

	var order []string
	mc := multicast.New(multicast.WithLogger(slogx.Nop()))
	mc.AddListener(rec.Listener())
	mc.AddListener(multicast.On(multicast.AllKinds, func(multicast.Event) error {
		order = append(order, "other")
		assert.Equal(t, float64(len(order)-1), testutil.ToFloat64(rec.events.WithLabelValues("starting")), "Recorder should be called last")
		return nil
	}))

	evt, err := lifecycle.NewStartingEvent(lifecycle.NewApplication("test"), nil)
	require.NoError(t, err)
	assert.Equal(t, 2, mc.Dispatch(evt))
	assert.Equal(t, 2, mc.Dispatch(evt))

	assert.Equal(t, []string{"other", "other"}, order)
	assert.Equal(t, float64(2), testutil.ToFloat64(rec.events.WithLabelValues("starting")))
	count, err := testutil.GatherAndCount(reg, "test_lifecycle_events_total")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestRecorder_ErrorHandler(t *testing.T) {
	reg := prometheus.NewRegistry()
	rec, err := NewRecorder(reg, "test")
	require.NoError(t, err)

	var collected multicast.CollectingErrorHandler
	mc := multicast.New(
		multicast.WithLogger(slogx.Nop()),
		multicast.WithErrorHandler(multicast.ChainErrorHandlers(rec.ErrorHandler(), &collected)),
		multicast.WithListeners(
			multicast.On(multicast.AllKinds, func(multicast.Event) error {
				return errors.New("failed")
			}),
			multicast.On(multicast.AllKinds, func(multicast.Event) error {
				panic("panicked")
			}),
		),
	)
	evt, err := lifecycle.NewFailedEvent(lifecycle.NewApplication("test"), nil, nil, errors.New("cause"))
	require.NoError(t, err)
	mc.Dispatch(evt)

	assert.Equal(t, float64(1), testutil.ToFloat64(rec.failures.WithLabelValues("failed", "false")))
	assert.Equal(t, float64(1), testutil.ToFloat64(rec.failures.WithLabelValues("failed", "true")))
	assert.Len(t, collected.Errors(), 2, "Failures should be passed along")

	assert.NotPanics(t, func() {
		rec.ErrorHandler().HandleError(errors.New("not a listener error"))
	})
	assert.Equal(t, float64(1), testutil.ToFloat64(rec.failures.WithLabelValues("unknown", "false")))
}

func TestNewRecorder_AlreadyRegistered(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := NewRecorder(reg, "test")
	require.NoError(t, err)
	_, err = NewRecorder(reg, "test")
	var already prometheus.AlreadyRegisteredError
	assert.ErrorAs(t, err, &already)

	_, err = NewRecorder(reg, "other")
	assert.NoError(t, err, "A different namespace should not collide")
}
