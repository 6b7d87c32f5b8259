package multicast

import (
	"bytes"
	"errors"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"log/slog"
	"testing"
)

type identifiedEvent struct {
	testEvent
	id uuid.UUID
}

func (e identifiedEvent) ID() uuid.UUID { return e.id }

func TestChainErrorHandlers(t *testing.T) {
	var (
		calls     []string
		collected CollectingErrorHandler
		failure   = errors.New("failure")
	)
	chain := ChainErrorHandlers(
		ErrorHandlerFunc(func(err error) {
			calls = append(calls, "first:"+err.Error())
		}),
		nil,
		&collected,
		ErrorHandlerFunc(func(err error) {
			calls = append(calls, "last:"+err.Error())
		}),
	)

	assert.NotPanics(t, func() {
		chain.HandleError(failure)
	})
	assert.Equal(t, []string{"first:failure", "last:failure"}, calls)
	assert.ErrorIs(t, collected.Err(), failure)
}

func TestChainErrorHandlers_Empty(t *testing.T) {
	assert.NotPanics(t, func() {
		ChainErrorHandlers().HandleError(errors.New("ignored"))
		ChainErrorHandlers(nil, nil).HandleError(errors.New("ignored"))
	})
}

func TestChainErrorHandlers_Dispatch(t *testing.T) {
	var first, second CollectingErrorHandler
	m := New(WithErrorHandler(ChainErrorHandlers(&first, &second)))
	m.AddListener(On(KindsOf(testKindA), func(evt Event) error {
		return errors.New("listener failed")
	}))
	m.Dispatch(testEvent{kind: testKindA})
	assert.Len(t, first.Errors(), 1)
	assert.Len(t, second.Errors(), 1)
	assert.ErrorIs(t, second.Err(), ErrListenerFailed)
}

func TestLoggingErrorHandler_EventID(t *testing.T) {
	var buf bytes.Buffer
	m := New(WithLogger(slog.New(slog.NewTextHandler(&buf, nil))))
	m.AddListener(On(KindsOf(testKindA), func(evt Event) error {
		return errors.New("listener failed")
	}))
	evt := identifiedEvent{testEvent: testEvent{kind: testKindA}, id: uuid.New()}
	m.Dispatch(evt)
	assert.Contains(t, buf.String(), "event_id="+evt.id.String())
	assert.Contains(t, buf.String(), "kind=3")
}

func TestEventID(t *testing.T) {
	id := uuid.New()
	assert.Equal(t, id.String(), EventID(identifiedEvent{id: id}))
	assert.Empty(t, EventID(testEvent{kind: testKindA}))
	assert.Empty(t, EventID(nil))
}
