package lifecycle

import (
	"errors"
	"fmt"
	"github.com/saylorsolutions/bootx/patterns/multicast"
	"log/slog"
	"slices"
)

var (
	ErrNilApplication = errors.New("nil application")
	ErrPhaseOrder     = errors.New("lifecycle phase out of order")
)

// Sequencer publishes the lifecycle events of a single application run.
//
// Events before the context is loaded are dispatched on the Sequencer's own [multicast.Multicaster].
// When the context is loaded, all listeners are forwarded to it, and later events are published through the context.
// If the run fails while no active context is available, then the failure is delivered by a standalone multicaster instead.
//
// A Sequencer is driven by one goroutine, calling each phase method in lifecycle order.
// It's not safe for concurrent use.
type Sequencer struct {
	app       *Application
	args      []string
	listeners []multicast.Listener
	initial   *multicast.Multicaster
	logger    *slog.Logger
	phase     Phase
}

// SequencerOption configures a [Sequencer].
type SequencerOption func(s *Sequencer, mcOpts *[]multicast.Option)

// WithLogger sets the logger for the [Sequencer] and its multicaster.
func WithLogger(logger *slog.Logger) SequencerOption {
	return func(s *Sequencer, mcOpts *[]multicast.Option) {
		if logger != nil {
			s.logger = logger
			*mcOpts = append(*mcOpts, multicast.WithLogger(logger))
		}
	}
}

// WithErrorHandler sets the [multicast.ErrorHandler] used for events dispatched before the context is loaded.
func WithErrorHandler(handler multicast.ErrorHandler) SequencerOption {
	return func(_ *Sequencer, mcOpts *[]multicast.Option) {
		*mcOpts = append(*mcOpts, multicast.WithErrorHandler(handler))
	}
}

// NewSequencer creates a [Sequencer] for a run of the application with the given arguments.
// The application's listeners at this point are the listeners for the whole run.
func NewSequencer(app *Application, args []string, opts ...SequencerOption) (*Sequencer, error) {
	if app == nil {
		return nil, ErrNilApplication
	}
	s := &Sequencer{
		app:       app,
		args:      slices.Clone(args),
		listeners: app.Listeners(),
		logger:    slog.Default(),
	}
	var mcOpts []multicast.Option
	for _, opt := range opts {
		opt(s, &mcOpts)
	}
	s.logger = s.logger.With("component", "lifecycle", "application", app.Name())
	mcOpts = append(mcOpts, multicast.WithListeners(s.listeners...))
	s.initial = multicast.New(mcOpts...)
	return s, nil
}

// Order places the Sequencer among other run listeners. It's always 0.
func (s *Sequencer) Order() int {
	return 0
}

// Phase returns the most recent phase that was successfully entered.
func (s *Sequencer) Phase() Phase {
	return s.phase
}

// Listeners returns the listeners known to the Sequencer, in registration order.
func (s *Sequencer) Listeners() []multicast.Listener {
	return slices.Clone(s.listeners)
}

func (s *Sequencer) advance(target Phase) error {
	if !s.phase.canAdvance(target) {
		return fmt.Errorf("%w: cannot move from %s to %s", ErrPhaseOrder, s.phase, target)
	}
	return nil
}

func (s *Sequencer) enter(target Phase) {
	s.logger.Debug("Entered lifecycle phase", "from", s.phase.String(), "to", target.String())
	s.phase = target
}

func (s *Sequencer) broadcast(evt multicast.Event) {
	called := s.initial.Dispatch(evt)
	s.logger.Debug("Multicast lifecycle event", "kind", KindName(evt.Kind()), "event_id", multicast.EventID(evt), "listeners", called)
}

// Starting publishes a [StartingEvent].
func (s *Sequencer) Starting() error {
	if err := s.advance(PhaseStarting); err != nil {
		return err
	}
	evt, err := NewStartingEvent(s.app, s.args)
	if err != nil {
		return err
	}
	s.enter(PhaseStarting)
	s.broadcast(evt)
	return nil
}

// EnvironmentPrepared publishes an [EnvironmentPreparedEvent] with the prepared [Environment].
func (s *Sequencer) EnvironmentPrepared(env Environment) error {
	if err := s.advance(PhaseEnvironmentPrepared); err != nil {
		return err
	}
	evt, err := NewEnvironmentPreparedEvent(s.app, s.args, env)
	if err != nil {
		return err
	}
	s.enter(PhaseEnvironmentPrepared)
	s.broadcast(evt)
	return nil
}

// ContextInitialized publishes a [ContextInitializedEvent] for a newly created context.
func (s *Sequencer) ContextInitialized(ctx ApplicationContext) error {
	if err := s.advance(PhaseContextInitialized); err != nil {
		return err
	}
	evt, err := NewContextInitializedEvent(s.app, s.args, ctx)
	if err != nil {
		return err
	}
	s.enter(PhaseContextInitialized)
	s.broadcast(evt)
	return nil
}

// ContextLoaded forwards every listener to the context, and then publishes a [PreparedEvent].
// Listeners that implement [ContextAware] are given the context before they're forwarded.
//
// The PreparedEvent is still dispatched by the Sequencer, since the context isn't refreshed yet.
func (s *Sequencer) ContextLoaded(ctx ApplicationContext) error {
	if err := s.advance(PhaseContextLoaded); err != nil {
		return err
	}
	evt, err := NewPreparedEvent(s.app, s.args, ctx)
	if err != nil {
		return err
	}
	for _, l := range s.listeners {
		if aware, ok := l.(ContextAware); ok {
			aware.SetApplicationContext(ctx)
		}
		ctx.AddListener(l)
	}
	s.logger.Debug("Forwarded listeners to application context", "listeners", len(s.listeners))
	s.enter(PhaseContextLoaded)
	s.broadcast(evt)
	return nil
}

// Started publishes a [StartedEvent] through the context.
func (s *Sequencer) Started(ctx ApplicationContext) error {
	if err := s.advance(PhaseStarted); err != nil {
		return err
	}
	evt, err := NewStartedEvent(s.app, s.args, ctx)
	if err != nil {
		return err
	}
	s.enter(PhaseStarted)
	ctx.Publish(evt)
	return nil
}

// Running publishes a [ReadyEvent] through the context.
func (s *Sequencer) Running(ctx ApplicationContext) error {
	if err := s.advance(PhaseRunning); err != nil {
		return err
	}
	evt, err := NewReadyEvent(s.app, s.args, ctx)
	if err != nil {
		return err
	}
	s.enter(PhaseRunning)
	ctx.Publish(evt)
	return nil
}

// Failed publishes a [FailedEvent] for the cause of the failure.
// The context may be nil if the failure happened before it was created.
//
// If the context is active, then its listeners are already registered with it, so it's used to publish the event.
// Otherwise, the context may not be able to publish at all.
// A clone of the Sequencer's multicaster is given the context's listeners and delivers the event directly, logging any listener failures.
func (s *Sequencer) Failed(ctx ApplicationContext, cause error) error {
	if err := s.advance(PhaseFailed); err != nil {
		return err
	}
	evt, err := NewFailedEvent(s.app, s.args, ctx, cause)
	if err != nil {
		return err
	}
	s.enter(PhaseFailed)
	ctx = evt.Context()
	if ctx != nil && ctx.IsActive() {
		ctx.Publish(evt)
		return nil
	}

	fallback := s.initial.Clone()
	if ctx != nil {
		merged := fallback.Merge(ctx.Listeners()...)
		s.logger.Debug("Merged inactive context listeners for failure delivery", "merged", merged)
	}
	fallback.SetErrorHandler(multicast.LoggingErrorHandler(s.logger))
	called := fallback.Dispatch(evt)
	s.logger.Debug("Delivered failure event without an active context", "event_id", evt.ID().String(), "listeners", called, "cause", cause)
	return nil
}
