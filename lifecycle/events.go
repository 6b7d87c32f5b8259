package lifecycle

import (
	"errors"
	"fmt"
	"github.com/google/uuid"
	"github.com/saylorsolutions/bootx/patterns/multicast"
	"reflect"
	"slices"
	"time"
)

var (
	ErrInvalidEvent = errors.New("invalid lifecycle event")
)

var (
	_ multicast.Event = (*StartingEvent)(nil)
	_ multicast.Event = (*EnvironmentPreparedEvent)(nil)
	_ multicast.Event = (*ContextInitializedEvent)(nil)
	_ multicast.Event = (*PreparedEvent)(nil)
	_ multicast.Event = (*StartedEvent)(nil)
	_ multicast.Event = (*ReadyEvent)(nil)
	_ multicast.Event = (*FailedEvent)(nil)
	_ multicast.Event = (*ContextRefreshedEvent)(nil)
	_ multicast.Event = (*ContextClosedEvent)(nil)
)

// AppEvent holds the details common to all events raised by an [Application].
type AppEvent struct {
	id   uuid.UUID
	at   time.Time
	app  *Application
	args []string
}

func newAppEvent(app *Application, args []string) (AppEvent, error) {
	if app == nil {
		return AppEvent{}, fmt.Errorf("%w: nil application", ErrInvalidEvent)
	}
	return AppEvent{
		id:   uuid.New(),
		at:   time.Now(),
		app:  app,
		args: slices.Clone(args),
	}, nil
}

func (e *AppEvent) ID() uuid.UUID {
	return e.id
}

func (e *AppEvent) Timestamp() time.Time {
	return e.at
}

func (e *AppEvent) Application() *Application {
	return e.app
}

// Args returns a copy of the arguments the application was run with.
func (e *AppEvent) Args() []string {
	return slices.Clone(e.args)
}

func (e *AppEvent) Source() any {
	return e.app
}

// StartingEvent is published as early as possible in a run, before anything else has been set up.
type StartingEvent struct {
	AppEvent
}

func NewStartingEvent(app *Application, args []string) (*StartingEvent, error) {
	base, err := newAppEvent(app, args)
	if err != nil {
		return nil, err
	}
	return &StartingEvent{AppEvent: base}, nil
}

func (e *StartingEvent) Kind() multicast.Kind {
	return KindStarting
}

// EnvironmentPreparedEvent is published when the [Environment] is available for inspection and modification.
type EnvironmentPreparedEvent struct {
	AppEvent
	env Environment
}

func NewEnvironmentPreparedEvent(app *Application, args []string, env Environment) (*EnvironmentPreparedEvent, error) {
	if isNil(env) {
		return nil, fmt.Errorf("%w: nil environment", ErrInvalidEvent)
	}
	base, err := newAppEvent(app, args)
	if err != nil {
		return nil, err
	}
	return &EnvironmentPreparedEvent{AppEvent: base, env: env}, nil
}

func (e *EnvironmentPreparedEvent) Kind() multicast.Kind {
	return KindEnvironmentPrepared
}

func (e *EnvironmentPreparedEvent) Environment() Environment {
	return e.env
}

// contextAppEvent is an application event that refers to an [ApplicationContext].
type contextAppEvent struct {
	AppEvent
	ctx ApplicationContext
}

func newContextAppEvent(app *Application, args []string, ctx ApplicationContext) (contextAppEvent, error) {
	if isNil(ctx) {
		return contextAppEvent{}, fmt.Errorf("%w: nil application context", ErrInvalidEvent)
	}
	base, err := newAppEvent(app, args)
	if err != nil {
		return contextAppEvent{}, err
	}
	return contextAppEvent{AppEvent: base, ctx: ctx}, nil
}

func (e *contextAppEvent) Context() ApplicationContext {
	return e.ctx
}

// ContextInitializedEvent is published when the [ApplicationContext] has been created, but nothing has been loaded into it yet.
type ContextInitializedEvent struct {
	contextAppEvent
}

func NewContextInitializedEvent(app *Application, args []string, ctx ApplicationContext) (*ContextInitializedEvent, error) {
	base, err := newContextAppEvent(app, args, ctx)
	if err != nil {
		return nil, err
	}
	return &ContextInitializedEvent{contextAppEvent: base}, nil
}

func (e *ContextInitializedEvent) Kind() multicast.Kind {
	return KindContextInitialized
}

// PreparedEvent is published when the [ApplicationContext] is loaded, but before it's refreshed.
type PreparedEvent struct {
	contextAppEvent
}

func NewPreparedEvent(app *Application, args []string, ctx ApplicationContext) (*PreparedEvent, error) {
	base, err := newContextAppEvent(app, args, ctx)
	if err != nil {
		return nil, err
	}
	return &PreparedEvent{contextAppEvent: base}, nil
}

func (e *PreparedEvent) Kind() multicast.Kind {
	return KindPrepared
}

// StartedEvent is published when the [ApplicationContext] has been refreshed.
type StartedEvent struct {
	contextAppEvent
}

func NewStartedEvent(app *Application, args []string, ctx ApplicationContext) (*StartedEvent, error) {
	base, err := newContextAppEvent(app, args, ctx)
	if err != nil {
		return nil, err
	}
	return &StartedEvent{contextAppEvent: base}, nil
}

func (e *StartedEvent) Kind() multicast.Kind {
	return KindStarted
}

// ReadyEvent is published when the application is running and ready to do its work.
type ReadyEvent struct {
	contextAppEvent
}

func NewReadyEvent(app *Application, args []string, ctx ApplicationContext) (*ReadyEvent, error) {
	base, err := newContextAppEvent(app, args, ctx)
	if err != nil {
		return nil, err
	}
	return &ReadyEvent{contextAppEvent: base}, nil
}

func (e *ReadyEvent) Kind() multicast.Kind {
	return KindReady
}

// FailedEvent is published when a run fails.
// The context is nil if the failure happened before one was created.
type FailedEvent struct {
	AppEvent
	ctx ApplicationContext
	err error
}

func NewFailedEvent(app *Application, args []string, ctx ApplicationContext, cause error) (*FailedEvent, error) {
	if cause == nil {
		return nil, fmt.Errorf("%w: nil failure cause", ErrInvalidEvent)
	}
	base, err := newAppEvent(app, args)
	if err != nil {
		return nil, err
	}
	if isNil(ctx) {
		ctx = nil
	}
	return &FailedEvent{AppEvent: base, ctx: ctx, err: cause}, nil
}

func (e *FailedEvent) Kind() multicast.Kind {
	return KindFailed
}

// Context returns the application context, which may be nil.
func (e *FailedEvent) Context() ApplicationContext {
	return e.ctx
}

// Err returns the cause of the failure.
func (e *FailedEvent) Err() error {
	return e.err
}

// ContextEvent holds the details common to events raised by an [ApplicationContext] about itself.
type ContextEvent struct {
	id  uuid.UUID
	at  time.Time
	ctx ApplicationContext
}

func newContextEvent(ctx ApplicationContext) (ContextEvent, error) {
	if isNil(ctx) {
		return ContextEvent{}, fmt.Errorf("%w: nil application context", ErrInvalidEvent)
	}
	return ContextEvent{id: uuid.New(), at: time.Now(), ctx: ctx}, nil
}

func (e *ContextEvent) ID() uuid.UUID {
	return e.id
}

func (e *ContextEvent) Timestamp() time.Time {
	return e.at
}

func (e *ContextEvent) Context() ApplicationContext {
	return e.ctx
}

func (e *ContextEvent) Source() any {
	return e.ctx
}

// ContextRefreshedEvent is published by an [ApplicationContext] when it becomes active.
type ContextRefreshedEvent struct {
	ContextEvent
}

func NewContextRefreshedEvent(ctx ApplicationContext) (*ContextRefreshedEvent, error) {
	base, err := newContextEvent(ctx)
	if err != nil {
		return nil, err
	}
	return &ContextRefreshedEvent{ContextEvent: base}, nil
}

func (e *ContextRefreshedEvent) Kind() multicast.Kind {
	return KindContextRefreshed
}

// ContextClosedEvent is published by an [ApplicationContext] as it's closed.
type ContextClosedEvent struct {
	ContextEvent
}

func NewContextClosedEvent(ctx ApplicationContext) (*ContextClosedEvent, error) {
	base, err := newContextEvent(ctx)
	if err != nil {
		return nil, err
	}
	return &ContextClosedEvent{ContextEvent: base}, nil
}

func (e *ContextClosedEvent) Kind() multicast.Kind {
	return KindContextClosed
}

// isNil catches typed nil pointers stored in interfaces as well as nil interfaces.
func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Func, reflect.Interface, reflect.Chan:
		return rv.IsNil()
	default:
		return false
	}
}
