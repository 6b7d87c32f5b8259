package appctx

import (
	"context"
	"errors"
	"fmt"
	"github.com/saylorsolutions/bootx/env"
	"github.com/saylorsolutions/bootx/lifecycle"
	"github.com/saylorsolutions/bootx/patterns/multicast"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"log/slog"
	"reflect"
	"slices"
	"sync"
)

var (
	ErrAlreadyRefreshed = errors.New("application context already refreshed")
	ErrDuplicateBean    = errors.New("duplicate bean name")
	ErrInvalidBean      = errors.New("invalid bean definition")
	ErrNotListener      = errors.New("bean is not a listener")
	ErrRefreshFailed    = errors.New("application context refresh failed")
	ErrCloseFailed      = errors.New("application context close failed")
)

// EnvironmentBean is the name of the bean definition that supplies the [env.Environment].
const EnvironmentBean = "environment"

var (
	_ lifecycle.ApplicationContext = (*Context)(nil)

	errorType    = reflect.TypeOf((*error)(nil)).Elem()
	listenerType = reflect.TypeOf((*multicast.Listener)(nil)).Elem()
)

type beanDef struct {
	name     string
	ctor     any
	out      reflect.Type
	listener bool
}

type namedTarget struct {
	name   string
	target any
}

// Context is an application context backed by an [fx.App].
// Beans are registered as fx constructors before [Context.Refresh], and every bean is constructed when it's refreshed.
type Context struct {
	name    string
	env     *env.Environment
	logger  *slog.Logger
	mc      *multicast.Multicaster
	fxOpts  []fx.Option
	targets []any
	named   []namedTarget

	mux       sync.RWMutex
	beans     []beanDef
	refreshed bool
	active    bool
	closing   bool
	app       *fx.App
}

// Option configures a [Context].
type Option func(c *Context, mcOpts *[]multicast.Option)

// WithName sets the name used in logs.
func WithName(name string) Option {
	return func(c *Context, _ *[]multicast.Option) {
		c.name = name
	}
}

// WithLogger sets the logger used by the Context, its multicaster, and fx.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Context, mcOpts *[]multicast.Option) {
		if logger != nil {
			c.logger = logger
			*mcOpts = append(*mcOpts, multicast.WithLogger(logger))
		}
	}
}

// WithErrorHandler replaces the default [multicast.LoggingErrorHandler] for the Context's listeners.
func WithErrorHandler(handler multicast.ErrorHandler) Option {
	return func(_ *Context, mcOpts *[]multicast.Option) {
		*mcOpts = append(*mcOpts, multicast.WithErrorHandler(handler))
	}
}

// WithFxOptions adds more options to the fx app built by [Context.Refresh].
func WithFxOptions(opts ...fx.Option) Option {
	return func(c *Context, _ *[]multicast.Option) {
		c.fxOpts = append(c.fxOpts, opts...)
	}
}

// New creates an inactive Context for the given environment.
// A nil environment is replaced with an empty one.
func New(environment *env.Environment, opts ...Option) *Context {
	if environment == nil {
		environment = env.New()
	}
	c := &Context{
		name:   "application",
		env:    environment,
		logger: slog.Default(),
	}
	var mcOpts []multicast.Option
	for _, opt := range opts {
		opt(c, &mcOpts)
	}
	c.logger = c.logger.With("component", "appctx", "context", c.name)
	c.mc = multicast.New(mcOpts...)
	c.beans = []beanDef{{name: EnvironmentBean, out: reflect.TypeOf(environment)}}
	return c
}

func (c *Context) Name() string {
	return c.name
}

func (c *Context) Environment() *env.Environment {
	return c.env
}

func (c *Context) String() string {
	return "application context '" + c.name + "'"
}

// Provide registers a bean constructor under a unique name.
// The constructor is an fx constructor returning one value, and optionally an error.
// If no other bean has the same type, then the bean can be injected by type as well as by name.
// Its parameters may be any other bean, the [env.Environment], the [lifecycle.ApplicationContext], or [fx.Lifecycle].
func (c *Context) Provide(name string, constructor any) error {
	return c.register(name, constructor, false)
}

// ProvideListener registers a bean constructor that produces a [multicast.Listener].
// The listener is added to this Context as the bean is constructed during [Context.Refresh].
func (c *Context) ProvideListener(name string, constructor any) error {
	return c.register(name, constructor, true)
}

func (c *Context) register(name string, constructor any, listener bool) error {
	if len(name) == 0 {
		return fmt.Errorf("%w: empty bean name", ErrInvalidBean)
	}
	out, err := constructorOutput(constructor)
	if err != nil {
		return fmt.Errorf("%w '%s': %w", ErrInvalidBean, name, err)
	}
	if listener && !out.Implements(listenerType) {
		return fmt.Errorf("%w: bean '%s' produces %s", ErrNotListener, name, out)
	}
	c.mux.Lock()
	defer c.mux.Unlock()
	if c.refreshed {
		return ErrAlreadyRefreshed
	}
	if slices.ContainsFunc(c.beans, func(def beanDef) bool { return def.name == name }) {
		return fmt.Errorf("%w: '%s'", ErrDuplicateBean, name)
	}
	c.beans = append(c.beans, beanDef{name: name, ctor: constructor, out: out, listener: listener})
	return nil
}

func constructorOutput(constructor any) (reflect.Type, error) {
	if constructor == nil {
		return nil, errors.New("nil constructor")
	}
	ft := reflect.TypeOf(constructor)
	if ft.Kind() != reflect.Func {
		return nil, fmt.Errorf("constructor must be a function, got %s", ft)
	}
	switch {
	case ft.NumOut() == 1 && ft.Out(0) != errorType:
	case ft.NumOut() == 2 && ft.Out(0) != errorType && ft.Out(1) == errorType:
	default:
		return nil, fmt.Errorf("constructor must return a value and an optional error, got %s", ft)
	}
	return ft.Out(0), nil
}

// Populate requests beans to be written into the given pointers during [Context.Refresh].
func (c *Context) Populate(targets ...any) error {
	c.mux.Lock()
	defer c.mux.Unlock()
	if c.refreshed {
		return ErrAlreadyRefreshed
	}
	c.targets = append(c.targets, targets...)
	return nil
}

// PopulateBean requests the bean with the given name be written into target during [Context.Refresh].
// This is the only way to get a bean that shares its type with another bean.
func (c *Context) PopulateBean(name string, target any) error {
	if target == nil || reflect.TypeOf(target).Kind() != reflect.Pointer || reflect.ValueOf(target).IsNil() {
		return fmt.Errorf("%w: populate target for '%s' must be a non-nil pointer", ErrInvalidBean, name)
	}
	c.mux.Lock()
	defer c.mux.Unlock()
	if c.refreshed {
		return ErrAlreadyRefreshed
	}
	c.named = append(c.named, namedTarget{name: name, target: target})
	return nil
}

// BeanNames returns the name of each bean definition in registration order, starting with [EnvironmentBean].
func (c *Context) BeanNames() []string {
	c.mux.RLock()
	defer c.mux.RUnlock()
	names := make([]string, len(c.beans))
	for i, def := range c.beans {
		names[i] = def.name
	}
	return names
}

func (c *Context) IsActive() bool {
	c.mux.RLock()
	defer c.mux.RUnlock()
	return c.active
}

// Publish dispatches an event to the Context's listeners, whether or not it's active.
func (c *Context) Publish(evt multicast.Event) {
	called := c.mc.Dispatch(evt)
	if evt != nil {
		c.logger.Debug("Published event", "kind", lifecycle.KindName(evt.Kind()), "event_id", multicast.EventID(evt), "listeners", called)
	}
}

func (c *Context) AddListener(listener multicast.Listener) {
	c.mc.AddListener(listener)
}

func (c *Context) Listeners() []multicast.Listener {
	return c.mc.Listeners()
}

func nameTag(name string) string {
	return `name:"` + name + `"`
}

func (c *Context) options() ([]fx.Option, error) {
	opts := []fx.Option{
		fx.WithLogger(func() fxevent.Logger {
			l := &fxevent.SlogLogger{Logger: c.logger.With("component", "fx")}
			l.UseLogLevel(slog.LevelDebug)
			return l
		}),
		fx.Supply(c.env),
		fx.Provide(func() lifecycle.ApplicationContext { return c }),
	}
	byType := map[reflect.Type]int{}
	for _, def := range c.beans[1:] {
		if !def.listener {
			byType[def.out]++
		}
	}
	for _, def := range c.beans[1:] {
		opts = append(opts, c.beanOptions(def, byType[def.out] == 1)...)
	}
	for _, nt := range c.named {
		opt, err := c.populateNamed(nt)
		if err != nil {
			return nil, err
		}
		opts = append(opts, opt)
	}
	if len(c.targets) > 0 {
		opts = append(opts, fx.Populate(c.targets...))
	}
	return append(opts, c.fxOpts...), nil
}

// beanOptions provides the bean under its name.
// A bean that's the only one of its type may also be injected by type.
func (c *Context) beanOptions(def beanDef, unique bool) []fx.Option {
	tag := nameTag(def.name)
	if def.listener {
		return []fx.Option{
			fx.Provide(fx.Annotate(def.ctor, fx.As(new(multicast.Listener)), fx.ResultTags(tag))),
			fx.Invoke(fx.Annotate(func(l multicast.Listener) {
				c.AddListener(l)
				c.logger.Debug("Registered listener bean", "bean", def.name)
			}, fx.ParamTags(tag))),
		}
	}
	// Requiring every bean makes construction eager, so a failing constructor fails the refresh.
	want := reflect.MakeFunc(reflect.FuncOf([]reflect.Type{def.out}, nil, false), func([]reflect.Value) []reflect.Value {
		return nil
	})
	opts := []fx.Option{
		fx.Provide(fx.Annotate(def.ctor, fx.ResultTags(tag))),
		fx.Invoke(fx.Annotate(want.Interface(), fx.ParamTags(tag))),
	}
	if unique {
		alias := reflect.MakeFunc(reflect.FuncOf([]reflect.Type{def.out}, []reflect.Type{def.out}, false), func(args []reflect.Value) []reflect.Value {
			return args
		})
		opts = append(opts, fx.Provide(fx.Annotate(alias.Interface(), fx.ParamTags(tag))))
	}
	return opts
}

func (c *Context) populateNamed(nt namedTarget) (fx.Option, error) {
	idx := slices.IndexFunc(c.beans, func(def beanDef) bool { return def.name == nt.name })
	if idx < 0 {
		return nil, fmt.Errorf("%w: no bean named '%s'", ErrInvalidBean, nt.name)
	}
	def := c.beans[idx]
	out := def.out
	if def.listener {
		out = listenerType
	}
	dest := reflect.ValueOf(nt.target).Elem()
	if !out.AssignableTo(dest.Type()) {
		return nil, fmt.Errorf("%w: bean '%s' of type %s can't be assigned to %s", ErrInvalidBean, nt.name, out, dest.Type())
	}
	if idx == 0 {
		dest.Set(reflect.ValueOf(c.env))
		return fx.Options(), nil
	}
	set := reflect.MakeFunc(reflect.FuncOf([]reflect.Type{out}, nil, false), func(args []reflect.Value) []reflect.Value {
		dest.Set(args[0])
		return nil
	})
	return fx.Invoke(fx.Annotate(set.Interface(), fx.ParamTags(nameTag(nt.name)))), nil
}

// Refresh constructs every bean, and starts the underlying [fx.App].
// If that succeeds, then the Context becomes active and publishes a [lifecycle.ContextRefreshedEvent].
// A Context may only be refreshed once, even if the refresh fails.
func (c *Context) Refresh(ctx context.Context) error {
	c.mux.Lock()
	if c.refreshed {
		c.mux.Unlock()
		return ErrAlreadyRefreshed
	}
	c.refreshed = true
	opts, err := c.options()
	c.mux.Unlock()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrRefreshFailed, err)
	}

	c.logger.Info("Refreshing application context", "beans", len(c.beans))
	app := fx.New(opts...)
	if err := app.Err(); err != nil {
		return fmt.Errorf("%w: %w", ErrRefreshFailed, err)
	}
	if err := app.Start(ctx); err != nil {
		return fmt.Errorf("%w: %w", ErrRefreshFailed, err)
	}

	c.mux.Lock()
	c.app = app
	c.active = true
	c.mux.Unlock()

	evt, err := lifecycle.NewContextRefreshedEvent(c)
	if err != nil {
		return err
	}
	c.Publish(evt)
	return nil
}

// Close publishes a [lifecycle.ContextClosedEvent] and stops the underlying [fx.App].
// It does nothing if the Context isn't active.
func (c *Context) Close(ctx context.Context) error {
	c.mux.Lock()
	if !c.active || c.closing {
		c.mux.Unlock()
		return nil
	}
	c.closing = true
	app := c.app
	c.mux.Unlock()

	if evt, err := lifecycle.NewContextClosedEvent(c); err == nil {
		c.Publish(evt)
	}
	err := app.Stop(ctx)

	c.mux.Lock()
	c.active = false
	c.closing = false
	c.mux.Unlock()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrCloseFailed, err)
	}
	c.logger.Info("Closed application context")
	return nil
}
