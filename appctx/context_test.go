package appctx

import (
	"context"
	"errors"
	"github.com/saylorsolutions/bootx/env"
	"github.com/saylorsolutions/bootx/lifecycle"
	"github.com/saylorsolutions/bootx/patterns/multicast"
	"github.com/saylorsolutions/bootx/slogx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx"
	"testing"
)

type greeter struct {
	name string
}

func newGreeter(e *env.Environment) *greeter {
	return &greeter{name: e.Val("on.name", "nobody")}
}

type kindRecorder struct {
	kinds []multicast.Kind
}

func (r *kindRecorder) listener() *multicast.FuncListener {
	return multicast.On(multicast.AllKinds, func(evt multicast.Event) error {
		r.kinds = append(r.kinds, evt.Kind())
		return nil
	})
}

func testContext(t *testing.T, opts ...Option) *Context {
	t.Helper()
	environment := env.New(env.NewMapSource("test", map[string]string{"on.name": "demo"}))
	return New(environment, append([]Option{WithName("test"), WithLogger(slogx.Nop())}, opts...)...)
}

func TestContext_RefreshAndClose(t *testing.T) {
	var rec kindRecorder
	c := testContext(t)
	c.AddListener(rec.listener())
	assert.False(t, c.IsActive())

	require.NoError(t, c.Refresh(context.Background()))
	assert.True(t, c.IsActive())
	assert.Equal(t, []multicast.Kind{lifecycle.KindContextRefreshed}, rec.kinds)

	require.NoError(t, c.Close(context.Background()))
	assert.False(t, c.IsActive())
	assert.Equal(t, []multicast.Kind{lifecycle.KindContextRefreshed, lifecycle.KindContextClosed}, rec.kinds)

	require.NoError(t, c.Close(context.Background()), "Close should be idempotent")
	assert.Len(t, rec.kinds, 2)
	assert.ErrorIs(t, c.Refresh(context.Background()), ErrAlreadyRefreshed)
}

func TestContext_CloseBeforeRefresh(t *testing.T) {
	c := testContext(t)
	assert.NoError(t, c.Close(context.Background()))
	assert.False(t, c.IsActive())
}

func TestContext_Beans(t *testing.T) {
	var (
		g   *greeter
		rec kindRecorder
	)
	c := testContext(t)
	require.NoError(t, c.Provide("greeter", newGreeter))
	require.NoError(t, c.ProvideListener("recorder", rec.listener))
	require.NoError(t, c.Populate(&g))
	assert.Equal(t, []string{EnvironmentBean, "greeter", "recorder"}, c.BeanNames())
	assert.Empty(t, c.Listeners(), "Listener beans are added during refresh")

	require.NoError(t, c.Refresh(context.Background()))
	defer func() {
		assert.NoError(t, c.Close(context.Background()))
	}()
	require.NotNil(t, g)
	assert.Equal(t, "demo", g.name)
	assert.Len(t, c.Listeners(), 1)
	assert.Equal(t, []multicast.Kind{lifecycle.KindContextRefreshed}, rec.kinds, "Listener beans should receive the refreshed event")
}

func TestContext_BeansAreEager(t *testing.T) {
	var constructed int
	c := testContext(t)
	require.NoError(t, c.Provide("counter", func() *greeter {
		constructed++
		return &greeter{}
	}))
	require.NoError(t, c.Refresh(context.Background()))
	assert.Equal(t, 1, constructed)
	assert.NoError(t, c.Close(context.Background()))
}

func TestContext_BeanDependencies(t *testing.T) {
	type service struct {
		ctx lifecycle.ApplicationContext
		g   *greeter
	}
	var (
		svc              *service
		started, stopped bool
	)
	c := testContext(t)
	require.NoError(t, c.Provide("greeter", newGreeter))
	require.NoError(t, c.Provide("service", func(lc fx.Lifecycle, ctx lifecycle.ApplicationContext, g *greeter) *service {
		lc.Append(fx.StartStopHook(
			func() { started = true },
			func() { stopped = true },
		))
		return &service{ctx: ctx, g: g}
	}))
	require.NoError(t, c.Populate(&svc))

	require.NoError(t, c.Refresh(context.Background()))
	assert.True(t, started)
	assert.Same(t, c, svc.ctx)
	assert.Equal(t, "demo", svc.g.name)

	require.NoError(t, c.Close(context.Background()))
	assert.True(t, stopped)
}

func TestContext_FailedRefresh(t *testing.T) {
	var rec kindRecorder
	c := testContext(t)
	c.AddListener(rec.listener())
	require.NoError(t, c.Provide("broken", func() (*greeter, error) {
		return nil, errors.New("boom")
	}))

	err := c.Refresh(context.Background())
	assert.ErrorIs(t, err, ErrRefreshFailed)
	assert.ErrorContains(t, err, "boom")
	assert.False(t, c.IsActive())
	assert.Empty(t, rec.kinds)
	assert.ErrorIs(t, c.Refresh(context.Background()), ErrAlreadyRefreshed)
	assert.NoError(t, c.Close(context.Background()))
}

func TestContext_FailedStart(t *testing.T) {
	c := testContext(t, WithFxOptions(fx.Invoke(func(lc fx.Lifecycle) {
		lc.Append(fx.Hook{
			OnStart: func(context.Context) error {
				return errors.New("cannot start")
			},
		})
	})))
	err := c.Refresh(context.Background())
	assert.ErrorIs(t, err, ErrRefreshFailed)
	assert.False(t, c.IsActive())
}

func TestContext_RegistrationErrors(t *testing.T) {
	c := testContext(t)
	assert.ErrorIs(t, c.Provide("", newGreeter), ErrInvalidBean)
	assert.ErrorIs(t, c.Provide("nil", nil), ErrInvalidBean)
	assert.ErrorIs(t, c.Provide("value", &greeter{}), ErrInvalidBean)
	assert.ErrorIs(t, c.Provide("noResult", func() {}), ErrInvalidBean)
	assert.ErrorIs(t, c.Provide("onlyError", func() error { return nil }), ErrInvalidBean)
	assert.ErrorIs(t, c.Provide("badError", func() (*greeter, string) { return nil, "" }), ErrInvalidBean)
	assert.ErrorIs(t, c.Provide(EnvironmentBean, newGreeter), ErrDuplicateBean)
	assert.ErrorIs(t, c.ProvideListener("notListener", newGreeter), ErrNotListener)

	require.NoError(t, c.Provide("greeter", newGreeter))
	assert.ErrorIs(t, c.Provide("greeter", newGreeter), ErrDuplicateBean)
	assert.Equal(t, []string{EnvironmentBean, "greeter"}, c.BeanNames())

	require.NoError(t, c.Refresh(context.Background()))
	assert.ErrorIs(t, c.Provide("late", newGreeter), ErrAlreadyRefreshed)
	assert.ErrorIs(t, c.Populate(new(*greeter)), ErrAlreadyRefreshed)
	assert.NoError(t, c.Close(context.Background()))
}

func TestContext_PublishWhileInactive(t *testing.T) {
	var rec kindRecorder
	c := testContext(t)
	c.AddListener(rec.listener())
	evt, err := lifecycle.NewContextClosedEvent(c)
	require.NoError(t, err)
	c.Publish(evt)
	assert.Equal(t, []multicast.Kind{lifecycle.KindContextClosed}, rec.kinds)
	assert.NotPanics(t, func() {
		c.Publish(nil)
	})
}

func TestContext_WithErrorHandler(t *testing.T) {
	var collected multicast.CollectingErrorHandler
	c := testContext(t, WithErrorHandler(&collected))
	c.AddListener(multicast.On(multicast.KindsOf(lifecycle.KindContextRefreshed), func(multicast.Event) error {
		return errors.New("listener failed")
	}))
	require.NoError(t, c.Refresh(context.Background()), "Listener failures don't fail the refresh")
	assert.Len(t, collected.Errors(), 1)
	assert.NoError(t, c.Close(context.Background()))
}

func TestNew_Defaults(t *testing.T) {
	c := New(nil)
	assert.Equal(t, "application", c.Name())
	assert.NotNil(t, c.Environment())
	assert.Equal(t, []string{EnvironmentBean}, c.BeanNames())
	assert.Equal(t, "application context 'application'", c.String())
}

func TestContext_BeansOfSameType(t *testing.T) {
	var primary, secondary *greeter
	c := testContext(t)
	require.NoError(t, c.Provide("primary", func() *greeter { return &greeter{name: "primary"} }))
	require.NoError(t, c.Provide("secondary", func() *greeter { return &greeter{name: "secondary"} }))
	require.NoError(t, c.PopulateBean("primary", &primary))
	require.NoError(t, c.PopulateBean("secondary", &secondary))

	require.NoError(t, c.Refresh(context.Background()))
	require.NotNil(t, primary)
	require.NotNil(t, secondary)
	assert.Equal(t, "primary", primary.name)
	assert.Equal(t, "secondary", secondary.name)
	assert.NoError(t, c.Close(context.Background()))
}

func TestContext_BeansOfSameType_NotInjectableByType(t *testing.T) {
	var g *greeter
	c := testContext(t)
	require.NoError(t, c.Provide("primary", func() *greeter { return &greeter{name: "primary"} }))
	require.NoError(t, c.Provide("secondary", func() *greeter { return &greeter{name: "secondary"} }))
	require.NoError(t, c.Populate(&g))

	assert.ErrorIs(t, c.Refresh(context.Background()), ErrRefreshFailed, "An ambiguous type has to be requested by name")
	assert.Nil(t, g)
}

func TestContext_PopulateBean(t *testing.T) {
	var (
		g           *greeter
		environment *env.Environment
		listener    multicast.Listener
		rec         kindRecorder
	)
	c := testContext(t)
	require.NoError(t, c.Provide("greeter", newGreeter))
	require.NoError(t, c.ProvideListener("recorder", rec.listener))
	require.NoError(t, c.PopulateBean("greeter", &g))
	require.NoError(t, c.PopulateBean(EnvironmentBean, &environment))
	require.NoError(t, c.PopulateBean("recorder", &listener))

	require.NoError(t, c.Refresh(context.Background()))
	assert.Equal(t, "demo", g.name)
	assert.Same(t, c.Environment(), environment)
	assert.NotNil(t, listener)
	assert.NoError(t, c.Close(context.Background()))
}

func TestContext_PopulateBeanErrors(t *testing.T) {
	var g *greeter
	c := testContext(t)
	assert.ErrorIs(t, c.PopulateBean("greeter", nil), ErrInvalidBean)
	assert.ErrorIs(t, c.PopulateBean("greeter", g), ErrInvalidBean, "A nil pointer can't be written to")

	require.NoError(t, c.PopulateBean("missing", &g))
	err := c.Refresh(context.Background())
	assert.ErrorIs(t, err, ErrRefreshFailed)
	assert.ErrorIs(t, err, ErrInvalidBean)
	assert.False(t, c.IsActive())

	var wrong *string
	c = testContext(t)
	require.NoError(t, c.Provide("greeter", newGreeter))
	require.NoError(t, c.PopulateBean("greeter", &wrong))
	assert.ErrorIs(t, c.Refresh(context.Background()), ErrInvalidBean)

	c = testContext(t)
	require.NoError(t, c.Refresh(context.Background()))
	assert.ErrorIs(t, c.PopulateBean("greeter", &g), ErrAlreadyRefreshed)
	assert.NoError(t, c.Close(context.Background()))
}
