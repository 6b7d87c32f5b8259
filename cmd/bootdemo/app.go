package main

import (
	"context"
	"errors"
	"fmt"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/saylorsolutions/bootx/appctx"
	"github.com/saylorsolutions/bootx/lifecycle"
	"github.com/saylorsolutions/bootx/metrics"
	"github.com/saylorsolutions/bootx/patterns/multicast"
	flag "github.com/spf13/pflag"
	"io"
	"log/slog"
)

const appName = "bootdemo"

var (
	errSimulatedRefresh = errors.New("simulated refresh failure")
)

type unreliable struct{}

func bannerListener(out io.Writer) multicast.Listener {
	return multicast.On(multicast.KindsOf(lifecycle.KindStarting), func(multicast.Event) error {
		_, err := fmt.Fprintln(out, "**************** bootdemo: Application is starting. ****************")
		return err
	}, multicast.SourceOf[*lifecycle.Application]())
}

func failureListener(out io.Writer) multicast.Listener {
	return multicast.On(multicast.KindsOf(lifecycle.KindFailed), func(evt multicast.Event) error {
		failed, ok := evt.(*lifecycle.FailedEvent)
		if !ok {
			return nil
		}
		_, err := fmt.Fprintf(out, "Application failed: %v\n", failed.Err())
		return err
	})
}

// run drives a single application run, and returns the process exit code.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	opts, err := parseFlags(args, stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}
	logger, closeLog, err := buildLogger(opts, stderr)
	if err != nil {
		_, _ = fmt.Fprintln(stderr, err)
		return 2
	}
	defer func() {
		_ = closeLog()
	}()
	logger = logger.With("component", appName)

	reg := prometheus.NewRegistry()
	recorder, err := metrics.NewRecorder(reg, appName)
	if err != nil {
		logger.Error("Failed to register metrics", "error", err)
		return 1
	}
	if len(opts.metricsFile) > 0 {
		defer func() {
			if err := prometheus.WriteToTextfile(opts.metricsFile, reg); err != nil {
				logger.Error("Failed to write metrics file", "error", err)
			}
		}()
	}

	app := lifecycle.NewApplication(appName,
		bannerListener(stdout),
		failureListener(stderr),
		recorder.Listener(),
	)
	errHandler := multicast.ChainErrorHandlers(recorder.ErrorHandler(), multicast.LoggingErrorHandler(logger))
	seq, err := lifecycle.NewSequencer(app, args, lifecycle.WithLogger(logger), lifecycle.WithErrorHandler(errHandler))
	if err != nil {
		logger.Error("Failed to create lifecycle sequencer", "error", err)
		return 1
	}
	d := &demo{
		opts:    opts,
		args:    args,
		logger:  logger,
		seq:     seq,
		reg:     reg,
		handler: errHandler,
	}
	props, err := d.start(ctx)
	if err != nil {
		d.fail(err)
		return 1
	}
	_, _ = fmt.Fprintln(stdout, props.Age)
	_, _ = fmt.Fprintf(stdout, "The number of beans is: %d\n", len(d.appCtx.BeanNames()))
	if err := d.appCtx.Close(ctx); err != nil {
		logger.Error("Failed to close application context", "error", err)
		return 1
	}
	return 0
}

type demo struct {
	opts    options
	args    []string
	logger  *slog.Logger
	seq     *lifecycle.Sequencer
	reg     *prometheus.Registry
	handler multicast.ErrorHandler
	appCtx  *appctx.Context
}

func (d *demo) start(ctx context.Context) (*demoProperties, error) {
	if err := d.seq.Starting(); err != nil {
		return nil, err
	}
	environment, err := buildEnvironment(d.opts.configPath, d.args)
	if err != nil {
		return nil, err
	}
	if err := d.seq.EnvironmentPrepared(environment); err != nil {
		return nil, err
	}

	d.appCtx = appctx.New(environment,
		appctx.WithName(appName),
		appctx.WithLogger(d.logger),
		appctx.WithErrorHandler(d.handler),
	)
	if err := d.seq.ContextInitialized(d.appCtx); err != nil {
		return nil, err
	}
	var props *demoProperties
	if err := d.register(&props); err != nil {
		return nil, err
	}
	if err := d.seq.ContextLoaded(d.appCtx); err != nil {
		return nil, err
	}

	if err := d.appCtx.Refresh(ctx); err != nil {
		return nil, err
	}
	if err := d.seq.Started(d.appCtx); err != nil {
		return nil, err
	}
	if err := d.seq.Running(d.appCtx); err != nil {
		return nil, err
	}
	return props, nil
}

func (d *demo) register(props **demoProperties) error {
	if err := d.appCtx.Provide("demoProperties", newDemoProperties); err != nil {
		return err
	}
	if err := d.appCtx.Provide("metricsRegistry", func() prometheus.Gatherer { return d.reg }); err != nil {
		return err
	}
	if d.opts.failRefresh {
		if err := d.appCtx.Provide("unreliable", func() (*unreliable, error) { return nil, errSimulatedRefresh }); err != nil {
			return err
		}
	}
	return d.appCtx.Populate(props)
}

// fail reports the failure to listeners. The context is nil if the run failed before it was created.
func (d *demo) fail(err error) {
	d.logger.Error("Application run failed", "error", err)
	var failErr error
	if d.appCtx == nil {
		failErr = d.seq.Failed(nil, err)
	} else {
		failErr = d.seq.Failed(d.appCtx, err)
	}
	if failErr != nil {
		d.logger.Error("Failed to publish failure event", "error", failErr)
	}
	if d.appCtx != nil {
		if err := d.appCtx.Close(context.Background()); err != nil {
			d.logger.Error("Failed to close application context", "error", err)
		}
	}
}
