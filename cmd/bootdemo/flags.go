package main

import (
	"fmt"
	"github.com/saylorsolutions/bootx/slogx"
	flag "github.com/spf13/pflag"
	"golang.org/x/term"
	"io"
	"log/slog"
	"os"
	"strings"
)

type options struct {
	configPath  string
	logLevel    string
	logJSON     bool
	logFile     string
	metricsFile string
	failRefresh bool
	jsonChanged bool
}

// isProperty reports whether arg sets a dotted property, like --on.age=12.
// These are left for the environment instead of being parsed as flags.
func isProperty(arg string) bool {
	if !strings.HasPrefix(arg, "--") {
		return false
	}
	key, _, _ := strings.Cut(arg[2:], "=")
	return strings.Contains(key, ".")
}

func parseFlags(args []string, stderr io.Writer) (options, error) {
	var opts options
	fs := flag.NewFlagSet("bootdemo", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVarP(&opts.configPath, "config", "c", "", "Reads properties from a YAML, TOML, or JSON file")
	fs.StringVar(&opts.logLevel, "log-level", "info", "Sets the log level: debug, info, warn, or error")
	fs.BoolVar(&opts.logJSON, "log-json", false, "Logs JSON to stderr. Defaults to true when stderr isn't a terminal")
	fs.StringVar(&opts.logFile, "log-file", "", "Also writes JSON logs to this file")
	fs.StringVar(&opts.metricsFile, "metrics-file", "", "Writes lifecycle metrics to this file in the Prometheus text format on exit")
	fs.BoolVar(&opts.failRefresh, "fail-refresh", false, "Registers a bean that fails to construct, so the application context can't be refreshed")
	fs.Usage = func() {
		_, _ = fmt.Fprintln(stderr, "Usage: bootdemo [flags] [--on.name=NAME] [--on.age=AGE]")
		fs.PrintDefaults()
	}

	var flagArgs []string
	for _, arg := range args {
		if !isProperty(arg) {
			flagArgs = append(flagArgs, arg)
		}
	}
	if err := fs.Parse(flagArgs); err != nil {
		return opts, err
	}
	opts.jsonChanged = fs.Changed("log-json")
	return opts, nil
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// buildLogger logs text to a terminal and JSON otherwise, unless --log-json was given.
// The returned function closes the log file, if there is one.
func buildLogger(opts options, stderr io.Writer) (*slog.Logger, func() error, error) {
	level, err := slogx.ParseLevel(opts.logLevel)
	if err != nil {
		return nil, nil, err
	}
	useJSON := opts.logJSON
	if !opts.jsonChanged {
		useJSON = !isTerminal(stderr)
	}
	console := slogx.NewHandler(stderr, slogx.Options{Level: level, JSON: useJSON})
	if len(opts.logFile) == 0 {
		return slog.New(console), func() error { return nil }, nil
	}
	f, err := os.OpenFile(opts.logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open log file: %w", err)
	}
	file := slogx.NewHandler(f, slogx.Options{Level: level, JSON: true})
	return slog.New(slogx.MergeHandlers(console, file)), f.Close, nil
}
