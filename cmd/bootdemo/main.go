// Command bootdemo runs a small application through every lifecycle phase.
//
//	bootdemo [--config app.yaml] [--log-level debug] [--on.name=demo --on.age=12]
//
// Properties under the "on" prefix may come from arguments, ON_* environment variables, or the config file, in that order of precedence.
package main

import (
	"context"
	"os"
	"os/signal"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	cancel()
	os.Exit(code)
}
