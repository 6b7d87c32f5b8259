/*
Package appctx provides an application context backed by [go.uber.org/fx].

A [Context] holds named bean definitions and the listeners that receive events published through it.
Beans are named, and a bean that shares its type with another can only be requested by name with [Context.PopulateBean].
Nothing is constructed until [Context.Refresh] builds and starts the fx app, and the Context is only active between a successful refresh and [Context.Close].

	ctx := appctx.New(environment, appctx.WithName("demo"))
	_ = ctx.Provide("greeter", NewGreeter)
	_ = ctx.ProvideListener("auditor", NewAuditListener)
	if err := ctx.Refresh(context.Background()); err != nil {
		// The context is inactive, and can't be refreshed again.
	}
	defer ctx.Close(context.Background())
*/
package appctx
