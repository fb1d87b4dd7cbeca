// Package engine owns the resource system for one running application.
//
// A Context wires the pieces together from a config.Config:
//
//	logger    zap, built from the log section unless injected
//	registry  providers mounted from the providers section, in order
//	cache     the resource cache, with compile services installed
//	runtime   the wazero runtime wasm modules compile against
//
// # Lifecycle
//
//	ctx, err := engine.New(cfg)
//	if err := ctx.Init(context.Background()); err != nil { ... }
//	for running {
//	    frame(ctx.Cache())
//	    ctx.EndFrame() // the safe point: queued resources are erased here
//	}
//	ctx.Shutdown(context.Background()) // reports lifetime leaks
//
// EndFrame must be called after every consumer of the frame is done with
// the handles it released. Shutdown runs once; later calls do nothing.
package engine
