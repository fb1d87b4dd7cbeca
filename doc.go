// Package assetcache is a shared resource cache for frame-driven engines.
//
// Assets are addressed by identifiers of the form provider://path, read
// through named providers, compiled once, and shared by every consumer that
// asks for them. Released resources are collected at the end of a frame,
// never in the middle of one.
//
// # Architecture Overview
//
//	assetcache/
//	├── ident/       Resource identifiers: parse, format, resolve siblings
//	├── provider/    Byte sources (directories, archives, embedded, memory) and the registry
//	├── resource/    The cache, handles, dependency loader and deferred collection
//	├── collect/     Garbage queue drained at safe points
//	├── asset/       Concrete resource types: properties, materials, shaders, meshes, ...
//	├── config/      JSONC engine configuration
//	├── engine/      Engine lifecycle: Init, EndFrame, Shutdown
//	├── errors/      Structured error types
//	└── cmd/resview/ Command-line inspector for cache usage
//
// # Quick Start
//
//	e, err := engine.New(config.Default(), engine.WithEmbedded("res", assets))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer e.Shutdown(ctx)
//	if err := e.Init(ctx); err != nil {
//	    log.Fatal(err)
//	}
//
//	mat := resource.Get[asset.Material](e.Cache(), ident.MustParse("res://stone.mat"))
//	defer mat.Release()
//
//	for running {
//	    frame(mat.Get())
//	    e.EndFrame()
//	}
//
// # Lifetime
//
// A resource lives while any handle to it is held. Releasing the last
// handle queues it; EndFrame erases it if nobody asked for it again in the
// meantime. Resources still held at Shutdown are logged as leaks.
//
// # Thread Safety
//
// The cache and registry are safe for concurrent use. Concurrent requests
// for the same uncached identifier compile it once.
package assetcache
