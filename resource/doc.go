// Package resource implements the shared, reference-counted resource cache.
//
// A resource is a compiled asset (material, shader, mesh, script, ...) that
// exists at most once per cache. Consumers hold it through a Handle; the
// cache counts handles and erases an entry only at a safe point, after the
// last handle has been released.
//
// # Loading
//
//	cache := resource.New(registry, resource.WithLogger(log))
//
//	mat := resource.Get[asset.Material](cache, ident.MustParse("file://stone.mat"))
//	defer mat.Release()
//	if !mat.Valid() {
//	    // missing asset: fall back, do not crash
//	}
//
// A miss resolves bytes through the provider registry, constructs a new T,
// and calls Compile exactly once. A hit returns another handle to the same
// instance. Missing resources produce an invalid handle and an error log.
//
// # Dependencies
//
// Compile receives a *Loader. Requesting through it loads dependencies the
// same way and detects cycles:
//
//	func (m *Material) Compile(l *resource.Loader, data []byte) error {
//	    m.shader = resource.Get[Shader](l, shaderID)
//	    ...
//	}
//
// A resource that keeps dependency handles implements Dropper and releases
// them in Drop.
//
// # Deferred Collection
//
// Releasing the last handle never erases anything. It pushes the identifier
// onto a garbage list; Flush erases queued entries that still have no
// holders. Call Flush once per frame after every consumer is done, and
// DiscardAll once at shutdown:
//
//	for running {
//	    frame()
//	    cache.Flush()
//	}
//	cache.DiscardAll() // logs every entry still held as a lifetime leak
//
// # Concurrency
//
// The cache is designed for the frame loop but is safe for concurrent use.
// Concurrent loads of one uncached identifier compile once. Two goroutines
// loading resources that depend on each other in a cycle will block each
// other; a cycle within one load chain is reported as an error.
package resource
