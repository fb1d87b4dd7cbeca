// Package provider supplies raw asset bytes to the resource cache.
//
// A Provider answers two questions for a path local to it: does the path
// exist, and what are its bytes. Providers are grouped into named chains
// inside a Registry:
//
//	reg := provider.NewRegistry()
//	reg.Add("file", provider.NewDirectory("assets"))
//	reg.Add("file", mod) // shadows assets/ for any path mod also has
//
//	data, p, err := reg.Resolve(ident.MustParse("file://materials/stone.mat"))
//
// # Shadowing
//
// Resolution scans a chain from the most recently added provider back to the
// earliest and stops at the first one that has the path. Registering the same
// provider twice is allowed and simply shadows itself.
//
// # Variants
//
//	Filesystem  any billy.Filesystem (NewDirectory uses osfs)
//	Memory      memfs-backed Filesystem with Put, for builtin assets and tests
//	Embedded    any io/fs.FS, typically an embed.FS
//	Archive     a zip file
//
// Providers are immutable once registered. The registry only drops them as a
// whole at teardown through Clear.
package provider
