// Package asset provides the typed resources the cache serves.
//
// Each type embeds resource.Base (directly or through Properties) and
// compiles from provider bytes:
//
//	Properties  JSONC or YAML tree with dependencies and properties sections
//	Material    properties plus a shared Shader dependency
//	Shader      staged source with #if blocks over Macros
//	Script      JavaScript compiled with goja
//	Module      WebAssembly compiled with wazero
//	Mesh        model geometry decoded by a MeshLoader
//	Collider    physics shape, optionally backed by a Mesh
//
// Compile-time collaborators (Macros, MeshLoaders, wazero.Runtime) are
// installed on the cache with resource.WithService.
package asset
