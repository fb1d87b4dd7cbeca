package asset

import (
	"context"
	"sort"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"

	"github.com/wippyai/assetcache/errors"
	"github.com/wippyai/assetcache/resource"
)

// Module is a WebAssembly binary compiled by the wazero runtime installed
// on the cache as a service. Compilation happens once per entry; callers
// instantiate as often as they need.
type Module struct {
	resource.Base
	runtime  wazero.Runtime
	compiled wazero.CompiledModule
}

// Compile compiles the binary with the wazero.Runtime service.
func (m *Module) Compile(l *resource.Loader, data []byte) error {
	rt, ok := resource.Service[wazero.Runtime](l)
	if !ok {
		return errors.Unsupported(errors.PhaseCompile, "wasm module without a runtime service")
	}
	compiled, err := rt.CompileModule(context.Background(), data)
	if err != nil {
		return errors.Compile(m.Identifier().String(), err)
	}
	m.runtime = rt
	m.compiled = compiled
	return nil
}

// Compiled returns the compiled module, or nil if compilation failed.
func (m *Module) Compiled() wazero.CompiledModule {
	return m.compiled
}

// Exports returns the exported function names in sorted order.
func (m *Module) Exports() []string {
	if m.compiled == nil {
		return nil
	}
	defs := m.compiled.ExportedFunctions()
	names := make([]string, 0, len(defs))
	for name := range defs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Instantiate creates a new instance named name.
func (m *Module) Instantiate(ctx context.Context, name string) (api.Module, error) {
	if m.compiled == nil {
		return nil, errors.InvalidInput(errors.PhaseCompile, "module "+m.Identifier().String()+" did not compile")
	}
	return m.runtime.InstantiateModule(ctx, m.compiled, wazero.NewModuleConfig().WithName(name))
}

// Drop releases the compiled code.
func (m *Module) Drop() {
	if m.compiled != nil {
		_ = m.compiled.Close(context.Background())
		m.compiled = nil
	}
}
