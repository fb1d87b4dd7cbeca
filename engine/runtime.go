package engine

import (
	"context"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"github.com/tetratelabs/wazero/experimental"

	"github.com/wippyai/assetcache/config"
)

// RuntimeConfig holds wazero settings beyond the config file.
type RuntimeConfig struct {
	// MemoryLimitPages caps memory per instance in 64KiB pages.
	// 256 = 16MB, 1024 = 64MB, 4096 = 256MB
	MemoryLimitPages uint32

	// EnableThreads enables the WebAssembly threads proposal (experimental).
	EnableThreads bool

	// Interpreter selects the interpreter instead of the compiler backend.
	Interpreter bool
}

func runtimeConfig(w config.Wasm) RuntimeConfig {
	return RuntimeConfig{MemoryLimitPages: w.MemoryLimitPages}
}

// NewRuntime creates the wazero runtime wasm modules compile against.
func NewRuntime(ctx context.Context, cfg RuntimeConfig) wazero.Runtime {
	rc := wazero.NewRuntimeConfig()
	if cfg.Interpreter {
		rc = wazero.NewRuntimeConfigInterpreter()
	}
	if cfg.MemoryLimitPages > 0 {
		rc = rc.WithMemoryLimitPages(cfg.MemoryLimitPages)
	}
	if cfg.EnableThreads {
		rc = rc.WithCoreFeatures(api.CoreFeaturesV2 | experimental.CoreFeaturesThreads)
	}
	return wazero.NewRuntimeWithConfig(ctx, rc)
}
