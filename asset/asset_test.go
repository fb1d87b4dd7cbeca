package asset

import (
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/wippyai/assetcache/provider"
	"github.com/wippyai/assetcache/resource"
)

func newCache(t *testing.T, files map[string]string, opts ...resource.Option) (*resource.Cache, *observer.ObservedLogs) {
	t.Helper()
	core, logs := observer.New(zapcore.DebugLevel)
	log := zap.New(core)

	mem := provider.NewMemory()
	for name, data := range files {
		if err := mem.PutString(name, data); err != nil {
			t.Fatalf("Put(%s) failed: %v", name, err)
		}
	}
	reg := provider.NewRegistry(provider.WithLogger(log))
	if err := reg.Add("file", mem); err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	cache := resource.New(reg, append([]resource.Option{resource.WithLogger(log)}, opts...)...)
	t.Cleanup(cache.DiscardAll)
	return cache, logs
}
