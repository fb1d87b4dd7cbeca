package engine

import (
	"archive/zip"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/google/go-cmp/cmp"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/wippyai/assetcache/asset"
	"github.com/wippyai/assetcache/config"
	"github.com/wippyai/assetcache/errors"
	"github.com/wippyai/assetcache/ident"
	"github.com/wippyai/assetcache/resource"
)

const minimalShader = "#stage vertex\nv\n#stage fragment\nf\n"

func writeFiles(t *testing.T, dir string, files map[string]string) {
	t.Helper()
	for name, data := range files {
		path := filepath.Join(dir, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatalf("MkdirAll failed: %v", err)
		}
		if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
			t.Fatalf("WriteFile failed: %v", err)
		}
	}
}

func writeZip(t *testing.T, path string, files map[string]string) {
	t.Helper()
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	defer f.Close()
	zw := zip.NewWriter(f)
	for name, data := range files {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatalf("zip Create failed: %v", err)
		}
		if _, err := w.Write([]byte(data)); err != nil {
			t.Fatalf("zip Write failed: %v", err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("zip Close failed: %v", err)
	}
}

func newContext(t *testing.T, cfg config.Config, opts ...Option) (*Context, *observer.ObservedLogs) {
	t.Helper()
	core, logs := observer.New(zapcore.DebugLevel)
	opts = append([]Option{
		WithLogger(zap.New(core)),
		WithRuntimeConfig(RuntimeConfig{Interpreter: true}),
	}, opts...)

	c, err := New(cfg, opts...)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return c, logs
}

func TestContext_Lifecycle(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, filepath.Join(dir, "assets"), map[string]string{
		"a.mat": `{"dependencies": {"shader": "a.shd"}}`,
		"a.shd": minimalShader,
		"b.txt": `{"properties": {"from": "dir"}}`,
	})
	writeZip(t, filepath.Join(dir, "patch.zip"), map[string]string{
		"b.txt": `{"properties": {"from": "archive"}}`,
	})

	cfg := config.Default()
	cfg.Providers = []config.Provider{
		{Name: "file", Kind: config.KindDir, Path: filepath.Join(dir, "assets")},
		{Name: "file", Kind: config.KindArchive, Path: filepath.Join(dir, "patch.zip")},
	}
	cfg.Preload = []string{"file://a.mat", "file://gone.mat"}

	c, logs := newContext(t, cfg)
	ctx := context.Background()
	if err := c.Init(ctx); err != nil {
		t.Fatalf("Init failed: %v", err)
	}

	if diff := cmp.Diff([]ident.ID{ident.MustParse("file://a.mat")}, c.Preloaded()); diff != "" {
		t.Errorf("preloaded mismatch (-want +got):\n%s", diff)
	}
	if logs.FilterMessage("preload failed").Len() != 1 {
		t.Error("missing preload should be logged")
	}
	if c.Cache().Len() != 2 {
		t.Errorf("Len = %d, want material and shader", c.Cache().Len())
	}

	// The archive was mounted last, so it shadows the directory.
	b := resource.Get[asset.Properties](c.Cache(), ident.MustParse("file://b.txt"))
	if got := b.Get().String("from", ""); got != "archive" {
		t.Errorf("b.txt from %q, want archive", got)
	}
	b.Release()

	if n := c.EndFrame(); n != 1 {
		t.Errorf("EndFrame erased %d, want 1", n)
	}
	if n := c.EndFrame(); n != 0 {
		t.Errorf("second EndFrame erased %d, want 0", n)
	}
	if c.Frame() != 2 {
		t.Errorf("Frame = %d, want 2", c.Frame())
	}

	if err := c.Shutdown(ctx); err != nil {
		t.Fatalf("Shutdown failed: %v", err)
	}
	if logs.FilterMessage("resource outlived its holders").Len() != 0 {
		t.Error("preloads are released by Shutdown and are not leaks")
	}
	if c.Cache().Len() != 0 || len(c.Registry().Names()) != 0 {
		t.Error("Shutdown should empty the cache and registry")
	}

	if err := c.Shutdown(ctx); err != nil {
		t.Errorf("second Shutdown: %v", err)
	}
	if logs.FilterMessage("engine shut down").Len() != 1 {
		t.Error("second Shutdown should be a no-op")
	}
	if err := c.Init(ctx); !errors.Is(err, errors.ErrClosed) {
		t.Errorf("Init after Shutdown: got %v", err)
	}
}

func TestContext_ShutdownReportsLeaks(t *testing.T) {
	mem := fstest.MapFS{
		"a.json": {Data: []byte(`{}`)},
		"b.json": {Data: []byte(`{}`)},
	}
	c, logs := newContext(t, config.Default(), WithEmbedded("builtin", mem))
	if err := c.Init(context.Background()); err != nil {
		t.Fatalf("Init failed: %v", err)
	}

	held := resource.Get[asset.Properties](c.Cache(), ident.MustParse("builtin://a.json"))
	released := resource.Get[asset.Properties](c.Cache(), ident.MustParse("builtin://b.json"))
	released.Release()

	if err := c.Shutdown(context.Background()); err != nil {
		t.Fatalf("Shutdown failed: %v", err)
	}

	leaks := logs.FilterMessage("resource outlived its holders").All()
	if len(leaks) != 1 || leaks[0].ContextMap()["id"] != "builtin://a.json" {
		t.Errorf("leaks = %v", leaks)
	}
	held.Release()
}

func TestContext_Services(t *testing.T) {
	var called bool
	loader := asset.MeshLoaderFunc(func([]byte) (asset.MeshData, error) {
		called = true
		return asset.MeshData{Indices: []uint32{0, 0, 0}, Vertices: make([]asset.Vertex, 1)}, nil
	})

	cfg := config.Default()
	cfg.Macros = map[string]any{"LIGHTS": float64(4)}
	mem := fstest.MapFS{
		"lit.shd":  {Data: []byte("#stage vertex\n#if LIGHTS > 2\nmany\n#endif\n#stage fragment\nf\n")},
		"a.mesh":   {Data: []byte(`{"dependencies": {"model": "a.ply"}}`)},
		"a.ply":    {Data: []byte("ply")},
		"add.wasm": {Data: []byte("\x00asm\x01\x00\x00\x00")},
	}

	c, _ := newContext(t, cfg, WithEmbedded("mem", mem), WithMeshLoader("ply", loader))
	ctx := context.Background()
	if err := c.Init(ctx); err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	defer c.Shutdown(ctx)

	shd := resource.Get[asset.Shader](c.Cache(), ident.MustParse("mem://lit.shd"))
	defer shd.Release()
	if src, _ := shd.Get().Stage(asset.StageVertex); src != "#define LIGHTS 4\nmany\n" {
		t.Errorf("vertex = %q", src)
	}

	mesh := resource.Get[asset.Mesh](c.Cache(), ident.MustParse("mem://a.mesh"))
	defer mesh.Release()
	if !called || len(mesh.Get().Data().Indices) != 3 {
		t.Error("registered mesh loader should decode .ply")
	}

	mod := resource.Get[asset.Module](c.Cache(), ident.MustParse("mem://add.wasm"))
	defer mod.Release()
	if mod.Get().Compiled() == nil {
		t.Error("module should compile against the engine runtime")
	}
}

func TestContext_InitErrors(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{"file.txt": "x"})

	tests := []struct {
		name string
		p    config.Provider
	}{
		{"missing dir", config.Provider{Name: "file", Kind: config.KindDir, Path: filepath.Join(dir, "nope")}},
		{"not a dir", config.Provider{Name: "file", Kind: config.KindDir, Path: filepath.Join(dir, "file.txt")}},
		{"bad archive", config.Provider{Name: "file", Kind: config.KindArchive, Path: filepath.Join(dir, "file.txt")}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Default()
			cfg.Providers = []config.Provider{tt.p}
			c, _ := newContext(t, cfg)
			defer c.Shutdown(context.Background())
			if err := c.Init(context.Background()); err == nil {
				t.Error("expected Init to fail")
			}
		})
	}

	t.Run("partial mounts undone", func(t *testing.T) {
		cfg := config.Default()
		cfg.Providers = []config.Provider{
			{Name: "file", Kind: config.KindDir, Path: dir},
			{Name: "file", Kind: config.KindDir, Path: filepath.Join(dir, "nope")},
		}
		c, _ := newContext(t, cfg)
		defer c.Shutdown(context.Background())
		for attempt := 0; attempt < 2; attempt++ {
			err := c.Init(context.Background())
			if err == nil || strings.Contains(err.Error(), "already initialized") {
				t.Fatalf("attempt %d: Init = %v, want the mount error", attempt, err)
			}
			if names := c.Registry().Names(); len(names) != 0 {
				t.Errorf("attempt %d: providers left registered: %v", attempt, names)
			}
		}
	})

	t.Run("bad option mount", func(t *testing.T) {
		cfg := config.Default()
		cfg.Providers = []config.Provider{{Name: "file", Kind: config.KindDir, Path: dir}}
		c, _ := newContext(t, cfg, WithEmbedded("a://b", fstest.MapFS{}))
		defer c.Shutdown(context.Background())
		if err := c.Init(context.Background()); !errors.Is(err, errors.ErrRegistration) {
			t.Fatalf("Init = %v, want a registration error", err)
		}
		if c.Registry().Len("file") != 0 {
			t.Error("configured provider should be removed after a failed Init")
		}
	})

	t.Run("twice", func(t *testing.T) {
		c, _ := newContext(t, config.Default())
		defer c.Shutdown(context.Background())
		if err := c.Init(context.Background()); err != nil {
			t.Fatalf("Init failed: %v", err)
		}
		if err := c.Init(context.Background()); !errors.Is(err, errors.ErrInvalidInput) {
			t.Errorf("second Init: got %v", err)
		}
	})

	t.Run("cancelled", func(t *testing.T) {
		c, _ := newContext(t, config.Default())
		defer c.Shutdown(context.Background())
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		if err := c.Init(ctx); err == nil {
			t.Error("expected a cancelled Init to fail")
		}
	})
}

func TestNew_InvalidConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Log.Level = "loud"
	if _, err := New(cfg); !errors.Is(err, errors.ErrInvalidInput) {
		t.Errorf("expected invalid input, got %v", err)
	}
}

func TestNew_SessionIDs(t *testing.T) {
	a, _ := newContext(t, config.Default())
	b, _ := newContext(t, config.Default())
	defer a.Shutdown(context.Background())
	defer b.Shutdown(context.Background())
	if a.Session() == b.Session() {
		t.Error("each Context should get its own session id")
	}
}

func TestNewLogger(t *testing.T) {
	for _, format := range []string{"console", "json"} {
		l, err := NewLogger(config.Log{Level: "warn", Format: format})
		if err != nil {
			t.Fatalf("%s: NewLogger failed: %v", format, err)
		}
		if l.Core().Enabled(zapcore.InfoLevel) || !l.Core().Enabled(zapcore.WarnLevel) {
			t.Errorf("%s: level not applied", format)
		}
	}
	if _, err := NewLogger(config.Log{Level: "loud", Format: "json"}); err == nil {
		t.Error("expected an error for an unknown level")
	}
}
