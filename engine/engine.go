package engine

import (
	"context"
	"io"
	"io/fs"
	"os"
	"sync"

	"github.com/google/uuid"
	"github.com/tetratelabs/wazero"
	"go.uber.org/zap"

	"github.com/wippyai/assetcache/asset"
	"github.com/wippyai/assetcache/config"
	"github.com/wippyai/assetcache/errors"
	"github.com/wippyai/assetcache/ident"
	"github.com/wippyai/assetcache/provider"
	"github.com/wippyai/assetcache/resource"
)

type mount struct {
	name     string
	provider provider.Provider
}

// Context owns the registry, cache and runtime of one application.
type Context struct {
	cfg       config.Config
	logger    *zap.Logger
	session   uuid.UUID
	runtime   wazero.Runtime
	rtConfig  RuntimeConfig
	registry  *provider.Registry
	cache     *resource.Cache
	loaders   asset.MeshLoaders
	services  []any
	observers []resource.Observer
	mounts    []mount
	closers   []io.Closer
	preloaded []asset.Any

	mu          sync.Mutex
	frame       uint64
	initialized bool
	shutdown    bool
}

// Option configures a Context.
type Option func(*Context)

// WithLogger injects a logger instead of building one from config.
func WithLogger(l *zap.Logger) Option {
	return func(c *Context) {
		c.logger = l
	}
}

// WithProvider mounts p under name after the configured providers.
func WithProvider(name string, p provider.Provider) Option {
	return func(c *Context) {
		c.mounts = append(c.mounts, mount{name: name, provider: p})
	}
}

// WithEmbedded mounts an fs.FS, typically an embed.FS with built-in assets.
func WithEmbedded(name string, fsys fs.FS) Option {
	return func(c *Context) {
		c.mounts = append(c.mounts, mount{name: name, provider: provider.NewEmbedded(fsys, name)})
	}
}

// WithMeshLoader adds a mesh format.
func WithMeshLoader(name string, l asset.MeshLoader) Option {
	return func(c *Context) {
		c.loaders[name] = l
	}
}

// WithService installs an extra compile-time service on the cache.
func WithService(v any) Option {
	return func(c *Context) {
		c.services = append(c.services, v)
	}
}

// WithObserver subscribes o to cache events.
func WithObserver(o resource.Observer) Option {
	return func(c *Context) {
		c.observers = append(c.observers, o)
	}
}

// WithRuntimeConfig overrides the wazero settings derived from config.
func WithRuntimeConfig(rc RuntimeConfig) Option {
	return func(c *Context) {
		c.rtConfig = rc
	}
}

// New validates cfg and builds a Context. No provider is mounted until Init.
func New(cfg config.Config, opts ...Option) (*Context, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	c := &Context{
		cfg:      cfg,
		session:  uuid.New(),
		rtConfig: runtimeConfig(cfg.Wasm),
		loaders:  asset.MeshLoaders{},
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.logger == nil {
		l, err := NewLogger(cfg.Log)
		if err != nil {
			return nil, err
		}
		c.logger = l
	}
	c.logger = c.logger.With(zap.String("session", c.session.String()))

	c.runtime = NewRuntime(context.Background(), c.rtConfig)
	c.registry = provider.NewRegistry(provider.WithLogger(c.logger))

	copts := []resource.Option{
		resource.WithLogger(c.logger),
		resource.WithService(c.runtime),
		resource.WithService(asset.Macros(cfg.Macros)),
		resource.WithService(c.loaders),
	}
	for _, s := range c.services {
		copts = append(copts, resource.WithService(s))
	}
	for _, o := range c.observers {
		copts = append(copts, resource.WithObserver(o))
	}
	c.cache = resource.New(c.registry, copts...)
	return c, nil
}

// Init mounts the configured providers, then the ones added with options,
// and preloads the configured identifiers. Preload failures are logged and
// do not stop Init.
func (c *Context) Init(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.shutdown {
		return errors.Closed("engine")
	}
	if c.initialized {
		return errors.InvalidInput(errors.PhaseConfig, "engine already initialized")
	}

	if err := c.mountAll(); err != nil {
		return err
	}

	for _, id := range c.cfg.PreloadIDs() {
		h, err := asset.Load(c.cache, id)
		if err != nil {
			c.logger.Warn("preload failed", zap.String("id", id.String()), zap.Error(err))
			continue
		}
		c.preloaded = append(c.preloaded, h)
	}

	c.initialized = true
	c.logger.Info("engine initialized",
		zap.Strings("providers", c.registry.Names()),
		zap.Int("preloaded", len(c.preloaded)))
	return nil
}

// mountAll registers the configured providers, then the option mounts. On
// failure every provider it added is removed again and opened archives are
// closed, so Init can be retried.
func (c *Context) mountAll() error {
	var (
		added  []mount
		opened []io.Closer
	)
	fail := func(err error) error {
		for i := len(added) - 1; i >= 0; i-- {
			c.registry.Remove(added[i].name, added[i].provider)
		}
		for _, cl := range opened {
			_ = cl.Close()
		}
		return err
	}

	for _, pc := range c.cfg.Providers {
		p, err := c.open(pc)
		if err != nil {
			return fail(err)
		}
		if cl, ok := p.(io.Closer); ok {
			opened = append(opened, cl)
		}
		if err := c.registry.Add(pc.Name, p); err != nil {
			return fail(err)
		}
		added = append(added, mount{name: pc.Name, provider: p})
	}
	for _, m := range c.mounts {
		if err := c.registry.Add(m.name, m.provider); err != nil {
			return fail(err)
		}
		added = append(added, m)
	}

	c.closers = append(c.closers, opened...)
	return nil
}

func (c *Context) open(pc config.Provider) (provider.Provider, error) {
	switch pc.Kind {
	case config.KindDir:
		info, err := os.Stat(pc.Path)
		if err != nil {
			return nil, errors.Config(pc.Path, err)
		}
		if !info.IsDir() {
			return nil, errors.InvalidInput(errors.PhaseConfig, "provider "+pc.Name+": "+pc.Path+" is not a directory")
		}
		return provider.NewDirectory(pc.Path), nil
	case config.KindArchive:
		a, err := provider.OpenArchive(pc.Path)
		if err != nil {
			return nil, errors.Config(pc.Path, err)
		}
		return a, nil
	default:
		return nil, errors.Unsupported(errors.PhaseConfig, "provider kind "+pc.Kind)
	}
}

// EndFrame is the per-frame safe point. It erases every resource released
// during the frame and returns how many were erased.
func (c *Context) EndFrame() int {
	c.mu.Lock()
	c.frame++
	frame := c.frame
	c.mu.Unlock()

	n := c.cache.Flush()
	if n > 0 {
		c.logger.Debug("frame collected resources", zap.Uint64("frame", frame), zap.Int("erased", n))
	}
	return n
}

// Shutdown releases preloaded handles, discards the cache, and closes archives
// and the wasm runtime. Resources still held are logged as leaks. Only the
// first call does anything.
func (c *Context) Shutdown(ctx context.Context) error {
	c.mu.Lock()
	if c.shutdown {
		c.mu.Unlock()
		return nil
	}
	c.shutdown = true
	preloaded := c.preloaded
	c.preloaded = nil
	c.mu.Unlock()

	for _, h := range preloaded {
		h.Release()
	}
	c.cache.DiscardAll()

	var first error
	for _, cl := range c.closers {
		if err := cl.Close(); err != nil && first == nil {
			first = err
		}
	}
	if err := c.runtime.Close(ctx); err != nil && first == nil {
		first = err
	}

	c.logger.Info("engine shut down", zap.Uint64("frames", c.Frame()))
	_ = c.logger.Sync()
	return first
}

// Cache returns the resource cache.
func (c *Context) Cache() *resource.Cache {
	return c.cache
}

// Registry returns the provider registry.
func (c *Context) Registry() *provider.Registry {
	return c.registry
}

// Logger returns the engine logger.
func (c *Context) Logger() *zap.Logger {
	return c.logger
}

// Session returns the id tagged on every log line of this Context.
func (c *Context) Session() uuid.UUID {
	return c.session
}

// Runtime returns the wazero runtime.
func (c *Context) Runtime() wazero.Runtime {
	return c.runtime
}

// Config returns the configuration the Context was built from.
func (c *Context) Config() config.Config {
	return c.cfg
}

// Frame returns the number of completed frames.
func (c *Context) Frame() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.frame
}

// Preloaded returns the identifiers held by the Context since Init.
func (c *Context) Preloaded() []ident.ID {
	c.mu.Lock()
	defer c.mu.Unlock()
	ids := make([]ident.ID, len(c.preloaded))
	for i, h := range c.preloaded {
		ids[i] = h.ID()
	}
	return ids
}
