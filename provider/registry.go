package provider

import (
	"sort"
	"strconv"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/wippyai/assetcache/errors"
	"github.com/wippyai/assetcache/ident"
)

// Registry holds the ordered provider chains, keyed by provider name.
type Registry struct {
	chains map[string][]Provider
	logger *zap.Logger
	mu     sync.RWMutex
}

// Option configures a Registry.
type Option func(*Registry)

// WithLogger sets the logger used for resolution diagnostics.
func WithLogger(l *zap.Logger) Option {
	return func(r *Registry) {
		if l != nil {
			r.logger = l
		}
	}
}

// NewRegistry creates an empty registry.
func NewRegistry(opts ...Option) *Registry {
	r := &Registry{
		chains: make(map[string][]Provider),
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Add appends p to the chain for name, creating the chain if absent.
// Adding the same provider twice creates a shadow of itself.
func (r *Registry) Add(name string, p Provider) error {
	if name == "" {
		return errors.Registration(name, "empty provider name")
	}
	if strings.Contains(name, ident.Separator) {
		return errors.Registration(name, "provider name contains "+ident.Separator)
	}
	if p == nil {
		return errors.Registration(name, "nil provider")
	}

	r.mu.Lock()
	r.chains[name] = append(r.chains[name], p)
	depth := len(r.chains[name])
	r.mu.Unlock()

	r.logger.Debug("provider registered",
		zap.String("provider", name),
		zap.String("source", Describe(p)),
		zap.Int("depth", depth))
	return nil
}

// Resolve returns the bytes for id from the most recently added provider
// in its chain that has the path.
func (r *Registry) Resolve(id ident.ID) ([]byte, Provider, error) {
	p, err := r.find(id)
	if err != nil {
		r.logger.Error("resource not found", zap.String("id", id.String()), zap.Error(err))
		return nil, nil, err
	}

	data, err := p.Read(id.Path)
	if err != nil {
		rerr := errors.ReadFailed(id.String(), err)
		r.logger.Error("resource not found", zap.String("id", id.String()), zap.Error(rerr))
		return nil, nil, rerr
	}
	return data, p, nil
}

// Find returns the provider that would serve id, without reading it.
func (r *Registry) Find(id ident.ID) (Provider, bool) {
	p, err := r.find(id)
	return p, err == nil
}

func (r *Registry) find(id ident.ID) (Provider, error) {
	r.mu.RLock()
	chain := r.chains[id.Provider]
	r.mu.RUnlock()

	if len(chain) == 0 {
		return nil, errors.NotFound(id.String(), "no providers registered under "+strconv.Quote(id.Provider))
	}
	for i := len(chain) - 1; i >= 0; i-- {
		if chain[i].Has(id.Path) {
			return chain[i], nil
		}
	}
	return nil, errors.NotFound(id.String(), "no provider in chain has the path")
}

// Latest returns the most recently added provider for name.
func (r *Registry) Latest(name string) (Provider, bool) {
	r.mu.RLock()
	chain := r.chains[name]
	r.mu.RUnlock()

	if len(chain) == 0 {
		r.logger.Error("no providers registered", zap.String("provider", name))
		return nil, false
	}
	return chain[len(chain)-1], true
}

// Chain returns a copy of the chain for name, earliest first.
func (r *Registry) Chain(name string) []Provider {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]Provider(nil), r.chains[name]...)
}

// Len returns the number of providers registered under name.
func (r *Registry) Len(name string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.chains[name])
}

// Names returns the registered provider names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	names := make([]string, 0, len(r.chains))
	for name := range r.chains {
		names = append(names, name)
	}
	r.mu.RUnlock()
	sort.Strings(names)
	return names
}

// Remove takes the most recent registration of p out of the chain for name.
// It reports whether p was found.
func (r *Registry) Remove(name string, p Provider) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	chain := r.chains[name]
	for i := len(chain) - 1; i >= 0; i-- {
		if chain[i] != p {
			continue
		}
		chain = append(chain[:i:i], chain[i+1:]...)
		if len(chain) == 0 {
			delete(r.chains, name)
		} else {
			r.chains[name] = chain
		}
		return true
	}
	return false
}

// Clear drops every chain. Only called at full teardown.
func (r *Registry) Clear() {
	r.mu.Lock()
	r.chains = make(map[string][]Provider)
	r.mu.Unlock()
}
