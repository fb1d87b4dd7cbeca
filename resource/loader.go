package resource

import (
	"strings"

	"go.uber.org/zap"

	"github.com/wippyai/assetcache/ident"
)

// Loader is handed to Compile. It loads dependencies on behalf of the
// resource being compiled and tracks the chain of in-progress loads so a
// resource that depends on itself fails instead of deadlocking.
type Loader struct {
	cache *Cache
	owner ident.ID
	chain []ident.ID
}

func (l *Loader) loader() *Loader {
	return l
}

func (l *Loader) child(id ident.ID) *Loader {
	chain := make([]ident.ID, len(l.chain), len(l.chain)+1)
	copy(chain, l.chain)
	return &Loader{cache: l.cache, owner: id, chain: append(chain, id)}
}

func (l *Loader) inChain(id ident.ID) bool {
	for _, c := range l.chain {
		if c == id {
			return true
		}
	}
	return false
}

func (l *Loader) chainStrings() []string {
	out := make([]string, len(l.chain))
	for i, id := range l.chain {
		out[i] = id.String()
	}
	return out
}

// Owner returns the identifier of the resource being compiled.
func (l *Loader) Owner() ident.ID {
	return l.owner
}

// Cache returns the cache the load runs against.
func (l *Loader) Cache() *Cache {
	return l.cache
}

// Logger returns the cache logger tagged with the owner identifier.
func (l *Loader) Logger() *zap.Logger {
	if !l.owner.Valid() {
		return l.cache.logger
	}
	return l.cache.logger.With(zap.String("id", l.owner.String()))
}

// Read returns raw bytes for id through the provider chain without caching
// anything. Used for payloads owned by a single resource, such as model data.
func (l *Loader) Read(id ident.ID) ([]byte, error) {
	data, _, err := l.cache.registry.Resolve(id)
	return data, err
}

// Ref turns a dependency reference into an identifier. A full identifier is
// parsed as is; anything without a separator is a path relative to the owner.
func (l *Loader) Ref(text string) (ident.ID, error) {
	if text == "" || !l.owner.Valid() || strings.Contains(text, ident.Separator) {
		return ident.Parse(text)
	}
	return l.owner.Sibling(text), nil
}

// Service returns the first value installed with WithService that has type S.
func Service[S any](l *Loader) (S, bool) {
	for _, v := range l.cache.services {
		if s, ok := v.(S); ok {
			return s, true
		}
	}
	var zero S
	return zero, false
}
