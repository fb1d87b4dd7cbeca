package resource

import (
	"reflect"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/wippyai/assetcache/errors"
	"github.com/wippyai/assetcache/ident"
)

// Handle is one holder's share of a cached resource.
//
// Every Handle counts as one external holder until Release is called. When
// the last holder releases, the entry is queued and erased by the next Flush.
// Handles returned for missing or malformed resources are never nil; they
// report Valid() == false and carry the reason in Err.
type Handle[P Resource] struct {
	cache    *Cache
	value    P
	err      error
	id       ident.ID
	ref      ref
	released atomic.Bool
}

// Get returns the shared resource, or the zero value for an invalid or
// released handle.
func (h *Handle[P]) Get() P {
	var zero P
	if !h.Valid() {
		return zero
	}
	return h.value
}

// Valid reports whether the handle refers to a live resource. A handle
// still held when DiscardAll erases its entry is no longer valid.
func (h *Handle[P]) Valid() bool {
	return h != nil && h.cache != nil && !h.released.Load() && h.cache.live(h.ref)
}

// ID returns the identifier the handle was requested for.
func (h *Handle[P]) ID() ident.ID {
	if h == nil {
		return ident.Invalid
	}
	return h.id
}

// Err returns why the handle is invalid, if it failed to load.
func (h *Handle[P]) Err() error {
	if h == nil {
		return nil
	}
	return h.err
}

// Clone returns a new handle sharing the same resource, adding a holder.
func (h *Handle[P]) Clone() *Handle[P] {
	if !h.Valid() || !h.cache.retain(h.ref) {
		return &Handle[P]{id: h.ID(), err: errors.Closed("handle")}
	}
	return &Handle[P]{cache: h.cache, value: h.value, id: h.id, ref: h.ref}
}

// Release gives up this holder's share. Calling it more than once is a no-op.
func (h *Handle[P]) Release() {
	if h == nil || h.cache == nil || !h.released.CompareAndSwap(false, true) {
		return
	}
	h.cache.drop(h.ref)
}

func invalid[P Resource](id ident.ID, err error) *Handle[P] {
	return &Handle[P]{id: id, err: err}
}

// Requester is anything resources can be requested from: a *Cache, or the
// *Loader a resource receives in Compile for loading its dependencies.
type Requester interface {
	loader() *Loader
}

// Load returns a handle to the resource of type T stored under id, loading
// and compiling it on a miss. Every error is also logged; callers that do not
// need the error should use Get.
func Load[T any, P interface {
	*T
	Resource
}](r Requester, id ident.ID) (*Handle[P], error) {
	l := r.loader()
	want := reflect.TypeOf(P(nil))

	rf, value, err := l.cache.acquire(l, id, want, func() Resource { return P(new(T)) })
	if err != nil {
		if !errors.Is(err, errors.ErrResourceNotFound) {
			// Not-found is already reported by the registry.
			l.cache.logger.Error("resource unavailable",
				zap.String("id", id.String()),
				zap.String("type", want.String()),
				zap.Error(err))
		}
		return invalid[P](id, err), err
	}
	return &Handle[P]{cache: l.cache, value: value.(P), id: id, ref: rf}, nil
}

// Get is Load without the error. A missing resource yields an invalid handle.
func Get[T any, P interface {
	*T
	Resource
}](r Requester, id ident.ID) *Handle[P] {
	h, _ := Load[T, P](r, id)
	return h
}

// GetByName parses text and returns Get for it. Malformed text is logged and
// yields an invalid handle without touching the cache.
func GetByName[T any, P interface {
	*T
	Resource
}](r Requester, text string) *Handle[P] {
	id, err := ident.Parse(text)
	if err != nil {
		r.loader().cache.logger.Error("malformed resource identifier",
			zap.String("text", text),
			zap.Error(err))
		return invalid[P](id, err)
	}
	return Get[T, P](r, id)
}
