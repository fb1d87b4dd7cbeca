package resource

import (
	"fmt"
	"reflect"
	"sort"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/wippyai/assetcache/collect"
	"github.com/wippyai/assetcache/errors"
	"github.com/wippyai/assetcache/ident"
	"github.com/wippyai/assetcache/provider"
)

// Cache maps identifiers to shared, lazily compiled resources.
type Cache struct {
	registry  *provider.Registry
	logger    *zap.Logger
	services  []any
	observers []Observer
	obsMu     sync.RWMutex

	mu      sync.Mutex
	table   map[string]map[string]ref
	slots   *arena
	retired []ref
	closed  bool

	garbage collect.Queue[ident.ID]
	loads   singleflight.Group
}

// Option configures a Cache.
type Option func(*Cache)

// WithLogger sets the cache logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *Cache) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithService makes v available to Compile through Service.
func WithService(v any) Option {
	return func(c *Cache) {
		if v != nil {
			c.services = append(c.services, v)
		}
	}
}

// WithObserver subscribes o before the first load.
func WithObserver(o Observer) Option {
	return func(c *Cache) {
		if o != nil {
			c.observers = append(c.observers, o)
		}
	}
}

// New creates a cache resolving bytes through reg.
// A nil registry gets a fresh empty one.
func New(reg *provider.Registry, opts ...Option) *Cache {
	c := &Cache{
		registry: reg,
		logger:   Logger(),
		table:    make(map[string]map[string]ref),
		slots:    newArena(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.registry == nil {
		c.registry = provider.NewRegistry(provider.WithLogger(c.logger))
	}
	return c
}

// Registry returns the provider registry the cache resolves through.
func (c *Cache) Registry() *provider.Registry {
	return c.registry
}

// AddProvider registers p under name in the cache's registry.
func (c *Cache) AddProvider(name string, p provider.Provider) error {
	return c.registry.Add(name, p)
}

func (c *Cache) loader() *Loader {
	return &Loader{cache: c}
}

// acquire returns a ref with one more holder for id, loading on a miss.
func (c *Cache) acquire(l *Loader, id ident.ID, want reflect.Type, construct func() Resource) (ref, Resource, error) {
	if !id.Valid() {
		return ref{}, nil, errors.MalformedIdentifier(id.String(), "empty provider or path")
	}
	if l.inChain(id) {
		return ref{}, nil, errors.Cycle(append(l.chainStrings(), id.String()))
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ref{}, nil, errors.Closed("resource cache")
	}
	if r, s := c.lookupLocked(id); s != nil && !s.pending {
		if err := checkType(id, s.value, want); err != nil {
			c.mu.Unlock()
			return ref{}, nil, err
		}
		s.holders++
		value := s.value
		c.mu.Unlock()
		return r, value, nil
	}
	c.mu.Unlock()

	v, err, _ := c.loads.Do(id.String(), func() (any, error) {
		return c.load(l, id, construct)
	})
	if err != nil {
		return ref{}, nil, err
	}
	r := v.(ref)

	c.mu.Lock()
	defer c.mu.Unlock()
	s := c.slots.get(r)
	if s == nil {
		return ref{}, nil, errors.Closed("resource cache")
	}
	if err := checkType(id, s.value, want); err != nil {
		return ref{}, nil, err
	}
	s.holders++
	s.pending = false
	return r, s.value, nil
}

// load resolves, constructs and compiles id, then inserts it.
// Called at most once at a time per identifier.
func (c *Cache) load(l *Loader, id ident.ID, construct func() Resource) (ref, error) {
	c.mu.Lock()
	if r, s := c.lookupLocked(id); s != nil && !s.pending {
		c.mu.Unlock()
		return r, nil
	}
	c.mu.Unlock()

	data, _, err := c.registry.Resolve(id)
	if err != nil {
		return ref{}, err
	}

	value := construct()
	value.bind(id)

	cerr := value.Compile(l.child(id), data)
	if cerr != nil {
		if !errors.Is(cerr, errors.ErrCompile) {
			cerr = errors.Compile(id.String(), cerr)
		}
		c.logger.Error("resource compile failed",
			zap.String("id", id.String()),
			zap.String("type", typeName(value)),
			zap.Error(cerr))
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		dropValue(value)
		return ref{}, errors.Closed("resource cache")
	}
	r := c.slots.alloc(id, value, cerr)
	paths, ok := c.table[id.Provider]
	if !ok {
		paths = make(map[string]ref)
		c.table[id.Provider] = paths
	}
	if old, ok := paths[id.Path]; ok {
		// A pending entry is being replaced; Flush still owns erasing it.
		c.retired = append(c.retired, old)
	}
	paths[id.Path] = r
	c.mu.Unlock()

	c.logger.Debug("resource loaded",
		zap.String("id", id.String()),
		zap.String("type", typeName(value)),
		zap.Int("bytes", len(data)))
	c.notify(Event{Type: EventLoaded, ID: id, Value: value})
	return r, nil
}

func (c *Cache) lookupLocked(id ident.ID) (ref, *slot) {
	paths, ok := c.table[id.Provider]
	if !ok {
		return ref{}, nil
	}
	r, ok := paths[id.Path]
	if !ok {
		return ref{}, nil
	}
	return r, c.slots.get(r)
}

// live reports whether r still addresses a cache entry.
func (c *Cache) live(r ref) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.slots.get(r) != nil
}

// retain adds a holder to a live ref.
func (c *Cache) retain(r ref) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := c.slots.get(r)
	if s == nil {
		return false
	}
	s.holders++
	return true
}

// drop removes a holder and queues the entry once no holders remain.
func (c *Cache) drop(r ref) {
	c.mu.Lock()
	s := c.slots.get(r)
	if s == nil || s.holders == 0 {
		c.mu.Unlock()
		return
	}
	s.holders--
	if s.holders > 0 {
		c.mu.Unlock()
		return
	}
	id, value := s.id, s.value
	queued := c.markLocked(r, s)
	c.mu.Unlock()

	if queued {
		c.notify(Event{Type: EventReleased, ID: id, Value: value})
	}
}

// markLocked queues s for collection if it is the table's current entry.
func (c *Cache) markLocked(r ref, s *slot) bool {
	if s.pending || c.closed {
		return false
	}
	if cur, _ := c.lookupLocked(s.id); cur != r {
		return false
	}
	s.pending = true
	c.garbage.Push(s.id)
	return true
}

// Release queues id for collection when it has no external holders.
// It never erases; the entry is removed by the next Flush.
// It reports whether id was queued.
func (c *Cache) Release(id ident.ID) bool {
	c.mu.Lock()
	r, s := c.lookupLocked(id)
	if s == nil || s.holders > 0 {
		c.mu.Unlock()
		return false
	}
	value := s.value
	queued := c.markLocked(r, s)
	c.mu.Unlock()

	if queued {
		c.notify(Event{Type: EventReleased, ID: id, Value: value})
	}
	return queued
}

// Flush erases every queued entry that still has no holders and clears the
// garbage list. Entries released by a dropped resource (its dependencies) are
// collected in the same call. Flush must run at a safe point: after every
// consumer is done with the frame. It returns the number of entries erased.
func (c *Cache) Flush() int {
	erased := 0
	for {
		var dropped []Event

		n := c.garbage.Drain(func(id ident.ID) {
			c.mu.Lock()
			defer c.mu.Unlock()
			r, s := c.lookupLocked(id)
			if s == nil || !s.pending {
				return
			}
			if s.holders > 0 {
				s.pending = false
				return
			}
			delete(c.table[id.Provider], id.Path)
			if len(c.table[id.Provider]) == 0 {
				delete(c.table, id.Provider)
			}
			value, _ := c.slots.free(r)
			dropped = append(dropped, Event{Type: EventCollected, ID: id, Value: value})
		})

		c.mu.Lock()
		for _, r := range c.retired {
			if s := c.slots.get(r); s != nil {
				id := s.id
				value, _ := c.slots.free(r)
				dropped = append(dropped, Event{Type: EventCollected, ID: id, Value: value})
			}
		}
		c.retired = nil
		c.mu.Unlock()

		for _, e := range dropped {
			dropValue(e.Value)
			c.logger.Debug("resource collected", zap.String("id", e.ID.String()))
			c.notify(e)
		}
		erased += len(dropped)

		if n == 0 && len(dropped) == 0 {
			return erased
		}
	}
}

// DiscardAll flushes, then force-erases every remaining entry and clears the
// provider registry. A resource still held at this point outlived its
// expected holders; each one is logged as a lifetime leak. The cache is
// closed afterwards and further loads fail.
func (c *Cache) DiscardAll() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.mu.Unlock()

	c.Flush()

	var leaked []Event
	c.mu.Lock()
	c.closed = true
	c.slots.each(func(_ ref, s *slot) bool {
		leaked = append(leaked, Event{Type: EventLeaked, ID: s.id, Value: s.value, Holders: s.holders})
		return true
	})
	c.slots.reset()
	c.table = make(map[string]map[string]ref)
	c.retired = nil
	c.mu.Unlock()

	sort.Slice(leaked, func(i, j int) bool {
		return leaked[i].ID.String() < leaked[j].ID.String()
	})
	for _, e := range leaked {
		c.logger.Warn("resource outlived its holders",
			zap.String("id", e.ID.String()),
			zap.String("type", typeName(e.Value)),
			zap.Int("holders", e.Holders),
			zap.Error(errors.LifetimeLeak(e.ID.String(), e.Holders)))
		c.notify(e)
	}
	for _, e := range leaked {
		dropValue(e.Value)
	}

	c.garbage.Reset()
	c.registry.Clear()
}

// Closed reports whether DiscardAll has run.
func (c *Cache) Closed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// Len returns the number of live entries, including ones pending collection.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.slots.len()
}

// Contains reports whether id has a cache entry that is not pending collection.
func (c *Cache) Contains(id ident.ID) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, s := c.lookupLocked(id)
	return s != nil && !s.pending
}

// Pending returns the garbage list in push order.
func (c *Cache) Pending() []ident.ID {
	return c.garbage.Snapshot()
}

// Usage returns a snapshot of every entry, sorted by identifier.
func (c *Cache) Usage() []Usage {
	c.mu.Lock()
	out := make([]Usage, 0, c.slots.len())
	c.slots.each(func(_ ref, s *slot) bool {
		out = append(out, Usage{
			ID:      s.id,
			Type:    typeName(s.value),
			Holders: s.holders,
			Pending: s.pending,
			Err:     s.err,
		})
		return true
	})
	c.mu.Unlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].ID == out[j].ID {
			return !out[i].Pending
		}
		return out[i].ID.String() < out[j].ID.String()
	})
	return out
}

// Subscribe adds an observer for lifecycle events.
func (c *Cache) Subscribe(o Observer) {
	c.obsMu.Lock()
	defer c.obsMu.Unlock()
	c.observers = append(c.observers, o)
}

// Unsubscribe removes an observer.
func (c *Cache) Unsubscribe(o Observer) {
	c.obsMu.Lock()
	defer c.obsMu.Unlock()
	for i, obs := range c.observers {
		if obs == o {
			c.observers = append(c.observers[:i], c.observers[i+1:]...)
			return
		}
	}
}

func (c *Cache) notify(e Event) {
	c.obsMu.RLock()
	defer c.obsMu.RUnlock()
	for _, o := range c.observers {
		o.OnResourceEvent(e)
	}
}

func checkType(id ident.ID, value Resource, want reflect.Type) error {
	if want == nil || reflect.TypeOf(value) == want {
		return nil
	}
	return errors.TypeMismatch(id.String(), typeName(value), want.String())
}

func dropValue(v Resource) {
	if d, ok := v.(Dropper); ok {
		d.Drop()
	}
}

func typeName(v any) string {
	return fmt.Sprintf("%T", v)
}
