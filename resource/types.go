package resource

import (
	"github.com/wippyai/assetcache/ident"
)

// Resource is a compiled, typed asset keyed by its identifier.
//
// Implementations embed Base, which supplies Identifier and the binding the
// cache performs before Compile.
type Resource interface {
	// Identifier returns the identifier the resource was loaded under.
	Identifier() ident.ID

	// Compile parses raw provider bytes into usable state. It is called
	// exactly once per cache entry. On failure it must leave the resource in
	// a safe empty state; the cache logs the error and keeps the entry.
	Compile(l *Loader, data []byte) error

	bind(id ident.ID)
}

// Base carries the identifier of a resource.
type Base struct {
	id ident.ID
}

// Identifier returns the identifier the resource was loaded under.
func (b *Base) Identifier() ident.ID {
	return b.id
}

func (b *Base) bind(id ident.ID) {
	b.id = id
}

// Dropper is optionally implemented by resources that hold native objects or
// dependency handles. Drop runs when the entry is erased from the cache, which
// only happens inside Flush or DiscardAll.
type Dropper interface {
	Drop()
}

// EventType identifies a cache lifecycle notification.
type EventType uint8

const (
	EventLoaded EventType = iota
	EventReleased
	EventCollected
	EventLeaked
)

// String returns the event name.
func (t EventType) String() string {
	switch t {
	case EventLoaded:
		return "loaded"
	case EventReleased:
		return "released"
	case EventCollected:
		return "collected"
	case EventLeaked:
		return "leaked"
	default:
		return "unknown"
	}
}

// Event represents a cache lifecycle event.
type Event struct {
	Value   Resource
	ID      ident.ID
	Holders int
	Type    EventType
}

// Observer receives notifications about cache lifecycle events.
type Observer interface {
	OnResourceEvent(Event)
}

// Usage is a diagnostic snapshot of one cache entry.
type Usage struct {
	Err     error
	ID      ident.ID
	Type    string
	Holders int
	Pending bool
}
