package resource

import (
	"github.com/wippyai/assetcache/ident"
)

// ref addresses a slot in the arena. The zero ref is always invalid.
// gen changes every time a slot is reused, so refs held by stale handles
// never alias a newer resource.
type ref struct {
	index uint32
	gen   uint32
}

type slot struct {
	value   Resource
	err     error
	id      ident.ID
	holders int
	gen     uint32
	pending bool
	valid   bool
}

// arena stores cache entries with manual holder-count bookkeeping.
// It is not safe for concurrent use; the Cache lock guards it.
type arena struct {
	slots    []slot
	freeList []uint32
	live     int
}

func newArena() *arena {
	return &arena{
		slots:    make([]slot, 0, 64),
		freeList: make([]uint32, 0, 16),
	}
}

// alloc stores value and returns its ref. The new slot has no holders.
func (a *arena) alloc(id ident.ID, value Resource, err error) ref {
	s := slot{
		id:    id,
		value: value,
		err:   err,
		valid: true,
	}

	a.live++
	if len(a.freeList) > 0 {
		index := a.freeList[len(a.freeList)-1]
		a.freeList = a.freeList[:len(a.freeList)-1]
		s.gen = a.slots[index-1].gen + 1
		a.slots[index-1] = s
		return ref{index: index, gen: s.gen}
	}

	s.gen = 1
	a.slots = append(a.slots, s)
	return ref{index: uint32(len(a.slots)), gen: s.gen}
}

// get returns the slot for r, or nil if r is stale or invalid.
func (a *arena) get(r ref) *slot {
	if r.index == 0 || int(r.index) > len(a.slots) {
		return nil
	}
	s := &a.slots[r.index-1]
	if !s.valid || s.gen != r.gen {
		return nil
	}
	return s
}

// free invalidates the slot and returns its value for dropping.
func (a *arena) free(r ref) (Resource, bool) {
	s := a.get(r)
	if s == nil {
		return nil, false
	}

	value := s.value
	s.valid = false
	s.value = nil
	s.err = nil
	s.holders = 0
	s.pending = false
	a.freeList = append(a.freeList, r.index)
	a.live--
	return value, true
}

// each visits every valid slot until fn returns false.
func (a *arena) each(fn func(ref, *slot) bool) {
	for i := range a.slots {
		s := &a.slots[i]
		if !s.valid {
			continue
		}
		if !fn(ref{index: uint32(i + 1), gen: s.gen}, s) {
			return
		}
	}
}

// len returns the number of valid slots.
func (a *arena) len() int {
	return a.live
}

// reset invalidates every slot. Generations keep counting so refs held
// across a reset stay stale.
func (a *arena) reset() {
	for i := range a.slots {
		if a.slots[i].valid {
			a.slots[i].valid = false
			a.slots[i].value = nil
			a.slots[i].err = nil
			a.freeList = append(a.freeList, uint32(i+1))
		}
	}
	a.live = 0
}
