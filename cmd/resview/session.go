package main

import (
	"fmt"
	"sort"
	"sync"

	"github.com/wippyai/assetcache/asset"
	"github.com/wippyai/assetcache/engine"
	"github.com/wippyai/assetcache/ident"
	"github.com/wippyai/assetcache/provider"
)

// session holds the handles requested from the command line, console or
// tracker, so they can be released by identifier later.
type session struct {
	engine *engine.Context
	held   map[ident.ID][]asset.Any
	mu     sync.Mutex
}

func newSession(e *engine.Context) *session {
	return &session{engine: e, held: make(map[ident.ID][]asset.Any)}
}

// get requests text as kind, or by extension when kind is empty.
func (s *session) get(text, kind string) (asset.Any, error) {
	id, err := ident.Parse(text)
	if err != nil {
		return nil, err
	}
	if kind == "" {
		kind = asset.KindOf(id)
	}
	h, err := asset.LoadKind(s.engine.Cache(), kind, id)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.held[id] = append(s.held[id], h)
	s.mu.Unlock()
	return h, nil
}

// release drops one handle held for text. It reports how many remain.
func (s *session) release(text string) (int, error) {
	id, err := ident.Parse(text)
	if err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	hs := s.held[id]
	if len(hs) == 0 {
		return 0, fmt.Errorf("%s is not held", id)
	}
	hs[len(hs)-1].Release()
	hs = hs[:len(hs)-1]
	if len(hs) == 0 {
		delete(s.held, id)
	} else {
		s.held[id] = hs
	}
	return len(hs), nil
}

func (s *session) releaseAll() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for id, hs := range s.held {
		for _, h := range hs {
			h.Release()
			n++
		}
		delete(s.held, id)
	}
	return n
}

// heldIDs returns the identifiers with at least one handle, sorted.
func (s *session) heldIDs() []ident.ID {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]ident.ID, 0, len(s.held))
	for id := range s.held {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i].String() < ids[j].String() })
	return ids
}

type mountInfo struct {
	name    string
	sources []string // earliest first
}

func (s *session) mounts() []mountInfo {
	reg := s.engine.Registry()
	names := reg.Names()
	out := make([]mountInfo, 0, len(names))
	for _, name := range names {
		mi := mountInfo{name: name}
		for _, p := range reg.Chain(name) {
			mi.sources = append(mi.sources, provider.Describe(p))
		}
		out = append(out, mi)
	}
	return out
}
