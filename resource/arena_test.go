package resource

import (
	"testing"

	"github.com/wippyai/assetcache/ident"
)

func TestArena_AllocGet(t *testing.T) {
	a := newArena()
	id := ident.MustParse("file://a")
	v := &text{value: "a"}

	r := a.alloc(id, v, nil)
	if r == (ref{}) {
		t.Fatal("alloc returned the zero ref")
	}
	s := a.get(r)
	if s == nil || s.value != v || s.id != id {
		t.Fatalf("get returned %+v", s)
	}
	if a.len() != 1 {
		t.Errorf("len = %d, want 1", a.len())
	}
	if a.get(ref{}) != nil {
		t.Error("zero ref must not resolve")
	}
	if a.get(ref{index: 99, gen: 1}) != nil {
		t.Error("out of range ref must not resolve")
	}
}

func TestArena_FreeReusesWithNewGeneration(t *testing.T) {
	a := newArena()
	r1 := a.alloc(ident.MustParse("file://a"), &text{}, nil)

	value, ok := a.free(r1)
	if !ok || value == nil {
		t.Fatal("free should return the stored value")
	}
	if _, ok := a.free(r1); ok {
		t.Error("double free should fail")
	}
	if a.get(r1) != nil {
		t.Error("freed ref should be stale")
	}

	r2 := a.alloc(ident.MustParse("file://b"), &text{}, nil)
	if r2.index != r1.index {
		t.Errorf("expected slot reuse, got index %d want %d", r2.index, r1.index)
	}
	if r2.gen == r1.gen {
		t.Error("reused slot must get a new generation")
	}
	if a.get(r1) != nil {
		t.Error("stale ref must not alias the new resource")
	}
}

func TestArena_EachAndReset(t *testing.T) {
	a := newArena()
	refs := []ref{
		a.alloc(ident.MustParse("file://a"), &text{}, nil),
		a.alloc(ident.MustParse("file://b"), &text{}, nil),
		a.alloc(ident.MustParse("file://c"), &text{}, nil),
	}
	a.free(refs[1])

	var seen []string
	a.each(func(_ ref, s *slot) bool {
		seen = append(seen, s.id.Path)
		return true
	})
	if len(seen) != 2 || seen[0] != "a" || seen[1] != "c" {
		t.Errorf("each visited %v", seen)
	}

	a.reset()
	if a.len() != 0 {
		t.Errorf("len after reset = %d", a.len())
	}
	for _, r := range refs {
		if a.get(r) != nil {
			t.Error("refs must be stale after reset")
		}
	}
	r := a.alloc(ident.MustParse("file://d"), &text{}, nil)
	if a.get(r) == nil || a.len() != 1 {
		t.Error("arena should be usable after reset")
	}
}
