package ident

import (
	"testing"

	"github.com/wippyai/assetcache/errors"
)

func TestParse(t *testing.T) {
	tests := []struct {
		text     string
		provider string
		path     string
	}{
		{"file://a.mat", "file", "a.mat"},
		{"file://materials/stone.mat", "file", "materials/stone.mat"},
		{"engine://shaders/unlit.shd", "engine", "shaders/unlit.shd"},
		{"file://nested://x", "file", "nested://x"},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			id, err := Parse(tt.text)
			if err != nil {
				t.Fatalf("Parse failed: %v", err)
			}
			if id.Provider != tt.provider || id.Path != tt.path {
				t.Errorf("Parse(%q) = %+v, want {%s %s}", tt.text, id, tt.provider, tt.path)
			}
		})
	}
}

func TestParse_Malformed(t *testing.T) {
	for _, text := range []string{"", "a.mat", "file:a.mat", "://a.mat", "file://"} {
		t.Run(text, func(t *testing.T) {
			id, err := Parse(text)
			if err == nil {
				t.Fatalf("Parse(%q) should fail", text)
			}
			if !errors.Is(err, errors.ErrMalformedIdentifier) {
				t.Errorf("expected malformed identifier, got %v", err)
			}
			if id != Invalid || id.Valid() {
				t.Errorf("expected Invalid, got %+v", id)
			}
		})
	}
}

func TestRoundTrip(t *testing.T) {
	ids := []ID{
		New("file", "a.mat"),
		New("engine", "deep/tree/of/dirs/x.shd"),
		New("mod", "a b c.json"),
		New("file", "contains://separator"),
	}
	for _, id := range ids {
		got, err := Parse(id.String())
		if err != nil {
			t.Fatalf("Parse(%q) failed: %v", id.String(), err)
		}
		if got != id {
			t.Errorf("round trip %+v -> %q -> %+v", id, id.String(), got)
		}
	}
}

func TestNew_SeparatorInProvider(t *testing.T) {
	id := New("a://b", "c")
	if id.Valid() {
		t.Errorf("%+v should not be valid", id)
	}
	for _, id := range []ID{New("a", "b://c"), New("file", "x")} {
		if !id.Valid() {
			t.Errorf("%+v should be valid", id)
		}
		if got := MustParse(id.String()); got != id {
			t.Errorf("round trip %+v -> %+v", id, got)
		}
	}
}

func TestEquality(t *testing.T) {
	a := MustParse("file://x")
	b := New("file", "x")
	if a != b {
		t.Error("identifiers with equal parts should be equal")
	}
	m := map[ID]int{a: 1}
	if m[b] != 1 {
		t.Error("identifier should work as a map key")
	}
	if a == New("engine", "x") {
		t.Error("different providers should not be equal")
	}
}

func TestMustParse_Panics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("MustParse should panic on malformed text")
		}
	}()
	MustParse("nope")
}

func TestExtAndSibling(t *testing.T) {
	id := MustParse("file://models/Crate.OBJ")
	if id.Ext() != "obj" {
		t.Errorf("Ext = %q, want obj", id.Ext())
	}
	if got := id.Sibling("crate.mat"); got != MustParse("file://models/crate.mat") {
		t.Errorf("Sibling = %v", got)
	}
	if got := id.Sibling("/shaders/x.shd"); got != MustParse("file://shaders/x.shd") {
		t.Errorf("Sibling absolute = %v", got)
	}
}
