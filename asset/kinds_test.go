package asset

import (
	"testing"

	"github.com/wippyai/assetcache/errors"
	"github.com/wippyai/assetcache/ident"
	"github.com/wippyai/assetcache/resource"
)

func TestKindOf(t *testing.T) {
	tests := map[string]string{
		"file://a.mat":     KindMaterial,
		"file://a.SHD":     KindShader,
		"file://a.js":      KindScript,
		"file://a.wasm":    KindModule,
		"file://a.mesh":    KindMesh,
		"file://a.col":     KindCollider,
		"file://a.json":    KindProperties,
		"file://no-ext":    KindProperties,
		"file://dir.mat/x": KindProperties,
	}
	for text, want := range tests {
		if got := KindOf(ident.MustParse(text)); got != want {
			t.Errorf("KindOf(%s) = %s, want %s", text, got, want)
		}
	}
	if len(Kinds()) != 7 {
		t.Errorf("Kinds = %v", Kinds())
	}
}

func TestLoad_ByExtension(t *testing.T) {
	cache, _ := newCache(t, map[string]string{
		"a.mat":  `{"dependencies": {"shader": "a.shd"}}`,
		"a.shd":  minimalShader,
		"a.json": `{}`,
	})

	mat, err := Load(cache, ident.MustParse("file://a.mat"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	defer mat.Release()
	if _, ok := mat.(*resource.Handle[*Material]); !ok {
		t.Errorf("a.mat loaded as %T", mat)
	}

	// The shader the material pulled in is already cached as a Shader.
	if _, err := LoadKind(cache, KindProperties, ident.MustParse("file://a.shd")); !errors.Is(err, errors.ErrTypeMismatch) {
		t.Errorf("expected type mismatch, got %v", err)
	}

	props, err := LoadKind(cache, "no-such-kind", ident.MustParse("file://a.json"))
	if err != nil {
		t.Fatalf("LoadKind failed: %v", err)
	}
	defer props.Release()
	if _, ok := props.(*resource.Handle[*Properties]); !ok {
		t.Errorf("fallback kind loaded as %T", props)
	}
}
