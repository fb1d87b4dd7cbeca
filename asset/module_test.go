package asset

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/tetratelabs/wazero"

	"github.com/wippyai/assetcache/ident"
	"github.com/wippyai/assetcache/resource"
)

const (
	emptyWasm = "\x00asm\x01\x00\x00\x00"

	// (module (func (export "add") (param i32 i32) (result i32)
	//   local.get 0 local.get 1 i32.add))
	addWasm = "\x00asm\x01\x00\x00\x00" +
		"\x01\x07\x01\x60\x02\x7f\x7f\x01\x7f" +
		"\x03\x02\x01\x00" +
		"\x07\x07\x01\x03add\x00\x00" +
		"\x0a\x09\x01\x07\x00\x20\x00\x20\x01\x6a\x0b"
)

func TestModule_CompileAndCall(t *testing.T) {
	ctx := context.Background()
	rt := wazero.NewRuntime(ctx)
	t.Cleanup(func() { rt.Close(ctx) })

	cache, _ := newCache(t, map[string]string{
		"empty.wasm": emptyWasm,
		"add.wasm":   addWasm,
	}, resource.WithService(rt))

	empty := resource.Get[Module](cache, ident.MustParse("file://empty.wasm"))
	defer empty.Release()
	if empty.Get().Compiled() == nil {
		t.Fatal("empty module should compile")
	}
	if len(empty.Get().Exports()) != 0 {
		t.Errorf("exports = %v", empty.Get().Exports())
	}

	add := resource.Get[Module](cache, ident.MustParse("file://add.wasm"))
	defer add.Release()
	if diff := cmp.Diff([]string{"add"}, add.Get().Exports()); diff != "" {
		t.Errorf("exports mismatch (-want +got):\n%s", diff)
	}

	inst, err := add.Get().Instantiate(ctx, "adder")
	if err != nil {
		t.Fatalf("Instantiate failed: %v", err)
	}
	defer inst.Close(ctx)

	res, err := inst.ExportedFunction("add").Call(ctx, 2, 3)
	if err != nil {
		t.Fatalf("Call failed: %v", err)
	}
	if len(res) != 1 || res[0] != 5 {
		t.Errorf("add(2, 3) = %v", res)
	}
}

func TestModule_Failures(t *testing.T) {
	ctx := context.Background()

	t.Run("no runtime", func(t *testing.T) {
		cache, logs := newCache(t, map[string]string{"empty.wasm": emptyWasm})
		h := resource.Get[Module](cache, ident.MustParse("file://empty.wasm"))
		defer h.Release()
		if h.Get().Compiled() != nil {
			t.Error("nothing should compile without a runtime")
		}
		if _, err := h.Get().Instantiate(ctx, "x"); err == nil {
			t.Error("Instantiate should fail")
		}
		if logs.FilterMessage("resource compile failed").Len() != 1 {
			t.Error("missing runtime should be logged")
		}
	})

	t.Run("bad binary", func(t *testing.T) {
		rt := wazero.NewRuntime(ctx)
		t.Cleanup(func() { rt.Close(ctx) })

		cache, logs := newCache(t, map[string]string{"bad.wasm": "not wasm"}, resource.WithService(rt))
		h := resource.Get[Module](cache, ident.MustParse("file://bad.wasm"))
		defer h.Release()
		if h.Get().Exports() != nil {
			t.Error("bad binary should have no exports")
		}
		if logs.FilterMessage("resource compile failed").Len() != 1 {
			t.Error("bad binary should be logged")
		}
	})
}

func TestModule_DropClosesCompiled(t *testing.T) {
	ctx := context.Background()
	rt := wazero.NewRuntime(ctx)
	t.Cleanup(func() { rt.Close(ctx) })

	cache, _ := newCache(t, map[string]string{"add.wasm": addWasm}, resource.WithService(rt))
	h := resource.Get[Module](cache, ident.MustParse("file://add.wasm"))
	m := h.Get()
	h.Release()
	cache.Flush()

	if m.Compiled() != nil {
		t.Error("Drop should release the compiled module")
	}
}
