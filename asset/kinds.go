package asset

import (
	"sort"

	"github.com/wippyai/assetcache/ident"
	"github.com/wippyai/assetcache/resource"
)

// Any is a handle to an asset of any type.
type Any interface {
	ID() ident.ID
	Valid() bool
	Err() error
	Release()
}

type loadFunc func(resource.Requester, ident.ID) (Any, error)

func load[T any, P interface {
	*T
	resource.Resource
}](r resource.Requester, id ident.ID) (Any, error) {
	return resource.Load[T, P](r, id)
}

// Kind names used by KindOf and Load.
const (
	KindProperties = "properties"
	KindMaterial   = "material"
	KindShader     = "shader"
	KindScript     = "script"
	KindModule     = "module"
	KindMesh       = "mesh"
	KindCollider   = "collider"
)

var extKinds = map[string]string{
	"mat":    KindMaterial,
	"shd":    KindShader,
	"shader": KindShader,
	"js":     KindScript,
	"wasm":   KindModule,
	"mesh":   KindMesh,
	"col":    KindCollider,
}

var kindLoaders = map[string]loadFunc{
	KindProperties: load[Properties],
	KindMaterial:   load[Material],
	KindShader:     load[Shader],
	KindScript:     load[Script],
	KindModule:     load[Module],
	KindMesh:       load[Mesh],
	KindCollider:   load[Collider],
}

// KindOf picks the asset kind for id from its extension. Unknown extensions
// are plain properties.
func KindOf(id ident.ID) string {
	if k, ok := extKinds[id.Ext()]; ok {
		return k
	}
	return KindProperties
}

// Kinds returns every known kind name, sorted.
func Kinds() []string {
	names := make([]string, 0, len(kindLoaders))
	for k := range kindLoaders {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// Load requests id as the type KindOf selects for it.
func Load(r resource.Requester, id ident.ID) (Any, error) {
	return LoadKind(r, KindOf(id), id)
}

// LoadKind requests id as the named kind. An unknown kind falls back to
// properties.
func LoadKind(r resource.Requester, kind string, id ident.ID) (Any, error) {
	fn, ok := kindLoaders[kind]
	if !ok {
		fn = kindLoaders[KindProperties]
	}
	return fn(r, id)
}
