package asset

import (
	"github.com/wippyai/assetcache/errors"
	"github.com/wippyai/assetcache/ident"
	"github.com/wippyai/assetcache/resource"
)

// Vertex is one interleaved mesh vertex.
type Vertex struct {
	Position [3]float32
	Normal   [3]float32
	UV       [2]float32
}

// MeshData is indexed triangle geometry.
type MeshData struct {
	Vertices []Vertex
	Indices  []uint32
}

// MeshLoader decodes model bytes into geometry.
type MeshLoader interface {
	Load(data []byte) (MeshData, error)
}

// MeshLoaderFunc adapts a function to MeshLoader.
type MeshLoaderFunc func(data []byte) (MeshData, error)

// Load calls f.
func (f MeshLoaderFunc) Load(data []byte) (MeshData, error) {
	return f(data)
}

// MeshLoaders maps a loader name to its decoder. Install extra formats on the
// cache with resource.WithService; "obj" is always available.
type MeshLoaders map[string]MeshLoader

func (m MeshLoaders) lookup(name string) (MeshLoader, bool) {
	if ml, ok := m[name]; ok {
		return ml, true
	}
	if name == "obj" {
		return MeshLoaderFunc(ParseOBJ), true
	}
	return nil, false
}

// Mesh is a properties file pointing at model data:
//
//	{
//	  "dependencies": {"model": "file://models/crate.obj", "material": "file://crate.mat"},
//	  "properties": {"loader": "obj"}
//	}
//
// The model bytes are read directly and owned by the mesh. The loader
// defaults to the model extension. The material is optional.
type Mesh struct {
	Properties
	data     MeshData
	model    ident.ID
	material *resource.Handle[*Material]
}

// Compile reads the model through the loader the mesh names, then loads the
// optional material.
func (m *Mesh) Compile(l *resource.Loader, data []byte) error {
	if err := m.Properties.Compile(l, data); err != nil {
		return err
	}
	self := m.Identifier().String()

	ref, ok := m.Dependency("model")
	if !ok {
		return errors.CompileDetail(self, "mesh has no model dependency")
	}
	modelID, err := l.Ref(ref)
	if err != nil {
		return errors.Compile(self, err)
	}

	name := modelID.Ext()
	if m.Has("loader") {
		name = m.String("loader", name)
	}
	loaders, _ := resource.Service[MeshLoaders](l)
	loader, ok := loaders.lookup(name)
	if !ok {
		return errors.CompileDetail(self, "no mesh loader for %q", name)
	}

	raw, err := l.Read(modelID)
	if err != nil {
		return errors.Compile(self, err)
	}
	geom, err := loader.Load(raw)
	if err != nil {
		return errors.Compile(self, err)
	}

	if ref, ok := m.Dependency("material"); ok {
		matID, err := l.Ref(ref)
		if err != nil {
			return errors.Compile(self, err)
		}
		if m.material, err = resource.Load[Material](l, matID); err != nil {
			return errors.Compile(self, err)
		}
	}

	m.data = geom
	m.model = modelID
	return nil
}

// Data returns the decoded geometry.
func (m *Mesh) Data() MeshData {
	return m.data
}

// Material returns the shared material, or nil if none is set.
func (m *Mesh) Material() *Material {
	return m.material.Get()
}

// Model returns the identifier the geometry was read from.
func (m *Mesh) Model() ident.ID {
	return m.model
}

// Drop releases the material dependency.
func (m *Mesh) Drop() {
	m.material.Release()
}
