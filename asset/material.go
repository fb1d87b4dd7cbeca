package asset

import (
	"github.com/wippyai/assetcache/errors"
	"github.com/wippyai/assetcache/resource"
)

// Material is a properties file that names the shader it renders with:
//
//	{"dependencies": {"shader": "file://shaders/lit.shd"}, "properties": {...}}
//
// The shader is loaded through the cache, so materials sharing a shader share
// one compiled instance.
type Material struct {
	Properties
	shader *resource.Handle[*Shader]
}

// Compile parses the properties and loads dependencies.shader as a
// dependency. The path may be relative to the material.
func (m *Material) Compile(l *resource.Loader, data []byte) error {
	if err := m.Properties.Compile(l, data); err != nil {
		return err
	}

	ref, ok := m.Dependency("shader")
	if !ok {
		return errors.CompileDetail(m.Identifier().String(), "material has no shader dependency")
	}
	id, err := l.Ref(ref)
	if err != nil {
		return errors.Compile(m.Identifier().String(), err)
	}

	m.shader, err = resource.Load[Shader](l, id)
	if err != nil {
		return errors.Compile(m.Identifier().String(), err)
	}
	return nil
}

// Shader returns the shared shader instance, or nil if it failed to load.
func (m *Material) Shader() *Shader {
	return m.shader.Get()
}

// ShaderHandle returns the material's own shader handle.
func (m *Material) ShaderHandle() *resource.Handle[*Shader] {
	return m.shader
}

// Drop releases the shader dependency.
func (m *Material) Drop() {
	m.shader.Release()
}
