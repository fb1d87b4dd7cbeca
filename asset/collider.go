package asset

import (
	"github.com/wippyai/assetcache/errors"
	"github.com/wippyai/assetcache/resource"
)

// Collider shapes.
const (
	ShapeBox     = "box"
	ShapeSphere  = "sphere"
	ShapeCapsule = "capsule"
	ShapeMesh    = "mesh"
)

// Collider describes a physics collision shape:
//
//	box      properties.size = [x, y, z]
//	sphere   properties.radius
//	capsule  properties.radius, properties.height
//	mesh     dependencies.mesh
//
// Every dimension must be positive. properties.mass defaults to 0 (static).
type Collider struct {
	Properties
	shape  string
	size   [3]float64
	radius float64
	height float64
	mass   float64
	mesh   *resource.Handle[*Mesh]
}

// Compile validates the shape and its dimensions. Nothing is kept unless
// every check passes.
func (c *Collider) Compile(l *resource.Loader, data []byte) error {
	if err := c.Properties.Compile(l, data); err != nil {
		return err
	}
	self := c.Identifier().String()

	var (
		size           [3]float64
		radius, height float64
		mesh           *resource.Handle[*Mesh]
	)
	shape := c.String("shape", "")
	switch shape {
	case ShapeBox:
		vals := c.Floats("size")
		if len(vals) != 3 {
			return errors.CompileDetail(self, "box size needs 3 values, got %d", len(vals))
		}
		for _, v := range vals {
			if v <= 0 {
				return badDimension(self, v, "box size must be positive")
			}
		}
		size = [3]float64{vals[0], vals[1], vals[2]}
	case ShapeSphere:
		radius = c.Float("radius", 0)
		if radius <= 0 {
			return badDimension(self, radius, "sphere radius must be positive")
		}
	case ShapeCapsule:
		radius = c.Float("radius", 0)
		height = c.Float("height", 0)
		if radius <= 0 || height <= 0 {
			return badDimension(self, [2]float64{radius, height}, "capsule radius and height must be positive")
		}
	case ShapeMesh:
		dep, ok := c.Dependency("mesh")
		if !ok {
			return errors.CompileDetail(self, "mesh collider has no mesh dependency")
		}
		id, err := l.Ref(dep)
		if err != nil {
			return errors.Compile(self, err)
		}
		if mesh, err = resource.Load[Mesh](l, id); err != nil {
			return errors.Compile(self, err)
		}
	default:
		return errors.CompileDetail(self, "unknown collider shape %q", shape)
	}

	mass := 0.0
	if c.Has("mass") {
		mass = c.Float("mass", 0)
	}
	if mass < 0 {
		mesh.Release()
		return badDimension(self, mass, "mass must not be negative")
	}

	c.shape = shape
	c.size = size
	c.radius = radius
	c.height = height
	c.mass = mass
	c.mesh = mesh
	return nil
}

func badDimension(id string, v any, detail string) error {
	return errors.New(errors.PhaseCompile, errors.KindCompile).
		ID(id).
		Value(v).
		Detail("%s", detail).
		Build()
}

// Shape returns the collider shape, or "" if compilation failed.
func (c *Collider) Shape() string {
	return c.shape
}

// Size returns the box extents.
func (c *Collider) Size() [3]float64 {
	return c.size
}

// Radius returns the sphere or capsule radius.
func (c *Collider) Radius() float64 {
	return c.radius
}

// Height returns the capsule height.
func (c *Collider) Height() float64 {
	return c.height
}

// Mass returns the body mass; zero means static.
func (c *Collider) Mass() float64 {
	return c.mass
}

// Mesh returns the shared collision mesh for mesh colliders.
func (c *Collider) Mesh() *Mesh {
	return c.mesh.Get()
}

// Drop releases the mesh dependency.
func (c *Collider) Drop() {
	c.mesh.Release()
}
