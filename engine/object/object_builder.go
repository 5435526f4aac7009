package object

import (
	"github.com/lensengine/lens/engine/asset"
)

// ObjectBuilderOption defines a function type for configuring an object during construction.
type ObjectBuilderOption func(*object)

// WithMesh sets the immutable mesh for this object.
//
// Parameters:
//   - mesh: the mesh to render
//
// Returns:
//   - ObjectBuilderOption: a function that applies the mesh to the object
func WithMesh(mesh asset.Object) ObjectBuilderOption {
	return func(o *object) {
		o.mesh = mesh
	}
}

// WithShaderSource sets the WGSL source this object renders with. Objects
// providing byte-identical source (and a structurally equal vertex layout)
// share a render pipeline.
//
// Parameters:
//   - source: the WGSL shader source text
//
// Returns:
//   - ObjectBuilderOption: a function that applies the source to the object
func WithShaderSource(source string) ObjectBuilderOption {
	return func(o *object) {
		o.shaderSource = source
	}
}

// WithTransform sets the base transform.
//
// Parameters:
//   - t: the base transform
//
// Returns:
//   - ObjectBuilderOption: a function that applies the transform to the object
func WithTransform(t Transform) ObjectBuilderOption {
	return func(o *object) {
		o.transform = t
	}
}

// WithPosition sets the base transform's position.
//
// Parameters:
//   - x, y, z: the world position
//
// Returns:
//   - ObjectBuilderOption: a function that applies the position to the object
func WithPosition(x, y, z float32) ObjectBuilderOption {
	return func(o *object) {
		o.transform.Position = [3]float32{x, y, z}
	}
}

// WithOverride sets the base transform's override matrix, used verbatim as the
// world matrix.
//
// Parameters:
//   - m: the override world matrix
//
// Returns:
//   - ObjectBuilderOption: a function that applies the override to the object
func WithOverride(m *[16]float32) ObjectBuilderOption {
	return func(o *object) {
		o.transform.Override = m
	}
}

// WithInstances sets the instance set.
//
// Parameters:
//   - set: the per-instance world matrices
//
// Returns:
//   - ObjectBuilderOption: a function that applies the instance set to the object
func WithInstances(set *InstanceSet) ObjectBuilderOption {
	return func(o *object) {
		o.instances = set
	}
}
