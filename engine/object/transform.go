// package object provides the renderable scene object: an immutable mesh paired
// with a shader source, a base transform, and an optional set of per-instance
// world matrices. GPU resources are created lazily by the scene on first render;
// constructing an object never touches the device.
package object

import (
	"github.com/lensengine/lens/common"
)

// Transform describes position, orientation, and scale in world space.
// Rotation is Euler angles in radians, applied in Y * X * Z order.
// When Override is set it is used verbatim as the world matrix and the
// component fields are ignored.
type Transform struct {
	Position [3]float32
	Rotation [3]float32
	Scale    [3]float32
	Override *[16]float32
}

// NewTransform returns an identity transform (zero position/rotation, unit scale).
//
// Returns:
//   - Transform: the identity transform
func NewTransform() Transform {
	return Transform{Scale: [3]float32{1, 1, 1}}
}

// Matrix composes the 4x4 column-major world matrix for this transform.
// If Override is set, a copy of it is returned unchanged; no composition,
// validation, or decomposition is performed on override matrices.
//
// Returns:
//   - [16]float32: the column-major world matrix
func (t Transform) Matrix() [16]float32 {
	if t.Override != nil {
		return *t.Override
	}
	var out [16]float32
	common.BuildModelMatrix(out[:],
		t.Position[0], t.Position[1], t.Position[2],
		t.Rotation[0], t.Rotation[1], t.Rotation[2],
		t.Scale[0], t.Scale[1], t.Scale[2],
	)
	return out
}
