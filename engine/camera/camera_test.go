package camera

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// transformPoint applies a column-major 4x4 matrix to a point with w=1 and
// performs the perspective divide.
func transformPoint(m [16]float32, x, y, z float32) (float32, float32, float32) {
	tx := m[0]*x + m[4]*y + m[8]*z + m[12]
	ty := m[1]*x + m[5]*y + m[9]*z + m[13]
	tz := m[2]*x + m[6]*y + m[10]*z + m[14]
	tw := m[3]*x + m[7]*y + m[11]*z + m[15]
	if tw != 0 {
		return tx / tw, ty / tw, tz / tw
	}
	return tx, ty, tz
}

func TestNewCameraDefaults(t *testing.T) {
	c := NewCamera()

	x, y, z := c.Eye()
	assert.Equal(t, float32(0), x)
	assert.Equal(t, float32(0), y)
	assert.Equal(t, float32(5), z)

	assert.InDelta(t, 0.7853981, c.Fov(), 1e-5)
	assert.Equal(t, float32(0.1), c.Near())
	assert.Equal(t, float32(100), c.Far())
	assert.NotNil(t, c.BindGroupProvider())
}

func TestViewMatrixMapsTargetToNegativeZ(t *testing.T) {
	c := NewCamera(
		WithEye(0, 0, 5),
		WithTarget(0, 0, 0),
	)

	// The target lies 5 units in front of the eye along -Z in view space.
	x, y, z := transformPoint(c.ViewMatrix(), 0, 0, 0)
	assert.InDelta(t, 0, x, 1e-5)
	assert.InDelta(t, 0, y, 1e-5)
	assert.InDelta(t, -5, z, 1e-5)
}

func TestViewProjectionCenterDepth(t *testing.T) {
	c := NewCamera(
		WithEye(0, 0, 5),
		WithTarget(0, 0, 0),
		WithNear(1),
		WithFar(10),
	)

	// A point on the near plane maps to clip depth 0; on the far plane to 1.
	_, _, zNear := transformPoint(c.ViewProjectionMatrix(), 0, 0, 4)
	_, _, zFar := transformPoint(c.ViewProjectionMatrix(), 0, 0, -5)
	assert.InDelta(t, 0, zNear, 1e-4)
	assert.InDelta(t, 1, zFar, 1e-4)
}

func TestSetAspectRecomputesProjection(t *testing.T) {
	c := NewCamera(WithAspect(1))
	before := c.ProjectionMatrix()

	c.SetAspect(2)
	after := c.ProjectionMatrix()

	require.NotEqual(t, before, after)
	// Doubling the aspect halves the X focal term.
	assert.InDelta(t, before[0]/2, after[0], 1e-5)
}

func TestSetEyeRecomputesView(t *testing.T) {
	c := NewCamera(WithEye(0, 0, 5), WithTarget(0, 0, 0))
	before := c.ViewMatrix()

	c.SetEye(0, 0, 10)
	assert.NotEqual(t, before, c.ViewMatrix())
}

func TestUniformMarshal(t *testing.T) {
	c := NewCamera(WithEye(1, 2, 3), WithTarget(0, 0, 0))

	u := c.Uniform()
	assert.Equal(t, c.ViewProjectionMatrix(), u.ViewProj)
	assert.Equal(t, [3]float32{1, 2, 3}, u.CameraPosition)

	buf := u.Marshal()
	require.Len(t, buf, 80)
	assert.Equal(t, 80, u.Size())
}
