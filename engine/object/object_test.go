package object

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransformIdentity(t *testing.T) {
	tr := NewTransform()
	m := tr.Matrix()
	want := [16]float32{1, 0, 0, 0, 0, 1, 0, 0, 0, 0, 1, 0, 0, 0, 0, 1}
	assert.Equal(t, want, m)
}

func TestTransformTranslation(t *testing.T) {
	tr := NewTransform()
	tr.Position = [3]float32{2, -3, 7}
	m := tr.Matrix()
	assert.Equal(t, float32(2), m[12])
	assert.Equal(t, float32(-3), m[13])
	assert.Equal(t, float32(7), m[14])
}

func TestTransformOverrideWinsVerbatim(t *testing.T) {
	override := [16]float32{2, 0, 0, 0, 0, 2, 0, 0, 0, 0, 2, 0, 9, 9, 9, 1}
	tr := NewTransform()
	tr.Position = [3]float32{1, 1, 1}
	tr.Override = &override
	assert.Equal(t, override, tr.Matrix())

	tr.Override = nil
	assert.Equal(t, float32(1), tr.Matrix()[12])
}

func TestInstanceSetMarshalDeterministic(t *testing.T) {
	a := NewInstanceSetFromTransforms(
		Transform{Position: [3]float32{1, 0, 0}, Scale: [3]float32{1, 1, 1}},
		Transform{Position: [3]float32{0, 2, 0}, Scale: [3]float32{1, 1, 1}},
	)
	b := NewInstanceSetFromTransforms(
		Transform{Position: [3]float32{1, 0, 0}, Scale: [3]float32{1, 1, 1}},
		Transform{Position: [3]float32{0, 2, 0}, Scale: [3]float32{1, 1, 1}},
	)

	first := a.Marshal()
	assert.Equal(t, first, a.Marshal(), "repeated marshal of the same set")
	assert.Equal(t, first, b.Marshal(), "marshal of an identical set")
	require.Len(t, first, 128)
}

func TestInstanceSetMarshalOrderPreserved(t *testing.T) {
	set := NewInstanceSet(
		[16]float32{1, 0, 0, 0, 0, 1, 0, 0, 0, 0, 1, 0, 10, 0, 0, 1},
		[16]float32{1, 0, 0, 0, 0, 1, 0, 0, 0, 0, 1, 0, 20, 0, 0, 1},
	)
	buf := set.Marshal()

	// Translation X lives at float index 12 within each 64-byte instance.
	x0 := math.Float32frombits(binary.LittleEndian.Uint32(buf[12*4 : 13*4]))
	x1 := math.Float32frombits(binary.LittleEndian.Uint32(buf[64+12*4 : 64+13*4]))
	assert.Equal(t, float32(10), x0)
	assert.Equal(t, float32(20), x1)
}

func TestInstanceSetNilAndEmpty(t *testing.T) {
	var nilSet *InstanceSet
	assert.Zero(t, nilSet.Len())

	empty := NewInstanceSet()
	assert.Zero(t, empty.Len())
	assert.Empty(t, empty.Marshal())
}

func TestObjectInstanceCountEmptySetIsOne(t *testing.T) {
	o := NewObject(WithShaderSource("src"))
	assert.Equal(t, 1, o.InstanceCount())

	o.SetInstances(NewInstanceSet())
	assert.Equal(t, 1, o.InstanceCount(), "empty set renders a single instance")

	o.SetInstances(NewInstanceSet([16]float32{}, [16]float32{}, [16]float32{}))
	assert.Equal(t, 3, o.InstanceCount())
}

func TestObjectInstanceDataUsesBaseTransformWhenNoInstances(t *testing.T) {
	o := NewObject(WithPosition(5, 6, 7))
	buf := o.InstanceData()
	require.Len(t, buf, 64)

	x := math.Float32frombits(binary.LittleEndian.Uint32(buf[12*4 : 13*4]))
	assert.Equal(t, float32(5), x)
}

func TestObjectInstanceDataIgnoresBaseTransformWithInstances(t *testing.T) {
	o := NewObject(
		WithPosition(100, 0, 0),
		WithInstances(NewInstanceSet([16]float32{1, 0, 0, 0, 0, 1, 0, 0, 0, 0, 1, 0, 3, 0, 0, 1})),
	)
	buf := o.InstanceData()
	require.Len(t, buf, 64)

	x := math.Float32frombits(binary.LittleEndian.Uint32(buf[12*4 : 13*4]))
	assert.Equal(t, float32(3), x, "instance matrices are absolute, base transform ignored")
}

func TestObjectDirtyTracking(t *testing.T) {
	o := NewObject()
	assert.True(t, o.Dirty(), "new objects need an initial upload")

	o.ClearDirty()
	assert.False(t, o.Dirty())

	o.SetPosition(1, 2, 3)
	assert.True(t, o.Dirty())
	o.ClearDirty()

	o.SetInstances(NewInstanceSet())
	assert.True(t, o.Dirty())
	o.ClearDirty()

	o.SetOverride(&[16]float32{})
	assert.True(t, o.Dirty())
	o.ClearDirty()

	o.SetTransform(NewTransform())
	assert.True(t, o.Dirty())
}

func TestObjectFailedState(t *testing.T) {
	o := NewObject()
	assert.NoError(t, o.Failed())

	o.SetFailed(assert.AnError)
	assert.ErrorIs(t, o.Failed(), assert.AnError)
}
