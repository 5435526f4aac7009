package asset

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func triVertices() []Vertex {
	return []Vertex{
		{Position: [3]float32{0, 0, 0}, Normal: [3]float32{0, 0, 1}},
		{Position: [3]float32{1, 0, 0}, Normal: [3]float32{0, 0, 1}, TexCoord: [2]float32{1, 0}},
		{Position: [3]float32{0, 1, 0}, Normal: [3]float32{0, 0, 1}, TexCoord: [2]float32{0, 1}},
	}
}

func TestNewObjectValid(t *testing.T) {
	obj, err := NewObject(
		WithName("tri"),
		WithVertices(triVertices()),
		WithIndices([]uint32{0, 1, 2}),
	)
	require.NoError(t, err)
	assert.Equal(t, "tri", obj.Name())
	assert.Equal(t, 3, obj.VertexCount())
	assert.Equal(t, 3, obj.IndexCount())
	assert.False(t, obj.Empty())
	assert.Len(t, obj.VertexData(), 3*32)
	assert.Len(t, obj.IndexData(), 3*4)
}

func TestNewObjectIndexOutOfRange(t *testing.T) {
	_, err := NewObject(
		WithVertices(triVertices()),
		WithIndices([]uint32{0, 1, 3}),
	)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrIndexOutOfRange)
	assert.Contains(t, err.Error(), "index 3")
}

func TestNewObjectIndexEqualToCountRejected(t *testing.T) {
	// The bound is strict: index == vertexCount is invalid.
	_, err := NewObject(
		WithVertices(triVertices()[:2]),
		WithIndices([]uint32{0, 1, 2}),
	)
	assert.ErrorIs(t, err, ErrIndexOutOfRange)
}

func TestNewObjectEmptyConstructible(t *testing.T) {
	obj, err := NewObject(WithName("empty"))
	require.NoError(t, err)
	assert.True(t, obj.Empty())
	assert.Zero(t, obj.VertexCount())
}

func TestNewObjectIndicesWithoutVertices(t *testing.T) {
	// Any index is out of range against an empty vertex set.
	_, err := NewObject(WithIndices([]uint32{0}))
	assert.ErrorIs(t, err, ErrIndexOutOfRange)
}

func TestObjectImmutableAgainstCallerMutation(t *testing.T) {
	verts := triVertices()
	idx := []uint32{0, 1, 2}
	obj, err := NewObject(WithVertices(verts), WithIndices(idx))
	require.NoError(t, err)

	before := obj.VertexData()
	verts[0].Position = [3]float32{99, 99, 99}
	idx[0] = 7
	assert.Equal(t, before, obj.VertexData())
	assert.Equal(t, 3, obj.IndexCount())
}

func TestVertexMarshal(t *testing.T) {
	v := Vertex{Position: [3]float32{1, 0, 0}}
	buf := v.Marshal()
	require.Len(t, buf, 32)
	// 1.0f little-endian.
	assert.Equal(t, []byte{0x00, 0x00, 0x80, 0x3f}, buf[:4])
}

func TestIndexDataLittleEndian(t *testing.T) {
	obj, err := NewObject(
		WithVertices(make([]Vertex, 260)),
		WithIndices([]uint32{259, 0, 1}),
	)
	require.NoError(t, err)
	data := obj.IndexData()
	assert.Equal(t, []byte{0x03, 0x01, 0x00, 0x00}, data[:4])
}

func TestLayoutSignature(t *testing.T) {
	a := DefaultLayout()
	b := DefaultLayout()
	assert.Equal(t, a.Signature(), b.Signature())

	c := DefaultLayout()
	c.ArrayStride = 48
	assert.NotEqual(t, a.Signature(), c.Signature())

	d := DefaultLayout()
	d.Attributes[1].ShaderLocation = 5
	assert.NotEqual(t, a.Signature(), d.Signature())
}

func TestBoundingRadius(t *testing.T) {
	obj, err := NewObject(WithVertices([]Vertex{
		{Position: [3]float32{0, 3, 4}},
		{Position: [3]float32{1, 0, 0}},
	}))
	require.NoError(t, err)
	assert.InDelta(t, 5.0, obj.BoundingRadius(), 1e-6)
}
