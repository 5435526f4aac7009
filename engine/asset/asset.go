// package asset provides immutable GPU-ready mesh data. An Object is validated
// once at construction and never mutated afterwards, so downstream consumers
// may upload its data without re-checking index bounds.
package asset

import (
	"errors"
	"fmt"
)

// ErrIndexOutOfRange reports an index referencing a vertex beyond the mesh's
// vertex count. Construction fails with an error wrapping this sentinel.
var ErrIndexOutOfRange = errors.New("mesh index out of range")

// LoadError wraps a failure to produce an Object from an external source,
// carrying the source path for context.
type LoadError struct {
	Source string
	Err    error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("loading asset %q: %v", e.Source, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// object is the implementation of the Object interface.
type object struct {
	name           string
	vertices       []Vertex
	indices        []uint32
	layout         VertexLayout
	boundingRadius float32
}

// Object is an immutable mesh: vertex data, index data, and the vertex buffer
// layout describing them. Every index was checked against the vertex count at
// construction. An Object with zero vertices or zero indices is constructible
// but not drawable; renderers reject it at preparation time.
type Object interface {
	// Name retrieves the mesh identifier.
	//
	// Returns:
	//   - string: the mesh name
	Name() string

	// VertexCount returns the number of vertices in the mesh.
	//
	// Returns:
	//   - int: the vertex count
	VertexCount() int

	// IndexCount returns the number of indices in the mesh.
	//
	// Returns:
	//   - int: the index count
	IndexCount() int

	// VertexData returns the vertex data serialized for GPU upload (32 bytes
	// per vertex, little-endian).
	//
	// Returns:
	//   - []byte: the serialized vertex data
	VertexData() []byte

	// IndexData returns the index data serialized for GPU upload (uint32
	// little-endian).
	//
	// Returns:
	//   - []byte: the serialized index data
	IndexData() []byte

	// Layout returns the vertex buffer layout for this mesh.
	//
	// Returns:
	//   - VertexLayout: the layout description
	Layout() VertexLayout

	// Empty reports whether the mesh has no drawable geometry.
	//
	// Returns:
	//   - bool: true when the mesh has zero vertices or zero indices
	Empty() bool

	// BoundingRadius returns the bounding sphere radius for this mesh,
	// measured as the maximum vertex distance from the origin.
	//
	// Returns:
	//   - float32: the bounding radius
	BoundingRadius() float32
}

var _ Object = &object{}

// NewObject creates a validated, immutable mesh from the provided options.
// Every index must reference a vertex below the vertex count; violations fail
// construction with an error wrapping ErrIndexOutOfRange.
//
// Parameters:
//   - options: a variadic list of ObjectBuilderOption functions to configure the Object
//
// Returns:
//   - Object: the validated mesh
//   - error: non-nil when index validation fails
func NewObject(options ...ObjectBuilderOption) (Object, error) {
	o := &object{layout: DefaultLayout()}
	for _, opt := range options {
		opt(o)
	}

	count := uint32(len(o.vertices))
	for i, idx := range o.indices {
		if idx >= count {
			return nil, fmt.Errorf("%w: index %d at position %d exceeds vertex count %d", ErrIndexOutOfRange, idx, i, count)
		}
	}
	o.boundingRadius = ComputeBoundingRadius(o.vertices)
	return o, nil
}

func (o *object) Name() string {
	return o.name
}

func (o *object) VertexCount() int {
	return len(o.vertices)
}

func (o *object) IndexCount() int {
	return len(o.indices)
}

func (o *object) VertexData() []byte {
	buf := make([]byte, 0, len(o.vertices)*32)
	for i := range o.vertices {
		buf = append(buf, o.vertices[i].Marshal()...)
	}
	return buf
}

func (o *object) IndexData() []byte {
	buf := make([]byte, len(o.indices)*4)
	for i, idx := range o.indices {
		buf[i*4] = byte(idx)
		buf[i*4+1] = byte(idx >> 8)
		buf[i*4+2] = byte(idx >> 16)
		buf[i*4+3] = byte(idx >> 24)
	}
	return buf
}

func (o *object) Layout() VertexLayout {
	return o.layout
}

func (o *object) Empty() bool {
	return len(o.vertices) == 0 || len(o.indices) == 0
}

func (o *object) BoundingRadius() float32 {
	return o.boundingRadius
}
