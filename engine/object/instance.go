package object

import (
	"encoding/binary"
	"math"
)

// InstanceSet is an ordered collection of per-instance world matrices. Each
// matrix is an absolute world transform; when an object carries a non-empty
// set its base transform is ignored and one draw instance is issued per entry.
// An empty set means the object renders exactly once using its base transform.
type InstanceSet struct {
	matrices [][16]float32
}

// NewInstanceSet creates an InstanceSet from world matrices, preserving order.
//
// Parameters:
//   - matrices: column-major world matrices, one per instance
//
// Returns:
//   - *InstanceSet: the instance set
func NewInstanceSet(matrices ...[16]float32) *InstanceSet {
	s := &InstanceSet{matrices: make([][16]float32, len(matrices))}
	copy(s.matrices, matrices)
	return s
}

// NewInstanceSetFromTransforms creates an InstanceSet by composing each
// transform into a world matrix, preserving order.
//
// Parameters:
//   - transforms: the per-instance transforms
//
// Returns:
//   - *InstanceSet: the instance set
func NewInstanceSetFromTransforms(transforms ...Transform) *InstanceSet {
	s := &InstanceSet{matrices: make([][16]float32, len(transforms))}
	for i, t := range transforms {
		s.matrices[i] = t.Matrix()
	}
	return s
}

// Len returns the number of instances in the set.
//
// Returns:
//   - int: the instance count
func (s *InstanceSet) Len() int {
	if s == nil {
		return 0
	}
	return len(s.matrices)
}

// Matrix returns the world matrix at index i.
//
// Parameters:
//   - i: the instance index
//
// Returns:
//   - [16]float32: the column-major world matrix
func (s *InstanceSet) Matrix(i int) [16]float32 {
	return s.matrices[i]
}

// MarshalInstance serializes the matrix at index i into buf, which must hold
// at least 64 bytes. Column-major float32 little-endian, matching Marshal's
// per-instance encoding.
//
// Parameters:
//   - i: the instance index
//   - buf: destination slice (at least 64 bytes)
func (s *InstanceSet) MarshalInstance(i int, buf []byte) {
	m := &s.matrices[i]
	for j := 0; j < 16; j++ {
		binary.LittleEndian.PutUint32(buf[j*4:(j+1)*4], math.Float32bits(m[j]))
	}
}

// Marshal serializes the set for GPU upload: 64 bytes per instance, matrices
// in set order, each column-major float32 little-endian. The encoding is
// deterministic, so identical sets always produce identical bytes.
//
// Returns:
//   - []byte: the serialized instance data (64 * Len() bytes)
func (s *InstanceSet) Marshal() []byte {
	buf := make([]byte, 64*s.Len())
	for i := range s.matrices {
		s.MarshalInstance(i, buf[i*64:(i+1)*64])
	}
	return buf
}
