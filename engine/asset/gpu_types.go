package asset

import (
	"encoding/binary"
	"fmt"
	"math"
	"strings"
	"unsafe"

	"github.com/cogentcore/webgpu/wgpu"
)

// Vertex is the GPU-aligned representation of a single mesh vertex.
// Matches the WGSL VertexInput struct layout exactly.
// Size: 32 bytes (std430 aligned, no padding required).
type Vertex struct {
	Position [3]float32 // offset  0: vertex position in model space (12 bytes)
	Normal   [3]float32 // offset 12: vertex normal (12 bytes)
	TexCoord [2]float32 // offset 24: UV texture coordinate (8 bytes)
}

// Size returns the size of the Vertex struct in bytes.
//
// Returns:
//   - int: the size of the struct in bytes.
func (v *Vertex) Size() int {
	return int(unsafe.Sizeof(*v))
}

// Marshal serializes the Vertex struct into a byte buffer suitable for GPU upload.
//
// Returns:
//   - []byte: 32-byte buffer ready for GPU upload.
func (v *Vertex) Marshal() []byte {
	buf := make([]byte, 32)
	binary.LittleEndian.PutUint32(buf[0:4], math.Float32bits(v.Position[0]))
	binary.LittleEndian.PutUint32(buf[4:8], math.Float32bits(v.Position[1]))
	binary.LittleEndian.PutUint32(buf[8:12], math.Float32bits(v.Position[2]))
	binary.LittleEndian.PutUint32(buf[12:16], math.Float32bits(v.Normal[0]))
	binary.LittleEndian.PutUint32(buf[16:20], math.Float32bits(v.Normal[1]))
	binary.LittleEndian.PutUint32(buf[20:24], math.Float32bits(v.Normal[2]))
	binary.LittleEndian.PutUint32(buf[24:28], math.Float32bits(v.TexCoord[0]))
	binary.LittleEndian.PutUint32(buf[28:32], math.Float32bits(v.TexCoord[1]))
	return buf
}

// VertexAttribute describes a single attribute within a VertexLayout.
type VertexAttribute struct {
	Format         wgpu.VertexFormat
	Offset         uint64
	ShaderLocation uint32
}

// VertexLayout describes the memory layout of a vertex buffer. Two layouts are
// structurally equal when their signatures match; pipeline caching keys on the
// signature, so meshes sharing a layout (and shader source) share a pipeline.
type VertexLayout struct {
	ArrayStride uint64
	Attributes  []VertexAttribute
}

// Signature returns a canonical string describing stride and the ordered
// attribute (format, offset, location) triples. Structurally equal layouts
// produce identical signatures.
//
// Returns:
//   - string: the canonical layout description
func (l VertexLayout) Signature() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "stride=%d", l.ArrayStride)
	for _, a := range l.Attributes {
		fmt.Fprintf(&sb, ";%d@%d:%d", a.Format, a.Offset, a.ShaderLocation)
	}
	return sb.String()
}

// ToWGPU converts the layout into the descriptor form the render pipeline expects.
//
// Returns:
//   - wgpu.VertexBufferLayout: the wgpu vertex buffer layout
func (l VertexLayout) ToWGPU() wgpu.VertexBufferLayout {
	attrs := make([]wgpu.VertexAttribute, len(l.Attributes))
	for i, a := range l.Attributes {
		attrs[i] = wgpu.VertexAttribute{
			Format:         a.Format,
			Offset:         a.Offset,
			ShaderLocation: a.ShaderLocation,
		}
	}
	return wgpu.VertexBufferLayout{
		ArrayStride: l.ArrayStride,
		StepMode:    wgpu.VertexStepModeVertex,
		Attributes:  attrs,
	}
}

// DefaultLayout returns the layout matching the Vertex struct: position at
// location 0, normal at 1, texcoord at 2, 32-byte stride.
//
// Returns:
//   - VertexLayout: the layout for Vertex-formatted buffers
func DefaultLayout() VertexLayout {
	return VertexLayout{
		ArrayStride: 32,
		Attributes: []VertexAttribute{
			{Format: wgpu.VertexFormatFloat32x3, Offset: 0, ShaderLocation: 0},
			{Format: wgpu.VertexFormatFloat32x3, Offset: 12, ShaderLocation: 1},
			{Format: wgpu.VertexFormatFloat32x2, Offset: 24, ShaderLocation: 2},
		},
	}
}

// ComputeBoundingRadius calculates the bounding sphere radius from a slice of
// vertices, measured as the maximum distance from the origin.
//
// Parameters:
//   - vertices: the vertex data to compute the bounding radius from
//
// Returns:
//   - float32: the maximum distance from the origin
func ComputeBoundingRadius(vertices []Vertex) float32 {
	var maxDistSq float32
	for _, v := range vertices {
		p := v.Position
		distSq := p[0]*p[0] + p[1]*p[1] + p[2]*p[2]
		if distSq > maxDistSq {
			maxDistSq = distSq
		}
	}
	return float32(math.Sqrt(float64(maxDistSq)))
}
