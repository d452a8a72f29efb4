// Package mesh defines how the renderer looks up GPU geometry. The renderer never owns mesh data:
// it asks a Library for the buffers behind a Handle and skips batches whose handle is unknown.
package mesh

import (
	_ "embed"
	"encoding/binary"
	"math"

	"github.com/Carmen-Shannon/oxy-render/engine/gpu"
)

// Handle identifies a mesh owned by a Library. The zero Handle is never valid.
type Handle uint32

// InvalidHandle is the zero Handle.
const InvalidHandle Handle = 0

// Mesh describes the GPU buffers of an uploaded mesh.
type Mesh struct {
	VertexBuffer gpu.Buffer
	IndexBuffer  gpu.Buffer
	IndexCount   uint32
	IndexFormat  gpu.IndexFormat

	// Radius is the bounding sphere radius around the mesh origin, in model space.
	Radius float32
}

// Library resolves mesh handles to GPU buffers.
type Library interface {
	// Mesh looks up a mesh by handle.
	//
	// Parameters:
	//   - h: the mesh handle
	//
	// Returns:
	//   - Mesh: the mesh buffers
	//   - bool: false if the handle is unknown or was removed
	Mesh(h Handle) (Mesh, bool)
}

// GPUVertexSource is the canonical WGSL definition of the VertexInput struct consumed by the bundled shaders.
// Matches Vertex layout exactly (32 bytes).
//
//go:embed assets/vertex.wgsl
var GPUVertexSource string

// Vertex is the vertex layout of the bundled shaders: position, normal, uv.
type Vertex struct {
	Position [3]float32 // offset  0: model-space position (12 bytes)
	Normal   [3]float32 // offset 12: model-space normal (12 bytes)
	UV       [2]float32 // offset 24: texture coordinate (8 bytes)
}

// MarshalInto serializes the vertex into dst, which must hold at least gpu.MeshVertexStride bytes.
//
// Parameters:
//   - dst: the destination slice
func (v *Vertex) MarshalInto(dst []byte) {
	for i, f := range v.Position {
		binary.LittleEndian.PutUint32(dst[i*4:], math.Float32bits(f))
	}
	for i, f := range v.Normal {
		binary.LittleEndian.PutUint32(dst[12+i*4:], math.Float32bits(f))
	}
	binary.LittleEndian.PutUint32(dst[24:], math.Float32bits(v.UV[0]))
	binary.LittleEndian.PutUint32(dst[28:], math.Float32bits(v.UV[1]))
}

// MarshalVertices serializes vertices into one contiguous vertex buffer payload.
//
// Parameters:
//   - vertices: the vertices to serialize
//
// Returns:
//   - []byte: len(vertices) * gpu.MeshVertexStride bytes
func MarshalVertices(vertices []Vertex) []byte {
	buf := make([]byte, len(vertices)*gpu.MeshVertexStride)
	for i := range vertices {
		vertices[i].MarshalInto(buf[i*gpu.MeshVertexStride:])
	}
	return buf
}
