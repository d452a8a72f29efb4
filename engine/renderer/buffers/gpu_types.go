package buffers

import (
	_ "embed"
	"encoding/binary"

	"github.com/Carmen-Shannon/oxy-render/common"
	"github.com/go-gl/mathgl/mgl32"
)

// GPUInstanceSource is the canonical WGSL definition of the Instance struct.
// Matches GPUInstance layout exactly (80 bytes, std430 aligned).
//
//go:embed assets/instance.wgsl
var GPUInstanceSource string

// GPUInstanceSize is the byte size of one record in the instance storage buffer.
const GPUInstanceSize = 80

// GPUInstance is the GPU-aligned per-instance record: the model matrix and the index of the
// instance's material in the material storage buffer.
type GPUInstance struct {
	Model         mgl32.Mat4 // offset 0: column-major model matrix (64 bytes)
	MaterialIndex uint32     // offset 64: index into the material buffer (4 bytes)
	_             [3]uint32  // offset 68: padding to 16-byte alignment (12 bytes)
}

// MarshalInto serializes the record into dst, which must hold at least GPUInstanceSize bytes.
// Padding bytes are zeroed.
//
// Parameters:
//   - dst: the destination slice
func (g *GPUInstance) MarshalInto(dst []byte) {
	common.PutMat4(dst, g.Model)
	binary.LittleEndian.PutUint32(dst[64:], g.MaterialIndex)
	clear(dst[68:GPUInstanceSize])
}
