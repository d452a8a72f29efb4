package camera

import (
	_ "embed"

	"github.com/Carmen-Shannon/oxy-render/common"
	"github.com/go-gl/mathgl/mgl32"
)

// GPUCameraUniformSource is the canonical WGSL definition of the CameraUniform struct.
// Matches GPUCameraUniform layout exactly (144 bytes).
//
//go:embed assets/camera.wgsl
var GPUCameraUniformSource string

// GPUCameraUniformSize is the byte size of the camera uniform buffer.
const GPUCameraUniformSize = 144

// GPUCameraUniform is the GPU-aligned representation of the camera uniform buffer.
// Matches the WGSL CameraUniform struct layout exactly (see GPUCameraUniformSource).
type GPUCameraUniform struct {
	ViewProj    mgl32.Mat4 // offset   0: combined view-projection matrix
	InvViewProj mgl32.Mat4 // offset  64: inverse view-projection, used to rebuild view rays
	Position    [4]float32 // offset 128: world-space camera position, w unused
}

// Marshal serializes the GPUCameraUniform struct into a byte buffer suitable for GPU upload.
//
// Returns:
//   - []byte: the serialized byte buffer
func (g *GPUCameraUniform) Marshal() []byte {
	buf := make([]byte, GPUCameraUniformSize)
	common.PutMat4(buf[0:], g.ViewProj)
	common.PutMat4(buf[64:], g.InvViewProj)
	common.PutVec4(buf[128:], g.Position)
	return buf
}
