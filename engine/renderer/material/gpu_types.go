package material

import (
	_ "embed"
	"encoding/binary"
	"math"
)

// GPUMaterialSource is the canonical WGSL definition of the Material struct.
// Matches GPUMaterial layout exactly (48 bytes, std430 aligned).
//
//go:embed assets/material.wgsl
var GPUMaterialSource string

// GPUMaterialSize is the byte size of one material record in the material storage buffer.
const GPUMaterialSize = 48

// GPUMaterial is the GPU-aligned material record stored in the material storage buffer.
// Matches the WGSL Material struct layout exactly (see GPUMaterialSource).
type GPUMaterial struct {
	BaseColor [4]float32 // offset 0: RGBA base color (16 bytes)
	Params    [4]uint32  // offset 16: x = metallic | roughness<<8, y = emissive rgb8, z = flags, w = texture slot 4 (16 bytes)
	Textures  [4]uint32  // offset 32: texture slots 0..3 (16 bytes)
}

// GPU converts the material into its GPU record.
//
// Returns:
//   - GPUMaterial: the packed record
func (m Material) GPU() GPUMaterial {
	return GPUMaterial{
		BaseColor: m.BaseColor,
		Params: [4]uint32{
			uint32(m.Metallic) | uint32(m.Roughness)<<8,
			uint32(m.Emissive[0]) | uint32(m.Emissive[1])<<8 | uint32(m.Emissive[2])<<16,
			uint32(m.Flags),
			uint32(m.Textures[SlotOcclusion]),
		},
		Textures: [4]uint32{
			uint32(m.Textures[SlotBaseColor]),
			uint32(m.Textures[SlotNormal]),
			uint32(m.Textures[SlotMetallicRoughness]),
			uint32(m.Textures[SlotEmissive]),
		},
	}
}

// MarshalInto serializes the record into dst, which must hold at least GPUMaterialSize bytes.
//
// Parameters:
//   - dst: the destination slice
func (g *GPUMaterial) MarshalInto(dst []byte) {
	for i, c := range g.BaseColor {
		binary.LittleEndian.PutUint32(dst[i*4:], math.Float32bits(c))
	}
	for i, p := range g.Params {
		binary.LittleEndian.PutUint32(dst[16+i*4:], p)
	}
	for i, t := range g.Textures {
		binary.LittleEndian.PutUint32(dst[32+i*4:], t)
	}
}
