// Package material defines the Material value type drawn by the renderer. A Material is a plain
// comparable value: two materials are the same material exactly when they compare equal with ==.
package material

import (
	"math"
)

// Flags is a bitmask of material features.
type Flags uint32

const (
	// FlagTextureBaseColor through FlagTextureOcclusion enable the texture in the matching slot.
	FlagTextureBaseColor Flags = 1 << iota
	FlagTextureNormal
	FlagTextureMetallicRoughness
	FlagTextureEmissive
	FlagTextureOcclusion

	// FlagAlphaBlend requests alpha blending, which routes the material into the transparent pass.
	FlagAlphaBlend

	// FlagDoubleSided disables back-face culling for the material.
	FlagDoubleSided

	// FlagUnlit skips lighting and excludes the material from shadow casting.
	FlagUnlit
)

// textureFlags is the mask of every texture-enable bit.
const textureFlags = FlagTextureBaseColor | FlagTextureNormal | FlagTextureMetallicRoughness | FlagTextureEmissive | FlagTextureOcclusion

// keyFlags are the flags that change how a batch is drawn and therefore take part in the batch key.
const keyFlags = textureFlags | FlagAlphaBlend | FlagDoubleSided

// TextureSlot indexes Material.Textures.
type TextureSlot int

const (
	SlotBaseColor TextureSlot = iota
	SlotNormal
	SlotMetallicRoughness
	SlotEmissive
	SlotOcclusion

	// TextureSlotCount is the number of texture slots a material carries.
	TextureSlotCount
)

// NoTexture marks an unused texture slot.
const NoTexture uint16 = 0xFFFF

// Material is the value type describing a surface. PBR factors are quantized to 8 bits so the
// value stays small and comparable.
type Material struct {
	BaseColor [4]float32
	Metallic  uint8
	Roughness uint8
	Emissive  [3]uint8
	Textures  [TextureSlotCount]uint16
	Flags     Flags
}

// Key is the projection of a Material that participates in the batch key: the texture set and the
// flags that affect pipeline or binding selection. Color, PBR factors and the unlit flag vary freely
// between instances of one batch.
type Key struct {
	Textures [TextureSlotCount]uint16
	Flags    Flags
}

// Key returns the batch-key projection of m.
//
// Returns:
//   - Key: the textures and pipeline-relevant flags of the material
func (m Material) Key() Key {
	return Key{Textures: m.Textures, Flags: m.Flags & keyFlags}
}

// AlphaBlend reports whether the material requests alpha blending.
func (m Material) AlphaBlend() bool { return m.Flags&FlagAlphaBlend != 0 }

// DoubleSided reports whether back faces of the material are drawn.
func (m Material) DoubleSided() bool { return m.Flags&FlagDoubleSided != 0 }

// Unlit reports whether the material skips lighting and shadow casting.
func (m Material) Unlit() bool { return m.Flags&FlagUnlit != 0 }

// AlphaBlend reports whether the keyed materials request alpha blending.
func (k Key) AlphaBlend() bool { return k.Flags&FlagAlphaBlend != 0 }

// DoubleSided reports whether back faces of the keyed materials are drawn.
func (k Key) DoubleSided() bool { return k.Flags&FlagDoubleSided != 0 }

// Texture returns the texture index bound to slot and whether the slot is enabled.
//
// Parameters:
//   - slot: the texture slot to inspect
//
// Returns:
//   - uint16: the texture index, or NoTexture
//   - bool: true if the slot's enable flag is set and an index is assigned
func (m Material) Texture(slot TextureSlot) (uint16, bool) {
	if slot < 0 || slot >= TextureSlotCount {
		return NoTexture, false
	}
	idx := m.Textures[slot]
	return idx, m.Flags&(FlagTextureBaseColor<<slot) != 0 && idx != NoTexture
}

// MetallicFactor returns the dequantized metallic factor.
func (m Material) MetallicFactor() float32 { return Dequantize(m.Metallic) }

// RoughnessFactor returns the dequantized roughness factor.
func (m Material) RoughnessFactor() float32 { return Dequantize(m.Roughness) }

// Quantize maps a factor in [0, 1] onto an unsigned 8-bit value, clamping out-of-range input.
//
// Parameters:
//   - v: the factor to quantize
//
// Returns:
//   - uint8: the quantized value, round-to-nearest
func Quantize(v float32) uint8 {
	if v != v || v <= 0 {
		return 0
	}
	if v >= 1 {
		return 255
	}
	return uint8(math.Round(float64(v) * 255))
}

// Dequantize maps an 8-bit value back onto [0, 1].
func Dequantize(v uint8) float32 {
	return float32(v) / 255
}
