package light

import (
	_ "embed"

	"github.com/Carmen-Shannon/oxy-render/common"
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// GPULightsSource is the canonical WGSL definition of the Lights uniform block and its per-kind light
// structs. Matches GPULights layout exactly (see GPULightsSize).
//
//go:embed assets/lights.wgsl
var GPULightsSource string

// GPUShadowUniformSource is the canonical WGSL definition of the ShadowUniform struct.
// Matches GPUShadowUniform layout exactly (64 bytes).
//
//go:embed assets/shadow_uniform.wgsl
var GPUShadowUniformSource string

const (
	gpuLightsHeaderSize      = 32
	gpuDirectionalLightSize  = 112
	gpuSpotLightSize         = 144
	gpuPointLightSize        = 432
	gpuDirectionalLightsBase = gpuLightsHeaderSize
	gpuSpotLightsBase        = gpuDirectionalLightsBase + MaxDirectionalLights*gpuDirectionalLightSize
	gpuPointLightsBase       = gpuSpotLightsBase + MaxSpotLights*gpuSpotLightSize

	// GPULightsSize is the byte size of the Lights uniform block.
	GPULightsSize = gpuPointLightsBase + MaxPointLights*gpuPointLightSize

	// GPUShadowUniformSize is the byte size of the ShadowUniform struct.
	GPUShadowUniformSize = 64
)

// GPUDirectionalLight is the GPU-aligned record of a directional light.
// Size: 112 bytes.
type GPUDirectionalLight struct {
	Direction [4]float32 // offset 0: xyz direction, w intensity
	Color     [4]float32 // offset 16: rgb color
	Params    [4]float32 // offset 32: shadow flag, depth bias, normal bias, strength
	ViewProj  mgl32.Mat4 // offset 48: shadow view-projection
}

// MarshalInto serializes the record into dst, which must hold at least 112 bytes.
func (g *GPUDirectionalLight) MarshalInto(dst []byte) {
	common.PutVec4(dst[0:], g.Direction)
	common.PutVec4(dst[16:], g.Color)
	common.PutVec4(dst[32:], g.Params)
	common.PutMat4(dst[48:], g.ViewProj)
}

// GPUSpotLight is the GPU-aligned record of a spot light.
// Size: 144 bytes.
type GPUSpotLight struct {
	Position  [4]float32 // offset 0: xyz position, w range
	Direction [4]float32 // offset 16: xyz cone axis
	Color     [4]float32 // offset 32: rgb color, w intensity
	Cone      [4]float32 // offset 48: cos(inner), cos(outer)
	Params    [4]float32 // offset 64: shadow flag, depth bias, normal bias, strength
	ViewProj  mgl32.Mat4 // offset 80: shadow view-projection
}

// MarshalInto serializes the record into dst, which must hold at least 144 bytes.
func (g *GPUSpotLight) MarshalInto(dst []byte) {
	common.PutVec4(dst[0:], g.Position)
	common.PutVec4(dst[16:], g.Direction)
	common.PutVec4(dst[32:], g.Color)
	common.PutVec4(dst[48:], g.Cone)
	common.PutVec4(dst[64:], g.Params)
	common.PutMat4(dst[80:], g.ViewProj)
}

// GPUPointLight is the GPU-aligned record of a point light.
// Size: 432 bytes.
type GPUPointLight struct {
	Position [4]float32            // offset 0: xyz position, w range
	Color    [4]float32            // offset 16: rgb color, w intensity
	Params   [4]float32            // offset 32: shadow flag, depth bias, normal bias, strength
	ViewProj [CubeFaces]mgl32.Mat4 // offset 48: cube face view-projections
}

// MarshalInto serializes the record into dst, which must hold at least 432 bytes.
func (g *GPUPointLight) MarshalInto(dst []byte) {
	common.PutVec4(dst[0:], g.Position)
	common.PutVec4(dst[16:], g.Color)
	common.PutVec4(dst[32:], g.Params)
	for i, m := range g.ViewProj {
		common.PutMat4(dst[48+i*64:], m)
	}
}

// GPU converts the light into its GPU record. A light without a shadow projection is uploaded with its
// shadow flag cleared so the shader never samples a layer that was not rendered.
func (l DirectionalLight) GPU() GPUDirectionalLight {
	g := GPUDirectionalLight{
		Direction: [4]float32{l.Direction[0], l.Direction[1], l.Direction[2], l.Intensity},
		Color:     [4]float32{l.Color[0], l.Color[1], l.Color[2], 0},
		Params:    l.Params,
	}
	if l.CastsShadow() {
		g.ViewProj = l.Shadow.ViewProj[0]
	} else {
		g.Params[ParamShadow] = 0
	}
	return g
}

// GPU converts the light into its GPU record.
func (l SpotLight) GPU() GPUSpotLight {
	g := GPUSpotLight{
		Position:  [4]float32{l.Position[0], l.Position[1], l.Position[2], l.Range},
		Direction: [4]float32{l.Direction[0], l.Direction[1], l.Direction[2], 0},
		Color:     [4]float32{l.Color[0], l.Color[1], l.Color[2], l.Intensity},
		Cone:      [4]float32{math32.Cos(l.InnerCone), math32.Cos(l.OuterCone), 0, 0},
		Params:    l.Params,
	}
	if l.CastsShadow() {
		g.ViewProj = l.Shadow.ViewProj[0]
	} else {
		g.Params[ParamShadow] = 0
	}
	return g
}

// GPU converts the light into its GPU record.
func (l PointLight) GPU() GPUPointLight {
	g := GPUPointLight{
		Position: [4]float32{l.Position[0], l.Position[1], l.Position[2], l.Range},
		Color:    [4]float32{l.Color[0], l.Color[1], l.Color[2], l.Intensity},
		Params:   l.Params,
	}
	if l.CastsShadow() {
		g.ViewProj = l.Shadow.ViewProj
	} else {
		g.Params[ParamShadow] = 0
	}
	return g
}

// MarshalLights serializes d into the Lights uniform block layout. Lights beyond the per-kind maxima
// are dropped; unused slots are zeroed.
//
// Parameters:
//   - dst: the destination slice, reused when it holds at least GPULightsSize bytes
//   - d: the lights to marshal
//   - shadowResolution: the shadow map edge length in texels, stored for PCF offsets
//
// Returns:
//   - []byte: the GPULightsSize byte block ready for GPU upload
func MarshalLights(dst []byte, d LightsData, shadowResolution uint32) []byte {
	if cap(dst) < GPULightsSize {
		dst = make([]byte, GPULightsSize)
	}
	dst = dst[:GPULightsSize]
	clear(dst)

	d, _ = d.Clamped()
	common.PutVec4(dst[0:], [4]float32{d.Ambient[0], d.Ambient[1], d.Ambient[2], 0})
	common.PutUint32s(dst[16:], uint32(len(d.Directional)), uint32(len(d.Spot)), uint32(len(d.Point)), shadowResolution)

	for i, l := range d.Directional {
		g := l.GPU()
		g.MarshalInto(dst[gpuDirectionalLightsBase+i*gpuDirectionalLightSize:])
	}
	for i, l := range d.Spot {
		g := l.GPU()
		g.MarshalInto(dst[gpuSpotLightsBase+i*gpuSpotLightSize:])
	}
	for i, l := range d.Point {
		g := l.GPU()
		g.MarshalInto(dst[gpuPointLightsBase+i*gpuPointLightSize:])
	}
	return dst
}

// GPUShadowUniform is the uniform read by the shadow depth pass vertex shader.
// Size: 64 bytes (mat4x4<f32>).
type GPUShadowUniform struct {
	ViewProj mgl32.Mat4
}

// MarshalInto serializes the uniform into dst, which must hold at least GPUShadowUniformSize bytes.
func (u *GPUShadowUniform) MarshalInto(dst []byte) {
	common.PutMat4(dst, u.ViewProj)
}
