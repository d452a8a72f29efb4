package light

import (
	"encoding/binary"
	"math"
	"testing"
	"unsafe"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuilderDefaults(t *testing.T) {
	d := NewDirectional()
	assert.Equal(t, mgl32.Vec3{0, -1, 0}, d.Direction)
	assert.Zero(t, d.Params[ParamShadow])
	assert.False(t, d.CastsShadow())

	s := NewSpot(WithSpotCone(30, 10), WithCastsShadows(true))
	assert.InDelta(t, mgl32.DegToRad(30), s.InnerCone, 1e-6)
	assert.InDelta(t, mgl32.DegToRad(30), s.OuterCone, 1e-6)
	assert.Equal(t, float32(1), s.Params[ParamShadow])
	assert.False(t, s.CastsShadow(), "flag alone without a projection does not cast")

	p := NewPoint(WithShadowStrength(4), WithShadowBias(0.01, 0.2))
	assert.Equal(t, float32(1), p.Params[ParamShadowStrength])
	assert.Equal(t, float32(0.01), p.Params[ParamDepthBias])
	assert.Equal(t, float32(0.2), p.Params[ParamNormalBias])
}

func TestClampedTruncatesEachKind(t *testing.T) {
	d := LightsData{
		Directional: make([]DirectionalLight, 6),
		Spot:        make([]SpotLight, 2),
		Point:       make([]PointLight, 5),
	}
	c, truncated := d.Clamped()
	assert.True(t, truncated)
	assert.Len(t, c.Directional, MaxDirectionalLights)
	assert.Len(t, c.Spot, 2)
	assert.Len(t, c.Point, MaxPointLights)

	_, truncated = c.Clamped()
	assert.False(t, truncated)
}

func TestComputeShadowsFollowsFlag(t *testing.T) {
	d := LightsData{
		Directional: []DirectionalLight{
			NewDirectional(WithCastsShadows(true)),
			NewDirectional(),
		},
		Spot:  []SpotLight{NewSpot(WithCastsShadows(true), WithPosition(0, 5, 0))},
		Point: []PointLight{NewPoint(WithCastsShadows(true), WithPosition(1, 2, 3))},
	}
	d.ComputeShadows(mgl32.Vec3{}, DefaultShadowFit())

	require.NotNil(t, d.Directional[0].Shadow)
	assert.Nil(t, d.Directional[1].Shadow)
	require.NotNil(t, d.Spot[0].Shadow)
	require.NotNil(t, d.Point[0].Shadow)
	assert.Equal(t, 1+1+CubeFaces, d.ShadowCasters())
}

func TestDirectionalShadowMapsCenterIntoClipVolume(t *testing.T) {
	p := DirectionalShadow(mgl32.Vec3{0, -1, 0}, mgl32.Vec3{3, 0, 3}, DefaultShadowFit())
	clip := p.ViewProj[0].Mul4x1(mgl32.Vec4{3, 0, 3, 1})
	ndc := clip.Vec3().Mul(1 / clip.W())
	assert.InDelta(t, 0, ndc.X(), 1e-4)
	assert.InDelta(t, 0, ndc.Y(), 1e-4)
	assert.Greater(t, ndc.Z(), float32(0))
	assert.Less(t, ndc.Z(), float32(1))
}

func TestPointShadowFacesLookAlongTheirAxis(t *testing.T) {
	l := NewPoint(WithPosition(1, 2, 3), WithRange(20))
	p := PointShadow(l)
	for face := CubeFacePositiveX; face <= CubeFaceNegativeZ; face++ {
		target := l.Position.Add(face.Direction().Mul(5))
		clip := p.ViewProj[face].Mul4x1(target.Vec4(1))
		require.Greater(t, clip.W(), float32(0), "face %d", face)
		ndc := clip.Vec3().Mul(1 / clip.W())
		assert.InDelta(t, 0, ndc.X(), 1e-4, "face %d", face)
		assert.InDelta(t, 0, ndc.Y(), 1e-4, "face %d", face)
		assert.True(t, ndc.Z() > 0 && ndc.Z() < 1, "face %d depth %f", face, ndc.Z())
	}
}

func TestMarshalLightsLayout(t *testing.T) {
	d := LightsData{
		Ambient: mgl32.Vec3{0.1, 0.2, 0.3},
		Directional: []DirectionalLight{
			NewDirectional(WithIntensity(2), WithCastsShadows(true)),
		},
		Point: []PointLight{NewPoint(WithRange(7))},
	}
	buf := MarshalLights(nil, d, 1024)
	require.Len(t, buf, GPULightsSize)
	assert.Equal(t, 2784, GPULightsSize)

	f32 := func(off int) float32 { return math.Float32frombits(binary.LittleEndian.Uint32(buf[off:])) }
	assert.Equal(t, float32(0.2), f32(4))
	assert.Equal(t, uint32(1), binary.LittleEndian.Uint32(buf[16:]))
	assert.Equal(t, uint32(0), binary.LittleEndian.Uint32(buf[20:]))
	assert.Equal(t, uint32(1), binary.LittleEndian.Uint32(buf[24:]))
	assert.Equal(t, uint32(1024), binary.LittleEndian.Uint32(buf[28:]))

	// Intensity rides in direction.w; the flag is cleared because no projection was computed.
	assert.Equal(t, float32(2), f32(gpuDirectionalLightsBase+12))
	assert.Zero(t, f32(gpuDirectionalLightsBase+32))
	assert.Equal(t, float32(7), f32(gpuPointLightsBase+12))

	assert.Equal(t, gpuDirectionalLightSize, int(unsafe.Sizeof(GPUDirectionalLight{})))
	assert.Equal(t, gpuSpotLightSize, int(unsafe.Sizeof(GPUSpotLight{})))
	assert.Equal(t, gpuPointLightSize, int(unsafe.Sizeof(GPUPointLight{})))
	assert.Equal(t, GPUShadowUniformSize, int(unsafe.Sizeof(GPUShadowUniform{})))
}

func TestShadowUniformMarshalsColumnMajor(t *testing.T) {
	u := GPUShadowUniform{ViewProj: mgl32.Translate3D(1, 2, 3)}
	buf := make([]byte, GPUShadowUniformSize)
	u.MarshalInto(buf)

	f32 := func(off int) float32 { return math.Float32frombits(binary.LittleEndian.Uint32(buf[off:])) }
	assert.Equal(t, float32(1), f32(0))
	assert.Equal(t, float32(1), f32(20))
	assert.Equal(t, float32(1), f32(48))
	assert.Equal(t, float32(2), f32(52))
	assert.Equal(t, float32(3), f32(56))
	assert.Equal(t, float32(1), f32(60))
}
