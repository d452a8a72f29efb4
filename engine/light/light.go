// Package light defines the per-frame light input of the renderer: directional, spot and point lights
// with their shadow parameters and precomputed shadow matrices.
package light

import (
	"github.com/Carmen-Shannon/oxy-render/common"
	"github.com/go-gl/mathgl/mgl32"
)

const (
	// MaxDirectionalLights is the number of directional lights the renderer evaluates and shadows.
	MaxDirectionalLights = 4

	// MaxSpotLights is the number of spot lights the renderer evaluates and shadows.
	MaxSpotLights = 4

	// MaxPointLights is the number of point lights the renderer evaluates and shadows.
	MaxPointLights = 4

	// CubeFaces is the number of shadow faces rendered per point light.
	CubeFaces = 6
)

// Params indices. Params[ParamShadow] != 0 enables the light's shadow map.
const (
	ParamShadow = iota
	ParamDepthBias
	ParamNormalBias
	ParamShadowStrength
)

// ShadowProjection holds the light-space view-projection matrices used to render and sample a light's
// shadow map. Directional and spot lights use ViewProj[0] only; point lights use one matrix per cube face
// in CubeFace order.
type ShadowProjection struct {
	ViewProj [CubeFaces]mgl32.Mat4
}

// DirectionalLight is an infinitely distant light shining along Direction.
type DirectionalLight struct {
	Direction mgl32.Vec3
	Color     mgl32.Vec3
	Intensity float32
	Params    [4]float32
	Shadow    *ShadowProjection
}

// SpotLight emits a cone from Position along Direction. Cone angles are half-angles in radians.
type SpotLight struct {
	Position  mgl32.Vec3
	Direction mgl32.Vec3
	Color     mgl32.Vec3
	Intensity float32
	Range     float32
	InnerCone float32
	OuterCone float32
	Params    [4]float32
	Shadow    *ShadowProjection
}

// PointLight emits in all directions from Position up to Range.
type PointLight struct {
	Position  mgl32.Vec3
	Color     mgl32.Vec3
	Intensity float32
	Range     float32
	Params    [4]float32
	Shadow    *ShadowProjection
}

// CastsShadow reports whether the light has its shadow flag set and a shadow projection attached.
func (l DirectionalLight) CastsShadow() bool {
	return l.Params[ParamShadow] != 0 && l.Shadow != nil
}

// CastsShadow reports whether the light has its shadow flag set and a shadow projection attached.
func (l SpotLight) CastsShadow() bool {
	return l.Params[ParamShadow] != 0 && l.Shadow != nil
}

// CastsShadow reports whether the light has its shadow flag set and a shadow projection attached.
func (l PointLight) CastsShadow() bool {
	return l.Params[ParamShadow] != 0 && l.Shadow != nil
}

// LightsData is the complete light input of one frame.
type LightsData struct {
	Ambient     mgl32.Vec3
	Directional []DirectionalLight
	Spot        []SpotLight
	Point       []PointLight
}

// Clamped returns a copy of d with every light list cut to its maximum.
//
// Returns:
//   - LightsData: the clamped lights, sharing the backing arrays of d
//   - bool: true if any list was cut
func (d LightsData) Clamped() (LightsData, bool) {
	var cutDirectional, cutSpot, cutPoint bool
	d.Directional, cutDirectional = common.Truncate(d.Directional, MaxDirectionalLights)
	d.Spot, cutSpot = common.Truncate(d.Spot, MaxSpotLights)
	d.Point, cutPoint = common.Truncate(d.Point, MaxPointLights)
	return d, cutDirectional || cutSpot || cutPoint
}

// ShadowCasters counts the shadow passes d requires: one per shadowed directional or spot light and
// CubeFaces per shadowed point light. Lights beyond the maxima are not counted.
//
// Returns:
//   - int: the number of shadow passes
func (d LightsData) ShadowCasters() int {
	d, _ = d.Clamped()
	n := 0
	for _, l := range d.Directional {
		if l.CastsShadow() {
			n++
		}
	}
	for _, l := range d.Spot {
		if l.CastsShadow() {
			n++
		}
	}
	for _, l := range d.Point {
		if l.CastsShadow() {
			n += CubeFaces
		}
	}
	return n
}
