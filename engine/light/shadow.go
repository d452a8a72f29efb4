package light

import (
	"github.com/Carmen-Shannon/oxy-render/common"
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// DefaultShadowMapResolution is the default width and height in texels of every shadow map layer.
const DefaultShadowMapResolution = 2048

// DefaultShadowHalfExtent is the default orthographic half-extent (in world units) used for the
// directional light shadow frustum.
const DefaultShadowHalfExtent float32 = 40.0

// DefaultShadowNear is the default near plane of shadow projections.
const DefaultShadowNear float32 = 0.1

// DefaultShadowFar is the default far plane of directional shadow projections.
const DefaultShadowFar float32 = 200.0

// DefaultShadowBias is the constant depth bias applied to shadow comparisons to reduce shadow acne.
const DefaultShadowBias float32 = 0.001

// DefaultShadowNormalBias is the default world-space distance fragment positions are pushed along their
// normal before they are projected into light space.
const DefaultShadowNormalBias float32 = 0.05

// CubeFace identifies one face of a point light's shadow cube.
type CubeFace int

const (
	CubeFacePositiveX CubeFace = iota
	CubeFaceNegativeX
	CubeFacePositiveY
	CubeFaceNegativeY
	CubeFacePositiveZ
	CubeFaceNegativeZ
)

// cubeFaceAxes holds the look direction and up vector of each cube face.
var cubeFaceAxes = [CubeFaces][2]mgl32.Vec3{
	{{1, 0, 0}, {0, -1, 0}},
	{{-1, 0, 0}, {0, -1, 0}},
	{{0, 1, 0}, {0, 0, 1}},
	{{0, -1, 0}, {0, 0, -1}},
	{{0, 0, 1}, {0, -1, 0}},
	{{0, 0, -1}, {0, -1, 0}},
}

// Direction returns the world-space axis the face looks along.
func (f CubeFace) Direction() mgl32.Vec3 {
	return cubeFaceAxes[f][0]
}

// ShadowFit controls the volume covered by directional shadow maps.
type ShadowFit struct {
	HalfExtent float32
	Near       float32
	Far        float32
}

// DefaultShadowFit returns the fit used when none is configured.
func DefaultShadowFit() ShadowFit {
	return ShadowFit{HalfExtent: DefaultShadowHalfExtent, Near: DefaultShadowNear, Far: DefaultShadowFar}
}

// DirectionalShadow builds an orthographic light-space view-projection centered on center and looking
// along dir. The eye is placed half the far distance behind center so geometry on both sides of the
// focus point is captured.
//
// Parameters:
//   - dir: normalized direction the light points (from light toward scene)
//   - center: world-space center of the shadow volume, typically the camera position
//   - fit: the half-extent and depth range of the volume
//
// Returns:
//   - ShadowProjection: the projection with ViewProj[0] set
func DirectionalShadow(dir, center mgl32.Vec3, fit ShadowFit) ShadowProjection {
	eye := center.Sub(dir.Mul(fit.Far * 0.5))
	view := common.LookAt(eye, center, mgl32.Vec3{0, 1, 0})
	proj := common.Ortho(-fit.HalfExtent, fit.HalfExtent, -fit.HalfExtent, fit.HalfExtent, fit.Near, fit.Far)
	return ShadowProjection{ViewProj: [CubeFaces]mgl32.Mat4{proj.Mul4(view)}}
}

// SpotShadow builds a perspective light-space view-projection covering the spot light's outer cone.
//
// Parameters:
//   - l: the spot light
//
// Returns:
//   - ShadowProjection: the projection with ViewProj[0] set
func SpotShadow(l SpotLight) ShadowProjection {
	fov := math32.Min(2*l.OuterCone+mgl32.DegToRad(2), mgl32.DegToRad(170))
	far := math32.Max(l.Range, DefaultShadowNear*2)
	view := common.LookAt(l.Position, l.Position.Add(l.Direction), mgl32.Vec3{0, 1, 0})
	proj := common.Perspective(fov, 1, DefaultShadowNear, far)
	return ShadowProjection{ViewProj: [CubeFaces]mgl32.Mat4{proj.Mul4(view)}}
}

// PointShadow builds the six 90 degree cube-face view-projections of a point light, in CubeFace order.
//
// Parameters:
//   - l: the point light
//
// Returns:
//   - ShadowProjection: the projection with all six faces set
func PointShadow(l PointLight) ShadowProjection {
	far := math32.Max(l.Range, DefaultShadowNear*2)
	proj := common.Perspective(math32.Pi/2, 1, DefaultShadowNear, far)
	var p ShadowProjection
	for face, axes := range cubeFaceAxes {
		view := mgl32.LookAtV(l.Position, l.Position.Add(axes[0]), axes[1])
		p.ViewProj[face] = proj.Mul4(view)
	}
	return p
}

// ComputeShadows attaches a freshly computed shadow projection to every light in d whose shadow flag is
// set and clears the projection of every light whose flag is not. The light slices are modified in place.
//
// Parameters:
//   - focus: the world-space center of directional shadow volumes
//   - fit: the directional shadow volume
func (d LightsData) ComputeShadows(focus mgl32.Vec3, fit ShadowFit) {
	for i := range d.Directional {
		l := &d.Directional[i]
		l.Shadow = nil
		if l.Params[ParamShadow] != 0 {
			p := DirectionalShadow(l.Direction, focus, fit)
			l.Shadow = &p
		}
	}
	for i := range d.Spot {
		l := &d.Spot[i]
		l.Shadow = nil
		if l.Params[ParamShadow] != 0 {
			p := SpotShadow(*l)
			l.Shadow = &p
		}
	}
	for i := range d.Point {
		l := &d.Point[i]
		l.Shadow = nil
		if l.Params[ParamShadow] != 0 {
			p := PointShadow(*l)
			l.Shadow = &p
		}
	}
}
