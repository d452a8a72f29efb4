package shadow

import (
	"github.com/Carmen-Shannon/oxy-render/engine/light"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer/batcher"
	"github.com/go-gl/mathgl/mgl32"
)

// Layer counts of the three shadow map arrays.
const (
	DirectionalLayers = light.MaxDirectionalLights
	SpotLayers        = light.MaxSpotLights
	PointLayers       = light.MaxPointLights * light.CubeFaces

	// MaxPasses is the number of staging slots, one per layer across all arrays.
	MaxPasses = DirectionalLayers + SpotLayers + PointLayers
)

// Target identifies one of the three shadow map arrays.
type Target uint8

const (
	TargetDirectional Target = iota
	TargetSpot
	TargetPoint
)

func (t Target) String() string {
	switch t {
	case TargetDirectional:
		return "directional"
	case TargetSpot:
		return "spot"
	case TargetPoint:
		return "point"
	default:
		return "unknown"
	}
}

// Slot is one planned depth pass: the array layer it renders into and the matrix it renders with.
type Slot struct {
	Target   Target
	Layer    int
	ViewProj mgl32.Mat4
}

// PointLayer returns the point shadow array layer of a point light's cube face.
//
// Parameters:
//   - index: the point light index within LightsData.Point
//   - face: the cube face
//
// Returns:
//   - int: the array layer, index*6+face
func PointLayer(index int, face light.CubeFace) int {
	return index*light.CubeFaces + int(face)
}

// Plan lists the depth passes of a frame in staging order: directional lights, then spot lights, then the six
// faces of every point light. Lights beyond the per-kind maxima, lights with the shadow flag cleared and lights
// without a computed projection reserve nothing.
//
// Parameters:
//   - lights: the frame lights
//
// Returns:
//   - []Slot: the planned passes, at most MaxPasses
func Plan(lights light.LightsData) []Slot {
	return appendPlan(nil, lights)
}

func appendPlan(dst []Slot, lights light.LightsData) []Slot {
	lights, _ = lights.Clamped()
	for i, l := range lights.Directional {
		if l.CastsShadow() {
			dst = append(dst, Slot{Target: TargetDirectional, Layer: i, ViewProj: l.Shadow.ViewProj[0]})
		}
	}
	for i, l := range lights.Spot {
		if l.CastsShadow() {
			dst = append(dst, Slot{Target: TargetSpot, Layer: i, ViewProj: l.Shadow.ViewProj[0]})
		}
	}
	for i, l := range lights.Point {
		if !l.CastsShadow() {
			continue
		}
		for face := range light.CubeFace(light.CubeFaces) {
			dst = append(dst, Slot{Target: TargetPoint, Layer: PointLayer(i, face), ViewProj: l.Shadow.ViewProj[face]})
		}
	}
	return dst
}

// Run is a span of consecutive shadow-casting instances within one batch.
type Run struct {
	Start int
	Count int
}

// AppendLitRuns appends the maximal runs of instances whose material is lit. Unlit instances split runs and
// are never drawn into shadow maps.
//
// Parameters:
//   - dst: the slice to append to
//   - instances: the instances of one batch
//
// Returns:
//   - []Run: dst extended with the lit runs
func AppendLitRuns(dst []Run, instances []batcher.Instance) []Run {
	open := false
	for i, inst := range instances {
		if inst.Material.Unlit() {
			open = false
			continue
		}
		if open {
			dst[len(dst)-1].Count++
			continue
		}
		dst = append(dst, Run{Start: i, Count: 1})
		open = true
	}
	return dst
}
