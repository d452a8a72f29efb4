// Package camera provides the perspective camera the renderer draws from and an orbit controller that
// moves it.
package camera

import (
	"github.com/Carmen-Shannon/oxy-render/common"
	"github.com/go-gl/mathgl/mgl32"
)

// Camera is a perspective camera described by an eye position, a look-at target and projection settings.
// It is a plain value; the renderer reads it once per frame.
type Camera struct {
	Position mgl32.Vec3
	Target   mgl32.Vec3
	Up       mgl32.Vec3

	// Fov is the vertical field of view in radians.
	Fov    float32
	Aspect float32
	Near   float32
	Far    float32
}

// New creates a camera with sensible defaults and any provided options applied.
//
// Parameters:
//   - options: variadic list of CameraBuilderOption functions to configure the camera
//
// Returns:
//   - Camera: the configured camera
func New(options ...CameraBuilderOption) Camera {
	c := Camera{
		Position: mgl32.Vec3{0, 2, 8},
		Up:       mgl32.Vec3{0, 1, 0},
		Fov:      mgl32.DegToRad(60),
		Aspect:   16.0 / 9.0,
		Near:     0.1,
		Far:      500,
	}
	for _, opt := range options {
		opt(&c)
	}
	return c
}

// View returns the world-to-view matrix.
func (c Camera) View() mgl32.Mat4 {
	return common.LookAt(c.Position, c.Target, c.Up)
}

// Projection returns the view-to-clip matrix with WebGPU depth range.
func (c Camera) Projection() mgl32.Mat4 {
	return common.Perspective(c.Fov, c.Aspect, c.Near, c.Far)
}

// ViewProjection returns Projection * View.
func (c Camera) ViewProjection() mgl32.Mat4 {
	return c.Projection().Mul4(c.View())
}

// Frustum returns the world-space view frustum of the camera.
func (c Camera) Frustum() common.Frustum {
	return common.ExtractFrustum(c.ViewProjection())
}

// Resized returns a copy of the camera whose aspect ratio matches a width x height target.
// A zero height leaves the aspect unchanged.
func (c Camera) Resized(width, height uint32) Camera {
	if height > 0 {
		c.Aspect = float32(width) / float32(height)
	}
	return c
}

// GPU converts the camera into its uniform buffer record.
//
// Returns:
//   - GPUCameraUniform: the uniform record
func (c Camera) GPU() GPUCameraUniform {
	vp := c.ViewProjection()
	return GPUCameraUniform{
		ViewProj:    vp,
		InvViewProj: vp.Inv(),
		Position:    [4]float32{c.Position[0], c.Position[1], c.Position[2], 1},
	}
}
