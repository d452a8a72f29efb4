package batcher

import (
	"github.com/Carmen-Shannon/oxy-render/engine/renderer/material"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer/mesh"
	"github.com/go-gl/mathgl/mgl32"
)

// RenderPass selects which pass of the frame draws a batch.
type RenderPass uint8

const (
	// PassOpaque is drawn in the main color pass before post-processing.
	PassOpaque RenderPass = iota

	// PassTransparent is alpha blended after post-processing, back to front.
	PassTransparent

	// PassOverlay is drawn last, back to front, typically with depth disabled.
	PassOverlay

	// PassCount is the number of render passes.
	PassCount
)

func (p RenderPass) String() string {
	switch p {
	case PassOpaque:
		return "opaque"
	case PassTransparent:
		return "transparent"
	case PassOverlay:
		return "overlay"
	default:
		return "unknown"
	}
}

// BackToFront reports whether instances of the pass must be drawn farthest first.
func (p RenderPass) BackToFront() bool {
	return p == PassTransparent || p == PassOverlay
}

// Blends reports whether the pass always alpha blends.
func (p RenderPass) Blends() bool {
	return p == PassTransparent || p == PassOverlay
}

// DepthState controls depth testing and depth writes for an object.
type DepthState struct {
	Test  bool
	Write bool
}

// DefaultDepth tests and writes depth.
var DefaultDepth = DepthState{Test: true, Write: true}

// RenderObject is one visible entity with its world transform resolved. It is rebuilt every frame.
type RenderObject struct {
	Mesh      mesh.Handle
	Material  material.Material
	Transform mgl32.Mat4
	Depth     DepthState

	// ForceOverlay routes the object into the overlay pass regardless of its material.
	ForceOverlay bool

	// ForceTransparent routes an opaque material into the transparent pass for this object only.
	ForceTransparent bool
}

// Pass returns the render pass the object belongs to: overlay when forced, transparent when the material
// blends or transparency is forced, opaque otherwise.
//
// Returns:
//   - RenderPass: the assigned pass
func (o RenderObject) Pass() RenderPass {
	switch {
	case o.ForceOverlay:
		return PassOverlay
	case o.Material.AlphaBlend() || o.ForceTransparent:
		return PassTransparent
	default:
		return PassOpaque
	}
}

// BatchKey groups objects that can be drawn with one instanced draw call.
type BatchKey struct {
	Mesh     mesh.Handle
	Material material.Key
	Pass     RenderPass
	Depth    DepthState
}

// Instance is one copy of a batch's mesh.
type Instance struct {
	Transform mgl32.Mat4
	Material  material.Material

	// Position is the world-space translation of Transform, cached for distance sorting.
	Position mgl32.Vec3
}
