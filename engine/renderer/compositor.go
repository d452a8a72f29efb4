package renderer

import "github.com/Carmen-Shannon/oxy-render/engine/gpu"

// Compositor is the post-process step between the opaque and transparent passes. It draws the resolved opaque
// scene into the frame target with a fullscreen pass.
type Compositor interface {
	// Composite records the post-process draw into pass. The pass targets the frame color at the renderer's
	// sample count and has no depth attachment.
	//
	// Parameters:
	//   - pass: the composite render pass
	//   - scene: bind group 0 of the composite layout: the resolved scene color (binding 0) and a filtering
	//     sampler (binding 1)
	Composite(pass gpu.RenderPassEncoder, scene gpu.BindGroup)
}

// copyCompositor is the built-in Compositor that copies the scene color unchanged.
type copyCompositor struct {
	pipeline gpu.RenderPipeline
}

var _ Compositor = &copyCompositor{}

func (c *copyCompositor) Composite(pass gpu.RenderPassEncoder, scene gpu.BindGroup) {
	pass.SetPipeline(c.pipeline)
	pass.SetBindGroup(0, scene)
	pass.Draw(3, 1, 0, 0)
}
