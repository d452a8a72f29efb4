package renderer

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-render/engine/gpu"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer/pipeline"
)

// MSAASampleCount controls the number of samples used for multisample anti-aliasing (MSAA).
// Only specific power-of-two values are valid for GPU hardware. WebGPU guarantees support for
// 1 (off) and 4; higher values (8, 16) are adapter-dependent and may not be available.
type MSAASampleCount uint32

const (
	// MSAAOff disables multisample anti-aliasing (sample count 1).
	MSAAOff MSAASampleCount = 1

	// MSAA4x enables 4× multisample anti-aliasing. This is the default.
	MSAA4x MSAASampleCount = 4

	// MSAA8x enables 8× multisample anti-aliasing. Adapter-dependent; not all hardware supports this.
	MSAA8x MSAASampleCount = 8

	// MSAA16x enables 16× multisample anti-aliasing. Adapter-dependent; not all hardware supports this.
	MSAA16x MSAASampleCount = 16
)

// frameTargets holds the size-dependent attachments of a frame.
//
// The main opaque pass renders into color (multisampled) and resolves into scene, or renders into scene
// directly when MSAA is off. The composite pass samples scene and writes the frame target, which is color when
// multisampled and the surface texture otherwise. Transparent and overlay passes draw on top of the frame target.
type frameTargets struct {
	width, height uint32
	samples       uint32

	color     gpu.Texture
	colorView gpu.TextureView
	scene     gpu.Texture
	sceneView gpu.TextureView
	depth     gpu.Texture
	depthView gpu.TextureView

	composite gpu.BindGroup
}

func (t *frameTargets) multisampled() bool {
	return t.samples > 1
}

func (r *renderer) createTargets(width, height uint32) error {
	t := &frameTargets{width: max(width, 1), height: max(height, 1), samples: r.pipelines.SampleCount()}
	create := func(label string, samples uint32, format gpu.TextureFormat, usage gpu.TextureUsage) (gpu.Texture, gpu.TextureView, error) {
		tex, err := r.device.CreateTexture(gpu.TextureDescriptor{
			Label:       label,
			Width:       t.width,
			Height:      t.height,
			Layers:      1,
			SampleCount: samples,
			Format:      format,
			Usage:       usage,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("renderer: failed to create %s target: %w", label, err)
		}
		view, err := tex.CreateView(nil)
		if err != nil {
			tex.Release()
			return nil, nil, fmt.Errorf("renderer: failed to create %s view: %w", label, err)
		}
		return tex, view, nil
	}

	var err error
	if t.multisampled() {
		if t.color, t.colorView, err = create("msaa color", t.samples, gpu.TextureFormatSurface, gpu.TextureUsageRenderAttachment); err != nil {
			return err
		}
	}
	if t.scene, t.sceneView, err = create("scene color", 1, gpu.TextureFormatSurface, gpu.TextureUsageRenderAttachment|gpu.TextureUsageTextureBinding); err != nil {
		t.release()
		return err
	}
	if t.depth, t.depthView, err = create("depth", t.samples, pipeline.DepthFormat, gpu.TextureUsageRenderAttachment); err != nil {
		t.release()
		return err
	}
	t.composite, err = r.device.CreateBindGroup(gpu.BindGroupDescriptor{
		Label:  "composite",
		Layout: r.pipelines.CompositeLayout(),
		Entries: []gpu.BindGroupEntry{
			{Binding: 0, TextureView: t.sceneView},
			{Binding: 1, Sampler: r.compositeSampler},
		},
	})
	if err != nil {
		t.release()
		return fmt.Errorf("renderer: failed to create composite bind group: %w", err)
	}

	if r.targets != nil {
		r.targets.release()
	}
	r.targets = t
	return nil
}

// mainColor returns the color attachment of the main opaque pass.
func (t *frameTargets) mainColor(clearColor [4]float64) *gpu.ColorAttachment {
	if t.multisampled() {
		return &gpu.ColorAttachment{View: t.colorView, ResolveTarget: t.sceneView, LoadOp: gpu.LoadOpClear, StoreOp: gpu.StoreOpStore, ClearColor: clearColor}
	}
	return &gpu.ColorAttachment{View: t.sceneView, LoadOp: gpu.LoadOpClear, StoreOp: gpu.StoreOpStore, ClearColor: clearColor}
}

// frameColor returns the view the composite, transparent and overlay passes draw into.
func (t *frameTargets) frameColor(surface gpu.TextureView) gpu.TextureView {
	if t.multisampled() {
		return t.colorView
	}
	return surface
}

func (t *frameTargets) release() {
	if t.composite != nil {
		t.composite.Release()
	}
	for _, v := range []gpu.TextureView{t.colorView, t.sceneView, t.depthView} {
		if v != nil {
			v.Release()
		}
	}
	for _, tex := range []gpu.Texture{t.color, t.scene, t.depth} {
		if tex != nil {
			tex.Release()
		}
	}
}
