// Package shadow renders the depth maps sampled by the lit mesh shader. Every shadow-casting light gets one
// depth-only pass per map layer, all recorded into the frame's command encoder before the main passes.
package shadow

import (
	"fmt"
	"log/slog"

	"github.com/Carmen-Shannon/oxy-render/engine/gpu"
	"github.com/Carmen-Shannon/oxy-render/engine/light"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer/batcher"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer/mesh"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer/preparer"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer/shader"
)

// DepthFormat is the format of every shadow map.
const DepthFormat = gpu.TextureFormatDepth32Float

// Stats counts the work recorded by the most recent Render call.
type Stats struct {
	Passes         int
	Draws          int
	SkippedBatches int
}

// depthArray is one shadow map array with a view per layer and one view of the whole array.
type depthArray struct {
	texture gpu.Texture
	layers  []gpu.TextureView
	array   gpu.TextureView
}

// resources is the implementation of the Resources interface.
type resources struct {
	device gpu.Device
	logger *slog.Logger

	resolution     uint32
	depthBias      int32
	depthBiasSlope float32

	arrays  [3]depthArray
	sampler gpu.Sampler

	uniformLayout gpu.BindGroupLayout
	uniformGroup  gpu.BindGroup
	uniform       gpu.Buffer
	staging       gpu.Buffer
	pipeline      gpu.RenderPipeline

	slots   []Slot
	runs    []Run
	scratch []byte
	missing map[mesh.Handle]struct{}
	stats   Stats
}

// Resources owns the shadow maps, the shadow depth pipeline and the buffers that feed it.
type Resources interface {
	// Render records one depth-only pass per planned slot into enc. The light matrices are uploaded with a single
	// write to the staging buffer, and each pass is preceded by a copy of its 64-byte slot into the pass uniform.
	// Only opaque batches are drawn, split into runs of lit instances. An empty batch list records nothing.
	//
	// Parameters:
	//   - enc: the frame command encoder
	//   - prepared: the ordered batches of the frame
	//   - lights: the frame lights with shadow projections computed
	//   - meshes: the mesh library; unknown meshes are skipped
	//   - objects: the instance and material bind group of the frame
	Render(enc gpu.CommandEncoder, prepared preparer.PreparedBatches, lights light.LightsData, meshes mesh.Library, objects gpu.BindGroup)

	// DirectionalView returns the directional shadow maps as a 2D array view.
	//
	// Returns:
	//   - gpu.TextureView: the array view
	DirectionalView() gpu.TextureView

	// SpotView returns the spot shadow maps as a 2D array view.
	//
	// Returns:
	//   - gpu.TextureView: the array view
	SpotView() gpu.TextureView

	// PointView returns the point shadow maps as a 2D array view, six layers per light.
	//
	// Returns:
	//   - gpu.TextureView: the array view
	PointView() gpu.TextureView

	// LayerView returns the view of a single shadow map layer.
	//
	// Parameters:
	//   - target: the shadow map array
	//   - layer: the layer index
	//
	// Returns:
	//   - gpu.TextureView: the layer view
	LayerView(target Target, layer int) gpu.TextureView

	// Sampler returns the comparison sampler used to read the shadow maps.
	//
	// Returns:
	//   - gpu.Sampler: the comparison sampler
	Sampler() gpu.Sampler

	// Resolution returns the edge length of every shadow map.
	//
	// Returns:
	//   - uint32: the resolution in texels
	Resolution() uint32

	// Stats returns the counters of the most recent Render call.
	//
	// Returns:
	//   - Stats: the shadow statistics
	Stats() Stats

	// Release frees every shadow map, buffer, bind group and the pipeline.
	Release()
}

var _ Resources = &resources{}

// NewResources allocates the shadow maps and compiles the shadow depth pipeline. Allocation or compilation
// failures panic.
//
// Parameters:
//   - device: the GPU device
//   - objectsLayout: the layout of the instance and material bind group
//   - options: variadic list of ResourcesBuilderOption functions to configure the resources
//
// Returns:
//   - Resources: the ready shadow resources
func NewResources(device gpu.Device, objectsLayout gpu.BindGroupLayout, options ...ResourcesBuilderOption) Resources {
	r := &resources{
		device:         device,
		logger:         slog.Default(),
		resolution:     light.DefaultShadowMapResolution,
		depthBias:      DefaultDepthBias,
		depthBiasSlope: DefaultDepthBiasSlopeScale,
		missing:        make(map[mesh.Handle]struct{}),
	}
	for _, opt := range options {
		opt(r)
	}
	r.logger = r.logger.With(slog.String("component", "shadow"))
	if limit := device.Limits().MaxTextureDimension2D; limit > 0 && r.resolution > limit {
		r.logger.Warn("shadow map resolution exceeds device limit, clamping",
			slog.Uint64("requested", uint64(r.resolution)),
			slog.Uint64("limit", uint64(limit)))
		r.resolution = limit
	}

	for target, layers := range [3]int{DirectionalLayers, SpotLayers, PointLayers} {
		r.arrays[target] = r.createArray(Target(target), layers)
	}

	var err error
	r.sampler, err = device.CreateSampler(gpu.SamplerDescriptor{Label: "shadow comparison", Comparison: true})
	if err != nil {
		panic(fmt.Sprintf("shadow: failed to create comparison sampler: %v", err))
	}
	r.uniform, err = device.CreateBuffer(gpu.BufferDescriptor{
		Label: "shadow uniform",
		Size:  light.GPUShadowUniformSize,
		Usage: gpu.BufferUsageUniform | gpu.BufferUsageCopyDst,
	})
	if err != nil {
		panic(fmt.Sprintf("shadow: failed to create uniform buffer: %v", err))
	}
	r.staging, err = device.CreateBuffer(gpu.BufferDescriptor{
		Label: "shadow staging",
		Size:  MaxPasses * light.GPUShadowUniformSize,
		Usage: gpu.BufferUsageCopySrc | gpu.BufferUsageCopyDst,
	})
	if err != nil {
		panic(fmt.Sprintf("shadow: failed to create staging buffer: %v", err))
	}
	r.uniformLayout, err = device.CreateBindGroupLayout(gpu.BindGroupLayoutDescriptor{
		Label:   "shadow uniform",
		Entries: []gpu.BindGroupLayoutEntry{{Binding: 0, Visibility: gpu.ShaderStageVertex, Type: gpu.BindingTypeUniform}},
	})
	if err != nil {
		panic(fmt.Sprintf("shadow: failed to create uniform bind group layout: %v", err))
	}
	r.uniformGroup, err = device.CreateBindGroup(gpu.BindGroupDescriptor{
		Label:   "shadow uniform",
		Layout:  r.uniformLayout,
		Entries: []gpu.BindGroupEntry{{Binding: 0, Buffer: r.uniform}},
	})
	if err != nil {
		panic(fmt.Sprintf("shadow: failed to create uniform bind group: %v", err))
	}

	pp := shader.NewPreProcessor()
	src, err := shader.Load(shader.ProgramShadow, pp)
	if err != nil {
		panic(fmt.Sprintf("shadow: failed to load program: %v", err))
	}
	if groups := shader.GroupCount(pp.Declarations()); groups > 2 {
		panic(fmt.Sprintf("shadow: program declares %d bind groups, pipeline binds 2", groups))
	}
	r.pipeline, err = device.CreateRenderPipeline(gpu.RenderPipelineDescriptor{
		Label:               "shadow depth",
		ShaderSource:        src,
		VertexEntry:         shader.VertexEntry,
		Layouts:             []gpu.BindGroupLayout{r.uniformLayout, objectsLayout},
		VertexLayout:        gpu.VertexLayoutMesh,
		DepthFormat:         DepthFormat,
		DepthTest:           true,
		DepthWrite:          true,
		SampleCount:         1,
		CullMode:            gpu.CullModeNone,
		DepthBias:           r.depthBias,
		DepthBiasSlopeScale: r.depthBiasSlope,
	})
	if err != nil {
		panic(fmt.Sprintf("shadow: failed to create pipeline: %v", err))
	}
	return r
}

func (r *resources) createArray(target Target, layers int) depthArray {
	label := target.String() + " shadow maps"
	tex, err := r.device.CreateTexture(gpu.TextureDescriptor{
		Label:       label,
		Width:       r.resolution,
		Height:      r.resolution,
		Layers:      uint32(layers),
		SampleCount: 1,
		Format:      DepthFormat,
		Usage:       gpu.TextureUsageRenderAttachment | gpu.TextureUsageTextureBinding,
	})
	if err != nil {
		panic(fmt.Sprintf("shadow: failed to create %s: %v", label, err))
	}
	a := depthArray{texture: tex, layers: make([]gpu.TextureView, layers)}
	for i := range layers {
		a.layers[i], err = tex.CreateView(&gpu.TextureViewDescriptor{
			Label:      fmt.Sprintf("%s layer %d", label, i),
			BaseLayer:  uint32(i),
			LayerCount: 1,
		})
		if err != nil {
			panic(fmt.Sprintf("shadow: failed to create %s layer view: %v", label, err))
		}
	}
	a.array, err = tex.CreateView(&gpu.TextureViewDescriptor{Label: label, LayerCount: uint32(layers), Array: true})
	if err != nil {
		panic(fmt.Sprintf("shadow: failed to create %s array view: %v", label, err))
	}
	return a
}

func (r *resources) Render(enc gpu.CommandEncoder, prepared preparer.PreparedBatches, lights light.LightsData, meshes mesh.Library, objects gpu.BindGroup) {
	r.stats = Stats{}
	if prepared.Empty() {
		return
	}
	n := lights.ShadowCasters()
	if n == 0 {
		return
	}
	r.slots = appendPlan(r.slots[:0], lights)

	size := n * light.GPUShadowUniformSize
	if cap(r.scratch) < size {
		r.scratch = make([]byte, size, MaxPasses*light.GPUShadowUniformSize)
	}
	r.scratch = r.scratch[:size]
	for i, s := range r.slots {
		u := light.GPUShadowUniform{ViewProj: s.ViewProj}
		u.MarshalInto(r.scratch[i*light.GPUShadowUniformSize:])
	}
	r.device.WriteBuffer(r.staging, 0, r.scratch)

	clear(r.missing)
	opaque := prepared.Pass(batcher.PassOpaque)
	for i, s := range r.slots {
		enc.CopyBufferToBuffer(r.staging, uint64(i*light.GPUShadowUniformSize), r.uniform, 0, light.GPUShadowUniformSize)
		pass := enc.BeginRenderPass(gpu.RenderPassDescriptor{
			Label: fmt.Sprintf("shadow %s %d", s.Target, s.Layer),
			Depth: &gpu.DepthAttachment{
				View:       r.LayerView(s.Target, s.Layer),
				LoadOp:     gpu.LoadOpClear,
				StoreOp:    gpu.StoreOpStore,
				ClearDepth: 1,
			},
		})
		pass.SetPipeline(r.pipeline)
		pass.SetBindGroup(0, r.uniformGroup)
		pass.SetBindGroup(1, objects)
		r.drawBatches(pass, opaque, meshes, i == 0)
		pass.End()
		r.stats.Passes++
	}
}

// drawBatches draws the lit runs of batches. Skipped batches are counted and logged on the first pass only.
func (r *resources) drawBatches(pass gpu.RenderPassEncoder, batches []preparer.OrderedBatch, meshes mesh.Library, first bool) {
	for _, b := range batches {
		m, ok := meshes.Mesh(b.Key.Mesh)
		if !ok {
			if first {
				r.stats.SkippedBatches++
				if _, seen := r.missing[b.Key.Mesh]; !seen {
					r.missing[b.Key.Mesh] = struct{}{}
					r.logger.Debug("skipping batch with missing mesh", slog.Int("mesh", int(b.Key.Mesh)))
				}
			}
			continue
		}
		r.runs = AppendLitRuns(r.runs[:0], b.Instances)
		if len(r.runs) == 0 {
			continue
		}
		pass.SetVertexBuffer(0, m.VertexBuffer)
		pass.SetIndexBuffer(m.IndexBuffer, m.IndexFormat)
		for _, run := range r.runs {
			pass.DrawIndexed(m.IndexCount, uint32(run.Count), 0, 0, b.FirstInstance+uint32(run.Start))
			r.stats.Draws++
		}
	}
}

func (r *resources) DirectionalView() gpu.TextureView {
	return r.arrays[TargetDirectional].array
}

func (r *resources) SpotView() gpu.TextureView {
	return r.arrays[TargetSpot].array
}

func (r *resources) PointView() gpu.TextureView {
	return r.arrays[TargetPoint].array
}

func (r *resources) LayerView(target Target, layer int) gpu.TextureView {
	return r.arrays[target].layers[layer]
}

func (r *resources) Sampler() gpu.Sampler {
	return r.sampler
}

func (r *resources) Resolution() uint32 {
	return r.resolution
}

func (r *resources) Stats() Stats {
	return r.stats
}

func (r *resources) Release() {
	r.pipeline.Release()
	r.uniformGroup.Release()
	r.uniformLayout.Release()
	r.uniform.Release()
	r.staging.Release()
	r.sampler.Release()
	for _, a := range r.arrays {
		for _, v := range a.layers {
			v.Release()
		}
		a.array.Release()
		a.texture.Release()
	}
}
