// Package renderer composes a frame: it batches and orders the scene, uploads the per-frame buffers and records
// the shadow, depth prepass, opaque, composite, transparent and overlay passes into one command buffer.
package renderer

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/Carmen-Shannon/oxy-render/engine/camera"
	"github.com/Carmen-Shannon/oxy-render/engine/gpu"
	"github.com/Carmen-Shannon/oxy-render/engine/light"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer/batcher"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer/buffers"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer/mesh"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer/preparer"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer/shadow"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer/texture"
)

// DefaultClearColor is the color the main pass clears to before the background is drawn.
var DefaultClearColor = [4]float64{0, 0, 0, 1}

// renderer is the implementation of the Renderer interface.
type renderer struct {
	mu *sync.Mutex

	device  gpu.Device
	surface gpu.Surface
	meshes  mesh.Library
	logger  *slog.Logger

	// Construction config collected from builder options.
	msaa             MSAASampleCount
	maxTextures      uint32
	bindlessDisabled bool
	classicCacheSize int
	shadowResolution uint32
	shadowBias       int32
	shadowSlope      float32
	instanceCapacity int
	materialCapacity int
	clearColor       [4]float64
	textures         texture.Registry

	batcher   batcher.Batcher
	preparer  preparer.Preparer
	buffers   buffers.Manager
	pipelines pipeline.Cache
	shadows   shadow.Resources

	cameraBuffer     gpu.Buffer
	lightsBuffer     gpu.Buffer
	frameGroup       gpu.BindGroup
	compositeSampler gpu.Sampler
	targets          *frameTargets

	compositor Compositor
	builtin    *copyCompositor

	lightsScratch []byte
	runs          []pipeline.Run
	prepassed     []bool
	missing       map[mesh.Handle]struct{}
	stats         FrameStats
	frames        uint64
}

// Renderer draws one frame per Render call into its surface.
//
// Rendering is fire-and-forget: Render returns once the frame's command buffer is submitted and the surface
// texture presented. A Renderer is safe for concurrent use, but frames are recorded one at a time.
type Renderer interface {
	// Render draws objects lit by lights as seen from cam.
	//
	// The passes are recorded in this order: shadow maps, depth prepass, main opaque pass (background first),
	// post-process composite, transparent pass, overlay pass. Batches whose mesh is missing from the mesh
	// library are skipped with a warning.
	//
	// Parameters:
	//   - objects: the visible objects of the frame
	//   - lights: the frame lights; shadow projections must already be computed for casting lights
	//   - cam: the camera
	//
	// Returns:
	//   - error: a wrapped *gpu.SurfaceError when no surface texture could be acquired, in which case nothing is
	//     recorded; or an error when the frame's command buffer could not be built
	Render(objects []batcher.RenderObject, lights light.LightsData, cam camera.Camera) error

	// Resize reconfigures the surface and recreates the size-dependent frame targets.
	//
	// Parameters:
	//   - width: the new framebuffer width in pixels
	//   - height: the new framebuffer height in pixels
	//
	// Returns:
	//   - error: an error if the frame targets could not be recreated
	Resize(width, height uint32) error

	// Stats returns a copy of the statistics of the most recent frame.
	//
	// Returns:
	//   - FrameStats: the frame statistics
	Stats() FrameStats

	// SetCompositor replaces the post-process composite step. nil restores the built-in copy.
	//
	// Parameters:
	//   - c: the compositor
	SetCompositor(c Compositor)

	// Pipelines returns the pipeline cache, for compositors that need the frame layouts or sample count.
	//
	// Returns:
	//   - pipeline.Cache: the pipeline cache
	Pipelines() pipeline.Cache

	// Release frees every GPU resource owned by the renderer. The surface and meshes are not owned.
	Release()
}

var _ Renderer = &renderer{}

// NewRenderer creates a Renderer drawing into surface with meshes from the given library. Pipelines, shadow maps
// and per-frame buffers are created immediately; failures there are fatal and panic.
//
// Parameters:
//   - device: the GPU device
//   - surface: the presentation surface, already configured
//   - meshes: the library resolving mesh handles
//   - options: variadic list of RendererBuilderOption functions to configure the Renderer
//
// Returns:
//   - Renderer: the ready renderer
func NewRenderer(device gpu.Device, surface gpu.Surface, meshes mesh.Library, options ...RendererBuilderOption) Renderer {
	r := &renderer{
		mu:               &sync.Mutex{},
		device:           device,
		surface:          surface,
		meshes:           meshes,
		logger:           slog.Default(),
		msaa:             MSAA4x,
		maxTextures:      pipeline.DefaultMaxTextures,
		classicCacheSize: pipeline.DefaultClassicCacheSize,
		shadowResolution: light.DefaultShadowMapResolution,
		shadowBias:       shadow.DefaultDepthBias,
		shadowSlope:      shadow.DefaultDepthBiasSlopeScale,
		instanceCapacity: buffers.DefaultInstanceCapacity,
		materialCapacity: buffers.DefaultMaterialCapacity,
		clearColor:       DefaultClearColor,
		batcher:          batcher.NewBatcher(),
		missing:          make(map[mesh.Handle]struct{}),
	}
	for _, opt := range options {
		opt(r)
	}
	base := r.logger
	r.logger = r.logger.With(slog.String("component", "renderer"))

	r.buffers = buffers.NewManager(device,
		buffers.WithLogger(base),
		buffers.WithInitialInstanceCapacity(r.instanceCapacity),
		buffers.WithInitialMaterialCapacity(r.materialCapacity))
	r.pipelines = pipeline.NewCache(device,
		pipeline.WithLogger(base),
		pipeline.WithSampleCount(uint32(r.msaa)),
		pipeline.WithObjectsLayout(r.buffers.Layout()),
		pipeline.WithMaxTextures(r.maxTextures),
		pipeline.WithBindlessDisabled(r.bindlessDisabled),
		pipeline.WithClassicCacheSize(r.classicCacheSize))
	r.shadows = shadow.NewResources(device, r.buffers.Layout(),
		shadow.WithLogger(base),
		shadow.WithResolution(r.shadowResolution),
		shadow.WithDepthBias(r.shadowBias, r.shadowSlope))
	r.builtin = &copyCompositor{pipeline: r.pipelines.Composite()}
	if r.compositor == nil {
		r.compositor = r.builtin
	}

	var err error
	r.cameraBuffer, err = device.CreateBuffer(gpu.BufferDescriptor{
		Label: "camera",
		Size:  camera.GPUCameraUniformSize,
		Usage: gpu.BufferUsageUniform | gpu.BufferUsageCopyDst,
	})
	if err != nil {
		panic(fmt.Sprintf("renderer: failed to create camera buffer: %v", err))
	}
	r.lightsBuffer, err = device.CreateBuffer(gpu.BufferDescriptor{
		Label: "lights",
		Size:  light.GPULightsSize,
		Usage: gpu.BufferUsageUniform | gpu.BufferUsageCopyDst,
	})
	if err != nil {
		panic(fmt.Sprintf("renderer: failed to create lights buffer: %v", err))
	}
	r.frameGroup, err = device.CreateBindGroup(gpu.BindGroupDescriptor{
		Label:  "frame",
		Layout: r.pipelines.FrameLayout(),
		Entries: []gpu.BindGroupEntry{
			{Binding: pipeline.BindingCamera, Buffer: r.cameraBuffer},
			{Binding: pipeline.BindingLights, Buffer: r.lightsBuffer},
			{Binding: pipeline.BindingDirectionalShadows, TextureView: r.shadows.DirectionalView()},
			{Binding: pipeline.BindingSpotShadows, TextureView: r.shadows.SpotView()},
			{Binding: pipeline.BindingPointShadows, TextureView: r.shadows.PointView()},
			{Binding: pipeline.BindingShadowSampler, Sampler: r.shadows.Sampler()},
		},
	})
	if err != nil {
		panic(fmt.Sprintf("renderer: failed to create frame bind group: %v", err))
	}
	r.compositeSampler, err = device.CreateSampler(gpu.SamplerDescriptor{Label: "composite"})
	if err != nil {
		panic(fmt.Sprintf("renderer: failed to create composite sampler: %v", err))
	}
	width, height := surface.Size()
	if err := r.createTargets(width, height); err != nil {
		panic(fmt.Sprintf("renderer: failed to create frame targets: %v", err))
	}
	if err := r.pipelines.RefreshTextures(r.textures); err != nil {
		panic(fmt.Sprintf("renderer: failed to upload textures: %v", err))
	}

	r.logger.Info("renderer ready",
		slog.Uint64("msaa", uint64(r.msaa)),
		slog.String("texture_mode", r.pipelines.Textures().Mode.String()),
		slog.Uint64("shadow_resolution", uint64(r.shadows.Resolution())),
		slog.Uint64("width", uint64(width)),
		slog.Uint64("height", uint64(height)))
	return r
}

func (r *renderer) Render(objects []batcher.RenderObject, lights light.LightsData, cam camera.Camera) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	view, err := r.surface.Acquire()
	if err != nil {
		return fmt.Errorf("renderer: failed to acquire surface texture: %w", err)
	}

	stats := FrameStats{}
	r.batcher.Clear()
	for _, o := range objects {
		r.batcher.Add(o)
	}
	prepared := r.preparer.Prepare(r.batcher, cam.Position)
	if err := r.buffers.Update(prepared); err != nil {
		r.surface.Discard()
		return fmt.Errorf("renderer: failed to update object buffers: %w", err)
	}
	if err := r.pipelines.RefreshTextures(r.textures); err != nil {
		r.surface.Discard()
		return fmt.Errorf("renderer: failed to refresh textures: %w", err)
	}

	clamped, truncated := lights.Clamped()
	if truncated {
		r.logger.Warn("too many lights, extra lights ignored",
			slog.Int("directional", len(lights.Directional)),
			slog.Int("spot", len(lights.Spot)),
			slog.Int("point", len(lights.Point)))
	}
	gpuCam := cam.GPU()
	r.device.WriteBuffer(r.cameraBuffer, 0, gpuCam.Marshal())
	r.lightsScratch = light.MarshalLights(r.lightsScratch, clamped, r.shadows.Resolution())
	r.device.WriteBuffer(r.lightsBuffer, 0, r.lightsScratch)

	drawable, overflow := clipUploaded(prepared, r.buffers.Uploaded())
	stats.SkippedBatches = overflow + r.findMissing(drawable)

	enc, err := r.device.CreateCommandEncoder("frame")
	if err != nil {
		r.surface.Discard()
		return fmt.Errorf("renderer: failed to create command encoder: %w", err)
	}
	objectsGroup := r.buffers.BindGroup()

	r.shadows.Render(enc, drawable, clamped, r.meshes, objectsGroup)
	shadowStats := r.shadows.Stats()
	stats.ShadowPasses, stats.ShadowDraws = shadowStats.Passes, shadowStats.Draws

	stats.PrepassDraws = r.recordPrepass(enc, drawable, objectsGroup)
	stats.OpaqueDraws, stats.OpaqueBatches = r.recordOpaque(enc, drawable, objectsGroup)
	r.recordComposite(enc, view)
	stats.TransparentDraws, stats.TransparentBatches = r.recordBlended(enc, view, drawable, batcher.PassTransparent, objectsGroup)
	stats.OverlayDraws, stats.OverlayBatches = r.recordBlended(enc, view, drawable, batcher.PassOverlay, objectsGroup)

	cmd, err := enc.Finish()
	enc.Release()
	if err != nil {
		r.surface.Discard()
		return fmt.Errorf("renderer: failed to finish frame: %w", err)
	}
	r.device.Submit(cmd)
	r.surface.Present()
	cmd.Release()
	if r.pipelines.Textures().Mode == pipeline.TextureModeClassic {
		r.pipelines.Textures().Classic.ReleaseEvicted()
	}

	r.frames++
	stats.Frame = r.frames
	stats.Instances = r.buffers.Uploaded()
	stats.Materials = len(r.buffers.Materials())
	stats.BufferGrowths = r.buffers.Growths()
	r.stats = stats
	return nil
}

// clipUploaded drops the batches whose instances did not fit into the instance buffer. Overflow only ever cuts
// the tail of the flattened order, so the kept batches are a prefix.
func clipUploaded(p preparer.PreparedBatches, uploaded int) (preparer.PreparedBatches, int) {
	kept := len(p.Batches)
	for kept > 0 {
		last := p.Batches[kept-1]
		if int(last.FirstInstance)+len(last.Instances) <= uploaded {
			break
		}
		kept--
	}
	if kept == len(p.Batches) {
		return p, 0
	}
	clip := func(rg preparer.Range) preparer.Range {
		return preparer.Range{Start: min(rg.Start, kept), End: min(rg.End, kept)}
	}
	return preparer.PreparedBatches{
		Batches:     p.Batches[:kept],
		Opaque:      clip(p.Opaque),
		Transparent: clip(p.Transparent),
		Overlay:     clip(p.Overlay),
	}, len(p.Batches) - kept
}

// findMissing collects the batches whose mesh is unknown, warning once per handle per frame.
func (r *renderer) findMissing(p preparer.PreparedBatches) int {
	clear(r.missing)
	skipped := 0
	for _, b := range p.Batches {
		if _, ok := r.meshes.Mesh(b.Key.Mesh); ok {
			continue
		}
		skipped++
		if _, seen := r.missing[b.Key.Mesh]; !seen {
			r.missing[b.Key.Mesh] = struct{}{}
			r.logger.Warn("skipping batches with missing mesh",
				slog.Int("mesh", int(b.Key.Mesh)),
				slog.String("pass", b.Key.Pass.String()))
		}
	}
	return skipped
}

// prepassable reports whether an opaque batch is drawn by the depth prepass.
func prepassable(b preparer.OrderedBatch) bool {
	return !b.AlphaBlend && b.Key.Depth.Test && b.Key.Depth.Write
}

func (r *renderer) recordPrepass(enc gpu.CommandEncoder, p preparer.PreparedBatches, objects gpu.BindGroup) int {
	pass := enc.BeginRenderPass(gpu.RenderPassDescriptor{
		Label: "depth prepass",
		Depth: &gpu.DepthAttachment{View: r.targets.depthView, LoadOp: gpu.LoadOpClear, StoreOp: gpu.StoreOpStore, ClearDepth: 1},
	})
	defer pass.End()

	opaque := p.Pass(batcher.PassOpaque)
	r.prepassed = r.prepassed[:0]
	draws := 0
	for _, b := range opaque {
		m, ok := r.meshes.Mesh(b.Key.Mesh)
		ok = ok && prepassable(b)
		r.prepassed = append(r.prepassed, ok)
		if !ok {
			continue
		}
		if draws == 0 {
			pass.SetPipeline(r.pipelines.Prepass())
			pass.SetBindGroup(pipeline.GroupFrame, r.frameGroup)
			pass.SetBindGroup(pipeline.GroupObjects, objects)
		}
		pass.SetVertexBuffer(0, m.VertexBuffer)
		pass.SetIndexBuffer(m.IndexBuffer, m.IndexFormat)
		pass.DrawIndexed(m.IndexCount, b.InstanceCount(), 0, 0, b.FirstInstance)
		draws++
	}
	return draws
}

func (r *renderer) recordOpaque(enc gpu.CommandEncoder, p preparer.PreparedBatches, objects gpu.BindGroup) (int, int) {
	pass := enc.BeginRenderPass(gpu.RenderPassDescriptor{
		Label: "opaque",
		Color: r.targets.mainColor(r.clearColor),
		Depth: &gpu.DepthAttachment{View: r.targets.depthView, LoadOp: gpu.LoadOpLoad, StoreOp: gpu.StoreOpStore},
	})
	defer pass.End()

	pass.SetPipeline(r.pipelines.Background())
	pass.SetBindGroup(pipeline.GroupFrame, r.frameGroup)
	pass.Draw(3, 1, 0, 0)
	pass.SetBindGroup(pipeline.GroupObjects, objects)

	draws, batches := 0, 0
	for i, b := range p.Pass(batcher.PassOpaque) {
		key := r.keyOf(b)
		if i < len(r.prepassed) && r.prepassed[i] {
			key = pipeline.Key{DepthTest: true, DepthWrite: false, SampleCount: key.SampleCount}
		}
		if n, ok := r.drawBatch(pass, b, key); ok {
			draws += n
			batches++
		}
	}
	return draws, batches
}

func (r *renderer) recordComposite(enc gpu.CommandEncoder, surface gpu.TextureView) {
	pass := enc.BeginRenderPass(gpu.RenderPassDescriptor{
		Label: "composite",
		Color: &gpu.ColorAttachment{View: r.targets.frameColor(surface), LoadOp: gpu.LoadOpClear, StoreOp: gpu.StoreOpStore, ClearColor: r.clearColor},
	})
	r.compositor.Composite(pass, r.targets.composite)
	pass.End()
}

func (r *renderer) recordBlended(enc gpu.CommandEncoder, surface gpu.TextureView, p preparer.PreparedBatches, rp batcher.RenderPass, objects gpu.BindGroup) (int, int) {
	color := &gpu.ColorAttachment{View: r.targets.frameColor(surface), LoadOp: gpu.LoadOpLoad, StoreOp: gpu.StoreOpStore}
	if rp == batcher.PassOverlay && r.targets.multisampled() {
		color.ResolveTarget = surface
	}
	pass := enc.BeginRenderPass(gpu.RenderPassDescriptor{
		Label: rp.String(),
		Color: color,
		Depth: &gpu.DepthAttachment{View: r.targets.depthView, LoadOp: gpu.LoadOpLoad, StoreOp: gpu.StoreOpStore},
	})
	defer pass.End()

	pass.SetBindGroup(pipeline.GroupFrame, r.frameGroup)
	pass.SetBindGroup(pipeline.GroupObjects, objects)
	draws, batches := 0, 0
	for _, b := range p.Pass(rp) {
		if n, ok := r.drawBatch(pass, b, r.keyOf(b)); ok {
			draws += n
			batches++
		}
	}
	return draws, batches
}

func (r *renderer) keyOf(b preparer.OrderedBatch) pipeline.Key {
	return pipeline.Key{
		DepthTest:   b.Key.Depth.Test,
		DepthWrite:  b.Key.Depth.Write,
		AlphaBlend:  b.AlphaBlend,
		SampleCount: r.pipelines.SampleCount(),
	}
}

// drawBatch draws one batch with the main pipeline of key, binding textures the way the device supports. It
// reports false when the batch was skipped.
func (r *renderer) drawBatch(pass gpu.RenderPassEncoder, b preparer.OrderedBatch, key pipeline.Key) (int, bool) {
	m, ok := r.meshes.Mesh(b.Key.Mesh)
	if !ok {
		return 0, false
	}
	pass.SetPipeline(r.pipelines.Pipeline(key))
	pass.SetVertexBuffer(0, m.VertexBuffer)
	pass.SetIndexBuffer(m.IndexBuffer, m.IndexFormat)

	textures := r.pipelines.Textures()
	switch textures.Mode {
	case pipeline.TextureModeClassic:
		draws := 0
		r.runs = pipeline.AppendMaterialRuns(r.runs[:0], b.Instances)
		for _, run := range r.runs {
			group, err := textures.Classic.BindGroup(run.Material)
			if err != nil {
				r.logger.Warn("skipping instances without texture bind group", slog.Int("instances", run.Count), slog.Any("error", err))
				continue
			}
			pass.SetBindGroup(pipeline.GroupTextures, group)
			pass.DrawIndexed(m.IndexCount, uint32(run.Count), 0, 0, b.FirstInstance+uint32(run.Start))
			draws++
		}
		return draws, true
	default:
		pass.SetBindGroup(pipeline.GroupTextures, textures.Bindless.BindGroup())
		pass.DrawIndexed(m.IndexCount, b.InstanceCount(), 0, 0, b.FirstInstance)
		return 1, true
	}
}

func (r *renderer) Resize(width, height uint32) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	// The surface is reconfigured only once the new targets exist.
	if err := r.createTargets(width, height); err != nil {
		return fmt.Errorf("renderer: failed to resize to %dx%d: %w", width, height, err)
	}
	r.surface.Configure(width, height)
	r.logger.Debug("resized frame targets", slog.Uint64("width", uint64(width)), slog.Uint64("height", uint64(height)))
	return nil
}

func (r *renderer) Stats() FrameStats {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.stats
}

func (r *renderer) SetCompositor(c Compositor) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if c == nil {
		c = r.builtin
	}
	r.compositor = c
}

func (r *renderer) Pipelines() pipeline.Cache {
	return r.pipelines
}

func (r *renderer) Release() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.targets.release()
	r.compositeSampler.Release()
	r.frameGroup.Release()
	r.cameraBuffer.Release()
	r.lightsBuffer.Release()
	r.shadows.Release()
	r.pipelines.Release()
	r.buffers.Release()
}
