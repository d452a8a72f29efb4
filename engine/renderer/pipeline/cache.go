// Package pipeline builds every render pipeline a frame needs once at startup and serves them by key.
// It also owns the material texture binding strategy selected for the device.
package pipeline

import (
	"fmt"
	"log/slog"

	"github.com/Carmen-Shannon/oxy-render/engine/gpu"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer/shader"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer/texture"
)

// DepthFormat is the format of the frame depth buffer every main, prepass and background pipeline targets.
const DepthFormat = gpu.TextureFormatDepth24Plus

// Bind group indices shared by the bundled programs.
const (
	GroupFrame    = 0
	GroupObjects  = 1
	GroupTextures = 2
)

// Frame bind group bindings.
const (
	BindingCamera             = 0
	BindingLights             = 1
	BindingDirectionalShadows = 2
	BindingSpotShadows        = 3
	BindingPointShadows       = 4
	BindingShadowSampler      = 5
)

// Key selects one of the main pipelines.
type Key struct {
	DepthTest   bool
	DepthWrite  bool
	AlphaBlend  bool
	SampleCount uint32
}

// String returns a compact description of the key for labels and panics.
func (k Key) String() string {
	return fmt.Sprintf("test=%t write=%t blend=%t samples=%d", k.DepthTest, k.DepthWrite, k.AlphaBlend, k.SampleCount)
}

// cache is the implementation of the Cache interface.
type cache struct {
	device gpu.Device
	logger *slog.Logger

	sampleCount     uint32
	maxTextures     uint32
	bindless        bool
	classicCapacity int
	objectsLayout   gpu.BindGroupLayout

	frameLayout     gpu.BindGroupLayout
	textureLayout   gpu.BindGroupLayout
	compositeLayout gpu.BindGroupLayout

	main       map[Key]gpu.RenderPipeline
	prepass    gpu.RenderPipeline
	background gpu.RenderPipeline
	composite  gpu.RenderPipeline

	textures *TextureBinding
}

// Cache holds every render pipeline of the frame, built once at construction and read-only afterwards.
type Cache interface {
	// Pipeline returns the main pipeline for key. Every {DepthTest, DepthWrite, AlphaBlend} combination
	// exists at the configured sample count.
	//
	// Parameters:
	//   - key: the pipeline key
	//
	// Returns:
	//   - gpu.RenderPipeline: the pipeline; a key that was never built panics
	Pipeline(key Key) gpu.RenderPipeline

	// Prepass returns the depth-only pipeline of the depth prepass.
	//
	// Returns:
	//   - gpu.RenderPipeline: the prepass pipeline
	Prepass() gpu.RenderPipeline

	// Background returns the fullscreen pipeline drawn first in the main color pass.
	//
	// Returns:
	//   - gpu.RenderPipeline: the background pipeline
	Background() gpu.RenderPipeline

	// Composite returns the fullscreen pipeline of the built-in post-process composite.
	//
	// Returns:
	//   - gpu.RenderPipeline: the composite pipeline
	Composite() gpu.RenderPipeline

	// SampleCount returns the multisample count every frame pipeline was built with.
	//
	// Returns:
	//   - uint32: the sample count
	SampleCount() uint32

	// FrameLayout returns the layout of group 0: camera, lights, shadow maps and the shadow sampler.
	//
	// Returns:
	//   - gpu.BindGroupLayout: the frame bind group layout
	FrameLayout() gpu.BindGroupLayout

	// CompositeLayout returns the layout of the composite pipeline's only group: scene color and sampler.
	//
	// Returns:
	//   - gpu.BindGroupLayout: the composite bind group layout
	CompositeLayout() gpu.BindGroupLayout

	// Textures returns the texture binding strategy chosen at construction.
	//
	// Returns:
	//   - *TextureBinding: the texture binding
	Textures() *TextureBinding

	// RefreshTextures brings the texture binding up to date with registry. It is a no-op when the
	// registry version has not changed since the last refresh.
	//
	// Parameters:
	//   - registry: the texture registry, or nil when no textures are used
	//
	// Returns:
	//   - error: error if GPU resources could not be created
	RefreshTextures(registry texture.Registry) error

	// Release frees every pipeline, layout and texture resource owned by the cache.
	Release()
}

var _ Cache = &cache{}

// NewCache compiles every pipeline of the frame. Compilation failures panic; they indicate a broken
// build rather than a runtime condition.
//
// Parameters:
//   - device: the GPU device
//   - options: variadic list of CacheBuilderOption functions to configure the cache
//
// Returns:
//   - Cache: the ready cache
func NewCache(device gpu.Device, options ...CacheBuilderOption) Cache {
	c := &cache{
		device:          device,
		logger:          slog.Default(),
		sampleCount:     1,
		maxTextures:     DefaultMaxTextures,
		bindless:        true,
		classicCapacity: DefaultClassicCacheSize,
		main:            make(map[Key]gpu.RenderPipeline, 8),
	}
	for _, opt := range options {
		opt(c)
	}
	c.logger = c.logger.With(slog.String("component", "pipeline"))
	if c.objectsLayout == nil {
		panic("pipeline: an objects bind group layout is required (WithObjectsLayout)")
	}

	mode := TextureModeClassic
	if c.bindless {
		mode = ProbeTextureMode(device.Limits(), c.maxTextures)
	}
	c.logger.Info("selected texture binding mode",
		slog.String("mode", mode.String()),
		slog.Uint64("max_array_layers", uint64(device.Limits().MaxTextureArrayLayers)),
		slog.Uint64("max_textures", uint64(c.maxTextures)))

	c.frameLayout = c.createLayout("frame", []gpu.BindGroupLayoutEntry{
		{Binding: BindingCamera, Visibility: gpu.ShaderStageVertex | gpu.ShaderStageFragment, Type: gpu.BindingTypeUniform},
		{Binding: BindingLights, Visibility: gpu.ShaderStageFragment, Type: gpu.BindingTypeUniform},
		{Binding: BindingDirectionalShadows, Visibility: gpu.ShaderStageFragment, Type: gpu.BindingTypeDepthTexture2DArray},
		{Binding: BindingSpotShadows, Visibility: gpu.ShaderStageFragment, Type: gpu.BindingTypeDepthTexture2DArray},
		{Binding: BindingPointShadows, Visibility: gpu.ShaderStageFragment, Type: gpu.BindingTypeDepthTexture2DArray},
		{Binding: BindingShadowSampler, Visibility: gpu.ShaderStageFragment, Type: gpu.BindingTypeComparisonSampler},
	})
	c.compositeLayout = c.createLayout("composite", []gpu.BindGroupLayoutEntry{
		{Binding: 0, Visibility: gpu.ShaderStageFragment, Type: gpu.BindingTypeTexture2D},
		{Binding: 1, Visibility: gpu.ShaderStageFragment, Type: gpu.BindingTypeFilteringSampler},
	})
	c.textureLayout = c.createLayout("textures "+mode.String(), textureLayoutEntries(mode))
	c.textures = newTextureBinding(device, mode, c.textureLayout, c.classicCapacity, c.logger)

	pp := shader.NewPreProcessor(shader.WithTextureLayout(mode.shaderLayout()))
	meshSource := c.load(shader.ProgramMesh, pp, 3)
	for _, test := range []bool{false, true} {
		for _, write := range []bool{false, true} {
			for _, blend := range []bool{false, true} {
				key := Key{DepthTest: test, DepthWrite: write, AlphaBlend: blend, SampleCount: c.sampleCount}
				c.main[key] = c.createPipeline(gpu.RenderPipelineDescriptor{
					Label:         "mesh " + key.String(),
					ShaderSource:  meshSource,
					VertexEntry:   shader.VertexEntry,
					FragmentEntry: shader.FragmentEntry,
					Layouts:       []gpu.BindGroupLayout{c.frameLayout, c.objectsLayout, c.textureLayout},
					VertexLayout:  gpu.VertexLayoutMesh,
					ColorFormat:   gpu.TextureFormatSurface,
					DepthFormat:   DepthFormat,
					DepthTest:     test,
					DepthWrite:    write,
					AlphaBlend:    blend,
					SampleCount:   c.sampleCount,
					CullMode:      gpu.CullModeNone,
				})
			}
		}
	}

	c.prepass = c.createPipeline(gpu.RenderPipelineDescriptor{
		Label:        "depth prepass",
		ShaderSource: c.load(shader.ProgramPrepass, pp, 2),
		VertexEntry:  shader.VertexEntry,
		Layouts:      []gpu.BindGroupLayout{c.frameLayout, c.objectsLayout},
		VertexLayout: gpu.VertexLayoutMesh,
		DepthFormat:  DepthFormat,
		DepthTest:    true,
		DepthWrite:   true,
		SampleCount:  c.sampleCount,
		CullMode:     gpu.CullModeNone,
	})
	c.background = c.createPipeline(gpu.RenderPipelineDescriptor{
		Label:         "background",
		ShaderSource:  c.load(shader.ProgramBackground, pp, 1),
		VertexEntry:   shader.VertexEntry,
		FragmentEntry: shader.FragmentEntry,
		Layouts:       []gpu.BindGroupLayout{c.frameLayout},
		VertexLayout:  gpu.VertexLayoutNone,
		ColorFormat:   gpu.TextureFormatSurface,
		DepthFormat:   DepthFormat,
		SampleCount:   c.sampleCount,
	})
	c.composite = c.createPipeline(gpu.RenderPipelineDescriptor{
		Label:         "composite",
		ShaderSource:  c.load(shader.ProgramComposite, pp, 1),
		VertexEntry:   shader.VertexEntry,
		FragmentEntry: shader.FragmentEntry,
		Layouts:       []gpu.BindGroupLayout{c.compositeLayout},
		VertexLayout:  gpu.VertexLayoutNone,
		ColorFormat:   gpu.TextureFormatSurface,
		SampleCount:   c.sampleCount,
	})
	return c
}

// load pre-processes a bundled program and checks it declares no more groups than its pipelines bind.
func (c *cache) load(program shader.Program, pp shader.PreProcessor, groups int) string {
	src, err := shader.Load(program, pp)
	if err != nil {
		panic(fmt.Sprintf("pipeline: failed to load program: %v", err))
	}
	if declared := shader.GroupCount(pp.Declarations()); declared > groups {
		panic(fmt.Sprintf("pipeline: program %q declares %d bind groups, pipelines bind %d", program, declared, groups))
	}
	return src
}

func (c *cache) createLayout(label string, entries []gpu.BindGroupLayoutEntry) gpu.BindGroupLayout {
	layout, err := c.device.CreateBindGroupLayout(gpu.BindGroupLayoutDescriptor{Label: label, Entries: entries})
	if err != nil {
		panic(fmt.Sprintf("pipeline: failed to create %s bind group layout: %v", label, err))
	}
	return layout
}

func (c *cache) createPipeline(desc gpu.RenderPipelineDescriptor) gpu.RenderPipeline {
	p, err := c.device.CreateRenderPipeline(desc)
	if err != nil {
		panic(fmt.Sprintf("pipeline: failed to create pipeline %q: %v", desc.Label, err))
	}
	return p
}

func (c *cache) Pipeline(key Key) gpu.RenderPipeline {
	p, ok := c.main[key]
	if !ok {
		panic(fmt.Sprintf("pipeline: no pipeline for key {%s}; the cache was built for %d samples", key, c.sampleCount))
	}
	return p
}

func (c *cache) Prepass() gpu.RenderPipeline {
	return c.prepass
}

func (c *cache) Background() gpu.RenderPipeline {
	return c.background
}

func (c *cache) Composite() gpu.RenderPipeline {
	return c.composite
}

func (c *cache) SampleCount() uint32 {
	return c.sampleCount
}

func (c *cache) FrameLayout() gpu.BindGroupLayout {
	return c.frameLayout
}

func (c *cache) CompositeLayout() gpu.BindGroupLayout {
	return c.compositeLayout
}

func (c *cache) Textures() *TextureBinding {
	return c.textures
}

func (c *cache) RefreshTextures(registry texture.Registry) error {
	return c.textures.Refresh(registry)
}

func (c *cache) Release() {
	for key, p := range c.main {
		p.Release()
		delete(c.main, key)
	}
	for _, p := range []gpu.RenderPipeline{c.prepass, c.background, c.composite} {
		if p != nil {
			p.Release()
		}
	}
	c.textures.Release()
	c.frameLayout.Release()
	c.textureLayout.Release()
	c.compositeLayout.Release()
}
