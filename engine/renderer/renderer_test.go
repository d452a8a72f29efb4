package renderer

import (
	"errors"
	"testing"

	"github.com/Carmen-Shannon/oxy-render/engine/camera"
	"github.com/Carmen-Shannon/oxy-render/engine/gpu"
	"github.com/Carmen-Shannon/oxy-render/engine/gpu/gputest"
	"github.com/Carmen-Shannon/oxy-render/engine/light"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer/batcher"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer/material"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer/mesh"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	dev     *gputest.Device
	surface *gputest.Surface
	meshes  mesh.Registry
	cube    mesh.Handle
	r       Renderer
}

func newFixture(t *testing.T, limits *gpu.Limits, options ...RendererBuilderOption) *fixture {
	t.Helper()
	dev := gputest.NewDevice()
	if limits != nil {
		dev.SetLimits(*limits)
	}
	surface := gputest.NewSurface(dev, 800, 600)
	meshes := mesh.NewRegistry(dev)
	vertices, indices := mesh.Cube()
	cube, err := meshes.Upload("cube", vertices, indices)
	require.NoError(t, err)

	r := NewRenderer(dev, surface, meshes, options...)
	t.Cleanup(r.Release)
	dev.Reset()
	return &fixture{dev: dev, surface: surface, meshes: meshes, cube: cube, r: r}
}

func (f *fixture) object(m material.Material, x float32) batcher.RenderObject {
	return batcher.RenderObject{Mesh: f.cube, Material: m, Transform: mgl32.Translate3D(x, 0, -5), Depth: batcher.DefaultDepth}
}

func (f *fixture) scene() []batcher.RenderObject {
	overlay := f.object(material.New(), 0)
	overlay.ForceOverlay = true
	overlay.Depth = batcher.DepthState{}
	return []batcher.RenderObject{
		f.object(material.New(), -1),
		f.object(material.New(), 1),
		f.object(material.New(material.WithAlphaBlend(true)), 0),
		overlay,
	}
}

func sun() light.LightsData {
	lights := light.LightsData{Directional: []light.DirectionalLight{light.NewDirectional(light.WithCastsShadows(true))}}
	lights.ComputeShadows(mgl32.Vec3{}, light.DefaultShadowFit())
	return lights
}

func pipelineLabels(p gputest.PassRecord) []string {
	var out []string
	for _, op := range p.Ops {
		if op.Kind == gputest.OpSetPipeline {
			out = append(out, op.Label)
		}
	}
	return out
}

func TestRenderRecordsPassesInOrder(t *testing.T) {
	f := newFixture(t, nil)

	require.NoError(t, f.r.Render(f.scene(), sun(), camera.New()))

	assert.Equal(t, []string{
		"shadow directional 0",
		"depth prepass",
		"opaque",
		"composite",
		"transparent",
		"overlay",
	}, f.dev.PassLabels())

	var kinds []gputest.OpKind
	for _, op := range f.dev.OpsOfKind(gputest.OpAcquire, gputest.OpFinish, gputest.OpSubmit, gputest.OpPresent) {
		kinds = append(kinds, op.Kind)
	}
	assert.Equal(t, []gputest.OpKind{gputest.OpAcquire, gputest.OpFinish, gputest.OpSubmit, gputest.OpPresent}, kinds)

	assert.Equal(t, FrameStats{
		Frame:              1,
		ShadowPasses:       1,
		ShadowDraws:        1,
		PrepassDraws:       1,
		OpaqueDraws:        1,
		TransparentDraws:   1,
		OverlayDraws:       1,
		OpaqueBatches:      1,
		TransparentBatches: 1,
		OverlayBatches:     1,
		Instances:          4,
		Materials:          2,
	}, f.r.Stats())
	assert.Equal(t, 6, f.r.Stats().DrawCalls())
	assert.Equal(t, 3, f.r.Stats().Batches())
}

func TestRenderAttachmentsWithMSAA(t *testing.T) {
	f := newFixture(t, nil, WithMSAA(MSAA4x))
	require.NoError(t, f.r.Render(f.scene(), light.LightsData{}, camera.New()))

	surface := f.surface.Views()[0]
	passes := f.dev.Passes()
	require.Len(t, passes, 5)
	prepass, opaque, composite, transparent, overlay := passes[0], passes[1], passes[2], passes[3], passes[4]

	assert.Nil(t, prepass.Desc.Color)
	assert.Equal(t, gpu.LoadOpClear, prepass.Desc.Depth.LoadOp)
	assert.Equal(t, gpu.LoadOpLoad, opaque.Desc.Depth.LoadOp)
	assert.Same(t, prepass.Desc.Depth.View, opaque.Desc.Depth.View)

	msaa := opaque.Desc.Color.View.(*gputest.TextureView)
	assert.Equal(t, uint32(4), msaa.Texture.Desc.SampleCount)
	scene := opaque.Desc.Color.ResolveTarget.(*gputest.TextureView)
	assert.Equal(t, "scene color", scene.Texture.Desc.Label)

	assert.Nil(t, composite.Desc.Depth)
	assert.Same(t, msaa, composite.Desc.Color.View)
	assert.Equal(t, []string{"composite"}, pipelineLabels(composite))

	assert.Same(t, msaa, transparent.Desc.Color.View)
	assert.Equal(t, gpu.LoadOpLoad, transparent.Desc.Color.LoadOp)
	assert.Nil(t, transparent.Desc.Color.ResolveTarget)
	assert.Same(t, surface, overlay.Desc.Color.ResolveTarget)
}

func TestRenderAttachmentsWithoutMSAA(t *testing.T) {
	f := newFixture(t, nil, WithMSAA(MSAAOff))
	require.NoError(t, f.r.Render(f.scene(), light.LightsData{}, camera.New()))

	surface := f.surface.Views()[0]
	passes := f.dev.Passes()
	require.Len(t, passes, 5)
	assert.Equal(t, "scene color", passes[1].Desc.Color.View.(*gputest.TextureView).Texture.Desc.Label)
	assert.Nil(t, passes[1].Desc.Color.ResolveTarget)
	for _, p := range passes[2:] {
		assert.Same(t, surface, p.Desc.Color.View, p.Label)
		assert.Nil(t, p.Desc.Color.ResolveTarget, p.Label)
	}
	assert.Equal(t, uint32(1), f.r.Pipelines().SampleCount())
}

func TestOpaquePassDrawsBackgroundFirst(t *testing.T) {
	f := newFixture(t, nil)
	require.NoError(t, f.r.Render(f.scene(), light.LightsData{}, camera.New()))

	opaque := f.dev.Passes()[1]
	require.Equal(t, "opaque", opaque.Label)
	draws := opaque.Draws()
	require.Len(t, draws, 2)
	assert.Equal(t, gputest.OpDraw, draws[0].Kind)
	assert.Equal(t, uint32(3), draws[0].VertexCount)
	assert.Equal(t, "background", pipelineLabels(opaque)[0])
}

func TestPrepassedBatchesSkipDepthWrites(t *testing.T) {
	f := newFixture(t, nil)
	noDepth := f.object(material.New(), 3)
	noDepth.Depth = batcher.DepthState{}

	require.NoError(t, f.r.Render([]batcher.RenderObject{f.object(material.New(), 0), noDepth}, light.LightsData{}, camera.New()))

	passes := f.dev.Passes()
	require.Len(t, passes, 5)
	prepass := passes[0]
	assert.Equal(t, []string{"depth prepass"}, pipelineLabels(prepass))
	assert.Len(t, prepass.Draws(), 1)

	assert.ElementsMatch(t, []string{
		"background",
		"mesh test=true write=false blend=false samples=4",
		"mesh test=false write=false blend=false samples=4",
	}, pipelineLabels(passes[1]))
	assert.Equal(t, 1, f.r.Stats().PrepassDraws)
	assert.Equal(t, 2, f.r.Stats().OpaqueDraws)
}

func TestSurfaceErrorRecordsNothing(t *testing.T) {
	f := newFixture(t, nil)
	f.surface.AcquireErr = gpu.NewSurfaceError(gpu.SurfaceStatusOutdated, nil)

	err := f.r.Render(f.scene(), sun(), camera.New())
	require.Error(t, err)
	assert.True(t, errors.Is(err, gpu.ErrSurfaceOutdated))
	assert.False(t, errors.Is(err, gpu.ErrOutOfMemory))
	var surfaceErr *gpu.SurfaceError
	require.ErrorAs(t, err, &surfaceErr)
	assert.True(t, surfaceErr.NeedsReconfigure())

	assert.Empty(t, f.dev.OpsOfKind(gputest.OpWriteBuffer, gputest.OpBeginRenderPass, gputest.OpSubmit))
	assert.Zero(t, f.surface.Presented)
	assert.Zero(t, f.r.Stats().Frame)

	require.NoError(t, f.r.Render(f.scene(), sun(), camera.New()))
	assert.Equal(t, uint64(1), f.r.Stats().Frame)
}

func TestFinishFailureDiscardsFrame(t *testing.T) {
	f := newFixture(t, nil)
	f.dev.FailFinish = true

	err := f.r.Render(f.scene(), light.LightsData{}, camera.New())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "renderer: failed to finish frame")
	assert.Empty(t, f.dev.OpsOfKind(gputest.OpSubmit))
	assert.Equal(t, 1, f.surface.Discarded)
	assert.Zero(t, f.surface.Presented)
}

func TestMissingMeshIsSkipped(t *testing.T) {
	f := newFixture(t, nil)
	ghost := f.object(material.New(), 2)
	ghost.Mesh = f.cube + 100

	require.NoError(t, f.r.Render([]batcher.RenderObject{f.object(material.New(), 0), ghost}, sun(), camera.New()))

	stats := f.r.Stats()
	assert.Equal(t, 1, stats.SkippedBatches)
	assert.Equal(t, 1, stats.OpaqueBatches)
	assert.Equal(t, 1, stats.OpaqueDraws)
	assert.Equal(t, 1, stats.PrepassDraws)
	assert.Equal(t, 1, stats.ShadowDraws)
	assert.Equal(t, 2, stats.Instances)
}

func TestBatchesBeyondUploadedInstancesAreClipped(t *testing.T) {
	f := newFixture(t, &gpu.Limits{
		MaxTextureArrayLayers: 256,
		MaxTextureDimension2D: 8192,
		MaxBufferSize:         2 * 80,
	})
	objects := []batcher.RenderObject{
		f.object(material.New(), -1),
		f.object(material.New(), 1),
		f.object(material.New(material.WithAlphaBlend(true)), 0),
	}

	require.NoError(t, f.r.Render(objects, light.LightsData{}, camera.New()))

	stats := f.r.Stats()
	assert.Equal(t, 2, stats.Instances)
	assert.Equal(t, 1, stats.SkippedBatches)
	assert.Equal(t, 1, stats.OpaqueBatches)
	assert.Zero(t, stats.TransparentBatches)
	assert.Empty(t, f.dev.Passes()[3].Draws())
}

func TestClassicBindingSplitsMaterialRuns(t *testing.T) {
	f := newFixture(t, nil, WithBindlessDisabled(true))
	require.Equal(t, "classic", f.r.Pipelines().Textures().Mode.String())
	red := material.New(material.WithBaseColor([4]float32{1, 0, 0, 1}))
	blue := material.New(material.WithBaseColor([4]float32{0, 0, 1, 1}))

	objects := []batcher.RenderObject{f.object(red, 1), f.object(blue, 2), f.object(red, 3)}
	require.NoError(t, f.r.Render(objects, light.LightsData{}, camera.New()))

	opaque := f.dev.Passes()[1]
	var meshDraws []gputest.Op
	for _, d := range opaque.Draws() {
		if d.Kind == gputest.OpDrawIndexed {
			meshDraws = append(meshDraws, d)
		}
	}
	require.Len(t, meshDraws, 3)
	var firsts []uint32
	for _, d := range meshDraws {
		assert.Equal(t, uint32(1), d.InstanceCount)
		firsts = append(firsts, d.FirstInstance)
	}
	assert.ElementsMatch(t, []uint32{0, 1, 2}, firsts)
	assert.Equal(t, 2, f.r.Pipelines().Textures().Classic.Len())

	var textureGroups int
	for _, op := range opaque.Ops {
		if op.Kind == gputest.OpSetBindGroup && op.Index == 2 {
			textureGroups++
		}
	}
	assert.Equal(t, 3, textureGroups)
}

func TestResizeRecreatesTargets(t *testing.T) {
	f := newFixture(t, nil)
	require.NoError(t, f.r.Render(f.scene(), light.LightsData{}, camera.New()))
	oldDepth := f.dev.Passes()[0].Desc.Depth.View.(*gputest.TextureView)

	require.NoError(t, f.r.Resize(640, 480))
	assert.Equal(t, 1, f.surface.Configured)
	assert.True(t, oldDepth.Released)
	assert.True(t, oldDepth.Texture.Released)

	f.dev.Reset()
	require.NoError(t, f.r.Render(f.scene(), light.LightsData{}, camera.New()))
	depth := f.dev.Passes()[0].Desc.Depth.View.(*gputest.TextureView)
	assert.Equal(t, uint32(640), depth.Texture.Desc.Width)
	assert.Equal(t, uint32(480), depth.Texture.Desc.Height)
}

func TestResizeFailureKeepsSurfaceAndTargets(t *testing.T) {
	f := newFixture(t, nil)
	require.NoError(t, f.r.Render(f.scene(), light.LightsData{}, camera.New()))
	oldDepth := f.dev.Passes()[0].Desc.Depth.View.(*gputest.TextureView)

	f.dev.FailCreateTexture = true
	err := f.r.Resize(640, 480)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "renderer: failed to resize to 640x480")
	assert.Zero(t, f.surface.Configured)
	width, height := f.surface.Size()
	assert.Equal(t, uint32(800), width)
	assert.Equal(t, uint32(600), height)
	assert.False(t, oldDepth.Released)
	assert.False(t, oldDepth.Texture.Released)

	f.dev.FailCreateTexture = false
	f.dev.Reset()
	require.NoError(t, f.r.Render(f.scene(), light.LightsData{}, camera.New()))
	depth := f.dev.Passes()[0].Desc.Depth.View.(*gputest.TextureView)
	assert.Same(t, oldDepth, depth)
	assert.Equal(t, uint32(800), depth.Texture.Desc.Width)
}

type recordingCompositor struct {
	calls int
	scene gpu.BindGroup
}

func (c *recordingCompositor) Composite(pass gpu.RenderPassEncoder, scene gpu.BindGroup) {
	c.calls++
	c.scene = scene
}

func TestSetCompositor(t *testing.T) {
	f := newFixture(t, nil)
	custom := &recordingCompositor{}
	f.r.SetCompositor(custom)

	require.NoError(t, f.r.Render(f.scene(), light.LightsData{}, camera.New()))
	assert.Equal(t, 1, custom.calls)
	assert.Equal(t, "composite", custom.scene.(*gputest.BindGroup).Desc.Label)
	assert.Empty(t, pipelineLabels(f.dev.Passes()[2]))

	f.r.SetCompositor(nil)
	f.dev.Reset()
	require.NoError(t, f.r.Render(f.scene(), light.LightsData{}, camera.New()))
	assert.Equal(t, 1, custom.calls)
	assert.Equal(t, []string{"composite"}, pipelineLabels(f.dev.Passes()[2]))
}

func TestWithCompositorOption(t *testing.T) {
	custom := &recordingCompositor{}
	f := newFixture(t, nil, WithCompositor(custom))
	require.NoError(t, f.r.Render(nil, light.LightsData{}, camera.New()))
	assert.Equal(t, 1, custom.calls)
}

func TestEmptyFrameStillPresents(t *testing.T) {
	f := newFixture(t, nil)
	require.NoError(t, f.r.Render(nil, sun(), camera.New()))

	assert.Equal(t, []string{"depth prepass", "opaque", "composite", "transparent", "overlay"}, f.dev.PassLabels())
	assert.Equal(t, 1, f.surface.Presented)
	assert.Zero(t, f.r.Stats().DrawCalls())
}

func TestTooManyLightsAreClamped(t *testing.T) {
	f := newFixture(t, nil)
	var lights light.LightsData
	for range light.MaxDirectionalLights + 2 {
		lights.Directional = append(lights.Directional, light.NewDirectional(light.WithCastsShadows(true)))
	}
	lights.ComputeShadows(mgl32.Vec3{}, light.DefaultShadowFit())

	require.NoError(t, f.r.Render(f.scene(), lights, camera.New()))
	assert.Equal(t, light.MaxDirectionalLights, f.r.Stats().ShadowPasses)
}
