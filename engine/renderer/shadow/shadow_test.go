package shadow

import (
	"testing"

	"github.com/Carmen-Shannon/oxy-render/common"
	"github.com/Carmen-Shannon/oxy-render/engine/gpu"
	"github.com/Carmen-Shannon/oxy-render/engine/gpu/gputest"
	"github.com/Carmen-Shannon/oxy-render/engine/light"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer/batcher"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer/material"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer/mesh"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer/preparer"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	dev     *gputest.Device
	res     Resources
	meshes  mesh.Registry
	cube    mesh.Handle
	objects gpu.BindGroup
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	dev := gputest.NewDevice()
	meshes := mesh.NewRegistry(dev)
	vertices, indices := mesh.Cube()
	cube, err := meshes.Upload("cube", vertices, indices)
	require.NoError(t, err)
	objects, err := dev.CreateBindGroup(gpu.BindGroupDescriptor{Label: "objects"})
	require.NoError(t, err)

	res := NewResources(dev, &gputest.BindGroupLayout{}, WithResolution(512))
	t.Cleanup(res.Release)
	return &fixture{dev: dev, res: res, meshes: meshes, cube: cube, objects: objects}
}

func (f *fixture) prepare(objects ...batcher.RenderObject) preparer.PreparedBatches {
	b := batcher.NewBatcher()
	for _, o := range objects {
		b.Add(o)
	}
	return preparer.Prepare(b, mgl32.Vec3{})
}

func (f *fixture) object(h mesh.Handle, m material.Material, x float32) batcher.RenderObject {
	return batcher.RenderObject{Mesh: h, Material: m, Transform: mgl32.Translate3D(x, 0, 0), Depth: batcher.DefaultDepth}
}

func (f *fixture) render(t *testing.T, prepared preparer.PreparedBatches, lights light.LightsData) {
	t.Helper()
	enc, err := f.dev.CreateCommandEncoder("frame")
	require.NoError(t, err)
	f.dev.Reset()
	f.res.Render(enc, prepared, lights, f.meshes, f.objects)
}

func castingLights(directional, disabled int) light.LightsData {
	var d light.LightsData
	for range directional {
		d.Directional = append(d.Directional, light.NewDirectional(light.WithCastsShadows(true)))
	}
	for range disabled {
		d.Directional = append(d.Directional, light.NewDirectional())
	}
	d.ComputeShadows(mgl32.Vec3{}, light.DefaultShadowFit())
	return d
}

func TestRenderStagesOnlyEnabledLights(t *testing.T) {
	f := newFixture(t)
	lights := light.LightsData{Directional: []light.DirectionalLight{
		light.NewDirectional(light.WithCastsShadows(true)),
		light.NewDirectional(),
		light.NewDirectional(light.WithCastsShadows(true), light.WithDirection(1, -1, 0)),
	}}
	lights.ComputeShadows(mgl32.Vec3{}, light.DefaultShadowFit())
	prepared := f.prepare(f.object(f.cube, material.New(), 0))

	f.render(t, prepared, lights)

	writes := f.dev.OpsOfKind(gputest.OpWriteBuffer)
	require.Len(t, writes, 1)
	assert.Equal(t, "shadow staging", writes[0].Label)
	assert.Zero(t, writes[0].Offset)
	require.Len(t, writes[0].Data, 2*light.GPUShadowUniformSize)

	first := make([]byte, light.GPUShadowUniformSize)
	common.PutMat4(first, lights.Directional[0].Shadow.ViewProj[0])
	assert.Equal(t, first, writes[0].Data[:light.GPUShadowUniformSize])
	second := make([]byte, light.GPUShadowUniformSize)
	common.PutMat4(second, lights.Directional[2].Shadow.ViewProj[0])
	assert.Equal(t, second, writes[0].Data[light.GPUShadowUniformSize:])

	copies := f.dev.OpsOfKind(gputest.OpCopyBufferToBuffer)
	require.Len(t, copies, 2)
	for i, c := range copies {
		assert.Equal(t, uint64(i*light.GPUShadowUniformSize), c.SrcOffset)
		assert.Equal(t, "shadow uniform", c.Dst.Label())
		assert.Equal(t, uint64(light.GPUShadowUniformSize), c.Size)
	}

	passes := f.dev.Passes()
	require.Len(t, passes, 2)
	assert.Equal(t, "shadow directional 0", passes[0].Label)
	assert.Equal(t, "shadow directional 2", passes[1].Label)
	for _, p := range passes {
		assert.Nil(t, p.Desc.Color)
		require.NotNil(t, p.Desc.Depth)
		assert.Equal(t, gpu.LoadOpClear, p.Desc.Depth.LoadOp)
		assert.Equal(t, float32(1), p.Desc.Depth.ClearDepth)
		assert.Len(t, p.Draws(), 1)
	}
	assert.Same(t, f.res.LayerView(TargetDirectional, 2), passes[1].Desc.Depth.View)
	assert.Equal(t, Stats{Passes: 2, Draws: 2}, f.res.Stats())
}

func TestCopiesPrecedeTheirPass(t *testing.T) {
	f := newFixture(t)
	f.render(t, f.prepare(f.object(f.cube, material.New(), 0)), castingLights(2, 0))

	var kinds []gputest.OpKind
	for _, op := range f.dev.OpsOfKind(gputest.OpCopyBufferToBuffer, gputest.OpBeginRenderPass, gputest.OpEndPass) {
		kinds = append(kinds, op.Kind)
	}
	assert.Equal(t, []gputest.OpKind{
		gputest.OpCopyBufferToBuffer, gputest.OpBeginRenderPass, gputest.OpEndPass,
		gputest.OpCopyBufferToBuffer, gputest.OpBeginRenderPass, gputest.OpEndPass,
	}, kinds)
}

func TestDisabledLightsRecordNothing(t *testing.T) {
	f := newFixture(t)
	f.render(t, f.prepare(f.object(f.cube, material.New(), 0)), castingLights(0, 3))
	assert.Empty(t, f.dev.Ops())
	assert.Zero(t, f.res.Stats())
}

func TestEmptyBatchListIsNoOp(t *testing.T) {
	f := newFixture(t)
	f.render(t, preparer.PreparedBatches{}, castingLights(2, 0))
	assert.Empty(t, f.dev.Ops())
}

func TestOnlyLitOpaqueInstancesCastShadows(t *testing.T) {
	f := newFixture(t)
	lit := material.New()
	unlit := material.New(material.WithUnlit(true))
	glass := material.New(material.WithAlphaBlend(true))

	prepared := f.prepare(
		f.object(f.cube, lit, 1),
		f.object(f.cube, unlit, 2),
		f.object(f.cube, lit, 3),
		f.object(f.cube, glass, 4),
	)
	prepared.Batches[0].Instances[0].Material = lit
	prepared.Batches[0].Instances[1].Material = unlit
	prepared.Batches[0].Instances[2].Material = lit
	require.Equal(t, 1, prepared.Opaque.Len())

	f.render(t, prepared, castingLights(1, 0))

	passes := f.dev.Passes()
	require.Len(t, passes, 1)
	draws := passes[0].Draws()
	require.Len(t, draws, 2)
	first := prepared.Batches[0].FirstInstance
	assert.Equal(t, first, draws[0].FirstInstance)
	assert.Equal(t, uint32(1), draws[0].InstanceCount)
	assert.Equal(t, first+2, draws[1].FirstInstance)
	assert.Equal(t, uint32(36), draws[1].IndexCount)
}

func TestMissingMeshIsSkipped(t *testing.T) {
	f := newFixture(t)
	prepared := f.prepare(f.object(f.cube+100, material.New(), 0), f.object(f.cube, material.New(), 1))
	f.render(t, prepared, castingLights(2, 0))

	for _, p := range f.dev.Passes() {
		assert.Len(t, p.Draws(), 1)
	}
	assert.Equal(t, Stats{Passes: 2, Draws: 2, SkippedBatches: 1}, f.res.Stats())
}

func TestPointLightsUseSixConsecutiveLayers(t *testing.T) {
	f := newFixture(t)
	lights := light.LightsData{
		Point: []light.PointLight{
			light.NewPoint(),
			light.NewPoint(light.WithCastsShadows(true), light.WithPosition(0, 3, 0)),
		},
		Spot: []light.SpotLight{light.NewSpot(light.WithCastsShadows(true))},
	}
	lights.ComputeShadows(mgl32.Vec3{}, light.DefaultShadowFit())

	slots := Plan(lights)
	require.Len(t, slots, 1+light.CubeFaces)
	assert.Equal(t, Slot{Target: TargetSpot, Layer: 0, ViewProj: lights.Spot[0].Shadow.ViewProj[0]}, slots[0])
	for face := range light.CubeFace(light.CubeFaces) {
		s := slots[1+int(face)]
		assert.Equal(t, TargetPoint, s.Target)
		assert.Equal(t, PointLayer(1, face), s.Layer)
		assert.Equal(t, lights.Point[1].Shadow.ViewProj[face], s.ViewProj)
	}
	assert.Equal(t, 6, PointLayer(1, light.CubeFacePositiveX))
	assert.Equal(t, PointLayers-1, PointLayer(light.MaxPointLights-1, light.CubeFaceNegativeZ))

	f.render(t, f.prepare(f.object(f.cube, material.New(), 0)), lights)
	assert.Equal(t, 1+light.CubeFaces, f.res.Stats().Passes)
	assert.Equal(t, "shadow point 11", f.dev.PassLabels()[6])
}

func TestPlanClampsToMaxima(t *testing.T) {
	lights := castingLights(light.MaxDirectionalLights+3, 0)
	assert.Len(t, Plan(lights), light.MaxDirectionalLights)
	assert.Equal(t, lights.ShadowCasters(), len(Plan(lights)))
	assert.Equal(t, 32, MaxPasses)
}

func TestStagingHoldsOneSlotPerShadowCaster(t *testing.T) {
	f := newFixture(t)
	lights := castingLights(light.MaxDirectionalLights+2, 1)
	f.render(t, f.prepare(f.object(f.cube, material.New(), 0)), lights)

	writes := f.dev.OpsOfKind(gputest.OpWriteBuffer)
	require.Len(t, writes, 1)
	require.Len(t, writes[0].Data, light.MaxDirectionalLights*light.GPUShadowUniformSize)
	for i := range light.MaxDirectionalLights {
		want := make([]byte, light.GPUShadowUniformSize)
		u := light.GPUShadowUniform{ViewProj: lights.Directional[i].Shadow.ViewProj[0]}
		u.MarshalInto(want)
		off := i * light.GPUShadowUniformSize
		assert.Equal(t, want, writes[0].Data[off:off+light.GPUShadowUniformSize])
	}
	assert.Equal(t, light.MaxDirectionalLights, f.res.Stats().Passes)
}

func TestResourcesAllocateArrays(t *testing.T) {
	f := newFixture(t)
	assert.Equal(t, uint32(512), f.res.Resolution())
	for target, layers := range map[gpu.TextureView]uint32{
		f.res.DirectionalView(): DirectionalLayers,
		f.res.SpotView():        SpotLayers,
		f.res.PointView():       PointLayers,
	} {
		v := target.(*gputest.TextureView)
		assert.True(t, v.Array)
		assert.Equal(t, layers, v.LayerCount)
		assert.Equal(t, DepthFormat, v.Texture.Desc.Format)
	}
	assert.True(t, f.res.Sampler().(*gputest.Sampler).Desc.Comparison)
}

func TestAppendLitRuns(t *testing.T) {
	lit := batcher.Instance{Material: material.New()}
	unlit := batcher.Instance{Material: material.New(material.WithUnlit(true))}

	assert.Equal(t, []Run{{Start: 0, Count: 2}, {Start: 3, Count: 1}},
		AppendLitRuns(nil, []batcher.Instance{lit, lit, unlit, lit, unlit}))
	assert.Empty(t, AppendLitRuns(nil, []batcher.Instance{unlit}))
}
