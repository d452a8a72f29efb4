package buffers

import (
	"encoding/binary"
	"testing"

	"github.com/Carmen-Shannon/oxy-render/engine/gpu"
	"github.com/Carmen-Shannon/oxy-render/engine/gpu/gputest"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer/batcher"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer/material"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer/preparer"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func prepare(n int, materials ...material.Material) preparer.PreparedBatches {
	b := batcher.NewBatcher()
	for i := range n {
		b.Add(batcher.RenderObject{
			Mesh:      1,
			Material:  materials[i%len(materials)],
			Transform: mgl32.Translate3D(float32(i), 0, 0),
			Depth:     batcher.DefaultDepth,
		})
	}
	return preparer.Prepare(b, mgl32.Vec3{})
}

func TestUpdateWritesOneRecordPerInstance(t *testing.T) {
	dev := gputest.NewDevice()
	m := NewManager(dev)
	red := material.New(material.WithBaseColor([4]float32{1, 0, 0, 1}))
	blue := material.New(material.WithBaseColor([4]float32{0, 0, 1, 1}))

	dev.Reset()
	require.NoError(t, m.Update(prepare(5, red, blue)))

	writes := dev.OpsOfKind(gputest.OpWriteBuffer)
	require.Len(t, writes, 2)
	assert.Equal(t, "instances", writes[0].Label)
	assert.Len(t, writes[0].Data, 5*GPUInstanceSize)
	assert.Equal(t, "materials", writes[1].Label)
	assert.Len(t, writes[1].Data, 2*material.GPUMaterialSize)

	assert.Equal(t, []material.Material{red, blue}, m.Materials())
	for i := range 5 {
		want := uint32(i % 2)
		assert.Equal(t, want, m.MaterialIndex(i))
		assert.Equal(t, want, binary.LittleEndian.Uint32(writes[0].Data[i*GPUInstanceSize+64:]))
	}
	assert.Equal(t, 5, m.Uploaded())
	assert.Zero(t, m.MaterialIndex(99))
}

func TestUpdateSkipsEmptyUploads(t *testing.T) {
	dev := gputest.NewDevice()
	m := NewManager(dev)
	dev.Reset()

	require.NoError(t, m.Update(preparer.PreparedBatches{}))
	assert.Empty(t, dev.OpsOfKind(gputest.OpWriteBuffer))
	assert.Empty(t, m.Materials())
}

func TestGrowthDoublesAndRebuildsBindGroup(t *testing.T) {
	dev := gputest.NewDevice()
	m := NewManager(dev, WithInitialInstanceCapacity(4), WithInitialMaterialCapacity(1))
	first := m.BindGroup()
	gen := m.Generation()

	// 5 > 4 grows to max(5, 8).
	require.NoError(t, m.Update(prepare(5, material.New())))
	assert.Equal(t, 8, m.InstanceCapacity())
	assert.Equal(t, 1, m.MaterialCapacity())
	assert.Equal(t, 1, m.Growths())
	assert.Equal(t, gen+1, m.Generation())
	assert.NotSame(t, first, m.BindGroup())
	assert.True(t, first.(*gputest.BindGroup).Released)

	// 20 > 16 grows straight to the requirement.
	require.NoError(t, m.Update(prepare(20, material.New())))
	assert.Equal(t, 20, m.InstanceCapacity())

	// Capacity never shrinks.
	require.NoError(t, m.Update(prepare(1, material.New())))
	assert.Equal(t, 20, m.InstanceCapacity())
	assert.Equal(t, 2, m.Growths())

	bg := m.BindGroup().(*gputest.BindGroup)
	require.Len(t, bg.Desc.Entries, 2)
	assert.Equal(t, uint64(20*GPUInstanceSize), bg.Desc.Entries[0].Buffer.Size())
}

func TestUpdateIsIdempotent(t *testing.T) {
	dev := gputest.NewDevice()
	m := NewManager(dev, WithInitialInstanceCapacity(2))
	prepared := prepare(9,
		material.New(material.WithMetallic(0.5)),
		material.New(material.WithAlphaBlend(true)),
		material.New(material.WithUnlit(true)),
	)

	dev.Reset()
	require.NoError(t, m.Update(prepared))
	firstWrites := dev.OpsOfKind(gputest.OpWriteBuffer)
	growths, gen := m.Growths(), m.Generation()

	dev.Reset()
	require.NoError(t, m.Update(prepared))
	secondWrites := dev.OpsOfKind(gputest.OpWriteBuffer)

	require.Len(t, secondWrites, len(firstWrites))
	for i := range firstWrites {
		assert.Equal(t, firstWrites[i].Data, secondWrites[i].Data)
		assert.Same(t, firstWrites[i].Buffer, secondWrites[i].Buffer)
	}
	assert.Equal(t, growths, m.Growths())
	assert.Equal(t, gen, m.Generation())
	assert.Empty(t, dev.OpsOfKind(gputest.OpCreateBuffer))
}

func TestMaterialOverflowClampsToZero(t *testing.T) {
	materials := make([]material.Material, MaxMaterials+2)
	for i := range materials {
		materials[i] = material.New(material.WithBaseColor([4]float32{float32(i), 0, 0, 1}))
	}
	m := NewManager(gputest.NewDevice())
	require.NoError(t, m.Update(prepare(len(materials), materials...)))

	assert.Len(t, m.Materials(), MaxMaterials)
	assert.Equal(t, uint32(MaxMaterials-1), m.MaterialIndex(MaxMaterials-1))
	assert.Zero(t, m.MaterialIndex(MaxMaterials))
	assert.Zero(t, m.MaterialIndex(MaxMaterials+1))
}

func TestInstanceCountClampedByDeviceLimit(t *testing.T) {
	dev := gputest.NewDevice()
	dev.SetLimits(gpu.Limits{MaxBufferSize: 3 * GPUInstanceSize})
	m := NewManager(dev, WithInitialInstanceCapacity(1))

	require.NoError(t, m.Update(prepare(10, material.New())))
	assert.Equal(t, 3, m.Uploaded())
	assert.Equal(t, 3, m.InstanceCapacity())
}

func TestAllocationFailurePanics(t *testing.T) {
	dev := gputest.NewDevice()
	m := NewManager(dev, WithInitialInstanceCapacity(1))
	dev.FailCreateBuffer = true
	assert.Panics(t, func() { _ = m.Update(prepare(2, material.New())) })
}

func TestReleaseFreesEverything(t *testing.T) {
	dev := gputest.NewDevice()
	m := NewManager(dev)
	bg := m.BindGroup().(*gputest.BindGroup)
	m.Release()
	assert.True(t, bg.Released)
	for _, e := range bg.Desc.Entries {
		assert.True(t, e.Buffer.(*gputest.Buffer).Released)
	}
}
