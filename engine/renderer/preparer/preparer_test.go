package preparer

import (
	"math/rand/v2"
	"testing"

	"github.com/Carmen-Shannon/oxy-render/common"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer/batcher"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer/material"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer/mesh"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func at(h mesh.Handle, m material.Material, x, y, z float32) batcher.RenderObject {
	return batcher.RenderObject{Mesh: h, Material: m, Transform: mgl32.Translate3D(x, y, z), Depth: batcher.DefaultDepth}
}

func TestExampleSceneRanges(t *testing.T) {
	b := batcher.NewBatcher()
	cube := material.New()
	for i := range 3 {
		b.Add(at(1, cube, float32(i)*2-2, 0, -5))
	}
	b.Add(at(2, material.New(material.WithAlphaBlend(true)), 0, 0, -3))
	billboard := at(3, material.New(), 0, 2, -4)
	billboard.ForceOverlay = true
	billboard.Depth = batcher.DepthState{}
	b.Add(billboard)

	prepared := Prepare(b, mgl32.Vec3{})

	require.Len(t, prepared.Batches, 3)
	assert.Equal(t, Range{0, 1}, prepared.Opaque)
	assert.Equal(t, Range{1, 2}, prepared.Transparent)
	assert.Equal(t, Range{2, 3}, prepared.Overlay)
	assert.Equal(t, 5, prepared.InstanceCount())

	assert.Len(t, prepared.Batches[0].Instances, 3)
	assert.False(t, prepared.Batches[0].AlphaBlend)
	assert.Equal(t, uint32(0), prepared.Batches[0].FirstInstance)

	assert.Equal(t, mesh.Handle(2), prepared.Batches[1].Key.Mesh)
	assert.True(t, prepared.Batches[1].AlphaBlend)
	assert.Equal(t, uint32(3), prepared.Batches[1].FirstInstance)

	assert.Equal(t, batcher.PassOverlay, prepared.Batches[2].Key.Pass)
	assert.True(t, prepared.Batches[2].AlphaBlend)
	assert.Equal(t, uint32(4), prepared.Batches[2].FirstInstance)
}

func TestInstancesSortedBackToFront(t *testing.T) {
	b := batcher.NewBatcher()
	glass := material.New(material.WithAlphaBlend(true))
	for _, z := range []float32{-2, -9, -4, -7} {
		b.Add(at(1, glass, 0, 0, z))
	}
	prepared := Prepare(b, mgl32.Vec3{})

	var zs []float32
	for _, inst := range prepared.Batches[0].Instances {
		zs = append(zs, inst.Position.Z())
	}
	assert.Equal(t, []float32{-9, -7, -4, -2}, zs)
}

func TestOpaqueInstancesKeepInsertionOrder(t *testing.T) {
	b := batcher.NewBatcher()
	for _, z := range []float32{-2, -9, -4} {
		b.Add(at(1, material.New(), 0, 0, z))
	}
	prepared := Prepare(b, mgl32.Vec3{})
	assert.Equal(t, float32(-2), prepared.Batches[0].Instances[0].Position.Z())
	assert.Equal(t, float32(-4), prepared.Batches[0].Instances[2].Position.Z())
}

func TestTransparentBatchesSortedByFarthestInstance(t *testing.T) {
	b := batcher.NewBatcher()
	glass := material.New(material.WithAlphaBlend(true))
	b.Add(at(1, glass, 0, 0, -3))
	b.Add(at(2, glass, 0, 0, -10))
	b.Add(at(2, glass, 0, 0, -1))
	b.Add(at(3, glass, 0, 0, -6))

	prepared := Prepare(b, mgl32.Vec3{})
	var order []mesh.Handle
	for _, ob := range prepared.Pass(batcher.PassTransparent) {
		order = append(order, ob.Key.Mesh)
	}
	assert.Equal(t, []mesh.Handle{2, 3, 1}, order)
}

func TestForcedTransparentBatchBlends(t *testing.T) {
	b := batcher.NewBatcher()
	b.Add(at(1, material.New(), 0, 0, 0))
	prepared := Prepare(b, mgl32.Vec3{})
	assert.False(t, prepared.Batches[0].AlphaBlend)

	// Forced transparency keeps an opaque material but lands in a blending pass.
	forced := at(1, material.New(), 0, 0, 0)
	forced.ForceTransparent = true
	b.Add(forced)
	prepared = Prepare(b, mgl32.Vec3{})
	require.Equal(t, 1, prepared.Transparent.Len())
	assert.True(t, prepared.Pass(batcher.PassTransparent)[0].AlphaBlend)
}

func TestEmptyBatcher(t *testing.T) {
	prepared := Prepare(batcher.NewBatcher(), mgl32.Vec3{})
	assert.True(t, prepared.Empty())
	assert.Zero(t, prepared.InstanceCount())
	assert.Zero(t, prepared.Opaque.Len()+prepared.Transparent.Len()+prepared.Overlay.Len())
}

func randomObjects(r *rand.Rand, n int) []batcher.RenderObject {
	materials := []material.Material{
		material.New(),
		material.New(material.WithAlphaBlend(true)),
		material.New(material.WithTexture(material.SlotBaseColor, 1)),
	}
	objects := make([]batcher.RenderObject, n)
	for i := range objects {
		obj := at(mesh.Handle(1+r.IntN(3)), materials[r.IntN(len(materials))],
			float32(r.IntN(5)), float32(r.IntN(5)), float32(r.IntN(5)))
		obj.ForceOverlay = r.IntN(6) == 0
		obj.ForceTransparent = r.IntN(8) == 0
		obj.Depth = batcher.DepthState{Test: r.IntN(2) == 0, Write: r.IntN(2) == 0}
		objects[i] = obj
	}
	return objects
}

func TestPreparedPropertiesOverRandomInputs(t *testing.T) {
	r := rand.New(rand.NewPCG(1, 2))
	b := batcher.NewBatcher()
	var p Preparer

	for round := range 200 {
		objects := randomObjects(r, r.IntN(60))
		b.Clear()
		for _, o := range objects {
			b.Add(o)
		}
		cam := mgl32.Vec3{float32(r.IntN(5)), float32(r.IntN(5)), float32(r.IntN(5))}
		prepared := p.Prepare(b, cam)

		// Ranges tile the list in pass order.
		require.Equal(t, 0, prepared.Opaque.Start, "round %d", round)
		require.Equal(t, prepared.Opaque.End, prepared.Transparent.Start)
		require.Equal(t, prepared.Transparent.End, prepared.Overlay.Start)
		require.Equal(t, len(prepared.Batches), prepared.Overlay.End)
		for pass := batcher.PassOpaque; pass < batcher.PassCount; pass++ {
			for _, ob := range prepared.Pass(pass) {
				require.Equal(t, pass, ob.Key.Pass)
			}
		}

		// Offsets are a running sum and nothing is dropped.
		var next uint32
		for _, ob := range prepared.Batches {
			require.Equal(t, next, ob.FirstInstance)
			require.NotEmpty(t, ob.Instances)
			next += ob.InstanceCount()
		}
		require.Equal(t, len(objects), int(next))
		require.Equal(t, len(objects), prepared.InstanceCount())

		// Blending batches are farthest-first within each sorted pass.
		for _, pass := range []batcher.RenderPass{batcher.PassTransparent, batcher.PassOverlay} {
			batches := prepared.Pass(pass)
			for i, ob := range batches {
				require.True(t, ob.AlphaBlend)
				for j := 1; j < len(ob.Instances); j++ {
					require.GreaterOrEqual(t,
						common.DistanceSquared(ob.Instances[j-1].Position, cam),
						common.DistanceSquared(ob.Instances[j].Position, cam))
				}
				if i > 0 {
					require.GreaterOrEqual(t,
						common.DistanceSquared(batches[i-1].Instances[0].Position, cam),
						common.DistanceSquared(ob.Instances[0].Position, cam))
				}
			}
		}
	}
}

func TestSortBackToFrontKeepsTies(t *testing.T) {
	for n := range 40 {
		instances := make([]batcher.Instance, n)
		for i := range instances {
			// Every instance sits at distance 1 or 2, so most comparisons tie.
			instances[i] = batcher.Instance{Position: mgl32.Vec3{float32(1 + i%2), 0, 0}, Material: material.New(material.WithMetallic(float32(i) / 40))}
		}
		seen := make(map[uint8]int)
		for _, inst := range instances {
			seen[inst.Material.Metallic]++
		}

		SortBackToFront(instances, mgl32.Vec3{})
		require.Len(t, instances, n)
		for _, inst := range instances {
			seen[inst.Material.Metallic]--
		}
		for k, v := range seen {
			require.Zero(t, v, "metallic %d", k)
		}
	}
}
