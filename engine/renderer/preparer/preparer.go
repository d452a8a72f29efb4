// Package preparer orders the batcher's output for drawing. Transparent and overlay instances are
// sorted back to front, batches are split into opaque, transparent and overlay ranges, and every batch
// gets its offset into the flattened instance buffer.
package preparer

import (
	"cmp"
	"slices"

	"github.com/Carmen-Shannon/oxy-render/common"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer/batcher"
	"github.com/go-gl/mathgl/mgl32"
)

// Range is a half-open index range [Start, End) into PreparedBatches.Batches.
type Range struct {
	Start int
	End   int
}

// Len returns the number of batches in the range.
func (r Range) Len() int { return r.End - r.Start }

// OrderedBatch is a batch after sorting, annotated for drawing.
type OrderedBatch struct {
	Key       batcher.BatchKey
	Instances []batcher.Instance

	// AlphaBlend is set when the pass blends or any instance material requests blending.
	AlphaBlend bool

	// FirstInstance is the offset of Instances[0] in the flattened instance buffer.
	FirstInstance uint32
}

// InstanceCount returns the number of instances in the batch.
func (b OrderedBatch) InstanceCount() uint32 { return uint32(len(b.Instances)) }

// PreparedBatches is the flattened, ordered batch list of a frame. Opaque, Transparent and Overlay
// tile Batches exactly, in that order.
type PreparedBatches struct {
	Batches     []OrderedBatch
	Opaque      Range
	Transparent Range
	Overlay     Range
}

// Range returns the batch range of a render pass.
//
// Parameters:
//   - pass: the render pass
//
// Returns:
//   - Range: the pass range, empty for unknown passes
func (p PreparedBatches) Range(pass batcher.RenderPass) Range {
	switch pass {
	case batcher.PassOpaque:
		return p.Opaque
	case batcher.PassTransparent:
		return p.Transparent
	case batcher.PassOverlay:
		return p.Overlay
	default:
		return Range{}
	}
}

// Pass returns the batches of a render pass.
//
// Parameters:
//   - pass: the render pass
//
// Returns:
//   - []OrderedBatch: a sub-slice of Batches
func (p PreparedBatches) Pass(pass batcher.RenderPass) []OrderedBatch {
	r := p.Range(pass)
	return p.Batches[r.Start:r.End]
}

// InstanceCount returns the total number of instances across every batch.
func (p PreparedBatches) InstanceCount() int {
	if len(p.Batches) == 0 {
		return 0
	}
	last := p.Batches[len(p.Batches)-1]
	return int(last.FirstInstance) + len(last.Instances)
}

// Empty reports whether there is nothing to draw.
func (p PreparedBatches) Empty() bool { return len(p.Batches) == 0 }

// sortedBatch pairs a batch with the squared distance of its farthest instance.
type sortedBatch struct {
	batch    OrderedBatch
	farthest float32
}

// Preparer turns batcher output into PreparedBatches, reusing its slices across frames.
// The zero value is ready to use. A Preparer is not safe for concurrent use.
type Preparer struct {
	opaque      []OrderedBatch
	transparent []sortedBatch
	overlay     []sortedBatch
	out         []OrderedBatch
}

// Prepare orders the batches of b for a camera at cameraPos using a throwaway Preparer.
//
// Parameters:
//   - b: the batcher holding this frame's batches
//   - cameraPos: the world-space camera position
//
// Returns:
//   - PreparedBatches: the ordered batches
func Prepare(b batcher.Batcher, cameraPos mgl32.Vec3) PreparedBatches {
	var p Preparer
	return p.Prepare(b, cameraPos)
}

// Prepare orders the batches of b for a camera at cameraPos. Instances of transparent and overlay
// batches are sorted in place inside the batcher's storage. The returned Batches slice is owned by
// the Preparer and is overwritten by the next call.
//
// Parameters:
//   - b: the batcher holding this frame's batches
//   - cameraPos: the world-space camera position
//
// Returns:
//   - PreparedBatches: the ordered batches
func (p *Preparer) Prepare(b batcher.Batcher, cameraPos mgl32.Vec3) PreparedBatches {
	p.opaque = p.opaque[:0]
	p.transparent = p.transparent[:0]
	p.overlay = p.overlay[:0]
	p.out = p.out[:0]

	for key, instances := range b.Buckets() {
		if len(instances) == 0 {
			continue
		}
		ob := OrderedBatch{
			Key:        key,
			Instances:  instances,
			AlphaBlend: key.Pass.Blends() || anyBlends(instances),
		}
		if !key.Pass.BackToFront() {
			p.opaque = append(p.opaque, ob)
			continue
		}

		SortBackToFront(instances, cameraPos)
		sb := sortedBatch{batch: ob, farthest: common.DistanceSquared(instances[0].Position, cameraPos)}
		if key.Pass == batcher.PassTransparent {
			p.transparent = append(p.transparent, sb)
		} else {
			p.overlay = append(p.overlay, sb)
		}
	}

	// Farthest batch first. This orders whole batches, not individual instances across batches.
	byFarthest := func(a, b sortedBatch) int { return cmp.Compare(b.farthest, a.farthest) }
	slices.SortStableFunc(p.transparent, byFarthest)
	slices.SortStableFunc(p.overlay, byFarthest)

	var prepared PreparedBatches
	var next uint32
	push := func(ob OrderedBatch) {
		ob.FirstInstance = next
		next += ob.InstanceCount()
		p.out = append(p.out, ob)
	}

	for _, ob := range p.opaque {
		push(ob)
	}
	prepared.Opaque = Range{Start: 0, End: len(p.out)}
	for _, sb := range p.transparent {
		push(sb.batch)
	}
	prepared.Transparent = Range{Start: prepared.Opaque.End, End: len(p.out)}
	for _, sb := range p.overlay {
		push(sb.batch)
	}
	prepared.Overlay = Range{Start: prepared.Transparent.End, End: len(p.out)}
	prepared.Batches = p.out
	return prepared
}

// SortBackToFront sorts instances by descending squared distance from cameraPos. Ties keep no
// particular order.
//
// Parameters:
//   - instances: the instances to sort in place
//   - cameraPos: the world-space camera position
func SortBackToFront(instances []batcher.Instance, cameraPos mgl32.Vec3) {
	slices.SortFunc(instances, func(a, b batcher.Instance) int {
		return cmp.Compare(common.DistanceSquared(b.Position, cameraPos), common.DistanceSquared(a.Position, cameraPos))
	})
}

func anyBlends(instances []batcher.Instance) bool {
	for i := range instances {
		if instances[i].Material.AlphaBlend() {
			return true
		}
	}
	return false
}
