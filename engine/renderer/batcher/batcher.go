// Package batcher groups render objects into instanced draw batches keyed by mesh, material,
// render pass and depth state. It performs no sorting.
package batcher

import (
	"iter"

	"github.com/Carmen-Shannon/oxy-render/common"
)

// bucket holds the instances of one batch key. Buckets are recycled across frames.
type bucket struct {
	key       BatchKey
	instances []Instance
}

// batcher is the implementation of the Batcher interface.
type batcher struct {
	index     map[BatchKey]int
	buckets   []*bucket
	free      []*bucket
	instances int
}

// Batcher is a grouping multimap from BatchKey to instances. It is not safe for concurrent use.
type Batcher interface {
	// Add assigns the object to a render pass, builds its batch key and appends an instance to that batch.
	//
	// Parameters:
	//   - obj: the render object to add
	Add(obj RenderObject)

	// Clear empties every batch. Instance storage is retained and reused by later Add calls.
	Clear()

	// Buckets iterates every non-empty batch in creation order. The yielded slice aliases internal
	// storage and is valid until the next Clear; callers may reorder it in place.
	//
	// Returns:
	//   - iter.Seq2[BatchKey, []Instance]: the batches
	Buckets() iter.Seq2[BatchKey, []Instance]

	// PassBuckets iterates the batches of one render pass in creation order.
	//
	// Parameters:
	//   - pass: the pass to filter by
	//
	// Returns:
	//   - iter.Seq2[BatchKey, []Instance]: the batches of the pass
	PassBuckets(pass RenderPass) iter.Seq2[BatchKey, []Instance]

	// Len returns the number of non-empty batches.
	//
	// Returns:
	//   - int: the batch count
	Len() int

	// InstanceCount returns the number of instances across every batch.
	//
	// Returns:
	//   - int: the instance count
	InstanceCount() int
}

var _ Batcher = &batcher{}

// NewBatcher creates an empty Batcher.
//
// Returns:
//   - Batcher: the new batcher
func NewBatcher() Batcher {
	return &batcher{index: make(map[BatchKey]int)}
}

func (b *batcher) Add(obj RenderObject) {
	key := BatchKey{
		Mesh:     obj.Mesh,
		Material: obj.Material.Key(),
		Pass:     obj.Pass(),
		Depth:    obj.Depth,
	}

	i, ok := b.index[key]
	if !ok {
		var bk *bucket
		if n := len(b.free); n > 0 {
			bk = b.free[n-1]
			b.free = b.free[:n-1]
		} else {
			bk = &bucket{}
		}
		bk.key = key
		i = len(b.buckets)
		b.buckets = append(b.buckets, bk)
		b.index[key] = i
	}

	bk := b.buckets[i]
	bk.instances = append(bk.instances, Instance{
		Transform: obj.Transform,
		Material:  obj.Material,
		Position:  common.Translation(obj.Transform),
	})
	b.instances++
}

func (b *batcher) Clear() {
	for _, bk := range b.buckets {
		bk.instances = bk.instances[:0]
		b.free = append(b.free, bk)
	}
	clear(b.buckets)
	b.buckets = b.buckets[:0]
	clear(b.index)
	b.instances = 0
}

func (b *batcher) Buckets() iter.Seq2[BatchKey, []Instance] {
	return func(yield func(BatchKey, []Instance) bool) {
		for _, bk := range b.buckets {
			if !yield(bk.key, bk.instances) {
				return
			}
		}
	}
}

func (b *batcher) PassBuckets(pass RenderPass) iter.Seq2[BatchKey, []Instance] {
	return func(yield func(BatchKey, []Instance) bool) {
		for _, bk := range b.buckets {
			if bk.key.Pass != pass {
				continue
			}
			if !yield(bk.key, bk.instances) {
				return
			}
		}
	}
}

func (b *batcher) Len() int {
	return len(b.buckets)
}

func (b *batcher) InstanceCount() int {
	return b.instances
}
