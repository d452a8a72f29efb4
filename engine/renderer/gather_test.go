package renderer

import (
	"testing"
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer/batcher"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer/mesh"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// resolveEven keeps even entities and encodes the entity in the mesh handle.
func resolveEven(e int) (batcher.RenderObject, bool) {
	if e%2 != 0 {
		return batcher.RenderObject{}, false
	}
	return batcher.RenderObject{Mesh: mesh.Handle(e)}, true
}

func handles(objects []batcher.RenderObject) []mesh.Handle {
	out := make([]mesh.Handle, len(objects))
	for i, o := range objects {
		out[i] = o.Mesh
	}
	return out
}

func TestCollectChunkedPreservesOrder(t *testing.T) {
	pool := worker.NewDynamicWorkerPool(4, 64, time.Second)
	t.Cleanup(pool.Stop)

	entities := make([]int, 1000)
	for i := range entities {
		entities[i] = i
	}

	got := collectChunked(pool, entities, resolveEven, 7)
	require.Len(t, got, 500)
	for i, h := range handles(got) {
		assert.Equal(t, mesh.Handle(i*2), h)
	}
	assert.Equal(t, handles(got), handles(collectChunked(nil, entities, resolveEven, 7)))
}

func TestCollectRenderObjectsWithoutPool(t *testing.T) {
	got := CollectRenderObjects(nil, []int{4, 5, 6}, resolveEven)
	assert.Equal(t, []mesh.Handle{4, 6}, handles(got))
	assert.Nil(t, CollectRenderObjects[int](nil, nil, resolveEven))
}

func TestCollectRenderObjectsSingleChunkSkipsPool(t *testing.T) {
	pool := worker.NewDynamicWorkerPool(1, 1, time.Second)
	t.Cleanup(pool.Stop)

	got := CollectRenderObjects(pool, []int{0, 1, 2}, resolveEven)
	assert.Equal(t, []mesh.Handle{0, 2}, handles(got))
}
