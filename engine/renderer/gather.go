package renderer

import (
	"sync"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer/batcher"
)

// DefaultGatherChunk is the number of entities resolved by one gather task.
const DefaultGatherChunk = 256

// CollectRenderObjects resolves entities into render objects in parallel. Entities are split into chunks of
// DefaultGatherChunk, each chunk runs as one task on pool, and the results are joined in entity order. resolve
// must not touch shared mutable state; it is called concurrently.
//
// Parameters:
//   - pool: the worker pool running the chunks; nil resolves on the calling goroutine
//   - entities: the entities to resolve
//   - resolve: maps an entity to its render object, false skips it
//
// Returns:
//   - []batcher.RenderObject: the resolved objects in entity order
func CollectRenderObjects[E any](pool worker.DynamicWorkerPool, entities []E, resolve func(E) (batcher.RenderObject, bool)) []batcher.RenderObject {
	return collectChunked(pool, entities, resolve, DefaultGatherChunk)
}

func collectChunked[E any](pool worker.DynamicWorkerPool, entities []E, resolve func(E) (batcher.RenderObject, bool), chunk int) []batcher.RenderObject {
	if len(entities) == 0 {
		return nil
	}
	chunk = max(chunk, 1)
	if pool == nil || len(entities) <= chunk {
		return resolveChunk(nil, entities, resolve)
	}

	results := make([][]batcher.RenderObject, (len(entities)+chunk-1)/chunk)
	var wg sync.WaitGroup
	for i := range results {
		start := i * chunk
		part := entities[start:min(start+chunk, len(entities))]
		wg.Add(1)
		pool.SubmitTask(worker.Task{
			ID: i,
			Do: func() (any, error) {
				defer wg.Done()
				results[i] = resolveChunk(make([]batcher.RenderObject, 0, len(part)), part, resolve)
				return nil, nil
			},
		})
	}
	wg.Wait()

	total := 0
	for _, r := range results {
		total += len(r)
	}
	out := make([]batcher.RenderObject, 0, total)
	for _, r := range results {
		out = append(out, r...)
	}
	return out
}

func resolveChunk[E any](dst []batcher.RenderObject, entities []E, resolve func(E) (batcher.RenderObject, bool)) []batcher.RenderObject {
	for _, e := range entities {
		if obj, ok := resolve(e); ok {
			dst = append(dst, obj)
		}
	}
	return dst
}
