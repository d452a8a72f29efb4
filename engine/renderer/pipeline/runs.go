package pipeline

import (
	"github.com/Carmen-Shannon/oxy-render/engine/renderer/batcher"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer/material"
)

// Run is a span of consecutive instances of one batch sharing the same material.
type Run struct {
	Start    int
	Count    int
	Material material.Material
}

// MaterialRuns splits instances into maximal runs of equal materials, in order.
//
// Parameters:
//   - instances: the instances of one prepared batch
//
// Returns:
//   - []Run: the runs; their counts sum to len(instances)
func MaterialRuns(instances []batcher.Instance) []Run {
	return AppendMaterialRuns(nil, instances)
}

// AppendMaterialRuns appends the runs of instances to dst so callers can reuse one slice across batches.
//
// Parameters:
//   - dst: the slice to append to
//   - instances: the instances of one prepared batch
//
// Returns:
//   - []Run: dst extended with the runs
func AppendMaterialRuns(dst []Run, instances []batcher.Instance) []Run {
	for i, inst := range instances {
		if n := len(dst); n > 0 && i > 0 && dst[n-1].Material == inst.Material {
			dst[n-1].Count++
			continue
		}
		dst = append(dst, Run{Start: i, Count: 1, Material: inst.Material})
	}
	return dst
}
