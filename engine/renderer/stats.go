package renderer

// FrameStats describes the work recorded for the most recent frame.
type FrameStats struct {
	// Frame is the number of frames submitted since the renderer was created.
	Frame uint64

	ShadowPasses int

	ShadowDraws      int
	PrepassDraws     int
	OpaqueDraws      int
	TransparentDraws int
	OverlayDraws     int

	OpaqueBatches      int
	TransparentBatches int
	OverlayBatches     int

	// Instances is the number of instance records uploaded for the frame.
	Instances int

	// Materials is the number of distinct materials uploaded for the frame.
	Materials int

	// BufferGrowths is the cumulative number of instance or material buffer reallocations.
	BufferGrowths int

	// SkippedBatches counts batches dropped for a missing mesh or for exceeding the instance buffer.
	SkippedBatches int
}

// DrawCalls returns the total number of draw calls recorded across every pass of the frame.
//
// Returns:
//   - int: the draw call count
func (s FrameStats) DrawCalls() int {
	return s.ShadowDraws + s.PrepassDraws + s.OpaqueDraws + s.TransparentDraws + s.OverlayDraws
}

// Batches returns the number of batches drawn by the opaque, transparent and overlay passes.
//
// Returns:
//   - int: the batch count
func (s FrameStats) Batches() int {
	return s.OpaqueBatches + s.TransparentBatches + s.OverlayBatches
}
