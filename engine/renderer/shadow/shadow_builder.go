package shadow

import "log/slog"

// Default rasterizer depth bias of the shadow pipeline, applied on top of the per-light bias in Params.
const (
	DefaultDepthBias           int32   = 2
	DefaultDepthBiasSlopeScale float32 = 2.0
)

// ResourcesBuilderOption is a function that configures shadow resources during construction.
type ResourcesBuilderOption func(*resources)

// WithLogger sets the logger used for skipped batches and resolution clamping.
//
// Parameters:
//   - logger: the logger; nil keeps slog.Default()
//
// Returns:
//   - ResourcesBuilderOption: a function that applies the logger option to the resources
func WithLogger(logger *slog.Logger) ResourcesBuilderOption {
	return func(r *resources) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithResolution sets the edge length of every shadow map.
//
// Parameters:
//   - resolution: the resolution in texels (values of 0 are ignored)
//
// Returns:
//   - ResourcesBuilderOption: a function that applies the resolution option to the resources
func WithResolution(resolution uint32) ResourcesBuilderOption {
	return func(r *resources) {
		if resolution > 0 {
			r.resolution = resolution
		}
	}
}

// WithDepthBias sets the rasterizer depth bias of the shadow pipeline.
//
// Parameters:
//   - constant: the constant depth bias
//   - slopeScale: the slope-scaled depth bias
//
// Returns:
//   - ResourcesBuilderOption: a function that applies the bias option to the resources
func WithDepthBias(constant int32, slopeScale float32) ResourcesBuilderOption {
	return func(r *resources) {
		r.depthBias = constant
		r.depthBiasSlope = slopeScale
	}
}
