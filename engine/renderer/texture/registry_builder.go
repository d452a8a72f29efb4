package texture

// RegistryBuilderOption is a function that configures a registry during construction.
type RegistryBuilderOption func(*registry)

// WithLayerSize sets the edge length textures are resampled to for the bindless texture array.
//
// Parameters:
//   - size: the layer edge length in pixels (values of 0 are ignored)
//
// Returns:
//   - RegistryBuilderOption: a function that applies the layer size option to the registry
func WithLayerSize(size uint32) RegistryBuilderOption {
	return func(r *registry) {
		if size > 0 {
			r.layerSize = size
		}
	}
}

// WithDecodeWorkers limits how many textures Load decodes concurrently.
//
// Parameters:
//   - workers: the decode concurrency (minimum 1)
//
// Returns:
//   - RegistryBuilderOption: a function that applies the worker option to the registry
func WithDecodeWorkers(workers int) RegistryBuilderOption {
	return func(r *registry) {
		r.workers = workers
	}
}
