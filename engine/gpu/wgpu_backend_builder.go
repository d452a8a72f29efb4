package gpu

// PresentMode controls how rendered frames are presented to the display surface.
type PresentMode int

const (
	// PresentModeVSync waits for the next vertical blank before presenting, capping frame rate
	// to the monitor's refresh rate. Eliminates tearing.
	PresentModeVSync PresentMode = iota

	// PresentModeUncapped presents frames immediately without waiting for vertical blank.
	// May cause screen tearing but provides the lowest latency.
	PresentModeUncapped
)

// WGPUBuilderOption is a functional option applied to the backend during NewWGPUBackend.
type WGPUBuilderOption func(*wgpuBackend)

// WithPresentMode sets the initial surface present mode.
//
// Parameters:
//   - mode: the PresentMode to use (VSync or Uncapped)
//
// Returns:
//   - WGPUBuilderOption: a function that applies the present mode option to the backend
func WithPresentMode(mode PresentMode) WGPUBuilderOption {
	return func(b *wgpuBackend) {
		b.presentMode = mode
	}
}

// WithForceSoftwareRenderer forces WGPU to use a CPU/software fallback adapter instead of
// hardware GPU acceleration. This requires a software Vulkan ICD to be installed on the system
// (e.g. SwiftShader or lavapipe).
//
// Parameters:
//   - force: true to force the software fallback adapter, false to use hardware (default)
//
// Returns:
//   - WGPUBuilderOption: a function that applies the force software renderer option to the backend
func WithForceSoftwareRenderer(force bool) WGPUBuilderOption {
	return func(b *wgpuBackend) {
		b.forceFallbackAdapter = force
	}
}
