package renderer

import (
	"log/slog"

	"github.com/Carmen-Shannon/oxy-render/engine/renderer/texture"
)

// RendererBuilderOption is a functional option applied to a renderer during construction via NewRenderer.
type RendererBuilderOption func(*renderer)

// WithLogger sets the base logger handed to the renderer and its subsystems. Each subsystem tags its records with
// a component attribute.
//
// Parameters:
//   - logger: the logger; nil keeps slog.Default()
//
// Returns:
//   - RendererBuilderOption: a function that applies the logger option to a renderer
func WithLogger(logger *slog.Logger) RendererBuilderOption {
	return func(r *renderer) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithMSAA sets the multisample anti-aliasing sample count for the renderer.
// When not specified, the default is MSAA4x. Use MSAAOff to disable MSAA entirely.
// Higher values (MSAA8x, MSAA16x) are adapter-dependent and may not be supported
// by all hardware.
//
// Parameters:
//   - count: the MSAASampleCount to use (MSAAOff, MSAA4x, MSAA8x, or MSAA16x)
//
// Returns:
//   - RendererBuilderOption: a function that applies the MSAA option to a renderer
func WithMSAA(count MSAASampleCount) RendererBuilderOption {
	return func(r *renderer) {
		r.msaa = max(count, MSAAOff)
	}
}

// WithTextureRegistry sets the registry material texture indices resolve against. Without one every textured
// slot samples white.
//
// Parameters:
//   - registry: the texture registry
//
// Returns:
//   - RendererBuilderOption: a function that applies the registry option to a renderer
func WithTextureRegistry(registry texture.Registry) RendererBuilderOption {
	return func(r *renderer) {
		r.textures = registry
	}
}

// WithMaxTextures sets the texture count the bindless texture array must hold for bindless binding to be used.
//
// Parameters:
//   - textures: the required texture array layer count
//
// Returns:
//   - RendererBuilderOption: a function that applies the option to a renderer
func WithMaxTextures(textures uint32) RendererBuilderOption {
	return func(r *renderer) {
		r.maxTextures = textures
	}
}

// WithBindlessDisabled forces classic per-material texture binding.
//
// Parameters:
//   - disabled: true to force classic binding
//
// Returns:
//   - RendererBuilderOption: a function that applies the option to a renderer
func WithBindlessDisabled(disabled bool) RendererBuilderOption {
	return func(r *renderer) {
		r.bindlessDisabled = disabled
	}
}

// WithClassicCacheSize sets how many per-material bind groups classic binding keeps alive.
//
// Parameters:
//   - size: the cache capacity
//
// Returns:
//   - RendererBuilderOption: a function that applies the option to a renderer
func WithClassicCacheSize(size int) RendererBuilderOption {
	return func(r *renderer) {
		r.classicCacheSize = size
	}
}

// WithShadowResolution sets the width and height of every shadow map layer.
//
// Parameters:
//   - resolution: the layer size in texels
//
// Returns:
//   - RendererBuilderOption: a function that applies the option to a renderer
func WithShadowResolution(resolution uint32) RendererBuilderOption {
	return func(r *renderer) {
		r.shadowResolution = resolution
	}
}

// WithShadowDepthBias sets the rasterizer depth bias of the shadow depth pipeline.
//
// Parameters:
//   - constant: the constant depth bias
//   - slopeScale: the slope-scaled depth bias
//
// Returns:
//   - RendererBuilderOption: a function that applies the option to a renderer
func WithShadowDepthBias(constant int32, slopeScale float32) RendererBuilderOption {
	return func(r *renderer) {
		r.shadowBias = constant
		r.shadowSlope = slopeScale
	}
}

// WithClearColor sets the color the main pass clears to.
//
// Parameters:
//   - red, green, blue, alpha: the clear color components in [0, 1]
//
// Returns:
//   - RendererBuilderOption: a function that applies the option to a renderer
func WithClearColor(red, green, blue, alpha float64) RendererBuilderOption {
	return func(r *renderer) {
		r.clearColor = [4]float64{red, green, blue, alpha}
	}
}

// WithInitialInstanceCapacity sets the number of instance records the instance buffer starts with.
//
// Parameters:
//   - instances: the initial instance capacity
//
// Returns:
//   - RendererBuilderOption: a function that applies the option to a renderer
func WithInitialInstanceCapacity(instances int) RendererBuilderOption {
	return func(r *renderer) {
		r.instanceCapacity = instances
	}
}

// WithInitialMaterialCapacity sets the number of material records the material buffer starts with.
//
// Parameters:
//   - materials: the initial material capacity
//
// Returns:
//   - RendererBuilderOption: a function that applies the option to a renderer
func WithInitialMaterialCapacity(materials int) RendererBuilderOption {
	return func(r *renderer) {
		r.materialCapacity = materials
	}
}

// WithCompositor replaces the built-in post-process copy.
//
// Parameters:
//   - c: the compositor
//
// Returns:
//   - RendererBuilderOption: a function that applies the option to a renderer
func WithCompositor(c Compositor) RendererBuilderOption {
	return func(r *renderer) {
		r.compositor = c
	}
}
