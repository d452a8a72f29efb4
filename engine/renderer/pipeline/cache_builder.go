package pipeline

import (
	"log/slog"

	"github.com/Carmen-Shannon/oxy-render/engine/gpu"
)

// DefaultMaxTextures is the texture count the bindless array must be able to hold for bindless mode to be chosen.
const DefaultMaxTextures = 256

// DefaultClassicCacheSize is the number of per-material bind groups kept alive in classic mode.
const DefaultClassicCacheSize = 512

// CacheBuilderOption is a function that configures a pipeline cache during construction.
type CacheBuilderOption func(*cache)

// WithLogger sets the logger used for mode selection and texture binding messages.
//
// Parameters:
//   - logger: the logger; nil keeps slog.Default()
//
// Returns:
//   - CacheBuilderOption: a function that applies the logger option to the cache
func WithLogger(logger *slog.Logger) CacheBuilderOption {
	return func(c *cache) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithSampleCount sets the multisample count of every frame pipeline. Values below 1 are treated as 1.
//
// Parameters:
//   - samples: the sample count, typically 1 or 4
//
// Returns:
//   - CacheBuilderOption: a function that applies the sample count option to the cache
func WithSampleCount(samples uint32) CacheBuilderOption {
	return func(c *cache) {
		c.sampleCount = max(samples, 1)
	}
}

// WithObjectsLayout sets the layout of group 1, the instance and material storage buffers. It is required and is
// normally the buffer manager's Layout().
//
// Parameters:
//   - layout: the objects bind group layout
//
// Returns:
//   - CacheBuilderOption: a function that applies the layout option to the cache
func WithObjectsLayout(layout gpu.BindGroupLayout) CacheBuilderOption {
	return func(c *cache) {
		c.objectsLayout = layout
	}
}

// WithMaxTextures sets the number of textures the bindless array must hold.
//
// Parameters:
//   - textures: the required texture array layer count
//
// Returns:
//   - CacheBuilderOption: a function that applies the texture count option to the cache
func WithMaxTextures(textures uint32) CacheBuilderOption {
	return func(c *cache) {
		c.maxTextures = max(textures, 1)
	}
}

// WithBindlessDisabled forces classic texture binding regardless of device support.
//
// Parameters:
//   - disabled: true to force classic mode
//
// Returns:
//   - CacheBuilderOption: a function that applies the option to the cache
func WithBindlessDisabled(disabled bool) CacheBuilderOption {
	return func(c *cache) {
		c.bindless = !disabled
	}
}

// WithClassicCacheSize sets how many per-material bind groups classic mode keeps before evicting.
//
// Parameters:
//   - entries: the cache capacity (minimum 1)
//
// Returns:
//   - CacheBuilderOption: a function that applies the capacity option to the cache
func WithClassicCacheSize(entries int) CacheBuilderOption {
	return func(c *cache) {
		c.classicCapacity = max(entries, 1)
	}
}
