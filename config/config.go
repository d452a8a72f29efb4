// Package config loads the demo settings file and maps it onto renderer and backend options.
package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"strings"

	"github.com/Carmen-Shannon/oxy-render/common"
	"github.com/Carmen-Shannon/oxy-render/engine/gpu"
	"github.com/Carmen-Shannon/oxy-render/engine/light"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer/buffers"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer/shadow"
	"github.com/pelletier/go-toml/v2"
)

// Config is the settings file. Zero fields take their defaults, except the pointer fields, which default
// only when omitted so an explicit zero is kept.
type Config struct {
	Renderer RendererConfig `toml:"renderer"`
	Shadow   ShadowConfig   `toml:"shadow"`
	Log      LogConfig      `toml:"log"`
}

// RendererConfig is the [renderer] section.
type RendererConfig struct {
	SampleCount             uint32      `toml:"sample_count"`
	PresentMode             string      `toml:"present_mode"`
	MaxTextures             uint32      `toml:"max_textures"`
	DisableBindless         bool        `toml:"disable_bindless"`
	InitialInstanceCapacity int         `toml:"initial_instance_capacity"`
	InitialMaterialCapacity int         `toml:"initial_material_capacity"`
	ClassicCacheSize        int         `toml:"classic_cache_size"`
	GatherWorkers           int         `toml:"gather_workers"`
	ClearColor              *[4]float64 `toml:"clear_color"`
}

// ShadowConfig is the [shadow] section.
type ShadowConfig struct {
	Resolution uint32   `toml:"resolution"`
	DepthBias  *int32   `toml:"depth_bias"`
	SlopeScale *float32 `toml:"slope_scale"`
}

// LogConfig is the [log] section.
type LogConfig struct {
	Level string `toml:"level"`
}

const (
	PresentModeVSync    = "vsync"
	PresentModeUncapped = "uncapped"

	DefaultGatherWorkers = 4
)

// Default returns the settings used when no file is present.
//
// Returns:
//   - Config: the default settings
func Default() Config {
	return Config{}.withDefaults()
}

// Load reads the settings file at path. A missing file yields Default().
//
// Parameters:
//   - path: the settings file path
//
// Returns:
//   - Config: the settings with defaults applied
//   - error: error if the file cannot be read, has unknown keys or invalid values
func Load(path string) (Config, error) {
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return Default(), nil
	}
	if err != nil {
		return Config{}, fmt.Errorf("config: failed to open %s: %w", path, err)
	}
	defer f.Close()

	cfg, err := Decode(f)
	if err != nil {
		return Config{}, fmt.Errorf("config: %s: %w", path, err)
	}
	return cfg, nil
}

// Decode parses TOML settings. Unknown keys are rejected.
//
// Parameters:
//   - r: the TOML source
//
// Returns:
//   - Config: the settings with defaults applied
//   - error: error if decoding or validation fails
func Decode(r io.Reader) (Config, error) {
	var cfg Config
	if err := toml.NewDecoder(r).DisallowUnknownFields().Decode(&cfg); err != nil {
		var strict *toml.StrictMissingError
		if errors.As(err, &strict) {
			return Config{}, fmt.Errorf("config: unknown settings: %s", strict.String())
		}
		return Config{}, fmt.Errorf("config: failed to decode settings: %w", err)
	}
	cfg = cfg.withDefaults()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) withDefaults() Config {
	r := &c.Renderer
	r.SampleCount = common.Coalesce(r.SampleCount, uint32(renderer.MSAA4x))
	r.PresentMode = common.Coalesce(strings.ToLower(r.PresentMode), PresentModeVSync)
	r.MaxTextures = common.Coalesce(r.MaxTextures, pipeline.DefaultMaxTextures)
	r.InitialInstanceCapacity = common.Coalesce(r.InitialInstanceCapacity, buffers.DefaultInstanceCapacity)
	r.InitialMaterialCapacity = common.Coalesce(r.InitialMaterialCapacity, buffers.DefaultMaterialCapacity)
	r.ClassicCacheSize = common.Coalesce(r.ClassicCacheSize, pipeline.DefaultClassicCacheSize)
	r.GatherWorkers = common.Coalesce(r.GatherWorkers, DefaultGatherWorkers)
	r.ClearColor = orDefault(r.ClearColor, renderer.DefaultClearColor)

	s := &c.Shadow
	s.Resolution = common.Coalesce(s.Resolution, light.DefaultShadowMapResolution)
	s.DepthBias = orDefault(s.DepthBias, shadow.DefaultDepthBias)
	s.SlopeScale = orDefault(s.SlopeScale, shadow.DefaultDepthBiasSlopeScale)

	c.Log.Level = common.Coalesce(c.Log.Level, "info")
	return c
}

// orDefault returns p, or a pointer to def when p is nil.
func orDefault[T any](p *T, def T) *T {
	if p == nil {
		return &def
	}
	return p
}

// Validate checks the values a settings file may get wrong.
//
// Returns:
//   - error: the first invalid setting found
func (c Config) Validate() error {
	switch renderer.MSAASampleCount(c.Renderer.SampleCount) {
	case renderer.MSAAOff, renderer.MSAA4x, renderer.MSAA8x, renderer.MSAA16x:
	default:
		return fmt.Errorf("config: renderer.sample_count must be 1, 4, 8 or 16, got %d", c.Renderer.SampleCount)
	}
	switch c.Renderer.PresentMode {
	case PresentModeVSync, PresentModeUncapped:
	default:
		return fmt.Errorf("config: renderer.present_mode must be %q or %q, got %q", PresentModeVSync, PresentModeUncapped, c.Renderer.PresentMode)
	}
	if c.Renderer.InitialInstanceCapacity < 0 || c.Renderer.InitialMaterialCapacity < 0 || c.Renderer.ClassicCacheSize < 0 {
		return fmt.Errorf("config: renderer capacities must not be negative")
	}
	if c.Renderer.GatherWorkers < 0 {
		return fmt.Errorf("config: renderer.gather_workers must not be negative, got %d", c.Renderer.GatherWorkers)
	}
	if _, err := c.LogLevel(); err != nil {
		return err
	}
	return nil
}

// LogLevel parses the [log] level.
//
// Returns:
//   - slog.Level: the level
//   - error: error if the level name is unknown
func (c Config) LogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Log.Level)); err != nil {
		return slog.LevelInfo, fmt.Errorf("config: invalid log.level %q: %w", c.Log.Level, err)
	}
	return level, nil
}

// PresentMode maps the [renderer] present_mode onto the backend present mode.
//
// Returns:
//   - gpu.PresentMode: the present mode
func (c Config) PresentMode() gpu.PresentMode {
	if c.Renderer.PresentMode == PresentModeUncapped {
		return gpu.PresentModeUncapped
	}
	return gpu.PresentModeVSync
}

// RendererOptions maps the settings onto renderer builder options. Unset fields map to their defaults.
//
// Parameters:
//   - logger: the logger handed to the renderer, may be nil
//
// Returns:
//   - []renderer.RendererBuilderOption: the options
func (c Config) RendererOptions(logger *slog.Logger) []renderer.RendererBuilderOption {
	c = c.withDefaults()
	r, s := c.Renderer, c.Shadow
	clearColor := *r.ClearColor
	return []renderer.RendererBuilderOption{
		renderer.WithLogger(logger),
		renderer.WithMSAA(renderer.MSAASampleCount(r.SampleCount)),
		renderer.WithMaxTextures(r.MaxTextures),
		renderer.WithBindlessDisabled(r.DisableBindless),
		renderer.WithClassicCacheSize(r.ClassicCacheSize),
		renderer.WithInitialInstanceCapacity(r.InitialInstanceCapacity),
		renderer.WithInitialMaterialCapacity(r.InitialMaterialCapacity),
		renderer.WithClearColor(clearColor[0], clearColor[1], clearColor[2], clearColor[3]),
		renderer.WithShadowResolution(s.Resolution),
		renderer.WithShadowDepthBias(*s.DepthBias, *s.SlopeScale),
	}
}
