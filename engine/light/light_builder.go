package light

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// lightConfig collects the options shared by all light kinds before a concrete light is built.
type lightConfig struct {
	position   mgl32.Vec3
	direction  mgl32.Vec3
	color      mgl32.Vec3
	intensity  float32
	lightRange float32
	innerCone  float32
	outerCone  float32
	params     [4]float32
}

// LightBuilderOption is a function that configures a light during construction.
type LightBuilderOption func(*lightConfig)

func newLightConfig(opts []LightBuilderOption) lightConfig {
	c := lightConfig{
		direction:  mgl32.Vec3{0, -1, 0},
		color:      mgl32.Vec3{1, 1, 1},
		intensity:  1.0,
		lightRange: 10.0,
		innerCone:  mgl32.DegToRad(25),
		outerCone:  mgl32.DegToRad(35),
		params:     [4]float32{0, DefaultShadowBias, DefaultShadowNormalBias, 1},
	}
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

// NewDirectional creates a directional light with sensible defaults and any provided options applied.
//
// Parameters:
//   - opts: variadic list of LightBuilderOption functions to configure the light
//
// Returns:
//   - DirectionalLight: the configured light, without a shadow projection
func NewDirectional(opts ...LightBuilderOption) DirectionalLight {
	c := newLightConfig(opts)
	return DirectionalLight{
		Direction: c.direction,
		Color:     c.color,
		Intensity: c.intensity,
		Params:    c.params,
	}
}

// NewSpot creates a spot light with sensible defaults and any provided options applied.
//
// Parameters:
//   - opts: variadic list of LightBuilderOption functions to configure the light
//
// Returns:
//   - SpotLight: the configured light, without a shadow projection
func NewSpot(opts ...LightBuilderOption) SpotLight {
	c := newLightConfig(opts)
	return SpotLight{
		Position:  c.position,
		Direction: c.direction,
		Color:     c.color,
		Intensity: c.intensity,
		Range:     c.lightRange,
		InnerCone: c.innerCone,
		OuterCone: c.outerCone,
		Params:    c.params,
	}
}

// NewPoint creates a point light with sensible defaults and any provided options applied.
//
// Parameters:
//   - opts: variadic list of LightBuilderOption functions to configure the light
//
// Returns:
//   - PointLight: the configured light, without a shadow projection
func NewPoint(opts ...LightBuilderOption) PointLight {
	c := newLightConfig(opts)
	return PointLight{
		Position:  c.position,
		Color:     c.color,
		Intensity: c.intensity,
		Range:     c.lightRange,
		Params:    c.params,
	}
}

// WithPosition is an option builder that sets the world-space position of the light.
//
// Parameters:
//   - x: the x position component
//   - y: the y position component
//   - z: the z position component
//
// Returns:
//   - LightBuilderOption: a function that applies the position option
func WithPosition(x, y, z float32) LightBuilderOption {
	return func(c *lightConfig) {
		c.position = mgl32.Vec3{x, y, z}
	}
}

// WithDirection is an option builder that sets the direction of the light.
// The direction is normalized before storing; a zero vector is ignored.
//
// Parameters:
//   - x: the x direction component
//   - y: the y direction component
//   - z: the z direction component
//
// Returns:
//   - LightBuilderOption: a function that applies the direction option
func WithDirection(x, y, z float32) LightBuilderOption {
	return func(c *lightConfig) {
		d := mgl32.Vec3{x, y, z}
		if d.Len() > 0 {
			c.direction = d.Normalize()
		}
	}
}

// WithColor is an option builder that sets the RGB color of the light.
//
// Parameters:
//   - r: the red color component
//   - g: the green color component
//   - b: the blue color component
//
// Returns:
//   - LightBuilderOption: a function that applies the color option
func WithColor(r, g, b float32) LightBuilderOption {
	return func(c *lightConfig) {
		c.color = mgl32.Vec3{r, g, b}
	}
}

// WithIntensity is an option builder that sets the scalar intensity multiplier.
//
// Parameters:
//   - intensity: the intensity value
//
// Returns:
//   - LightBuilderOption: a function that applies the intensity option
func WithIntensity(intensity float32) LightBuilderOption {
	return func(c *lightConfig) {
		c.intensity = intensity
	}
}

// WithRange is an option builder that sets the maximum attenuation distance for point and spot lights.
//
// Parameters:
//   - lightRange: the range value
//
// Returns:
//   - LightBuilderOption: a function that applies the range option
func WithRange(lightRange float32) LightBuilderOption {
	return func(c *lightConfig) {
		c.lightRange = lightRange
	}
}

// WithSpotCone is an option builder that sets the inner and outer cone half-angles for spot lights.
// Angles are specified in degrees; the outer angle is clamped to at least the inner angle.
//
// Parameters:
//   - innerDeg: inner cone half-angle in degrees
//   - outerDeg: outer cone half-angle in degrees
//
// Returns:
//   - LightBuilderOption: a function that applies the spot cone option
func WithSpotCone(innerDeg, outerDeg float32) LightBuilderOption {
	return func(c *lightConfig) {
		c.innerCone = mgl32.DegToRad(innerDeg)
		c.outerCone = mgl32.DegToRad(math32.Max(innerDeg, outerDeg))
	}
}

// WithCastsShadows is an option builder that sets the shadow flag in Params.
//
// Parameters:
//   - castsShadows: true to render a shadow map for the light
//
// Returns:
//   - LightBuilderOption: a function that applies the shadow option
func WithCastsShadows(castsShadows bool) LightBuilderOption {
	return func(c *lightConfig) {
		c.params[ParamShadow] = 0
		if castsShadows {
			c.params[ParamShadow] = 1
		}
	}
}

// WithShadowBias is an option builder that sets the depth and normal-offset bias used when sampling the
// light's shadow map.
//
// Parameters:
//   - depth: the constant depth comparison bias
//   - normal: the world-space normal-offset distance
//
// Returns:
//   - LightBuilderOption: a function that applies the bias option
func WithShadowBias(depth, normal float32) LightBuilderOption {
	return func(c *lightConfig) {
		c.params[ParamDepthBias] = depth
		c.params[ParamNormalBias] = normal
	}
}

// WithShadowStrength is an option builder that sets how dark the light's shadows are, in [0, 1].
//
// Parameters:
//   - strength: 0 disables darkening, 1 fully blocks the light
//
// Returns:
//   - LightBuilderOption: a function that applies the strength option
func WithShadowStrength(strength float32) LightBuilderOption {
	return func(c *lightConfig) {
		c.params[ParamShadowStrength] = mgl32.Clamp(strength, 0, 1)
	}
}
