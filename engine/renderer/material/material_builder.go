package material

// MaterialBuilderOption is a function that configures a Material during construction.
type MaterialBuilderOption func(*Material)

// New creates a Material. Without options the material is an opaque, fully rough, white dielectric
// with no textures.
//
// Parameters:
//   - options: variadic list of MaterialBuilderOption functions to configure the material
//
// Returns:
//   - Material: the configured material value
func New(options ...MaterialBuilderOption) Material {
	m := Material{
		BaseColor: [4]float32{1, 1, 1, 1},
		Roughness: 255,
	}
	for i := range m.Textures {
		m.Textures[i] = NoTexture
	}
	for _, opt := range options {
		opt(&m)
	}
	return m
}

// WithBaseColor is an option builder that sets the albedo RGBA color of the material.
//
// Parameters:
//   - color: the base color as RGBA float32 values
//
// Returns:
//   - MaterialBuilderOption: a function that applies the base color option to a material
func WithBaseColor(color [4]float32) MaterialBuilderOption {
	return func(m *Material) {
		m.BaseColor = color
	}
}

// WithMetallic is an option builder that sets the metallic factor of the material.
//
// Parameters:
//   - metallic: the metallic factor (0.0 = dielectric, 1.0 = metal), quantized to 8 bits
//
// Returns:
//   - MaterialBuilderOption: a function that applies the metallic option to a material
func WithMetallic(metallic float32) MaterialBuilderOption {
	return func(m *Material) {
		m.Metallic = Quantize(metallic)
	}
}

// WithRoughness is an option builder that sets the roughness factor of the material.
//
// Parameters:
//   - roughness: the roughness factor (0.0 = smooth, 1.0 = rough), quantized to 8 bits
//
// Returns:
//   - MaterialBuilderOption: a function that applies the roughness option to a material
func WithRoughness(roughness float32) MaterialBuilderOption {
	return func(m *Material) {
		m.Roughness = Quantize(roughness)
	}
}

// WithEmissive is an option builder that sets the emissive RGB color of the material.
//
// Parameters:
//   - emissive: the emissive color, each channel quantized to 8 bits
//
// Returns:
//   - MaterialBuilderOption: a function that applies the emissive option to a material
func WithEmissive(emissive [3]float32) MaterialBuilderOption {
	return func(m *Material) {
		for i, c := range emissive {
			m.Emissive[i] = Quantize(c)
		}
	}
}

// WithTexture is an option builder that binds a texture index to a slot and sets the slot's enable flag.
//
// Parameters:
//   - slot: the texture slot
//   - index: the texture registry index; NoTexture clears the slot
//
// Returns:
//   - MaterialBuilderOption: a function that applies the texture option to a material
func WithTexture(slot TextureSlot, index uint16) MaterialBuilderOption {
	return func(m *Material) {
		if slot < 0 || slot >= TextureSlotCount {
			return
		}
		m.Textures[slot] = index
		if index == NoTexture {
			m.Flags &^= FlagTextureBaseColor << slot
		} else {
			m.Flags |= FlagTextureBaseColor << slot
		}
	}
}

// WithFlags is an option builder that sets or clears feature flags.
//
// Parameters:
//   - flags: the flags to change
//   - enabled: true to set the flags, false to clear them
//
// Returns:
//   - MaterialBuilderOption: a function that applies the flags option to a material
func WithFlags(flags Flags, enabled bool) MaterialBuilderOption {
	return func(m *Material) {
		if enabled {
			m.Flags |= flags
		} else {
			m.Flags &^= flags
		}
	}
}

// WithAlphaBlend is an option builder that toggles alpha blending.
//
// Parameters:
//   - enabled: true to blend the material in the transparent pass
//
// Returns:
//   - MaterialBuilderOption: a function that applies the alpha blend option to a material
func WithAlphaBlend(enabled bool) MaterialBuilderOption {
	return WithFlags(FlagAlphaBlend, enabled)
}

// WithUnlit is an option builder that toggles unlit shading.
//
// Parameters:
//   - enabled: true to skip lighting and shadow casting
//
// Returns:
//   - MaterialBuilderOption: a function that applies the unlit option to a material
func WithUnlit(enabled bool) MaterialBuilderOption {
	return WithFlags(FlagUnlit, enabled)
}
