package shader

// PreProcessorBuilderOption is a function that configures a PreProcessor during construction.
type PreProcessorBuilderOption func(*preProcessor)

// WithTextureLayout selects the declarations emitted for @oxy:textures annotations.
//
// Parameters:
//   - layout: the material texture layout
//
// Returns:
//   - PreProcessorBuilderOption: a function that applies the texture layout option
func WithTextureLayout(layout TextureLayout) PreProcessorBuilderOption {
	return func(p *preProcessor) {
		p.textureLayout = layout
	}
}
