// pre_processor.go implements the Oxy WGSL shader pre-processor. It scans shader
// source code for @oxy: annotations, replaces them with generated WGSL declarations
// or injected struct source, and collects a declarations list that callers use to
// check the program against the bind group layouts it is paired with.
//
// The pre-processor maintains two registries:
//   - structRegistry: maps AnnotationArg keys to embedded WGSL struct sources and their
//     resolved type names. Used by @oxy:include (to inject the struct source) and
//     @oxy:group (to resolve the WGSL type name in the generated declaration).
//   - addressSpaceRegistry: maps address space argument keys to WGSL var<> syntax strings.
package shader

import (
	"fmt"
	"strings"

	"github.com/Carmen-Shannon/oxy-render/engine/camera"
	"github.com/Carmen-Shannon/oxy-render/engine/light"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer/buffers"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer/material"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer/mesh"
)

// TextureLayout selects the declarations emitted for an @oxy:textures annotation.
type TextureLayout uint8

const (
	// TextureLayoutBindless declares one texture_2d_array holding every registered texture
	// (binding 0) and a filtering sampler (binding 1).
	TextureLayoutBindless TextureLayout = iota

	// TextureLayoutClassic declares one texture_2d per material texture slot
	// (bindings 0..4) and a filtering sampler (binding 5).
	TextureLayoutClassic
)

// String returns the name of the layout.
func (l TextureLayout) String() string {
	if l == TextureLayoutClassic {
		return "classic"
	}
	return "bindless"
}

// registryEntry pairs a WGSL struct source string (embedded from a .wgsl asset file)
// with the resolved WGSL type name used in generated @group/@binding declarations.
type registryEntry struct {
	// Source is the raw WGSL struct definition text injected by @oxy:include.
	Source string

	// Type is the WGSL type name emitted in @oxy:group declarations (e.g. "CameraUniform").
	Type string
}

// preProcessor is the implementation of the PreProcessor interface.
type preProcessor struct {
	// structRegistry maps struct type argument keys to their embedded WGSL source and type name.
	structRegistry map[AnnotationArg]registryEntry

	// addressSpaceRegistry maps address space argument keys to WGSL var<> syntax strings.
	addressSpaceRegistry map[AnnotationArg]string

	// textureLayout selects the output of @oxy:textures annotations.
	textureLayout TextureLayout

	// declarations accumulates group and textures annotations during a Process call.
	// Reset at the start of each Process invocation.
	declarations []Annotation
}

// PreProcessor processes raw WGSL shader source code containing @oxy: annotations,
// replacing them with generated declarations or injected struct sources while collecting
// a declarations list.
type PreProcessor interface {
	// Process takes raw WGSL shader source code and pre-processes it by replacing
	// @oxy: annotations with their corresponding WGSL output. @oxy:include annotations
	// are replaced with embedded struct source text. @oxy:group annotations are replaced
	// with generated @group/@binding variable declarations. @oxy:textures annotations are
	// replaced with the texture declarations of the configured TextureLayout.
	//
	// The declarations list is reset at the start of each call and can be retrieved
	// via Declarations() after Process returns.
	//
	// Parameters:
	//   - source: the raw WGSL shader source code containing annotations to be processed
	//
	// Returns:
	//   - string: the processed WGSL shader source code with annotations replaced
	//   - error: an error if any annotation is malformed or references an unknown type
	Process(source string) (string, error)

	// Declarations returns the group and textures annotations collected during the most
	// recent call to Process, in source-order.
	//
	// Returns:
	//   - []Annotation: the declarations collected during the last Process call
	Declarations() []Annotation

	// TextureLayout returns the layout used for @oxy:textures annotations.
	//
	// Returns:
	//   - TextureLayout: the configured texture layout
	TextureLayout() TextureLayout
}

var _ PreProcessor = &preProcessor{}

// NewPreProcessor creates a new PreProcessor with all registered struct types and
// address space mappings pre-populated.
//
// Parameters:
//   - options: variadic list of PreProcessorBuilderOption functions to configure the pre-processor
//
// Returns:
//   - PreProcessor: a ready-to-use pre-processor instance
func NewPreProcessor(options ...PreProcessorBuilderOption) PreProcessor {
	p := &preProcessor{
		structRegistry: map[AnnotationArg]registryEntry{
			AnnotationArgCamera:        {Source: camera.GPUCameraUniformSource, Type: "CameraUniform"},
			annotationArgVertex:        {Source: mesh.GPUVertexSource, Type: "VertexInput"},
			AnnotationArgLights:        {Source: light.GPULightsSource, Type: "Lights"},
			AnnotationArgShadowUniform: {Source: light.GPUShadowUniformSource, Type: "ShadowUniform"},
			AnnotationArgInstance:      {Source: buffers.GPUInstanceSource, Type: "Instance"},
			AnnotationArgMaterial:      {Source: material.GPUMaterialSource, Type: "Material"},
		},
		addressSpaceRegistry: map[AnnotationArg]string{
			annotationArgStorageTypeUniform: "var<uniform>",
			annotationArgStorageTypeRead:    "var<storage, read>",
		},
	}
	for _, opt := range options {
		opt(p)
	}
	return p
}

func (p *preProcessor) Process(source string) (string, error) {
	p.declarations = p.declarations[:0]

	lines := strings.Split(source, "\n")
	out := make([]string, 0, len(lines))

	for i, line := range lines {
		a, err := parseAnnotation(line, i+1)
		if err != nil {
			return "", err
		}
		if a == nil {
			out = append(out, line)
			continue
		}

		switch a.Type {
		case annotationTypeInclude:
			entry, ok := p.structRegistry[a.Args[0]]
			if !ok {
				return "", fmt.Errorf("line %d: unknown @oxy:include argument %q", i+1, a.Args[0])
			}
			out = append(out, entry.Source)
		case AnnotationTypeBindingGroup:
			addrSpace := p.addressSpaceRegistry[a.Args[0]]
			varName := string(a.Args[1])
			var wgslType string
			if inner, ok := strings.CutPrefix(string(a.Args[2]), "array<"); ok {
				inner = strings.TrimSuffix(inner, ">")
				wgslType = fmt.Sprintf("array<%s>", p.structRegistry[AnnotationArg(inner)].Type)
			} else {
				wgslType = p.structRegistry[a.Args[2]].Type
			}
			out = append(out, fmt.Sprintf("@group(%d) @binding(%d) %s %s: %s;", *a.Group, *a.Binding, addrSpace, varName, wgslType))
			p.declarations = append(p.declarations, *a)
		case AnnotationTypeTextures:
			out = append(out, p.textureDeclarations(*a.Group))
			p.declarations = append(p.declarations, *a)
		default:
			return "", fmt.Errorf("line %d: unknown annotation type %q", i+1, a.Type)
		}
	}
	return strings.Join(out, "\n"), nil
}

func (p *preProcessor) Declarations() []Annotation {
	return p.declarations
}

func (p *preProcessor) TextureLayout() TextureLayout {
	return p.textureLayout
}

// textureDeclarations renders the material texture bindings of the configured layout at group.
func (p *preProcessor) textureDeclarations(group int) string {
	var b strings.Builder
	switch p.textureLayout {
	case TextureLayoutClassic:
		for slot := range int(material.TextureSlotCount) {
			fmt.Fprintf(&b, "@group(%d) @binding(%d) var material_texture_%d: texture_2d<f32>;\n", group, slot, slot)
		}
		fmt.Fprintf(&b, "@group(%d) @binding(%d) var material_sampler: sampler;\n\n", group, material.TextureSlotCount)
		b.WriteString("fn sample_material_texture(slot: u32, index: u32, uv: vec2<f32>) -> vec4<f32> {\n")
		b.WriteString("    switch slot {\n")
		for slot := range int(material.TextureSlotCount) - 1 {
			fmt.Fprintf(&b, "        case %du: { return textureSampleLevel(material_texture_%d, material_sampler, uv, 0.0); }\n", slot, slot)
		}
		fmt.Fprintf(&b, "        default: { return textureSampleLevel(material_texture_%d, material_sampler, uv, 0.0); }\n", material.TextureSlotCount-1)
		b.WriteString("    }\n}")
	default:
		fmt.Fprintf(&b, "@group(%d) @binding(0) var material_textures: texture_2d_array<f32>;\n", group)
		fmt.Fprintf(&b, "@group(%d) @binding(1) var material_sampler: sampler;\n\n", group)
		b.WriteString("fn sample_material_texture(slot: u32, index: u32, uv: vec2<f32>) -> vec4<f32> {\n")
		b.WriteString("    return textureSampleLevel(material_textures, material_sampler, uv, index, 0.0);\n}")
	}
	return b.String()
}

// GroupCount returns the number of bind groups a processed program declares, which is one more than the
// highest declared group index.
//
// Parameters:
//   - declarations: the declarations returned by PreProcessor.Declarations
//
// Returns:
//   - int: the bind group count, 0 if nothing was declared
func GroupCount(declarations []Annotation) int {
	n := 0
	for _, d := range declarations {
		if d.Group != nil {
			n = max(n, *d.Group+1)
		}
	}
	return n
}
