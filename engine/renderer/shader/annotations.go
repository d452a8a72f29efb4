// Package shader assembles the renderer's WGSL programs. Programs carry single-line //@oxy: annotations
// that the PreProcessor expands into shared struct definitions, bind group declarations and the material
// texture bindings of the active texture layout.
package shader

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"
)

// annotationPrefix is the marker that identifies an Oxy annotation within a WGSL comment line.
// Every annotation must appear on a line beginning with "//" followed by this prefix.
const annotationPrefix = "@oxy:"

// AnnotationType identifies the kind of annotation parsed from a WGSL comment line.
type AnnotationType string

const (
	// annotationTypeInclude injects the WGSL source of a registered struct definition
	// into the shader at the annotation site. This annotation does not produce a
	// declaration and is consumed entirely during pre-processing.
	//
	// Syntax: //@oxy:include <struct_type>
	//
	// Example: //@oxy:include camera
	annotationTypeInclude AnnotationType = "include"

	// AnnotationTypeBindingGroup generates a WGSL @group/@binding variable declaration
	// and appends an Annotation to the PreProcessor's declarations list.
	//
	// Syntax: //@oxy:group <group> <binding> <address_space> <var_name> <type>
	//
	// Example: //@oxy:group 0 0 storage_uniform camera camera
	AnnotationTypeBindingGroup AnnotationType = "group"

	// AnnotationTypeTextures generates the material texture declarations of the active
	// texture layout at the given group, starting at binding 0, together with the
	// sample_material_texture(slot, index, uv) helper the fragment shader calls.
	//
	// Syntax: //@oxy:textures <group>
	//
	// Example: //@oxy:textures 2
	AnnotationTypeTextures AnnotationType = "textures"
)

// Annotation represents a single parsed @oxy: annotation from a WGSL shader source line.
type Annotation struct {
	// Type identifies which annotation was parsed (include, group, or textures).
	Type AnnotationType

	// Args holds the annotation's arguments. The contents depend on Type:
	//   - include:  [0] = struct type key (e.g. "camera")
	//   - group:    [0] = address space, [1] = var name, [2] = WGSL type key
	//   - textures: empty
	Args []AnnotationArg

	// Line is the 1-based line number in the original WGSL source where this annotation
	// was found. Used for error reporting.
	Line int

	// Group is the @group index for group and textures annotations. Nil for include annotations.
	Group *int

	// Binding is the @binding index for group annotations. Nil otherwise.
	Binding *int
}

// AnnotationArg is a typed string constant used as an argument in annotations.
type AnnotationArg string

// ── Struct type arguments ──────────────────────────────────────────────────────
// These identify registered WGSL struct types. They can appear in @oxy:include annotations
// and in @oxy:group annotations (as the type field, optionally wrapped in array<>).

const (
	// AnnotationArgCamera identifies the CameraUniform struct.
	// Source: engine/camera/assets/camera.wgsl
	AnnotationArgCamera AnnotationArg = "camera"

	// annotationArgVertex identifies the VertexInput struct of the standard mesh layout.
	// Source: engine/renderer/mesh/assets/vertex.wgsl
	annotationArgVertex AnnotationArg = "vertex"

	// AnnotationArgLights identifies the Lights uniform block.
	// Source: engine/light/assets/lights.wgsl
	AnnotationArgLights AnnotationArg = "lights"

	// AnnotationArgShadowUniform identifies the ShadowUniform struct for the shadow depth pass.
	// Source: engine/light/assets/shadow_uniform.wgsl
	AnnotationArgShadowUniform AnnotationArg = "shadow_uniform"

	// AnnotationArgInstance identifies the per-instance record of the instance storage buffer.
	// Source: engine/renderer/buffers/assets/instance.wgsl
	AnnotationArgInstance AnnotationArg = "instance"

	// AnnotationArgMaterial identifies the per-material record of the material storage buffer.
	// Source: engine/renderer/material/assets/material.wgsl
	AnnotationArgMaterial AnnotationArg = "material"
)

// ── Address space arguments ────────────────────────────────────────────────────
// These specify the WGSL variable address space in @oxy:group annotations.

const (
	// annotationArgStorageTypeUniform maps to var<uniform> in WGSL.
	annotationArgStorageTypeUniform AnnotationArg = "storage_uniform"

	// annotationArgStorageTypeRead maps to var<storage, read> in WGSL.
	annotationArgStorageTypeRead AnnotationArg = "storage_read"
)

// validStructTypes lists all AnnotationArg values that are accepted as struct type
// arguments. Each entry must have a corresponding registryEntry in the PreProcessor's
// structRegistry.
var validStructTypes = []AnnotationArg{
	AnnotationArgCamera,
	annotationArgVertex,
	AnnotationArgLights,
	AnnotationArgShadowUniform,
	AnnotationArgInstance,
	AnnotationArgMaterial,
}

// validAddressSpaces lists all AnnotationArg values that are accepted as address
// space arguments in @oxy:group annotations.
var validAddressSpaces = []AnnotationArg{
	annotationArgStorageTypeUniform,
	annotationArgStorageTypeRead,
}

// ErrMalformedAnnotation is wrapped by every annotation parse error.
var ErrMalformedAnnotation = errors.New("malformed @oxy annotation")

func annotationError(lineNum int, format string, args ...any) error {
	return fmt.Errorf("line %d: %w: %s", lineNum, ErrMalformedAnnotation, fmt.Sprintf(format, args...))
}

// parseAnnotation parses one WGSL source line. Lines without the annotation prefix yield nil and no error.
//
// Parameters:
//   - line: the raw WGSL source line
//   - lineNum: the 1-based line number used in errors
//
// Returns:
//   - *Annotation: the parsed annotation, or nil if the line is not an annotation
//   - error: an error wrapping ErrMalformedAnnotation
func parseAnnotation(line string, lineNum int) (*Annotation, error) {
	_, after, ok := strings.Cut(strings.TrimSpace(line), annotationPrefix)
	if !ok {
		return nil, nil
	}
	fields := strings.Fields(after)
	if len(fields) == 0 {
		return nil, annotationError(lineNum, "missing annotation type")
	}

	kind, args := AnnotationType(fields[0]), fields[1:]
	var a *Annotation
	var err error
	switch kind {
	case annotationTypeInclude:
		a, err = parseInclude(args)
	case AnnotationTypeBindingGroup:
		a, err = parseBindingGroup(args)
	case AnnotationTypeTextures:
		a, err = parseTextures(args)
	default:
		return nil, annotationError(lineNum, "unknown type %q", kind)
	}
	if err != nil {
		return nil, annotationError(lineNum, "%s: %v", kind, err)
	}
	a.Type, a.Line = kind, lineNum
	return a, nil
}

// include <struct_type>
func parseInclude(args []string) (*Annotation, error) {
	if len(args) != 1 {
		return nil, fmt.Errorf("want 1 argument, got %d", len(args))
	}
	arg := AnnotationArg(args[0])
	if !slices.Contains(validStructTypes, arg) {
		return nil, fmt.Errorf("unknown struct type %q", arg)
	}
	return &Annotation{Args: []AnnotationArg{arg}}, nil
}

// group <group> <binding> <address_space> <var_name> <type>
func parseBindingGroup(args []string) (*Annotation, error) {
	if len(args) != 5 {
		return nil, fmt.Errorf("want 5 arguments (group, binding, address space, var name, type), got %d", len(args))
	}
	group, err := parseIndex("group", args[0])
	if err != nil {
		return nil, err
	}
	binding, err := parseIndex("binding", args[1])
	if err != nil {
		return nil, err
	}
	space := AnnotationArg(args[2])
	if !slices.Contains(validAddressSpaces, space) {
		return nil, fmt.Errorf("unknown address space %q", space)
	}
	elem, isArray := strings.CutPrefix(args[4], "array<")
	if isArray {
		elem = strings.TrimSuffix(elem, ">")
	}
	if !slices.Contains(validStructTypes, AnnotationArg(elem)) {
		return nil, fmt.Errorf("unknown struct type %q", elem)
	}
	return &Annotation{
		Args:    []AnnotationArg{space, AnnotationArg(args[3]), AnnotationArg(args[4])},
		Group:   &group,
		Binding: &binding,
	}, nil
}

// textures <group>
func parseTextures(args []string) (*Annotation, error) {
	if len(args) != 1 {
		return nil, fmt.Errorf("want 1 argument (group), got %d", len(args))
	}
	group, err := parseIndex("group", args[0])
	if err != nil {
		return nil, err
	}
	return &Annotation{Group: &group}, nil
}

func parseIndex(name, s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("invalid %s index %q", name, s)
	}
	return n, nil
}
