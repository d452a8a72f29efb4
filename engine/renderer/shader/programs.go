package shader

import (
	"embed"
	"fmt"
)

//go:embed assets/*.wgsl
var programs embed.FS

// Program names one of the bundled WGSL programs.
type Program string

const (
	// ProgramMesh is the lit forward program used by the main, transparent and overlay pipelines.
	ProgramMesh Program = "mesh"

	// ProgramPrepass is the depth-only program of the depth prepass.
	ProgramPrepass Program = "prepass"

	// ProgramShadow is the depth-only program rendered once per shadow map layer.
	ProgramShadow Program = "shadow"

	// ProgramBackground draws the sky gradient behind the opaque geometry.
	ProgramBackground Program = "background"

	// ProgramComposite copies the resolved scene color into the frame target.
	ProgramComposite Program = "composite"
)

// Entry points shared by all bundled programs.
const (
	VertexEntry   = "vs_main"
	FragmentEntry = "fs_main"
)

// Load reads a bundled program and runs it through the pre-processor.
//
// Parameters:
//   - program: the program to load
//   - pp: the pre-processor to run; its declarations describe the program afterwards
//
// Returns:
//   - string: the processed WGSL source
//   - error: error if the program is unknown or pre-processing failed
func Load(program Program, pp PreProcessor) (string, error) {
	data, err := programs.ReadFile("assets/" + string(program) + ".wgsl")
	if err != nil {
		return "", fmt.Errorf("shader: failed to read program %q: %w", program, err)
	}
	source, err := pp.Process(string(data))
	if err != nil {
		return "", fmt.Errorf("shader: failed to pre-process program %q: %w", program, err)
	}
	return source, nil
}
