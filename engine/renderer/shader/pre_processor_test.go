package shader

import (
	"strings"
	"testing"

	"github.com/Carmen-Shannon/oxy-render/engine/camera"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProcessIncludeAndGroup(t *testing.T) {
	pp := NewPreProcessor()
	src := strings.Join([]string{
		"//@oxy:include camera",
		"//@oxy:group 0 0 storage_uniform camera camera",
		"//@oxy:group 1 1 storage_read materials array<material>",
		"fn keep() {}",
	}, "\n")

	out, err := pp.Process(src)
	require.NoError(t, err)
	assert.Contains(t, out, strings.TrimSpace(camera.GPUCameraUniformSource))
	assert.Contains(t, out, "@group(0) @binding(0) var<uniform> camera: CameraUniform;")
	assert.Contains(t, out, "@group(1) @binding(1) var<storage, read> materials: array<Material>;")
	assert.Contains(t, out, "fn keep() {}")
	assert.NotContains(t, out, annotationPrefix)

	decls := pp.Declarations()
	require.Len(t, decls, 2)
	assert.Equal(t, 1, *decls[1].Group)
	assert.Equal(t, 1, *decls[1].Binding)
	assert.Equal(t, 2, GroupCount(decls))
}

func TestProcessTexturesFollowsLayout(t *testing.T) {
	tests := []struct {
		name    string
		layout  TextureLayout
		want    []string
		notWant string
	}{
		{
			name:    "bindless",
			layout:  TextureLayoutBindless,
			want:    []string{"@group(2) @binding(0) var material_textures: texture_2d_array<f32>;", "@group(2) @binding(1) var material_sampler: sampler;"},
			notWant: "material_texture_0",
		},
		{
			name:   "classic",
			layout: TextureLayoutClassic,
			want: []string{
				"@group(2) @binding(0) var material_texture_0: texture_2d<f32>;",
				"@group(2) @binding(4) var material_texture_4: texture_2d<f32>;",
				"@group(2) @binding(5) var material_sampler: sampler;",
				"case 3u:",
			},
			notWant: "texture_2d_array",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pp := NewPreProcessor(WithTextureLayout(tt.layout))
			out, err := pp.Process("//@oxy:textures 2")
			require.NoError(t, err)
			for _, w := range tt.want {
				assert.Contains(t, out, w)
			}
			assert.Contains(t, out, "fn sample_material_texture(slot: u32, index: u32, uv: vec2<f32>) -> vec4<f32>")
			assert.NotContains(t, out, tt.notWant)
			assert.Equal(t, 3, GroupCount(pp.Declarations()))
			assert.Equal(t, tt.layout, pp.TextureLayout())
		})
	}
}

func TestProcessRejectsMalformedAnnotations(t *testing.T) {
	tests := []string{
		"//@oxy:",
		"//@oxy:include",
		"//@oxy:include skeleton",
		"//@oxy:group 0 0 storage_uniform camera",
		"//@oxy:group x 0 storage_uniform camera camera",
		"//@oxy:group 0 0 storage_write camera camera",
		"//@oxy:group 0 0 storage_read lights array<bones>",
		"//@oxy:textures",
		"//@oxy:textures two",
		"//@oxy:textures -1",
		"//@oxy:provider 0 0 material",
	}
	for _, src := range tests {
		_, err := NewPreProcessor().Process("fn a() {}\n" + src)
		assert.Error(t, err, src)
		if err != nil {
			assert.ErrorIs(t, err, ErrMalformedAnnotation, src)
			assert.Contains(t, err.Error(), "line 2", src)
		}
	}
}

func TestDeclarationsResetBetweenRuns(t *testing.T) {
	pp := NewPreProcessor()
	_, err := pp.Process("//@oxy:group 0 0 storage_uniform camera camera")
	require.NoError(t, err)
	_, err = pp.Process("fn a() {}")
	require.NoError(t, err)
	assert.Empty(t, pp.Declarations())
}

func TestLoadBundledPrograms(t *testing.T) {
	groups := map[Program]int{
		ProgramMesh:       3,
		ProgramPrepass:    2,
		ProgramShadow:     2,
		ProgramBackground: 1,
		ProgramComposite:  0,
	}
	for _, layout := range []TextureLayout{TextureLayoutBindless, TextureLayoutClassic} {
		for program, want := range groups {
			pp := NewPreProcessor(WithTextureLayout(layout))
			src, err := Load(program, pp)
			require.NoError(t, err, "%s/%s", layout, program)
			assert.Contains(t, src, "fn "+VertexEntry, program)
			assert.NotContains(t, src, annotationPrefix, program)
			assert.Equal(t, want, GroupCount(pp.Declarations()), program)
		}
	}

	_, err := Load("missing", NewPreProcessor())
	assert.Error(t, err)
}
