package main

import (
	"testing"

	"github.com/Carmen-Shannon/oxy-render/engine/camera"
	"github.com/Carmen-Shannon/oxy-render/engine/gpu/gputest"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer/batcher"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer/material"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer/mesh"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer/texture"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestScene(t *testing.T, cubes int) *demoScene {
	t.Helper()
	meshes := mesh.NewRegistry(gputest.NewDevice())
	t.Cleanup(meshes.Release)

	s, err := newDemoScene(meshes, texture.NewRegistry(), cubes)
	require.NoError(t, err)
	return s
}

func TestNewDemoScene(t *testing.T) {
	s := newTestScene(t, 9)

	// ground, nine cubes, glass pane, overlay billboard
	require.Len(t, s.entities, 12)
	_, textured := s.entities[0].material.Texture(material.SlotBaseColor)
	assert.True(t, textured)
	assert.True(t, s.entities[10].material.AlphaBlend())
	assert.True(t, s.entities[11].overlay)
}

func TestResolverCulls(t *testing.T) {
	s := newTestScene(t, 1)
	cam := camera.New()
	resolve := s.Resolver(cam.Frustum())

	cube := s.entities[1]
	obj, ok := resolve(cube)
	require.True(t, ok)
	assert.Equal(t, cube.mesh, obj.Mesh)
	assert.Equal(t, batcher.DefaultDepth, obj.Depth)

	cube.position = mgl32.Vec3{0, 0, 1000}
	_, ok = resolve(cube)
	assert.False(t, ok)
}

func TestResolverFeedsGather(t *testing.T) {
	s := newTestScene(t, 4)
	cam := camera.New(camera.WithPosition(0, 30, 30))

	objects := renderer.CollectRenderObjects(nil, s.entities, s.Resolver(cam.Frustum()))
	require.NotEmpty(t, objects)
	assert.True(t, objects[len(objects)-1].ForceOverlay)
}

func TestPauseStopsClock(t *testing.T) {
	s := newTestScene(t, 1)
	s.Update(0.5)
	s.TogglePause()
	s.Update(0.5)
	assert.Equal(t, float32(0.5), s.elapsed)

	s.TogglePause()
	s.Update(0.25)
	assert.Equal(t, float32(0.75), s.elapsed)
}

func TestLightsCastShadows(t *testing.T) {
	s := newTestScene(t, 1)
	lights := s.Lights()

	require.Len(t, lights.Directional, 1)
	require.Len(t, lights.Spot, 1)
	require.Len(t, lights.Point, 1)
	assert.NotNil(t, lights.Directional[0].Shadow)
	assert.NotNil(t, lights.Spot[0].Shadow)
	assert.NotNil(t, lights.Point[0].Shadow)
}

func TestChecker(t *testing.T) {
	img := checker(64, 16)
	assert.Equal(t, img.RGBAAt(0, 0), img.RGBAAt(16, 16))
	assert.NotEqual(t, img.RGBAAt(0, 0), img.RGBAAt(16, 0))
}
