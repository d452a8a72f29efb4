package main

import (
	"fmt"
	"image"
	"image/color"

	"github.com/Carmen-Shannon/oxy-render/common"
	"github.com/Carmen-Shannon/oxy-render/engine/light"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer/batcher"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer/material"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer/mesh"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer/texture"
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

const (
	cubeSpacing = 3.0
	groundSize  = 200.0
)

// entity is one scene object before its transform is resolved for the frame.
type entity struct {
	mesh     mesh.Handle
	material material.Material
	position mgl32.Vec3
	scale    float32
	spin     float32
	radius   float32
	depth    batcher.DepthState
	overlay  bool
}

// demoScene holds a grid of spinning cubes on a textured ground plane, a glass pane, an overlay billboard and
// three shadow-casting lights.
type demoScene struct {
	entities []entity
	elapsed  float32
	paused   bool
}

func newDemoScene(meshes mesh.Registry, textures texture.Registry, cubes int) (*demoScene, error) {
	upload := func(label string, vertices []mesh.Vertex, indices []uint32) (mesh.Handle, float32, error) {
		h, err := meshes.Upload(label, vertices, indices)
		if err != nil {
			return 0, 0, fmt.Errorf("demo: failed to upload %s mesh: %w", label, err)
		}
		m, _ := meshes.Mesh(h)
		return h, m.Radius, nil
	}
	cubeVerts, cubeIdx := mesh.Cube()
	cube, cubeRadius, err := upload("cube", cubeVerts, cubeIdx)
	if err != nil {
		return nil, err
	}
	planeVerts, planeIdx := mesh.Plane(groundSize)
	plane, planeRadius, err := upload("ground", planeVerts, planeIdx)
	if err != nil {
		return nil, err
	}
	quadVerts, quadIdx := mesh.Quad()
	quad, quadRadius, err := upload("quad", quadVerts, quadIdx)
	if err != nil {
		return nil, err
	}
	checkerIdx, err := textures.Add("checker", checker(256, 32))
	if err != nil {
		return nil, fmt.Errorf("demo: failed to add checker texture: %w", err)
	}

	s := &demoScene{}
	s.entities = append(s.entities, entity{
		mesh:     plane,
		material: material.New(material.WithTexture(material.SlotBaseColor, checkerIdx)),
		position: mgl32.Vec3{0, -1, 0},
		scale:    1,
		radius:   planeRadius,
		depth:    batcher.DefaultDepth,
	})

	side := max(int(math32.Ceil(math32.Sqrt(float32(cubes)))), 1)
	offset := float32(side-1) * cubeSpacing / 2
	for i := range cubes {
		x, z := i%side, i/side
		hue := float32(i) / float32(max(cubes, 1))
		s.entities = append(s.entities, entity{
			mesh:     cube,
			material: material.New(material.WithBaseColor(hueColor(hue))),
			position: mgl32.Vec3{float32(x)*cubeSpacing - offset, 0, float32(z)*cubeSpacing - offset},
			scale:    1,
			spin:     0.5 + hue,
			radius:   cubeRadius,
			depth:    batcher.DefaultDepth,
		})
	}

	s.entities = append(s.entities,
		entity{
			mesh:     quad,
			material: material.New(material.WithBaseColor([4]float32{0.4, 0.7, 1, 0.35}), material.WithAlphaBlend(true)),
			position: mgl32.Vec3{0, 1.5, offset + cubeSpacing},
			scale:    4,
			radius:   quadRadius,
			depth:    batcher.DepthState{Test: true},
		},
		entity{
			mesh:     quad,
			material: material.New(material.WithBaseColor([4]float32{1, 0.85, 0.2, 0.9}), material.WithUnlit(true)),
			position: mgl32.Vec3{0, 4, 0},
			scale:    0.75,
			radius:   quadRadius,
			overlay:  true,
		},
	)
	return s, nil
}

// Update advances the animation clock unless paused.
func (s *demoScene) Update(dt float32) {
	if !s.paused {
		s.elapsed += dt
	}
}

// TogglePause stops or resumes the animation.
func (s *demoScene) TogglePause() {
	s.paused = !s.paused
}

// Resolver returns the gather callback for the current frame: it spins each entity and drops the ones whose
// bounding sphere is outside the frustum.
func (s *demoScene) Resolver(frustum common.Frustum) func(entity) (batcher.RenderObject, bool) {
	t := s.elapsed
	return func(e entity) (batcher.RenderObject, bool) {
		if !frustum.ContainsSphere(e.position, e.radius*e.scale) {
			return batcher.RenderObject{}, false
		}
		model := mgl32.Translate3D(e.position.X(), e.position.Y(), e.position.Z()).
			Mul4(mgl32.HomogRotate3DY(e.spin * t)).
			Mul4(mgl32.Scale3D(e.scale, e.scale, e.scale))
		return batcher.RenderObject{
			Mesh:         e.mesh,
			Material:     e.material,
			Transform:    model,
			Depth:        e.depth,
			ForceOverlay: e.overlay,
		}, true
	}
}

// Lights builds the frame's lights: an orbiting sun, a spot light over the grid and a warm point light, all
// casting shadows.
func (s *demoScene) Lights() light.LightsData {
	angle := s.elapsed * 0.2
	lights := light.LightsData{
		Ambient: mgl32.Vec3{0.08, 0.08, 0.1},
		Directional: []light.DirectionalLight{
			light.NewDirectional(
				light.WithDirection(math32.Cos(angle), -1.5, math32.Sin(angle)),
				light.WithColor(1, 0.95, 0.85),
				light.WithIntensity(2.5),
				light.WithCastsShadows(true),
			),
		},
		Spot: []light.SpotLight{
			light.NewSpot(
				light.WithPosition(0, 12, 0),
				light.WithDirection(0, -1, 0),
				light.WithRange(30),
				light.WithSpotCone(20, 30),
				light.WithIntensity(4),
				light.WithCastsShadows(true),
			),
		},
		Point: []light.PointLight{
			light.NewPoint(
				light.WithPosition(6*math32.Cos(-angle*2), 3, 6*math32.Sin(-angle*2)),
				light.WithColor(1, 0.5, 0.1),
				light.WithRange(20),
				light.WithIntensity(3),
				light.WithCastsShadows(true),
			),
		},
	}
	lights.ComputeShadows(mgl32.Vec3{}, light.DefaultShadowFit())
	return lights
}

// checker builds a size x size two-tone checkerboard with cells of the given size.
func checker(size, cell int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, size, size))
	bright := color.RGBA{R: 200, G: 200, B: 200, A: 255}
	dark := color.RGBA{R: 90, G: 90, B: 100, A: 255}
	for y := range size {
		for x := range size {
			c := dark
			if (x/cell+y/cell)%2 == 0 {
				c = bright
			}
			img.SetRGBA(x, y, c)
		}
	}
	return img
}

// hueColor maps h in [0, 1) onto a saturated opaque color.
func hueColor(h float32) [4]float32 {
	channel := func(offset float32) float32 {
		return 0.5 + 0.5*math32.Cos(2*math32.Pi*(h+offset))
	}
	return [4]float32{channel(0), channel(2.0 / 3), channel(1.0 / 3), 1}
}
