package camera

import (
	"sync"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// orbitController is the implementation of the OrbitController interface.
type orbitController struct {
	mu *sync.Mutex

	target mgl32.Vec3

	// Spherical coordinates (offset from target)
	radius    float32
	azimuth   float32 // Horizontal angle around Y axis
	elevation float32 // Vertical angle from horizontal plane

	minRadius    float32
	maxRadius    float32
	minElevation float32
	maxElevation float32

	orbitSpeed float32
	zoomSpeed  float32
}

// OrbitController moves a camera on a sphere around a target point using spherical coordinates
// (radius, azimuth, elevation).
type OrbitController interface {
	// Orbit rotates the camera around the target by the given number of orbit speed steps.
	// Elevation is clamped to the configured bounds.
	//
	// Parameters:
	//   - azimuthSteps: horizontal steps, positive orbits right
	//   - elevationSteps: vertical steps, positive orbits up
	Orbit(azimuthSteps, elevationSteps float32)

	// Zoom adjusts the camera's distance from the target. Positive delta zooms in.
	//
	// Parameters:
	//   - delta: zoom amount scaled by the zoom speed
	Zoom(delta float32)

	// Position returns the camera's world-space position derived from the spherical coordinates.
	//
	// Returns:
	//   - mgl32.Vec3: world-space camera position
	Position() mgl32.Vec3

	// Target returns the orbit pivot.
	//
	// Returns:
	//   - mgl32.Vec3: world-space target position
	Target() mgl32.Vec3

	// Apply returns a copy of cam placed at the controller's position and looking at its target.
	//
	// Parameters:
	//   - cam: the camera whose projection settings are kept
	//
	// Returns:
	//   - Camera: the moved camera
	Apply(cam Camera) Camera
}

var _ OrbitController = &orbitController{}

// NewOrbitController creates a new orbit controller with sensible defaults.
//
// Parameters:
//   - options: functional options to configure the controller
//
// Returns:
//   - OrbitController: the newly created controller
func NewOrbitController(options ...OrbitControllerOption) OrbitController {
	oc := &orbitController{
		mu:        &sync.Mutex{},
		radius:    12.0,
		elevation: math32.Pi / 6,

		minRadius:    1.0,
		maxRadius:    200.0,
		minElevation: -math32.Pi/2 + 0.1,
		maxElevation: math32.Pi/2 - 0.1,

		orbitSpeed: 0.03,
		zoomSpeed:  1.0,
	}
	for _, option := range options {
		option(oc)
	}
	oc.radius = mgl32.Clamp(oc.radius, oc.minRadius, oc.maxRadius)
	oc.elevation = mgl32.Clamp(oc.elevation, oc.minElevation, oc.maxElevation)
	return oc
}

// position computes the eye position from the spherical coordinates. Caller must hold the mutex.
func (oc *orbitController) position() mgl32.Vec3 {
	cosElev, sinElev := math32.Cos(oc.elevation), math32.Sin(oc.elevation)
	cosAzim, sinAzim := math32.Cos(oc.azimuth), math32.Sin(oc.azimuth)
	return oc.target.Add(mgl32.Vec3{
		oc.radius * cosElev * sinAzim,
		oc.radius * sinElev,
		oc.radius * cosElev * cosAzim,
	})
}

func (oc *orbitController) Orbit(azimuthSteps, elevationSteps float32) {
	oc.mu.Lock()
	defer oc.mu.Unlock()
	oc.azimuth += azimuthSteps * oc.orbitSpeed
	oc.elevation = mgl32.Clamp(oc.elevation+elevationSteps*oc.orbitSpeed, oc.minElevation, oc.maxElevation)
}

func (oc *orbitController) Zoom(delta float32) {
	oc.mu.Lock()
	defer oc.mu.Unlock()
	oc.radius = mgl32.Clamp(oc.radius-delta*oc.zoomSpeed, oc.minRadius, oc.maxRadius)
}

func (oc *orbitController) Position() mgl32.Vec3 {
	oc.mu.Lock()
	defer oc.mu.Unlock()
	return oc.position()
}

func (oc *orbitController) Target() mgl32.Vec3 {
	oc.mu.Lock()
	defer oc.mu.Unlock()
	return oc.target
}

func (oc *orbitController) Apply(cam Camera) Camera {
	oc.mu.Lock()
	defer oc.mu.Unlock()
	cam.Position = oc.position()
	cam.Target = oc.target
	return cam
}
