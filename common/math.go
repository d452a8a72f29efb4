package common

import (
	"encoding/binary"
	"math"
	"unsafe"

	"github.com/go-gl/mathgl/mgl32"
)

// ClipCorrection remaps OpenGL clip-space depth [-1, 1] (what mgl32 projections produce) onto the
// WebGPU depth range [0, 1]. Column-major.
var ClipCorrection = mgl32.Mat4{
	1, 0, 0, 0,
	0, 1, 0, 0,
	0, 0, 0.5, 0,
	0, 0, 0.5, 1,
}

// SliceToBytes converts any slice to a byte slice for GPU buffer uploads.
// Uses unsafe pointer operations to create a view into the original data.
// WARNING: The returned slice shares memory with the input - do not modify.
//
// Parameters:
//   - data: source slice of any type
//
// Returns:
//   - []byte: byte slice view of the input data, or nil if input is empty
func SliceToBytes[T any](data []T) []byte {
	if len(data) == 0 {
		return nil
	}
	var zero T
	size := unsafe.Sizeof(zero)
	totalBytes := int(size) * len(data)
	return unsafe.Slice((*byte)(unsafe.Pointer(&data[0])), totalBytes)
}

// Perspective builds a right-handed perspective projection with WebGPU depth range [0, 1].
//
// Parameters:
//   - fovY: vertical field of view in radians
//   - aspect: viewport width divided by height
//   - near: near clip plane distance (> 0)
//   - far: far clip plane distance (> near)
//
// Returns:
//   - mgl32.Mat4: the projection matrix
func Perspective(fovY, aspect, near, far float32) mgl32.Mat4 {
	return ClipCorrection.Mul4(mgl32.Perspective(fovY, aspect, near, far))
}

// Ortho builds a right-handed orthographic projection with WebGPU depth range [0, 1].
//
// Parameters:
//   - left, right, bottom, top: the view volume extents on X and Y
//   - near, far: the view volume extents along -Z
//
// Returns:
//   - mgl32.Mat4: the projection matrix
func Ortho(left, right, bottom, top, near, far float32) mgl32.Mat4 {
	return ClipCorrection.Mul4(mgl32.Ortho(left, right, bottom, top, near, far))
}

// LookAt builds a view matrix looking from eye towards center. When the view direction is parallel
// to up, a perpendicular up vector is substituted so the matrix stays finite.
//
// Parameters:
//   - eye: the viewer position
//   - center: the point being looked at
//   - up: the approximate up direction
//
// Returns:
//   - mgl32.Mat4: the view matrix
func LookAt(eye, center, up mgl32.Vec3) mgl32.Mat4 {
	dir := center.Sub(eye)
	if dir.LenSqr() > 0 {
		d := dir.Normalize()
		if abs32(d.Dot(up.Normalize())) > 0.999 {
			up = mgl32.Vec3{0, 0, 1}
			if abs32(d.Z()) > 0.999 {
				up = mgl32.Vec3{1, 0, 0}
			}
		}
	}
	return mgl32.LookAtV(eye, center, up)
}

// Translation returns the translation column of an affine transform.
func Translation(m mgl32.Mat4) mgl32.Vec3 {
	return m.Col(3).Vec3()
}

// DistanceSquared returns the squared euclidean distance between a and b.
func DistanceSquared(a, b mgl32.Vec3) float32 {
	d := a.Sub(b)
	return d.Dot(d)
}

// PutMat4 writes m into dst as 16 little-endian float32 values in column-major order.
// dst must hold at least 64 bytes.
func PutMat4(dst []byte, m mgl32.Mat4) {
	for i, v := range m {
		binary.LittleEndian.PutUint32(dst[i*4:], math.Float32bits(v))
	}
}

// PutVec4 writes v into dst as 4 little-endian float32 values. dst must hold at least 16 bytes.
func PutVec4(dst []byte, v [4]float32) {
	for i, f := range v {
		binary.LittleEndian.PutUint32(dst[i*4:], math.Float32bits(f))
	}
}

// PutUint32s writes values into dst as little-endian uint32 values.
func PutUint32s(dst []byte, values ...uint32) {
	for i, v := range values {
		binary.LittleEndian.PutUint32(dst[i*4:], v)
	}
}

func abs32(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}
