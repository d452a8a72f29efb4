package common

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
)

func TestPerspectiveDepthRange(t *testing.T) {
	proj := Perspective(mgl32.DegToRad(60), 1, 1, 100)

	near := proj.Mul4x1(mgl32.Vec4{0, 0, -1, 1})
	far := proj.Mul4x1(mgl32.Vec4{0, 0, -100, 1})
	assert.InDelta(t, 0, near.Z()/near.W(), 1e-5)
	assert.InDelta(t, 1, far.Z()/far.W(), 1e-5)
}

func TestOrthoDepthRange(t *testing.T) {
	proj := Ortho(-1, 1, -1, 1, 0, 10)
	assert.InDelta(t, 0, proj.Mul4x1(mgl32.Vec4{0, 0, 0, 1}).Z(), 1e-6)
	assert.InDelta(t, 1, proj.Mul4x1(mgl32.Vec4{0, 0, -10, 1}).Z(), 1e-6)
}

func TestLookAtStraightDownStaysFinite(t *testing.T) {
	view := LookAt(mgl32.Vec3{0, 10, 0}, mgl32.Vec3{}, mgl32.Vec3{0, 1, 0})
	for _, v := range view {
		assert.False(t, math.IsNaN(float64(v)))
	}
}

func TestDistanceSquared(t *testing.T) {
	assert.Equal(t, float32(25), DistanceSquared(mgl32.Vec3{3, 4, 0}, mgl32.Vec3{}))
	assert.Equal(t, mgl32.Vec3{1, 2, 3}, Translation(mgl32.Translate3D(1, 2, 3)))
}

func TestPutMat4ColumnMajor(t *testing.T) {
	buf := make([]byte, 64)
	PutMat4(buf, mgl32.Translate3D(5, 6, 7))
	assert.Equal(t, float32(5), math.Float32frombits(binary.LittleEndian.Uint32(buf[48:])))
	assert.Equal(t, float32(1), math.Float32frombits(binary.LittleEndian.Uint32(buf[60:])))
}

func TestFrustumContainsSphere(t *testing.T) {
	viewProj := Perspective(mgl32.DegToRad(90), 1, 0.1, 50).Mul4(LookAt(mgl32.Vec3{}, mgl32.Vec3{0, 0, -1}, mgl32.Vec3{0, 1, 0}))
	f := ExtractFrustum(viewProj)

	assert.True(t, f.ContainsSphere(mgl32.Vec3{0, 0, -5}, 1))
	assert.False(t, f.ContainsSphere(mgl32.Vec3{0, 0, 5}, 1))
	assert.False(t, f.ContainsSphere(mgl32.Vec3{0, 0, -80}, 1))
	assert.True(t, f.ContainsSphere(mgl32.Vec3{0, 0, 1}, 1.5))
}

func TestCoalesce(t *testing.T) {
	assert.Equal(t, 4, Coalesce(0, 4, 8))
	assert.Equal(t, "", Coalesce[string]())
}

func TestTruncate(t *testing.T) {
	s := []int{1, 2, 3}

	got, cut := Truncate(s, 2)
	assert.Equal(t, []int{1, 2}, got)
	assert.True(t, cut)

	got, cut = Truncate(s, 5)
	assert.Equal(t, s, got)
	assert.False(t, cut)

	got, cut = Truncate(s, -1)
	assert.Empty(t, got)
	assert.True(t, cut)
}
