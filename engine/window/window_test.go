package window

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResizedIgnoresMinimizedWindow(t *testing.T) {
	var got [][2]uint32
	w := &engineWindow{fbWidth: 800, fbHeight: 600}
	w.SetResizeCallback(func(width, height uint32) { got = append(got, [2]uint32{width, height}) })

	w.resized(0, 0)
	w.resized(1024, 768)

	assert.Equal(t, [][2]uint32{{1024, 768}}, got)
	width, height := w.FramebufferSize()
	assert.Equal(t, uint32(1024), width)
	assert.Equal(t, uint32(768), height)
}

func TestCursorMovedOnlyForwardsDrags(t *testing.T) {
	var deltas [][2]float32
	w := &engineWindow{}
	w.SetDragCallback(func(dx, dy float32) { deltas = append(deltas, [2]float32{dx, dy}) })

	w.cursorMoved(10, 10)
	w.dragging = true
	w.cursorMoved(15, 7)
	w.cursorMoved(20, 7)
	w.dragging = false
	w.cursorMoved(100, 100)

	assert.Equal(t, [][2]float32{{5, -3}, {5, 0}}, deltas)
}

func TestClosedWindowIsNotRunning(t *testing.T) {
	w := &engineWindow{}
	assert.False(t, w.IsRunning())
	assert.Nil(t, w.SurfaceDescriptor())
	assert.Error(t, w.Close())

	called := false
	w.Run(func() bool { called = true; return true })
	assert.False(t, called)
}
