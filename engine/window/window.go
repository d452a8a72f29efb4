// Package window opens the desktop window the demo renders into and forwards its input events.
package window

import (
	"fmt"
	"log/slog"
	"runtime"

	"github.com/cogentcore/webgpu/wgpu"
)

// Window provides platform windowing and input event handling.
type Window interface {
	// SetResizeCallback sets the function called when the framebuffer is resized.
	//
	// Parameters:
	//   - callback: function receiving the new framebuffer width and height in pixels
	SetResizeCallback(callback func(width, height uint32))

	// SetScrollCallback sets the callback for mouse scroll wheel events.
	//
	// Parameters:
	//   - callback: function receiving scroll delta (positive = up/zoom in, negative = down/zoom out)
	SetScrollCallback(callback func(delta float32))

	// SetKeyCallback sets the callback for key presses and releases. Escape always closes the window and is
	// not forwarded.
	//
	// Parameters:
	//   - callback: function receiving the GLFW key code and whether the key went down
	SetKeyCallback(callback func(key int, down bool))

	// SetDragCallback sets the callback for cursor movement while the left or middle mouse button is held.
	//
	// Parameters:
	//   - callback: function receiving the cursor delta in pixels since the previous event
	SetDragCallback(callback func(dx, dy float32))

	// SurfaceDescriptor returns a wgpu.SurfaceDescriptor suitable for creating a WebGPU surface.
	// The descriptor is platform-appropriate (Windows HWND, X11 Xlib, Wayland, macOS Metal, etc.)
	// and is created by the wgpuglfw bridge from the underlying GLFW window.
	//
	// Returns:
	//   - *wgpu.SurfaceDescriptor: the platform-specific surface descriptor, or nil if window is closed
	SurfaceDescriptor() *wgpu.SurfaceDescriptor

	// FramebufferSize returns the current framebuffer size in pixels. On high-DPI displays it differs from
	// the window size.
	//
	// Returns:
	//   - uint32: width in pixels
	//   - uint32: height in pixels
	FramebufferSize() (uint32, uint32)

	// Run polls events and calls frame once per iteration until the window closes or frame returns false.
	//
	// Parameters:
	//   - frame: the per-iteration callback
	Run(frame func() bool)

	// IsRunning returns true if the window is still open.
	//
	// Returns:
	//   - bool: true if window is running, false if closed
	IsRunning() bool

	// Close destroys the window and terminates GLFW.
	//
	// Returns:
	//   - error: error if the window was already closed
	Close() error
}

// engineWindow is the implementation of the Window interface.
type engineWindow struct {
	logger *slog.Logger

	title               string
	width, height       int
	minWidth, minHeight int
	maxWidth, maxHeight int
	fbWidth, fbHeight   uint32

	dragging                 bool
	lastCursorX, lastCursorY float64

	// platform holds the GLFW state; nil once closed.
	platform *glfwWindow

	onResize func(width, height uint32)
	onScroll func(delta float32)
	onKey    func(key int, down bool)
	onDrag   func(dx, dy float32)
}

var _ Window = &engineWindow{}

// NewWindow creates and shows a window. GLFW initialization or window creation failure panics.
// The calling goroutine is locked to its OS thread, as GLFW requires.
//
// Parameters:
//   - options: functional options to configure the window
//
// Returns:
//   - Window: the open window
func NewWindow(options ...WindowBuilderOption) Window {
	w := &engineWindow{
		logger:    slog.Default(),
		title:     "oxy-render",
		width:     1280,
		height:    720,
		minWidth:  320,
		minHeight: 200,
	}
	for _, opt := range options {
		opt(w)
	}
	w.logger = w.logger.With(slog.String("component", "window"))

	runtime.LockOSThread()
	if err := newPlatformWindow(w); err != nil {
		panic(fmt.Sprintf("window: failed to create platform window: %v", err))
	}
	w.logger.Info("window opened",
		slog.String("title", w.title),
		slog.Uint64("framebuffer_width", uint64(w.fbWidth)),
		slog.Uint64("framebuffer_height", uint64(w.fbHeight)))
	return w
}

func (w *engineWindow) SetResizeCallback(callback func(width, height uint32)) {
	w.onResize = callback
}

func (w *engineWindow) SetScrollCallback(callback func(delta float32)) {
	w.onScroll = callback
}

func (w *engineWindow) SetKeyCallback(callback func(key int, down bool)) {
	w.onKey = callback
}

func (w *engineWindow) SetDragCallback(callback func(dx, dy float32)) {
	w.onDrag = callback
}

func (w *engineWindow) SurfaceDescriptor() *wgpu.SurfaceDescriptor {
	if w.platform == nil {
		return nil
	}
	return w.platform.surfaceDescriptor()
}

func (w *engineWindow) FramebufferSize() (uint32, uint32) {
	return w.fbWidth, w.fbHeight
}

func (w *engineWindow) Run(frame func() bool) {
	for w.IsRunning() {
		w.platform.pollEvents()
		if !w.IsRunning() {
			return
		}
		if !frame() {
			return
		}
	}
}

func (w *engineWindow) IsRunning() bool {
	return w.platform != nil && w.platform.running()
}

func (w *engineWindow) Close() error {
	if w.platform == nil {
		return fmt.Errorf("window: window is not open")
	}
	w.platform.destroy()
	w.platform = nil
	w.logger.Info("window closed")
	return nil
}

// resized records a framebuffer size change and forwards it. Minimized windows report 0x0 and are not forwarded.
func (w *engineWindow) resized(width, height int) {
	if width <= 0 || height <= 0 {
		return
	}
	w.fbWidth, w.fbHeight = uint32(width), uint32(height)
	if w.onResize != nil {
		w.onResize(w.fbWidth, w.fbHeight)
	}
}

func (w *engineWindow) cursorMoved(x, y float64) {
	dx, dy := x-w.lastCursorX, y-w.lastCursorY
	w.lastCursorX, w.lastCursorY = x, y
	if w.dragging && w.onDrag != nil {
		w.onDrag(float32(dx), float32(dy))
	}
}
