package common

// Virtual key codes for cross-platform input handling.
// These values match GLFW key codes which use ASCII values for printable keys.
// Reference: https://pkg.go.dev/github.com/go-gl/glfw/v3.3/glfw#Key
const (
	KeySpace = 32  // Spacebar (ASCII)
	KeyB     = 66  // B key (ASCII)
	KeyP     = 80  // P key (ASCII)
	KeyEsc   = 256 // Escape key (GLFW)
)
