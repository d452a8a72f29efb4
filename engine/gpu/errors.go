package gpu

import (
	"errors"
	"fmt"
)

// SurfaceStatus classifies a surface acquisition failure.
type SurfaceStatus int

const (
	SurfaceStatusTimeout SurfaceStatus = iota
	SurfaceStatusOutdated
	SurfaceStatusLost
	SurfaceStatusOutOfMemory
)

func (s SurfaceStatus) String() string {
	switch s {
	case SurfaceStatusTimeout:
		return "timeout"
	case SurfaceStatusOutdated:
		return "outdated"
	case SurfaceStatusLost:
		return "lost"
	case SurfaceStatusOutOfMemory:
		return "out of memory"
	default:
		return fmt.Sprintf("SurfaceStatus(%d)", int(s))
	}
}

var (
	ErrSurfaceTimeout  = errors.New("gpu: surface texture acquisition timed out")
	ErrSurfaceOutdated = errors.New("gpu: surface is outdated and must be reconfigured")
	ErrSurfaceLost     = errors.New("gpu: surface was lost and must be reconfigured")
	ErrOutOfMemory     = errors.New("gpu: out of memory")
)

// SurfaceError is returned when the presentation surface cannot provide a texture for the frame.
// The caller is expected to reconfigure the surface (for Outdated/Lost) and retry on the next frame.
type SurfaceError struct {
	Status SurfaceStatus
	Err    error
}

// NewSurfaceError wraps err with the given status.
//
// Parameters:
//   - status: the failure classification
//   - err: the underlying backend error, may be nil
//
// Returns:
//   - *SurfaceError: the typed error
func NewSurfaceError(status SurfaceStatus, err error) *SurfaceError {
	return &SurfaceError{Status: status, Err: err}
}

func (e *SurfaceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("gpu: surface %s: %v", e.Status, e.Err)
	}
	return fmt.Sprintf("gpu: surface %s", e.Status)
}

func (e *SurfaceError) Unwrap() error {
	return e.Err
}

// Is matches the status sentinel errors so callers can use errors.Is(err, gpu.ErrSurfaceLost).
func (e *SurfaceError) Is(target error) bool {
	switch target {
	case ErrSurfaceTimeout:
		return e.Status == SurfaceStatusTimeout
	case ErrSurfaceOutdated:
		return e.Status == SurfaceStatusOutdated
	case ErrSurfaceLost:
		return e.Status == SurfaceStatusLost
	case ErrOutOfMemory:
		return e.Status == SurfaceStatusOutOfMemory
	}
	return false
}

// NeedsReconfigure reports whether the surface must be reconfigured before the next acquisition.
//
// Returns:
//   - bool: true for Outdated and Lost
func (e *SurfaceError) NeedsReconfigure() bool {
	return e.Status == SurfaceStatusOutdated || e.Status == SurfaceStatusLost
}
