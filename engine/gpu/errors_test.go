package gpu

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSurfaceErrorMatchesStatusSentinel(t *testing.T) {
	tests := []struct {
		status      SurfaceStatus
		sentinel    error
		reconfigure bool
	}{
		{SurfaceStatusTimeout, ErrSurfaceTimeout, false},
		{SurfaceStatusOutdated, ErrSurfaceOutdated, true},
		{SurfaceStatusLost, ErrSurfaceLost, true},
		{SurfaceStatusOutOfMemory, ErrOutOfMemory, false},
	}
	sentinels := []error{ErrSurfaceTimeout, ErrSurfaceOutdated, ErrSurfaceLost, ErrOutOfMemory}
	for _, tt := range tests {
		t.Run(tt.status.String(), func(t *testing.T) {
			err := fmt.Errorf("renderer: failed to acquire surface texture: %w", NewSurfaceError(tt.status, nil))
			for _, s := range sentinels {
				assert.Equal(t, s == tt.sentinel, errors.Is(err, s), s.Error())
			}

			var surfaceErr *SurfaceError
			require.ErrorAs(t, err, &surfaceErr)
			assert.Equal(t, tt.reconfigure, surfaceErr.NeedsReconfigure())
		})
	}
}

func TestSurfaceErrorUnwrapsCause(t *testing.T) {
	cause := errors.New("swapchain gone")
	err := NewSurfaceError(SurfaceStatusLost, cause)

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "gpu: surface lost: swapchain gone", err.Error())
	assert.Equal(t, "gpu: surface timeout", NewSurfaceError(SurfaceStatusTimeout, nil).Error())
	assert.Equal(t, "SurfaceStatus(9)", SurfaceStatus(9).String())
}
