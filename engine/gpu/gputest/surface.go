package gputest

import (
	"github.com/Carmen-Shannon/oxy-render/engine/gpu"
)

// Surface is a recording gpu.Surface backed by a Device.
type Surface struct {
	device *Device
	width  uint32
	height uint32

	// AcquireErr is returned by the next Acquire call and then cleared.
	AcquireErr error

	Configured int
	Presented  int
	Discarded  int

	views []*TextureView
}

var _ gpu.Surface = &Surface{}

// NewSurface creates a recording surface of the given size.
//
// Parameters:
//   - device: the device the surface records into
//   - width: the initial width in pixels
//   - height: the initial height in pixels
//
// Returns:
//   - *Surface: the recording surface
func NewSurface(device *Device, width, height uint32) *Surface {
	return &Surface{device: device, width: width, height: height}
}

// Views returns every view handed out by Acquire in order.
//
// Returns:
//   - []*TextureView: the acquired views
func (s *Surface) Views() []*TextureView {
	return s.views
}

func (s *Surface) Configure(width, height uint32) {
	s.width = width
	s.height = height
	s.Configured++
}

func (s *Surface) Size() (uint32, uint32) {
	return s.width, s.height
}

func (s *Surface) Acquire() (gpu.TextureView, error) {
	if err := s.AcquireErr; err != nil {
		s.AcquireErr = nil
		s.device.record(Op{Kind: OpAcquire, Label: err.Error()})
		return nil, err
	}
	tex := &Texture{Desc: gpu.TextureDescriptor{
		Label:       "surface",
		Width:       s.width,
		Height:      s.height,
		Layers:      1,
		SampleCount: 1,
		Format:      gpu.TextureFormatSurface,
		Usage:       gpu.TextureUsageRenderAttachment,
	}}
	v := &TextureView{Label: "surface", Texture: tex, LayerCount: 1}
	s.views = append(s.views, v)
	s.device.record(Op{Kind: OpAcquire, Label: "surface"})
	return v, nil
}

func (s *Surface) Present() {
	s.Presented++
	s.device.record(Op{Kind: OpPresent, Label: "surface"})
}

func (s *Surface) Discard() {
	s.Discarded++
	s.device.record(Op{Kind: OpDiscard, Label: "surface"})
}
