// Package texture keeps the CPU-side list of textures referenced by material texture slots. A
// material slot value is an index into this registry.
package texture

import (
	"context"
	"errors"
	"fmt"
	"image"
	"runtime"
	"sync"

	"github.com/Carmen-Shannon/oxy-render/engine/renderer/material"
	"golang.org/x/sync/errgroup"
)

// DefaultLayerSize is the edge length every texture is resampled to for the bindless texture array.
const DefaultLayerSize = 256

// ErrRegistryFull is returned when adding a texture would make an index collide with material.NoTexture.
var ErrRegistryFull = errors.New("texture: registry is full")

// entry is a registered texture.
type entry struct {
	name   string
	pixels *image.RGBA
}

// registry is the implementation of the Registry interface.
type registry struct {
	mu        *sync.Mutex
	entries   []entry
	version   uint64
	layerSize uint32
	workers   int
}

// Registry stores decoded textures and versions every change so GPU-side bindings know when to rebuild.
type Registry interface {
	// Add registers an already-decoded image.
	//
	// Parameters:
	//   - name: an identifier for the texture
	//   - img: the image pixels
	//
	// Returns:
	//   - uint16: the texture index to store in a material slot
	//   - error: ErrRegistryFull if no index is left
	Add(name string, img image.Image) (uint16, error)

	// Load decodes sources in parallel and registers them in order. Either every source is registered or none is.
	//
	// Parameters:
	//   - ctx: cancels outstanding decodes
	//   - sources: the texture sources
	//
	// Returns:
	//   - []uint16: the texture indices, parallel to sources
	//   - error: the first decode error, or ErrRegistryFull
	Load(ctx context.Context, sources []Source) ([]uint16, error)

	// Len returns the number of registered textures.
	//
	// Returns:
	//   - int: the texture count
	Len() int

	// Version returns a counter that changes whenever the texture list changes.
	//
	// Returns:
	//   - uint64: the registry version
	Version() uint64

	// LayerSize returns the edge length used by Layer.
	//
	// Returns:
	//   - uint32: the layer size in pixels
	LayerSize() uint32

	// Image returns the native-size pixels of a texture.
	//
	// Parameters:
	//   - index: the texture index
	//
	// Returns:
	//   - *image.RGBA: the pixels, or nil if the index is unknown
	Image(index uint16) *image.RGBA

	// Layer returns the pixels of a texture resampled to LayerSize x LayerSize.
	//
	// Parameters:
	//   - index: the texture index
	//
	// Returns:
	//   - []byte: tightly packed RGBA8 rows, or nil if the index is unknown
	Layer(index uint16) []byte
}

var _ Registry = &registry{}

// NewRegistry creates an empty texture registry.
//
// Parameters:
//   - options: variadic list of RegistryBuilderOption functions to configure the registry
//
// Returns:
//   - Registry: the new registry
func NewRegistry(options ...RegistryBuilderOption) Registry {
	r := &registry{
		mu:        &sync.Mutex{},
		layerSize: DefaultLayerSize,
		workers:   runtime.NumCPU(),
	}
	for _, opt := range options {
		opt(r)
	}
	return r
}

func (r *registry) Add(name string, img image.Image) (uint16, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.entries) >= int(material.NoTexture) {
		return material.NoTexture, ErrRegistryFull
	}
	r.entries = append(r.entries, entry{name: name, pixels: toRGBA(img)})
	r.version++
	return uint16(len(r.entries) - 1), nil
}

func (r *registry) Load(ctx context.Context, sources []Source) ([]uint16, error) {
	decoded := make([]*image.RGBA, len(sources))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(max(r.workers, 1))
	for i, src := range sources {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			img, err := src.Decode()
			if err != nil {
				return err
			}
			decoded[i] = img
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("texture: failed to load textures: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.entries)+len(decoded) > int(material.NoTexture) {
		return nil, ErrRegistryFull
	}
	indices := make([]uint16, len(decoded))
	for i, img := range decoded {
		indices[i] = uint16(len(r.entries))
		r.entries = append(r.entries, entry{name: sources[i].Name, pixels: img})
	}
	if len(decoded) > 0 {
		r.version++
	}
	return indices, nil
}

func (r *registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

func (r *registry) Version() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.version
}

func (r *registry) LayerSize() uint32 {
	return r.layerSize
}

func (r *registry) Image(index uint16) *image.RGBA {
	r.mu.Lock()
	defer r.mu.Unlock()
	if int(index) >= len(r.entries) {
		return nil
	}
	return r.entries[index].pixels
}

func (r *registry) Layer(index uint16) []byte {
	img := r.Image(index)
	if img == nil {
		return nil
	}
	return Packed(Resample(img, r.layerSize))
}

// Packed returns the pixels of img as tightly packed RGBA8 rows, copying only when img has row padding.
//
// Parameters:
//   - img: the image
//
// Returns:
//   - []byte: width*height*4 bytes
func Packed(img *image.RGBA) []byte {
	w := img.Bounds().Dx() * 4
	if img.Stride == w {
		return img.Pix[:w*img.Bounds().Dy()]
	}
	out := make([]byte, 0, w*img.Bounds().Dy())
	for y := range img.Bounds().Dy() {
		out = append(out, img.Pix[y*img.Stride:y*img.Stride+w]...)
	}
	return out
}
