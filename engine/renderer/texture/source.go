package texture

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"

	"golang.org/x/image/draw"
)

// Source describes where the pixels of a texture come from.
// Embedded image bytes take precedence over Path.
type Source struct {
	// Name is an identifier for this texture (e.g., "crate_diffuse").
	Name string

	// Path is the file path of an external image.
	Path string

	// Data contains raw encoded image bytes (PNG/JPEG).
	Data []byte
}

// Decode decodes the source into RGBA pixels. Supports PNG and JPEG.
//
// Returns:
//   - *image.RGBA: the decoded image with its origin at (0, 0)
//   - error: an error if the source is empty or decoding fails
func (s Source) Decode() (*image.RGBA, error) {
	var img image.Image
	var err error

	switch {
	case len(s.Data) > 0:
		img, _, err = image.Decode(bytes.NewReader(s.Data))
		if err != nil {
			return nil, fmt.Errorf("texture: failed to decode embedded image %q: %w", s.Name, err)
		}
	case s.Path != "":
		file, fileErr := os.Open(s.Path)
		if fileErr != nil {
			return nil, fmt.Errorf("texture: failed to open %s: %w", s.Path, fileErr)
		}
		defer file.Close()

		img, _, err = image.Decode(file)
		if err != nil {
			return nil, fmt.Errorf("texture: failed to decode %s: %w", s.Path, err)
		}
	default:
		return nil, errors.New("texture: source has neither data nor path")
	}

	return toRGBA(img), nil
}

func toRGBA(img image.Image) *image.RGBA {
	bounds := img.Bounds()
	if rgba, ok := img.(*image.RGBA); ok && bounds.Min == (image.Point{}) {
		return rgba
	}
	rgba := image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Draw(rgba, rgba.Bounds(), img, bounds.Min, draw.Src)
	return rgba
}

// Resample scales img to size x size pixels with Catmull-Rom filtering. Images that already have
// the requested size are returned unchanged.
//
// Parameters:
//   - img: the source image
//   - size: the edge length of the output
//
// Returns:
//   - *image.RGBA: the resampled image
func Resample(img *image.RGBA, size uint32) *image.RGBA {
	b := img.Bounds()
	if b.Dx() == int(size) && b.Dy() == int(size) {
		return img
	}
	dst := image.NewRGBA(image.Rect(0, 0, int(size), int(size)))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)
	return dst
}
