package texture

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func solid(w, h int, c color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := range h {
		for x := range w {
			img.SetRGBA(x, y, c)
		}
	}
	return img
}

func encodePNG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestAddBumpsVersion(t *testing.T) {
	r := NewRegistry()
	v0 := r.Version()

	idx, err := r.Add("red", solid(4, 4, color.RGBA{255, 0, 0, 255}))
	require.NoError(t, err)
	assert.Equal(t, uint16(0), idx)
	assert.Equal(t, 1, r.Len())
	assert.Greater(t, r.Version(), v0)
	assert.Nil(t, r.Image(5))
	assert.Nil(t, r.Layer(5))
}

func TestLayerResamplesToCommonSize(t *testing.T) {
	r := NewRegistry(WithLayerSize(8))
	idx, err := r.Add("green", solid(3, 5, color.RGBA{0, 255, 0, 255}))
	require.NoError(t, err)

	layer := r.Layer(idx)
	require.Len(t, layer, 8*8*4)
	for _, px := range [][]byte{layer[:4], layer[len(layer)-4:]} {
		assert.InDelta(t, 0, px[0], 2)
		assert.InDelta(t, 255, px[1], 2)
		assert.InDelta(t, 255, px[3], 2)
	}
}

func TestLoadDecodesInOrder(t *testing.T) {
	r := NewRegistry(WithDecodeWorkers(2))
	sources := []Source{
		{Name: "a", Data: encodePNG(t, solid(2, 2, color.RGBA{10, 0, 0, 255}))},
		{Name: "b", Data: encodePNG(t, solid(4, 2, color.RGBA{20, 0, 0, 255}))},
		{Name: "c", Data: encodePNG(t, solid(1, 1, color.RGBA{30, 0, 0, 255}))},
	}
	indices, err := r.Load(context.Background(), sources)
	require.NoError(t, err)
	assert.Equal(t, []uint16{0, 1, 2}, indices)
	assert.Equal(t, 4, r.Image(1).Bounds().Dx())
	assert.Equal(t, uint8(30), r.Image(2).Pix[0])
}

func TestLoadIsAllOrNothing(t *testing.T) {
	r := NewRegistry()
	_, err := r.Load(context.Background(), []Source{
		{Name: "ok", Data: encodePNG(t, solid(1, 1, color.RGBA{}))},
		{Name: "broken", Data: []byte("not an image")},
	})
	require.Error(t, err)
	assert.Zero(t, r.Len())

	_, err = Source{Name: "empty"}.Decode()
	assert.Error(t, err)
}
