package mesh

import (
	"testing"
	"unsafe"

	"github.com/Carmen-Shannon/oxy-render/engine/gpu"
	"github.com/Carmen-Shannon/oxy-render/engine/gpu/gputest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryUploadAndLookup(t *testing.T) {
	dev := gputest.NewDevice()
	reg := NewRegistry(dev)

	vertices, indices := Cube()
	h, err := reg.Upload("cube", vertices, indices)
	require.NoError(t, err)
	assert.NotEqual(t, InvalidHandle, h)

	m, ok := reg.Mesh(h)
	require.True(t, ok)
	assert.Equal(t, uint32(36), m.IndexCount)
	assert.Equal(t, gpu.IndexFormatUint32, m.IndexFormat)
	assert.Equal(t, uint64(24*gpu.MeshVertexStride), m.VertexBuffer.Size())
	assert.InDelta(t, 0.866, m.Radius, 1e-3)

	writes := dev.OpsOfKind(gputest.OpWriteBuffer)
	require.Len(t, writes, 2)
	assert.Equal(t, "cube vertices", writes[0].Label)
	assert.Equal(t, "cube indices", writes[1].Label)

	_, ok = reg.Mesh(h + 1)
	assert.False(t, ok)
}

func TestRegistryRemoveReleasesBuffers(t *testing.T) {
	dev := gputest.NewDevice()
	reg := NewRegistry(dev)

	vertices, indices := Quad()
	h, err := reg.Upload("quad", vertices, indices)
	require.NoError(t, err)
	m, _ := reg.Mesh(h)

	reg.Remove(h)
	reg.Remove(h)
	_, ok := reg.Mesh(h)
	assert.False(t, ok)
	assert.Zero(t, reg.Len())
	assert.True(t, m.VertexBuffer.(*gputest.Buffer).Released)
	assert.True(t, m.IndexBuffer.(*gputest.Buffer).Released)
}

func TestRegistryRejectsEmptyGeometry(t *testing.T) {
	reg := NewRegistry(gputest.NewDevice())
	_, err := reg.Upload("empty", nil, nil)
	assert.Error(t, err)
}

func TestVertexLayoutMatchesStride(t *testing.T) {
	var v Vertex
	assert.Equal(t, gpu.MeshVertexStride, int(unsafe.Sizeof(v)))
}
