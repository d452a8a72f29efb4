package mesh

import (
	"fmt"
	"sync"

	"github.com/Carmen-Shannon/oxy-render/common"
	"github.com/Carmen-Shannon/oxy-render/engine/gpu"
	"github.com/go-gl/mathgl/mgl32"
)

// registry is the implementation of the Registry interface.
type registry struct {
	mu     *sync.Mutex
	device gpu.Device
	meshes map[Handle]Mesh
	next   Handle
}

// Registry is an in-memory Library that uploads vertex and index data to the GPU and hands out handles.
type Registry interface {
	Library

	// Upload creates GPU buffers for the given geometry and registers them under a new handle.
	//
	// Parameters:
	//   - label: debug label used for the created buffers
	//   - vertices: the mesh vertices
	//   - indices: triangle list indices into vertices
	//
	// Returns:
	//   - Handle: the handle of the new mesh
	//   - error: an error if the geometry is empty or a buffer could not be created
	Upload(label string, vertices []Vertex, indices []uint32) (Handle, error)

	// Remove releases the buffers of a mesh and forgets its handle. Unknown handles are ignored.
	//
	// Parameters:
	//   - h: the mesh handle
	Remove(h Handle)

	// Len returns the number of registered meshes.
	//
	// Returns:
	//   - int: the mesh count
	Len() int

	// Release frees every registered mesh.
	Release()
}

var _ Registry = &registry{}

// NewRegistry creates an empty Registry that uploads through device.
//
// Parameters:
//   - device: the GPU device used to create vertex and index buffers
//
// Returns:
//   - Registry: the new registry
func NewRegistry(device gpu.Device) Registry {
	return &registry{
		mu:     &sync.Mutex{},
		device: device,
		meshes: make(map[Handle]Mesh),
	}
}

func (r *registry) Mesh(h Handle) (Mesh, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.meshes[h]
	return m, ok
}

func (r *registry) Upload(label string, vertices []Vertex, indices []uint32) (Handle, error) {
	if len(vertices) == 0 || len(indices) == 0 {
		return InvalidHandle, fmt.Errorf("mesh: %q has no geometry", label)
	}

	vertexData := MarshalVertices(vertices)
	vb, err := r.device.CreateBuffer(gpu.BufferDescriptor{
		Label: label + " vertices",
		Size:  uint64(len(vertexData)),
		Usage: gpu.BufferUsageVertex | gpu.BufferUsageCopyDst,
	})
	if err != nil {
		return InvalidHandle, fmt.Errorf("mesh: failed to create vertex buffer for %q: %w", label, err)
	}
	indexData := common.SliceToBytes(indices)
	ib, err := r.device.CreateBuffer(gpu.BufferDescriptor{
		Label: label + " indices",
		Size:  uint64(len(indexData)),
		Usage: gpu.BufferUsageIndex | gpu.BufferUsageCopyDst,
	})
	if err != nil {
		vb.Release()
		return InvalidHandle, fmt.Errorf("mesh: failed to create index buffer for %q: %w", label, err)
	}
	r.device.WriteBuffer(vb, 0, vertexData)
	r.device.WriteBuffer(ib, 0, indexData)

	var radius float32
	for _, v := range vertices {
		radius = max(radius, mgl32.Vec3(v.Position).Len())
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.next++
	r.meshes[r.next] = Mesh{
		VertexBuffer: vb,
		IndexBuffer:  ib,
		IndexCount:   uint32(len(indices)),
		IndexFormat:  gpu.IndexFormatUint32,
		Radius:       radius,
	}
	return r.next, nil
}

func (r *registry) Remove(h Handle) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.meshes[h]
	if !ok {
		return
	}
	m.VertexBuffer.Release()
	m.IndexBuffer.Release()
	delete(r.meshes, h)
}

func (r *registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.meshes)
}

func (r *registry) Release() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for h, m := range r.meshes {
		m.VertexBuffer.Release()
		m.IndexBuffer.Release()
		delete(r.meshes, h)
	}
}
