// Package buffers owns the growable storage buffers that feed instanced draws: one record per
// instance (model matrix and material index) and one record per distinct material.
package buffers

import (
	"fmt"
	"log/slog"
	"slices"

	"github.com/Carmen-Shannon/oxy-render/engine/gpu"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer/material"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer/preparer"
)

const (
	// MaxMaterials is the largest number of distinct materials one frame can reference.
	MaxMaterials = 65535

	DefaultInstanceCapacity = 1024
	DefaultMaterialCapacity = 64
)

// growable is a GPU storage buffer whose capacity is counted in fixed-size records.
type growable struct {
	label      string
	recordSize uint64
	capacity   int
	buffer     gpu.Buffer
}

// manager is the implementation of the Manager interface.
type manager struct {
	device gpu.Device
	logger *slog.Logger

	layout    gpu.BindGroupLayout
	bindGroup gpu.BindGroup

	instances growable
	materials growable

	initialInstances int
	initialMaterials int
	maxRecords       int

	// host-side scratch reused across frames
	instanceData  []byte
	materialData  []byte
	materialTable map[material.Material]uint32
	materialList  []material.Material
	materialIndex []uint32

	uploaded   int
	generation uint64
	growths    int
}

// Manager serializes prepared batches into the instance and material storage buffers, growing them on demand.
// The bind group it exposes references both buffers and is rebuilt whenever either buffer is reallocated, so
// callers must fetch it every frame rather than caching it.
type Manager interface {
	// Update rebuilds the host records for every instance of prepared, in batch order, deduplicates materials by
	// value, grows the GPU buffers if the records do not fit, and uploads each non-empty buffer with one write.
	// A device allocation failure during growth panics.
	//
	// Parameters:
	//   - prepared: the ordered batches of the frame
	//
	// Returns:
	//   - error: an error if the bind group could not be rebuilt after growth
	Update(prepared preparer.PreparedBatches) error

	// Layout returns the bind group layout describing the instance (binding 0) and material (binding 1) buffers.
	//
	// Returns:
	//   - gpu.BindGroupLayout: the layout
	Layout() gpu.BindGroupLayout

	// BindGroup returns the current bind group.
	//
	// Returns:
	//   - gpu.BindGroup: the bind group referencing the current buffers
	BindGroup() gpu.BindGroup

	// Generation returns a counter that increments every time the bind group is rebuilt.
	//
	// Returns:
	//   - uint64: the bind group generation
	Generation() uint64

	// InstanceCapacity returns the capacity of the instance buffer in records.
	//
	// Returns:
	//   - int: the instance capacity
	InstanceCapacity() int

	// MaterialCapacity returns the capacity of the material buffer in records.
	//
	// Returns:
	//   - int: the material capacity
	MaterialCapacity() int

	// Uploaded returns the number of instance records uploaded by the last Update. It is smaller than the
	// prepared instance count only when the device buffer size limit was hit.
	//
	// Returns:
	//   - int: the uploaded instance count
	Uploaded() int

	// Materials returns the deduplicated material table of the last Update, in first-use order.
	//
	// Returns:
	//   - []material.Material: the material table, valid until the next Update
	Materials() []material.Material

	// MaterialIndex returns the material table index of a flattened instance.
	//
	// Parameters:
	//   - instance: the flattened instance index
	//
	// Returns:
	//   - uint32: the material index, 0 when out of range
	MaterialIndex(instance int) uint32

	// Growths returns how many times either buffer has been reallocated.
	//
	// Returns:
	//   - int: the growth count
	Growths() int

	// Release frees the buffers, bind group and layout.
	Release()
}

var _ Manager = &manager{}

// NewManager creates a Manager and allocates both buffers at their initial capacity.
// Initial allocation failures panic.
//
// Parameters:
//   - device: the GPU device
//   - options: variadic list of ManagerBuilderOption functions to configure the manager
//
// Returns:
//   - Manager: the new manager
func NewManager(device gpu.Device, options ...ManagerBuilderOption) Manager {
	m := &manager{
		device:           device,
		logger:           slog.Default(),
		initialInstances: DefaultInstanceCapacity,
		initialMaterials: DefaultMaterialCapacity,
		materialTable:    make(map[material.Material]uint32),
	}
	for _, opt := range options {
		opt(m)
	}
	m.logger = m.logger.With(slog.String("component", "buffers"))

	m.maxRecords = int(^uint(0) >> 1)
	if limit := device.Limits().MaxBufferSize; limit > 0 {
		m.maxRecords = int(limit / GPUInstanceSize)
	}

	layout, err := device.CreateBindGroupLayout(gpu.BindGroupLayoutDescriptor{
		Label: "objects",
		Entries: []gpu.BindGroupLayoutEntry{
			{Binding: 0, Visibility: gpu.ShaderStageVertex | gpu.ShaderStageFragment, Type: gpu.BindingTypeReadOnlyStorage},
			{Binding: 1, Visibility: gpu.ShaderStageVertex | gpu.ShaderStageFragment, Type: gpu.BindingTypeReadOnlyStorage},
		},
	})
	if err != nil {
		panic(fmt.Sprintf("buffers: failed to create bind group layout: %v", err))
	}
	m.layout = layout

	m.instances = growable{label: "instances", recordSize: GPUInstanceSize}
	m.materials = growable{label: "materials", recordSize: material.GPUMaterialSize}
	m.allocate(&m.instances, max(m.initialInstances, 1))
	m.allocate(&m.materials, max(m.initialMaterials, 1))
	if err := m.rebuildBindGroup(); err != nil {
		panic(fmt.Sprintf("buffers: failed to create bind group: %v", err))
	}
	return m
}

func (m *manager) Update(prepared preparer.PreparedBatches) error {
	// Reset scratch
	clear(m.materialTable)
	m.materialList = m.materialList[:0]
	m.materialData = m.materialData[:0]
	m.materialIndex = m.materialIndex[:0]

	total := prepared.InstanceCount()
	count := total
	if count > m.maxRecords {
		m.logger.Warn("instance count exceeds device buffer limit, truncating",
			slog.Int("instances", total), slog.Int("limit", m.maxRecords))
		count = m.maxRecords
	}
	m.instanceData = slices.Grow(m.instanceData[:0], count*GPUInstanceSize)[:count*GPUInstanceSize]

	overflowed := false
	n := 0
	var record GPUInstance
	for _, ob := range prepared.Batches {
		for i := range ob.Instances {
			if n == count {
				break
			}
			inst := &ob.Instances[i]
			idx, ok := m.materialTable[inst.Material]
			if !ok {
				if len(m.materialList) >= MaxMaterials {
					overflowed = true
					idx = 0
				} else {
					idx = uint32(len(m.materialList))
					m.materialTable[inst.Material] = idx
					m.materialList = append(m.materialList, inst.Material)
					gm := inst.Material.GPU()
					off := len(m.materialData)
					m.materialData = slices.Grow(m.materialData, material.GPUMaterialSize)[:off+material.GPUMaterialSize]
					gm.MarshalInto(m.materialData[off:])
				}
			}
			m.materialIndex = append(m.materialIndex, idx)

			record.Model = inst.Transform
			record.MaterialIndex = idx
			record.MarshalInto(m.instanceData[n*GPUInstanceSize:])
			n++
		}
	}
	if overflowed {
		m.logger.Warn("material table full, clamping material index to 0", slog.Int("max", MaxMaterials))
	}
	m.uploaded = n

	// Grow before upload so the single write fits
	rebuild := false
	if n > m.instances.capacity {
		m.grow(&m.instances, n)
		rebuild = true
	}
	if len(m.materialList) > m.materials.capacity {
		m.grow(&m.materials, len(m.materialList))
		rebuild = true
	}
	if rebuild {
		if err := m.rebuildBindGroup(); err != nil {
			return fmt.Errorf("buffers: failed to rebuild bind group: %w", err)
		}
	}

	if len(m.instanceData) > 0 {
		m.device.WriteBuffer(m.instances.buffer, 0, m.instanceData)
	}
	if len(m.materialData) > 0 {
		m.device.WriteBuffer(m.materials.buffer, 0, m.materialData)
	}
	return nil
}

func (m *manager) Layout() gpu.BindGroupLayout {
	return m.layout
}

func (m *manager) BindGroup() gpu.BindGroup {
	return m.bindGroup
}

func (m *manager) Generation() uint64 {
	return m.generation
}

func (m *manager) InstanceCapacity() int {
	return m.instances.capacity
}

func (m *manager) MaterialCapacity() int {
	return m.materials.capacity
}

func (m *manager) Uploaded() int {
	return m.uploaded
}

func (m *manager) Materials() []material.Material {
	return m.materialList
}

func (m *manager) MaterialIndex(instance int) uint32 {
	if instance < 0 || instance >= len(m.materialIndex) {
		return 0
	}
	return m.materialIndex[instance]
}

func (m *manager) Growths() int {
	return m.growths
}

func (m *manager) Release() {
	if m.bindGroup != nil {
		m.bindGroup.Release()
		m.bindGroup = nil
	}
	for _, g := range []*growable{&m.instances, &m.materials} {
		if g.buffer != nil {
			g.buffer.Release()
			g.buffer = nil
		}
	}
	if m.layout != nil {
		m.layout.Release()
		m.layout = nil
	}
}

// grow reallocates g to max(required, capacity*2) records, capped by the device buffer limit.
func (m *manager) grow(g *growable, required int) {
	newCap := min(max(required, g.capacity*2), m.maxRecords)
	old := g.capacity
	if g.buffer != nil {
		g.buffer.Release()
	}
	m.allocate(g, newCap)
	m.growths++
	m.logger.Info("grew storage buffer",
		slog.String("buffer", g.label), slog.Int("from", old), slog.Int("to", newCap))
}

func (m *manager) allocate(g *growable, records int) {
	buf, err := m.device.CreateBuffer(gpu.BufferDescriptor{
		Label: g.label,
		Size:  uint64(records) * g.recordSize,
		Usage: gpu.BufferUsageStorage | gpu.BufferUsageCopyDst,
	})
	if err != nil {
		panic(fmt.Sprintf("buffers: failed to allocate %s buffer for %d records: %v", g.label, records, err))
	}
	g.buffer = buf
	g.capacity = records
}

func (m *manager) rebuildBindGroup() error {
	bg, err := m.device.CreateBindGroup(gpu.BindGroupDescriptor{
		Label:  "objects",
		Layout: m.layout,
		Entries: []gpu.BindGroupEntry{
			{Binding: 0, Buffer: m.instances.buffer},
			{Binding: 1, Buffer: m.materials.buffer},
		},
	})
	if err != nil {
		return err
	}
	if m.bindGroup != nil {
		m.bindGroup.Release()
	}
	m.bindGroup = bg
	m.generation++
	return nil
}
