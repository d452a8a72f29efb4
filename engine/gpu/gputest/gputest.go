// Package gputest provides an in-memory gpu.Device and gpu.Surface that record every call in order.
// Buffers keep a host copy of their contents so tests can inspect what a frame uploaded or copied.
package gputest

import (
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/Carmen-Shannon/oxy-render/engine/gpu"
)

// OpKind names a recorded GPU call.
type OpKind string

const (
	OpCreateBuffer       OpKind = "CreateBuffer"
	OpReleaseBuffer      OpKind = "ReleaseBuffer"
	OpWriteBuffer        OpKind = "WriteBuffer"
	OpCreateTexture      OpKind = "CreateTexture"
	OpWriteTexture       OpKind = "WriteTexture"
	OpCreateBindGroup    OpKind = "CreateBindGroup"
	OpReleaseBindGroup   OpKind = "ReleaseBindGroup"
	OpCreatePipeline     OpKind = "CreatePipeline"
	OpCopyBufferToBuffer OpKind = "CopyBufferToBuffer"
	OpBeginRenderPass    OpKind = "BeginRenderPass"
	OpSetPipeline        OpKind = "SetPipeline"
	OpSetBindGroup       OpKind = "SetBindGroup"
	OpSetVertexBuffer    OpKind = "SetVertexBuffer"
	OpSetIndexBuffer     OpKind = "SetIndexBuffer"
	OpDraw               OpKind = "Draw"
	OpDrawIndexed        OpKind = "DrawIndexed"
	OpEndPass            OpKind = "EndPass"
	OpFinish             OpKind = "Finish"
	OpSubmit             OpKind = "Submit"
	OpAcquire            OpKind = "Acquire"
	OpPresent            OpKind = "Present"
	OpDiscard            OpKind = "Discard"
)

// Op is one recorded call. Only the fields relevant to Kind are populated.
type Op struct {
	Kind  OpKind
	Label string

	Buffer *Buffer
	Offset uint64
	Size   uint64
	Data   []byte

	Src       *Buffer
	SrcOffset uint64
	Dst       *Buffer
	DstOffset uint64

	Pass      *gpu.RenderPassDescriptor
	Pipeline  *Pipeline
	BindGroup *BindGroup
	Index     uint32

	VertexCount   uint32
	IndexCount    uint32
	InstanceCount uint32
	FirstIndex    uint32
	FirstVertex   uint32
	BaseVertex    int32
	FirstInstance uint32
}

// Device is a recording gpu.Device.
type Device struct {
	mu  *sync.Mutex
	ops []Op

	limits gpu.Limits

	// FailCreateBuffer makes every CreateBuffer call fail when set.
	FailCreateBuffer bool

	// FailFinish makes CommandEncoder.Finish fail when set.
	FailFinish bool

	// FailCreatePipeline makes every CreateRenderPipeline call fail when set.
	FailCreatePipeline bool

	// FailCreateTexture makes every CreateTexture call fail when set.
	FailCreateTexture bool

	nextID int
}

var _ gpu.Device = &Device{}

// NewDevice creates a recording device with generous default limits.
//
// Returns:
//   - *Device: the recording device
func NewDevice() *Device {
	return &Device{
		mu: &sync.Mutex{},
		limits: gpu.Limits{
			MaxTextureArrayLayers: 256,
			MaxTextureDimension2D: 8192,
			MaxBufferSize:         1 << 28,
		},
	}
}

// SetLimits overrides the limits the device reports.
//
// Parameters:
//   - limits: the limits to report
func (d *Device) SetLimits(limits gpu.Limits) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.limits = limits
}

// Ops returns a copy of every recorded call in order.
//
// Returns:
//   - []Op: the recorded calls
func (d *Device) Ops() []Op {
	d.mu.Lock()
	defer d.mu.Unlock()
	return slices.Clone(d.ops)
}

// OpsOfKind returns the recorded calls of the given kinds in order.
//
// Parameters:
//   - kinds: the kinds to keep
//
// Returns:
//   - []Op: the matching calls
func (d *Device) OpsOfKind(kinds ...OpKind) []Op {
	d.mu.Lock()
	defer d.mu.Unlock()
	var out []Op
	for _, op := range d.ops {
		if slices.Contains(kinds, op.Kind) {
			out = append(out, op)
		}
	}
	return out
}

// Reset discards the recorded calls. Resources stay alive.
func (d *Device) Reset() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.ops = d.ops[:0]
}

// PassRecord groups the calls recorded between BeginRenderPass and End.
type PassRecord struct {
	Label string
	Desc  gpu.RenderPassDescriptor
	Ops   []Op
}

// Draws returns the Draw and DrawIndexed calls of the pass.
//
// Returns:
//   - []Op: the draw calls
func (p PassRecord) Draws() []Op {
	var out []Op
	for _, op := range p.Ops {
		if op.Kind == OpDraw || op.Kind == OpDrawIndexed {
			out = append(out, op)
		}
	}
	return out
}

// Passes returns every recorded render pass in order.
//
// Returns:
//   - []PassRecord: the passes
func (d *Device) Passes() []PassRecord {
	d.mu.Lock()
	defer d.mu.Unlock()
	var out []PassRecord
	var cur *PassRecord
	for _, op := range d.ops {
		switch op.Kind {
		case OpBeginRenderPass:
			out = append(out, PassRecord{Label: op.Label, Desc: *op.Pass})
			cur = &out[len(out)-1]
		case OpEndPass:
			cur = nil
		default:
			if cur != nil {
				cur.Ops = append(cur.Ops, op)
			}
		}
	}
	return out
}

// PassLabels returns the labels of every recorded render pass in order.
//
// Returns:
//   - []string: the pass labels
func (d *Device) PassLabels() []string {
	passes := d.Passes()
	out := make([]string, len(passes))
	for i, p := range passes {
		out[i] = p.Label
	}
	return out
}

func (d *Device) record(op Op) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.ops = append(d.ops, op)
}

func (d *Device) id() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.nextID++
	return d.nextID
}

func (d *Device) CreateBuffer(desc gpu.BufferDescriptor) (gpu.Buffer, error) {
	if d.FailCreateBuffer {
		return nil, errors.New("gputest: buffer allocation refused")
	}
	b := &Buffer{ID: d.id(), device: d, label: desc.Label, Usage: desc.Usage, Contents: make([]byte, desc.Size)}
	d.record(Op{Kind: OpCreateBuffer, Label: desc.Label, Buffer: b, Size: desc.Size})
	return b, nil
}

func (d *Device) WriteBuffer(buf gpu.Buffer, offset uint64, data []byte) {
	b := buf.(*Buffer)
	if offset+uint64(len(data)) > uint64(len(b.Contents)) {
		panic(fmt.Sprintf("gputest: write of %d bytes at %d overflows buffer %q of %d bytes", len(data), offset, b.label, len(b.Contents)))
	}
	copy(b.Contents[offset:], data)
	d.record(Op{Kind: OpWriteBuffer, Label: b.label, Buffer: b, Offset: offset, Size: uint64(len(data)), Data: slices.Clone(data)})
}

func (d *Device) CreateTexture(desc gpu.TextureDescriptor) (gpu.Texture, error) {
	if d.FailCreateTexture {
		return nil, errors.New("gputest: texture allocation refused")
	}
	t := &Texture{ID: d.id(), Desc: desc}
	d.record(Op{Kind: OpCreateTexture, Label: desc.Label})
	return t, nil
}

func (d *Device) WriteTexture(tex gpu.Texture, layer, width, height uint32, pixels []byte) {
	t := tex.(*Texture)
	t.LayerWrites = append(t.LayerWrites, layer)
	d.record(Op{Kind: OpWriteTexture, Label: t.Desc.Label, Index: layer, Size: uint64(len(pixels))})
}

func (d *Device) CreateSampler(desc gpu.SamplerDescriptor) (gpu.Sampler, error) {
	return &Sampler{Desc: desc}, nil
}

func (d *Device) CreateBindGroupLayout(desc gpu.BindGroupLayoutDescriptor) (gpu.BindGroupLayout, error) {
	return &BindGroupLayout{Desc: desc}, nil
}

func (d *Device) CreateBindGroup(desc gpu.BindGroupDescriptor) (gpu.BindGroup, error) {
	bg := &BindGroup{ID: d.id(), device: d, Desc: desc}
	d.record(Op{Kind: OpCreateBindGroup, Label: desc.Label, BindGroup: bg})
	return bg, nil
}

func (d *Device) CreateRenderPipeline(desc gpu.RenderPipelineDescriptor) (gpu.RenderPipeline, error) {
	if d.FailCreatePipeline {
		return nil, errors.New("gputest: pipeline compilation failed")
	}
	p := &Pipeline{Desc: desc}
	d.record(Op{Kind: OpCreatePipeline, Label: desc.Label, Pipeline: p})
	return p, nil
}

func (d *Device) CreateCommandEncoder(label string) (gpu.CommandEncoder, error) {
	return &CommandEncoder{device: d, label: label}, nil
}

func (d *Device) Submit(cmd gpu.CommandBuffer) {
	d.record(Op{Kind: OpSubmit, Label: cmd.(*CommandBuffer).label})
}

func (d *Device) Limits() gpu.Limits {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.limits
}

// Buffer is a recorded buffer with a host copy of its contents.
type Buffer struct {
	ID       int
	Usage    gpu.BufferUsage
	Contents []byte
	Released bool

	device *Device
	label  string
}

func (b *Buffer) Label() string { return b.label }
func (b *Buffer) Size() uint64  { return uint64(len(b.Contents)) }

func (b *Buffer) Release() {
	b.Released = true
	b.device.record(Op{Kind: OpReleaseBuffer, Label: b.label, Buffer: b})
}

// Texture is a recorded texture.
type Texture struct {
	ID          int
	Desc        gpu.TextureDescriptor
	Views       []*TextureView
	LayerWrites []uint32
	Released    bool
}

func (t *Texture) CreateView(desc *gpu.TextureViewDescriptor) (gpu.TextureView, error) {
	v := &TextureView{Texture: t}
	if desc != nil {
		v.Label = desc.Label
		v.BaseLayer = desc.BaseLayer
		v.LayerCount = desc.LayerCount
		v.Array = desc.Array
	} else {
		v.Label = t.Desc.Label
		v.LayerCount = max(t.Desc.Layers, 1)
		v.Array = t.Desc.Layers > 1
	}
	t.Views = append(t.Views, v)
	return v, nil
}

func (t *Texture) Release() { t.Released = true }

// TextureView is a recorded texture view.
type TextureView struct {
	Label      string
	Texture    *Texture
	BaseLayer  uint32
	LayerCount uint32
	Array      bool
	Released   bool
}

func (v *TextureView) Release() { v.Released = true }

// Sampler is a recorded sampler.
type Sampler struct {
	Desc     gpu.SamplerDescriptor
	Released bool
}

func (s *Sampler) Release() { s.Released = true }

// BindGroupLayout is a recorded bind group layout.
type BindGroupLayout struct {
	Desc     gpu.BindGroupLayoutDescriptor
	Released bool
}

func (l *BindGroupLayout) Release() { l.Released = true }

// BindGroup is a recorded bind group.
type BindGroup struct {
	ID       int
	Desc     gpu.BindGroupDescriptor
	Released bool

	device *Device
}

func (g *BindGroup) Release() {
	g.Released = true
	g.device.record(Op{Kind: OpReleaseBindGroup, Label: g.Desc.Label, BindGroup: g})
}

// Pipeline is a recorded render pipeline.
type Pipeline struct {
	Desc     gpu.RenderPipelineDescriptor
	Released bool
}

func (p *Pipeline) Label() string { return p.Desc.Label }
func (p *Pipeline) Release()      { p.Released = true }

// CommandBuffer is a finished recorded command buffer.
type CommandBuffer struct {
	label    string
	Released bool
}

func (c *CommandBuffer) Release() { c.Released = true }

// CommandEncoder records copies and passes into the owning device's log.
type CommandEncoder struct {
	device   *Device
	label    string
	Released bool
}

func (e *CommandEncoder) CopyBufferToBuffer(src gpu.Buffer, srcOffset uint64, dst gpu.Buffer, dstOffset uint64, size uint64) {
	s, t := src.(*Buffer), dst.(*Buffer)
	if srcOffset+size > uint64(len(s.Contents)) || dstOffset+size > uint64(len(t.Contents)) {
		panic(fmt.Sprintf("gputest: copy of %d bytes from %q@%d to %q@%d is out of range", size, s.label, srcOffset, t.label, dstOffset))
	}
	copy(t.Contents[dstOffset:dstOffset+size], s.Contents[srcOffset:srcOffset+size])
	e.device.record(Op{
		Kind: OpCopyBufferToBuffer, Label: t.label,
		Src: s, SrcOffset: srcOffset, Dst: t, DstOffset: dstOffset, Size: size,
		Data: slices.Clone(s.Contents[srcOffset : srcOffset+size]),
	})
}

func (e *CommandEncoder) BeginRenderPass(desc gpu.RenderPassDescriptor) gpu.RenderPassEncoder {
	d := desc
	e.device.record(Op{Kind: OpBeginRenderPass, Label: desc.Label, Pass: &d})
	return &RenderPass{device: e.device, label: desc.Label}
}

func (e *CommandEncoder) Finish() (gpu.CommandBuffer, error) {
	if e.device.FailFinish {
		return nil, errors.New("gputest: invalid command stream")
	}
	e.device.record(Op{Kind: OpFinish, Label: e.label})
	return &CommandBuffer{label: e.label}, nil
}

func (e *CommandEncoder) Release() { e.Released = true }

// RenderPass records pass-level calls.
type RenderPass struct {
	device *Device
	label  string
}

func (p *RenderPass) SetPipeline(pl gpu.RenderPipeline) {
	pp := pl.(*Pipeline)
	p.device.record(Op{Kind: OpSetPipeline, Label: pp.Desc.Label, Pipeline: pp})
}

func (p *RenderPass) SetBindGroup(index uint32, group gpu.BindGroup) {
	g := group.(*BindGroup)
	p.device.record(Op{Kind: OpSetBindGroup, Label: g.Desc.Label, Index: index, BindGroup: g})
}

func (p *RenderPass) SetVertexBuffer(slot uint32, buf gpu.Buffer) {
	b := buf.(*Buffer)
	p.device.record(Op{Kind: OpSetVertexBuffer, Label: b.label, Index: slot, Buffer: b})
}

func (p *RenderPass) SetIndexBuffer(buf gpu.Buffer, format gpu.IndexFormat) {
	b := buf.(*Buffer)
	p.device.record(Op{Kind: OpSetIndexBuffer, Label: b.label, Buffer: b})
}

func (p *RenderPass) Draw(vertexCount, instanceCount, firstVertex, firstInstance uint32) {
	p.device.record(Op{Kind: OpDraw, Label: p.label, VertexCount: vertexCount, InstanceCount: instanceCount, FirstVertex: firstVertex, FirstInstance: firstInstance})
}

func (p *RenderPass) DrawIndexed(indexCount, instanceCount, firstIndex uint32, baseVertex int32, firstInstance uint32) {
	p.device.record(Op{Kind: OpDrawIndexed, Label: p.label, IndexCount: indexCount, InstanceCount: instanceCount, FirstIndex: firstIndex, BaseVertex: baseVertex, FirstInstance: firstInstance})
}

func (p *RenderPass) End() {
	p.device.record(Op{Kind: OpEndPass, Label: p.label})
}
