package gpu

import (
	"fmt"

	"github.com/cogentcore/webgpu/wgpu"
)

type wgpuBuffer struct {
	buf   *wgpu.Buffer
	label string
	size  uint64
}

func (b *wgpuBuffer) Label() string { return b.label }
func (b *wgpuBuffer) Size() uint64  { return b.size }
func (b *wgpuBuffer) Release()      { b.buf.Release() }

type wgpuTexture struct {
	tex    *wgpu.Texture
	format wgpu.TextureFormat
	layers uint32
	label  string
}

func (t *wgpuTexture) CreateView(desc *TextureViewDescriptor) (TextureView, error) {
	if desc == nil {
		view, err := t.tex.CreateView(nil)
		if err != nil {
			return nil, fmt.Errorf("gpu: failed to create view of %q: %w", t.label, err)
		}
		return &wgpuTextureView{view: view}, nil
	}

	dimension := wgpu.TextureViewDimension2D
	if desc.Array {
		dimension = wgpu.TextureViewDimension2DArray
	}
	view, err := t.tex.CreateView(&wgpu.TextureViewDescriptor{
		Label:           desc.Label,
		Format:          t.format,
		Dimension:       dimension,
		BaseMipLevel:    0,
		MipLevelCount:   1,
		BaseArrayLayer:  desc.BaseLayer,
		ArrayLayerCount: max(desc.LayerCount, 1),
		Aspect:          wgpu.TextureAspectAll,
	})
	if err != nil {
		return nil, fmt.Errorf("gpu: failed to create view %q of %q: %w", desc.Label, t.label, err)
	}
	return &wgpuTextureView{view: view}, nil
}

func (t *wgpuTexture) Release() { t.tex.Release() }

type wgpuTextureView struct {
	view *wgpu.TextureView
}

func (v *wgpuTextureView) Release() { v.view.Release() }

type wgpuSampler struct {
	sampler *wgpu.Sampler
}

func (s *wgpuSampler) Release() { s.sampler.Release() }

type wgpuBindGroupLayout struct {
	layout *wgpu.BindGroupLayout
}

func (l *wgpuBindGroupLayout) Release() { l.layout.Release() }

type wgpuBindGroup struct {
	group *wgpu.BindGroup
}

func (g *wgpuBindGroup) Release() { g.group.Release() }

type wgpuRenderPipeline struct {
	pipeline *wgpu.RenderPipeline
	label    string
}

func (p *wgpuRenderPipeline) Label() string { return p.label }
func (p *wgpuRenderPipeline) Release()      { p.pipeline.Release() }

type wgpuCommandBuffer struct {
	cb *wgpu.CommandBuffer
}

func (c *wgpuCommandBuffer) Release() { c.cb.Release() }

type wgpuCommandEncoder struct {
	enc *wgpu.CommandEncoder
}

func (e *wgpuCommandEncoder) CopyBufferToBuffer(src Buffer, srcOffset uint64, dst Buffer, dstOffset uint64, size uint64) {
	e.enc.CopyBufferToBuffer(src.(*wgpuBuffer).buf, srcOffset, dst.(*wgpuBuffer).buf, dstOffset, size)
}

func (e *wgpuCommandEncoder) BeginRenderPass(desc RenderPassDescriptor) RenderPassEncoder {
	rp := &wgpu.RenderPassDescriptor{Label: desc.Label}
	if desc.Color != nil {
		att := wgpu.RenderPassColorAttachment{
			View:    desc.Color.View.(*wgpuTextureView).view,
			LoadOp:  toWGPULoadOp(desc.Color.LoadOp),
			StoreOp: toWGPUStoreOp(desc.Color.StoreOp),
			ClearValue: wgpu.Color{
				R: desc.Color.ClearColor[0],
				G: desc.Color.ClearColor[1],
				B: desc.Color.ClearColor[2],
				A: desc.Color.ClearColor[3],
			},
		}
		if desc.Color.ResolveTarget != nil {
			att.ResolveTarget = desc.Color.ResolveTarget.(*wgpuTextureView).view
		}
		rp.ColorAttachments = []wgpu.RenderPassColorAttachment{att}
	}
	if desc.Depth != nil {
		rp.DepthStencilAttachment = &wgpu.RenderPassDepthStencilAttachment{
			View:            desc.Depth.View.(*wgpuTextureView).view,
			DepthLoadOp:     toWGPULoadOp(desc.Depth.LoadOp),
			DepthStoreOp:    toWGPUStoreOp(desc.Depth.StoreOp),
			DepthClearValue: desc.Depth.ClearDepth,
		}
	}
	return &wgpuRenderPass{pass: e.enc.BeginRenderPass(rp)}
}

func (e *wgpuCommandEncoder) Finish() (CommandBuffer, error) {
	cb, err := e.enc.Finish(nil)
	if err != nil {
		return nil, fmt.Errorf("gpu: failed to finish command encoder: %w", err)
	}
	return &wgpuCommandBuffer{cb: cb}, nil
}

func (e *wgpuCommandEncoder) Release() { e.enc.Release() }

type wgpuRenderPass struct {
	pass *wgpu.RenderPassEncoder
}

func (p *wgpuRenderPass) SetPipeline(pl RenderPipeline) {
	p.pass.SetPipeline(pl.(*wgpuRenderPipeline).pipeline)
}

func (p *wgpuRenderPass) SetBindGroup(index uint32, group BindGroup) {
	p.pass.SetBindGroup(index, group.(*wgpuBindGroup).group, nil)
}

func (p *wgpuRenderPass) SetVertexBuffer(slot uint32, buf Buffer) {
	p.pass.SetVertexBuffer(slot, buf.(*wgpuBuffer).buf, 0, wgpu.WholeSize)
}

func (p *wgpuRenderPass) SetIndexBuffer(buf Buffer, format IndexFormat) {
	f := wgpu.IndexFormatUint32
	if format == IndexFormatUint16 {
		f = wgpu.IndexFormatUint16
	}
	p.pass.SetIndexBuffer(buf.(*wgpuBuffer).buf, f, 0, wgpu.WholeSize)
}

func (p *wgpuRenderPass) Draw(vertexCount, instanceCount, firstVertex, firstInstance uint32) {
	p.pass.Draw(vertexCount, instanceCount, firstVertex, firstInstance)
}

func (p *wgpuRenderPass) DrawIndexed(indexCount, instanceCount, firstIndex uint32, baseVertex int32, firstInstance uint32) {
	p.pass.DrawIndexed(indexCount, instanceCount, firstIndex, baseVertex, firstInstance)
}

func (p *wgpuRenderPass) End() {
	p.pass.End()
	p.pass.Release()
}

func toWGPULoadOp(op LoadOp) wgpu.LoadOp {
	if op == LoadOpLoad {
		return wgpu.LoadOpLoad
	}
	return wgpu.LoadOpClear
}

func toWGPUStoreOp(op StoreOp) wgpu.StoreOp {
	if op == StoreOpDiscard {
		return wgpu.StoreOpDiscard
	}
	return wgpu.StoreOpStore
}
