// Package gpu defines the narrow GPU surface the frame core records against.
//
// Every core component (buffer manager, pipeline cache, shadow subsystem, frame composer) talks to a Device,
// a Surface and the encoders they hand out. The production implementation wraps github.com/cogentcore/webgpu;
// the gputest sub-package provides a recording implementation for tests.
package gpu

// Buffer is a GPU buffer handle.
type Buffer interface {
	// Label returns the debug label the buffer was created with.
	//
	// Returns:
	//   - string: the buffer label
	Label() string

	// Size returns the allocated size of the buffer in bytes.
	//
	// Returns:
	//   - uint64: the buffer size in bytes
	Size() uint64

	// Release frees the GPU allocation. The handle must not be used afterwards.
	Release()
}

// Texture is a GPU texture handle.
type Texture interface {
	// CreateView creates a view onto the texture.
	//
	// Parameters:
	//   - desc: the layer range to view, or nil to view the whole texture
	//
	// Returns:
	//   - TextureView: the created view
	//   - error: error if the view could not be created
	CreateView(desc *TextureViewDescriptor) (TextureView, error)

	// Release frees the GPU allocation.
	Release()
}

// TextureView is a view onto a texture usable as an attachment or a binding.
type TextureView interface {
	Release()
}

// Sampler is a GPU sampler handle.
type Sampler interface {
	Release()
}

// BindGroupLayout is a GPU bind group layout handle.
type BindGroupLayout interface {
	Release()
}

// BindGroup is a GPU bind group handle.
type BindGroup interface {
	Release()
}

// RenderPipeline is a compiled render pipeline handle.
type RenderPipeline interface {
	// Label returns the debug label the pipeline was created with.
	//
	// Returns:
	//   - string: the pipeline label
	Label() string

	Release()
}

// CommandBuffer is a finished, submittable command buffer.
type CommandBuffer interface {
	Release()
}

// Device creates GPU resources and accepts queue writes and submissions.
type Device interface {
	// CreateBuffer allocates a GPU buffer.
	//
	// Parameters:
	//   - desc: the buffer descriptor
	//
	// Returns:
	//   - Buffer: the allocated buffer
	//   - error: error if the allocation failed
	CreateBuffer(desc BufferDescriptor) (Buffer, error)

	// WriteBuffer schedules a queue write of data into buf at offset. The write is ordered before any
	// command buffer submitted afterwards.
	//
	// Parameters:
	//   - buf: the destination buffer
	//   - offset: byte offset into buf
	//   - data: the bytes to write
	WriteBuffer(buf Buffer, offset uint64, data []byte)

	// CreateTexture allocates a texture.
	//
	// Parameters:
	//   - desc: the texture descriptor
	//
	// Returns:
	//   - Texture: the allocated texture
	//   - error: error if the allocation failed
	CreateTexture(desc TextureDescriptor) (Texture, error)

	// WriteTexture uploads tightly packed RGBA8 pixels into one layer of a texture.
	//
	// Parameters:
	//   - tex: the destination texture
	//   - layer: the destination array layer
	//   - width: the width of the pixel data in texels
	//   - height: the height of the pixel data in texels
	//   - pixels: RGBA8 pixel data, 4 bytes per texel
	WriteTexture(tex Texture, layer, width, height uint32, pixels []byte)

	// CreateSampler creates a sampler.
	//
	// Parameters:
	//   - desc: the sampler descriptor
	//
	// Returns:
	//   - Sampler: the created sampler
	//   - error: error if creation failed
	CreateSampler(desc SamplerDescriptor) (Sampler, error)

	// CreateBindGroupLayout creates a bind group layout.
	//
	// Parameters:
	//   - desc: the layout descriptor
	//
	// Returns:
	//   - BindGroupLayout: the created layout
	//   - error: error if creation failed
	CreateBindGroupLayout(desc BindGroupLayoutDescriptor) (BindGroupLayout, error)

	// CreateBindGroup creates a bind group.
	//
	// Parameters:
	//   - desc: the bind group descriptor
	//
	// Returns:
	//   - BindGroup: the created bind group
	//   - error: error if creation failed
	CreateBindGroup(desc BindGroupDescriptor) (BindGroup, error)

	// CreateRenderPipeline compiles a render pipeline.
	//
	// Parameters:
	//   - desc: the pipeline descriptor
	//
	// Returns:
	//   - RenderPipeline: the compiled pipeline
	//   - error: error if shader compilation or pipeline creation failed
	CreateRenderPipeline(desc RenderPipelineDescriptor) (RenderPipeline, error)

	// CreateCommandEncoder starts recording a new command buffer.
	//
	// Parameters:
	//   - label: debug label of the encoder
	//
	// Returns:
	//   - CommandEncoder: the encoder
	//   - error: error if the encoder could not be created
	CreateCommandEncoder(label string) (CommandEncoder, error)

	// Submit submits a finished command buffer to the queue. Submission is fire-and-forget.
	//
	// Parameters:
	//   - cmd: the command buffer to submit
	Submit(cmd CommandBuffer)

	// Limits reports the device capabilities.
	//
	// Returns:
	//   - Limits: the device limits
	Limits() Limits
}

// CommandEncoder records copies and render passes into a command buffer.
type CommandEncoder interface {
	// CopyBufferToBuffer records a GPU-side copy between two buffers.
	//
	// Parameters:
	//   - src: the source buffer (must have BufferUsageCopySrc)
	//   - srcOffset: byte offset into src
	//   - dst: the destination buffer (must have BufferUsageCopyDst)
	//   - dstOffset: byte offset into dst
	//   - size: number of bytes to copy
	CopyBufferToBuffer(src Buffer, srcOffset uint64, dst Buffer, dstOffset uint64, size uint64)

	// BeginRenderPass starts a render pass. The returned encoder must be ended before any other command
	// is recorded on this encoder.
	//
	// Parameters:
	//   - desc: the pass attachments
	//
	// Returns:
	//   - RenderPassEncoder: the pass encoder
	BeginRenderPass(desc RenderPassDescriptor) RenderPassEncoder

	// Finish ends recording and produces a command buffer.
	//
	// Returns:
	//   - CommandBuffer: the finished command buffer
	//   - error: error if the recorded commands were invalid
	Finish() (CommandBuffer, error)

	Release()
}

// RenderPassEncoder records draw state and draw calls inside a render pass.
type RenderPassEncoder interface {
	SetPipeline(p RenderPipeline)
	SetBindGroup(index uint32, group BindGroup)
	SetVertexBuffer(slot uint32, buf Buffer)
	SetIndexBuffer(buf Buffer, format IndexFormat)
	Draw(vertexCount, instanceCount, firstVertex, firstInstance uint32)
	DrawIndexed(indexCount, instanceCount, firstIndex uint32, baseVertex int32, firstInstance uint32)
	End()
}

// Surface is the presentation target a frame is rendered into.
type Surface interface {
	// Configure (re)configures the surface for the given framebuffer size.
	//
	// Parameters:
	//   - width: framebuffer width in pixels
	//   - height: framebuffer height in pixels
	Configure(width, height uint32)

	// Size returns the configured framebuffer size.
	//
	// Returns:
	//   - uint32: width in pixels
	//   - uint32: height in pixels
	Size() (uint32, uint32)

	// Acquire acquires the next presentable texture view. Failures are reported as *SurfaceError.
	//
	// Returns:
	//   - TextureView: the view to render into this frame
	//   - error: a *SurfaceError if acquisition failed
	Acquire() (TextureView, error)

	// Present presents the most recently acquired texture and releases it.
	Present()

	// Discard releases an acquired texture without presenting it.
	Discard()
}
