package gpu

import (
	"fmt"
	"os"
	"runtime"
	"strings"
	"sync"

	"github.com/cogentcore/webgpu/wgpu"
)

// WGPUBackend is the cogentcore/webgpu implementation of Device and Surface.
// A single backend owns the instance, adapter, device, queue and presentation surface.
type WGPUBackend interface {
	Device
	Surface

	// SetPresentMode changes the present mode. Takes effect on the next Configure.
	//
	// Parameters:
	//   - mode: the PresentMode to use
	SetPresentMode(mode PresentMode)

	// Release frees the device, surface, adapter and instance.
	Release()
}

type wgpuBackend struct {
	mu *sync.Mutex

	instance *wgpu.Instance
	adapter  *wgpu.Adapter
	device   *wgpu.Device
	queue    *wgpu.Queue
	surface  *wgpu.Surface

	surfaceFormat wgpu.TextureFormat
	presentMode   PresentMode
	width         uint32
	height        uint32
	limits        Limits

	forceFallbackAdapter bool

	frameTexture *wgpu.Texture
	frameView    *wgpu.TextureView
}

var _ WGPUBackend = &wgpuBackend{}

// ApplyLogLevelFromEnv maps the WGPU_LOG_LEVEL environment variable onto the native wgpu log level.
// Unknown or empty values leave the wgpu default in place.
func ApplyLogLevelFromEnv() {
	switch strings.ToUpper(os.Getenv("WGPU_LOG_LEVEL")) {
	case "OFF":
		wgpu.SetLogLevel(wgpu.LogLevelOff)
	case "ERROR":
		wgpu.SetLogLevel(wgpu.LogLevelError)
	case "WARN":
		wgpu.SetLogLevel(wgpu.LogLevelWarn)
	case "INFO":
		wgpu.SetLogLevel(wgpu.LogLevelInfo)
	case "DEBUG":
		wgpu.SetLogLevel(wgpu.LogLevelDebug)
	case "TRACE":
		wgpu.SetLogLevel(wgpu.LogLevelTrace)
	}
}

// NewWGPUBackend creates the instance, surface, adapter, device and queue for the given window surface.
// Adapter or device acquisition failure is fatal and panics.
//
// Parameters:
//   - surfaceDescriptor: the platform surface descriptor produced by the window
//   - options: variadic list of WGPUBuilderOption functions
//
// Returns:
//   - WGPUBackend: the initialized backend; call Configure before rendering
func NewWGPUBackend(surfaceDescriptor *wgpu.SurfaceDescriptor, options ...WGPUBuilderOption) WGPUBackend {
	runtime.LockOSThread()
	b := &wgpuBackend{
		mu:          &sync.Mutex{},
		instance:    wgpu.CreateInstance(nil),
		presentMode: PresentModeVSync,
	}
	for _, opt := range options {
		opt(b)
	}

	b.surface = b.instance.CreateSurface(surfaceDescriptor)

	a, err := b.instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		ForceFallbackAdapter: b.forceFallbackAdapter,
		CompatibleSurface:    b.surface,
	})
	if err != nil {
		panic(fmt.Sprintf("gpu: failed to request adapter: %v", err))
	}
	b.adapter = a

	supported := a.GetLimits()
	limits := wgpu.DefaultLimits()
	limits.MaxBindGroups = 4
	limits.MaxTextureArrayLayers = supported.Limits.MaxTextureArrayLayers
	limits.MaxBufferSize = supported.Limits.MaxBufferSize
	limits.MaxStorageBufferBindingSize = supported.Limits.MaxStorageBufferBindingSize

	d, err := a.RequestDevice(&wgpu.DeviceDescriptor{
		Label: "Frame Core Device",
		RequiredLimits: &wgpu.RequiredLimits{
			Limits: limits,
		},
	})
	if err != nil {
		panic(fmt.Sprintf("gpu: failed to request device: %v", err))
	}
	b.device = d
	b.queue = d.GetQueue()
	b.limits = Limits{
		MaxTextureArrayLayers: limits.MaxTextureArrayLayers,
		MaxTextureDimension2D: limits.MaxTextureDimension2D,
		MaxBufferSize:         limits.MaxBufferSize,
	}

	return b
}

func (b *wgpuBackend) SetPresentMode(mode PresentMode) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.presentMode = mode
}

func (b *wgpuBackend) Configure(width, height uint32) {
	b.mu.Lock()
	defer b.mu.Unlock()

	capabilities := b.surface.GetCapabilities(b.adapter)
	b.surfaceFormat = capabilities.Formats[0]

	presentMode := wgpu.PresentModeFifo
	if b.presentMode == PresentModeUncapped {
		presentMode = wgpu.PresentModeImmediate
	}

	b.surface.Configure(b.adapter, b.device, &wgpu.SurfaceConfiguration{
		Usage:       wgpu.TextureUsageRenderAttachment,
		Format:      b.surfaceFormat,
		Width:       width,
		Height:      height,
		PresentMode: presentMode,
		AlphaMode:   capabilities.AlphaModes[0],
	})
	b.width = width
	b.height = height
}

func (b *wgpuBackend) Size() (uint32, uint32) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.width, b.height
}

func (b *wgpuBackend) Acquire() (TextureView, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.frameTexture != nil {
		return nil, NewSurfaceError(SurfaceStatusTimeout, fmt.Errorf("previous frame surface not yet presented"))
	}

	surfaceTexture, err := b.surface.GetCurrentTexture()
	if err != nil {
		return nil, NewSurfaceError(classifySurfaceError(err), err)
	}

	view, err := surfaceTexture.CreateView(nil)
	if err != nil {
		surfaceTexture.Release()
		return nil, NewSurfaceError(SurfaceStatusLost, err)
	}

	b.frameTexture = surfaceTexture
	b.frameView = view
	return &wgpuTextureView{view: view}, nil
}

func (b *wgpuBackend) Present() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.frameTexture == nil {
		return
	}
	b.surface.Present()
	b.releaseFrame()
}

func (b *wgpuBackend) Discard() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.releaseFrame()
}

func (b *wgpuBackend) releaseFrame() {
	if b.frameView != nil {
		b.frameView.Release()
		b.frameView = nil
	}
	if b.frameTexture != nil {
		b.frameTexture.Release()
		b.frameTexture = nil
	}
}

func (b *wgpuBackend) Limits() Limits {
	return b.limits
}

func (b *wgpuBackend) CreateBuffer(desc BufferDescriptor) (Buffer, error) {
	buf, err := b.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label:            desc.Label,
		Size:             desc.Size,
		Usage:            toWGPUBufferUsage(desc.Usage),
		MappedAtCreation: false,
	})
	if err != nil {
		return nil, fmt.Errorf("gpu: failed to create buffer %q: %w", desc.Label, err)
	}
	return &wgpuBuffer{buf: buf, label: desc.Label, size: desc.Size}, nil
}

func (b *wgpuBackend) WriteBuffer(buf Buffer, offset uint64, data []byte) {
	if len(data) == 0 {
		return
	}
	b.queue.WriteBuffer(buf.(*wgpuBuffer).buf, offset, data)
}

func (b *wgpuBackend) CreateTexture(desc TextureDescriptor) (Texture, error) {
	format := b.toWGPUTextureFormat(desc.Format)
	layers := max(desc.Layers, 1)
	tex, err := b.device.CreateTexture(&wgpu.TextureDescriptor{
		Label: desc.Label,
		Size: wgpu.Extent3D{
			Width:              desc.Width,
			Height:             desc.Height,
			DepthOrArrayLayers: layers,
		},
		MipLevelCount: 1,
		SampleCount:   max(desc.SampleCount, 1),
		Dimension:     wgpu.TextureDimension2D,
		Format:        format,
		Usage:         toWGPUTextureUsage(desc.Usage),
	})
	if err != nil {
		return nil, fmt.Errorf("gpu: failed to create texture %q: %w", desc.Label, err)
	}
	return &wgpuTexture{tex: tex, format: format, layers: layers, label: desc.Label}, nil
}

func (b *wgpuBackend) WriteTexture(tex Texture, layer, width, height uint32, pixels []byte) {
	t := tex.(*wgpuTexture)
	b.queue.WriteTexture(
		&wgpu.ImageCopyTexture{
			Texture:  t.tex,
			MipLevel: 0,
			Origin:   wgpu.Origin3D{Z: layer},
			Aspect:   wgpu.TextureAspectAll,
		},
		pixels,
		&wgpu.TextureDataLayout{
			Offset:       0,
			BytesPerRow:  width * 4,
			RowsPerImage: height,
		},
		&wgpu.Extent3D{
			Width:              width,
			Height:             height,
			DepthOrArrayLayers: 1,
		},
	)
}

func (b *wgpuBackend) CreateSampler(desc SamplerDescriptor) (Sampler, error) {
	address := wgpu.AddressModeClampToEdge
	if desc.Repeat {
		address = wgpu.AddressModeRepeat
	}
	sd := &wgpu.SamplerDescriptor{
		Label:         desc.Label,
		AddressModeU:  address,
		AddressModeV:  address,
		AddressModeW:  address,
		MagFilter:     wgpu.FilterModeLinear,
		MinFilter:     wgpu.FilterModeLinear,
		MipmapFilter:  wgpu.MipmapFilterModeNearest,
		LodMinClamp:   0,
		LodMaxClamp:   32,
		MaxAnisotropy: 1,
	}
	if desc.Comparison {
		sd.Compare = wgpu.CompareFunctionLess
	}
	s, err := b.device.CreateSampler(sd)
	if err != nil {
		return nil, fmt.Errorf("gpu: failed to create sampler %q: %w", desc.Label, err)
	}
	return &wgpuSampler{sampler: s}, nil
}

func (b *wgpuBackend) CreateBindGroupLayout(desc BindGroupLayoutDescriptor) (BindGroupLayout, error) {
	entries := make([]wgpu.BindGroupLayoutEntry, len(desc.Entries))
	for i, e := range desc.Entries {
		entry := wgpu.BindGroupLayoutEntry{
			Binding:    e.Binding,
			Visibility: toWGPUShaderStage(e.Visibility),
		}
		switch e.Type {
		case BindingTypeUniform:
			entry.Buffer.Type = wgpu.BufferBindingTypeUniform
		case BindingTypeReadOnlyStorage:
			entry.Buffer.Type = wgpu.BufferBindingTypeReadOnlyStorage
		case BindingTypeTexture2D:
			entry.Texture.SampleType = wgpu.TextureSampleTypeFloat
			entry.Texture.ViewDimension = wgpu.TextureViewDimension2D
		case BindingTypeTexture2DArray:
			entry.Texture.SampleType = wgpu.TextureSampleTypeFloat
			entry.Texture.ViewDimension = wgpu.TextureViewDimension2DArray
		case BindingTypeDepthTexture2DArray:
			entry.Texture.SampleType = wgpu.TextureSampleTypeDepth
			entry.Texture.ViewDimension = wgpu.TextureViewDimension2DArray
		case BindingTypeFilteringSampler:
			entry.Sampler.Type = wgpu.SamplerBindingTypeFiltering
		case BindingTypeComparisonSampler:
			entry.Sampler.Type = wgpu.SamplerBindingTypeComparison
		}
		entries[i] = entry
	}

	layout, err := b.device.CreateBindGroupLayout(&wgpu.BindGroupLayoutDescriptor{
		Label:   desc.Label,
		Entries: entries,
	})
	if err != nil {
		return nil, fmt.Errorf("gpu: failed to create bind group layout %q: %w", desc.Label, err)
	}
	return &wgpuBindGroupLayout{layout: layout}, nil
}

func (b *wgpuBackend) CreateBindGroup(desc BindGroupDescriptor) (BindGroup, error) {
	entries := make([]wgpu.BindGroupEntry, len(desc.Entries))
	for i, e := range desc.Entries {
		entry := wgpu.BindGroupEntry{Binding: e.Binding}
		switch {
		case e.Buffer != nil:
			entry.Buffer = e.Buffer.(*wgpuBuffer).buf
			entry.Offset = 0
			entry.Size = wgpu.WholeSize
		case e.TextureView != nil:
			entry.TextureView = e.TextureView.(*wgpuTextureView).view
		case e.Sampler != nil:
			entry.Sampler = e.Sampler.(*wgpuSampler).sampler
		default:
			return nil, fmt.Errorf("gpu: bind group %q entry %d has no resource", desc.Label, e.Binding)
		}
		entries[i] = entry
	}

	bg, err := b.device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:   desc.Label,
		Layout:  desc.Layout.(*wgpuBindGroupLayout).layout,
		Entries: entries,
	})
	if err != nil {
		return nil, fmt.Errorf("gpu: failed to create bind group %q: %w", desc.Label, err)
	}
	return &wgpuBindGroup{group: bg}, nil
}

func (b *wgpuBackend) CreateRenderPipeline(desc RenderPipelineDescriptor) (RenderPipeline, error) {
	module, err := b.device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label: desc.Label + " Shader",
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{
			Code: desc.ShaderSource,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("gpu: failed to compile shader for %q: %w", desc.Label, err)
	}
	defer module.Release()

	layouts := make([]*wgpu.BindGroupLayout, len(desc.Layouts))
	for i, l := range desc.Layouts {
		layouts[i] = l.(*wgpuBindGroupLayout).layout
	}
	pipelineLayout, err := b.device.CreatePipelineLayout(&wgpu.PipelineLayoutDescriptor{
		Label:            desc.Label + " Layout",
		BindGroupLayouts: layouts,
	})
	if err != nil {
		return nil, fmt.Errorf("gpu: failed to create pipeline layout for %q: %w", desc.Label, err)
	}

	var fragment *wgpu.FragmentState
	if desc.FragmentEntry != "" && desc.ColorFormat != TextureFormatUndefined {
		target := wgpu.ColorTargetState{
			Format:    b.toWGPUTextureFormat(desc.ColorFormat),
			WriteMask: wgpu.ColorWriteMaskAll,
		}
		if desc.AlphaBlend {
			target.Blend = &wgpu.BlendState{
				Color: wgpu.BlendComponent{
					SrcFactor: wgpu.BlendFactorSrcAlpha,
					DstFactor: wgpu.BlendFactorOneMinusSrcAlpha,
					Operation: wgpu.BlendOperationAdd,
				},
				Alpha: wgpu.BlendComponent{
					SrcFactor: wgpu.BlendFactorOne,
					DstFactor: wgpu.BlendFactorOneMinusSrcAlpha,
					Operation: wgpu.BlendOperationAdd,
				},
			}
		}
		fragment = &wgpu.FragmentState{
			Module:     module,
			EntryPoint: desc.FragmentEntry,
			Targets:    []wgpu.ColorTargetState{target},
		}
	}

	var depthStencil *wgpu.DepthStencilState
	if desc.DepthFormat != TextureFormatUndefined {
		compare := wgpu.CompareFunctionAlways
		if desc.DepthTest {
			compare = wgpu.CompareFunctionLessEqual
		}
		depthStencil = &wgpu.DepthStencilState{
			Format:              b.toWGPUTextureFormat(desc.DepthFormat),
			DepthWriteEnabled:   desc.DepthWrite,
			DepthCompare:        compare,
			DepthBias:           desc.DepthBias,
			DepthBiasSlopeScale: desc.DepthBiasSlopeScale,
			StencilFront: wgpu.StencilFaceState{
				Compare: wgpu.CompareFunctionAlways,
			},
			StencilBack: wgpu.StencilFaceState{
				Compare: wgpu.CompareFunctionAlways,
			},
		}
	}

	created, err := b.device.CreateRenderPipeline(&wgpu.RenderPipelineDescriptor{
		Label:  desc.Label,
		Layout: pipelineLayout,
		Vertex: wgpu.VertexState{
			Module:     module,
			EntryPoint: desc.VertexEntry,
			Buffers:    vertexBuffers(desc.VertexLayout),
		},
		Fragment: fragment,
		Primitive: wgpu.PrimitiveState{
			Topology:  wgpu.PrimitiveTopologyTriangleList,
			FrontFace: wgpu.FrontFaceCCW,
			CullMode:  toWGPUCullMode(desc.CullMode),
		},
		Multisample: wgpu.MultisampleState{
			Count: max(desc.SampleCount, 1),
			Mask:  0xFFFFFFFF,
		},
		DepthStencil: depthStencil,
	})
	if err != nil {
		return nil, fmt.Errorf("gpu: failed to create render pipeline %q: %w", desc.Label, err)
	}
	return &wgpuRenderPipeline{pipeline: created, label: desc.Label}, nil
}

func (b *wgpuBackend) CreateCommandEncoder(label string) (CommandEncoder, error) {
	enc, err := b.device.CreateCommandEncoder(&wgpu.CommandEncoderDescriptor{Label: label})
	if err != nil {
		return nil, fmt.Errorf("gpu: failed to create command encoder: %w", err)
	}
	return &wgpuCommandEncoder{enc: enc}, nil
}

func (b *wgpuBackend) Submit(cmd CommandBuffer) {
	b.queue.Submit(cmd.(*wgpuCommandBuffer).cb)
}

func (b *wgpuBackend) Release() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.releaseFrame()
	if b.device != nil {
		b.device.Release()
	}
	if b.adapter != nil {
		b.adapter.Release()
	}
	if b.surface != nil {
		b.surface.Release()
	}
	if b.instance != nil {
		b.instance.Release()
	}
}

func (b *wgpuBackend) toWGPUTextureFormat(f TextureFormat) wgpu.TextureFormat {
	switch f {
	case TextureFormatSurface:
		return b.surfaceFormat
	case TextureFormatRGBA8UnormSrgb:
		return wgpu.TextureFormatRGBA8UnormSrgb
	case TextureFormatDepth24Plus:
		return wgpu.TextureFormatDepth24Plus
	case TextureFormatDepth32Float:
		return wgpu.TextureFormatDepth32Float
	default:
		return wgpu.TextureFormatUndefined
	}
}

// classifySurfaceError maps a GetCurrentTexture failure onto a SurfaceStatus.
// The bindings report the native status only through the error text.
func classifySurfaceError(err error) SurfaceStatus {
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "timeout"):
		return SurfaceStatusTimeout
	case strings.Contains(msg, "lost"):
		return SurfaceStatusLost
	case strings.Contains(msg, "memory"):
		return SurfaceStatusOutOfMemory
	default:
		return SurfaceStatusOutdated
	}
}

func vertexBuffers(layout VertexLayout) []wgpu.VertexBufferLayout {
	if layout != VertexLayoutMesh {
		return nil
	}
	return []wgpu.VertexBufferLayout{{
		ArrayStride: MeshVertexStride,
		StepMode:    wgpu.VertexStepModeVertex,
		Attributes: []wgpu.VertexAttribute{
			{Format: wgpu.VertexFormatFloat32x3, Offset: 0, ShaderLocation: 0},
			{Format: wgpu.VertexFormatFloat32x3, Offset: 12, ShaderLocation: 1},
			{Format: wgpu.VertexFormatFloat32x2, Offset: 24, ShaderLocation: 2},
		},
	}}
}

func toWGPUBufferUsage(u BufferUsage) wgpu.BufferUsage {
	var out wgpu.BufferUsage
	if u&BufferUsageCopySrc != 0 {
		out |= wgpu.BufferUsageCopySrc
	}
	if u&BufferUsageCopyDst != 0 {
		out |= wgpu.BufferUsageCopyDst
	}
	if u&BufferUsageIndex != 0 {
		out |= wgpu.BufferUsageIndex
	}
	if u&BufferUsageVertex != 0 {
		out |= wgpu.BufferUsageVertex
	}
	if u&BufferUsageUniform != 0 {
		out |= wgpu.BufferUsageUniform
	}
	if u&BufferUsageStorage != 0 {
		out |= wgpu.BufferUsageStorage
	}
	return out
}

func toWGPUTextureUsage(u TextureUsage) wgpu.TextureUsage {
	var out wgpu.TextureUsage
	if u&TextureUsageRenderAttachment != 0 {
		out |= wgpu.TextureUsageRenderAttachment
	}
	if u&TextureUsageTextureBinding != 0 {
		out |= wgpu.TextureUsageTextureBinding
	}
	if u&TextureUsageCopyDst != 0 {
		out |= wgpu.TextureUsageCopyDst
	}
	return out
}

func toWGPUShaderStage(s ShaderStage) wgpu.ShaderStage {
	var out wgpu.ShaderStage
	if s&ShaderStageVertex != 0 {
		out |= wgpu.ShaderStageVertex
	}
	if s&ShaderStageFragment != 0 {
		out |= wgpu.ShaderStageFragment
	}
	return out
}

func toWGPUCullMode(c CullMode) wgpu.CullMode {
	switch c {
	case CullModeBack:
		return wgpu.CullModeBack
	case CullModeFront:
		return wgpu.CullModeFront
	default:
		return wgpu.CullModeNone
	}
}
