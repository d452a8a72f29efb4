package gpu

// BufferUsage is a bitmask describing how a GPU buffer may be used.
type BufferUsage uint32

const (
	BufferUsageCopySrc BufferUsage = 1 << iota
	BufferUsageCopyDst
	BufferUsageIndex
	BufferUsageVertex
	BufferUsageUniform
	BufferUsageStorage
)

// IndexFormat identifies the element width of an index buffer.
type IndexFormat uint8

const (
	IndexFormatUint32 IndexFormat = iota
	IndexFormatUint16
)

// TextureFormat identifies the pixel format of a texture.
// TextureFormatSurface resolves to whatever format the presentation surface was configured with.
type TextureFormat uint8

const (
	TextureFormatUndefined TextureFormat = iota
	TextureFormatSurface
	TextureFormatRGBA8UnormSrgb
	TextureFormatDepth24Plus
	TextureFormatDepth32Float
)

// IsDepth reports whether the format is a depth format.
func (f TextureFormat) IsDepth() bool {
	return f == TextureFormatDepth24Plus || f == TextureFormatDepth32Float
}

// TextureUsage is a bitmask describing how a texture may be used.
type TextureUsage uint32

const (
	TextureUsageRenderAttachment TextureUsage = 1 << iota
	TextureUsageTextureBinding
	TextureUsageCopyDst
)

// ShaderStage is a bitmask of the programmable stages a binding is visible to.
type ShaderStage uint32

const (
	ShaderStageVertex ShaderStage = 1 << iota
	ShaderStageFragment
)

// BindingType identifies the resource kind of a bind group layout entry.
type BindingType uint8

const (
	BindingTypeUniform BindingType = iota
	BindingTypeReadOnlyStorage
	BindingTypeTexture2D
	BindingTypeTexture2DArray
	BindingTypeDepthTexture2DArray
	BindingTypeFilteringSampler
	BindingTypeComparisonSampler
)

// LoadOp selects how an attachment's contents are initialized at the start of a pass.
type LoadOp uint8

const (
	LoadOpClear LoadOp = iota
	LoadOpLoad
)

// StoreOp selects whether an attachment's contents survive the end of a pass.
type StoreOp uint8

const (
	StoreOpStore StoreOp = iota
	StoreOpDiscard
)

// CullMode selects which triangle faces are discarded during rasterization.
type CullMode uint8

const (
	CullModeNone CullMode = iota
	CullModeBack
	CullModeFront
)

// VertexLayout selects the vertex buffer layout a pipeline consumes.
type VertexLayout uint8

const (
	// VertexLayoutNone is used by fullscreen pipelines that generate vertices in the shader.
	VertexLayoutNone VertexLayout = iota

	// VertexLayoutMesh is the standard mesh layout: position vec3, normal vec3, uv vec2 (32 byte stride).
	VertexLayoutMesh
)

// MeshVertexStride is the byte stride of VertexLayoutMesh.
const MeshVertexStride = 32

// BufferDescriptor describes a buffer allocation.
type BufferDescriptor struct {
	Label string
	Size  uint64
	Usage BufferUsage
}

// TextureDescriptor describes a 2D texture or 2D texture array allocation.
type TextureDescriptor struct {
	Label       string
	Width       uint32
	Height      uint32
	Layers      uint32
	SampleCount uint32
	Format      TextureFormat
	Usage       TextureUsage
}

// TextureViewDescriptor selects a range of array layers to view.
// A nil descriptor passed to Texture.CreateView views the whole texture with its default dimension.
type TextureViewDescriptor struct {
	Label      string
	BaseLayer  uint32
	LayerCount uint32

	// Array views the selected layers as a 2D array instead of a single 2D layer.
	Array bool
}

// SamplerDescriptor describes a sampler.
type SamplerDescriptor struct {
	Label      string
	Comparison bool
	Repeat     bool
}

// BindGroupLayoutEntry describes one binding slot of a bind group layout.
type BindGroupLayoutEntry struct {
	Binding    uint32
	Visibility ShaderStage
	Type       BindingType
}

// BindGroupLayoutDescriptor describes a bind group layout.
type BindGroupLayoutDescriptor struct {
	Label   string
	Entries []BindGroupLayoutEntry
}

// BindGroupEntry binds a single resource to a binding slot. Exactly one of Buffer, TextureView or Sampler is set.
type BindGroupEntry struct {
	Binding     uint32
	Buffer      Buffer
	TextureView TextureView
	Sampler     Sampler
}

// BindGroupDescriptor describes a bind group.
type BindGroupDescriptor struct {
	Label   string
	Layout  BindGroupLayout
	Entries []BindGroupEntry
}

// RenderPipelineDescriptor describes a render pipeline.
// An empty FragmentEntry together with TextureFormatUndefined as ColorFormat produces a depth-only pipeline.
type RenderPipelineDescriptor struct {
	Label         string
	ShaderSource  string
	VertexEntry   string
	FragmentEntry string
	Layouts       []BindGroupLayout
	VertexLayout  VertexLayout

	ColorFormat TextureFormat
	DepthFormat TextureFormat

	DepthTest  bool
	DepthWrite bool
	AlphaBlend bool

	SampleCount         uint32
	CullMode            CullMode
	DepthBias           int32
	DepthBiasSlopeScale float32
}

// ColorAttachment describes the color target of a render pass.
type ColorAttachment struct {
	View          TextureView
	ResolveTarget TextureView
	LoadOp        LoadOp
	StoreOp       StoreOp
	ClearColor    [4]float64
}

// DepthAttachment describes the depth target of a render pass.
type DepthAttachment struct {
	View       TextureView
	LoadOp     LoadOp
	StoreOp    StoreOp
	ClearDepth float32
}

// RenderPassDescriptor describes a render pass. Depth-only passes leave Color nil.
type RenderPassDescriptor struct {
	Label string
	Color *ColorAttachment
	Depth *DepthAttachment
}

// Limits reports the device capabilities consulted by the renderer.
type Limits struct {
	MaxTextureArrayLayers uint32
	MaxTextureDimension2D uint32
	MaxBufferSize         uint64
}
