package gpucache

// Descriptor caps bound every variable-length field in these types to a
// fixed array instead of a slice: a POD struct with structural equality
// (spec §4.9) must be directly usable as a Go map key, and slices aren't
// comparable. The caps mirror what a single draw call or descriptor set
// plausibly needs, not a hard engine limit.
const (
	MaxDescSetBindings  = 16
	MaxVertexAttributes = 16
	MaxColorAttachments = 8
)

// TextureType enumerates the dimensionality a TextureDesc describes.
type TextureType uint8

const (
	TextureType2D TextureType = iota
	TextureType2DArray
	TextureTypeCube
)

// TextureUsage is a bitset of how a texture will be bound.
type TextureUsage uint32

const (
	TextureUsageSampled TextureUsage = 1 << iota
	TextureUsageStorage
	TextureUsageColorAttachment
	TextureUsageDepthAttachment
	TextureUsageTransferSrc
	TextureUsageTransferDst
)

// MemUsage hints at the memory heap/residency a resource should land on.
type MemUsage uint8

const (
	MemUsageGPUOnly MemUsage = iota
	MemUsageCPUToGPU
	MemUsageGPUToCPU
)

// Swizzle is a packed 4-channel remap (e.g. for single-channel textures
// sampled as grayscale-in-RGB).
type Swizzle [4]uint8

// TextureDesc is the structural key behind the texture cache (spec §4.9,
// §6's GPU driver abstraction: "TextureDesc { width, height, depth, mips,
// array_slices, format, tex_type, usages, mem_usage, swizzle }").
type TextureDesc struct {
	Width, Height, Depth uint32
	Mips                 uint32
	ArraySlices          uint32
	Format               TextureFormat
	TexType              TextureType
	Usages               TextureUsage
	MemUsage             MemUsage
	Swizzle              Swizzle
}

// TextureFormat names a GPU pixel format. Values are contiguous, assigned
// by iota in declaration order.
type TextureFormat uint32

const (
	FormatUnknown TextureFormat = iota
	FormatRGBA8
	FormatRGBA8Srgb
	FormatBC1
	FormatBC3
	FormatBC5
	FormatBC7
	FormatR8
	FormatRG8
	FormatRGBA16F
	FormatRGBA32F
	FormatD24S8
	FormatD32F
)

// BindingKind mirrors shader.BindingKind's resource-kind enumeration at
// the driver boundary, kept distinct so gpucache has no import dependency
// on the shader package.
type BindingKind uint8

const (
	BindingUniformBuffer BindingKind = iota
	BindingStorageBuffer
	BindingTexture2D
	BindingTextureCube
	BindingSampler
)

// DescSetBinding is one slot of a descriptor set layout.
type DescSetBinding struct {
	Slot  uint16
	Kind  BindingKind
	Count uint16 // array size; 1 for a scalar binding
}

// DescSetLayoutDesc is the structural key behind the descriptor-set-layout
// cache. NumBindings says how many of Bindings are populated; the rest are
// zero-valued and ignored, which keeps the type comparable without a slice.
type DescSetLayoutDesc struct {
	NumBindings uint8
	Bindings    [MaxDescSetBindings]DescSetBinding
}

// VertexAttributeDesc is one vertex-input slot a graphics pipeline binds.
type VertexAttributeDesc struct {
	Location uint8
	Format   TextureFormat // reused as a generic "scalar/vector format" tag
	Offset   uint32
}

// BlendFactor/BlendOp/CompareOp/CullMode/PrimitiveTopology are the small
// fixed-function enums a PsoGraphicsState pins down.
type (
	BlendFactor       uint8
	BlendOp           uint8
	CompareOp         uint8
	CullMode          uint8
	PrimitiveTopology uint8
)

const (
	BlendFactorZero BlendFactor = iota
	BlendFactorOne
	BlendFactorSrcAlpha
	BlendFactorOneMinusSrcAlpha
)

const (
	BlendOpAdd BlendOp = iota
	BlendOpSubtract
)

const (
	CompareAlways CompareOp = iota
	CompareLess
	CompareLessEqual
	CompareEqual
)

const (
	CullNone CullMode = iota
	CullBack
	CullFront
)

const (
	TopologyTriangleList PrimitiveTopology = iota
	TopologyTriangleStrip
	TopologyLineList
	TopologyPointList
)

// PsoGraphicsState is the structural key behind the graphics-pipeline
// cache: every piece of fixed-function and shader-linkage state that
// distinguishes one VkPipeline-equivalent from another.
type PsoGraphicsState struct {
	ShaderHash     uint64 // shader.ShaderPermutation.Hash(), kept opaque here
	NumAttributes  uint8
	Attributes     [MaxVertexAttributes]VertexAttributeDesc
	Topology       PrimitiveTopology
	CullMode       CullMode
	DepthTestOp    CompareOp
	DepthWrite     bool
	BlendEnabled   bool
	SrcFactor      BlendFactor
	DstFactor      BlendFactor
	BlendOp        BlendOp
	NumColorAttach uint8
	ColorFormats   [MaxColorAttachments]TextureFormat
	DepthFormat    TextureFormat
	SampleCount    uint8
}

// PsoComputeState is the structural key behind the compute-pipeline cache.
type PsoComputeState struct {
	ShaderHash uint64
}

// AttachmentDesc is one color or depth attachment slot of a render pass.
type AttachmentDesc struct {
	Format  TextureFormat
	Load    LoadOp
	Store   StoreOp
	Samples uint8
}

type LoadOp uint8

const (
	LoadOpLoad LoadOp = iota
	LoadOpClear
	LoadOpDontCare
)

type StoreOp uint8

const (
	StoreOpStore StoreOp = iota
	StoreOpDontCare
)

// RenderPassDesc is the structural key behind the render-pass cache.
type RenderPassDesc struct {
	NumColorAttachments uint8
	ColorAttachments    [MaxColorAttachments]AttachmentDesc
	HasDepth            bool
	DepthAttachment     AttachmentDesc
}
