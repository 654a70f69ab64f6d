// Package gfxdriver defines the narrow GPU driver abstraction spec §6
// describes as "consumed" rather than implemented by the content
// pipeline: create/destroy for every resource kind gpucache (C9) caches,
// plus upload/map/unmap/draw/dispatch/submit. The pipeline's own code
// (shader.Compiler call sites, gpucache's Get/Add callers) only ever
// depends on the Driver interface in this file; package vulkan provides
// one concrete adapter over github.com/goki/vulkan, grounded on the
// teacher's engine/renderer/vulkan/*.go files.
package gfxdriver

import "github.com/ember-forge/pipeline/gpucache"

// Handle types are opaque, driver-assigned identifiers; the zero value
// always means "invalid, never created".
type (
	TextureHandle       uint64
	BufferHandle        uint64
	SamplerHandle       uint64
	ProgramHandle       uint64
	PipelineHandle      uint64
	DescSetLayoutHandle uint64
	DescSetHandle       uint64
	RenderPassHandle    uint64
	FramebufferHandle   uint64
	CommandListHandle   uint64
)

// BufferUsage is a bitset of how a buffer will be bound.
type BufferUsage uint32

const (
	BufferUsageVertex BufferUsage = 1 << iota
	BufferUsageIndex
	BufferUsageUniform
	BufferUsageStorage
	BufferUsageTransferSrc
	BufferUsageTransferDst
)

// Filter and AddressMode cover the sampler state a texture binding needs.
type Filter uint8

const (
	FilterNearest Filter = iota
	FilterLinear
)

type AddressMode uint8

const (
	AddressRepeat AddressMode = iota
	AddressClampToEdge
	AddressMirroredRepeat
)

type SamplerDesc struct {
	MinFilter, MagFilter Filter
	AddressU, AddressV   AddressMode
	MaxAnisotropy        float32
}

// ShaderStage names which pipeline stage a Program occupies.
type ShaderStage uint8

const (
	StageVertex ShaderStage = iota
	StageFragment
	StageCompute
)

// Region3D addresses a sub-rectangle of a texture for UploadTexture.
type Region3D struct {
	X, Y, Z                   uint32
	Width, Height, Depth      uint32
	MipLevel, ArrayLayer      uint32
}

// DrawParams and DispatchParams carry the arguments Draw/Dispatch need
// beyond the already-bound pipeline and descriptor sets.
type DrawParams struct {
	VertexBuffer, IndexBuffer BufferHandle
	IndexCount, InstanceCount uint32
	FirstIndex                uint32
	VertexOffset              int32
}

type DispatchParams struct {
	GroupsX, GroupsY, GroupsZ uint32
}

// Driver is the full surface spec §6 lists under "GPU driver abstraction
// (consumed)". A content pipeline build step (texture mip generation,
// shader permutation validation) drives it directly; gpucache's five
// caches store the handles it returns.
type Driver interface {
	CreateTexture(desc gpucache.TextureDesc, initial []byte) (TextureHandle, error)
	DestroyTexture(h TextureHandle) error
	UploadTexture(h TextureHandle, region Region3D, data []byte) error

	CreateBuffer(size uint64, usage BufferUsage, mem gpucache.MemUsage) (BufferHandle, error)
	DestroyBuffer(h BufferHandle) error
	MapBuffer(h BufferHandle) ([]byte, error)
	UnmapBuffer(h BufferHandle) error

	CreateSampler(desc SamplerDesc) (SamplerHandle, error)
	DestroySampler(h SamplerHandle) error

	CreateProgram(stage ShaderStage, bytecode []byte) (ProgramHandle, error)
	DestroyProgram(h ProgramHandle) error

	CreateDescSetLayout(desc gpucache.DescSetLayoutDesc) (DescSetLayoutHandle, error)
	DestroyDescSetLayout(h DescSetLayoutHandle) error
	CreateDescSet(layout DescSetLayoutHandle) (DescSetHandle, error)
	DestroyDescSet(h DescSetHandle) error

	CreateRenderPass(desc gpucache.RenderPassDesc) (RenderPassHandle, error)
	DestroyRenderPass(h RenderPassHandle) error
	CreateFramebuffer(pass RenderPassHandle, attachments []TextureHandle, width, height uint32) (FramebufferHandle, error)
	DestroyFramebuffer(h FramebufferHandle) error

	CreateGraphicsPipeline(desc gpucache.PsoGraphicsState, vs, fs ProgramHandle, layout DescSetLayoutHandle, pass RenderPassHandle) (PipelineHandle, error)
	CreateComputePipeline(desc gpucache.PsoComputeState, cs ProgramHandle, layout DescSetLayoutHandle) (PipelineHandle, error)
	DestroyPipeline(h PipelineHandle) error

	AllocateCommandList() (CommandListHandle, error)
	Draw(cmd CommandListHandle, pipeline PipelineHandle, sets []DescSetHandle, p DrawParams) error
	Dispatch(cmd CommandListHandle, pipeline PipelineHandle, sets []DescSetHandle, p DispatchParams) error
	Submit(cmd CommandListHandle) error
}
