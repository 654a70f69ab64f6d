package gfxdriver

import "github.com/ember-forge/pipeline/gpucache"

// The five GPU resource caches spec §4.9 names, instantiated with this
// package's own handle types. They live here rather than in gpucache
// itself so gpucache stays free of any dependency on a concrete driver.
type (
	DescSetLayoutCache    = gpucache.Cache[gpucache.DescSetLayoutDesc, DescSetLayoutHandle]
	GraphicsPipelineCache = gpucache.Cache[gpucache.PsoGraphicsState, PipelineHandle]
	ComputePipelineCache  = gpucache.Cache[gpucache.PsoComputeState, PipelineHandle]
	TextureCache          = gpucache.Cache[gpucache.TextureDesc, TextureHandle]
	RenderPassCache       = gpucache.Cache[gpucache.RenderPassDesc, RenderPassHandle]
)

// Caches bundles one instance of each, mirroring how a renderer would hold
// them alongside a Driver.
type Caches struct {
	DescSetLayouts    *DescSetLayoutCache
	GraphicsPipelines *GraphicsPipelineCache
	ComputePipelines  *ComputePipelineCache
	Textures          *TextureCache
	RenderPasses      *RenderPassCache
}

func NewCaches() *Caches {
	return &Caches{
		DescSetLayouts:    gpucache.NewCache[gpucache.DescSetLayoutDesc, DescSetLayoutHandle](),
		GraphicsPipelines: gpucache.NewCache[gpucache.PsoGraphicsState, PipelineHandle](),
		ComputePipelines:  gpucache.NewCache[gpucache.PsoComputeState, PipelineHandle](),
		Textures:          gpucache.NewCache[gpucache.TextureDesc, TextureHandle](),
		RenderPasses:      gpucache.NewCache[gpucache.RenderPassDesc, RenderPassHandle](),
	}
}
