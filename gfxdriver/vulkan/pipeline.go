package vulkan

import (
	"fmt"

	vk "github.com/goki/vulkan"

	"github.com/ember-forge/pipeline/gfxdriver"
	"github.com/ember-forge/pipeline/gpucache"
)

func vkCullMode(c gpucache.CullMode) vk.CullModeFlagBits {
	switch c {
	case gpucache.CullBack:
		return vk.CullModeBackBit
	case gpucache.CullFront:
		return vk.CullModeFrontBit
	default:
		return vk.CullModeNone
	}
}

func vkCompareOp(c gpucache.CompareOp) vk.CompareOp {
	switch c {
	case gpucache.CompareLess:
		return vk.CompareOpLess
	case gpucache.CompareLessEqual:
		return vk.CompareOpLessOrEqual
	case gpucache.CompareEqual:
		return vk.CompareOpEqual
	default:
		return vk.CompareOpAlways
	}
}

func vkTopology(t gpucache.PrimitiveTopology) vk.PrimitiveTopology {
	switch t {
	case gpucache.TopologyTriangleStrip:
		return vk.PrimitiveTopologyTriangleStrip
	case gpucache.TopologyLineList:
		return vk.PrimitiveTopologyLineList
	case gpucache.TopologyPointList:
		return vk.PrimitiveTopologyPointList
	default:
		return vk.PrimitiveTopologyTriangleList
	}
}

func vkBlendFactor(f gpucache.BlendFactor) vk.BlendFactor {
	switch f {
	case gpucache.BlendFactorOne:
		return vk.BlendFactorOne
	case gpucache.BlendFactorSrcAlpha:
		return vk.BlendFactorSrcAlpha
	case gpucache.BlendFactorOneMinusSrcAlpha:
		return vk.BlendFactorOneMinusSrcAlpha
	default:
		return vk.BlendFactorZero
	}
}

func vkBlendOp(o gpucache.BlendOp) vk.BlendOp {
	if o == gpucache.BlendOpSubtract {
		return vk.BlendOpSubtract
	}
	return vk.BlendOpAdd
}

// CreateGraphicsPipeline assembles the fixed-function state block from
// PsoGraphicsState and links it against the two shader stages and the
// layout/pass already created. Grounded on pipeline.go's
// NewGraphicsPipeline: same state-struct-per-stage shape (viewport,
// rasterizer, multisample, depth/stencil, color blend, dynamic state,
// vertex input, input assembly, pipeline layout, then the single
// GraphicsPipelineCreateInfo), generalized from that file's hardcoded
// wireframe/cull-mode/blend constants to the caller-supplied descriptor.
func (d *Driver) CreateGraphicsPipeline(desc gpucache.PsoGraphicsState, vs, fs gfxdriver.ProgramHandle, layoutHandle gfxdriver.DescSetLayoutHandle, pass gfxdriver.RenderPassHandle) (gfxdriver.PipelineHandle, error) {
	d.mu.Lock()
	vsModule, okVS := d.programs[vs]
	fsModule, okFS := d.programs[fs]
	setLayout, okLayout := d.layouts[layoutHandle]
	vkPass, okPass := d.passes[pass]
	d.mu.Unlock()
	if !okVS || !okFS {
		return 0, fmt.Errorf("gfxdriver/vulkan: unknown shader program handle")
	}
	if !okLayout {
		return 0, fmt.Errorf("gfxdriver/vulkan: unknown descriptor-set-layout handle %d", layoutHandle)
	}
	if !okPass {
		return 0, fmt.Errorf("gfxdriver/vulkan: unknown render-pass handle %d", pass)
	}

	stages := []vk.PipelineShaderStageCreateInfo{
		{SType: vk.StructureTypePipelineShaderStageCreateInfo, Stage: vk.ShaderStageVertexBit, Module: vsModule, PName: nulString("main")},
		{SType: vk.StructureTypePipelineShaderStageCreateInfo, Stage: vk.ShaderStageFragmentBit, Module: fsModule, PName: nulString("main")},
	}

	attrs := make([]vk.VertexInputAttributeDescription, 0, desc.NumAttributes)
	var stride uint32
	for i := uint8(0); i < desc.NumAttributes; i++ {
		a := desc.Attributes[i]
		format, err := vkFormat(a.Format)
		if err != nil {
			return 0, err
		}
		attrs = append(attrs, vk.VertexInputAttributeDescription{
			Location: uint32(a.Location),
			Binding:  0,
			Format:   format,
			Offset:   a.Offset,
		})
		end := a.Offset + formatByteSize(a.Format)
		if end > stride {
			stride = end
		}
	}

	bindingDesc := vk.VertexInputBindingDescription{Binding: 0, Stride: stride, InputRate: vk.VertexInputRateVertex}
	vertexInput := vk.PipelineVertexInputStateCreateInfo{
		SType:                           vk.StructureTypePipelineVertexInputStateCreateInfo,
		VertexBindingDescriptionCount:   1,
		PVertexBindingDescriptions:      []vk.VertexInputBindingDescription{bindingDesc},
		VertexAttributeDescriptionCount: uint32(len(attrs)),
		PVertexAttributeDescriptions:    attrs,
	}

	inputAssembly := vk.PipelineInputAssemblyStateCreateInfo{
		SType:    vk.StructureTypePipelineInputAssemblyStateCreateInfo,
		Topology: vkTopology(desc.Topology),
	}

	viewportState := vk.PipelineViewportStateCreateInfo{
		SType:         vk.StructureTypePipelineViewportStateCreateInfo,
		ViewportCount: 1,
		ScissorCount:  1,
	}

	rasterizer := vk.PipelineRasterizationStateCreateInfo{
		SType:       vk.StructureTypePipelineRasterizationStateCreateInfo,
		PolygonMode: vk.PolygonModeFill,
		CullMode:    vk.CullModeFlags(vkCullMode(desc.CullMode)),
		FrontFace:   vk.FrontFaceCounterClockwise,
		LineWidth:   1.0,
	}

	multisample := vk.PipelineMultisampleStateCreateInfo{
		SType:                 vk.StructureTypePipelineMultisampleStateCreateInfo,
		RasterizationSamples:  vk.SampleCount1Bit,
		MinSampleShading:      1.0,
	}

	depthStencil := vk.PipelineDepthStencilStateCreateInfo{
		SType:                 vk.StructureTypePipelineDepthStencilStateCreateInfo,
		DepthTestEnable:       vk.Bool32(boolToVk(desc.DepthTestOp != gpucache.CompareAlways || desc.DepthWrite)),
		DepthWriteEnable:      vk.Bool32(boolToVk(desc.DepthWrite)),
		DepthCompareOp:        vkCompareOp(desc.DepthTestOp),
	}

	blendAttachment := vk.PipelineColorBlendAttachmentState{
		BlendEnable:         vk.Bool32(boolToVk(desc.BlendEnabled)),
		SrcColorBlendFactor: vkBlendFactor(desc.SrcFactor),
		DstColorBlendFactor: vkBlendFactor(desc.DstFactor),
		ColorBlendOp:        vkBlendOp(desc.BlendOp),
		SrcAlphaBlendFactor: vkBlendFactor(desc.SrcFactor),
		DstAlphaBlendFactor: vkBlendFactor(desc.DstFactor),
		AlphaBlendOp:        vkBlendOp(desc.BlendOp),
		ColorWriteMask: vk.ColorComponentFlags(vk.ColorComponentRBit) | vk.ColorComponentFlags(vk.ColorComponentGBit) |
			vk.ColorComponentFlags(vk.ColorComponentBBit) | vk.ColorComponentFlags(vk.ColorComponentABit),
	}
	blendAttachments := make([]vk.PipelineColorBlendAttachmentState, maxu32(uint32(desc.NumColorAttach), 1))
	for i := range blendAttachments {
		blendAttachments[i] = blendAttachment
	}
	colorBlend := vk.PipelineColorBlendStateCreateInfo{
		SType:           vk.StructureTypePipelineColorBlendStateCreateInfo,
		LogicOp:         vk.LogicOpCopy,
		AttachmentCount: uint32(len(blendAttachments)),
		PAttachments:    blendAttachments,
	}

	dynamicStates := []vk.DynamicState{vk.DynamicStateViewport, vk.DynamicStateScissor}
	dynamicState := vk.PipelineDynamicStateCreateInfo{
		SType:             vk.StructureTypePipelineDynamicStateCreateInfo,
		DynamicStateCount: uint32(len(dynamicStates)),
		PDynamicStates:    dynamicStates,
	}

	layoutInfo := vk.PipelineLayoutCreateInfo{
		SType:          vk.StructureTypePipelineLayoutCreateInfo,
		SetLayoutCount: 1,
		PSetLayouts:    []vk.DescriptorSetLayout{setLayout},
	}
	var pipeLayout vk.PipelineLayout
	if res := vk.CreatePipelineLayout(d.device, &layoutInfo, d.allocator, &pipeLayout); res != vk.Success {
		return 0, checkResult("CreatePipelineLayout", res)
	}

	createInfo := vk.GraphicsPipelineCreateInfo{
		SType:               vk.StructureTypeGraphicsPipelineCreateInfo,
		StageCount:          uint32(len(stages)),
		PStages:             stages,
		PVertexInputState:   &vertexInput,
		PInputAssemblyState: &inputAssembly,
		PViewportState:      &viewportState,
		PRasterizationState: &rasterizer,
		PMultisampleState:   &multisample,
		PDepthStencilState:  &depthStencil,
		PColorBlendState:    &colorBlend,
		PDynamicState:       &dynamicState,
		Layout:              pipeLayout,
		RenderPass:          vkPass,
		BasePipelineIndex:   -1,
	}

	pipelines := make([]vk.Pipeline, 1)
	if err := d.locks.safeCall(lockPipeline, func() error {
		res := vk.CreateGraphicsPipelines(d.device, nil, 1, []vk.GraphicsPipelineCreateInfo{createInfo}, d.allocator, pipelines)
		return checkResult("CreateGraphicsPipelines", res)
	}); err != nil {
		vk.DestroyPipelineLayout(d.device, pipeLayout, d.allocator)
		return 0, err
	}

	handle := gfxdriver.PipelineHandle(d.allocHandle())
	d.mu.Lock()
	d.pipelines[handle] = pipelineObject{pipeline: pipelines[0], layout: pipeLayout, bindType: vk.PipelineBindPointGraphics}
	d.mu.Unlock()
	return handle, nil
}

// CreateComputePipeline is the single-stage counterpart, grounded on the
// same layout-then-pipeline shape with the graphics-only state stripped.
func (d *Driver) CreateComputePipeline(desc gpucache.PsoComputeState, cs gfxdriver.ProgramHandle, layoutHandle gfxdriver.DescSetLayoutHandle) (gfxdriver.PipelineHandle, error) {
	d.mu.Lock()
	csModule, okCS := d.programs[cs]
	setLayout, okLayout := d.layouts[layoutHandle]
	d.mu.Unlock()
	if !okCS {
		return 0, fmt.Errorf("gfxdriver/vulkan: unknown compute program handle %d", cs)
	}
	if !okLayout {
		return 0, fmt.Errorf("gfxdriver/vulkan: unknown descriptor-set-layout handle %d", layoutHandle)
	}

	layoutInfo := vk.PipelineLayoutCreateInfo{
		SType:          vk.StructureTypePipelineLayoutCreateInfo,
		SetLayoutCount: 1,
		PSetLayouts:    []vk.DescriptorSetLayout{setLayout},
	}
	var pipeLayout vk.PipelineLayout
	if res := vk.CreatePipelineLayout(d.device, &layoutInfo, d.allocator, &pipeLayout); res != vk.Success {
		return 0, checkResult("CreatePipelineLayout", res)
	}

	createInfo := vk.ComputePipelineCreateInfo{
		SType: vk.StructureTypeComputePipelineCreateInfo,
		Stage: vk.PipelineShaderStageCreateInfo{
			SType:  vk.StructureTypePipelineShaderStageCreateInfo,
			Stage:  vk.ShaderStageComputeBit,
			Module: csModule,
			PName:  nulString("main"),
		},
		Layout:            pipeLayout,
		BasePipelineIndex: -1,
	}

	pipelines := make([]vk.Pipeline, 1)
	if err := d.locks.safeCall(lockPipeline, func() error {
		res := vk.CreateComputePipelines(d.device, nil, 1, []vk.ComputePipelineCreateInfo{createInfo}, d.allocator, pipelines)
		return checkResult("CreateComputePipelines", res)
	}); err != nil {
		vk.DestroyPipelineLayout(d.device, pipeLayout, d.allocator)
		return 0, err
	}

	handle := gfxdriver.PipelineHandle(d.allocHandle())
	d.mu.Lock()
	d.pipelines[handle] = pipelineObject{pipeline: pipelines[0], layout: pipeLayout, bindType: vk.PipelineBindPointCompute}
	d.mu.Unlock()
	return handle, nil
}

func (d *Driver) DestroyPipeline(h gfxdriver.PipelineHandle) error {
	d.mu.Lock()
	obj, ok := d.pipelines[h]
	if ok {
		delete(d.pipelines, h)
	}
	d.mu.Unlock()
	if !ok {
		return fmt.Errorf("gfxdriver/vulkan: unknown pipeline handle %d", h)
	}
	return d.locks.safeCall(lockPipeline, func() error {
		vk.DestroyPipeline(d.device, obj.pipeline, d.allocator)
		vk.DestroyPipelineLayout(d.device, obj.layout, d.allocator)
		return nil
	})
}

func formatByteSize(f gpucache.TextureFormat) uint32 {
	switch f {
	case gpucache.FormatR8:
		return 1
	case gpucache.FormatRG8:
		return 2
	case gpucache.FormatRGBA8, gpucache.FormatRGBA8Srgb:
		return 4
	case gpucache.FormatRGBA16F:
		return 8
	case gpucache.FormatRGBA32F:
		return 16
	default:
		return 4
	}
}
