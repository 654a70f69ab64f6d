package vulkan

import (
	"fmt"

	vk "github.com/goki/vulkan"

	"github.com/ember-forge/pipeline/gfxdriver"
	"github.com/ember-forge/pipeline/gpucache"
)

func vkLoadOp(op gpucache.LoadOp) vk.AttachmentLoadOp {
	switch op {
	case gpucache.LoadOpClear:
		return vk.AttachmentLoadOpClear
	case gpucache.LoadOpDontCare:
		return vk.AttachmentLoadOpDontCare
	default:
		return vk.AttachmentLoadOpLoad
	}
}

func vkStoreOp(op gpucache.StoreOp) vk.AttachmentStoreOp {
	if op == gpucache.StoreOpDontCare {
		return vk.AttachmentStoreOpDontCare
	}
	return vk.AttachmentStoreOpStore
}

// CreateRenderPass builds color and, optionally, depth attachments plus a
// single subpass referencing them all. Grounded on renderpass.go's
// RenderpassCreate (attachment-description-array-plus-subpass shape) but
// generalized from that file's hardcoded single-color/single-depth,
// swapchain-format assumption to RenderPassDesc's own attachment list and
// always finishing in a shader-readable layout, since a headless build
// step never presents to a swapchain.
func (d *Driver) CreateRenderPass(desc gpucache.RenderPassDesc) (gfxdriver.RenderPassHandle, error) {
	var attachments []vk.AttachmentDescription
	var colorRefs []vk.AttachmentReference

	for i := uint8(0); i < desc.NumColorAttachments; i++ {
		a := desc.ColorAttachments[i]
		format, err := vkFormat(a.Format)
		if err != nil {
			return 0, err
		}
		attachments = append(attachments, vk.AttachmentDescription{
			Format:         format,
			Samples:        vk.SampleCount1Bit,
			LoadOp:         vkLoadOp(a.Load),
			StoreOp:        vkStoreOp(a.Store),
			StencilLoadOp:  vk.AttachmentLoadOpDontCare,
			StencilStoreOp: vk.AttachmentStoreOpDontCare,
			InitialLayout:  vk.ImageLayoutUndefined,
			FinalLayout:    vk.ImageLayoutShaderReadOnlyOptimal,
		})
		colorRefs = append(colorRefs, vk.AttachmentReference{
			Attachment: uint32(len(attachments) - 1),
			Layout:     vk.ImageLayoutColorAttachmentOptimal,
		})
	}

	subpass := vk.SubpassDescription{
		PipelineBindPoint:    vk.PipelineBindPointGraphics,
		ColorAttachmentCount: uint32(len(colorRefs)),
		PColorAttachments:    colorRefs,
	}

	var depthRef vk.AttachmentReference
	if desc.HasDepth {
		format, err := vkFormat(desc.DepthAttachment.Format)
		if err != nil {
			return 0, err
		}
		attachments = append(attachments, vk.AttachmentDescription{
			Format:         format,
			Samples:        vk.SampleCount1Bit,
			LoadOp:         vkLoadOp(desc.DepthAttachment.Load),
			StoreOp:        vkStoreOp(desc.DepthAttachment.Store),
			StencilLoadOp:  vk.AttachmentLoadOpDontCare,
			StencilStoreOp: vk.AttachmentStoreOpDontCare,
			InitialLayout:  vk.ImageLayoutUndefined,
			FinalLayout:    vk.ImageLayoutDepthStencilAttachmentOptimal,
		})
		depthRef = vk.AttachmentReference{
			Attachment: uint32(len(attachments) - 1),
			Layout:     vk.ImageLayoutDepthStencilAttachmentOptimal,
		}
		subpass.PDepthStencilAttachment = &depthRef
	}

	passInfo := vk.RenderPassCreateInfo{
		SType:           vk.StructureTypeRenderPassCreateInfo,
		AttachmentCount: uint32(len(attachments)),
		PAttachments:    attachments,
		SubpassCount:    1,
		PSubpasses:      []vk.SubpassDescription{subpass},
	}

	var pass vk.RenderPass
	if res := vk.CreateRenderPass(d.device, &passInfo, d.allocator, &pass); res != vk.Success {
		return 0, checkResult("CreateRenderPass", res)
	}

	handle := gfxdriver.RenderPassHandle(d.allocHandle())
	d.mu.Lock()
	d.passes[handle] = pass
	d.mu.Unlock()
	return handle, nil
}

func (d *Driver) DestroyRenderPass(h gfxdriver.RenderPassHandle) error {
	d.mu.Lock()
	pass, ok := d.passes[h]
	if ok {
		delete(d.passes, h)
	}
	d.mu.Unlock()
	if !ok {
		return fmt.Errorf("gfxdriver/vulkan: unknown render-pass handle %d", h)
	}
	vk.DestroyRenderPass(d.device, pass, d.allocator)
	return nil
}

// CreateFramebuffer takes a copy of the attachment image views, grounded on
// framebuffer.go's FramebufferCreate, which does the same before handing
// them to vk.FramebufferCreateInfo.
func (d *Driver) CreateFramebuffer(pass gfxdriver.RenderPassHandle, attachments []gfxdriver.TextureHandle, width, height uint32) (gfxdriver.FramebufferHandle, error) {
	d.mu.Lock()
	vkPass, ok := d.passes[pass]
	d.mu.Unlock()
	if !ok {
		return 0, fmt.Errorf("gfxdriver/vulkan: unknown render-pass handle %d", pass)
	}

	views := make([]vk.ImageView, 0, len(attachments))
	d.mu.Lock()
	for _, a := range attachments {
		tex, ok := d.textures[a]
		if !ok {
			d.mu.Unlock()
			return 0, fmt.Errorf("gfxdriver/vulkan: unknown texture handle %d", a)
		}
		views = append(views, tex.view)
	}
	d.mu.Unlock()

	fbInfo := vk.FramebufferCreateInfo{
		SType:           vk.StructureTypeFramebufferCreateInfo,
		RenderPass:      vkPass,
		AttachmentCount: uint32(len(views)),
		PAttachments:    views,
		Width:           width,
		Height:          height,
		Layers:          1,
	}

	var fb vk.Framebuffer
	if res := vk.CreateFramebuffer(d.device, &fbInfo, d.allocator, &fb); res != vk.Success {
		return 0, checkResult("CreateFramebuffer", res)
	}

	handle := gfxdriver.FramebufferHandle(d.allocHandle())
	d.mu.Lock()
	d.fbs[handle] = fb
	d.mu.Unlock()
	return handle, nil
}

func (d *Driver) DestroyFramebuffer(h gfxdriver.FramebufferHandle) error {
	d.mu.Lock()
	fb, ok := d.fbs[h]
	if ok {
		delete(d.fbs, h)
	}
	d.mu.Unlock()
	if !ok {
		return fmt.Errorf("gfxdriver/vulkan: unknown framebuffer handle %d", h)
	}
	vk.DestroyFramebuffer(d.device, fb, d.allocator)
	return nil
}
