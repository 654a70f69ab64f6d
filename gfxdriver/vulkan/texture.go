package vulkan

import (
	"fmt"

	vk "github.com/goki/vulkan"

	"github.com/ember-forge/pipeline/gfxdriver"
	"github.com/ember-forge/pipeline/gpucache"
)

// vkFormat maps a gpucache.TextureFormat onto the Vulkan equivalent. Block
// compressed formats are listed for completeness even though this headless
// adapter's staging-upload path only exercises the uncompressed ones.
func vkFormat(f gpucache.TextureFormat) (vk.Format, error) {
	switch f {
	case gpucache.FormatRGBA8:
		return vk.FormatR8g8b8a8Unorm, nil
	case gpucache.FormatRGBA8Srgb:
		return vk.FormatR8g8b8a8Srgb, nil
	case gpucache.FormatR8:
		return vk.FormatR8Unorm, nil
	case gpucache.FormatRG8:
		return vk.FormatR8g8Unorm, nil
	case gpucache.FormatRGBA16F:
		return vk.FormatR16g16b16a16Sfloat, nil
	case gpucache.FormatRGBA32F:
		return vk.FormatR32g32b32a32Sfloat, nil
	case gpucache.FormatBC1:
		return vk.FormatBc1RgbaUnormBlock, nil
	case gpucache.FormatBC3:
		return vk.FormatBc3UnormBlock, nil
	case gpucache.FormatBC5:
		return vk.FormatBc5UnormBlock, nil
	case gpucache.FormatBC7:
		return vk.FormatBc7UnormBlock, nil
	case gpucache.FormatD24S8:
		return vk.FormatD24UnormS8Uint, nil
	case gpucache.FormatD32F:
		return vk.FormatD32Sfloat, nil
	default:
		return 0, fmt.Errorf("gfxdriver/vulkan: unsupported texture format %d", f)
	}
}

func vkImageType(t gpucache.TextureType) vk.ImageType {
	if t == gpucache.TextureType2DArray || t == gpucache.TextureTypeCube {
		return vk.ImageType2d
	}
	return vk.ImageType2d
}

func vkImageUsage(u gpucache.TextureUsage) vk.ImageUsageFlags {
	var flags vk.ImageUsageFlagBits
	if u&gpucache.TextureUsageSampled != 0 {
		flags |= vk.ImageUsageSampledBit
	}
	if u&gpucache.TextureUsageStorage != 0 {
		flags |= vk.ImageUsageStorageBit
	}
	if u&gpucache.TextureUsageColorAttachment != 0 {
		flags |= vk.ImageUsageColorAttachmentBit
	}
	if u&gpucache.TextureUsageDepthAttachment != 0 {
		flags |= vk.ImageUsageDepthStencilAttachmentBit
	}
	if u&gpucache.TextureUsageTransferSrc != 0 {
		flags |= vk.ImageUsageTransferSrcBit
	}
	if u&gpucache.TextureUsageTransferDst != 0 {
		flags |= vk.ImageUsageTransferDstBit
	}
	return vk.ImageUsageFlags(flags)
}

// CreateTexture allocates an image, binds device-local memory and, when
// initial data is supplied, uploads it via a host-visible staging buffer.
// Grounded on image.go's ImageCreate/ImageViewCreate (creation-info shape,
// query-requirements-then-allocate-then-bind sequence, explicit view
// creation), generalized from the teacher's hardcoded 2D/4-mip assumption
// to the full TextureDesc.
func (d *Driver) CreateTexture(desc gpucache.TextureDesc, initial []byte) (gfxdriver.TextureHandle, error) {
	format, err := vkFormat(desc.Format)
	if err != nil {
		return 0, err
	}

	usage := vkImageUsage(desc.Usages)
	if len(initial) > 0 {
		usage |= vk.ImageUsageFlags(vk.ImageUsageTransferDstBit)
	}

	createInfo := vk.ImageCreateInfo{
		SType:     vk.StructureTypeImageCreateInfo,
		ImageType: vkImageType(desc.TexType),
		Extent: vk.Extent3D{
			Width:  desc.Width,
			Height: desc.Height,
			Depth:  maxu32(desc.Depth, 1),
		},
		MipLevels:     maxu32(desc.Mips, 1),
		ArrayLayers:   maxu32(desc.ArraySlices, 1),
		Format:        format,
		Tiling:        vk.ImageTilingOptimal,
		InitialLayout: vk.ImageLayoutUndefined,
		Usage:         usage,
		Samples:       vk.SampleCount1Bit,
		SharingMode:   vk.SharingModeExclusive,
	}

	var image vk.Image
	if err := d.locks.safeCall(lockImage, func() error {
		res := vk.CreateImage(d.device, &createInfo, d.allocator, &image)
		return checkResult("CreateImage", res)
	}); err != nil {
		return 0, err
	}

	var reqs vk.MemoryRequirements
	vk.GetImageMemoryRequirements(d.device, image, &reqs)
	reqs.Deref()

	memType, err := d.findMemoryType(reqs.MemoryTypeBits, vk.MemoryPropertyFlags(vk.MemoryPropertyDeviceLocalBit))
	if err != nil {
		vk.DestroyImage(d.device, image, d.allocator)
		return 0, err
	}

	allocInfo := vk.MemoryAllocateInfo{
		SType:           vk.StructureTypeMemoryAllocateInfo,
		AllocationSize:  reqs.Size,
		MemoryTypeIndex: memType,
	}
	var memory vk.DeviceMemory
	if res := vk.AllocateMemory(d.device, &allocInfo, d.allocator, &memory); res != vk.Success {
		vk.DestroyImage(d.device, image, d.allocator)
		return 0, checkResult("AllocateMemory", res)
	}
	if res := vk.BindImageMemory(d.device, image, memory, 0); res != vk.Success {
		vk.FreeMemory(d.device, memory, d.allocator)
		vk.DestroyImage(d.device, image, d.allocator)
		return 0, checkResult("BindImageMemory", res)
	}

	aspect := vk.ImageAspectFlags(vk.ImageAspectColorBit)
	if desc.Usages&gpucache.TextureUsageDepthAttachment != 0 {
		aspect = vk.ImageAspectFlags(vk.ImageAspectDepthBit)
	}
	viewInfo := vk.ImageViewCreateInfo{
		SType:    vk.StructureTypeImageViewCreateInfo,
		Image:    image,
		ViewType: vk.ImageViewType2d,
		Format:   format,
		SubresourceRange: vk.ImageSubresourceRange{
			AspectMask:     aspect,
			BaseMipLevel:   0,
			LevelCount:     maxu32(desc.Mips, 1),
			BaseArrayLayer: 0,
			LayerCount:     maxu32(desc.ArraySlices, 1),
		},
	}
	var view vk.ImageView
	if res := vk.CreateImageView(d.device, &viewInfo, d.allocator, &view); res != vk.Success {
		vk.FreeMemory(d.device, memory, d.allocator)
		vk.DestroyImage(d.device, image, d.allocator)
		return 0, checkResult("CreateImageView", res)
	}

	handle := gfxdriver.TextureHandle(d.allocHandle())
	obj := &textureObject{image: image, memory: memory, view: view}

	d.mu.Lock()
	d.textures[handle] = obj
	d.mu.Unlock()

	if len(initial) > 0 {
		region := gfxdriver.Region3D{Width: desc.Width, Height: desc.Height, Depth: maxu32(desc.Depth, 1)}
		if err := d.UploadTexture(handle, region, initial); err != nil {
			_ = d.DestroyTexture(handle)
			return 0, err
		}
	}
	return handle, nil
}

func (d *Driver) DestroyTexture(h gfxdriver.TextureHandle) error {
	d.mu.Lock()
	obj, ok := d.textures[h]
	if ok {
		delete(d.textures, h)
	}
	d.mu.Unlock()
	if !ok {
		return fmt.Errorf("gfxdriver/vulkan: unknown texture handle %d", h)
	}
	return d.locks.safeCall(lockImage, func() error {
		if obj.view != nil {
			vk.DestroyImageView(d.device, obj.view, d.allocator)
		}
		if obj.memory != nil {
			vk.FreeMemory(d.device, obj.memory, d.allocator)
		}
		if obj.image != nil {
			vk.DestroyImage(d.device, obj.image, d.allocator)
		}
		return nil
	})
}

// UploadTexture copies data into a host-visible staging buffer and records
// a one-shot command buffer that transitions the image, copies the buffer
// region in and transitions back to a shader-readable layout.
func (d *Driver) UploadTexture(h gfxdriver.TextureHandle, region gfxdriver.Region3D, data []byte) error {
	d.mu.Lock()
	obj, ok := d.textures[h]
	d.mu.Unlock()
	if !ok {
		return fmt.Errorf("gfxdriver/vulkan: unknown texture handle %d", h)
	}

	stagingHandle, err := d.CreateBuffer(uint64(len(data)), gfxdriver.BufferUsageTransferSrc, gpucache.MemUsageCPUToGPU)
	if err != nil {
		return err
	}
	defer d.DestroyBuffer(stagingHandle)

	mapped, err := d.MapBuffer(stagingHandle)
	if err != nil {
		return err
	}
	copy(mapped, data)
	if err := d.UnmapBuffer(stagingHandle); err != nil {
		return err
	}

	d.mu.Lock()
	stagingObj := d.buffers[stagingHandle]
	d.mu.Unlock()

	cmd, err := d.beginOneShotCommands()
	if err != nil {
		return err
	}

	barrierToDst := vk.ImageMemoryBarrier{
		SType:               vk.StructureTypeImageMemoryBarrier,
		OldLayout:           vk.ImageLayoutUndefined,
		NewLayout:           vk.ImageLayoutTransferDstOptimal,
		SrcQueueFamilyIndex: vk.QueueFamilyIgnored,
		DstQueueFamilyIndex: vk.QueueFamilyIgnored,
		Image:               obj.image,
		SubresourceRange: vk.ImageSubresourceRange{
			AspectMask:     vk.ImageAspectFlags(vk.ImageAspectColorBit),
			BaseMipLevel:   region.MipLevel,
			LevelCount:     1,
			BaseArrayLayer: region.ArrayLayer,
			LayerCount:     1,
		},
		SrcAccessMask: 0,
		DstAccessMask: vk.AccessFlags(vk.AccessTransferWriteBit),
	}
	vk.CmdPipelineBarrier(cmd, vk.PipelineStageFlags(vk.PipelineStageTopOfPipeBit), vk.PipelineStageFlags(vk.PipelineStageTransferBit),
		0, 0, nil, 0, nil, 1, []vk.ImageMemoryBarrier{barrierToDst})

	copyRegion := vk.BufferImageCopy{
		BufferOffset:      0,
		BufferRowLength:   0,
		BufferImageHeight: 0,
		ImageSubresource: vk.ImageSubresourceLayers{
			AspectMask:     vk.ImageAspectFlags(vk.ImageAspectColorBit),
			MipLevel:       region.MipLevel,
			BaseArrayLayer: region.ArrayLayer,
			LayerCount:     1,
		},
		ImageOffset: vk.Offset3D{X: int32(region.X), Y: int32(region.Y), Z: int32(region.Z)},
		ImageExtent: vk.Extent3D{Width: region.Width, Height: region.Height, Depth: maxu32(region.Depth, 1)},
	}
	vk.CmdCopyBufferToImage(cmd, stagingObj.buffer, obj.image, vk.ImageLayoutTransferDstOptimal, 1, []vk.BufferImageCopy{copyRegion})

	barrierToRead := barrierToDst
	barrierToRead.OldLayout = vk.ImageLayoutTransferDstOptimal
	barrierToRead.NewLayout = vk.ImageLayoutShaderReadOnlyOptimal
	barrierToRead.SrcAccessMask = vk.AccessFlags(vk.AccessTransferWriteBit)
	barrierToRead.DstAccessMask = vk.AccessFlags(vk.AccessShaderReadBit)
	vk.CmdPipelineBarrier(cmd, vk.PipelineStageFlags(vk.PipelineStageTransferBit), vk.PipelineStageFlags(vk.PipelineStageFragmentShaderBit),
		0, 0, nil, 0, nil, 1, []vk.ImageMemoryBarrier{barrierToRead})

	return d.endOneShotCommands(cmd)
}

func maxu32(v, floor uint32) uint32 {
	if v < floor {
		return floor
	}
	return v
}
