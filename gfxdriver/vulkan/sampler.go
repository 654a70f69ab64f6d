package vulkan

import (
	"fmt"

	vk "github.com/goki/vulkan"

	"github.com/ember-forge/pipeline/gfxdriver"
)

func vkFilter(f gfxdriver.Filter) vk.Filter {
	if f == gfxdriver.FilterLinear {
		return vk.FilterLinear
	}
	return vk.FilterNearest
}

func vkAddressMode(m gfxdriver.AddressMode) vk.SamplerAddressMode {
	switch m {
	case gfxdriver.AddressClampToEdge:
		return vk.SamplerAddressModeClampToEdge
	case gfxdriver.AddressMirroredRepeat:
		return vk.SamplerAddressModeMirroredRepeat
	default:
		return vk.SamplerAddressModeRepeat
	}
}

func (d *Driver) CreateSampler(desc gfxdriver.SamplerDesc) (gfxdriver.SamplerHandle, error) {
	createInfo := vk.SamplerCreateInfo{
		SType:                   vk.StructureTypeSamplerCreateInfo,
		MagFilter:               vkFilter(desc.MagFilter),
		MinFilter:               vkFilter(desc.MinFilter),
		AddressModeU:            vkAddressMode(desc.AddressU),
		AddressModeV:            vkAddressMode(desc.AddressV),
		AddressModeW:            vk.SamplerAddressModeRepeat,
		AnisotropyEnable:        vk.Bool32(boolToVk(desc.MaxAnisotropy > 1)),
		MaxAnisotropy:           desc.MaxAnisotropy,
		BorderColor:             vk.BorderColorIntOpaqueBlack,
		UnnormalizedCoordinates: vk.False,
		CompareEnable:           vk.False,
		CompareOp:               vk.CompareOpAlways,
		MipmapMode:              vk.SamplerMipmapModeLinear,
	}

	var sampler vk.Sampler
	if res := vk.CreateSampler(d.device, &createInfo, d.allocator, &sampler); res != vk.Success {
		return 0, checkResult("CreateSampler", res)
	}

	handle := gfxdriver.SamplerHandle(d.allocHandle())
	d.mu.Lock()
	d.samplers[handle] = sampler
	d.mu.Unlock()
	return handle, nil
}

func (d *Driver) DestroySampler(h gfxdriver.SamplerHandle) error {
	d.mu.Lock()
	sampler, ok := d.samplers[h]
	if ok {
		delete(d.samplers, h)
	}
	d.mu.Unlock()
	if !ok {
		return fmt.Errorf("gfxdriver/vulkan: unknown sampler handle %d", h)
	}
	vk.DestroySampler(d.device, sampler, d.allocator)
	return nil
}

func boolToVk(b bool) uint32 {
	if b {
		return 1
	}
	return 0
}
