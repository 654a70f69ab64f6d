package vulkan

import (
	"fmt"

	vk "github.com/goki/vulkan"

	"github.com/ember-forge/pipeline/gfxdriver"
	"github.com/ember-forge/pipeline/gpucache"
)

func vkDescriptorType(k gpucache.BindingKind) vk.DescriptorType {
	switch k {
	case gpucache.BindingStorageBuffer:
		return vk.DescriptorTypeStorageBuffer
	case gpucache.BindingTexture2D, gpucache.BindingTextureCube:
		return vk.DescriptorTypeSampledImage
	case gpucache.BindingSampler:
		return vk.DescriptorTypeSampler
	default:
		return vk.DescriptorTypeUniformBuffer
	}
}

// CreateDescSetLayout builds a vk.DescriptorSetLayout plus a small
// per-layout pool it can hand out sets from. Grounded on descriptor.go's
// VulkanDescriptorSetConfig (a binding count plus a fixed-size binding
// array), generalized from that file's hardcoded max-bindings layout
// struct to DescSetLayoutDesc's NumBindings/Bindings pair.
func (d *Driver) CreateDescSetLayout(desc gpucache.DescSetLayoutDesc) (gfxdriver.DescSetLayoutHandle, error) {
	bindings := make([]vk.DescriptorSetLayoutBinding, 0, desc.NumBindings)
	poolSizes := make(map[vk.DescriptorType]uint32)
	for i := uint8(0); i < desc.NumBindings; i++ {
		b := desc.Bindings[i]
		dt := vkDescriptorType(b.Kind)
		count := uint32(b.Count)
		if count == 0 {
			count = 1
		}
		bindings = append(bindings, vk.DescriptorSetLayoutBinding{
			Binding:         uint32(b.Slot),
			DescriptorType:  dt,
			DescriptorCount: count,
			StageFlags:      vk.ShaderStageFlags(vk.ShaderStageAll),
		})
		poolSizes[dt] += count
	}

	layoutInfo := vk.DescriptorSetLayoutCreateInfo{
		SType:        vk.StructureTypeDescriptorSetLayoutCreateInfo,
		BindingCount: uint32(len(bindings)),
		PBindings:    bindings,
	}
	var layout vk.DescriptorSetLayout
	if res := vk.CreateDescriptorSetLayout(d.device, &layoutInfo, d.allocator, &layout); res != vk.Success {
		return 0, checkResult("CreateDescriptorSetLayout", res)
	}

	vkPoolSizes := make([]vk.DescriptorPoolSize, 0, len(poolSizes))
	for dt, count := range poolSizes {
		vkPoolSizes = append(vkPoolSizes, vk.DescriptorPoolSize{Type: dt, DescriptorCount: count * 16})
	}
	if len(vkPoolSizes) == 0 {
		vkPoolSizes = append(vkPoolSizes, vk.DescriptorPoolSize{Type: vk.DescriptorTypeUniformBuffer, DescriptorCount: 16})
	}
	poolInfo := vk.DescriptorPoolCreateInfo{
		SType:         vk.StructureTypeDescriptorPoolCreateInfo,
		PoolSizeCount: uint32(len(vkPoolSizes)),
		PPoolSizes:    vkPoolSizes,
		MaxSets:       16,
	}
	var pool vk.DescriptorPool
	if res := vk.CreateDescriptorPool(d.device, &poolInfo, d.allocator, &pool); res != vk.Success {
		vk.DestroyDescriptorSetLayout(d.device, layout, d.allocator)
		return 0, checkResult("CreateDescriptorPool", res)
	}

	handle := gfxdriver.DescSetLayoutHandle(d.allocHandle())
	d.mu.Lock()
	d.layouts[handle] = layout
	d.descPools[handle] = pool
	d.mu.Unlock()
	return handle, nil
}

func (d *Driver) DestroyDescSetLayout(h gfxdriver.DescSetLayoutHandle) error {
	d.mu.Lock()
	layout, ok := d.layouts[h]
	pool := d.descPools[h]
	if ok {
		delete(d.layouts, h)
		delete(d.descPools, h)
	}
	d.mu.Unlock()
	if !ok {
		return fmt.Errorf("gfxdriver/vulkan: unknown descriptor-set-layout handle %d", h)
	}
	vk.DestroyDescriptorPool(d.device, pool, d.allocator)
	vk.DestroyDescriptorSetLayout(d.device, layout, d.allocator)
	return nil
}

func (d *Driver) CreateDescSet(layout gfxdriver.DescSetLayoutHandle) (gfxdriver.DescSetHandle, error) {
	d.mu.Lock()
	vkLayout, ok := d.layouts[layout]
	pool := d.descPools[layout]
	d.mu.Unlock()
	if !ok {
		return 0, fmt.Errorf("gfxdriver/vulkan: unknown descriptor-set-layout handle %d", layout)
	}

	allocInfo := vk.DescriptorSetAllocateInfo{
		SType:              vk.StructureTypeDescriptorSetAllocateInfo,
		DescriptorPool:     pool,
		DescriptorSetCount: 1,
		PSetLayouts:        []vk.DescriptorSetLayout{vkLayout},
	}
	sets := make([]vk.DescriptorSet, 1)
	if res := vk.AllocateDescriptorSets(d.device, &allocInfo, &sets[0]); res != vk.Success {
		return 0, checkResult("AllocateDescriptorSets", res)
	}

	handle := gfxdriver.DescSetHandle(d.allocHandle())
	d.mu.Lock()
	d.descSets[handle] = sets[0]
	d.mu.Unlock()
	return handle, nil
}

func (d *Driver) DestroyDescSet(h gfxdriver.DescSetHandle) error {
	d.mu.Lock()
	_, ok := d.descSets[h]
	if ok {
		delete(d.descSets, h)
	}
	d.mu.Unlock()
	if !ok {
		return fmt.Errorf("gfxdriver/vulkan: unknown descriptor-set handle %d", h)
	}
	// Sets are freed in bulk when their pool is destroyed alongside the layout.
	return nil
}
