package vulkan

import (
	"fmt"
	"unsafe"

	vk "github.com/goki/vulkan"

	"github.com/ember-forge/pipeline/gfxdriver"
	"github.com/ember-forge/pipeline/gpucache"
)

func vkBufferUsage(u gfxdriver.BufferUsage) vk.BufferUsageFlags {
	var flags vk.BufferUsageFlagBits
	if u&gfxdriver.BufferUsageVertex != 0 {
		flags |= vk.BufferUsageVertexBufferBit
	}
	if u&gfxdriver.BufferUsageIndex != 0 {
		flags |= vk.BufferUsageIndexBufferBit
	}
	if u&gfxdriver.BufferUsageUniform != 0 {
		flags |= vk.BufferUsageUniformBufferBit
	}
	if u&gfxdriver.BufferUsageStorage != 0 {
		flags |= vk.BufferUsageStorageBufferBit
	}
	if u&gfxdriver.BufferUsageTransferSrc != 0 {
		flags |= vk.BufferUsageTransferSrcBit
	}
	if u&gfxdriver.BufferUsageTransferDst != 0 {
		flags |= vk.BufferUsageTransferDstBit
	}
	return vk.BufferUsageFlags(flags)
}

func vkMemoryProperties(mem gpucache.MemUsage) vk.MemoryPropertyFlags {
	switch mem {
	case gpucache.MemUsageCPUToGPU, gpucache.MemUsageGPUToCPU:
		return vk.MemoryPropertyFlags(vk.MemoryPropertyHostVisibleBit | vk.MemoryPropertyHostCoherentBit)
	default:
		return vk.MemoryPropertyFlags(vk.MemoryPropertyDeviceLocalBit)
	}
}

// CreateBuffer mirrors context.go's VulkanBuffer creation path: a
// vk.BufferCreateInfo, a memory-requirements query, allocation against a
// memory type matching the requested residency, and a bind.
func (d *Driver) CreateBuffer(size uint64, usage gfxdriver.BufferUsage, mem gpucache.MemUsage) (gfxdriver.BufferHandle, error) {
	createInfo := vk.BufferCreateInfo{
		SType:       vk.StructureTypeBufferCreateInfo,
		Size:        vk.DeviceSize(size),
		Usage:       vkBufferUsage(usage),
		SharingMode: vk.SharingModeExclusive,
	}

	var buffer vk.Buffer
	if err := d.locks.safeCall(lockBuffer, func() error {
		res := vk.CreateBuffer(d.device, &createInfo, d.allocator, &buffer)
		return checkResult("CreateBuffer", res)
	}); err != nil {
		return 0, err
	}

	var reqs vk.MemoryRequirements
	vk.GetBufferMemoryRequirements(d.device, buffer, &reqs)
	reqs.Deref()

	memType, err := d.findMemoryType(reqs.MemoryTypeBits, vkMemoryProperties(mem))
	if err != nil {
		vk.DestroyBuffer(d.device, buffer, d.allocator)
		return 0, err
	}

	allocInfo := vk.MemoryAllocateInfo{
		SType:           vk.StructureTypeMemoryAllocateInfo,
		AllocationSize:  reqs.Size,
		MemoryTypeIndex: memType,
	}
	var memory vk.DeviceMemory
	if res := vk.AllocateMemory(d.device, &allocInfo, d.allocator, &memory); res != vk.Success {
		vk.DestroyBuffer(d.device, buffer, d.allocator)
		return 0, checkResult("AllocateMemory", res)
	}
	if res := vk.BindBufferMemory(d.device, buffer, memory, 0); res != vk.Success {
		vk.FreeMemory(d.device, memory, d.allocator)
		vk.DestroyBuffer(d.device, buffer, d.allocator)
		return 0, checkResult("BindBufferMemory", res)
	}

	handle := gfxdriver.BufferHandle(d.allocHandle())
	d.mu.Lock()
	d.buffers[handle] = &bufferObject{buffer: buffer, memory: memory, size: size}
	d.mu.Unlock()
	return handle, nil
}

func (d *Driver) DestroyBuffer(h gfxdriver.BufferHandle) error {
	d.mu.Lock()
	obj, ok := d.buffers[h]
	if ok {
		delete(d.buffers, h)
	}
	d.mu.Unlock()
	if !ok {
		return fmt.Errorf("gfxdriver/vulkan: unknown buffer handle %d", h)
	}
	return d.locks.safeCall(lockBuffer, func() error {
		if obj.buffer != nil {
			vk.DestroyBuffer(d.device, obj.buffer, d.allocator)
		}
		if obj.memory != nil {
			vk.FreeMemory(d.device, obj.memory, d.allocator)
		}
		return nil
	})
}

// MapBuffer returns a Go slice backed directly by the mapped device memory;
// callers write into it and call UnmapBuffer when done. Only valid for
// buffers created with a host-visible MemUsage.
func (d *Driver) MapBuffer(h gfxdriver.BufferHandle) ([]byte, error) {
	d.mu.Lock()
	obj, ok := d.buffers[h]
	d.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("gfxdriver/vulkan: unknown buffer handle %d", h)
	}

	var ptr unsafe.Pointer
	if res := vk.MapMemory(d.device, obj.memory, 0, vk.DeviceSize(obj.size), 0, &ptr); res != vk.Success {
		return nil, checkResult("MapMemory", res)
	}
	return unsafe.Slice((*byte)(ptr), int(obj.size)), nil
}

func (d *Driver) UnmapBuffer(h gfxdriver.BufferHandle) error {
	d.mu.Lock()
	obj, ok := d.buffers[h]
	d.mu.Unlock()
	if !ok {
		return fmt.Errorf("gfxdriver/vulkan: unknown buffer handle %d", h)
	}
	vk.UnmapMemory(d.device, obj.memory)
	return nil
}
