// Package vulkan is the gfxdriver.Driver adapter over github.com/goki/vulkan,
// grounded on the teacher's engine/renderer/vulkan/*.go (instance/device
// bring-up in backend.go and device.go, resource creation in image.go,
// pipeline.go, descriptor.go, renderpass.go and framebuffer.go, command
// submission in command_buffer.go and fence.go). Unlike the teacher's
// windowed renderer, this adapter never creates a VkSurface or swapchain:
// a content pipeline's GPU driver use is headless (texture/shader
// processing at build time), so the teacher's glfw-backed surface
// bring-up and presentation loop have no home here — see DESIGN.md for
// why github.com/go-gl/glfw/v3.3/glfw was dropped rather than carried
// forward unused.
package vulkan

import (
	"fmt"
	"sync"

	vk "github.com/goki/vulkan"

	"github.com/ember-forge/pipeline/corelog"
	"github.com/ember-forge/pipeline/gfxdriver"
)

// Driver is the headless gfxdriver.Driver implementation. It owns one
// Vulkan instance, one physical/logical device pair and a single
// general-purpose command pool; every resource it creates is tracked in
// an internal handle table so gfxdriver's opaque uint64 handles never
// leak a raw vk.* type to callers.
type Driver struct {
	instance       vk.Instance
	allocator      *vk.AllocationCallbacks
	physicalDevice vk.PhysicalDevice
	device         vk.Device
	queueFamily    uint32
	queue          vk.Queue
	commandPool    vk.CommandPool

	locks *lockPool

	mu        sync.Mutex
	nextID    uint64
	textures  map[gfxdriver.TextureHandle]*textureObject
	buffers   map[gfxdriver.BufferHandle]*bufferObject
	samplers  map[gfxdriver.SamplerHandle]vk.Sampler
	programs  map[gfxdriver.ProgramHandle]vk.ShaderModule
	layouts   map[gfxdriver.DescSetLayoutHandle]vk.DescriptorSetLayout
	descPools map[gfxdriver.DescSetLayoutHandle]vk.DescriptorPool
	descSets  map[gfxdriver.DescSetHandle]vk.DescriptorSet
	passes    map[gfxdriver.RenderPassHandle]vk.RenderPass
	fbs       map[gfxdriver.FramebufferHandle]vk.Framebuffer
	pipelines map[gfxdriver.PipelineHandle]pipelineObject
	commands  map[gfxdriver.CommandListHandle]vk.CommandBuffer
}

type textureObject struct {
	image  vk.Image
	memory vk.DeviceMemory
	view   vk.ImageView
}

type bufferObject struct {
	buffer vk.Buffer
	memory vk.DeviceMemory
	size   uint64
}

type pipelineObject struct {
	pipeline vk.Pipeline
	layout   vk.PipelineLayout
	bindType vk.PipelineBindPoint
}

var _ gfxdriver.Driver = (*Driver)(nil)

// NewDriver brings up a headless Vulkan instance and picks the first
// physical device exposing a combined graphics+compute queue family,
// grounded on backend.go's Initialize and device.go's DeviceCreate /
// SelectPhysicalDevice, with the windowed-presentation concerns (surface,
// swapchain, glfw extension list) removed.
func NewDriver(appName string, debug bool) (*Driver, error) {
	if err := vk.Init(); err != nil {
		return nil, fmt.Errorf("gfxdriver/vulkan: vk.Init: %w", err)
	}

	appInfo := &vk.ApplicationInfo{
		SType:              vk.StructureTypeApplicationInfo,
		ApiVersion:         uint32(vk.MakeVersion(1, 2, 0)),
		ApplicationVersion: uint32(vk.MakeVersion(1, 0, 0)),
		PApplicationName:   nulString(appName),
		PEngineName:        nulString("ember-forge pipeline"),
	}

	var layers []string
	if debug {
		layers = []string{nulString("VK_LAYER_KHRONOS_validation")}
	}

	createInfo := vk.InstanceCreateInfo{
		SType:                   vk.StructureTypeInstanceCreateInfo,
		PApplicationInfo:        appInfo,
		EnabledLayerCount:       uint32(len(layers)),
		PpEnabledLayerNames:     layers,
	}

	var instance vk.Instance
	if res := vk.CreateInstance(&createInfo, nil, &instance); res != vk.Success {
		return nil, checkResult("CreateInstance", res)
	}
	vk.InitInstance(instance)

	d := &Driver{
		instance:  instance,
		locks:     newLockPool(),
		textures:  make(map[gfxdriver.TextureHandle]*textureObject),
		buffers:   make(map[gfxdriver.BufferHandle]*bufferObject),
		samplers:  make(map[gfxdriver.SamplerHandle]vk.Sampler),
		programs:  make(map[gfxdriver.ProgramHandle]vk.ShaderModule),
		layouts:   make(map[gfxdriver.DescSetLayoutHandle]vk.DescriptorSetLayout),
		descPools: make(map[gfxdriver.DescSetLayoutHandle]vk.DescriptorPool),
		descSets:  make(map[gfxdriver.DescSetHandle]vk.DescriptorSet),
		passes:    make(map[gfxdriver.RenderPassHandle]vk.RenderPass),
		fbs:       make(map[gfxdriver.FramebufferHandle]vk.Framebuffer),
		pipelines: make(map[gfxdriver.PipelineHandle]pipelineObject),
		commands:  make(map[gfxdriver.CommandListHandle]vk.CommandBuffer),
	}

	if err := d.selectPhysicalDevice(); err != nil {
		return nil, err
	}
	if err := d.createLogicalDevice(); err != nil {
		return nil, err
	}

	poolInfo := vk.CommandPoolCreateInfo{
		SType:            vk.StructureTypeCommandPoolCreateInfo,
		QueueFamilyIndex: d.queueFamily,
		Flags:            vk.CommandPoolCreateFlags(vk.CommandPoolCreateResetCommandBufferBit),
	}
	if res := vk.CreateCommandPool(d.device, &poolInfo, d.allocator, &d.commandPool); res != vk.Success {
		return nil, checkResult("CreateCommandPool", res)
	}

	corelog.Info("gfxdriver/vulkan: headless device ready, queue family %d", d.queueFamily)
	return d, nil
}

func (d *Driver) selectPhysicalDevice() error {
	var count uint32
	if res := vk.EnumeratePhysicalDevices(d.instance, &count, nil); res != vk.Success || count == 0 {
		return fmt.Errorf("gfxdriver/vulkan: no Vulkan physical devices available")
	}
	devices := make([]vk.PhysicalDevice, count)
	if res := vk.EnumeratePhysicalDevices(d.instance, &count, devices); res != vk.Success {
		return checkResult("EnumeratePhysicalDevices", res)
	}

	for _, pd := range devices {
		var familyCount uint32
		vk.GetPhysicalDeviceQueueFamilyProperties(pd, &familyCount, nil)
		families := make([]vk.QueueFamilyProperties, familyCount)
		vk.GetPhysicalDeviceQueueFamilyProperties(pd, &familyCount, families)
		for i, f := range families {
			f.Deref()
			flags := vk.QueueFlagBits(f.QueueFlags)
			if flags&vk.QueueGraphicsBit != 0 && flags&vk.QueueComputeBit != 0 {
				d.physicalDevice = pd
				d.queueFamily = uint32(i)
				return nil
			}
		}
	}
	return fmt.Errorf("gfxdriver/vulkan: no device with a combined graphics+compute queue family")
}

func (d *Driver) createLogicalDevice() error {
	priority := float32(1.0)
	queueInfo := vk.DeviceQueueCreateInfo{
		SType:            vk.StructureTypeDeviceQueueCreateInfo,
		QueueFamilyIndex: d.queueFamily,
		QueueCount:       1,
		PQueuePriorities: []float32{priority},
	}

	features := vk.PhysicalDeviceFeatures{}

	deviceInfo := vk.DeviceCreateInfo{
		SType:                 vk.StructureTypeDeviceCreateInfo,
		QueueCreateInfoCount:  1,
		PQueueCreateInfos:     []vk.DeviceQueueCreateInfo{queueInfo},
		PEnabledFeatures:      []vk.PhysicalDeviceFeatures{features},
	}

	var device vk.Device
	if err := d.locks.safeCall(lockDevice, func() error {
		res := vk.CreateDevice(d.physicalDevice, &deviceInfo, d.allocator, &device)
		return checkResult("CreateDevice", res)
	}); err != nil {
		return err
	}
	d.device = device
	vk.InitDevice(device)

	var queue vk.Queue
	vk.GetDeviceQueue(d.device, d.queueFamily, 0, &queue)
	d.queue = queue
	return nil
}

// Close tears down the command pool, logical device and instance, in
// that order, mirroring device.go's DeviceDestroy teardown sequence.
func (d *Driver) Close() error {
	if d.commandPool != nil {
		vk.DestroyCommandPool(d.device, d.commandPool, d.allocator)
	}
	if d.device != nil {
		vk.DestroyDevice(d.device, d.allocator)
	}
	if d.instance != nil {
		vk.DestroyInstance(d.instance, d.allocator)
	}
	return nil
}

func (d *Driver) allocHandle() uint64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.nextID++
	return d.nextID
}

func (d *Driver) findMemoryType(typeBits uint32, properties vk.MemoryPropertyFlags) (uint32, error) {
	var memProps vk.PhysicalDeviceMemoryProperties
	vk.GetPhysicalDeviceMemoryProperties(d.physicalDevice, &memProps)
	memProps.Deref()
	for i := uint32(0); i < memProps.MemoryTypeCount; i++ {
		memProps.MemoryTypes[i].Deref()
		if typeBits&(1<<i) != 0 && vk.MemoryPropertyFlags(memProps.MemoryTypes[i].PropertyFlags)&properties == properties {
			return i, nil
		}
	}
	return 0, fmt.Errorf("gfxdriver/vulkan: no suitable memory type for mask 0x%x", typeBits)
}
