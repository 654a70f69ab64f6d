package vulkan

import (
	"fmt"
	"unsafe"

	vk "github.com/goki/vulkan"

	"github.com/ember-forge/pipeline/gfxdriver"
)

// CreateProgram wraps SPIR-V bytecode (produced upstream by the glslc
// adapter, see compiler.go) in a vk.ShaderModule. shader.go declares the
// VulkanShader/VulkanShaderStage types this would eventually plug into but
// never implements the module-creation call itself (and shader_utils.go's
// attempt at it isn't valid Go), so this is grounded on the bare Vulkan
// API contract instead: CodeSize in bytes, PCode as a uint32 slice.
func (d *Driver) CreateProgram(stage gfxdriver.ShaderStage, bytecode []byte) (gfxdriver.ProgramHandle, error) {
	if len(bytecode)%4 != 0 {
		return 0, fmt.Errorf("gfxdriver/vulkan: SPIR-V bytecode length %d is not a multiple of 4", len(bytecode))
	}
	words := unsafe.Slice((*uint32)(unsafe.Pointer(&bytecode[0])), len(bytecode)/4)

	createInfo := vk.ShaderModuleCreateInfo{
		SType:    vk.StructureTypeShaderModuleCreateInfo,
		CodeSize: uint(len(bytecode)),
		PCode:    words,
	}

	var module vk.ShaderModule
	if res := vk.CreateShaderModule(d.device, &createInfo, d.allocator, &module); res != vk.Success {
		return 0, checkResult("CreateShaderModule", res)
	}

	handle := gfxdriver.ProgramHandle(d.allocHandle())
	d.mu.Lock()
	d.programs[handle] = module
	d.mu.Unlock()
	_ = stage // stage only matters once the module is attached to a pipeline stage
	return handle, nil
}

func (d *Driver) DestroyProgram(h gfxdriver.ProgramHandle) error {
	d.mu.Lock()
	module, ok := d.programs[h]
	if ok {
		delete(d.programs, h)
	}
	d.mu.Unlock()
	if !ok {
		return fmt.Errorf("gfxdriver/vulkan: unknown program handle %d", h)
	}
	vk.DestroyShaderModule(d.device, module, d.allocator)
	return nil
}

func vkShaderStageBit(stage gfxdriver.ShaderStage) vk.ShaderStageFlagBits {
	switch stage {
	case gfxdriver.StageFragment:
		return vk.ShaderStageFragmentBit
	case gfxdriver.StageCompute:
		return vk.ShaderStageComputeBit
	default:
		return vk.ShaderStageVertexBit
	}
}
