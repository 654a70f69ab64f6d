package vulkan

import (
	"fmt"

	vk "github.com/goki/vulkan"

	"github.com/ember-forge/pipeline/gfxdriver"
)

// beginOneShotCommands and endOneShotCommands wrap the allocate/begin/
// submit/wait/free sequence every synchronous upload or transition needs,
// grounded on fence.go's wait-on-a-fence pattern generalized to a plain
// QueueWaitIdle since a headless build step has no frame pipelining to
// overlap.
func (d *Driver) beginOneShotCommands() (vk.CommandBuffer, error) {
	allocInfo := vk.CommandBufferAllocateInfo{
		SType:              vk.StructureTypeCommandBufferAllocateInfo,
		CommandPool:        d.commandPool,
		Level:              vk.CommandBufferLevelPrimary,
		CommandBufferCount: 1,
	}
	cmds := make([]vk.CommandBuffer, 1)
	if res := vk.AllocateCommandBuffers(d.device, &allocInfo, cmds); res != vk.Success {
		return nil, checkResult("AllocateCommandBuffers", res)
	}
	cmd := cmds[0]

	beginInfo := vk.CommandBufferBeginInfo{
		SType: vk.StructureTypeCommandBufferBeginInfo,
		Flags: vk.CommandBufferUsageFlags(vk.CommandBufferUsageOneTimeSubmitBit),
	}
	if res := vk.BeginCommandBuffer(cmd, &beginInfo); res != vk.Success {
		return nil, checkResult("BeginCommandBuffer", res)
	}
	return cmd, nil
}

func (d *Driver) endOneShotCommands(cmd vk.CommandBuffer) error {
	if res := vk.EndCommandBuffer(cmd); res != vk.Success {
		return checkResult("EndCommandBuffer", res)
	}

	submitInfo := vk.SubmitInfo{
		SType:              vk.StructureTypeSubmitInfo,
		CommandBufferCount: 1,
		PCommandBuffers:    []vk.CommandBuffer{cmd},
	}

	return d.locks.safeCall(lockQueue, func() error {
		if res := vk.QueueSubmit(d.queue, 1, []vk.SubmitInfo{submitInfo}, nil); res != vk.Success {
			return checkResult("QueueSubmit", res)
		}
		if res := vk.QueueWaitIdle(d.queue); res != vk.Success {
			return checkResult("QueueWaitIdle", res)
		}
		vk.FreeCommandBuffers(d.device, d.commandPool, 1, []vk.CommandBuffer{cmd})
		return nil
	})
}

// AllocateCommandList hands the caller a tracked, ready-to-record primary
// command buffer. Draw/Dispatch record into it; Submit flushes and frees it.
func (d *Driver) AllocateCommandList() (gfxdriver.CommandListHandle, error) {
	cmd, err := d.beginOneShotCommands()
	if err != nil {
		return 0, err
	}
	handle := gfxdriver.CommandListHandle(d.allocHandle())
	d.mu.Lock()
	d.commands[handle] = cmd
	d.mu.Unlock()
	return handle, nil
}

func (d *Driver) Draw(cmd gfxdriver.CommandListHandle, pipeline gfxdriver.PipelineHandle, sets []gfxdriver.DescSetHandle, p gfxdriver.DrawParams) error {
	cb, pipe, err := d.resolveDraw(cmd, pipeline)
	if err != nil {
		return err
	}
	vk.CmdBindPipeline(cb, vk.PipelineBindPointGraphics, pipe.pipeline)
	if err := d.bindDescriptorSets(cb, pipe.layout, vk.PipelineBindPointGraphics, sets); err != nil {
		return err
	}
	if p.VertexBuffer != 0 {
		d.mu.Lock()
		vbObj, ok := d.buffers[p.VertexBuffer]
		d.mu.Unlock()
		if !ok {
			return fmt.Errorf("gfxdriver/vulkan: unknown vertex buffer handle %d", p.VertexBuffer)
		}
		vk.CmdBindVertexBuffers(cb, 0, 1, []vk.Buffer{vbObj.buffer}, []vk.DeviceSize{0})
	}
	if p.IndexBuffer != 0 {
		d.mu.Lock()
		ibObj, ok := d.buffers[p.IndexBuffer]
		d.mu.Unlock()
		if !ok {
			return fmt.Errorf("gfxdriver/vulkan: unknown index buffer handle %d", p.IndexBuffer)
		}
		vk.CmdBindIndexBuffer(cb, ibObj.buffer, 0, vk.IndexTypeUint32)
		vk.CmdDrawIndexed(cb, p.IndexCount, maxu32(p.InstanceCount, 1), p.FirstIndex, p.VertexOffset, 0)
		return nil
	}
	vk.CmdDraw(cb, p.IndexCount, maxu32(p.InstanceCount, 1), 0, 0)
	return nil
}

func (d *Driver) Dispatch(cmd gfxdriver.CommandListHandle, pipeline gfxdriver.PipelineHandle, sets []gfxdriver.DescSetHandle, p gfxdriver.DispatchParams) error {
	cb, pipe, err := d.resolveDraw(cmd, pipeline)
	if err != nil {
		return err
	}
	vk.CmdBindPipeline(cb, vk.PipelineBindPointCompute, pipe.pipeline)
	if err := d.bindDescriptorSets(cb, pipe.layout, vk.PipelineBindPointCompute, sets); err != nil {
		return err
	}
	vk.CmdDispatch(cb, maxu32(p.GroupsX, 1), maxu32(p.GroupsY, 1), maxu32(p.GroupsZ, 1))
	return nil
}

func (d *Driver) resolveDraw(cmd gfxdriver.CommandListHandle, pipeline gfxdriver.PipelineHandle) (vk.CommandBuffer, pipelineObject, error) {
	d.mu.Lock()
	cb, ok := d.commands[cmd]
	pipe, okp := d.pipelines[pipeline]
	d.mu.Unlock()
	if !ok {
		return nil, pipelineObject{}, fmt.Errorf("gfxdriver/vulkan: unknown command list handle %d", cmd)
	}
	if !okp {
		return nil, pipelineObject{}, fmt.Errorf("gfxdriver/vulkan: unknown pipeline handle %d", pipeline)
	}
	return cb, pipe, nil
}

func (d *Driver) bindDescriptorSets(cb vk.CommandBuffer, layout vk.PipelineLayout, bindPoint vk.PipelineBindPoint, sets []gfxdriver.DescSetHandle) error {
	if len(sets) == 0 {
		return nil
	}
	vkSets := make([]vk.DescriptorSet, 0, len(sets))
	d.mu.Lock()
	for _, s := range sets {
		vs, ok := d.descSets[s]
		if !ok {
			d.mu.Unlock()
			return fmt.Errorf("gfxdriver/vulkan: unknown descriptor set handle %d", s)
		}
		vkSets = append(vkSets, vs)
	}
	d.mu.Unlock()
	vk.CmdBindDescriptorSets(cb, bindPoint, layout, 0, uint32(len(vkSets)), vkSets, 0, nil)
	return nil
}

// Submit ends recording and flushes the command list, mirroring
// endOneShotCommands's submit/wait/free sequence.
func (d *Driver) Submit(cmd gfxdriver.CommandListHandle) error {
	d.mu.Lock()
	cb, ok := d.commands[cmd]
	if ok {
		delete(d.commands, cmd)
	}
	d.mu.Unlock()
	if !ok {
		return fmt.Errorf("gfxdriver/vulkan: unknown command list handle %d", cmd)
	}
	return d.endOneShotCommands(cb)
}
