package vulkan

import (
	"fmt"

	vk "github.com/goki/vulkan"
)

// checkResult turns a non-Success vk.Result into a Go error tagged with
// the failing call's name, condensed from the teacher's
// engine/renderer/vulkan/utils.go VulkanResultString/VulkanResultIsSuccess
// (which enumerate every VkResult for human-readable logging); this
// adapter only needs "did it succeed, and what was the call", not the
// full code-to-prose table.
func checkResult(op string, res vk.Result) error {
	if res == vk.Success {
		return nil
	}
	return fmt.Errorf("gfxdriver/vulkan: %s failed: vk.Result(%d)", op, int32(res))
}

func nulString(s string) string {
	return s + "\x00"
}
