package vulkan

import (
	"github.com/vkngwrapper/core/v2/core1_0"
	"github.com/vkngwrapper/extensions/v2/ext_debug_utils"
	"github.com/vkngwrapper/extensions/v2/khr_swapchain"
)

// Extension name strings for feature extensions the wrapper has no package for.
// Only the name is needed: their effect here is permitting barrier stage bits,
// never calling extension commands.
const (
	transformFeedbackExtensionName    = "VK_EXT_transform_feedback"
	conditionalRenderingExtensionName = "VK_EXT_conditional_rendering"
	fragmentDensityMapExtensionName   = "VK_EXT_fragment_density_map"
	fragmentShadingRateExtensionName  = "VK_KHR_fragment_shading_rate"
)

type ExtensionData struct {
	TransformFeedback    bool
	ConditionalRendering bool
	FragmentDensityMap   bool
	FragmentShadingRate  bool

	Swapchain  khr_swapchain.Extension
	DebugUtils ext_debug_utils.Extension
}

func NewExtensionData(device core1_0.Device, instance core1_0.Instance) *ExtensionData {
	data := &ExtensionData{}

	// Apply device capabilities- add extension capabilities to the device wrapper
	if device.IsDeviceExtensionActive(transformFeedbackExtensionName) {
		data.TransformFeedback = true
	}

	if device.IsDeviceExtensionActive(conditionalRenderingExtensionName) {
		data.ConditionalRendering = true
	}

	if device.IsDeviceExtensionActive(fragmentDensityMapExtensionName) {
		data.FragmentDensityMap = true
	}

	if device.IsDeviceExtensionActive(fragmentShadingRateExtensionName) {
		data.FragmentShadingRate = true
	}

	if device.IsDeviceExtensionActive(khr_swapchain.ExtensionName) {
		data.Swapchain = khr_swapchain.CreateExtensionFromDevice(device)
	}

	if instance.IsInstanceExtensionActive(ext_debug_utils.ExtensionName) {
		data.DebugUtils = ext_debug_utils.CreateExtensionFromInstance(instance)
	}

	return data
}
