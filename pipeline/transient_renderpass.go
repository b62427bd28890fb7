package pipeline

import (
	"github.com/vkngwrapper/core/v2/common"
	"github.com/vkngwrapper/core/v2/core1_0"
	"github.com/vkngwrapper/easel/device"
)

// RenderTargetFormats names the attachment formats a graphics pipeline renders
// to. DepthStencilFormat of core1_0.FormatUndefined means no depth attachment.
type RenderTargetFormats struct {
	ColorFormats       []core1_0.Format
	DepthStencilFormat core1_0.Format
	SampleCount        core1_0.SampleCountFlags
}

// createTransientRenderPass builds a render pass compatible with the pipeline's
// attachment formats, used only to satisfy pipeline creation. Load and store ops
// are DontCare throughout since no rendering is ever recorded against it. The
// caller destroys it as soon as the pipeline exists.
func createTransientRenderPass(dev *device.Device, formats RenderTargetFormats) (core1_0.RenderPass, common.VkResult, error) {
	sampleCount := formats.SampleCount
	if sampleCount == 0 {
		sampleCount = core1_0.Samples1
	}

	var attachments []core1_0.AttachmentDescription
	var colorRefs []core1_0.AttachmentReference

	for _, format := range formats.ColorFormats {
		colorRefs = append(colorRefs, core1_0.AttachmentReference{
			Attachment: len(attachments),
			Layout:     core1_0.ImageLayoutColorAttachmentOptimal,
		})
		attachments = append(attachments, core1_0.AttachmentDescription{
			Format:         format,
			Samples:        sampleCount,
			LoadOp:         core1_0.AttachmentLoadOpDontCare,
			StoreOp:        core1_0.AttachmentStoreOpStore,
			StencilLoadOp:  core1_0.AttachmentLoadOpDontCare,
			StencilStoreOp: core1_0.AttachmentStoreOpDontCare,
			InitialLayout:  core1_0.ImageLayoutUndefined,
			FinalLayout:    core1_0.ImageLayoutColorAttachmentOptimal,
		})
	}

	subpass := core1_0.SubpassDescription{
		PipelineBindPoint: core1_0.PipelineBindPointGraphics,
		ColorAttachments:  colorRefs,
	}

	if formats.DepthStencilFormat != core1_0.FormatUndefined {
		subpass.DepthStencilAttachment = &core1_0.AttachmentReference{
			Attachment: len(attachments),
			Layout:     core1_0.ImageLayoutDepthStencilAttachmentOptimal,
		}
		attachments = append(attachments, core1_0.AttachmentDescription{
			Format:         formats.DepthStencilFormat,
			Samples:        sampleCount,
			LoadOp:         core1_0.AttachmentLoadOpDontCare,
			StoreOp:        core1_0.AttachmentStoreOpStore,
			StencilLoadOp:  core1_0.AttachmentLoadOpDontCare,
			StencilStoreOp: core1_0.AttachmentStoreOpDontCare,
			InitialLayout:  core1_0.ImageLayoutUndefined,
			FinalLayout:    core1_0.ImageLayoutDepthStencilAttachmentOptimal,
		})
	}

	return dev.Vulkan().CreateRenderPass(dev.AllocationCallbacks(), core1_0.RenderPassCreateInfo{
		Attachments: attachments,
		Subpasses:   []core1_0.SubpassDescription{subpass},
		SubpassDependencies: []core1_0.SubpassDependency{
			{
				SrcSubpass: core1_0.SubpassExternal,
				DstSubpass: 0,

				SrcStageMask:  core1_0.PipelineStageColorAttachmentOutput,
				SrcAccessMask: 0,

				DstStageMask:  core1_0.PipelineStageColorAttachmentOutput,
				DstAccessMask: core1_0.AccessColorAttachmentWrite,
			},
		},
	})
}
