package command

import (
	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/core/v2/core1_0"
	"github.com/vkngwrapper/easel/gfxutils"
	"github.com/vkngwrapper/easel/pipeline"
)

// RenderPassOptions describes one rendering scope.
type RenderPassOptions struct {
	RenderPass  core1_0.RenderPass
	Framebuffer core1_0.Framebuffer
	RenderArea  core1_0.Rect2D
	ClearValues []core1_0.ClearValue

	// Formats names the attachment formats of Framebuffer, in attachment order.
	// They are checked against the formats of every graphics pipeline bound
	// inside the scope.
	Formats RenderingFormats
}

// BeginRenderPass opens a rendering scope. The attachment formats are retained
// until EndRenderPass so pipeline binds inside the scope can be checked against
// them. Scopes do not nest.
func (r *Recorder) BeginRenderPass(options RenderPassOptions) error {
	if r.activeFormats != nil {
		return errors.New("BeginRenderPass called inside a rendering scope")
	}

	err := r.commandBuffer.CmdBeginRenderPass(core1_0.SubpassContentsInline,
		core1_0.RenderPassBeginInfo{
			RenderPass:  options.RenderPass,
			Framebuffer: options.Framebuffer,
			RenderArea:  options.RenderArea,
			ClearValues: options.ClearValues,
		})
	if err != nil {
		return err
	}

	formats := options.Formats
	r.activeFormats = &formats
	return nil
}

// EndRenderPass closes the current rendering scope.
func (r *Recorder) EndRenderPass() error {
	if r.activeFormats == nil {
		return errors.New("EndRenderPass called outside a rendering scope")
	}
	r.activeFormats = nil

	r.commandBuffer.CmdEndRenderPass()
	return nil
}

// BindGraphicsPipeline binds a graphics pipeline. Inside a rendering scope, the
// pipeline's creation-time formats must match the bound attachments exactly;
// mismatches fail with gfxutils.ErrRenderTargetFormatMismatch before anything is
// recorded.
func (r *Recorder) BindGraphicsPipeline(p *pipeline.Graphics) error {
	if r.activeFormats != nil {
		if err := r.validateFormats(p.Formats()); err != nil {
			return err
		}
	}

	r.commandBuffer.CmdBindPipeline(core1_0.PipelineBindPointGraphics, p.Vulkan())
	return nil
}

func (r *Recorder) validateFormats(pipelineFormats pipeline.RenderTargetFormats) error {
	active := r.activeFormats

	if len(pipelineFormats.ColorFormats) != len(active.ColorFormats) {
		return errors.Wrapf(gfxutils.ErrRenderTargetFormatMismatch,
			"pipeline was compiled for %d color attachments but %d are bound",
			len(pipelineFormats.ColorFormats), len(active.ColorFormats))
	}
	for i, format := range pipelineFormats.ColorFormats {
		if format != active.ColorFormats[i] {
			return errors.Wrapf(gfxutils.ErrRenderTargetFormatMismatch,
				"color attachment %d is %s but the pipeline was compiled for %s",
				i, active.ColorFormats[i], format)
		}
	}
	if pipelineFormats.DepthStencilFormat != active.DepthStencilFormat {
		return errors.Wrapf(gfxutils.ErrRenderTargetFormatMismatch,
			"depth attachment is %s but the pipeline was compiled for %s",
			active.DepthStencilFormat, pipelineFormats.DepthStencilFormat)
	}

	return nil
}

// BindComputePipeline binds a compute pipeline.
func (r *Recorder) BindComputePipeline(p *pipeline.Compute) error {
	r.commandBuffer.CmdBindPipeline(core1_0.PipelineBindPointCompute, p.Vulkan())
	return nil
}

// BindDescriptorSets binds every set of an interface with a single command. The
// wrapped API always binds starting at set 0, so the interface's set numbers must
// be consecutive. sets must be ordered the same way the interface's declarations
// are.
func (r *Recorder) BindDescriptorSets(bindPoint core1_0.PipelineBindPoint, iface *pipeline.Interface, sets []*pipeline.Set) error {
	declarations := iface.Sets()
	if len(sets) != len(declarations) {
		return errors.Newf("interface declares %d sets but %d were provided",
			len(declarations), len(sets))
	}
	if len(sets) == 0 {
		return nil
	}
	if !iface.HasConsecutiveSets() {
		return errors.New("interfaces with non-consecutive set numbers cannot be bound as a range")
	}

	vulkanSets := make([]core1_0.DescriptorSet, len(sets))
	for i, set := range sets {
		vulkanSets[i] = set.Vulkan()
	}
	r.commandBuffer.CmdBindDescriptorSets(bindPoint, iface.Vulkan(), 0, vulkanSets, nil)
	return nil
}

// BindVertexBuffers binds vertex buffers starting at binding 0.
func (r *Recorder) BindVertexBuffers(buffers []core1_0.Buffer, offsets []int) error {
	r.commandBuffer.CmdBindVertexBuffers(0, buffers, offsets)
	return nil
}

// BindIndexBuffer binds an index buffer.
func (r *Recorder) BindIndexBuffer(buffer core1_0.Buffer, offset int, indexType core1_0.IndexType) error {
	r.commandBuffer.CmdBindIndexBuffer(buffer, offset, indexType)
	return nil
}

// SetViewport sets the dynamic viewport state pipelines expect.
func (r *Recorder) SetViewport(viewport core1_0.Viewport) error {
	r.commandBuffer.CmdSetViewport([]core1_0.Viewport{viewport})
	return nil
}

// SetScissor sets the dynamic scissor state pipelines expect.
func (r *Recorder) SetScissor(scissor core1_0.Rect2D) error {
	r.commandBuffer.CmdSetScissor([]core1_0.Rect2D{scissor})
	return nil
}

// PushConstants writes the interface's push constant block.
func (r *Recorder) PushConstants(iface *pipeline.Interface, offset int, data []byte) error {
	pushConstants := iface.PushConstants()
	if pushConstants.Count == 0 {
		return errors.New("interface has no push constant block")
	}
	if offset+len(data) > pushConstants.Count*4 {
		return errors.Wrapf(gfxutils.ErrLimitExceeded,
			"%d bytes at offset %d overflow a %d-word push constant block",
			len(data), offset, pushConstants.Count)
	}

	r.commandBuffer.CmdPushConstants(iface.Vulkan(), pushConstants.ShaderStages, offset, data)
	return nil
}
