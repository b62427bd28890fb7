package command

import (
	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/core/v2/common"
	"github.com/vkngwrapper/core/v2/core1_0"
	"github.com/vkngwrapper/easel/barrier"
	"github.com/vkngwrapper/easel/device"
	"github.com/vkngwrapper/easel/gfxutils"
	"github.com/vkngwrapper/extensions/v2/ext_debug_utils"
	"golang.org/x/exp/slog"
)

// Recorder records translated commands into one primary command buffer allocated
// from its queue's family pool. A Recorder is not safe for concurrent use; each
// recording thread owns its own.
type Recorder struct {
	queue         *device.Queue
	commandBuffer core1_0.CommandBuffer
	logger        *slog.Logger

	stats gfxutils.BarrierStatistics

	// attachment formats of the rendering scope currently open on the buffer,
	// nil outside one
	activeFormats *RenderingFormats
}

// RenderingFormats names the attachments bound for a rendering scope, in the
// same shape pipelines declare them at creation.
type RenderingFormats struct {
	ColorFormats       []core1_0.Format
	DepthStencilFormat core1_0.Format
}

// NewRecorder allocates a command buffer from the queue's family pool and wraps
// it.
func NewRecorder(queue *device.Queue) (*Recorder, common.VkResult, error) {
	commandBuffer, res, err := queue.AllocateCommandBuffer()
	if err != nil {
		return nil, res, err
	}

	return &Recorder{
		queue:         queue,
		commandBuffer: commandBuffer,
		logger:        queue.Device().Logger(),
	}, res, nil
}

// Vulkan exposes the underlying command buffer for commands the recorder does
// not cover.
func (r *Recorder) Vulkan() core1_0.CommandBuffer { return r.commandBuffer }

func (r *Recorder) Queue() *device.Queue { return r.queue }

// Statistics returns the barrier counts accumulated since the last ResetStatistics.
func (r *Recorder) Statistics() gfxutils.BarrierStatistics { return r.stats }

func (r *Recorder) ResetStatistics() { r.stats.Clear() }

// Begin starts a one-time-submit recording.
func (r *Recorder) Begin() (common.VkResult, error) {
	return r.commandBuffer.Begin(core1_0.CommandBufferBeginInfo{
		Flags: core1_0.CommandBufferUsageOneTimeSubmit,
	})
}

// End closes the recording.
func (r *Recorder) End() (common.VkResult, error) {
	return r.commandBuffer.End()
}

// Reset recycles the command buffer for a new recording.
func (r *Recorder) Reset() (common.VkResult, error) {
	r.activeFormats = nil
	return r.commandBuffer.Reset(0)
}

// Free returns the command buffer to its pool. The recorder must not be used
// afterward.
func (r *Recorder) Free() error {
	return r.queue.FreeCommandBuffer(r.commandBuffer)
}

// TransitionOption adjusts a single transition.
type TransitionOption func(*transitionConfig)

type transitionConfig struct {
	srcQueue *device.Queue
	dstQueue *device.Queue
}

// WithSourceQueue marks the transition as releasing ownership from q. It must be
// paired with WithDestinationQueue.
func WithSourceQueue(q *device.Queue) TransitionOption {
	return func(c *transitionConfig) { c.srcQueue = q }
}

// WithDestinationQueue marks the transition as acquiring ownership for q. It must
// be paired with WithSourceQueue.
func WithDestinationQueue(q *device.Queue) TransitionOption {
	return func(c *transitionConfig) { c.dstQueue = q }
}

// queueFamilyIgnored becomes VK_QUEUE_FAMILY_IGNORED (~0U) through the
// wrapper's uint32 conversion of barrier queue family indices.
const queueFamilyIgnored = -1

// resolveQueueFamilies validates the queue transfer endpoints and collapses them
// to the family indices the native barrier carries. A transfer between queues of
// the same family is not a transfer at all, so both sides become ignored.
func resolveQueueFamilies(config transitionConfig) (srcFamily, dstFamily int, hasTransfer bool, err error) {
	if (config.srcQueue == nil) != (config.dstQueue == nil) {
		return 0, 0, false, errors.Wrap(gfxutils.ErrQueueTransferEndpoints,
			"a queue ownership transfer names both the releasing and the acquiring queue")
	}

	if config.srcQueue == nil {
		return queueFamilyIgnored, queueFamilyIgnored, false, nil
	}

	srcFamily = config.srcQueue.FamilyIndex()
	dstFamily = config.dstQueue.FamilyIndex()
	if srcFamily == dstFamily {
		return queueFamilyIgnored, queueFamilyIgnored, false, nil
	}

	return srcFamily, dstFamily, true, nil
}

// ImageInfo names an image together with the description data transitions need:
// the format (for aspect classification) and the full mip/layer extents (for
// resolving the Remaining* sentinels).
type ImageInfo struct {
	Image       core1_0.Image
	Format      core1_0.Format
	MipLevels   int
	ArrayLayers int
}

// TransitionImage records a layout transition for a mip/layer range of an image.
// baseMip/baseLayer select the start of the range; mipCount and layerCount may be
// gfxutils.RemainingMipLevels / gfxutils.RemainingArrayLayers to cover the rest
// of the image. A transition between identical states with no queue transfer
// records nothing.
func (r *Recorder) TransitionImage(image ImageInfo, baseMip, mipCount, baseLayer, layerCount int,
	before, after gfxutils.ResourceState, options ...TransitionOption) error {

	var config transitionConfig
	for _, option := range options {
		option(&config)
	}

	srcFamily, dstFamily, hasTransfer, err := resolveQueueFamilies(config)
	if err != nil {
		return err
	}

	if before == after && !hasTransfer {
		r.stats.ElidedTransitions++
		r.logger.Debug("Recorder::TransitionImage: elided",
			slog.String("State", before.String()),
		)
		return nil
	}

	if mipCount == gfxutils.RemainingMipLevels {
		mipCount = image.MipLevels - baseMip
	}
	if layerCount == gfxutils.RemainingArrayLayers {
		layerCount = image.ArrayLayers - baseLayer
	}

	commandType := r.queue.CommandType()
	features := r.queue.Device().Features()

	srcBarrier, err := barrier.ToBarrierSrc(before, commandType, features)
	if err != nil {
		return err
	}
	dstBarrier, err := barrier.ToBarrierDst(after, commandType, features)
	if err != nil {
		return err
	}

	r.logger.Debug("Recorder::TransitionImage",
		slog.String("Before", before.String()),
		slog.String("After", after.String()),
		slog.Bool("QueueTransfer", hasTransfer),
	)

	err = r.commandBuffer.CmdPipelineBarrier(
		srcBarrier.StageMask, dstBarrier.StageMask, 0,
		nil, nil,
		[]core1_0.ImageMemoryBarrier{
			{
				SrcAccessMask:       srcBarrier.AccessMask,
				DstAccessMask:       dstBarrier.AccessMask,
				OldLayout:           srcBarrier.Layout,
				NewLayout:           dstBarrier.Layout,
				SrcQueueFamilyIndex: srcFamily,
				DstQueueFamilyIndex: dstFamily,
				Image:               image.Image,
				SubresourceRange: core1_0.ImageSubresourceRange{
					AspectMask:     barrier.DetermineAspectMask(image.Format),
					BaseMipLevel:   baseMip,
					LevelCount:     mipCount,
					BaseArrayLayer: baseLayer,
					LayerCount:     layerCount,
				},
			},
		})
	if err != nil {
		return err
	}

	r.stats.ImageTransitions++
	if hasTransfer {
		r.stats.QueueTransfers++
	}
	return nil
}

// TransitionBuffer records a memory barrier covering the whole buffer. A
// transition between identical states with no queue transfer records nothing.
func (r *Recorder) TransitionBuffer(buffer core1_0.Buffer, before, after gfxutils.ResourceState,
	options ...TransitionOption) error {

	var config transitionConfig
	for _, option := range options {
		option(&config)
	}

	srcFamily, dstFamily, hasTransfer, err := resolveQueueFamilies(config)
	if err != nil {
		return err
	}

	if before == after && !hasTransfer {
		r.stats.ElidedTransitions++
		r.logger.Debug("Recorder::TransitionBuffer: elided",
			slog.String("State", before.String()),
		)
		return nil
	}

	commandType := r.queue.CommandType()
	features := r.queue.Device().Features()

	srcBarrier, err := barrier.ToBarrierSrc(before, commandType, features)
	if err != nil {
		return err
	}
	dstBarrier, err := barrier.ToBarrierDst(after, commandType, features)
	if err != nil {
		return err
	}

	r.logger.Debug("Recorder::TransitionBuffer",
		slog.String("Before", before.String()),
		slog.String("After", after.String()),
		slog.Bool("QueueTransfer", hasTransfer),
	)

	err = r.commandBuffer.CmdPipelineBarrier(
		srcBarrier.StageMask, dstBarrier.StageMask, 0,
		nil,
		[]core1_0.BufferMemoryBarrier{
			{
				SrcAccessMask:       srcBarrier.AccessMask,
				DstAccessMask:       dstBarrier.AccessMask,
				SrcQueueFamilyIndex: srcFamily,
				DstQueueFamilyIndex: dstFamily,
				Buffer:              buffer,
				Offset:              0,
				Size:                common.WholeSize,
			},
		},
		nil)
	if err != nil {
		return err
	}

	r.stats.BufferTransitions++
	if hasTransfer {
		r.stats.QueueTransfers++
	}
	return nil
}

// CopyBuffer records a buffer-to-buffer copy.
func (r *Recorder) CopyBuffer(src, dst core1_0.Buffer, regions []core1_0.BufferCopy) error {
	return r.commandBuffer.CmdCopyBuffer(src, dst, regions)
}

// CopyBufferToImage records a buffer-to-image copy. The image must already be in
// the CopyDst state.
func (r *Recorder) CopyBufferToImage(src core1_0.Buffer, dst core1_0.Image, layout core1_0.ImageLayout, regions []core1_0.BufferImageCopy) error {
	return r.commandBuffer.CmdCopyBufferToImage(src, dst, layout, regions)
}

// Dispatch records a compute dispatch.
func (r *Recorder) Dispatch(groupCountX, groupCountY, groupCountZ int) error {
	r.commandBuffer.CmdDispatch(groupCountX, groupCountY, groupCountZ)
	return nil
}

// Draw records a non-indexed draw.
func (r *Recorder) Draw(vertexCount, instanceCount, firstVertex, firstInstance int) error {
	r.commandBuffer.CmdDraw(vertexCount, instanceCount, uint32(firstVertex), uint32(firstInstance))
	return nil
}

// DrawIndexed records an indexed draw.
func (r *Recorder) DrawIndexed(indexCount, instanceCount, firstIndex, vertexOffset, firstInstance int) error {
	r.commandBuffer.CmdDrawIndexed(indexCount, instanceCount, uint32(firstIndex), vertexOffset, uint32(firstInstance))
	return nil
}

// BeginLabel opens a debug label region when ext_debug_utils is active and is a
// no-op otherwise.
func (r *Recorder) BeginLabel(name string) error {
	debugUtils := r.queue.Device().ExtensionData().DebugUtils
	if debugUtils == nil {
		return nil
	}
	return debugUtils.CmdBeginDebugUtilsLabel(r.commandBuffer, ext_debug_utils.DebugUtilsLabel{
		LabelName: name,
	})
}

// EndLabel closes the innermost debug label region.
func (r *Recorder) EndLabel() error {
	debugUtils := r.queue.Device().ExtensionData().DebugUtils
	if debugUtils == nil {
		return nil
	}
	debugUtils.CmdEndDebugUtilsLabel(r.commandBuffer)
	return nil
}
