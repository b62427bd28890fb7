package gfxutils

import (
	"github.com/launchdarkly/go-jsonstream/v3/jwriter"
)

// BarrierStatistics counts the barrier work a recorder has performed
type BarrierStatistics struct {
	// ImageTransitions is the number of image memory barriers recorded
	ImageTransitions int
	// BufferTransitions is the number of buffer memory barriers recorded
	BufferTransitions int
	// ElidedTransitions is the number of transition requests that were skipped
	// because the before and after states matched with no queue transfer
	ElidedTransitions int
	// QueueTransfers is the number of recorded barriers that carried a queue
	// family ownership transfer
	QueueTransfers int
}

func (s *BarrierStatistics) Clear() {
	s.ImageTransitions = 0
	s.BufferTransitions = 0
	s.ElidedTransitions = 0
	s.QueueTransfers = 0
}

func (s *BarrierStatistics) AddStatistics(other *BarrierStatistics) {
	s.ImageTransitions += other.ImageTransitions
	s.BufferTransitions += other.BufferTransitions
	s.ElidedTransitions += other.ElidedTransitions
	s.QueueTransfers += other.QueueTransfers
}

func (s *BarrierStatistics) PrintJSON(writer *jwriter.Writer) {
	obj := writer.Object()
	defer obj.End()

	obj.Name("ImageTransitions").Int(s.ImageTransitions)
	obj.Name("BufferTransitions").Int(s.BufferTransitions)
	obj.Name("ElidedTransitions").Int(s.ElidedTransitions)
	obj.Name("QueueTransfers").Int(s.QueueTransfers)
}

// PipelineStatistics counts pipeline and transient render pass construction
type PipelineStatistics struct {
	GraphicsPipelines int
	ComputePipelines  int
	// TransientRenderPasses is the number of compatibility render passes that were
	// created to satisfy pipeline creation and destroyed immediately afterward
	TransientRenderPasses int
}

func (s *PipelineStatistics) Clear() {
	s.GraphicsPipelines = 0
	s.ComputePipelines = 0
	s.TransientRenderPasses = 0
}

func (s *PipelineStatistics) AddStatistics(other *PipelineStatistics) {
	s.GraphicsPipelines += other.GraphicsPipelines
	s.ComputePipelines += other.ComputePipelines
	s.TransientRenderPasses += other.TransientRenderPasses
}

func (s *PipelineStatistics) PrintJSON(writer *jwriter.Writer) {
	obj := writer.Object()
	defer obj.End()

	obj.Name("GraphicsPipelines").Int(s.GraphicsPipelines)
	obj.Name("ComputePipelines").Int(s.ComputePipelines)
	obj.Name("TransientRenderPasses").Int(s.TransientRenderPasses)
}

// FrameStatistics counts frame slot activity
type FrameStatistics struct {
	FramesAcquired  int
	FramesSubmitted int
	FramesPresented int
	// SwapchainRebuilds is the number of times the swapchain was recreated after
	// an out-of-date or suboptimal result
	SwapchainRebuilds int
}

func (s *FrameStatistics) Clear() {
	s.FramesAcquired = 0
	s.FramesSubmitted = 0
	s.FramesPresented = 0
	s.SwapchainRebuilds = 0
}

func (s *FrameStatistics) AddStatistics(other *FrameStatistics) {
	s.FramesAcquired += other.FramesAcquired
	s.FramesSubmitted += other.FramesSubmitted
	s.FramesPresented += other.FramesPresented
	s.SwapchainRebuilds += other.SwapchainRebuilds
}

func (s *FrameStatistics) PrintJSON(writer *jwriter.Writer) {
	obj := writer.Object()
	defer obj.End()

	obj.Name("FramesAcquired").Int(s.FramesAcquired)
	obj.Name("FramesSubmitted").Int(s.FramesSubmitted)
	obj.Name("FramesPresented").Int(s.FramesPresented)
	obj.Name("SwapchainRebuilds").Int(s.SwapchainRebuilds)
}
