package frame

import (
	"time"

	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/core/v2/common"
	"github.com/vkngwrapper/core/v2/core1_0"
	"github.com/vkngwrapper/easel/command"
	"github.com/vkngwrapper/easel/device"
	"github.com/vkngwrapper/easel/gfxutils"
	"github.com/vkngwrapper/extensions/v2/khr_swapchain"
	"golang.org/x/exp/slog"
)

// SlotState names a frame slot's position in its lifecycle.
type SlotState int

const (
	// SlotIdle means the slot has no frame in flight and can be acquired
	SlotIdle SlotState = iota
	// SlotAcquired means the slot holds an acquired image and is waiting for
	// recording to begin
	SlotAcquired
	// SlotRecording means the slot's command buffer is open
	SlotRecording
	// SlotSubmitted means the slot's work is on the queue and can be presented
	SlotSubmitted
)

var slotStateMapping = make(map[SlotState]string)

func (s SlotState) String() string {
	return slotStateMapping[s]
}

func init() {
	slotStateMapping[SlotIdle] = "SlotIdle"
	slotStateMapping[SlotAcquired] = "SlotAcquired"
	slotStateMapping[SlotRecording] = "SlotRecording"
	slotStateMapping[SlotSubmitted] = "SlotSubmitted"
}

// Slot is one in-flight frame: a command recorder, the semaphores tying it to the
// swapchain, and the fence that reports its completion. Slots cycle strictly
// through Idle, Acquired, Recording, Submitted and back to Idle; out-of-order
// operations fail with gfxutils.ErrInvalidSlotState.
type Slot struct {
	loop     *Loop
	recorder *command.Recorder

	imageAvailable core1_0.Semaphore
	renderComplete core1_0.Semaphore
	fence          core1_0.Fence

	state      SlotState
	imageIndex int
}

func (s *Slot) requireState(expected SlotState, op string) error {
	if s.state != expected {
		return errors.Wrapf(gfxutils.ErrInvalidSlotState,
			"%s requires %s but the slot is %s", op, expected, s.state)
	}
	return nil
}

// State reports the slot's current lifecycle position.
func (s *Slot) State() SlotState { return s.state }

// ImageIndex is the swapchain image acquired for this frame. Only meaningful
// outside Idle on a loop with a swapchain.
func (s *Slot) ImageIndex() int { return s.imageIndex }

// LoopOptions configures frame loop creation.
type LoopOptions struct {
	// FrameCount is the number of frames that may be in flight at once.
	// Defaults to 2.
	FrameCount int
	// Swapchain ties the loop to a presentable surface. nil makes a headless
	// loop: Acquire only waits for the slot's previous work and Present is
	// invalid.
	Swapchain *Swapchain
}

// Loop owns a ring of frame slots over one queue.
type Loop struct {
	device *device.Device
	queue  *device.Queue
	logger *slog.Logger

	swapchain *Swapchain
	slots     []*Slot
	current   int

	stats gfxutils.FrameStatistics
}

// NewLoop creates the slot ring with its recorders, semaphores, and fences. The
// fences start signaled so the first Acquire of each slot does not block.
func NewLoop(queue *device.Queue, options LoopOptions) (*Loop, common.VkResult, error) {
	frameCount := options.FrameCount
	if frameCount == 0 {
		frameCount = 2
	}
	if frameCount < 1 {
		return nil, core1_0.VKErrorUnknown, errors.Newf("invalid frame count %d", options.FrameCount)
	}

	dev := queue.Device()
	loop := &Loop{
		device:    dev,
		queue:     queue,
		logger:    dev.Logger(),
		swapchain: options.Swapchain,
	}

	for i := 0; i < frameCount; i++ {
		recorder, res, err := command.NewRecorder(queue)
		if err != nil {
			loop.Destroy()
			return nil, res, err
		}

		fence, res, err := dev.CreateFence(true)
		if err != nil {
			recorder.Free()
			loop.Destroy()
			return nil, res, err
		}

		slot := &Slot{
			loop:     loop,
			recorder: recorder,
			fence:    fence,
		}

		if options.Swapchain != nil {
			slot.imageAvailable, res, err = dev.CreateSemaphore()
			if err == nil {
				slot.renderComplete, res, err = dev.CreateSemaphore()
			}
			if err != nil {
				slot.destroy()
				loop.Destroy()
				return nil, res, err
			}
		}

		loop.slots = append(loop.slots, slot)
	}

	return loop, core1_0.VKSuccess, nil
}

// Statistics returns the frame counts accumulated so far.
func (l *Loop) Statistics() gfxutils.FrameStatistics { return l.stats }

func (l *Loop) Swapchain() *Swapchain { return l.swapchain }

// Acquire waits for the next slot's previous frame to complete, then (on a
// swapchain loop) acquires the image this frame renders to. An out-of-date
// swapchain is rebuilt and the acquire retried once.
func (l *Loop) Acquire(timeout time.Duration) (*Slot, common.VkResult, error) {
	slot := l.slots[l.current]
	if err := slot.requireState(SlotIdle, "Acquire"); err != nil {
		return nil, core1_0.VKErrorUnknown, err
	}

	res, err := slot.fence.Wait(timeout)
	if err != nil {
		return nil, res, err
	}
	_, err = slot.fence.Reset()
	if err != nil {
		return nil, core1_0.VKErrorUnknown, err
	}

	if l.swapchain != nil {
		imageIndex, res, err := l.swapchain.Vulkan().AcquireNextImage(timeout, slot.imageAvailable, nil)
		if res == khr_swapchain.VKErrorOutOfDate {
			res, err = l.swapchain.Rebuild()
			if err != nil {
				return nil, res, err
			}
			l.stats.SwapchainRebuilds++

			imageIndex, res, err = l.swapchain.Vulkan().AcquireNextImage(timeout, slot.imageAvailable, nil)
			if err != nil {
				return nil, res, err
			}
		} else if err != nil {
			return nil, res, err
		}
		slot.imageIndex = imageIndex
	}

	l.current = (l.current + 1) % len(l.slots)
	slot.state = SlotAcquired
	l.stats.FramesAcquired++

	l.logger.Debug("Loop::Acquire",
		slog.Int("ImageIndex", slot.imageIndex),
	)

	return slot, res, nil
}

// Begin opens the slot's command buffer for recording and returns its recorder.
// The recorder is only valid until Submit.
func (s *Slot) Begin() (*command.Recorder, common.VkResult, error) {
	if err := s.requireState(SlotAcquired, "Begin"); err != nil {
		return nil, core1_0.VKErrorUnknown, err
	}

	res, err := s.recorder.Reset()
	if err != nil {
		return nil, res, err
	}
	res, err = s.recorder.Begin()
	if err != nil {
		return nil, res, err
	}

	s.state = SlotRecording
	return s.recorder, res, nil
}

// Submit closes the command buffer and submits it with the slot's fence. On a
// swapchain loop the submission waits on the acquired image and signals
// render completion for Present.
func (s *Slot) Submit() (common.VkResult, error) {
	if err := s.requireState(SlotRecording, "Submit"); err != nil {
		return core1_0.VKErrorUnknown, err
	}

	res, err := s.recorder.End()
	if err != nil {
		return res, err
	}

	submit := core1_0.SubmitInfo{
		CommandBuffers: []core1_0.CommandBuffer{s.recorder.Vulkan()},
	}
	if s.loop.swapchain != nil {
		submit.WaitSemaphores = []core1_0.Semaphore{s.imageAvailable}
		submit.WaitDstStageMask = []core1_0.PipelineStageFlags{core1_0.PipelineStageColorAttachmentOutput}
		submit.SignalSemaphores = []core1_0.Semaphore{s.renderComplete}
	}

	res, err = s.loop.queue.Submit(s.fence, []core1_0.SubmitInfo{submit})
	if err != nil {
		return res, err
	}

	s.loop.stats.FramesSubmitted++

	if s.loop.swapchain == nil {
		// Nothing to present headlessly; the slot's fence carries completion
		s.state = SlotIdle
		return res, nil
	}

	s.state = SlotSubmitted
	return res, nil
}

// Present hands the slot's image to the presentation engine. Out-of-date and
// suboptimal results rebuild the swapchain. Invalid on headless loops.
func (s *Slot) Present() (common.VkResult, error) {
	if s.loop.swapchain == nil {
		return core1_0.VKErrorUnknown, errors.Wrap(gfxutils.ErrInvalidSlotState,
			"Present on a headless frame loop")
	}
	if err := s.requireState(SlotSubmitted, "Present"); err != nil {
		return core1_0.VKErrorUnknown, err
	}

	swapchain := s.loop.swapchain
	res, err := swapchain.extension.QueuePresent(s.loop.queue.Vulkan(), khr_swapchain.PresentInfo{
		WaitSemaphores: []core1_0.Semaphore{s.renderComplete},
		Swapchains:     []khr_swapchain.Swapchain{swapchain.Vulkan()},
		ImageIndices:   []int{s.imageIndex},
	})
	if res == khr_swapchain.VKErrorOutOfDate || res == khr_swapchain.VKSuboptimal {
		res, err = swapchain.Rebuild()
		if err != nil {
			return res, err
		}
		s.loop.stats.SwapchainRebuilds++
	} else if err != nil {
		return res, err
	}

	s.state = SlotIdle
	s.loop.stats.FramesPresented++
	return res, nil
}

// WaitIdle waits for every slot's fence, leaving all slots Idle.
func (l *Loop) WaitIdle(timeout time.Duration) error {
	for _, slot := range l.slots {
		_, err := slot.fence.Wait(timeout)
		if err != nil {
			return err
		}
	}
	return nil
}

func (s *Slot) destroy() {
	if s.imageAvailable != nil {
		s.imageAvailable.Destroy(s.loop.device.AllocationCallbacks())
	}
	if s.renderComplete != nil {
		s.renderComplete.Destroy(s.loop.device.AllocationCallbacks())
	}
	if s.fence != nil {
		s.fence.Destroy(s.loop.device.AllocationCallbacks())
	}
	if s.recorder != nil {
		s.recorder.Free()
	}
}

// Destroy releases every slot's resources. The caller must drain the queue
// first.
func (l *Loop) Destroy() {
	for _, slot := range l.slots {
		slot.destroy()
	}
	l.slots = nil
}
