package frame

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/vkngwrapper/core/v2/core1_0"
	"github.com/vkngwrapper/core/v2/mocks"
	"github.com/vkngwrapper/easel/gfxutils"
	"go.uber.org/mock/gomock"
)

func TestHeadlessFrameLifecycle(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	vulkanDevice, queue, dev := readyDevice(t, ctrl, []string{})
	slots, loop := readyLoop(t, ctrl, vulkanDevice, dev, 2)

	slots[0].fence.EXPECT().Wait(time.Second).Return(core1_0.VKSuccess, nil)
	slots[0].fence.EXPECT().Reset().Return(core1_0.VKSuccess, nil)

	slot, _, err := loop.Acquire(time.Second)
	require.NoError(t, err)
	require.Equal(t, SlotAcquired, slot.State())

	slots[0].commandBuffer.EXPECT().Reset(core1_0.CommandBufferResetFlags(0)).
		Return(core1_0.VKSuccess, nil)
	slots[0].commandBuffer.EXPECT().Begin(core1_0.CommandBufferBeginInfo{
		Flags: core1_0.CommandBufferUsageOneTimeSubmit,
	}).Return(core1_0.VKSuccess, nil)

	recorder, _, err := slot.Begin()
	require.NoError(t, err)
	require.Equal(t, slots[0].commandBuffer, recorder.Vulkan())
	require.Equal(t, SlotRecording, slot.State())

	slots[0].commandBuffer.EXPECT().End().Return(core1_0.VKSuccess, nil)
	queue.EXPECT().Submit(slots[0].fence, []core1_0.SubmitInfo{
		{CommandBuffers: []core1_0.CommandBuffer{slots[0].commandBuffer}},
	}).Return(core1_0.VKSuccess, nil)

	_, err = slot.Submit()
	require.NoError(t, err)

	// Headless loops have nothing to present; the slot is immediately reusable.
	require.Equal(t, SlotIdle, slot.State())
	_, err = slot.Present()
	require.ErrorIs(t, err, gfxutils.ErrInvalidSlotState)

	// The next acquire lands on the second slot.
	slots[1].fence.EXPECT().Wait(time.Second).Return(core1_0.VKSuccess, nil)
	slots[1].fence.EXPECT().Reset().Return(core1_0.VKSuccess, nil)

	second, _, err := loop.Acquire(time.Second)
	require.NoError(t, err)
	require.NotSame(t, slot, second)

	stats := loop.Statistics()
	require.Equal(t, 2, stats.FramesAcquired)
	require.Equal(t, 1, stats.FramesSubmitted)
	require.Equal(t, 0, stats.FramesPresented)
}

func TestSlotStateEnforcement(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	vulkanDevice, _, dev := readyDevice(t, ctrl, []string{})
	slots, loop := readyLoop(t, ctrl, vulkanDevice, dev, 1)

	slot := loop.slots[0]

	// Idle slots can only be acquired.
	_, _, err := slot.Begin()
	require.ErrorIs(t, err, gfxutils.ErrInvalidSlotState)
	require.ErrorContains(t, err, "Begin requires SlotAcquired but the slot is SlotIdle")
	_, err = slot.Submit()
	require.ErrorIs(t, err, gfxutils.ErrInvalidSlotState)

	slots[0].fence.EXPECT().Wait(time.Second).Return(core1_0.VKSuccess, nil)
	slots[0].fence.EXPECT().Reset().Return(core1_0.VKSuccess, nil)
	_, _, err = loop.Acquire(time.Second)
	require.NoError(t, err)

	// A single-slot ring cannot acquire again until the frame is submitted.
	_, _, err = loop.Acquire(time.Second)
	require.ErrorIs(t, err, gfxutils.ErrInvalidSlotState)
	require.ErrorContains(t, err, "Acquire requires SlotIdle but the slot is SlotAcquired")

	// Submitting without opening the command buffer is rejected too.
	_, err = slot.Submit()
	require.ErrorIs(t, err, gfxutils.ErrInvalidSlotState)
}

func TestNewLoopDefaultsToTwoFrames(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	vulkanDevice, _, dev := readyDevice(t, ctrl, []string{})

	pool := mocks.NewMockCommandPool(ctrl)
	vulkanDevice.EXPECT().CreateCommandPool(gomock.Any(), core1_0.CommandPoolCreateInfo{
		Flags:            core1_0.CommandPoolCreateResetBuffer,
		QueueFamilyIndex: 0,
	}).Return(pool, core1_0.VKSuccess, nil)
	for i := 0; i < 2; i++ {
		commandBuffer := mocks.NewMockCommandBuffer(ctrl)
		vulkanDevice.EXPECT().AllocateCommandBuffers(core1_0.CommandBufferAllocateInfo{
			CommandPool:        pool,
			Level:              core1_0.CommandBufferLevelPrimary,
			CommandBufferCount: 1,
		}).Return([]core1_0.CommandBuffer{commandBuffer}, core1_0.VKSuccess, nil)
		fence := mocks.NewMockFence(ctrl)
		vulkanDevice.EXPECT().CreateFence(gomock.Any(), core1_0.FenceCreateInfo{
			Flags: core1_0.FenceCreateSignaled,
		}).Return(fence, core1_0.VKSuccess, nil)
	}

	queue, err := dev.Queue(gfxutils.CommandTypeGraphics)
	require.NoError(t, err)

	loop, _, err := NewLoop(queue, LoopOptions{})
	require.NoError(t, err)
	require.Len(t, loop.slots, 2)
}

func TestWaitIdleWaitsEverySlot(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	vulkanDevice, _, dev := readyDevice(t, ctrl, []string{})
	slots, loop := readyLoop(t, ctrl, vulkanDevice, dev, 3)

	for _, slot := range slots {
		slot.fence.EXPECT().Wait(time.Minute).Return(core1_0.VKSuccess, nil)
	}
	require.NoError(t, loop.WaitIdle(time.Minute))
}

func TestLoopDestroyReleasesSlots(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	vulkanDevice, _, dev := readyDevice(t, ctrl, []string{})
	slots, loop := readyLoop(t, ctrl, vulkanDevice, dev, 2)

	for _, slot := range slots {
		slot.fence.EXPECT().Destroy(nil)
		vulkanDevice.EXPECT().FreeCommandBuffers([]core1_0.CommandBuffer{slot.commandBuffer})
	}
	loop.Destroy()
	require.Empty(t, loop.slots)
}
