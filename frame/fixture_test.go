package frame

import (
	"os"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vkngwrapper/core/v2/common"
	"github.com/vkngwrapper/core/v2/core1_0"
	"github.com/vkngwrapper/core/v2/mocks"
	"github.com/vkngwrapper/easel/device"
	"github.com/vkngwrapper/easel/gfxutils"
	"go.uber.org/mock/gomock"
	"golang.org/x/exp/slog"
)

// readyDevice builds a device wrapper with a single graphics queue around mocked
// Vulkan objects. The returned queue mock is the one submissions land on.
func readyDevice(t *testing.T, ctrl *gomock.Controller, deviceExtensions []string) (*mocks.MockDevice, *mocks.MockQueue, *device.Device) {
	instance, physicalDevice, vulkanDevice := mocks.MockRig1_0(ctrl, common.Vulkan1_0, []string{}, deviceExtensions)

	physicalDevice.EXPECT().Properties().Return(&core1_0.PhysicalDeviceProperties{
		Limits: &core1_0.PhysicalDeviceLimits{
			MaxPushConstantsSize:   128,
			MaxBoundDescriptorSets: 4,
			TimestampPeriod:        1,
		},
	}, nil).AnyTimes()

	queue := mocks.NewMockQueue(ctrl)
	vulkanDevice.EXPECT().GetQueue(0, 0).Return(queue)

	dev, err := device.New(
		slog.New(slog.NewTextHandler(os.Stdout)),
		instance, physicalDevice, vulkanDevice,
		device.CreateOptions{Queues: []device.QueueOptions{
			{FamilyIndex: 0, QueueIndex: 0, CommandType: gfxutils.CommandTypeGraphics},
		}})
	require.NoError(t, err)

	return vulkanDevice, queue, dev
}

type slotMocks struct {
	commandBuffer *mocks.MockCommandBuffer
	fence         *mocks.MockFence
}

// readyLoop creates a headless loop, expecting the per-slot command buffer and
// fence creation plus the one command pool shared by the queue family.
func readyLoop(t *testing.T, ctrl *gomock.Controller, vulkanDevice *mocks.MockDevice, dev *device.Device, frameCount int) ([]slotMocks, *Loop) {
	pool := mocks.NewMockCommandPool(ctrl)
	vulkanDevice.EXPECT().CreateCommandPool(gomock.Any(), core1_0.CommandPoolCreateInfo{
		Flags:            core1_0.CommandPoolCreateResetBuffer,
		QueueFamilyIndex: 0,
	}).Return(pool, core1_0.VKSuccess, nil)

	slots := make([]slotMocks, frameCount)
	for i := range slots {
		slots[i].commandBuffer = mocks.NewMockCommandBuffer(ctrl)
		vulkanDevice.EXPECT().AllocateCommandBuffers(core1_0.CommandBufferAllocateInfo{
			CommandPool:        pool,
			Level:              core1_0.CommandBufferLevelPrimary,
			CommandBufferCount: 1,
		}).Return([]core1_0.CommandBuffer{slots[i].commandBuffer}, core1_0.VKSuccess, nil)

		slots[i].fence = mocks.NewMockFence(ctrl)
		vulkanDevice.EXPECT().CreateFence(gomock.Any(), core1_0.FenceCreateInfo{
			Flags: core1_0.FenceCreateSignaled,
		}).Return(slots[i].fence, core1_0.VKSuccess, nil)
	}

	queue, err := dev.Queue(gfxutils.CommandTypeGraphics)
	require.NoError(t, err)

	loop, _, err := NewLoop(queue, LoopOptions{FrameCount: frameCount})
	require.NoError(t, err)

	return slots, loop
}
