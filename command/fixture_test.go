package command

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

// readyDevice builds a device wrapper around a mocked Vulkan device with the
// requested queues.
func readyDevice(t *testing.T, ctrl *gomock.Controller, deviceExtensions []string, queues []device.QueueOptions) (*mocks.MockDevice, *device.Device) {
	instance, physicalDevice, vulkanDevice := mocks.MockRig1_0(ctrl, common.Vulkan1_0, []string{}, deviceExtensions)

	physicalDevice.EXPECT().Properties().Return(&core1_0.PhysicalDeviceProperties{
		Limits: &core1_0.PhysicalDeviceLimits{
			MaxPushConstantsSize:   128,
			MaxBoundDescriptorSets: 4,
			TimestampPeriod:        1,
		},
	}, nil).AnyTimes()

	physicalDevice.EXPECT().MemoryProperties().Return(&core1_0.PhysicalDeviceMemoryProperties{
		MemoryTypes: []core1_0.MemoryType{
			{PropertyFlags: core1_0.MemoryPropertyDeviceLocal, HeapIndex: 0},
			{PropertyFlags: core1_0.MemoryPropertyHostVisible | core1_0.MemoryPropertyHostCoherent, HeapIndex: 1},
		},
	}).AnyTimes()

	for _, queue := range queues {
		vulkanDevice.EXPECT().GetQueue(queue.FamilyIndex, queue.QueueIndex).
			Return(mocks.NewMockQueue(ctrl))
	}

	dev, err := device.New(
		slog.New(slog.NewTextHandler(os.Stdout)),
		instance, physicalDevice, vulkanDevice,
		device.CreateOptions{Queues: queues})
	require.NoError(t, err)

	return vulkanDevice, dev
}

func graphicsQueueOnly() []device.QueueOptions {
	return []device.QueueOptions{
		{FamilyIndex: 0, QueueIndex: 0, CommandType: gfxutils.CommandTypeGraphics},
	}
}

// readyRecorder allocates a recorder on queue, expecting the lazy command pool
// creation that comes with the first allocation in the family.
func readyRecorder(t *testing.T, ctrl *gomock.Controller, vulkanDevice *mocks.MockDevice, queue *device.Queue) (*mocks.MockCommandBuffer, *Recorder) {
	pool := mocks.NewMockCommandPool(ctrl)
	vulkanDevice.EXPECT().CreateCommandPool(gomock.Any(), core1_0.CommandPoolCreateInfo{
		Flags:            core1_0.CommandPoolCreateResetBuffer,
		QueueFamilyIndex: queue.FamilyIndex(),
	}).Return(pool, core1_0.VKSuccess, nil)

	commandBuffer := mocks.NewMockCommandBuffer(ctrl)
	vulkanDevice.EXPECT().AllocateCommandBuffers(core1_0.CommandBufferAllocateInfo{
		CommandPool:        pool,
		Level:              core1_0.CommandBufferLevelPrimary,
		CommandBufferCount: 1,
	}).Return([]core1_0.CommandBuffer{commandBuffer}, core1_0.VKSuccess, nil)

	recorder, _, err := NewRecorder(queue)
	require.NoError(t, err)
	require.Equal(t, commandBuffer, recorder.Vulkan())

	return commandBuffer, recorder
}
