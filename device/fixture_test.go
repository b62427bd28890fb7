package device

import (
	"os"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vkngwrapper/core/v2/common"
	"github.com/vkngwrapper/core/v2/core1_0"
	"github.com/vkngwrapper/core/v2/mocks"
	"github.com/vkngwrapper/easel/gfxutils"
	"go.uber.org/mock/gomock"
	"golang.org/x/exp/slog"
)

// readyDevice wraps a mocked Vulkan device, returning one queue mock per queue
// option in declaration order.
func readyDevice(t *testing.T, ctrl *gomock.Controller, deviceExtensions []string, options CreateOptions) (*mocks.MockPhysicalDevice, *mocks.MockDevice, []*mocks.MockQueue, *Device) {
	instance, physicalDevice, vulkanDevice := mocks.MockRig1_0(ctrl, common.Vulkan1_0, []string{}, deviceExtensions)

	physicalDevice.EXPECT().Properties().Return(&core1_0.PhysicalDeviceProperties{
		Limits: &core1_0.PhysicalDeviceLimits{
			MaxPushConstantsSize:   128,
			MaxBoundDescriptorSets: 4,
			TimestampPeriod:        1,
		},
	}, nil).AnyTimes()

	var queues []*mocks.MockQueue
	for _, queueOptions := range options.Queues {
		queue := mocks.NewMockQueue(ctrl)
		vulkanDevice.EXPECT().GetQueue(queueOptions.FamilyIndex, queueOptions.QueueIndex).
			Return(queue)
		queues = append(queues, queue)
	}

	dev, err := New(
		slog.New(slog.NewTextHandler(os.Stdout)),
		instance, physicalDevice, vulkanDevice, options)
	require.NoError(t, err)

	return physicalDevice, vulkanDevice, queues, dev
}

func graphicsQueueOnly() CreateOptions {
	return CreateOptions{
		Queues: []QueueOptions{
			{FamilyIndex: 0, QueueIndex: 0, CommandType: gfxutils.CommandTypeGraphics},
		},
	}
}

// expectHostVisibleMemory registers the memory type table buffer tests allocate
// from: device-local at index 0, host-visible and coherent at index 1.
func expectHostVisibleMemory(physicalDevice *mocks.MockPhysicalDevice) {
	physicalDevice.EXPECT().MemoryProperties().Return(&core1_0.PhysicalDeviceMemoryProperties{
		MemoryTypes: []core1_0.MemoryType{
			{PropertyFlags: core1_0.MemoryPropertyDeviceLocal, HeapIndex: 0},
			{PropertyFlags: core1_0.MemoryPropertyHostVisible | core1_0.MemoryPropertyHostCoherent, HeapIndex: 1},
		},
	})
}
