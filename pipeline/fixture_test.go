package pipeline

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

// readyDevice builds a device wrapper around a mocked Vulkan device with one
// graphics queue at family 0.
func readyDevice(t *testing.T, ctrl *gomock.Controller, deviceExtensions []string) (*mocks.MockDevice, *device.Device) {
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
		device.CreateOptions{
			Queues: []device.QueueOptions{
				{FamilyIndex: 0, QueueIndex: 0, CommandType: gfxutils.CommandTypeGraphics},
			},
		})
	require.NoError(t, err)

	return vulkanDevice, dev
}
