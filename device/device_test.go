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

func TestNewRequiresQueues(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	instance, physicalDevice, vulkanDevice := mocks.MockRig1_0(ctrl, common.Vulkan1_0, []string{}, []string{})

	_, err := New(
		slog.New(slog.NewTextHandler(os.Stdout)),
		instance, physicalDevice, vulkanDevice, CreateOptions{})
	require.Error(t, err)
}

func TestQueueLookupByCommandType(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	_, _, queues, dev := readyDevice(t, ctrl, []string{}, CreateOptions{
		Queues: []QueueOptions{
			{FamilyIndex: 0, QueueIndex: 0, CommandType: gfxutils.CommandTypeGraphics},
			{FamilyIndex: 1, QueueIndex: 0, CommandType: gfxutils.CommandTypeCompute},
		},
	})
	require.Len(t, dev.Queues(), 2)

	compute, err := dev.Queue(gfxutils.CommandTypeCompute)
	require.NoError(t, err)
	require.Equal(t, queues[1], compute.Vulkan())
	require.Equal(t, 1, compute.FamilyIndex())
	require.Equal(t, gfxutils.CommandTypeCompute, compute.CommandType())

	_, err = dev.Queue(gfxutils.CommandTypeTransfer)
	require.ErrorContains(t, err, "no queue was declared for CommandTypeTransfer")
}

func TestFeaturesFromOptionsAndExtensions(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	_, _, _, dev := readyDevice(t, ctrl,
		[]string{"VK_EXT_transform_feedback"},
		CreateOptions{
			EnabledFeatures: core1_0.PhysicalDeviceFeatures{
				GeometryShader:     true,
				TessellationShader: true,
			},
			Queues: graphicsQueueOnly().Queues,
		})

	features := dev.Features()
	require.True(t, features.GeometryShader)
	require.True(t, features.TessellationShader)
	require.True(t, features.TransformFeedback)
	require.False(t, features.ConditionalRendering)
	require.False(t, features.FragmentShadingRate)
}

func TestDeviceLimits(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	_, _, _, dev := readyDevice(t, ctrl, []string{}, graphicsQueueOnly())

	require.Equal(t, 128, dev.MaxPushConstantsSize())
	require.Equal(t, 4, dev.MaxBoundDescriptorSets())
	require.Equal(t, float32(1), dev.TimestampPeriod())
}

func TestExternallySynchronizedSkipsMutexes(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	_, _, _, dev := readyDevice(t, ctrl, []string{}, CreateOptions{
		Flags:  DeviceCreateExternallySynchronized,
		Queues: graphicsQueueOnly().Queues,
	})
	require.False(t, dev.UseMutex())

	_, _, _, synchronized := readyDevice(t, ctrl, []string{}, graphicsQueueOnly())
	require.True(t, synchronized.UseMutex())
}

func TestCreateFence(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	_, vulkanDevice, _, dev := readyDevice(t, ctrl, []string{}, graphicsQueueOnly())

	signaled := mocks.NewMockFence(ctrl)
	vulkanDevice.EXPECT().CreateFence(gomock.Any(), core1_0.FenceCreateInfo{
		Flags: core1_0.FenceCreateSignaled,
	}).Return(signaled, core1_0.VKSuccess, nil)

	fence, _, err := dev.CreateFence(true)
	require.NoError(t, err)
	require.Equal(t, signaled, fence)

	unsignaled := mocks.NewMockFence(ctrl)
	vulkanDevice.EXPECT().CreateFence(gomock.Any(), core1_0.FenceCreateInfo{}).
		Return(unsignaled, core1_0.VKSuccess, nil)

	fence, _, err = dev.CreateFence(false)
	require.NoError(t, err)
	require.Equal(t, unsignaled, fence)
}

func TestDestroyDestroysCommandPools(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	_, vulkanDevice, _, dev := readyDevice(t, ctrl, []string{}, graphicsQueueOnly())
	queue, err := dev.Queue(gfxutils.CommandTypeGraphics)
	require.NoError(t, err)

	pool := mocks.NewMockCommandPool(ctrl)
	vulkanDevice.EXPECT().CreateCommandPool(gomock.Any(), core1_0.CommandPoolCreateInfo{
		Flags:            core1_0.CommandPoolCreateResetBuffer,
		QueueFamilyIndex: 0,
	}).Return(pool, core1_0.VKSuccess, nil)
	commandBuffer := mocks.NewMockCommandBuffer(ctrl)
	vulkanDevice.EXPECT().AllocateCommandBuffers(core1_0.CommandBufferAllocateInfo{
		CommandPool:        pool,
		Level:              core1_0.CommandBufferLevelPrimary,
		CommandBufferCount: 1,
	}).Return([]core1_0.CommandBuffer{commandBuffer}, core1_0.VKSuccess, nil)

	allocated, _, err := queue.AllocateCommandBuffer()
	require.NoError(t, err)
	require.Equal(t, commandBuffer, allocated)

	pool.EXPECT().Destroy(nil)
	require.NoError(t, dev.Destroy())

	// Destroy leaves the device usable; the next allocation recreates the pool.
	recreated := mocks.NewMockCommandPool(ctrl)
	vulkanDevice.EXPECT().CreateCommandPool(gomock.Any(), gomock.Any()).
		Return(recreated, core1_0.VKSuccess, nil)
	vulkanDevice.EXPECT().AllocateCommandBuffers(gomock.Any()).
		Return([]core1_0.CommandBuffer{commandBuffer}, core1_0.VKSuccess, nil)

	_, _, err = queue.AllocateCommandBuffer()
	require.NoError(t, err)

	recreated.EXPECT().Destroy(nil)
	require.NoError(t, dev.Destroy())
}
