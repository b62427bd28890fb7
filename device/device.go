package device

import (
	"github.com/cockroachdb/errors"
	"github.com/dolthub/swiss"
	"github.com/vkngwrapper/core/v2/common"
	"github.com/vkngwrapper/core/v2/core1_0"
	"github.com/vkngwrapper/core/v2/driver"
	"github.com/vkngwrapper/easel/barrier"
	"github.com/vkngwrapper/easel/gfxutils"
	"github.com/vkngwrapper/easel/internal/utils"
	"github.com/vkngwrapper/easel/internal/vulkan"
	"golang.org/x/exp/slog"
)

// Device wraps a core1_0.Device together with the read-only data the translation
// layer consumes from it: the enabled feature set, the device limits, and the
// queues with their command types. It owns one command pool per queue family,
// created lazily.
type Device struct {
	useMutex bool
	logger   *slog.Logger

	instance            core1_0.Instance
	physicalDevice      core1_0.PhysicalDevice
	device              core1_0.Device
	allocationCallbacks *driver.AllocationCallbacks

	createFlags   CreateFlags
	properties    *core1_0.PhysicalDeviceProperties
	extensionData *vulkan.ExtensionData
	features      barrier.Features

	queues []*Queue

	poolsMutex   utils.OptionalMutex
	commandPools *swiss.Map[int, *commandPool]
}

func (d *Device) Logger() *slog.Logger { return d.logger }

// Vulkan exposes the wrapped core1_0.Device for operations the wrapper does not
// cover.
func (d *Device) Vulkan() core1_0.Device { return d.device }

func (d *Device) Instance() core1_0.Instance { return d.instance }

func (d *Device) PhysicalDevice() core1_0.PhysicalDevice { return d.physicalDevice }

func (d *Device) AllocationCallbacks() *driver.AllocationCallbacks { return d.allocationCallbacks }

// Features is the feature slice consumed by barrier translation and pipeline
// creation. Read-only.
func (d *Device) Features() barrier.Features { return d.features }

func (d *Device) UseMutex() bool { return d.useMutex }

func (d *Device) ExtensionData() *vulkan.ExtensionData { return d.extensionData }

// MaxPushConstantsSize is the device-reported push constant capacity in bytes.
func (d *Device) MaxPushConstantsSize() int {
	return d.properties.Limits.MaxPushConstantsSize
}

// MaxBoundDescriptorSets is the device-reported limit on simultaneously bound
// descriptor sets.
func (d *Device) MaxBoundDescriptorSets() int {
	return d.properties.Limits.MaxBoundDescriptorSets
}

// TimestampPeriod is the number of nanoseconds per timestamp tick.
func (d *Device) TimestampPeriod() float32 {
	return d.properties.Limits.TimestampPeriod
}

// Queues returns every wrapped queue, in the order they were declared.
func (d *Device) Queues() []*Queue { return d.queues }

// Queue returns the first wrapped queue accepting the given command type, or an
// error if none was declared.
func (d *Device) Queue(commandType gfxutils.CommandType) (*Queue, error) {
	for _, queue := range d.queues {
		if queue.commandType == commandType {
			return queue, nil
		}
	}

	return nil, errors.Newf("no queue was declared for %s", commandType)
}

// WaitIdle blocks until the underlying device completes all outstanding work.
func (d *Device) WaitIdle() (common.VkResult, error) {
	return d.device.WaitIdle()
}

// CreateFence creates a fence, signaled or not.
func (d *Device) CreateFence(signaled bool) (core1_0.Fence, common.VkResult, error) {
	var flags core1_0.FenceCreateFlags
	if signaled {
		flags |= core1_0.FenceCreateSignaled
	}

	return d.device.CreateFence(d.allocationCallbacks, core1_0.FenceCreateInfo{
		Flags: flags,
	})
}

// CreateSemaphore creates a binary semaphore.
func (d *Device) CreateSemaphore() (core1_0.Semaphore, common.VkResult, error) {
	return d.device.CreateSemaphore(d.allocationCallbacks, core1_0.SemaphoreCreateInfo{})
}

// Destroy tears down the objects the wrapper owns (command pools). The wrapped
// device itself belongs to the consumer and is not destroyed.
func (d *Device) Destroy() error {
	d.poolsMutex.Lock()
	defer d.poolsMutex.Unlock()

	var firstErr error
	d.commandPools.Iter(func(familyIndex int, pool *commandPool) bool {
		err := pool.destroy()
		if err != nil && firstErr == nil {
			firstErr = errors.Wrapf(err, "failed to destroy the command pool for queue family %d", familyIndex)
		}
		return false
	})
	d.commandPools = swiss.NewMap[int, *commandPool](8)

	return firstErr
}
