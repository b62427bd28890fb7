package device

import (
	"github.com/cockroachdb/errors"
	"github.com/dolthub/swiss"
	"github.com/vkngwrapper/core/v2/common"
	"github.com/vkngwrapper/core/v2/core1_0"
	"github.com/vkngwrapper/core/v2/driver"
	"github.com/vkngwrapper/easel/barrier"
	"github.com/vkngwrapper/easel/gfxutils"
	"github.com/vkngwrapper/easel/internal/vulkan"
	"golang.org/x/exp/slog"
)

// CreateFlags indicate specific device wrapper behaviors to activate or deactivate
type CreateFlags int32

var deviceCreateFlagsMapping = common.NewFlagStringMapping[CreateFlags]()

func (f CreateFlags) Register(str string) {
	deviceCreateFlagsMapping.Register(f, str)
}
func (f CreateFlags) String() string {
	return deviceCreateFlagsMapping.FlagsToString(f)
}

const (
	// DeviceCreateExternallySynchronized ensures that this device wrapper and all objects
	// created from it will not be synchronized internally. The consumer must guarantee they
	// are used from only one thread at a time or are synchronized by some other mechanism,
	// but performance may improve because internal mutexes are not used.
	DeviceCreateExternallySynchronized CreateFlags = 1 << iota
)

func init() {
	DeviceCreateExternallySynchronized.Register("DeviceCreateExternallySynchronized")
}

// QueueOptions identifies one queue the consumer created on the underlying device and
// the class of work it will receive.
type QueueOptions struct {
	// FamilyIndex is the queue family the queue was created in
	FamilyIndex int
	// QueueIndex is the queue's index within its family
	QueueIndex int
	// CommandType is the class of work recorded against this queue. Barrier
	// translation narrows shader stage masks to match it.
	CommandType gfxutils.CommandType
}

// CreateOptions contains optional settings when creating a device wrapper
type CreateOptions struct {
	// Flags indicates specific device wrapper behaviors to activate or deactivate
	Flags CreateFlags

	// EnabledFeatures must be the feature set the underlying Device was created with.
	// The wrapper cannot query it after the fact, and widening stage masks for
	// features that were not actually enabled is an error on some implementations.
	EnabledFeatures core1_0.PhysicalDeviceFeatures

	// Queues lists the queues to wrap. At least one is required.
	Queues []QueueOptions

	// VulkanCallbacks is an optional set of callbacks that will be executed from Vulkan
	// on objects created through this wrapper
	VulkanCallbacks *driver.AllocationCallbacks
}

// New creates a new Device wrapper
//
// instance - The instance that owns the provided Device
//
// physicalDevice - The PhysicalDevice that owns the provided Device
//
// device - The Device whose queues and pipelines this wrapper will manage
//
// options - EnabledFeatures and Queues should reflect how device was created
func New(logger *slog.Logger, instance core1_0.Instance, physicalDevice core1_0.PhysicalDevice, device core1_0.Device, options CreateOptions) (*Device, error) {
	if len(options.Queues) == 0 {
		return nil, errors.New("device.CreateOptions.Queues must name at least one queue")
	}

	useMutex := options.Flags&DeviceCreateExternallySynchronized == 0

	properties, err := physicalDevice.Properties()
	if err != nil {
		return nil, err
	}

	extensionData := vulkan.NewExtensionData(device, instance)

	wrapper := &Device{
		useMutex:       useMutex,
		logger:         logger,
		instance:       instance,
		physicalDevice: physicalDevice,
		device:         device,

		createFlags:         options.Flags,
		allocationCallbacks: options.VulkanCallbacks,
		properties:          properties,
		extensionData:       extensionData,

		features: barrier.Features{
			GeometryShader:       options.EnabledFeatures.GeometryShader,
			TessellationShader:   options.EnabledFeatures.TessellationShader,
			TransformFeedback:    extensionData.TransformFeedback,
			ConditionalRendering: extensionData.ConditionalRendering,
			FragmentDensityMap:   extensionData.FragmentDensityMap,
			FragmentShadingRate:  extensionData.FragmentShadingRate,
		},

		commandPools: swiss.NewMap[int, *commandPool](8),
	}

	for _, queueOptions := range options.Queues {
		queue := device.GetQueue(queueOptions.FamilyIndex, queueOptions.QueueIndex)
		wrapper.queues = append(wrapper.queues, &Queue{
			device:      wrapper,
			queue:       queue,
			familyIndex: queueOptions.FamilyIndex,
			commandType: queueOptions.CommandType,
		})
		wrapper.queues[len(wrapper.queues)-1].submitMutex.UseMutex = useMutex
	}

	return wrapper, nil
}
