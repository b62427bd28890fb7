package device

import (
	"unsafe"

	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/core/v2/common"
	"github.com/vkngwrapper/core/v2/core1_0"
)

// HostBuffer is a buffer bound to host-visible, host-coherent memory, used for
// uploads and read-backs. Not safe for concurrent use.
type HostBuffer struct {
	device *Device
	buffer core1_0.Buffer
	memory core1_0.DeviceMemory
	size   int
}

// CreateHostBuffer creates a buffer of size bytes backed by host-visible memory.
func (d *Device) CreateHostBuffer(size int, usage core1_0.BufferUsageFlags) (*HostBuffer, common.VkResult, error) {
	buffer, res, err := d.device.CreateBuffer(d.allocationCallbacks, core1_0.BufferCreateInfo{
		Size:        size,
		Usage:       usage,
		SharingMode: core1_0.SharingModeExclusive,
	})
	if err != nil {
		return nil, res, err
	}

	memRequirements := buffer.MemoryRequirements()
	memoryTypeIndex, err := d.findMemoryType(memRequirements.MemoryTypeBits,
		core1_0.MemoryPropertyHostVisible|core1_0.MemoryPropertyHostCoherent)
	if err != nil {
		buffer.Destroy(d.allocationCallbacks)
		return nil, core1_0.VKErrorUnknown, err
	}

	memory, res, err := d.device.AllocateMemory(d.allocationCallbacks, core1_0.MemoryAllocateInfo{
		AllocationSize:  memRequirements.Size,
		MemoryTypeIndex: memoryTypeIndex,
	})
	if err != nil {
		buffer.Destroy(d.allocationCallbacks)
		return nil, res, err
	}

	res, err = buffer.BindBufferMemory(memory, 0)
	if err != nil {
		memory.Free(d.allocationCallbacks)
		buffer.Destroy(d.allocationCallbacks)
		return nil, res, err
	}

	return &HostBuffer{
		device: d,
		buffer: buffer,
		memory: memory,
		size:   size,
	}, res, nil
}

func (d *Device) findMemoryType(typeFilter uint32, properties core1_0.MemoryPropertyFlags) (int, error) {
	memProperties := d.physicalDevice.MemoryProperties()
	for i, memoryType := range memProperties.MemoryTypes {
		typeBit := uint32(1 << i)

		if (typeFilter&typeBit) != 0 && (memoryType.PropertyFlags&properties) == properties {
			return i, nil
		}
	}

	return 0, errors.Newf("no memory type matches filter %x with properties %s", typeFilter, properties)
}

func (b *HostBuffer) Vulkan() core1_0.Buffer { return b.buffer }

func (b *HostBuffer) Size() int { return b.size }

// Write copies data into the buffer through a transient mapping.
func (b *HostBuffer) Write(data []byte) error {
	if len(data) > b.size {
		return errors.Newf("writing %d bytes into a %d-byte buffer", len(data), b.size)
	}

	memoryPtr, _, err := b.memory.Map(0, len(data), 0)
	if err != nil {
		return err
	}
	defer b.memory.Unmap()

	copy(unsafe.Slice((*byte)(memoryPtr), len(data)), data)
	return nil
}

// Read copies the buffer's contents into data through a transient mapping.
func (b *HostBuffer) Read(data []byte) error {
	if len(data) > b.size {
		return errors.Newf("reading %d bytes from a %d-byte buffer", len(data), b.size)
	}

	memoryPtr, _, err := b.memory.Map(0, len(data), 0)
	if err != nil {
		return err
	}
	defer b.memory.Unmap()

	copy(data, unsafe.Slice((*byte)(memoryPtr), len(data)))
	return nil
}

func (b *HostBuffer) Destroy() {
	b.buffer.Destroy(b.device.allocationCallbacks)
	b.memory.Free(b.device.allocationCallbacks)
}
