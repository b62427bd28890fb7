package pipeline

import (
	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/core/v2/common"
	"github.com/vkngwrapper/core/v2/core1_0"
	"github.com/vkngwrapper/easel/device"
	"github.com/vkngwrapper/easel/gfxutils"
	"github.com/vkngwrapper/easel/internal/utils"
)

const (
	// maxSetsPerPool bounds the number of descriptor sets one pool hands out
	maxSetsPerPool = 1024
)

// PoolOptions declares descriptor capacity by type. Zero-valued types are omitted
// from the native pool.
type PoolOptions struct {
	Sampler              int
	CombinedImageSampler int
	SampledImage         int
	StorageImage         int
	UniformTexelBuffer   int
	StorageTexelBuffer   int
	UniformBuffer        int
	StorageBuffer        int
	UniformBufferDynamic int
	StorageBufferDynamic int
	InputAttachment      int
}

// Pool wraps a core1_0.DescriptorPool. Set allocation is serialized with a mutex
// unless the device is externally synchronized.
type Pool struct {
	device *device.Device
	pool   core1_0.DescriptorPool

	allocMutex utils.OptionalMutex
}

// NewPool creates a descriptor pool sized by options.
func NewPool(dev *device.Device, options PoolOptions) (*Pool, common.VkResult, error) {
	var poolSizes []core1_0.DescriptorPoolSize

	addSize := func(descriptorType core1_0.DescriptorType, count int) {
		if count > 0 {
			poolSizes = append(poolSizes, core1_0.DescriptorPoolSize{
				Type:            descriptorType,
				DescriptorCount: count,
			})
		}
	}

	addSize(core1_0.DescriptorTypeSampler, options.Sampler)
	addSize(core1_0.DescriptorTypeCombinedImageSampler, options.CombinedImageSampler)
	addSize(core1_0.DescriptorTypeSampledImage, options.SampledImage)
	addSize(core1_0.DescriptorTypeStorageImage, options.StorageImage)
	addSize(core1_0.DescriptorTypeUniformTexelBuffer, options.UniformTexelBuffer)
	addSize(core1_0.DescriptorTypeStorageTexelBuffer, options.StorageTexelBuffer)
	addSize(core1_0.DescriptorTypeUniformBuffer, options.UniformBuffer)
	addSize(core1_0.DescriptorTypeStorageBuffer, options.StorageBuffer)
	addSize(core1_0.DescriptorTypeUniformBufferDynamic, options.UniformBufferDynamic)
	addSize(core1_0.DescriptorTypeStorageBufferDynamic, options.StorageBufferDynamic)
	addSize(core1_0.DescriptorTypeInputAttachment, options.InputAttachment)

	if len(poolSizes) == 0 {
		return nil, core1_0.VKErrorUnknown, errors.New("pipeline.PoolOptions must declare capacity for at least one descriptor type")
	}

	vkPool, res, err := dev.Vulkan().CreateDescriptorPool(dev.AllocationCallbacks(), core1_0.DescriptorPoolCreateInfo{
		Flags:     core1_0.DescriptorPoolCreateFreeDescriptorSet,
		MaxSets:   maxSetsPerPool,
		PoolSizes: poolSizes,
	})
	if err != nil {
		return nil, res, err
	}

	pool := &Pool{
		device: dev,
		pool:   vkPool,
	}
	pool.allocMutex.UseMutex = dev.UseMutex()

	return pool, res, nil
}

func (p *Pool) Vulkan() core1_0.DescriptorPool { return p.pool }

// AllocateSet allocates one descriptor set against the provided layout.
func (p *Pool) AllocateSet(layout *SetLayout) (*Set, common.VkResult, error) {
	p.allocMutex.Lock()
	defer p.allocMutex.Unlock()

	sets, res, err := p.device.Vulkan().AllocateDescriptorSets(core1_0.DescriptorSetAllocateInfo{
		DescriptorPool: p.pool,
		SetLayouts:     []core1_0.DescriptorSetLayout{layout.Vulkan()},
	})
	if err != nil {
		return nil, res, err
	}

	return &Set{
		device: p.device,
		pool:   p,
		set:    sets[0],
		layout: layout,
	}, res, nil
}

// FreeSet returns a set to the pool.
func (p *Pool) FreeSet(set *Set) (common.VkResult, error) {
	p.allocMutex.Lock()
	defer p.allocMutex.Unlock()

	return p.device.Vulkan().FreeDescriptorSets([]core1_0.DescriptorSet{set.set})
}

func (p *Pool) Destroy() {
	p.pool.Destroy(p.device.AllocationCallbacks())
}

// Set is one allocated descriptor set and the layout it was allocated against.
type Set struct {
	device *device.Device
	pool   *Pool
	set    core1_0.DescriptorSet
	layout *SetLayout
}

func (s *Set) Vulkan() core1_0.DescriptorSet { return s.set }

func (s *Set) Layout() *SetLayout { return s.layout }

// BufferWrite describes one buffer descriptor update.
type BufferWrite struct {
	// Binding is the binding number to write. It must exist in the set's layout.
	Binding int
	// Type must match the type the layout declares at Binding
	Type core1_0.DescriptorType
	// Buffer is the buffer to bind
	Buffer core1_0.Buffer
	// Offset is the byte offset the binding starts at
	Offset int
	// Range is the number of bytes visible through the binding, or
	// gfxutils.WholeSize
	Range int
}

// WriteBuffers updates buffer descriptors in the set. Writes naming bindings that
// are not in the layout fail with gfxutils.ErrBindingNotInSet before any update is
// issued.
func (s *Set) WriteBuffers(writes []BufferWrite) error {
	descriptorWrites := make([]core1_0.WriteDescriptorSet, 0, len(writes))
	for _, write := range writes {
		if !s.layout.HasBinding(write.Binding) {
			return errors.Wrapf(gfxutils.ErrBindingNotInSet,
				"write targets binding %d", write.Binding)
		}

		bufferRange := write.Range
		if bufferRange == gfxutils.WholeSize {
			bufferRange = common.WholeSize
		}

		descriptorWrites = append(descriptorWrites, core1_0.WriteDescriptorSet{
			DstSet:          s.set,
			DstBinding:      write.Binding,
			DstArrayElement: 0,
			DescriptorType:  write.Type,
			BufferInfo: []core1_0.DescriptorBufferInfo{
				{
					Buffer: write.Buffer,
					Offset: write.Offset,
					Range:  bufferRange,
				},
			},
		})
	}

	return s.device.Vulkan().UpdateDescriptorSets(descriptorWrites, nil)
}
