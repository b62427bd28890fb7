package pipeline

import (
	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/core/v2/common"
	"github.com/vkngwrapper/core/v2/core1_0"
	"github.com/vkngwrapper/easel/device"
	"github.com/vkngwrapper/easel/gfxutils"
)

// DescriptorBinding declares one binding within a set layout.
type DescriptorBinding struct {
	// Binding is the binding number within the set
	Binding int
	// Type is the descriptor type bound at this number
	Type core1_0.DescriptorType
	// Count is the array size at this binding. Zero is treated as one.
	Count int
	// ShaderStages are the stages allowed to access the binding
	ShaderStages core1_0.ShaderStageFlags
}

// SetLayoutOptions contains the bindings for a descriptor set layout
type SetLayoutOptions struct {
	Bindings []DescriptorBinding
}

// SetLayout wraps a core1_0.DescriptorSetLayout together with the binding list it
// was created from. The binding list is retained so that descriptor writes and
// pipeline interfaces can be validated against it.
type SetLayout struct {
	device   *device.Device
	layout   core1_0.DescriptorSetLayout
	bindings []DescriptorBinding
}

// NewSetLayout validates the binding list and creates the native set layout.
// Duplicate binding numbers fail with gfxutils.ErrNonUniqueBinding.
func NewSetLayout(dev *device.Device, options SetLayoutOptions) (*SetLayout, common.VkResult, error) {
	for i := 0; i < len(options.Bindings); i++ {
		for j := i + 1; j < len(options.Bindings); j++ {
			if options.Bindings[i].Binding == options.Bindings[j].Binding {
				return nil, core1_0.VKErrorUnknown, errors.Wrapf(gfxutils.ErrNonUniqueBinding,
					"binding number %d is declared more than once", options.Bindings[i].Binding)
			}
		}
	}

	layoutBindings := make([]core1_0.DescriptorSetLayoutBinding, 0, len(options.Bindings))
	for _, binding := range options.Bindings {
		count := binding.Count
		if count == 0 {
			count = 1
		}

		stages := binding.ShaderStages
		if stages == 0 {
			stages = core1_0.StageAll
		}

		layoutBindings = append(layoutBindings, core1_0.DescriptorSetLayoutBinding{
			Binding:         binding.Binding,
			DescriptorType:  binding.Type,
			DescriptorCount: count,
			StageFlags:      stages,
		})
	}

	layout, res, err := dev.Vulkan().CreateDescriptorSetLayout(dev.AllocationCallbacks(), core1_0.DescriptorSetLayoutCreateInfo{
		Bindings: layoutBindings,
	})
	if err != nil {
		return nil, res, err
	}

	return &SetLayout{
		device:   dev,
		layout:   layout,
		bindings: options.Bindings,
	}, res, nil
}

func (l *SetLayout) Vulkan() core1_0.DescriptorSetLayout { return l.layout }

// Bindings returns the binding list the layout was created from. Callers must not
// mutate it.
func (l *SetLayout) Bindings() []DescriptorBinding { return l.bindings }

// HasBinding reports whether the layout declares the given binding number.
func (l *SetLayout) HasBinding(binding int) bool {
	for _, b := range l.bindings {
		if b.Binding == binding {
			return true
		}
	}
	return false
}

func (l *SetLayout) Destroy() {
	l.layout.Destroy(l.device.AllocationCallbacks())
}
