package pipeline

import (
	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/core/v2/common"
	"github.com/vkngwrapper/core/v2/core1_0"
	"github.com/vkngwrapper/easel/device"
	"github.com/vkngwrapper/easel/gfxutils"
	"golang.org/x/exp/slices"
)

// SetDeclaration binds a set number to the layout that describes it.
type SetDeclaration struct {
	// Set is the descriptor set number shaders use to reference this layout
	Set int
	// Layout describes the bindings in the set
	Layout *SetLayout
}

// PushConstants declares the pipeline's push constant block. A zero Count means
// the pipeline has no push constants.
type PushConstants struct {
	// Count is the size of the block in 32-bit words
	Count int
	// Binding is the register the block aliases for shader toolchains that map
	// push constants onto a binding slot
	Binding int
	// Set is the set the aliased register lives in
	Set int
	// ShaderStages is the set of stages that read the block. Defaults to
	// core1_0.StageAll
	ShaderStages core1_0.ShaderStageFlags
}

// InterfaceOptions describes the full shader interface of a pipeline: its
// descriptor set layouts and push constant block.
type InterfaceOptions struct {
	Sets          []SetDeclaration
	PushConstants PushConstants
}

// Interface owns a core1_0.PipelineLayout together with the set numbering it was
// created with. Set numbers must be unique and must start at 0 and be
// consecutive, matching how the layouts are handed to Vulkan by array index.
type Interface struct {
	device *device.Device
	layout core1_0.PipelineLayout

	sets            []SetDeclaration
	pushConstants   PushConstants
	consecutiveSets bool
}

// Validate checks the device-independent invariants of the options. NewInterface
// reports the same problems as returned errors in every build, along with the
// device-limit checks Validate cannot perform.
func (o *InterfaceOptions) Validate() error {
	seen := make(map[int]struct{}, len(o.Sets))
	for _, set := range o.Sets {
		if set.Layout == nil {
			return errors.Newf("set %d has a nil layout", set.Set)
		}
		if _, ok := seen[set.Set]; ok {
			return errors.Wrapf(gfxutils.ErrNonUniqueSet,
				"set number %d is declared more than once", set.Set)
		}
		seen[set.Set] = struct{}{}
	}

	if o.PushConstants.Count < 0 {
		return errors.Newf("push constant block has a negative word count %d", o.PushConstants.Count)
	}

	return nil
}

// NewInterface validates options and creates the pipeline layout.
func NewInterface(dev *device.Device, options InterfaceOptions) (*Interface, common.VkResult, error) {
	gfxutils.DebugValidate(&options)

	setCount := len(options.Sets)
	if setCount > dev.MaxBoundDescriptorSets() {
		return nil, core1_0.VKErrorUnknown, errors.Wrapf(gfxutils.ErrLimitExceeded,
			"interface declares %d sets but the device supports at most %d bound sets",
			setCount, dev.MaxBoundDescriptorSets())
	}

	setNumbers := make([]int, 0, setCount)
	for _, set := range options.Sets {
		if set.Layout == nil {
			return nil, core1_0.VKErrorUnknown, errors.Newf("set %d has a nil layout", set.Set)
		}
		setNumbers = append(setNumbers, set.Set)
	}
	slices.Sort(setNumbers)

	for i := 1; i < len(setNumbers); i++ {
		if setNumbers[i] == setNumbers[i-1] {
			return nil, core1_0.VKErrorUnknown, errors.Wrapf(gfxutils.ErrNonUniqueSet,
				"set number %d is declared more than once", setNumbers[i])
		}
	}

	// Non-consecutive set numbers are legal but force descriptor sets to be
	// bound one at a time instead of as a single range.
	consecutive := true
	for i, setNumber := range setNumbers {
		if setNumber != i {
			consecutive = false
			break
		}
	}

	pushConstants := options.PushConstants
	if pushConstants.Count > 0 {
		maxCount := gfxutils.DwordCount(dev.MaxPushConstantsSize())
		if pushConstants.Count > maxCount {
			return nil, core1_0.VKErrorUnknown, errors.Wrapf(gfxutils.ErrLimitExceeded,
				"push constant block of %d words exceeds the device maximum of %d words",
				pushConstants.Count, maxCount)
		}

		if pushConstants.ShaderStages == 0 {
			pushConstants.ShaderStages = core1_0.StageAll
		}

		// The aliased register must not collide with a binding declared in the
		// same set.
		for _, set := range options.Sets {
			if set.Set == pushConstants.Set && set.Layout.HasBinding(pushConstants.Binding) {
				return nil, core1_0.VKErrorUnknown, errors.Wrapf(gfxutils.ErrNonUniqueBinding,
					"push constant block aliases binding %d in set %d, which is already declared by the set layout",
					pushConstants.Binding, pushConstants.Set)
			}
		}
	}

	createInfo := core1_0.PipelineLayoutCreateInfo{}

	orderedSets := make([]SetDeclaration, setCount)
	copy(orderedSets, options.Sets)
	slices.SortFunc(orderedSets, func(a, b SetDeclaration) bool {
		return a.Set < b.Set
	})

	for _, set := range orderedSets {
		createInfo.SetLayouts = append(createInfo.SetLayouts, set.Layout.Vulkan())
	}

	if pushConstants.Count > 0 {
		createInfo.PushConstantRanges = []core1_0.PushConstantRange{
			{
				StageFlags: pushConstants.ShaderStages,
				Offset:     0,
				Size:       pushConstants.Count * 4,
			},
		}
	}

	layout, res, err := dev.Vulkan().CreatePipelineLayout(dev.AllocationCallbacks(), createInfo)
	if err != nil {
		return nil, res, err
	}

	return &Interface{
		device:          dev,
		layout:          layout,
		sets:            orderedSets,
		pushConstants:   pushConstants,
		consecutiveSets: consecutive,
	}, res, nil
}

func (i *Interface) Vulkan() core1_0.PipelineLayout { return i.layout }

// Sets returns the set declarations ordered by set number.
func (i *Interface) Sets() []SetDeclaration { return i.sets }

func (i *Interface) PushConstants() PushConstants { return i.pushConstants }

// HasConsecutiveSets reports whether set numbers start at 0 with no gaps, which
// allows every descriptor set to be bound with a single bind command.
func (i *Interface) HasConsecutiveSets() bool { return i.consecutiveSets }

func (i *Interface) Destroy() {
	i.layout.Destroy(i.device.AllocationCallbacks())
}
