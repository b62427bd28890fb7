package pipeline

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vkngwrapper/core/v2/core1_0"
	"github.com/vkngwrapper/core/v2/mocks"
	"github.com/vkngwrapper/easel/device"
	"github.com/vkngwrapper/easel/gfxutils"
	"go.uber.org/mock/gomock"
)

func readyLayout(t *testing.T, ctrl *gomock.Controller, vulkanDevice *mocks.MockDevice, dev *device.Device, bindings []DescriptorBinding) *SetLayout {
	vulkanLayout := mocks.NewMockDescriptorSetLayout(ctrl)
	vulkanDevice.EXPECT().CreateDescriptorSetLayout(gomock.Any(), gomock.Any()).
		Return(vulkanLayout, core1_0.VKSuccess, nil)

	layout, _, err := NewSetLayout(dev, SetLayoutOptions{Bindings: bindings})
	require.NoError(t, err)

	return layout
}

func TestNewInterfaceOrdersSetLayouts(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	vulkanDevice, dev := readyDevice(t, ctrl, []string{})

	layout0 := readyLayout(t, ctrl, vulkanDevice, dev, []DescriptorBinding{
		{Binding: 0, Type: core1_0.DescriptorTypeUniformBuffer},
	})
	layout1 := readyLayout(t, ctrl, vulkanDevice, dev, []DescriptorBinding{
		{Binding: 0, Type: core1_0.DescriptorTypeStorageBuffer},
	})

	pipelineLayout := mocks.NewMockPipelineLayout(ctrl)
	vulkanDevice.EXPECT().CreatePipelineLayout(gomock.Any(), core1_0.PipelineLayoutCreateInfo{
		SetLayouts: []core1_0.DescriptorSetLayout{layout0.Vulkan(), layout1.Vulkan()},
		PushConstantRanges: []core1_0.PushConstantRange{
			{
				StageFlags: core1_0.StageVertex,
				Offset:     0,
				Size:       16,
			},
		},
	}).Return(pipelineLayout, core1_0.VKSuccess, nil)

	// Sets are declared out of order and must be handed to Vulkan by set number.
	iface, _, err := NewInterface(dev, InterfaceOptions{
		Sets: []SetDeclaration{
			{Set: 1, Layout: layout1},
			{Set: 0, Layout: layout0},
		},
		PushConstants: PushConstants{
			Count:        4,
			Binding:      7,
			Set:          0,
			ShaderStages: core1_0.StageVertex,
		},
	})
	require.NoError(t, err)
	require.Equal(t, pipelineLayout, iface.Vulkan())
	require.True(t, iface.HasConsecutiveSets())

	sets := iface.Sets()
	require.Len(t, sets, 2)
	require.Equal(t, 0, sets[0].Set)
	require.Equal(t, 1, sets[1].Set)

	require.Equal(t, 4, iface.PushConstants().Count)
	require.Equal(t, core1_0.StageVertex, iface.PushConstants().ShaderStages)

	pipelineLayout.EXPECT().Destroy(nil)
	iface.Destroy()
}

func TestNewInterfaceDefaultsPushConstantStages(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	vulkanDevice, dev := readyDevice(t, ctrl, []string{})

	pipelineLayout := mocks.NewMockPipelineLayout(ctrl)
	vulkanDevice.EXPECT().CreatePipelineLayout(gomock.Any(), core1_0.PipelineLayoutCreateInfo{
		PushConstantRanges: []core1_0.PushConstantRange{
			{
				StageFlags: core1_0.StageAll,
				Offset:     0,
				Size:       8,
			},
		},
	}).Return(pipelineLayout, core1_0.VKSuccess, nil)

	iface, _, err := NewInterface(dev, InterfaceOptions{
		PushConstants: PushConstants{Count: 2},
	})
	require.NoError(t, err)
	require.Equal(t, core1_0.StageAll, iface.PushConstants().ShaderStages)
}

func TestNewInterfaceGappedSetsAreNotConsecutive(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	vulkanDevice, dev := readyDevice(t, ctrl, []string{})

	layout0 := readyLayout(t, ctrl, vulkanDevice, dev, []DescriptorBinding{
		{Binding: 0, Type: core1_0.DescriptorTypeUniformBuffer},
	})
	layout2 := readyLayout(t, ctrl, vulkanDevice, dev, []DescriptorBinding{
		{Binding: 0, Type: core1_0.DescriptorTypeStorageBuffer},
	})

	pipelineLayout := mocks.NewMockPipelineLayout(ctrl)
	vulkanDevice.EXPECT().CreatePipelineLayout(gomock.Any(), gomock.Any()).
		Return(pipelineLayout, core1_0.VKSuccess, nil)

	iface, _, err := NewInterface(dev, InterfaceOptions{
		Sets: []SetDeclaration{
			{Set: 0, Layout: layout0},
			{Set: 2, Layout: layout2},
		},
	})
	require.NoError(t, err)
	require.False(t, iface.HasConsecutiveSets())
}

func TestNewInterfaceDuplicateSet(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	vulkanDevice, dev := readyDevice(t, ctrl, []string{})

	layout := readyLayout(t, ctrl, vulkanDevice, dev, []DescriptorBinding{
		{Binding: 0, Type: core1_0.DescriptorTypeUniformBuffer},
	})

	_, _, err := NewInterface(dev, InterfaceOptions{
		Sets: []SetDeclaration{
			{Set: 0, Layout: layout},
			{Set: 0, Layout: layout},
		},
	})
	require.ErrorIs(t, err, gfxutils.ErrNonUniqueSet)
}

func TestNewInterfaceTooManySets(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	vulkanDevice, dev := readyDevice(t, ctrl, []string{})

	layout := readyLayout(t, ctrl, vulkanDevice, dev, []DescriptorBinding{
		{Binding: 0, Type: core1_0.DescriptorTypeUniformBuffer},
	})

	// The fixture device reports a maximum of 4 bound sets.
	sets := make([]SetDeclaration, 5)
	for i := range sets {
		sets[i] = SetDeclaration{Set: i, Layout: layout}
	}

	_, _, err := NewInterface(dev, InterfaceOptions{Sets: sets})
	require.ErrorIs(t, err, gfxutils.ErrLimitExceeded)
}

func TestNewInterfaceNilLayout(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	_, dev := readyDevice(t, ctrl, []string{})

	_, _, err := NewInterface(dev, InterfaceOptions{
		Sets: []SetDeclaration{{Set: 0, Layout: nil}},
	})
	require.Error(t, err)
}

func TestNewInterfacePushConstantsTooLarge(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	_, dev := readyDevice(t, ctrl, []string{})

	// The fixture device reports 128 bytes of push constant capacity: 32 words.
	_, _, err := NewInterface(dev, InterfaceOptions{
		PushConstants: PushConstants{Count: 33},
	})
	require.ErrorIs(t, err, gfxutils.ErrLimitExceeded)
}

func TestInterfaceOptionsValidate(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	vulkanDevice, dev := readyDevice(t, ctrl, []string{})

	layout := readyLayout(t, ctrl, vulkanDevice, dev, []DescriptorBinding{
		{Binding: 0, Type: core1_0.DescriptorTypeUniformBuffer},
	})

	require.Error(t, (&InterfaceOptions{
		Sets: []SetDeclaration{{Set: 0, Layout: nil}},
	}).Validate())

	err := (&InterfaceOptions{
		Sets: []SetDeclaration{
			{Set: 1, Layout: layout},
			{Set: 1, Layout: layout},
		},
	}).Validate()
	require.ErrorIs(t, err, gfxutils.ErrNonUniqueSet)

	require.Error(t, (&InterfaceOptions{
		PushConstants: PushConstants{Count: -1},
	}).Validate())

	require.NoError(t, (&InterfaceOptions{
		Sets:          []SetDeclaration{{Set: 0, Layout: layout}},
		PushConstants: PushConstants{Count: 4},
	}).Validate())
}

func TestNewInterfacePushConstantBindingCollision(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	vulkanDevice, dev := readyDevice(t, ctrl, []string{})

	layout := readyLayout(t, ctrl, vulkanDevice, dev, []DescriptorBinding{
		{Binding: 5, Type: core1_0.DescriptorTypeUniformBuffer},
	})

	_, _, err := NewInterface(dev, InterfaceOptions{
		Sets: []SetDeclaration{{Set: 0, Layout: layout}},
		PushConstants: PushConstants{
			Count:   1,
			Binding: 5,
			Set:     0,
		},
	})
	require.ErrorIs(t, err, gfxutils.ErrNonUniqueBinding)
}
