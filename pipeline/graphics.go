package pipeline

import (
	"encoding/binary"

	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/core/v2/common"
	"github.com/vkngwrapper/core/v2/core1_0"
	"github.com/vkngwrapper/easel/device"
	"github.com/vkngwrapper/easel/gfxutils"
	"github.com/vkngwrapper/easel/internal/utils"
)

// Factory creates pipelines for a single device and tracks construction
// statistics across them.
type Factory struct {
	device *device.Device

	statsMutex utils.OptionalMutex
	stats      gfxutils.PipelineStatistics
}

// NewFactory creates a pipeline factory for dev.
func NewFactory(dev *device.Device) *Factory {
	factory := &Factory{
		device: dev,
	}
	factory.statsMutex.UseMutex = dev.UseMutex()
	return factory
}

// Statistics returns a snapshot of construction counts.
func (f *Factory) Statistics() gfxutils.PipelineStatistics {
	f.statsMutex.Lock()
	defer f.statsMutex.Unlock()

	return f.stats
}

func (f *Factory) addStatistics(delta gfxutils.PipelineStatistics) {
	f.statsMutex.Lock()
	defer f.statsMutex.Unlock()

	f.stats.AddStatistics(&delta)
}

// ShaderStage is one shader stage's SPIR-V code.
type ShaderStage struct {
	// Stage identifies the stage the code runs at
	Stage core1_0.ShaderStageFlags
	// Code is the SPIR-V binary. Its length must be a multiple of 4.
	Code []byte
	// EntryPoint is the name of the entry function. Defaults to "main".
	EntryPoint string
}

// DepthStencilOptions controls the fixed-function depth test.
type DepthStencilOptions struct {
	DepthTestEnable  bool
	DepthWriteEnable bool
	DepthCompareOp   core1_0.CompareOp
}

// GraphicsOptions describes a graphics pipeline.
type GraphicsOptions struct {
	Stages []ShaderStage

	VertexAttributes []VertexAttribute
	Topology         core1_0.PrimitiveTopology

	PolygonMode core1_0.PolygonMode
	CullMode    core1_0.CullModeFlags
	FrontFace   core1_0.FrontFace

	DepthStencil DepthStencilOptions

	// BlendAttachments overrides per-attachment blend state. When empty, one
	// write-everything no-blend attachment is generated per color format.
	BlendAttachments []core1_0.PipelineColorBlendAttachmentState

	// Interface supplies the pipeline layout
	Interface *Interface

	// Formats names the attachments the pipeline renders to. They are retained
	// and checked against the attachments actually bound at draw time.
	Formats RenderTargetFormats
}

// Graphics is a compiled graphics pipeline. It retains the attachment formats it
// was compiled against so binds against mismatched attachments can be rejected.
type Graphics struct {
	device   *device.Device
	pipeline core1_0.Pipeline
	iface    *Interface
	formats  RenderTargetFormats
}

// Validate checks the structural invariants of the options. CreateGraphics
// reports the same problems as returned errors in every build.
func (o *GraphicsOptions) Validate() error {
	if o.Interface == nil {
		return errors.New("graphics pipelines require an interface")
	}
	if len(o.Formats.ColorFormats) == 0 && o.Formats.DepthStencilFormat == core1_0.FormatUndefined {
		return errors.New("graphics pipelines require at least one render target format")
	}
	if len(o.Stages) == 0 {
		return errors.New("pipelines require at least one shader stage")
	}
	for _, stage := range o.Stages {
		if len(stage.Code)%4 != 0 {
			return errors.Newf("shader code for stage %s is %d bytes, which is not a whole number of words",
				stage.Stage, len(stage.Code))
		}
	}
	if len(o.BlendAttachments) != 0 && len(o.BlendAttachments) != len(o.Formats.ColorFormats) {
		return errors.Newf("%d blend attachments declared for %d color formats",
			len(o.BlendAttachments), len(o.Formats.ColorFormats))
	}
	return nil
}

// CreateGraphics compiles a graphics pipeline. A render pass compatible with
// options.Formats is created to satisfy pipeline construction and destroyed
// before this returns.
func (f *Factory) CreateGraphics(options GraphicsOptions) (*Graphics, common.VkResult, error) {
	dev := f.device

	gfxutils.DebugValidate(&options)

	if options.Interface == nil {
		return nil, core1_0.VKErrorUnknown, errors.New("graphics pipelines require an interface")
	}
	if len(options.Formats.ColorFormats) == 0 && options.Formats.DepthStencilFormat == core1_0.FormatUndefined {
		return nil, core1_0.VKErrorUnknown, errors.New("graphics pipelines require at least one render target format")
	}

	stages, cleanupStages, res, err := f.buildShaderStages(options.Stages)
	if err != nil {
		return nil, res, err
	}
	defer cleanupStages()

	bindingStates, err := TranslateVertexInput(options.VertexAttributes)
	if err != nil {
		return nil, core1_0.VKErrorUnknown, err
	}

	vertexInput := &core1_0.PipelineVertexInputStateCreateInfo{}
	for _, state := range bindingStates {
		vertexInput.VertexBindingDescriptions = append(vertexInput.VertexBindingDescriptions, state.Binding)
		vertexInput.VertexAttributeDescriptions = append(vertexInput.VertexAttributeDescriptions, state.Attributes...)
	}

	sampleCount := options.Formats.SampleCount
	if sampleCount == 0 {
		sampleCount = core1_0.Samples1
	}

	blendAttachments := options.BlendAttachments
	if len(blendAttachments) == 0 {
		for range options.Formats.ColorFormats {
			blendAttachments = append(blendAttachments, core1_0.PipelineColorBlendAttachmentState{
				BlendEnabled: false,
				ColorWriteMask: core1_0.ColorComponentRed | core1_0.ColorComponentGreen |
					core1_0.ColorComponentBlue | core1_0.ColorComponentAlpha,
			})
		}
	} else if len(blendAttachments) != len(options.Formats.ColorFormats) {
		return nil, core1_0.VKErrorUnknown, errors.Newf(
			"%d blend attachments declared for %d color formats",
			len(blendAttachments), len(options.Formats.ColorFormats))
	}

	createInfo := core1_0.GraphicsPipelineCreateInfo{
		Stages:           stages,
		VertexInputState: vertexInput,
		InputAssemblyState: &core1_0.PipelineInputAssemblyStateCreateInfo{
			Topology: options.Topology,
		},
		// Viewport and scissor are dynamic, but the counts still have to be
		// declared here
		ViewportState: &core1_0.PipelineViewportStateCreateInfo{
			Viewports: []core1_0.Viewport{{}},
			Scissors:  []core1_0.Rect2D{{}},
		},
		RasterizationState: &core1_0.PipelineRasterizationStateCreateInfo{
			PolygonMode: options.PolygonMode,
			CullMode:    options.CullMode,
			FrontFace:   options.FrontFace,
			LineWidth:   1.0,
		},
		MultisampleState: &core1_0.PipelineMultisampleStateCreateInfo{
			RasterizationSamples: sampleCount,
			MinSampleShading:     1.0,
		},
		ColorBlendState: &core1_0.PipelineColorBlendStateCreateInfo{
			Attachments: blendAttachments,
		},
		DynamicState: &core1_0.PipelineDynamicStateCreateInfo{
			DynamicStates: []core1_0.DynamicState{
				core1_0.DynamicStateViewport,
				core1_0.DynamicStateScissor,
			},
		},
		Layout:            options.Interface.Vulkan(),
		BasePipelineIndex: -1,
	}

	if options.Formats.DepthStencilFormat != core1_0.FormatUndefined {
		createInfo.DepthStencilState = &core1_0.PipelineDepthStencilStateCreateInfo{
			DepthTestEnable:  options.DepthStencil.DepthTestEnable,
			DepthWriteEnable: options.DepthStencil.DepthWriteEnable,
			DepthCompareOp:   options.DepthStencil.DepthCompareOp,
		}
	}

	statsDelta := gfxutils.PipelineStatistics{
		GraphicsPipelines:     1,
		TransientRenderPasses: 1,
	}

	// Pipeline construction needs a render pass compatible with the declared
	// formats. The pipeline never references it afterward, so a transient one is
	// built here and destroyed before returning.
	transientPass, res, err := createTransientRenderPass(dev, options.Formats)
	if err != nil {
		return nil, res, err
	}

	createInfo.RenderPass = transientPass
	createInfo.Subpass = 0

	pipelines, res, err := dev.Vulkan().CreateGraphicsPipelines(nil, dev.AllocationCallbacks(),
		[]core1_0.GraphicsPipelineCreateInfo{createInfo})

	transientPass.Destroy(dev.AllocationCallbacks())
	if err != nil {
		return nil, res, err
	}

	f.addStatistics(statsDelta)

	formats := RenderTargetFormats{
		ColorFormats:       make([]core1_0.Format, len(options.Formats.ColorFormats)),
		DepthStencilFormat: options.Formats.DepthStencilFormat,
		SampleCount:        sampleCount,
	}
	copy(formats.ColorFormats, options.Formats.ColorFormats)

	return &Graphics{
		device:   dev,
		pipeline: pipelines[0],
		iface:    options.Interface,
		formats:  formats,
	}, res, nil
}

func (f *Factory) buildShaderStages(stageOptions []ShaderStage) ([]core1_0.PipelineShaderStageCreateInfo, func(), common.VkResult, error) {
	dev := f.device

	var modules []core1_0.ShaderModule
	cleanup := func() {
		for _, module := range modules {
			module.Destroy(dev.AllocationCallbacks())
		}
	}

	if len(stageOptions) == 0 {
		return nil, cleanup, core1_0.VKErrorUnknown, errors.New("pipelines require at least one shader stage")
	}

	stages := make([]core1_0.PipelineShaderStageCreateInfo, 0, len(stageOptions))
	for _, stage := range stageOptions {
		if len(stage.Code)%4 != 0 {
			cleanup()
			return nil, func() {}, core1_0.VKErrorUnknown, errors.Newf(
				"shader code for stage %s is %d bytes, which is not a whole number of words",
				stage.Stage, len(stage.Code))
		}

		module, res, err := dev.Vulkan().CreateShaderModule(dev.AllocationCallbacks(), core1_0.ShaderModuleCreateInfo{
			Code: spirvWords(stage.Code),
		})
		if err != nil {
			cleanup()
			return nil, func() {}, res, err
		}
		modules = append(modules, module)

		entryPoint := stage.EntryPoint
		if entryPoint == "" {
			entryPoint = "main"
		}

		stages = append(stages, core1_0.PipelineShaderStageCreateInfo{
			Stage:  stage.Stage,
			Module: module,
			Name:   entryPoint,
		})
	}

	return stages, cleanup, core1_0.VKSuccess, nil
}

func spirvWords(code []byte) []uint32 {
	words := make([]uint32, len(code)/4)
	for i := range words {
		words[i] = binary.LittleEndian.Uint32(code[i*4:])
	}
	return words
}

func (g *Graphics) Vulkan() core1_0.Pipeline { return g.pipeline }

func (g *Graphics) BindPoint() core1_0.PipelineBindPoint { return core1_0.PipelineBindPointGraphics }

func (g *Graphics) Interface() *Interface { return g.iface }

// Formats returns the attachment formats the pipeline was compiled against.
func (g *Graphics) Formats() RenderTargetFormats { return g.formats }

func (g *Graphics) Destroy() {
	g.pipeline.Destroy(g.device.AllocationCallbacks())
}
