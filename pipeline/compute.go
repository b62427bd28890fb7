package pipeline

import (
	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/core/v2/common"
	"github.com/vkngwrapper/core/v2/core1_0"
	"github.com/vkngwrapper/easel/device"
	"github.com/vkngwrapper/easel/gfxutils"
)

// ComputeOptions describes a compute pipeline.
type ComputeOptions struct {
	// Shader is the compute stage. Shader.Stage is ignored and always treated as
	// core1_0.StageCompute.
	Shader ShaderStage

	// Interface supplies the pipeline layout
	Interface *Interface
}

// Compute is a compiled compute pipeline.
type Compute struct {
	device   *device.Device
	pipeline core1_0.Pipeline
	iface    *Interface
}

// Validate checks the structural invariants of the options. CreateCompute
// reports the same problems as returned errors in every build.
func (o *ComputeOptions) Validate() error {
	if o.Interface == nil {
		return errors.New("compute pipelines require an interface")
	}
	if len(o.Shader.Code)%4 != 0 {
		return errors.Newf("shader code for stage %s is %d bytes, which is not a whole number of words",
			core1_0.StageCompute, len(o.Shader.Code))
	}
	return nil
}

// CreateCompute compiles a compute pipeline.
func (f *Factory) CreateCompute(options ComputeOptions) (*Compute, common.VkResult, error) {
	dev := f.device

	gfxutils.DebugValidate(&options)

	if options.Interface == nil {
		return nil, core1_0.VKErrorUnknown, errors.New("compute pipelines require an interface")
	}

	shader := options.Shader
	shader.Stage = core1_0.StageCompute

	stages, cleanupStages, res, err := f.buildShaderStages([]ShaderStage{shader})
	if err != nil {
		return nil, res, err
	}
	defer cleanupStages()

	pipelines, res, err := dev.Vulkan().CreateComputePipelines(nil, dev.AllocationCallbacks(),
		[]core1_0.ComputePipelineCreateInfo{
			{
				Stage:             stages[0],
				Layout:            options.Interface.Vulkan(),
				BasePipelineIndex: -1,
			},
		})
	if err != nil {
		return nil, res, err
	}

	f.addStatistics(gfxutils.PipelineStatistics{ComputePipelines: 1})

	return &Compute{
		device:   dev,
		pipeline: pipelines[0],
		iface:    options.Interface,
	}, res, nil
}

func (c *Compute) Vulkan() core1_0.Pipeline { return c.pipeline }

func (c *Compute) BindPoint() core1_0.PipelineBindPoint { return core1_0.PipelineBindPointCompute }

func (c *Compute) Interface() *Interface { return c.iface }

func (c *Compute) Destroy() {
	c.pipeline.Destroy(c.device.AllocationCallbacks())
}
