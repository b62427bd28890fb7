package barrier

import (
	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/core/v2/core1_0"
	"github.com/vkngwrapper/core/v2/core1_1"
	"github.com/vkngwrapper/easel/gfxutils"
	"github.com/vkngwrapper/extensions/v2/khr_swapchain"
)

// Stage, access, and layout bits for extensions the wrapper does not expose
// packages for. Values match vulkan_core.h.
const (
	pipelineStageTransformFeedback       core1_0.PipelineStageFlags = 0x01000000
	accessTransformFeedbackWrite         core1_0.AccessFlags        = 0x02000000
	pipelineStageConditionalRendering    core1_0.PipelineStageFlags = 0x00040000
	accessConditionalRenderingRead       core1_0.AccessFlags        = 0x00100000
	pipelineStageFragmentDensityProcess  core1_0.PipelineStageFlags = 0x00800000
	accessFragmentDensityMapRead         core1_0.AccessFlags        = 0x01000000
	pipelineStageShadingRateAttachment   core1_0.PipelineStageFlags = 0x00400000
	accessShadingRateAttachmentRead      core1_0.AccessFlags        = 0x00800000
	imageLayoutFragmentDensityMapOptimal core1_0.ImageLayout        = 1000218000
	imageLayoutShadingRateOptimal        core1_0.ImageLayout        = 1000164003
)

// Features is the read-only slice of the device feature set that barrier
// translation depends on. device.New populates it from the enabled physical
// device features and active extensions; stage bits for absent features are
// never emitted, since enabling an unsupported stage bit is itself an error
// on some implementations.
type Features struct {
	GeometryShader       bool
	TessellationShader   bool
	TransformFeedback    bool
	ConditionalRendering bool
	FragmentDensityMap   bool
	FragmentShadingRate  bool
}

// Barrier is the translated form of a ResourceState for one endpoint of a
// transition. It is ephemeral: recomputed on every call and never stored.
type Barrier struct {
	StageMask  core1_0.PipelineStageFlags
	AccessMask core1_0.AccessFlags
	// Layout is only meaningful when HasLayout is true. Buffer-only states carry
	// no layout.
	Layout    core1_0.ImageLayout
	HasLayout bool
}

// ToBarrierSrc translates a resource state into the stage mask, access mask, and
// image layout to use for the "before" endpoint of a transition.
func ToBarrierSrc(state gfxutils.ResourceState, commandType gfxutils.CommandType, features Features) (Barrier, error) {
	return toBarrier(state, commandType, features, true)
}

// ToBarrierDst translates a resource state into the stage mask, access mask, and
// image layout to use for the "after" endpoint of a transition.
func ToBarrierDst(state gfxutils.ResourceState, commandType gfxutils.CommandType, features Features) (Barrier, error) {
	return toBarrier(state, commandType, features, false)
}

// allShaderStages is the widest set of shader stages the queue's command type can
// reach, widened for optional geometry/tessellation support on graphics queues.
func allShaderStages(commandType gfxutils.CommandType, features Features) core1_0.PipelineStageFlags {
	switch commandType {
	case gfxutils.CommandTypeCompute:
		return core1_0.PipelineStageComputeShader
	case gfxutils.CommandTypeGraphics:
		stages := core1_0.PipelineStageVertexShader | core1_0.PipelineStageFragmentShader
		if features.GeometryShader {
			stages |= core1_0.PipelineStageGeometryShader
		}
		if features.TessellationShader {
			stages |= core1_0.PipelineStageTessellationControlShader |
				core1_0.PipelineStageTessellationEvaluationShader
		}
		return stages
	}

	return core1_0.PipelineStageTransfer
}

// nonPixelShaderStages is allShaderStages minus the fragment stage.
func nonPixelShaderStages(commandType gfxutils.CommandType, features Features) core1_0.PipelineStageFlags {
	switch commandType {
	case gfxutils.CommandTypeCompute:
		return core1_0.PipelineStageComputeShader
	case gfxutils.CommandTypeGraphics:
		stages := core1_0.PipelineStageVertexShader
		if features.GeometryShader {
			stages |= core1_0.PipelineStageGeometryShader
		}
		if features.TessellationShader {
			stages |= core1_0.PipelineStageTessellationControlShader |
				core1_0.PipelineStageTessellationEvaluationShader
		}
		return stages
	}

	return core1_0.PipelineStageTransfer
}

func imageBarrier(stages core1_0.PipelineStageFlags, access core1_0.AccessFlags, layout core1_0.ImageLayout) (Barrier, error) {
	return Barrier{
		StageMask:  stages,
		AccessMask: access,
		Layout:     layout,
		HasLayout:  true,
	}, nil
}

func bufferBarrier(stages core1_0.PipelineStageFlags, access core1_0.AccessFlags) (Barrier, error) {
	return Barrier{
		StageMask:  stages,
		AccessMask: access,
	}, nil
}

func toBarrier(state gfxutils.ResourceState, commandType gfxutils.CommandType, features Features, isSource bool) (Barrier, error) {
	switch state {
	case gfxutils.ResourceStateUndefined:
		return imageBarrier(
			core1_0.PipelineStageAllCommands,
			core1_0.AccessMemoryRead|core1_0.AccessMemoryWrite,
			core1_0.ImageLayoutUndefined,
		)

	case gfxutils.ResourceStateGeneral:
		return imageBarrier(
			core1_0.PipelineStageAllCommands,
			core1_0.AccessMemoryRead|core1_0.AccessMemoryWrite,
			core1_0.ImageLayoutGeneral,
		)

	case gfxutils.ResourceStateConstantBuffer:
		return bufferBarrier(
			core1_0.PipelineStageVertexInput|allShaderStages(commandType, features),
			core1_0.AccessVertexAttributeRead|core1_0.AccessUniformRead,
		)

	case gfxutils.ResourceStateVertexBuffer:
		return bufferBarrier(
			core1_0.PipelineStageVertexInput|allShaderStages(commandType, features),
			core1_0.AccessVertexAttributeRead,
		)

	case gfxutils.ResourceStateIndexBuffer:
		return bufferBarrier(
			core1_0.PipelineStageVertexInput,
			core1_0.AccessIndexRead,
		)

	case gfxutils.ResourceStateRenderTarget:
		return imageBarrier(
			core1_0.PipelineStageColorAttachmentOutput,
			core1_0.AccessColorAttachmentRead|core1_0.AccessColorAttachmentWrite,
			core1_0.ImageLayoutColorAttachmentOptimal,
		)

	case gfxutils.ResourceStateUnorderedAccess:
		return imageBarrier(
			allShaderStages(commandType, features),
			core1_0.AccessShaderRead|core1_0.AccessShaderWrite,
			core1_0.ImageLayoutGeneral,
		)

	case gfxutils.ResourceStateDepthStencilRead:
		return imageBarrier(
			core1_0.PipelineStageEarlyFragmentTests|core1_0.PipelineStageLateFragmentTests,
			core1_0.AccessDepthStencilAttachmentRead|core1_0.AccessDepthStencilAttachmentWrite,
			core1_0.ImageLayoutDepthStencilReadOnlyOptimal,
		)

	case gfxutils.ResourceStateDepthStencilWrite:
		return imageBarrier(
			core1_0.PipelineStageEarlyFragmentTests|core1_0.PipelineStageLateFragmentTests,
			core1_0.AccessDepthStencilAttachmentRead|core1_0.AccessDepthStencilAttachmentWrite,
			core1_0.ImageLayoutDepthStencilAttachmentOptimal,
		)

	case gfxutils.ResourceStateDepthWriteStencilRead:
		return imageBarrier(
			core1_0.PipelineStageEarlyFragmentTests|core1_0.PipelineStageLateFragmentTests,
			core1_0.AccessDepthStencilAttachmentRead|core1_0.AccessDepthStencilAttachmentWrite,
			core1_1.ImageLayoutDepthAttachmentStencilReadOnlyOptimal,
		)

	case gfxutils.ResourceStateDepthReadStencilWrite:
		return imageBarrier(
			core1_0.PipelineStageEarlyFragmentTests|core1_0.PipelineStageLateFragmentTests,
			core1_0.AccessDepthStencilAttachmentRead|core1_0.AccessDepthStencilAttachmentWrite,
			core1_1.ImageLayoutDepthReadOnlyStencilAttachmentOptimal,
		)

	case gfxutils.ResourceStateNonPixelShaderResource:
		return imageBarrier(
			nonPixelShaderStages(commandType, features),
			core1_0.AccessShaderRead,
			core1_0.ImageLayoutShaderReadOnlyOptimal,
		)

	case gfxutils.ResourceStateShaderResource:
		return imageBarrier(
			allShaderStages(commandType, features),
			core1_0.AccessShaderRead,
			core1_0.ImageLayoutShaderReadOnlyOptimal,
		)

	case gfxutils.ResourceStatePixelShaderResource:
		return imageBarrier(
			core1_0.PipelineStageFragmentShader,
			core1_0.AccessShaderRead,
			core1_0.ImageLayoutShaderReadOnlyOptimal,
		)

	case gfxutils.ResourceStateStreamOut:
		if !features.TransformFeedback {
			return Barrier{}, errors.Wrapf(gfxutils.ErrUnsupportedResourceState,
				"%s requires the transform feedback feature", state)
		}
		return bufferBarrier(
			pipelineStageTransformFeedback,
			accessTransformFeedbackWrite,
		)

	case gfxutils.ResourceStateIndirectArgument:
		return bufferBarrier(
			core1_0.PipelineStageDrawIndirect,
			core1_0.AccessIndirectCommandRead,
		)

	case gfxutils.ResourceStateCopySrc, gfxutils.ResourceStateResolveSrc:
		return imageBarrier(
			core1_0.PipelineStageTransfer,
			core1_0.AccessTransferRead,
			core1_0.ImageLayoutTransferSrcOptimal,
		)

	case gfxutils.ResourceStateCopyDst, gfxutils.ResourceStateResolveDst:
		return imageBarrier(
			core1_0.PipelineStageTransfer,
			core1_0.AccessTransferWrite,
			core1_0.ImageLayoutTransferDstOptimal,
		)

	case gfxutils.ResourceStatePresent:
		// As a source the presented image only needs to be visible before anything
		// starts; as a destination everything must finish before presentation.
		stage := core1_0.PipelineStageTopOfPipe
		if !isSource {
			stage = core1_0.PipelineStageBottomOfPipe
		}
		return imageBarrier(
			stage,
			core1_0.AccessMemoryRead|core1_0.AccessMemoryWrite,
			khr_swapchain.ImageLayoutPresentSrc,
		)

	case gfxutils.ResourceStatePredication:
		if !features.ConditionalRendering {
			return Barrier{}, errors.Wrapf(gfxutils.ErrUnsupportedResourceState,
				"%s requires the conditional rendering feature", state)
		}
		return bufferBarrier(
			pipelineStageConditionalRendering,
			accessConditionalRenderingRead,
		)

	case gfxutils.ResourceStateFragmentDensityMapAttachment:
		if !features.FragmentDensityMap {
			return Barrier{}, errors.Wrapf(gfxutils.ErrUnsupportedResourceState,
				"%s requires the fragment density map feature", state)
		}
		return imageBarrier(
			pipelineStageFragmentDensityProcess,
			accessFragmentDensityMapRead,
			imageLayoutFragmentDensityMapOptimal,
		)

	case gfxutils.ResourceStateFragmentShadingRateAttachment:
		if !features.FragmentShadingRate {
			return Barrier{}, errors.Wrapf(gfxutils.ErrUnsupportedResourceState,
				"%s requires the fragment shading rate feature", state)
		}
		return imageBarrier(
			pipelineStageShadingRateAttachment,
			accessShadingRateAttachmentRead,
			imageLayoutShadingRateOptimal,
		)

	case gfxutils.ResourceStateRaytracingAccelerationStructure:
		return Barrier{}, errors.Wrapf(gfxutils.ErrUnsupportedResourceState,
			"%s has no barrier mapping on this backend", state)
	}

	return Barrier{}, errors.Wrapf(gfxutils.ErrUnsupportedResourceState, "unrecognized value %d", state)
}
