package barrier

import (
	"github.com/vkngwrapper/core/v2/core1_0"
)

// DetermineAspectMask classifies a format into the aspect bits a subresource range
// for it must name. Anything that is not a known depth or stencil format is
// treated as color.
func DetermineAspectMask(format core1_0.Format) core1_0.ImageAspectFlags {
	switch format {
	case core1_0.FormatD16UnsignedNormalized,
		core1_0.FormatD24X8UnsignedNormalizedPacked,
		core1_0.FormatD32SignedFloat:
		return core1_0.ImageAspectDepth

	case core1_0.FormatS8UnsignedInt:
		return core1_0.ImageAspectStencil

	case core1_0.FormatD16UnsignedNormalizedS8UnsignedInt,
		core1_0.FormatD24UnsignedNormalizedS8UnsignedInt,
		core1_0.FormatD32SignedFloatS8UnsignedInt:
		return core1_0.ImageAspectDepth | core1_0.ImageAspectStencil
	}

	return core1_0.ImageAspectColor
}

// HasDepthAspect reports whether format carries a depth aspect.
func HasDepthAspect(format core1_0.Format) bool {
	return DetermineAspectMask(format)&core1_0.ImageAspectDepth != 0
}

// HasStencilAspect reports whether format carries a stencil aspect.
func HasStencilAspect(format core1_0.Format) bool {
	return DetermineAspectMask(format)&core1_0.ImageAspectStencil != 0
}
