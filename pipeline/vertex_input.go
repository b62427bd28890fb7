package pipeline

import (
	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/core/v2/core1_0"
	"github.com/vkngwrapper/easel/gfxutils"
	"golang.org/x/exp/slices"
)

// OffsetAppend asks attribute translation to compute the attribute's byte offset
// by packing it after the previous attribute in the same binding.
const OffsetAppend int = -1

// VertexAttribute is one shader vertex input.
type VertexAttribute struct {
	// Location is the shader input location
	Location int
	// Binding is the vertex buffer binding the attribute is fetched from
	Binding int
	// Format is the attribute's data format
	Format core1_0.Format
	// Offset is the byte offset within one element of the binding, or
	// OffsetAppend to pack after the previous attribute
	Offset int
	// InputRate selects per-vertex or per-instance fetching. Every attribute
	// sharing a binding must agree on the rate.
	InputRate core1_0.VertexInputRate
}

// VertexBindingState is the translated state for one vertex buffer binding.
type VertexBindingState struct {
	Binding    core1_0.VertexInputBindingDescription
	Attributes []core1_0.VertexInputAttributeDescription
}

// TranslateVertexInput groups attributes by binding, resolves appended offsets,
// and computes each binding's stride. Attributes that share a binding but
// disagree on input rate fail with gfxutils.ErrMixedVertexInputRates.
func TranslateVertexInput(attributes []VertexAttribute) ([]VertexBindingState, error) {
	bindingNumbers := make([]int, 0, len(attributes))
	for _, attr := range attributes {
		if !slices.Contains(bindingNumbers, attr.Binding) {
			bindingNumbers = append(bindingNumbers, attr.Binding)
		}
	}
	slices.Sort(bindingNumbers)

	states := make([]VertexBindingState, 0, len(bindingNumbers))
	for _, bindingNumber := range bindingNumbers {
		state := VertexBindingState{
			Binding: core1_0.VertexInputBindingDescription{
				Binding: bindingNumber,
			},
		}

		rateSet := false
		var rate core1_0.VertexInputRate
		stride := 0

		for _, attr := range attributes {
			if attr.Binding != bindingNumber {
				continue
			}

			if !rateSet {
				rate = attr.InputRate
				rateSet = true
			} else if attr.InputRate != rate {
				return nil, errors.Wrapf(gfxutils.ErrMixedVertexInputRates,
					"binding %d mixes input rates at location %d", bindingNumber, attr.Location)
			}

			formatSize, err := FormatByteSize(attr.Format)
			if err != nil {
				return nil, err
			}

			offset := attr.Offset
			if offset == OffsetAppend {
				offset = stride
			}

			state.Attributes = append(state.Attributes, core1_0.VertexInputAttributeDescription{
				Location: uint32(attr.Location),
				Binding:  bindingNumber,
				Format:   attr.Format,
				Offset:   offset,
			})

			if end := offset + formatSize; end > stride {
				stride = end
			}
		}

		state.Binding.InputRate = rate
		state.Binding.Stride = stride
		states = append(states, state)
	}

	return states, nil
}

// FormatByteSize returns the size of one texel or vertex element of format.
// Block-compressed and multi-planar formats are not supported as vertex formats
// and report an unsupported error.
func FormatByteSize(format core1_0.Format) (int, error) {
	switch format {
	case core1_0.FormatR8UnsignedNormalized, core1_0.FormatR8SignedNormalized,
		core1_0.FormatR8UnsignedInt, core1_0.FormatR8SignedInt:
		return 1, nil
	case core1_0.FormatR8G8UnsignedNormalized, core1_0.FormatR8G8SignedNormalized,
		core1_0.FormatR8G8UnsignedInt, core1_0.FormatR8G8SignedInt,
		core1_0.FormatR16UnsignedNormalized, core1_0.FormatR16SignedNormalized,
		core1_0.FormatR16UnsignedInt, core1_0.FormatR16SignedInt,
		core1_0.FormatR16SignedFloat:
		return 2, nil
	case core1_0.FormatR8G8B8UnsignedNormalized, core1_0.FormatR8G8B8SignedNormalized,
		core1_0.FormatR8G8B8UnsignedInt, core1_0.FormatR8G8B8SignedInt:
		return 3, nil
	case core1_0.FormatR8G8B8A8UnsignedNormalized, core1_0.FormatR8G8B8A8SignedNormalized,
		core1_0.FormatR8G8B8A8UnsignedInt, core1_0.FormatR8G8B8A8SignedInt,
		core1_0.FormatB8G8R8A8UnsignedNormalized,
		core1_0.FormatR16G16UnsignedNormalized, core1_0.FormatR16G16SignedNormalized,
		core1_0.FormatR16G16UnsignedInt, core1_0.FormatR16G16SignedInt,
		core1_0.FormatR16G16SignedFloat,
		core1_0.FormatR32UnsignedInt, core1_0.FormatR32SignedInt,
		core1_0.FormatR32SignedFloat,
		core1_0.FormatA2B10G10R10UnsignedNormalizedPacked:
		return 4, nil
	case core1_0.FormatR16G16B16UnsignedInt, core1_0.FormatR16G16B16SignedInt,
		core1_0.FormatR16G16B16SignedFloat:
		return 6, nil
	case core1_0.FormatR16G16B16A16UnsignedNormalized, core1_0.FormatR16G16B16A16SignedNormalized,
		core1_0.FormatR16G16B16A16UnsignedInt, core1_0.FormatR16G16B16A16SignedInt,
		core1_0.FormatR16G16B16A16SignedFloat,
		core1_0.FormatR32G32UnsignedInt, core1_0.FormatR32G32SignedInt,
		core1_0.FormatR32G32SignedFloat,
		core1_0.FormatR64UnsignedInt, core1_0.FormatR64SignedInt, core1_0.FormatR64SignedFloat:
		return 8, nil
	case core1_0.FormatR32G32B32UnsignedInt, core1_0.FormatR32G32B32SignedInt,
		core1_0.FormatR32G32B32SignedFloat:
		return 12, nil
	case core1_0.FormatR32G32B32A32UnsignedInt, core1_0.FormatR32G32B32A32SignedInt,
		core1_0.FormatR32G32B32A32SignedFloat,
		core1_0.FormatR64G64UnsignedInt, core1_0.FormatR64G64SignedInt,
		core1_0.FormatR64G64SignedFloat:
		return 16, nil
	case core1_0.FormatR64G64B64UnsignedInt, core1_0.FormatR64G64B64SignedInt,
		core1_0.FormatR64G64B64SignedFloat:
		return 24, nil
	case core1_0.FormatR64G64B64A64UnsignedInt, core1_0.FormatR64G64B64A64SignedInt,
		core1_0.FormatR64G64B64A64SignedFloat:
		return 32, nil
	}

	return 0, errors.Newf("format %s has no defined vertex element size", format)
}
