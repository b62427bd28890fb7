package gfxutils

import "github.com/pkg/errors"

// ErrUnsupportedResourceState is returned when a ResourceState has no barrier
// mapping for the requested queue type, either because the value is outside the
// closed enum or because the state has no support on this backend
var ErrUnsupportedResourceState error = errors.New("unsupported resource state")

// ErrQueueTransferEndpoints is returned when a transition names exactly one of the
// source and destination queues: a queue family ownership transfer requires both
// endpoints to be specified
var ErrQueueTransferEndpoints error = errors.New("queue family transfer requires both source and destination queues")

// ErrMixedVertexInputRates is returned when the attributes grouped into a single
// vertex binding do not all share one input rate
var ErrMixedVertexInputRates error = errors.New("cannot mix vertex input rates in the same binding")

// ErrNonUniqueSet is returned when a pipeline interface declares the same set
// number more than once
var ErrNonUniqueSet error = errors.New("set numbers are not unique")

// ErrNonUniqueBinding is returned when a descriptor set layout declares the same
// binding number more than once, or when a push constant range collides with an
// existing binding
var ErrNonUniqueBinding error = errors.New("binding numbers are not unique")

// ErrBindingNotInSet is returned when a descriptor write names a binding number
// that the set's layout does not declare
var ErrBindingNotInSet error = errors.New("binding number is not present in the set layout")

// ErrLimitExceeded is returned when a creation parameter exceeds a limit reported
// by the device or imposed by the library. Values are never silently clamped
var ErrLimitExceeded error = errors.New("limit exceeded")

// ErrRenderTargetFormatMismatch is returned when the attachment formats bound at
// render time do not match the formats the pipeline was created against
var ErrRenderTargetFormatMismatch error = errors.New("bound attachment formats do not match pipeline creation formats")

// ErrQueryNotReset is returned when a query slot is begun or written without a
// preceding reset
var ErrQueryNotReset error = errors.New("query slot has not been reset")

// ErrQueryActive is returned when a query slot is begun twice, reset, or resolved
// while still active
var ErrQueryActive error = errors.New("query slot is still active")

// ErrQueryNotEnded is returned when a query slot is resolved before it has ended
var ErrQueryNotEnded error = errors.New("query slot has not ended")

// ErrQueryNotResolved is returned when query data is read back before the slot has
// been resolved
var ErrQueryNotResolved error = errors.New("query slot has not been resolved")

// ErrInvalidSlotState is returned when a frame slot operation is called out of
// order
var ErrInvalidSlotState error = errors.New("frame slot is not in a valid state for this operation")
