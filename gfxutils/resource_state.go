package gfxutils

// ResourceState is an abstract description of how a GPU resource is being used at a
// point in its command-buffer-relative lifetime, independent of the native API's
// stage/access/layout vocabulary. The library performs no automatic state tracking:
// the consumer is responsible for passing the correct before and after state on
// every transition.
type ResourceState uint32

const (
	ResourceStateUndefined ResourceState = iota
	ResourceStateGeneral
	ResourceStateConstantBuffer
	ResourceStateVertexBuffer
	ResourceStateIndexBuffer
	ResourceStateRenderTarget
	ResourceStateUnorderedAccess
	ResourceStateDepthStencilRead
	ResourceStateDepthStencilWrite
	ResourceStateDepthWriteStencilRead
	ResourceStateDepthReadStencilWrite
	ResourceStateNonPixelShaderResource
	ResourceStateShaderResource
	ResourceStatePixelShaderResource
	ResourceStateStreamOut
	ResourceStateIndirectArgument
	ResourceStateCopySrc
	ResourceStateCopyDst
	ResourceStateResolveSrc
	ResourceStateResolveDst
	ResourceStatePresent
	ResourceStatePredication
	ResourceStateRaytracingAccelerationStructure
	ResourceStateFragmentDensityMapAttachment
	ResourceStateFragmentShadingRateAttachment
)

var resourceStateMapping = make(map[ResourceState]string)

func (s ResourceState) String() string {
	return resourceStateMapping[s]
}

func init() {
	resourceStateMapping[ResourceStateUndefined] = "ResourceStateUndefined"
	resourceStateMapping[ResourceStateGeneral] = "ResourceStateGeneral"
	resourceStateMapping[ResourceStateConstantBuffer] = "ResourceStateConstantBuffer"
	resourceStateMapping[ResourceStateVertexBuffer] = "ResourceStateVertexBuffer"
	resourceStateMapping[ResourceStateIndexBuffer] = "ResourceStateIndexBuffer"
	resourceStateMapping[ResourceStateRenderTarget] = "ResourceStateRenderTarget"
	resourceStateMapping[ResourceStateUnorderedAccess] = "ResourceStateUnorderedAccess"
	resourceStateMapping[ResourceStateDepthStencilRead] = "ResourceStateDepthStencilRead"
	resourceStateMapping[ResourceStateDepthStencilWrite] = "ResourceStateDepthStencilWrite"
	resourceStateMapping[ResourceStateDepthWriteStencilRead] = "ResourceStateDepthWriteStencilRead"
	resourceStateMapping[ResourceStateDepthReadStencilWrite] = "ResourceStateDepthReadStencilWrite"
	resourceStateMapping[ResourceStateNonPixelShaderResource] = "ResourceStateNonPixelShaderResource"
	resourceStateMapping[ResourceStateShaderResource] = "ResourceStateShaderResource"
	resourceStateMapping[ResourceStatePixelShaderResource] = "ResourceStatePixelShaderResource"
	resourceStateMapping[ResourceStateStreamOut] = "ResourceStateStreamOut"
	resourceStateMapping[ResourceStateIndirectArgument] = "ResourceStateIndirectArgument"
	resourceStateMapping[ResourceStateCopySrc] = "ResourceStateCopySrc"
	resourceStateMapping[ResourceStateCopyDst] = "ResourceStateCopyDst"
	resourceStateMapping[ResourceStateResolveSrc] = "ResourceStateResolveSrc"
	resourceStateMapping[ResourceStateResolveDst] = "ResourceStateResolveDst"
	resourceStateMapping[ResourceStatePresent] = "ResourceStatePresent"
	resourceStateMapping[ResourceStatePredication] = "ResourceStatePredication"
	resourceStateMapping[ResourceStateRaytracingAccelerationStructure] = "ResourceStateRaytracingAccelerationStructure"
	resourceStateMapping[ResourceStateFragmentDensityMapAttachment] = "ResourceStateFragmentDensityMapAttachment"
	resourceStateMapping[ResourceStateFragmentShadingRateAttachment] = "ResourceStateFragmentShadingRateAttachment"
}

// ResourceStates lists every state the library recognizes, in declaration order. It
// is primarily useful for exhaustive table checks.
func ResourceStates() []ResourceState {
	states := make([]ResourceState, 0, len(resourceStateMapping))
	for i := ResourceStateUndefined; i <= ResourceStateFragmentShadingRateAttachment; i++ {
		states = append(states, i)
	}
	return states
}

// CommandType identifies the class of work a queue accepts. Barrier translation
// narrows shader stage masks based on it: a compute-only queue must never see
// vertex/geometry/tessellation/fragment stage bits.
type CommandType uint32

const (
	CommandTypeGraphics CommandType = iota
	CommandTypeCompute
	CommandTypeTransfer
)

var commandTypeMapping = make(map[CommandType]string)

func (t CommandType) String() string {
	return commandTypeMapping[t]
}

func init() {
	commandTypeMapping[CommandTypeGraphics] = "CommandTypeGraphics"
	commandTypeMapping[CommandTypeCompute] = "CommandTypeCompute"
	commandTypeMapping[CommandTypeTransfer] = "CommandTypeTransfer"
}

// QueryType identifies the kind of GPU query a query object collects.
type QueryType uint32

const (
	QueryTypeOcclusion QueryType = iota
	QueryTypePipelineStatistics
	QueryTypeTimestamp
)

var queryTypeMapping = make(map[QueryType]string)

func (t QueryType) String() string {
	return queryTypeMapping[t]
}

func init() {
	queryTypeMapping[QueryTypeOcclusion] = "QueryTypeOcclusion"
	queryTypeMapping[QueryTypePipelineStatistics] = "QueryTypePipelineStatistics"
	queryTypeMapping[QueryTypeTimestamp] = "QueryTypeTimestamp"
}
