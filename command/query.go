package command

import (
	"encoding/binary"

	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/core/v2/common"
	"github.com/vkngwrapper/core/v2/core1_0"
	"github.com/vkngwrapper/easel/device"
	"github.com/vkngwrapper/easel/gfxutils"
)

type querySlotState int

const (
	querySlotInitial querySlotState = iota
	querySlotReset
	querySlotActive
	querySlotEnded
	querySlotResolved
)

// Query owns a core1_0.QueryPool, a host-visible read-back buffer for its
// results, and per-slot lifecycle state. Slots move strictly through
// Reset -> Begin/WriteTimestamp -> End -> Resolve; calls out of order return
// typed errors instead of recording anything. Timestamp queries skip Begin/End.
//
// Slot state tracks what has been recorded, not what has executed; results are
// only in the read-back buffer after the submission containing Resolve has
// completed on the device.
type Query struct {
	device    *device.Device
	pool      core1_0.QueryPool
	queryType gfxutils.QueryType

	slots    []querySlotState
	readback *device.HostBuffer
}

// QueryOptions configures query creation.
type QueryOptions struct {
	Type gfxutils.QueryType
	// Count is the number of slots in the pool
	Count int
	// PipelineStatistics selects the counters collected by
	// QueryTypePipelineStatistics pools
	PipelineStatistics core1_0.QueryPipelineStatisticFlags
}

// Validate checks the structural invariants of the options. NewQuery reports
// the same problems as returned errors in every build.
func (o *QueryOptions) Validate() error {
	if o.Count < 1 {
		return errors.New("queries require at least one slot")
	}

	switch o.Type {
	case gfxutils.QueryTypeOcclusion, gfxutils.QueryTypePipelineStatistics, gfxutils.QueryTypeTimestamp:
	default:
		return errors.Newf("unknown query type %s", o.Type)
	}

	return nil
}

// NewQuery creates a query pool with a read-back buffer sized for 64-bit
// results.
func NewQuery(dev *device.Device, options QueryOptions) (*Query, common.VkResult, error) {
	gfxutils.DebugValidate(&options)

	if options.Count < 1 {
		return nil, core1_0.VKErrorUnknown, errors.New("queries require at least one slot")
	}

	var nativeType core1_0.QueryType
	switch options.Type {
	case gfxutils.QueryTypeOcclusion:
		nativeType = core1_0.QueryTypeOcclusion
	case gfxutils.QueryTypePipelineStatistics:
		nativeType = core1_0.QueryTypePipelineStatistics
	case gfxutils.QueryTypeTimestamp:
		nativeType = core1_0.QueryTypeTimestamp
	default:
		return nil, core1_0.VKErrorUnknown, errors.Newf("unknown query type %s", options.Type)
	}

	pool, res, err := dev.Vulkan().CreateQueryPool(dev.AllocationCallbacks(), core1_0.QueryPoolCreateInfo{
		QueryType:          nativeType,
		QueryCount:         options.Count,
		PipelineStatistics: options.PipelineStatistics,
	})
	if err != nil {
		return nil, res, err
	}

	readback, res, err := dev.CreateHostBuffer(options.Count*8, core1_0.BufferUsageTransferDst)
	if err != nil {
		pool.Destroy(dev.AllocationCallbacks())
		return nil, res, err
	}

	return &Query{
		device:    dev,
		pool:      pool,
		queryType: options.Type,
		slots:     make([]querySlotState, options.Count),
		readback:  readback,
	}, res, nil
}

func (q *Query) Vulkan() core1_0.QueryPool { return q.pool }

func (q *Query) Type() gfxutils.QueryType { return q.queryType }

func (q *Query) Count() int { return len(q.slots) }

func (q *Query) checkSlot(slot int) error {
	if slot < 0 || slot >= len(q.slots) {
		return errors.Wrapf(gfxutils.ErrLimitExceeded,
			"slot %d is out of range for a %d-slot query", slot, len(q.slots))
	}
	return nil
}

// Reset records a reset of a slot range, returning every covered slot to the
// reset state. Slots that are still active cannot be reset.
func (q *Query) Reset(r *Recorder, firstSlot, slotCount int) error {
	if err := q.checkSlot(firstSlot); err != nil {
		return err
	}
	if err := q.checkSlot(firstSlot + slotCount - 1); err != nil {
		return err
	}

	for slot := firstSlot; slot < firstSlot+slotCount; slot++ {
		if q.slots[slot] == querySlotActive {
			return errors.Wrapf(gfxutils.ErrQueryActive, "slot %d", slot)
		}
	}

	r.Vulkan().CmdResetQueryPool(q.pool, firstSlot, slotCount)

	for slot := firstSlot; slot < firstSlot+slotCount; slot++ {
		q.slots[slot] = querySlotReset
	}
	return nil
}

// Begin records the start of a scoped query on a reset slot. Timestamp queries
// have no scope; use WriteTimestamp instead.
func (q *Query) Begin(r *Recorder, slot int) error {
	if err := q.checkSlot(slot); err != nil {
		return err
	}
	if q.queryType == gfxutils.QueryTypeTimestamp {
		return errors.New("timestamp queries are written, not begun")
	}

	switch q.slots[slot] {
	case querySlotReset:
	case querySlotActive:
		return errors.Wrapf(gfxutils.ErrQueryActive, "slot %d", slot)
	default:
		return errors.Wrapf(gfxutils.ErrQueryNotReset, "slot %d", slot)
	}

	r.Vulkan().CmdBeginQuery(q.pool, slot, 0)

	q.slots[slot] = querySlotActive
	return nil
}

// End records the end of a scoped query begun on slot.
func (q *Query) End(r *Recorder, slot int) error {
	if err := q.checkSlot(slot); err != nil {
		return err
	}

	if q.slots[slot] != querySlotActive {
		return errors.Wrapf(gfxutils.ErrQueryNotReset, "slot %d was never begun", slot)
	}

	r.Vulkan().CmdEndQuery(q.pool, slot)

	q.slots[slot] = querySlotEnded
	return nil
}

// WriteTimestamp records a timestamp into a reset slot after stage completes.
func (q *Query) WriteTimestamp(r *Recorder, slot int, stage core1_0.PipelineStageFlags) error {
	if err := q.checkSlot(slot); err != nil {
		return err
	}
	if q.queryType != gfxutils.QueryTypeTimestamp {
		return errors.Newf("WriteTimestamp on a %s query", q.queryType)
	}
	if q.slots[slot] != querySlotReset {
		return errors.Wrapf(gfxutils.ErrQueryNotReset, "slot %d", slot)
	}

	r.Vulkan().CmdWriteTimestamp(stage, q.pool, slot)

	q.slots[slot] = querySlotEnded
	return nil
}

// Resolve records a copy of a slot range's 64-bit results into the read-back
// buffer. Every covered slot must have ended.
func (q *Query) Resolve(r *Recorder, firstSlot, slotCount int) error {
	if err := q.checkSlot(firstSlot); err != nil {
		return err
	}
	if err := q.checkSlot(firstSlot + slotCount - 1); err != nil {
		return err
	}

	for slot := firstSlot; slot < firstSlot+slotCount; slot++ {
		if q.slots[slot] != querySlotEnded {
			return errors.Wrapf(gfxutils.ErrQueryNotEnded, "slot %d", slot)
		}
	}

	r.Vulkan().CmdCopyQueryPoolResults(q.pool, firstSlot, slotCount,
		q.readback.Vulkan(), firstSlot*8, 8,
		core1_0.QueryResult64Bit|core1_0.QueryResultWait)

	for slot := firstSlot; slot < firstSlot+slotCount; slot++ {
		q.slots[slot] = querySlotResolved
	}
	return nil
}

// Data reads resolved results back from the buffer. It must only be called after
// the submission containing the Resolve has completed.
func (q *Query) Data(firstSlot, slotCount int) ([]uint64, error) {
	if err := q.checkSlot(firstSlot); err != nil {
		return nil, err
	}
	if err := q.checkSlot(firstSlot + slotCount - 1); err != nil {
		return nil, err
	}

	for slot := firstSlot; slot < firstSlot+slotCount; slot++ {
		if q.slots[slot] != querySlotResolved {
			return nil, errors.Wrapf(gfxutils.ErrQueryNotResolved, "slot %d", slot)
		}
	}

	raw := make([]byte, len(q.slots)*8)
	err := q.readback.Read(raw)
	if err != nil {
		return nil, err
	}

	results := make([]uint64, slotCount)
	for i := range results {
		results[i] = binary.LittleEndian.Uint64(raw[(firstSlot+i)*8:])
	}
	return results, nil
}

func (q *Query) Destroy() {
	q.pool.Destroy(q.device.AllocationCallbacks())
	q.readback.Destroy()
}
