package device

import (
	"time"

	"github.com/vkngwrapper/core/v2/common"
	"github.com/vkngwrapper/core/v2/core1_0"
	"github.com/vkngwrapper/easel/gfxutils"
	"github.com/vkngwrapper/easel/internal/utils"
	"golang.org/x/exp/slog"
)

// Queue wraps one core1_0.Queue together with its family index and the class of
// work it accepts. Submission is serialized with a per-queue mutex unless the
// device was created externally synchronized.
type Queue struct {
	device *Device
	queue  core1_0.Queue

	familyIndex int
	commandType gfxutils.CommandType

	submitMutex utils.OptionalMutex
}

func (q *Queue) Vulkan() core1_0.Queue { return q.queue }

func (q *Queue) FamilyIndex() int { return q.familyIndex }

// CommandType is the class of work recorded against this queue.
func (q *Queue) CommandType() gfxutils.CommandType { return q.commandType }

func (q *Queue) Device() *Device { return q.device }

// Submit hands command buffers to the queue under the queue's submit mutex. fence
// may be nil.
func (q *Queue) Submit(fence core1_0.Fence, submits []core1_0.SubmitInfo) (common.VkResult, error) {
	q.submitMutex.Lock()
	defer q.submitMutex.Unlock()

	q.device.logger.Debug("Queue::Submit",
		slog.Int("FamilyIndex", q.familyIndex),
		slog.Int("SubmitCount", len(submits)),
	)

	return q.queue.Submit(fence, submits)
}

// SubmitAndWait submits command buffers and blocks until a fence created for the
// submission signals. The fence is destroyed before returning.
func (q *Queue) SubmitAndWait(timeout time.Duration, submits []core1_0.SubmitInfo) (common.VkResult, error) {
	fence, res, err := q.device.CreateFence(false)
	if err != nil {
		return res, err
	}
	defer fence.Destroy(q.device.allocationCallbacks)

	res, err = q.Submit(fence, submits)
	if err != nil {
		return res, err
	}

	return fence.Wait(timeout)
}

// WaitIdle blocks until the queue drains. It takes the submit mutex, so
// concurrent submitters cannot slip work in behind the wait.
func (q *Queue) WaitIdle() (common.VkResult, error) {
	q.submitMutex.Lock()
	defer q.submitMutex.Unlock()

	return q.queue.WaitIdle()
}

// AllocateCommandBuffer allocates one primary command buffer from the pool for
// this queue's family.
func (q *Queue) AllocateCommandBuffer() (core1_0.CommandBuffer, common.VkResult, error) {
	pool, err := q.device.commandPoolForFamily(q.familyIndex)
	if err != nil {
		return nil, core1_0.VKErrorUnknown, err
	}

	return pool.allocate()
}

// FreeCommandBuffer returns a command buffer allocated by AllocateCommandBuffer
// to its pool.
func (q *Queue) FreeCommandBuffer(commandBuffer core1_0.CommandBuffer) error {
	pool, err := q.device.commandPoolForFamily(q.familyIndex)
	if err != nil {
		return err
	}

	pool.free(commandBuffer)
	return nil
}
