package device

import (
	"github.com/vkngwrapper/core/v2/common"
	"github.com/vkngwrapper/core/v2/core1_0"
	"github.com/vkngwrapper/easel/internal/utils"
)

// commandPool guards one core1_0.CommandPool with an allocation mutex. Pools are
// not thread-safe in the native API even when the queues they feed are used from
// separate threads.
type commandPool struct {
	device *Device
	pool   core1_0.CommandPool

	allocMutex utils.OptionalMutex
}

// commandPoolForFamily returns the pool for a queue family, creating it on first
// use.
func (d *Device) commandPoolForFamily(familyIndex int) (*commandPool, error) {
	d.poolsMutex.Lock()
	defer d.poolsMutex.Unlock()

	pool, ok := d.commandPools.Get(familyIndex)
	if ok {
		return pool, nil
	}

	vkPool, _, err := d.device.CreateCommandPool(d.allocationCallbacks, core1_0.CommandPoolCreateInfo{
		Flags:            core1_0.CommandPoolCreateResetBuffer,
		QueueFamilyIndex: familyIndex,
	})
	if err != nil {
		return nil, err
	}

	pool = &commandPool{
		device: d,
		pool:   vkPool,
	}
	pool.allocMutex.UseMutex = d.useMutex
	d.commandPools.Put(familyIndex, pool)

	return pool, nil
}

func (p *commandPool) allocate() (core1_0.CommandBuffer, common.VkResult, error) {
	p.allocMutex.Lock()
	defer p.allocMutex.Unlock()

	buffers, res, err := p.device.device.AllocateCommandBuffers(core1_0.CommandBufferAllocateInfo{
		CommandPool:        p.pool,
		Level:              core1_0.CommandBufferLevelPrimary,
		CommandBufferCount: 1,
	})
	if err != nil {
		return nil, res, err
	}

	return buffers[0], res, nil
}

func (p *commandPool) free(commandBuffer core1_0.CommandBuffer) {
	p.allocMutex.Lock()
	defer p.allocMutex.Unlock()

	p.device.device.FreeCommandBuffers([]core1_0.CommandBuffer{commandBuffer})
}

func (p *commandPool) destroy() error {
	p.pool.Destroy(p.device.allocationCallbacks)
	return nil
}
