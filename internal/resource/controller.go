package resource

import (
	"errors"
	"sync/atomic"

	"golang.org/x/sync/semaphore"
)

// ErrMemoryLimitExceeded is returned when a reservation would exceed the memory limit.
var ErrMemoryLimitExceeded = errors.New("memory limit exceeded")

// Config holds resource limits.
type Config struct {
	// MemoryLimitBytes is the hard limit for buffers reserved through the controller.
	// If 0, no hard limit is enforced (only tracking).
	MemoryLimitBytes int64
}

// Controller tracks and limits the memory used by clustering buffers.
type Controller struct {
	cfg Config

	memSem  *semaphore.Weighted // nil if unlimited
	memUsed atomic.Int64
	memPeak atomic.Int64
}

// NewController creates a new resource controller.
func NewController(cfg Config) *Controller {
	c := &Controller{cfg: cfg}

	if cfg.MemoryLimitBytes > 0 {
		c.memSem = semaphore.NewWeighted(cfg.MemoryLimitBytes)
	}

	return c
}

// AcquireMemory attempts to reserve memory.
// Returns ErrMemoryLimitExceeded if limit would be exceeded.
// Non-blocking: a clustering run sizes its buffers upfront, so waiting for
// another run to release memory is left to the caller.
func (c *Controller) AcquireMemory(bytes int64) error {
	if c == nil {
		return nil
	}
	if bytes <= 0 {
		return nil
	}

	if c.memSem != nil {
		if !c.memSem.TryAcquire(bytes) {
			return ErrMemoryLimitExceeded
		}
	}

	used := c.memUsed.Add(bytes)
	for {
		peak := c.memPeak.Load()
		if used <= peak || c.memPeak.CompareAndSwap(peak, used) {
			break
		}
	}
	return nil
}

// ReleaseMemory releases reserved memory.
func (c *Controller) ReleaseMemory(bytes int64) {
	if c == nil {
		return
	}
	if bytes <= 0 {
		return
	}

	if c.memSem != nil {
		c.memSem.Release(bytes)
	}
	c.memUsed.Add(-bytes)
}

// MemoryUsage returns the current memory usage in bytes.
func (c *Controller) MemoryUsage() int64 {
	if c == nil {
		return 0
	}
	return c.memUsed.Load()
}

// PeakMemoryUsage returns the highest observed memory usage in bytes.
func (c *Controller) PeakMemoryUsage() int64 {
	if c == nil {
		return 0
	}
	return c.memPeak.Load()
}

// MemoryLimit returns the configured memory limit in bytes (0 if unlimited).
func (c *Controller) MemoryLimit() int64 {
	if c == nil {
		return 0
	}
	return c.cfg.MemoryLimitBytes
}
