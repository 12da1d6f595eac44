// Package resource implements the memory budget shared by clustering runs.
//
// Every buffer a run needs (assignments, per-point costs, centers,
// sensitivities) has a size known before the first round, so the run
// reserves it upfront and fails fast when a configured limit would be
// exceeded:
//
//	rc := resource.NewController(resource.Config{
//	    MemoryLimitBytes: 1 << 30, // 1GB limit
//	})
//
//	if err := rc.AcquireMemory(8 * int64(n)); err != nil {
//	    // ErrMemoryLimitExceeded
//	}
//	defer rc.ReleaseMemory(8 * int64(n))
//
// # Nil Safety
//
// All methods handle a nil Controller gracefully - they become no-ops.
// This allows optional resource limiting without nil checks everywhere.
package resource
