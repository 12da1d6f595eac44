package arena

import (
	"errors"
	"unsafe"
)

// ErrFreed is returned when allocating from an arena after Free.
var ErrFreed = errors.New("arena: already freed")

// MemoryAcquirer is an interface for acquiring memory.
type MemoryAcquirer interface {
	AcquireMemory(amount int64) error
	ReleaseMemory(amount int64)
}

// Stats tracks arena usage.
type Stats struct {
	BytesReserved uint64 // Current: bytes charged against the acquirer
	TotalAllocs   uint64 // Historical: total allocations
}

// Arena allocates typed buffers and accounts for them in bulk.
type Arena struct {
	mem   MemoryAcquirer
	stats Stats
	freed bool
}

// New creates an arena charging allocations to mem. mem may be nil.
func New(mem MemoryAcquirer) *Arena {
	return &Arena{mem: mem}
}

func (a *Arena) reserve(bytes int64) error {
	if a.freed {
		return ErrFreed
	}
	if a.mem != nil {
		if err := a.mem.AcquireMemory(bytes); err != nil {
			return err
		}
	}
	a.stats.BytesReserved += uint64(bytes)
	a.stats.TotalAllocs++
	return nil
}

// Float64s returns a zeroed []float64 of length n.
func (a *Arena) Float64s(n int) ([]float64, error) {
	if err := a.reserve(int64(n) * int64(unsafe.Sizeof(float64(0)))); err != nil {
		return nil, err
	}
	return make([]float64, n), nil
}

// Ints returns a zeroed []int of length n.
func (a *Arena) Ints(n int) ([]int, error) {
	if err := a.reserve(int64(n) * int64(unsafe.Sizeof(int(0)))); err != nil {
		return nil, err
	}
	return make([]int, n), nil
}

// Bools returns a zeroed []bool of length n.
func (a *Arena) Bools(n int) ([]bool, error) {
	if err := a.reserve(int64(n)); err != nil {
		return nil, err
	}
	return make([]bool, n), nil
}

// Stats returns the current usage.
func (a *Arena) Stats() Stats {
	return a.stats
}

// Free releases every reservation made through the arena.
// Buffers stay valid for the garbage collector; only the accounting ends.
// Free is idempotent.
func (a *Arena) Free() {
	if a.freed {
		return
	}
	a.freed = true
	if a.mem != nil {
		a.mem.ReleaseMemory(int64(a.stats.BytesReserved))
	}
	a.stats.BytesReserved = 0
}
