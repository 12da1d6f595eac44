package conv

import (
	"errors"
	"fmt"
	"math"
)

// ErrOverflow is returned when a value does not fit the target type.
var ErrOverflow = errors.New("conv: integer overflow")

// IntToUint32 converts int to uint32 safely.
func IntToUint32(v int) (uint32, error) {
	if v < 0 || uint64(v) > math.MaxUint32 {
		return 0, fmt.Errorf("%w: %d does not fit in uint32", ErrOverflow, v)
	}
	return uint32(v), nil
}

// FitUint32 reports the first element of vs that does not fit in uint32.
func FitUint32(vs []int) error {
	for i, v := range vs {
		if _, err := IntToUint32(v); err != nil {
			return fmt.Errorf("element %d: %w", i, err)
		}
	}
	return nil
}
