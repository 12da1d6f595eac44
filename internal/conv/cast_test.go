//go:build amd64 || arm64

package conv

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIntToUint32(t *testing.T) {
	t.Run("valid zero", func(t *testing.T) {
		got, err := IntToUint32(0)
		assert.NoError(t, err)
		assert.Equal(t, uint32(0), got)
	})

	t.Run("valid max", func(t *testing.T) {
		got, err := IntToUint32(math.MaxUint32)
		assert.NoError(t, err)
		assert.Equal(t, uint32(math.MaxUint32), got)
	})

	t.Run("invalid negative", func(t *testing.T) {
		_, err := IntToUint32(-1)
		assert.ErrorIs(t, err, ErrOverflow)
	})

	t.Run("invalid too large", func(t *testing.T) {
		_, err := IntToUint32(math.MaxUint32 + 1)
		assert.ErrorIs(t, err, ErrOverflow)
	})
}

func TestFitUint32(t *testing.T) {
	assert.NoError(t, FitUint32(nil))
	assert.NoError(t, FitUint32([]int{0, 1, math.MaxUint32}))

	err := FitUint32([]int{3, -2, 5})
	assert.ErrorIs(t, err, ErrOverflow)
	assert.Contains(t, err.Error(), "element 1")
}
