package testutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUniformPoints(t *testing.T) {
	rng := NewRNG(4711)

	v := rng.UniformPoints(8, 32)

	assert.Equal(t, 8, len(v))
	assert.Equal(t, 32, len(v[0]))
	for _, p := range v {
		for _, x := range p {
			assert.GreaterOrEqual(t, x, 0.0)
			assert.Less(t, x, 1.0)
		}
	}
}

func TestRNG_Reset(t *testing.T) {
	rng := NewRNG(4711)
	a := rng.UniformPoints(4, 4)

	rng.Reset()
	b := rng.UniformPoints(4, 4)

	assert.Equal(t, a, b)
	assert.Equal(t, uint64(4711), rng.Seed())
}

func TestBlobs(t *testing.T) {
	rng := NewRNG(4711)

	pts, labels := rng.Blobs(100, 3, 4, 0.01)

	assert.Len(t, pts, 100)
	assert.Len(t, labels, 100)

	// Points of the same blob are close to each other.
	for i := 4; i < len(pts); i++ {
		assert.Equal(t, labels[i-4], labels[i])
		for j := range pts[i] {
			assert.InDelta(t, pts[i-4][j], pts[i][j], 0.2)
		}
	}
}

func TestSkewedBlobs(t *testing.T) {
	rng := NewRNG(4711)

	_, labels := rng.SkewedBlobs(1000, 2, 5, 0.1)

	counts := make([]int, 5)
	for _, l := range labels {
		counts[l]++
	}

	for c := range counts {
		assert.Positive(t, counts[c])
	}
	assert.Greater(t, counts[0], counts[4])
}

func TestMean(t *testing.T) {
	assert.Nil(t, Mean(nil))
	assert.InDeltaSlice(t, []float64{1, 2}, Mean([][]float64{{0, 0}, {2, 4}}), 1e-12)
}
