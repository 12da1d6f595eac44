package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clustering() *Clustering {
	return &Clustering{
		Centers:    [][]float64{{0, 0.5}, {10, 0.5}},
		Assignment: []int{0, 0, 1, 1, 0},
		TotalCost:  1,
	}
}

func TestClustering_Shape(t *testing.T) {
	c := clustering()
	assert.Equal(t, 2, c.K())
	assert.Equal(t, 2, c.Dim())

	m := c.CenterMatrix()
	require.NotNil(t, m)
	r, cols := m.Dims()
	assert.Equal(t, 2, r)
	assert.Equal(t, 2, cols)
	assert.Equal(t, 10.0, m.At(1, 0))

	// The matrix owns its data.
	m.Set(0, 0, 42)
	assert.Equal(t, 0.0, c.Centers[0][0])

	assert.Nil(t, (&Clustering{}).CenterMatrix())
	assert.Equal(t, 0, (&Clustering{}).Dim())
}

func TestClustering_Members(t *testing.T) {
	c := clustering()

	assert.Equal(t, []uint32{0, 1, 4}, c.Members(0).ToArray())
	assert.Equal(t, []uint32{2, 3}, c.Members(1).ToArray())
	assert.True(t, c.Members(5).IsEmpty())

	parts := c.Partition()
	require.Len(t, parts, 2)
	assert.Equal(t, c.Members(0).ToArray(), parts[0].ToArray())
	assert.Equal(t, c.Members(1).ToArray(), parts[1].ToArray())
}

func TestClustering_Validate(t *testing.T) {
	c := clustering()
	require.NoError(t, c.Validate(5))
	assert.ErrorIs(t, c.Validate(4), ErrInvalid)

	c.Assignment[1] = 2
	assert.ErrorIs(t, c.Validate(5), ErrInvalid)

	c = clustering()
	c.Centers[1] = []float64{1}
	assert.ErrorIs(t, c.Validate(5), ErrInvalid)
}

func TestCoreset_Compact(t *testing.T) {
	cs := &Coreset{
		Indices:       []int{7, 2, 7, 0, 2, 7},
		Weights:       []float64{1, 2, 1, 4, 2, 1},
		Probabilities: []float64{0.1, 0.2, 0.1, 0.3, 0.2, 0.1},
	}

	assert.Equal(t, 6, cs.Len())
	assert.Equal(t, 11.0, cs.TotalWeight())
	assert.Equal(t, []uint32{0, 2, 7}, cs.Distinct().ToArray())

	compact := cs.Compact()
	assert.Equal(t, []int{0, 2, 7}, compact.Indices)
	assert.Equal(t, []float64{4, 4, 3}, compact.Weights)
	assert.Empty(t, compact.Probabilities)
	assert.Equal(t, cs.TotalWeight(), compact.TotalWeight())
}

func TestCoreset_Points(t *testing.T) {
	points := [][]float64{{0}, {1}, {2}}
	cs := &Coreset{Indices: []int{2, 0, 2}, Weights: []float64{1, 1, 1}}

	assert.Equal(t, [][]float64{{2}, {0}, {2}}, cs.Points(points))
}

func TestCoreset_Validate(t *testing.T) {
	cs := &Coreset{Indices: []int{0, 2}, Weights: []float64{1, 0.5}}
	require.NoError(t, cs.Validate(3))

	assert.ErrorIs(t, cs.Validate(2), ErrInvalid)

	cs.Weights[1] = 0
	assert.ErrorIs(t, cs.Validate(3), ErrInvalid)

	cs = &Coreset{Indices: []int{0}, Weights: nil}
	assert.ErrorIs(t, cs.Validate(3), ErrInvalid)

	cs = &Coreset{Indices: []int{0}, Weights: []float64{1}, Probabilities: []float64{0.1, 0.2}}
	assert.ErrorIs(t, cs.Validate(3), ErrInvalid)
}
