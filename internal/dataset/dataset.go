// Package dataset holds the validated, immutable point matrix that every
// clustering stage reads from.
//
// Points are stored row-major in a single []float64 so that row i is the
// sub-slice data[i*dim:(i+1)*dim]. Construction copies the caller's values,
// which keeps the core free of aliasing with caller-owned memory.
package dataset

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

var (
	// ErrEmpty is returned when the input has no rows or no columns.
	ErrEmpty = errors.New("dataset: empty input")
)

// RaggedRowError reports a row whose length differs from the first row.
type RaggedRowError struct {
	Row      int
	Expected int
	Actual   int
}

func (e *RaggedRowError) Error() string {
	return fmt.Sprintf("dataset: row %d has %d columns, expected %d", e.Row, e.Actual, e.Expected)
}

// NonFiniteError reports a NaN or infinite value.
type NonFiniteError struct {
	Row int
	Col int
}

func (e *NonFiniteError) Error() string {
	return fmt.Sprintf("dataset: non-finite value at row %d, column %d", e.Row, e.Col)
}

// Dataset is an n x dim matrix of finite float64 values.
type Dataset struct {
	data []float64
	n    int
	dim  int
}

// FromRows copies rows into a new Dataset.
// All rows must have the same non-zero length and contain only finite values.
func FromRows(rows [][]float64) (*Dataset, error) {
	if len(rows) == 0 || len(rows[0]) == 0 {
		return nil, ErrEmpty
	}

	n, dim := len(rows), len(rows[0])
	data := make([]float64, n*dim)

	for i, row := range rows {
		if len(row) != dim {
			return nil, &RaggedRowError{Row: i, Expected: dim, Actual: len(row)}
		}
		for j, v := range row {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return nil, &NonFiniteError{Row: i, Col: j}
			}
		}
		copy(data[i*dim:], row)
	}

	return &Dataset{data: data, n: n, dim: dim}, nil
}

// FromMatrix copies a gonum matrix into a new Dataset.
func FromMatrix(m mat.Matrix) (*Dataset, error) {
	if m == nil {
		return nil, ErrEmpty
	}
	n, dim := m.Dims()
	if n == 0 || dim == 0 {
		return nil, ErrEmpty
	}

	data := make([]float64, n*dim)
	if dense, ok := m.(*mat.Dense); ok {
		raw := dense.RawMatrix()
		for i := 0; i < n; i++ {
			copy(data[i*dim:(i+1)*dim], raw.Data[i*raw.Stride:i*raw.Stride+dim])
		}
	} else {
		for i := 0; i < n; i++ {
			for j := 0; j < dim; j++ {
				data[i*dim+j] = m.At(i, j)
			}
		}
	}

	for i, v := range data {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, &NonFiniteError{Row: i / dim, Col: i % dim}
		}
	}

	return &Dataset{data: data, n: n, dim: dim}, nil
}

// Len returns the number of points.
func (d *Dataset) Len() int { return d.n }

// Dim returns the dimensionality of every point.
func (d *Dataset) Dim() int { return d.dim }

// Row returns point i. The slice aliases the dataset and must not be modified.
func (d *Dataset) Row(i int) []float64 {
	return d.data[i*d.dim : (i+1)*d.dim]
}

// Data returns the flat row-major backing slice. It must not be modified.
func (d *Dataset) Data() []float64 { return d.data }
