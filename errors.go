package prone

import (
	"errors"
	"fmt"

	"github.com/hupe1980/prone/internal/coreset"
	"github.com/hupe1980/prone/internal/dataset"
	"github.com/hupe1980/prone/internal/kmeans"
	"github.com/hupe1980/prone/internal/resource"
)

var (
	// ErrInvalidInput is returned for arguments that violate a precondition:
	// k outside [1, n], m < 1, empty, ragged or non-finite input, or
	// invalid options. It is reported before any computation starts.
	ErrInvalidInput = errors.New("invalid input")

	// ErrDegenerateInput is returned when a coreset cannot be built because
	// the reference clustering has zero total cost or an empty cluster.
	ErrDegenerateInput = errors.New("degenerate input")

	// ErrConvergenceNotReached is returned together with a usable result
	// when WithStrictConvergence is set and refinement stopped at the
	// iteration cap or left a cluster empty.
	ErrConvergenceNotReached = errors.New("convergence not reached")

	// ErrMemoryLimitExceeded is returned when the buffers of a call do not
	// fit in the budget set with WithMemoryLimit.
	ErrMemoryLimitExceeded = errors.New("memory limit exceeded")
)

// ErrDimensionMismatch indicates a row whose length differs from the first row.
//
// It matches ErrInvalidInput with errors.Is.
type ErrDimensionMismatch struct {
	Row      int
	Expected int
	Actual   int
	cause    error
}

func (e *ErrDimensionMismatch) Error() string {
	return fmt.Sprintf("dimension mismatch at row %d: expected %d, got %d", e.Row, e.Expected, e.Actual)
}

func (e *ErrDimensionMismatch) Unwrap() []error { return unwrapInvalid(e.cause) }

// ErrNonFinite indicates a NaN or infinite input value.
//
// It matches ErrInvalidInput with errors.Is.
type ErrNonFinite struct {
	Row   int
	Col   int
	cause error
}

func (e *ErrNonFinite) Error() string {
	return fmt.Sprintf("non-finite value at row %d, column %d", e.Row, e.Col)
}

func (e *ErrNonFinite) Unwrap() []error { return unwrapInvalid(e.cause) }

func unwrapInvalid(cause error) []error {
	if cause == nil {
		return []error{ErrInvalidInput}
	}
	return []error{ErrInvalidInput, cause}
}

func invalidf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}

func translateError(err error) error {
	if err == nil {
		return nil
	}

	var rr *dataset.RaggedRowError
	if errors.As(err, &rr) {
		return &ErrDimensionMismatch{Row: rr.Row, Expected: rr.Expected, Actual: rr.Actual, cause: err}
	}
	var nf *dataset.NonFiniteError
	if errors.As(err, &nf) {
		return &ErrNonFinite{Row: nf.Row, Col: nf.Col, cause: err}
	}
	if errors.Is(err, dataset.ErrEmpty) || errors.Is(err, kmeans.ErrInvalidK) {
		return fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}

	if errors.Is(err, coreset.ErrZeroCost) ||
		errors.Is(err, coreset.ErrEmptyCluster) ||
		errors.Is(err, coreset.ErrInvalidDistribution) {
		return fmt.Errorf("%w: %w", ErrDegenerateInput, err)
	}

	if errors.Is(err, resource.ErrMemoryLimitExceeded) {
		return fmt.Errorf("%w: %w", ErrMemoryLimitExceeded, err)
	}

	return err
}
