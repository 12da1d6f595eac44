package codec

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"

	"github.com/hupe1980/prone/internal/conv"
	"github.com/hupe1980/prone/model"
)

const flagProbabilities = 1 << 0

func appendF64(b []byte, v float64) []byte {
	return binary.LittleEndian.AppendUint64(b, math.Float64bits(v))
}

// EncodeCoreset writes c as a binary frame. The reference clustering is
// not part of the frame; encode it separately with EncodeClustering.
func EncodeCoreset(w io.Writer, c *model.Coreset, comp Compression) error {
	if len(c.Indices) != len(c.Weights) {
		return fmt.Errorf("codec: %d indices but %d weights", len(c.Indices), len(c.Weights))
	}
	if err := conv.FitUint32(c.Indices); err != nil {
		return fmt.Errorf("codec: coreset indices: %w", err)
	}
	m := len(c.Indices)
	hasProbs := len(c.Probabilities) == m && m > 0

	size := 5 + m*12
	if hasProbs {
		size += m * 8
	}
	raw := make([]byte, 0, size)

	raw = binary.LittleEndian.AppendUint32(raw, uint32(m))
	var flags uint8
	if hasProbs {
		flags |= flagProbabilities
	}
	raw = append(raw, flags)

	// Columnar layout compresses better than interleaved records.
	for _, idx := range c.Indices {
		raw = binary.LittleEndian.AppendUint32(raw, uint32(idx))
	}
	for _, wt := range c.Weights {
		raw = appendF64(raw, wt)
	}
	if hasProbs {
		for _, p := range c.Probabilities {
			raw = appendF64(raw, p)
		}
	}

	return writeFrame(w, magicCoreset, raw, comp)
}

// DecodeCoreset reads a frame written by EncodeCoreset.
func DecodeCoreset(r io.Reader) (*model.Coreset, error) {
	raw, err := readFrame(r, magicCoreset)
	if err != nil {
		return nil, err
	}

	p := &payloadReader{buf: raw}
	m := p.count(12)
	flags := p.u8()

	c := &model.Coreset{
		Indices: make([]int, m),
		Weights: make([]float64, m),
	}
	for d := range c.Indices {
		c.Indices[d] = int(p.u32())
	}
	for d := range c.Weights {
		c.Weights[d] = p.f64()
	}
	if flags&flagProbabilities != 0 {
		c.Probabilities = make([]float64, m)
		for d := range c.Probabilities {
			c.Probabilities[d] = p.f64()
		}
	}

	if err := p.finish(); err != nil {
		return nil, err
	}
	return c, nil
}

// EncodeClustering writes c as a binary frame.
func EncodeClustering(w io.Writer, c *model.Clustering, comp Compression) error {
	k, dim, n := c.K(), c.Dim(), len(c.Assignment)
	if err := c.Validate(n); err != nil {
		return fmt.Errorf("codec: %w", err)
	}
	if err := conv.FitUint32([]int{k, dim, n, c.Iterations, c.Reseeds, len(c.History)}); err != nil {
		return fmt.Errorf("codec: clustering header: %w", err)
	}
	if err := conv.FitUint32(c.ClusterSizes); err != nil {
		return fmt.Errorf("codec: cluster sizes: %w", err)
	}

	raw := make([]byte, 0, 32+k*dim*8+n*12+k*4+len(c.History)*8)
	raw = binary.LittleEndian.AppendUint32(raw, uint32(k))
	raw = binary.LittleEndian.AppendUint32(raw, uint32(dim))
	for _, row := range c.Centers {
		for _, v := range row {
			raw = appendF64(raw, v)
		}
	}

	raw = binary.LittleEndian.AppendUint32(raw, uint32(n))
	for _, a := range c.Assignment {
		raw = binary.LittleEndian.AppendUint32(raw, uint32(a))
	}

	raw = binary.LittleEndian.AppendUint32(raw, uint32(len(c.Costs)))
	for _, v := range c.Costs {
		raw = appendF64(raw, v)
	}

	raw = binary.LittleEndian.AppendUint32(raw, uint32(len(c.ClusterSizes)))
	for _, s := range c.ClusterSizes {
		raw = binary.LittleEndian.AppendUint32(raw, uint32(s))
	}

	raw = binary.LittleEndian.AppendUint32(raw, uint32(len(c.History)))
	for _, v := range c.History {
		raw = appendF64(raw, v)
	}

	raw = appendF64(raw, c.TotalCost)
	raw = binary.LittleEndian.AppendUint32(raw, uint32(c.Iterations))
	raw = binary.LittleEndian.AppendUint32(raw, uint32(c.Reseeds))
	if c.Converged {
		raw = append(raw, 1)
	} else {
		raw = append(raw, 0)
	}

	return writeFrame(w, magicClustering, raw, comp)
}

// DecodeClustering reads a frame written by EncodeClustering.
func DecodeClustering(r io.Reader) (*model.Clustering, error) {
	raw, err := readFrame(r, magicClustering)
	if err != nil {
		return nil, err
	}

	p := &payloadReader{buf: raw}
	c := &model.Clustering{}

	k := p.count(0)
	dim := p.count(0)
	if p.err == nil && (dim == 0 && k > 0 || dim > 0 && k > len(p.buf)/(dim*8)) {
		return nil, fmt.Errorf("%w: %d centers of dimension %d exceed payload", ErrCorrupt, k, dim)
	}
	c.Centers = make([][]float64, k)
	for j := range c.Centers {
		row := make([]float64, dim)
		for i := range row {
			row[i] = p.f64()
		}
		c.Centers[j] = row
	}

	c.Assignment = make([]int, p.count(4))
	for i := range c.Assignment {
		c.Assignment[i] = int(p.u32())
	}

	if n := p.count(8); n > 0 {
		c.Costs = make([]float64, n)
		for i := range c.Costs {
			c.Costs[i] = p.f64()
		}
	}

	if n := p.count(4); n > 0 {
		c.ClusterSizes = make([]int, n)
		for j := range c.ClusterSizes {
			c.ClusterSizes[j] = int(p.u32())
		}
	}

	if n := p.count(8); n > 0 {
		c.History = make([]float64, n)
		for i := range c.History {
			c.History[i] = p.f64()
		}
	}

	c.TotalCost = p.f64()
	c.Iterations = int(p.u32())
	c.Reseeds = int(p.u32())
	c.Converged = p.u8() == 1

	if err := p.finish(); err != nil {
		return nil, err
	}
	if err := c.Validate(len(c.Assignment)); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCorrupt, err)
	}
	return c, nil
}
