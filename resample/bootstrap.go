// Copyright 2024 The Pade Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package resample

import (
	"errors"
	"fmt"
	"math/rand"

	"gonum.org/v1/gonum/floats"

	"github.com/youngorchuang/pade/layout"
	"github.com/youngorchuang/pade/tensor"
)

// A StatFunc maps a data tensor to a tensor of per-feature statistic
// values with the sample axis collapsed. The Eval method of any
// stattest.Statistic satisfies this type.
type StatFunc func(data tensor.Tensor) (tensor.Tensor, error)

// Options configures a Bootstrap run. The zero value of every field
// is meaningful; see Bootstrap for how the fields interact.
type Options struct {
	// R is the number of resampling draws to generate when
	// Indexes is nil. Zero means DefaultR.
	R int

	// SampleLayout, when non-zero and Indexes is nil, restricts
	// random index generation: indexes are drawn with replacement
	// within each group independently. A zero layout draws from
	// the whole sample axis as one group.
	SampleLayout layout.Layout

	// Indexes, when non-nil, supplies the index rows directly,
	// one row per draw; R, SampleLayout, and Rand are then
	// ignored. Rows from an ordering enumerator turn the run into
	// a permutation test.
	Indexes [][]int

	// Residuals, when non-empty, switches sample construction to
	// the residual bootstrap: each draw adds the residuals at the
	// drawn indexes back onto the data tensor, so data must hold
	// model-predicted values with data+residuals equal to the
	// original observations. When empty, each draw gathers the
	// data columns at the drawn indexes.
	Residuals tensor.Tensor

	// Bins, when non-empty, holds bin edges (as built by
	// BinsUniform or BinsCustom) and switches the result to the
	// averaged cumulative histogram of the statistic stream.
	Bins tensor.Tensor

	// Rand is the random source for index generation. It must be
	// set when Indexes is nil; sampling never falls back to
	// global generator state.
	Rand *rand.Rand
}

// DefaultR is the number of draws used when Options.R is zero.
const DefaultR = 1000

var errNoRand = errors.New("resample: Options.Rand must be set when Indexes is nil")

// Bootstrap evaluates stat over repeated resamplings of data.
//
// Without bins, it returns a tensor of shape (R, statistic shape):
// one statistic evaluation per draw. With bins, it returns the
// per-bin cumulative counts averaged over all draws, shaped like a
// single CumulativeHist result; the per-draw statistics are folded
// into a running sum and never materialized together.
func Bootstrap(data tensor.Tensor, stat StatFunc, opts Options) (tensor.Tensor, error) {
	if data.NDim() == 0 {
		return tensor.Tensor{}, fmt.Errorf("%w: data must have a sample axis", tensor.ErrShape)
	}

	idxRows := opts.Indexes
	if idxRows == nil {
		if opts.Rand == nil {
			return tensor.Tensor{}, errNoRand
		}
		sl := opts.SampleLayout
		if sl.NumGroups() == 0 {
			whole := make([]int, data.LastLen())
			for i := range whole {
				whole[i] = i
			}
			var err error
			sl, err = layout.New([][]int{whole})
			if err != nil {
				return tensor.Tensor{}, err
			}
		}
		r := opts.R
		if r == 0 {
			r = DefaultR
		}
		idxRows = RandomIndexes(sl, r, opts.Rand)
	}
	for _, row := range idxRows {
		for _, ix := range row {
			if ix < 0 || ix >= data.LastLen() {
				return tensor.Tensor{}, fmt.Errorf("%w: index %d out of range for sample axis of length %d", tensor.ErrShape, ix, data.LastLen())
			}
		}
	}

	build := func(idx []int) (tensor.Tensor, error) {
		if opts.Residuals.Len() == 0 {
			return data.TakeLast(idx), nil
		}
		return tensor.AddTaken(data, opts.Residuals, idx)
	}

	var red reducer
	if opts.Bins.Len() > 0 {
		red = &binReducer{bins: opts.Bins}
	} else {
		red = &collectReducer{}
	}

	for _, idx := range idxRows {
		sample, err := build(idx)
		if err != nil {
			return tensor.Tensor{}, err
		}
		vals, err := stat(sample)
		if err != nil {
			return tensor.Tensor{}, err
		}
		if err := red.add(vals); err != nil {
			return tensor.Tensor{}, err
		}
	}
	return red.finalize()
}

// A reducer folds the stream of per-draw statistic tensors into the
// final Bootstrap result. The fold is associative, so the draw order
// does not matter beyond float summation order.
type reducer interface {
	add(vals tensor.Tensor) error
	finalize() (tensor.Tensor, error)
}

// collectReducer stacks every draw's statistics into an (R, ...)
// tensor.
type collectReducer struct {
	shape []int
	rows  [][]float64
}

func (c *collectReducer) add(vals tensor.Tensor) error {
	if c.rows == nil {
		c.shape = vals.Shape()
	} else if vals.Len() != len(c.rows[0]) {
		return fmt.Errorf("%w: statistic shape changed between draws", tensor.ErrShape)
	}
	row := make([]float64, vals.Len())
	copy(row, vals.Values())
	c.rows = append(c.rows, row)
	return nil
}

func (c *collectReducer) finalize() (tensor.Tensor, error) {
	res := tensor.New(append([]int{len(c.rows)}, c.shape...)...)
	out := res.Values()
	for i, row := range c.rows {
		copy(out[i*len(row):(i+1)*len(row)], row)
	}
	return res, nil
}

// binReducer keeps a running sum of per-draw cumulative histograms
// and finalizes to their mean. Memory is constant in the number of
// draws.
type binReducer struct {
	bins  tensor.Tensor
	sums  tensor.Tensor
	draws int
}

func (b *binReducer) add(vals tensor.Tensor) error {
	hist, err := CumulativeHist(vals, b.bins)
	if err != nil {
		return err
	}
	if b.draws == 0 {
		b.sums = hist
	} else {
		floats.Add(b.sums.Values(), hist.Values())
	}
	b.draws++
	return nil
}

func (b *binReducer) finalize() (tensor.Tensor, error) {
	if b.draws == 0 {
		return b.bins.ReplaceLast(b.bins.LastLen() - 1), nil
	}
	floats.Scale(1/float64(b.draws), b.sums.Values())
	return b.sums, nil
}
