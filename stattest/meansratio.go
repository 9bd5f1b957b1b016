// Copyright 2024 The Pade Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package stattest

import (
	"fmt"

	"github.com/aclements/go-moremath/stats"

	"github.com/youngorchuang/pade/layout"
	"github.com/youngorchuang/pade/tensor"
)

// A MeansRatio scores each feature with the ratio of its mean under
// the first condition to its mean under the second. Designs with a
// blocking variable are supported: the ratio is computed within each
// block and the per-block ratios are combined with the geometric
// mean. For unblocked designs, pass a block layout with a single
// group covering all samples.
//
// When symmetric (the common case), any ratio below 1 is replaced by
// its reciprocal, so the statistic is always at least 1 and does not
// depend on which condition is listed first.
type MeansRatio struct {
	condition layout.Layout
	block     layout.Layout
	alphas    []float64
	symmetric bool

	// Per-block index subsets for each of the two conditions,
	// resolved at construction time.
	c0, c1 [][]int
}

var _ Statistic = (*MeansRatio)(nil)

// NewMeansRatio constructs a means-ratio statistic. It returns
// ErrUnsupportedLayout unless condition has exactly two groups and
// every block contains at least one sample from each condition.
func NewMeansRatio(condition, block layout.Layout, alphas []float64, symmetric bool) (*MeansRatio, error) {
	if condition.NumGroups() != 2 {
		return nil, fmt.Errorf("%w: means ratio supports exactly 2 conditions, got %d", ErrUnsupportedLayout, condition.NumGroups())
	}
	if condition.NumSamples() != block.NumSamples() {
		return nil, fmt.Errorf("%w: condition layout has %d indexes, block layout has %d", layout.ErrInvalidLayout, condition.NumSamples(), block.NumSamples())
	}
	inCond := make(map[int]int)
	for c := 0; c < 2; c++ {
		for _, ix := range condition.Group(c) {
			inCond[ix] = c
		}
	}
	m := &MeansRatio{
		condition: condition,
		block:     block,
		alphas:    append([]float64(nil), alphas...),
		symmetric: symmetric,
	}
	for b := 0; b < block.NumGroups(); b++ {
		var c0, c1 []int
		for _, ix := range block.Group(b) {
			c, ok := inCond[ix]
			if !ok {
				return nil, fmt.Errorf("%w: block index %d is not assigned to either condition", layout.ErrInvalidLayout, ix)
			}
			if c == 0 {
				c0 = append(c0, ix)
			} else {
				c1 = append(c1, ix)
			}
		}
		if len(c0) == 0 || len(c1) == 0 {
			return nil, fmt.Errorf("%w: block %d has no samples for one of the conditions", ErrUnsupportedLayout, b)
		}
		m.c0 = append(m.c0, c0)
		m.c1 = append(m.c1, c1)
	}
	return m, nil
}

// Name implements Statistic.
func (m *MeansRatio) Name() string { return "means ratio" }

// Eval implements Statistic.
func (m *MeansRatio) Eval(data tensor.Tensor) (tensor.Tensor, error) {
	if err := checkSamples(data, m.condition.NumSamples()); err != nil {
		return tensor.Tensor{}, err
	}
	if m.alphas == nil {
		res := data.DropLast()
		m.evalAlpha(data, 0, res.Values())
		return res, nil
	}
	res := data.DropLast().PrependAxis(len(m.alphas))
	rv := res.Values()
	block := data.Rows()
	for k, alpha := range m.alphas {
		m.evalAlpha(data, alpha, rv[k*block:(k+1)*block])
	}
	return res, nil
}

// evalAlpha fills out with the per-feature statistic, offsetting both
// condition means by alpha.
func (m *MeansRatio) evalAlpha(data tensor.Tensor, alpha float64, out []float64) {
	ratios := make([]float64, len(m.c0))
	for r := 0; r < data.Rows(); r++ {
		row := data.Row(r)
		for b := range m.c0 {
			ratios[b] = (meanAt(row, m.c0[b]) + alpha) / (meanAt(row, m.c1[b]) + alpha)
		}
		v := ratios[0]
		if len(ratios) > 1 {
			v = stats.GeoMean(ratios)
		}
		if m.symmetric && v < 1 {
			v = 1 / v
		}
		out[r] = v
	}
}

func meanAt(row []float64, idx []int) float64 {
	sum := 0.0
	for _, ix := range idx {
		sum += row[ix]
	}
	return sum / float64(len(idx))
}
