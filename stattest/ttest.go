// Copyright 2024 The Pade Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package stattest

import (
	"fmt"
	"math"

	"github.com/youngorchuang/pade/layout"
	"github.com/youngorchuang/pade/tensor"
)

// A OneSampleTTest scores each feature with the absolute one-sample
// t statistic |mean / (σ/√n)| along the sample axis, where σ is the
// population standard deviation. The absolute value makes the test
// two-sided: a feature scores high whether its mean is far above or
// far below zero.
type OneSampleTTest struct {
	alphas []float64
}

var _ Statistic = (*OneSampleTTest)(nil)

// NewOneSampleTTest constructs a one-sample t-test with the given
// optional tuning parameters.
func NewOneSampleTTest(alphas []float64) *OneSampleTTest {
	return &OneSampleTTest{alphas: append([]float64(nil), alphas...)}
}

// Name implements Statistic.
func (t *OneSampleTTest) Name() string { return "one-sample t-test" }

// Eval implements Statistic.
func (t *OneSampleTTest) Eval(data tensor.Tensor) (tensor.Tensor, error) {
	if data.NDim() == 0 || data.LastLen() == 0 {
		return tensor.Tensor{}, fmt.Errorf("%w: one-sample t-test needs a non-empty sample axis", tensor.ErrShape)
	}
	n := float64(data.LastLen())
	numer := data.DropLast()
	denom := data.DropLast()
	nv, dv := numer.Values(), denom.Values()
	for r := 0; r < data.Rows(); r++ {
		row := data.Row(r)
		sum := 0.0
		for _, v := range row {
			sum += v
		}
		mean := sum / n
		ss := 0.0
		for _, v := range row {
			d := v - mean
			ss += d * d
		}
		nv[r] = mean
		dv[r] = math.Sqrt(ss/n) / math.Sqrt(n)
	}
	return ratioSweep(numer, denom, t.alphas, true), nil
}

// A PairedTTest scores paired samples by taking the element-wise
// difference between the two members of each pair and applying the
// one-sample t-test to the differences. The pairing is given by a
// reduced layout whose every group holds exactly the two indexes of
// one pair.
type PairedTTest struct {
	reduced layout.Layout
	child   *OneSampleTTest
	idxA    []int
	idxB    []int
}

var _ Statistic = (*PairedTTest)(nil)

// NewPairedTTest constructs a paired-difference t-test. It returns
// ErrUnsupportedLayout unless every group of reduced has exactly two
// members.
func NewPairedTTest(reduced layout.Layout, alphas []float64) (*PairedTTest, error) {
	if !reduced.IsPaired() {
		return nil, fmt.Errorf("%w: layout %v is not paired; every group must have exactly two members", ErrUnsupportedLayout, reduced)
	}
	idxA := make([]int, reduced.NumGroups())
	idxB := make([]int, reduced.NumGroups())
	for i := 0; i < reduced.NumGroups(); i++ {
		g := reduced.Group(i)
		idxA[i], idxB[i] = g[0], g[1]
	}
	return &PairedTTest{
		reduced: reduced,
		child:   NewOneSampleTTest(alphas),
		idxA:    idxA,
		idxB:    idxB,
	}, nil
}

// Name implements Statistic.
func (t *PairedTTest) Name() string { return "paired-difference t-test" }

// Eval implements Statistic.
func (t *PairedTTest) Eval(data tensor.Tensor) (tensor.Tensor, error) {
	if err := checkSamples(data, t.reduced.NumSamples()); err != nil {
		return tensor.Tensor{}, err
	}
	diffs := data.TakeLast(t.idxA)
	b := data.TakeLast(t.idxB)
	dv, bv := diffs.Values(), b.Values()
	for i := range dv {
		dv[i] -= bv[i]
	}
	return t.child.Eval(diffs)
}
