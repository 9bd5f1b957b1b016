// Copyright 2024 The Pade Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package stattest

import (
	"fmt"

	"github.com/youngorchuang/pade/layout"
	"github.com/youngorchuang/pade/tensor"
)

// An FTest compares the residual sum of squares of a full model
// against a reduced (null) model:
//
//	F = ((RSS_reduced − RSS_full) / (p_full − p_reduced)) /
//	    (RSS_full / (n − p_full))
//
// where p_full and p_reduced are the group counts of the two layouts
// and n is the total sample count. Large values indicate that the
// finer grouping of the full layout explains substantially more
// variance than the coarser null grouping.
type FTest struct {
	full    layout.Layout
	reduced layout.Layout
	alphas  []float64
}

var _ Statistic = (*FTest)(nil)

// NewFTest constructs an F-test for the given full/reduced layout
// pair. It returns ErrUnsupportedLayout if any group of the full
// layout has fewer than two members, since a single-member group has
// no within-group variance.
func NewFTest(full, reduced layout.Layout, alphas []float64) (*FTest, error) {
	for i, size := range full.Sizes() {
		if size < 2 {
			return nil, fmt.Errorf("%w: full-layout group %d has only %d sample; the F-test needs at least 2 per group", ErrUnsupportedLayout, i, size)
		}
	}
	if full.NumSamples() != reduced.NumSamples() {
		return nil, fmt.Errorf("%w: full layout has %d indexes, reduced has %d", layout.ErrInvalidLayout, full.NumSamples(), reduced.NumSamples())
	}
	return &FTest{full: full, reduced: reduced, alphas: append([]float64(nil), alphas...)}, nil
}

// Name implements Statistic.
func (f *FTest) Name() string { return "F-test" }

// Eval implements Statistic.
func (f *FTest) Eval(data tensor.Tensor) (tensor.Tensor, error) {
	if err := checkSamples(data, f.full.NumSamples()); err != nil {
		return tensor.Tensor{}, err
	}
	pFull := f.full.NumGroups()
	pRed := f.reduced.NumGroups()
	n := f.reduced.NumSamples()

	rssFull, err := layout.GroupRSS(data, f.full)
	if err != nil {
		return tensor.Tensor{}, err
	}
	rssRed, err := layout.GroupRSS(data, f.reduced)
	if err != nil {
		return tensor.Tensor{}, err
	}

	numer := rssRed.Clone()
	denom := rssFull.Clone()
	nv, dv := numer.Values(), denom.Values()
	fv := rssFull.Values()
	for i := range nv {
		nv[i] = (nv[i] - fv[i]) / float64(pFull-pRed)
		dv[i] = fv[i] / float64(n-pFull)
	}
	return ratioSweep(numer, denom, f.alphas, false), nil
}
