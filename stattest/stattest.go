// Copyright 2024 The Pade Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package stattest provides the test statistics scored for each
// feature of an expression data tensor.
//
// This package is opinionated in the same way for every statistic:
// a Statistic is a stateless evaluator, parameterized by one or two
// layouts at construction time, that maps a data tensor to a tensor
// of statistic values with the sample axis collapsed and all leading
// axes preserved. Because the contract is uniform, the resampler in
// package resample can drive any of them interchangeably.
//
// Every statistic accepts an optional slice of tuning parameters
// ("alphas"). When present, each alpha is added to the denominator of
// the statistic before the ratio is taken, and the result gains a new
// leading axis of length len(alphas), one slice per parameter. This
// is a sensitivity sweep: larger alphas damp features whose
// denominators are small by chance.
package stattest

import (
	"errors"
	"fmt"
	"math"

	"github.com/youngorchuang/pade/tensor"
)

// ErrUnsupportedLayout is returned by a constructor when a
// statistic's structural precondition on group sizes or group count
// is violated. The error is fatal to constructing that evaluator;
// there is nothing to retry.
var ErrUnsupportedLayout = errors.New("unsupported layout")

// A Statistic scores each feature of a data tensor.
type Statistic interface {
	// Name returns the human-readable name of the statistic.
	Name() string

	// Eval returns the statistic values for data. The sample
	// (last) axis is collapsed and leading axes are preserved;
	// if the statistic was constructed with tuning parameters,
	// the result gains a leading axis of length len(alphas).
	//
	// Eval is pure: calling it twice on the same input yields
	// identical output. It returns tensor.ErrShape if the sample
	// axis of data does not match the statistic's layouts.
	Eval(data tensor.Tensor) (tensor.Tensor, error)
}

// ratioSweep divides numer by denom element-wise, optionally taking
// absolute values, with each alpha added to denom first. numer and
// denom must have identical shapes. With no alphas the result has
// their shape; otherwise it gains a leading axis of length
// len(alphas).
func ratioSweep(numer, denom tensor.Tensor, alphas []float64, abs bool) tensor.Tensor {
	nv, dv := numer.Values(), denom.Values()
	if alphas == nil {
		res := numer.Clone()
		rv := res.Values()
		for i := range rv {
			rv[i] = nv[i] / dv[i]
			if abs {
				rv[i] = math.Abs(rv[i])
			}
		}
		return res
	}
	res := numer.PrependAxis(len(alphas))
	rv := res.Values()
	block := len(nv)
	for k, alpha := range alphas {
		out := rv[k*block : (k+1)*block]
		for i := range out {
			out[i] = nv[i] / (dv[i] + alpha)
			if abs {
				out[i] = math.Abs(out[i])
			}
		}
	}
	return res
}

// checkSamples verifies that the sample axis of data has length n.
func checkSamples(data tensor.Tensor, n int) error {
	if data.NDim() == 0 || data.LastLen() != n {
		return fmt.Errorf("%w: data sample axis does not match layout with %d indexes", tensor.ErrShape, n)
	}
	return nil
}
