// Copyright 2024 The Pade Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package layout

import (
	"fmt"

	"gonum.org/v1/gonum/floats"

	"github.com/youngorchuang/pade/tensor"
)

// checkData verifies that the sample axis of data matches the index
// count of l.
func checkData(data tensor.Tensor, l Layout) error {
	if data.NDim() == 0 || data.LastLen() != l.NumSamples() {
		return fmt.Errorf("%w: data sample axis has length %d, layout has %d indexes", tensor.ErrShape, lastLenOrZero(data), l.NumSamples())
	}
	return nil
}

func lastLenOrZero(data tensor.Tensor) int {
	if data.NDim() == 0 {
		return 0
	}
	return data.LastLen()
}

// Apply splits data into one tensor per group of l, gathering the
// columns of each group along the sample axis. Leading axes are
// preserved.
func Apply(data tensor.Tensor, l Layout) ([]tensor.Tensor, error) {
	if err := checkData(data, l); err != nil {
		return nil, err
	}
	parts := make([]tensor.Tensor, l.NumGroups())
	for i, g := range l.groups {
		parts[i] = data.TakeLast(g)
	}
	return parts, nil
}

// GroupMeans returns, for each group of l, the mean of data over that
// group's indexes along the sample axis. The result's last axis has
// length l.NumGroups().
func GroupMeans(data tensor.Tensor, l Layout) (tensor.Tensor, error) {
	if err := checkData(data, l); err != nil {
		return tensor.Tensor{}, err
	}
	res := data.ReplaceLast(l.NumGroups())
	for r := 0; r < data.Rows(); r++ {
		row := data.Row(r)
		out := res.Row(r)
		for i, g := range l.groups {
			sum := 0.0
			for _, ix := range g {
				sum += row[ix]
			}
			out[i] = sum / float64(len(g))
		}
	}
	return res, nil
}

// Residuals subtracts each group's mean from its members, returning a
// tensor shaped like data.
func Residuals(data tensor.Tensor, l Layout) (tensor.Tensor, error) {
	means, err := GroupMeans(data, l)
	if err != nil {
		return tensor.Tensor{}, err
	}
	res := data.Clone()
	for r := 0; r < data.Rows(); r++ {
		row := res.Row(r)
		m := means.Row(r)
		for i, g := range l.groups {
			for _, ix := range g {
				row[ix] -= m[i]
			}
		}
	}
	return res, nil
}

// GroupRSS returns, per leading-axis element, the sum of squared
// residuals of data under l. The sample axis is collapsed.
func GroupRSS(data tensor.Tensor, l Layout) (tensor.Tensor, error) {
	resid, err := Residuals(data, l)
	if err != nil {
		return tensor.Tensor{}, err
	}
	res := data.DropLast()
	out := res.Values()
	for r := 0; r < resid.Rows(); r++ {
		row := resid.Row(r)
		out[r] = floats.Dot(row, row)
	}
	return res, nil
}
