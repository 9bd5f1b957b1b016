// Copyright 2024 The Pade Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package resample

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"

	"github.com/youngorchuang/pade/tensor"
)

// BinsUniform returns bin edges evenly spaced between 0 and the
// maximum statistic value, one edge vector per leading-axis element
// of stats. The first edge is forced to -Inf and a terminal +Inf edge
// is appended, so every value lands in some bin. The result's last
// axis has length numBins+1, defining numBins bins.
//
// Uniform edges are a first-pass scan; a heavily skewed statistic is
// better served by BinsCustom.
func BinsUniform(numBins int, stats tensor.Tensor) tensor.Tensor {
	bins := stats.ReplaceLast(numBins + 1)
	for r := 0; r < bins.Rows(); r++ {
		edges := bins.Row(r)
		floats.Span(edges[:numBins], 0, floats.Max(stats.Row(r)))
		edges[0] = math.Inf(-1)
		edges[numBins] = math.Inf(1)
	}
	return bins
}

// BinsCustom returns bin edges placed exactly at the sorted statistic
// values plus a terminal +Inf edge, one edge vector per leading-axis
// element of stats. numBins must equal the last-axis length of stats;
// the cumulative count for bin i is then the exact tail count at the
// i'th smallest observed value.
func BinsCustom(numBins int, stats tensor.Tensor) (tensor.Tensor, error) {
	if stats.NDim() == 0 || stats.LastLen() != numBins {
		return tensor.Tensor{}, fmt.Errorf("%w: custom bins need one edge per statistic value (numBins %d, statistic axis %d)", tensor.ErrShape, numBins, lastLenOrZero(stats))
	}
	bins := stats.ReplaceLast(numBins + 1)
	for r := 0; r < bins.Rows(); r++ {
		edges := bins.Row(r)
		copy(edges, stats.Row(r))
		sort.Float64s(edges[:numBins])
		edges[numBins] = math.Inf(1)
	}
	return bins, nil
}

func lastLenOrZero(t tensor.Tensor) int {
	if t.NDim() == 0 {
		return 0
	}
	return t.LastLen()
}

// CumulativeHist counts values into bins cumulatively from the right:
// entry i of each histogram is the number of values at least as large
// as edge i. This tail-count form, not an ordinary histogram, is what
// confidence estimation needs ("how many resampled statistics are at
// least as extreme as this edge").
//
// The leading shapes of values and bins must match; one histogram is
// computed per leading-axis element, over that element's last-axis
// values, against that element's edges. Values outside the outermost
// edges are not counted, which is moot for edges built by BinsUniform
// or BinsCustom since those span the whole real line upward.
func CumulativeHist(values, bins tensor.Tensor) (tensor.Tensor, error) {
	if bins.NDim() == 0 || bins.LastLen() < 2 {
		return tensor.Tensor{}, fmt.Errorf("%w: bins must have at least two edges", tensor.ErrShape)
	}
	if values.NDim() == 0 || values.Rows() != bins.Rows() {
		return tensor.Tensor{}, fmt.Errorf("%w: values and bins disagree on leading shape", tensor.ErrShape)
	}
	nb := bins.LastLen() - 1
	res := bins.ReplaceLast(nb)
	for r := 0; r < bins.Rows(); r++ {
		edges := bins.Row(r)
		out := res.Row(r)
		for _, v := range values.Row(r) {
			if v < edges[0] || v > edges[nb] {
				continue
			}
			// Rightmost edge closes the last bin.
			j := sort.Search(nb+1, func(i int) bool { return edges[i] > v }) - 1
			if j == nb {
				j = nb - 1
			}
			out[j]++
		}
		for i := nb - 2; i >= 0; i-- {
			out[i] += out[i+1]
		}
	}
	return res, nil
}
