// Copyright 2024 The Pade Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package resample

import (
	"math/rand"

	"github.com/youngorchuang/pade/layout"
)

// RandomIndexes generates R random samplings of the indexes of l,
// drawing with replacement from each group independently and
// concatenating the groups in order. Each of the R rows has
// l.NumSamples() entries and is one resampled assignment of sample
// positions.
func RandomIndexes(l layout.Layout, R int, rng *rand.Rand) [][]int {
	groups := l.Groups()
	rows := make([][]int, R)
	for i := range rows {
		row := make([]int, 0, l.NumSamples())
		for _, g := range groups {
			for range g {
				row = append(row, g[rng.Intn(len(g))])
			}
		}
		rows[i] = row
	}
	return rows
}
