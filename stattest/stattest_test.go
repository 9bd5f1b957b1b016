// Copyright 2024 The Pade Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package stattest

import (
	"errors"
	"math"
	"reflect"
	"testing"

	"github.com/youngorchuang/pade/layout"
	"github.com/youngorchuang/pade/tensor"
)

// aeq reports whether x and y are equal up to a small relative error.
func aeq(x, y float64) bool {
	if x == y {
		return true
	}
	return math.Abs(x-y) <= 1e-10*math.Max(math.Abs(x), math.Abs(y))
}

func TestFTest(t *testing.T) {
	check := func(data tensor.Tensor, full, reduced layout.Layout, want float64) {
		t.Helper()
		ft, err := NewFTest(full, reduced, nil)
		if err != nil {
			t.Fatal(err)
		}
		got, err := ft.Eval(data)
		if err != nil {
			t.Fatal(err)
		}
		for _, v := range got.Values() {
			if !aeq(v, want) {
				t.Errorf("got %v, want %v", v, want)
			}
		}
	}

	pairFull := layout.MustNew([]int{0, 1}, []int{2, 3})
	pairReduced := layout.MustNew([]int{0, 1, 2, 3})
	check(tensor.Vec(1, 2, 3, 6), pairFull, pairReduced, 3.6)
	check(tensor.Vec(2, 1, 1, 1), pairFull, pairReduced, 1.0)
	check(tensor.Vec(3, 1, 10, 4), pairFull, pairReduced, 2.5)

	// Three classes interleaved across 18 samples.
	data18 := tensor.Vec(
		6, 8, 13,
		8, 12, 9,
		4, 9, 11,
		5, 11, 8,
		3, 6, 7,
		4, 8, 12)
	var full [][]int
	for i := 0; i < 3; i++ {
		var g []int
		for j := i; j < 18; j += 3 {
			g = append(g, j)
		}
		full = append(full, g)
	}
	all := make([]int, 18)
	for i := range all {
		all[i] = i
	}
	fullL, err := layout.New(full)
	if err != nil {
		t.Fatal(err)
	}
	reducedL := layout.MustNew(all)
	check(data18, fullL, reducedL, 9.264705882352942)

	// A second feature row with the same values scores the same.
	two, err := tensor.FromSlice(append(append([]float64(nil), data18.Values()...), data18.Values()...), 2, 18)
	if err != nil {
		t.Fatal(err)
	}
	check(two, fullL, reducedL, 9.264705882352942)
}

func TestFTestAlphas(t *testing.T) {
	data := tensor.Vec(1, 2, 3, 6)
	full := layout.MustNew([]int{0, 1}, []int{2, 3})
	reduced := layout.MustNew([]int{0, 1, 2, 3})
	ft, err := NewFTest(full, reduced, []float64{0, 0.01, 0.1, 1, 3})
	if err != nil {
		t.Fatal(err)
	}
	got, err := ft.Eval(data)
	if err != nil {
		t.Fatal(err)
	}
	if want := []int{5}; !reflect.DeepEqual(got.Shape(), want) {
		t.Fatalf("got shape %v, want %v", got.Shape(), want)
	}
	// Alpha zero reproduces the plain statistic; larger alphas
	// only shrink it.
	vals := got.Values()
	if !aeq(vals[0], 3.6) {
		t.Errorf("got %v at alpha 0, want 3.6", vals[0])
	}
	for i := 1; i < len(vals); i++ {
		if vals[i] >= vals[i-1] {
			t.Errorf("statistic did not decrease with alpha: %v", vals)
		}
	}
}

func TestFTestErrors(t *testing.T) {
	reduced := layout.MustNew([]int{0, 1, 2, 3})
	if _, err := NewFTest(layout.MustNew([]int{0}, []int{1, 2, 3}), reduced, nil); !errors.Is(err, ErrUnsupportedLayout) {
		t.Errorf("got %v for singleton group, want ErrUnsupportedLayout", err)
	}
	if _, err := NewFTest(layout.MustNew([]int{0, 1}, []int{2, 3}), layout.MustNew([]int{0, 1}), nil); !errors.Is(err, layout.ErrInvalidLayout) {
		t.Errorf("got %v for mismatched sample counts, want ErrInvalidLayout", err)
	}

	ft, err := NewFTest(layout.MustNew([]int{0, 1}, []int{2, 3}), reduced, nil)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := ft.Eval(tensor.Vec(1, 2, 3)); !errors.Is(err, tensor.ErrShape) {
		t.Errorf("got %v for short sample axis, want ErrShape", err)
	}
}

func TestFTestEvalIsPure(t *testing.T) {
	data := tensor.Vec(1, 2, 3, 6)
	ft, err := NewFTest(layout.MustNew([]int{0, 1}, []int{2, 3}), layout.MustNew([]int{0, 1, 2, 3}), nil)
	if err != nil {
		t.Fatal(err)
	}
	a, err := ft.Eval(data)
	if err != nil {
		t.Fatal(err)
	}
	b, err := ft.Eval(data)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(a.Values(), b.Values()) {
		t.Errorf("repeated Eval differs: %v vs %v", a.Values(), b.Values())
	}
	if want := []float64{1, 2, 3, 6}; !reflect.DeepEqual(data.Values(), want) {
		t.Errorf("Eval mutated its input to %v", data.Values())
	}
}

func TestOneSampleTTest(t *testing.T) {
	row := []float64{2.410962, 1.897421, 2.421239, 1.798668}
	data := tensor.Vec(row...)

	tt := NewOneSampleTTest(nil)
	got, err := tt.Eval(data)
	if err != nil {
		t.Fatal(err)
	}
	if v := got.Scalar(); !aeq(v, 14.899753151800466) {
		t.Errorf("got %v, want 14.899753151800466", v)
	}

	// The tuning parameter shifts the denominator before the
	// ratio, and alpha zero matches the unswept statistic.
	tt = NewOneSampleTTest([]float64{0, 0.5, 1})
	got, err = tt.Eval(data)
	if err != nil {
		t.Fatal(err)
	}
	if want := []int{3}; !reflect.DeepEqual(got.Shape(), want) {
		t.Fatalf("got shape %v, want %v", got.Shape(), want)
	}
	wantVals := []float64{14.899753151800466, 3.315333206230542, 1.8651760886469568}
	for i, w := range wantVals {
		if v := got.Values()[i]; !aeq(v, w) {
			t.Errorf("alpha %d: got %v, want %v", i, v, w)
		}
	}
}

func TestOneSampleTTestIsTwoSided(t *testing.T) {
	tt := NewOneSampleTTest(nil)
	pos, err := tt.Eval(tensor.Vec(1, 2, 3))
	if err != nil {
		t.Fatal(err)
	}
	neg, err := tt.Eval(tensor.Vec(-1, -2, -3))
	if err != nil {
		t.Fatal(err)
	}
	if !aeq(pos.Scalar(), neg.Scalar()) {
		t.Errorf("negated data scored %v, want %v", neg.Scalar(), pos.Scalar())
	}
	if pos.Scalar() < 0 {
		t.Errorf("got negative statistic %v", pos.Scalar())
	}
}

func TestPairedTTest(t *testing.T) {
	// Pairs (0,1) and (2,3); the differences are
	// 0.513541 and 0.622571.
	data := tensor.Vec(2.410962, 1.897421, 2.421239, 1.798668)
	pairs := layout.MustNew([]int{0, 1}, []int{2, 3})
	tt, err := NewPairedTTest(pairs, nil)
	if err != nil {
		t.Fatal(err)
	}
	got, err := tt.Eval(data)
	if err != nil {
		t.Fatal(err)
	}
	if v := got.Scalar(); !aeq(v, 14.736356954735601) {
		t.Errorf("got %v, want 14.736356954735601", v)
	}

	if _, err := NewPairedTTest(layout.MustNew([]int{0, 1, 2}, []int{3, 4}), nil); !errors.Is(err, ErrUnsupportedLayout) {
		t.Errorf("got %v for non-paired layout, want ErrUnsupportedLayout", err)
	}
}

func TestMeansRatio(t *testing.T) {
	cond := layout.MustNew([]int{0, 1}, []int{2, 3})
	oneBlock := layout.MustNew([]int{0, 1, 2, 3})

	check := func(data tensor.Tensor, block layout.Layout, symmetric bool, want float64) {
		t.Helper()
		mr, err := NewMeansRatio(cond, block, nil, symmetric)
		if err != nil {
			t.Fatal(err)
		}
		got, err := mr.Eval(data)
		if err != nil {
			t.Fatal(err)
		}
		if v := got.Scalar(); !aeq(v, want) {
			t.Errorf("got %v, want %v", v, want)
		}
	}

	// Unblocked: mean(4,6)/mean(2,3) = 2.
	check(tensor.Vec(4, 6, 2, 3), oneBlock, false, 2)
	// Blocked: per-block ratios 4/2 and 6/3, geometric mean 2.
	check(tensor.Vec(4, 6, 2, 3), layout.MustNew([]int{0, 2}, []int{1, 3}), false, 2)
	// Ratios below 1 fold to their reciprocals when symmetric.
	check(tensor.Vec(2, 3, 4, 6), oneBlock, false, 0.5)
	check(tensor.Vec(2, 3, 4, 6), oneBlock, true, 2)
}

func TestMeansRatioAlphas(t *testing.T) {
	cond := layout.MustNew([]int{0, 1}, []int{2, 3})
	block := layout.MustNew([]int{0, 1, 2, 3})
	mr, err := NewMeansRatio(cond, block, []float64{0, 1}, false)
	if err != nil {
		t.Fatal(err)
	}
	got, err := mr.Eval(tensor.Vec(4, 6, 2, 3))
	if err != nil {
		t.Fatal(err)
	}
	if want := []int{2}; !reflect.DeepEqual(got.Shape(), want) {
		t.Fatalf("got shape %v, want %v", got.Shape(), want)
	}
	// Alpha 0 gives 5/2.5 = 2, alpha 1 gives 6/3.5.
	if v := got.Values()[0]; !aeq(v, 2) {
		t.Errorf("alpha 0: got %v, want 2", v)
	}
	if v := got.Values()[1]; !aeq(v, 6.0/3.5) {
		t.Errorf("alpha 1: got %v, want %v", v, 6.0/3.5)
	}
}

func TestMeansRatioErrors(t *testing.T) {
	block := layout.MustNew([]int{0, 1, 2, 3})
	if _, err := NewMeansRatio(layout.MustNew([]int{0, 1, 2, 3}), block, nil, false); !errors.Is(err, ErrUnsupportedLayout) {
		t.Errorf("got %v for one condition, want ErrUnsupportedLayout", err)
	}
	cond := layout.MustNew([]int{0, 1}, []int{2, 3})
	// A block entirely inside one condition has no ratio.
	if _, err := NewMeansRatio(cond, layout.MustNew([]int{0, 1}, []int{2, 3}), nil, false); !errors.Is(err, ErrUnsupportedLayout) {
		t.Errorf("got %v for one-condition block, want ErrUnsupportedLayout", err)
	}
	// A block naming an index outside both conditions is invalid.
	if _, err := NewMeansRatio(cond, layout.MustNew([]int{0, 4}, []int{1, 2}), nil, false); !errors.Is(err, layout.ErrInvalidLayout) {
		t.Errorf("got %v for stray block index, want ErrInvalidLayout", err)
	}
}
