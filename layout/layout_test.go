// Copyright 2024 The Pade Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package layout

import (
	"errors"
	"reflect"
	"testing"
)

func TestNew(t *testing.T) {
	checkBad := func(groups [][]int) {
		t.Helper()
		if _, err := New(groups); !errors.Is(err, ErrInvalidLayout) {
			t.Errorf("New(%v): got %v, want ErrInvalidLayout", groups, err)
		}
	}
	checkBad([][]int{{}})
	checkBad([][]int{{0, 1}, {}})
	checkBad([][]int{{-1}})
	checkBad([][]int{{0, 1}, {1, 2}})
	checkBad([][]int{{0, 0}})

	l, err := New([][]int{{0, 1}, {4, 2}})
	if err != nil {
		t.Fatal(err)
	}
	if got := l.NumGroups(); got != 2 {
		t.Errorf("got %d groups, want 2", got)
	}
	if got := l.NumSamples(); got != 4 {
		t.Errorf("got %d samples, want 4", got)
	}
	if got := l.Group(1); !reflect.DeepEqual(got, []int{4, 2}) {
		t.Errorf("got group 1 %v, want [4 2]", got)
	}
	if got := l.Sizes(); !reflect.DeepEqual(got, []int{2, 2}) {
		t.Errorf("got sizes %v, want [2 2]", got)
	}
	if got := l.Indexes(); !reflect.DeepEqual(got, []int{0, 1, 4, 2}) {
		t.Errorf("got indexes %v, want [0 1 4 2]", got)
	}

	// Layouts must be insulated from the argument slices.
	groups := [][]int{{7, 8}}
	l, err = New(groups)
	if err != nil {
		t.Fatal(err)
	}
	groups[0][0] = 99
	if got := l.Group(0)[0]; got != 7 {
		t.Errorf("got %d after mutating argument, want 7", got)
	}
}

func TestNewPartition(t *testing.T) {
	if _, err := NewPartition([][]int{{0, 1}, {2}}, 3); err != nil {
		t.Errorf("got %v for exact partition, want nil", err)
	}
	checkBad := func(groups [][]int, n int) {
		t.Helper()
		if _, err := NewPartition(groups, n); !errors.Is(err, ErrInvalidLayout) {
			t.Errorf("NewPartition(%v, %d): got %v, want ErrInvalidLayout", groups, n, err)
		}
	}
	checkBad([][]int{{0, 1}}, 3)    // too few indexes
	checkBad([][]int{{0, 1, 3}}, 3) // index out of range
}

func TestIsPaired(t *testing.T) {
	if !MustNew([]int{0, 1}, []int{2, 3}).IsPaired() {
		t.Error("pairs reported as not paired")
	}
	if MustNew([]int{0, 1, 2}, []int{3, 4}).IsPaired() {
		t.Error("triple reported as paired")
	}
	if MustNew([]int{0}).IsPaired() {
		t.Error("singleton reported as paired")
	}
}

func TestSpansOf(t *testing.T) {
	check := func(full, reduced Layout, want []Span) {
		t.Helper()
		got, err := SpansOf(full, reduced)
		if err != nil {
			t.Errorf("SpansOf(%v, %v): %v", full, reduced, err)
			return
		}
		if !reflect.DeepEqual(got, want) {
			t.Errorf("SpansOf(%v, %v): got %v, want %v", full, reduced, got, want)
		}
	}
	checkBad := func(full, reduced Layout) {
		t.Helper()
		if _, err := SpansOf(full, reduced); !errors.Is(err, ErrInvalidLayout) {
			t.Errorf("SpansOf(%v, %v): got %v, want ErrInvalidLayout", full, reduced, err)
		}
	}

	// One reduced group per full group.
	check(MustNew([]int{0, 1}, []int{2, 3}),
		MustNew([]int{0, 1}, []int{2, 3}),
		[]Span{{0, 1}, {1, 2}})
	// One reduced group covering everything.
	check(MustNew([]int{0, 1}, []int{2, 3}, []int{4, 5}),
		MustNew([]int{0, 1, 2, 3, 4, 5}),
		[]Span{{0, 3}})
	// Two reduced groups each covering two full groups.
	check(MustNew([]int{0, 1}, []int{2, 3}, []int{4, 5}, []int{6, 7}),
		MustNew([]int{0, 1, 2, 3}, []int{4, 5, 6, 7}),
		[]Span{{0, 2}, {2, 4}})

	// Reduced group cuts a full group in half.
	checkBad(MustNew([]int{0, 1, 2, 3}),
		MustNew([]int{0, 1}, []int{2, 3}))
	// Reduced layout too large for the full layout.
	checkBad(MustNew([]int{0, 1}),
		MustNew([]int{0, 1, 2, 3}))
	// Trailing full groups left uncovered.
	checkBad(MustNew([]int{0, 1}, []int{2, 3}),
		MustNew([]int{0, 1}))
}
