// Copyright 2024 The Pade Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package layout describes how the sample axis of a data tensor is
// partitioned into experimental groups.
//
// A Layout is an ordered sequence of groups, each an ordered sequence
// of sample-axis indexes. Layouts come in full/reduced pairs: the
// full layout is the finer partition expressing the alternative
// hypothesis (for example, one group per treatment class), and the
// reduced layout is a coarser partition expressing the null (for
// example, all samples in one group). Each group of a valid reduced
// layout covers a contiguous run of full-layout groups.
//
// Layouts are immutable once constructed. The zero Layout has no
// groups; sampling and counting functions treat it as "no reduced
// layout".
package layout

import (
	"errors"
	"fmt"
)

// ErrInvalidLayout is returned when a layout's groups are malformed
// or when a full/reduced layout pair cannot be reconciled into exact
// group runs.
var ErrInvalidLayout = errors.New("invalid layout")

// A Layout is an ordered partition of sample-axis indexes into
// groups.
type Layout struct {
	groups [][]int
	n      int // total index count
}

// New constructs a Layout from groups of sample indexes. Each group
// must be non-empty, and no index may be negative or appear in more
// than one group. The groups are copied; later mutation of the
// argument does not affect the Layout.
func New(groups [][]int) (Layout, error) {
	seen := make(map[int]bool)
	n := 0
	cp := make([][]int, len(groups))
	for i, g := range groups {
		if len(g) == 0 {
			return Layout{}, fmt.Errorf("%w: group %d is empty", ErrInvalidLayout, i)
		}
		cp[i] = append([]int(nil), g...)
		for _, ix := range g {
			if ix < 0 {
				return Layout{}, fmt.Errorf("%w: negative index %d in group %d", ErrInvalidLayout, ix, i)
			}
			if seen[ix] {
				return Layout{}, fmt.Errorf("%w: index %d appears in more than one group", ErrInvalidLayout, ix)
			}
			seen[ix] = true
		}
		n += len(g)
	}
	return Layout{groups: cp, n: n}, nil
}

// NewPartition is like New but additionally requires that the groups
// cover every index in [0, n) exactly once, the precondition for
// layouts that partition the full sample set.
func NewPartition(groups [][]int, n int) (Layout, error) {
	l, err := New(groups)
	if err != nil {
		return Layout{}, err
	}
	if l.n != n {
		return Layout{}, fmt.Errorf("%w: %d indexes, want %d", ErrInvalidLayout, l.n, n)
	}
	for _, g := range l.groups {
		for _, ix := range g {
			if ix >= n {
				return Layout{}, fmt.Errorf("%w: index %d out of range [0, %d)", ErrInvalidLayout, ix, n)
			}
		}
	}
	return l, nil
}

// MustNew is like New but panics on error. It is intended for
// literals in tests and examples.
func MustNew(groups ...[]int) Layout {
	l, err := New(groups)
	if err != nil {
		panic(err)
	}
	return l
}

// NumGroups returns the number of groups.
func (l Layout) NumGroups() int { return len(l.groups) }

// NumSamples returns the total number of indexes across all groups.
func (l Layout) NumSamples() int { return l.n }

// Group returns a copy of the i'th group.
func (l Layout) Group(i int) []int {
	return append([]int(nil), l.groups[i]...)
}

// Groups returns a deep copy of all groups.
func (l Layout) Groups() [][]int {
	cp := make([][]int, len(l.groups))
	for i, g := range l.groups {
		cp[i] = append([]int(nil), g...)
	}
	return cp
}

// Sizes returns the size of each group.
func (l Layout) Sizes() []int {
	s := make([]int, len(l.groups))
	for i, g := range l.groups {
		s[i] = len(g)
	}
	return s
}

// Indexes returns all indexes in group order.
func (l Layout) Indexes() []int {
	idx := make([]int, 0, l.n)
	for _, g := range l.groups {
		idx = append(idx, g...)
	}
	return idx
}

// IsPaired reports whether every group has exactly two members, the
// shape required by paired-difference statistics.
func (l Layout) IsPaired() bool {
	for _, g := range l.groups {
		if len(g) != 2 {
			return false
		}
	}
	return true
}

// String returns the groups in a compact bracketed form.
func (l Layout) String() string {
	return fmt.Sprintf("%v", l.groups)
}

// A Span is a half-open run [Start, End) of full-layout group
// positions covered by one reduced-layout group.
type Span struct {
	Start, End int
}

// SpansOf maps each group of the reduced layout to the contiguous run
// of full-layout groups whose sizes sum exactly to that group's size.
// It returns ErrInvalidLayout if any reduced group cannot be matched
// by an exact run, or if the runs do not consume every full-layout
// group.
func SpansOf(full, reduced Layout) ([]Span, error) {
	spans := make([]Span, 0, reduced.NumGroups())
	p := 0
	for i, g := range reduced.groups {
		size := 0
		q := p
		for size < len(g) {
			if q >= len(full.groups) {
				return nil, fmt.Errorf("%w: reduced group %d needs %d more indexes than the full layout provides", ErrInvalidLayout, i, len(g)-size)
			}
			size += len(full.groups[q])
			q++
		}
		if size > len(g) {
			return nil, fmt.Errorf("%w: reduced group %d of size %d does not align with full-layout group boundaries", ErrInvalidLayout, i, len(g))
		}
		spans = append(spans, Span{p, q})
		p = q
	}
	if p != len(full.groups) {
		return nil, fmt.Errorf("%w: %d trailing full-layout groups not covered by the reduced layout", ErrInvalidLayout, len(full.groups)-p)
	}
	return spans, nil
}
