// Copyright 2024 The Pade Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package resample estimates null distributions of feature
// statistics by resampling.
//
// It has three layers. The ordering enumerator computes, exactly or
// by random sampling, the distinguishable permutations of sample
// indexes consistent with a full/reduced layout pair. The Bootstrap
// driver repeatedly evaluates a statistic over resampled variants of
// a data tensor, drawing indexes with replacement (bootstrap) or
// taking them from the enumerator (permutation test). The histogram
// accumulator folds the resulting stream of statistic values into
// right-cumulative bin counts without retaining every sample, which
// is what keeps a run of a million draws in constant memory.
//
// Nothing in this package touches global random state: every sampling
// function takes an explicit *rand.Rand, so a fixed seed reproduces a
// run exactly.
package resample

import (
	"fmt"
	"math/rand"
	"sort"

	"gonum.org/v1/gonum/stat/combin"

	"github.com/youngorchuang/pade/layout"
)

// Orderings is a finite lazy sequence of index orderings. Each
// ordering is a permutation of the sample indexes of a full layout
// that is distinguishable with respect to a reduced layout. An
// Orderings is consumed once; to iterate again, reconstruct it.
type Orderings struct {
	next func() ([]int, bool)
}

// Next returns the next ordering and whether one was available. The
// returned slice is owned by the caller.
func (o *Orderings) Next() ([]int, bool) { return o.next() }

// Collect drains o and returns all remaining orderings.
func (o *Orderings) Collect() [][]int {
	var all [][]int
	for {
		ord, ok := o.Next()
		if !ok {
			return all
		}
		all = append(all, ord)
	}
}

// NumOrderings returns the number of distinguishable orderings of the
// full layout's indexes with respect to reduced. With a zero reduced
// layout the count is the multinomial coefficient of the full group
// sizes. Otherwise each reduced group confines its indexes, and the
// count is the product of the per-group multinomials over the runs of
// full-layout groups covered by each reduced group. It returns
// layout.ErrInvalidLayout if the pair cannot be reconciled.
func NumOrderings(full, reduced layout.Layout) (int, error) {
	if reduced.NumGroups() == 0 {
		return multinomial(full.Sizes()), nil
	}
	spans, err := layout.SpansOf(full, reduced)
	if err != nil {
		return 0, err
	}
	sizes := full.Sizes()
	total := 1
	for _, sp := range spans {
		total *= multinomial(sizes[sp.Start:sp.End])
	}
	return total, nil
}

// multinomial returns the number of distinct ways to assign
// sum(sizes) items into consecutive groups of the given sizes.
func multinomial(sizes []int) int {
	n := 0
	for _, k := range sizes {
		n += k
	}
	total := 1
	for _, k := range sizes {
		total *= combin.Binomial(n, k)
		n -= k
	}
	return total
}

// groupEnum enumerates every distinguishable assignment of items into
// consecutive groups of the given sizes, in combination order: the
// first group ranges over ascending combinations of the items, then
// the second group over combinations of the remainder, and so on.
type groupEnum struct {
	sizes []int
	gens  []*combin.CombinationGenerator
	avail [][]int // items not consumed by shallower levels
	pick  [][]int // items chosen at each level
	total int
	done  bool
}

func newGroupEnum(items []int, sizes []int) (*groupEnum, error) {
	total := 0
	for _, s := range sizes {
		if s <= 0 {
			return nil, fmt.Errorf("%w: non-positive group size %d", layout.ErrInvalidLayout, s)
		}
		total += s
	}
	if total != len(items) {
		return nil, fmt.Errorf("%w: %d items for group sizes summing to %d", layout.ErrInvalidLayout, len(items), total)
	}
	sorted := append([]int(nil), items...)
	sort.Ints(sorted)
	e := &groupEnum{
		sizes: sizes,
		gens:  make([]*combin.CombinationGenerator, len(sizes)),
		avail: make([][]int, len(sizes)),
		pick:  make([][]int, len(sizes)),
		total: total,
	}
	e.avail[0] = sorted
	for i := range sizes {
		e.push(i)
	}
	return e, nil
}

// push installs a fresh combination generator at level i and takes
// its first combination. The caller guarantees level i has exactly
// enough available items, so the first Next always succeeds.
func (e *groupEnum) push(i int) {
	e.gens[i] = combin.NewCombinationGenerator(len(e.avail[i]), e.sizes[i])
	if !e.gens[i].Next() {
		panic("resample: empty combination generator")
	}
	e.take(i)
}

// take records level i's current combination and recomputes the items
// available to level i+1.
func (e *groupEnum) take(i int) {
	pos := e.gens[i].Combination(nil)
	avail := e.avail[i]
	pick := make([]int, len(pos))
	used := make([]bool, len(avail))
	for j, p := range pos {
		pick[j] = avail[p]
		used[p] = true
	}
	e.pick[i] = pick
	if i+1 < len(e.sizes) {
		rest := make([]int, 0, len(avail)-len(pos))
		for j, v := range avail {
			if !used[j] {
				rest = append(rest, v)
			}
		}
		e.avail[i+1] = rest
	}
}

// next returns the current assignment flattened into one slice and
// advances the enumerator.
func (e *groupEnum) next() ([]int, bool) {
	if e.done {
		return nil, false
	}
	out := make([]int, 0, e.total)
	for _, p := range e.pick {
		out = append(out, p...)
	}
	e.advance()
	return out, true
}

func (e *groupEnum) advance() {
	for i := len(e.sizes) - 1; i >= 0; i-- {
		if e.gens[i].Next() {
			e.take(i)
			for j := i + 1; j < len(e.sizes); j++ {
				e.push(j)
			}
			return
		}
	}
	e.done = true
}

// AllOrderingsWithinGroup enumerates every distinguishable assignment
// of items into consecutive groups of the given sizes. For example,
// items {0,1,2,3} with sizes [2,2] yield exactly six assignments,
// starting [0 1 2 3] and ending [2 3 0 1]. It returns
// layout.ErrInvalidLayout if the sizes do not sum to len(items).
func AllOrderingsWithinGroup(items []int, sizes []int) (*Orderings, error) {
	e, err := newGroupEnum(items, sizes)
	if err != nil {
		return nil, err
	}
	return &Orderings{next: e.next}, nil
}

// AllOrderings enumerates every distinguishable ordering of the full
// layout's indexes with respect to reduced: within each reduced
// group, indexes range over all assignments to the run of full-layout
// groups that group covers, and the per-group enumerations are
// combined as a Cartesian product. The number of orderings equals
// NumOrderings(full, reduced).
func AllOrderings(full, reduced layout.Layout) (*Orderings, error) {
	reduced = orElseWhole(full, reduced)
	spans, err := layout.SpansOf(full, reduced)
	if err != nil {
		return nil, err
	}
	sizes := full.Sizes()

	k := reduced.NumGroups()
	makeEnum := func(i int) *groupEnum {
		e, err := newGroupEnum(reduced.Group(i), sizes[spans[i].Start:spans[i].End])
		if err != nil {
			// SpansOf already validated the size alignment.
			panic(err)
		}
		return e
	}
	enums := make([]*groupEnum, k)
	cur := make([][]int, k)
	for i := 0; i < k; i++ {
		enums[i] = makeEnum(i)
		cur[i], _ = enums[i].next()
	}

	done := false
	next := func() ([]int, bool) {
		if done {
			return nil, false
		}
		out := make([]int, 0, full.NumSamples())
		for _, c := range cur {
			out = append(out, c...)
		}
		// Advance the odometer, rightmost component fastest.
		for i := k - 1; ; i-- {
			if i < 0 {
				done = true
				break
			}
			if c, ok := enums[i].next(); ok {
				cur[i] = c
				break
			}
			enums[i] = makeEnum(i)
			cur[i], _ = enums[i].next()
		}
		return out, true
	}
	return &Orderings{next: next}, nil
}

// RandomOrdering returns one random ordering: the indexes within each
// group of reduced are shuffled independently and the groups are
// concatenated in order.
func RandomOrdering(reduced layout.Layout, rng *rand.Rand) []int {
	out := make([]int, 0, reduced.NumSamples())
	for i := 0; i < reduced.NumGroups(); i++ {
		g := reduced.Group(i)
		rng.Shuffle(len(g), func(a, b int) { g[a], g[b] = g[b], g[a] })
		out = append(out, g...)
	}
	return out
}

// maxDrawFactor bounds rejection sampling in RandomOrderings: after
// maxDrawFactor*R random draws the sequence ends early rather than
// spinning, which can otherwise happen when R is close to the true
// number of distinguishable orderings.
const maxDrawFactor = 1000

// RandomOrderings returns at most R distinct orderings of the full
// layout's indexes with respect to reduced.
//
// If R is at least the total number of distinguishable orderings, the
// exact enumeration is returned and every ordering appears exactly
// once. Otherwise orderings are drawn at random and deduplicated, so
// no ordering is ever yielded twice; the sequence ends after R
// distinct orderings, or early in the unlikely event that
// maxDrawFactor*R consecutive draws fail to produce R distinct ones.
func RandomOrderings(full, reduced layout.Layout, R int, rng *rand.Rand) (*Orderings, error) {
	total, err := NumOrderings(full, reduced)
	if err != nil {
		return nil, err
	}
	if R >= total {
		return AllOrderings(full, reduced)
	}

	reduced = orElseWhole(full, reduced)
	seen := make(map[string]bool, R)
	yielded, attempts := 0, 0
	next := func() ([]int, bool) {
		for yielded < R && attempts < maxDrawFactor*R {
			attempts++
			ord := RandomOrdering(reduced, rng)
			key := orderingKey(ord)
			if seen[key] {
				continue
			}
			seen[key] = true
			yielded++
			return ord, true
		}
		return nil, false
	}
	return &Orderings{next: next}, nil
}

// orElseWhole substitutes a single-group layout over all of full's
// indexes when reduced is the zero layout.
func orElseWhole(full, reduced layout.Layout) layout.Layout {
	if reduced.NumGroups() > 0 || full.NumGroups() == 0 {
		return reduced
	}
	whole, err := layout.New([][]int{full.Indexes()})
	if err != nil {
		panic(err)
	}
	return whole
}

// orderingKey builds a map key identifying an ordering.
func orderingKey(ord []int) string {
	buf := make([]byte, 0, 3*len(ord))
	for _, ix := range ord {
		buf = append(buf, byte(ix), byte(ix>>8), byte(ix>>16))
	}
	return string(buf)
}
