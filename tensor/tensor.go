// Copyright 2024 The Pade Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package tensor provides a small N-dimensional float64 array whose
// last axis indexes experimental samples.
//
// Every operation in this module acts along the last axis and
// preserves the shape and order of all leading axes. A Tensor with
// shape (M, N) is a table of M features measured across N samples; a
// Tensor with shape (A, M, N) adds a leading tuning-parameter axis,
// and so on. Operations that collapse the sample axis produce a
// Tensor whose shape is the leading shape of their input, possibly
// empty: a zero-dimensional Tensor holds exactly one value, retrieved
// with Scalar.
package tensor

import (
	"errors"
	"fmt"
)

// ErrShape is returned when the shape of a Tensor is incompatible
// with an operation, for example when the sample-axis length of a
// data tensor does not match the index count of a layout.
var ErrShape = errors.New("shape mismatch")

// A Tensor is an N-dimensional array of float64 values stored in
// row-major order. The zero Tensor is a zero-dimensional tensor
// holding no values; use New or one of the From constructors.
type Tensor struct {
	shape []int
	data  []float64
}

// New returns a Tensor of the given shape with all values zero.
// A call with no arguments returns a zero-dimensional Tensor holding
// a single zero value.
func New(shape ...int) Tensor {
	n := 1
	for _, s := range shape {
		if s < 0 {
			panic(fmt.Sprintf("tensor: negative dimension %d", s))
		}
		n *= s
	}
	return Tensor{shape: append([]int(nil), shape...), data: make([]float64, n)}
}

// FromSlice returns a Tensor of the given shape backed by a copy of
// data. It returns ErrShape if len(data) does not equal the product
// of the dimensions.
func FromSlice(data []float64, shape ...int) (Tensor, error) {
	n := 1
	for _, s := range shape {
		n *= s
	}
	if len(data) != n {
		return Tensor{}, fmt.Errorf("%w: %d values for shape %v", ErrShape, len(data), shape)
	}
	t := Tensor{shape: append([]int(nil), shape...), data: make([]float64, len(data))}
	copy(t.data, data)
	return t, nil
}

// FromMatrix returns a two-dimensional Tensor from rows of equal
// length. It returns ErrShape if the rows are ragged.
func FromMatrix(rows [][]float64) (Tensor, error) {
	if len(rows) == 0 {
		return New(0, 0), nil
	}
	n := len(rows[0])
	t := New(len(rows), n)
	for i, row := range rows {
		if len(row) != n {
			return Tensor{}, fmt.Errorf("%w: row %d has %d values, want %d", ErrShape, i, len(row), n)
		}
		copy(t.Row(i), row)
	}
	return t, nil
}

// Vec returns a one-dimensional Tensor backed by a copy of data.
func Vec(data ...float64) Tensor {
	t := New(len(data))
	copy(t.data, data)
	return t
}

// Shape returns a copy of the tensor's dimensions. It is empty for a
// zero-dimensional Tensor.
func (t Tensor) Shape() []int {
	return append([]int(nil), t.shape...)
}

// NDim returns the number of dimensions.
func (t Tensor) NDim() int { return len(t.shape) }

// Len returns the total number of values.
func (t Tensor) Len() int { return len(t.data) }

// LastLen returns the length of the last (sample) axis. It panics on
// a zero-dimensional Tensor.
func (t Tensor) LastLen() int {
	if len(t.shape) == 0 {
		panic("tensor: LastLen of zero-dimensional tensor")
	}
	return t.shape[len(t.shape)-1]
}

// Rows returns the product of the leading (non-sample) dimensions.
// Together with LastLen it describes the rows×columns flattening that
// per-feature operations iterate over.
func (t Tensor) Rows() int {
	if len(t.shape) == 0 {
		return 1
	}
	n := 1
	for _, s := range t.shape[:len(t.shape)-1] {
		n *= s
	}
	return n
}

// Row returns the i'th row of the rows×LastLen flattening of t. The
// returned slice shares storage with t.
func (t Tensor) Row(i int) []float64 {
	n := t.LastLen()
	return t.data[i*n : (i+1)*n : (i+1)*n]
}

// Values returns the underlying storage of t in row-major order. The
// returned slice shares storage with t.
func (t Tensor) Values() []float64 { return t.data }

// Scalar returns the single value held by a Tensor with exactly one
// element, regardless of its dimensionality.
func (t Tensor) Scalar() float64 {
	if len(t.data) != 1 {
		panic(fmt.Sprintf("tensor: Scalar of tensor with %d values", len(t.data)))
	}
	return t.data[0]
}

// Clone returns a deep copy of t.
func (t Tensor) Clone() Tensor {
	c := Tensor{shape: append([]int(nil), t.shape...), data: make([]float64, len(t.data))}
	copy(c.data, t.data)
	return c
}

// LeadingShape returns the shape of t with the last axis removed.
func (t Tensor) LeadingShape() []int {
	if len(t.shape) == 0 {
		return nil
	}
	return append([]int(nil), t.shape[:len(t.shape)-1]...)
}

// ReplaceLast returns a zero Tensor whose leading axes match t and
// whose last axis has length n. It is the shape of a per-group or
// per-bin reduction of t.
func (t Tensor) ReplaceLast(n int) Tensor {
	return New(append(t.LeadingShape(), n)...)
}

// DropLast returns a zero Tensor shaped like t with the last axis
// removed, the shape of a statistic that collapses the sample axis.
func (t Tensor) DropLast() Tensor {
	return New(t.LeadingShape()...)
}

// PrependAxis returns a zero Tensor shaped like t with a new leading
// axis of length n, the shape of a result swept across n tuning
// parameters. Block i of the result (a window of t.Len() values)
// corresponds to parameter i.
func (t Tensor) PrependAxis(n int) Tensor {
	return New(append([]int{n}, t.shape...)...)
}

// TakeLast returns a Tensor whose last axis is the columns of t at
// idx, in order. Leading axes are preserved. Indexes may repeat; this
// is how bootstrap resampling with replacement is expressed.
func (t Tensor) TakeLast(idx []int) Tensor {
	res := t.ReplaceLast(len(idx))
	n := t.LastLen()
	for r := 0; r < t.Rows(); r++ {
		src := t.Row(r)
		dst := res.Row(r)
		for j, ix := range idx {
			if ix < 0 || ix >= n {
				panic(fmt.Sprintf("tensor: index %d out of range [0, %d)", ix, n))
			}
			dst[j] = src[ix]
		}
	}
	return res
}

// AddTaken returns base plus the columns of resid gathered at idx:
// result[..., j] = base[..., j] + resid[..., idx[j]]. It is the
// reconstruction step of the residual bootstrap, where base holds
// model-predicted values and resid the residuals, so that base+resid
// at the identity indexes recovers the original observations.
// It returns ErrShape unless base and resid have identical shapes and
// len(idx) equals their sample-axis length.
func AddTaken(base, resid Tensor, idx []int) (Tensor, error) {
	if !sameShape(base.shape, resid.shape) {
		return Tensor{}, fmt.Errorf("%w: base %v vs residuals %v", ErrShape, base.shape, resid.shape)
	}
	if len(idx) != base.LastLen() {
		return Tensor{}, fmt.Errorf("%w: %d indexes for sample axis of length %d", ErrShape, len(idx), base.LastLen())
	}
	res := base.Clone()
	for r := 0; r < base.Rows(); r++ {
		rrow := resid.Row(r)
		drow := res.Row(r)
		for j, ix := range idx {
			drow[j] += rrow[ix]
		}
	}
	return res, nil
}

func sameShape(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
