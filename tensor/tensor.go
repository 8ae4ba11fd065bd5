// Copyright 2026 The Lodestar Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package tensor provides the public data containers of the Lodestar
// inference runtime: ownership-tagged byte buffers and the named,
// shaped, typed tensors passed into and out of predictors.
//
// Example:
//
//	x, _ := tensor.FromFloat32s("x", tensor.Shape{2, 3}, data)
//	outs, err := pred.Run([]tensor.Tensor{x}, -1)
package tensor

import (
	"github.com/lodestar-ml/lodestar/internal/tensor"
)

// DataType represents the element type of a boundary tensor.
type DataType = tensor.DataType

// Boundary element types.
const (
	Float32 DataType = tensor.Float32
	Int64   DataType = tensor.Int64
)

// ParseDataType maps a serialized type name back to its tag.
func ParseDataType(s string) (DataType, bool) {
	return tensor.ParseDataType(s)
}

// Shape represents the dimensions of a tensor.
// Example: Shape{2, 3} represents a 2D tensor with dimensions 2×3.
type Shape = tensor.Shape

// LoD describes nested variable-length sequence structure over a flat
// buffer; empty for dense tensors.
type LoD = tensor.LoD

// Buffer is a byte region with explicit ownership tagging: owning
// Buffers release their memory exactly once, borrowed Buffers alias
// caller-managed memory and never release it.
type Buffer = tensor.Buffer

// Buffer misuse errors.
var (
	ErrBorrowed = tensor.ErrBorrowed
	ErrOwned    = tensor.ErrOwned
)

// NewBuffer allocates n owned, zeroed bytes.
func NewBuffer(n int) Buffer { return tensor.NewBuffer(n) }

// Borrow adopts caller-managed memory without copying.
func Borrow(p []byte) Buffer { return tensor.Borrow(p) }

// Tensor is the plain data holder exchanged with predictors.
type Tensor = tensor.Tensor

// FromFloat32s builds a float32 tensor over a fresh owned buffer.
func FromFloat32s(name string, shape Shape, vals []float32) (Tensor, error) {
	return tensor.FromFloat32s(name, shape, vals)
}

// FromInt64s builds an int64 tensor over a fresh owned buffer.
func FromInt64s(name string, shape Shape, vals []int64) (Tensor, error) {
	return tensor.FromInt64s(name, shape, vals)
}

// NewOwned allocates an owned, zeroed tensor.
func NewOwned(name string, shape Shape, dtype DataType) (Tensor, error) {
	return tensor.NewOwned(name, shape, dtype)
}
