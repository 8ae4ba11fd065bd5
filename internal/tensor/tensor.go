package tensor

import (
	"fmt"
	"unsafe"
)

// Tensor is the named, shaped, typed view exchanged across the
// inference boundary. It is a plain data holder: construction performs
// no validation, and consistency between Shape, DType and Data is
// checked by the consuming backend, not here.
type Tensor struct {
	Name  string // variable name, may be empty for positional matching
	Shape Shape
	DType DataType
	Data  Buffer // flattened element data
	LoD   LoD    // empty for dense tensors
}

// ByteSize returns the buffer length the tensor's shape and dtype
// imply. Backends reject tensors whose Data length disagrees.
func (t *Tensor) ByteSize() int {
	return t.Shape.NumElements() * t.DType.Size()
}

// AsFloat32 reinterprets the buffer as []float32 without copying.
// Panics if the tensor's dtype is not Float32.
func (t *Tensor) AsFloat32() []float32 {
	if t.DType != Float32 {
		panic(fmt.Sprintf("tensor dtype is %s, not float32", t.DType))
	}
	data := t.Data.Bytes()
	if len(data) == 0 {
		return nil
	}
	return unsafe.Slice((*float32)(unsafe.Pointer(&data[0])), len(data)/4)
}

// AsInt64 reinterprets the buffer as []int64 without copying.
// Panics if the tensor's dtype is not Int64.
func (t *Tensor) AsInt64() []int64 {
	if t.DType != Int64 {
		panic(fmt.Sprintf("tensor dtype is %s, not int64", t.DType))
	}
	data := t.Data.Bytes()
	if len(data) == 0 {
		return nil
	}
	return unsafe.Slice((*int64)(unsafe.Pointer(&data[0])), len(data)/8)
}

// FromFloat32s builds a float32 tensor over a freshly allocated owned
// buffer, copying vals.
func FromFloat32s(name string, shape Shape, vals []float32) (Tensor, error) {
	if err := shape.Validate(); err != nil {
		return Tensor{}, fmt.Errorf("invalid shape: %w", err)
	}
	if shape.NumElements() != len(vals) {
		return Tensor{}, fmt.Errorf("shape %v requires %d elements, got %d",
			shape, shape.NumElements(), len(vals))
	}
	t := Tensor{
		Name:  name,
		Shape: shape.Clone(),
		DType: Float32,
		Data:  NewBuffer(len(vals) * 4),
	}
	copy(t.AsFloat32(), vals)
	return t, nil
}

// FromInt64s builds an int64 tensor over a freshly allocated owned
// buffer, copying vals.
func FromInt64s(name string, shape Shape, vals []int64) (Tensor, error) {
	if err := shape.Validate(); err != nil {
		return Tensor{}, fmt.Errorf("invalid shape: %w", err)
	}
	if shape.NumElements() != len(vals) {
		return Tensor{}, fmt.Errorf("shape %v requires %d elements, got %d",
			shape, shape.NumElements(), len(vals))
	}
	t := Tensor{
		Name:  name,
		Shape: shape.Clone(),
		DType: Int64,
		Data:  NewBuffer(len(vals) * 8),
	}
	copy(t.AsInt64(), vals)
	return t, nil
}

// NewOwned allocates an owned, zeroed tensor of the given shape and
// dtype. Backends use this for fresh output buffers.
func NewOwned(name string, shape Shape, dtype DataType) (Tensor, error) {
	if err := shape.Validate(); err != nil {
		return Tensor{}, fmt.Errorf("invalid shape: %w", err)
	}
	return Tensor{
		Name:  name,
		Shape: shape.Clone(),
		DType: dtype,
		Data:  NewBuffer(shape.NumElements() * dtype.Size()),
	}, nil
}
