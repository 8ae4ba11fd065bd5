package exec

import (
	"fmt"

	"github.com/lodestar-ml/lodestar/internal/program"
	"github.com/lodestar-ml/lodestar/internal/tensor"
)

func (r *Registry) registerUtilityOps() {
	r.Register("identity", identityOp)
	r.Register("concat", concatOp)
}

func identityOp(_ *Context, op *program.Op, inputs []*tensor.Tensor) ([]tensor.Tensor, error) {
	if err := wantInputs(op, 1, inputs); err != nil {
		return nil, err
	}
	x := inputs[0]
	out, err := tensor.NewOwned("", x.Shape, x.DType)
	if err != nil {
		return nil, fmt.Errorf("identity: %w", err)
	}
	copy(out.Data.Bytes(), x.Data.Bytes())
	out.LoD = x.LoD.Clone()
	return []tensor.Tensor{out}, nil
}

// concatOp joins tensors along an axis. Attrs: "axis" (default 0).
// Byte-wise block copy keeps the kernel dtype-agnostic.
func concatOp(_ *Context, op *program.Op, inputs []*tensor.Tensor) ([]tensor.Tensor, error) {
	if len(inputs) < 2 {
		return nil, fmt.Errorf("concat: expected at least 2 inputs, got %d", len(inputs))
	}
	axis := int(attr(op, "axis", 0))
	first := inputs[0]
	if axis < 0 || axis >= len(first.Shape) {
		return nil, fmt.Errorf("concat: axis %d out of range for shape %v", axis, first.Shape)
	}

	outShape := first.Shape.Clone()
	for _, in := range inputs[1:] {
		if in.DType != first.DType {
			return nil, fmt.Errorf("concat: dtype mismatch %s vs %s", first.DType, in.DType)
		}
		if len(in.Shape) != len(first.Shape) {
			return nil, fmt.Errorf("concat: rank mismatch %v vs %v", first.Shape, in.Shape)
		}
		for d := range in.Shape {
			if d == axis {
				continue
			}
			if in.Shape[d] != first.Shape[d] {
				return nil, fmt.Errorf("concat: shapes differ off-axis: %v vs %v", first.Shape, in.Shape)
			}
		}
		outShape[axis] += in.Shape[axis]
	}

	out, err := tensor.NewOwned("", outShape, first.DType)
	if err != nil {
		return nil, fmt.Errorf("concat: %w", err)
	}

	// outer = product of dims before axis; each input contributes a
	// contiguous block of (axisDim × inner) bytes per outer index.
	outer := 1
	for d := 0; d < axis; d++ {
		outer *= outShape[d]
	}
	innerBytes := first.DType.Size()
	for d := axis + 1; d < len(outShape); d++ {
		innerBytes *= outShape[d]
	}

	dst := out.Data.Bytes()
	rowBytes := outShape[axis] * innerBytes
	for o := 0; o < outer; o++ {
		offset := o * rowBytes
		for _, in := range inputs {
			block := in.Shape[axis] * innerBytes
			src := in.Data.Bytes()[o*block : (o+1)*block]
			copy(dst[offset:offset+block], src)
			offset += block
		}
	}
	return []tensor.Tensor{out}, nil
}
