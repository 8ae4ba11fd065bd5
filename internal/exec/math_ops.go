package exec

import (
	"fmt"

	"github.com/lodestar-ml/lodestar/internal/program"
	"github.com/lodestar-ml/lodestar/internal/tensor"
)

func (r *Registry) registerMathOps() {
	r.Register("add", elementwiseBinary(
		func(a, b float32) float32 { return a + b },
		func(a, b int64) int64 { return a + b },
	))
	r.Register("mul", elementwiseBinary(
		func(a, b float32) float32 { return a * b },
		func(a, b int64) int64 { return a * b },
	))
	r.Register("scale", scaleOp)
	r.Register("matmul", matmulOp)
}

// elementwiseBinary builds a kernel for same-shape binary ops over both
// boundary dtypes. Broadcasting is not part of the program format.
func elementwiseBinary(f32 func(a, b float32) float32, i64 func(a, b int64) int64) Handler {
	return func(_ *Context, op *program.Op, inputs []*tensor.Tensor) ([]tensor.Tensor, error) {
		if err := wantInputs(op, 2, inputs); err != nil {
			return nil, err
		}
		a, b := inputs[0], inputs[1]
		if a.DType != b.DType {
			return nil, fmt.Errorf("%s: dtype mismatch %s vs %s", op.Type, a.DType, b.DType)
		}
		if !a.Shape.Equal(b.Shape) {
			return nil, fmt.Errorf("%s: shape mismatch %v vs %v", op.Type, a.Shape, b.Shape)
		}
		out, err := tensor.NewOwned("", a.Shape, a.DType)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op.Type, err)
		}
		switch a.DType {
		case tensor.Float32:
			av, bv, ov := a.AsFloat32(), b.AsFloat32(), out.AsFloat32()
			for i := range ov {
				ov[i] = f32(av[i], bv[i])
			}
		case tensor.Int64:
			av, bv, ov := a.AsInt64(), b.AsInt64(), out.AsInt64()
			for i := range ov {
				ov[i] = i64(av[i], bv[i])
			}
		}
		out.LoD = a.LoD.Clone()
		return []tensor.Tensor{out}, nil
	}
}

// scaleOp computes x*scale + bias over a float32 tensor.
// Attrs: "scale" (default 1), "bias" (default 0).
func scaleOp(_ *Context, op *program.Op, inputs []*tensor.Tensor) ([]tensor.Tensor, error) {
	if err := wantInputs(op, 1, inputs); err != nil {
		return nil, err
	}
	x := inputs[0]
	if x.DType != tensor.Float32 {
		return nil, fmt.Errorf("scale: requires float32, got %s", x.DType)
	}
	scale := float32(attr(op, "scale", 1))
	bias := float32(attr(op, "bias", 0))

	out, err := tensor.NewOwned("", x.Shape, tensor.Float32)
	if err != nil {
		return nil, fmt.Errorf("scale: %w", err)
	}
	xv, ov := x.AsFloat32(), out.AsFloat32()
	for i := range ov {
		ov[i] = xv[i]*scale + bias
	}
	out.LoD = x.LoD.Clone()
	return []tensor.Tensor{out}, nil
}

// matmulOp multiplies two 2D float32 matrices: [m,k] × [k,n] → [m,n].
func matmulOp(_ *Context, op *program.Op, inputs []*tensor.Tensor) ([]tensor.Tensor, error) {
	if err := wantInputs(op, 2, inputs); err != nil {
		return nil, err
	}
	a, b := inputs[0], inputs[1]
	if a.DType != tensor.Float32 || b.DType != tensor.Float32 {
		return nil, fmt.Errorf("matmul: requires float32 operands")
	}
	if len(a.Shape) != 2 || len(b.Shape) != 2 {
		return nil, fmt.Errorf("matmul: requires 2D operands, got %v and %v", a.Shape, b.Shape)
	}
	m, k := a.Shape[0], a.Shape[1]
	k2, n := b.Shape[0], b.Shape[1]
	if k != k2 {
		return nil, fmt.Errorf("matmul: inner dimensions disagree: %v × %v", a.Shape, b.Shape)
	}

	out, err := tensor.NewOwned("", tensor.Shape{m, n}, tensor.Float32)
	if err != nil {
		return nil, fmt.Errorf("matmul: %w", err)
	}
	av, bv, ov := a.AsFloat32(), b.AsFloat32(), out.AsFloat32()
	for i := 0; i < m; i++ {
		for l := 0; l < k; l++ {
			aik := av[i*k+l]
			if aik == 0 {
				continue
			}
			row := bv[l*n : (l+1)*n]
			outRow := ov[i*n : (i+1)*n]
			for j, v := range row {
				outRow[j] += aik * v
			}
		}
	}
	return []tensor.Tensor{out}, nil
}
