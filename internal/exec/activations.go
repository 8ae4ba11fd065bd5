package exec

import (
	"fmt"
	"math"

	"github.com/lodestar-ml/lodestar/internal/program"
	"github.com/lodestar-ml/lodestar/internal/tensor"
)

func (r *Registry) registerActivations() {
	r.Register("relu", reluOp)
	r.Register("softmax", softmaxOp)
}

func reluOp(_ *Context, op *program.Op, inputs []*tensor.Tensor) ([]tensor.Tensor, error) {
	if err := wantInputs(op, 1, inputs); err != nil {
		return nil, err
	}
	x := inputs[0]
	if x.DType != tensor.Float32 {
		return nil, fmt.Errorf("relu: requires float32, got %s", x.DType)
	}
	out, err := tensor.NewOwned("", x.Shape, tensor.Float32)
	if err != nil {
		return nil, fmt.Errorf("relu: %w", err)
	}
	xv, ov := x.AsFloat32(), out.AsFloat32()
	for i, v := range xv {
		if v > 0 {
			ov[i] = v
		}
	}
	out.LoD = x.LoD.Clone()
	return []tensor.Tensor{out}, nil
}

// softmaxOp normalizes along the last dimension with the usual
// max-subtraction for numerical stability.
func softmaxOp(_ *Context, op *program.Op, inputs []*tensor.Tensor) ([]tensor.Tensor, error) {
	if err := wantInputs(op, 1, inputs); err != nil {
		return nil, err
	}
	x := inputs[0]
	if x.DType != tensor.Float32 {
		return nil, fmt.Errorf("softmax: requires float32, got %s", x.DType)
	}
	if len(x.Shape) == 0 {
		return nil, fmt.Errorf("softmax: requires at least 1 dimension")
	}
	out, err := tensor.NewOwned("", x.Shape, tensor.Float32)
	if err != nil {
		return nil, fmt.Errorf("softmax: %w", err)
	}

	inner := x.Shape[len(x.Shape)-1]
	xv, ov := x.AsFloat32(), out.AsFloat32()
	for start := 0; start < len(xv); start += inner {
		row := xv[start : start+inner]
		outRow := ov[start : start+inner]

		maxVal := row[0]
		for _, v := range row[1:] {
			if v > maxVal {
				maxVal = v
			}
		}
		var sum float64
		for i, v := range row {
			e := math.Exp(float64(v - maxVal))
			outRow[i] = float32(e)
			sum += e
		}
		for i := range outRow {
			outRow[i] = float32(float64(outRow[i]) / sum)
		}
	}
	out.LoD = x.LoD.Clone()
	return []tensor.Tensor{out}, nil
}
