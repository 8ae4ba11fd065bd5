package exec

import (
	"sort"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lodestar-ml/lodestar/internal/program"
	"github.com/lodestar-ml/lodestar/internal/tensor"
)

func f32(t *testing.T, name string, shape tensor.Shape, vals []float32) *tensor.Tensor {
	t.Helper()
	tn, err := tensor.FromFloat32s(name, shape, vals)
	require.NoError(t, err)
	return &tn
}

func runOp(t *testing.T, op program.Op, inputs ...*tensor.Tensor) ([]tensor.Tensor, error) {
	t.Helper()
	reg := NewRegistry()
	return reg.Execute(&Context{Batch: 1, Log: zerolog.Nop()}, &op, inputs)
}

func TestAddFloat32(t *testing.T) {
	a := f32(t, "a", tensor.Shape{2, 2}, []float32{1, 2, 3, 4})
	b := f32(t, "b", tensor.Shape{2, 2}, []float32{10, 20, 30, 40})
	outs, err := runOp(t, program.Op{Type: "add", Inputs: []string{"a", "b"}, Outputs: []string{"c"}}, a, b)
	require.NoError(t, err)
	assert.Equal(t, []float32{11, 22, 33, 44}, outs[0].AsFloat32())
	assert.True(t, outs[0].Data.Owned())
}

func TestAddInt64(t *testing.T) {
	a, _ := tensor.FromInt64s("a", tensor.Shape{3}, []int64{1, 2, 3})
	b, _ := tensor.FromInt64s("b", tensor.Shape{3}, []int64{10, 10, 10})
	outs, err := runOp(t, program.Op{Type: "add", Outputs: []string{"c"}}, &a, &b)
	require.NoError(t, err)
	assert.Equal(t, []int64{11, 12, 13}, outs[0].AsInt64())
}

func TestAddShapeMismatch(t *testing.T) {
	a := f32(t, "a", tensor.Shape{2}, []float32{1, 2})
	b := f32(t, "b", tensor.Shape{3}, []float32{1, 2, 3})
	_, err := runOp(t, program.Op{Type: "add", Outputs: []string{"c"}}, a, b)
	assert.Error(t, err)
}

func TestScale(t *testing.T) {
	x := f32(t, "x", tensor.Shape{3}, []float32{1, 2, 3})
	outs, err := runOp(t, program.Op{
		Type:    "scale",
		Outputs: []string{"y"},
		Attrs:   map[string]float64{"scale": 2, "bias": 1},
	}, x)
	require.NoError(t, err)
	assert.Equal(t, []float32{3, 5, 7}, outs[0].AsFloat32())
}

func TestScaleDefaultsToIdentity(t *testing.T) {
	x := f32(t, "x", tensor.Shape{2}, []float32{4, 5})
	outs, err := runOp(t, program.Op{Type: "scale", Outputs: []string{"y"}}, x)
	require.NoError(t, err)
	assert.Equal(t, []float32{4, 5}, outs[0].AsFloat32())
}

func TestRelu(t *testing.T) {
	x := f32(t, "x", tensor.Shape{4}, []float32{-1, 0, 2, -3})
	outs, err := runOp(t, program.Op{Type: "relu", Outputs: []string{"y"}}, x)
	require.NoError(t, err)
	assert.Equal(t, []float32{0, 0, 2, 0}, outs[0].AsFloat32())
}

func TestSoftmaxRowsSumToOne(t *testing.T) {
	x := f32(t, "x", tensor.Shape{2, 3}, []float32{1, 2, 3, 10, 10, 10})
	outs, err := runOp(t, program.Op{Type: "softmax", Outputs: []string{"y"}}, x)
	require.NoError(t, err)

	got := outs[0].AsFloat32()
	for row := 0; row < 2; row++ {
		var sum float32
		for col := 0; col < 3; col++ {
			sum += got[row*3+col]
		}
		assert.InDelta(t, 1.0, sum, 1e-5)
	}
	// Uniform logits give a uniform distribution.
	assert.InDelta(t, 1.0/3.0, got[3], 1e-5)
	// Larger logit, larger probability.
	assert.Greater(t, got[2], got[0])
}

func TestMatMul(t *testing.T) {
	a := f32(t, "a", tensor.Shape{2, 3}, []float32{1, 2, 3, 4, 5, 6})
	b := f32(t, "b", tensor.Shape{3, 2}, []float32{7, 8, 9, 10, 11, 12})
	outs, err := runOp(t, program.Op{Type: "matmul", Outputs: []string{"c"}}, a, b)
	require.NoError(t, err)
	assert.Equal(t, tensor.Shape{2, 2}, outs[0].Shape)
	assert.Equal(t, []float32{58, 64, 139, 154}, outs[0].AsFloat32())
}

func TestMatMulInnerDimMismatch(t *testing.T) {
	a := f32(t, "a", tensor.Shape{2, 3}, make([]float32, 6))
	b := f32(t, "b", tensor.Shape{2, 2}, make([]float32, 4))
	_, err := runOp(t, program.Op{Type: "matmul", Outputs: []string{"c"}}, a, b)
	assert.Error(t, err)
}

func TestConcatAxis0(t *testing.T) {
	a := f32(t, "a", tensor.Shape{1, 2}, []float32{1, 2})
	b := f32(t, "b", tensor.Shape{2, 2}, []float32{3, 4, 5, 6})
	outs, err := runOp(t, program.Op{Type: "concat", Outputs: []string{"c"}}, a, b)
	require.NoError(t, err)
	assert.Equal(t, tensor.Shape{3, 2}, outs[0].Shape)
	assert.Equal(t, []float32{1, 2, 3, 4, 5, 6}, outs[0].AsFloat32())
}

func TestConcatAxis1(t *testing.T) {
	a := f32(t, "a", tensor.Shape{2, 1}, []float32{1, 2})
	b := f32(t, "b", tensor.Shape{2, 2}, []float32{3, 4, 5, 6})
	outs, err := runOp(t, program.Op{
		Type:    "concat",
		Outputs: []string{"c"},
		Attrs:   map[string]float64{"axis": 1},
	}, a, b)
	require.NoError(t, err)
	assert.Equal(t, tensor.Shape{2, 3}, outs[0].Shape)
	assert.Equal(t, []float32{1, 3, 4, 2, 5, 6}, outs[0].AsFloat32())
}

func TestUnsupportedOp(t *testing.T) {
	x := f32(t, "x", tensor.Shape{1}, []float32{1})
	_, err := runOp(t, program.Op{Type: "conv9d", Outputs: []string{"y"}}, x)
	assert.Error(t, err)
}

func TestSupportedOpsSorted(t *testing.T) {
	ops := NewRegistry().SupportedOps()
	assert.Contains(t, ops, "add")
	assert.Contains(t, ops, "matmul")
	assert.Contains(t, ops, "softmax")
	assert.True(t, sort.StringsAreSorted(ops))
}

// Executor tests

func linearProgram() *program.Program {
	// y = relu(x·w + b)
	return &program.Program{
		FormatVersion: program.FormatVersion,
		Inputs:        []string{"x"},
		Outputs:       []string{"y"},
		Ops: []program.Op{
			{Type: "matmul", Inputs: []string{"x", "w"}, Outputs: []string{"xw"}},
			{Type: "add", Inputs: []string{"xw", "b"}, Outputs: []string{"z"}},
			{Type: "relu", Inputs: []string{"z"}, Outputs: []string{"y"}},
		},
	}
}

func linearParams(t *testing.T) map[string]tensor.Tensor {
	t.Helper()
	w, err := tensor.FromFloat32s("w", tensor.Shape{2, 2}, []float32{1, 0, 0, -1})
	require.NoError(t, err)
	b, err := tensor.FromFloat32s("b", tensor.Shape{1, 2}, []float32{0, 0}) // broadcast-free: batch 1
	require.NoError(t, err)
	return map[string]tensor.Tensor{"w": w, "b": b}
}

func TestExecutorRunLinear(t *testing.T) {
	e := New(zerolog.Nop())
	x := f32(t, "x", tensor.Shape{1, 2}, []float32{3, 4})

	outs, err := e.Run(linearProgram(), linearParams(t), map[string]*tensor.Tensor{"x": x}, -1)
	require.NoError(t, err)
	require.Len(t, outs, 1)
	assert.Equal(t, "y", outs[0].Name)
	// x·w = [3, -4]; relu → [3, 0]
	assert.Equal(t, []float32{3, 0}, outs[0].AsFloat32())
}

func TestExecutorMissingInput(t *testing.T) {
	e := New(zerolog.Nop())
	_, err := e.Run(linearProgram(), linearParams(t), map[string]*tensor.Tensor{}, -1)
	assert.ErrorContains(t, err, "missing input")
}

func TestExecutorRejectsBufferMismatch(t *testing.T) {
	e := New(zerolog.Nop())
	// Shape [2,3] float32 needs 24 bytes; hand it 20.
	bad := &tensor.Tensor{
		Name:  "x",
		Shape: tensor.Shape{2, 3},
		DType: tensor.Float32,
		Data:  tensor.NewBuffer(20),
	}
	prog := &program.Program{
		FormatVersion: program.FormatVersion,
		Inputs:        []string{"x"},
		Outputs:       []string{"y"},
		Ops:           []program.Op{{Type: "identity", Inputs: []string{"x"}, Outputs: []string{"y"}}},
	}
	_, err := e.Run(prog, nil, map[string]*tensor.Tensor{"x": bad}, -1)
	assert.Error(t, err)
}

func TestExecutorPassThroughOutputIsFresh(t *testing.T) {
	// Program whose output is the feed itself: caller must still get a
	// fresh owned buffer, not an alias of its input.
	prog := &program.Program{
		FormatVersion: program.FormatVersion,
		Inputs:        []string{"x"},
		Outputs:       []string{"x"},
		Ops: []program.Op{
			{Type: "identity", Inputs: []string{"x"}, Outputs: []string{"unused"}},
		},
	}
	e := New(zerolog.Nop())
	x := f32(t, "x", tensor.Shape{2}, []float32{1, 2})
	outs, err := e.Run(prog, nil, map[string]*tensor.Tensor{"x": x}, -1)
	require.NoError(t, err)

	outs[0].AsFloat32()[0] = 99
	assert.Equal(t, float32(1), x.AsFloat32()[0], "output must not alias the caller's input")
}

func TestResolveBatch(t *testing.T) {
	dense := f32(t, "x", tensor.Shape{4, 2}, make([]float32, 8))
	assert.Equal(t, 4, ResolveBatch([]*tensor.Tensor{dense}, -1))
	assert.Equal(t, 7, ResolveBatch([]*tensor.Tensor{dense}, 7), "positive hint overrides")

	seq := f32(t, "x", tensor.Shape{7, 2}, make([]float32, 14))
	seq.LoD = tensor.LoD{{0, 3, 7}}
	assert.Equal(t, 2, ResolveBatch([]*tensor.Tensor{seq}, -1), "LoD batch is sequence count")
}
