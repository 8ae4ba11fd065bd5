package program

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lodestar-ml/lodestar/internal/tensor"
)

func identityProgram() *Program {
	return &Program{
		FormatVersion: FormatVersion,
		Inputs:        []string{"x"},
		Outputs:       []string{"y"},
		Ops: []Op{
			{Type: "identity", Inputs: []string{"x"}, Outputs: []string{"y"}},
		},
	}
}

func TestProgramRoundTrip(t *testing.T) {
	prog := identityProgram()
	raw, err := prog.Marshal()
	require.NoError(t, err)

	parsed, err := ParseProgram(raw)
	require.NoError(t, err)
	assert.Equal(t, prog.Inputs, parsed.Inputs)
	assert.Equal(t, prog.Outputs, parsed.Outputs)
	assert.Len(t, parsed.Ops, 1)
	assert.Equal(t, "identity", parsed.Ops[0].Type)
}

func TestProgramValidate(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Program)
	}{
		{"bad version", func(p *Program) { p.FormatVersion = 99 }},
		{"no inputs", func(p *Program) { p.Inputs = nil }},
		{"no outputs", func(p *Program) { p.Outputs = nil }},
		{"duplicate input", func(p *Program) { p.Inputs = []string{"x", "x"} }},
		{"empty op type", func(p *Program) { p.Ops[0].Type = "" }},
		{"op without outputs", func(p *Program) { p.Ops[0].Outputs = nil }},
	}
	for _, tt := range cases {
		t.Run(tt.name, func(t *testing.T) {
			prog := identityProgram()
			tt.mutate(prog)
			assert.Error(t, prog.Validate())
		})
	}
}

func TestProgramCloneIsDeep(t *testing.T) {
	prog := identityProgram()
	prog.Ops[0].Attrs = map[string]float64{"scale": 2}

	clone := prog.Clone()
	clone.Ops[0].Inputs[0] = "z"
	clone.Ops[0].Attrs["scale"] = 5
	clone.Outputs[0] = "w"

	assert.Equal(t, "x", prog.Ops[0].Inputs[0])
	assert.Equal(t, float64(2), prog.Ops[0].Attrs["scale"])
	assert.Equal(t, "y", prog.Outputs[0])
}

func TestParamsRoundTrip(t *testing.T) {
	w, err := tensor.FromFloat32s("w", tensor.Shape{2, 2}, []float32{1, 2, 3, 4})
	require.NoError(t, err)
	ids, err := tensor.FromInt64s("ids", tensor.Shape{3}, []int64{7, 8, 9})
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "params.bin")
	require.NoError(t, WriteParams(path, []tensor.Tensor{w, ids}))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	params, err := ReadParams(raw)
	require.NoError(t, err)
	require.Len(t, params, 2)

	got := params["w"]
	assert.Equal(t, tensor.Shape{2, 2}, got.Shape)
	assert.Equal(t, []float32{1, 2, 3, 4}, got.AsFloat32())
	assert.False(t, got.Data.Owned(), "params should borrow into the container blob")

	gotIDs := params["ids"]
	assert.Equal(t, []int64{7, 8, 9}, gotIDs.AsInt64())
}

func TestReadParamsRejectsCorruption(t *testing.T) {
	w, _ := tensor.FromFloat32s("w", tensor.Shape{2}, []float32{1, 2})
	path := filepath.Join(t.TempDir(), "params.bin")
	require.NoError(t, WriteParams(path, []tensor.Tensor{w}))
	raw, err := os.ReadFile(path)
	require.NoError(t, err)

	t.Run("bad magic", func(t *testing.T) {
		bad := append([]byte(nil), raw...)
		copy(bad[:4], "NOPE")
		_, err := ReadParams(bad)
		assert.ErrorIs(t, err, ErrInvalidMagic)
	})

	t.Run("bad version", func(t *testing.T) {
		bad := append([]byte(nil), raw...)
		bad[4] = 99
		_, err := ReadParams(bad)
		assert.ErrorIs(t, err, ErrUnsupportedVersion)
	})

	t.Run("truncated data", func(t *testing.T) {
		_, err := ReadParams(raw[:len(raw)-4])
		assert.Error(t, err)
	})

	t.Run("too short", func(t *testing.T) {
		_, err := ReadParams(raw[:8])
		assert.ErrorIs(t, err, ErrTruncated)
	})
}

func TestWriteParamsRejectsSizeMismatch(t *testing.T) {
	bad := tensor.Tensor{
		Name:  "w",
		Shape: tensor.Shape{2, 3},
		DType: tensor.Float32,
		Data:  tensor.NewBuffer(20), // needs 24
	}
	err := WriteParams(filepath.Join(t.TempDir(), "p.bin"), []tensor.Tensor{bad})
	assert.Error(t, err)
}

func TestBundleRoundTrip(t *testing.T) {
	w, _ := tensor.FromFloat32s("w", tensor.Shape{2}, []float32{1, 2})
	path := filepath.Join(t.TempDir(), "model.lode")
	require.NoError(t, WriteBundle(path, identityProgram(), []tensor.Tensor{w}))

	m, err := LoadBundle(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"x"}, m.Program.Inputs)
	loaded := m.Params["w"]
	assert.Equal(t, []float32{1, 2}, loaded.AsFloat32())
}

func TestLoadDirectory(t *testing.T) {
	dir := t.TempDir()
	progRaw, err := identityProgram().Marshal()
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ProgramFileName), progRaw, 0o644))
	require.NoError(t, WriteParams(filepath.Join(dir, ParamsFileName), nil))

	m, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{"y"}, m.Program.Outputs)

	_, err = Load(filepath.Join(dir, "missing"))
	assert.Error(t, err)
}

func TestCheckBindings(t *testing.T) {
	prog := &Program{
		FormatVersion: FormatVersion,
		Inputs:        []string{"x"},
		Outputs:       []string{"y"},
		Ops: []Op{
			{Type: "add", Inputs: []string{"x", "w"}, Outputs: []string{"y"}},
		},
	}
	dir := t.TempDir()
	progRaw, err := prog.Marshal()
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ProgramFileName), progRaw, 0o644))

	// Without the parameter "w" the bindings are broken.
	require.NoError(t, WriteParams(filepath.Join(dir, ParamsFileName), nil))
	_, err = Load(dir)
	assert.Error(t, err)

	// With "w" present the model loads.
	w, _ := tensor.FromFloat32s("w", tensor.Shape{1}, []float32{1})
	require.NoError(t, WriteParams(filepath.Join(dir, ParamsFileName), []tensor.Tensor{w}))
	_, err = Load(dir)
	assert.NoError(t, err)
}
