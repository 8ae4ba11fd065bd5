package ir

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lodestar-ml/lodestar/internal/program"
)

func prog(ops ...program.Op) *program.Program {
	return &program.Program{
		FormatVersion: program.FormatVersion,
		Inputs:        []string{"x"},
		Outputs:       []string{"y"},
		Ops:           ops,
	}
}

func apply(t *testing.T, passName string, p *program.Program) *program.Program {
	t.Helper()
	pl, err := NewPipeline(PassModeInclude, []string{passName}, zerolog.Nop())
	require.NoError(t, err)
	out, err := pl.Apply(p)
	require.NoError(t, err)
	return out
}

func TestIdentityElide(t *testing.T) {
	p := prog(
		program.Op{Type: "identity", Inputs: []string{"x"}, Outputs: []string{"t1"}},
		program.Op{Type: "scale", Inputs: []string{"t1"}, Outputs: []string{"y"}, Attrs: map[string]float64{"scale": 2}},
	)
	out := apply(t, "identity_elide", p)

	require.Len(t, out.Ops, 1)
	assert.Equal(t, "scale", out.Ops[0].Type)
	assert.Equal(t, []string{"x"}, out.Ops[0].Inputs, "consumer should be rewired to the identity's input")
	// Source program untouched.
	assert.Len(t, p.Ops, 2)
}

func TestIdentityElideKeepsFetchTargets(t *testing.T) {
	p := prog(
		program.Op{Type: "identity", Inputs: []string{"x"}, Outputs: []string{"y"}},
	)
	out := apply(t, "identity_elide", p)
	require.Len(t, out.Ops, 1, "identity producing a fetch target must stay")
}

func TestScaleFuse(t *testing.T) {
	p := prog(
		program.Op{Type: "scale", Inputs: []string{"x"}, Outputs: []string{"t"}, Attrs: map[string]float64{"scale": 2, "bias": 1}},
		program.Op{Type: "scale", Inputs: []string{"t"}, Outputs: []string{"y"}, Attrs: map[string]float64{"scale": 3, "bias": 4}},
	)
	out := apply(t, "scale_fuse", p)

	require.Len(t, out.Ops, 1)
	fused := out.Ops[0]
	// (x*2+1)*3+4 = x*6 + 7
	assert.Equal(t, float64(6), fused.Attrs["scale"])
	assert.Equal(t, float64(7), fused.Attrs["bias"])
	assert.Equal(t, []string{"y"}, fused.Outputs)
}

func TestScaleFuseSkipsSharedIntermediate(t *testing.T) {
	p := &program.Program{
		FormatVersion: program.FormatVersion,
		Inputs:        []string{"x"},
		Outputs:       []string{"y", "t"},
		Ops: []program.Op{
			{Type: "scale", Inputs: []string{"x"}, Outputs: []string{"t"}, Attrs: map[string]float64{"scale": 2}},
			{Type: "scale", Inputs: []string{"t"}, Outputs: []string{"y"}, Attrs: map[string]float64{"scale": 3}},
		},
	}
	pl, err := NewPipeline(PassModeInclude, []string{"scale_fuse"}, zerolog.Nop())
	require.NoError(t, err)
	out, err := pl.Apply(p)
	require.NoError(t, err)
	assert.Len(t, out.Ops, 2, "intermediate fetch target must not be fused away")
}

func TestDeadOpPrune(t *testing.T) {
	p := prog(
		program.Op{Type: "scale", Inputs: []string{"x"}, Outputs: []string{"y"}},
		program.Op{Type: "relu", Inputs: []string{"x"}, Outputs: []string{"orphan"}},
	)
	out := apply(t, "dead_op_prune", p)
	require.Len(t, out.Ops, 1)
	assert.Equal(t, "scale", out.Ops[0].Type)
}

func TestAttentionFuseIsNonDestructive(t *testing.T) {
	p := prog(
		program.Op{Type: "softmax", Inputs: []string{"x"}, Outputs: []string{"probs"}},
		program.Op{Type: "matmul", Inputs: []string{"probs", "x"}, Outputs: []string{"y"}},
	)
	out := apply(t, "attention_fuse", p)
	assert.Len(t, out.Ops, 2)
}

func TestPipelineModes(t *testing.T) {
	all := []string{"identity_elide", "scale_fuse", "attention_fuse", "dead_op_prune"}

	system, err := NewPipeline(PassModeSystem, nil, zerolog.Nop())
	require.NoError(t, err)
	assert.Equal(t, all, system.Names())

	include, err := NewPipeline(PassModeInclude, []string{"scale_fuse"}, zerolog.Nop())
	require.NoError(t, err)
	assert.Equal(t, []string{"scale_fuse"}, include.Names())

	exclude, err := NewPipeline(PassModeExclude, []string{"attention_fuse"}, zerolog.Nop())
	require.NoError(t, err)
	assert.Equal(t, []string{"identity_elide", "scale_fuse", "dead_op_prune"}, exclude.Names())
}

func TestPipelineRejectsUnknownPass(t *testing.T) {
	_, err := NewPipeline(PassModeInclude, []string{"warp_drive"}, zerolog.Nop())
	assert.ErrorContains(t, err, "unknown pass")

	_, err = NewPipeline(PassModeExclude, []string{"warp_drive"}, zerolog.Nop())
	assert.Error(t, err)
}

func TestPipelineChainEndToEnd(t *testing.T) {
	// identity feeding chained scales plus a dead branch collapses to
	// a single scale op under the system pipeline.
	p := prog(
		program.Op{Type: "identity", Inputs: []string{"x"}, Outputs: []string{"t0"}},
		program.Op{Type: "scale", Inputs: []string{"t0"}, Outputs: []string{"t1"}, Attrs: map[string]float64{"scale": 2}},
		program.Op{Type: "scale", Inputs: []string{"t1"}, Outputs: []string{"y"}, Attrs: map[string]float64{"scale": 5}},
		program.Op{Type: "relu", Inputs: []string{"x"}, Outputs: []string{"dead"}},
	)
	pl, err := NewPipeline(PassModeSystem, nil, zerolog.Nop())
	require.NoError(t, err)
	out, err := pl.Apply(p)
	require.NoError(t, err)

	require.Len(t, out.Ops, 1)
	assert.Equal(t, "scale", out.Ops[0].Type)
	assert.Equal(t, []string{"x"}, out.Ops[0].Inputs)
	assert.Equal(t, float64(10), out.Ops[0].Attrs["scale"])
}
