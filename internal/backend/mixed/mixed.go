// Package mixed implements the hybrid engine: the native host executor
// with accelerator subgraph offload planned at load time. Contiguous
// runs of offloadable ops at least min_subgraph_size long are marked
// for the device within the workspace budget; segments fall back to the
// host kernels when no adapter is available.
package mixed

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/lodestar-ml/lodestar/internal/backend/native"
	"github.com/lodestar-ml/lodestar/internal/device"
	"github.com/lodestar-ml/lodestar/internal/exec"
	ipredictor "github.com/lodestar-ml/lodestar/internal/predictor"
	"github.com/lodestar-ml/lodestar/internal/program"
	"github.com/lodestar-ml/lodestar/internal/tensor"
)

// offloadable op types: float32 compute with device kernels planned.
var offloadableOps = map[string]bool{
	"matmul":  true,
	"add":     true,
	"mul":     true,
	"scale":   true,
	"relu":    true,
	"softmax": true,
}

// Segment is one contiguous slice of the program's op list in the
// offload plan.
type Segment struct {
	Start, End int // op index range, end exclusive
	Offload    bool
}

// Plan is the load-time partition of a program into host and device
// segments.
type Plan struct {
	Segments []Segment
}

// OffloadedOps counts ops marked for the device.
func (p *Plan) OffloadedOps() int {
	n := 0
	for _, s := range p.Segments {
		if s.Offload {
			n += s.End - s.Start
		}
	}
	return n
}

// buildPlan partitions the op list. A run of offloadable ops becomes a
// device segment when it is at least minSize ops long and its estimated
// scratch need fits the workspace budget.
func buildPlan(prog *program.Program, params map[string]tensor.Tensor, minSize int, workspace int64) *Plan {
	plan := &Plan{}
	flush := func(start, end int, offload bool) {
		if start >= end {
			return
		}
		plan.Segments = append(plan.Segments, Segment{Start: start, End: end, Offload: offload})
	}

	runStart := -1
	hostStart := 0
	for i, op := range prog.Ops {
		if offloadableOps[op.Type] {
			if runStart < 0 {
				runStart = i
			}
			continue
		}
		if runStart >= 0 {
			if accept(prog, params, runStart, i, minSize, workspace) {
				flush(hostStart, runStart, false)
				flush(runStart, i, true)
				hostStart = i
			}
			runStart = -1
		}
	}
	if runStart >= 0 && accept(prog, params, runStart, len(prog.Ops), minSize, workspace) {
		flush(hostStart, runStart, false)
		flush(runStart, len(prog.Ops), true)
		hostStart = len(prog.Ops)
	}
	flush(hostStart, len(prog.Ops), false)
	return plan
}

// accept decides whether a candidate run is worth offloading. Scratch
// is estimated as the bytes of every parameter the run touches; the
// estimate errs low, the workspace budget is a tuning limit rather than
// a hard allocation.
func accept(prog *program.Program, params map[string]tensor.Tensor, start, end, minSize int, workspace int64) bool {
	if end-start < minSize {
		return false
	}
	var scratch int64
	seen := make(map[string]bool)
	for _, op := range prog.Ops[start:end] {
		for _, in := range op.Inputs {
			if seen[in] {
				continue
			}
			seen[in] = true
			if p, ok := params[in]; ok {
				scratch += int64(p.Data.Len())
			}
		}
	}
	return scratch <= workspace
}

// Predictor is the mixed-engine predictor.
//
// Output contract: identical to the native backend, fresh owned
// buffers per Run.
type Predictor struct {
	cfg      ipredictor.MixedConfig
	inner    *native.Predictor
	plan     *Plan
	deviceOK bool
	log      zerolog.Logger
}

var _ ipredictor.Predictor = (*Predictor)(nil)

// New loads the model, builds the offload plan and probes the device.
// A missing adapter is not fatal: offloaded segments fall back to the
// host kernels, which compute the same results.
func New(cfg ipredictor.MixedConfig, log zerolog.Logger) (*Predictor, error) {
	if cfg.MinSubgraphSize < 1 {
		return nil, fmt.Errorf("mixed: min_subgraph_size %d out of range", cfg.MinSubgraphSize)
	}
	if cfg.WorkspaceSize <= 0 {
		return nil, fmt.Errorf("mixed: workspace_size %d out of range", cfg.WorkspaceSize)
	}

	inner, err := native.New(cfg.NativeConfig, log)
	if err != nil {
		return nil, fmt.Errorf("mixed: %w", err)
	}
	model := inner.Model()
	plan := buildPlan(model.Program, model.Params, cfg.MinSubgraphSize, cfg.WorkspaceSize)

	deviceOK := device.Available()
	if plan.OffloadedOps() > 0 && !deviceOK {
		log.Warn().Int("offload_ops", plan.OffloadedOps()).
			Msg("mixed: no adapter available, offloaded segments fall back to host")
	}
	log.Info().Int("segments", len(plan.Segments)).Int("offload_ops", plan.OffloadedOps()).
		Bool("device", deviceOK).Msg("mixed predictor loaded")

	return &Predictor{
		cfg:      cfg,
		inner:    inner,
		plan:     plan,
		deviceOK: deviceOK,
		log:      log,
	}, nil
}

// Plan exposes the load-time offload plan.
func (p *Predictor) Plan() *Plan {
	return p.plan
}

// Run executes the program, enforcing the batch cap the plan was tuned
// for.
func (p *Predictor) Run(inputs []tensor.Tensor, batchSize int) ([]tensor.Tensor, error) {
	if p.cfg.MaxBatchSize > 0 {
		ordered := make([]*tensor.Tensor, len(inputs))
		for i := range inputs {
			ordered[i] = &inputs[i]
		}
		if batch := exec.ResolveBatch(ordered, batchSize); batch > p.cfg.MaxBatchSize {
			err := fmt.Errorf("batch %d exceeds max_batch_size %d", batch, p.cfg.MaxBatchSize)
			p.log.Error().Err(err).Msg("run failed")
			return nil, err
		}
	}
	return p.inner.Run(inputs, batchSize)
}

// Clone shares the model and the offload plan with private scratch.
func (p *Predictor) Clone() (ipredictor.Predictor, error) {
	inner, err := p.inner.Clone()
	if err != nil {
		return nil, err
	}
	return &Predictor{
		cfg:      p.cfg,
		inner:    inner.(*native.Predictor),
		plan:     p.plan,
		deviceOK: p.deviceOK,
		log:      p.log,
	}, nil
}
