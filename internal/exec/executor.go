package exec

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/lodestar-ml/lodestar/internal/program"
	"github.com/lodestar-ml/lodestar/internal/tensor"
)

// Executor walks a program graph over a scope of named tensors. The
// executor itself holds no per-run state: every Run builds a private
// scope, so one executor may serve concurrent callers as long as the
// shared parameters stay immutable.
type Executor struct {
	reg *Registry
	log zerolog.Logger
}

// New creates an executor with the built-in op registry.
func New(log zerolog.Logger) *Executor {
	return &Executor{reg: NewRegistry(), log: log}
}

// Registry exposes the op registry, e.g. for offload planning.
func (e *Executor) Registry() *Registry {
	return e.reg
}

// ResolveBatch returns the effective batch size: a positive hint wins,
// otherwise the batch is inferred from the first feed's sequence
// structure (LoD) or leading dimension.
func ResolveBatch(feeds []*tensor.Tensor, hint int) int {
	if hint > 0 {
		return hint
	}
	if len(feeds) == 0 {
		return 0
	}
	first := feeds[0]
	rows := 0
	if len(first.Shape) > 0 {
		rows = first.Shape[0]
	}
	return first.LoD.NumSequences(rows)
}

// validateFeed performs the consumer-side checks the Tensor type
// itself never does: buffer length must match shape × dtype, and any
// LoD must be internally consistent.
func validateFeed(t *tensor.Tensor) error {
	if err := t.Shape.Validate(); err != nil {
		return fmt.Errorf("input %q: %w", t.Name, err)
	}
	if got, want := t.Data.Len(), t.ByteSize(); got != want {
		return fmt.Errorf("input %q: buffer is %d bytes, shape %v × %s needs %d",
			t.Name, got, t.Shape, t.DType, want)
	}
	if !t.LoD.Empty() {
		rows := 0
		if len(t.Shape) > 0 {
			rows = t.Shape[0]
		}
		if err := t.LoD.Validate(rows); err != nil {
			return fmt.Errorf("input %q: %w", t.Name, err)
		}
	}
	return nil
}

// Run executes prog with the given feeds and shared parameters,
// returning one fresh owned tensor per program output, in program
// output order.
func (e *Executor) Run(prog *program.Program, params map[string]tensor.Tensor,
	feeds map[string]*tensor.Tensor, batch int) ([]tensor.Tensor, error) {

	scope := make(map[string]*tensor.Tensor, len(params)+len(feeds)+len(prog.Ops))
	for name := range params {
		p := params[name]
		scope[name] = &p
	}

	ordered := make([]*tensor.Tensor, 0, len(prog.Inputs))
	for _, name := range prog.Inputs {
		t, ok := feeds[name]
		if !ok {
			return nil, fmt.Errorf("missing input: %s", name)
		}
		if err := validateFeed(t); err != nil {
			return nil, err
		}
		scope[name] = t
		ordered = append(ordered, t)
	}

	ctx := &Context{Batch: ResolveBatch(ordered, batch), Log: e.log}
	e.log.Debug().Int("batch", ctx.Batch).Int("ops", len(prog.Ops)).Msg("executing program")

	computed := make(map[string]bool, len(prog.Ops))
	for i := range prog.Ops {
		op := &prog.Ops[i]
		inputs := make([]*tensor.Tensor, len(op.Inputs))
		for j, name := range op.Inputs {
			t, ok := scope[name]
			if !ok {
				return nil, fmt.Errorf("op %d (%s): unbound input %q", i, op.Type, name)
			}
			inputs[j] = t
		}
		outputs, err := e.reg.Execute(ctx, op, inputs)
		if err != nil {
			return nil, fmt.Errorf("op %d: %w", i, err)
		}
		if len(outputs) != len(op.Outputs) {
			return nil, fmt.Errorf("op %d (%s): kernel produced %d outputs, program declares %d",
				i, op.Type, len(outputs), len(op.Outputs))
		}
		for j := range outputs {
			out := outputs[j]
			out.Name = op.Outputs[j]
			scope[op.Outputs[j]] = &out
			computed[op.Outputs[j]] = true
		}
	}

	results := make([]tensor.Tensor, 0, len(prog.Outputs))
	for _, name := range prog.Outputs {
		t, ok := scope[name]
		if !ok {
			return nil, fmt.Errorf("program output %q was never produced", name)
		}
		out := *t
		out.Name = name
		if !computed[name] {
			// Output is a feed or parameter passed straight through;
			// copy so the caller still receives a fresh owned buffer.
			fresh, err := tensor.NewOwned(name, t.Shape, t.DType)
			if err != nil {
				return nil, fmt.Errorf("output %q: %w", name, err)
			}
			copy(fresh.Data.Bytes(), t.Data.Bytes())
			fresh.LoD = t.LoD.Clone()
			out = fresh
		}
		results = append(results, out)
	}
	return results, nil
}
