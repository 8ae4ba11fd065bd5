// Package exec executes model programs on the host: a registry of op
// kernels plus the executor that walks a program graph over a scope of
// named tensors.
package exec

import (
	"fmt"
	"sort"

	"github.com/rs/zerolog"

	"github.com/lodestar-ml/lodestar/internal/program"
	"github.com/lodestar-ml/lodestar/internal/tensor"
)

// Handler computes one op, returning freshly allocated output tensors.
type Handler func(ctx *Context, op *program.Op, inputs []*tensor.Tensor) ([]tensor.Tensor, error)

// Context carries execution state into kernels.
type Context struct {
	Batch int // resolved batch size for this run
	Log   zerolog.Logger
}

// Registry maps op types to handler functions.
type Registry struct {
	handlers map[string]Handler
}

// NewRegistry creates a registry with all built-in ops.
func NewRegistry() *Registry {
	r := &Registry{handlers: make(map[string]Handler)}
	r.registerMathOps()
	r.registerActivations()
	r.registerUtilityOps()
	return r
}

// Register adds a custom op handler.
func (r *Registry) Register(opType string, handler Handler) {
	r.handlers[opType] = handler
}

// Has reports whether an op type is registered.
func (r *Registry) Has(opType string) bool {
	_, ok := r.handlers[opType]
	return ok
}

// Execute runs one op with the given inputs.
func (r *Registry) Execute(ctx *Context, op *program.Op, inputs []*tensor.Tensor) ([]tensor.Tensor, error) {
	handler, ok := r.handlers[op.Type]
	if !ok {
		return nil, fmt.Errorf("unsupported op: %s", op.Type)
	}
	return handler(ctx, op, inputs)
}

// SupportedOps returns the registered op types, sorted.
func (r *Registry) SupportedOps() []string {
	ops := make([]string, 0, len(r.handlers))
	for op := range r.handlers {
		ops = append(ops, op)
	}
	sort.Strings(ops)
	return ops
}

// attr fetches a numeric attribute with a default.
func attr(op *program.Op, key string, def float64) float64 {
	if v, ok := op.Attrs[key]; ok {
		return v
	}
	return def
}

// wantInputs enforces an exact input arity for a kernel.
func wantInputs(op *program.Op, n int, inputs []*tensor.Tensor) error {
	if len(inputs) != n {
		return fmt.Errorf("%s: expected %d inputs, got %d", op.Type, n, len(inputs))
	}
	return nil
}
