// Package program defines the on-disk model format consumed by the
// Lodestar backends: a JSON program (the op graph) plus a binary
// parameter container holding the model weights.
package program

import (
	"encoding/json"
	"fmt"
)

// Op is one operation in a program graph. Attrs carries numeric
// attributes such as "scale", "bias" or "axis"; kernels coerce as
// needed.
type Op struct {
	Type    string             `json:"type"`
	Inputs  []string           `json:"inputs"`
	Outputs []string           `json:"outputs"`
	Attrs   map[string]float64 `json:"attrs,omitempty"`
}

// Program is the computation graph of a model: feed targets, fetch
// targets and the ops connecting them. Ops are stored in execution
// order.
type Program struct {
	FormatVersion int      `json:"format_version"`
	Inputs        []string `json:"inputs"`
	Outputs       []string `json:"outputs"`
	Ops           []Op     `json:"ops"`
}

// ParseProgram decodes and validates a JSON program.
func ParseProgram(data []byte) (*Program, error) {
	var p Program
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("parse program: %w", err)
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &p, nil
}

// Validate checks structural consistency: version, non-empty feed and
// fetch lists, and that every op input is produced by a feed, a prior
// op, or a parameter (parameters are resolved at load time, so unknown
// names are allowed here and re-checked against the param set by the
// loader).
func (p *Program) Validate() error {
	if p.FormatVersion != FormatVersion {
		return fmt.Errorf("%w: program version %d", ErrUnsupportedVersion, p.FormatVersion)
	}
	if len(p.Inputs) == 0 {
		return fmt.Errorf("program has no inputs")
	}
	if len(p.Outputs) == 0 {
		return fmt.Errorf("program has no outputs")
	}
	seen := make(map[string]bool, len(p.Inputs))
	for _, in := range p.Inputs {
		if in == "" {
			return fmt.Errorf("program input with empty name")
		}
		if seen[in] {
			return fmt.Errorf("duplicate program input %q", in)
		}
		seen[in] = true
	}
	for i, op := range p.Ops {
		if op.Type == "" {
			return fmt.Errorf("op %d: empty type", i)
		}
		if len(op.Outputs) == 0 {
			return fmt.Errorf("op %d (%s): no outputs", i, op.Type)
		}
		for _, out := range op.Outputs {
			if out == "" {
				return fmt.Errorf("op %d (%s): empty output name", i, op.Type)
			}
		}
	}
	return nil
}

// Clone returns a deep copy of the program. Optimization passes operate
// on clones so a shared loaded program stays immutable.
func (p *Program) Clone() *Program {
	clone := &Program{
		FormatVersion: p.FormatVersion,
		Inputs:        append([]string(nil), p.Inputs...),
		Outputs:       append([]string(nil), p.Outputs...),
		Ops:           make([]Op, len(p.Ops)),
	}
	for i, op := range p.Ops {
		clone.Ops[i] = Op{
			Type:    op.Type,
			Inputs:  append([]string(nil), op.Inputs...),
			Outputs: append([]string(nil), op.Outputs...),
		}
		if op.Attrs != nil {
			clone.Ops[i].Attrs = make(map[string]float64, len(op.Attrs))
			for k, v := range op.Attrs {
				clone.Ops[i].Attrs[k] = v
			}
		}
	}
	return clone
}

// Marshal encodes the program as indented JSON, the inverse of
// ParseProgram.
func (p *Program) Marshal() ([]byte, error) {
	return json.MarshalIndent(p, "", "  ")
}
