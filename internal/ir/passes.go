package ir

import (
	"github.com/rs/zerolog"

	"github.com/lodestar-ml/lodestar/internal/program"
)

func attrOf(op *program.Op, key string, def float64) float64 {
	if v, ok := op.Attrs[key]; ok {
		return v
	}
	return def
}

func outputSet(p *program.Program) map[string]bool {
	set := make(map[string]bool, len(p.Outputs))
	for _, out := range p.Outputs {
		set[out] = true
	}
	return set
}

// identityElide removes identity ops whose result is not a fetch
// target, rewiring consumers to the identity's input.
func identityElide(_ zerolog.Logger, p *program.Program) error {
	isOutput := outputSet(p)
	alias := make(map[string]string)
	resolve := func(name string) string {
		for {
			next, ok := alias[name]
			if !ok {
				return name
			}
			name = next
		}
	}

	kept := make([]program.Op, 0, len(p.Ops))
	for _, op := range p.Ops {
		for j, in := range op.Inputs {
			op.Inputs[j] = resolve(in)
		}
		if op.Type == "identity" && len(op.Inputs) == 1 && len(op.Outputs) == 1 && !isOutput[op.Outputs[0]] {
			alias[op.Outputs[0]] = op.Inputs[0]
			continue
		}
		kept = append(kept, op)
	}
	p.Ops = kept
	return nil
}

// scaleFuse folds chains of scale ops into one:
// scale(scale(x, s1, b1), s2, b2) = scale(x, s1*s2, b1*s2+b2).
// Only fuses when the intermediate value has no other consumer and is
// not a fetch target.
func scaleFuse(_ zerolog.Logger, p *program.Program) error {
	isOutput := outputSet(p)
	uses := make(map[string]int)
	for _, op := range p.Ops {
		for _, in := range op.Inputs {
			uses[in]++
		}
	}

	kept := make([]program.Op, 0, len(p.Ops))
	producer := make(map[string]int) // var name -> index in kept of the scale producing it

	for _, op := range p.Ops {
		if op.Type == "scale" && len(op.Inputs) == 1 && len(op.Outputs) == 1 {
			in := op.Inputs[0]
			if idx, ok := producer[in]; ok && uses[in] == 1 && !isOutput[in] {
				prev := &kept[idx]
				s1, b1 := attrOf(prev, "scale", 1), attrOf(prev, "bias", 0)
				s2, b2 := attrOf(&op, "scale", 1), attrOf(&op, "bias", 0)
				prev.Attrs = map[string]float64{"scale": s1 * s2, "bias": b1*s2 + b2}
				prev.Outputs = []string{op.Outputs[0]}
				delete(producer, in)
				producer[op.Outputs[0]] = idx
				continue
			}
		}
		kept = append(kept, op)
		if op.Type == "scale" && len(op.Inputs) == 1 && len(op.Outputs) == 1 {
			producer[op.Outputs[0]] = len(kept) - 1
		}
	}
	p.Ops = kept
	return nil
}

// attentionFuse detects softmax feeding matmul, the shape of an
// attention head. Detection only for now.
// TODO: rewrite matched pairs once exec grows a fused attention kernel.
func attentionFuse(log zerolog.Logger, p *program.Program) error {
	softmaxOut := make(map[string]bool)
	for _, op := range p.Ops {
		if op.Type == "softmax" && len(op.Outputs) == 1 {
			softmaxOut[op.Outputs[0]] = true
		}
	}
	matches := 0
	for _, op := range p.Ops {
		if op.Type != "matmul" {
			continue
		}
		for _, in := range op.Inputs {
			if softmaxOut[in] {
				matches++
			}
		}
	}
	if matches > 0 {
		log.Debug().Int("candidates", matches).Msg("attention_fuse: matched softmax-matmul pairs")
	}
	return nil
}

// deadOpPrune drops ops whose results never reach a fetch target.
func deadOpPrune(_ zerolog.Logger, p *program.Program) error {
	needed := outputSet(p)
	keep := make([]bool, len(p.Ops))
	for i := len(p.Ops) - 1; i >= 0; i-- {
		op := p.Ops[i]
		live := false
		for _, out := range op.Outputs {
			if needed[out] {
				live = true
				break
			}
		}
		if !live {
			continue
		}
		keep[i] = true
		for _, in := range op.Inputs {
			needed[in] = true
		}
	}

	kept := make([]program.Op, 0, len(p.Ops))
	for i, op := range p.Ops {
		if keep[i] {
			kept = append(kept, op)
		}
	}
	p.Ops = kept
	return nil
}
