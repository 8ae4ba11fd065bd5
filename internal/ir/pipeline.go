// Package ir implements the analysis path's graph optimization
// plumbing: a registry of named passes over model programs and the
// mode-driven selection of which passes run.
package ir

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/lodestar-ml/lodestar/internal/program"
)

// PassMode selects how the configured pass list is interpreted.
type PassMode int

const (
	// PassModeSystem runs the system default passes, ignoring the list.
	PassModeSystem PassMode = iota
	// PassModeInclude runs only the listed passes.
	PassModeInclude
	// PassModeExclude runs the defaults minus the listed passes.
	PassModeExclude
)

// String returns the mode name.
func (m PassMode) String() string {
	switch m {
	case PassModeSystem:
		return "system"
	case PassModeInclude:
		return "include"
	case PassModeExclude:
		return "exclude"
	default:
		return "unknown"
	}
}

// PassFunc rewrites a program in place. The pipeline hands every pass a
// private clone, so passes may mutate freely.
type PassFunc func(log zerolog.Logger, p *program.Program) error

type pass struct {
	name string
	fn   PassFunc
}

// defaultPasses is the system pass set, in execution order.
var defaultPasses = []pass{
	{"identity_elide", identityElide},
	{"scale_fuse", scaleFuse},
	{"attention_fuse", attentionFuse},
	{"dead_op_prune", deadOpPrune},
}

func findPass(name string) (pass, bool) {
	for _, p := range defaultPasses {
		if p.name == name {
			return p, true
		}
	}
	return pass{}, false
}

// Pipeline is an ordered list of selected passes.
type Pipeline struct {
	passes []pass
	log    zerolog.Logger
}

// NewPipeline resolves mode and names into a pipeline. Unknown pass
// names are a configuration error.
func NewPipeline(mode PassMode, names []string, log zerolog.Logger) (*Pipeline, error) {
	for _, name := range names {
		if _, ok := findPass(name); !ok {
			return nil, fmt.Errorf("unknown pass %q", name)
		}
	}

	var selected []pass
	switch mode {
	case PassModeSystem:
		selected = defaultPasses
	case PassModeInclude:
		listed := make(map[string]bool, len(names))
		for _, n := range names {
			listed[n] = true
		}
		for _, p := range defaultPasses {
			if listed[p.name] {
				selected = append(selected, p)
			}
		}
	case PassModeExclude:
		listed := make(map[string]bool, len(names))
		for _, n := range names {
			listed[n] = true
		}
		for _, p := range defaultPasses {
			if !listed[p.name] {
				selected = append(selected, p)
			}
		}
	default:
		return nil, fmt.Errorf("unknown pass mode %d", mode)
	}

	return &Pipeline{passes: selected, log: log}, nil
}

// Names returns the selected pass names in execution order.
func (pl *Pipeline) Names() []string {
	names := make([]string, len(pl.passes))
	for i, p := range pl.passes {
		names[i] = p.name
	}
	return names
}

// Apply runs the pipeline over a clone of p and returns the optimized
// program; p itself is never mutated.
func (pl *Pipeline) Apply(p *program.Program) (*program.Program, error) {
	optimized := p.Clone()
	for _, ps := range pl.passes {
		before := len(optimized.Ops)
		if err := ps.fn(pl.log, optimized); err != nil {
			return nil, fmt.Errorf("pass %s: %w", ps.name, err)
		}
		pl.log.Debug().Str("pass", ps.name).
			Int("ops_before", before).Int("ops_after", len(optimized.Ops)).
			Msg("applied pass")
	}
	if err := optimized.Validate(); err != nil {
		return nil, fmt.Errorf("optimized program is invalid: %w", err)
	}
	return optimized, nil
}
