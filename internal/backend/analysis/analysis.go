// Package analysis implements the optimizing backend: the native host
// executor running a program rewritten by the IR pass pipeline.
package analysis

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/lodestar-ml/lodestar/internal/backend/native"
	"github.com/lodestar-ml/lodestar/internal/ir"
	ipredictor "github.com/lodestar-ml/lodestar/internal/predictor"
	"github.com/lodestar-ml/lodestar/internal/program"
	"github.com/lodestar-ml/lodestar/internal/tensor"
)

// Predictor executes a pass-optimized program on the host executor.
//
// Output contract: identical to the native backend, fresh owned
// buffers per Run.
type Predictor struct {
	inner *native.Predictor
}

var _ ipredictor.Predictor = (*Predictor)(nil)

// New loads the model, applies the configured pass pipeline and wraps
// the result in a native predictor.
func New(cfg ipredictor.AnalysisConfig, log zerolog.Logger) (*Predictor, error) {
	if !cfg.EnableIROptim {
		inner, err := native.New(cfg.NativeConfig, log)
		if err != nil {
			return nil, fmt.Errorf("analysis: %w", err)
		}
		log.Debug().Msg("analysis: ir optimization disabled, running native program")
		return &Predictor{inner: inner}, nil
	}

	pipeline, err := ir.NewPipeline(cfg.IRMode, cfg.IRPasses, log)
	if err != nil {
		return nil, fmt.Errorf("analysis: %w", err)
	}
	inner, err := native.NewOptimized(cfg.NativeConfig, log, func(p *program.Program) (*program.Program, error) {
		optimized, err := pipeline.Apply(p)
		if err != nil {
			return nil, err
		}
		log.Info().Strs("passes", pipeline.Names()).
			Int("ops_before", len(p.Ops)).Int("ops_after", len(optimized.Ops)).
			Msg("analysis: program optimized")
		return optimized, nil
	})
	if err != nil {
		return nil, fmt.Errorf("analysis: %w", err)
	}
	return &Predictor{inner: inner}, nil
}

// Run executes the optimized program.
func (p *Predictor) Run(inputs []tensor.Tensor, batchSize int) ([]tensor.Tensor, error) {
	return p.inner.Run(inputs, batchSize)
}

// Clone shares the optimized model with private scratch.
func (p *Predictor) Clone() (ipredictor.Predictor, error) {
	inner, err := p.inner.Clone()
	if err != nil {
		return nil, err
	}
	return &Predictor{inner: inner.(*native.Predictor)}, nil
}
