// Package native implements the built-in host executor backend.
package native

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/lodestar-ml/lodestar/internal/device"
	"github.com/lodestar-ml/lodestar/internal/exec"
	ipredictor "github.com/lodestar-ml/lodestar/internal/predictor"
	"github.com/lodestar-ml/lodestar/internal/program"
	"github.com/lodestar-ml/lodestar/internal/tensor"
)

// Predictor executes programs with the host op kernels.
//
// Output contract: Run always allocates fresh owned buffers for its
// outputs; caller-preallocated output buffers are not consumed.
type Predictor struct {
	cfg   ipredictor.NativeConfig
	model *program.Model // shared, immutable after load
	exec  *exec.Executor // per-instance scratch
	log   zerolog.Logger
}

var _ ipredictor.Predictor = (*Predictor)(nil)

// New loads the model named by cfg and returns a ready predictor.
func New(cfg ipredictor.NativeConfig, log zerolog.Logger) (*Predictor, error) {
	return NewOptimized(cfg, log, nil)
}

// NewOptimized loads like New but lets the caller rewrite the program
// before it is pinned into the predictor. The analysis engine injects
// its pass pipeline here.
func NewOptimized(cfg ipredictor.NativeConfig, log zerolog.Logger,
	rewrite func(*program.Program) (*program.Program, error)) (*Predictor, error) {

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("native: %w", err)
	}
	if err := checkDevice(&cfg, log); err != nil {
		return nil, fmt.Errorf("native: %w", err)
	}

	model, err := loadModel(&cfg.Config)
	if err != nil {
		return nil, fmt.Errorf("native: %w", err)
	}
	if rewrite != nil {
		optimized, err := rewrite(model.Program)
		if err != nil {
			return nil, fmt.Errorf("native: %w", err)
		}
		model = &program.Model{Program: optimized, Params: model.Params}
	}
	if cfg.UseAltMath {
		log.Warn().Msg("use_alt_math is experimental and currently maps to the standard kernels")
	}
	log.Info().Int("ops", len(model.Program.Ops)).Int("params", len(model.Params)).
		Bool("use_gpu", cfg.UseGPU).Msg("native predictor loaded")

	return &Predictor{
		cfg:   cfg,
		model: model,
		exec:  exec.New(log),
		log:   log,
	}, nil
}

// loadModel resolves the mutually-alternative model source forms.
func loadModel(cfg *ipredictor.Config) (*program.Model, error) {
	if cfg.ModelDir != "" {
		return program.Load(cfg.ModelDir)
	}
	return program.LoadFiles(cfg.ProgFile, cfg.ParamFile)
}

// checkDevice validates the GPU-related fields against the probed
// hardware when the config asks for GPU execution.
func checkDevice(cfg *ipredictor.NativeConfig, log zerolog.Logger) error {
	if !cfg.UseGPU {
		return nil
	}
	if cfg.Device < 0 {
		return fmt.Errorf("invalid device index %d", cfg.Device)
	}
	info, err := device.Probe()
	if err != nil {
		return fmt.Errorf("device unavailable: %w", err)
	}
	frac := cfg.FractionOfGPUMemory
	if frac < 0 {
		frac = 0.5 // backend default when the config leaves it negative
	}
	if frac > 1 {
		return fmt.Errorf("fraction_of_gpu_memory %v out of range", cfg.FractionOfGPUMemory)
	}
	log.Info().Str("adapter", info.Name).Str("vendor", info.Vendor).
		Int("device", cfg.Device).Float32("memory_fraction", frac).
		Msg("gpu device probed")
	return nil
}

// feeds maps caller inputs to the program's feed targets, by name when
// the config demands it and by position otherwise.
func (p *Predictor) feeds(prog *program.Program, inputs []tensor.Tensor) (map[string]*tensor.Tensor, error) {
	if len(inputs) != len(prog.Inputs) {
		return nil, fmt.Errorf("model expects %d inputs, got %d", len(prog.Inputs), len(inputs))
	}
	feeds := make(map[string]*tensor.Tensor, len(inputs))
	if p.cfg.SpecifyInputName {
		targets := make(map[string]bool, len(prog.Inputs))
		for _, name := range prog.Inputs {
			targets[name] = true
		}
		for i := range inputs {
			in := &inputs[i]
			if in.Name == "" {
				return nil, fmt.Errorf("specify_input_name is set but input %d has no name", i)
			}
			if !targets[in.Name] {
				return nil, fmt.Errorf("input %q does not match any feed target", in.Name)
			}
			if _, dup := feeds[in.Name]; dup {
				return nil, fmt.Errorf("duplicate input %q", in.Name)
			}
			feeds[in.Name] = in
		}
		return feeds, nil
	}
	for i := range inputs {
		feeds[prog.Inputs[i]] = &inputs[i]
	}
	return feeds, nil
}

// Model exposes the loaded (immutable) program and parameters for
// engines layered on the native executor.
func (p *Predictor) Model() *program.Model {
	return p.model
}

// Run executes the loaded program. See the Predictor contract for the
// input/output ownership rules.
func (p *Predictor) Run(inputs []tensor.Tensor, batchSize int) ([]tensor.Tensor, error) {
	feeds, err := p.feeds(p.model.Program, inputs)
	if err != nil {
		p.log.Error().Err(err).Msg("run failed: feed matching")
		return nil, err
	}
	outputs, err := p.exec.Run(p.model.Program, p.model.Params, feeds, batchSize)
	if err != nil {
		p.log.Error().Err(err).Msg("run failed")
		return nil, err
	}
	return outputs, nil
}

// Clone returns a predictor sharing the loaded model with private
// execution scratch, safe to Run concurrently with the original.
func (p *Predictor) Clone() (ipredictor.Predictor, error) {
	return &Predictor{
		cfg:   p.cfg,
		model: p.model,
		exec:  exec.New(p.log),
		log:   p.log,
	}, nil
}
