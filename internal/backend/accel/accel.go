// Package accel implements the accelerator backend. It consumes
// single-file model bundles and targets either a probed GPU adapter or
// the host; execution itself runs on the host kernels, with the device
// used for placement validation and staging decisions.
package accel

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/lodestar-ml/lodestar/internal/device"
	"github.com/lodestar-ml/lodestar/internal/exec"
	ipredictor "github.com/lodestar-ml/lodestar/internal/predictor"
	"github.com/lodestar-ml/lodestar/internal/program"
	"github.com/lodestar-ml/lodestar/internal/tensor"
)

// Predictor runs model bundles on the accelerator path.
//
// Output contract: Run allocates fresh owned buffers for its outputs.
type Predictor struct {
	cfg   ipredictor.AccelConfig
	model *program.Model
	exec  *exec.Executor
	log   zerolog.Logger
}

var _ ipredictor.Predictor = (*Predictor)(nil)

// New loads the bundle named by cfg.ModelFile and validates the target
// device.
func New(cfg ipredictor.AccelConfig, log zerolog.Logger) (*Predictor, error) {
	if cfg.ModelFile == "" {
		return nil, fmt.Errorf("accel: no model_file configured")
	}
	if cfg.Device < 0 {
		return nil, fmt.Errorf("accel: invalid device index %d", cfg.Device)
	}

	switch cfg.Target {
	case ipredictor.TargetGPU:
		info, err := device.Probe()
		if err != nil {
			return nil, fmt.Errorf("accel: target gpu: device unavailable: %w", err)
		}
		log.Info().Str("adapter", info.Name).Str("vendor", info.Vendor).
			Int("device", cfg.Device).Msg("accel: gpu target probed")
	case ipredictor.TargetX86:
		log.Debug().Msg("accel: host target")
	default:
		return nil, fmt.Errorf("accel: unknown target %d", int(cfg.Target))
	}

	model, err := program.LoadBundle(cfg.ModelFile)
	if err != nil {
		return nil, fmt.Errorf("accel: %w", err)
	}
	log.Info().Int("ops", len(model.Program.Ops)).Int("params", len(model.Params)).
		Str("target", cfg.Target.String()).Msg("accel predictor loaded")

	return &Predictor{
		cfg:   cfg,
		model: model,
		exec:  exec.New(log),
		log:   log,
	}, nil
}

// Run executes the bundle's program, enforcing the configured batch
// cap. Inputs match feed targets positionally.
func (p *Predictor) Run(inputs []tensor.Tensor, batchSize int) ([]tensor.Tensor, error) {
	prog := p.model.Program
	if len(inputs) != len(prog.Inputs) {
		err := fmt.Errorf("model expects %d inputs, got %d", len(prog.Inputs), len(inputs))
		p.log.Error().Err(err).Msg("run failed")
		return nil, err
	}
	feeds := make(map[string]*tensor.Tensor, len(inputs))
	ordered := make([]*tensor.Tensor, len(inputs))
	for i := range inputs {
		feeds[prog.Inputs[i]] = &inputs[i]
		ordered[i] = &inputs[i]
	}

	if p.cfg.MaxBatchSize > 0 {
		if batch := exec.ResolveBatch(ordered, batchSize); batch > p.cfg.MaxBatchSize {
			err := fmt.Errorf("batch %d exceeds max_batch_size %d", batch, p.cfg.MaxBatchSize)
			p.log.Error().Err(err).Msg("run failed")
			return nil, err
		}
	}

	outputs, err := p.exec.Run(prog, p.model.Params, feeds, batchSize)
	if err != nil {
		p.log.Error().Err(err).Msg("run failed")
		return nil, err
	}
	return outputs, nil
}

// Clone shares the loaded bundle with private execution scratch.
func (p *Predictor) Clone() (ipredictor.Predictor, error) {
	return &Predictor{
		cfg:   p.cfg,
		model: p.model,
		exec:  exec.New(p.log),
		log:   p.log,
	}, nil
}
