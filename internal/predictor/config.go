package predictor

import (
	"fmt"

	"github.com/lodestar-ml/lodestar/internal/ir"
)

// Config is the base shared by every backend configuration: where the
// model lives. ModelDir and the ProgFile/ParamFile pair are mutually
// alternative forms; setting both is a configuration error surfaced at
// load.
type Config struct {
	ModelDir  string `json:"model_dir" yaml:"model_dir" toml:"model_dir"`
	ProgFile  string `json:"prog_file" yaml:"prog_file" toml:"prog_file"`
	ParamFile string `json:"param_file" yaml:"param_file" toml:"param_file"`
}

// Validate checks the model-source invariant.
func (c *Config) Validate() error {
	split := c.ProgFile != "" || c.ParamFile != ""
	switch {
	case c.ModelDir == "" && !split:
		return fmt.Errorf("no model source: set model_dir or prog_file/param_file")
	case c.ModelDir != "" && split:
		return fmt.Errorf("ambiguous model source: model_dir and prog_file/param_file are mutually alternative")
	case split && (c.ProgFile == "" || c.ParamFile == ""):
		return fmt.Errorf("split model source needs both prog_file and param_file")
	}
	return nil
}

// NativeConfig configures the native executor backend.
type NativeConfig struct {
	Config `yaml:",inline"`

	UseGPU              bool    `json:"use_gpu" yaml:"use_gpu" toml:"use_gpu"`
	Device              int     `json:"device" yaml:"device" toml:"device"`
	FractionOfGPUMemory float32 `json:"fraction_of_gpu_memory" yaml:"fraction_of_gpu_memory" toml:"fraction_of_gpu_memory"`
	// UseAltMath switches element-wise kernels to the experimental
	// alternate math path. Internal testing only.
	UseAltMath bool `json:"use_alt_math" yaml:"use_alt_math" toml:"use_alt_math"`
	// SpecifyInputName matches inputs to feed targets by tensor name
	// instead of position.
	SpecifyInputName bool `json:"specify_input_name" yaml:"specify_input_name" toml:"specify_input_name"`
}

// DefaultNativeConfig returns a NativeConfig with backend defaults:
// CPU execution, device 0, and a negative GPU memory fraction meaning
// "let the backend decide".
func DefaultNativeConfig() NativeConfig {
	return NativeConfig{
		Device:              0,
		FractionOfGPUMemory: -1,
	}
}

// TargetType selects the accelerator backend's execution target.
type TargetType int

const (
	// TargetGPU runs on a probed GPU adapter.
	TargetGPU TargetType = iota
	// TargetX86 runs on the host.
	TargetX86
)

// String returns the target name.
func (t TargetType) String() string {
	switch t {
	case TargetGPU:
		return "gpu"
	case TargetX86:
		return "x86"
	default:
		return "unknown"
	}
}

// AccelConfig configures the accelerator backend, which consumes
// single-file model bundles rather than program/param pairs.
type AccelConfig struct {
	Device       int        `json:"device" yaml:"device" toml:"device"`
	ModelFile    string     `json:"model_file" yaml:"model_file" toml:"model_file"`
	MaxBatchSize int        `json:"max_batch_size" yaml:"max_batch_size" toml:"max_batch_size"`
	Target       TargetType `json:"target" yaml:"target" toml:"target"`
}

// DefaultAccelConfig returns an AccelConfig with an unlimited batch
// size (-1).
func DefaultAccelConfig() AccelConfig {
	return AccelConfig{MaxBatchSize: -1}
}

// MixedConfig extends NativeConfig with accelerator offload tuning for
// the mixed engine.
type MixedConfig struct {
	NativeConfig `yaml:",inline"`

	// MinSubgraphSize is the smallest run of consecutive offloadable
	// ops worth moving off the host executor.
	MinSubgraphSize int `json:"min_subgraph_size" yaml:"min_subgraph_size" toml:"min_subgraph_size"`
	// MaxBatchSize caps the per-run batch; the offload plan is tuned
	// for it, so larger batches are rejected.
	MaxBatchSize int `json:"max_batch_size" yaml:"max_batch_size" toml:"max_batch_size"`
	// WorkspaceSize is the scratch budget in bytes for offloaded
	// subgraphs.
	WorkspaceSize int64 `json:"workspace_size" yaml:"workspace_size" toml:"workspace_size"`
}

// DefaultMixedConfig returns the mixed engine defaults.
func DefaultMixedConfig() MixedConfig {
	return MixedConfig{
		NativeConfig:    DefaultNativeConfig(),
		MinSubgraphSize: 1,
		MaxBatchSize:    1,
		WorkspaceSize:   1 << 30,
	}
}

// AnalysisConfig extends NativeConfig with graph optimization control
// for the analysis engine.
type AnalysisConfig struct {
	NativeConfig `yaml:",inline"`

	EnableIROptim bool        `json:"enable_ir_optim" yaml:"enable_ir_optim" toml:"enable_ir_optim"`
	IRMode        ir.PassMode `json:"ir_mode" yaml:"ir_mode" toml:"ir_mode"`
	IRPasses      []string    `json:"ir_passes" yaml:"ir_passes" toml:"ir_passes"`
}

// DefaultAnalysisConfig returns the analysis engine defaults:
// optimization on, exclude mode, attention fusion disabled (it pays off
// only on specific model families).
func DefaultAnalysisConfig() AnalysisConfig {
	return AnalysisConfig{
		NativeConfig:  DefaultNativeConfig(),
		EnableIROptim: true,
		IRMode:        ir.PassModeExclude,
		IRPasses:      []string{"attention_fuse"},
	}
}
