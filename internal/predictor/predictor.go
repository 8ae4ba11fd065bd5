// Package predictor defines the abstract execution contract of the
// Lodestar runtime: the Predictor interface every backend implements,
// the engine-kind tags, and the per-backend configuration bundles.
package predictor

import (
	"errors"

	"github.com/lodestar-ml/lodestar/internal/tensor"
)

// Factory and contract errors.
var (
	// ErrNoBackend is returned when an engine kind and configuration
	// type pairing is not wired to any backend.
	ErrNoBackend = errors.New("no backend for engine/config pairing")
	// ErrNilConfig is returned when the factory receives no config.
	ErrNilConfig = errors.New("nil configuration")
)

// Predictor is the execution contract hiding the backend engines.
//
// Run executes one batch. Inputs are caller-owned and must stay valid
// and unmodified until Run returns. On success, Run returns one tensor
// per model output, each over a freshly allocated owned buffer the
// caller is responsible for thereafter. batchSize overrides the
// shape-inferred batch when positive; pass -1 to infer from the inputs.
//
// The error is a deliberately coarse signal: callers may rely only on
// nil versus non-nil. Finer diagnostics go to the backend's structured
// log, not the error value.
//
// Clone produces a second predictor sharing the loaded model weights
// (read-only) with private execution scratch. The clone, the original
// and any sibling clones may call Run concurrently. Clone is the only
// way to obtain a second usable instance: predictors are identity-bound
// to their backend resources and must not be copied.
//
// Run and Clone are synchronous and run to completion; there is no
// cancellation at this layer.
type Predictor interface {
	Run(inputs []tensor.Tensor, batchSize int) ([]tensor.Tensor, error)
	Clone() (Predictor, error)
}

// EngineKind selects which backend executor a predictor delegates to.
type EngineKind int

const (
	// EngineNative executes programs with the built-in host executor.
	EngineNative EngineKind = iota
	// EngineAccel executes single-file model bundles on the
	// accelerator path.
	EngineAccel
	// EngineMixed mixes the native executor with accelerator subgraph
	// offload.
	EngineMixed
	// EngineAnalysis is the native path with graph optimization passes
	// applied at load.
	EngineAnalysis
)

// String returns the engine name.
func (e EngineKind) String() string {
	switch e {
	case EngineNative:
		return "native"
	case EngineAccel:
		return "accel"
	case EngineMixed:
		return "mixed"
	case EngineAnalysis:
		return "analysis"
	default:
		return "unknown"
	}
}
