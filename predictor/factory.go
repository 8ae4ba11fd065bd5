// Copyright 2026 The Lodestar Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package predictor

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/lodestar-ml/lodestar/internal/backend/accel"
	"github.com/lodestar-ml/lodestar/internal/backend/analysis"
	"github.com/lodestar-ml/lodestar/internal/backend/mixed"
	"github.com/lodestar-ml/lodestar/internal/backend/native"
	"github.com/lodestar-ml/lodestar/internal/ir"
)

// PassMode selects how AnalysisConfig.IRPasses is interpreted.
type PassMode = ir.PassMode

// Pass selection policies.
const (
	// PassModeSystem runs the system default passes.
	PassModeSystem PassMode = ir.PassModeSystem
	// PassModeInclude runs only the listed passes.
	PassModeInclude PassMode = ir.PassModeInclude
	// PassModeExclude runs the defaults minus the listed passes.
	PassModeExclude PassMode = ir.PassModeExclude
)

// Option configures factory construction.
type Option func(*options)

type options struct {
	logger zerolog.Logger
}

// WithLogger routes backend diagnostics to the given structured logger.
// Without it, backends are silent: the Predictor contract surfaces only
// coarse success/failure, and the log is where the detail goes.
func WithLogger(logger zerolog.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// Create constructs and fully initializes the backend selected by the
// engine kind and configuration variant: the model is loaded and the
// device validated before Create returns. The pairing is fixed at the
// call site; each engine kind accepts exactly one variant:
//
//	EngineNative   *NativeConfig
//	EngineAccel    *AccelConfig
//	EngineMixed    *MixedConfig
//	EngineAnalysis *AnalysisConfig
//
// Any other pairing fails with ErrNoBackend. Construction failures
// (model not found, malformed model, device unavailable) return a nil
// predictor and an error without further classification.
func Create(engine EngineKind, cfg any, opts ...Option) (Predictor, error) {
	if cfg == nil {
		return nil, ErrNilConfig
	}
	o := options{logger: zerolog.Nop()}
	for _, opt := range opts {
		opt(&o)
	}
	log := o.logger.With().Str("engine", engine.String()).Logger()

	switch engine {
	case EngineNative:
		c, ok := cfg.(*NativeConfig)
		if !ok {
			return nil, pairingError(engine, cfg)
		}
		return native.New(*c, log)
	case EngineAccel:
		c, ok := cfg.(*AccelConfig)
		if !ok {
			return nil, pairingError(engine, cfg)
		}
		return accel.New(*c, log)
	case EngineMixed:
		c, ok := cfg.(*MixedConfig)
		if !ok {
			return nil, pairingError(engine, cfg)
		}
		return mixed.New(*c, log)
	case EngineAnalysis:
		c, ok := cfg.(*AnalysisConfig)
		if !ok {
			return nil, pairingError(engine, cfg)
		}
		return analysis.New(*c, log)
	default:
		return nil, fmt.Errorf("%w: unknown engine %d", ErrNoBackend, int(engine))
	}
}

func pairingError(engine EngineKind, cfg any) error {
	return fmt.Errorf("%w: engine %s with %T", ErrNoBackend, engine, cfg)
}
