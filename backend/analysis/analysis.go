// Copyright 2026 The Lodestar Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package analysis

import (
	"github.com/rs/zerolog"

	internalanalysis "github.com/lodestar-ml/lodestar/internal/backend/analysis"
	"github.com/lodestar-ml/lodestar/predictor"
)

// Predictor is the optimizing backend: the host executor running a
// program rewritten by the configured IR pass pipeline.
type Predictor = internalanalysis.Predictor

// Compile-time check that Predictor implements predictor.Predictor.
var _ predictor.Predictor = (*Predictor)(nil)

// New creates an analysis predictor from the given configuration.
func New(cfg predictor.AnalysisConfig, log zerolog.Logger) (*Predictor, error) {
	return internalanalysis.New(cfg, log)
}
