// Copyright 2026 The Lodestar Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package accel

import (
	"github.com/rs/zerolog"

	internalaccel "github.com/lodestar-ml/lodestar/internal/backend/accel"
	"github.com/lodestar-ml/lodestar/predictor"
)

// Predictor is the accelerator backend. It consumes single-file model
// bundles and validates placement against the probed adapter.
type Predictor = internalaccel.Predictor

// Compile-time check that Predictor implements predictor.Predictor.
var _ predictor.Predictor = (*Predictor)(nil)

// New creates an accelerator predictor from the given configuration.
func New(cfg predictor.AccelConfig, log zerolog.Logger) (*Predictor, error) {
	return internalaccel.New(cfg, log)
}
