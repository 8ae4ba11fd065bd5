// Copyright 2026 The Lodestar Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package native

import (
	"github.com/rs/zerolog"

	internalnative "github.com/lodestar-ml/lodestar/internal/backend/native"
	"github.com/lodestar-ml/lodestar/predictor"
)

// Predictor is the built-in host executor backend.
//
// It runs programs with the pure Go op kernels and serves as the
// reference implementation every other backend must agree with.
type Predictor = internalnative.Predictor

// Compile-time check that Predictor implements predictor.Predictor.
var _ predictor.Predictor = (*Predictor)(nil)

// New creates a native predictor from the given configuration.
//
// Example:
//
//	cfg := predictor.DefaultNativeConfig()
//	cfg.ModelDir = "./model"
//	pred, err := native.New(cfg, zerolog.Nop())
func New(cfg predictor.NativeConfig, log zerolog.Logger) (*Predictor, error) {
	return internalnative.New(cfg, log)
}
