// Copyright 2026 The Lodestar Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package mixed

import (
	"github.com/rs/zerolog"

	internalmixed "github.com/lodestar-ml/lodestar/internal/backend/mixed"
	"github.com/lodestar-ml/lodestar/predictor"
)

// Predictor is the hybrid engine: the native host executor with
// accelerator subgraph offload planned at load time.
type Predictor = internalmixed.Predictor

// Plan is the load-time partition of a program into host and device
// segments, exposed for inspection.
type Plan = internalmixed.Plan

// Segment is one contiguous op range in a Plan.
type Segment = internalmixed.Segment

// Compile-time check that Predictor implements predictor.Predictor.
var _ predictor.Predictor = (*Predictor)(nil)

// New creates a mixed predictor from the given configuration.
func New(cfg predictor.MixedConfig, log zerolog.Logger) (*Predictor, error) {
	return internalmixed.New(cfg, log)
}
