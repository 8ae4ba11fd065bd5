// Copyright 2026 The Lodestar Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package predictor provides the public execution contract of the
// Lodestar inference runtime: the Predictor interface, the engine-kind
// tags, the per-backend configuration bundles, and the factory that
// pairs them.
//
// Example:
//
//	cfg := predictor.DefaultNativeConfig()
//	cfg.ModelDir = "./model"
//	pred, err := predictor.Create(predictor.EngineNative, &cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	outs, err := pred.Run([]tensor.Tensor{input}, -1)
package predictor

import (
	ipredictor "github.com/lodestar-ml/lodestar/internal/predictor"
)

// Predictor is the abstract execution contract. Run executes a batch of
// tensors synchronously; Clone produces a second instance sharing the
// loaded model weights, safe for concurrent Run. Predictors must not be
// copied; Clone is the only way to obtain a second usable handle.
type Predictor = ipredictor.Predictor

// EngineKind selects which backend a predictor delegates to.
type EngineKind = ipredictor.EngineKind

// Engine kinds.
const (
	EngineNative   EngineKind = ipredictor.EngineNative
	EngineAccel    EngineKind = ipredictor.EngineAccel
	EngineMixed    EngineKind = ipredictor.EngineMixed
	EngineAnalysis EngineKind = ipredictor.EngineAnalysis
)

// Factory errors.
var (
	ErrNoBackend = ipredictor.ErrNoBackend
	ErrNilConfig = ipredictor.ErrNilConfig
)

// Configuration variants. Each engine kind pairs with exactly one
// variant at the Create call site.
type (
	// Config is the base shared by the hierarchy: model location.
	Config = ipredictor.Config
	// NativeConfig configures the native executor.
	NativeConfig = ipredictor.NativeConfig
	// AccelConfig configures the accelerator backend.
	AccelConfig = ipredictor.AccelConfig
	// MixedConfig configures the mixed native/accelerator engine.
	MixedConfig = ipredictor.MixedConfig
	// AnalysisConfig configures the optimizing engine.
	AnalysisConfig = ipredictor.AnalysisConfig
)

// TargetType selects the accelerator backend's execution target.
type TargetType = ipredictor.TargetType

// Accelerator targets.
const (
	TargetGPU TargetType = ipredictor.TargetGPU
	TargetX86 TargetType = ipredictor.TargetX86
)

// Defaults per configuration variant.
var (
	DefaultNativeConfig   = ipredictor.DefaultNativeConfig
	DefaultAccelConfig    = ipredictor.DefaultAccelConfig
	DefaultMixedConfig    = ipredictor.DefaultMixedConfig
	DefaultAnalysisConfig = ipredictor.DefaultAnalysisConfig
)

// LoadConfigFile fills a configuration variant from a YAML, JSON or
// TOML file chosen by extension.
func LoadConfigFile(path string, cfg any) error {
	return ipredictor.LoadConfigFile(path, cfg)
}
