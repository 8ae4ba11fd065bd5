// Copyright 2026 The Lodestar Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package main

import (
	"fmt"
	"math/rand"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/lodestar-ml/lodestar/internal/token"
	"github.com/lodestar-ml/lodestar/predictor"
	"github.com/lodestar-ml/lodestar/tensor"
)

type inferOptions struct {
	engine     string
	configFile string
	modelDir   string
	progFile   string
	paramFile  string
	modelFile  string
	batch      int

	// Feed construction: either tokenized text lines or random floats
	// of an explicit shape.
	texts     []string
	encoding  string
	shape     string
	inputName string
	seed      int64
}

func newInferCmd() *cobra.Command {
	var opts inferOptions
	cmd := &cobra.Command{
		Use:   "infer",
		Short: "Run a model once and print its outputs",
		Example: `  lodestar infer --engine native --model-dir ./model --shape 2x3
  lodestar infer --engine analysis --config analysis.yaml --text "hello world"
  lodestar infer --engine accel --model-file model.lodestar --shape 1x128`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInfer(&opts)
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.engine, "engine", "native", "engine kind: native|accel|mixed|analysis")
	f.StringVar(&opts.configFile, "config", "", "configuration file (.yaml/.json/.toml)")
	f.StringVar(&opts.modelDir, "model-dir", "", "model directory (program.json + params.bin)")
	f.StringVar(&opts.progFile, "prog-file", "", "program file, paired with --param-file")
	f.StringVar(&opts.paramFile, "param-file", "", "parameter file, paired with --prog-file")
	f.StringVar(&opts.modelFile, "model-file", "", "single-file model bundle (accel engine)")
	f.IntVar(&opts.batch, "batch", -1, "batch size hint, -1 to infer from the feed")
	f.StringArrayVar(&opts.texts, "text", nil, "text line to tokenize into the feed, repeatable")
	f.StringVar(&opts.encoding, "encoding", "cl100k_base", "tiktoken encoding for --text")
	f.StringVar(&opts.shape, "shape", "", "random float32 feed shape, e.g. 2x3")
	f.StringVar(&opts.inputName, "input-name", "", "feed tensor name, defaults to the program's first input")
	f.Int64Var(&opts.seed, "seed", 1, "seed for the random feed")
	return cmd
}

func runInfer(opts *inferOptions) error {
	log, err := newLogger()
	if err != nil {
		return err
	}

	engine, cfg, err := buildConfig(opts)
	if err != nil {
		return err
	}
	pred, err := predictor.Create(engine, cfg, predictor.WithLogger(log))
	if err != nil {
		return err
	}

	input, err := buildFeed(opts)
	if err != nil {
		return err
	}
	outs, err := pred.Run([]tensor.Tensor{input}, opts.batch)
	if err != nil {
		return err
	}

	for _, out := range outs {
		fmt.Printf("%s %s %v\n", out.Name, out.DType, out.Shape)
		switch out.DType {
		case tensor.Float32:
			fmt.Printf("  %v\n", preview(out.AsFloat32(), 16))
		case tensor.Int64:
			fmt.Printf("  %v\n", preview(out.AsInt64(), 16))
		}
	}
	return nil
}

// buildConfig resolves the engine name and layers the model source: the
// variant defaults, then the config file, then explicit flags.
func buildConfig(opts *inferOptions) (predictor.EngineKind, any, error) {
	load := func(cfg any) error {
		if opts.configFile == "" {
			return nil
		}
		return predictor.LoadConfigFile(opts.configFile, cfg)
	}
	applySource := func(base *predictor.Config) {
		if opts.modelDir != "" {
			base.ModelDir = opts.modelDir
		}
		if opts.progFile != "" {
			base.ProgFile = opts.progFile
		}
		if opts.paramFile != "" {
			base.ParamFile = opts.paramFile
		}
	}

	switch opts.engine {
	case "native":
		cfg := predictor.DefaultNativeConfig()
		if err := load(&cfg); err != nil {
			return 0, nil, err
		}
		applySource(&cfg.Config)
		return predictor.EngineNative, &cfg, nil
	case "accel":
		cfg := predictor.DefaultAccelConfig()
		if err := load(&cfg); err != nil {
			return 0, nil, err
		}
		if opts.modelFile != "" {
			cfg.ModelFile = opts.modelFile
		}
		return predictor.EngineAccel, &cfg, nil
	case "mixed":
		cfg := predictor.DefaultMixedConfig()
		if err := load(&cfg); err != nil {
			return 0, nil, err
		}
		applySource(&cfg.Config)
		return predictor.EngineMixed, &cfg, nil
	case "analysis":
		cfg := predictor.DefaultAnalysisConfig()
		if err := load(&cfg); err != nil {
			return 0, nil, err
		}
		applySource(&cfg.Config)
		return predictor.EngineAnalysis, &cfg, nil
	default:
		return 0, nil, fmt.Errorf("unknown engine %q", opts.engine)
	}
}

// buildFeed constructs the single feed tensor from --text or --shape.
func buildFeed(opts *inferOptions) (tensor.Tensor, error) {
	switch {
	case len(opts.texts) > 0 && opts.shape != "":
		return tensor.Tensor{}, fmt.Errorf("--text and --shape are mutually exclusive")
	case len(opts.texts) > 0:
		enc, err := token.NewEncoder(opts.encoding)
		if err != nil {
			return tensor.Tensor{}, err
		}
		return token.BatchTensor(enc, opts.inputName, opts.texts)
	case opts.shape != "":
		shape, err := parseShape(opts.shape)
		if err != nil {
			return tensor.Tensor{}, err
		}
		rng := rand.New(rand.NewSource(opts.seed))
		vals := make([]float32, shape.NumElements())
		for i := range vals {
			vals[i] = rng.Float32()
		}
		return tensor.FromFloat32s(opts.inputName, shape, vals)
	default:
		return tensor.Tensor{}, fmt.Errorf("no feed: set --text or --shape")
	}
}

// parseShape parses "2x3" style dimension lists.
func parseShape(s string) (tensor.Shape, error) {
	parts := strings.Split(strings.ToLower(s), "x")
	shape := make(tensor.Shape, 0, len(parts))
	for _, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil || n <= 0 {
			return nil, fmt.Errorf("invalid shape %q", s)
		}
		shape = append(shape, n)
	}
	return shape, nil
}

func preview[T any](vals []T, limit int) []T {
	if len(vals) <= limit {
		return vals
	}
	return vals[:limit]
}
