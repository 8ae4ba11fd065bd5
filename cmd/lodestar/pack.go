// Copyright 2026 The Lodestar Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package main

import (
	"sort"

	"github.com/spf13/cobra"

	"github.com/lodestar-ml/lodestar/internal/program"
	"github.com/lodestar-ml/lodestar/tensor"
)

func newPackCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "pack <model-dir> <bundle-file>",
		Short:   "Pack a model directory into a single-file bundle",
		Example: "  lodestar pack ./model model.lodestar",
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPack(args[0], args[1])
		},
	}
	return cmd
}

func runPack(dir, out string) error {
	log, err := newLogger()
	if err != nil {
		return err
	}

	model, err := program.Load(dir)
	if err != nil {
		return err
	}

	// Deterministic tensor order keeps repacked bundles byte-identical.
	names := make([]string, 0, len(model.Params))
	for name := range model.Params {
		names = append(names, name)
	}
	sort.Strings(names)
	params := make([]tensor.Tensor, len(names))
	for i, name := range names {
		params[i] = model.Params[name]
	}

	if err := program.WriteBundle(out, model.Program, params); err != nil {
		return err
	}
	log.Info().Str("bundle", out).Int("ops", len(model.Program.Ops)).
		Int("params", len(params)).Msg("bundle written")
	return nil
}
