// Copyright 2026 The Lodestar Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package main

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/lodestar-ml/lodestar/internal/program"
)

func newInspectCmd() *cobra.Command {
	var (
		modelDir  string
		progFile  string
		paramFile string
		modelFile string
	)
	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Print a model's op graph and parameter metadata",
		Example: `  lodestar inspect --model-dir ./model
  lodestar inspect --model-file model.lodestar`,
		RunE: func(cmd *cobra.Command, args []string) error {
			model, err := loadModel(modelDir, progFile, paramFile, modelFile)
			if err != nil {
				return err
			}
			printModel(model)
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&modelDir, "model-dir", "", "model directory (program.json + params.bin)")
	f.StringVar(&progFile, "prog-file", "", "program file, paired with --param-file")
	f.StringVar(&paramFile, "param-file", "", "parameter file, paired with --prog-file")
	f.StringVar(&modelFile, "model-file", "", "single-file model bundle")
	return cmd
}

func loadModel(modelDir, progFile, paramFile, modelFile string) (*program.Model, error) {
	switch {
	case modelFile != "":
		return program.LoadBundle(modelFile)
	case modelDir != "":
		return program.Load(modelDir)
	case progFile != "" && paramFile != "":
		return program.LoadFiles(progFile, paramFile)
	default:
		return nil, fmt.Errorf("no model source: set --model-dir, --model-file or --prog-file/--param-file")
	}
}

func printModel(model *program.Model) {
	prog := model.Program
	fmt.Printf("format version: %d\n", prog.FormatVersion)
	fmt.Printf("inputs:  %s\n", strings.Join(prog.Inputs, ", "))
	fmt.Printf("outputs: %s\n", strings.Join(prog.Outputs, ", "))

	fmt.Printf("ops (%d):\n", len(prog.Ops))
	for i, op := range prog.Ops {
		line := fmt.Sprintf("  %3d %-10s %v -> %v", i, op.Type, op.Inputs, op.Outputs)
		if len(op.Attrs) > 0 {
			keys := make([]string, 0, len(op.Attrs))
			for k := range op.Attrs {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			attrs := make([]string, len(keys))
			for j, k := range keys {
				attrs[j] = fmt.Sprintf("%s=%v", k, op.Attrs[k])
			}
			line += " {" + strings.Join(attrs, ", ") + "}"
		}
		fmt.Println(line)
	}

	names := make([]string, 0, len(model.Params))
	for name := range model.Params {
		names = append(names, name)
	}
	sort.Strings(names)
	fmt.Printf("params (%d):\n", len(names))
	for _, name := range names {
		p := model.Params[name]
		fmt.Printf("  %-20s %s %v (%d bytes)\n", name, p.DType, p.Shape, p.Data.Len())
	}
}
