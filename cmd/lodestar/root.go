// Copyright 2026 The Lodestar Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package main

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

const version = "v0.1.0-dev"

var logLevel string

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "lodestar",
		Short:         "Run, inspect and pack Lodestar models",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.PersistentFlags().StringVar(&logLevel, "log-level", "info",
		"log level: debug|info|warn|error")

	root.AddCommand(newInferCmd(), newInspectCmd(), newPackCmd(), newVersionCmd())
	return root
}

// newLogger builds the console logger every subcommand reports through.
func newLogger() (zerolog.Logger, error) {
	level, err := zerolog.ParseLevel(logLevel)
	if err != nil {
		return zerolog.Nop(), fmt.Errorf("invalid log level %q: %w", logLevel, err)
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		Level(level).With().Timestamp().Logger(), nil
}
