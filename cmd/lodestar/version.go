// Copyright 2026 The Lodestar Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package main

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/lodestar-ml/lodestar/internal/device"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version and device information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("lodestar %s (%s/%s)\n", version, runtime.GOOS, runtime.GOARCH)
			if info, err := device.Probe(); err == nil {
				fmt.Printf("adapter: %s (%s)\n", info.Name, info.Vendor)
			} else {
				fmt.Println("adapter: none")
			}
		},
	}
}
