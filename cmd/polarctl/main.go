// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/autobrr/go-polar/internal/buildinfo"
)

func main() {
	rootCmd := &cobra.Command{
		Use:          "polarctl",
		Short:        "Manage Polar license key activations for this device",
		SilenceUsage: true,
	}

	rootCmd.AddCommand(RunActivateCommand())
	rootCmd.AddCommand(RunValidateCommand())
	rootCmd.AddCommand(RunDeactivateCommand())
	rootCmd.AddCommand(RunStatusCommand())
	rootCmd.AddCommand(RunVersionCommand())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// RunVersionCommand prints build information.
func RunVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Print(buildinfo.String())
		},
	}
}
