// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	polar "github.com/autobrr/go-polar"
)

// RunStatusCommand lists the activations stored on this device.
func RunStatusCommand() *cobra.Command {
	var flags clientFlags

	cmd := &cobra.Command{
		Use:   "status",
		Short: "List stored license activations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			cfg, err := flags.loadConfig(cmd)
			if err != nil {
				return err
			}

			db, err := openStore(cfg)
			if err != nil {
				return err
			}
			defer db.Close()

			records, err := db.List(ctx)
			if err != nil {
				return err
			}

			if len(records) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No stored activations")
				return nil
			}

			for _, record := range records {
				expiry := "never"
				if record.ExpiresAt != nil {
					expiry = record.ExpiresAt.Format(time.RFC3339)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s  activation=%s  status=%s  expires=%s  last validated=%s\n",
					polar.MaskLicenseKey(record.LicenseKey),
					polar.MaskID(record.ActivationID),
					record.Status,
					expiry,
					record.LastValidated.Format(time.RFC3339),
				)
			}

			return nil
		},
	}

	flags.register(cmd)

	return cmd
}
