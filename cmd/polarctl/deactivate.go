// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package main

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	polar "github.com/autobrr/go-polar"
	"github.com/autobrr/go-polar/internal/store"
)

// RunDeactivateCommand releases this device's activation slot and removes
// the stored record.
func RunDeactivateCommand() *cobra.Command {
	var (
		flags        clientFlags
		activationID string
	)

	cmd := &cobra.Command{
		Use:   "deactivate [key]",
		Short: "Deactivate this device's activation of a license key",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			key, err := readLicenseKey(args)
			if err != nil {
				return err
			}

			cfg, err := flags.loadConfig(cmd)
			if err != nil {
				return err
			}

			db, err := openStore(cfg)
			if err != nil {
				return err
			}
			defer db.Close()

			if activationID == "" {
				record, err := db.Get(ctx, key)
				if err != nil {
					if errors.Is(err, store.ErrActivationNotFound) {
						return errors.New("no stored activation for this key, pass --activation-id")
					}
					return err
				}
				activationID = record.ActivationID
			}

			client := flags.buildClient(cfg)

			ok, err := client.Deactivate(ctx, polar.DeactivateRequest{Key: key, ActivationID: activationID})
			if err != nil {
				return errors.Wrapf(err, "failed to deactivate license key %s", polar.MaskLicenseKey(key))
			}

			if ok {
				if err := db.Delete(ctx, key); err != nil && !errors.Is(err, store.ErrActivationNotFound) {
					return errors.Wrap(err, "deactivated but failed to remove stored record")
				}
				fmt.Fprintf(cmd.OutOrStdout(), "License %s deactivated\n", polar.MaskLicenseKey(key))
			}

			return nil
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVar(&activationID, "activation-id", "", "activation ID to release (defaults to the stored one)")

	return cmd
}
