// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package main

import (
	"fmt"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	polar "github.com/autobrr/go-polar"
	"github.com/autobrr/go-polar/internal/fingerprint"
	"github.com/autobrr/go-polar/internal/store"
)

// RunActivateCommand activates a license key for this device and stores the
// returned activation ID for later validate/deactivate calls.
func RunActivateCommand() *cobra.Command {
	var (
		flags clientFlags
		label string
	)

	cmd := &cobra.Command{
		Use:   "activate [key]",
		Short: "Activate a license key for this device",
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

			fp, err := fingerprint.DeviceID(fingerprintAppID, currentUsername(), cfg.Dir())
			if err != nil {
				return errors.Wrap(err, "failed to derive device fingerprint")
			}

			client := flags.buildClient(cfg)

			activateReq := polar.ActivateRequest{Key: key, Label: label}
			activateReq.SetCondition("fingerprint", fp)
			activateReq.SetMeta("product", label)

			resp, err := client.Activate(ctx, activateReq)
			switch {
			case errors.Is(err, polar.ErrActivationLimitReached):
				return errors.New("activation limit reached for this key, deactivate another device first")
			case err != nil:
				return errors.Wrapf(err, "failed to activate license key %s", polar.MaskLicenseKey(key))
			}

			now := time.Now()
			record := &store.Activation{
				LicenseKey:    key,
				ActivationID:  resp.ID,
				Label:         resp.Label,
				Fingerprint:   fp,
				Status:        store.StatusActive,
				ExpiresAt:     resp.LicenseKey.ExpiresAt,
				LastValidated: now,
				CreatedAt:     now,
				UpdatedAt:     now,
			}

			if err := db.Save(ctx, record); err != nil {
				return errors.Wrap(err, "activation succeeded but could not be stored")
			}

			fmt.Fprintf(cmd.OutOrStdout(), "License %s activated, activation ID %s\n",
				resp.LicenseKey.DisplayKey, resp.ID)

			return nil
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVar(&label, "label", defaultLabel, "label to associate with this activation")

	return cmd
}
