// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package main

import (
	"context"
	"fmt"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	polar "github.com/autobrr/go-polar"
	"github.com/autobrr/go-polar/internal/fingerprint"
	"github.com/autobrr/go-polar/internal/store"
)

type validationOutcome struct {
	key     string
	valid   bool
	expired bool
	err     error
}

// RunValidateCommand validates one or more license keys. Without arguments
// every stored activation is validated.
func RunValidateCommand() *cobra.Command {
	var (
		flags          clientFlags
		incrementUsage int
	)

	cmd := &cobra.Command{
		Use:   "validate [key...]",
		Short: "Validate license keys against the service",
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

			keys := args
			if len(keys) == 0 {
				stored, err := db.List(ctx)
				if err != nil {
					return err
				}
				for _, record := range stored {
					keys = append(keys, record.LicenseKey)
				}
			}

			if len(keys) == 0 {
				return errors.New("no license keys given and none stored, activate one first")
			}

			fp, err := fingerprint.DeviceID(fingerprintAppID, currentUsername(), cfg.Dir())
			if err != nil {
				return errors.Wrap(err, "failed to derive device fingerprint")
			}

			client := flags.buildClient(cfg)

			outcomes := make([]validationOutcome, len(keys))

			g, gctx := errgroup.WithContext(ctx)
			for i, key := range keys {
				i, key := i, key
				g.Go(func() error {
					outcomes[i] = validateKey(gctx, client, db, key, fp, incrementUsage)
					return nil
				})
			}
			g.Wait() //nolint:errcheck // goroutines report through outcomes

			var failed bool
			for _, outcome := range outcomes {
				switch {
				case outcome.err != nil:
					failed = true
					fmt.Fprintf(cmd.OutOrStdout(), "%s: error: %v\n", polar.MaskLicenseKey(outcome.key), outcome.err)
				case outcome.valid:
					fmt.Fprintf(cmd.OutOrStdout(), "%s: valid\n", polar.MaskLicenseKey(outcome.key))
				case outcome.expired:
					failed = true
					fmt.Fprintf(cmd.OutOrStdout(), "%s: expired\n", polar.MaskLicenseKey(outcome.key))
				default:
					failed = true
					fmt.Fprintf(cmd.OutOrStdout(), "%s: not valid\n", polar.MaskLicenseKey(outcome.key))
				}
			}

			if failed {
				return errors.New("one or more license keys failed validation")
			}

			return nil
		},
	}

	flags.register(cmd)
	cmd.Flags().IntVar(&incrementUsage, "increment-usage", 0, "amount to add to the key's usage counter")

	return cmd
}

func validateKey(ctx context.Context, client *polar.Client, db *store.Store, key, fp string, incrementUsage int) validationOutcome {
	outcome := validationOutcome{key: key}

	validateReq := polar.ValidateRequest{Key: key, IncrementUsage: incrementUsage}
	validateReq.SetCondition("fingerprint", fp)

	record, err := db.Get(ctx, key)
	if err == nil {
		validateReq.ActivationID = record.ActivationID
	} else if !errors.Is(err, store.ErrActivationNotFound) {
		outcome.err = err
		return outcome
	}

	result, err := client.Validate(ctx, validateReq)
	if err != nil {
		outcome.err = err
		return outcome
	}

	outcome.valid = result.IsValid()
	outcome.expired = result.IsExpired()

	if record != nil {
		status := store.StatusActive
		if !outcome.valid {
			status = store.StatusInvalid
		}
		if err := db.UpdateStatus(ctx, record.ID, status); err != nil {
			log.Error().Err(err).Str("licenseKey", polar.MaskLicenseKey(key)).Msg("failed to update stored activation status")
		}
	}

	return outcome
}
