// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package main

import (
	"bufio"
	"fmt"
	"os"
	"os/user"
	"strings"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	polar "github.com/autobrr/go-polar"
	"github.com/autobrr/go-polar/internal/config"
	"github.com/autobrr/go-polar/internal/store"
)

const (
	fingerprintAppID = "go-polar"
	defaultLabel     = "polarctl"
)

// clientFlags are the connection flags shared by every command.
type clientFlags struct {
	configDir string
	orgID     string
	apiURL    string
	sandbox   bool
}

func (f *clientFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.configDir, "config-dir", config.DefaultConfigDir(), "directory for config, logs and the activation store")
	cmd.Flags().StringVar(&f.orgID, "org", "", "organization ID (overrides config)")
	cmd.Flags().BoolVar(&f.sandbox, "sandbox", false, "target the sandbox instance (overrides config)")
	cmd.Flags().StringVar(&f.apiURL, "api-url", "", "override the API base URL")
	cmd.Flags().MarkHidden("api-url") //nolint:errcheck
}

// loadConfig resolves config.toml, applies flag overrides and sets up logging.
func (f *clientFlags) loadConfig(cmd *cobra.Command) (*config.AppConfig, error) {
	cfg, err := config.New(f.configDir)
	if err != nil {
		return nil, err
	}

	if f.orgID != "" {
		cfg.Config.OrganizationID = f.orgID
	}
	if cmd.Flags().Changed("sandbox") {
		cfg.Config.Sandbox = f.sandbox
	}

	if err := cfg.ApplyLogConfig(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (f *clientFlags) buildClient(cfg *config.AppConfig) *polar.Client {
	opts := []polar.OptFunc{
		polar.WithOrganizationID(cfg.Config.OrganizationID),
		polar.WithLogger(log.Logger),
	}

	if cfg.Config.Sandbox {
		opts = append(opts, polar.WithSandbox())
	}
	if f.apiURL != "" {
		opts = append(opts, polar.WithBaseURL(f.apiURL))
	}

	return polar.NewClient(opts...)
}

func openStore(cfg *config.AppConfig) (*store.Store, error) {
	return store.Open(cfg.DatabasePath())
}

// readLicenseKey returns the key from args, from piped stdin, or via a
// hidden terminal prompt.
func readLicenseKey(args []string) (string, error) {
	if len(args) > 0 && strings.TrimSpace(args[0]) != "" {
		return strings.TrimSpace(args[0]), nil
	}

	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		line, err := bufio.NewReader(os.Stdin).ReadString('\n')
		key := strings.TrimSpace(line)
		if key == "" {
			if err != nil {
				return "", errors.Wrap(err, "failed to read license key from stdin")
			}
			return "", errors.New("no license key provided")
		}
		return key, nil
	}

	fmt.Fprint(os.Stderr, "License key: ")
	b, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", errors.Wrap(err, "failed to read license key")
	}

	key := strings.TrimSpace(string(b))
	if key == "" {
		return "", errors.New("no license key provided")
	}

	return key, nil
}

func currentUsername() string {
	if u, err := user.Current(); err == nil && u.Username != "" {
		return u.Username
	}
	if hostname, err := os.Hostname(); err == nil {
		return hostname
	}
	return "default"
}
