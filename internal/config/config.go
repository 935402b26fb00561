// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

// Package config resolves the polarctl configuration from config.toml with
// environment variable overrides.
package config

import (
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

const envPrefix = "POLARCTL__"

// Config holds the CLI settings.
type Config struct {
	OrganizationID string `mapstructure:"organizationId"`
	Sandbox        bool   `mapstructure:"sandbox"`
	LogLevel       string `mapstructure:"logLevel"`
	LogPath        string `mapstructure:"logPath"`
	LogMaxSize     int    `mapstructure:"logMaxSize"`
	LogMaxBackups  int    `mapstructure:"logMaxBackups"`
}

// AppConfig wraps Config with its viper instance and config directory.
type AppConfig struct {
	Config *Config

	viper *viper.Viper
	dir   string
}

const configTemplate = `# config.toml - polarctl

# Organization ID scoping the license keys on the service side.
#
#organizationId = ""

# Target the sandbox instance instead of production.
#
# Default: false
#
#sandbox = false

# Log level
#
# Options: "ERROR", "WARN", "INFO", "DEBUG", "TRACE"
#
logLevel = "INFO"

# Log path. Uncomment to also log to a rotated file.
#
#logPath = "log/polarctl.log"

# Max log size in megabytes before rotation.
#
#logMaxSize = 50

# Max number of rotated log files to keep.
#
#logMaxBackups = 3
`

// New loads the configuration from configDir, generating a default
// config.toml on first run.
func New(configDir string) (*AppConfig, error) {
	c := &AppConfig{
		Config: &Config{
			LogLevel:   "INFO",
			LogMaxSize: 50,
		},
		viper: viper.New(),
		dir:   configDir,
	}

	c.viper.SetDefault("organizationId", "")
	c.viper.SetDefault("sandbox", false)
	c.viper.SetDefault("logLevel", c.Config.LogLevel)
	c.viper.SetDefault("logPath", "")
	c.viper.SetDefault("logMaxSize", c.Config.LogMaxSize)
	c.viper.SetDefault("logMaxBackups", 3)

	c.viper.SetConfigName("config")
	c.viper.SetConfigType("toml")
	c.viper.AddConfigPath(configDir)

	// Env overrides take precedence over the file
	c.viper.BindEnv("organizationId", envPrefix+"ORGANIZATION_ID") //nolint:errcheck
	c.viper.BindEnv("sandbox", envPrefix+"SANDBOX")                //nolint:errcheck
	c.viper.BindEnv("logLevel", envPrefix+"LOG_LEVEL")             //nolint:errcheck
	c.viper.BindEnv("logPath", envPrefix+"LOG_PATH")               //nolint:errcheck
	c.viper.BindEnv("logMaxSize", envPrefix+"LOG_MAX_SIZE")        //nolint:errcheck
	c.viper.BindEnv("logMaxBackups", envPrefix+"LOG_MAX_BACKUPS")  //nolint:errcheck

	if err := c.writeDefaultConfig(); err != nil {
		return nil, err
	}

	if err := c.viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, errors.Wrap(err, "failed to read config file")
		}
	}

	if err := c.viper.Unmarshal(c.Config); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal config")
	}

	return c, nil
}

// Dir returns the resolved config directory.
func (c *AppConfig) Dir() string {
	return c.dir
}

// DatabasePath returns the location of the activation store.
func (c *AppConfig) DatabasePath() string {
	return filepath.Join(c.dir, "polarctl.db")
}

func (c *AppConfig) writeDefaultConfig() error {
	path := filepath.Join(c.dir, "config.toml")
	if _, err := os.Stat(path); err == nil {
		return nil
	} else if !os.IsNotExist(err) {
		return errors.Wrap(err, "failed to stat config file")
	}

	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		return errors.Wrap(err, "failed to create config directory")
	}

	if err := os.WriteFile(path, []byte(configTemplate), 0o644); err != nil {
		return errors.Wrap(err, "failed to write default config file")
	}

	return nil
}

// DefaultConfigDir resolves the per-user config directory for polarctl.
func DefaultConfigDir() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "polarctl")
	}
	return "."
}
