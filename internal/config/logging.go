// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package config

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gopkg.in/natefinch/lumberjack.v2"
)

// ApplyLogConfig configures the global logger from the loaded settings:
// console output on stderr, plus a rotated log file when logPath is set.
func (c *AppConfig) ApplyLogConfig() error {
	setLogLevel(c.Config.LogLevel)

	console := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}

	writer, err := c.buildWriter(console)
	if err != nil {
		return err
	}

	log.Logger = zerolog.New(writer).With().Timestamp().Logger()

	return nil
}

func (c *AppConfig) buildWriter(base io.Writer) (io.Writer, error) {
	logPath := c.Config.LogPath
	if logPath == "" {
		return base, nil
	}

	if !filepath.IsAbs(logPath) {
		logPath = filepath.Join(c.dir, logPath)
	}

	if err := os.MkdirAll(filepath.Dir(logPath), 0o750); err != nil {
		return nil, errors.Wrapf(err, "failed to create log directory for %s", logPath)
	}

	maxSize := c.Config.LogMaxSize
	if maxSize <= 0 {
		maxSize = 50
	}
	maxBackups := c.Config.LogMaxBackups
	if maxBackups < 0 {
		maxBackups = 0
	}

	rotator := &lumberjack.Logger{
		Filename:   logPath,
		MaxSize:    maxSize,
		MaxBackups: maxBackups,
	}

	return io.MultiWriter(base, rotator), nil
}

func setLogLevel(level string) {
	switch strings.ToUpper(strings.TrimSpace(level)) {
	case "TRACE":
		zerolog.SetGlobalLevel(zerolog.TraceLevel)
	case "DEBUG":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case "ERROR":
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	case "WARN":
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
}
