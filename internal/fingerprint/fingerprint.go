// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

// Package fingerprint derives a stable device identifier used as an
// activation condition, so a key activated on one machine cannot be
// validated from another.
package fingerprint

import (
	"crypto/sha256"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/keygen-sh/machineid"
	"github.com/rs/zerolog/log"
)

// DeviceID returns the persisted fingerprint for the given app/user pair,
// creating and persisting one on first use.
func DeviceID(appID, userID, configDir string) (string, error) {
	path := fingerprintPath(userID, configDir)
	if content, err := os.ReadFile(path); err == nil {
		existing := strings.TrimSpace(string(content))
		if existing != "" {
			log.Trace().Str("path", path).Msg("using existing fingerprint")
			return existing, nil
		}
	}

	baseID, err := machineid.ProtectedID(appID)
	if err != nil {
		log.Warn().Err(err).Msg("failed to get machine ID, using fallback")
		baseID = fallbackMachineID()
	}

	combined := fmt.Sprintf("%s-%s-%s", appID, baseID, userID)
	hash := sha256.Sum256([]byte(combined))

	return persist(fmt.Sprintf("%x", hash), userID, configDir)
}

func fallbackMachineID() string {
	hostInfo := fmt.Sprintf("%s-%s", runtime.GOOS, runtime.GOARCH)

	if hostname, err := os.Hostname(); err == nil {
		hostInfo = fmt.Sprintf("%s-%s", hostInfo, hostname)
	}

	hash := sha256.Sum256([]byte(hostInfo))
	return fmt.Sprintf("%x", hash)[:32]
}

// persist writes the fingerprint for reuse. Persistence failures are logged
// and the in-memory fingerprint is still returned, the next run will simply
// re-derive it.
func persist(fp, userID, configDir string) (string, error) {
	path := fingerprintPath(userID, configDir)

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		log.Warn().Err(err).Str("path", path).Msg("failed to create fingerprint directory")
		return fp, nil
	}

	if err := os.WriteFile(path, []byte(fp), 0644); err != nil {
		log.Warn().Err(err).Str("path", path).Msg("failed to persist fingerprint")
		return fp, nil
	}

	log.Trace().Str("path", path).Msg("persisted new fingerprint")

	return fp, nil
}

func fingerprintPath(userID, configDir string) string {
	userHash := sha256.Sum256([]byte(userID))
	filename := fmt.Sprintf(".device-id-%x", userHash)[:20]

	return filepath.Join(configDir, filename)
}
