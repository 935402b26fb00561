// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

// Package store persists activation identifiers on the caller side. The
// service itself never stores client state; without the activation ID a
// device cannot validate against or release its own activation slot.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	_ "modernc.org/sqlite"
)

var ErrActivationNotFound = errors.New("activation not found")

// Activation status constants
const (
	StatusActive  = "active"
	StatusInvalid = "invalid"
)

// Activation is a locally stored record of one activation slot claimed by
// this device.
type Activation struct {
	ID            int        `json:"id"`
	LicenseKey    string     `json:"licenseKey"`
	ActivationID  string     `json:"activationId"`
	Label         string     `json:"label"`
	Fingerprint   string     `json:"fingerprint"`
	Status        string     `json:"status"`
	ExpiresAt     *time.Time `json:"expiresAt,omitempty"`
	LastValidated time.Time  `json:"lastValidated"`
	CreatedAt     time.Time  `json:"createdAt"`
	UpdatedAt     time.Time  `json:"updatedAt"`
}

const schema = `
CREATE TABLE IF NOT EXISTS activations (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	license_key TEXT NOT NULL UNIQUE,
	activation_id TEXT NOT NULL,
	label TEXT NOT NULL,
	fingerprint TEXT NOT NULL DEFAULT '',
	status TEXT NOT NULL DEFAULT 'active',
	expires_at TIMESTAMP,
	last_validated TIMESTAMP NOT NULL,
	created_at TIMESTAMP NOT NULL,
	updated_at TIMESTAMP NOT NULL
);
`

// Store is a SQLite-backed activation store. Writes are serialized through a
// single connection; the one-shot CLI never needs concurrent writers.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the store at path and applies the schema.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, errors.Wrap(err, "failed to create database directory")
	}

	dsn := path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)"

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open database")
	}

	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "failed to apply schema")
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Save inserts or replaces the activation record for its license key.
func (s *Store) Save(ctx context.Context, activation *Activation) error {
	query := `
		INSERT INTO activations (license_key, activation_id, label, fingerprint, status,
		                         expires_at, last_validated, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (license_key) DO UPDATE SET
			activation_id = excluded.activation_id,
			label = excluded.label,
			fingerprint = excluded.fingerprint,
			status = excluded.status,
			expires_at = excluded.expires_at,
			last_validated = excluded.last_validated,
			updated_at = excluded.updated_at
	`

	_, err := s.db.ExecContext(ctx, query,
		activation.LicenseKey,
		activation.ActivationID,
		activation.Label,
		activation.Fingerprint,
		activation.Status,
		timeToNullTime(activation.ExpiresAt),
		activation.LastValidated,
		activation.CreatedAt,
		activation.UpdatedAt,
	)
	if err != nil {
		return errors.Wrap(err, "failed to save activation")
	}

	return nil
}

// Get retrieves the activation stored for a license key.
func (s *Store) Get(ctx context.Context, licenseKey string) (*Activation, error) {
	query := `
		SELECT id, license_key, activation_id, label, fingerprint, status,
		       expires_at, last_validated, created_at, updated_at
		FROM activations
		WHERE license_key = ?
	`

	activation := &Activation{}
	var expiresAt sql.NullTime

	err := s.db.QueryRowContext(ctx, query, licenseKey).Scan(
		&activation.ID,
		&activation.LicenseKey,
		&activation.ActivationID,
		&activation.Label,
		&activation.Fingerprint,
		&activation.Status,
		&expiresAt,
		&activation.LastValidated,
		&activation.CreatedAt,
		&activation.UpdatedAt,
	)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrActivationNotFound
		}
		return nil, err
	}

	if expiresAt.Valid {
		activation.ExpiresAt = &expiresAt.Time
	}

	return activation, nil
}

// List retrieves all stored activations, newest first.
func (s *Store) List(ctx context.Context) ([]*Activation, error) {
	query := `
		SELECT id, license_key, activation_id, label, fingerprint, status,
		       expires_at, last_validated, created_at, updated_at
		FROM activations
		ORDER BY created_at DESC
	`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var activations []*Activation
	for rows.Next() {
		activation := &Activation{}
		var expiresAt sql.NullTime

		err := rows.Scan(
			&activation.ID,
			&activation.LicenseKey,
			&activation.ActivationID,
			&activation.Label,
			&activation.Fingerprint,
			&activation.Status,
			&expiresAt,
			&activation.LastValidated,
			&activation.CreatedAt,
			&activation.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}

		if expiresAt.Valid {
			activation.ExpiresAt = &expiresAt.Time
		}

		activations = append(activations, activation)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return activations, nil
}

// Delete removes the activation stored for a license key.
func (s *Store) Delete(ctx context.Context, licenseKey string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM activations WHERE license_key = ?`, licenseKey)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return ErrActivationNotFound
	}

	log.Debug().
		Str("licenseKey", maskLicenseKey(licenseKey)).
		Msg("activation record deleted")

	return nil
}

// UpdateStatus updates the stored status and validation time for a record.
func (s *Store) UpdateStatus(ctx context.Context, id int, status string) error {
	query := `
		UPDATE activations
		SET status = ?, last_validated = ?, updated_at = ?
		WHERE id = ?
	`

	_, err := s.db.ExecContext(ctx, query, status, time.Now(), time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to update activation status: %w", err)
	}

	return nil
}

// UpdateValidation bumps the last validated time for a record.
func (s *Store) UpdateValidation(ctx context.Context, id int, lastValidated time.Time) error {
	query := `
		UPDATE activations
		SET last_validated = ?, updated_at = ?
		WHERE id = ?
	`

	_, err := s.db.ExecContext(ctx, query, lastValidated, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to update activation validation time: %w", err)
	}

	return nil
}

func timeToNullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{Valid: false}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

// Helper function to mask license keys in logs
func maskLicenseKey(key string) string {
	if len(key) <= 8 {
		return "***"
	}
	return key[:8] + "***"
}
