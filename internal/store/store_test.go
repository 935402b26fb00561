// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()

	s, err := Open(filepath.Join(t.TempDir(), "polarctl.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	return s
}

func testActivation(key string) *Activation {
	now := time.Now()
	return &Activation{
		LicenseKey:    key,
		ActivationID:  "activation-" + key,
		Label:         "test-device",
		Fingerprint:   "fp-1",
		Status:        StatusActive,
		LastValidated: now,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

func TestSaveAndGet(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	activation := testActivation("POLAR-TEST-KEY")
	expiry := time.Now().Add(24 * time.Hour).UTC().Truncate(time.Second)
	activation.ExpiresAt = &expiry

	require.NoError(t, s.Save(ctx, activation))

	stored, err := s.Get(ctx, "POLAR-TEST-KEY")
	require.NoError(t, err)

	assert.Equal(t, "POLAR-TEST-KEY", stored.LicenseKey)
	assert.Equal(t, "activation-POLAR-TEST-KEY", stored.ActivationID)
	assert.Equal(t, "test-device", stored.Label)
	assert.Equal(t, "fp-1", stored.Fingerprint)
	assert.Equal(t, StatusActive, stored.Status)
	require.NotNil(t, stored.ExpiresAt)
	assert.WithinDuration(t, expiry, *stored.ExpiresAt, time.Second)
}

func TestGetNotFound(t *testing.T) {
	s := openTestStore(t)

	_, err := s.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrActivationNotFound)
}

func TestSaveUpsertsByLicenseKey(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	first := testActivation("POLAR-TEST-KEY")
	require.NoError(t, s.Save(ctx, first))

	second := testActivation("POLAR-TEST-KEY")
	second.ActivationID = "activation-new"
	second.Status = StatusInvalid
	require.NoError(t, s.Save(ctx, second))

	all, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "activation-new", all[0].ActivationID)
	assert.Equal(t, StatusInvalid, all[0].Status)
}

func TestListNewestFirst(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	older := testActivation("POLAR-OLD")
	older.CreatedAt = time.Now().Add(-time.Hour)
	require.NoError(t, s.Save(ctx, older))

	newer := testActivation("POLAR-NEW")
	require.NoError(t, s.Save(ctx, newer))

	all, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "POLAR-NEW", all[0].LicenseKey)
	assert.Equal(t, "POLAR-OLD", all[1].LicenseKey)
}

func TestDelete(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	require.NoError(t, s.Save(ctx, testActivation("POLAR-TEST-KEY")))
	require.NoError(t, s.Delete(ctx, "POLAR-TEST-KEY"))

	_, err := s.Get(ctx, "POLAR-TEST-KEY")
	assert.ErrorIs(t, err, ErrActivationNotFound)

	assert.ErrorIs(t, s.Delete(ctx, "POLAR-TEST-KEY"), ErrActivationNotFound)
}

func TestUpdateStatus(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	activation := testActivation("POLAR-TEST-KEY")
	require.NoError(t, s.Save(ctx, activation))

	stored, err := s.Get(ctx, "POLAR-TEST-KEY")
	require.NoError(t, err)

	require.NoError(t, s.UpdateStatus(ctx, stored.ID, StatusInvalid))

	updated, err := s.Get(ctx, "POLAR-TEST-KEY")
	require.NoError(t, err)
	assert.Equal(t, StatusInvalid, updated.Status)
	assert.False(t, updated.LastValidated.Before(stored.LastValidated))
}

func TestUpdateValidation(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	activation := testActivation("POLAR-TEST-KEY")
	activation.LastValidated = time.Now().Add(-24 * time.Hour)
	require.NoError(t, s.Save(ctx, activation))

	stored, err := s.Get(ctx, "POLAR-TEST-KEY")
	require.NoError(t, err)

	checkedAt := time.Now().UTC().Truncate(time.Second)
	require.NoError(t, s.UpdateValidation(ctx, stored.ID, checkedAt))

	updated, err := s.Get(ctx, "POLAR-TEST-KEY")
	require.NoError(t, err)
	assert.WithinDuration(t, checkedAt, updated.LastValidated, time.Second)
}
