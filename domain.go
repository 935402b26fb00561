// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package polar

import (
	"time"

	"github.com/pkg/errors"
)

// LicenseKeyStatus is the status the service assigns to a license key.
type LicenseKeyStatus string

const (
	LicenseKeyStatusGranted  LicenseKeyStatus = "granted"
	LicenseKeyStatusRevoked  LicenseKeyStatus = "revoked"
	LicenseKeyStatusDisabled LicenseKeyStatus = "disabled"
)

// LicenseKey is the read-only snapshot of a license key as returned by the
// service. Nil pointer fields mean the service reported no value; a nil
// LimitActivations or LimitUsage means unlimited, a nil ExpiresAt means the
// key never expires.
type LicenseKey struct {
	ID               string           `json:"id"`
	OrganizationID   string           `json:"organization_id"`
	CustomerID       string           `json:"customer_id"`
	BenefitID        string           `json:"benefit_id"`
	Key              string           `json:"key"`
	DisplayKey       string           `json:"display_key"`
	Status           LicenseKeyStatus `json:"status"`
	LimitActivations *int             `json:"limit_activations"`
	Usage            int              `json:"usage"`
	LimitUsage       *int             `json:"limit_usage"`
	Validations      int              `json:"validations"`
	LastValidatedAt  *time.Time       `json:"last_validated_at"`
	CreatedAt        time.Time        `json:"created_at"`
	ModifiedAt       *time.Time       `json:"modified_at"`
	ExpiresAt        *time.Time       `json:"expires_at"`
}

// IsValidAt reports whether the key is granted and not expired at the given
// instant. The result is derived on every call, never cached.
func (k *LicenseKey) IsValidAt(now time.Time) bool {
	if k.Status != LicenseKeyStatusGranted {
		return false
	}
	if k.ExpiresAt == nil {
		return true
	}
	return now.Before(*k.ExpiresAt)
}

// IsValid reports whether the key is valid right now.
func (k *LicenseKey) IsValid() bool {
	return k.IsValidAt(time.Now())
}

// IsExpiredAt reports whether the key's expiry has passed at the given
// instant. A key without an expiry never expires.
func (k *LicenseKey) IsExpiredAt(now time.Time) bool {
	return k.ExpiresAt != nil && !now.Before(*k.ExpiresAt)
}

// IsExpired reports whether the key is expired right now.
func (k *LicenseKey) IsExpired() bool {
	return k.IsExpiredAt(time.Now())
}

// Activation is one device/installation slot bound to a license key.
type Activation struct {
	ID           string            `json:"id"`
	LicenseKeyID string            `json:"license_key_id"`
	Label        string            `json:"label"`
	Meta         map[string]string `json:"meta"`
	CreatedAt    time.Time         `json:"created_at"`
	ModifiedAt   *time.Time        `json:"modified_at"`
}

// BillingAddress holds the customer billing address. Every field is
// independently optional.
type BillingAddress struct {
	Country    *string `json:"country"`
	Line1      *string `json:"line1"`
	PostalCode *string `json:"postal_code"`
	City       *string `json:"city"`
	State      *string `json:"state"`
}

// Customer is included on validate responses when the service knows the
// purchasing customer.
type Customer struct {
	ID             string          `json:"id"`
	Email          string          `json:"email"`
	Name           *string         `json:"name"`
	BillingAddress *BillingAddress `json:"billing_address"`
}

// ActivateRequest is the payload for the activate endpoint.
type ActivateRequest struct {
	// License key
	Key string `json:"key"`

	// Organization ID, filled from the client when empty
	OrganizationID string `json:"organization_id"`

	// Label to associate with this specific activation
	Label string `json:"label"`

	// Custom conditions to validate against in the future, e.g. a device
	// fingerprint, IP or major version
	Conditions map[string]string `json:"conditions,omitempty"`

	// Metadata to store for the activation
	Meta map[string]string `json:"meta,omitempty"`
}

func (r *ActivateRequest) Validate() []error {
	var err []error
	if r.Key == "" {
		err = append(err, errors.New("key is required"))
	}
	if r.Label == "" {
		err = append(err, errors.New("label is required"))
	}
	if r.OrganizationID == "" {
		err = append(err, ErrNoOrganizationID)
	}

	return err
}

func (r *ActivateRequest) SetCondition(k, v string) {
	if r.Conditions == nil {
		r.Conditions = make(map[string]string)
	}
	r.Conditions[k] = v
}

func (r *ActivateRequest) SetMeta(k, v string) {
	if r.Meta == nil {
		r.Meta = make(map[string]string)
	}
	r.Meta[k] = v
}

// ActivateResponse is the new activation plus a snapshot of its license key.
type ActivateResponse struct {
	Activation

	LicenseKey LicenseKey `json:"license_key"`
}

// ValidateRequest is the payload for the validate endpoint. ActivationID,
// IncrementUsage and Conditions are optional.
type ValidateRequest struct {
	Key            string            `json:"key"`
	OrganizationID string            `json:"organization_id"`
	ActivationID   string            `json:"activation_id,omitempty"`
	IncrementUsage int               `json:"increment_usage,omitempty"`
	Conditions     map[string]string `json:"conditions,omitempty"`
}

func (r *ValidateRequest) Validate() []error {
	var err []error
	if r.Key == "" {
		err = append(err, errors.New("key is required"))
	}
	if r.OrganizationID == "" {
		err = append(err, ErrNoOrganizationID)
	}

	return err
}

func (r *ValidateRequest) SetCondition(k, v string) {
	if r.Conditions == nil {
		r.Conditions = make(map[string]string)
	}
	r.Conditions[k] = v
}

// ValidationResult is the validate response: the license key snapshot plus
// the optional customer and, when an activation ID was supplied, the matching
// activation. Validity is derived via IsValidAt/IsExpiredAt on read.
type ValidationResult struct {
	LicenseKey

	Customer   *Customer   `json:"customer"`
	Activation *Activation `json:"activation"`
}

// DeactivateRequest releases a previously created activation.
type DeactivateRequest struct {
	Key            string `json:"key"`
	OrganizationID string `json:"organization_id"`
	ActivationID   string `json:"activation_id"`
}

func (r *DeactivateRequest) Validate() []error {
	var err []error
	if r.Key == "" {
		err = append(err, errors.New("key is required"))
	}
	if r.ActivationID == "" {
		err = append(err, errors.New("activation ID is required"))
	}
	if r.OrganizationID == "" {
		err = append(err, ErrNoOrganizationID)
	}

	return err
}

// MaskLicenseKey masks a license key for logging (shows first 8 chars + ***).
func MaskLicenseKey(key string) string {
	if len(key) <= 8 {
		return "***"
	}
	return key[:8] + "***"
}

// MaskID masks an ID for logging (shows first 8 chars + ***).
func MaskID(id string) string {
	if len(id) <= 8 {
		return "***"
	}
	return id[:8] + "***"
}
