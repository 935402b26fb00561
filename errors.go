// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package polar

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/pkg/errors"
)

var (
	ErrNoOrganizationID = errors.New("organization ID not configured")
	ErrBadRequestData   = errors.New("bad request data")

	ErrInvalidURL             = errors.New("invalid request URL")
	ErrInvalidResponse        = errors.New("invalid license response")
	ErrNotFound               = errors.New("license key or activation not found")
	ErrRateLimited            = errors.New("rate limit exceeded")
	ErrUnprocessableEntity    = errors.New("request could not be processed")
	ErrActivationLimitReached = errors.New("license key activation limit already reached")
	ErrLicenseDisabled        = errors.New("license key disabled")

	ErrActivationFailed   = errors.New("failed to activate license key")
	ErrValidationFailed   = errors.New("failed to validate license key")
	ErrDeactivationFailed = errors.New("failed to deactivate license key")
)

// HTTPError is returned for status codes that have no dedicated error in the
// taxonomy. Message may be empty when the service sent no usable error body.
type HTTPError struct {
	StatusCode int
	Message    string
}

func (e *HTTPError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("unexpected status code: %d", e.StatusCode)
	}
	return fmt.Sprintf("unexpected status code: %d: %s", e.StatusCode, e.Message)
}

// NetworkError wraps transport failures where no HTTP response was received,
// including context cancellation of an in-flight request.
type NetworkError struct {
	Err error
}

func (e *NetworkError) Error() string {
	return "network error: " + e.Err.Error()
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// Operation-scoped wrappers for callers that want errors tagged by the call
// that produced them. The client itself does not return these.

func ActivationFailed(message string) error {
	return errors.Wrap(ErrActivationFailed, message)
}

func ValidationFailed(message string) error {
	return errors.Wrap(ErrValidationFailed, message)
}

func DeactivationFailed(message string) error {
	return errors.Wrap(ErrDeactivationFailed, message)
}

// ErrorResponse is the error body shape the service sends alongside non-2xx
// status codes.
type ErrorResponse struct {
	Error  string `json:"error"`
	Detail string `json:"detail"`
}

// classifyStatus maps a non-success status code and the raw response body to
// an error from the taxonomy. 403 inspects the body first and only falls back
// to a generic HTTPError when the body is absent or not the expected shape.
func classifyStatus(statusCode int, body []byte) error {
	switch statusCode {
	case http.StatusForbidden:
		var response ErrorResponse
		if err := json.Unmarshal(body, &response); err != nil || response.Error != "NotPermitted" {
			return &HTTPError{StatusCode: statusCode, Message: forbiddenMessage(response.Detail)}
		}

		detail := strings.ToLower(response.Detail)
		if strings.Contains(detail, "activation limit") || strings.Contains(detail, "activations") {
			return ErrActivationLimitReached
		}

		if response.Detail != "" {
			return errors.Wrap(ErrLicenseDisabled, response.Detail)
		}
		return ErrLicenseDisabled

	case http.StatusNotFound:
		return ErrNotFound

	case http.StatusUnprocessableEntity:
		var response ErrorResponse
		if err := json.Unmarshal(body, &response); err == nil && response.Detail != "" {
			return errors.Wrap(ErrUnprocessableEntity, response.Detail)
		}
		return ErrUnprocessableEntity

	case http.StatusTooManyRequests:
		return ErrRateLimited

	default:
		return &HTTPError{StatusCode: statusCode}
	}
}

func forbiddenMessage(detail string) string {
	if detail == "" {
		return http.StatusText(http.StatusForbidden)
	}
	return detail
}
