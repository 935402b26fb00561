// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package polar

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifyStatus(t *testing.T) {
	tests := []struct {
		name       string
		statusCode int
		body       string
		wantErr    error
		wantMsg    string
	}{
		{
			name:       "403 not permitted with activation limit detail",
			statusCode: http.StatusForbidden,
			body:       `{"error":"NotPermitted","detail":"Activation limit reached for this key"}`,
			wantErr:    ErrActivationLimitReached,
		},
		{
			name:       "403 not permitted with activations detail",
			statusCode: http.StatusForbidden,
			body:       `{"error":"NotPermitted","detail":"Too many ACTIVATIONS for this key"}`,
			wantErr:    ErrActivationLimitReached,
		},
		{
			name:       "403 not permitted with other detail is disabled",
			statusCode: http.StatusForbidden,
			body:       `{"error":"NotPermitted","detail":"Key disabled by admin"}`,
			wantErr:    ErrLicenseDisabled,
			wantMsg:    "Key disabled by admin",
		},
		{
			name:       "403 not permitted without detail is disabled",
			statusCode: http.StatusForbidden,
			body:       `{"error":"NotPermitted"}`,
			wantErr:    ErrLicenseDisabled,
		},
		{
			name:       "404 is not found",
			statusCode: http.StatusNotFound,
			body:       `{"error":"ResourceNotFound","detail":"License key does not exist"}`,
			wantErr:    ErrNotFound,
		},
		{
			name:       "404 without body is not found",
			statusCode: http.StatusNotFound,
			wantErr:    ErrNotFound,
		},
		{
			name:       "422 carries the detail",
			statusCode: http.StatusUnprocessableEntity,
			body:       `{"detail":"key field required"}`,
			wantErr:    ErrUnprocessableEntity,
			wantMsg:    "key field required",
		},
		{
			name:       "422 without detail is still unprocessable",
			statusCode: http.StatusUnprocessableEntity,
			body:       `{}`,
			wantErr:    ErrUnprocessableEntity,
		},
		{
			name:       "429 is rate limited regardless of body",
			statusCode: http.StatusTooManyRequests,
			body:       `some html error page`,
			wantErr:    ErrRateLimited,
		},
		{
			name:       "429 without body is rate limited",
			statusCode: http.StatusTooManyRequests,
			wantErr:    ErrRateLimited,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := classifyStatus(tt.statusCode, []byte(tt.body))
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)
			if tt.wantMsg != "" {
				assert.Contains(t, err.Error(), tt.wantMsg)
			}
		})
	}
}

func TestClassifyStatus_ForbiddenFallback(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantMsg string
	}{
		{
			name:    "unparseable body falls back to http error",
			body:    `<html>forbidden</html>`,
			wantMsg: "Forbidden",
		},
		{
			name:    "other error code falls back to http error with detail",
			body:    `{"error":"SomethingElse","detail":"nope"}`,
			wantMsg: "nope",
		},
		{
			name:    "empty body falls back to generic forbidden",
			wantMsg: "Forbidden",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := classifyStatus(http.StatusForbidden, []byte(tt.body))

			var httpErr *HTTPError
			require.ErrorAs(t, err, &httpErr)
			assert.Equal(t, http.StatusForbidden, httpErr.StatusCode)
			assert.Contains(t, httpErr.Message, tt.wantMsg)
			assert.NotErrorIs(t, err, ErrLicenseDisabled)
			assert.NotErrorIs(t, err, ErrActivationLimitReached)
		})
	}
}

func TestClassifyStatus_UnknownStatus(t *testing.T) {
	err := classifyStatus(http.StatusBadGateway, nil)

	var httpErr *HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusBadGateway, httpErr.StatusCode)
	assert.Empty(t, httpErr.Message)
}

func TestHTTPErrorMessage(t *testing.T) {
	assert.Equal(t, "unexpected status code: 502", (&HTTPError{StatusCode: 502}).Error())
	assert.Equal(t, "unexpected status code: 403: nope", (&HTTPError{StatusCode: 403, Message: "nope"}).Error())
}

func TestNetworkErrorUnwrap(t *testing.T) {
	cause := errors.New("dial tcp: connection refused")
	err := &NetworkError{Err: cause}

	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "connection refused")
}

func TestOperationWrappers(t *testing.T) {
	assert.ErrorIs(t, ActivationFailed("limit hit"), ErrActivationFailed)
	assert.ErrorIs(t, ValidationFailed("revoked"), ErrValidationFailed)
	assert.ErrorIs(t, DeactivationFailed("gone"), ErrDeactivationFailed)
	assert.Contains(t, ActivationFailed("limit hit").Error(), "limit hit")
}
