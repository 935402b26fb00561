// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

// Package polar is a client for the Polar license key endpoints of the
// customer portal API. The endpoints are unauthenticated; a client only
// needs the organization ID that scopes the keys.
//
// Each call performs exactly one request. The client holds no mutable state,
// so concurrent calls are safe. Retry policy is deliberately left to callers:
// repeated activations may consume multiple activation slots.
package polar

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/autobrr/go-polar/internal/buildinfo"
)

const (
	productionBaseURL = "https://api.polar.sh/v1"
	sandboxBaseURL    = "https://sandbox-api.polar.sh/v1"

	activateEndpoint   = "/customer-portal/license-keys/activate"
	validateEndpoint   = "/customer-portal/license-keys/validate"
	deactivateEndpoint = "/customer-portal/license-keys/deactivate"

	requestTimeout = 30 * time.Second
)

// Client wraps the Polar API for license management
type Client struct {
	baseURL        string
	organizationID string
	userAgent      string

	httpClient *http.Client
	log        zerolog.Logger
}

type OptFunc func(*Client)

// WithOrganizationID sets the organization ID to use for requests.
func WithOrganizationID(organizationID string) OptFunc {
	return func(c *Client) {
		c.organizationID = organizationID
	}
}

// WithSandbox targets the isolated sandbox instance of the service so keys
// can be tested without touching production license records.
func WithSandbox() OptFunc {
	return func(c *Client) {
		c.baseURL = sandboxBaseURL
	}
}

// WithBaseURL overrides the resolved endpoint, mainly for tests and local
// development.
func WithBaseURL(baseURL string) OptFunc {
	return func(c *Client) {
		c.baseURL = baseURL
	}
}

func WithUserAgent(userAgent string) OptFunc {
	return func(c *Client) {
		c.userAgent = userAgent
	}
}

// WithHTTPClient sets a custom HTTP client to use for requests
func WithHTTPClient(httpClient *http.Client) OptFunc {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithLogger sets the logger used for request tracing. Logging is disabled
// by default.
func WithLogger(logger zerolog.Logger) OptFunc {
	return func(c *Client) {
		c.log = logger
	}
}

// NewClient creates a new Polar API client with the default HTTP client
func NewClient(opts ...OptFunc) *Client {
	c := &Client{
		baseURL:        productionBaseURL,
		organizationID: "",
		userAgent:      buildinfo.UserAgent,
		log:            zerolog.Nop(),

		httpClient: &http.Client{
			Timeout: requestTimeout,
			Transport: &http.Transport{
				MaxIdleConns:        10,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     30 * time.Second,
			},
		},
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// BaseURL returns the resolved endpoint the client sends requests to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// IsClientConfigured checks if the Polar client is properly configured
func (c *Client) IsClientConfigured() bool {
	return c.organizationID != ""
}

// Activate activates a license key for a device against the Polar API
func (c *Client) Activate(ctx context.Context, activateReq ActivateRequest) (*ActivateResponse, error) {
	if activateReq.OrganizationID == "" {
		activateReq.OrganizationID = c.organizationID
	}

	if err := activateReq.Validate(); len(err) > 0 {
		return nil, errors.Wrap(ErrBadRequestData, fmt.Sprintf("invalid request: %v", err))
	}

	c.log.Debug().
		Str("key", MaskLicenseKey(activateReq.Key)).
		Str("label", activateReq.Label).
		Msg("activating license key")

	statusCode, body, err := c.post(ctx, activateEndpoint, activateReq)
	if err != nil {
		return nil, err
	}

	if statusCode != http.StatusOK {
		return nil, classifyStatus(statusCode, body)
	}

	var response ActivateResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return nil, errors.Wrap(ErrInvalidResponse, err.Error())
	}

	return &response, nil
}

// Validate validates a license key, optionally scoped to a prior activation,
// against the Polar API
func (c *Client) Validate(ctx context.Context, validateReq ValidateRequest) (*ValidationResult, error) {
	if validateReq.OrganizationID == "" {
		validateReq.OrganizationID = c.organizationID
	}

	if err := validateReq.Validate(); len(err) > 0 {
		return nil, errors.Wrap(ErrBadRequestData, fmt.Sprintf("invalid request: %v", err))
	}

	c.log.Debug().
		Str("key", MaskLicenseKey(validateReq.Key)).
		Str("activationId", MaskID(validateReq.ActivationID)).
		Msg("validating license key")

	statusCode, body, err := c.post(ctx, validateEndpoint, validateReq)
	if err != nil {
		return nil, err
	}

	if statusCode != http.StatusOK {
		return nil, classifyStatus(statusCode, body)
	}

	var response ValidationResult
	if err := json.Unmarshal(body, &response); err != nil {
		return nil, errors.Wrap(ErrInvalidResponse, err.Error())
	}

	return &response, nil
}

// Deactivate releases a prior activation. Both 200 and 204 count as success;
// on any other status the classified error is returned and the bool is false.
func (c *Client) Deactivate(ctx context.Context, deactivateReq DeactivateRequest) (bool, error) {
	if deactivateReq.OrganizationID == "" {
		deactivateReq.OrganizationID = c.organizationID
	}

	if err := deactivateReq.Validate(); len(err) > 0 {
		return false, errors.Wrap(ErrBadRequestData, fmt.Sprintf("invalid request: %v", err))
	}

	c.log.Debug().
		Str("key", MaskLicenseKey(deactivateReq.Key)).
		Str("activationId", MaskID(deactivateReq.ActivationID)).
		Msg("deactivating license key")

	statusCode, body, err := c.post(ctx, deactivateEndpoint, deactivateReq)
	if err != nil {
		return false, err
	}

	switch statusCode {
	case http.StatusOK, http.StatusNoContent:
		return true, nil
	default:
		return false, classifyStatus(statusCode, body)
	}
}

// post sends one JSON POST and returns the status code and raw body. A
// transport failure surfaces as *NetworkError; a response whose body cannot
// be read is treated as an invalid response.
func (c *Client) post(ctx context.Context, endpoint string, payload any) (int, []byte, error) {
	jsonData, err := json.Marshal(payload)
	if err != nil {
		return 0, nil, errors.Wrap(ErrBadRequestData, err.Error())
	}

	reqURL, err := url.JoinPath(c.baseURL, endpoint)
	if err != nil {
		return 0, nil, errors.Wrap(ErrInvalidURL, err.Error())
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, reqURL, bytes.NewBuffer(jsonData))
	if err != nil {
		return 0, nil, errors.Wrap(ErrInvalidURL, err.Error())
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, nil, &NetworkError{Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, errors.Wrap(ErrInvalidResponse, err.Error())
	}

	return resp.StatusCode, body, nil
}
