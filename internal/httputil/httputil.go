// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package httputil provides HTTP helpers shared by the provider clients.
// Clients classify failures as transient or permanent; retry scheduling is
// the orchestrator's job, never done here.
package httputil

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/pdiddy/daily-analyst/pkg/types"
)

const defaultTimeout = 30 * time.Second

// NewClient returns an HTTP client honoring the configured timeout.
func NewClient(cfg types.HTTPConfig) *http.Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &http.Client{Timeout: timeout}
}

// Do executes req and classifies transport-level failures. Timeouts and
// context deadlines become transient provider errors; everything else at
// the transport level is also treated as transient (connection resets,
// DNS hiccups). Cancellation passes through unwrapped.
func Do(provider string, client *http.Client, req *http.Request) (*http.Response, error) {
	resp, err := client.Do(req)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return nil, err
		}
		return nil, types.TransientError(provider, err)
	}
	return resp, nil
}

// CheckStatus inspects a non-2xx response and returns a classified error,
// draining and closing the body first. Rate limits and server errors are
// transient; client errors (bad request, auth) are permanent. Returns nil
// for 2xx responses, leaving the body open for the caller.
func CheckStatus(provider string, resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()

	err := fmt.Errorf("HTTP %d", resp.StatusCode)
	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
		return types.TransientError(provider, err)
	}
	return types.PermanentError(provider, err)
}
