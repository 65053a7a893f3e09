// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"errors"
	"fmt"
)

// ProviderError wraps a failure from an external collaborator (search,
// summarization, publishing). Providers classify their own failures;
// only the orchestrator decides retry versus abort.
type ProviderError struct {
	// Provider names the collaborator ("tavily", "openai", "wechat").
	Provider string

	// Transient marks failures expected to succeed on retry: timeouts and
	// rate limits. Auth and validation failures are not transient.
	Transient bool

	Err error
}

func (e *ProviderError) Error() string {
	kind := "permanent"
	if e.Transient {
		kind = "transient"
	}
	return fmt.Sprintf("%s: %s error: %v", e.Provider, kind, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }

// TransientError wraps err as a retryable provider failure.
func TransientError(provider string, err error) error {
	return &ProviderError{Provider: provider, Transient: true, Err: err}
}

// PermanentError wraps err as a non-retryable provider failure.
func PermanentError(provider string, err error) error {
	return &ProviderError{Provider: provider, Transient: false, Err: err}
}

// IsTransient reports whether err is a ProviderError marked transient.
// Unclassified errors are not transient: retrying an unknown failure can
// double-publish.
func IsTransient(err error) bool {
	var pe *ProviderError
	return errors.As(err, &pe) && pe.Transient
}
