// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"errors"
	"fmt"
	"testing"
)

func TestIsTransient(t *testing.T) {
	base := errors.New("timeout")

	if !IsTransient(TransientError("tavily", base)) {
		t.Error("transient error should report transient")
	}
	if IsTransient(PermanentError("tavily", base)) {
		t.Error("permanent error should not report transient")
	}
	if IsTransient(base) {
		t.Error("unclassified error should not report transient")
	}
	if IsTransient(nil) {
		t.Error("nil should not report transient")
	}
}

func TestIsTransientThroughWrapping(t *testing.T) {
	err := fmt.Errorf("after 3 retries: %w", TransientError("wechat", errors.New("system busy")))
	if !IsTransient(err) {
		t.Error("classification should survive wrapping")
	}
}

func TestProviderErrorUnwrap(t *testing.T) {
	base := errors.New("connection reset")
	err := TransientError("rss", base)
	if !errors.Is(err, base) {
		t.Error("Unwrap should expose the underlying error")
	}
}
