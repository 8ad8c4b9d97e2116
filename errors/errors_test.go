package errors

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
)

func TestNew(t *testing.T) {
	err := New(ErrCodeUnavailable, "no usable response")

	if err.Code() != ErrCodeUnavailable {
		t.Errorf("expected code UNAVAILABLE, got %s", err.Code())
	}
	if err.Category() != CategoryTransient {
		t.Errorf("expected transient category, got %s", err.Category())
	}
	if !err.Retryable() {
		t.Error("unavailable errors should be retryable by default")
	}
	if err.Error() != "no usable response" {
		t.Errorf("unexpected message: %s", err.Error())
	}
}

func TestDefaultCategories(t *testing.T) {
	tests := []struct {
		code ErrorCode
		want ErrorCategory
	}{
		{ErrCodeTimeout, CategoryTransient},
		{ErrCodeUnavailable, CategoryTransient},
		{ErrCodeNetworkErr, CategoryTransient},
		{ErrCodeNotFound, CategoryPermanent},
		{ErrCodeInvalidInput, CategoryPermanent},
		{ErrCodeMalformed, CategoryPermanent},
		{ErrCodeRemote, CategoryRemote},
		{ErrCodeLLMFailed, CategoryInternal},
		{ErrCodeDataUnavailable, CategoryInternal},
		{ErrorCode("BOGUS"), CategoryInternal},
	}
	for _, tt := range tests {
		if got := tt.code.DefaultCategory(); got != tt.want {
			t.Errorf("%s: expected category %s, got %s", tt.code, tt.want, got)
		}
	}
}

func TestRemoteErrorsNotRetryable(t *testing.T) {
	err := Remote(-32602, "Invalid params: missing ticker")
	if err.Retryable() {
		t.Error("remote errors must not be retryable")
	}
	if err.RemoteCode() != -32602 {
		t.Errorf("expected remote code -32602, got %d", err.RemoteCode())
	}
	if !IsRemote(err) {
		t.Error("IsRemote should report true")
	}
}

func TestWithOptions(t *testing.T) {
	cause := fmt.Errorf("connection refused")
	err := New(ErrCodeNetworkErr, "probe failed",
		WithCause(cause),
		WithMetadata("method", "short_term_predict"),
		WithRetryable(false),
	)

	if !errors.Is(err, cause) {
		t.Error("cause should be in the error chain")
	}
	if err.Retryable() {
		t.Error("explicit retryable=false should override category default")
	}
	if err.Metadata()["method"] != "short_term_predict" {
		t.Errorf("unexpected metadata: %v", err.Metadata())
	}
}

func TestMetadataCopy(t *testing.T) {
	err := New(ErrCodeInternal, "boom", WithMetadata("k", "v"))
	m := err.Metadata()
	m["k"] = "mutated"
	if err.Metadata()["k"] != "v" {
		t.Error("Metadata must return a copy")
	}
}

func TestWrapPreservesCode(t *testing.T) {
	inner := Remote(-32000, "model exploded")
	wrapped := Wrap(inner, "invoking agent")

	if wrapped.Code() != ErrCodeRemote {
		t.Errorf("expected REMOTE_ERROR code preserved, got %s", wrapped.Code())
	}
	if wrapped.RemoteCode() != -32000 {
		t.Errorf("expected remote code preserved, got %d", wrapped.RemoteCode())
	}
	if !errors.Is(wrapped, inner) {
		t.Error("inner error should be in the chain")
	}
}

func TestWrapContextErrors(t *testing.T) {
	err := Wrap(context.DeadlineExceeded, "fetching agent card")
	if err.Code() != ErrCodeTimeout {
		t.Errorf("expected TIMEOUT for deadline exceeded, got %s", err.Code())
	}

	err = Wrap(context.Canceled, "fetching agent card")
	if err.Code() != ErrCodeCanceled {
		t.Errorf("expected CANCELED, got %s", err.Code())
	}
}

func TestWrapNil(t *testing.T) {
	if Wrap(nil, "anything") != nil {
		t.Error("wrapping nil should return nil")
	}
}

func TestIsHelpers(t *testing.T) {
	err := Unavailable("nothing answered")
	if !Is(err, ErrCodeUnavailable) {
		t.Error("Is should match UNAVAILABLE")
	}
	if Is(err, ErrCodeNotFound) {
		t.Error("Is should not match NOT_FOUND")
	}
	if Code(err) != ErrCodeUnavailable {
		t.Errorf("Code extraction failed: %s", Code(err))
	}
	if Code(fmt.Errorf("plain")) != "" {
		t.Error("plain errors have no code")
	}
	if IsRetryable(fmt.Errorf("plain")) {
		t.Error("plain errors default to not retryable")
	}
}

func TestJSONRoundTrip(t *testing.T) {
	orig := Remote(-32601, "Method not found",
		WithMetadata("candidate", "model"),
	)

	data, err := json.Marshal(orig)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}

	var decoded Error
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}

	if decoded.Code() != ErrCodeRemote {
		t.Errorf("code lost in round trip: %s", decoded.Code())
	}
	if decoded.RemoteCode() != -32601 {
		t.Errorf("remote code lost: %d", decoded.RemoteCode())
	}
	if decoded.Metadata()["candidate"] != "model" {
		t.Errorf("metadata lost: %v", decoded.Metadata())
	}
	if decoded.Retryable() {
		t.Error("retryable flag lost in round trip")
	}
}

func TestCause(t *testing.T) {
	root := fmt.Errorf("root")
	err := Wrap(WrapWithCode(root, ErrCodeNetworkErr, "mid"), "outer")
	if Cause(err) != root {
		t.Errorf("expected root cause, got %v", Cause(err))
	}
}
