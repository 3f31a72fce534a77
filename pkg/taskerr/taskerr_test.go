package taskerr

import (
	"errors"
	"fmt"
	"testing"
	"time"
)

func TestErrorString(t *testing.T) {
	err := New(CodeCloudRateLimit, "slow down")
	want := "AS003: slow down"
	if err.Error() != want {
		t.Fatalf("got %q want %q", err.Error(), want)
	}

	wrapped := Wrap(CodeNetwork, fmt.Errorf("connection reset"))
	if got := wrapped.Error(); got != "AS007: A network error occurred.: connection reset" {
		t.Fatalf("unexpected wrapped message: %q", got)
	}
}

func TestRegistryCoversAllCodes(t *testing.T) {
	for _, code := range Codes() {
		e := New(code, "")
		if e.UserMessage() == "" {
			t.Fatalf("code %s has no default message", code)
		}
		if e.Severity() == "" {
			t.Fatalf("code %s has no severity", code)
		}
	}
}

func TestRetryability(t *testing.T) {
	tests := []struct {
		code      Code
		retryable bool
	}{
		{CodeCloudRateLimit, true},
		{CodeCloudTimeout, true},
		{CodeCloudServer, true},
		{CodeNetwork, true},
		{CodeCloudAuth, false},
		{CodeBudgetExceeded, false},
		{CodeCircuitOpen, false},
		{CodeValidation, false},
	}
	for _, tt := range tests {
		if got := IsRetryable(New(tt.code, "")); got != tt.retryable {
			t.Errorf("IsRetryable(%s) = %v, want %v", tt.code, got, tt.retryable)
		}
	}

	if IsRetryable(errors.New("plain")) {
		t.Fatal("plain errors must not be retryable")
	}
}

func TestCodeOfThroughChain(t *testing.T) {
	inner := Wrap(CodeCloudServer, fmt.Errorf("502"))
	outer := fmt.Errorf("call failed: %w", inner)

	code, ok := CodeOf(outer)
	if !ok || code != CodeCloudServer {
		t.Fatalf("CodeOf = %s, %v", code, ok)
	}
	if !IsCode(outer, CodeCloudServer) {
		t.Fatal("IsCode mismatch")
	}
}

func TestRetryAfterDetail(t *testing.T) {
	err := New(CodeCloudRateLimit, "").WithDetail("retry_after", 42*time.Second)

	d, ok := RetryAfter(fmt.Errorf("wrapped: %w", err))
	if !ok || d != 42*time.Second {
		t.Fatalf("RetryAfter = %v, %v", d, ok)
	}

	if _, ok := RetryAfter(New(CodeNetwork, "")); ok {
		t.Fatal("expected no retry-after hint")
	}
}

func TestPermissionNotRecoverable(t *testing.T) {
	if IsRecoverable(New(CodePermission, "")) {
		t.Fatal("permission errors are not recoverable")
	}
	if !IsRecoverable(New(CodeBudgetExceeded, "")) {
		t.Fatal("budget errors are recoverable by configuration")
	}
}
