package adapter

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/zen-systems/relay/pkg/taskerr"
)

func TestClassifyStatus(t *testing.T) {
	base := fmt.Errorf("provider says no")

	tests := []struct {
		status int
		code   taskerr.Code
	}{
		{401, taskerr.CodeCloudAuth},
		{403, taskerr.CodeCloudAuth},
		{402, taskerr.CodeCloudQuota},
		{429, taskerr.CodeCloudRateLimit},
		{500, taskerr.CodeCloudServer},
		{503, taskerr.CodeCloudServer},
		{400, taskerr.CodeValidation},
		{422, taskerr.CodeValidation},
		{0, taskerr.CodeNetwork},
	}
	for _, tt := range tests {
		err := classifyStatus(tt.status, nil, base)
		if err.Code != tt.code {
			t.Fatalf("classifyStatus(%d) = %s, want %s", tt.status, err.Code, tt.code)
		}
		if !errors.Is(err, base) {
			t.Fatalf("classifyStatus(%d) must wrap the provider error", tt.status)
		}
	}
}

func TestRateLimitHonorsRetryAfterHeader(t *testing.T) {
	header := http.Header{}
	header.Set("Retry-After", "7")

	err := classifyStatus(429, header, errors.New("slow down"))
	wait, ok := taskerr.RetryAfter(err)
	if !ok {
		t.Fatal("429 must carry a retry-after hint")
	}
	if wait != 7*time.Second {
		t.Fatalf("retry-after = %s, want 7s", wait)
	}
}

func TestRateLimitRetryAfterFallsBackWithoutHeader(t *testing.T) {
	for _, header := range []http.Header{nil, {}, {"Retry-After": {"garbage"}}} {
		err := classifyStatus(429, header, errors.New("slow down"))
		wait, ok := taskerr.RetryAfter(err)
		if !ok {
			t.Fatal("429 must carry a retry-after hint")
		}
		if wait != defaultRetryAfter {
			t.Fatalf("retry-after = %s, want the default %s", wait, defaultRetryAfter)
		}
	}
}

func TestRetryAfterHTTPDateInPastIsZero(t *testing.T) {
	header := http.Header{}
	header.Set("Retry-After", time.Now().Add(-time.Minute).UTC().Format(http.TimeFormat))

	err := classifyStatus(429, header, errors.New("slow down"))
	wait, _ := taskerr.RetryAfter(err)
	if wait != 0 {
		t.Fatalf("past HTTP-date should yield zero wait, got %s", wait)
	}
}

func TestClassifyTransport(t *testing.T) {
	if got := classifyTransport(nil); got != nil {
		t.Fatalf("nil error should stay nil, got %v", got)
	}

	// Caller cancellation is not a provider failure.
	if got := classifyTransport(context.Canceled); !errors.Is(got, context.Canceled) {
		t.Fatalf("cancellation must pass through, got %v", got)
	}
	if code, _ := taskerr.CodeOf(classifyTransport(context.Canceled)); code != "" {
		t.Fatalf("cancellation must not be coded, got %s", code)
	}

	if !taskerr.IsCode(classifyTransport(context.DeadlineExceeded), taskerr.CodeCloudTimeout) {
		t.Fatal("deadline exceeded must map to a timeout error")
	}

	if !taskerr.IsCode(classifyTransport(errors.New("connection refused")), taskerr.CodeNetwork) {
		t.Fatal("plain transport errors must map to a network error")
	}
}

func TestMockClientFailFor(t *testing.T) {
	mock := NewMockClient().FailFor(2, errors.New("boom"))
	req := Request{Messages: []Message{{Role: RoleUser, Content: "hi"}}}

	for i := 0; i < 2; i++ {
		if _, err := mock.GenerateCompletion(context.Background(), req); err == nil {
			t.Fatalf("call %d should fail", i+1)
		}
	}
	completion, err := mock.GenerateCompletion(context.Background(), req)
	if err != nil {
		t.Fatalf("third call should succeed: %v", err)
	}
	if completion.Content == "" {
		t.Fatal("completion content is empty")
	}
	if mock.Calls() != 3 {
		t.Fatalf("calls = %d", mock.Calls())
	}
}

func TestMockClientStreamsWholeResponse(t *testing.T) {
	mock := NewMockClient().WithResponse("hello", "one two three")
	req := Request{Messages: []Message{{Role: RoleUser, Content: "hello"}}}

	var streamed string
	completion, err := mock.StreamCompletion(context.Background(), req, func(text string) {
		streamed += text
	})
	if err != nil {
		t.Fatalf("StreamCompletion: %v", err)
	}
	if streamed != completion.Content {
		t.Fatalf("streamed %q != completion %q", streamed, completion.Content)
	}
}
