package notionclient

import (
	"context"
	"errors"
	"testing"

	"github.com/jomei/notionapi"
	"golang.org/x/time/rate"
)

func TestNew(t *testing.T) {
	c := New("test-token")
	if c == nil {
		t.Fatal("New() returned nil")
	}
	if c.api == nil {
		t.Error("api client is nil")
	}
	if c.limiter == nil {
		t.Error("limiter is nil")
	}
}

func TestWithRateLimit(t *testing.T) {
	c := New("test-token", WithRateLimit(10, 20))
	if c.limiter.Burst() != 20 {
		t.Errorf("Burst() = %d, want 20", c.limiter.Burst())
	}
}

func TestFatalAndTransientStatus(t *testing.T) {
	cases := []struct {
		status          int
		wantFatal       bool
		wantTransient   bool
	}{
		{401, true, false},
		{404, true, false},
		{429, false, true},
		{500, false, true},
		{503, false, true},
		{400, false, false},
		{200, false, false},
	}
	for _, c := range cases {
		if got := fatalStatus(c.status); got != c.wantFatal {
			t.Errorf("fatalStatus(%d) = %v, want %v", c.status, got, c.wantFatal)
		}
		if got := transientStatus(c.status); got != c.wantTransient {
			t.Errorf("transientStatus(%d) = %v, want %v", c.status, got, c.wantTransient)
		}
	}
}

func TestWithRetrySucceedsAfterTransientFailures(t *testing.T) {
	limiter := rate.NewLimiter(rate.Inf, 1)
	attempts := 0

	err := withRetry(context.Background(), limiter, func() error {
		attempts++
		if attempts < 3 {
			return &notionapi.Error{Status: 503, Message: "unavailable"}
		}
		return nil
	})
	if err != nil {
		t.Fatalf("withRetry() error = %v", err)
	}
	if attempts != 3 {
		t.Errorf("attempts = %d, want 3", attempts)
	}
}

func TestWithRetryAbortsOnFatalStatus(t *testing.T) {
	limiter := rate.NewLimiter(rate.Inf, 1)
	attempts := 0

	err := withRetry(context.Background(), limiter, func() error {
		attempts++
		return &notionapi.Error{Status: 404, Message: "not found"}
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if attempts != 1 {
		t.Errorf("attempts = %d, want 1 (no retry on fatal status)", attempts)
	}
}

func TestWithRetryGivesUpAfterMaxAttempts(t *testing.T) {
	limiter := rate.NewLimiter(rate.Inf, 1)
	attempts := 0

	err := withRetry(context.Background(), limiter, func() error {
		attempts++
		return &notionapi.Error{Status: 500, Message: "boom"}
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if attempts != maxAttempts {
		t.Errorf("attempts = %d, want %d", attempts, maxAttempts)
	}
}

func TestClassifyNonAPIError(t *testing.T) {
	_, ok := classify(errors.New("boom"))
	if ok {
		t.Error("classify() of a plain error should not report ok")
	}
}
