package llmclient

import (
	"testing"
	"time"
)

func TestErrorFromHTTPStatusRetryableSet(t *testing.T) {
	for _, code := range []int{429, 502, 503, 504} {
		err := ErrorFromHTTPStatus(code, "boom", nil)
		if !IsRetryable(err) {
			t.Errorf("status %d should be retryable", code)
		}
	}
	for _, code := range []int{400, 401, 403, 404, 500} {
		err := ErrorFromHTTPStatus(code, "boom", nil)
		if IsRetryable(err) {
			t.Errorf("status %d should not be retryable", code)
		}
	}
}

func TestParseRetryAfterSeconds(t *testing.T) {
	d := ParseRetryAfter("30", time.Now())
	if d == nil || *d != 30*time.Second {
		t.Fatalf("got %v, want 30s", d)
	}
}

func TestParseRetryAfterEmpty(t *testing.T) {
	if d := ParseRetryAfter("", time.Now()); d != nil {
		t.Errorf("got %v, want nil", d)
	}
}

func TestIsRetryableNonLLMError(t *testing.T) {
	if IsRetryable(errPlain{}) {
		t.Error("a plain error should never be classified retryable")
	}
}

type errPlain struct{}

func (errPlain) Error() string { return "plain" }
