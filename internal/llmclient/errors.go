package llmclient

import (
	"net/http"
	"strconv"
	"strings"
	"time"
)

// Error is the unified error interface returned by Client.Complete,
// generalized from the teacher's internal/llm.Error so planner/compile's
// retry loop can branch on Retryable/RetryAfter without caring which
// transport failure produced them.
type Error interface {
	error
	StatusCode() int
	Retryable() bool
	RetryAfter() *time.Duration
}

type httpError struct {
	statusCode int
	message    string
	retryable  bool
	retryAfter *time.Duration
}

func (e *httpError) Error() string {
	msg := strings.TrimSpace(e.message)
	if msg == "" {
		msg = "request failed"
	}
	return "llm transport error (status=" + strconv.Itoa(e.statusCode) + "): " + msg
}
func (e *httpError) StatusCode() int              { return e.statusCode }
func (e *httpError) Retryable() bool              { return e.retryable }
func (e *httpError) RetryAfter() *time.Duration   { return e.retryAfter }

// retryableStatuses is fixed to {429, 502, 503, 504}, not the broader
// 5xx-is-retryable rule the teacher's multi-provider client uses.
var retryableStatuses = map[int]bool{429: true, 502: true, 503: true, 504: true}

// ErrorFromHTTPStatus classifies a non-2xx LLM transport response.
func ErrorFromHTTPStatus(statusCode int, message string, retryAfter *time.Duration) error {
	return &httpError{
		statusCode: statusCode,
		message:    message,
		retryable:  retryableStatuses[statusCode],
		retryAfter: retryAfter,
	}
}

// ParseRetryAfter parses the Retry-After header value: integer seconds or an
// RFC 7231 HTTP-date. Grounded verbatim on the teacher's
// internal/llm.ParseRetryAfter, since this is a generic HTTP parsing
// utility unrelated to the multi-provider adapter registry it lives beside
// there.
func ParseRetryAfter(v string, now time.Time) *time.Duration {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil
	}
	if secs, err := strconv.Atoi(v); err == nil && secs >= 0 {
		d := time.Duration(secs) * time.Second
		return &d
	}
	if t, err := http.ParseTime(v); err == nil {
		d := t.Sub(now)
		if d < 0 {
			d = 0
		}
		return &d
	}
	return nil
}

// IsRetryable reports whether err (as returned by Client.Complete) should be
// retried by the planner compile loop or the factory engine's SE call.
func IsRetryable(err error) bool {
	if e, ok := err.(Error); ok {
		return e.Retryable()
	}
	return false
}
