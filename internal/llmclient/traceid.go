package llmclient

import "github.com/oklog/ulid/v2"

// NewTraceID mints a correlation id for one LLM request, matching the
// teacher's ulid.Make().String() idiom (internal/agent/session.go,
// internal/attractor/engine/handlers.go). It is never persisted as part of
// the contract data model and carries no ordering guarantee callers should
// rely on beyond log correlation.
func NewTraceID() string {
	return ulid.Make().String()
}
