// Package engine implements the factory execution state machine: the
// SE -> TR -> PO -> finalize node cycle that turns one WorkOrder into a
// validated set of repository writes or a rolled-back no-op, bounded by a
// retry budget. Grounded on the teacher's graph-of-nodes shape
// (internal/attractor/engine) generalized down to the four fixed nodes this
// contract needs, rather than the teacher's dot-configured arbitrary graph.
package engine

import "github.com/teerev/llm-contract-harness/internal/schema"

// State is the value threaded between node functions. Every node receives a
// State and returns a new one (finalize also returns a routing signal); nodes never mutate a
// shared struct in place, matching the teacher's handler functions that
// return a delta rather than reach into shared mutable fields.
type State struct {
	RepoRoot       string
	OutDir         string
	WorkOrder      schema.WorkOrder
	AttemptIndex   int
	MaxAttempts    int
	BaselineCommit string

	Attempts []schema.AttemptRecord

	Proposal      *schema.WriteProposal
	TouchedFiles  []string
	WriteOK       bool
	VerifyResults []schema.CmdResult
	AcceptResults []schema.CmdResult
	FailureBrief  *schema.FailureBrief

	Verdict schema.Verdict

	// postRunTreeHash is set by finalize on PASS and read back by Run when
	// building the persisted RunSummary.
	postRunTreeHash string
}

// resetForNextAttempt clears every per-attempt field except FailureBrief,
// which the next SE prompt needs, and AttemptIndex, which the caller
// increments separately.
func (s State) resetForNextAttempt() State {
	s.Proposal = nil
	s.TouchedFiles = nil
	s.WriteOK = false
	s.VerifyResults = nil
	s.AcceptResults = nil
	return s
}

// route is the finalize node's next-step signal.
type route int

const (
	routeEnd route = iota
	routeRetrySE
)
