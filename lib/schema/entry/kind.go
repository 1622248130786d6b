// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package entry

import "fmt"

// Kind is the wire tag identifying a payload's concrete type. Kinds
// double as the filter vocabulary for poll requests: a reader asks the
// server for a subset of kinds, though the filter is advisory and
// readers must not assume the response honors it.
type Kind string

const (
	// KindIntention is a proposed action submitted for safety review.
	// The entry's server-assigned position becomes the intention ID
	// that decisions, votes, and action outputs reference.
	KindIntention Kind = "intention"

	// KindCommit approves a referenced intention. Terminal: a
	// committed intention never transitions again.
	KindCommit Kind = "commit"

	// KindAbort denies a referenced intention. Terminal, like commit.
	KindAbort Kind = "abort"

	// KindVote is an advisory reviewer verdict on an intention. Votes
	// inform an external decider; the bus records them and nothing
	// more.
	KindVote Kind = "vote"

	// KindInferenceInput and KindInferenceOutput are audit records of
	// raw model I/O.
	KindInferenceInput  Kind = "inference_input"
	KindInferenceOutput Kind = "inference_output"

	// KindAgentInput and KindAgentOutput are audit records of
	// agent-level I/O (the processed view, as opposed to raw model
	// traffic).
	KindAgentInput  Kind = "agent_input"
	KindAgentOutput Kind = "agent_output"

	// KindActionOutput links an execution result back to the approved
	// intention that produced it.
	KindActionOutput Kind = "action_output"

	// KindDeciderPolicy and KindVoterPolicy record policy changes for
	// the external decider and voters. The bus stores the documents
	// verbatim; policy semantics live outside this repository.
	KindDeciderPolicy Kind = "decider_policy"
	KindVoterPolicy   Kind = "voter_policy"

	// KindControl is a session marker: start/halt boundaries and
	// operator annotations. The bus never interprets the command.
	KindControl Kind = "control"
)

// String returns the wire tag, satisfying fmt.Stringer.
func (k Kind) String() string { return string(k) }

// Valid reports whether k is one of the defined payload kinds.
func (k Kind) Valid() bool {
	switch k {
	case KindIntention, KindCommit, KindAbort, KindVote,
		KindInferenceInput, KindInferenceOutput,
		KindAgentInput, KindAgentOutput,
		KindActionOutput, KindDeciderPolicy, KindVoterPolicy,
		KindControl:
		return true
	}
	return false
}

// newPayload returns a zero value of the concrete payload type for the
// given kind. This is the single dispatch point shared by the CBOR and
// JSON decode paths.
func newPayload(kind Kind) (Payload, error) {
	switch kind {
	case KindIntention:
		return new(Intention), nil
	case KindCommit:
		return new(Commit), nil
	case KindAbort:
		return new(Abort), nil
	case KindVote:
		return new(Vote), nil
	case KindInferenceInput:
		return new(InferenceInput), nil
	case KindInferenceOutput:
		return new(InferenceOutput), nil
	case KindAgentInput:
		return new(AgentInput), nil
	case KindAgentOutput:
		return new(AgentOutput), nil
	case KindActionOutput:
		return new(ActionOutput), nil
	case KindDeciderPolicy:
		return new(DeciderPolicy), nil
	case KindVoterPolicy:
		return new(VoterPolicy), nil
	case KindControl:
		return new(Control), nil
	default:
		return nil, fmt.Errorf("entry: unknown payload kind %q", kind)
	}
}
