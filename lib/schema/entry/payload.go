// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package entry

import (
	"encoding/json"
	"fmt"
)

// Payload is the content of a log entry. It is a sealed union: the
// twelve concrete types in this package are the only implementations,
// enforced by the unexported marker method. Consumers type-switch on
// the concrete pointer types (*Intention, *Commit, ...) rather than
// inspecting fields through the interface.
type Payload interface {
	// Kind returns the wire tag for this payload's concrete type.
	Kind() Kind

	// Validate checks that required fields are present and
	// well-formed. Called on every encode and decode.
	Validate() error

	// sealed marks the implementation set as closed.
	sealed()
}

// Intention is a proposed action awaiting a safety decision. The
// entry's position is the intention ID referenced by commits, aborts,
// votes, and action outputs.
type Intention struct {
	// Content describes the proposed action. Typically code or a
	// structured command, but the bus treats it as opaque text.
	Content string `json:"content"`
}

func (*Intention) Kind() Kind      { return KindIntention }
func (*Intention) Validate() error { return nil }
func (*Intention) sealed()         {}

// Commit records approval of an intention. Appending a commit is the
// terminal "approved" transition for the referenced intention.
type Commit struct {
	// IntentionID is the log position of the approved intention.
	IntentionID Position `json:"intention_id"`

	// Reason explains the approval. Surfaced verbatim to callers
	// waiting on the decision.
	Reason string `json:"reason,omitempty"`
}

func (*Commit) Kind() Kind { return KindCommit }

func (c *Commit) Validate() error {
	if c.IntentionID == 0 {
		return fmt.Errorf("commit: intention_id is required")
	}
	return nil
}

func (*Commit) sealed() {}

// Abort records denial of an intention. Appending an abort is the
// terminal "denied" transition for the referenced intention.
type Abort struct {
	// IntentionID is the log position of the denied intention.
	IntentionID Position `json:"intention_id"`

	// Reason explains the denial. Surfaced verbatim to callers
	// waiting on the decision.
	Reason string `json:"reason,omitempty"`
}

func (*Abort) Kind() Kind { return KindAbort }

func (a *Abort) Validate() error {
	if a.IntentionID == 0 {
		return fmt.Errorf("abort: intention_id is required")
	}
	return nil
}

func (*Abort) sealed() {}

// Verdict is a voter's judgment on an intention: either a hard
// approve/deny or a probability of safety. Exactly one of the two
// fields must be set.
type Verdict struct {
	// Approve is the hard verdict: true approves, false denies.
	Approve *bool `json:"approve,omitempty"`

	// Probability is the soft verdict: the voter's estimate in [0, 1]
	// that the intention is safe.
	Probability *float64 `json:"probability,omitempty"`
}

// BoolVerdict returns a hard approve/deny verdict.
func BoolVerdict(approve bool) Verdict {
	return Verdict{Approve: &approve}
}

// ProbabilityVerdict returns a soft verdict with the given safety
// probability.
func ProbabilityVerdict(probability float64) Verdict {
	return Verdict{Probability: &probability}
}

// Validate checks that exactly one verdict form is set and that a
// probability, if present, is within [0, 1].
func (v *Verdict) Validate() error {
	if v.Approve != nil && v.Probability != nil {
		return fmt.Errorf("verdict: approve and probability are mutually exclusive")
	}
	if v.Approve == nil && v.Probability == nil {
		return fmt.Errorf("verdict: either approve or probability is required")
	}
	if v.Probability != nil && (*v.Probability < 0 || *v.Probability > 1) {
		return fmt.Errorf("verdict: probability %v outside [0, 1]", *v.Probability)
	}
	return nil
}

// String renders the verdict for display: "approve", "deny", or
// "p=0.85". Invalid verdicts render as "invalid".
func (v Verdict) String() string {
	switch {
	case v.Approve != nil && v.Probability != nil:
		return "invalid"
	case v.Approve != nil && *v.Approve:
		return "approve"
	case v.Approve != nil:
		return "deny"
	case v.Probability != nil:
		return fmt.Sprintf("p=%.2f", *v.Probability)
	default:
		return "invalid"
	}
}

// VoterInfo identifies the reviewer that produced a vote.
type VoterInfo struct {
	// Name identifies the voter (e.g., "policy-voter-1", "alice").
	Name string `json:"name"`

	// Model is the model identifier for automated voters. Empty for
	// human reviewers.
	Model string `json:"model,omitempty"`
}

// Vote is an advisory reviewer verdict on an intention. Votes inform
// an external decider; the bus records them without aggregation or
// interpretation.
type Vote struct {
	// IntentionID is the log position of the voted-on intention.
	IntentionID Position `json:"intention_id"`

	// Verdict is the voter's judgment.
	Verdict Verdict `json:"verdict"`

	// Voter identifies who produced the verdict.
	Voter VoterInfo `json:"voter"`
}

func (*Vote) Kind() Kind { return KindVote }

func (v *Vote) Validate() error {
	if v.IntentionID == 0 {
		return fmt.Errorf("vote: intention_id is required")
	}
	if err := v.Verdict.Validate(); err != nil {
		return fmt.Errorf("vote: %w", err)
	}
	if v.Voter.Name == "" {
		return fmt.Errorf("vote: voter name is required")
	}
	return nil
}

func (*Vote) sealed() {}

// InferenceInput is an audit record of raw input sent to a model.
type InferenceInput struct {
	Content string `json:"content"`
}

func (*InferenceInput) Kind() Kind      { return KindInferenceInput }
func (*InferenceInput) Validate() error { return nil }
func (*InferenceInput) sealed()         {}

// InferenceOutput is an audit record of raw output received from a
// model.
type InferenceOutput struct {
	Content string `json:"content"`
}

func (*InferenceOutput) Kind() Kind      { return KindInferenceOutput }
func (*InferenceOutput) Validate() error { return nil }
func (*InferenceOutput) sealed()         {}

// AgentInput is an audit record of input delivered to the agent (the
// processed view, as opposed to raw model traffic).
type AgentInput struct {
	Content string `json:"content"`
}

func (*AgentInput) Kind() Kind      { return KindAgentInput }
func (*AgentInput) Validate() error { return nil }
func (*AgentInput) sealed()         {}

// AgentOutput is an audit record of output produced by the agent.
type AgentOutput struct {
	Content string `json:"content"`
}

func (*AgentOutput) Kind() Kind      { return KindAgentOutput }
func (*AgentOutput) Validate() error { return nil }
func (*AgentOutput) sealed()         {}

// ActionOutput records the result of executing an approved intention,
// linking the observed outcome back to the decision that allowed it.
type ActionOutput struct {
	// IntentionID is the log position of the executed intention.
	IntentionID Position `json:"intention_id"`

	// Content is the execution result (stdout, return value, error
	// text). Opaque to the bus.
	Content string `json:"content"`
}

func (*ActionOutput) Kind() Kind { return KindActionOutput }

func (a *ActionOutput) Validate() error {
	if a.IntentionID == 0 {
		return fmt.Errorf("action_output: intention_id is required")
	}
	return nil
}

func (*ActionOutput) sealed() {}

// DeciderPolicy records a change to the external decider's policy.
// The bus stores the document verbatim; it carries no policy
// semantics of its own.
type DeciderPolicy struct {
	// PolicyKind names the policy family (e.g., "allowlist",
	// "llm-judge"). Interpretation belongs to the decider.
	PolicyKind string `json:"kind"`

	// Config is the policy document, stored as opaque JSON.
	Config json.RawMessage `json:"config,omitempty"`
}

func (*DeciderPolicy) Kind() Kind { return KindDeciderPolicy }

func (p *DeciderPolicy) Validate() error {
	if p.PolicyKind == "" {
		return fmt.Errorf("decider_policy: kind is required")
	}
	return nil
}

func (*DeciderPolicy) sealed() {}

// VoterPolicy records a change to the voters' policy. Same shape and
// semantics as DeciderPolicy, addressed to voters.
type VoterPolicy struct {
	// PolicyKind names the policy family. Interpretation belongs to
	// the voters.
	PolicyKind string `json:"kind"`

	// Config is the policy document, stored as opaque JSON.
	Config json.RawMessage `json:"config,omitempty"`
}

func (*VoterPolicy) Kind() Kind { return KindVoterPolicy }

func (p *VoterPolicy) Validate() error {
	if p.PolicyKind == "" {
		return fmt.Errorf("voter_policy: kind is required")
	}
	return nil
}

func (*VoterPolicy) sealed() {}

// Conventional Control commands. The bus records commands without
// interpreting them; these constants exist so writers and readers
// agree on spelling.
const (
	// ControlSessionStart marks the beginning of an agent session.
	ControlSessionStart = "session_start"

	// ControlHalt asks the agent to stop. Enforcement is external.
	ControlHalt = "halt"
)

// Control is a session marker: start/halt boundaries and operator
// annotations.
type Control struct {
	// Command is the marker verb (see ControlSessionStart,
	// ControlHalt). Free-form; the bus never interprets it.
	Command string `json:"command"`

	// Note is an optional human-readable annotation.
	Note string `json:"note,omitempty"`
}

func (*Control) Kind() Kind { return KindControl }

func (c *Control) Validate() error {
	if c.Command == "" {
		return fmt.Errorf("control: command is required")
	}
	return nil
}

func (*Control) sealed() {}

// Compile-time checks that every payload type implements Payload.
var (
	_ Payload = (*Intention)(nil)
	_ Payload = (*Commit)(nil)
	_ Payload = (*Abort)(nil)
	_ Payload = (*Vote)(nil)
	_ Payload = (*InferenceInput)(nil)
	_ Payload = (*InferenceOutput)(nil)
	_ Payload = (*AgentInput)(nil)
	_ Payload = (*AgentOutput)(nil)
	_ Payload = (*ActionOutput)(nil)
	_ Payload = (*DeciderPolicy)(nil)
	_ Payload = (*VoterPolicy)(nil)
	_ Payload = (*Control)(nil)
)
