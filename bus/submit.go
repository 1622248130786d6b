// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package bus

import (
	"context"
	"fmt"

	"github.com/bureau-foundation/safetybus/lib/schema/entry"
)

// propose performs one atomic append. Failures propagate to the
// caller with the cause preserved: a caller must know definitively
// whether the entry was logged, and must not assume it was on error.
func (c *Client) propose(ctx context.Context, payload entry.Payload) (entry.Position, error) {
	position, err := c.transport.Propose(ctx, c.bus, payload)
	if err != nil {
		return 0, fmt.Errorf("bus: proposing %s entry: %w", payload.Kind(), err)
	}
	c.logger.Debug("bus entry appended",
		"bus", c.bus,
		"kind", payload.Kind(),
		"position", position,
	)
	return position, nil
}

// LogIntention submits a candidate action for review and returns its
// position — the intention ID that every later commit, abort, vote,
// and action output references. The intention must not be executed
// until [Client.WaitForSafetyDecision] approves it.
func (c *Client) LogIntention(ctx context.Context, content string) (entry.Position, error) {
	return c.propose(ctx, &entry.Intention{Content: content})
}

// LogInferenceInput records a prompt sent to a model.
func (c *Client) LogInferenceInput(ctx context.Context, content string) (entry.Position, error) {
	return c.propose(ctx, &entry.InferenceInput{Content: content})
}

// LogInferenceOutput records a model's raw response.
func (c *Client) LogInferenceOutput(ctx context.Context, content string) (entry.Position, error) {
	return c.propose(ctx, &entry.InferenceOutput{Content: content})
}

// LogAgentInput records input delivered to the agent.
func (c *Client) LogAgentInput(ctx context.Context, content string) (entry.Position, error) {
	return c.propose(ctx, &entry.AgentInput{Content: content})
}

// LogAgentOutput records output produced by the agent.
func (c *Client) LogAgentOutput(ctx context.Context, content string) (entry.Position, error) {
	return c.propose(ctx, &entry.AgentOutput{Content: content})
}

// LogActionOutput links the result of executing an approved intention
// back to that intention for audit.
func (c *Client) LogActionOutput(ctx context.Context, content string, intentionID entry.Position) (entry.Position, error) {
	return c.propose(ctx, &entry.ActionOutput{IntentionID: intentionID, Content: content})
}

// SetDeciderPolicy appends a decider policy change. Policy is
// configuration data on the log for auditability — the decider itself
// runs elsewhere.
func (c *Client) SetDeciderPolicy(ctx context.Context, policy entry.DeciderPolicy) (entry.Position, error) {
	return c.propose(ctx, &policy)
}

// SetVoterPolicy appends a voter policy change.
func (c *Client) SetVoterPolicy(ctx context.Context, policy entry.VoterPolicy) (entry.Position, error) {
	return c.propose(ctx, &policy)
}

// LogCommit records an approval decision for an intention. Called by
// decider processes, never by the agent whose intention is under
// review.
func (c *Client) LogCommit(ctx context.Context, intentionID entry.Position, reason string) (entry.Position, error) {
	return c.propose(ctx, &entry.Commit{IntentionID: intentionID, Reason: reason})
}

// LogAbort records a rejection decision for an intention.
func (c *Client) LogAbort(ctx context.Context, intentionID entry.Position, reason string) (entry.Position, error) {
	return c.propose(ctx, &entry.Abort{IntentionID: intentionID, Reason: reason})
}

// LogVote records one reviewer's verdict on an intention. Votes are
// input to the external decider; the bus only stores them.
func (c *Client) LogVote(ctx context.Context, vote entry.Vote) (entry.Position, error) {
	return c.propose(ctx, &vote)
}

// LogControl records a session control marker.
func (c *Client) LogControl(ctx context.Context, control entry.Control) (entry.Position, error) {
	return c.propose(ctx, &control)
}
