// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package bus

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/bureau-foundation/safetybus/lib/schema/entry"
)

func TestLogIntentionReturnsPosition(t *testing.T) {
	transport := NewMemoryTransport(nil)
	client := newTestClient(t, transport, nil)
	defer client.Close()
	ctx := context.Background()

	first, err := client.LogIntention(ctx, "one")
	if err != nil {
		t.Fatalf("LogIntention: %v", err)
	}
	second, err := client.LogIntention(ctx, "two")
	if err != nil {
		t.Fatalf("LogIntention: %v", err)
	}
	if first != 1 || second != 2 {
		t.Errorf("positions = %d, %d, want 1, 2", first, second)
	}
}

func TestSubmissionKinds(t *testing.T) {
	// One call per submission method, then read the log back and
	// check each landed with its wire kind, in order.
	transport := NewMemoryTransport(nil)
	client := newTestClient(t, transport, nil)
	defer client.Close()
	ctx := context.Background()

	intentionID, err := client.LogIntention(ctx, "candidate action")
	if err != nil {
		t.Fatalf("LogIntention: %v", err)
	}

	steps := []struct {
		kind   entry.Kind
		submit func() (entry.Position, error)
	}{
		{entry.KindInferenceInput, func() (entry.Position, error) {
			return client.LogInferenceInput(ctx, "prompt")
		}},
		{entry.KindInferenceOutput, func() (entry.Position, error) {
			return client.LogInferenceOutput(ctx, "completion")
		}},
		{entry.KindAgentInput, func() (entry.Position, error) {
			return client.LogAgentInput(ctx, "observation")
		}},
		{entry.KindAgentOutput, func() (entry.Position, error) {
			return client.LogAgentOutput(ctx, "utterance")
		}},
		{entry.KindVote, func() (entry.Position, error) {
			return client.LogVote(ctx, entry.Vote{
				IntentionID: intentionID,
				Verdict:     entry.ProbabilityVerdict(0.93),
				Voter:       entry.VoterInfo{Name: "reviewer", Model: "overseer-small"},
			})
		}},
		{entry.KindCommit, func() (entry.Position, error) {
			return client.LogCommit(ctx, intentionID, "approved")
		}},
		{entry.KindActionOutput, func() (entry.Position, error) {
			return client.LogActionOutput(ctx, "exit status 0", intentionID)
		}},
		{entry.KindAbort, func() (entry.Position, error) {
			return client.LogAbort(ctx, intentionID, "superseded")
		}},
		{entry.KindDeciderPolicy, func() (entry.Position, error) {
			return client.SetDeciderPolicy(ctx, entry.DeciderPolicy{
				PolicyKind: "quorum",
				Config:     json.RawMessage(`{"threshold":2}`),
			})
		}},
		{entry.KindVoterPolicy, func() (entry.Position, error) {
			return client.SetVoterPolicy(ctx, entry.VoterPolicy{PolicyKind: "llm-judge"})
		}},
		{entry.KindControl, func() (entry.Position, error) {
			return client.LogControl(ctx, entry.Control{Command: entry.ControlSessionStart})
		}},
	}

	for _, step := range steps {
		if _, err := step.submit(); err != nil {
			t.Fatalf("submitting %s: %v", step.kind, err)
		}
	}

	entries, complete, err := transport.Poll(ctx, client.Bus(), 0, 0, nil)
	if err != nil {
		t.Fatalf("Poll: %v", err)
	}
	if !complete {
		t.Fatal("complete = false, want true")
	}
	if len(entries) != len(steps)+1 {
		t.Fatalf("log has %d entries, want %d", len(entries), len(steps)+1)
	}
	if got := entries[0].Payload.Kind(); got != entry.KindIntention {
		t.Errorf("entries[0] kind = %s, want %s", got, entry.KindIntention)
	}
	for i, step := range steps {
		if got := entries[i+1].Payload.Kind(); got != step.kind {
			t.Errorf("entries[%d] kind = %s, want %s", i+1, got, step.kind)
		}
	}
}

func TestLogActionOutputLinksIntention(t *testing.T) {
	transport := NewMemoryTransport(nil)
	client := newTestClient(t, transport, nil)
	defer client.Close()
	ctx := context.Background()

	intentionID, err := client.LogIntention(ctx, "ls /tmp")
	if err != nil {
		t.Fatalf("LogIntention: %v", err)
	}
	outputPosition, err := client.LogActionOutput(ctx, "a.txt b.txt", intentionID)
	if err != nil {
		t.Fatalf("LogActionOutput: %v", err)
	}

	entries, _, err := transport.Poll(ctx, client.Bus(), outputPosition, 1, nil)
	if err != nil {
		t.Fatalf("Poll: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("Poll returned %d entries, want 1", len(entries))
	}
	payload, ok := entries[0].Payload.(*entry.ActionOutput)
	if !ok {
		t.Fatalf("payload = %T, want *entry.ActionOutput", entries[0].Payload)
	}
	if payload.IntentionID != intentionID {
		t.Errorf("IntentionID = %d, want %d", payload.IntentionID, intentionID)
	}
	if payload.Content != "a.txt b.txt" {
		t.Errorf("Content = %q, want %q", payload.Content, "a.txt b.txt")
	}
}

func TestSubmissionFailurePropagates(t *testing.T) {
	cause := errors.New("service unavailable")
	script := &scriptTransport{proposeErr: cause}
	client := newTestClient(t, script, nil)
	ctx := context.Background()

	_, err := client.LogIntention(ctx, "anything")
	if err == nil {
		t.Fatal("LogIntention should propagate the transport failure")
	}
	if !errors.Is(err, cause) {
		t.Errorf("error = %v, want wrap of %v", err, cause)
	}

	// Every submission method propagates the same way.
	if _, err := client.LogCommit(ctx, 1, "ok"); !errors.Is(err, cause) {
		t.Errorf("LogCommit error = %v, want wrap of %v", err, cause)
	}
	if _, err := client.LogActionOutput(ctx, "out", 1); !errors.Is(err, cause) {
		t.Errorf("LogActionOutput error = %v, want wrap of %v", err, cause)
	}
}

func TestSubmissionRejectsInvalidPayload(t *testing.T) {
	transport := NewMemoryTransport(nil)
	client := newTestClient(t, transport, nil)
	defer client.Close()
	ctx := context.Background()

	_, err := client.LogCommit(ctx, 0, "no intention")
	if err == nil {
		t.Fatal("LogCommit with intention ID 0 should fail")
	}
	if !strings.Contains(err.Error(), "intention_id") {
		t.Errorf("error = %q, want intention_id complaint", err)
	}

	_, err = client.LogVote(ctx, entry.Vote{IntentionID: 1, Voter: entry.VoterInfo{Name: "r"}})
	if err == nil {
		t.Fatal("LogVote with empty verdict should fail")
	}
}

func TestSetDeciderPolicyRoundTrip(t *testing.T) {
	transport := NewMemoryTransport(nil)
	client := newTestClient(t, transport, nil)
	defer client.Close()
	ctx := context.Background()

	position, err := client.SetDeciderPolicy(ctx, entry.DeciderPolicy{
		PolicyKind: "quorum",
		Config:     json.RawMessage(`{"threshold":2,"veto":true}`),
	})
	if err != nil {
		t.Fatalf("SetDeciderPolicy: %v", err)
	}

	entries, _, err := transport.Poll(ctx, client.Bus(), position, 1, nil)
	if err != nil {
		t.Fatalf("Poll: %v", err)
	}
	payload, ok := entries[0].Payload.(*entry.DeciderPolicy)
	if !ok {
		t.Fatalf("payload = %T, want *entry.DeciderPolicy", entries[0].Payload)
	}
	if payload.PolicyKind != "quorum" {
		t.Errorf("PolicyKind = %q, want %q", payload.PolicyKind, "quorum")
	}
	if string(payload.Config) != `{"threshold":2,"veto":true}` {
		t.Errorf("Config = %s, want the submitted document", payload.Config)
	}
}
