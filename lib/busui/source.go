// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package busui

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/bureau-foundation/safetybus/bus"
	"github.com/bureau-foundation/safetybus/lib/clock"
	"github.com/bureau-foundation/safetybus/lib/ref"
	"github.com/bureau-foundation/safetybus/lib/schema/entry"
)

// State is an intention's decision state as reconstructed from the
// log. Pending is the only non-terminal state; the viewer shows it in
// amber until a commit or abort lands.
type State string

const (
	StatePending   State = "pending"
	StateCommitted State = "committed"
	StateAborted   State = "aborted"
)

// VoteView is one recorded vote on an intention, reduced to display
// form.
type VoteView struct {
	// Voter is the reviewer's name.
	Voter string

	// Verdict is the rendered verdict: "approve", "deny", or "p=0.85".
	Verdict string
}

// IntentionView is one intention with everything the log has recorded
// about it.
type IntentionView struct {
	// ID is the intention's log position.
	ID entry.Position

	// Content is the proposed action.
	Content string

	// State is the reconstructed decision state.
	State State

	// Reason is the decision reason. Empty while pending.
	Reason string

	// DecidedAt is the log position of the commit or abort. Zero
	// while pending.
	DecidedAt entry.Position

	// Votes lists recorded votes in log order.
	Votes []VoteView

	// Output is the recorded action output for an executed intention.
	Output string
}

// Snapshot is a point-in-time view of a bus's intentions with
// aggregate counts.
type Snapshot struct {
	// Intentions in ascending ID order.
	Intentions []IntentionView

	// LastPosition is the highest log position observed.
	LastPosition entry.Position

	// State counts across Intentions.
	Pending   int
	Committed int
	Aborted   int
}

// Source abstracts bus data access for the viewer. PollSource drives
// a live bus; tests substitute fixed snapshots.
type Source interface {
	// Snapshot returns the current reconstructed view.
	Snapshot() Snapshot

	// Subscribe returns a channel that receives a notification when
	// the view changes. Notifications coalesce: one signal may cover
	// several new entries. Returns nil if live updates are not
	// supported.
	Subscribe() <-chan struct{}
}

// PollSourceOptions configures a PollSource.
type PollSourceOptions struct {
	// Interval between polls of the bus. Defaults to one second.
	Interval time.Duration

	// Clock for the poll pacing. Defaults to clock.Real().
	Clock clock.Clock

	// Logger for poll failures. Defaults to slog.Default(). Poll
	// failures are logged and retried, never fatal — the viewer keeps
	// showing the last good view.
	Logger *slog.Logger
}

// PollSource reconstructs intention state by tailing a bus through a
// transport. Run drives the poll loop; Snapshot and Subscribe are safe
// to call concurrently with it.
type PollSource struct {
	transport bus.Transport
	bus       ref.BusID
	interval  time.Duration
	clock     clock.Clock
	logger    *slog.Logger

	mu          sync.Mutex
	cursor      entry.Position
	byID        map[entry.Position]int
	intentions  []IntentionView
	last        entry.Position
	subscribers []chan struct{}
}

var _ Source = (*PollSource)(nil)

// NewPollSource creates a source tailing one bus over the given
// transport. The caller retains ownership of the transport.
func NewPollSource(transport bus.Transport, busID ref.BusID, options PollSourceOptions) *PollSource {
	interval := options.Interval
	if interval <= 0 {
		interval = time.Second
	}
	clk := options.Clock
	if clk == nil {
		clk = clock.Real()
	}
	logger := options.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &PollSource{
		transport: transport,
		bus:       busID,
		interval:  interval,
		clock:     clk,
		logger:    logger,
		byID:      make(map[entry.Position]int),
	}
}

// Run polls the bus until ctx is cancelled. Poll errors are logged and
// retried on the next interval.
func (s *PollSource) Run(ctx context.Context) error {
	for {
		if err := s.drain(ctx); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			s.logger.Warn("bus poll failed", "bus", s.bus, "error", err)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-s.clock.After(s.interval):
		}
	}
}

// drain reads every page currently available past the cursor and
// applies the entries. Subscribers are notified once per drain that
// observed anything new.
func (s *PollSource) drain(ctx context.Context) error {
	changed := false
	for {
		s.mu.Lock()
		cursor := s.cursor
		s.mu.Unlock()

		entries, complete, err := s.transport.Poll(ctx, s.bus, cursor, 0, nil)
		if err != nil {
			return err
		}
		if len(entries) > 0 {
			changed = true
			s.apply(entries)
		}
		if complete {
			break
		}
		if len(entries) == 0 {
			return fmt.Errorf("busui: no progress from position %d (incomplete response with no entries)", cursor)
		}
	}
	if changed {
		s.notify()
	}
	return nil
}

// apply folds a page of entries into the reconstructed view. The first
// decision for an intention wins; the log is append-only, so later
// conflicting decisions are recorded noise, not state changes.
func (s *PollSource) apply(entries []entry.Entry) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, e := range entries {
		if e.Position > s.last {
			s.last = e.Position
		}
		s.cursor = e.Position + 1

		switch payload := e.Payload.(type) {
		case *entry.Intention:
			s.byID[e.Position] = len(s.intentions)
			s.intentions = append(s.intentions, IntentionView{
				ID:      e.Position,
				Content: payload.Content,
				State:   StatePending,
			})
		case *entry.Commit:
			s.decide(payload.IntentionID, StateCommitted, payload.Reason, e.Position)
		case *entry.Abort:
			s.decide(payload.IntentionID, StateAborted, payload.Reason, e.Position)
		case *entry.Vote:
			if index, ok := s.byID[payload.IntentionID]; ok {
				s.intentions[index].Votes = append(s.intentions[index].Votes, VoteView{
					Voter:   payload.Voter.Name,
					Verdict: payload.Verdict.String(),
				})
			}
		case *entry.ActionOutput:
			if index, ok := s.byID[payload.IntentionID]; ok {
				s.intentions[index].Output = payload.Content
			}
		}
	}
}

func (s *PollSource) decide(id entry.Position, state State, reason string, at entry.Position) {
	index, ok := s.byID[id]
	if !ok || s.intentions[index].State != StatePending {
		return
	}
	s.intentions[index].State = state
	s.intentions[index].Reason = reason
	s.intentions[index].DecidedAt = at
}

// Snapshot returns a copy of the current view.
func (s *PollSource) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := Snapshot{
		Intentions:   make([]IntentionView, len(s.intentions)),
		LastPosition: s.last,
	}
	copy(snapshot.Intentions, s.intentions)
	for _, intention := range s.intentions {
		switch intention.State {
		case StatePending:
			snapshot.Pending++
		case StateCommitted:
			snapshot.Committed++
		case StateAborted:
			snapshot.Aborted++
		}
	}
	return snapshot
}

// Subscribe returns a channel signalled after each drain that observed
// new entries.
func (s *PollSource) Subscribe() <-chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	channel := make(chan struct{}, 1)
	s.subscribers = append(s.subscribers, channel)
	return channel
}

func (s *PollSource) notify() {
	s.mu.Lock()
	subscribers := s.subscribers
	s.mu.Unlock()
	for _, subscriber := range subscribers {
		select {
		case subscriber <- struct{}{}:
		default:
			// Subscriber already has a pending notification.
		}
	}
}
