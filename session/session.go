/**
 * Copyright 2026 The asyncfix Authors
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *  http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package session implements FIXSession: per-peer identity and the two
// monotonic sequence-number counters that the codec and connection engine
// depend on.
package session

import (
	"fmt"
	"sync"

	"github.com/alexveden/asyncfix/fixerr"
)

// Direction distinguishes journal entries and, transitively, which
// sequence counter a message belongs to.
type Direction int

const (
	Inbound Direction = iota
	Outbound
)

func (d Direction) String() string {
	if d == Inbound {
		return "inbound"
	}
	return "outbound"
}

// Key identifies a session by the ordered (sender, target) comp-id pair.
type Key struct {
	SenderCompID string
	TargetCompID string
}

func (k Key) String() string {
	return fmt.Sprintf("%s->%s", k.SenderCompID, k.TargetCompID)
}

// Session tracks one peer relationship's sequence-number state. All
// mutation goes through AllocateNextNumOut / SetNextNumIn / SetSeqNum so
// the connection engine's send lock and reader task are the only paths
// that ever touch the counters.
type Session struct {
	mu sync.Mutex

	key        Key
	nextNumOut int
	nextNumIn  int
}

// New returns a session with sequence numbers starting at 1.
func New(sender, target string) *Session {
	return &Session{
		key:        Key{SenderCompID: sender, TargetCompID: target},
		nextNumOut: 1,
		nextNumIn:  1,
	}
}

// Restore returns a session initialized from persisted counters, used when
// the journal loads a previously seen session.
func Restore(sender, target string, nextOut, nextIn int) *Session {
	return &Session{
		key:        Key{SenderCompID: sender, TargetCompID: target},
		nextNumOut: nextOut,
		nextNumIn:  nextIn,
	}
}

// Key returns the session's identity.
func (s *Session) Key() Key { return s.key }

// SenderCompID satisfies codec.SeqAllocator.
func (s *Session) SenderCompID() string { return s.key.SenderCompID }

// TargetCompID satisfies codec.SeqAllocator.
func (s *Session) TargetCompID() string { return s.key.TargetCompID }

// NextNumOut returns the next outbound sequence number without allocating.
func (s *Session) NextNumOut() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.nextNumOut
}

// NextNumIn returns the next expected inbound sequence number.
func (s *Session) NextNumIn() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.nextNumIn
}

// AllocateNextNumOut returns the current next_num_out and increments it.
func (s *Session) AllocateNextNumOut() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := s.nextNumOut
	s.nextNumOut++
	return n
}

// SetNextNumIn evaluates an inbound MsgSeqNum against next_num_in:
//   - equal: advances the counter and returns the accepted seq.
//   - less: returns 0 (duplicate/expected-resend; caller decides based on
//     PossDupFlag).
//   - greater: returns -1 (gap detected; caller triggers a resend).
func (s *Session) SetNextNumIn(msgSeqNum int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch {
	case msgSeqNum == s.nextNumIn:
		seq := s.nextNumIn
		s.nextNumIn++
		return seq
	case msgSeqNum < s.nextNumIn:
		return 0
	default:
		return -1
	}
}

// SetSeqNum overwrites one or both counters, e.g. on ResetSeqNumFlag=Y
// logon or a hard SequenceReset. Passing nil for a counter leaves it
// unchanged.
func (s *Session) SetSeqNum(out, in *int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if out != nil {
		s.nextNumOut = *out
	}
	if in != nil {
		s.nextNumIn = *in
	}
}

// Role distinguishes who sends the first Logon.
type Role int

const (
	Initiator Role = iota
	Acceptor
)

// ValidateCompIDs checks that an inbound frame's SenderCompID/TargetCompID
// are consistent with this session's configured identity, accounting for
// the fact that the peer's SenderCompID is our TargetCompID and vice versa.
func (s *Session) ValidateCompIDs(inboundSender, inboundTarget string) error {
	if inboundSender != s.key.TargetCompID || inboundTarget != s.key.SenderCompID {
		return fmt.Errorf("%w: comp-id mismatch: got sender=%s target=%s, want sender=%s target=%s",
			fixerr.ErrConnection, inboundSender, inboundTarget, s.key.TargetCompID, s.key.SenderCompID)
	}
	return nil
}
