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

// Package fixerr defines the error taxonomy shared by every layer of the
// FIX engine: message construction, codec, session, journal, connection and
// order packages all wrap one of these instead of returning bare errors.New
// values, so callers can tell a gap-detection disconnect apart from a
// malformed frame with errors.Is/errors.As.
package fixerr

import "errors"

// Sentinel base errors. Concrete failures wrap one of these with fmt.Errorf
// ("...: %w", err) so errors.Is still matches against the category.
var (
	// ErrMessage covers malformed in-memory message construction: duplicate
	// tags, scalar access on a group tag, non-numeric required fields.
	ErrMessage = errors.New("fix message error")

	// ErrTagNotFound is returned when a tag is read with no default and is
	// absent from the container.
	ErrTagNotFound = errors.New("fix tag not found")

	// ErrDuplicatedTag is returned when Set is called for a tag that is
	// already present without an explicit replace.
	ErrDuplicatedTag = errors.New("fix tag already set")

	// ErrRepeatingTag indicates a tag decoded as a repeat of a scalar field,
	// which means the protocol profile mis-declared it as non-group.
	ErrRepeatingTag = errors.New("fix tag repeated unexpectedly")

	// ErrUnmappedGroup indicates a group tag appeared on the wire without a
	// declared member-tag mapping in the protocol profile.
	ErrUnmappedGroup = errors.New("fix group not mapped by protocol")

	// ErrConnection covers session/connection state violations: illegal
	// send in the current state, comp-id mismatch, missed test-request
	// response. These trigger a disconnect upstream.
	ErrConnection = errors.New("fix connection error")

	// ErrDuplicateSeqNo is a critical journal-integrity violation: the
	// caller attempted to persist a (session, direction, seq) that already
	// exists. It is not recoverable; the session must terminate.
	ErrDuplicateSeqNo = errors.New("fix journal duplicate seq no")

	// ErrEncoding covers framing or seq-num policy violations at encode
	// time, e.g. a caller-supplied MsgSeqNum on a non-admin message.
	ErrEncoding = errors.New("fix encoding error")

	// ErrDecoding covers malformed frames: bad checksum, non-numeric
	// length, non-numeric tag during strict decode.
	ErrDecoding = errors.New("fix decoding error")

	// ErrSchema covers schema-validation failures: missing required tag,
	// unknown tag, bad enum value, group/scalar shape mismatch.
	ErrSchema = errors.New("fix schema validation error")

	// ErrOrderTransition covers illegal order state-machine transitions.
	ErrOrderTransition = errors.New("fix order illegal transition")
)
