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

// Package protocol describes the FIX-4.4-specific profile the codec
// consumes: the BeginString, which tags start a repeating group and what
// its members are, and which message types are session-layer (admin)
// versus application messages.
package protocol

import "github.com/alexveden/asyncfix/fixtags"

// Profile is the subset of protocol knowledge the codec needs to parse
// repeating groups and stamp BeginString correctly. FIX44 is the only
// implementation; the interface exists so the codec does not import the
// FIX44 profile directly and so a future FIX version could be swapped in.
type Profile interface {
	BeginString() string
	// RepeatingGroups maps a group's leading NoXXX tag to the set of tags
	// that are members of one group entry.
	RepeatingGroups() map[fixtags.Tag]map[fixtags.Tag]bool
	// SessionMessageTypes is the set of admin (session-layer) msg types.
	SessionMessageTypes() map[fixtags.MsgType]bool
}

// FIX44 is the FIX 4.4 protocol profile.
type FIX44 struct{}

// NewFIX44 returns the FIX 4.4 profile.
func NewFIX44() *FIX44 { return &FIX44{} }

// BeginString returns the fixed FIX 4.4 begin-string.
func (FIX44) BeginString() string { return "FIX.4.4" }

// SessionMessageTypes returns the admin message-type set.
func (FIX44) SessionMessageTypes() map[fixtags.MsgType]bool {
	return fixtags.AdminMsgTypes
}

// RepeatingGroups is the flat, message-independent map from a group's
// leading tag to its member tags, mirroring the reference protocol
// profile's repeating_groups dictionary. Only the groups exercised by this
// module's message set are declared; extend as more message types are
// added.
func (FIX44) RepeatingGroups() map[fixtags.Tag]map[fixtags.Tag]bool {
	return map[fixtags.Tag]map[fixtags.Tag]bool{
		fixtags.NoAllocs: {
			fixtags.AllocAccount: true,
			fixtags.AllocShares:  true,
		},
		fixtags.NoPartyIDs: {
			fixtags.PartyID:       true,
			fixtags.PartyIDSource: true,
			fixtags.PartyRole:     true,
		},
	}
}
