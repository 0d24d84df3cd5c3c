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

package fixtags

// MsgType is a FIX MsgType (tag 35) value.
type MsgType string

// Session-layer (admin) message types.
const (
	MsgHeartbeat      MsgType = "0"
	MsgTestRequest    MsgType = "1"
	MsgResendRequest  MsgType = "2"
	MsgReject         MsgType = "3"
	MsgSequenceReset  MsgType = "4"
	MsgLogout         MsgType = "5"
	MsgLogon          MsgType = "A"
)

// Application-layer message types relevant to single-order management.
const (
	MsgNewOrderSingle           MsgType = "D"
	MsgExecutionReport          MsgType = "8"
	MsgOrderCancelRequest       MsgType = "F"
	MsgOrderCancelReplaceReq    MsgType = "G"
	MsgOrderCancelReject        MsgType = "9"
)

// AdminMsgTypes is the set of session-layer (admin) message types, as
// opposed to application messages. Membership determines the connection
// engine's session-vs-application dispatch and which messages SendMsg
// accepts outside the ACTIVE and logon states; the codec's raw_seq_num
// handling does not consult it.
var AdminMsgTypes = map[MsgType]bool{
	MsgHeartbeat:     true,
	MsgTestRequest:   true,
	MsgResendRequest: true,
	MsgReject:        true,
	MsgSequenceReset: true,
	MsgLogout:        true,
	MsgLogon:         true,
}

// IsAdmin reports whether mt is a session-layer message type.
func (mt MsgType) IsAdmin() bool {
	return AdminMsgTypes[mt]
}
