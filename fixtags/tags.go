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

// Package fixtags is the process-wide tag and message-type catalog for FIX
// 4.4: numeric field tags, well-known message types, and the field-level
// enumerations (order side, order type, order status, exec type) that the
// order and connection packages switch on. These are constants, not a
// mutable registry; schema-derived enumerations live in package schema.
package fixtags

import "strconv"

// Tag is a FIX field tag number.
type Tag int

// String renders the tag as its wire representation.
func (t Tag) String() string {
	return strconv.Itoa(int(t))
}

// Name returns the canonical field name for well-known tags, or "" if the
// tag is not one of the constants declared below.
func (t Tag) Name() string {
	return tagNames[t]
}

// Framing tags. The codec owns these; a caller setting them directly on an
// outbound message is rejected (see fixmsg.Container.Set).
const (
	BeginString   Tag = 8
	BodyLength    Tag = 9
	MsgTypeTag    Tag = 35
	SenderCompID  Tag = 49
	TargetCompID  Tag = 56
	MsgSeqNum     Tag = 34
	SendingTime   Tag = 52
	CheckSum      Tag = 10
)

// FramingTags is the reserved set the codec injects and that Set rejects on
// direct outbound assignment.
var FramingTags = map[Tag]bool{
	BeginString:  true,
	BodyLength:   true,
	MsgTypeTag:   true,
	SenderCompID: true,
	TargetCompID: true,
	MsgSeqNum:    true,
	SendingTime:  true,
	CheckSum:     true,
}

// Session and identity tags.
const (
	Text              Tag = 58
	EncryptMethod     Tag = 98
	HeartBtInt        Tag = 108
	TestReqID         Tag = 112
	OrigSendingTime   Tag = 122
	GapFillFlag       Tag = 123
	ResetSeqNumFlag   Tag = 141
	PossDupFlag       Tag = 43
	PossResend        Tag = 97
	BeginSeqNo        Tag = 7
	EndSeqNo          Tag = 16
	NewSeqNo          Tag = 36
	RefSeqNum         Tag = 45
	RefTagID          Tag = 371
	RefMsgType        Tag = 372
	SessionRejectReason Tag = 373
)

// Order and execution tags.
const (
	Account          Tag = 1
	ClOrdID          Tag = 11
	OrderID          Tag = 37
	OrigClOrdID      Tag = 41
	Symbol           Tag = 55
	Side             Tag = 54
	OrderQty         Tag = 38
	Price            Tag = 44
	OrdType          Tag = 40
	OrdStatus        Tag = 39
	ExecType         Tag = 150
	ExecID           Tag = 17
	LeavesQty        Tag = 151
	CumQty           Tag = 14
	AvgPx            Tag = 6
	CxlRejReason     Tag = 102
	CxlRejResponseTo Tag = 434
	OrdRejReason     Tag = 103
	TransactTime     Tag = 60
	LastQty          Tag = 32
	LastPx           Tag = 31
)

// Repeating group and component tags used by the protocol profile / tests.
const (
	NoAllocs      Tag = 78
	AllocAccount  Tag = 79
	AllocShares   Tag = 80
	NoRelatedSym  Tag = 146
	NoPartyIDs    Tag = 453
	PartyID       Tag = 448
	PartyIDSource Tag = 447
	PartyRole     Tag = 452
)

var tagNames = map[Tag]string{
	BeginString:     "BeginString",
	BodyLength:      "BodyLength",
	MsgTypeTag:      "MsgType",
	SenderCompID:    "SenderCompID",
	TargetCompID:    "TargetCompID",
	MsgSeqNum:       "MsgSeqNum",
	SendingTime:     "SendingTime",
	CheckSum:        "CheckSum",
	Text:            "Text",
	EncryptMethod:   "EncryptMethod",
	HeartBtInt:      "HeartBtInt",
	TestReqID:       "TestReqID",
	OrigSendingTime: "OrigSendingTime",
	GapFillFlag:     "GapFillFlag",
	ResetSeqNumFlag: "ResetSeqNumFlag",
	PossDupFlag:     "PossDupFlag",
	PossResend:      "PossResend",
	BeginSeqNo:      "BeginSeqNo",
	EndSeqNo:        "EndSeqNo",
	NewSeqNo:        "NewSeqNo",
	RefSeqNum:       "RefSeqNum",
	RefTagID:        "RefTagID",
	RefMsgType:      "RefMsgType",
	SessionRejectReason: "SessionRejectReason",
	Account:         "Account",
	ClOrdID:         "ClOrdID",
	OrderID:         "OrderID",
	OrigClOrdID:     "OrigClOrdID",
	Symbol:          "Symbol",
	Side:            "Side",
	OrderQty:        "OrderQty",
	Price:           "Price",
	OrdType:         "OrdType",
	OrdStatus:       "OrdStatus",
	ExecType:        "ExecType",
	ExecID:          "ExecID",
	LeavesQty:       "LeavesQty",
	CumQty:          "CumQty",
	AvgPx:           "AvgPx",
	CxlRejReason:    "CxlRejReason",
	CxlRejResponseTo: "CxlRejResponseTo",
	OrdRejReason:    "OrdRejReason",
	TransactTime:    "TransactTime",
	LastQty:         "LastQty",
	LastPx:          "LastPx",
	NoAllocs:        "NoAllocs",
	AllocAccount:    "AllocAccount",
	AllocShares:     "AllocShares",
	NoRelatedSym:    "NoRelatedSym",
	NoPartyIDs:      "NoPartyIDs",
	PartyID:         "PartyID",
	PartyIDSource:   "PartyIDSource",
	PartyRole:       "PartyRole",
}
