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

package protocol

// OrdSide is FIX tag 54.
type OrdSide string

const (
	SideBuy              OrdSide = "1"
	SideSell             OrdSide = "2"
	SideBuyMinus         OrdSide = "3"
	SideSellPlus         OrdSide = "4"
	SideSellShort        OrdSide = "5"
	SideSellShortExempt  OrdSide = "6"
	SideUndisclosed      OrdSide = "7"
	SideCross            OrdSide = "8"
)

// OrdType is FIX tag 40.
type OrdType string

const (
	OrdTypeMarket    OrdType = "1"
	OrdTypeLimit     OrdType = "2"
	OrdTypeStop      OrdType = "3"
	OrdTypeStopLimit OrdType = "4"
	OrdTypePegged    OrdType = "P"
)

// OrdStatus is FIX tag 39. CREATED ("Z") is not a wire value; it is the
// order state machine's internal pre-order-request state and is never
// encoded onto a message.
type OrdStatus string

const (
	OrdStatusCreated          OrdStatus = "Z"
	OrdStatusNew              OrdStatus = "0"
	OrdStatusPartiallyFilled  OrdStatus = "1"
	OrdStatusFilled           OrdStatus = "2"
	OrdStatusDoneForDay       OrdStatus = "3"
	OrdStatusCanceled         OrdStatus = "4"
	OrdStatusPendingCancel    OrdStatus = "6"
	OrdStatusStopped          OrdStatus = "7"
	OrdStatusRejected         OrdStatus = "8"
	OrdStatusSuspended        OrdStatus = "9"
	OrdStatusPendingNew       OrdStatus = "A"
	OrdStatusCalculated       OrdStatus = "B"
	OrdStatusExpired          OrdStatus = "C"
	OrdStatusAcceptedForBid   OrdStatus = "D"
	OrdStatusPendingReplace   OrdStatus = "E"
)

// ExecType is FIX tag 150.
type ExecType string

const (
	ExecTypeNew            ExecType = "0"
	ExecTypeDoneForDay     ExecType = "3"
	ExecTypeCanceled       ExecType = "4"
	ExecTypeReplaced       ExecType = "5"
	ExecTypePendingCancel  ExecType = "6"
	ExecTypeStopped        ExecType = "7"
	ExecTypeRejected       ExecType = "8"
	ExecTypeSuspended      ExecType = "9"
	ExecTypePendingNew     ExecType = "A"
	ExecTypeCalculated     ExecType = "B"
	ExecTypeExpired        ExecType = "C"
	ExecTypeRestated       ExecType = "D"
	ExecTypePendingReplace ExecType = "E"
	ExecTypeTrade          ExecType = "F"
	ExecTypeTradeCorrect   ExecType = "G"
	ExecTypeTradeCancel    ExecType = "H"
	ExecTypeOrderStatus    ExecType = "I"
)

// IsTerminal reports whether s is one of the order state machine's terminal
// statuses: FILLED, CANCELED, REJECTED, EXPIRED.
func (s OrdStatus) IsTerminal() bool {
	switch s {
	case OrdStatusFilled, OrdStatusCanceled, OrdStatusRejected, OrdStatusExpired:
		return true
	default:
		return false
	}
}
