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

// Package order implements the single-order state machine: NewOrderSingle
// lifecycle management, ClOrdID chaining for cancel/replace requests, and
// the OrdStatus transition table driven by ExecutionReport and
// OrderCancelReject messages.
package order

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/alexveden/asyncfix/fixerr"
	"github.com/alexveden/asyncfix/fixmsg"
	"github.com/alexveden/asyncfix/fixtags"
	"github.com/alexveden/asyncfix/protocol"
)

// NewOrderSingle tracks one order's identity, quantity/price state, and
// current OrdStatus across its NewOrderSingle / OrderCancelRequest /
// OrderCancelReplaceRequest lifecycle.
type NewOrderSingle struct {
	ClOrdIDRoot string
	ClOrdID     string
	OrigClOrdID string

	Ticker string
	Side   protocol.OrdSide

	Price       decimal.Decimal
	Qty         decimal.Decimal
	TargetPrice decimal.Decimal
	LeavesQty   decimal.Decimal
	CumQty      decimal.Decimal
	AvgPx       decimal.Decimal

	OrdType protocol.OrdType
	Account string

	Status protocol.OrdStatus

	clordCnt int
}

// New returns an order in its pre-request CREATED state. OrdType defaults
// to Limit and Account to "000000"; set the fields directly to override
// before calling NewReq.
func New(clordID, ticker string, side protocol.OrdSide, price, qty decimal.Decimal) *NewOrderSingle {
	return &NewOrderSingle{
		ClOrdIDRoot: clordID,
		ClOrdID:     clordID,
		Ticker:      ticker,
		Side:        side,
		Price:       price,
		Qty:         qty,
		TargetPrice: price,
		OrdType:     protocol.OrdTypeLimit,
		Account:     "000000",
		Status:      protocol.OrdStatusCreated,
	}
}

// ClordRoot strips a trailing "--N" counter suffix from a ClOrdID, returning
// the root the order was originally submitted under. It is a no-op if the
// suffix after the last "--" is not a plain integer.
func ClordRoot(clordID string) string {
	i := strings.LastIndex(clordID, "--")
	if i < 0 {
		return clordID
	}
	if _, err := strconv.Atoi(clordID[i+2:]); err != nil {
		return clordID
	}
	return clordID[:i]
}

// clordNext allocates the next chained ClOrdID off ClOrdIDRoot, used by
// NewReq/CancelReq/ReplaceReq every time a new request is sent for this
// order.
func (o *NewOrderSingle) clordNext() string {
	o.clordCnt++
	return fmt.Sprintf("%s--%d", o.ClOrdIDRoot, o.clordCnt)
}

func transactTime() string {
	return time.Now().UTC().Format("20060102-15:04:05.000")
}

// NewReq builds the NewOrderSingle wire message, allocates the order's
// first chained ClOrdID, and optimistically advances Status to PENDING_NEW
// ahead of any exec report confirming it.
func (o *NewOrderSingle) NewReq() *fixmsg.Message {
	o.ClOrdID = o.clordNext()
	m := fixmsg.NewMessage(fixtags.MsgNewOrderSingle)
	_ = m.Set(fixtags.ClOrdID, o.ClOrdID)
	_ = m.Set(fixtags.Symbol, o.Ticker)
	_ = m.Set(fixtags.Account, o.Account)
	_ = m.Set(fixtags.Side, string(o.Side))
	_ = m.Set(fixtags.TransactTime, transactTime())
	_ = m.Set(fixtags.Price, o.Price.String())
	_ = m.Set(fixtags.OrderQty, o.Qty.String())
	_ = m.Set(fixtags.OrdType, string(o.OrdType))
	o.Status = protocol.OrdStatusPendingNew
	return m
}

// CanCancel reports whether the order is in a state that accepts a new
// OrderCancelRequest: exactly NEW or PARTIALLY_FILLED.
func (o *NewOrderSingle) CanCancel() bool {
	return o.Status == protocol.OrdStatusNew || o.Status == protocol.OrdStatusPartiallyFilled
}

// CanReplace reports whether the order accepts an OrderCancelReplaceRequest.
// Same eligibility as CanCancel.
func (o *NewOrderSingle) CanReplace() bool {
	return o.CanCancel()
}

// IsFinished reports whether the order has reached a terminal OrdStatus.
func (o *NewOrderSingle) IsFinished() bool {
	return o.Status.IsTerminal()
}

// CancelReq builds an OrderCancelRequest, records the current ClOrdID as
// OrigClOrdID, chains a new ClOrdID off ClOrdIDRoot, and moves Status to
// PENDING_CANCEL.
func (o *NewOrderSingle) CancelReq() (*fixmsg.Message, error) {
	if !o.CanCancel() {
		return nil, fmt.Errorf("%w: order is not allowed for cancel in status=%s", fixerr.ErrOrderTransition, o.Status)
	}
	o.OrigClOrdID = o.ClOrdID
	o.ClOrdID = o.clordNext()
	m := fixmsg.NewMessage(fixtags.MsgOrderCancelRequest)
	_ = m.Set(fixtags.ClOrdID, o.ClOrdID)
	_ = m.Set(fixtags.OrigClOrdID, o.OrigClOrdID)
	_ = m.Set(fixtags.Symbol, o.Ticker)
	_ = m.Set(fixtags.Side, string(o.Side))
	_ = m.Set(fixtags.OrderQty, o.Qty.String())
	_ = m.Set(fixtags.TransactTime, transactTime())
	o.Status = protocol.OrdStatusPendingCancel
	return m, nil
}

// ReplaceReq builds an OrderCancelReplaceRequest and moves Status to
// PENDING_REPLACE. Passing nil for price or qty means "keep the current
// value". It is an error to request no effective change in either field.
func (o *NewOrderSingle) ReplaceReq(price, qty *decimal.Decimal) (*fixmsg.Message, error) {
	if !o.CanReplace() {
		return nil, fmt.Errorf("%w: order is not allowed for replace in status=%s", fixerr.ErrOrderTransition, o.Status)
	}
	newPrice := o.Price
	if price != nil {
		newPrice = *price
	}
	newQty := o.Qty
	if qty != nil && !qty.IsZero() {
		newQty = *qty
	}
	if newPrice.Equal(o.Price) && newQty.Equal(o.Qty) {
		return nil, fmt.Errorf("%w: no price / qty change in replace_req", fixerr.ErrOrderTransition)
	}

	o.OrigClOrdID = o.ClOrdID
	o.ClOrdID = o.clordNext()
	m := fixmsg.NewMessage(fixtags.MsgOrderCancelReplaceReq)
	_ = m.Set(fixtags.ClOrdID, o.ClOrdID)
	_ = m.Set(fixtags.OrigClOrdID, o.OrigClOrdID)
	_ = m.Set(fixtags.Symbol, o.Ticker)
	_ = m.Set(fixtags.Side, string(o.Side))
	_ = m.Set(fixtags.OrderQty, newQty.String())
	_ = m.Set(fixtags.Price, newPrice.String())
	_ = m.Set(fixtags.TransactTime, transactTime())
	o.Status = protocol.OrdStatusPendingReplace
	return m, nil
}

// expectedClOrdID returns the pending request's OrigClOrdID while one is
// outstanding, otherwise the order's current ClOrdID. An inbound report is
// accepted when it echoes either this value or the current ClOrdID.
func (o *NewOrderSingle) expectedClOrdID() string {
	if o.OrigClOrdID != "" {
		return o.OrigClOrdID
	}
	return o.ClOrdID
}

// ProcessExecutionReport applies an inbound ExecutionReport (35=8). It
// always refreshes quantity/price fields present on the message, then
// applies the status transition table. Returns 1 if the report applied a
// transition (including a further fill that keeps a PARTIALLY_FILLED order
// PARTIALLY_FILLED), 0 if the report was accepted but had no effect (a
// no-op transition), and an error if the report is malformed or the
// transition is illegal.
func (o *NewOrderSingle) ProcessExecutionReport(m *fixmsg.Message) (int, error) {
	if m.MsgType() != fixtags.MsgExecutionReport {
		return 0, fmt.Errorf("%w: incorrect message type %s, expected ExecutionReport", fixerr.ErrMessage, m.MsgType())
	}
	clOrdID, err := m.Get(fixtags.ClOrdID)
	if err != nil {
		return 0, err
	}
	if clOrdID != o.ClOrdID && clOrdID != o.expectedClOrdID() {
		return 0, fmt.Errorf("%w: clord_id mismatch: got=%s want=%s or %s", fixerr.ErrOrderTransition, clOrdID, o.ClOrdID, o.expectedClOrdID())
	}

	o.applyFillFields(m.Container)

	execTypeStr, err := m.Get(fixtags.ExecType)
	if err != nil {
		return 0, err
	}
	ordStatusStr, err := m.Get(fixtags.OrdStatus)
	if err != nil {
		return 0, err
	}
	target := protocol.OrdStatus(ordStatusStr)

	newStatus, changed, err := changeStatus(o.Status, fixtags.MsgExecutionReport, protocol.ExecType(execTypeStr), target)
	if err != nil {
		return 0, err
	}
	if !changed {
		return 0, nil
	}
	o.Status = newStatus
	return 1, nil
}

// ProcessCancelRejReport applies an inbound OrderCancelReject (35=9), which
// unconditionally reverts a PENDING_CANCEL/PENDING_REPLACE order to the
// status carried in the reject. An illegal transition is treated as a
// no-op (returns 0) rather than propagated, since a broker cancel reject
// is not itself malformed traffic.
func (o *NewOrderSingle) ProcessCancelRejReport(m *fixmsg.Message) (int, error) {
	if m.MsgType() != fixtags.MsgOrderCancelReject {
		return 0, fmt.Errorf("%w: incorrect message type %s, expected OrderCancelReject", fixerr.ErrMessage, m.MsgType())
	}
	ordStatusStr, err := m.Get(fixtags.OrdStatus)
	if err != nil {
		return 0, err
	}
	target := protocol.OrdStatus(ordStatusStr)

	newStatus, changed, err := changeStatus(o.Status, fixtags.MsgOrderCancelReject, "", target)
	if err != nil || !changed {
		return 0, nil
	}
	o.Status = newStatus
	o.OrigClOrdID = ""
	return 1, nil
}

// applyFillFields copies CumQty/LeavesQty/Price/OrderQty/AvgPx from an
// inbound report onto the order whenever present, independent of whether
// the report changes Status.
func (o *NewOrderSingle) applyFillFields(m *fixmsg.Container) {
	if v, err := m.Get(fixtags.CumQty); err == nil {
		if d, derr := decimal.NewFromString(v); derr == nil {
			o.CumQty = d
		}
	}
	if v, err := m.Get(fixtags.LeavesQty); err == nil {
		if d, derr := decimal.NewFromString(v); derr == nil {
			o.LeavesQty = d
		}
	}
	if v, err := m.Get(fixtags.AvgPx); err == nil {
		if d, derr := decimal.NewFromString(v); derr == nil {
			o.AvgPx = d
		}
	}
	if v, err := m.Get(fixtags.Price); err == nil {
		if d, derr := decimal.NewFromString(v); derr == nil {
			o.Price = d
		}
	}
	if v, err := m.Get(fixtags.OrderQty); err == nil {
		if d, derr := decimal.NewFromString(v); derr == nil {
			o.Qty = d
		}
	}
}

// activeSucceeds is the set of targets that succeed uniformly from any of
// the "live, working order" source statuses (NEW and the less common
// DONE_FOR_DAY/STOPPED/CALCULATED statuses this module never sets itself
// but must still tolerate as an inbound target once reached).
var activeSucceeds = map[protocol.OrdStatus]bool{
	protocol.OrdStatusPartiallyFilled: true,
	protocol.OrdStatusFilled:          true,
	protocol.OrdStatusDoneForDay:      true,
	protocol.OrdStatusCanceled:        true,
	protocol.OrdStatusPendingCancel:   true,
	protocol.OrdStatusStopped:         true,
	protocol.OrdStatusRejected:        true,
	protocol.OrdStatusSuspended:       true,
	protocol.OrdStatusCalculated:      true,
	protocol.OrdStatusExpired:         true,
	protocol.OrdStatusPendingReplace:  true,
}

// changeStatus is the pure order status transition function: given the
// order's current status and an inbound message's (msgType, execType,
// target status), it returns the new status and true if the transition is
// applied (PARTIALLY_FILLED to PARTIALLY_FILLED counts as applied), ("",
// false, nil) if the message is accepted but has no
// effect, or an error if the transition is illegal for a well-formed peer.
func changeStatus(current protocol.OrdStatus, msgType fixtags.MsgType, execType protocol.ExecType, target protocol.OrdStatus) (protocol.OrdStatus, bool, error) {
	illegal := func() (protocol.OrdStatus, bool, error) {
		return "", false, fmt.Errorf("%w: illegal transition status=%s msgType=%s execType=%s target=%s",
			fixerr.ErrOrderTransition, current, msgType, execType, target)
	}

	if msgType != fixtags.MsgExecutionReport && msgType != fixtags.MsgOrderCancelReject {
		return illegal()
	}

	// Terminal statuses absorb every further report silently.
	if current.IsTerminal() {
		return "", false, nil
	}

	if msgType == fixtags.MsgOrderCancelReject {
		switch current {
		case protocol.OrdStatusPendingCancel, protocol.OrdStatusPendingReplace:
			if target == protocol.OrdStatusCreated || target == protocol.OrdStatusAcceptedForBid {
				return illegal()
			}
			return target, true, nil
		default:
			return illegal()
		}
	}

	// msgType == ExecutionReport from here on.
	switch current {
	case protocol.OrdStatusCreated:
		if target == protocol.OrdStatusRejected || target == protocol.OrdStatusPendingNew {
			return target, true, nil
		}
		return illegal()

	case protocol.OrdStatusPendingNew:
		if target == protocol.OrdStatusPendingNew {
			if execType == protocol.ExecTypePendingNew {
				return "", false, nil
			}
			return illegal()
		}
		switch target {
		case protocol.OrdStatusNew, protocol.OrdStatusPartiallyFilled, protocol.OrdStatusFilled,
			protocol.OrdStatusCanceled, protocol.OrdStatusRejected, protocol.OrdStatusSuspended:
			return target, true, nil
		}
		return illegal()

	case protocol.OrdStatusNew:
		if target == protocol.OrdStatusNew {
			return "", false, nil
		}
		if activeSucceeds[target] {
			return target, true, nil
		}
		return illegal()

	case protocol.OrdStatusDoneForDay, protocol.OrdStatusStopped, protocol.OrdStatusCalculated:
		if target == current {
			return "", false, nil
		}
		if activeSucceeds[target] {
			return target, true, nil
		}
		return illegal()

	case protocol.OrdStatusSuspended:
		switch target {
		case protocol.OrdStatusNew, protocol.OrdStatusPartiallyFilled, protocol.OrdStatusCanceled:
			return target, true, nil
		case protocol.OrdStatusSuspended:
			return "", false, nil
		}
		return illegal()

	case protocol.OrdStatusPartiallyFilled:
		switch target {
		case protocol.OrdStatusPartiallyFilled:
			return target, true, nil
		case protocol.OrdStatusFilled, protocol.OrdStatusCanceled, protocol.OrdStatusPendingCancel,
			protocol.OrdStatusStopped, protocol.OrdStatusSuspended, protocol.OrdStatusExpired,
			protocol.OrdStatusPendingReplace:
			return target, true, nil
		}
		return illegal()

	case protocol.OrdStatusPendingCancel:
		if target == protocol.OrdStatusCreated {
			return illegal()
		}
		if target == protocol.OrdStatusCanceled {
			return target, true, nil
		}
		return "", false, nil

	case protocol.OrdStatusPendingReplace:
		if target == protocol.OrdStatusCreated || target == protocol.OrdStatusAcceptedForBid {
			return illegal()
		}
		if execType == protocol.ExecTypeReplaced {
			switch target {
			case protocol.OrdStatusNew, protocol.OrdStatusPartiallyFilled, protocol.OrdStatusFilled, protocol.OrdStatusCanceled:
				return target, true, nil
			}
			return illegal()
		}
		return "", false, nil

	default:
		return illegal()
	}
}
