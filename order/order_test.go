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

package order

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alexveden/asyncfix/fixerr"
	"github.com/alexveden/asyncfix/fixmsg"
	"github.com/alexveden/asyncfix/fixtags"
	"github.com/alexveden/asyncfix/protocol"
)

func execReport(clOrdID string, execType protocol.ExecType, ordStatus protocol.OrdStatus, cumQty, leavesQty string) *fixmsg.Message {
	m := fixmsg.NewMessage(fixtags.MsgExecutionReport)
	_ = m.Set(fixtags.ClOrdID, clOrdID)
	_ = m.Set(fixtags.ExecType, string(execType))
	_ = m.Set(fixtags.OrdStatus, string(ordStatus))
	_ = m.Set(fixtags.CumQty, cumQty)
	_ = m.Set(fixtags.LeavesQty, leavesQty)
	return m
}

func cxlRejReport(ordStatus protocol.OrdStatus) *fixmsg.Message {
	m := fixmsg.NewMessage(fixtags.MsgOrderCancelReject)
	_ = m.Set(fixtags.OrdStatus, string(ordStatus))
	return m
}

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestClordRoot(t *testing.T) {
	assert.Equal(t, "my--test--order", ClordRoot("my--test--order--1"))
	assert.Equal(t, "my--test--order", ClordRoot("my--test--order"))
	assert.Equal(t, "clordTest", ClordRoot("clordTest"))
}

func TestNewReq(t *testing.T) {
	o := New("clordTest", "US.F.TICKER", protocol.SideSell, dec("100"), dec("20"))
	require.Equal(t, protocol.OrdStatusCreated, o.Status)

	m := o.NewReq()
	assert.Equal(t, "clordTest--1", o.ClOrdID)
	assert.Equal(t, protocol.OrdStatusPendingNew, o.Status)
	v, _ := m.Get(fixtags.ClOrdID)
	assert.Equal(t, "clordTest--1", v)
}

func TestNewReqPendingNewAckIsNoOp(t *testing.T) {
	o := New("clordTest", "TICK", protocol.SideBuy, dec("200"), dec("10"))
	o.NewReq()
	require.Equal(t, protocol.OrdStatusPendingNew, o.Status)

	changed, err := o.ProcessExecutionReport(execReport(o.ClOrdID, protocol.ExecTypePendingNew, protocol.OrdStatusPendingNew, "0", "0"))
	require.NoError(t, err)
	assert.Equal(t, 0, changed)
	assert.Equal(t, protocol.OrdStatusPendingNew, o.Status)
}

func TestCreatedToPendingNewToNew(t *testing.T) {
	o := New("clordTest", "TICK", protocol.SideBuy, dec("200"), dec("10"))
	require.Equal(t, protocol.OrdStatusCreated, o.Status)

	changed, err := o.ProcessExecutionReport(execReport(o.ClOrdID, protocol.ExecTypePendingNew, protocol.OrdStatusPendingNew, "0", "0"))
	require.NoError(t, err)
	assert.Equal(t, 1, changed)
	assert.Equal(t, protocol.OrdStatusPendingNew, o.Status)

	changed, err = o.ProcessExecutionReport(execReport(o.ClOrdID, protocol.ExecTypeNew, protocol.OrdStatusNew, "0", "10"))
	require.NoError(t, err)
	assert.Equal(t, 1, changed)
	assert.Equal(t, protocol.OrdStatusNew, o.Status)
	assert.True(t, o.CanCancel())
	assert.True(t, o.CanReplace())
}

func TestCancelZeroFilledOrder(t *testing.T) {
	o := New("clordTest", "TICK", protocol.SideBuy, dec("200"), dec("10"))
	_, _ = o.ProcessExecutionReport(execReport(o.ClOrdID, protocol.ExecTypePendingNew, protocol.OrdStatusPendingNew, "0", "0"))
	_, _ = o.ProcessExecutionReport(execReport(o.ClOrdID, protocol.ExecTypeNew, protocol.OrdStatusNew, "0", "10"))

	cxl, err := o.CancelReq()
	require.NoError(t, err)
	assert.Equal(t, protocol.OrdStatusPendingCancel, o.Status)
	assert.False(t, o.CanCancel())
	assert.False(t, o.IsFinished())

	// A cancel request replayed back into ProcessExecutionReport is malformed traffic.
	_, err = o.ProcessExecutionReport(cxl)
	assert.Error(t, err)

	changed, err := o.ProcessExecutionReport(execReport(o.ClOrdID, protocol.ExecTypeCanceled, protocol.OrdStatusCanceled, "0", "0"))
	require.NoError(t, err)
	assert.Equal(t, 1, changed)
	assert.Equal(t, protocol.OrdStatusCanceled, o.Status)
	assert.True(t, o.IsFinished())
}

func TestCancelRejectRestoresOrder(t *testing.T) {
	o := New("clordTest", "TICK", protocol.SideBuy, dec("200"), dec("10"))
	_, _ = o.ProcessExecutionReport(execReport(o.ClOrdID, protocol.ExecTypePendingNew, protocol.OrdStatusPendingNew, "0", "0"))
	_, _ = o.ProcessExecutionReport(execReport(o.ClOrdID, protocol.ExecTypeNew, protocol.OrdStatusNew, "0", "10"))
	_, err := o.CancelReq()
	require.NoError(t, err)
	assert.Equal(t, protocol.OrdStatusPendingCancel, o.Status)

	changed, err := o.ProcessCancelRejReport(cxlRejReport(protocol.OrdStatusNew))
	require.NoError(t, err)
	assert.Equal(t, 1, changed)
	assert.Equal(t, protocol.OrdStatusNew, o.Status)
	assert.True(t, o.CanCancel())
}

func TestCancelRejectInvalidTransitionIsIgnored(t *testing.T) {
	o := New("clordTest", "TICK", protocol.SideBuy, dec("200"), dec("10"))
	_, _ = o.ProcessExecutionReport(execReport(o.ClOrdID, protocol.ExecTypePendingNew, protocol.OrdStatusPendingNew, "0", "0"))
	_, _ = o.ProcessExecutionReport(execReport(o.ClOrdID, protocol.ExecTypeNew, protocol.OrdStatusNew, "0", "10"))
	_, _ = o.CancelReq()

	changed, err := o.ProcessCancelRejReport(cxlRejReport(protocol.OrdStatusAcceptedForBid))
	require.NoError(t, err)
	assert.Equal(t, 0, changed)
	assert.Equal(t, protocol.OrdStatusPendingCancel, o.Status)
}

func TestReplaceReqNoChangeRejected(t *testing.T) {
	o := New("clordTest", "TICK", protocol.SideSell, dec("100"), dec("20"))
	o.Status = protocol.OrdStatusNew

	_, err := o.ReplaceReq(nil, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, fixerr.ErrOrderTransition)

	zero := decimal.Zero
	_, err = o.ReplaceReq(nil, &zero)
	assert.Error(t, err)
}

func TestReplaceReqChangesPriceAndQty(t *testing.T) {
	o := New("clordTest", "TICK", protocol.SideSell, dec("100"), dec("20"))
	o.NewReq()
	o.Status = protocol.OrdStatusNew

	price := dec("200")
	qty := dec("30")
	m, err := o.ReplaceReq(&price, &qty)
	require.NoError(t, err)
	assert.Equal(t, protocol.OrdStatusPendingReplace, o.Status)
	v, _ := m.Get(fixtags.OrigClOrdID)
	assert.Equal(t, "clordTest--1", v)
}

func TestTerminalStatusAbsorbsFurtherReports(t *testing.T) {
	o := New("clordTest", "TICK", protocol.SideBuy, dec("200"), dec("10"))
	o.Status = protocol.OrdStatusFilled

	changed, err := o.ProcessExecutionReport(execReport(o.expectedClOrdID(), protocol.ExecTypeTrade, protocol.OrdStatusCanceled, "10", "0"))
	require.NoError(t, err)
	assert.Equal(t, 0, changed)
	assert.Equal(t, protocol.OrdStatusFilled, o.Status)
}

func TestClordMismatchRejected(t *testing.T) {
	o := New("clordTest", "TICK", protocol.SideBuy, dec("200"), dec("10"))
	_, err := o.ProcessExecutionReport(execReport("unknown", protocol.ExecTypePendingNew, protocol.OrdStatusPendingNew, "0", "0"))
	assert.Error(t, err)
}
