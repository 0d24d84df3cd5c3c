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

package connection

import (
	"context"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alexveden/asyncfix/codec"
	"github.com/alexveden/asyncfix/fixmsg"
	"github.com/alexveden/asyncfix/fixtags"
	"github.com/alexveden/asyncfix/journal"
	"github.com/alexveden/asyncfix/protocol"
	"github.com/alexveden/asyncfix/session"
)

type recordingHandler struct {
	mu        sync.Mutex
	logons    int
	logouts   int
	messages  []*fixmsg.Message
	states    []State
	connected bool
}

func (h *recordingHandler) OnConnect(c *Connection) {
	h.mu.Lock()
	h.connected = true
	h.mu.Unlock()
}
func (h *recordingHandler) OnDisconnect(c *Connection) {}
func (h *recordingHandler) OnLogon(c *Connection, healthy bool) {
	h.mu.Lock()
	h.logons++
	h.mu.Unlock()
}
func (h *recordingHandler) OnLogout(c *Connection) {
	h.mu.Lock()
	h.logouts++
	h.mu.Unlock()
}
func (h *recordingHandler) OnMessage(c *Connection, m *fixmsg.Message) {
	h.mu.Lock()
	h.messages = append(h.messages, m)
	h.mu.Unlock()
}
func (h *recordingHandler) OnStateChange(c *Connection, from, to State) {
	h.mu.Lock()
	h.states = append(h.states, to)
	h.mu.Unlock()
}
func (h *recordingHandler) ShouldReplay(m *fixmsg.Message) bool { return true }

func (h *recordingHandler) logonCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.logons
}

func (h *recordingHandler) messageCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.messages)
}

func newPair(t *testing.T) (*Connection, *recordingHandler, *Connection, *recordingHandler) {
	t.Helper()
	profile := protocol.NewFIX44()

	initJournal, err := journal.Open("")
	require.NoError(t, err)
	acceptJournal, err := journal.Open("")
	require.NoError(t, err)

	initSess, err := initJournal.CreateOrLoad("SERVER", "CLIENT")
	require.NoError(t, err)
	acceptSess, err := acceptJournal.CreateOrLoad("CLIENT", "SERVER")
	require.NoError(t, err)

	initHandler := &recordingHandler{}
	acceptHandler := &recordingHandler{}

	initConn := New(Config{Role: session.Initiator, HeartBtInt: time.Second}, initSess, initJournal, codec.New(profile), profile, initHandler, nil)
	acceptConn := New(Config{Role: session.Acceptor, HeartBtInt: time.Second}, acceptSess, acceptJournal, codec.New(profile), profile, acceptHandler, nil)

	return initConn, initHandler, acceptConn, acceptHandler
}

func TestLogonHandshakeBothSides(t *testing.T) {
	initConn, initHandler, acceptConn, acceptHandler := newPair(t)

	clientSide, serverSide := net.Pipe()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	go func() { _ = acceptConn.Attach(ctx, serverSide) }()
	require.NoError(t, initConn.Attach(ctx, clientSide))

	require.Eventually(t, func() bool { return initHandler.logonCount() == 1 }, time.Second, 10*time.Millisecond)
	require.Eventually(t, func() bool { return acceptHandler.logonCount() == 1 }, time.Second, 10*time.Millisecond)

	assert.Equal(t, StateActive, initConn.State())
	assert.Equal(t, StateActive, acceptConn.State())
}

func TestApplicationMessageDelivered(t *testing.T) {
	initConn, _, acceptConn, acceptHandler := newPair(t)

	clientSide, serverSide := net.Pipe()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	go func() { _ = acceptConn.Attach(ctx, serverSide) }()
	require.NoError(t, initConn.Attach(ctx, clientSide))
	require.Eventually(t, func() bool { return initConn.State() == StateActive }, time.Second, 10*time.Millisecond)

	order := fixmsg.NewMessage(fixtags.MsgNewOrderSingle)
	_ = order.Set(fixtags.ClOrdID, "abc-1")
	_ = order.Set(fixtags.Symbol, "BTCUSD")
	_ = order.Set(fixtags.Side, "1")
	_ = order.Set(fixtags.OrderQty, "10")
	_ = order.Set(fixtags.OrdType, "2")
	_ = order.Set(fixtags.Price, "100")

	require.NoError(t, initConn.SendMsg(order))

	require.Eventually(t, func() bool { return acceptHandler.messageCount() == 1 }, time.Second, 10*time.Millisecond)
	assert.Equal(t, fixtags.MsgNewOrderSingle, acceptHandler.messages[0].MsgType())
}

func TestLogoutTransitionsToDisconnectedWConnToday(t *testing.T) {
	initConn, _, acceptConn, acceptHandler := newPair(t)

	clientSide, serverSide := net.Pipe()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	go func() { _ = acceptConn.Attach(ctx, serverSide) }()
	require.NoError(t, initConn.Attach(ctx, clientSide))
	require.Eventually(t, func() bool { return initConn.State() == StateActive }, time.Second, 10*time.Millisecond)

	require.NoError(t, initConn.Disconnect("done for the day"))

	require.Eventually(t, func() bool { return acceptHandler.logouts == 1 }, time.Second, 10*time.Millisecond)
	assert.Equal(t, StateDisconnectedWConnToday, initConn.State())
}

func TestDuplicateWithPossDupIsNotRedeliveredToHandler(t *testing.T) {
	profile := protocol.NewFIX44()
	jrn, err := journal.Open("")
	require.NoError(t, err)
	sess, err := jrn.CreateOrLoad("SERVER", "CLIENT")
	require.NoError(t, err)
	handler := &recordingHandler{}
	cdc := codec.New(profile)
	conn := New(Config{Role: session.Acceptor, HeartBtInt: time.Second}, sess, jrn, cdc, profile, handler, nil)

	peerSess := session.New("CLIENT", "SERVER")
	order := fixmsg.NewMessage(fixtags.MsgNewOrderSingle)
	_ = order.Set(fixtags.ClOrdID, "abc-1")
	raw, err := cdc.Encode(order, peerSess, false)
	require.NoError(t, err)
	res, err := cdc.Decode([]byte(raw), false)
	require.NoError(t, err)

	conn.handleInbound(res.Msg, res.Raw)
	assert.Equal(t, 1, handler.messageCount())
	assert.Equal(t, 2, conn.sess.NextNumIn())

	resent := fixmsg.NewMessage(fixtags.MsgNewOrderSingle)
	_ = resent.Set(fixtags.ClOrdID, "abc-1")
	_ = resent.Set(fixtags.MsgSeqNum, "1", fixmsg.AllowFraming())
	_ = resent.Set(fixtags.PossDupFlag, "Y")
	resentRaw, err := cdc.Encode(resent, peerSess, true)
	require.NoError(t, err)
	res2, err := cdc.Decode([]byte(resentRaw), false)
	require.NoError(t, err)

	conn.handleInbound(res2.Msg, res2.Raw)
	assert.Equal(t, 1, handler.messageCount())
	assert.Equal(t, 2, conn.sess.NextNumIn())
}

func TestParseInt(t *testing.T) {
	n, err := parseInt("42")
	require.NoError(t, err)
	assert.Equal(t, 42, n)

	_, err = parseInt("4x")
	assert.Error(t, err)

	_, err = parseInt("")
	assert.Error(t, err)
}
