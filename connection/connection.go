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

// Package connection implements the FIX session-layer state machine: a
// two-goroutine-per-connection engine (reader loop, heartbeat loop) driving
// logon, sequence-gap detection and resend, heartbeat/test-request
// supervision, and clean/broken disconnect handling.
package connection

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/alexveden/asyncfix/codec"
	"github.com/alexveden/asyncfix/fixerr"
	"github.com/alexveden/asyncfix/fixmsg"
	"github.com/alexveden/asyncfix/fixtags"
	"github.com/alexveden/asyncfix/internal/obs"
	"github.com/alexveden/asyncfix/journal"
	"github.com/alexveden/asyncfix/protocol"
	"github.com/alexveden/asyncfix/session"
)

// State is one node of the connection state machine.
type State int

const (
	StateUnknown State = iota
	StateDisconnectedNoConnToday
	StateDisconnectedWConnToday
	StateDisconnectedBrokenConn
	StateNetworkConnInitiated
	StateNetworkConnEstablished
	StateLogonInitialSent
	StateLogonInitialRecv
	StateLogonResponse
	StateResendReqAwaiting
	StateActive
	StateAwaitingConnectionRestore
)

func (s State) String() string {
	switch s {
	case StateDisconnectedNoConnToday:
		return "DISCONNECTED_NOCONN_TODAY"
	case StateDisconnectedWConnToday:
		return "DISCONNECTED_WCONN_TODAY"
	case StateDisconnectedBrokenConn:
		return "DISCONNECTED_BROKEN_CONN"
	case StateNetworkConnInitiated:
		return "NETWORK_CONN_INITIATED"
	case StateNetworkConnEstablished:
		return "NETWORK_CONN_ESTABLISHED"
	case StateLogonInitialSent:
		return "LOGON_INITIAL_SENT"
	case StateLogonInitialRecv:
		return "LOGON_INITIAL_RECV"
	case StateLogonResponse:
		return "LOGON_RESPONSE"
	case StateResendReqAwaiting:
		return "RESENDREQ_AWAITING"
	case StateActive:
		return "ACTIVE"
	case StateAwaitingConnectionRestore:
		return "AWAITING_CONNECTION_RESTORE"
	default:
		return "UNKNOWN"
	}
}

// Handler receives connection lifecycle and message callbacks. Inbound
// message handling invokes them inline on the reader goroutine; OnConnect,
// and the OnStateChange/OnDisconnect calls made by Attach, Dial, SendMsg,
// Disconnect or the heartbeat loop, run on the calling goroutine. They must
// not block.
type Handler interface {
	OnConnect(c *Connection)
	OnDisconnect(c *Connection)
	OnLogon(c *Connection, healthy bool)
	OnLogout(c *Connection)
	OnMessage(c *Connection, m *fixmsg.Message)
	OnStateChange(c *Connection, from, to State)
	// ShouldReplay decides, per resend-request message, whether to
	// re-transmit it (true; re-encoded with its original MsgSeqNum,
	// PossDupFlag=Y and a fresh SendingTime) or substitute a
	// SequenceReset-GapFill (false).
	ShouldReplay(m *fixmsg.Message) bool
}

// Config carries the fixed parameters of one connection.
type Config struct {
	Role         session.Role
	HeartBtInt   time.Duration
	ResetOnLogon bool
}

// Connection is one FIX session over a net.Conn. It does not reconnect
// after a disconnect.
type Connection struct {
	cfg     Config
	sess    *session.Session
	journal *journal.Journal
	codec   *codec.Codec
	profile protocol.Profile
	handler Handler
	log     *zap.Logger

	mu    sync.Mutex
	state State
	conn  net.Conn

	sendMu sync.Mutex

	lastRecv time.Time
	lastSent time.Time

	testReqPending string

	closeOnce sync.Once
	done      chan struct{}
	wg        sync.WaitGroup
}

// New constructs a connection bound to sess/journal/codec but not yet
// attached to a transport.
func New(cfg Config, sess *session.Session, jrn *journal.Journal, cdc *codec.Codec, profile protocol.Profile, handler Handler, log *zap.Logger) *Connection {
	if cfg.HeartBtInt == 0 {
		cfg.HeartBtInt = 30 * time.Second
	}
	return &Connection{
		cfg:     cfg,
		sess:    sess,
		journal: jrn,
		codec:   cdc,
		profile: profile,
		handler: handler,
		log:     log,
		state:   StateDisconnectedNoConnToday,
	}
}

func (c *Connection) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Connection) setState(s State) {
	c.mu.Lock()
	from := c.state
	c.state = s
	c.mu.Unlock()
	if from != s {
		if c.log != nil {
			obs.StateChange(c.log, c.sess.Key().String(), from.String(), s.String())
		}
		c.handler.OnStateChange(c, from, s)
	}
}

// Attach adopts an already-open transport (either side of a Dial/Accept)
// and starts the reader and heartbeat goroutines. An initiator returns once
// its Logon has been written; an acceptor returns at once. It does not wait
// for the logon handshake to complete.
func (c *Connection) Attach(ctx context.Context, conn net.Conn) error {
	c.mu.Lock()
	c.conn = conn
	c.done = make(chan struct{})
	c.mu.Unlock()

	c.setState(StateNetworkConnEstablished)
	c.handler.OnConnect(c)

	c.wg.Add(2)
	go c.readerLoop()
	go c.heartbeatLoop()

	if c.cfg.Role == session.Initiator {
		if err := c.sendLogon(ctx); err != nil {
			return err
		}
		c.setState(StateLogonInitialSent)
	} else {
		c.setState(StateLogonInitialRecv)
	}
	return nil
}

// Dial opens a TCP connection to addr as the initiator and attaches it.
func (c *Connection) Dial(ctx context.Context, addr string) error {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("%w: dial %s: %v", fixerr.ErrConnection, addr, err)
	}
	c.setState(StateNetworkConnInitiated)
	return c.Attach(ctx, conn)
}

func (c *Connection) sendLogon(ctx context.Context) error {
	m := fixmsg.NewMessage(fixtags.MsgLogon)
	_ = m.Set(fixtags.EncryptMethod, "0")
	_ = m.Set(fixtags.HeartBtInt, fmt.Sprintf("%d", int(c.cfg.HeartBtInt.Seconds())))
	if c.cfg.ResetOnLogon {
		_ = m.Set(fixtags.ResetSeqNumFlag, "Y")
	}
	return c.SendMsg(m)
}

// SendMsg encodes, persists, and transmits msg under the connection's send
// lock so concurrent application sends serialize into contiguous sequence
// numbers.
func (c *Connection) SendMsg(m *fixmsg.Message) error {
	st := c.State()
	if !m.IsAdmin() && st != StateActive && st != StateLogonInitialSent && st != StateLogonInitialRecv && st != StateLogonResponse {
		return fmt.Errorf("%w: cannot send application message in state=%s", fixerr.ErrConnection, st)
	}

	c.sendMu.Lock()
	defer c.sendMu.Unlock()

	raw, err := c.codec.Encode(m, c.sess, false)
	if err != nil {
		return err
	}
	if err := c.journal.PersistMsg([]byte(raw), c.sess, session.Outbound); err != nil {
		return err
	}
	if err := c.write(raw); err != nil {
		return err
	}
	c.mu.Lock()
	c.lastSent = time.Now()
	c.mu.Unlock()

	if m.MsgType() == fixtags.MsgLogout {
		c.setState(StateDisconnectedWConnToday)
	}
	return nil
}

func (c *Connection) write(s string) error {
	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()
	if conn == nil {
		return fmt.Errorf("%w: not connected", fixerr.ErrConnection)
	}
	_, err := io.WriteString(conn, s)
	return err
}

// readerLoop is the single goroutine that owns inbound decode and
// application callback dispatch.
func (c *Connection) readerLoop() {
	defer c.wg.Done()
	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()

	r := bufio.NewReaderSize(conn, 64*1024)
	var buf []byte
	scratch := make([]byte, 4096)

	for {
		select {
		case <-c.done:
			return
		default:
		}

		n, err := r.Read(scratch)
		if err != nil {
			c.onTransportError(err)
			return
		}
		buf = append(buf, scratch[:n]...)

		for {
			res, decErr := c.codec.Decode(buf, true)
			if decErr != nil {
				buf = buf[min(res.Consumed, len(buf)):]
				continue
			}
			if res.Consumed == 0 && res.Msg == nil {
				break // need more data
			}
			buf = buf[res.Consumed:]
			if res.Msg == nil {
				continue // garbage or bad frame skipped
			}
			c.handleInbound(res.Msg, res.Raw)
		}
	}
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func (c *Connection) onTransportError(err error) {
	// A clean Logout already moved the state to DISCONNECTED_WCONN_TODAY
	// and closed the transport itself; the resulting read error here is
	// expected shutdown noise, not a broken connection.
	if c.State() != StateDisconnectedWConnToday {
		c.setState(StateDisconnectedBrokenConn)
		c.handler.OnDisconnect(c)
	}
	c.closeOnce.Do(func() {
		if c.done != nil {
			close(c.done)
		}
	})
}

func (c *Connection) handleInbound(m *fixmsg.Message, raw []byte) {
	c.mu.Lock()
	c.lastRecv = time.Now()
	c.mu.Unlock()

	seqStr, err := m.Get(fixtags.MsgSeqNum)
	if err != nil {
		return
	}
	msgSeqNum, err := parseInt(seqStr)
	if err != nil {
		return
	}

	possDup := m.GetOr(fixtags.PossDupFlag, "N") == "Y"

	result := c.sess.SetNextNumIn(msgSeqNum)
	switch {
	case result == 0:
		if !possDup {
			_ = c.Disconnect("MsgSeqNum too low, no PossDupFlag")
			return
		}
		// Duplicate resend, already processed: still react to a resent
		// admin message (e.g. echo a resent TestRequest) but never
		// re-persist or re-deliver the frame to the application.
		if m.IsAdmin() {
			c.handleAdmin(m)
		}
		return
	case result == -1:
		if c.log != nil {
			obs.SeqGap(c.log, c.sess.Key().String(), c.sess.NextNumIn(), msgSeqNum)
		}
		c.setState(StateResendReqAwaiting)
		_ = c.sendResendRequest(c.sess.NextNumIn(), 0)
		return
	}

	_ = c.journal.PersistMsg(raw, c.sess, session.Inbound)

	if m.IsAdmin() {
		c.handleAdmin(m)
		return
	}

	if c.State() == StateResendReqAwaiting {
		c.setState(StateActive)
	}
	c.handler.OnMessage(c, m)
}

func (c *Connection) handleAdmin(m *fixmsg.Message) {
	switch m.MsgType() {
	case fixtags.MsgLogon:
		c.handleLogon(m)
	case fixtags.MsgLogout:
		c.setState(StateDisconnectedWConnToday)
		c.handler.OnLogout(c)
		_ = c.Disconnect("")
	case fixtags.MsgTestRequest:
		reqID, _ := m.Get(fixtags.TestReqID)
		hb := fixmsg.NewMessage(fixtags.MsgHeartbeat)
		_ = hb.Set(fixtags.TestReqID, reqID)
		_ = c.SendMsg(hb)
	case fixtags.MsgHeartbeat:
		if reqID, err := m.Get(fixtags.TestReqID); err == nil {
			c.mu.Lock()
			if reqID == c.testReqPending {
				c.testReqPending = ""
			}
			c.mu.Unlock()
		}
	case fixtags.MsgResendRequest:
		c.handleResendRequest(m)
	case fixtags.MsgSequenceReset:
		c.handleSequenceReset(m)
	}
}

func (c *Connection) handleLogon(m *fixmsg.Message) {
	sender, _ := m.Get(fixtags.SenderCompID)
	target, _ := m.Get(fixtags.TargetCompID)
	if sender != "" && target != "" {
		if err := c.sess.ValidateCompIDs(sender, target); err != nil {
			_ = c.Disconnect("comp-id mismatch")
			return
		}
	}
	if m.GetOr(fixtags.ResetSeqNumFlag, "N") == "Y" {
		one := 1
		c.sess.SetSeqNum(&one, &one)
	}

	if c.cfg.Role == session.Acceptor {
		if err := c.sendLogon(context.Background()); err != nil {
			return
		}
	}
	// healthy is false when the logon is processed while a resend request
	// sent by this connection is still outstanding (RESENDREQ_AWAITING).
	healthy := c.State() != StateResendReqAwaiting
	c.setState(StateActive)
	c.handler.OnLogon(c, healthy)
}

func (c *Connection) handleResendRequest(m *fixmsg.Message) {
	beginStr, _ := m.Get(fixtags.BeginSeqNo)
	endStr, _ := m.Get(fixtags.EndSeqNo)
	begin, _ := parseInt(beginStr)
	end, _ := parseInt(endStr)
	if end == 0 {
		end = c.sess.NextNumOut() - 1
	}

	msgs, err := c.journal.RecoverMessages(c.sess, session.Outbound, begin, end)
	if err != nil {
		return
	}

	gapStart := 0
	flushGap := func(upTo int) {
		if gapStart == 0 {
			return
		}
		gf := fixmsg.NewMessage(fixtags.MsgSequenceReset)
		_ = gf.Set(fixtags.MsgSeqNum, itoa(gapStart), fixmsg.AllowFraming())
		_ = gf.Set(fixtags.GapFillFlag, "Y")
		_ = gf.Set(fixtags.NewSeqNo, itoa(upTo))
		raw, err := c.codec.Encode(gf, c.sess, true)
		if err == nil {
			_ = c.write(raw)
		}
		if c.log != nil {
			obs.Resend(c.log, c.sess.Key().String(), gapStart, upTo, true)
		}
		gapStart = 0
	}

	seq := begin
	for _, raw := range msgs {
		res, err := c.codec.Decode(raw, true)
		if err != nil || res.Msg == nil {
			seq++
			continue
		}
		if c.handler.ShouldReplay(res.Msg) {
			flushGap(seq)
			replayMsg, rerr := fixmsg.NewMessageFromContainer(res.Msg.Container.Clone())
			if rerr == nil {
				_ = replayMsg.Set(fixtags.PossDupFlag, "Y", fixmsg.AllowFraming())
				_ = replayMsg.Set(fixtags.MsgSeqNum, itoa(seq), fixmsg.AllowFraming())
				out, eerr := c.codec.Encode(replayMsg, c.sess, true)
				if eerr == nil {
					_ = c.write(out)
				}
			}
		} else {
			if gapStart == 0 {
				gapStart = seq
			}
		}
		seq++
	}
	flushGap(seq)
}

func (c *Connection) handleSequenceReset(m *fixmsg.Message) {
	newSeqStr, err := m.Get(fixtags.NewSeqNo)
	if err != nil {
		return
	}
	newSeq, err := parseInt(newSeqStr)
	if err != nil {
		return
	}
	c.sess.SetSeqNum(nil, &newSeq)
	if c.State() == StateResendReqAwaiting {
		c.setState(StateActive)
	}
}

func (c *Connection) sendResendRequest(begin, end int) error {
	m := fixmsg.NewMessage(fixtags.MsgResendRequest)
	_ = m.Set(fixtags.BeginSeqNo, itoa(begin))
	_ = m.Set(fixtags.EndSeqNo, itoa(end))
	return c.SendMsg(m)
}

// heartbeatLoop is the connection's second goroutine: it watches
// last-send/last-recv timestamps and emits Heartbeat/TestRequest messages
// on a fixed schedule.
func (c *Connection) heartbeatLoop() {
	defer c.wg.Done()
	ticker := time.NewTicker(c.cfg.HeartBtInt / 4)
	defer ticker.Stop()

	for {
		select {
		case <-c.done:
			return
		case <-ticker.C:
			c.tickHeartbeat()
		}
	}
}

func (c *Connection) tickHeartbeat() {
	if c.State() != StateActive {
		return
	}
	now := time.Now()

	c.mu.Lock()
	sinceOut := now.Sub(c.lastSent)
	sinceIn := now.Sub(c.lastRecv)
	pending := c.testReqPending
	c.mu.Unlock()

	if sinceOut >= c.cfg.HeartBtInt {
		hb := fixmsg.NewMessage(fixtags.MsgHeartbeat)
		_ = c.SendMsg(hb)
	}

	transmissionGrace := c.cfg.HeartBtInt + c.cfg.HeartBtInt/5
	if pending == "" && sinceIn >= transmissionGrace {
		reqID := uuid.NewString()
		c.mu.Lock()
		c.testReqPending = reqID
		c.mu.Unlock()
		tr := fixmsg.NewMessage(fixtags.MsgTestRequest)
		_ = tr.Set(fixtags.TestReqID, reqID)
		_ = c.SendMsg(tr)
	} else if pending != "" && sinceIn >= transmissionGrace+c.cfg.HeartBtInt {
		c.setState(StateAwaitingConnectionRestore)
		_ = c.Disconnect("test request timeout")
	}
}

// Disconnect optionally sends Logout(reason), closes the transport, and
// stops both goroutines.
func (c *Connection) Disconnect(reason string) error {
	if reason != "" && c.State() == StateActive {
		lo := fixmsg.NewMessage(fixtags.MsgLogout)
		_ = lo.Set(fixtags.Text, reason)
		_ = c.SendMsg(lo)
	}
	c.closeOnce.Do(func() {
		c.mu.Lock()
		if c.conn != nil {
			_ = c.conn.Close()
		}
		if c.done != nil {
			close(c.done)
		}
		c.mu.Unlock()
	})
	if c.State() != StateDisconnectedWConnToday {
		c.setState(StateDisconnectedBrokenConn)
	}
	c.handler.OnDisconnect(c)
	return nil
}

// Wait blocks until both connection goroutines have exited.
func (c *Connection) Wait() {
	c.wg.Wait()
}

func parseInt(s string) (int, error) {
	n := 0
	if s == "" {
		return 0, fmt.Errorf("%w: empty integer", fixerr.ErrDecoding)
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, fmt.Errorf("%w: not an integer: %q", fixerr.ErrDecoding, s)
		}
		n = n*10 + int(r-'0')
	}
	return n, nil
}

func itoa(n int) string {
	return fmt.Sprintf("%d", n)
}
