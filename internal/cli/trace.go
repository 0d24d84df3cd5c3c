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

// Package cli is the terminal trace surface for the fixcli REPL: a
// connection.Handler decorator that prints state changes and application
// messages to the terminal, filtering out noisy admin traffic.
package cli

import (
	"fmt"

	"github.com/alexveden/asyncfix/connection"
	"github.com/alexveden/asyncfix/fixmsg"
	"github.com/alexveden/asyncfix/fixtags"
)

// TraceHandler wraps an application connection.Handler and prints a
// one-line trace of connect/disconnect/logon/logout events, of transitions
// into ACTIVE or a disconnected state, and of every application message,
// leaving the wrapped handler's own logic untouched.
type TraceHandler struct {
	Inner connection.Handler
}

func (t *TraceHandler) OnConnect(c *connection.Connection) {
	fmt.Println("Event: connected")
	t.Inner.OnConnect(c)
}

func (t *TraceHandler) OnDisconnect(c *connection.Connection) {
	fmt.Println("Event: disconnected")
	t.Inner.OnDisconnect(c)
}

func (t *TraceHandler) OnLogon(c *connection.Connection, healthy bool) {
	fmt.Printf("Event: logon healthy=%v\n", healthy)
	t.Inner.OnLogon(c, healthy)
}

func (t *TraceHandler) OnLogout(c *connection.Connection) {
	fmt.Println("Event: logout")
	t.Inner.OnLogout(c)
}

func (t *TraceHandler) OnMessage(c *connection.Connection, m *fixmsg.Message) {
	clOrdID := m.GetOr(fixtags.ClOrdID, "")
	if clOrdID != "" {
		fmt.Printf("Event: msgType=%s clOrdID=%s\n", m.MsgType(), clOrdID)
	} else {
		fmt.Printf("Event: msgType=%s\n", m.MsgType())
	}
	t.Inner.OnMessage(c, m)
}

func (t *TraceHandler) OnStateChange(c *connection.Connection, from, to connection.State) {
	// Intermediate states (logon steps, RESENDREQ_AWAITING, ...) are noisy
	// and rarely interesting at the terminal; only transitions into ACTIVE
	// and into the two disconnected states are printed.
	switch to {
	case connection.StateActive, connection.StateDisconnectedWConnToday, connection.StateDisconnectedBrokenConn:
		fmt.Printf("Event: state %s -> %s\n", from, to)
	}
	t.Inner.OnStateChange(c, from, to)
}

func (t *TraceHandler) ShouldReplay(m *fixmsg.Message) bool {
	return t.Inner.ShouldReplay(m)
}
