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

// Command fixcli is an interactive order-entry client: it dials a FIX 4.4
// counterparty, logs on, and drives one or more NewOrderSingle lifecycles
// from a readline REPL.
package main

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"

	"github.com/chzyer/readline"
	"github.com/shopspring/decimal"

	"github.com/alexveden/asyncfix/codec"
	"github.com/alexveden/asyncfix/connection"
	"github.com/alexveden/asyncfix/fixmsg"
	"github.com/alexveden/asyncfix/fixtags"
	"github.com/alexveden/asyncfix/internal/cli"
	"github.com/alexveden/asyncfix/internal/config"
	"github.com/alexveden/asyncfix/internal/obs"
	"github.com/alexveden/asyncfix/journal"
	"github.com/alexveden/asyncfix/order"
	"github.com/alexveden/asyncfix/protocol"
	"github.com/alexveden/asyncfix/session"
)

// orderBook is the REPL's application state: every order this client has
// opened, keyed by its current ClOrdID.
type orderBook struct {
	mu     sync.Mutex
	conn   *connection.Connection
	orders map[string]*order.NewOrderSingle
}

func (b *orderBook) track(o *order.NewOrderSingle) {
	b.mu.Lock()
	b.orders[o.ClOrdID] = o
	b.mu.Unlock()
}

func (b *orderBook) find(clOrdID string) *order.NewOrderSingle {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, o := range b.orders {
		if o.ClOrdID == clOrdID || o.ClOrdIDRoot == clOrdID {
			return o
		}
	}
	return nil
}

func (b *orderBook) OnConnect(c *connection.Connection)    {}
func (b *orderBook) OnDisconnect(c *connection.Connection) {}
func (b *orderBook) OnLogon(c *connection.Connection, healthy bool) {}
func (b *orderBook) OnLogout(c *connection.Connection)              {}
func (b *orderBook) OnStateChange(c *connection.Connection, from, to connection.State) {}

func (b *orderBook) OnMessage(c *connection.Connection, m *fixmsg.Message) {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch m.MsgType() {
	case fixtags.MsgExecutionReport:
		clOrdID := m.GetOr(fixtags.ClOrdID, "")
		o := b.orderByAnyClOrdID(clOrdID)
		if o == nil {
			return
		}
		if _, err := o.ProcessExecutionReport(m); err != nil {
			fmt.Printf("order rejected transition: %v\n", err)
			return
		}
		for k, tracked := range b.orders {
			if tracked == o {
				delete(b.orders, k)
			}
		}
		b.orders[o.ClOrdID] = o
	case fixtags.MsgOrderCancelReject:
		clOrdID := m.GetOr(fixtags.ClOrdID, "")
		o := b.orderByAnyClOrdID(clOrdID)
		if o == nil {
			return
		}
		_, _ = o.ProcessCancelRejReport(m)
	}
}

func (b *orderBook) orderByAnyClOrdID(clOrdID string) *order.NewOrderSingle {
	for _, o := range b.orders {
		if o.ClOrdID == clOrdID || o.OrigClOrdID == clOrdID {
			return o
		}
	}
	return nil
}

func (b *orderBook) ShouldReplay(m *fixmsg.Message) bool {
	return true
}

func main() {
	cfg, err := config.FromEnv()
	if err != nil {
		log.Fatal(err)
	}

	zlog, err := obs.New(cfg.LogLevel)
	if err != nil {
		log.Fatal(err)
	}
	defer zlog.Sync()

	jrn, err := journal.Open(cfg.JournalPath)
	if err != nil {
		log.Fatal("journal open:", err)
	}
	defer jrn.Close()

	sess, err := jrn.CreateOrLoad(cfg.TargetCompID, cfg.SenderCompID)
	if err != nil {
		log.Fatal("session load:", err)
	}

	profile := protocol.NewFIX44()
	cdc := codec.New(profile)

	book := &orderBook{orders: make(map[string]*order.NewOrderSingle)}

	conn := connection.New(connection.Config{
		Role:         session.Initiator,
		HeartBtInt:   cfg.HeartBtInt,
		ResetOnLogon: cfg.ResetOnLogon,
	}, sess, jrn, cdc, profile, &cli.TraceHandler{Inner: book}, zlog)
	book.conn = conn

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	fmt.Printf("connecting to %s as %s->%s\n", cfg.Addr(), cfg.SenderCompID, cfg.TargetCompID)
	if err := conn.Dial(ctx, cfg.Addr()); err != nil {
		log.Fatal("dial:", err)
	}
	defer conn.Disconnect("client shutdown")

	repl(book)
}

func repl(book *orderBook) {
	completer := readline.NewPrefixCompleter(
		readline.PcItem("new", readline.PcItem("buy"), readline.PcItem("sell")),
		readline.PcItem("cancel"),
		readline.PcItem("replace"),
		readline.PcItem("status"),
		readline.PcItem("help"),
		readline.PcItem("exit"),
	)

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "fixcli> ",
		HistoryFile:     "/tmp/fixcli_history",
		AutoComplete:    completer,
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		log.Printf("readline init failed: %v", err)
		return
	}
	defer rl.Close()

	for {
		line, err := rl.Readline()
		if err != nil {
			return
		}
		parts := strings.Fields(strings.TrimSpace(line))
		if len(parts) == 0 {
			continue
		}

		switch strings.ToLower(parts[0]) {
		case "new":
			handleNew(book, parts)
		case "cancel":
			handleCancel(book, parts)
		case "replace":
			handleReplace(book, parts)
		case "status":
			handleStatus(book)
		case "help":
			printHelp()
		case "exit":
			return
		default:
			fmt.Println("unknown command, type 'help'")
		}
	}
}

func printHelp() {
	fmt.Print(`Commands:
  new <buy|sell> <symbol> <price> <qty>   - submit a NewOrderSingle
  cancel <clOrdID>                        - cancel a working order
  replace <clOrdID> <price> <qty>         - replace price/qty (use "-" to keep current)
  status                                  - list tracked orders
  help                                    - this message
  exit                                    - quit
`)
}

func handleNew(book *orderBook, parts []string) {
	if len(parts) != 5 {
		fmt.Println("usage: new <buy|sell> <symbol> <price> <qty>")
		return
	}
	side := protocol.SideBuy
	if strings.ToLower(parts[1]) == "sell" {
		side = protocol.SideSell
	}
	price, err := decimal.NewFromString(parts[3])
	if err != nil {
		fmt.Println("bad price:", err)
		return
	}
	qty, err := decimal.NewFromString(parts[4])
	if err != nil {
		fmt.Println("bad qty:", err)
		return
	}

	clOrdIDRoot := fmt.Sprintf("fixcli-%d", len(book.orders)+1)
	o := order.New(clOrdIDRoot, parts[2], side, price, qty)
	msg := o.NewReq()
	if err := book.conn.SendMsg(msg); err != nil {
		fmt.Println("send failed:", err)
		return
	}
	book.track(o)
	fmt.Printf("submitted %s clOrdID=%s\n", o.Ticker, o.ClOrdID)
}

func handleCancel(book *orderBook, parts []string) {
	if len(parts) != 2 {
		fmt.Println("usage: cancel <clOrdID>")
		return
	}
	o := book.find(parts[1])
	if o == nil {
		fmt.Println("no such order")
		return
	}
	msg, err := o.CancelReq()
	if err != nil {
		fmt.Println("cancel rejected:", err)
		return
	}
	if err := book.conn.SendMsg(msg); err != nil {
		fmt.Println("send failed:", err)
		return
	}
	fmt.Printf("cancel sent clOrdID=%s\n", o.ClOrdID)
}

func handleReplace(book *orderBook, parts []string) {
	if len(parts) != 4 {
		fmt.Println("usage: replace <clOrdID> <price|-> <qty|->")
		return
	}
	o := book.find(parts[1])
	if o == nil {
		fmt.Println("no such order")
		return
	}
	var price, qty *decimal.Decimal
	if parts[2] != "-" {
		p, err := decimal.NewFromString(parts[2])
		if err != nil {
			fmt.Println("bad price:", err)
			return
		}
		price = &p
	}
	if parts[3] != "-" {
		q, err := decimal.NewFromString(parts[3])
		if err != nil {
			fmt.Println("bad qty:", err)
			return
		}
		qty = &q
	}
	msg, err := o.ReplaceReq(price, qty)
	if err != nil {
		fmt.Println("replace rejected:", err)
		return
	}
	if err := book.conn.SendMsg(msg); err != nil {
		fmt.Println("send failed:", err)
		return
	}
	fmt.Printf("replace sent clOrdID=%s\n", o.ClOrdID)
}

func handleStatus(book *orderBook) {
	book.mu.Lock()
	defer book.mu.Unlock()
	if len(book.orders) == 0 {
		fmt.Println("no tracked orders")
		return
	}
	fmt.Printf("%-20s %-10s %-8s %-10s %-10s\n", "ClOrdID", "Symbol", "Side", "Status", "LeavesQty")
	for _, o := range book.orders {
		fmt.Printf("%-20s %-10s %-8s %-10s %-10s\n", o.ClOrdID, o.Ticker, o.Side, o.Status, o.LeavesQty.String())
	}
}
