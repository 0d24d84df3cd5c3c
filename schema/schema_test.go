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

package schema

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alexveden/asyncfix/fixmsg"
	"github.com/alexveden/asyncfix/fixtags"
)

const testDict = `<fix major="4" minor="4">
  <fields>
    <field number="1" name="Account" type="STRING"/>
    <field number="11" name="ClOrdID" type="STRING"/>
    <field number="38" name="OrderQty" type="QTY"/>
    <field number="40" name="OrdType" type="CHAR"/>
    <field number="44" name="Price" type="PRICE"/>
    <field number="54" name="Side" type="CHAR">
      <value enum="1" description="BUY"/>
      <value enum="2" description="SELL"/>
    </field>
    <field number="55" name="Symbol" type="STRING"/>
    <field number="448" name="PartyID" type="STRING"/>
    <field number="453" name="NoPartyIDs" type="NUMINGROUP"/>
    <field number="8" name="BeginString" type="STRING"/>
    <field number="9" name="BodyLength" type="LENGTH"/>
    <field number="35" name="MsgType" type="STRING"/>
    <field number="49" name="SenderCompID" type="STRING"/>
    <field number="56" name="TargetCompID" type="STRING"/>
    <field number="34" name="MsgSeqNum" type="SEQNUM"/>
    <field number="52" name="SendingTime" type="UTCTIMESTAMP"/>
    <field number="10" name="CheckSum" type="STRING"/>
  </fields>
  <header>
    <field name="BeginString" required="Y"/>
    <field name="BodyLength" required="Y"/>
    <field name="MsgType" required="Y"/>
    <field name="SenderCompID" required="Y"/>
    <field name="TargetCompID" required="Y"/>
    <field name="MsgSeqNum" required="Y"/>
    <field name="SendingTime" required="Y"/>
  </header>
  <components>
    <component name="Parties">
      <group name="NoPartyIDs" required="N">
        <field name="PartyID" required="Y"/>
      </group>
    </component>
  </components>
  <messages>
    <message name="NewOrderSingle" msgtype="D" msgcat="app">
      <field name="ClOrdID" required="Y"/>
      <field name="Account" required="N"/>
      <field name="Symbol" required="Y"/>
      <field name="Side" required="Y"/>
      <field name="OrderQty" required="Y"/>
      <field name="OrdType" required="Y"/>
      <field name="Price" required="N"/>
      <component name="Parties" required="N"/>
    </message>
  </messages>
</fix>`

func testSchema(t *testing.T) *Schema {
	t.Helper()
	s, err := Parse(strings.NewReader(testDict))
	require.NoError(t, err)
	return s
}

func newOrderMsg() *fixmsg.Message {
	m := fixmsg.NewMessage(fixtags.MsgNewOrderSingle)
	_ = m.Set(fixtags.ClOrdID, "id-1")
	_ = m.Set(fixtags.Symbol, "TICK")
	_ = m.Set(fixtags.Side, "1")
	_ = m.Set(fixtags.OrderQty, "10")
	_ = m.Set(fixtags.OrdType, "2")
	return m
}

func TestValidateValidMessage(t *testing.T) {
	s := testSchema(t)
	assert.NoError(t, s.Validate(newOrderMsg()))
}

func TestValidateMissingRequiredField(t *testing.T) {
	s := testSchema(t)
	m := fixmsg.NewMessage(fixtags.MsgNewOrderSingle)
	_ = m.Set(fixtags.ClOrdID, "id-1")
	assert.Error(t, s.Validate(m))
}

func TestValidateUnknownTagRejected(t *testing.T) {
	s := testSchema(t)
	m := newOrderMsg()
	_ = m.Set(fixtags.LeavesQty, "5")
	assert.Error(t, s.Validate(m))
}

func TestValidateEnumRejectsBadValue(t *testing.T) {
	s := testSchema(t)
	m := fixmsg.NewMessage(fixtags.MsgNewOrderSingle)
	_ = m.Set(fixtags.ClOrdID, "id-1")
	_ = m.Set(fixtags.Symbol, "TICK")
	_ = m.Set(fixtags.Side, "9")
	_ = m.Set(fixtags.OrderQty, "10")
	_ = m.Set(fixtags.OrdType, "2")
	assert.Error(t, s.Validate(m))
}

func TestValidateGroupEntries(t *testing.T) {
	s := testSchema(t)
	m := newOrderMsg()
	entry := fixmsg.NewContainer()
	_ = entry.Set(fixtags.PartyID, "BROKER1")
	_ = m.SetGroup(fixtags.NoPartyIDs, []*fixmsg.Container{entry})
	assert.NoError(t, s.Validate(m))
}

func TestValidateUnknownMsgType(t *testing.T) {
	s := testSchema(t)
	m := fixmsg.NewMessage(fixtags.MsgHeartbeat)
	assert.Error(t, s.Validate(m))
}
