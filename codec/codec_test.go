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

package codec

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alexveden/asyncfix/fixmsg"
	"github.com/alexveden/asyncfix/fixtags"
	"github.com/alexveden/asyncfix/protocol"
	"github.com/alexveden/asyncfix/session"
)

func fixedCodec() *Codec {
	c := New(protocol.NewFIX44())
	c.Now = func() time.Time { return time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC) }
	return c
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	c := fixedCodec()
	sess := session.New("CLIENT", "SERVER")

	m := fixmsg.NewMessage(fixtags.MsgNewOrderSingle)
	_ = m.Set(fixtags.ClOrdID, "ord-1")
	_ = m.Set(fixtags.Symbol, "BTCUSD")
	_ = m.Set(fixtags.Side, "1")

	raw, err := c.Encode(m, sess, false)
	require.NoError(t, err)
	assert.Contains(t, raw, "35=D\x01")
	assert.Contains(t, raw, "49=CLIENT\x01")
	assert.Contains(t, raw, "56=SERVER\x01")
	assert.Contains(t, raw, "34=1\x01")

	res, err := c.Decode([]byte(raw), false)
	require.NoError(t, err)
	require.NotNil(t, res.Msg)
	assert.Equal(t, len(raw), res.Consumed)

	v, err := res.Msg.Get(fixtags.ClOrdID)
	require.NoError(t, err)
	assert.Equal(t, "ord-1", v)
}

func TestEncodeAllocatesSequentialSeqNumbers(t *testing.T) {
	c := fixedCodec()
	sess := session.New("CLIENT", "SERVER")

	m1 := fixmsg.NewMessage(fixtags.MsgHeartbeat)
	m2 := fixmsg.NewMessage(fixtags.MsgHeartbeat)

	raw1, err := c.Encode(m1, sess, false)
	require.NoError(t, err)
	raw2, err := c.Encode(m2, sess, false)
	require.NoError(t, err)

	assert.Contains(t, raw1, "34=1\x01")
	assert.Contains(t, raw2, "34=2\x01")
}

func TestEncodeRejectsPresetSeqNumWithoutRawFlag(t *testing.T) {
	c := fixedCodec()
	sess := session.New("CLIENT", "SERVER")

	m := fixmsg.NewMessage(fixtags.MsgHeartbeat)
	_ = m.Set(fixtags.MsgSeqNum, "5", fixmsg.AllowFraming())

	_, err := c.Encode(m, sess, false)
	assert.Error(t, err)
}

func TestEncodeRawSeqNumRequiresPresetValue(t *testing.T) {
	c := fixedCodec()
	sess := session.New("CLIENT", "SERVER")

	m := fixmsg.NewMessage(fixtags.MsgSequenceReset)
	_, err := c.Encode(m, sess, true)
	assert.Error(t, err)
}

func TestDecodeNeedsMoreDataOnShortBuffer(t *testing.T) {
	c := fixedCodec()
	partial := []byte("8=FIX.4.4\x019=")
	res, err := c.Decode(partial, true)
	require.NoError(t, err)
	assert.Equal(t, 0, res.Consumed)
	assert.Nil(t, res.Msg)
}

func TestDecodeSkipsGarbageBeforeFrame(t *testing.T) {
	c := fixedCodec()
	sess := session.New("CLIENT", "SERVER")
	m := fixmsg.NewMessage(fixtags.MsgHeartbeat)
	raw, err := c.Encode(m, sess, false)
	require.NoError(t, err)

	buf := append([]byte("garbage-noise"), []byte(raw)...)
	res, err := c.Decode(buf, true)
	require.NoError(t, err)
	assert.Equal(t, len("garbage-noise"), res.Consumed)
	assert.Nil(t, res.Msg)

	res2, err := c.Decode(buf[res.Consumed:], true)
	require.NoError(t, err)
	require.NotNil(t, res2.Msg)
}

func TestDecodeDetectsBadChecksum(t *testing.T) {
	c := fixedCodec()
	sess := session.New("CLIENT", "SERVER")
	m := fixmsg.NewMessage(fixtags.MsgHeartbeat)
	raw, err := c.Encode(m, sess, false)
	require.NoError(t, err)

	corrupted := []byte(raw)
	corrupted[len(corrupted)-2] = '9'

	_, err = c.Decode(corrupted, false)
	assert.Error(t, err)

	res, err := c.Decode(corrupted, true)
	require.NoError(t, err)
	assert.Nil(t, res.Msg)
}

func TestEncodeDecodeGroupRoundTrip(t *testing.T) {
	c := fixedCodec()
	sess := session.New("CLIENT", "SERVER")

	m := fixmsg.NewMessage(fixtags.MsgNewOrderSingle)
	entry1 := fixmsg.NewContainer()
	_ = entry1.Set(fixtags.PartyID, "BROKER1")
	entry2 := fixmsg.NewContainer()
	_ = entry2.Set(fixtags.PartyID, "BROKER2")
	_ = m.SetGroup(fixtags.NoPartyIDs, []*fixmsg.Container{entry1, entry2})

	raw, err := c.Encode(m, sess, false)
	require.NoError(t, err)

	res, err := c.Decode([]byte(raw), false)
	require.NoError(t, err)
	require.NotNil(t, res.Msg)

	list, err := res.Msg.GetGroupList(fixtags.NoPartyIDs)
	require.NoError(t, err)
	require.Len(t, list, 2)
	v1, _ := list[0].Get(fixtags.PartyID)
	v2, _ := list[1].Get(fixtags.PartyID)
	assert.Equal(t, "BROKER1", v1)
	assert.Equal(t, "BROKER2", v2)
}

func TestFindSeqNo(t *testing.T) {
	c := fixedCodec()
	sess := session.New("CLIENT", "SERVER")
	m := fixmsg.NewMessage(fixtags.MsgHeartbeat)
	raw, err := c.Encode(m, sess, false)
	require.NoError(t, err)

	n, err := FindSeqNo([]byte(raw))
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}
