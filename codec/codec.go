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

// Package codec encodes FIXMessage containers to wire bytes and decodes
// wire bytes back into containers, per the FIX 4.4 framing rules:
// SOH-delimited tag=value pairs, BeginString/BodyLength header,
// trailing checksum, and stack-based repeating-group reconstruction driven
// by the protocol profile's group-membership map.
package codec

import (
	"bytes"
	"fmt"
	"strconv"
	"time"

	"github.com/alexveden/asyncfix/fixerr"
	"github.com/alexveden/asyncfix/fixmsg"
	"github.com/alexveden/asyncfix/fixtags"
	"github.com/alexveden/asyncfix/protocol"
)

const soh = "\x01"

// SeqAllocator is the minimal session surface the codec needs to allocate
// outbound sequence numbers. session.Session implements it.
type SeqAllocator interface {
	AllocateNextNumOut() int
	SenderCompID() string
	TargetCompID() string
}

// Codec encodes/decodes frames for a single protocol profile.
type Codec struct {
	Profile protocol.Profile

	// Now is overridable for tests; defaults to time.Now.
	Now func() time.Time
}

// New returns a codec bound to profile.
func New(profile protocol.Profile) *Codec {
	return &Codec{Profile: profile, Now: time.Now}
}

// Encode serializes msg using session for identity and (unless rawSeqNum)
// sequence-number allocation. With rawSeqNum true the MsgSeqNum already
// set on msg is used as is, for any message type; the connection engine
// passes true only from its resend path (replayed frames and gap-fills),
// which must stamp a specific MsgSeqNum instead of allocating the next one.
func (c *Codec) Encode(msg *fixmsg.Message, session SeqAllocator, rawSeqNum bool) (string, error) {
	var seqNo int
	if rawSeqNum {
		raw, err := msg.Get(fixtags.MsgSeqNum)
		if err != nil {
			return "", fmt.Errorf("%w: raw_seq_num requires MsgSeqNum preset: %v", fixerr.ErrEncoding, err)
		}
		n, err := strconv.Atoi(raw)
		if err != nil {
			return "", fmt.Errorf("%w: MsgSeqNum not numeric: %v", fixerr.ErrEncoding, err)
		}
		seqNo = n
	} else {
		if msg.Has(fixtags.MsgSeqNum) {
			return "", fmt.Errorf("%w: MsgSeqNum must not be preset unless raw_seq_num", fixerr.ErrEncoding)
		}
		seqNo = session.AllocateNextNumOut()
	}

	var body bytes.Buffer
	writeField(&body, fixtags.MsgTypeTag, string(msg.MsgType()))
	writeField(&body, fixtags.SenderCompID, session.SenderCompID())
	writeField(&body, fixtags.TargetCompID, session.TargetCompID())
	writeField(&body, fixtags.MsgSeqNum, strconv.Itoa(seqNo))
	writeField(&body, fixtags.SendingTime, c.Now().UTC().Format("20060102-15:04:05.000"))

	for _, t := range msg.Tags() {
		if fixtags.FramingTags[t] {
			continue
		}
		if err := c.writeTag(&body, t, msg.Container); err != nil {
			return "", err
		}
	}

	var header bytes.Buffer
	writeField(&header, fixtags.BeginString, c.Profile.BeginString())
	writeField(&header, fixtags.BodyLength, strconv.Itoa(body.Len()))

	var frame bytes.Buffer
	frame.Write(header.Bytes())
	frame.Write(body.Bytes())

	cksum := checksum(frame.Bytes())
	frame.WriteString(fmt.Sprintf("%d=%03d%s", fixtags.CheckSum, cksum, soh))

	return frame.String(), nil
}

func (c *Codec) writeTag(buf *bytes.Buffer, t fixtags.Tag, ctr *fixmsg.Container) error {
	if ctr.IsGroup(t) {
		entries, err := ctr.GetGroupList(t)
		if err != nil {
			return err
		}
		writeField(buf, t, strconv.Itoa(len(entries)))
		for _, entry := range entries {
			for _, mt := range entry.Tags() {
				if err := c.writeTag(buf, mt, entry); err != nil {
					return err
				}
			}
		}
		return nil
	}
	v, err := ctr.Get(t)
	if err != nil {
		return err
	}
	writeField(buf, t, v)
	return nil
}

func writeField(buf *bytes.Buffer, t fixtags.Tag, v string) {
	buf.WriteString(t.String())
	buf.WriteByte('=')
	buf.WriteString(v)
	buf.WriteString(soh)
}

func checksum(b []byte) int {
	sum := 0
	for _, c := range b {
		sum += int(c)
	}
	return sum % 256
}

// DecodeResult is the outcome of one Decode call.
type DecodeResult struct {
	Msg      *fixmsg.Message
	Consumed int
	Raw      []byte
}

// Decode scans buf for one complete frame: skip leading garbage, wait for
// more data on a short buffer, verify the checksum, and reconstruct
// repeating groups via the protocol profile's
// group-membership map. In silent mode, malformed input yields a zero-value
// result with Consumed advanced past the bad data and a nil error; in
// non-silent mode the same conditions return a wrapped fixerr.ErrDecoding.
func (c *Codec) Decode(buf []byte, silent bool) (DecodeResult, error) {
	marker := []byte(fmt.Sprintf("%d=%s%s", fixtags.BeginString, c.Profile.BeginString(), soh))
	idx := bytes.Index(buf, marker)
	if idx == -1 {
		if !silent {
			return DecodeResult{}, fmt.Errorf("%w: no valid frame start found", fixerr.ErrDecoding)
		}
		return DecodeResult{Consumed: len(buf)}, nil
	}
	if idx > 0 {
		// Garbage precedes a valid frame start; caller strips it and
		// retries from the marker.
		return DecodeResult{Consumed: idx}, nil
	}

	rest := buf
	p := len(marker)
	sohPos := bytes.IndexByte(rest[p:], 0x01)
	if sohPos == -1 {
		return DecodeResult{}, nil // need more data
	}
	field9 := string(rest[p : p+sohPos])
	tag9, val9, ok := splitField(field9)
	if !ok || tag9 != fixtags.BodyLength.String() {
		if !silent {
			return DecodeResult{}, fmt.Errorf("%w: BodyLength must be the 2nd field", fixerr.ErrDecoding)
		}
		return DecodeResult{Consumed: len(buf)}, nil
	}
	bodyLen, err := strconv.Atoi(val9)
	if err != nil || bodyLen < 0 {
		if !silent {
			return DecodeResult{}, fmt.Errorf("%w: BodyLength not numeric", fixerr.ErrDecoding)
		}
		return DecodeResult{Consumed: len(buf)}, nil
	}
	headerLen := p + sohPos + 1
	const checksumFieldLen = 7 // "10=" + 3 digits + SOH
	totalLen := headerLen + bodyLen + checksumFieldLen
	if totalLen > len(rest) {
		return DecodeResult{}, nil // need more data
	}

	frame := rest[:totalLen]
	sumRegion := frame[:headerLen+bodyLen]
	checksumField := string(frame[headerLen+bodyLen : totalLen])
	ctag, cval, ok := splitField(trimTrailingSOH(checksumField))
	if !ok || ctag != fixtags.CheckSum.String() {
		if !silent {
			return DecodeResult{}, fmt.Errorf("%w: malformed checksum field", fixerr.ErrDecoding)
		}
		return DecodeResult{Consumed: totalLen}, nil
	}
	wantCksum, err := strconv.Atoi(cval)
	if err != nil || wantCksum != checksum(sumRegion) {
		if !silent {
			return DecodeResult{}, fmt.Errorf("%w: checksum mismatch", fixerr.ErrDecoding)
		}
		return DecodeResult{Consumed: totalLen}, nil
	}

	msg, err := c.parseFields(frame)
	if err != nil {
		if !silent {
			return DecodeResult{}, err
		}
		return DecodeResult{Consumed: totalLen}, nil
	}

	raw := make([]byte, totalLen)
	copy(raw, frame)
	return DecodeResult{Msg: msg, Consumed: totalLen, Raw: raw}, nil
}

func trimTrailingSOH(s string) string {
	if len(s) > 0 && s[len(s)-1] == 0x01 {
		return s[:len(s)-1]
	}
	return s
}

func splitField(s string) (tag, val string, ok bool) {
	i := bytes.IndexByte([]byte(s), '=')
	if i == -1 {
		return "", "", false
	}
	return s[:i], s[i+1:], true
}

// groupCtx accumulates one in-progress repeating-group entry during decode.
type groupCtx struct {
	tag        fixtags.Tag
	memberTags map[fixtags.Tag]bool
	parent     *fixmsg.Container
	acc        *fixmsg.Container
}

func (c *Codec) parseFields(frame []byte) (*fixmsg.Message, error) {
	trimmed := trimTrailingSOH(string(frame))
	fields := bytesSplit(trimmed, soh)

	// fields[0] is BeginString, fields[1] is BodyLength; the first field of
	// the body itself must be MsgType.
	if len(fields) < 3 {
		return nil, fmt.Errorf("%w: frame too short to contain MsgType", fixerr.ErrDecoding)
	}
	if tagStr, _, ok := splitField(fields[2]); !ok || tagStr != fixtags.MsgTypeTag.String() {
		return nil, fmt.Errorf("%w: first body tag must be MsgType (35)", fixerr.ErrDecoding)
	}

	root := fixmsg.NewContainer()
	groupTags := c.Profile.RepeatingGroups()

	var stack []*groupCtx
	current := root

	finalizeTop := func() {
		top := stack[len(stack)-1]
		_ = top.parent.AddGroupEntry(top.tag, top.acc)
		stack = stack[:len(stack)-1]
		if len(stack) > 0 {
			current = stack[len(stack)-1].acc
		} else {
			current = root
		}
	}

	for _, f := range fields {
		tagStr, val, ok := splitField(f)
		if !ok {
			return nil, fmt.Errorf("%w: malformed field %q", fixerr.ErrDecoding, f)
		}
		n, err := strconv.Atoi(tagStr)
		if err != nil {
			return nil, fmt.Errorf("%w: non-numeric tag %q", fixerr.ErrDecoding, tagStr)
		}
		tag := fixtags.Tag(n)

		if members, isGroupStart := groupTags[tag]; isGroupStart {
			if len(stack) > 0 {
				for len(stack) > 0 && !stack[len(stack)-1].memberTags[tag] {
					finalizeTop()
				}
			}
			ctx := &groupCtx{tag: tag, memberTags: members, parent: current, acc: fixmsg.NewContainer()}
			stack = append(stack, ctx)
			current = ctx.acc
			continue
		}

		if len(stack) > 0 {
			for len(stack) > 0 && !stack[len(stack)-1].memberTags[tag] {
				finalizeTop()
			}
			if len(stack) > 0 {
				top := stack[len(stack)-1]
				if top.acc.Has(tag) {
					_ = top.parent.AddGroupEntry(top.tag, top.acc)
					top.acc = fixmsg.NewContainer()
					current = top.acc
				}
				opts := setOptsFor(tag)
				if err := current.Set(tag, val, opts...); err != nil {
					return nil, err
				}
				continue
			}
			// stack emptied; tag belongs to the enclosing container.
		}

		if tag == fixtags.CheckSum {
			continue // already verified
		}
		if root.Has(tag) {
			root.MarkRepeated(tag)
			continue
		}
		opts := setOptsFor(tag)
		if err := root.Set(tag, val, opts...); err != nil {
			return nil, err
		}
	}
	for len(stack) > 0 {
		finalizeTop()
	}

	return fixmsg.NewMessageFromContainer(root)
}

func setOptsFor(t fixtags.Tag) []fixmsg.SetOpt {
	if fixtags.FramingTags[t] {
		return []fixmsg.SetOpt{fixmsg.AllowFraming()}
	}
	return nil
}

func bytesSplit(s, sep string) []string {
	if s == "" {
		return nil
	}
	var out []string
	start := 0
	for i := 0; i+len(sep) <= len(s); i++ {
		if s[i:i+len(sep)] == sep {
			out = append(out, s[start:i])
			start = i + len(sep)
		}
	}
	out = append(out, s[start:])
	return out
}

// FindSeqNo parses tag 34 out of an encoded frame without a full decode.
// The journal uses it to index messages by sequence number on persist.
func FindSeqNo(raw []byte) (int, error) {
	marker := []byte(fmt.Sprintf("%d=", fixtags.MsgSeqNum))
	idx := bytes.Index(raw, marker)
	for idx != -1 {
		if idx == 0 || raw[idx-1] == 0x01 {
			rest := raw[idx+len(marker):]
			end := bytes.IndexByte(rest, 0x01)
			if end == -1 {
				end = len(rest)
			}
			n, err := strconv.Atoi(string(rest[:end]))
			if err != nil {
				return 0, fmt.Errorf("%w: MsgSeqNum not numeric", fixerr.ErrDecoding)
			}
			return n, nil
		}
		next := bytes.Index(raw[idx+1:], marker)
		if next == -1 {
			break
		}
		idx = idx + 1 + next
	}
	return 0, fmt.Errorf("%w: MsgSeqNum tag not found in frame", fixerr.ErrTagNotFound)
}
