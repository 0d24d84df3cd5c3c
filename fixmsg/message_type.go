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

package fixmsg

import (
	"fmt"

	"github.com/alexveden/asyncfix/fixtags"
)

// Message is a Container whose MsgType (tag 35) is fixed at construction.
type Message struct {
	*Container
	msgType fixtags.MsgType
}

// NewMessage constructs an empty message of the given type. MsgType is not
// stored as an ordinary settable tag; callers cannot Set(fixtags.MsgTypeTag,
// ...) on it, since the codec writes it from MsgType() during encode.
func NewMessage(msgType fixtags.MsgType) *Message {
	return &Message{Container: NewContainer(), msgType: msgType}
}

// NewMessageFromContainer wraps an already-decoded container, reading its
// MsgType tag. Used by the codec after decode.
func NewMessageFromContainer(c *Container) (*Message, error) {
	mt, err := c.Get(fixtags.MsgTypeTag)
	if err != nil {
		return nil, fmt.Errorf("decoded frame missing MsgType: %w", err)
	}
	return &Message{Container: c, msgType: fixtags.MsgType(mt)}, nil
}

// MsgType returns the message's immutable type.
func (m *Message) MsgType() fixtags.MsgType {
	return m.msgType
}

// IsAdmin reports whether this message is a session-layer message.
func (m *Message) IsAdmin() bool {
	return m.msgType.IsAdmin()
}
