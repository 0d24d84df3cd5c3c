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

// Package fixmsg implements the in-memory FIX message container: an
// ordered tag/value map with a nested representation for repeating groups.
// It has no notion of wire bytes (that's package codec) or of what a tag
// means (that's package schema/protocol); it only enforces the structural
// invariants every FIX message must satisfy.
package fixmsg

import (
	"fmt"

	"github.com/alexveden/asyncfix/fixerr"
	"github.com/alexveden/asyncfix/fixtags"
)

// entry is one slot in a Container's insertion-ordered field list. Exactly
// one of value/group is meaningful, selected by isGroup.
type entry struct {
	tag     fixtags.Tag
	value   string
	isGroup bool
	group   []*Container
}

// Container is an ordered tag→value map with recursive group entries. The
// zero value is not usable; construct with NewContainer.
type Container struct {
	order   []fixtags.Tag
	byTag   map[fixtags.Tag]*entry
	repeats map[fixtags.Tag]bool // tags that decoded as an unexpected repeat
}

// NewContainer returns an empty container.
func NewContainer() *Container {
	return &Container{
		byTag:   make(map[fixtags.Tag]*entry),
		repeats: make(map[fixtags.Tag]bool),
	}
}

// SetOpt configures Set's replace behavior.
type SetOpt func(*setConfig)

type setConfig struct {
	replace     bool
	allowFraming bool
}

// Replace permits overwriting a tag that is already set.
func Replace() SetOpt { return func(c *setConfig) { c.replace = true } }

// allowFramingTag is used internally by the codec to write BeginString,
// MsgSeqNum, etc. during decode; callers building outbound messages must
// never pass it.
func allowFramingTag() SetOpt { return func(c *setConfig) { c.allowFraming = true } }

// AllowFraming exposes allowFramingTag to package codec without making it a
// general public escape hatch; only codec is expected to import it for
// decode-time population of framing tags.
func AllowFraming() SetOpt { return allowFramingTag() }

// Set assigns tag=value. It fails if tag is a reserved framing tag (unless
// AllowFraming is passed), if tag already holds a group, or if tag is
// already set and Replace() was not passed.
func (c *Container) Set(tag fixtags.Tag, value string, opts ...SetOpt) error {
	cfg := setConfig{}
	for _, o := range opts {
		o(&cfg)
	}
	if fixtags.FramingTags[tag] && !cfg.allowFraming {
		return fmt.Errorf("%w: tag=%d is a reserved framing tag, encoder owns it", fixerr.ErrMessage, tag)
	}
	if e, ok := c.byTag[tag]; ok {
		if e.isGroup {
			return fmt.Errorf("%w: tag=%d holds a group, use group accessor", fixerr.ErrMessage, tag)
		}
		if !cfg.replace {
			return fmt.Errorf("%w: tag=%d already set", fixerr.ErrDuplicatedTag, tag)
		}
		e.value = value
		return nil
	}
	c.order = append(c.order, tag)
	c.byTag[tag] = &entry{tag: tag, value: value}
	return nil
}

// MarkRepeated records that tag decoded as a repeat of a scalar field. Used
// by the codec; a subsequent Get on this tag fails with ErrRepeatingTag.
func (c *Container) MarkRepeated(tag fixtags.Tag) {
	c.repeats[tag] = true
}

// Get returns the scalar value of tag.
func (c *Container) Get(tag fixtags.Tag) (string, error) {
	if c.repeats[tag] {
		return "", fmt.Errorf("%w: tag=%d decoded as a repeat, indicates mishandled group", fixerr.ErrRepeatingTag, tag)
	}
	e, ok := c.byTag[tag]
	if !ok {
		return "", fmt.Errorf("%w: tag=%d", fixerr.ErrTagNotFound, tag)
	}
	if e.isGroup {
		return "", fmt.Errorf("%w: tag=%d holds a group, use GetGroupList", fixerr.ErrMessage, tag)
	}
	return e.value, nil
}

// GetOr returns the scalar value of tag, or def if absent.
func (c *Container) GetOr(tag fixtags.Tag, def string) string {
	v, err := c.Get(tag)
	if err != nil {
		return def
	}
	return v
}

// Has reports whether tag is present, as scalar or group, and is not a
// mishandled repeat.
func (c *Container) Has(tag fixtags.Tag) bool {
	_, ok := c.byTag[tag]
	return ok && !c.repeats[tag]
}

// IsGroup reports whether tag is present and holds a repeating group.
func (c *Container) IsGroup(tag fixtags.Tag) bool {
	e, ok := c.byTag[tag]
	return ok && e.isGroup
}

// SetGroup replaces (or creates) tag's group entries wholesale. The
// container's numeric value for tag equals len(entries).
func (c *Container) SetGroup(tag fixtags.Tag, entries []*Container) error {
	if fixtags.FramingTags[tag] {
		return fmt.Errorf("%w: tag=%d is a reserved framing tag", fixerr.ErrMessage, tag)
	}
	if _, ok := c.byTag[tag]; !ok {
		c.order = append(c.order, tag)
	}
	c.byTag[tag] = &entry{tag: tag, isGroup: true, group: entries}
	return nil
}

// AddGroupEntry appends one entry to tag's group, creating the group if
// tag is not yet present.
func (c *Container) AddGroupEntry(tag fixtags.Tag, entry *Container) error {
	e, ok := c.byTag[tag]
	if !ok {
		return c.SetGroup(tag, []*Container{entry})
	}
	if !e.isGroup {
		return fmt.Errorf("%w: tag=%d already holds a scalar value", fixerr.ErrMessage, tag)
	}
	e.group = append(e.group, entry)
	return nil
}

// GetGroupList returns tag's group entries in order.
func (c *Container) GetGroupList(tag fixtags.Tag) ([]*Container, error) {
	e, ok := c.byTag[tag]
	if !ok {
		return nil, fmt.Errorf("%w: tag=%d", fixerr.ErrTagNotFound, tag)
	}
	if !e.isGroup {
		return nil, fmt.Errorf("%w: tag=%d is not a group", fixerr.ErrMessage, tag)
	}
	return e.group, nil
}

// GetGroupByTag returns the first group entry whose scalar field memberTag
// equals value, or nil if none match.
func (c *Container) GetGroupByTag(tag, memberTag fixtags.Tag, value string) (*Container, error) {
	list, err := c.GetGroupList(tag)
	if err != nil {
		return nil, err
	}
	for _, g := range list {
		if v, err := g.Get(memberTag); err == nil && v == value {
			return g, nil
		}
	}
	return nil, nil
}

// GroupCount returns len(entries) for tag, or 0 if tag is absent.
func (c *Container) GroupCount(tag fixtags.Tag) int {
	e, ok := c.byTag[tag]
	if !ok || !e.isGroup {
		return 0
	}
	return len(e.group)
}

// Delete removes tag entirely (scalar or group).
func (c *Container) Delete(tag fixtags.Tag) {
	if _, ok := c.byTag[tag]; !ok {
		return
	}
	delete(c.byTag, tag)
	delete(c.repeats, tag)
	for i, t := range c.order {
		if t == tag {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
}

// Tags returns tags in insertion order.
func (c *Container) Tags() []fixtags.Tag {
	out := make([]fixtags.Tag, len(c.order))
	copy(out, c.order)
	return out
}

// Len returns the number of top-level entries (scalars and groups, not
// group members).
func (c *Container) Len() int {
	return len(c.order)
}

// Equal compares two containers field-for-field and group-for-group,
// ignoring framing tags (BeginString/BodyLength/CheckSum/SendingTime) since
// those are encoder-owned and differ across independently-built messages
// that are otherwise semantically identical.
func (c *Container) Equal(other *Container) bool {
	if other == nil {
		return false
	}
	a := c.comparableTags()
	b := other.comparableTags()
	if len(a) != len(b) {
		return false
	}
	for _, t := range a {
		ea := c.byTag[t]
		eb, ok := other.byTag[t]
		if !ok || ea.isGroup != eb.isGroup {
			return false
		}
		if ea.isGroup {
			if len(ea.group) != len(eb.group) {
				return false
			}
			for i := range ea.group {
				if !ea.group[i].Equal(eb.group[i]) {
					return false
				}
			}
		} else if ea.value != eb.value {
			return false
		}
	}
	return true
}

func (c *Container) comparableTags() []fixtags.Tag {
	out := make([]fixtags.Tag, 0, len(c.order))
	for _, t := range c.order {
		switch t {
		case fixtags.BeginString, fixtags.BodyLength, fixtags.CheckSum, fixtags.SendingTime:
			continue
		}
		out = append(out, t)
	}
	return out
}

// Clone returns a deep copy of c.
func (c *Container) Clone() *Container {
	out := NewContainer()
	for _, t := range c.order {
		e := c.byTag[t]
		if e.isGroup {
			cloned := make([]*Container, len(e.group))
			for i, g := range e.group {
				cloned[i] = g.Clone()
			}
			_ = out.SetGroup(t, cloned)
		} else {
			_ = out.Set(t, e.value, allOptsFor(t)...)
		}
	}
	for t := range c.repeats {
		out.repeats[t] = true
	}
	return out
}

func allOptsFor(t fixtags.Tag) []SetOpt {
	if fixtags.FramingTags[t] {
		return []SetOpt{AllowFraming()}
	}
	return nil
}
