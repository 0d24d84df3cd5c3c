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

// Package schema parses a QuickFIX-dialect FIX data dictionary (fields,
// header, components, groups, messages) and validates decoded messages
// against it: required fields present, field values well-typed, tags
// allowed for their message, repeating groups shaped correctly. It uses the
// standard library's encoding/xml to parse the dictionary document.
package schema

import (
	"encoding/xml"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/alexveden/asyncfix/fixerr"
	"github.com/alexveden/asyncfix/fixmsg"
	"github.com/alexveden/asyncfix/fixtags"
)

// ---- raw XML shape -------------------------------------------------------

type xmlFix struct {
	XMLName    xml.Name       `xml:"fix"`
	Fields     xmlFieldList   `xml:"fields"`
	Header     xmlSet         `xml:"header"`
	Components xmlComponents  `xml:"components"`
	Messages   xmlMessageList `xml:"messages"`
}

type xmlFieldList struct {
	Fields []xmlFieldDef `xml:"field"`
}

type xmlFieldDef struct {
	Number string     `xml:"number,attr"`
	Name   string     `xml:"name,attr"`
	Type   string     `xml:"type,attr"`
	Values []xmlValue `xml:"value"`
}

type xmlValue struct {
	Enum        string `xml:"enum,attr"`
	Description string `xml:"description,attr"`
}

// xmlSet is the shared shape of <header>, <component>, <message>: an
// ordered mix of <field>, <group>, <component> references.
type xmlSet struct {
	Fields     []xmlFieldRef `xml:"field"`
	Groups     []xmlGroupRef `xml:"group"`
	Components []xmlCompRef  `xml:"component"`
}

type xmlFieldRef struct {
	Name     string `xml:"name,attr"`
	Required string `xml:"required,attr"`
}

type xmlCompRef struct {
	Name     string `xml:"name,attr"`
	Required string `xml:"required,attr"`
}

type xmlGroupRef struct {
	Name       string        `xml:"name,attr"`
	Required   string        `xml:"required,attr"`
	Fields     []xmlFieldRef `xml:"field"`
	Groups     []xmlGroupRef `xml:"group"`
	Components []xmlCompRef  `xml:"component"`
}

type xmlComponents struct {
	Components []xmlComponentDef `xml:"component"`
}

type xmlComponentDef struct {
	Name       string        `xml:"name,attr"`
	Fields     []xmlFieldRef `xml:"field"`
	Groups     []xmlGroupRef `xml:"group"`
	Components []xmlCompRef  `xml:"component"`
}

type xmlMessageList struct {
	Messages []xmlMessageDef `xml:"message"`
}

type xmlMessageDef struct {
	Name       string        `xml:"name,attr"`
	MsgType    string        `xml:"msgtype,attr"`
	MsgCat     string        `xml:"msgcat,attr"`
	Fields     []xmlFieldRef `xml:"field"`
	Groups     []xmlGroupRef `xml:"group"`
	Components []xmlCompRef  `xml:"component"`
}

// ---- resolved schema ------------------------------------------------------

// Field is one <field> definition: its tag, name, wire type, and (for
// enumerated fields) the set of legal values.
type Field struct {
	Tag    fixtags.Tag
	Name   string
	Type   string
	Values map[string]string
}

// ValidateValue checks value against the field's declared type or its
// enumerated value set. Only the datatypes exercised by this module's
// message set are checked in depth; unrecognized types pass through
// unvalidated, matching the reference schema's "assume it's fine" fallback
// for esoteric types.
func (f *Field) ValidateValue(value string) error {
	if value == "" {
		return fmt.Errorf("%w: field=%s empty value", fixerr.ErrSchema, f.Name)
	}
	if len(f.Values) > 0 {
		if _, ok := f.Values[value]; !ok {
			return fmt.Errorf("%w: field=%s value=%q not in enumerated set", fixerr.ErrSchema, f.Name, value)
		}
		return nil
	}
	switch f.Type {
	case "INT", "SEQNUM", "NUMINGROUP", "LENGTH", "DAYOFMONTH":
		if _, err := strconv.Atoi(value); err != nil {
			return fmt.Errorf("%w: field=%s value=%q not an integer", fixerr.ErrSchema, f.Name, value)
		}
	case "FLOAT", "QTY", "PRICE", "PRICEOFFSET", "AMT", "PERCENTAGE":
		if _, err := strconv.ParseFloat(value, 64); err != nil {
			return fmt.Errorf("%w: field=%s value=%q not a number", fixerr.ErrSchema, f.Name, value)
		}
	case "CHAR":
		if len(value) != 1 {
			return fmt.Errorf("%w: field=%s value=%q must be a single character", fixerr.ErrSchema, f.Name, value)
		}
	case "BOOLEAN":
		if value != "Y" && value != "N" {
			return fmt.Errorf("%w: field=%s value=%q must be Y or N", fixerr.ErrSchema, f.Name, value)
		}
	case "UTCTIMESTAMP":
		if _, err := time.Parse("20060102-15:04:05", value); err != nil {
			if _, err2 := time.Parse("20060102-15:04:05.000", value); err2 != nil {
				return fmt.Errorf("%w: field=%s value=%q not a UTCTimestamp", fixerr.ErrSchema, f.Name, value)
			}
		}
	case "LOCALMKTDATE", "UTCDATEONLY":
		if _, err := time.Parse("20060102", value); err != nil {
			return fmt.Errorf("%w: field=%s value=%q not a date", fixerr.ErrSchema, f.Name, value)
		}
	}
	return nil
}

// set is the shared member table backing header/component/message/group
// definitions: which fields (or nested groups) belong, and which of them
// are required.
type set struct {
	name     string
	fields   map[fixtags.Tag]*Field
	groups   map[fixtags.Tag]*Group
	required map[fixtags.Tag]bool
	order    []fixtags.Tag
}

func newSet(name string) *set {
	return &set{
		name:     name,
		fields:   make(map[fixtags.Tag]*Field),
		groups:   make(map[fixtags.Tag]*Group),
		required: make(map[fixtags.Tag]bool),
	}
}

func (s *set) addField(f *Field, required bool) {
	if _, ok := s.fields[f.Tag]; !ok {
		s.order = append(s.order, f.Tag)
	}
	s.fields[f.Tag] = f
	s.required[f.Tag] = s.required[f.Tag] || required
}

func (s *set) addGroup(g *Group, required bool) {
	if _, ok := s.groups[g.Field.Tag]; !ok {
		s.order = append(s.order, g.Field.Tag)
	}
	s.groups[g.Field.Tag] = g
	s.required[g.Field.Tag] = s.required[g.Field.Tag] || required
}

// merge absorbs a referenced component's fields/groups into s (a component
// reference inside a <message> or another <component>).
func (s *set) merge(other *set) {
	for _, tag := range other.order {
		if f, ok := other.fields[tag]; ok {
			s.addField(f, other.required[tag])
		} else if g, ok := other.groups[tag]; ok {
			s.addGroup(g, other.required[tag])
		}
	}
}

func (s *set) has(tag fixtags.Tag) bool {
	_, isField := s.fields[tag]
	_, isGroup := s.groups[tag]
	return isField || isGroup
}

// Group is a repeating-group member definition: the leading NoXXX field
// plus the member set each group entry must satisfy.
type Group struct {
	Field *Field
	*set
}

// ValidateEntries checks every entry of a decoded group against the
// group's member set: required members present, values well-typed.
func (g *Group) ValidateEntries(entries []*fixmsg.Container) error {
	for i, e := range entries {
		for tag, required := range g.required {
			if !required {
				continue
			}
			if !e.Has(tag) {
				return fmt.Errorf("%w: group=%s entry=%d missing required tag=%d", fixerr.ErrSchema, g.Field.Name, i, tag)
			}
		}
		for _, tag := range e.Tags() {
			f, ok := g.fields[tag]
			if !ok {
				continue // tags that are not field members (nested groups, undeclared tags) aren't checked here
			}
			v, err := e.Get(tag)
			if err != nil {
				continue
			}
			if err := f.ValidateValue(v); err != nil {
				return err
			}
		}
	}
	return nil
}

// Message is a resolved <message> definition: its MsgType plus the fields
// and groups it allows.
type Message struct {
	Name    string
	MsgType fixtags.MsgType
	MsgCat  string
	*set
}

// Schema is a fully parsed and resolved FIX data dictionary.
type Schema struct {
	tagToField map[fixtags.Tag]*Field
	nameToTag  map[string]fixtags.Tag
	header     *set
	components map[string]*set
	messages   map[fixtags.MsgType]*Message
}

// Parse reads a QuickFIX-dialect data dictionary XML document.
func Parse(r io.Reader) (*Schema, error) {
	var raw xmlFix
	if err := xml.NewDecoder(r).Decode(&raw); err != nil {
		return nil, fmt.Errorf("%w: decode schema xml: %v", fixerr.ErrSchema, err)
	}

	s := &Schema{
		tagToField: make(map[fixtags.Tag]*Field),
		nameToTag:  make(map[string]fixtags.Tag),
		components: make(map[string]*set),
		messages:   make(map[fixtags.MsgType]*Message),
	}

	for _, fd := range raw.Fields.Fields {
		n, err := strconv.Atoi(fd.Number)
		if err != nil {
			return nil, fmt.Errorf("%w: field %s has non-numeric tag %q", fixerr.ErrSchema, fd.Name, fd.Number)
		}
		tag := fixtags.Tag(n)
		f := &Field{Tag: tag, Name: fd.Name, Type: fd.Type, Values: make(map[string]string)}
		for _, v := range fd.Values {
			f.Values[v.Enum] = v.Description
		}
		s.tagToField[tag] = f
		s.nameToTag[fd.Name] = tag
	}

	s.header = s.parseMsgSet(newSet("header"), raw.Header.Fields, raw.Header.Groups, raw.Header.Components, nil)

	pending := raw.Components.Components
	for len(pending) > 0 {
		progressed := false
		var next []xmlComponentDef
		for _, cd := range pending {
			resolved := s.parseMsgSet(newSet(cd.Name), cd.Fields, cd.Groups, cd.Components, s.components)
			if resolved == nil {
				next = append(next, cd)
				continue
			}
			s.components[cd.Name] = resolved
			progressed = true
		}
		if !progressed {
			names := make([]string, len(next))
			for i, c := range next {
				names[i] = c.Name
			}
			return nil, fmt.Errorf("%w: unresolved circular component references: %v", fixerr.ErrSchema, names)
		}
		pending = next
	}

	for _, md := range raw.Messages.Messages {
		body := s.parseMsgSet(newSet(md.Name), md.Fields, md.Groups, md.Components, s.components)
		if body == nil {
			return nil, fmt.Errorf("%w: message %s has unresolved component references", fixerr.ErrSchema, md.Name)
		}
		m := &Message{Name: md.Name, MsgType: fixtags.MsgType(md.MsgType), MsgCat: md.MsgCat, set: body}
		s.messages[m.MsgType] = m
	}

	return s, nil
}

// parseMsgSet resolves one <header>/<component>/<message>/<group> body.
// components, when non-nil, is consulted for <component> references; a
// reference to a not-yet-resolved component returns nil (caller retries
// once more components resolve).
func (s *Schema) parseMsgSet(target *set, fields []xmlFieldRef, groups []xmlGroupRef, comps []xmlCompRef, components map[string]*set) *set {
	for _, fr := range fields {
		tag, ok := s.nameToTag[fr.Name]
		if !ok {
			continue
		}
		target.addField(s.tagToField[tag], fr.Required == "Y")
	}
	for _, gr := range groups {
		g := s.parseGroup(gr, components)
		if g == nil {
			return nil
		}
		target.addGroup(g, gr.Required == "Y")
	}
	for _, cr := range comps {
		ref, ok := components[cr.Name]
		if !ok {
			return nil
		}
		target.merge(ref)
	}
	return target
}

func (s *Schema) parseGroup(gr xmlGroupRef, components map[string]*set) *Group {
	tag, ok := s.nameToTag[gr.Name]
	if !ok {
		return nil
	}
	body := s.parseMsgSet(newSet(gr.Name), gr.Fields, gr.Groups, gr.Components, components)
	if body == nil {
		return nil
	}
	return &Group{Field: s.tagToField[tag], set: body}
}

// Field looks up a field definition by tag.
func (s *Schema) Field(tag fixtags.Tag) (*Field, bool) {
	f, ok := s.tagToField[tag]
	return f, ok
}

func (s *Schema) validateRequired(body *set, m *fixmsg.Container) error {
	for tag, required := range body.required {
		if !required {
			continue
		}
		if !m.Has(tag) {
			return fmt.Errorf("%w: missing required tag=%d (%s)", fixerr.ErrSchema, tag, s.tagToField[tag].Name)
		}
	}
	return nil
}

// Validate checks msg's MsgType is known, its required fields (header plus
// message body) are present, every tag it carries is declared for it (or
// for the header), scalar values pass their field's type check, and every
// group's entries pass the group's member checks.
func (s *Schema) Validate(msg *fixmsg.Message) error {
	schemaMsg, ok := s.messages[msg.MsgType()]
	if !ok {
		return fmt.Errorf("%w: msg_type=%s not in schema", fixerr.ErrSchema, msg.MsgType())
	}
	if err := s.validateRequired(schemaMsg.set, msg.Container); err != nil {
		return err
	}
	// Header fields (BeginString, SenderCompID, ...) only exist once the
	// codec has framed the message; an in-memory message built by an
	// application is validated on its body fields alone.
	if msg.Has(fixtags.BeginString) {
		if err := s.validateRequired(s.header, msg.Container); err != nil {
			return err
		}
	}

	for _, tag := range msg.Tags() {
		if fixtags.FramingTags[tag] || tag == fixtags.CheckSum {
			continue
		}
		f, ok := s.tagToField[tag]
		if !ok {
			return fmt.Errorf("%w: tag=%d not declared in schema", fixerr.ErrSchema, tag)
		}
		if s.header.has(tag) {
			continue
		}
		if !schemaMsg.has(tag) {
			return fmt.Errorf("%w: tag=%d (%s) not allowed in message=%s", fixerr.ErrSchema, tag, f.Name, schemaMsg.Name)
		}
		if g, isGroup := schemaMsg.groups[tag]; isGroup {
			if !msg.IsGroup(tag) {
				return fmt.Errorf("%w: tag=%d (%s) must be a group", fixerr.ErrSchema, tag, f.Name)
			}
			entries, _ := msg.GetGroupList(tag)
			if err := g.ValidateEntries(entries); err != nil {
				return err
			}
			continue
		}
		if msg.IsGroup(tag) {
			return fmt.Errorf("%w: tag=%d (%s) must be a scalar, got group", fixerr.ErrSchema, tag, f.Name)
		}
		v, err := msg.Get(tag)
		if err != nil {
			continue
		}
		if err := f.ValidateValue(v); err != nil {
			return err
		}
	}
	return nil
}
