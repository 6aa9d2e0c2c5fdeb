/*
 * Copyright (c) 2018 Miguel Ángel Ortuño.
 * See the LICENSE file for more information.
 */

package xmpp

import (
	"github.com/ortuman/vysper/xmpp/jid"
	"github.com/pkg/errors"
)

type stanzaElement struct {
	Element
	fromJID *jid.JID
	toJID   *jid.JID
}

// FromJID returns stanza 'from' JID value, or nil when not addressed.
func (s *stanzaElement) FromJID() *jid.JID {
	return s.fromJID
}

// ToJID returns stanza 'to' JID value, or nil when not addressed.
func (s *stanzaElement) ToJID() *jid.JID {
	return s.toJID
}

// init copies e into s, stamping the given addresses and
// dropping any stream level namespace.
func (s *stanzaElement) init(e XElement, from, to *jid.JID) {
	b := NewElementBuilderFromElement(e).WithNamespace("")
	if from != nil {
		b.WithFrom(from.String())
	} else {
		b.WithFrom("")
	}
	if to != nil {
		b.WithTo(to.String())
	} else {
		b.WithTo("")
	}
	s.Element = *b.Build()
	s.fromJID = from
	s.toJID = to
}

// NewStanzaFromElement returns a new stanza instance derived from an XMPP element.
// Missing 'from' or 'to' attributes result in nil addresses.
func NewStanzaFromElement(elem XElement) (Stanza, error) {
	fromJID, err := parseAddress(elem.From())
	if err != nil {
		return nil, err
	}
	toJID, err := parseAddress(elem.To())
	if err != nil {
		return nil, err
	}
	switch elem.Name() {
	case IQName:
		return NewIQFromElement(elem, fromJID, toJID)
	case PresenceName:
		return NewPresenceFromElement(elem, fromJID, toJID)
	case MessageName:
		return NewMessageFromElement(elem, fromJID, toJID)
	}
	return nil, errors.Errorf("xmpp: unrecognized stanza name: %s", elem.Name())
}

// Readdress returns a copy of stanza carrying new addresses.
func Readdress(stanza Stanza, from, to *jid.JID) Stanza {
	return rebuild(stanza, NewElementBuilderFromElement(stanza).Build(), from, to)
}

// rebuild wraps e into the concrete stanza type of kind without validation.
func rebuild(kind XElement, e *Element, from, to *jid.JID) Stanza {
	switch kind.Name() {
	case IQName:
		iq := &IQ{}
		iq.init(e, from, to)
		return iq
	case PresenceName:
		p := &Presence{}
		p.init(e, from, to)
		_ = p.parseShow()
		_ = p.parsePriority()
		return p
	default:
		m := &Message{}
		m.init(e, from, to)
		return m
	}
}

func parseAddress(s string) (*jid.JID, error) {
	if len(s) == 0 {
		return nil, nil
	}
	j, err := jid.NewWithString(s, false)
	if err != nil {
		return nil, ErrJidMalformed
	}
	return j, nil
}
