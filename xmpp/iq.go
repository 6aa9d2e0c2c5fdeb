/*
 * Copyright (c) 2018 Miguel Ángel Ortuño.
 * See the LICENSE file for more information.
 */

package xmpp

import (
	"github.com/ortuman/vysper/xmpp/jid"
	"github.com/pkg/errors"
)

const (
	// GetType represents a 'get' IQ type.
	GetType = "get"

	// SetType represents a 'set' IQ type.
	SetType = "set"

	// ResultType represents a 'result' IQ type.
	ResultType = "result"
)

// IQ type represents an <iq> element.
type IQ struct {
	stanzaElement
}

// NewIQFromElement creates an IQ object from XElement.
func NewIQFromElement(e XElement, from *jid.JID, to *jid.JID) (*IQ, error) {
	if e.Name() != IQName {
		return nil, errors.Errorf("xmpp: wrong IQ element name: %s", e.Name())
	}
	if len(e.ID()) == 0 {
		return nil, errors.New(`xmpp: IQ "id" attribute is required`)
	}
	iqType := e.Type()
	if len(iqType) == 0 {
		return nil, errors.New(`xmpp: IQ "type" attribute is required`)
	}
	if !isIQType(iqType) {
		return nil, errors.Errorf(`xmpp: invalid IQ "type" attribute: %s`, iqType)
	}
	if (iqType == GetType || iqType == SetType) && e.Elements().Count() != 1 {
		return nil, errors.New(`xmpp: an IQ stanza of type "get" or "set" must contain one and only one child element`)
	}
	if iqType == ResultType && e.Elements().Count() > 1 {
		return nil, errors.New(`xmpp: an IQ stanza of type "result" must include zero or one child elements`)
	}
	iq := &IQ{}
	iq.init(e, from, to)
	return iq, nil
}

// NewIQType creates and returns a new IQ element carrying an optional payload.
func NewIQType(identifier, iqType string, from, to *jid.JID, payload XElement) *IQ {
	b := NewElementBuilder(IQName).WithID(identifier).WithType(iqType)
	if payload != nil {
		b.AppendElement(payload)
	}
	iq := &IQ{}
	iq.init(b.Build(), from, to)
	return iq
}

// IsGet returns true if this is a 'get' type IQ.
func (iq *IQ) IsGet() bool {
	return iq.Type() == GetType
}

// IsSet returns true if this is a 'set' type IQ.
func (iq *IQ) IsSet() bool {
	return iq.Type() == SetType
}

// IsResult returns true if this is a 'result' type IQ.
func (iq *IQ) IsResult() bool {
	return iq.Type() == ResultType
}

// Payload returns the IQ child element, or nil.
func (iq *IQ) Payload() XElement {
	if all := iq.elements; len(all) > 0 {
		return all[0]
	}
	return nil
}

// ResultIQ returns an empty result addressed back to the requester.
func (iq *IQ) ResultIQ() *IQ {
	return iq.ResultIQWithPayload(nil)
}

// ResultIQWithPayload returns a result addressed back to the requester carrying payload.
func (iq *IQ) ResultIQWithPayload(payload XElement) *IQ {
	return NewIQType(iq.ID(), ResultType, iq.ToJID(), iq.FromJID(), payload)
}

func isIQType(tp string) bool {
	switch tp {
	case ErrorType, GetType, SetType, ResultType:
		return true
	}
	return false
}
