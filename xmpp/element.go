/*
 * Copyright (c) 2018 Miguel Ángel Ortuño.
 * See the LICENSE file for more information.
 */

package xmpp

import (
	"encoding/xml"
	"io"
)

const (
	// MessageName represents "message" stanza name
	MessageName = "message"

	// PresenceName represents "presence" stanza name
	PresenceName = "presence"

	// IQName represents "iq" stanza name
	IQName = "iq"
)

// Element represents an immutable XML node element.
// Elements are produced by an ElementBuilder or by the Parser, and
// never change afterwards, so they can be shared between goroutines
// and reused as children of other elements.
type Element struct {
	name     string
	text     string
	attrs    attributeSet
	elements elementSet
}

// NewElementName returns a childless element with a given name.
func NewElementName(name string) *Element {
	return &Element{name: name}
}

// NewElementNamespace returns a childless element with a given name and namespace.
func NewElementNamespace(name, namespace string) *Element {
	return &Element{
		name:  name,
		attrs: attributeSet{{Label: "xmlns", Value: namespace}},
	}
}

// NewElementFromElement returns a shallow copy of elem as an *Element.
// Children are shared since they are immutable.
func NewElementFromElement(elem XElement) *Element {
	e := &Element{}
	e.copyFrom(elem)
	return e
}

// Name returns XML node name.
func (e *Element) Name() string {
	return e.name
}

// Attributes returns XML node attributes.
func (e *Element) Attributes() AttributeSet {
	return e.attrs
}

// Elements returns all instance's child elements.
func (e *Element) Elements() ElementSet {
	return e.elements
}

// Text returns XML node text value.
func (e *Element) Text() string {
	return e.text
}

// Namespace returns 'xmlns' node attribute.
func (e *Element) Namespace() string {
	return e.attrs.Get("xmlns")
}

// ID returns 'id' node attribute.
func (e *Element) ID() string {
	return e.attrs.Get("id")
}

// Language returns 'xml:lang' node attribute.
func (e *Element) Language() string {
	return e.attrs.Get("xml:lang")
}

// Version returns 'version' node attribute.
func (e *Element) Version() string {
	return e.attrs.Get("version")
}

// From returns 'from' node attribute.
func (e *Element) From() string {
	return e.attrs.Get("from")
}

// To returns 'to' node attribute.
func (e *Element) To() string {
	return e.attrs.Get("to")
}

// Type returns 'type' node attribute.
func (e *Element) Type() string {
	return e.attrs.Get("type")
}

// IsStanza returns true if element is an XMPP stanza.
func (e *Element) IsStanza() bool {
	switch e.name {
	case IQName, PresenceName, MessageName:
		return true
	}
	return false
}

// IsError returns true if element has a 'type' attribute of value 'error'.
func (e *Element) IsError() bool {
	return e.Type() == ErrorType
}

// Error returns element error sub element.
func (e *Element) Error() XElement {
	return e.elements.Child("error")
}

// String returns a string representation of the element.
func (e *Element) String() string {
	buf := bufPool.Get()
	defer bufPool.Put(buf)

	e.ToXML(buf, true)
	return buf.String()
}

// ToXML serializes element to a raw XML representation.
// includeClosing determines if closing tag should be attached.
func (e *Element) ToXML(w io.Writer, includeClosing bool) {
	_, _ = io.WriteString(w, "<")
	_, _ = io.WriteString(w, e.name)

	for _, attr := range e.attrs {
		if len(attr.Value) == 0 {
			continue
		}
		_, _ = io.WriteString(w, " ")
		_, _ = io.WriteString(w, attr.Label)
		_, _ = io.WriteString(w, `="`)
		_ = xml.EscapeText(w, []byte(attr.Value))
		_, _ = io.WriteString(w, `"`)
	}
	if len(e.elements) == 0 && len(e.text) == 0 {
		if includeClosing {
			_, _ = io.WriteString(w, "/>")
		} else {
			_, _ = io.WriteString(w, ">")
		}
		return
	}
	_, _ = io.WriteString(w, ">")
	if len(e.text) > 0 {
		_ = xml.EscapeText(w, []byte(e.text))
	}
	for _, elem := range e.elements {
		elem.ToXML(w, true)
	}
	if includeClosing {
		_, _ = io.WriteString(w, "</")
		_, _ = io.WriteString(w, e.name)
		_, _ = io.WriteString(w, ">")
	}
}

func (e *Element) copyFrom(el XElement) {
	e.name = el.Name()
	e.text = el.Text()
	e.attrs = attributeSet(el.Attributes().All())
	e.elements = elementSet(el.Elements().All())
}
