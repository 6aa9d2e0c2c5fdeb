/*
 * Copyright (c) 2018 Miguel Ángel Ortuño.
 * See the LICENSE file for more information.
 */

package xmpp

import (
	"bytes"
	"encoding/xml"
	"io"

	"github.com/pkg/errors"
)

const streamName = "stream"

// ParsingMode defines the way in which special parsed element
// should be considered or not according to the reader nature.
type ParsingMode int

const (
	// DefaultMode treats incoming elements as provided from raw byte reader.
	DefaultMode = ParsingMode(iota)

	// SocketStream treats incoming elements as provided from a socket transport,
	// where the opening <stream:stream> is returned as soon as it is read.
	SocketStream
)

var (
	// ErrTooLargeStanza is returned by ParseElement when the size of
	// the incoming stanza exceeds the configured limit.
	ErrTooLargeStanza = errors.New("xmpp: too large stanza")

	// ErrStreamClosedByPeer is returned by ParseElement when peer closes the stream.
	ErrStreamClosedByPeer = errors.New("xmpp: stream closed by peer")
)

type openElement struct {
	b    *ElementBuilder
	text []byte
}

// Parser reads XML input and produces one immutable element per top level node.
type Parser struct {
	dec           *xml.Decoder
	mode          ParsingMode
	stack         []*openElement
	lastOffset    int64
	maxStanzaSize int64
}

// NewParser creates an empty Parser instance.
func NewParser(reader io.Reader, mode ParsingMode, maxStanzaSize int) *Parser {
	return &Parser{
		dec:           xml.NewDecoder(reader),
		mode:          mode,
		maxStanzaSize: int64(maxStanzaSize),
	}
}

// ParseElement parses next available XML element from reader.
// A nil element with nil error is returned for ignorable tokens.
func (p *Parser) ParseElement() (XElement, error) {
	for {
		t, err := p.dec.RawToken()
		if err != nil {
			return nil, err
		}
		if p.maxStanzaSize > 0 && p.dec.InputOffset()-p.lastOffset > p.maxStanzaSize {
			return nil, ErrTooLargeStanza
		}
		switch t1 := t.(type) {
		case xml.ProcInst:
			return nil, nil

		case xml.StartElement:
			p.startElement(t1)
			if p.mode == SocketStream && t1.Name.Local == streamName && t1.Name.Space == streamName {
				return p.done(p.pop()), nil
			}

		case xml.CharData:
			if len(p.stack) == 0 {
				return nil, nil
			}
			top := p.stack[len(p.stack)-1]
			top.text = append(top.text, t1...)

		case xml.EndElement:
			if p.mode == SocketStream && t1.Name.Local == streamName && t1.Name.Space == streamName {
				return nil, ErrStreamClosedByPeer
			}
			elem, err := p.endElement(t1)
			if err != nil {
				return nil, err
			}
			if elem != nil {
				return p.done(elem), nil
			}
		}
	}
}

func (p *Parser) done(elem *Element) XElement {
	p.lastOffset = p.dec.InputOffset()
	return elem
}

func (p *Parser) startElement(t xml.StartElement) {
	b := NewElementBuilder(xmlName(t.Name.Space, t.Name.Local))
	for _, a := range t.Attr {
		b.WithAttribute(xmlName(a.Name.Space, a.Name.Local), a.Value)
	}
	p.stack = append(p.stack, &openElement{b: b})
}

// endElement closes the innermost open element, returning it
// only when it was a top level one.
func (p *Parser) endElement(t xml.EndElement) (*Element, error) {
	name := xmlName(t.Name.Space, t.Name.Local)
	if len(p.stack) == 0 {
		return nil, errors.Errorf("xmpp: unexpected end element </%s>", name)
	}
	elem := p.pop()
	if elem.Name() != name {
		return nil, errors.Errorf("xmpp: unexpected end element </%s>", name)
	}
	if len(p.stack) == 0 {
		return elem, nil
	}
	p.stack[len(p.stack)-1].b.AppendElement(elem)
	return nil, nil
}

func (p *Parser) pop() *Element {
	top := p.stack[len(p.stack)-1]
	p.stack = p.stack[:len(p.stack)-1]
	if len(bytes.TrimSpace(top.text)) > 0 {
		top.b.WithText(string(top.text))
	}
	return top.b.Build()
}

func xmlName(space, local string) string {
	if len(space) > 0 {
		return space + ":" + local
	}
	return local
}
