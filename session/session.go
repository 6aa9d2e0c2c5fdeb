/*
 * Copyright (c) 2018 Miguel Ángel Ortuño.
 * See the LICENSE file for more information.
 */

package session

import (
	stdxml "encoding/xml"
	"io"
	"net"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/ortuman/vysper/log"
	"github.com/ortuman/vysper/transport"
	"github.com/ortuman/vysper/xmpp"
	"github.com/ortuman/vysper/xmpp/jid"
	"github.com/ortuman/vysper/xmpp/streamerror"
	"github.com/pkg/errors"
)

// Hosts tells whether a domain is served locally.
type Hosts interface {
	IsLocalHost(host string) bool
}

// Error represents a session error.
type Error struct {
	// Element returns the original incoming element that generated
	// the session error.
	Element xmpp.XElement

	// UnderlyingErr is the underlying session error.
	UnderlyingErr error
}

// A Config structure is used to configure an XMPP session.
type Config struct {
	// Context holds the session state. Its stream identifier and JID are
	// used when opening the stream and when stamping incoming stanzas.
	Context *Context

	// Transport provides the underlying session transport
	// that will be used to send and received elements.
	Transport transport.Transport

	// MaxStanzaSize defines the maximum stanza size that
	// can be read from the session transport.
	MaxStanzaSize int

	// Hosts validates the stream 'to' attribute.
	Hosts Hosts
}

// Session represents the XMPP stream between a client and the server.
type Session struct {
	id            string
	ctx           *Context
	tr            transport.Transport
	hosts         Hosts
	maxStanzaSize int
	opened        uint32
	started       uint32

	mu sync.Mutex // guards writes
	pr *xmpp.Parser
}

// New creates a new session instance.
func New(id string, config *Config) *Session {
	s := &Session{
		id:            id,
		ctx:           config.Context,
		tr:            config.Transport,
		hosts:         config.Hosts,
		maxStanzaSize: config.MaxStanzaSize,
	}
	s.pr = s.newParser()
	return s
}

// Context returns the session context.
func (s *Session) Context() *Context { return s.ctx }

// Open sends the stream opening element.
func (s *Session) Open() error {
	if !atomic.CompareAndSwapUint32(&s.opened, 0, 1) {
		return errors.New("session: already opened")
	}
	var b *xmpp.ElementBuilder
	var includeClosing bool

	buf := &strings.Builder{}
	switch s.tr.Type() {
	case transport.Socket:
		b = xmpp.NewElementBuilder("stream:stream").
			WithAttribute("xmlns", xmpp.NamespaceClient).
			WithAttribute("xmlns:stream", xmpp.NamespaceStream)
		buf.WriteString(`<?xml version="1.0"?>`)

	case transport.WebSocket:
		b = xmpp.NewElementBuilderNamespace("open", xmpp.NamespaceFraming)
		includeClosing = true

	default:
		return nil
	}
	b.WithID(s.ctx.StreamID()).
		WithFrom(s.ctx.Domain()).
		WithAttribute("version", "1.0").
		WithAttribute("xml:lang", "en")
	b.Build().ToXML(buf, includeClosing)

	openStr := buf.String()
	log.Debugf("SEND(%s): %s", s.id, openStr)

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.tr.WriteString(openStr); err != nil {
		return err
	}
	return s.tr.Flush()
}

// Restart prepares the session to receive a new stream header,
// as required after TLS and SASL negotiation.
func (s *Session) Restart() {
	s.ctx.RestartStream()
	s.pr = s.newParser()
	atomic.StoreUint32(&s.started, 0)
	atomic.StoreUint32(&s.opened, 0)
}

// Close closes session sending the proper XMPP payload.
// Is responsibility of the caller to close underlying transport.
func (s *Session) Close() error {
	if atomic.LoadUint32(&s.opened) == 0 {
		return errors.New("session: already closed")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	var err error
	switch s.tr.Type() {
	case transport.Socket:
		_, err = s.tr.WriteString("</stream:stream>")
	case transport.WebSocket:
		_, err = s.tr.WriteString(`<close xmlns="` + xmpp.NamespaceFraming + `"/>`)
	}
	if err != nil {
		return err
	}
	return s.tr.Flush()
}

// Send writes an XML element to the underlying session transport.
// It can be called from any goroutine.
func (s *Session) Send(elem xmpp.XElement) error {
	// clear namespace if sending a stanza
	if elem.IsStanza() && len(elem.Namespace()) > 0 {
		elem = xmpp.NewElementBuilderFromElement(elem).WithNamespace("").Build()
	}
	log.Debugf("SEND(%s): %v", s.id, elem)

	s.mu.Lock()
	defer s.mu.Unlock()
	elem.ToXML(s.tr, true)
	return s.tr.Flush()
}

// Receive returns next incoming session element.
// A nil element with a nil error is returned after the stream header has been read.
func (s *Session) Receive() (xmpp.XElement, *Error) {
	elem, err := s.pr.ParseElement()
	if err != nil {
		return nil, s.mapErrorToSessionError(err)
	}
	if elem == nil {
		return nil, nil
	}
	log.Debugf("RECV(%s): %v", s.id, elem)

	if atomic.LoadUint32(&s.started) == 0 {
		if err := s.validateStreamElement(elem); err != nil {
			return nil, err
		}
		atomic.StoreUint32(&s.started, 1)
		return elem, nil
	}
	if elem.IsStanza() {
		stanza, err := s.buildStanza(elem)
		if err != nil {
			return nil, err
		}
		return stanza, nil
	}
	return elem, nil
}

// IsStarted reports whether the stream header of the current stream has been received.
func (s *Session) IsStarted() bool {
	return atomic.LoadUint32(&s.started) == 1
}

func (s *Session) newParser() *xmpp.Parser {
	mode := xmpp.DefaultMode
	if s.tr.Type() == transport.Socket {
		mode = xmpp.SocketStream
	}
	return xmpp.NewParser(s.tr, mode, s.maxStanzaSize)
}

func (s *Session) buildStanza(elem xmpp.XElement) (xmpp.Stanza, *Error) {
	if err := s.validateNamespace(elem); err != nil {
		return nil, err
	}
	fromJID, toJID, err := s.extractAddresses(elem)
	if err != nil {
		return nil, err
	}
	switch elem.Name() {
	case xmpp.IQName:
		iq, err := xmpp.NewIQFromElement(elem, fromJID, toJID)
		if err != nil {
			log.Error(err)
			return nil, &Error{Element: elem, UnderlyingErr: xmpp.ErrBadRequest}
		}
		return iq, nil

	case xmpp.PresenceName:
		presence, err := xmpp.NewPresenceFromElement(elem, fromJID, toJID)
		if err != nil {
			log.Error(err)
			return nil, &Error{Element: elem, UnderlyingErr: xmpp.ErrBadRequest}
		}
		return presence, nil

	case xmpp.MessageName:
		message, err := xmpp.NewMessageFromElement(elem, fromJID, toJID)
		if err != nil {
			log.Error(err)
			return nil, &Error{Element: elem, UnderlyingErr: xmpp.ErrBadRequest}
		}
		return message, nil
	}
	return nil, &Error{UnderlyingErr: streamerror.ErrUnsupportedStanzaType}
}

func (s *Session) extractAddresses(elem xmpp.XElement) (*jid.JID, *jid.JID, *Error) {
	sJID := s.ctx.JID()

	// do not validate 'from' address until full user JID has been set
	from := elem.From()
	if sJID.IsFullWithUser() && len(from) > 0 && !isValidFrom(from, sJID) {
		return nil, nil, &Error{UnderlyingErr: streamerror.ErrInvalidFrom}
	}
	fromJID := sJID

	to := elem.To()
	if len(to) == 0 {
		// account's bare JID as default 'to'
		return fromJID, sJID.ToBareJID(), nil
	}
	toJID, err := jid.NewWithString(to, false)
	if err != nil {
		return nil, nil, &Error{Element: elem, UnderlyingErr: xmpp.ErrJidMalformed}
	}
	return fromJID, toJID, nil
}

func isValidFrom(from string, sJID *jid.JID) bool {
	j, err := jid.NewWithString(from, false)
	if err != nil {
		return false
	}
	valid := j.Node() == sJID.Node() && j.Domain() == sJID.Domain()
	if len(j.Resource()) > 0 {
		valid = valid && j.Resource() == sJID.Resource()
	}
	return valid
}

func (s *Session) validateStreamElement(elem xmpp.XElement) *Error {
	switch s.tr.Type() {
	case transport.Socket:
		if elem.Name() != "stream:stream" {
			return &Error{UnderlyingErr: streamerror.ErrUnsupportedStanzaType}
		}
		if elem.Namespace() != xmpp.NamespaceClient || elem.Attributes().Get("xmlns:stream") != xmpp.NamespaceStream {
			return &Error{UnderlyingErr: streamerror.ErrInvalidNamespace}
		}

	case transport.WebSocket:
		if elem.Name() != "open" {
			return &Error{UnderlyingErr: streamerror.ErrUnsupportedStanzaType}
		}
		if elem.Namespace() != xmpp.NamespaceFraming {
			return &Error{UnderlyingErr: streamerror.ErrInvalidNamespace}
		}
	}
	to := elem.To()
	if len(to) > 0 && s.hosts != nil && !s.hosts.IsLocalHost(to) {
		return &Error{UnderlyingErr: streamerror.ErrHostUnknown}
	}
	if elem.Version() != "1.0" {
		return &Error{UnderlyingErr: streamerror.ErrUnsupportedVersion}
	}
	return nil
}

func (s *Session) validateNamespace(elem xmpp.XElement) *Error {
	ns := elem.Namespace()
	if len(ns) == 0 || ns == xmpp.NamespaceClient {
		return nil
	}
	return &Error{UnderlyingErr: streamerror.ErrInvalidNamespace}
}

func (s *Session) mapErrorToSessionError(err error) *Error {
	switch err {
	case nil, io.EOF, io.ErrUnexpectedEOF:
		break

	case xmpp.ErrStreamClosedByPeer:
		_ = s.Close()

	case xmpp.ErrTooLargeStanza:
		return &Error{UnderlyingErr: streamerror.ErrPolicyViolation}

	default:
		switch e := err.(type) {
		case net.Error:
			if e.Timeout() {
				return &Error{UnderlyingErr: streamerror.ErrConnectionTimeout}
			}
			return &Error{UnderlyingErr: err}

		case *stdxml.SyntaxError:
			return &Error{UnderlyingErr: streamerror.ErrInvalidXML}

		default:
			return &Error{UnderlyingErr: err}
		}
	}
	return &Error{}
}
