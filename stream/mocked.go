/*
 * Copyright (c) 2018 Miguel Ángel Ortuño.
 * See the LICENSE file for more information.
 */

package stream

import (
	"sync"
	"time"

	"github.com/ortuman/vysper/session"
	"github.com/ortuman/vysper/xmpp"
	"github.com/ortuman/vysper/xmpp/jid"
	"github.com/pkg/errors"
)

const mockedBufferSize = 256

// MockC2S represents a mocked c2s stream.
type MockC2S struct {
	id     string
	ctx    *session.Context
	elemCh chan xmpp.XElement
	discCh chan error

	mu             sync.RWMutex
	isDisconnected bool
	isClosed       bool
	writeErr       error
}

// NewMockC2S returns a mocked stream whose session is authenticated
// and, when j carries a resource, bound.
func NewMockC2S(id string, j *jid.JID) *MockC2S {
	ctx := session.NewContext(j.Domain(), false)
	if j.Node() != "" {
		_ = ctx.Authenticate(j.ToBareJID())
		if j.IsFull() {
			_ = ctx.BindResource(j)
		}
	}
	return &MockC2S{
		id:     id,
		ctx:    ctx,
		elemCh: make(chan xmpp.XElement, mockedBufferSize),
		discCh: make(chan error, 1),
	}
}

// ID returns mocked stream identifier.
func (m *MockC2S) ID() string {
	return m.id
}

// Context returns mocked stream session context.
func (m *MockC2S) Context() *session.Context {
	return m.ctx
}

// JID returns current session JID.
func (m *MockC2S) JID() *jid.JID {
	return m.ctx.JID()
}

// SetWriteError makes every subsequent write fail with err.
func (m *MockC2S) SetWriteError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.writeErr = err
}

// WriteElement satisfies Writer interface.
func (m *MockC2S) WriteElement(elem xmpp.XElement) error {
	m.mu.RLock()
	closed, werr := m.isClosed, m.writeErr
	m.mu.RUnlock()
	if closed {
		return ErrClosed
	}
	if werr != nil {
		return werr
	}
	select {
	case m.elemCh <- elem:
	default:
		return errors.New("stream: mocked buffer full")
	}
	return nil
}

// Close satisfies Writer interface.
func (m *MockC2S) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.isClosed {
		return ErrClosed
	}
	m.isClosed = true
	return nil
}

// Disconnect disconnects mocked stream.
func (m *MockC2S) Disconnect(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.isDisconnected {
		m.ctx.End(session.StreamError)
		m.isDisconnected = true
		m.isClosed = true
		m.discCh <- err
	}
}

// IsDisconnected returns whether or not the mocked stream has been disconnected.
func (m *MockC2S) IsDisconnected() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.isDisconnected
}

// ReceiveElement waits until a new XML element is sent to
// the mocked stream and returns it, or returns nil after a second.
func (m *MockC2S) ReceiveElement() xmpp.XElement {
	select {
	case e := <-m.elemCh:
		return e
	case <-time.After(time.Second):
		return nil
	}
}

// Elements returns every element written and not yet received.
func (m *MockC2S) Elements() []xmpp.XElement {
	var ret []xmpp.XElement
	for {
		select {
		case e := <-m.elemCh:
			ret = append(ret, e)
		default:
			return ret
		}
	}
}

// WaitDisconnection waits until the mocked stream disconnects.
func (m *MockC2S) WaitDisconnection() error {
	select {
	case err := <-m.discCh:
		return err
	case <-time.After(time.Second * 5):
		return errors.New("stream: operation timed out")
	}
}
