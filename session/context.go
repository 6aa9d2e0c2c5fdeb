/*
 * Copyright (c) 2018 Miguel Ángel Ortuño.
 * See the LICENSE file for more information.
 */

package session

import (
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/ortuman/vysper/xmpp/jid"
	"github.com/pkg/errors"
	"github.com/rs/xid"
)

// ErrBackwardTransition is returned when trying to move a session to a previous state.
var ErrBackwardTransition = errors.New("session: state can only move forward")

// ErrTerminated is returned when operating on an ended session.
var ErrTerminated = errors.New("session: terminated")

// Context holds the state of a single client session.
// It is safe for concurrent use.
type Context struct {
	domain      string
	tlsRequired bool
	seq         uint64

	mu       sync.RWMutex
	streamID string
	state    State
	bound    bool
	jid      *jid.JID
	attrs    map[string]string
	cause    TerminationCause
}

// NewContext returns an initiated session context serving domain.
func NewContext(domain string, tlsRequired bool) *Context {
	j, _ := jid.New("", domain, "", true)
	return &Context{
		domain:      domain,
		tlsRequired: tlsRequired,
		streamID:    xid.New().String(),
		jid:         j,
		attrs:       make(map[string]string),
	}
}

// Domain returns the local domain the session is attached to.
func (c *Context) Domain() string { return c.domain }

// TLSRequired reports whether the session must be encrypted before authenticating.
func (c *Context) TLSRequired() bool { return c.tlsRequired }

// StreamID returns current stream identifier.
func (c *Context) StreamID() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.streamID
}

// RestartStream assigns a new stream identifier, as required after
// every stream restart.
func (c *Context) RestartStream() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.streamID = xid.New().String()
	return c.streamID
}

// State returns current session state.
func (c *Context) State() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

// SetState moves the session forward to st.
func (c *Context) SetState(st State) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cause != NotTerminated {
		return ErrTerminated
	}
	if st < c.state {
		return ErrBackwardTransition
	}
	c.state = st
	return nil
}

// Authenticate moves the session to the authenticated state,
// binding the authenticated bare identity.
func (c *Context) Authenticate(bare *jid.JID) error {
	if err := c.SetState(Authenticated); err != nil {
		return err
	}
	c.mu.Lock()
	c.jid = bare.ToBareJID()
	c.mu.Unlock()
	return nil
}

// BindResource marks the session as resource bound using the given full JID.
func (c *Context) BindResource(full *jid.JID) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cause != NotTerminated {
		return ErrTerminated
	}
	if c.state != Authenticated {
		return errors.Errorf("session: cannot bind resource in %s state", c.state)
	}
	c.jid = full
	c.bound = true
	return nil
}

// IsBound reports whether a resource has been bound to the session.
func (c *Context) IsBound() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.bound
}

// JID returns the session JID. Before authentication it only holds the local domain.
func (c *Context) JID() *jid.JID {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.jid
}

// NextSequence returns a session unique, monotonically increasing identifier.
func (c *Context) NextSequence() string {
	return strconv.FormatUint(atomic.AddUint64(&c.seq, 1), 10)
}

// SetAttribute stores a session attribute. An empty value removes it.
func (c *Context) SetAttribute(key, value string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(value) == 0 {
		delete(c.attrs, key)
		return
	}
	c.attrs[key] = value
}

// Attribute returns a session attribute value.
func (c *Context) Attribute(key string) string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.attrs[key]
}

// End terminates the session with the given cause.
// Only the first call has effect. It reports whether this call ended the session.
func (c *Context) End(cause TerminationCause) bool {
	if cause == NotTerminated {
		return false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cause != NotTerminated {
		return false
	}
	c.cause = cause
	return true
}

// IsTerminated reports whether the session already ended.
func (c *Context) IsTerminated() bool {
	return c.TerminationCause() != NotTerminated
}

// TerminationCause returns the reason the session ended, or NotTerminated.
func (c *Context) TerminationCause() TerminationCause {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.cause
}
