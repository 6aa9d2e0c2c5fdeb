/*
 * Copyright (c) 2018 Miguel Ángel Ortuño.
 * See the LICENSE file for more information.
 */

package xep0199

import (
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ortuman/vysper/stream"
	"github.com/ortuman/vysper/xmpp"
	"github.com/ortuman/vysper/xmpp/jid"
)

const pingIDPrefix = "xmppping-"

// Listener is notified about the outcome of a ping.
// Exactly one of its methods is invoked per ping.
type Listener interface {
	// Pong is invoked when the pinged entity answered in time.
	Pong()

	// Timeout is invoked when the ping expired unanswered.
	Timeout()
}

type pendingPing struct {
	timer    *time.Timer
	listener Listener
}

// Pinger sends pings and matches their answers.
type Pinger struct {
	seq     uint64
	mu      sync.Mutex
	pending map[string]*pendingPing
}

// NewPinger returns a new pinger instance.
func NewPinger() *Pinger {
	return &Pinger{pending: make(map[string]*pendingPing)}
}

// Ping writes a ping request into w arming a timeout timer.
// It returns the ping request identifier.
func (p *Pinger) Ping(w stream.Writer, from, to *jid.JID, timeout time.Duration, listener Listener) (string, error) {
	id := pingIDPrefix + strconv.FormatUint(atomic.AddUint64(&p.seq, 1), 10)

	pp := &pendingPing{listener: listener}
	p.mu.Lock()
	p.pending[id] = pp
	pp.timer = time.AfterFunc(timeout, func() { p.expire(id) })
	p.mu.Unlock()

	iq := xmpp.NewIQType(id, xmpp.GetType, from, to, xmpp.NewElementNamespace("ping", pingNamespace))
	if err := w.WriteElement(iq); err != nil {
		p.cancel(id)
		return "", err
	}
	return id, nil
}

// IsPending reports whether id identifies an unanswered ping.
func (p *Pinger) IsPending(id string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, ok := p.pending[id]
	return ok
}

// HandleAnswer matches iq against pending pings. It reports whether iq answered one.
// Late answers are ignored.
func (p *Pinger) HandleAnswer(iq *xmpp.IQ) bool {
	if !iq.IsResult() && !iq.IsError() {
		return false
	}
	p.mu.Lock()
	pp := p.pending[iq.ID()]
	delete(p.pending, iq.ID())
	p.mu.Unlock()

	if pp == nil {
		return false
	}
	pp.timer.Stop()
	pp.listener.Pong()
	return true
}

// Stop cancels every pending ping without notifying listeners.
func (p *Pinger) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	for id, pp := range p.pending {
		pp.timer.Stop()
		delete(p.pending, id)
	}
}

func (p *Pinger) expire(id string) {
	p.mu.Lock()
	pp := p.pending[id]
	delete(p.pending, id)
	p.mu.Unlock()

	if pp != nil {
		pp.listener.Timeout()
	}
}

func (p *Pinger) cancel(id string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if pp := p.pending[id]; pp != nil {
		pp.timer.Stop()
		delete(p.pending, id)
	}
}
