/*
 * Copyright (c) 2018 Miguel Ángel Ortuño.
 * See the LICENSE file for more information.
 */

package xep0199

import (
	"context"
	"sync"
	"time"

	"github.com/ortuman/vysper/log"
	"github.com/ortuman/vysper/stream"
	"github.com/ortuman/vysper/xmpp"
	"github.com/ortuman/vysper/xmpp/jid"
	"github.com/ortuman/vysper/xmpp/streamerror"
)

// ModuleName represents ping module name.
const ModuleName = "ping"

const pingNamespace = "urn:xmpp:ping"

// Ping represents a ping server stream module.
type Ping struct {
	cfg    *Config
	pinger *Pinger

	mu         sync.Mutex
	keepalives map[string]*time.Timer // by stream id
}

// New returns a ping IQ handler module.
func New(cfg *Config) *Ping {
	return &Ping{
		cfg:        cfg,
		pinger:     NewPinger(),
		keepalives: make(map[string]*time.Timer),
	}
}

// Name satisfies module.Module interface.
func (x *Ping) Name() string { return ModuleName }

// Start satisfies module.Module interface.
func (x *Ping) Start(_ context.Context) error { return nil }

// Shutdown satisfies module.Module interface.
func (x *Ping) Shutdown(_ context.Context) error {
	x.mu.Lock()
	for id, tm := range x.keepalives {
		tm.Stop()
		delete(x.keepalives, id)
	}
	x.mu.Unlock()
	x.pinger.Stop()
	return nil
}

// MatchesIQ returns whether or not an IQ should be
// processed by the ping module.
func (x *Ping) MatchesIQ(iq *xmpp.IQ) bool {
	if (iq.IsResult() || iq.IsError()) && x.pinger.IsPending(iq.ID()) {
		return true
	}
	return iq.Elements().ChildNamespace("ping", pingNamespace) != nil
}

// ProcessIQ processes a ping IQ taking according actions
// over the associated stream.
func (x *Ping) ProcessIQ(_ context.Context, iq *xmpp.IQ, stm stream.C2S) {
	if x.pinger.HandleAnswer(iq) {
		return
	}
	if !iq.IsGet() {
		_ = stm.WriteElement(xmpp.NewErrorStanza(iq, xmpp.ErrBadRequest))
		return
	}
	userJID := stm.Context().JID()
	if to := iq.ToJID(); to != nil && !to.IsServer() && !to.Matches(userJID, jid.MatchesBare) {
		_ = stm.WriteElement(xmpp.NewErrorStanza(iq, xmpp.ErrForbidden))
		return
	}
	log.Debugf("received ping... id: %s", iq.ID())
	_ = stm.WriteElement(iq.ResultIQ())
}

// SessionBound schedules keepalive pings for stm when enabled.
func (x *Ping) SessionBound(_ context.Context, stm stream.C2S) {
	if !x.cfg.Send {
		return
	}
	x.schedule(stm)
}

// SessionTerminated cancels any stm scheduled keepalive.
func (x *Ping) SessionTerminated(_ context.Context, stm stream.C2S) {
	x.mu.Lock()
	defer x.mu.Unlock()
	if tm := x.keepalives[stm.ID()]; tm != nil {
		tm.Stop()
		delete(x.keepalives, stm.ID())
	}
}

func (x *Ping) schedule(stm stream.C2S) {
	x.mu.Lock()
	defer x.mu.Unlock()
	if tm := x.keepalives[stm.ID()]; tm != nil {
		tm.Stop()
	}
	x.keepalives[stm.ID()] = time.AfterFunc(x.cfg.SendInterval, func() { x.sendKeepAlive(stm) })
}

func (x *Ping) sendKeepAlive(stm stream.C2S) {
	x.mu.Lock()
	_, scheduled := x.keepalives[stm.ID()]
	x.mu.Unlock()
	if !scheduled || stm.Context().IsTerminated() {
		return
	}
	userJID := stm.Context().JID()
	srvJID, _ := jid.New("", userJID.Domain(), "", true)

	id, err := x.pinger.Ping(stm, srvJID, userJID, x.cfg.Timeout, &keepAliveListener{x: x, stm: stm})
	if err != nil {
		log.Warnf("xep0199: failed to send ping to %s: %v", userJID, err)
		return
	}
	log.Debugf("sent ping... id: %s", id)
}

type keepAliveListener struct {
	x   *Ping
	stm stream.C2S
}

func (l *keepAliveListener) Pong() {
	if l.stm.Context().IsTerminated() {
		return
	}
	l.x.schedule(l.stm)
}

func (l *keepAliveListener) Timeout() {
	log.Infof("ping timeout... disconnecting %s", l.stm.ID())
	l.x.SessionTerminated(context.Background(), l.stm)
	l.stm.Disconnect(streamerror.ErrConnectionTimeout)
}
