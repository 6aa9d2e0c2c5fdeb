/*
 * Copyright (c) 2018 Miguel Ángel Ortuño.
 * See the LICENSE file for more information.
 */

package module

import (
	"context"

	"github.com/ortuman/vysper/log"
	"github.com/ortuman/vysper/stream"
	"github.com/ortuman/vysper/xmpp"
	"github.com/pkg/errors"
)

// Module represents an XMPP server module.
type Module interface {
	// Name returns module name.
	Name() string

	// Start starts module.
	Start(ctx context.Context) error

	// Shutdown shuts down module, releasing any resource.
	Shutdown(ctx context.Context) error
}

// IQProcessor represents a module able to process IQ stanzas.
type IQProcessor interface {
	// MatchesIQ returns whether or not an IQ should be
	// processed by this module.
	MatchesIQ(iq *xmpp.IQ) bool

	// ProcessIQ processes a module IQ taking according actions
	// over the associated stream.
	ProcessIQ(ctx context.Context, iq *xmpp.IQ, stm stream.C2S)
}

// PresenceProcessor represents a module able to process presence stanzas.
type PresenceProcessor interface {
	// ProcessPresence processes a presence sent by stm.
	ProcessPresence(ctx context.Context, presence *xmpp.Presence, stm stream.C2S) error
}

// SessionObserver represents a module interested in session lifecycle.
type SessionObserver interface {
	// SessionBound is invoked once stm has bound a resource.
	SessionBound(ctx context.Context, stm stream.C2S)

	// SessionTerminated is invoked once stm has been terminated.
	SessionTerminated(ctx context.Context, stm stream.C2S)
}

// Modules is a flat composition of server modules.
type Modules struct {
	all       []Module
	iqs       []IQProcessor
	presences []PresenceProcessor
	observers []SessionObserver
}

// New returns a modules set. Capabilities are discovered from every module.
func New(mods ...Module) *Modules {
	m := &Modules{}
	for _, mod := range mods {
		m.all = append(m.all, mod)
		if p, ok := mod.(IQProcessor); ok {
			m.iqs = append(m.iqs, p)
		}
		if p, ok := mod.(PresenceProcessor); ok {
			m.presences = append(m.presences, p)
		}
		if o, ok := mod.(SessionObserver); ok {
			m.observers = append(m.observers, o)
		}
	}
	return m
}

// Names returns the name of every registered module.
func (m *Modules) Names() []string {
	var ret []string
	for _, mod := range m.all {
		ret = append(ret, mod.Name())
	}
	return ret
}

// Start starts every registered module.
func (m *Modules) Start(ctx context.Context) error {
	for _, mod := range m.all {
		if err := mod.Start(ctx); err != nil {
			return errors.Wrapf(err, "module: failed to start %s", mod.Name())
		}
		log.Infof("started %s module", mod.Name())
	}
	return nil
}

// Shutdown shuts down every registered module in reverse order.
func (m *Modules) Shutdown(ctx context.Context) error {
	for i := len(m.all) - 1; i >= 0; i-- {
		if err := m.all[i].Shutdown(ctx); err != nil {
			return errors.Wrapf(err, "module: failed to shutdown %s", m.all[i].Name())
		}
	}
	return nil
}

// ProcessIQ routes iq to the first matching module.
// It reports whether a module took care of it.
func (m *Modules) ProcessIQ(ctx context.Context, iq *xmpp.IQ, stm stream.C2S) bool {
	for _, p := range m.iqs {
		if p.MatchesIQ(iq) {
			p.ProcessIQ(ctx, iq, stm)
			return true
		}
	}
	return false
}

// ProcessPresence hands presence over to every presence processor.
// The first error aborts processing.
func (m *Modules) ProcessPresence(ctx context.Context, presence *xmpp.Presence, stm stream.C2S) error {
	for _, p := range m.presences {
		if err := p.ProcessPresence(ctx, presence, stm); err != nil {
			return err
		}
	}
	return nil
}

// SessionBound notifies every session observer.
func (m *Modules) SessionBound(ctx context.Context, stm stream.C2S) {
	for _, o := range m.observers {
		o.SessionBound(ctx, stm)
	}
}

// SessionTerminated notifies every session observer.
func (m *Modules) SessionTerminated(ctx context.Context, stm stream.C2S) {
	for _, o := range m.observers {
		o.SessionTerminated(ctx, stm)
	}
}
