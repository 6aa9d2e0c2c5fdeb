/*
 * Copyright (c) 2018 Miguel Ángel Ortuño.
 * See the LICENSE file for more information.
 */

package router

import (
	"context"
	"sync"

	"github.com/ortuman/vysper/log"
	"github.com/ortuman/vysper/stream"
	"github.com/ortuman/vysper/xmpp"
	"github.com/ortuman/vysper/xmpp/jid"
	"github.com/sony/gobreaker"
)

// OutProvider provides a server-to-server outgoing stream for every single
// pair of (localDomain, remoteDomain) values.
type OutProvider interface {
	Out(ctx context.Context, localDomain, remoteDomain string) (stream.Writer, error)
}

type remoteForwarder struct {
	provider OutProvider
	cfg      BreakerConfig

	mu       sync.Mutex
	breakers map[string]*gobreaker.CircuitBreaker
}

func newRemoteForwarder(provider OutProvider, cfg *BreakerConfig) *remoteForwarder {
	f := &remoteForwarder{
		provider: provider,
		breakers: make(map[string]*gobreaker.CircuitBreaker),
	}
	if cfg != nil {
		f.cfg = *cfg
	} else {
		f.cfg = defaultBreakerConfig()
	}
	return f
}

// forward returns the delivery failure cause, if any.
func (f *remoteForwarder) forward(ctx context.Context, to *jid.JID, stanza xmpp.Stanza) error {
	var localDomain string
	if from := stanza.FromJID(); from != nil {
		localDomain = from.Domain()
	}
	remoteDomain := to.Domain()

	_, err := f.breaker(remoteDomain).Execute(func() (interface{}, error) {
		out, err := f.provider.Out(ctx, localDomain, remoteDomain)
		if err != nil {
			return nil, err
		}
		return nil, out.WriteElement(stanza)
	})
	switch err {
	case nil:
		return nil
	case gobreaker.ErrOpenState, gobreaker.ErrTooManyRequests:
		return ErrCircuitOpen
	}
	log.Warnf("router: remote delivery to %s failed: %v", remoteDomain, err)
	return ErrRemoteServerNotFound
}

func (f *remoteForwarder) breaker(domain string) *gobreaker.CircuitBreaker {
	f.mu.Lock()
	defer f.mu.Unlock()

	cb := f.breakers[domain]
	if cb == nil {
		maxFailures := f.cfg.MaxFailures
		cb = gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        domain,
			MaxRequests: f.cfg.MaxRequests,
			Interval:    f.cfg.Interval,
			Timeout:     f.cfg.Timeout,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= maxFailures
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				log.Infof("router: %s circuit state changed: %s -> %s", name, from, to)
			},
		})
		f.breakers[domain] = cb
	}
	return cb
}
