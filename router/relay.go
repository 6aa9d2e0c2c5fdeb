/*
 * Copyright (c) 2018 Miguel Ángel Ortuño.
 * See the LICENSE file for more information.
 */

package router

import (
	"context"

	"github.com/ortuman/vysper/log"
	"github.com/ortuman/vysper/stream"
	"github.com/ortuman/vysper/xmpp"
	"github.com/ortuman/vysper/xmpp/jid"
)

type hosts interface {
	IsLocalHost(host string) bool
}

type accounts interface {
	UserExists(ctx context.Context, username string) (bool, error)
}

// ComponentRouter delivers stanzas addressed to external component sub-domains.
type ComponentRouter interface {
	// IsComponentHost tells whether domain is served by a component.
	IsComponentHost(domain string) bool

	// Route delivers stanza to the component serving its destination.
	Route(ctx context.Context, stanza xmpp.Stanza) error
}

// Relay delivers stanzas to local sessions, components and remote servers.
type Relay struct {
	hosts      hosts
	registry   *ResourceRegistry
	accounts   accounts
	remote     *remoteForwarder
	components ComponentRouter
}

// NewRelay returns a relay delivering to the local sessions of registry.
// accounts is used to tell offline users from non existing ones.
func NewRelay(hosts hosts, registry *ResourceRegistry, accounts accounts) *Relay {
	return &Relay{
		hosts:    hosts,
		registry: registry,
		accounts: accounts,
	}
}

// SetOutProvider sets the server-to-server provider used for non local domains.
// Every remote domain is guarded by its own circuit breaker.
func (r *Relay) SetOutProvider(provider OutProvider, cfg *BreakerConfig) {
	r.remote = newRemoteForwarder(provider, cfg)
}

// SetComponentRouter sets the router used for component sub-domains.
func (r *Relay) SetComponentRouter(components ComponentRouter) {
	r.components = components
}

// Registry returns the resource registry used for local deliveries.
func (r *Relay) Registry() *ResourceRegistry { return r.registry }

// Relay delivers stanza to 'to'. Delivery failures are handed over to strategy.
func (r *Relay) Relay(ctx context.Context, to *jid.JID, stanza xmpp.Stanza, strategy FailureStrategy) error {
	err := r.deliver(ctx, to, stanza)
	if err == nil {
		reportDelivery(resultDelivered)
		return nil
	}
	dErr, ok := err.(*DeliveryError)
	if !ok {
		return err
	}
	reportDelivery(deliveryResult(dErr.Cause()))
	if strategy == nil {
		strategy = IgnoreFailureStrategy
	}
	return strategy.Process(ctx, r, dErr)
}

func (r *Relay) deliver(ctx context.Context, to *jid.JID, stanza xmpp.Stanza) error {
	if r.hosts.IsLocalHost(to.Domain()) {
		return r.deliverLocal(ctx, to, stanza)
	}
	if r.components != nil && r.components.IsComponentHost(to.Domain()) {
		if err := r.components.Route(ctx, stanza); err != nil {
			log.Warnf("router: component delivery failed: %v", err)
			return newDeliveryError(ErrServiceUnavailable, to, stanza)
		}
		return nil
	}
	if r.remote != nil {
		if cause := r.remote.forward(ctx, to, stanza); cause != nil {
			return newDeliveryError(cause, to, stanza)
		}
		return nil
	}
	return newDeliveryError(ErrRemoteServerNotFound, to, stanza)
}

func (r *Relay) deliverLocal(ctx context.Context, to *jid.JID, stanza xmpp.Stanza) error {
	if to.IsServer() {
		return newDeliveryError(ErrServiceUnavailable, to, stanza)
	}
	if to.IsFull() {
		if stm := r.registry.Stream(to); stm != nil {
			return r.write(to, stanza, stm)
		}
		if _, isMessage := stanza.(*xmpp.Message); !isMessage {
			return r.offlineOrUnknown(ctx, to, stanza)
		}
		// messages to unknown resources are handled as addressed to bare JID
	}
	bare := to.ToBareJID()

	var stms []stream.C2S
	if _, isMessage := stanza.(*xmpp.Message); isMessage {
		stms = r.registry.HighestPrioritySessions(bare, 0)
		if len(stms) == 0 && len(r.registry.BoundResources(bare, true)) > 0 {
			// only negative priority resources bound
			return newDeliveryError(ErrLocalRecipientOffline, to, stanza)
		}
	} else {
		stms = r.registry.Sessions(bare)
	}
	if len(stms) == 0 {
		return r.offlineOrUnknown(ctx, to, stanza)
	}
	return r.write(to, stanza, stms...)
}

func (r *Relay) offlineOrUnknown(ctx context.Context, to *jid.JID, stanza xmpp.Stanza) error {
	if r.accounts == nil {
		return newDeliveryError(ErrLocalRecipientOffline, to, stanza)
	}
	exists, err := r.accounts.UserExists(ctx, to.ToBareJID().String())
	if err != nil {
		log.Errorf("router: failed to check account existence: %v", err)
		return newDeliveryError(ErrLocalRecipientOffline, to, stanza)
	}
	if !exists {
		return newDeliveryError(ErrNoSuchLocalUser, to, stanza)
	}
	return newDeliveryError(ErrLocalRecipientOffline, to, stanza)
}

// write delivers to every stream, succeeding if at least one write did.
func (r *Relay) write(to *jid.JID, stanza xmpp.Stanza, stms ...stream.C2S) error {
	var delivered bool
	for _, stm := range stms {
		if err := stm.WriteElement(stanza); err != nil {
			log.Warnf("router: failed to write into stream %s: %v", stm.ID(), err)
			continue
		}
		delivered = true
	}
	if !delivered {
		return newDeliveryError(ErrLocalRecipientOffline, to, stanza)
	}
	return nil
}

// IsLocalHost reports whether domain is served by this server.
func (r *Relay) IsLocalHost(domain string) bool {
	return r.hosts.IsLocalHost(domain)
}

// IsLocalUser reports whether j refers to an existing account of a local domain.
func (r *Relay) IsLocalUser(ctx context.Context, j *jid.JID) (bool, error) {
	if !r.hosts.IsLocalHost(j.Domain()) || len(j.Node()) == 0 {
		return false, nil
	}
	if r.accounts == nil {
		return true, nil
	}
	return r.accounts.UserExists(ctx, j.ToBareJID().String())
}
