/*
 * Copyright (c) 2018 Miguel Ángel Ortuño.
 * See the LICENSE file for more information.
 */

package roster

import (
	"context"

	"github.com/ortuman/vysper/log"
	"github.com/ortuman/vysper/model/rostermodel"
	"github.com/ortuman/vysper/router"
	"github.com/ortuman/vysper/stream"
	"github.com/ortuman/vysper/xmpp"
	"github.com/ortuman/vysper/xmpp/jid"
)

// ProcessPresence processes a presence sent by the stm bound resource.
func (r *Roster) ProcessPresence(ctx context.Context, presence *xmpp.Presence, stm stream.C2S) error {
	switch presence.Type() {
	case xmpp.AvailableType, xmpp.UnavailableType:
		return r.processAvailability(ctx, presence, stm)

	case xmpp.SubscribeType, xmpp.SubscribedType, xmpp.UnsubscribeType, xmpp.UnsubscribedType, xmpp.ProbeType:
		return r.processSubscription(ctx, presence, stm)

	case xmpp.ErrorType:
		if to := presence.ToJID(); to != nil {
			return r.relay.Relay(ctx, to, presence, router.IgnoreFailureStrategy)
		}
	}
	return nil
}

func (r *Roster) processAvailability(ctx context.Context, presence *xmpp.Presence, stm stream.C2S) error {
	userJID := stm.Context().JID()
	if to := presence.ToJID(); to != nil && !to.Equal(userJID.ToBareJID()) {
		return ErrDirectedPresenceUnsupported
	}
	st, ok := r.registry.State(userJID)
	if !ok {
		return router.ErrResourceNotFound
	}
	if presence.IsUnavailable() {
		if !st.IsAvailable() {
			return nil
		}
		if err := r.broadcastPresence(ctx, presence, userJID); err != nil {
			return err
		}
		r.cache.Remove(userJID)
		_, err := r.registry.SetState(userJID, router.MakeUnavailable(st))
		log.Infof("resource became unavailable... (%s)", userJID)
		return err
	}
	initial := !st.IsAvailable()
	if initial {
		if _, err := r.registry.SetState(userJID, router.MakeAvailable(st)); err != nil {
			return err
		}
	}
	r.cache.Put(presence)
	r.registry.SetPriority(userJID, int(presence.Priority()))

	if err := r.broadcastPresence(ctx, presence, userJID); err != nil {
		return err
	}
	if !initial {
		return nil
	}
	log.Infof("resource became available... (%s)", userJID)
	items, err := r.rep.FetchRosterItems(ctx, userJID.ToBareJID().String())
	if err != nil {
		return err
	}
	for i := range items {
		item := &items[i]
		if item.HasTo() {
			probe := xmpp.NewPresence(userJID, item.ContactJID(), xmpp.ProbeType)
			r.sendSubscription(ctx, probe, stm, router.IgnoreFailureStrategy)
		}
		if item.PendingIn() {
			// pending approval request
			_ = stm.WriteElement(xmpp.NewPresence(item.ContactJID(), userJID.ToBareJID(), xmpp.SubscribeType))
		}
	}
	return nil
}

// broadcastPresence sends presence to every FROM/BOTH contact and to every
// other available resource of the sender.
func (r *Roster) broadcastPresence(ctx context.Context, presence *xmpp.Presence, userJID *jid.JID) error {
	items, err := r.rep.FetchRosterItems(ctx, userJID.ToBareJID().String())
	if err != nil {
		return err
	}
	for i := range items {
		if !items[i].HasFrom() {
			continue
		}
		contactJID := items[i].ContactJID()
		_ = r.relay.Relay(ctx, contactJID, xmpp.Readdress(presence, userJID, contactJID), router.IgnoreFailureStrategy)
	}
	for _, resource := range r.registry.AvailableResources(userJID.ToBareJID()) {
		if resource.Equal(userJID) {
			continue
		}
		_ = r.relay.Relay(ctx, resource, xmpp.Readdress(presence, userJID, resource), router.IgnoreFailureStrategy)
	}
	return nil
}

func (r *Roster) processSubscription(ctx context.Context, presence *xmpp.Presence, stm stream.C2S) error {
	if presence.IsProbe() {
		// probes are generated server side only
		return stm.WriteElement(xmpp.NewErrorStanza(presence, xmpp.ErrBadRequest))
	}
	userJID := stm.Context().JID()
	to := presence.ToJID()
	if to == nil || len(to.Node()) == 0 || to.Matches(userJID, jid.MatchesBare) {
		log.Warnf("roster: ignoring %s presence to %v", presence.Type(), to)
		return nil
	}
	ownerJID := userJID.ToBareJID()
	contactJID := to.ToBareJID()
	outbound := readdressPresence(presence, ownerJID, contactJID)

	owner, contact := ownerJID.String(), contactJID.String()
	switch presence.Type() {
	case xmpp.SubscribeType:
		item, changed, err := r.modifyItem(ctx, owner, contact, true, func(item *rostermodel.Item) bool {
			return rostermodel.AddAsk(item, rostermodel.AskSubscribe) == rostermodel.OK
		})
		if err != nil {
			return err
		}
		if changed {
			r.pushItem(ctx, item, stm)
		}
		r.sendSubscription(ctx, outbound, stm, router.ReturnErrorToSenderStrategy)

	case xmpp.SubscribedType:
		var res rostermodel.MutationResult
		item, changed, err := r.modifyItem(ctx, owner, contact, true, func(item *rostermodel.Item) bool {
			res = rostermodel.AddSubscription(item, rostermodel.SubscriptionFrom)
			return res == rostermodel.OK
		})
		if err != nil {
			return err
		}
		if !changed {
			log.Infof("roster: %s already approved for %s (%s)", contactJID, ownerJID, res)
			return nil
		}
		r.pushItem(ctx, item, stm)
		r.sendSubscription(ctx, outbound, stm, router.ReturnErrorToSenderStrategy)

		// contact receives owner current availability
		for _, p := range r.cache.ForBareJID(ownerJID) {
			_ = r.relay.Relay(ctx, contactJID, xmpp.Readdress(p, p.FromJID(), contactJID), router.IgnoreFailureStrategy)
		}

	case xmpp.UnsubscribeType:
		item, changed, err := r.modifyItem(ctx, owner, contact, false, func(item *rostermodel.Item) bool {
			return rostermodel.RemoveSubscription(item, rostermodel.SubscriptionTo) == rostermodel.OK
		})
		if err != nil {
			return err
		}
		if changed {
			r.pushItem(ctx, item, stm)
		}
		r.sendSubscription(ctx, outbound, stm, router.IgnoreFailureStrategy)

	case xmpp.UnsubscribedType:
		item, changed, err := r.modifyItem(ctx, owner, contact, false, func(item *rostermodel.Item) bool {
			return rostermodel.RemoveSubscription(item, rostermodel.SubscriptionFrom) == rostermodel.OK
		})
		if err != nil {
			return err
		}
		if changed {
			r.pushItem(ctx, item, stm)
		}
		r.sendSubscription(ctx, outbound, stm, router.IgnoreFailureStrategy)
		r.sendUnavailable(ctx, ownerJID, contactJID)
	}
	return nil
}

// sendSubscription delivers a subscription related presence. Presences addressed
// to local accounts are processed in place on behalf of the contact.
func (r *Roster) sendSubscription(ctx context.Context, presence *xmpp.Presence, stm stream.C2S, strategy router.FailureStrategy) {
	to := presence.ToJID()
	isLocal, err := r.relay.IsLocalUser(ctx, to)
	if err != nil {
		log.Errorf("roster: %v", err)
		return
	}
	if !isLocal {
		_ = r.relay.Relay(ctx, to, presence, strategy)
		return
	}
	if err := r.processInbound(ctx, presence, stm); err != nil {
		log.Errorf("roster: failed to process inbound %s presence: %v", presence.Type(), err)
	}
}

// processInbound processes a subscription presence received by a local user.
func (r *Roster) processInbound(ctx context.Context, presence *xmpp.Presence, stm stream.C2S) error {
	if presence.IsProbe() {
		return r.processProbe(ctx, presence, stm)
	}
	userJID := presence.ToJID().ToBareJID()
	contactJID := presence.FromJID().ToBareJID()

	user, contact := userJID.String(), contactJID.String()
	switch presence.Type() {
	case xmpp.SubscribeType:
		var approved bool
		_, _, err := r.modifyItem(ctx, user, contact, true, func(item *rostermodel.Item) bool {
			if item.HasFrom() {
				approved = true
				return false
			}
			return rostermodel.AddAsk(item, rostermodel.AskSubscribed) == rostermodel.OK
		})
		if err != nil {
			return err
		}
		if approved {
			// already approved, auto answer
			r.sendSubscription(ctx, xmpp.NewPresence(userJID, contactJID, xmpp.SubscribedType), stm, router.IgnoreFailureStrategy)
			return nil
		}

	case xmpp.SubscribedType:
		item, changed, err := r.modifyItem(ctx, user, contact, false, func(item *rostermodel.Item) bool {
			return item.PendingOut() && rostermodel.AddSubscription(item, rostermodel.SubscriptionTo) == rostermodel.OK
		})
		if err != nil {
			return err
		}
		if !changed {
			log.Infof("roster: ignoring unrequested subscription approval from %s", contactJID)
			return nil
		}
		r.pushItem(ctx, item, stm)

	case xmpp.UnsubscribeType:
		item, changed, err := r.modifyItem(ctx, user, contact, false, func(item *rostermodel.Item) bool {
			return rostermodel.RemoveSubscription(item, rostermodel.SubscriptionFrom) == rostermodel.OK
		})
		if err != nil {
			return err
		}
		if changed {
			r.pushItem(ctx, item, stm)
			r.sendUnavailable(ctx, userJID, contactJID)
		}

	case xmpp.UnsubscribedType:
		item, changed, err := r.modifyItem(ctx, user, contact, false, func(item *rostermodel.Item) bool {
			return rostermodel.RemoveSubscription(item, rostermodel.SubscriptionTo) == rostermodel.OK
		})
		if err != nil {
			return err
		}
		if changed {
			r.pushItem(ctx, item, stm)
		}
	}
	return r.relay.Relay(ctx, userJID, presence, router.IgnoreFailureStrategy)
}

func (r *Roster) processProbe(ctx context.Context, probe *xmpp.Presence, stm stream.C2S) error {
	userJID := probe.ToJID().ToBareJID()
	proberJID := probe.FromJID()

	item, err := r.rep.FetchRosterItem(ctx, userJID.String(), proberJID.ToBareJID().String())
	if err != nil {
		return err
	}
	if item == nil || !item.HasFrom() {
		r.sendSubscription(ctx, xmpp.NewPresence(userJID, proberJID.ToBareJID(), xmpp.UnsubscribedType), stm, router.IgnoreFailureStrategy)
		return nil
	}
	p := r.cache.LatestForBareJID(userJID)
	if p == nil || len(r.registry.BoundResources(userJID, true)) == 0 {
		return r.relay.Relay(ctx, proberJID, xmpp.NewPresence(userJID, proberJID, xmpp.UnavailableType), router.IgnoreFailureStrategy)
	}
	return r.relay.Relay(ctx, proberJID, xmpp.Readdress(p, p.FromJID(), proberJID), router.IgnoreFailureStrategy)
}

// sendUnavailable notifies contact that every available resource of user went offline.
func (r *Roster) sendUnavailable(ctx context.Context, userJID, contactJID *jid.JID) {
	for _, p := range r.cache.ForBareJID(userJID) {
		unavailable := xmpp.NewPresence(p.FromJID(), contactJID, xmpp.UnavailableType)
		_ = r.relay.Relay(ctx, contactJID, unavailable, router.IgnoreFailureStrategy)
	}
}

func readdressPresence(presence *xmpp.Presence, from, to *jid.JID) *xmpp.Presence {
	return xmpp.Readdress(presence, from, to).(*xmpp.Presence)
}
