/*
 * Copyright (c) 2018 Miguel Ángel Ortuño.
 * See the LICENSE file for more information.
 */

package roster

import (
	"context"

	"github.com/ortuman/vysper/log"
	"github.com/ortuman/vysper/model/rostermodel"
	"github.com/ortuman/vysper/module/presencehub"
	"github.com/ortuman/vysper/router"
	"github.com/ortuman/vysper/storage/repository"
	"github.com/ortuman/vysper/stream"
	"github.com/ortuman/vysper/xmpp"
	"github.com/ortuman/vysper/xmpp/jid"
	"github.com/pkg/errors"
)

// ModuleName represents roster module name.
const ModuleName = "roster"

const rosterNamespace = "jabber:iq:roster"

// ErrDirectedPresenceUnsupported is returned when processing
// an availability presence addressed to a specific entity.
var ErrDirectedPresenceUnsupported = errors.New("roster: directed presence unsupported")

// Roster represents the roster and presence subscription module.
type Roster struct {
	relay    *router.Relay
	registry *router.ResourceRegistry
	rep      repository.Roster
	cache    *presencehub.Cache
	locks    *itemLocks
}

// New returns a roster module instance.
func New(relay *router.Relay, rep repository.Roster, cache *presencehub.Cache) *Roster {
	return &Roster{
		relay:    relay,
		registry: relay.Registry(),
		rep:      rep,
		cache:    cache,
		locks:    newItemLocks(),
	}
}

// Name satisfies module.Module interface.
func (r *Roster) Name() string { return ModuleName }

// Start satisfies module.Module interface.
func (r *Roster) Start(_ context.Context) error { return nil }

// Shutdown satisfies module.Module interface.
func (r *Roster) Shutdown(_ context.Context) error { return nil }

// SessionBound satisfies module.SessionObserver interface.
func (r *Roster) SessionBound(_ context.Context, _ stream.C2S) {}

// SessionTerminated drops the cached presence of the terminated resource.
func (r *Roster) SessionTerminated(_ context.Context, stm stream.C2S) {
	if j := stm.Context().JID(); j.IsFullWithUser() {
		r.cache.Remove(j)
	}
}

// MatchesIQ returns whether or not an IQ should be
// processed by the roster module.
func (r *Roster) MatchesIQ(iq *xmpp.IQ) bool {
	return iq.Elements().ChildNamespace("query", rosterNamespace) != nil
}

// ProcessIQ processes a roster IQ taking according actions
// over the associated stream.
func (r *Roster) ProcessIQ(ctx context.Context, iq *xmpp.IQ, stm stream.C2S) {
	userJID := stm.Context().JID()
	if to := iq.ToJID(); to != nil && !to.IsServer() && !to.Matches(userJID.ToBareJID(), jid.MatchesBare) {
		_ = stm.WriteElement(xmpp.NewErrorStanza(iq, xmpp.ErrForbidden))
		return
	}
	q := iq.Elements().ChildNamespace("query", rosterNamespace)

	var err error
	switch {
	case iq.IsGet():
		err = r.sendRoster(ctx, iq, q, stm)
	case iq.IsSet():
		err = r.updateRoster(ctx, iq, q, stm)
	default:
		err = rostermodel.ErrBadRequest
	}
	if err != nil {
		log.Warnf("roster: failed to process iq %s: %v", iq.ID(), err)
		_ = stm.WriteElement(xmpp.NewErrorStanza(iq, stanzaError(err)))
	}
}

func (r *Roster) sendRoster(ctx context.Context, iq *xmpp.IQ, q xmpp.XElement, stm stream.C2S) error {
	if q.Elements().Count() > 0 {
		return rostermodel.ErrBadRequest
	}
	userJID := stm.Context().JID()
	items, err := r.rep.FetchRosterItems(ctx, userJID.ToBareJID().String())
	if err != nil {
		return err
	}
	// the requesting resource becomes interested
	if st, ok := r.registry.State(userJID); ok {
		_, _ = r.registry.SetState(userJID, router.MakeInterested(st))
	}
	qb := xmpp.NewElementBuilderNamespace("query", rosterNamespace)
	for i := range items {
		if isPendingIn(&items[i]) {
			continue
		}
		qb.AppendElement(items[i].Element())
	}
	log.Infof("retrieving user roster... (%s)", userJID)
	return stm.WriteElement(iq.ResultIQWithPayload(qb.Build()))
}

func (r *Roster) updateRoster(ctx context.Context, iq *xmpp.IQ, q xmpp.XElement, stm stream.C2S) error {
	items := q.Elements().Children("item")
	if len(items) != 1 {
		return errors.Wrap(rostermodel.ErrBadRequest, "roster set must carry exactly one item")
	}
	ri, err := rostermodel.NewItem(items[0])
	if err != nil {
		return err
	}
	userJID := stm.Context().JID()
	if ri.JID == userJID.ToBareJID().String() {
		return errors.Wrap(rostermodel.ErrNotAcceptable, "own bare JID can not be a roster item")
	}
	ri.Username = userJID.ToBareJID().String()

	if ri.Subscription == rostermodel.SubscriptionRemove {
		err = r.removeItem(ctx, ri, stm)
	} else {
		err = r.upsertItem(ctx, ri, stm)
	}
	if err != nil {
		return err
	}
	return stm.WriteElement(iq.ResultIQ())
}

// upsertItem updates name and groups. Subscription attributes are ignored.
func (r *Roster) upsertItem(ctx context.Context, ri *rostermodel.Item, stm stream.C2S) error {
	item, _, err := r.modifyItem(ctx, ri.Username, ri.JID, true, func(item *rostermodel.Item) bool {
		item.Name = ri.Name
		item.Groups = ri.Groups
		return true
	})
	if err != nil {
		return err
	}
	log.Infof("updated roster item... (%s/%s)", item.Username, item.JID)
	r.pushItem(ctx, item, stm)
	return nil
}

func (r *Roster) removeItem(ctx context.Context, ri *rostermodel.Item, stm stream.C2S) error {
	unlock := r.locks.lock(ri.Username)
	item, err := r.rep.FetchRosterItem(ctx, ri.Username, ri.JID)
	if err == nil && item != nil {
		err = r.rep.DeleteRosterItem(ctx, item.Username, item.JID)
	}
	unlock()

	if err != nil {
		return err
	}
	if item == nil {
		return rostermodel.ErrItemNotFound
	}
	log.Infof("removed roster item... (%s/%s)", item.Username, item.JID)

	ownerJID := item.OwnerJID()
	contactJID := item.ContactJID()
	if item.HasFrom() || item.PendingIn() {
		r.sendSubscription(ctx, xmpp.NewPresence(ownerJID, contactJID, xmpp.UnsubscribedType), stm, router.IgnoreFailureStrategy)
	}
	if item.HasTo() || item.PendingOut() {
		r.sendSubscription(ctx, xmpp.NewPresence(ownerJID, contactJID, xmpp.UnsubscribeType), stm, router.IgnoreFailureStrategy)
	}
	item.Subscription = rostermodel.SubscriptionRemove
	item.Ask = rostermodel.AskNone
	r.pushItem(ctx, item, stm)
	return nil
}

// isPendingIn reports whether item only tracks an inbound subscription request.
func isPendingIn(item *rostermodel.Item) bool {
	return item.Subscription == rostermodel.SubscriptionNone && item.Ask == rostermodel.AskSubscribed
}

func stanzaError(err error) *xmpp.StanzaError {
	switch errors.Cause(err) {
	case rostermodel.ErrBadRequest:
		return xmpp.ErrBadRequest
	case rostermodel.ErrNotAcceptable:
		return xmpp.ErrNotAcceptable
	case rostermodel.ErrItemNotFound:
		return xmpp.ErrItemNotFound
	}
	return xmpp.ErrInternalServerError
}
