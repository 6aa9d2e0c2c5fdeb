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
	"github.com/prometheus/client_golang/prometheus"
)

var rosterPushes = prometheus.NewCounter(
	prometheus.CounterOpts{
		Namespace: "vysper",
		Subsystem: "roster",
		Name:      "pushes_total",
		Help:      "Total roster pushes sent to interested resources.",
	},
)

func init() {
	prometheus.MustRegister(rosterPushes)
}

// pushItem sends item to every interested resource of its owner.
// Push identifiers are taken from the originating session sequence.
func (r *Roster) pushItem(ctx context.Context, item *rostermodel.Item, stm stream.C2S) {
	ownerJID := item.OwnerJID()
	if !r.relay.IsLocalHost(ownerJID.Domain()) {
		return
	}
	for _, resource := range r.registry.InterestedResources(ownerJID) {
		query := xmpp.NewElementBuilderNamespace("query", rosterNamespace).
			AppendElement(item.Element()).
			Build()
		push := xmpp.NewIQType(stm.Context().NextSequence(), xmpp.SetType, ownerJID, resource, query)

		if err := r.relay.Relay(ctx, resource, push, router.PropagateFailureStrategy); err != nil {
			log.Warnf("roster: failed to push item to %s: %v", resource, err)
			continue
		}
		rosterPushes.Inc()
	}
}
