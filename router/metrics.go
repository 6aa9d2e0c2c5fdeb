/*
 * Copyright (c) 2018 Miguel Ángel Ortuño.
 * See the LICENSE file for more information.
 */

package router

import (
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
)

const resultDelivered = "delivered"

var relayDeliveries = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "vysper",
		Subsystem: "relay",
		Name:      "deliveries_total",
		Help:      "Total stanza deliveries by result.",
	},
	[]string{"result"},
)

func init() {
	prometheus.MustRegister(relayDeliveries)
}

func reportDelivery(result string) {
	relayDeliveries.With(prometheus.Labels{"result": result}).Inc()
}

func deliveryResult(cause error) string {
	switch errors.Cause(cause) {
	case ErrNoSuchLocalUser:
		return "no_such_user"
	case ErrLocalRecipientOffline:
		return "offline"
	case ErrRemoteServerNotFound:
		return "remote_not_found"
	case ErrCircuitOpen:
		return "circuit_open"
	}
	return "unavailable"
}
